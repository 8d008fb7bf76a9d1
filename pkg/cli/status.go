package cli

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/testingsyndicate/stubctl/internal/ports"
	"github.com/testingsyndicate/stubctl/pkg/cli/internal/output"
	"github.com/testingsyndicate/stubctl/pkg/lifecycle"
	"github.com/testingsyndicate/stubctl/pkg/session"
	"github.com/testingsyndicate/stubctl/pkg/stubby"
)

const reachTimeout = 500 * time.Millisecond

// Server states reported by status.
const (
	stateRunning     = "running"
	stateUnreachable = "unreachable"
	stateStopped     = "stopped"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the stubby recorded in the session",
	Example: `  stubctl status
  stubctl status --json`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

// serverInfo is the JSON output of start and status.
type serverInfo struct {
	Session     string `json:"session"`
	State       string `json:"state"`
	Backend     string `json:"backend,omitempty"`
	PID         int    `json:"pid,omitempty"`
	ContainerID string `json:"containerId,omitempty"`
	URL         string `json:"url,omitempty"`
	HTTPSURL    string `json:"httpsUrl,omitempty"`
	AdminURL    string `json:"adminUrl,omitempty"`
	StubsFile   string `json:"stubsFile,omitempty"`
	LogFile     string `json:"logFile,omitempty"`
	Uptime      string `json:"uptime,omitempty"`
}

func newServerInfo(sessionName string, h stubby.Handle, reachable bool) serverInfo {
	state := stateRunning
	if !reachable {
		state = stateUnreachable
	}
	return serverInfo{
		Session:     sessionName,
		State:       state,
		Backend:     h.Backend,
		PID:         h.PID,
		ContainerID: h.ContainerID,
		URL:         h.URL(),
		HTTPSURL:    h.HTTPSURL(),
		AdminURL:    h.AdminURL(),
		StubsFile:   h.StubsFile,
		LogFile:     h.LogFile,
		Uptime:      h.FormatUptime(),
	}
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	sess, err := session.NewStore(cfg.StateDir).Load(cfg.Session)
	if err != nil {
		return err
	}

	h, ok := session.Get(sess, lifecycle.HandleKey)
	if !ok {
		info := serverInfo{Session: cfg.Session, State: stateStopped}
		return printResult(cmd, info, func(w io.Writer) {
			fmt.Fprintf(w, "stubby is not running (session %q)\n", cfg.Session)
			fmt.Fprintln(w)
			fmt.Fprintln(w, "To start: stubctl start")
		})
	}

	reachable := ports.Reachable(stubby.DefaultAddress, h.HTTPPort, reachTimeout)
	info := newServerInfo(cfg.Session, h, reachable)
	return printResult(cmd, info, func(w io.Writer) {
		printStatusTable(w, info)
		if !reachable {
			fmt.Fprintln(w)
			output.Warn(w, "nothing is listening on port %d; run \"stubctl stop\" to clear the session", h.HTTPPort)
		}
	})
}

func printStatusTable(w io.Writer, info serverInfo) {
	title := cases.Title(language.English)

	t := output.Table(w)
	t.AppendRow(table.Row{"Session", info.Session})
	t.AppendRow(table.Row{"State", title.String(info.State)})
	t.AppendRow(table.Row{"Backend", info.Backend})
	if info.PID > 0 {
		t.AppendRow(table.Row{"PID", strconv.Itoa(info.PID)})
	}
	if info.ContainerID != "" {
		t.AppendRow(table.Row{"Container", shortID(info.ContainerID)})
	}
	t.AppendRow(table.Row{"Stubs", info.URL})
	if info.HTTPSURL != "" {
		t.AppendRow(table.Row{"Stubs (TLS)", info.HTTPSURL})
	}
	if info.AdminURL != "" {
		t.AppendRow(table.Row{"Admin", info.AdminURL})
	}
	t.AppendRow(table.Row{"Stubs file", info.StubsFile})
	if info.LogFile != "" {
		t.AppendRow(table.Row{"Log file", info.LogFile})
	}
	t.AppendRow(table.Row{"Uptime", info.Uptime})
	t.Render()
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
