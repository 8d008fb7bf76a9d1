package stubby

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrServerGone is returned when re-attaching to a server that is no longer running.
var ErrServerGone = errors.New("stubby is no longer running")

// Server is a stub server constructed by a Factory. All methods block until
// the operation completes.
type Server interface {
	// Start launches the server and returns once it accepts connections.
	Start(ctx context.Context) error
	// Stop shuts the server down.
	Stop(ctx context.Context) error
	// Join waits until the server terminates. Cancelling ctx stops the server.
	Join(ctx context.Context) error
	// Handle describes the running server so a later phase can re-attach.
	Handle() Handle
}

// Factory constructs servers. Construct must wait for the preflight before
// launching anything.
type Factory interface {
	Construct(ctx context.Context, stubsFile string, args Arguments, preflight *Preflight) (Server, error)
	Attach(ctx context.Context, h Handle) (Server, error)
}

// Handle is the serializable description of a running server, handed from
// the start phase to the stop phase.
type Handle struct {
	Backend       string    `json:"backend"`
	PID           int       `json:"pid,omitempty"`
	ContainerID   string    `json:"containerId,omitempty"`
	ContainerName string    `json:"containerName,omitempty"`
	StubsFile     string    `json:"stubsFile"`
	HTTPPort      int       `json:"httpPort"`
	HTTPSPort     int       `json:"httpsPort,omitempty"`
	AdminPort     int       `json:"adminPort,omitempty"`
	LogFile       string    `json:"logFile,omitempty"`
	StartedAt     time.Time `json:"startedAt"`
}

// NewHandle fills the port and file fields of a handle from args.
func NewHandle(backend string, args Arguments) Handle {
	h := Handle{
		Backend:   backend,
		StubsFile: args[OptionConfig],
		StartedAt: time.Now(),
	}
	h.HTTPPort, _ = args.Port(OptionClientPort)
	h.HTTPSPort, _ = args.Port(OptionTLSPort)
	h.AdminPort, _ = args.Port(OptionAdminPort)
	return h
}

// URL returns the stubs endpoint.
func (h Handle) URL() string {
	return fmt.Sprintf("http://%s:%d", DefaultAddress, h.HTTPPort)
}

// HTTPSURL returns the TLS stubs endpoint, or "" when TLS is disabled.
func (h Handle) HTTPSURL() string {
	if h.HTTPSPort == 0 {
		return ""
	}
	return fmt.Sprintf("https://%s:%d", DefaultAddress, h.HTTPSPort)
}

// AdminURL returns the admin portal, or "" when it is disabled.
func (h Handle) AdminURL() string {
	if h.AdminPort == 0 {
		return ""
	}
	return fmt.Sprintf("http://%s:%d", DefaultAddress, h.AdminPort)
}

// Uptime returns the duration since the server started.
func (h Handle) Uptime() time.Duration {
	if h.StartedAt.IsZero() {
		return 0
	}
	return time.Since(h.StartedAt)
}

// FormatUptime returns a human-readable uptime string.
func (h Handle) FormatUptime() string {
	d := h.Uptime()
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
