package container

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	dockercontainer "github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/testingsyndicate/stubctl/pkg/logging"
	"github.com/testingsyndicate/stubctl/pkg/stubby"
)

// Backend is the handle backend name for this package.
const Backend = "container"

// DataDir is where the image looks for stub definitions.
const DataDir = "/home/stubby4j/data"

// Environment variables understood by the stubby4j image.
const (
	EnvYAMLConfig = "YAML_CONFIG"
	EnvLocation   = "LOCATION"
	EnvStubsPort  = "STUBS_PORT"
	EnvAdminPort  = "ADMIN_PORT"
	EnvTLSPort    = "STUBS_TLS_PORT"
	EnvWithArgs   = "WITH_ARGS"
)

const pollInterval = 500 * time.Millisecond

const envRyukDisabled = "TESTCONTAINERS_RYUK_DISABLED"

// Options configures the container backend.
type Options struct {
	// Image is the stubby4j image reference.
	Image string
	// Name is the container name; Attach finds the container by it.
	Name string
	// Output receives the container's log stream. Nil discards it.
	Output io.Writer
	// ReadyTimeout bounds how long Start waits for the stubs port.
	ReadyTimeout time.Duration
	// Detach keeps the container alive after this process exits by turning
	// off the testcontainers reaper. Stop removes it instead.
	Detach bool

	Logger *slog.Logger
}

// Factory constructs container-backed servers.
type Factory struct {
	opts Options
	log  *slog.Logger
}

// NewFactory creates a Factory.
func NewFactory(opts Options) *Factory {
	if opts.ReadyTimeout <= 0 {
		opts.ReadyTimeout = 60 * time.Second
	}
	if opts.Detach {
		// read once by testcontainers on first use
		_ = os.Setenv(envRyukDisabled, "true")
	}
	return &Factory{opts: opts, log: logging.OrNop(opts.Logger)}
}

// Construct waits for the preflight and prepares the container request.
func (f *Factory) Construct(ctx context.Context, stubsFile string, args stubby.Arguments, preflight *stubby.Preflight) (stubby.Server, error) {
	stubs, err := preflight.Wait()
	if err != nil {
		return nil, err
	}
	f.log.Debug("stubs file checked", "path", stubsFile, "stubs", stubs)

	req, err := buildRequest(f.opts, stubsFile, args)
	if err != nil {
		return nil, err
	}
	return &Server{req: req, args: args, name: f.opts.Name, log: f.log}, nil
}

// Attach finds the named container from an earlier invocation.
func (f *Factory) Attach(ctx context.Context, h stubby.Handle) (stubby.Server, error) {
	if h.Backend != Backend {
		return nil, fmt.Errorf("handle belongs to backend %q, not %q", h.Backend, Backend)
	}
	if h.ContainerName == "" {
		return nil, fmt.Errorf("container without a name: %w", stubby.ErrServerGone)
	}

	running, err := findContainer(ctx, h.ContainerName)
	if err != nil {
		return nil, err
	}
	if !running {
		return nil, fmt.Errorf("container %s: %w", h.ContainerName, stubby.ErrServerGone)
	}

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image: f.opts.Image,
			Name:  h.ContainerName,
		},
		Reuse: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find container %s: %w", h.ContainerName, err)
	}

	state, err := c.State(ctx)
	if err != nil || !state.Running {
		_ = c.Terminate(ctx)
		return nil, fmt.Errorf("container %s: %w", h.ContainerName, stubby.ErrServerGone)
	}
	return &Server{container: c, handle: h, name: h.ContainerName, log: f.log}, nil
}

// findContainer reports whether the named container is running. A stopped
// container holding the name is removed so the name can be used again.
var findContainer = func(ctx context.Context, name string) (bool, error) {
	cli, err := testcontainers.NewDockerClientWithOpts(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to connect to docker: %w", err)
	}
	defer cli.Close()

	info, err := cli.ContainerInspect(ctx, name)
	if client.IsErrNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to inspect container %s: %w", name, err)
	}
	if info.ContainerJSONBase != nil && info.State != nil && info.State.Running {
		return true, nil
	}

	if err := cli.ContainerRemove(ctx, name, dockercontainer.RemoveOptions{Force: true}); err != nil && !client.IsErrNotFound(err) {
		return false, fmt.Errorf("failed to remove stopped container %s: %w", name, err)
	}
	return false, nil
}

// buildRequest maps stubby options onto the image's environment.
func buildRequest(opts Options, stubsFile string, args stubby.Arguments) (testcontainers.GenericContainerRequest, error) {
	httpPort, ok := args.Port(stubby.OptionClientPort)
	if !ok {
		return testcontainers.GenericContainerRequest{}, fmt.Errorf("missing %q option", stubby.OptionClientPort)
	}

	base := filepath.Base(stubsFile)
	env := map[string]string{
		EnvYAMLConfig: base,
		EnvLocation:   "0.0.0.0",
		EnvStubsPort:  strconv.Itoa(httpPort),
	}
	ports := []string{bindPort(httpPort)}

	if p, ok := args.Port(stubby.OptionTLSPort); ok {
		env[EnvTLSPort] = strconv.Itoa(p)
		ports = append(ports, bindPort(p))
	}
	if p, ok := args.Port(stubby.OptionAdminPort); ok {
		env[EnvAdminPort] = strconv.Itoa(p)
		ports = append(ports, bindPort(p))
	}
	if flags := args.Flags(); len(flags) > 0 {
		env[EnvWithArgs] = strings.Join(flags, " ")
	}

	req := testcontainers.ContainerRequest{
		Image:        opts.Image,
		Name:         opts.Name,
		ExposedPorts: ports,
		Env:          env,
		Files: []testcontainers.ContainerFile{{
			HostFilePath:      stubsFile,
			ContainerFilePath: DataDir + "/" + base,
			FileMode:          0o644,
		}},
		WaitingFor: wait.ForListeningPort(nat.Port(strconv.Itoa(httpPort) + "/tcp")).
			WithStartupTimeout(opts.ReadyTimeout),
	}
	if opts.Output != nil {
		req.LogConsumerCfg = &testcontainers.LogConsumerConfig{
			Consumers: []testcontainers.LogConsumer{&logWriter{w: opts.Output}},
		}
	}

	return testcontainers.GenericContainerRequest{ContainerRequest: req}, nil
}

// bindPort publishes a container port on the same host port.
func bindPort(p int) string {
	s := strconv.Itoa(p)
	return s + ":" + s + "/tcp"
}

// logWriter forwards container log lines to a writer.
type logWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *logWriter) Accept(log testcontainers.Log) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.w.Write(log.Content)
}

// Server is a stubby4j container.
type Server struct {
	req  testcontainers.GenericContainerRequest
	args stubby.Arguments
	name string
	log  *slog.Logger

	mu        sync.Mutex
	container testcontainers.Container
	handle    stubby.Handle
}

// Start creates and starts the container and waits for the stubs port.
func (s *Server) Start(ctx context.Context) error {
	req := s.req
	req.Started = true

	s.log.Debug("starting stubby container", "image", req.Image, "name", req.Name)
	c, err := testcontainers.GenericContainer(ctx, req)
	if err != nil {
		if c != nil {
			_ = c.Terminate(context.Background())
		}
		return fmt.Errorf("failed to start stubby container: %w", err)
	}

	handle := stubby.NewHandle(Backend, s.args)
	handle.ContainerID = c.GetContainerID()
	handle.ContainerName = s.name

	s.mu.Lock()
	s.container = c
	s.handle = handle
	s.mu.Unlock()
	return nil
}

// Stop terminates the container.
func (s *Server) Stop(ctx context.Context) error {
	c := s.current()
	if c == nil {
		return fmt.Errorf("stubby container was never started")
	}
	if err := c.Terminate(ctx); err != nil {
		return fmt.Errorf("failed to terminate container %s: %w", c.GetContainerID(), err)
	}
	return nil
}

// Join polls until the container stops running. Cancelling ctx terminates it.
func (s *Server) Join(ctx context.Context) error {
	c := s.current()
	if c == nil {
		return fmt.Errorf("stubby container was never started")
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		state, err := c.State(ctx)
		if err != nil && ctx.Err() == nil {
			return fmt.Errorf("failed to inspect container %s: %w", c.GetContainerID(), err)
		}
		if err == nil && !state.Running {
			return nil
		}

		select {
		case <-ctx.Done():
			s.log.Debug("join cancelled, terminating stubby container")
			return s.Stop(context.Background())
		case <-ticker.C:
		}
	}
}

// Handle describes the running container.
func (s *Server) Handle() stubby.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle
}

func (s *Server) current() testcontainers.Container {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.container
}
