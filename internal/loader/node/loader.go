package node

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	foundationerrors "git.home.luguber.info/inful/staticrender/internal/foundation/errors"
	"git.home.luguber.info/inful/staticrender/internal/logfields"
	"git.home.luguber.info/inful/staticrender/internal/render"
	"git.home.luguber.info/inful/staticrender/internal/retry"
)

//go:embed harness.js
var harnessSource string

const (
	defaultBinary       = "node"
	defaultStartTimeout = 5 * time.Second

	envArtifact = "STATICRENDER_ARTIFACT"
	envSocket   = "STATICRENDER_SOCKET"
)

// Loader evaluates sub-build artifacts in a Node.js process. Each Load
// starts one process that serves the artifact until the module is closed.
type Loader struct {
	// Binary is the node executable. Defaults to "node" on PATH.
	Binary string
	// StartTimeout bounds the wait for the harness socket.
	StartTimeout time.Duration
	// Dir is the working directory of the process.
	Dir string
	// Retry governs restarts after a start timeout; retry.DefaultPolicy
	// when nil.
	Retry  *retry.Policy
	Logger *slog.Logger
}

// New returns a Loader using node from PATH.
func New(logger *slog.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Available reports whether the node binary can be found.
func (l *Loader) Available() bool {
	_, err := exec.LookPath(l.binary())
	return err == nil
}

func (l *Loader) binary() string {
	if l.Binary != "" {
		return l.Binary
	}
	return defaultBinary
}

func (l *Loader) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}

// Load starts a harness for the artifact at path and returns its module.
func (l *Loader) Load(ctx context.Context, path string) (*render.Module, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryNotFound, "artifact not found").
			WithContext("path", abs).
			Build()
	}

	policy := retry.DefaultPolicy()
	if l.Retry != nil {
		policy = *l.Retry
	}
	var proc *process
	err = policy.Do(ctx, func(err error) bool { return errors.Is(err, errStartTimeout) }, func(attempt int) error {
		if attempt > 0 {
			l.logger().Warn("Retrying node harness start", logfields.Artifact(abs), slog.Int("attempt", attempt))
		}
		var serr error
		proc, serr = l.start(ctx, abs)
		return serr
	})
	if err != nil {
		var ce *foundationerrors.ClassifiedError
		if errors.As(err, &ce) {
			return nil, err
		}
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryRuntime, "node harness did not start").
			WithContext("artifact", abs).
			Build()
	}
	socket, stop := proc.socket, proc.stop

	transport := &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", socket)
		},
	}
	c := &client{http: &http.Client{Transport: transport}, base: "http://localhost"}

	info, err := c.info(ctx)
	if err != nil {
		_ = stop()
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryRuntime, "failed to query node harness").Build()
	}

	l.logger().Debug("Loaded artifact in node",
		logfields.Path(abs),
		slog.String("socket", socket),
		slog.String("root_id", info.RootID))

	m, err := newModule(c, info, stop)
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryRender, "artifact cannot be rendered").
			WithContext("artifact", abs).
			Build()
	}
	return m, nil
}

// process is a running harness.
type process struct {
	socket string
	stop   func() error
}

var errStartTimeout = errors.New("timeout waiting for node socket")

func (l *Loader) start(ctx context.Context, artifact string) (*process, error) {
	socket := filepath.Join(os.TempDir(), fmt.Sprintf("staticrender-%s.sock", uuid.NewString()[:8]))

	// #nosec G204 -- binary is operator configuration
	cmd := exec.Command(l.binary(), "-")
	cmd.Dir = l.Dir
	cmd.Env = append(os.Environ(), envArtifact+"="+artifact, envSocket+"="+socket)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = strings.NewReader(harnessSource)

	if err := cmd.Start(); err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryRuntime, "failed to start node").
			WithContext("binary", l.binary()).
			Build()
	}

	exited := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(exited)
	}()

	stop := func() error {
		select {
		case <-exited:
		default:
			_ = cmd.Process.Kill()
			<-exited
		}
		if err := os.Remove(socket); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}

	timeout := l.StartTimeout
	if timeout <= 0 {
		timeout = defaultStartTimeout
	}
	if err := waitForSocket(ctx, socket, timeout, exited); err != nil {
		_ = stop()
		return nil, err
	}
	return &process{socket: socket, stop: stop}, nil
}

func waitForSocket(ctx context.Context, path string, timeout time.Duration, exited <-chan struct{}) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-exited:
			return fmt.Errorf("node exited before listening on %s", path)
		case <-time.After(10 * time.Millisecond):
		}
	}
	return fmt.Errorf("%w at %s", errStartTimeout, path)
}
