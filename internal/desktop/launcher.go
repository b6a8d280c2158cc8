// Package desktop runs the HTTP server as a supervised child process and
// points the user's browser at it.
package desktop

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// Defaults for Options.
const (
	DefaultStartTimeout = 30 * time.Second
	DefaultStopGrace    = 5 * time.Second
	defaultPollInterval = 250 * time.Millisecond
)

// Options configures a Launcher.
type Options struct {
	// Executable is the server binary; os.Executable when empty.
	Executable string
	// Args are appended after "serve --addr <host:port>".
	Args []string
	// Port to listen on; a free loopback port when zero.
	Port int

	StartTimeout time.Duration
	StopGrace    time.Duration
	NoBrowser    bool
	// Open is called with the server URL once it is healthy.
	Open func(url string) error
	// Ready, when set, receives the server URL once it is healthy.
	Ready func(url string)
}

// Launcher supervises one server child process.
type Launcher struct {
	opts  Options
	log   zerolog.Logger
	procs *ProcManager
	poll  time.Duration
}

// New returns a launcher with defaults applied to opts.
func New(opts Options, log zerolog.Logger) *Launcher {
	if opts.StartTimeout <= 0 {
		opts.StartTimeout = DefaultStartTimeout
	}
	if opts.StopGrace <= 0 {
		opts.StopGrace = DefaultStopGrace
	}
	if opts.Open == nil {
		opts.Open = OpenBrowser
	}
	return &Launcher{opts: opts, log: log, procs: NewProcManager(), poll: defaultPollInterval}
}

// ErrServerExited reports a child that stopped while the launcher was
// still supervising it.
var ErrServerExited = errors.New("server exited")

// Run starts the server and blocks until ctx is canceled or the server
// exits. Cancellation stops the child and returns nil; an early exit of
// the child is an error.
func (l *Launcher) Run(ctx context.Context) error {
	port := l.opts.Port
	if port == 0 {
		p, err := chooseFreePort()
		if err != nil {
			return fmt.Errorf("choose port: %w", err)
		}
		port = p
	} else if isPortBusy(port) {
		return fmt.Errorf("port %d is already in use", port)
	}
	exe := l.opts.Executable
	if exe == "" {
		self, err := os.Executable()
		if err != nil {
			return fmt.Errorf("locate executable: %w", err)
		}
		exe = self
	}

	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
	args := append([]string{"serve", "--addr", addr}, l.opts.Args...)
	cmd := exec.Command(exe, args...)
	cmd.Env = os.Environ()
	log := l.log.With().Str("component", "server").Logger()
	c, err := startChild(cmd, log)
	if err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	l.procs.add(c)
	defer l.procs.StopAll(l.opts.StopGrace)
	l.log.Info().Int("pid", cmd.Process.Pid).Str("addr", addr).Msg("server started")

	url := "http://" + addr
	if err := waitHTTP(ctx, url+"/healthz", 200, l.opts.StartTimeout, l.poll, c.done); err != nil {
		if errors.Is(err, errChildExited) {
			return fmt.Errorf("%w: %v", ErrServerExited, exitDetail(c.err))
		}
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	l.log.Info().Str("url", url).Msg("localchat ready")
	if l.opts.Ready != nil {
		l.opts.Ready(url)
	}
	if !l.opts.NoBrowser {
		if err := l.opts.Open(url); err != nil {
			l.log.Warn().Err(err).Str("url", url).Msg("could not open browser")
		}
	}

	select {
	case <-c.done:
		return fmt.Errorf("%w: %v", ErrServerExited, exitDetail(c.err))
	case <-ctx.Done():
		l.log.Info().Msg("stopping server")
		if err := c.stop(l.opts.StopGrace); err != nil {
			l.log.Debug().Err(err).Msg("server stopped")
		}
		return nil
	}
}

func exitDetail(err error) string {
	if err == nil {
		return "exit status 0"
	}
	return err.Error()
}
