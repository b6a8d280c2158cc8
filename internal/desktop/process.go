package desktop

import (
	"bufio"
	"io"
	"os"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// child is a started server process whose output is relayed into the log.
type child struct {
	cmd  *exec.Cmd
	done chan struct{}
	err  error // valid after done is closed
}

// startChild starts cmd and streams each stdout and stderr line to log.
// Wait runs only after both streams are drained.
func startChild(cmd *exec.Cmd, log zerolog.Logger) (*child, error) {
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	c := &child{cmd: cmd, done: make(chan struct{})}
	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); stream(log, "stdout", stdout) }()
	go func() { defer wg.Done(); stream(log, "stderr", stderr) }()
	go func() {
		wg.Wait()
		c.err = cmd.Wait()
		close(c.done)
	}()
	return c, nil
}

func stream(log zerolog.Logger, name string, r io.Reader) {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for s.Scan() {
		log.Info().Str("stream", name).Msg(s.Text())
	}
}

// stop interrupts the process and kills it when it outlives grace.
func (c *child) stop(grace time.Duration) error {
	select {
	case <-c.done:
		return c.err
	default:
	}
	if runtime.GOOS == "windows" {
		_ = c.cmd.Process.Kill()
	} else if err := c.cmd.Process.Signal(os.Interrupt); err != nil {
		_ = c.cmd.Process.Kill()
	}
	select {
	case <-c.done:
	case <-time.After(grace):
		_ = c.cmd.Process.Kill()
		<-c.done
	}
	return c.err
}

// ProcManager tracks started processes and can stop them all on cleanup.
type ProcManager struct {
	mu    sync.Mutex
	procs []*child
}

func NewProcManager() *ProcManager { return &ProcManager{} }

func (pm *ProcManager) add(c *child) {
	pm.mu.Lock()
	pm.procs = append(pm.procs, c)
	pm.mu.Unlock()
}

// StopAll stops every tracked process, best-effort.
func (pm *ProcManager) StopAll(grace time.Duration) {
	pm.mu.Lock()
	procs := append([]*child(nil), pm.procs...)
	pm.procs = nil
	pm.mu.Unlock()
	for _, c := range procs {
		_ = c.stop(grace)
	}
}
