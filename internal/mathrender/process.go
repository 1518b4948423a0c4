package mathrender

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/walma-app/walma/internal/logger"
)

// Renderer turns raw LaTeX into SVG markup.
type Renderer interface {
	Render(ctx context.Context, latex string, display bool) (string, error)
}

// ErrClosed is returned after the renderer process has been shut down or
// abandoned.
var ErrClosed = errors.New("math renderer closed")

// RenderError is a failure reported by the renderer for one expression.
type RenderError struct {
	Latex   string
	Message string
}

func (e *RenderError) Error() string {
	latex := e.Latex
	if len(latex) > 60 {
		latex = latex[:57] + "..."
	}
	return fmt.Sprintf("render %q: %s", latex, e.Message)
}

type request struct {
	ID      string `json:"id"`
	Latex   string `json:"latex"`
	Display bool   `json:"display"`
}

type response struct {
	ID    string `json:"id"`
	SVG   string `json:"svg"`
	Error string `json:"error,omitempty"`
}

// Options configures the renderer process.
type Options struct {
	// Args is the command line; Args[0] is the program.
	Args []string
	// Env is appended to the current environment.
	Env []string
	// Timeout bounds a single render. Default: 3s.
	Timeout time.Duration
	Log     *logger.Logger
}

// Process talks to one long-lived renderer over stdin/stdout, one JSON
// object per line. Requests are serialized; only one is ever in flight.
type Process struct {
	mu      sync.Mutex
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stdout  *bufio.Reader
	timeout time.Duration
	log     *logger.Logger
	next    uint64
	dead    error
}

// Start launches the renderer process.
func Start(opts Options) (*Process, error) {
	if len(opts.Args) == 0 {
		return nil, errors.New("math renderer command is empty")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 3 * time.Second
	}
	if opts.Log == nil {
		opts.Log = logger.Nop()
	}

	bin, err := exec.LookPath(opts.Args[0])
	if err != nil {
		return nil, fmt.Errorf("missing math renderer %q in PATH: %w", opts.Args[0], err)
	}
	cmd := exec.Command(bin, opts.Args[1:]...)
	cmd.Env = append(os.Environ(), opts.Env...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("renderer stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("renderer stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start renderer: %w", err)
	}

	opts.Log.Debug("math renderer started", "cmd", opts.Args[0], "pid", cmd.Process.Pid)
	return &Process{
		cmd:     cmd,
		stdin:   stdin,
		stdout:  bufio.NewReader(stdout),
		timeout: opts.Timeout,
		log:     opts.Log,
	}, nil
}

type result struct {
	resp response
	err  error
}

// Render sends latex to the renderer exactly as given and waits for the
// matching reply. A timeout or cancellation kills the process, since its
// output stream can no longer be trusted.
func (p *Process) Render(ctx context.Context, latex string, display bool) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.dead != nil {
		return "", p.dead
	}

	p.next++
	id := strconv.FormatUint(p.next, 10)
	line, err := json.Marshal(request{ID: id, Latex: latex, Display: display})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	ch := make(chan result, 1)
	go func() {
		if _, err := p.stdin.Write(append(line, '\n')); err != nil {
			ch <- result{err: fmt.Errorf("write request: %w", err)}
			return
		}
		for {
			b, err := p.stdout.ReadBytes('\n')
			if err != nil {
				ch <- result{err: fmt.Errorf("read response: %w", err)}
				return
			}
			var resp response
			if err := json.Unmarshal(b, &resp); err != nil {
				ch <- result{err: fmt.Errorf("decode response: %w", err)}
				return
			}
			if resp.ID == id {
				ch <- result{resp: resp}
				return
			}
			p.log.Warn("dropping unexpected renderer reply", "id", resp.ID, "want", id)
		}
	}()

	select {
	case <-ctx.Done():
		p.dead = fmt.Errorf("%w: abandoned after %v", ErrClosed, ctx.Err())
		p.kill()
		return "", ctx.Err()
	case res := <-ch:
		if res.err != nil {
			p.dead = fmt.Errorf("%w: %v", ErrClosed, res.err)
			p.kill()
			return "", res.err
		}
		if res.resp.Error != "" {
			return "", &RenderError{Latex: latex, Message: res.resp.Error}
		}
		return res.resp.SVG, nil
	}
}

// Close shuts the renderer down by closing its stdin and waiting for it to
// exit.
func (p *Process) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.dead != nil && p.cmd.ProcessState != nil {
		return nil
	}
	p.dead = ErrClosed
	_ = p.stdin.Close()

	done := make(chan error, 1)
	go func() { done <- p.cmd.Wait() }()
	select {
	case err := <-done:
		return err
	case <-time.After(p.timeout):
		p.kill()
		return <-done
	}
}

func (p *Process) kill() {
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
}
