package schedkit

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

const execCloseGrace = 2 * time.Second

// ExecConfig describes the child process backing an ExecWorker.
type ExecConfig struct {
	Path string
	Args []string
	Env  []string
	Dir  string

	// Stderr receives the child's stderr. Defaults to os.Stderr.
	Stderr io.Writer
}

// execRequest and execResponse are the two halves of the worker message
// protocol: one JSON document per line, request in, response out.
type execRequest[In any] struct {
	ID      string `json:"id"`
	Payload In     `json:"payload"`
}

type execResponse[Out any] struct {
	ID     string `json:"id"`
	Result Out    `json:"result"`
	Error  string `json:"error,omitempty"`
}

// RemoteError is a task failure reported by the worker process.
type RemoteError struct {
	Msg string
}

func (e *RemoteError) Error() string { return e.Msg }

// ExecWorker runs tasks in a child process.
//
// Payloads and results cross the process boundary as JSON. Any failure of
// the channel itself (broken pipe, exited process, mismatched reply) is
// reported as ErrWorkerFatal so the pool replaces the worker.
type ExecWorker[In, Out any] struct {
	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	enc    *json.Encoder
	dec    *json.Decoder
	exited chan struct{}
	err    error
}

// StartExecWorker launches the child process described by cfg.
func StartExecWorker[In, Out any](cfg ExecConfig) (*ExecWorker[In, Out], error) {
	cmd := exec.Command(cfg.Path, cfg.Args...)
	cmd.Env = cfg.Env
	cmd.Dir = cfg.Dir
	cmd.Stderr = cfg.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("schedkit: worker stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("schedkit: worker stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("schedkit: start worker: %w", err)
	}

	w := &ExecWorker[In, Out]{
		cmd:    cmd,
		stdin:  stdin,
		enc:    json.NewEncoder(stdin),
		dec:    json.NewDecoder(bufio.NewReader(stdout)),
		exited: make(chan struct{}),
	}
	go func() {
		w.err = cmd.Wait()
		close(w.exited)
	}()
	return w, nil
}

// ExecFactory returns a factory starting one child process per slot.
func ExecFactory[In, Out any](cfg ExecConfig) WorkerFactory[In, Out] {
	return func(int) (Worker[In, Out], error) {
		return StartExecWorker[In, Out](cfg)
	}
}

// Run sends in to the child process and waits for its single reply.
//
// If ctx ends first the child is killed, since the stream can no longer
// be matched to requests.
func (w *ExecWorker[In, Out]) Run(ctx context.Context, in In) (Out, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var zero Out
	select {
	case <-w.exited:
		return zero, fmt.Errorf("%w: process exited: %v", ErrWorkerFatal, w.err)
	default:
	}

	id := ulid.Make().String()
	if err := w.enc.Encode(execRequest[In]{ID: id, Payload: in}); err != nil {
		return zero, fmt.Errorf("%w: write request: %w", ErrWorkerFatal, err)
	}

	type reply struct {
		resp execResponse[Out]
		err  error
	}
	ch := make(chan reply, 1)
	go func() {
		var r execResponse[Out]
		err := w.dec.Decode(&r)
		ch <- reply{resp: r, err: err}
	}()

	select {
	case <-ctx.Done():
		w.kill()
		return zero, fmt.Errorf("%w: %w", ErrWorkerFatal, ctx.Err())
	case r := <-ch:
		switch {
		case errors.Is(r.err, io.EOF):
			return zero, fmt.Errorf("%w: process closed its output", ErrWorkerFatal)
		case r.err != nil:
			return zero, fmt.Errorf("%w: read reply: %w", ErrWorkerFatal, r.err)
		case r.resp.ID != id:
			return zero, fmt.Errorf("%w: reply id %q does not match request %q", ErrWorkerFatal, r.resp.ID, id)
		case r.resp.Error != "":
			return zero, &RemoteError{Msg: r.resp.Error}
		}
		return r.resp.Result, nil
	}
}

// Close asks the child to exit by closing its stdin and kills it if it
// does not within a short grace period.
func (w *ExecWorker[In, Out]) Close() error {
	_ = w.stdin.Close()
	select {
	case <-w.exited:
		return nil
	case <-time.After(execCloseGrace):
		w.kill()
		<-w.exited
		return nil
	}
}

func (w *ExecWorker[In, Out]) kill() {
	if w.cmd.Process != nil {
		_ = w.cmd.Process.Kill()
	}
}

// ServeWorker is the child side of the ExecWorker protocol. It reads
// requests from r until EOF, runs fn for each and writes one reply per
// request to out.
func ServeWorker[In, Out any](ctx context.Context, r io.Reader, out io.Writer, fn func(ctx context.Context, in In) (Out, error)) error {
	dec := json.NewDecoder(bufio.NewReader(r))
	enc := json.NewEncoder(out)
	for {
		var req execRequest[In]
		if err := dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("schedkit: decode request: %w", err)
		}

		res, err := runOperation(ctx, func(ctx context.Context) (Out, error) { return fn(ctx, req.Payload) })
		resp := execResponse[Out]{ID: req.ID, Result: res}
		if err != nil {
			resp.Error = err.Error()
		}
		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("schedkit: encode reply: %w", err)
		}
	}
}
