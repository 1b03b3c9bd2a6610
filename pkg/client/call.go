package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shazhongcheng/TestGoServer/pkg/protocol"
)

// intent names the slot a pending call occupies. At most one call per intent
// is outstanding on an engine.
type intent uint8

const (
	intentLogin intent = iota
	intentResume
	intentPlayerData
)

func (in intent) String() string {
	switch in {
	case intentLogin:
		return "login"
	case intentResume:
		return "resume"
	case intentPlayerData:
		return "player_data"
	default:
		return "unknown"
	}
}

// Call is a single-slot future for one request. It is created fresh for each
// request and resolved exactly once: by the matching response, by a newer
// request of the same kind (ErrSuperseded), or by the connection ending.
type Call struct {
	op      string
	engine  int
	sent    time.Time
	done    chan struct{}
	once    sync.Once
	resp    *protocol.Envelope
	err     error
	elapsed time.Duration
}

func newCall(engine int, op string) *Call {
	return &Call{op: op, engine: engine, sent: time.Now(), done: make(chan struct{})}
}

// resolve completes the call. Later resolutions are ignored.
func (c *Call) resolve(resp *protocol.Envelope, err error) bool {
	resolved := false
	c.once.Do(func() {
		c.resp = resp
		c.err = err
		c.elapsed = time.Since(c.sent)
		close(c.done)
		resolved = true
	})
	return resolved
}

// Op returns the operation name.
func (c *Call) Op() string {
	return c.op
}

// Done returns a channel closed when the call resolves.
func (c *Call) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the call resolves or ctx ends. A context deadline yields
// ErrTimeout and leaves the connection open.
func (c *Call) Wait(ctx context.Context) (*protocol.Envelope, error) {
	select {
	case <-c.done:
		return c.result()
	default:
	}
	select {
	case <-c.done:
		return c.result()
	case <-ctx.Done():
		err := ctx.Err()
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return nil, &OpError{Engine: c.engine, Op: c.op, Err: err}
	}
}

// WaitTimeout is Wait with a deadline d from now. A d of zero or less waits
// without a deadline.
func (c *Call) WaitTimeout(d time.Duration) (*protocol.Envelope, error) {
	if d <= 0 {
		return c.Wait(context.Background())
	}
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return c.Wait(ctx)
}

// Response returns the result without blocking. ok is false while the call
// is unresolved.
func (c *Call) Response() (resp *protocol.Envelope, ok bool, err error) {
	select {
	case <-c.done:
		resp, err = c.result()
		return resp, true, err
	default:
		return nil, false, nil
	}
}

// Elapsed returns the time from send to resolution, or zero while pending.
func (c *Call) Elapsed() time.Duration {
	select {
	case <-c.done:
		return c.elapsed
	default:
		return 0
	}
}

func (c *Call) result() (*protocol.Envelope, error) {
	if c.err != nil {
		return nil, &OpError{Engine: c.engine, Op: c.op, Err: c.err}
	}
	return c.resp, nil
}
