package client

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shazhongcheng/TestGoServer/pkg/metrics"
	"github.com/shazhongcheng/TestGoServer/pkg/protocol"
	"github.com/shazhongcheng/TestGoServer/pkg/session"
	"github.com/shazhongcheng/TestGoServer/pkg/transport"
)

// Engine is one simulated game client. It owns a transport, a framer and the
// session state, and runs a receive goroutine plus, once logged in, a
// heartbeat goroutine per connection.
//
// All methods are safe for concurrent use. Connect and Close must not race
// each other.
type Engine struct {
	cfg      *Config
	logger   *slog.Logger
	codec    protocol.Codec
	registry *protocol.Registry
	dial     func(*transport.Options) (transport.Transport, error)

	// mu guards the session state, the current connection and the pending
	// calls. It is also the send lock: every frame is written under it.
	mu           sync.Mutex
	state        *session.State
	conn         *connection
	calls        map[intent]*Call
	loginAccount string

	// active mirrors conn so Close can shut the socket without mu, which a
	// blocked writer may be holding.
	active atomic.Pointer[connection]

	wg    sync.WaitGroup
	stats counters
}

// connection is the per-connect lifetime of the goroutines.
type connection struct {
	t          transport.Transport
	framer     *transport.Framer
	done       chan struct{}
	once       sync.Once
	userClosed atomic.Bool
	hbStarted  bool // guarded by Engine.mu
	opened     time.Time
}

func (c *connection) shutdown() {
	c.once.Do(func() {
		close(c.done)
		_ = c.t.Close()
	})
}

// New creates a disconnected engine.
func New(cfg *Config) *Engine {
	cfg = cfg.withDefaults()
	return &Engine{
		cfg:      cfg,
		logger:   cfg.Logger.With("engine", cfg.Index),
		codec:    cfg.Codec,
		registry: cfg.Registry,
		dial:     transport.New,
		state:    session.NewState(),
		calls:    make(map[intent]*Call),
	}
}

// Index returns the configured engine index.
func (e *Engine) Index() int {
	return e.cfg.Index
}

// Connect opens the transport and starts the receive loop. It fails with
// ErrInvalidState unless the engine is disconnected and with ErrConnection if
// the dial fails.
func (e *Engine) Connect(ctx context.Context) error {
	e.mu.Lock()
	if err := e.state.BeginConnect(); err != nil {
		e.mu.Unlock()
		return &OpError{Engine: e.cfg.Index, Op: "connect", Err: invalidState("%v", err)}
	}
	e.mu.Unlock()

	t, err := e.dial(e.cfg.Transport)
	if err == nil {
		err = t.Connect(ctx)
	}
	if err != nil {
		e.mu.Lock()
		if e.state.Phase() == session.PhaseConnecting {
			e.state.Closed()
		}
		e.mu.Unlock()
		e.stats.connectFailures.Add(1)
		e.cfg.Metrics.RecordConnect(false)
		e.logger.Debug("connect failed", "error", err)
		return &OpError{Engine: e.cfg.Index, Op: "connect", Err: err}
	}

	c := &connection{
		t:      t,
		framer: transport.NewFramer(t, e.cfg.MaxMessageSize),
		done:   make(chan struct{}),
		opened: time.Now(),
	}

	e.mu.Lock()
	if e.state.Phase() != session.PhaseConnecting {
		e.mu.Unlock()
		_ = t.Close()
		return &OpError{Engine: e.cfg.Index, Op: "connect", Err: ErrClosed}
	}
	_ = e.state.HandshakeComplete()
	e.conn = c
	e.active.Store(c)
	e.wg.Add(1)
	e.mu.Unlock()

	e.stats.connects.Add(1)
	e.cfg.Metrics.RecordConnect(true)
	e.logger.Debug("connected", "network", e.cfg.Transport.Network, "addr", e.cfg.Transport.Address)

	go e.receiveLoop(c)
	return nil
}

// Close ends the current connection, joins its goroutines and resolves any
// pending call with ErrClosed. It is idempotent and never returns a
// transport error. Session identity and the resume ticket are kept.
func (e *Engine) Close() error {
	if c := e.active.Load(); c != nil {
		c.userClosed.Store(true)
		c.shutdown()
	}
	e.wg.Wait()

	e.mu.Lock()
	defer e.mu.Unlock()
	if c := e.conn; c != nil {
		e.finishLocked(c, ErrClosed)
	}
	if e.state.Phase() != session.PhaseDisconnected {
		e.state.BeginClose()
		e.state.Closed()
	}
	return nil
}

// Done returns a channel closed when the current connection ends. It returns
// a closed channel when the engine is not connected.
func (e *Engine) Done() <-chan struct{} {
	if c := e.active.Load(); c != nil {
		return c.done
	}
	ch := make(chan struct{})
	close(ch)
	return ch
}

// State returns a snapshot of the session state.
func (e *Engine) State() session.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Snapshot()
}

// Stats returns the engine's cumulative counters.
func (e *Engine) Stats() Stats {
	return e.stats.snapshot()
}

// SetTicket installs resume credentials, typically loaded from a
// session.TicketStore, so that Resume works on a fresh engine.
func (e *Engine) SetTicket(t session.Ticket) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.state.SetTicket(t); err != nil {
		return &OpError{Engine: e.cfg.Index, Op: "set_ticket", Err: invalidState("%v", err)}
	}
	return nil
}

// Login sends a login request and returns its pending call. It does not
// block on the response.
func (e *Engine) Login(accountID, token string) (*Call, error) {
	payload, err := protocol.EncodeLoginRequest(&protocol.LoginRequest{
		Token:     token,
		AccountID: accountID,
		Platform:  e.cfg.Platform,
	})
	if err != nil {
		return nil, &OpError{Engine: e.cfg.Index, Op: "login", Err: err}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	call, err := e.requestLocked(intentLogin, protocol.KindLoginReq, payload)
	if err != nil {
		return nil, err
	}
	e.loginAccount = accountID
	return call, nil
}

// Resume asks the gate to rebind this connection to the session in the
// resume ticket. It fails with ErrInvalidState, sending nothing, if no
// session was ever assigned.
func (e *Engine) Resume() (*Call, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sessionID, token, ok := e.state.ResumeCredentials()
	if !ok {
		return nil, &OpError{Engine: e.cfg.Index, Op: "resume", Err: invalidState("no session to resume")}
	}
	payload, err := protocol.EncodeResumeRequest(&protocol.ResumeRequest{SessionID: sessionID, Token: token})
	if err != nil {
		return nil, &OpError{Engine: e.cfg.Index, Op: "resume", Err: err}
	}
	return e.requestLocked(intentResume, protocol.KindResumeReq, payload)
}

// RequestPlayerData sends a load-player-data request. The returned call
// supersedes any earlier one still outstanding.
func (e *Engine) RequestPlayerData() (*Call, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.requestLocked(intentPlayerData, protocol.KindPlayerDataReq, nil)
}

// Send writes an envelope with an arbitrary id and payload. No response is
// correlated.
func (e *Engine) Send(id protocol.MsgID, payload []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, err := e.connectedLocked()
	if err != nil {
		return &OpError{Engine: e.cfg.Index, Op: "send", Err: err}
	}
	if err := e.writeLocked(c, id, payload); err != nil {
		return &OpError{Engine: e.cfg.Index, Op: "send", Err: err}
	}
	return nil
}

// LoginAndWait logs in and waits up to timeout for the response.
func (e *Engine) LoginAndWait(ctx context.Context, accountID, token string, timeout time.Duration) error {
	call, err := e.Login(accountID, token)
	if err != nil {
		return err
	}
	return e.wait(ctx, intentLogin, call, timeout)
}

// ResumeAndWait resumes and waits up to timeout for the response.
func (e *Engine) ResumeAndWait(ctx context.Context, timeout time.Duration) error {
	call, err := e.Resume()
	if err != nil {
		return err
	}
	return e.wait(ctx, intentResume, call, timeout)
}

// RequestPlayerDataAndWait requests player data and waits up to timeout for
// the response.
func (e *Engine) RequestPlayerDataAndWait(ctx context.Context, timeout time.Duration) error {
	call, err := e.RequestPlayerData()
	if err != nil {
		return err
	}
	return e.wait(ctx, intentPlayerData, call, timeout)
}

// wait blocks on call. A call that times out is removed from its slot so a
// late response does not resolve it; the connection stays open.
func (e *Engine) wait(ctx context.Context, in intent, call *Call, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if _, err := call.Wait(ctx); err != nil {
		e.mu.Lock()
		if e.calls[in] == call {
			delete(e.calls, in)
		}
		e.mu.Unlock()
		if errors.Is(err, ErrTimeout) {
			e.cfg.Metrics.RecordRequest(in.String(), metrics.OutcomeTimeout, 0)
		}
		return err
	}
	return nil
}

// connectedLocked returns the live connection or the reason there is none.
func (e *Engine) connectedLocked() (*connection, error) {
	switch phase := e.state.Phase(); {
	case e.conn != nil && phase.Connected():
		return e.conn, nil
	case phase == session.PhaseClosing:
		return nil, ErrClosed
	default:
		return nil, invalidState("not connected (%s)", phase)
	}
}

// requestLocked installs a fresh call for in, superseding the previous one,
// and sends the request. The call is installed before the write so that a
// fast response cannot miss it.
func (e *Engine) requestLocked(in intent, kind protocol.Kind, payload []byte) (*Call, error) {
	op := in.String()
	c, err := e.connectedLocked()
	if err != nil {
		return nil, &OpError{Engine: e.cfg.Index, Op: op, Err: err}
	}
	id, ok := e.registry.ID(kind)
	if !ok {
		return nil, &OpError{Engine: e.cfg.Index, Op: op, Err: invalidState("%s has no message id", kind)}
	}

	call := newCall(e.cfg.Index, op)
	if prev := e.calls[in]; prev != nil {
		prev.resolve(nil, ErrSuperseded)
	}
	e.calls[in] = call

	if err := e.writeLocked(c, id, payload); err != nil {
		delete(e.calls, in)
		call.resolve(nil, err)
		return nil, &OpError{Engine: e.cfg.Index, Op: op, Err: err}
	}
	return call, nil
}

// writeLocked encodes and writes one envelope. A write failure is terminal
// for the connection: the socket is shut down and the receive loop tears the
// connection down.
func (e *Engine) writeLocked(c *connection, id protocol.MsgID, payload []byte) error {
	env := &protocol.Envelope{
		MsgID:     id,
		SessionID: e.state.SessionID(),
		PlayerID:  e.state.PlayerID(),
		Payload:   payload,
	}
	body, err := e.codec.Encode(env)
	if err != nil {
		return err
	}
	if err := c.framer.WriteMessage(body); err != nil {
		c.shutdown()
		return err
	}
	e.stats.sent.Add(1)
	e.stats.bytesSent.Add(uint64(len(body)))
	e.cfg.Metrics.RecordSent(e.registry.Kind(id).String(), len(body))
	return nil
}

// sendOn writes an envelope of kind on c if c is still the live connection.
func (e *Engine) sendOn(c *connection, kind protocol.Kind, payload []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.conn != c {
		return ErrClosed
	}
	id, ok := e.registry.ID(kind)
	if !ok {
		return invalidState("%s has no message id", kind)
	}
	return e.writeLocked(c, id, payload)
}

// finishLocked retires c: the state goes through Closing to Disconnected and
// every pending call is resolved with cause.
func (e *Engine) finishLocked(c *connection, cause error) {
	c.shutdown()
	e.state.BeginClose()
	e.state.Closed()
	for in, call := range e.calls {
		call.resolve(nil, cause)
		delete(e.calls, in)
	}
	e.conn = nil
	e.active.CompareAndSwap(c, nil)
	e.cfg.Metrics.RecordDisconnect()
	e.logger.Debug("connection closed", "cause", cause, "lifetime", time.Since(c.opened))
}
