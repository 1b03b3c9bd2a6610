package client

import (
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/shazhongcheng/TestGoServer/pkg/protocol"
	"github.com/shazhongcheng/TestGoServer/pkg/session"
	"github.com/shazhongcheng/TestGoServer/pkg/transport"
)

// fakeGate is a scripted gate: tests accept connections, read decoded
// envelopes and write replies by hand.
type fakeGate struct {
	ln    net.Listener
	conns chan *gateConn
}

type gateConn struct {
	raw    net.Conn
	framer *transport.Framer
	frames chan *protocol.Envelope
	errs   chan error
}

func newFakeGate(t *testing.T) *fakeGate {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	g := &fakeGate{ln: ln, conns: make(chan *gateConn, 8)}
	go g.acceptLoop()
	t.Cleanup(func() { ln.Close() })
	return g
}

func (g *fakeGate) acceptLoop() {
	for {
		conn, err := g.ln.Accept()
		if err != nil {
			return
		}
		gc := &gateConn{
			raw:    conn,
			framer: transport.NewFramer(transport.NewTCPConn(conn), 0),
			frames: make(chan *protocol.Envelope, 1024),
			errs:   make(chan error, 1),
		}
		go gc.readLoop()
		g.conns <- gc
	}
}

func (c *gateConn) readLoop() {
	for {
		body, err := c.framer.ReadMessage()
		if err != nil {
			close(c.frames)
			return
		}
		env, err := protocol.Binary{}.Decode(body)
		if err != nil {
			c.errs <- err
			close(c.frames)
			return
		}
		c.frames <- env
	}
}

func (g *fakeGate) addr() string {
	return g.ln.Addr().String()
}

func (g *fakeGate) accept(t *testing.T) *gateConn {
	t.Helper()
	select {
	case gc := <-g.conns:
		t.Cleanup(func() { gc.raw.Close() })
		return gc
	case <-time.After(2 * time.Second):
		t.Fatal("gate accepted no connection")
		return nil
	}
}

func (c *gateConn) send(t *testing.T, id protocol.MsgID, sessionID int64, payload []byte) {
	t.Helper()
	body, err := protocol.Binary{}.Encode(&protocol.Envelope{MsgID: id, SessionID: sessionID, Payload: payload})
	if err != nil {
		t.Fatal(err)
	}
	if err := c.framer.WriteMessage(body); err != nil {
		t.Fatalf("gate write: %v", err)
	}
}

func (c *gateConn) sessionInit(t *testing.T, sessionID int64, token string) {
	t.Helper()
	payload, err := protocol.EncodeSessionInit(&protocol.SessionInit{SessionID: sessionID, Token: token})
	if err != nil {
		t.Fatal(err)
	}
	c.send(t, protocol.MsgSessionInit, sessionID, payload)
}

func (c *gateConn) loginRsp(t *testing.T, sessionID, playerID int64) {
	t.Helper()
	payload, err := protocol.EncodeLoginResponse(&protocol.LoginResponse{PlayerID: playerID})
	if err != nil {
		t.Fatal(err)
	}
	c.send(t, protocol.MsgLoginRsp, sessionID, payload)
}

func (c *gateConn) resumeRsp(t *testing.T, sessionID int64, ok bool, reason string) {
	t.Helper()
	payload, err := protocol.EncodeResumeResponse(&protocol.ResumeResponse{OK: ok, Reason: reason})
	if err != nil {
		t.Fatal(err)
	}
	c.send(t, protocol.MsgResumeRsp, sessionID, payload)
}

// expect returns the next envelope with id, skipping heartbeats unless id is
// the heartbeat request.
func (c *gateConn) expect(t *testing.T, id protocol.MsgID) *protocol.Envelope {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case env, ok := <-c.frames:
			if !ok {
				t.Fatalf("connection ended while waiting for msg %d", id)
			}
			if env.MsgID == id {
				return env
			}
			if env.MsgID != protocol.MsgHeartbeatReq {
				t.Fatalf("got msg %d, want %d", env.MsgID, id)
			}
		case err := <-c.errs:
			t.Fatalf("gate decode error: %v", err)
		case <-deadline:
			t.Fatalf("timed out waiting for msg %d", id)
		}
	}
}

// expectSilence fails if any envelope arrives within d.
func (c *gateConn) expectSilence(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case env, ok := <-c.frames:
		if ok {
			t.Fatalf("unexpected envelope %v", env)
		}
	case <-time.After(d):
	}
}

// waitPhase polls until the engine reaches want.
func waitPhase(t *testing.T, e *Engine, want session.Phase) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for e.State().Phase != want {
		if time.Now().After(deadline) {
			t.Fatalf("Phase = %s, want %s", e.State().Phase, want)
		}
		time.Sleep(time.Millisecond)
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(addr string, heartbeat time.Duration) *Engine {
	return New(&Config{
		Transport:         &transport.Options{Address: addr, DialTimeout: time.Second},
		HeartbeatInterval: heartbeat,
		Logger:            discardLogger(),
	})
}
