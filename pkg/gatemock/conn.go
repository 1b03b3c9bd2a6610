package gatemock

import (
	"bytes"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/shazhongcheng/TestGoServer/pkg/protocol"
	"github.com/shazhongcheng/TestGoServer/pkg/transport"
)

// conn is one client connection. serve is its only reader; writes are
// serialized by writeMu since Kick may reply from another goroutine.
type conn struct {
	srv    *Server
	framer *transport.Framer
	codec  protocol.Codec
	logger *slog.Logger

	done      chan struct{}
	closeOnce sync.Once

	writeMu sync.Mutex

	mu       sync.Mutex
	session  *gateSession
	loggedIn bool
}

func (c *conn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.framer.Transport().Close()
	})
}

func (c *conn) boundSession() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.id
}

func (c *conn) serve() {
	defer c.srv.removeConn(c)
	defer c.close()

	c.logger.Debug("connection accepted")
	payload, _ := protocol.EncodeSessionInit(&protocol.SessionInit{
		SessionID: c.session.id,
		Token:     c.session.token,
	})
	if err := c.reply(protocol.KindSessionInit, payload); err != nil {
		return
	}

	for {
		body, err := c.framer.ReadMessage()
		if err != nil {
			if !errors.Is(err, transport.ErrConnectionClosed) {
				c.logger.Debug("read failed", "error", err)
			}
			return
		}
		env, err := c.codec.Decode(body)
		if err != nil {
			c.srv.stats.decodeErrors.Add(1)
			c.logger.Warn("bad envelope, closing", "error", err)
			return
		}
		c.srv.stats.received.Add(1)

		if drop := c.srv.cfg.Drop; drop != nil && drop(env.MsgID) {
			c.srv.stats.dropped.Add(1)
			continue
		}
		if d := c.srv.cfg.ResponseDelay; d > 0 {
			select {
			case <-time.After(d):
			case <-c.done:
				return
			}
		}
		if !c.handle(env) {
			return
		}
	}
}

// handle answers one request. It reports false when the connection must end.
func (c *conn) handle(env *protocol.Envelope) bool {
	kind := c.srv.cfg.Registry.Kind(env.MsgID)

	switch kind {
	case protocol.KindResumeReq:
		return c.handleResume(env)

	case protocol.KindLoginReq:
		return c.handleLogin(env)

	case protocol.KindHeartbeatReq:
		c.srv.stats.heartbeats.Add(1)
		return c.reply(protocol.KindHeartbeatRsp, nil) == nil
	}

	c.mu.Lock()
	loggedIn := c.loggedIn
	c.mu.Unlock()
	if !loggedIn {
		return c.replyError(protocol.CodeUnauthorized, "login required")
	}

	c.srv.stats.requests.Add(1)
	switch kind {
	case protocol.KindPlayerDataReq:
		data := bytes.Repeat([]byte{0x5a}, c.srv.cfg.PlayerDataSize)
		return c.reply(protocol.KindPlayerDataRsp, data) == nil

	case protocol.KindEnterGameReq, protocol.KindPlayerResumeReq:
		return c.reply(protocol.KindEnterGameRsp, nil) == nil

	case protocol.KindChatReq:
		return c.reply(protocol.KindChatRsp, env.Payload) == nil

	default:
		c.logger.Debug("unknown request", "msg_id", env.MsgID)
		return c.replyError(protocol.CodeUnknown, "unknown message")
	}
}

func (c *conn) handleLogin(env *protocol.Envelope) bool {
	req, err := protocol.DecodeLoginRequest(env.Payload)
	if err != nil {
		return c.replyError(protocol.CodeInvalidParam, "bad login request")
	}
	switch {
	case req.Token == "":
		return c.replyError(protocol.CodeInvalidToken, "empty token")
	case req.Platform < protocol.PlatformTest || req.Platform > protocol.PlatformPC:
		return c.replyError(protocol.CodeUnknownPlatform, "unknown platform")
	}

	playerID := c.srv.playerFor(req.AccountID)
	c.mu.Lock()
	c.session.playerID.Store(playerID)
	c.loggedIn = true
	c.mu.Unlock()
	c.srv.stats.logins.Add(1)
	c.logger.Debug("login", "account_id", req.AccountID, "player_id", playerID)

	payload, _ := protocol.EncodeLoginResponse(&protocol.LoginResponse{PlayerID: playerID})
	if c.reply(protocol.KindLoginRsp, payload) != nil {
		return false
	}
	return c.reply(protocol.KindEnterGameRsp, nil) == nil
}

// handleResume rebinds the connection to an earlier session. A rejected
// resume is answered and then the connection is closed.
func (c *conn) handleResume(env *protocol.Envelope) bool {
	req, err := protocol.DecodeResumeRequest(env.Payload)
	if err != nil {
		c.logger.Warn("bad resume request, closing", "error", err)
		return false
	}
	sess, ok := c.srv.lookupSession(req.SessionID, req.Token)
	if !ok {
		c.srv.stats.resumeRejected.Add(1)
		payload, _ := protocol.EncodeResumeResponse(&protocol.ResumeResponse{Reason: "invalid session"})
		_ = c.reply(protocol.KindResumeRsp, payload)
		return false
	}

	c.mu.Lock()
	c.session = sess
	c.loggedIn = sess.playerID.Load() != 0
	c.mu.Unlock()
	c.srv.stats.resumes.Add(1)
	c.logger.Debug("resumed", "resumed_session", sess.id)

	payload, _ := protocol.EncodeResumeResponse(&protocol.ResumeResponse{OK: true})
	return c.reply(protocol.KindResumeRsp, payload) == nil
}

func (c *conn) replyError(code protocol.ErrorCode, msg string) bool {
	c.srv.stats.errors.Add(1)
	payload, _ := protocol.EncodeErrorResponse(&protocol.ErrorResponse{Code: code, Message: msg})
	return c.reply(protocol.KindErrorRsp, payload) == nil
}

// reply sends an envelope of kind stamped with the bound session and player.
func (c *conn) reply(kind protocol.Kind, payload []byte) error {
	id, ok := c.srv.cfg.Registry.ID(kind)
	if !ok {
		return errors.New("gatemock: no message id for " + kind.String())
	}
	c.mu.Lock()
	env := &protocol.Envelope{
		MsgID:     id,
		SessionID: c.session.id,
		PlayerID:  c.session.playerID.Load(),
		Payload:   payload,
	}
	c.mu.Unlock()

	body, err := c.codec.Encode(env)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.framer.WriteMessage(body); err != nil {
		c.logger.Debug("write failed", "error", err)
		return err
	}
	c.srv.stats.sent.Add(1)
	return nil
}
