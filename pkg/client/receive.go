package client

import (
	"errors"
	"fmt"
	"time"

	"github.com/shazhongcheng/TestGoServer/pkg/metrics"
	"github.com/shazhongcheng/TestGoServer/pkg/protocol"
	"github.com/shazhongcheng/TestGoServer/pkg/session"
)

// receiveLoop reads envelopes in arrival order until the connection ends. A
// framing, connection or envelope decode error ends the loop; a bad control
// payload only drops that envelope.
func (e *Engine) receiveLoop(c *connection) {
	defer e.wg.Done()

	var cause error
	for {
		body, err := c.framer.ReadMessage()
		if err != nil {
			cause = err
			break
		}
		env, err := e.codec.Decode(body)
		if err != nil {
			e.stats.decodeErrors.Add(1)
			e.cfg.Metrics.RecordDecodeError()
			e.logger.Warn("envelope decode error", "error", err, "bytes", len(body))
			cause = err
			break
		}

		kind := e.registry.Kind(env.MsgID)
		e.stats.received.Add(1)
		e.stats.bytesReceived.Add(uint64(len(body)))
		e.cfg.Metrics.RecordReceived(kind.String(), len(body))

		if !e.dispatch(c, kind, env) {
			break
		}
		if e.cfg.OnEnvelope != nil {
			e.cfg.OnEnvelope(env)
		}
	}

	if c.userClosed.Load() {
		cause = ErrClosed
	} else if cause == nil {
		cause = ErrConnectionClosed
	}
	if !c.userClosed.Load() && !errors.Is(cause, ErrConnectionClosed) {
		e.logger.Warn("receive loop ended", "error", cause)
	}

	c.shutdown()
	e.mu.Lock()
	if e.conn == c {
		e.finishLocked(c, cause)
	}
	e.mu.Unlock()
}

// dispatch applies one envelope. It reports false if c is no longer the live
// connection.
func (e *Engine) dispatch(c *connection, kind protocol.Kind, env *protocol.Envelope) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.conn != c {
		return false
	}
	e.state.AdoptSessionID(env.SessionID)

	switch kind {
	case protocol.KindSessionInit:
		v, err := protocol.DecodeSessionInit(env.Payload)
		if err != nil {
			e.dropLocked(env, err)
			return true
		}
		if !e.state.ApplySessionInit(v.SessionID, v.Token) {
			e.logger.Debug("late session init ignored", "session_id", v.SessionID, "phase", e.state.Phase())
			return true
		}
		e.logger.Debug("session assigned", "session_id", v.SessionID)

	case protocol.KindLoginRsp:
		v, err := protocol.DecodeLoginResponse(env.Payload)
		if err != nil {
			e.dropLocked(env, err)
			return true
		}
		if _, err := e.state.ApplyLogin(v.PlayerID, e.loginAccount); err != nil {
			e.logger.Warn("login response rejected", "error", err)
			return true
		}
		e.startHeartbeatLocked(c)
		e.resolveLocked(intentLogin, env, nil)
		e.logger.Debug("logged in", "player_id", v.PlayerID, "session_id", e.state.SessionID())

	case protocol.KindResumeRsp:
		v, err := protocol.DecodeResumeResponse(env.Payload)
		if err != nil {
			e.dropLocked(env, err)
			return true
		}
		if !v.OK {
			e.resolveLocked(intentResume, env, fmt.Errorf("%w: %s", ErrResumeRejected, v.Reason))
			e.logger.Info("resume rejected", "reason", v.Reason)
			return true
		}
		if _, err := e.state.ApplyResume(); err != nil {
			e.logger.Warn("resume response rejected", "error", err)
			return true
		}
		e.startHeartbeatLocked(c)
		e.resolveLocked(intentResume, env, nil)
		e.logger.Debug("resumed", "session_id", e.state.SessionID())

	case protocol.KindHeartbeatRsp:
		e.stats.heartbeatAcks.Add(1)

	case protocol.KindPlayerDataRsp:
		e.resolveLocked(intentPlayerData, env, nil)

	case protocol.KindErrorRsp:
		v, err := protocol.DecodeErrorResponse(env.Payload)
		if err != nil {
			e.dropLocked(env, err)
			return true
		}
		e.stats.serverErrors.Add(1)
		serverErr := &ServerError{Code: v.Code, Message: v.Message}
		if in, ok := e.errorTargetLocked(); ok {
			e.resolveLocked(in, env, serverErr)
		}
		e.logger.Info("gate error", "code", int32(v.Code), "message", v.Message)

	case protocol.KindPlayerOffline:
		e.logger.Info("player offline notice", "player_id", env.PlayerID)

	case protocol.KindEnterGameRsp, protocol.KindChatRsp:
		// Notification only.

	default:
		e.stats.unhandled.Add(1)
		e.logger.Debug("unhandled envelope", "msg_id", env.MsgID)
	}
	return true
}

// errorTargetLocked picks the pending call an ErrorRsp answers: the login
// while not yet active, then a resume, then a data request.
func (e *Engine) errorTargetLocked() (intent, bool) {
	if _, ok := e.calls[intentLogin]; ok && e.state.Phase() != session.PhaseActive {
		return intentLogin, true
	}
	for _, in := range []intent{intentResume, intentPlayerData, intentLogin} {
		if _, ok := e.calls[in]; ok {
			return in, true
		}
	}
	return 0, false
}

func (e *Engine) resolveLocked(in intent, env *protocol.Envelope, err error) {
	call, ok := e.calls[in]
	if !ok {
		return
	}
	delete(e.calls, in)
	call.resolve(env, err)
	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = metrics.OutcomeError
	}
	e.cfg.Metrics.RecordRequest(in.String(), outcome, call.Elapsed())
}

func (e *Engine) dropLocked(env *protocol.Envelope, err error) {
	e.stats.decodeErrors.Add(1)
	e.cfg.Metrics.RecordDecodeError()
	e.logger.Warn("payload decode error, envelope dropped", "msg_id", env.MsgID, "error", err)
}

// startHeartbeatLocked starts the heartbeat supervisor for c unless it is
// already running. Login and resume responses may both call it.
func (e *Engine) startHeartbeatLocked(c *connection) {
	if c.hbStarted {
		return
	}
	c.hbStarted = true
	e.stats.heartbeatStarts.Add(1)
	e.wg.Add(1)
	go e.heartbeatLoop(c, e.cfg.HeartbeatInterval)
}

// heartbeatLoop sends a heartbeat every interval until c ends. A send
// failure stops it silently; the receive loop reports the disconnect.
func (e *Engine) heartbeatLoop(c *connection, interval time.Duration) {
	defer e.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := e.sendOn(c, protocol.KindHeartbeatReq, nil); err != nil {
				e.logger.Debug("heartbeat stopped", "error", err)
				return
			}
			e.stats.heartbeatsSent.Add(1)
			e.cfg.Metrics.RecordHeartbeat()

		case <-c.done:
			return
		}
	}
}
