package session

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTransition is returned when a phase change is not allowed from
// the current phase.
var ErrInvalidTransition = errors.New("session: invalid phase transition")

// Phase is the connection phase of one client engine.
type Phase int32

const (
	PhaseDisconnected    Phase = iota // No transport
	PhaseConnecting                   // Transport handshake in flight
	PhaseAwaitingSession              // Waiting for SessionInit
	PhaseAwaitingLogin                // Session assigned, not authenticated
	PhaseActive                       // Logged in or resumed
	PhaseClosing                      // Tearing down
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseDisconnected:
		return "Disconnected"
	case PhaseConnecting:
		return "Connecting"
	case PhaseAwaitingSession:
		return "AwaitingSession"
	case PhaseAwaitingLogin:
		return "AwaitingLogin"
	case PhaseActive:
		return "Active"
	case PhaseClosing:
		return "Closing"
	default:
		return fmt.Sprintf("Phase(%d)", int32(p))
	}
}

// Connected reports whether the phase has a live, handshaken transport.
func (p Phase) Connected() bool {
	return p == PhaseAwaitingSession || p == PhaseAwaitingLogin || p == PhaseActive
}

// Ticket holds the credentials needed to resume a session on a new
// connection.
type Ticket struct {
	AccountID string    `json:"account_id,omitempty"`
	SessionID int64     `json:"session_id"`
	Token     string    `json:"token"`
	PlayerID  int64     `json:"player_id,omitempty"`
	IssuedAt  time.Time `json:"issued_at"`
}

// Valid reports whether the ticket names a session.
func (t Ticket) Valid() bool {
	return t.SessionID != 0
}

// Snapshot is a read-only copy of a State.
type Snapshot struct {
	Phase     Phase
	SessionID int64
	PlayerID  int64
	Token     string
	AccountID string
	Ticket    Ticket
}

// State is the per-connection session state of one engine. It is a plain
// value: the owning engine serializes access with its own lock and only the
// receive path applies server-driven transitions.
//
// The resume ticket is pinned separately from the live session fields, so the
// fresh SessionInit that follows a reconnect does not overwrite the
// credentials a resume needs.
type State struct {
	phase     Phase
	sessionID int64
	playerID  int64
	token     string
	accountID string
	ticket    Ticket

	now func() time.Time
}

// NewState returns a disconnected state.
func NewState() *State {
	return &State{now: time.Now}
}

// Phase returns the current phase.
func (s *State) Phase() Phase {
	return s.phase
}

// SessionID returns the session id envelopes are stamped with.
func (s *State) SessionID() int64 {
	return s.sessionID
}

// PlayerID returns the player id envelopes are stamped with.
func (s *State) PlayerID() int64 {
	return s.playerID
}

// Ticket returns the pinned resume credentials.
func (s *State) Ticket() Ticket {
	return s.ticket
}

// SetTicket installs resume credentials obtained elsewhere, such as a
// TicketStore. It is only allowed while disconnected.
func (s *State) SetTicket(t Ticket) error {
	if s.phase != PhaseDisconnected {
		return fmt.Errorf("%w: set ticket while %s", ErrInvalidTransition, s.phase)
	}
	s.ticket = t
	s.accountID = t.AccountID
	return nil
}

// Snapshot returns a copy of the state.
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		Phase:     s.phase,
		SessionID: s.sessionID,
		PlayerID:  s.playerID,
		Token:     s.token,
		AccountID: s.accountID,
		Ticket:    s.ticket,
	}
}

// BeginConnect moves Disconnected to Connecting.
func (s *State) BeginConnect() error {
	if s.phase != PhaseDisconnected {
		return fmt.Errorf("%w: connect while %s", ErrInvalidTransition, s.phase)
	}
	s.phase = PhaseConnecting
	return nil
}

// HandshakeComplete moves Connecting to AwaitingSession.
func (s *State) HandshakeComplete() error {
	if s.phase != PhaseConnecting {
		return fmt.Errorf("%w: handshake while %s", ErrInvalidTransition, s.phase)
	}
	s.phase = PhaseAwaitingSession
	return nil
}

// ApplySessionInit records the session assigned by the gate and moves
// AwaitingSession to AwaitingLogin. It reports false, changing nothing, in
// any other phase.
func (s *State) ApplySessionInit(sessionID int64, token string) bool {
	if s.phase != PhaseAwaitingSession {
		return false
	}
	s.sessionID = sessionID
	s.token = token
	s.phase = PhaseAwaitingLogin
	if !s.ticket.Valid() {
		s.ticket = Ticket{SessionID: sessionID, Token: token, IssuedAt: s.now()}
	}
	return true
}

// ApplyLogin records the player and moves any connected phase to Active. It
// pins the current session as the resume ticket. It reports whether the
// phase changed.
func (s *State) ApplyLogin(playerID int64, accountID string) (bool, error) {
	if !s.phase.Connected() {
		return false, fmt.Errorf("%w: login response while %s", ErrInvalidTransition, s.phase)
	}
	s.playerID = playerID
	if accountID != "" {
		s.accountID = accountID
	}
	s.ticket = Ticket{
		AccountID: s.accountID,
		SessionID: s.sessionID,
		Token:     s.token,
		PlayerID:  playerID,
		IssuedAt:  s.now(),
	}
	changed := s.phase != PhaseActive
	s.phase = PhaseActive
	return changed, nil
}

// ApplyResume rebinds the connection to the ticket's session and moves any
// connected phase to Active. It reports whether the phase changed.
func (s *State) ApplyResume() (bool, error) {
	if !s.phase.Connected() {
		return false, fmt.Errorf("%w: resume response while %s", ErrInvalidTransition, s.phase)
	}
	if s.ticket.Valid() {
		s.sessionID = s.ticket.SessionID
		s.token = s.ticket.Token
		if s.ticket.PlayerID != 0 {
			s.playerID = s.ticket.PlayerID
		}
	}
	changed := s.phase != PhaseActive
	s.phase = PhaseActive
	return changed, nil
}

// ResumeCredentials returns the session id and token a resume request
// carries. ok is false when no session has ever been assigned.
func (s *State) ResumeCredentials() (sessionID int64, token string, ok bool) {
	if !s.ticket.Valid() {
		return 0, "", false
	}
	return s.ticket.SessionID, s.ticket.Token, true
}

// AdoptSessionID follows a non-zero session id stamped on an inbound envelope
// once the session is established. It reports whether the id changed.
func (s *State) AdoptSessionID(id int64) bool {
	if id == 0 || id == s.sessionID {
		return false
	}
	if s.phase != PhaseAwaitingLogin && s.phase != PhaseActive {
		return false
	}
	s.sessionID = id
	if s.phase == PhaseActive && s.ticket.Valid() {
		s.ticket.SessionID = id
	}
	return true
}

// BeginClose moves any phase except Disconnected to Closing. It reports
// false if the state is already closing or disconnected.
func (s *State) BeginClose() bool {
	if s.phase == PhaseDisconnected || s.phase == PhaseClosing {
		return false
	}
	s.phase = PhaseClosing
	return true
}

// Closed moves the state to Disconnected. Session identity and the ticket
// survive so that a later connection can resume.
func (s *State) Closed() {
	s.phase = PhaseDisconnected
}
