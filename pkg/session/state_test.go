package session

import (
	"errors"
	"testing"
)

func connected(t *testing.T) *State {
	t.Helper()
	s := NewState()
	if err := s.BeginConnect(); err != nil {
		t.Fatal(err)
	}
	if err := s.HandshakeComplete(); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestStateLoginFlow(t *testing.T) {
	s := connected(t)
	if s.Phase() != PhaseAwaitingSession {
		t.Fatalf("Phase() = %s, want AwaitingSession", s.Phase())
	}

	if !s.ApplySessionInit(100, "tok") {
		t.Fatal("ApplySessionInit() = false")
	}
	if s.Phase() != PhaseAwaitingLogin || s.SessionID() != 100 {
		t.Fatalf("after SessionInit: phase=%s session=%d", s.Phase(), s.SessionID())
	}

	changed, err := s.ApplyLogin(7, "acct")
	if err != nil || !changed {
		t.Fatalf("ApplyLogin() = %v, %v; want true, nil", changed, err)
	}
	snap := s.Snapshot()
	if snap.Phase != PhaseActive || snap.PlayerID != 7 || snap.AccountID != "acct" {
		t.Errorf("Snapshot() = %+v", snap)
	}
	want := Ticket{AccountID: "acct", SessionID: 100, Token: "tok", PlayerID: 7}
	got := snap.Ticket
	got.IssuedAt = want.IssuedAt
	if got != want {
		t.Errorf("Ticket = %+v, want %+v", got, want)
	}

	changed, err = s.ApplyLogin(7, "")
	if err != nil || changed {
		t.Errorf("second ApplyLogin() = %v, %v; want false, nil", changed, err)
	}
}

func TestStateSessionInitOnlyWhileAwaiting(t *testing.T) {
	s := connected(t)
	s.ApplySessionInit(1, "a")
	if s.ApplySessionInit(2, "b") {
		t.Error("ApplySessionInit() accepted a second SessionInit")
	}
	if s.SessionID() != 1 {
		t.Errorf("SessionID() = %d, want 1", s.SessionID())
	}
}

func TestStateResumeAfterReconnect(t *testing.T) {
	s := connected(t)
	s.ApplySessionInit(100, "tok-100")
	if _, err := s.ApplyLogin(7, "acct"); err != nil {
		t.Fatal(err)
	}

	if !s.BeginClose() {
		t.Fatal("BeginClose() = false")
	}
	if s.BeginClose() {
		t.Error("BeginClose() = true while already closing")
	}
	s.Closed()
	if s.Phase() != PhaseDisconnected {
		t.Fatalf("Phase() = %s, want Disconnected", s.Phase())
	}

	if err := s.BeginConnect(); err != nil {
		t.Fatal(err)
	}
	if err := s.HandshakeComplete(); err != nil {
		t.Fatal(err)
	}
	s.ApplySessionInit(200, "tok-200")

	id, tok, ok := s.ResumeCredentials()
	if !ok || id != 100 || tok != "tok-100" {
		t.Fatalf("ResumeCredentials() = %d, %q, %v; want 100, tok-100, true", id, tok, ok)
	}

	changed, err := s.ApplyResume()
	if err != nil || !changed {
		t.Fatalf("ApplyResume() = %v, %v", changed, err)
	}
	if s.SessionID() != 100 || s.PlayerID() != 7 || s.Phase() != PhaseActive {
		t.Errorf("after resume: %+v", s.Snapshot())
	}
}

func TestStateResumeCredentialsWithoutSession(t *testing.T) {
	s := connected(t)
	if _, _, ok := s.ResumeCredentials(); ok {
		t.Error("ResumeCredentials() ok = true before any SessionInit")
	}
	s.ApplySessionInit(5, "t5")
	if id, _, ok := s.ResumeCredentials(); !ok || id != 5 {
		t.Errorf("ResumeCredentials() = %d, %v; want 5, true", id, ok)
	}
}

func TestStateInvalidTransitions(t *testing.T) {
	tests := []struct {
		name string
		run  func(s *State) error
	}{
		{"handshake_while_disconnected", func(s *State) error { return s.HandshakeComplete() }},
		{"login_while_disconnected", func(s *State) error { _, err := s.ApplyLogin(1, ""); return err }},
		{"resume_while_disconnected", func(s *State) error { _, err := s.ApplyResume(); return err }},
		{"connect_twice", func(s *State) error {
			if err := s.BeginConnect(); err != nil {
				return nil
			}
			return s.BeginConnect()
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.run(NewState()); !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("error = %v, want ErrInvalidTransition", err)
			}
		})
	}
}

func TestStateAdoptSessionID(t *testing.T) {
	s := connected(t)
	if s.AdoptSessionID(9) {
		t.Error("AdoptSessionID() changed id before SessionInit")
	}
	s.ApplySessionInit(1, "t")
	if s.AdoptSessionID(0) || s.AdoptSessionID(1) {
		t.Error("AdoptSessionID() changed id for zero or equal value")
	}
	if _, err := s.ApplyLogin(3, "a"); err != nil {
		t.Fatal(err)
	}
	if !s.AdoptSessionID(2) {
		t.Fatal("AdoptSessionID(2) = false")
	}
	if s.SessionID() != 2 || s.Ticket().SessionID != 2 {
		t.Errorf("SessionID() = %d, ticket = %d; want 2, 2", s.SessionID(), s.Ticket().SessionID)
	}
}

func TestStateSetTicket(t *testing.T) {
	s := NewState()
	if err := s.SetTicket(Ticket{AccountID: "a", SessionID: 11, Token: "x"}); err != nil {
		t.Fatal(err)
	}
	if id, _, ok := s.ResumeCredentials(); !ok || id != 11 {
		t.Errorf("ResumeCredentials() = %d, %v", id, ok)
	}
	_ = s.BeginConnect()
	if err := s.SetTicket(Ticket{}); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("SetTicket() while connecting error = %v", err)
	}
}

func TestPhaseString(t *testing.T) {
	tests := []struct {
		p    Phase
		want string
	}{
		{PhaseDisconnected, "Disconnected"},
		{PhaseAwaitingLogin, "AwaitingLogin"},
		{PhaseActive, "Active"},
		{Phase(42), "Phase(42)"},
	}
	for _, tc := range tests {
		if got := tc.p.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}
}
