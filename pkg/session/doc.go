// Package session models the client side of a gate session.
//
// A State walks through these phases:
//
//	Disconnected ─Connect─▶ Connecting ─handshake─▶ AwaitingSession
//	AwaitingSession ─SessionInit─▶ AwaitingLogin ─LoginRsp─▶ Active
//	any connected phase ─ResumeRsp(ok)─▶ Active
//	any phase ─close/error─▶ Closing ─▶ Disconnected
//
// Session identity and the resume Ticket survive Disconnected, so a caller
// can reconnect and resume without logging in again. Tickets can also be
// kept across engines in a TicketStore.
package session
