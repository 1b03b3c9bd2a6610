// Package transport carries envelope bodies between a game client and the gate.
//
// Two interchangeable variants implement Transport:
//
//   - TCP: a raw stream socket. The Framer adds a 4-byte big-endian length
//     prefix in front of every body.
//   - WebSocket: a message-oriented socket. One WebSocket message carries
//     one body, so the Framer writes no prefix.
//
// The Framer is written against Transport only and detects message framing
// through the optional MessageTransport interface:
//
//	t, _ := transport.New(&transport.Options{Network: transport.NetworkTCP, Address: "127.0.0.1:9000"})
//	if err := t.Connect(ctx); err != nil {
//	    return err
//	}
//	f := transport.NewFramer(t, 0)
//	_ = f.WriteMessage(body)
//	reply, err := f.ReadMessage()
//
// Errors follow a small taxonomy: ErrConnection for socket failures,
// ErrConnectionClosed when a stream ends (including in the middle of a
// frame), and ErrFrameTooLarge for oversized length prefixes.
package transport
