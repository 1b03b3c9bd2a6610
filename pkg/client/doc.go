// Package client implements the gate protocol client engine.
//
// An Engine owns one connection at a time. Connect starts a receive goroutine
// that decodes envelopes in arrival order, updates the session state and
// resolves pending calls. The first successful login or resume on a
// connection starts a heartbeat goroutine. Both goroutines are joined by
// Close.
//
//	e := client.New(&client.Config{Transport: &transport.Options{Address: "127.0.0.1:9000"}})
//	if err := e.Connect(ctx); err != nil {
//	    return err
//	}
//	defer e.Close()
//
//	if err := e.LoginAndWait(ctx, "acct_1", "token", 5*time.Second); err != nil {
//	    return err
//	}
//	call, _ := e.RequestPlayerData()
//	if _, err := call.WaitTimeout(3 * time.Second); errors.Is(err, client.ErrTimeout) {
//	    // the connection is still open; the caller decides whether to Close
//	}
//
// # Pending calls
//
// Login, Resume and RequestPlayerData each return a fresh *Call. A newer
// request of the same kind resolves the older call with ErrSuperseded, so a
// stale response can never complete the wrong wait.
//
// # Reconnect and resume
//
// The engine never reconnects on its own. After a drop the caller runs
// Close, Connect and Resume. The resume ticket pinned at login survives the
// reconnect, and SetTicket can seed it from a session.TicketStore.
//
// # Errors
//
// ErrConnection and ErrConnectionClosed come from the transport and end the
// connection. A payload that does not match its message id (ErrProtocolDecode)
// is logged and dropped. ErrTimeout leaves the connection open.
// ErrInvalidState is returned before anything is sent.
package client
