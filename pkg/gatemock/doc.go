// Package gatemock is a small in-process gate for local runs and tests.
//
// It assigns a session on accept, answers login, resume, heartbeat,
// load-player-data, enter-game and chat requests, and rejects anything sent
// before login with an Unauthorized error. A rejected resume is answered and
// the connection is closed.
//
//	gate := gatemock.New(nil)
//	addr, err := gate.ListenTCP("127.0.0.1:0")
//	if err != nil {
//	    return err
//	}
//	defer gate.Close()
//
//	http.Handle("/", gate.Handler()) // /ws and /healthz
package gatemock
