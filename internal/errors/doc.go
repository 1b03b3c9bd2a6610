// Package errors provides structured, actionable error messages for the
// gateprobe command.
//
// Each error has a code (e.g., "G004") mapped to a category, a short
// message, an explanation and a hint. Classify turns engine errors from
// pkg/client into the matching code so the command can print them:
//
//	if err := run(); err != nil {
//	    errors.Fprint(os.Stderr, errors.Classify(err, "G052"))
//	}
//
// Output:
//
//	ERROR G004: Request timed out [session]
//
//	  The gate did not answer within the configured wait.
//
//	  Cause: client 3: login: client: timeout
//
//	  Hint: Raise --login-timeout or --request-timeout, or lower --clients
package errors
