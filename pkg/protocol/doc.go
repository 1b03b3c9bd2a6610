// Package protocol implements the gate envelope codec.
//
// Every frame body is one Envelope:
//
//	message Envelope {
//	    int32 msg_id     = 1;
//	    int64 session_id = 2;
//	    int64 player_id  = 3;
//	    bytes payload    = 4;
//	}
//
// The message id selects how the payload is read. A Registry maps ids to
// Kinds so the client engine can dispatch without hard-coding numbers;
// DefaultRegistry holds the gate's table.
//
// # Encodings
//
//   - Binary: protobuf, used on the stream transport and on binary WebSocket
//     messages.
//   - JSON: protojson, used on WebSocket text messages.
//
// # Control payloads
//
// A handful of payloads are understood by the client itself: SessionInit,
// LoginReq/LoginRsp, ResumeReq/ResumeRsp and ErrorRsp. Their Decode helpers
// return a *DecodeError (matching ErrDecode) when the payload does not fit
// the declared message, including a known field arriving with the wrong wire
// type. They never panic on malformed input.
package protocol
