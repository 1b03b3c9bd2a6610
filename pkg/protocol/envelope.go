package protocol

import (
	"bytes"
	"fmt"
	"strings"

	"google.golang.org/protobuf/encoding/protojson"
)

// Envelope is the generic wire message. MsgID decides how Payload is read;
// SessionID and PlayerID are zero until the gate assigns them.
type Envelope struct {
	MsgID     MsgID
	SessionID int64
	PlayerID  int64
	Payload   []byte
}

// Equal reports whether two envelopes carry the same fields. A nil and an
// empty payload are equal.
func (e *Envelope) Equal(o *Envelope) bool {
	if e == nil || o == nil {
		return e == o
	}
	return e.MsgID == o.MsgID &&
		e.SessionID == o.SessionID &&
		e.PlayerID == o.PlayerID &&
		bytes.Equal(e.Payload, o.Payload)
}

func (e *Envelope) String() string {
	return fmt.Sprintf("Envelope{msg=%d session=%d player=%d payload=%dB}",
		e.MsgID, e.SessionID, e.PlayerID, len(e.Payload))
}

// Codec turns envelopes into frame bodies and back.
type Codec interface {
	// Name identifies the encoding ("binary" or "json").
	Name() string
	Encode(e *Envelope) ([]byte, error)
	// Decode fails with a *DecodeError.
	Decode(b []byte) (*Envelope, error)
}

// Codec names.
const (
	CodecBinary = "binary"
	CodecJSON   = "json"
)

// CodecFor returns the codec registered under name. An empty name selects
// the binary codec.
func CodecFor(name string) (Codec, error) {
	switch strings.ToLower(name) {
	case "", CodecBinary, "proto", "protobuf":
		return Binary{}, nil
	case CodecJSON:
		return JSON{}, nil
	default:
		return nil, fmt.Errorf("protocol: unknown codec %q", name)
	}
}

func envelopeMessage(e *Envelope) message {
	x := newMessage(envelopeDesc)
	x.setInt("msg_id", int64(e.MsgID))
	x.setInt("session_id", e.SessionID)
	x.setInt("player_id", e.PlayerID)
	x.setBytes("payload", e.Payload)
	return x
}

func envelopeFrom(x message) *Envelope {
	return &Envelope{
		MsgID:     MsgID(x.getInt("msg_id")),
		SessionID: x.getInt("session_id"),
		PlayerID:  x.getInt("player_id"),
		Payload:   x.getBytes("payload"),
	}
}

// Binary is the protobuf envelope encoding used on the stream transport and
// on binary WebSocket messages.
type Binary struct{}

func (Binary) Name() string { return CodecBinary }

func (Binary) Encode(e *Envelope) ([]byte, error) {
	if e == nil {
		return nil, fmt.Errorf("protocol: encode nil envelope")
	}
	return envelopeMessage(e).marshal()
}

func (Binary) Decode(b []byte) (*Envelope, error) {
	x, err := unmarshal(envelopeDesc, b)
	if err != nil {
		return nil, &DecodeError{Message: "Envelope", Err: err}
	}
	return envelopeFrom(x), nil
}

// JSON is the protojson envelope encoding carried in WebSocket text messages.
// Unknown JSON fields are ignored.
type JSON struct{}

var (
	jsonMarshal   = protojson.MarshalOptions{UseProtoNames: false}
	jsonUnmarshal = protojson.UnmarshalOptions{DiscardUnknown: true}
)

func (JSON) Name() string { return CodecJSON }

func (JSON) Encode(e *Envelope) ([]byte, error) {
	if e == nil {
		return nil, fmt.Errorf("protocol: encode nil envelope")
	}
	return jsonMarshal.Marshal(envelopeMessage(e).m)
}

func (JSON) Decode(b []byte) (*Envelope, error) {
	x := newMessage(envelopeDesc)
	if err := jsonUnmarshal.Unmarshal(b, x.m); err != nil {
		return nil, &DecodeError{Message: "Envelope", Err: err}
	}
	return envelopeFrom(x), nil
}
