package protocol

import (
	"bytes"
	"errors"
	"math"
	"testing"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	envelopes := []*Envelope{
		{},
		{MsgID: MsgHeartbeatReq},
		{MsgID: MsgLoginReq, SessionID: 42, Payload: []byte{0x0a, 0x03, 'a', 'b', 'c'}},
		{MsgID: MsgLoadPlayerDataRsp, SessionID: 7, PlayerID: 10001, Payload: bytes.Repeat([]byte{0xff}, 70_000)},
		{MsgID: -5, SessionID: math.MaxInt64, PlayerID: math.MinInt64, Payload: []byte{0}},
	}
	codecs := []Codec{Binary{}, JSON{}}

	for _, c := range codecs {
		for _, e := range envelopes {
			t.Run(c.Name()+"/"+e.String(), func(t *testing.T) {
				b, err := c.Encode(e)
				if err != nil {
					t.Fatalf("Encode() error = %v", err)
				}
				got, err := c.Decode(b)
				if err != nil {
					t.Fatalf("Decode() error = %v", err)
				}
				if !got.Equal(e) {
					t.Errorf("Decode(Encode(e)) = %v, want %v", got, e)
				}
			})
		}
	}
}

func TestEnvelopeEmptyPayloadNormalized(t *testing.T) {
	b, err := Binary{}.Encode(&Envelope{MsgID: MsgHeartbeatRsp, Payload: []byte{}})
	if err != nil {
		t.Fatal(err)
	}
	got, err := Binary{}.Decode(b)
	if err != nil {
		t.Fatal(err)
	}
	if got.Payload != nil {
		t.Errorf("Payload = %v, want nil", got.Payload)
	}
}

func TestBinaryDecodeGarbage(t *testing.T) {
	tests := []struct {
		name string
		body []byte
	}{
		{name: "truncated_varint", body: []byte{0x08, 0xff}},
		{name: "truncated_bytes", body: []byte{0x22, 0x05, 1, 2}},
		{name: "msg_id_as_bytes", body: []byte{0x0a, 0x01, 0x01}},
		{name: "invalid_tag", body: []byte{0x00}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Binary{}.Decode(tc.body)
			if !errors.Is(err, ErrDecode) {
				t.Fatalf("Decode() error = %v, want ErrDecode", err)
			}
			var de *DecodeError
			if !errors.As(err, &de) || de.Message != "Envelope" {
				t.Errorf("Decode() error = %#v, want *DecodeError for Envelope", err)
			}
		})
	}
}

func TestJSONDecode(t *testing.T) {
	got, err := JSON{}.Decode([]byte(`{"msgId":1002,"sessionId":"9","playerId":"77","payload":"CE0=","extra":true}`))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	want := &Envelope{MsgID: MsgLoginRsp, SessionID: 9, PlayerID: 77, Payload: []byte{0x08, 0x4d}}
	if !got.Equal(want) {
		t.Errorf("Decode() = %v, want %v", got, want)
	}

	if _, err := (JSON{}).Decode([]byte(`{"msgId":"x"`)); !errors.Is(err, ErrDecode) {
		t.Errorf("Decode(malformed) error = %v, want ErrDecode", err)
	}
}

func TestCodecFor(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{name: "", want: CodecBinary},
		{name: "binary", want: CodecBinary},
		{name: "protobuf", want: CodecBinary},
		{name: "JSON", want: CodecJSON},
		{name: "xml", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, err := CodecFor(tc.name)
			if tc.wantErr {
				if err == nil {
					t.Fatal("CodecFor() error = nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("CodecFor() error = %v", err)
			}
			if c.Name() != tc.want {
				t.Errorf("Name() = %q, want %q", c.Name(), tc.want)
			}
		})
	}
}
