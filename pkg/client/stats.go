package client

import "sync/atomic"

// Stats are cumulative counters for one engine across all its connections.
type Stats struct {
	Connects        uint64 `json:"connects"`
	ConnectFailures uint64 `json:"connect_failures"`
	Sent            uint64 `json:"sent"`
	Received        uint64 `json:"received"`
	BytesSent       uint64 `json:"bytes_sent"`
	BytesReceived   uint64 `json:"bytes_received"`
	HeartbeatStarts uint64 `json:"heartbeat_starts"`
	HeartbeatsSent  uint64 `json:"heartbeats_sent"`
	HeartbeatAcks   uint64 `json:"heartbeat_acks"`
	DecodeErrors    uint64 `json:"decode_errors"`
	ServerErrors    uint64 `json:"server_errors"`
	Unhandled       uint64 `json:"unhandled"`
}

type counters struct {
	connects        atomic.Uint64
	connectFailures atomic.Uint64
	sent            atomic.Uint64
	received        atomic.Uint64
	bytesSent       atomic.Uint64
	bytesReceived   atomic.Uint64
	heartbeatStarts atomic.Uint64
	heartbeatsSent  atomic.Uint64
	heartbeatAcks   atomic.Uint64
	decodeErrors    atomic.Uint64
	serverErrors    atomic.Uint64
	unhandled       atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Connects:        c.connects.Load(),
		ConnectFailures: c.connectFailures.Load(),
		Sent:            c.sent.Load(),
		Received:        c.received.Load(),
		BytesSent:       c.bytesSent.Load(),
		BytesReceived:   c.bytesReceived.Load(),
		HeartbeatStarts: c.heartbeatStarts.Load(),
		HeartbeatsSent:  c.heartbeatsSent.Load(),
		HeartbeatAcks:   c.heartbeatAcks.Load(),
		DecodeErrors:    c.decodeErrors.Load(),
		ServerErrors:    c.serverErrors.Load(),
		Unhandled:       c.unhandled.Load(),
	}
}

// Add returns the field-wise sum of s and o.
func (s Stats) Add(o Stats) Stats {
	return Stats{
		Connects:        s.Connects + o.Connects,
		ConnectFailures: s.ConnectFailures + o.ConnectFailures,
		Sent:            s.Sent + o.Sent,
		Received:        s.Received + o.Received,
		BytesSent:       s.BytesSent + o.BytesSent,
		BytesReceived:   s.BytesReceived + o.BytesReceived,
		HeartbeatStarts: s.HeartbeatStarts + o.HeartbeatStarts,
		HeartbeatsSent:  s.HeartbeatsSent + o.HeartbeatsSent,
		HeartbeatAcks:   s.HeartbeatAcks + o.HeartbeatAcks,
		DecodeErrors:    s.DecodeErrors + o.DecodeErrors,
		ServerErrors:    s.ServerErrors + o.ServerErrors,
		Unhandled:       s.Unhandled + o.Unhandled,
	}
}
