package gatemock

import (
	"log/slog"
	"time"

	"github.com/shazhongcheng/TestGoServer/pkg/protocol"
	"github.com/shazhongcheng/TestGoServer/pkg/transport"
)

// Config configures a mock gate.
type Config struct {
	// WebSocketJSON makes the /ws endpoint exchange protojson envelopes in
	// text messages instead of binary protobuf.
	// Default: false.
	WebSocketJSON bool

	// ResponseDelay is waited before every reply. It simulates a slow
	// backend.
	// Default: 0.
	ResponseDelay time.Duration

	// Drop, if set, reports whether an inbound request is swallowed without
	// a reply. Tests use it to provoke client timeouts.
	Drop func(id protocol.MsgID) bool

	// MaxMessageSize bounds inbound envelopes.
	// Default: transport.DefaultMaxMessageSize.
	MaxMessageSize int

	// PlayerDataSize is the payload size of a load-player-data response.
	// Default: 256.
	PlayerDataSize int

	// FirstSessionID is the id given to the first accepted connection.
	// Default: 1.
	FirstSessionID int64

	// Registry maps message ids to kinds.
	// Default: protocol.DefaultRegistry().
	Registry *protocol.Registry

	// Logger receives connection events.
	// Default: slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxMessageSize: transport.DefaultMaxMessageSize,
		PlayerDataSize: 256,
		FirstSessionID: 1,
		Registry:       protocol.DefaultRegistry(),
		Logger:         slog.Default(),
	}
}

// Clone returns a copy of the Config.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

func (c *Config) withDefaults() *Config {
	out := DefaultConfig()
	if c == nil {
		return out
	}
	out.WebSocketJSON = c.WebSocketJSON
	out.ResponseDelay = c.ResponseDelay
	out.Drop = c.Drop
	if c.MaxMessageSize > 0 {
		out.MaxMessageSize = c.MaxMessageSize
	}
	if c.PlayerDataSize > 0 {
		out.PlayerDataSize = c.PlayerDataSize
	}
	if c.FirstSessionID > 0 {
		out.FirstSessionID = c.FirstSessionID
	}
	if c.Registry != nil {
		out.Registry = c.Registry
	}
	if c.Logger != nil {
		out.Logger = c.Logger
	}
	return out
}
