package client

import (
	"log/slog"
	"time"

	"github.com/shazhongcheng/TestGoServer/pkg/metrics"
	"github.com/shazhongcheng/TestGoServer/pkg/protocol"
	"github.com/shazhongcheng/TestGoServer/pkg/transport"
)

// Config configures an Engine.
type Config struct {
	// Index identifies the engine in logs and errors.
	Index int

	// Transport selects and configures the connection to the gate.
	// Default: transport.DefaultOptions().
	Transport *transport.Options

	// Codec encodes envelopes.
	// Default: protocol.Binary.
	Codec protocol.Codec

	// Registry maps message ids to kinds.
	// Default: protocol.DefaultRegistry().
	Registry *protocol.Registry

	// HeartbeatInterval is the period of the heartbeat supervisor.
	// Default: 5 seconds.
	HeartbeatInterval time.Duration

	// MaxMessageSize bounds inbound frame bodies. It also sets the
	// transport's WebSocket read limit.
	// Default: transport.DefaultMaxMessageSize.
	MaxMessageSize int

	// Platform is sent in login requests.
	// Default: protocol.PlatformTest.
	Platform protocol.Platform

	// OnEnvelope, if set, is called from the receive goroutine for every
	// envelope after the engine has handled it. It must not block and must
	// not call Engine.Close, which waits for the receive goroutine to exit
	// and would deadlock.
	OnEnvelope func(*protocol.Envelope)

	// Logger receives engine events.
	// Default: slog.Default().
	Logger *slog.Logger

	// Metrics records connection and envelope counters. Nil disables it.
	Metrics *metrics.Recorder
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Transport:         transport.DefaultOptions(),
		Codec:             protocol.Binary{},
		Registry:          protocol.DefaultRegistry(),
		HeartbeatInterval: 5 * time.Second,
		MaxMessageSize:    transport.DefaultMaxMessageSize,
		Platform:          protocol.PlatformTest,
	}
}

// Clone returns a shallow copy with its own transport options.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Transport = c.Transport.Clone()
	return &clone
}

func (c *Config) withDefaults() *Config {
	out := DefaultConfig()
	if c == nil {
		out.Logger = slog.Default()
		return out
	}
	out.Index = c.Index
	out.Platform = c.Platform
	out.OnEnvelope = c.OnEnvelope
	out.Metrics = c.Metrics
	out.Logger = c.Logger
	if c.Transport != nil {
		out.Transport = c.Transport.Clone()
	}
	if c.Codec != nil {
		out.Codec = c.Codec
	}
	if c.Registry != nil {
		out.Registry = c.Registry
	}
	if c.HeartbeatInterval > 0 {
		out.HeartbeatInterval = c.HeartbeatInterval
	}
	if c.MaxMessageSize > 0 {
		out.MaxMessageSize = c.MaxMessageSize
	}
	out.Transport.MaxMessageSize = out.MaxMessageSize
	if out.Logger == nil {
		out.Logger = slog.Default()
	}
	return out
}
