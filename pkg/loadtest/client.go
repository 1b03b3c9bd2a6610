package loadtest

import (
	"context"
	"time"

	"github.com/shazhongcheng/TestGoServer/pkg/client"
	"github.com/shazhongcheng/TestGoServer/pkg/session"
)

// Client is the part of an engine the harness drives. Tests substitute
// fakes.
type Client interface {
	Connect(ctx context.Context) error
	Login(ctx context.Context, accountID, token string, timeout time.Duration) error
	Resume(ctx context.Context, timeout time.Duration) error

	// RequestPlayerData runs one bounded round trip and returns its latency.
	RequestPlayerData(ctx context.Context, timeout time.Duration) (time.Duration, error)

	Close() error
}

// TicketHolder is implemented by clients whose resume credentials can be
// exported to and seeded from a session.TicketStore.
type TicketHolder interface {
	Ticket() session.Ticket
	SetTicket(session.Ticket) error
}

// StatsReporter is implemented by clients that keep engine counters.
type StatsReporter interface {
	Stats() client.Stats
}

// Factory creates the client for engine idx.
type Factory func(idx int) (Client, error)

// EngineClient adapts a *client.Engine to Client.
type EngineClient struct {
	Engine *client.Engine
}

var (
	_ Client        = (*EngineClient)(nil)
	_ TicketHolder  = (*EngineClient)(nil)
	_ StatsReporter = (*EngineClient)(nil)
)

// EngineFactory returns a Factory that builds engines from a copy of base
// with Index set.
func EngineFactory(base *client.Config) Factory {
	return func(idx int) (Client, error) {
		cfg := base.Clone()
		if cfg == nil {
			cfg = client.DefaultConfig()
		}
		cfg.Index = idx
		return &EngineClient{Engine: client.New(cfg)}, nil
	}
}

func (c *EngineClient) Connect(ctx context.Context) error {
	return c.Engine.Connect(ctx)
}

func (c *EngineClient) Login(ctx context.Context, accountID, token string, timeout time.Duration) error {
	return c.Engine.LoginAndWait(ctx, accountID, token, timeout)
}

func (c *EngineClient) Resume(ctx context.Context, timeout time.Duration) error {
	return c.Engine.ResumeAndWait(ctx, timeout)
}

// RequestPlayerData measures from just before the send to the resolved wait.
func (c *EngineClient) RequestPlayerData(ctx context.Context, timeout time.Duration) (time.Duration, error) {
	start := time.Now()
	err := c.Engine.RequestPlayerDataAndWait(ctx, timeout)
	return time.Since(start), err
}

func (c *EngineClient) Close() error {
	return c.Engine.Close()
}

func (c *EngineClient) Ticket() session.Ticket {
	return c.Engine.State().Ticket
}

func (c *EngineClient) SetTicket(t session.Ticket) error {
	return c.Engine.SetTicket(t)
}

func (c *EngineClient) Stats() client.Stats {
	return c.Engine.Stats()
}
