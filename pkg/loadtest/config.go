package loadtest

import (
	"errors"
	"time"
)

// Config describes one load run.
type Config struct {
	// Clients is the number of concurrent engines.
	// Default: 500.
	Clients int

	// SpawnDelay is the fixed sleep between starting two engines. It caps
	// the connection rate seen by the gate.
	// Default: 2ms.
	SpawnDelay time.Duration

	// Rounds is the number of player-data round trips per engine.
	// Default: 1.
	Rounds int

	// RoundInterval is the pause between two rounds of one engine.
	// Default: 1 second.
	RoundInterval time.Duration

	// DwellMin and DwellMax bound the random time an engine stays online
	// after its last round.
	// Default: 1 and 2 seconds.
	DwellMin time.Duration
	DwellMax time.Duration

	// LoginTimeout bounds the login wait. An engine that times out
	// contributes no samples.
	// Default: 5 seconds.
	LoginTimeout time.Duration

	// RequestTimeout bounds each round's wait, and each resume wait.
	// Default: 30 seconds.
	RequestTimeout time.Duration

	// ResumeCycles is the number of close, reconnect and resume cycles an
	// engine runs after its rounds. Each cycle adds one more round.
	// Default: 0.
	ResumeCycles int

	// TicketTTL is how long a resume ticket stays in the ticket store.
	// Default: 5 minutes.
	TicketTTL time.Duration

	// AccountPrefix names accounts: engine i logs in as AccountPrefix+i with
	// the account name as its token.
	// Default: "test".
	AccountPrefix string

	// Seed seeds the dwell randomness. Zero picks a time-based seed.
	Seed uint64
}

// DefaultConfig returns a Config with the defaults of the pressure client.
func DefaultConfig() *Config {
	return &Config{
		Clients:        500,
		SpawnDelay:     2 * time.Millisecond,
		Rounds:         1,
		RoundInterval:  time.Second,
		DwellMin:       time.Second,
		DwellMax:       2 * time.Second,
		LoginTimeout:   5 * time.Second,
		RequestTimeout: 30 * time.Second,
		TicketTTL:      5 * time.Minute,
		AccountPrefix:  "test",
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

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case c.Clients <= 0:
		return errors.New("loadtest: clients must be > 0")
	case c.Rounds < 0:
		return errors.New("loadtest: rounds must be >= 0")
	case c.ResumeCycles < 0:
		return errors.New("loadtest: resume cycles must be >= 0")
	case c.SpawnDelay < 0 || c.RoundInterval < 0:
		return errors.New("loadtest: delays must be >= 0")
	case c.DwellMin < 0 || c.DwellMax < c.DwellMin:
		return errors.New("loadtest: dwell range must satisfy 0 <= min <= max")
	case c.LoginTimeout <= 0 || c.RequestTimeout <= 0:
		return errors.New("loadtest: timeouts must be > 0")
	}
	return nil
}

// withDefaults fills zero fields. Counts and delays where zero is
// meaningful are kept as given.
func (c *Config) withDefaults() *Config {
	if c == nil {
		return DefaultConfig()
	}
	out := c.Clone()
	def := DefaultConfig()
	if out.LoginTimeout == 0 {
		out.LoginTimeout = def.LoginTimeout
	}
	if out.RequestTimeout == 0 {
		out.RequestTimeout = def.RequestTimeout
	}
	if out.TicketTTL == 0 {
		out.TicketTTL = def.TicketTTL
	}
	if out.AccountPrefix == "" {
		out.AccountPrefix = def.AccountPrefix
	}
	return out
}
