package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrStoreClosed is returned when operations are attempted on a closed store.
var ErrStoreClosed = errors.New("session: ticket store is closed")

// TicketStore keeps resume tickets keyed by account id so that a later
// engine can resume an account's session without logging in again.
// Implementations must be safe for concurrent use.
type TicketStore interface {
	// Save stores t under t.AccountID, replacing any earlier ticket.
	Save(ctx context.Context, t Ticket, expiresAt time.Time) error

	// Load returns the ticket for accountID. ok is false if there is none or
	// it has expired.
	Load(ctx context.Context, accountID string) (t Ticket, ok bool, err error)

	// Delete removes the ticket for accountID. Missing tickets are not an
	// error.
	Delete(ctx context.Context, accountID string) error

	// Close releases the store.
	Close() error
}

// MemoryTicketStore is the in-process TicketStore.
type MemoryTicketStore struct {
	mu      sync.RWMutex
	tickets map[string]storedTicket
	closed  bool
	done    chan struct{}
	now     func() time.Time
}

type storedTicket struct {
	ticket    Ticket
	expiresAt time.Time
}

// MemoryStoreOption configures MemoryTicketStore behavior.
type MemoryStoreOption func(*memoryStoreConfig)

type memoryStoreConfig struct {
	cleanupInterval time.Duration
	now             func() time.Time
}

// WithCleanupInterval sets how often expired tickets are removed. Values
// of zero or less keep the default.
// Default: 1 minute.
func WithCleanupInterval(d time.Duration) MemoryStoreOption {
	return func(c *memoryStoreConfig) {
		if d > 0 {
			c.cleanupInterval = d
		}
	}
}

// WithClock overrides the clock used for expiry.
func WithClock(now func() time.Time) MemoryStoreOption {
	return func(c *memoryStoreConfig) {
		c.now = now
	}
}

// NewMemoryTicketStore creates an in-memory ticket store and starts its
// cleanup loop. Close stops the loop.
func NewMemoryTicketStore(opts ...MemoryStoreOption) *MemoryTicketStore {
	cfg := &memoryStoreConfig{
		cleanupInterval: time.Minute,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	store := &MemoryTicketStore{
		tickets: make(map[string]storedTicket),
		done:    make(chan struct{}),
		now:     cfg.now,
	}
	go store.cleanupLoop(cfg.cleanupInterval)
	return store
}

// Save stores t until expiresAt. A zero expiresAt never expires.
func (m *MemoryTicketStore) Save(ctx context.Context, t Ticket, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	m.tickets[t.AccountID] = storedTicket{ticket: t, expiresAt: expiresAt}
	return nil
}

// Load returns the live ticket for accountID.
func (m *MemoryTicketStore) Load(ctx context.Context, accountID string) (Ticket, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return Ticket{}, false, ErrStoreClosed
	}
	st, ok := m.tickets[accountID]
	if !ok || m.expired(st) {
		return Ticket{}, false, nil
	}
	return st.ticket, true, nil
}

// Delete removes the ticket for accountID.
func (m *MemoryTicketStore) Delete(ctx context.Context, accountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	delete(m.tickets, accountID)
	return nil
}

// Close stops the cleanup loop and drops all tickets. It is idempotent.
func (m *MemoryTicketStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	close(m.done)
	m.tickets = nil
	return nil
}

// Count returns the number of stored tickets, expired ones included.
func (m *MemoryTicketStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tickets)
}

func (m *MemoryTicketStore) expired(st storedTicket) bool {
	return !st.expiresAt.IsZero() && m.now().After(st.expiresAt)
}

func (m *MemoryTicketStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.cleanup()
		case <-m.done:
			return
		}
	}
}

func (m *MemoryTicketStore) cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	for account, st := range m.tickets {
		if m.expired(st) {
			delete(m.tickets, account)
		}
	}
}
