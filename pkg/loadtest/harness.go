package loadtest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/shazhongcheng/TestGoServer/pkg/client"
	"github.com/shazhongcheng/TestGoServer/pkg/metrics"
	"github.com/shazhongcheng/TestGoServer/pkg/session"
)

const tracerName = "github.com/shazhongcheng/TestGoServer/pkg/loadtest"

// Harness spawns engines, drives their workload and aggregates the results.
type Harness struct {
	cfg     *Config
	factory Factory
	logger  *slog.Logger
	metrics *metrics.Recorder
	tracer  trace.Tracer
	tickets session.TicketStore
	target  string

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger.
// Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = l
	}
}

// WithMetrics records active-client gauges on r.
func WithMetrics(r *metrics.Recorder) Option {
	return func(h *Harness) {
		h.metrics = r
	}
}

// WithTracer sets the tracer for engine and round spans.
// Default: the global provider's tracer.
func WithTracer(t trace.Tracer) Option {
	return func(h *Harness) {
		h.tracer = t
	}
}

// WithTicketStore saves each engine's resume ticket after login. Resume
// cycles then run on a fresh client seeded from the store instead of
// reusing the old one.
func WithTicketStore(s session.TicketStore) Option {
	return func(h *Harness) {
		h.tickets = s
	}
}

// WithTarget labels the report with the gate address.
func WithTarget(target string) Option {
	return func(h *Harness) {
		h.target = target
	}
}

// WithClock overrides the clock and the context-aware sleep.
func WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(h *Harness) {
		h.now = now
		h.sleep = sleep
	}
}

// New creates a Harness. A nil cfg selects DefaultConfig.
func New(cfg *Config, factory Factory, opts ...Option) *Harness {
	h := &Harness{
		cfg:     cfg.withDefaults(),
		factory: factory,
		logger:  slog.Default(),
		tracer:  otel.Tracer(tracerName),
		now:     time.Now,
		sleep:   sleepContext,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// run is the state of one Run.
type run struct {
	samples  Collector
	failures failureCounters

	mu      sync.Mutex
	engines client.Stats
}

type failureCounters struct {
	connectFailures atomic.Uint64
	loginTimeouts   atomic.Uint64
	loginErrors     atomic.Uint64
	requestTimeouts atomic.Uint64
	requestErrors   atomic.Uint64
	resumeFailures  atomic.Uint64
	completed       atomic.Uint64
}

// Run executes the workload and returns its report. Engine failures are
// counted, not returned; the error is non-nil only for an invalid Config.
// Cancelling ctx stops spawning and aborts in-flight waits.
func (h *Harness) Run(ctx context.Context) (*Report, error) {
	if err := h.cfg.Validate(); err != nil {
		return nil, err
	}
	if h.factory == nil {
		return nil, errors.New("loadtest: nil client factory")
	}

	seed := h.cfg.Seed
	if seed == 0 {
		seed = uint64(h.now().UnixNano())
	}

	r := &run{}
	start := h.now()
	h.logger.Info("load run starting", "clients", h.cfg.Clients, "rounds", h.cfg.Rounds, "target", h.target)

	var wg sync.WaitGroup
	spawned := 0
	for i := 0; i < h.cfg.Clients; i++ {
		if i > 0 && h.cfg.SpawnDelay > 0 {
			if err := h.sleep(ctx, h.cfg.SpawnDelay); err != nil {
				break
			}
		}
		if ctx.Err() != nil {
			break
		}
		spawned++
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			rng := rand.New(rand.NewPCG(seed, uint64(idx)))
			h.runEngine(ctx, r, idx, rng)
		}(i)
	}
	wg.Wait()

	elapsed := h.now().Sub(start)
	report := h.buildReport(r, spawned, elapsed)
	h.logger.Info("load run finished",
		"samples", report.Latency.Samples,
		"elapsed", elapsed,
		"connect_failures", report.Failures.ConnectFailures,
		"login_timeouts", report.Failures.LoginTimeouts)
	return report, nil
}

// runEngine is one engine's life: connect, login, rounds, resume cycles and
// dwell. A connect or login failure closes the engine at once. A failed
// round or resume ends the remaining cycles but the engine still dwells
// before closing, so it is not counted as completed.
func (h *Harness) runEngine(ctx context.Context, r *run, idx int, rng *rand.Rand) {
	ctx, span := h.tracer.Start(ctx, "loadtest.engine", trace.WithAttributes(attribute.Int("engine", idx)))
	defer span.End()

	h.metrics.ClientStarted()
	defer h.metrics.ClientFinished()

	logger := h.logger.With("engine", idx)
	account := fmt.Sprintf("%s%d", h.cfg.AccountPrefix, idx)

	c, err := h.factory(idx)
	if err != nil {
		r.failures.connectFailures.Add(1)
		fail(span, err)
		logger.Warn("client create failed", "error", err)
		return
	}
	defer func() {
		_ = c.Close()
		r.addStats(c)
	}()

	if err := c.Connect(ctx); err != nil {
		r.failures.connectFailures.Add(1)
		fail(span, err)
		logger.Debug("connect failed", "error", err)
		return
	}

	if err := c.Login(ctx, account, account, h.cfg.LoginTimeout); err != nil {
		if errors.Is(err, client.ErrTimeout) {
			r.failures.loginTimeouts.Add(1)
		} else {
			r.failures.loginErrors.Add(1)
		}
		fail(span, err)
		logger.Debug("login failed", "error", err)
		return
	}
	h.saveTicket(ctx, c, logger)

	ok := h.rounds(ctx, r, c, idx)
	for cycle := 0; ok && cycle < h.cfg.ResumeCycles; cycle++ {
		next, err := h.resume(ctx, c, idx, account)
		if next != c {
			_ = c.Close()
			r.addStats(c)
			c = next
		}
		if err != nil {
			r.failures.resumeFailures.Add(1)
			fail(span, err)
			logger.Debug("resume failed", "cycle", cycle, "error", err)
			ok = false
			break
		}
		ok = h.round(ctx, r, c, idx, h.cfg.Rounds+cycle)
	}

	if h.sleep(ctx, h.dwell(rng)) != nil {
		return
	}
	if ok {
		r.failures.completed.Add(1)
	}
}

// rounds runs the configured rounds. It reports false when one failed or
// ctx ended.
func (h *Harness) rounds(ctx context.Context, r *run, c Client, idx int) bool {
	for round := 0; round < h.cfg.Rounds; round++ {
		if round > 0 && h.cfg.RoundInterval > 0 {
			if h.sleep(ctx, h.cfg.RoundInterval) != nil {
				return false
			}
		}
		if !h.round(ctx, r, c, idx, round) {
			return false
		}
	}
	return true
}

// round runs one timed request. It reports false when the engine should
// stop.
func (h *Harness) round(ctx context.Context, r *run, c Client, idx, round int) bool {
	ctx, span := h.tracer.Start(ctx, "loadtest.round", trace.WithAttributes(
		attribute.Int("engine", idx),
		attribute.Int("round", round),
	))
	defer span.End()

	rtt, err := c.RequestPlayerData(ctx, h.cfg.RequestTimeout)
	if err != nil {
		if errors.Is(err, client.ErrTimeout) {
			r.failures.requestTimeouts.Add(1)
		} else {
			r.failures.requestErrors.Add(1)
		}
		fail(span, err)
		return false
	}
	span.SetAttributes(attribute.Int64("rtt_us", rtt.Microseconds()))
	r.samples.Add(Sample{Engine: idx, RTT: rtt})
	return true
}

// resume closes c, reconnects and resumes. With a ticket store the resume
// runs on a fresh client seeded from it. The returned client is the one now
// in use, even on error.
func (h *Harness) resume(ctx context.Context, c Client, idx int, account string) (Client, error) {
	_ = c.Close()

	if h.tickets != nil {
		if next, err := h.factory(idx); err == nil {
			if holder, ok := next.(TicketHolder); ok {
				t, found, err := h.tickets.Load(ctx, account)
				if err != nil {
					return next, err
				}
				if found {
					if err := holder.SetTicket(t); err != nil {
						return next, err
					}
				}
			}
			c = next
		}
	}

	if err := c.Connect(ctx); err != nil {
		return c, err
	}
	return c, c.Resume(ctx, h.cfg.RequestTimeout)
}

func (h *Harness) saveTicket(ctx context.Context, c Client, logger *slog.Logger) {
	if h.tickets == nil {
		return
	}
	holder, ok := c.(TicketHolder)
	if !ok {
		return
	}
	t := holder.Ticket()
	if !t.Valid() {
		return
	}
	if err := h.tickets.Save(ctx, t, h.now().Add(h.cfg.TicketTTL)); err != nil {
		logger.Warn("ticket save failed", "error", err)
	}
}

func (h *Harness) dwell(rng *rand.Rand) time.Duration {
	span := h.cfg.DwellMax - h.cfg.DwellMin
	if span <= 0 {
		return h.cfg.DwellMin
	}
	return h.cfg.DwellMin + time.Duration(rng.Int64N(int64(span)+1))
}

func (r *run) addStats(c Client) {
	sr, ok := c.(StatsReporter)
	if !ok {
		return
	}
	st := sr.Stats()
	r.mu.Lock()
	r.engines = r.engines.Add(st)
	r.mu.Unlock()
}

func fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// sleepContext sleeps for d or until ctx ends.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
