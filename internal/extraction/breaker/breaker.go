// Package breaker implements a three-state (Closed/Open/HalfOpen) circuit
// breaker, keyed per provider name, wrapping every external provider call
// the orchestrator makes.
package breaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State is one of the three breaker states.
type State string

const (
	Closed   State = "closed"
	Open     State = "open"
	HalfOpen State = "half-open"
)

// ErrCircuitOpen is returned when a call is rejected because the breaker
// for that provider is Open and resetTimeout has not yet elapsed.
var ErrCircuitOpen = errors.New("circuit breaker open")

// Config holds the breaker's four tunables.
type Config struct {
	FailureThreshold int           // consecutive failures before Closed -> Open
	SuccessThreshold int           // consecutive successes before HalfOpen -> Closed
	Timeout          time.Duration // per-call timeout the breaker imposes
	ResetTimeout     time.Duration // how long Open waits before trying HalfOpen
}

// DefaultConfig returns sane defaults for an LLM/vision/OCR provider call.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout:          30 * time.Second,
		ResetTimeout:     60 * time.Second,
	}
}

// circuit is the per-provider mutable state, modelled on the crawler rate
// limiter's per-key mutex-guarded entry (domainLimiter).
type circuit struct {
	mu                  sync.Mutex
	state               State
	consecutiveFailures int
	consecutiveSuccess  int
	lastFailureTime     time.Time

	totalCalls    int64
	totalFailures int64
}

// Breaker holds one circuit per provider name behind a single map mutex,
// matching RateLimiter's outer-map/inner-entry locking split: the outer
// lock only guards map membership, each circuit's own mutex guards its
// counters and state transitions.
type Breaker struct {
	config   Config
	mu       sync.RWMutex
	circuits map[string]*circuit
}

// New builds a Breaker shared across all providers the registry dispatches
// to; it is shared across concurrently-running orchestrator instances,
// serialising state transitions per provider.
func New(config Config) *Breaker {
	return &Breaker{config: config, circuits: make(map[string]*circuit)}
}

func (b *Breaker) circuitFor(provider string) *circuit {
	b.mu.RLock()
	c, ok := b.circuits[provider]
	b.mu.RUnlock()
	if ok {
		return c
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if c, ok = b.circuits[provider]; ok {
		return c
	}
	c = &circuit{state: Closed}
	b.circuits[provider] = c
	return c
}

// Call executes fn through the named provider's breaker: it rejects
// immediately with ErrCircuitOpen while Open and resetTimeout hasn't
// elapsed, moves Open -> HalfOpen on the first attempt after resetTimeout,
// applies the breaker's own call timeout, and records the outcome against
// the consecutive-failure/success counters driving the state transitions.
func (b *Breaker) Call(ctx context.Context, provider string, fn func(ctx context.Context) error) error {
	if !b.Allow(provider) {
		return ErrCircuitOpen
	}
	c := b.circuitFor(provider)

	callCtx := ctx
	var cancel context.CancelFunc
	if b.config.Timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, b.config.Timeout)
		defer cancel()
	}

	err := fn(callCtx)
	c.recordResult(err == nil, b.config)
	return err
}

func (c *circuit) recordResult(success bool, cfg Config) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.totalCalls++
	if success {
		c.onSuccess(cfg)
	} else {
		c.onFailure(cfg)
	}
}

func (c *circuit) onSuccess(cfg Config) {
	c.consecutiveFailures = 0
	switch c.state {
	case HalfOpen:
		c.consecutiveSuccess++
		if c.consecutiveSuccess >= cfg.SuccessThreshold {
			c.state = Closed
			c.consecutiveSuccess = 0
		}
	case Closed:
		// no-op, already healthy
	}
}

func (c *circuit) onFailure(cfg Config) {
	c.totalFailures++
	c.consecutiveSuccess = 0
	c.lastFailureTime = time.Now()

	switch c.state {
	case Closed:
		c.consecutiveFailures++
		if c.consecutiveFailures >= cfg.FailureThreshold {
			c.state = Open
		}
	case HalfOpen:
		c.state = Open
	}
}

// Allow reports whether the named provider's breaker currently permits a
// call, promoting Open to HalfOpen in place if resetTimeout has elapsed.
// Registries call this ahead of a capability dispatch to skip a provider
// without paying the call's own timeout.
func (b *Breaker) Allow(provider string) bool {
	c := b.circuitFor(provider)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Open {
		return true
	}
	if time.Since(c.lastFailureTime) >= b.config.ResetTimeout {
		c.state = HalfOpen
		return true
	}
	return false
}

// State returns the current state of the named provider's breaker.
func (b *Breaker) State(provider string) State {
	c := b.circuitFor(provider)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Counters reports observable call statistics for a provider.
type Counters struct {
	ConsecutiveFailures int
	ConsecutiveSuccess  int
	TotalCalls          int64
	TotalFailures       int64
}

func (b *Breaker) Counters(provider string) Counters {
	c := b.circuitFor(provider)
	c.mu.Lock()
	defer c.mu.Unlock()
	return Counters{
		ConsecutiveFailures: c.consecutiveFailures,
		ConsecutiveSuccess:  c.consecutiveSuccess,
		TotalCalls:          c.totalCalls,
		TotalFailures:       c.totalFailures,
	}
}
