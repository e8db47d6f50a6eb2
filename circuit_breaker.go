package troopstock

import (
	"context"
	"sync"
	"time"
)

// CircuitBreaker fails fast when a network backend (Redis, S3) is down, so
// a dead dependency degrades reads into quick errors instead of piles of
// blocked requests.
//
// States:
//   - Closed: normal operation, requests pass through
//   - Open: dependency failing, requests fail fast without calling it
//   - Half-Open: testing whether the dependency recovered
type CircuitBreaker struct {
	mu            sync.RWMutex
	maxFailures   int
	resetTimeout  time.Duration
	failures      int
	lastFailTime  time.Time
	state         string // "closed", "open", "half-open"
	onStateChange func(from, to string)
}

// NewCircuitBreaker creates a circuit breaker that opens after maxFailures
// consecutive failures and probes again after resetTimeout.
func NewCircuitBreaker(maxFailures int, resetTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		state:        "closed",
	}
}

// WithStateChangeCallback adds a callback for state transitions.
// Useful for metrics and logging.
func (cb *CircuitBreaker) WithStateChangeCallback(fn func(from, to string)) *CircuitBreaker {
	cb.onStateChange = fn
	return cb
}

// Execute runs fn if the circuit is closed or half-open.
// Returns ErrBackendUnavailable if the circuit is open.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func() error) error {
	if !cb.allow() {
		return WithContext(ErrBackendUnavailable, map[string]interface{}{
			"reason": "circuit breaker is open",
			"state":  cb.State(),
		})
	}

	err := fn()
	cb.recordResult(err)
	return err
}

func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case "open":
		if time.Since(cb.lastFailTime) > cb.resetTimeout {
			cb.setState("half-open")
			return true
		}
		return false
	case "half-open":
		return true
	default: // closed
		return true
	}
}

// recordResult updates the state from the operation outcome. Not-found is
// a normal answer, not a dependency failure, and never trips the breaker.
func (cb *CircuitBreaker) recordResult(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil && !IsNotFound(err) {
		cb.failures++
		cb.lastFailTime = time.Now()

		if cb.failures >= cb.maxFailures && cb.state != "open" {
			cb.setState("open")
		}
	} else {
		if cb.state == "half-open" {
			cb.setState("closed")
			cb.failures = 0
		} else if cb.state == "closed" {
			cb.failures = 0
		}
	}
}

func (cb *CircuitBreaker) setState(newState string) {
	oldState := cb.state
	cb.state = newState
	if cb.onStateChange != nil {
		cb.onStateChange(oldState, newState)
	}
}

// State returns the current state (closed, open, or half-open)
func (cb *CircuitBreaker) State() string {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// Reset manually closes the circuit
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures = 0
	cb.setState("closed")
}

// Failures returns the current consecutive failure count
func (cb *CircuitBreaker) Failures() int {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.failures
}

// CircuitBreakerBackend decorates a Backend with a shared circuit breaker.
// All operations flow through the same breaker: any of them failing counts
// toward opening it, and an open circuit fails all of them fast.
type CircuitBreakerBackend struct {
	backend Backend
	breaker *CircuitBreaker
}

// NewCircuitBreakerBackend wraps a backend with a circuit breaker
func NewCircuitBreakerBackend(backend Backend, breaker *CircuitBreaker) *CircuitBreakerBackend {
	return &CircuitBreakerBackend{backend: backend, breaker: breaker}
}

func (b *CircuitBreakerBackend) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := b.breaker.Execute(ctx, func() error {
		var err error
		data, err = b.backend.Get(ctx, key)
		return err
	})
	return data, err
}

func (b *CircuitBreakerBackend) Put(ctx context.Context, key string, data []byte) error {
	return b.breaker.Execute(ctx, func() error {
		return b.backend.Put(ctx, key, data)
	})
}

func (b *CircuitBreakerBackend) Delete(ctx context.Context, key string) error {
	return b.breaker.Execute(ctx, func() error {
		return b.backend.Delete(ctx, key)
	})
}

func (b *CircuitBreakerBackend) Exists(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := b.breaker.Execute(ctx, func() error {
		var err error
		exists, err = b.backend.Exists(ctx, key)
		return err
	})
	return exists, err
}

func (b *CircuitBreakerBackend) PutIfMatch(ctx context.Context, key string, data []byte, expectedETag string) (string, error) {
	var (
		etag  string
		opErr error
	)
	err := b.breaker.Execute(ctx, func() error {
		etag, opErr = b.backend.PutIfMatch(ctx, key, data, expectedETag)
		if IsConflict(opErr) {
			// A conflict is an answer, not a dependency failure
			return nil
		}
		return opErr
	})
	if err != nil && !IsConflict(opErr) {
		return "", err
	}
	return etag, opErr
}

func (b *CircuitBreakerBackend) GetWithETag(ctx context.Context, key string) ([]byte, string, error) {
	var (
		data []byte
		etag string
	)
	err := b.breaker.Execute(ctx, func() error {
		var err error
		data, etag, err = b.backend.GetWithETag(ctx, key)
		return err
	})
	return data, etag, err
}

func (b *CircuitBreakerBackend) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := b.breaker.Execute(ctx, func() error {
		var err error
		keys, err = b.backend.List(ctx, prefix)
		return err
	})
	return keys, err
}

func (b *CircuitBreakerBackend) ListPaginated(ctx context.Context, prefix string, handler func(keys []string) error) error {
	return b.breaker.Execute(ctx, func() error {
		return b.backend.ListPaginated(ctx, prefix, handler)
	})
}

func (b *CircuitBreakerBackend) Ping(ctx context.Context) error {
	return b.breaker.Execute(ctx, func() error {
		return b.backend.Ping(ctx)
	})
}

func (b *CircuitBreakerBackend) Close() error {
	return b.backend.Close()
}
