package service

import (
	"sync"
	"time"

	"github.com/user/model-router-go/internal/models"
	"go.uber.org/zap"
)

// circuitBreaker guards one model with its own lock so that unrelated
// models never serialize on each other.
type circuitBreaker struct {
	mu                  sync.Mutex
	state               models.CircuitState
	consecutiveFailures int
	lastFailureAt       *time.Time
	lastSuccessAt       *time.Time
}

// recordFailure applies one failure under the breaker lock. A failure in
// half-open reopens immediately; otherwise the breaker opens once the
// consecutive counter reaches the threshold.
func (cb *circuitBreaker) recordFailure(threshold int) models.CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	now := time.Now()
	cb.consecutiveFailures++
	cb.lastFailureAt = &now
	if cb.state == models.CircuitHalfOpen || cb.consecutiveFailures >= threshold {
		cb.state = models.CircuitOpen
	}
	return cb.state
}

// recordSuccess applies one success. Success in half-open closes the breaker;
// success in any state breaks the consecutive-failure streak.
func (cb *circuitBreaker) recordSuccess() models.CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	now := time.Now()
	cb.lastSuccessAt = &now
	if cb.state == models.CircuitHalfOpen {
		cb.state = models.CircuitClosed
	}
	if cb.state == models.CircuitClosed {
		cb.consecutiveFailures = 0
	}
	return cb.state
}

// admit reports whether traffic may flow. An open breaker whose recovery
// timeout has elapsed since the last failure is promoted to half-open and
// admits a single probe.
func (cb *circuitBreaker) admit(recoveryTimeout time.Duration) bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state != models.CircuitOpen {
		return true
	}
	if recoveryTimeout > 0 && cb.lastFailureAt != nil && time.Since(*cb.lastFailureAt) >= recoveryTimeout {
		cb.state = models.CircuitHalfOpen
		return true
	}
	return false
}

// available is the read-only counterpart of admit: it reports whether a
// request would be admitted without performing the half-open promotion.
func (cb *circuitBreaker) available(recoveryTimeout time.Duration) bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state != models.CircuitOpen {
		return true
	}
	return recoveryTimeout > 0 && cb.lastFailureAt != nil && time.Since(*cb.lastFailureAt) >= recoveryTimeout
}

func (cb *circuitBreaker) snapshot(modelID string) models.CircuitSnapshot {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	snap := models.CircuitSnapshot{
		ModelID:             modelID,
		State:               cb.state,
		ConsecutiveFailures: cb.consecutiveFailures,
	}
	if cb.lastFailureAt != nil {
		t := *cb.lastFailureAt
		snap.LastFailureAt = &t
	}
	if cb.lastSuccessAt != nil {
		t := *cb.lastSuccessAt
		snap.LastSuccessAt = &t
	}
	return snap
}

func (cb *circuitBreaker) forceState(state models.CircuitState) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = state
	if state == models.CircuitClosed {
		cb.consecutiveFailures = 0
	}
}

// FallbackRouter walks a primary model's configured fallback chain, gated by
// a per-model circuit breaker. It decides eligibility only; the caller
// performs the actual backend call.
type FallbackRouter struct {
	logger           *zap.Logger
	failureThreshold int
	recoveryTimeout  time.Duration

	mu       sync.RWMutex
	breakers map[string]*circuitBreaker
	chains   map[string][]string

	statsMu   sync.Mutex
	routed    int64
	fallbacks int64
	exhausted int64
}

// NewFallbackRouter creates a FallbackRouter. A non-positive threshold falls
// back to 5; a zero recoveryTimeout disables automatic half-open promotion.
func NewFallbackRouter(failureThreshold int, recoveryTimeout time.Duration, logger *zap.Logger) *FallbackRouter {
	if failureThreshold <= 0 {
		failureThreshold = 5
	}
	return &FallbackRouter{
		logger:           logger,
		failureThreshold: failureThreshold,
		recoveryTimeout:  recoveryTimeout,
		breakers:         make(map[string]*circuitBreaker),
		chains:           make(map[string][]string),
	}
}

// ConfigureRoute registers (or replaces) the fallback chain for a primary
// model and initializes a closed breaker for every model it names.
func (f *FallbackRouter) ConfigureRoute(primary string, fallbackChain []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	chain := make([]string, len(fallbackChain))
	copy(chain, fallbackChain)
	f.chains[primary] = chain
	f.ensureBreakerLocked(primary)
	for _, id := range chain {
		f.ensureBreakerLocked(id)
	}
	f.logger.Info("route configured",
		zap.String("primary", primary),
		zap.Strings("fallback_chain", chain))
}

// RouteRequest resolves the backend for one request. The primary is used
// whenever its breaker admits traffic; otherwise its failure is recorded and
// the fallback chain is walked in order.
func (f *FallbackRouter) RouteRequest(primary string) (*models.RouteResult, error) {
	f.mu.RLock()
	chain, configured := f.chains[primary]
	breaker := f.breakers[primary]
	f.mu.RUnlock()
	if !configured {
		return nil, models.NotFoundError("no route configured for model %q", primary)
	}

	attempted := []string{primary}
	if breaker.admit(f.recoveryTimeout) {
		breaker.recordSuccess()
		f.countRoute(false)
		return &models.RouteResult{Target: primary, Attempted: attempted}, nil
	}

	breaker.recordFailure(f.failureThreshold)
	return f.walkChain(primary, chain, attempted)
}

// RouteAfterFailure records a failure on the primary first, then walks its
// fallback chain. Callers use it to report a backend call that failed after
// the primary had been admitted.
func (f *FallbackRouter) RouteAfterFailure(primary string) (*models.RouteResult, error) {
	f.mu.RLock()
	chain, configured := f.chains[primary]
	f.mu.RUnlock()
	if !configured {
		return nil, models.NotFoundError("no route configured for model %q", primary)
	}
	f.RecordFailure(primary)
	return f.walkChain(primary, chain, []string{primary})
}

func (f *FallbackRouter) walkChain(primary string, chain []string, attempted []string) (*models.RouteResult, error) {
	for _, candidate := range chain {
		attempted = append(attempted, candidate)
		cb := f.breakerFor(candidate)
		if cb.admit(f.recoveryTimeout) {
			cb.recordSuccess()
			f.countRoute(true)
			f.logger.Info("request routed to fallback",
				zap.String("primary", primary),
				zap.String("target", candidate))
			return &models.RouteResult{Target: candidate, IsFallback: true, Attempted: attempted}, nil
		}
		cb.recordFailure(f.failureThreshold)
	}

	f.statsMu.Lock()
	f.exhausted++
	f.statsMu.Unlock()
	f.logger.Error("fallback chain exhausted",
		zap.String("primary", primary),
		zap.Strings("attempted", attempted))
	return nil, models.ExhaustedError("all providers exhausted for model %q", primary)
}

// RecordFailure applies one failure to the model's breaker, creating a
// closed breaker on first sight.
func (f *FallbackRouter) RecordFailure(model string) {
	state := f.breakerFor(model).recordFailure(f.failureThreshold)
	if state == models.CircuitOpen {
		f.logger.Warn("circuit opened", zap.String("model_id", model))
	}
}

// RecordSuccess applies one success to the model's breaker.
func (f *FallbackRouter) RecordSuccess(model string) {
	f.breakerFor(model).recordSuccess()
}

// ResetCircuit force-closes a model's breaker and resets its counter.
func (f *FallbackRouter) ResetCircuit(model string) error {
	cb, err := f.knownBreaker(model)
	if err != nil {
		return err
	}
	cb.forceState(models.CircuitClosed)
	f.logger.Info("circuit reset", zap.String("model_id", model))
	return nil
}

// HalfOpenCircuit moves a model's breaker to half-open for a deliberate
// probe.
func (f *FallbackRouter) HalfOpenCircuit(model string) error {
	cb, err := f.knownBreaker(model)
	if err != nil {
		return err
	}
	cb.forceState(models.CircuitHalfOpen)
	f.logger.Info("circuit half-opened", zap.String("model_id", model))
	return nil
}

// CircuitStatus returns a copy-safe snapshot of a model's breaker.
func (f *FallbackRouter) CircuitStatus(model string) (models.CircuitSnapshot, error) {
	cb, err := f.knownBreaker(model)
	if err != nil {
		return models.CircuitSnapshot{}, err
	}
	return cb.snapshot(model), nil
}

// IsAvailable reports whether a model's breaker would admit traffic. It is a
// pure read: an open breaker past its recovery timeout is reported available
// but the half-open promotion is left to the next RouteRequest. Unknown
// models are available: no breaker means no recorded failures.
func (f *FallbackRouter) IsAvailable(model string) bool {
	f.mu.RLock()
	cb, ok := f.breakers[model]
	f.mu.RUnlock()
	if !ok {
		return true
	}
	return cb.available(f.recoveryTimeout)
}

// Circuits returns snapshots of every known breaker.
func (f *FallbackRouter) Circuits() []models.CircuitSnapshot {
	f.mu.RLock()
	ids := make([]string, 0, len(f.breakers))
	for id := range f.breakers {
		ids = append(ids, id)
	}
	f.mu.RUnlock()
	snaps := make([]models.CircuitSnapshot, 0, len(ids))
	for _, id := range ids {
		if cb, err := f.knownBreaker(id); err == nil {
			snaps = append(snaps, cb.snapshot(id))
		}
	}
	return snaps
}

// Summary returns routing counters and a breaker state census.
func (f *FallbackRouter) Summary() map[string]any {
	states := map[string]int{}
	for _, snap := range f.Circuits() {
		states[string(snap.State)]++
	}
	f.mu.RLock()
	chains := len(f.chains)
	breakers := len(f.breakers)
	f.mu.RUnlock()
	f.statsMu.Lock()
	defer f.statsMu.Unlock()
	return map[string]any{
		"configured_routes": chains,
		"circuit_breakers":  breakers,
		"states":            states,
		"total_routed":      f.routed,
		"fallback_routed":   f.fallbacks,
		"exhausted":         f.exhausted,
	}
}

func (f *FallbackRouter) countRoute(fallback bool) {
	f.statsMu.Lock()
	f.routed++
	if fallback {
		f.fallbacks++
	}
	f.statsMu.Unlock()
}

func (f *FallbackRouter) breakerFor(model string) *circuitBreaker {
	f.mu.RLock()
	cb, ok := f.breakers[model]
	f.mu.RUnlock()
	if ok {
		return cb
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ensureBreakerLocked(model)
}

func (f *FallbackRouter) knownBreaker(model string) (*circuitBreaker, error) {
	f.mu.RLock()
	cb, ok := f.breakers[model]
	f.mu.RUnlock()
	if !ok {
		return nil, models.NotFoundError("no circuit breaker for model %q", model)
	}
	return cb, nil
}

func (f *FallbackRouter) ensureBreakerLocked(model string) *circuitBreaker {
	if cb, ok := f.breakers[model]; ok {
		return cb
	}
	cb := &circuitBreaker{state: models.CircuitClosed}
	f.breakers[model] = cb
	return cb
}
