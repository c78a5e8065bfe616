package service

import (
	"sort"
	"sync"
	"time"

	"github.com/user/model-router-go/internal/models"
	"go.uber.org/zap"
)

// healthRecord holds the rolling counters for one provider under its own
// lock.
type healthRecord struct {
	mu sync.Mutex

	name         string
	rpmLimit     int
	tpmLimit     int
	state        models.HealthState
	lastCheck    *time.Time
	lastError    string
	totalChecks  int64
	passedChecks int64

	totalRequests int64
	totalErrors   int64
	currentRPM    int
	currentTPM    int

	incidents []models.Incident
}

// HealthMonitor tracks per-provider liveness, error rates, and rate-limit
// consumption. It owns no timers; rate counters are reset by the caller.
type HealthMonitor struct {
	logger        *zap.Logger
	slowThreshold float64

	mu      sync.RWMutex
	records map[string]*healthRecord
	order   []string

	statsMu sync.Mutex
	checks  int64
}

// NewHealthMonitor creates a HealthMonitor. slowThresholdMs marks available
// but slow providers as degraded; non-positive values fall back to 5000.
func NewHealthMonitor(slowThresholdMs float64, logger *zap.Logger) *HealthMonitor {
	if slowThresholdMs <= 0 {
		slowThresholdMs = 5000
	}
	return &HealthMonitor{
		logger:        logger,
		slowThreshold: slowThresholdMs,
		records:       make(map[string]*healthRecord),
	}
}

// RegisterProvider starts tracking a provider. Re-registering refreshes the
// display name and declared limits but keeps accumulated counters.
func (h *HealthMonitor) RegisterProvider(provider *models.Provider) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if rec, ok := h.records[provider.ID]; ok {
		rec.mu.Lock()
		rec.name = provider.Name
		rec.rpmLimit = provider.RateLimitRPM
		rec.tpmLimit = provider.RateLimitTPM
		rec.mu.Unlock()
		return
	}
	h.records[provider.ID] = &healthRecord{
		name:     provider.Name,
		rpmLimit: provider.RateLimitRPM,
		tpmLimit: provider.RateLimitTPM,
		state:    models.HealthUnknown,
	}
	h.order = append(h.order, provider.ID)
	h.logger.Info("provider registered for health tracking",
		zap.String("provider_id", provider.ID),
		zap.Int("rate_limit_rpm", provider.RateLimitRPM),
		zap.Int("rate_limit_tpm", provider.RateLimitTPM))
}

// PerformHealthCheck records one health-check observation and derives the
// provider's state from it. Leaving a healthy state opens an incident.
func (h *HealthMonitor) PerformHealthCheck(providerID string, responseTimeMs float64, isAvailable bool, errorMsg string) (*models.HealthCheckResult, error) {
	rec, err := h.record(providerID)
	if err != nil {
		return nil, err
	}

	state := models.HealthHealthy
	switch {
	case !isAvailable:
		state = models.HealthUnhealthy
	case responseTimeMs > h.slowThreshold:
		state = models.HealthDegraded
	}

	now := time.Now()
	rec.mu.Lock()
	prev := rec.state
	rec.state = state
	rec.lastCheck = &now
	rec.lastError = errorMsg
	rec.totalChecks++
	if isAvailable {
		rec.passedChecks++
	}
	if prev == models.HealthHealthy && state != models.HealthHealthy {
		rec.incidents = append(rec.incidents, models.Incident{
			IncidentID: newID("pi"),
			ProviderID: providerID,
			State:      state,
			Error:      errorMsg,
			DetectedAt: now,
		})
	}
	rec.mu.Unlock()

	h.statsMu.Lock()
	h.checks++
	h.statsMu.Unlock()

	if state != models.HealthHealthy {
		h.logger.Warn("provider health check failed",
			zap.String("provider_id", providerID),
			zap.String("state", string(state)),
			zap.Float64("response_time_ms", responseTimeMs),
			zap.String("error", errorMsg))
	}

	return &models.HealthCheckResult{
		CheckID:        newID("hc"),
		ProviderID:     providerID,
		State:          state,
		ResponseTimeMs: responseTimeMs,
		IsAvailable:    isAvailable,
		ErrorMessage:   errorMsg,
		CheckedAt:      now,
	}, nil
}

// RecordRequest applies one request outcome to the provider's counters. The
// returned error is advisory: a RateLimitedError means the recording was
// applied but the provider has reached its declared RPM or TPM budget.
func (h *HealthMonitor) RecordRequest(providerID string, success bool, tokensUsed int) error {
	rec, err := h.record(providerID)
	if err != nil {
		return err
	}

	rec.mu.Lock()
	rec.totalRequests++
	if !success {
		rec.totalErrors++
	}
	rec.currentRPM++
	rec.currentTPM += tokensUsed
	overRPM := rec.rpmLimit > 0 && rec.currentRPM >= rec.rpmLimit
	overTPM := rec.tpmLimit > 0 && rec.currentTPM >= rec.tpmLimit
	rec.mu.Unlock()

	if overRPM || overTPM {
		return models.RateLimitedError("provider %q over declared rate limit", providerID)
	}
	return nil
}

// ResetRateCounters zeroes the rolling RPM/TPM consumption for a provider.
// Called by an external periodic trigger.
func (h *HealthMonitor) ResetRateCounters(providerID string) error {
	rec, err := h.record(providerID)
	if err != nil {
		return err
	}
	rec.mu.Lock()
	rec.currentRPM = 0
	rec.currentTPM = 0
	rec.mu.Unlock()
	return nil
}

// GetUptime reports the share of health checks that found the provider
// available.
func (h *HealthMonitor) GetUptime(providerID string) (models.UptimeReport, error) {
	rec, err := h.record(providerID)
	if err != nil {
		return models.UptimeReport{}, err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	report := models.UptimeReport{
		ProviderID:       providerID,
		TotalChecks:      rec.totalChecks,
		SuccessfulChecks: rec.passedChecks,
	}
	if rec.totalChecks > 0 {
		report.UptimePercent = 100 * float64(rec.passedChecks) / float64(rec.totalChecks)
	}
	return report, nil
}

// GetErrorRates returns every provider's rolling error rate, lowest first.
func (h *HealthMonitor) GetErrorRates() []models.ErrorRateEntry {
	h.mu.RLock()
	ids := append([]string(nil), h.order...)
	h.mu.RUnlock()

	entries := make([]models.ErrorRateEntry, 0, len(ids))
	for _, id := range ids {
		rec, err := h.record(id)
		if err != nil {
			continue
		}
		rec.mu.Lock()
		entry := models.ErrorRateEntry{
			ProviderID:    id,
			Name:          rec.name,
			TotalRequests: rec.totalRequests,
			TotalErrors:   rec.totalErrors,
		}
		if rec.totalRequests > 0 {
			entry.ErrorRate = float64(rec.totalErrors) / float64(rec.totalRequests)
		}
		rec.mu.Unlock()
		entries = append(entries, entry)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].ErrorRate < entries[j].ErrorRate
	})
	return entries
}

// GetRateLimitStatus reports current rate-limit consumption for a provider.
func (h *HealthMonitor) GetRateLimitStatus(providerID string) (models.RateLimitStatus, error) {
	rec, err := h.record(providerID)
	if err != nil {
		return models.RateLimitStatus{}, err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	status := models.RateLimitStatus{
		ProviderID: providerID,
		RPMLimit:   rec.rpmLimit,
		RPMCurrent: rec.currentRPM,
		TPMLimit:   rec.tpmLimit,
		TPMCurrent: rec.currentTPM,
	}
	if rec.rpmLimit > 0 {
		status.RPMUsagePercent = 100 * float64(rec.currentRPM) / float64(rec.rpmLimit)
	}
	if rec.tpmLimit > 0 {
		status.TPMUsagePercent = 100 * float64(rec.currentTPM) / float64(rec.tpmLimit)
	}
	return status, nil
}

// Incidents returns the recorded incidents for a provider, oldest first.
func (h *HealthMonitor) Incidents(providerID string) ([]models.Incident, error) {
	rec, err := h.record(providerID)
	if err != nil {
		return nil, err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return append([]models.Incident(nil), rec.incidents...), nil
}

// Dashboard returns a copy-safe snapshot of every tracked provider plus a
// state census.
func (h *HealthMonitor) Dashboard() map[string]any {
	h.mu.RLock()
	ids := append([]string(nil), h.order...)
	h.mu.RUnlock()

	providers := make([]models.ProviderHealthSnapshot, 0, len(ids))
	states := map[string]int{}
	for _, id := range ids {
		rec, err := h.record(id)
		if err != nil {
			continue
		}
		rec.mu.Lock()
		snap := models.ProviderHealthSnapshot{
			ProviderID:    id,
			Name:          rec.name,
			State:         rec.state,
			TotalRequests: rec.totalRequests,
		}
		if rec.totalChecks > 0 {
			snap.UptimePercent = 100 * float64(rec.passedChecks) / float64(rec.totalChecks)
		}
		if rec.totalRequests > 0 {
			snap.ErrorRate = float64(rec.totalErrors) / float64(rec.totalRequests)
		}
		if rec.lastCheck != nil {
			t := *rec.lastCheck
			snap.LastCheck = &t
		}
		rec.mu.Unlock()
		providers = append(providers, snap)
		states[string(snap.State)]++
	}
	return map[string]any{
		"providers": providers,
		"states":    states,
	}
}

// Summary returns monitor-level counters.
func (h *HealthMonitor) Summary() map[string]any {
	h.mu.RLock()
	tracked := len(h.records)
	h.mu.RUnlock()
	h.statsMu.Lock()
	checks := h.checks
	h.statsMu.Unlock()
	return map[string]any{
		"tracked_providers":  tracked,
		"checks_performed":   checks,
		"slow_threshold_ms":  h.slowThreshold,
	}
}

func (h *HealthMonitor) record(providerID string) (*healthRecord, error) {
	h.mu.RLock()
	rec, ok := h.records[providerID]
	h.mu.RUnlock()
	if !ok {
		return nil, models.NotFoundError("provider %q not registered for health tracking", providerID)
	}
	return rec, nil
}
