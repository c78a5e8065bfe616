package service

import (
	"sync"
	"time"

	"github.com/user/model-router-go/internal/models"
	"go.uber.org/zap"
)

// ModelRegistry is the catalog of providers and their models. Models are
// never deleted, only deactivated via UpdateStatus.
type ModelRegistry struct {
	logger *zap.Logger

	mu        sync.RWMutex
	models    map[string]*models.Model
	modelIDs  []string // registration order, for stable listings
	providers map[string]*models.Provider
	provIDs   []string

	statsMu             sync.Mutex
	modelsRegistered    int64
	providersRegistered int64
	lookupsPerformed    int64
}

// NewModelRegistry creates an empty ModelRegistry.
func NewModelRegistry(logger *zap.Logger) *ModelRegistry {
	return &ModelRegistry{
		logger:    logger,
		models:    make(map[string]*models.Model),
		providers: make(map[string]*models.Provider),
	}
}

// RegisterProvider adds or replaces a provider entry.
func (r *ModelRegistry) RegisterProvider(p models.Provider) *models.Provider {
	p.RegisteredAt = time.Now().UTC()

	r.mu.Lock()
	if _, exists := r.providers[p.ID]; !exists {
		r.provIDs = append(r.provIDs, p.ID)
	}
	stored := p
	r.providers[p.ID] = &stored
	r.mu.Unlock()

	r.statsMu.Lock()
	r.providersRegistered++
	r.statsMu.Unlock()

	r.logger.Info("provider registered",
		zap.String("provider_id", p.ID),
		zap.String("base_url", p.BaseURL))
	return &stored
}

// RegisterModel adds a model. Unknown capability tags are a validation error.
func (r *ModelRegistry) RegisterModel(m models.Model) (*models.Model, error) {
	for _, c := range m.Capabilities {
		if !models.ValidCapability(c) {
			return nil, models.ValidationError("unknown capability %q", c)
		}
	}

	m.Status = models.StatusActive
	m.UsageCount = 0
	m.RegisteredAt = time.Now().UTC()

	r.mu.Lock()
	if _, exists := r.models[m.ID]; !exists {
		r.modelIDs = append(r.modelIDs, m.ID)
	}
	stored := m
	r.models[m.ID] = &stored
	r.mu.Unlock()

	r.statsMu.Lock()
	r.modelsRegistered++
	r.statsMu.Unlock()

	r.logger.Info("model registered",
		zap.String("model_id", m.ID),
		zap.String("provider", m.Provider),
		zap.Int("capabilities", len(m.Capabilities)))
	return &stored, nil
}

// GetModel returns a copy of the model, or a not-found error.
func (r *ModelRegistry) GetModel(modelID string) (*models.Model, error) {
	r.mu.RLock()
	m, ok := r.models[modelID]
	var cp models.Model
	if ok {
		cp = *m
	}
	r.mu.RUnlock()
	if !ok {
		return nil, models.NotFoundError("model %q not found", modelID)
	}

	r.statsMu.Lock()
	r.lookupsPerformed++
	r.statsMu.Unlock()
	return &cp, nil
}

// FindByCapability returns active models matching the optional capability
// and provider filters (AND-combined). No filters returns all active models.
// An empty result is not an error.
func (r *ModelRegistry) FindByCapability(capability models.Capability, provider string) []*models.Model {
	r.mu.RLock()
	results := make([]*models.Model, 0)
	for _, id := range r.modelIDs {
		m := r.models[id]
		if m.Status != models.StatusActive {
			continue
		}
		if capability != "" && !m.HasCapability(capability) {
			continue
		}
		if provider != "" && m.Provider != provider {
			continue
		}
		cp := *m
		results = append(results, &cp)
	}
	r.mu.RUnlock()

	r.statsMu.Lock()
	r.lookupsPerformed++
	r.statsMu.Unlock()
	return results
}

// UpdateStatus changes a model's activation status.
func (r *ModelRegistry) UpdateStatus(modelID string, status models.ModelStatus) error {
	if !models.ValidStatus(status) {
		return models.ValidationError("unknown status %q", status)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.models[modelID]
	if !ok {
		return models.NotFoundError("model %q not found", modelID)
	}
	m.Status = status
	return nil
}

// IncrementUsage bumps a model's usage counter. Unknown ids are ignored.
func (r *ModelRegistry) IncrementUsage(modelID string) {
	r.mu.Lock()
	if m, ok := r.models[modelID]; ok {
		m.UsageCount++
	}
	r.mu.Unlock()
}

// GetPricing returns the unit prices for a model.
func (r *ModelRegistry) GetPricing(modelID string) (*models.Pricing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.models[modelID]
	if !ok {
		return nil, models.NotFoundError("model %q not found", modelID)
	}
	return &models.Pricing{
		ModelID:         modelID,
		InputCostPer1K:  m.InputCostPer1K,
		OutputCostPer1K: m.OutputCostPer1K,
	}, nil
}

// ListProviders returns all registered providers in registration order.
func (r *ModelRegistry) ListProviders() []*models.Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.Provider, 0, len(r.provIDs))
	for _, id := range r.provIDs {
		cp := *r.providers[id]
		out = append(out, &cp)
	}
	return out
}

// ModelCount returns the number of registered models.
func (r *ModelRegistry) ModelCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.models)
}

// Summary returns registry totals and counters.
func (r *ModelRegistry) Summary() map[string]any {
	r.mu.RLock()
	byProvider := make(map[string]int)
	active := 0
	for _, m := range r.models {
		byProvider[m.Provider]++
		if m.Status == models.StatusActive {
			active++
		}
	}
	totalModels := len(r.models)
	totalProviders := len(r.providers)
	r.mu.RUnlock()

	r.statsMu.Lock()
	stats := map[string]int64{
		"models_registered":    r.modelsRegistered,
		"providers_registered": r.providersRegistered,
		"lookups_performed":    r.lookupsPerformed,
	}
	r.statsMu.Unlock()

	return map[string]any{
		"total_models":    totalModels,
		"total_providers": totalProviders,
		"active_models":   active,
		"by_provider":     byProvider,
		"stats":           stats,
	}
}
