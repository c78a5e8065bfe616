// Package testutil provides shared fixtures and HTTP helpers for tests.
package testutil

import (
	"github.com/user/model-router-go/internal/models"
)

// SampleProvider returns a provider fixture with declared rate limits.
func SampleProvider(id string) models.Provider {
	return models.Provider{
		ID:           id,
		Name:         id,
		BaseURL:      "https://api." + id + ".example.com",
		APIType:      "openai_compatible",
		AuthType:     "bearer",
		RateLimitRPM: 100,
		RateLimitTPM: 100000,
	}
}

// SampleModelSpecs returns a cheap/capable pair of model specs for one
// provider, matching the shape routing tests need.
func SampleModelSpecs() []models.ModelSpec {
	return []models.ModelSpec{
		{
			ModelID:         "small-1",
			Name:            "Small 1",
			Capabilities:    []models.Capability{models.CapTextGeneration, models.CapSummarization},
			MaxTokens:       4096,
			InputCostPer1K:  0.0005,
			OutputCostPer1K: 0.0015,
			ContextWindow:   16384,
		},
		{
			ModelID:         "large-1",
			Name:            "Large 1",
			Capabilities:    []models.Capability{models.CapTextGeneration, models.CapReasoning, models.CapCodeGeneration, models.CapVision},
			MaxTokens:       8192,
			InputCostPer1K:  0.01,
			OutputCostPer1K: 0.03,
			ContextWindow:   200000,
		},
	}
}
