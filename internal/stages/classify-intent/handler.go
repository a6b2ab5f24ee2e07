// internal/stages/classify-intent/handler.go
package classifyintent

import (
	"context"
	"strings"

	"citypulse/internal/common/logger"
	"citypulse/internal/models"
)

const (
	StageName = "classify-intent"
)

type Handler struct {
	config *Config
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		logger: log.With(map[string]interface{}{
			"stage": StageName,
		}),
	}
}

// Keyword lists checked in priority order. Insurance wins over disaster,
// disaster over homelessness, and so on, when a question matches several.
var categoryKeywords = []struct {
	category models.AnalysisCategory
	terms    []string
}{
	{models.CategoryInsuranceReport, []string{"insurance", "underwriting", "risk tier", "exposure", "premium"}},
	{models.CategoryDisasterImpact, []string{"fire", "hazmat", "earthquake", "disaster", "flood", "power outage"}},
	{models.CategoryHomelessnessPressure, []string{"homeless", "shelter", "waitlist", "unsheltered", "encampment"}},
	{models.CategoryEmergencyStress, []string{"emergency", "stress", "911", "police", "ems", "crime"}},
	{models.CategoryInfrastructure, []string{"311", "pothole", "graffiti", "streetlight", "complaint", "dumping", "street cleaning"}},
}

var genericDataTerms = []string{
	"how many", "count", "total", "show", "list", "data", "database", "top", "which", "what",
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	questionLower := strings.ToLower(input.Question)

	for _, entry := range categoryKeywords {
		for _, term := range entry.terms {
			if strings.Contains(questionLower, term) {
				h.logger.Info("question classified", map[string]interface{}{
					"category": string(entry.category),
					"keyword":  term,
				})
				return &Output{Category: entry.category}, nil
			}
		}
	}

	for _, term := range genericDataTerms {
		if strings.Contains(questionLower, term) {
			h.logger.Info("question classified", map[string]interface{}{
				"category": string(models.CategoryMixedQuery),
				"keyword":  term,
			})
			return &Output{Category: models.CategoryMixedQuery}, nil
		}
	}

	h.logger.Info("question classified", map[string]interface{}{
		"category": string(models.CategoryUnknown),
	})
	return &Output{Category: models.CategoryUnknown}, nil
}

// Execute classifies a question into an analysis category. It is pure and
// never returns an error; unmatched questions come back as unknown.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
