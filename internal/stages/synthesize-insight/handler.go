// internal/stages/synthesize-insight/handler.go
package synthesizeinsight

import (
	"context"
	"fmt"
	"math"

	"citypulse/internal/common/logger"
	"citypulse/internal/models"
)

const (
	StageName = "synthesize-insight"
)

const noDataSummary = "No significant activity detected for this question."

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

var categoryNouns = map[models.AnalysisCategory]string{
	models.CategoryEmergencyStress:      "emergency stress",
	models.CategoryHomelessnessPressure: "homelessness pressure",
	models.CategoryDisasterImpact:       "disaster impact",
	models.CategoryInfrastructure:       "infrastructure complaint volume",
	models.CategoryInsuranceReport:      "insurance risk exposure",
	models.CategoryMixedQuery:           "activity",
	models.CategoryUnknown:              "activity",
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	if len(input.Ranked) == 0 {
		return &Output{Insight: models.Insight{Summary: noDataSummary}}, nil
	}

	top := input.Ranked[0]
	summary := h.buildSummary(input.Category, input.Ranked)
	details := h.buildDetails(input.Category, top)

	h.logger.Info("insight synthesized", map[string]interface{}{
		"category": string(input.Category),
		"top":      top.Name,
	})

	return &Output{Insight: models.Insight{Summary: summary, Details: details}}, nil
}

// buildSummary names only the top-ranked entry, with the margin over the
// runner-up when one exists with a positive score.
func (h *Handler) buildSummary(category models.AnalysisCategory, ranked models.RankedResult) string {
	top := ranked[0]
	noun := categoryNouns[category]
	if noun == "" {
		noun = "activity"
	}

	if category == models.CategoryInsuranceReport {
		tier := models.RiskTierFor(top.Score)
		return fmt.Sprintf("%s risk score is %.1f, placing the city in the %s tier.", top.Name, top.Score, tier)
	}

	summary := fmt.Sprintf("%s shows the highest %s with a score of %.1f", top.Name, noun, top.Score)
	if len(ranked) >= 2 && ranked[1].Score > 0 {
		margin := (top.Score - ranked[1].Score) / ranked[1].Score * 100
		summary += fmt.Sprintf(", +%.0f%% higher than the second-ranked area", math.Round(margin))
	}
	return summary + "."
}

func (h *Handler) buildDetails(category models.AnalysisCategory, top models.LocationMetric) []string {
	switch category {
	case models.CategoryEmergencyStress:
		details := []string{
			"Deploy additional EMS and police resources to the highest-stress areas.",
			"Coordinate multi-agency response protocols for sustained demand.",
		}
		if top.Score > 50 {
			details = append(details, "Call volume indicates elevated urban stress; consider surge staffing.")
		}
		return details

	case models.CategoryHomelessnessPressure:
		return []string{
			"Increase shelter capacity in the highest-pressure neighborhoods.",
			"Deploy mobile outreach teams to identified hotspots.",
			"Coordinate with social services for comprehensive support.",
		}

	case models.CategoryDisasterImpact:
		details := []string{
			"Activate emergency protocols in affected neighborhoods.",
			"Stage response resources near the highest-impact areas.",
		}
		if top.Score >= 4 {
			details = append(details, "Critical-severity events present; escalate to the emergency operations center.")
		}
		return details

	case models.CategoryInsuranceReport:
		switch models.RiskTierFor(top.Score) {
		case models.RiskTierCritical:
			return []string{
				"Pause new policy binding pending review.",
				"Mandatory property inspections before renewal.",
			}
		case models.RiskTierHigh:
			return []string{
				"Apply risk surcharge to new policies.",
				"Schedule property inspections for high-exposure holdings.",
			}
		case models.RiskTierMedium:
			return []string{
				"Standard underwriting terms with quarterly monitoring.",
			}
		default:
			return []string{
				"Preferred terms apply; risk exposure is low.",
			}
		}

	case models.CategoryInfrastructure:
		return []string{
			"Prioritize maintenance crews for the neighborhoods with the most open cases.",
			"Review recurring complaint types for systemic fixes.",
		}

	default:
		return []string{
			"Monitor trends for early warning signs.",
			"Allocate resources based on geographic patterns.",
		}
	}
}

// Execute renders a deterministic narrative for ranked results.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
