// internal/stages/compute-metrics/handler.go
package computemetrics

import (
	"context"
	"sort"

	apperrors "citypulse/internal/common/errors"
	"citypulse/internal/common/logger"
	"citypulse/internal/models"
)

const (
	StageName = "compute-metrics"
)

type scorerFunc func(rows []models.Row) (models.RankedResult, error)

type Handler struct {
	config  *Config
	logger  logger.Logger
	scorers map[models.AnalysisCategory]scorerFunc
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	h := &Handler{
		config: config,
		logger: log.With(map[string]interface{}{
			"stage": StageName,
		}),
	}
	h.scorers = map[models.AnalysisCategory]scorerFunc{
		models.CategoryEmergencyStress:      scoreEmergencyStress,
		models.CategoryHomelessnessPressure: scoreHomelessnessPressure,
		models.CategoryDisasterImpact:       scoreDisasterImpact,
		models.CategoryInsuranceReport:      scoreInsuranceReport,
		models.CategoryInfrastructure:       scoreInfrastructure,
		models.CategoryMixedQuery:           scorePassthrough,
		models.CategoryUnknown:              scorePassthrough,
	}
	return h
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	if len(input.Rows) == 0 {
		return &Output{Ranked: models.RankedResult{}}, nil
	}

	scorer, ok := h.scorers[input.Category]
	if !ok {
		scorer = scorePassthrough
	}

	ranked, err := scorer(input.Rows)
	if err != nil {
		h.logger.Error("metric computation failed", map[string]interface{}{
			"category": string(input.Category),
			"rowCount": len(input.Rows),
			"error":    err.Error(),
		})
		return nil, apperrors.NewMetricComputationFailedError(string(input.Category), err.Error())
	}

	sortRanked(ranked)

	h.logger.Info("metrics computed", map[string]interface{}{
		"category": string(input.Category),
		"entries":  len(ranked),
	})
	return &Output{Ranked: ranked}, nil
}

// ExecutePassthrough ranks rows without category-specific scoring. The
// orchestrator uses it to recover from a metric computation failure.
func (h *Handler) ExecutePassthrough(_ context.Context, rows []models.Row) *Output {
	if len(rows) == 0 {
		return &Output{Ranked: models.RankedResult{}}
	}
	ranked, _ := scorePassthrough(rows)
	sortRanked(ranked)
	return &Output{Ranked: ranked}
}

// sortRanked orders by score descending with alphabetical names breaking
// ties, so equal inputs always rank identically.
func sortRanked(ranked models.RankedResult) {
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Name < ranked[j].Name
	})
}

// Execute derives ranked location metrics from query rows.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
