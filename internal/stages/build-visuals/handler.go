// internal/stages/build-visuals/handler.go
package buildvisuals

import (
	"context"
	"strconv"

	"citypulse/internal/common/logger"
	"citypulse/internal/models"
)

const (
	StageName = "build-visuals"
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

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	mapLayer := h.BuildMap(input.Rows, input.Ranked, input.Category)
	charts := h.BuildCharts(input.Ranked, input.Rows, input.Category)

	h.logger.Info("visuals built", map[string]interface{}{
		"category":   string(input.Category),
		"heatPoints": len(mapLayer.HeatmapPoints),
		"markers":    len(mapLayer.Markers),
		"charts":     len(charts),
	})

	return &Output{
		MapLayer: mapLayer,
		Charts:   models.ChartData{Charts: charts},
	}, nil
}

// Execute assembles the map layer and chart descriptors for a result set.
// It never fails; missing data just produces emptier visuals.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func numericValue(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
