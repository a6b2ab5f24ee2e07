// internal/agent/agent.go
package agent

import (
	"context"
	"errors"
	"time"

	apperrors "citypulse/internal/common/errors"
	"citypulse/internal/common/logger"
	"citypulse/internal/common/metrics"
	"citypulse/internal/common/observability"
	"citypulse/internal/models"
	buildvisuals "citypulse/internal/stages/build-visuals"
	classifyintent "citypulse/internal/stages/classify-intent"
	computemetrics "citypulse/internal/stages/compute-metrics"
	executequery "citypulse/internal/stages/execute-query"
	generatesql "citypulse/internal/stages/generate-sql"
	synthesizeinsight "citypulse/internal/stages/synthesize-insight"
)

type Config struct {
	TopN      int
	RawRowCap int
}

// Agent wires the pipeline stages together. All per-request state lives on
// the stack, so one Agent serves concurrent requests.
type Agent struct {
	config     *Config
	classifier *classifyintent.Handler
	generator  *generatesql.Handler
	executor   *executequery.Handler
	metrics    *computemetrics.Handler
	insights   *synthesizeinsight.Handler
	visuals    *buildvisuals.Handler
	obs        *observability.Observability
	logger     logger.Logger
}

func New(
	config *Config,
	classifier *classifyintent.Handler,
	generator *generatesql.Handler,
	executor *executequery.Handler,
	metricEngine *computemetrics.Handler,
	insights *synthesizeinsight.Handler,
	visuals *buildvisuals.Handler,
	obs *observability.Observability,
	log logger.Logger,
) *Agent {
	return &Agent{
		config:     config,
		classifier: classifier,
		generator:  generator,
		executor:   executor,
		metrics:    metricEngine,
		insights:   insights,
		visuals:    visuals,
		obs:        obs,
		logger:     log.With(map[string]interface{}{"component": "agent"}),
	}
}

// Generator exposes the SQL stage for status and mode-switch endpoints.
func (a *Agent) Generator() *generatesql.Handler {
	return a.generator
}

// Analyze runs the full pipeline for one question. Only a query execution
// failure is terminal; every other stage degrades.
func (a *Agent) Analyze(ctx context.Context, question string) (*models.AnalyzeResult, error) {
	if question == "" {
		return nil, apperrors.NewInvalidRequestError("question must not be empty")
	}

	start := time.Now()

	classified, _ := a.classifier.Execute(ctx, &classifyintent.Input{Question: question})
	category := classified.Category

	generated, _ := a.generator.Execute(ctx, &generatesql.Input{
		Question: question,
		Category: category,
	})
	sqlResult := generated.Result

	rows := sqlResult.Rows
	if len(rows) == 0 {
		executed, err := a.executor.Execute(ctx, &executequery.Input{
			SQL:      sqlResult.SQL,
			Category: category,
		})
		if err != nil {
			a.recordFailure(ctx, category, err, question)
			return nil, err
		}
		rows = executed.Rows
	} else {
		a.logger.Info("provider supplied rows, skipping executor", map[string]interface{}{
			"rowCount": len(rows),
		})
	}

	ranked := a.computeRanked(ctx, category, rows, question)

	insight, _ := a.insights.Execute(ctx, &synthesizeinsight.Input{
		Category: category,
		Ranked:   ranked,
	})

	visual, _ := a.visuals.Execute(ctx, &buildvisuals.Input{
		Category: category,
		Rows:     rows,
		Ranked:   ranked,
	})

	result := &models.AnalyzeResult{
		AnalysisType:     category,
		Timestamp:        time.Now().UTC(),
		TopNeighborhoods: topNeighborhoods(ranked, a.config.TopN),
		InsightSummary:   insight.Insight.Summary,
		InsightDetails:   insight.Insight.Details,
		MapLayers:        visual.MapLayer,
		ChartData:        visual.Charts,
		SQLUsed:          sqlResult.SQL,
		SQLSource:        sqlResult.Source,
		SQLExplanation:   sqlResult.Explanation,
		RawRows:          capRows(rows, a.config.RawRowCap),
	}

	duration := time.Since(start)
	metrics.AnalysesCompleted.WithLabelValues(string(category)).Inc()
	metrics.AnalysisDuration.WithLabelValues(string(category)).Observe(duration.Seconds())
	if a.obs != nil {
		a.obs.RecordAnalysis(ctx, string(category), "success")
		a.obs.RecordAnalysisDuration(ctx, duration, string(category))
	}

	a.logger.Info("analysis complete", map[string]interface{}{
		"category":   string(category),
		"rowCount":   len(rows),
		"entries":    len(ranked),
		"sqlSource":  string(sqlResult.Source),
		"durationMs": duration.Milliseconds(),
	})
	return result, nil
}

// computeRanked falls back to the passthrough scorer when the category
// scorer cannot work with the returned columns. Partial value beats a
// failed request.
func (a *Agent) computeRanked(ctx context.Context, category models.AnalysisCategory, rows []models.Row, question string) models.RankedResult {
	computed, err := a.metrics.Execute(ctx, &computemetrics.Input{
		Category: category,
		Rows:     rows,
	})
	if err == nil {
		return computed.Ranked
	}

	var stdErr *apperrors.StandardError
	if errors.As(err, &stdErr) && stdErr.Code == apperrors.ErrCodeMetricComputationFailed {
		a.logger.Warn("metric computation failed, using passthrough scoring", map[string]interface{}{
			"category": string(category),
			"question": question,
		})
		return a.metrics.ExecutePassthrough(ctx, rows).Ranked
	}

	a.logger.Error("unexpected metric engine error", map[string]interface{}{
		"category": string(category),
		"question": question,
		"error":    err.Error(),
	})
	return a.metrics.ExecutePassthrough(ctx, rows).Ranked
}

func (a *Agent) recordFailure(ctx context.Context, category models.AnalysisCategory, err error, question string) {
	stdErr := apperrors.AsStandard(err)
	metrics.AnalysesFailed.WithLabelValues(string(category), string(stdErr.Code)).Inc()
	if a.obs != nil {
		a.obs.RecordAnalysis(ctx, string(category), "failure")
	}
	a.logger.Error("analysis failed", map[string]interface{}{
		"category":  string(category),
		"question":  question,
		"errorCode": string(stdErr.Code),
		"component": "execute-query",
	})
}

func topNeighborhoods(ranked models.RankedResult, n int) []models.NeighborhoodSummary {
	if n <= 0 {
		n = 5
	}
	if n > len(ranked) {
		n = len(ranked)
	}

	summaries := make([]models.NeighborhoodSummary, 0, n)
	for _, entry := range ranked[:n] {
		m := make(map[string]float64, len(entry.RawCounts)+1)
		for k, v := range entry.RawCounts {
			m[k] = v
		}
		m["score"] = entry.Score
		summaries = append(summaries, models.NeighborhoodSummary{
			Name:    entry.Name,
			Metrics: m,
		})
	}
	return summaries
}

func capRows(rows []models.Row, limit int) []models.Row {
	if limit <= 0 {
		limit = 20
	}
	if len(rows) <= limit {
		return rows
	}
	return rows[:limit]
}
