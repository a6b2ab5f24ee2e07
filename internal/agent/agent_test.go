// internal/agent/agent_test.go
package agent

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "citypulse/internal/common/errors"
	"citypulse/internal/common/logger"
	"citypulse/internal/models"
	buildvisuals "citypulse/internal/stages/build-visuals"
	classifyintent "citypulse/internal/stages/classify-intent"
	computemetrics "citypulse/internal/stages/compute-metrics"
	executequery "citypulse/internal/stages/execute-query"
	generatesql "citypulse/internal/stages/generate-sql"
	synthesizeinsight "citypulse/internal/stages/synthesize-insight"
)

type mockQuerier struct {
	db *sql.DB
}

func (m *mockQuerier) Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return m.db.QueryContext(ctx, query, args...)
}

func newTestAgent(t *testing.T, providerURL string, db *sql.DB) *Agent {
	log := logger.NewTestLogger(t)

	genCfg := &generatesql.Config{
		Mode:       generatesql.ModePlayground,
		BaseURL:    providerURL,
		APIKey:     "test",
		DatafileID: "df-1",
		Timeout:    5 * time.Second,
	}
	execCfg := &executequery.Config{MaxRows: 500, QueryTimeout: 5 * time.Second}

	return New(
		&Config{TopN: 5, RawRowCap: 20},
		classifyintent.NewHandler(classifyintent.LoadConfig(), log),
		generatesql.NewHandler(genCfg, log),
		executequery.NewHandler(execCfg, &mockQuerier{db: db}, log),
		computemetrics.NewHandler(computemetrics.LoadConfig(), log),
		synthesizeinsight.NewHandler(synthesizeinsight.LoadConfig(), log),
		buildvisuals.NewHandler(buildvisuals.LoadConfig(), log),
		nil,
		log,
	)
}

func TestAnalyze_ProviderWithDataBypassesExecutor(t *testing.T) {
	providerRows := []models.Row{
		{"neighborhood": "Mission", "police_calls": float64(10), "fire_ems_calls": float64(5), "latitude": 37.76, "longitude": -122.41},
		{"neighborhood": "SoMa", "police_calls": float64(4), "fire_ems_calls": float64(2), "latitude": 37.78, "longitude": -122.40},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]interface{}{
			"data": []map[string]interface{}{
				{
					"query": "SELECT neighborhood, police_calls, fire_ems_calls FROM t",
					"rows":  providerRows,
					"querySummary": map[string]interface{}{
						"non_technical_explanation": "calls per neighborhood",
					},
				},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	// no expectations registered: any executor query would fail the test
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	a := newTestAgent(t, server.URL, db)

	result, err := a.Analyze(context.Background(), "show me emergency stress by neighborhood")
	require.NoError(t, err)

	assert.Equal(t, models.CategoryEmergencyStress, result.AnalysisType)
	assert.Equal(t, models.SourceProviderWithData, result.SQLSource)
	require.NotEmpty(t, result.TopNeighborhoods)
	assert.Equal(t, "Mission", result.TopNeighborhoods[0].Name)
	assert.InDelta(t, 16.0, result.TopNeighborhoods[0].Metrics["score"], 1e-9)
	assert.Contains(t, result.InsightSummary, "Mission")
	assert.Len(t, result.RawRows, 2)
	assert.NotEmpty(t, result.MapLayers.HeatmapPoints)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalyze_FallbackSQLRunsThroughExecutor(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT").
		WillReturnRows(sqlmock.NewRows([]string{"neighborhood", "police_calls", "fire_ems_calls"}).
			AddRow("Mission", int64(10), int64(5)))

	// no provider configured, generation goes straight to local templates
	a := newTestAgent(t, "", db)

	result, err := a.Analyze(context.Background(), "emergency stress overview")
	require.NoError(t, err)

	assert.Equal(t, models.SourceFallback, result.SQLSource)
	require.NotEmpty(t, result.TopNeighborhoods)
	assert.InDelta(t, 16.0, result.TopNeighborhoods[0].Metrics["score"], 1e-9)
}

func TestAnalyze_QueryFailureIsTerminal(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT").WillReturnError(assert.AnError)

	a := newTestAgent(t, "", db)

	_, err = a.Analyze(context.Background(), "emergency stress overview")
	require.Error(t, err)

	stdErr := apperrors.AsStandard(err)
	assert.Equal(t, apperrors.ErrCodeQueryExecutionFailed, stdErr.Code)
}

func TestAnalyze_MetricFailureRecoversWithPassthrough(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// emergency category but no countable columns: scorer fails, rows still
	// flow through as passthrough entries
	mock.ExpectQuery("SELECT").
		WillReturnRows(sqlmock.NewRows([]string{"neighborhood", "oddball"}).
			AddRow("Mission", "text"))

	a := newTestAgent(t, "", db)

	result, err := a.Analyze(context.Background(), "emergency stress overview")
	require.NoError(t, err)

	require.Len(t, result.TopNeighborhoods, 1)
	assert.Equal(t, "Mission", result.TopNeighborhoods[0].Name)
}

func TestAnalyze_EmptyRowsYieldNoDataSummary(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT").
		WillReturnRows(sqlmock.NewRows([]string{"neighborhood", "event_count", "severity"}))

	a := newTestAgent(t, "", db)

	result, err := a.Analyze(context.Background(), "disaster impact this week")
	require.NoError(t, err)

	assert.Empty(t, result.TopNeighborhoods)
	assert.Contains(t, result.InsightSummary, "No significant activity")
	assert.Empty(t, result.ChartData.Charts)
}

func TestAnalyze_EmptyQuestionRejected(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	a := newTestAgent(t, "", db)

	_, err = a.Analyze(context.Background(), "")
	require.Error(t, err)

	stdErr := apperrors.AsStandard(err)
	assert.Equal(t, apperrors.ErrCodeInvalidRequest, stdErr.Code)
}

func TestAnalyze_RawRowsCapped(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"neighborhood", "case_count"})
	for i := 0; i < 30; i++ {
		rows.AddRow("Mission", int64(i))
	}
	mock.ExpectQuery("SELECT").WillReturnRows(rows)

	a := newTestAgent(t, "", db)

	result, err := a.Analyze(context.Background(), "311 complaint volume")
	require.NoError(t, err)
	assert.Len(t, result.RawRows, 20)
}
