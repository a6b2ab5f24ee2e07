// internal/stages/compute-metrics/handler_test.go
package computemetrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "citypulse/internal/common/errors"
	"citypulse/internal/common/logger"
	"citypulse/internal/models"
)

func newHandler(t *testing.T) *Handler {
	return NewHandler(LoadConfig(), logger.NewTestLogger(t))
}

func TestEmergencyStress_WeightedScore(t *testing.T) {
	handler := newHandler(t)

	output, err := handler.Execute(context.Background(), &Input{
		Category: models.CategoryEmergencyStress,
		Rows: []models.Row{
			{"neighborhood": "Mission", "police_calls": float64(10), "fire_ems_calls": float64(5)},
		},
	})
	require.NoError(t, err)
	require.Len(t, output.Ranked, 1)

	// 10*1.0 + 5*1.2
	assert.InDelta(t, 16.0, output.Ranked[0].Score, 1e-9)
	assert.Equal(t, "Mission", output.Ranked[0].Name)
	assert.Equal(t, float64(10), output.Ranked[0].RawCounts["police_calls"])
	assert.Equal(t, float64(5), output.Ranked[0].RawCounts["fire_ems_calls"])
}

func TestEmergencyStress_ColumnAliases(t *testing.T) {
	handler := newHandler(t)

	output, err := handler.Execute(context.Background(), &Input{
		Category: models.CategoryEmergencyStress,
		Rows: []models.Row{
			{"neighborhood": "SoMa", "police_call_count": int64(4), "fire_ems_call_count": int64(0)},
		},
	})
	require.NoError(t, err)
	require.Len(t, output.Ranked, 1)
	assert.InDelta(t, 4.0, output.Ranked[0].Score, 1e-9)
}

func TestEmergencyStress_PrecomputedScore(t *testing.T) {
	handler := newHandler(t)

	output, err := handler.Execute(context.Background(), &Input{
		Category: models.CategoryEmergencyStress,
		Rows: []models.Row{
			{"neighborhood": "Bayview", "stress_score": 42.5},
		},
	})
	require.NoError(t, err)
	require.Len(t, output.Ranked, 1)
	assert.InDelta(t, 42.5, output.Ranked[0].Score, 1e-9)
}

func TestEmergencyStress_MissingColumns(t *testing.T) {
	handler := newHandler(t)

	_, err := handler.Execute(context.Background(), &Input{
		Category: models.CategoryEmergencyStress,
		Rows: []models.Row{
			{"neighborhood": "Mission", "unrelated": float64(1)},
		},
	})
	require.Error(t, err)

	stdErr := apperrors.AsStandard(err)
	assert.Equal(t, apperrors.ErrCodeMetricComputationFailed, stdErr.Code)
}

func TestHomelessnessPressure_Ratio(t *testing.T) {
	handler := newHandler(t)

	output, err := handler.Execute(context.Background(), &Input{
		Category: models.CategoryHomelessnessPressure,
		Rows: []models.Row{
			{"neighborhood": "Tenderloin", "people_waiting": float64(120), "capacity_baseline": float64(60)},
			{"neighborhood": "Mission", "people_waiting": float64(30), "shelter_capacity": float64(90)},
			// zero capacity must not divide by zero
			{"neighborhood": "Sunset", "people_waiting": float64(5), "capacity_baseline": float64(0)},
		},
	})
	require.NoError(t, err)
	require.Len(t, output.Ranked, 3)

	assert.Equal(t, "Sunset", output.Ranked[0].Name)
	assert.InDelta(t, 5.0, output.Ranked[0].Score, 1e-9)
	assert.Equal(t, "Tenderloin", output.Ranked[1].Name)
	assert.InDelta(t, 2.0, output.Ranked[1].Score, 1e-9)
	assert.Equal(t, "Mission", output.Ranked[2].Name)
	assert.InDelta(t, 30.0/90.0, output.Ranked[2].Score, 1e-9)
}

func TestDisasterImpact_SeverityWeights(t *testing.T) {
	handler := newHandler(t)

	output, err := handler.Execute(context.Background(), &Input{
		Category: models.CategoryDisasterImpact,
		Rows: []models.Row{
			{"neighborhood": "Marina", "severity": "CRITICAL", "event_count": float64(2)},
			{"neighborhood": "Marina", "severity": "low", "event_count": float64(1)},
			{"neighborhood": "Richmond", "severity": "High", "event_count": float64(3)},
			// numeric severity used as-is
			{"neighborhood": "Presidio", "severity": 2.5},
		},
	})
	require.NoError(t, err)
	require.Len(t, output.Ranked, 3)

	assert.Equal(t, "Marina", output.Ranked[0].Name)
	assert.InDelta(t, 5.0, output.Ranked[0].Score, 1e-9) // 4 + 1
	assert.Equal(t, "Richmond", output.Ranked[1].Name)
	assert.InDelta(t, 3.0, output.Ranked[1].Score, 1e-9)
	assert.Equal(t, "Presidio", output.Ranked[2].Name)
	assert.InDelta(t, 2.5, output.Ranked[2].Score, 1e-9)
}

func TestInsuranceReport_ClampAndTier(t *testing.T) {
	handler := newHandler(t)

	output, err := handler.Execute(context.Background(), &Input{
		Category: models.CategoryInsuranceReport,
		Rows: []models.Row{
			{
				"neighborhood":       "Citywide",
				"police_calls":       float64(100),
				"ems_calls":          float64(50),
				"fire_events":        float64(3),
				"hazmat_events":      float64(1),
				"infra_311_cases":    float64(20),
				"avg_quake_severity": float64(2),
			},
		},
	})
	require.NoError(t, err)
	require.Len(t, output.Ranked, 1)

	// 12*2 + 10*3 + 12*1 + 2*20 + 0.4*150 = 166, clamped to 100
	entry := output.Ranked[0]
	assert.InDelta(t, 100.0, entry.Score, 1e-9)
	assert.Equal(t, models.RiskTierCritical, models.RiskTierFor(entry.Score))
	assert.Equal(t, "Citywide", entry.Name)
	assert.InDelta(t, 100.0, entry.RawCounts["risk_score"], 1e-9)
}

func TestInsuranceReport_AggregatesAcrossRows(t *testing.T) {
	handler := newHandler(t)

	output, err := handler.Execute(context.Background(), &Input{
		Category: models.CategoryInsuranceReport,
		Rows: []models.Row{
			{"police_calls": float64(10), "ems_calls": float64(5), "fire_events": float64(0), "hazmat_events": float64(0)},
			{"police_calls": float64(15), "ems_calls": float64(10), "fire_events": float64(1), "hazmat_events": float64(0)},
		},
	})
	require.NoError(t, err)
	require.Len(t, output.Ranked, 1)

	// 10*1 + 0.4*(15+25) = 26
	assert.InDelta(t, 26.0, output.Ranked[0].Score, 1e-9)
	assert.Equal(t, models.RiskTierMedium, models.RiskTierFor(output.Ranked[0].Score))
}

func TestRiskTiers(t *testing.T) {
	assert.Equal(t, models.RiskTierLow, models.RiskTierFor(0))
	assert.Equal(t, models.RiskTierLow, models.RiskTierFor(25))
	assert.Equal(t, models.RiskTierMedium, models.RiskTierFor(26))
	assert.Equal(t, models.RiskTierMedium, models.RiskTierFor(50))
	assert.Equal(t, models.RiskTierHigh, models.RiskTierFor(51))
	assert.Equal(t, models.RiskTierHigh, models.RiskTierFor(75))
	assert.Equal(t, models.RiskTierCritical, models.RiskTierFor(76))
	assert.Equal(t, models.RiskTierCritical, models.RiskTierFor(100))
}

func TestInfrastructure_CaseCounts(t *testing.T) {
	handler := newHandler(t)

	output, err := handler.Execute(context.Background(), &Input{
		Category: models.CategoryInfrastructure,
		Rows: []models.Row{
			{"neighborhood": "Mission", "case_count": float64(12)},
			{"neighborhood": "SoMa", "incidents": float64(20)},
		},
	})
	require.NoError(t, err)
	require.Len(t, output.Ranked, 2)
	assert.Equal(t, "SoMa", output.Ranked[0].Name)
	assert.InDelta(t, 20.0, output.Ranked[0].Score, 1e-9)
}

func TestPassthrough_GroupsByNeighborhood(t *testing.T) {
	handler := newHandler(t)

	output, err := handler.Execute(context.Background(), &Input{
		Category: models.CategoryMixedQuery,
		Rows: []models.Row{
			{"neighborhood": "Mission", "calls": float64(5)},
			{"neighborhood": "Mission", "calls": float64(3)},
			{"neighborhood": "SoMa", "calls": float64(1)},
		},
	})
	require.NoError(t, err)
	require.Len(t, output.Ranked, 2)

	assert.Equal(t, "Mission", output.Ranked[0].Name)
	assert.InDelta(t, 2.0, output.Ranked[0].Score, 1e-9) // row count per group
	assert.InDelta(t, 8.0, output.Ranked[0].RawCounts["calls"], 1e-9)
}

func TestPassthrough_NoNeighborhoodColumn(t *testing.T) {
	handler := newHandler(t)

	output, err := handler.Execute(context.Background(), &Input{
		Category: models.CategoryUnknown,
		Rows: []models.Row{
			{"police_calls": int64(123)},
		},
	})
	require.NoError(t, err)
	require.Len(t, output.Ranked, 1)

	assert.Equal(t, "result", output.Ranked[0].Name)
	assert.InDelta(t, 123.0, output.Ranked[0].RawCounts["police_calls"], 1e-9)
	assert.Zero(t, output.Ranked[0].Score)
}

func TestNullNeighborhoodBucketsAsUnknown(t *testing.T) {
	handler := newHandler(t)

	output, err := handler.Execute(context.Background(), &Input{
		Category: models.CategoryInfrastructure,
		Rows: []models.Row{
			{"neighborhood": nil, "case_count": float64(7)},
			{"neighborhood": "Mission", "case_count": float64(2)},
		},
	})
	require.NoError(t, err)
	require.Len(t, output.Ranked, 2)
	assert.Equal(t, "Unknown", output.Ranked[0].Name)
	assert.InDelta(t, 7.0, output.Ranked[0].Score, 1e-9)
}

func TestEmptyRowsYieldEmptyResult(t *testing.T) {
	handler := newHandler(t)

	for _, category := range []models.AnalysisCategory{
		models.CategoryEmergencyStress,
		models.CategoryInsuranceReport,
		models.CategoryUnknown,
	} {
		output, err := handler.Execute(context.Background(), &Input{Category: category, Rows: nil})
		require.NoError(t, err)
		assert.Empty(t, output.Ranked)
	}
}

func TestTiesBreakAlphabetically(t *testing.T) {
	handler := newHandler(t)

	output, err := handler.Execute(context.Background(), &Input{
		Category: models.CategoryInfrastructure,
		Rows: []models.Row{
			{"neighborhood": "Zebra Heights", "case_count": float64(5)},
			{"neighborhood": "Alpha Park", "case_count": float64(5)},
		},
	})
	require.NoError(t, err)
	require.Len(t, output.Ranked, 2)
	assert.Equal(t, "Alpha Park", output.Ranked[0].Name)
	assert.Equal(t, "Zebra Heights", output.Ranked[1].Name)
}

func TestExecutePassthrough_RecoversFromBadRows(t *testing.T) {
	handler := newHandler(t)

	output := handler.ExecutePassthrough(context.Background(), []models.Row{
		{"neighborhood": "Mission", "oddball": "text"},
	})
	require.Len(t, output.Ranked, 1)
	assert.Equal(t, "Mission", output.Ranked[0].Name)
}
