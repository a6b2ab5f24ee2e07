// internal/stages/generate-sql/handler_test.go
package generatesql

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"citypulse/internal/common/logger"
	"citypulse/internal/models"
)

func testConfig(baseURL string) *Config {
	return &Config{
		Mode:       ModePlayground,
		BaseURL:    baseURL,
		APIKey:     "test-key",
		DatafileID: "df-123",
		Timeout:    5 * time.Second,
	}
}

func playgroundPayload(query string, rows []models.Row) string {
	resp := map[string]interface{}{
		"data": []map[string]interface{}{
			{
				"query": query,
				"rows":  rows,
				"querySummary": map[string]interface{}{
					"non_technical_explanation": "test explanation",
					"technical_details":         "joins two tables",
				},
			},
		},
	}
	data, _ := json.Marshal(resp)
	return string(data)
}

func TestHandler_Execute_PlaygroundWithRows(t *testing.T) {
	rows := []models.Row{
		{"neighborhood": "Mission", "call_count": float64(42)},
		{"neighborhood": "Tenderloin", "call_count": float64(37)},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/playground/retrieve", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "df-123", req["datafile_id"])
		assert.Contains(t, req["user_query"], "Question: police calls by neighborhood")

		w.Write([]byte(playgroundPayload("SELECT neighborhood, COUNT(*) FROM sf_police_calls_rt GROUP BY neighborhood", rows)))
	}))
	defer server.Close()

	handler := NewHandler(testConfig(server.URL), logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{
		Question: "police calls by neighborhood",
		Category: models.CategoryEmergencyStress,
	})
	require.NoError(t, err)

	assert.Equal(t, models.SourceProviderWithData, output.Result.Source)
	assert.Len(t, output.Result.Rows, 2)
	assert.Equal(t, "test explanation", output.Result.Explanation)
	assert.NotEmpty(t, output.Result.SQL)
}

func TestHandler_Execute_PlaygroundWithoutRows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(playgroundPayload("SELECT 1", nil)))
	}))
	defer server.Close()

	handler := NewHandler(testConfig(server.URL), logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{Question: "anything"})
	require.NoError(t, err)

	assert.Equal(t, models.SourceProvider, output.Result.Source)
	assert.Empty(t, output.Result.Rows)
}

func TestHandler_Execute_FallsBackToDirect(t *testing.T) {
	var playgroundCalls, directCalls int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/playground/retrieve":
			playgroundCalls++
			w.WriteHeader(http.StatusInternalServerError)
		case "/v1/generate-sql":
			directCalls++
			json.NewEncoder(w).Encode(directResponse{
				SQL:         "SELECT neighborhood FROM sf_311_cases",
				Explanation: "direct explanation",
				Confidence:  0.8,
			})
		}
	}))
	defer server.Close()

	handler := NewHandler(testConfig(server.URL), logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{Question: "311 cases"})
	require.NoError(t, err)

	assert.Equal(t, 1, playgroundCalls)
	assert.Equal(t, 1, directCalls)
	assert.Equal(t, models.SourceProvider, output.Result.Source)
	assert.Equal(t, "SELECT neighborhood FROM sf_311_cases", output.Result.SQL)
	assert.Equal(t, "direct explanation", output.Result.Explanation)
}

func TestHandler_Execute_MalformedResponseTreatedAsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/playground/retrieve":
			w.Write([]byte(`{"data": []}`))
		case "/v1/generate-sql":
			w.Write([]byte(`{"explanation": "missing sql field"}`))
		}
	}))
	defer server.Close()

	handler := NewHandler(testConfig(server.URL), logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{
		Question: "show me emergency stress by neighborhood",
	})
	require.NoError(t, err)

	// both tiers rejected, local rules take over
	assert.Equal(t, models.SourceFallback, output.Result.Source)
	assert.NotEmpty(t, output.Result.SQL)
}

func TestHandler_Execute_BothTiersDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	handler := NewHandler(testConfig(server.URL), logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{Question: "homeless shelter pressure"})
	require.NoError(t, err)

	assert.Equal(t, models.SourceFallback, output.Result.Source)
	assert.Contains(t, output.Result.SQL, "sf_shelter_waitlist")
}

func TestHandler_Execute_NoProviderConfigured(t *testing.T) {
	handler := NewHandler(&Config{Mode: ModePlayground, Timeout: time.Second}, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{Question: "emergency stress"})
	require.NoError(t, err)
	assert.Equal(t, models.SourceFallback, output.Result.Source)
}

func TestGenerateFallback_Deterministic(t *testing.T) {
	questions := []string{
		"which neighborhoods have the most emergency stress",
		"insurance risk overview",
		"how many police calls today",
		"something completely unrelated",
	}

	for _, q := range questions {
		first := generateFallback(q)
		second := generateFallback(q)
		assert.Equal(t, first.SQL, second.SQL, "question: %s", q)
		assert.Equal(t, first.Explanation, second.Explanation)
	}
}

func TestGenerateFallback_RuleSelection(t *testing.T) {
	tests := []struct {
		name       string
		question   string
		wantSubstr string
	}{
		{"emergency stress", "emergency stress by area", "stress_score"},
		{"insurance", "underwriting risk by neighborhood", "hazmat_events"},
		{"police by neighborhood", "police calls per neighborhood", "call_count"},
		{"homeless", "shelter waitlist levels", "sf_shelter_waitlist"},
		{"disaster", "earthquake events this week", "sf_disaster_events"},
		{"count police", "how many police calls happened", "COUNT(*) as police_calls"},
		{"count generic", "how many incidents total", "UNION ALL"},
		{"neighborhood overview", "activity by neighborhood", "police_calls"},
		{"default", "zzz", "SELECT * FROM sf_police_calls_rt LIMIT 50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := generateFallback(tt.question)
			assert.Equal(t, models.SourceFallback, result.Source)
			assert.True(t, strings.Contains(result.SQL, tt.wantSubstr),
				"SQL %q does not contain %q", result.SQL, tt.wantSubstr)
		})
	}
}

func TestHandler_SwitchMode(t *testing.T) {
	handler := NewHandler(testConfig("http://example.invalid"), logger.NewTestLogger(t))

	assert.Equal(t, ModePlayground, handler.Mode())

	err := handler.SwitchMode(ModeDirect, "")
	require.NoError(t, err)
	assert.Equal(t, ModeDirect, handler.Mode())
	assert.Equal(t, "df-123", handler.DatafileID())

	err = handler.SwitchMode(ModePlayground, "df-456")
	require.NoError(t, err)
	assert.Equal(t, "df-456", handler.DatafileID())

	err = handler.SwitchMode("bogus", "")
	assert.ErrorIs(t, err, ErrInvalidMode)
	assert.Equal(t, ModePlayground, handler.Mode())
}

func TestHandler_DirectModePrimary(t *testing.T) {
	var order []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, r.URL.Path)
		json.NewEncoder(w).Encode(directResponse{SQL: "SELECT 1"})
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Mode = ModeDirect
	handler := NewHandler(cfg, logger.NewTestLogger(t))

	_, err := handler.Execute(context.Background(), &Input{Question: "anything"})
	require.NoError(t, err)

	require.NotEmpty(t, order)
	assert.Equal(t, "/v1/generate-sql", order[0])
}
