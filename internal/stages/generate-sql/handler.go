// internal/stages/generate-sql/handler.go
package generatesql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"citypulse/internal/common/httpclient"
	"citypulse/internal/common/logger"
	"citypulse/internal/common/metrics"
	"citypulse/internal/common/validation"
	"citypulse/internal/models"
)

const (
	StageName = "generate-sql"
)

var (
	ErrProviderUnavailable     = errors.New("PROVIDER_UNAVAILABLE")
	ErrProviderResponseInvalid = errors.New("PROVIDER_RESPONSE_INVALID")
	ErrInvalidMode             = errors.New("INVALID_MODE")
)

const (
	ModePlayground = "playground"
	ModeDirect     = "direct"
)

// Response schemas checked before a provider payload is trusted.
const playgroundResponseSchema = `{
	"type": "object",
	"properties": {
		"data": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"properties": {
					"query": {"type": "string"},
					"rows": {"type": "array"},
					"error": {"type": "string"}
				}
			}
		}
	},
	"required": ["data"]
}`

const directResponseSchema = `{
	"type": "object",
	"properties": {
		"sql": {"type": "string", "minLength": 1},
		"explanation": {"type": "string"},
		"confidence": {"type": "number"}
	},
	"required": ["sql"]
}`

// providerContext steers the provider toward map-friendly SQL. Ported from
// the original integration prompt.
const providerContext = `IMPORTANT SQL GENERATION RULES:
1. LOCATION DATA: Always include latitude and longitude columns in your SELECT statement when querying tables that contain location data.
2. AGGREGATION: When asked for counts by geographic area, GROUP BY the geographic column only and use AVG() for latitude and longitude.`

type Handler struct {
	config *Config
	client *httpclient.Client
	logger logger.Logger

	// mode and datafileID are the only cross-request mutable state in the
	// pipeline, guarded for concurrent analyze and switch-mode requests.
	mu         sync.RWMutex
	mode       string
	datafileID string
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config:     config,
		client:     httpclient.NewClient(config.Timeout),
		mode:       config.Mode,
		datafileID: config.DatafileID,
		logger: log.With(map[string]interface{}{
			"stage": StageName,
		}),
	}
}

// Mode returns the currently active provider mode.
func (h *Handler) Mode() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.mode
}

// DatafileID returns the playground datafile currently in use.
func (h *Handler) DatafileID() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.datafileID
}

// SwitchMode changes the primary provider mode. An empty datafileID keeps
// the current one.
func (h *Handler) SwitchMode(mode, datafileID string) error {
	if mode != ModePlayground && mode != ModeDirect {
		return fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.mode = mode
	if datafileID != "" {
		h.datafileID = datafileID
	}

	h.logger.Info("provider mode switched", map[string]interface{}{
		"mode":       mode,
		"datafileId": h.datafileID,
	})
	return nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if h.config.BaseURL == "" {
		result := generateFallback(input.Question)
		metrics.SQLGenerationAttempts.WithLabelValues("fallback", "success").Inc()
		return &Output{Result: result}, nil
	}

	primary := h.Mode()
	tiers := []string{primary, alternateMode(primary)}

	for _, tier := range tiers {
		result, err := h.callProvider(ctx, tier, input.Question)
		if err != nil {
			metrics.SQLGenerationAttempts.WithLabelValues(tier, "failure").Inc()
			h.logger.Warn("provider tier failed", map[string]interface{}{
				"tier":     tier,
				"question": input.Question,
				"error":    err.Error(),
			})
			continue
		}

		metrics.SQLGenerationAttempts.WithLabelValues(tier, "success").Inc()
		h.logger.Info("sql generated", map[string]interface{}{
			"tier":    tier,
			"source":  string(result.Source),
			"rowsLen": len(result.Rows),
		})
		return &Output{Result: *result}, nil
	}

	result := generateFallback(input.Question)
	metrics.SQLGenerationAttempts.WithLabelValues("fallback", "success").Inc()
	h.logger.Info("sql generated", map[string]interface{}{
		"tier":   "fallback",
		"source": string(result.Source),
	})
	return &Output{Result: result}, nil
}

func alternateMode(mode string) string {
	if mode == ModePlayground {
		return ModeDirect
	}
	return ModePlayground
}

func (h *Handler) callProvider(ctx context.Context, tier, question string) (*models.SQLResult, error) {
	switch tier {
	case ModePlayground:
		return h.callPlayground(ctx, question)
	case ModeDirect:
		return h.callDirect(ctx, question)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, tier)
	}
}

func (h *Handler) callPlayground(ctx context.Context, question string) (*models.SQLResult, error) {
	datafileID := h.DatafileID()
	if datafileID == "" {
		return nil, fmt.Errorf("%w: no datafile configured", ErrProviderUnavailable)
	}

	payload := playgroundRequest{
		DatafileID: datafileID,
		UserQuery:  providerContext + "\n\nQuestion: " + question,
	}

	raw, err := h.post(ctx, h.config.BaseURL+"/playground/retrieve", payload)
	if err != nil {
		return nil, err
	}

	vr, err := validation.ValidateJSON(playgroundResponseSchema, string(raw))
	if err != nil || !vr.Valid {
		return nil, fmt.Errorf("%w: %s", ErrProviderResponseInvalid, validationDetail(vr, err))
	}

	var resp playgroundResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrProviderResponseInvalid, err)
	}

	item := resp.Data[0]
	if item.Error != "" {
		return nil, fmt.Errorf("%w: provider error: %s", ErrProviderResponseInvalid, item.Error)
	}
	if item.Query == "" {
		return nil, fmt.Errorf("%w: empty query", ErrProviderResponseInvalid)
	}

	explanation := item.QuerySummary.NonTechnicalExplanation
	if explanation == "" {
		explanation = "Generated by the NL-to-SQL provider"
	}

	source := models.SourceProvider
	if len(item.Rows) > 0 {
		source = models.SourceProviderWithData
	}

	return &models.SQLResult{
		SQL:         item.Query,
		Source:      source,
		Explanation: explanation,
		Rows:        item.Rows,
		Confidence:  0.9,
	}, nil
}

func (h *Handler) callDirect(ctx context.Context, question string) (*models.SQLResult, error) {
	payload := directRequest{
		Question: question,
		Schema:   models.CitySchema().Text(),
		Dialect:  "sqlite",
		Context:  providerContext,
	}

	raw, err := h.post(ctx, h.config.BaseURL+"/v1/generate-sql", payload)
	if err != nil {
		return nil, err
	}

	vr, err := validation.ValidateJSON(directResponseSchema, string(raw))
	if err != nil || !vr.Valid {
		return nil, fmt.Errorf("%w: %s", ErrProviderResponseInvalid, validationDetail(vr, err))
	}

	var resp directResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrProviderResponseInvalid, err)
	}

	explanation := resp.Explanation
	if explanation == "" {
		explanation = "Generated by the NL-to-SQL provider"
	}

	return &models.SQLResult{
		SQL:         resp.SQL,
		Source:      models.SourceProvider,
		Explanation: explanation,
		Confidence:  resp.Confidence,
	}, nil
}

func (h *Handler) post(ctx context.Context, url string, payload interface{}) ([]byte, error) {
	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.config.APIKey)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrProviderUnavailable, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrProviderUnavailable, err)
	}
	return raw, nil
}

func validationDetail(vr *validation.ValidationResult, err error) string {
	if err != nil {
		return err.Error()
	}
	return vr.Summary()
}

// Execute generates SQL for a classified question. It never returns an
// error: every provider failure degrades to the next tier and ultimately
// the local rule table.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
