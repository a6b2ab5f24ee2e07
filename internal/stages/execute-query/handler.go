// internal/stages/execute-query/handler.go
package executequery

import (
	"context"
	"database/sql"
	"errors"

	apperrors "citypulse/internal/common/errors"
	"citypulse/internal/common/logger"
	"citypulse/internal/common/metrics"
	"citypulse/internal/models"
)

const (
	StageName = "execute-query"
)

// Querier is satisfied by the read-only SQLite client.
type Querier interface {
	Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

type Handler struct {
	config *Config
	db     Querier
	logger logger.Logger
}

func NewHandler(config *Config, db Querier, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		db:     db,
		logger: log.With(map[string]interface{}{
			"stage": StageName,
		}),
	}
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	queryCtx, cancel := context.WithTimeout(ctx, h.config.QueryTimeout)
	defer cancel()

	rows, err := h.db.Query(queryCtx, input.SQL)
	if err != nil {
		return nil, h.classifyError(queryCtx, input, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, h.classifyError(queryCtx, input, err)
	}

	var result []models.Row
	for rows.Next() {
		if len(result) >= h.config.MaxRows {
			h.logger.Warn("row cap reached, truncating result", map[string]interface{}{
				"maxRows": h.config.MaxRows,
			})
			break
		}

		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return nil, h.classifyError(queryCtx, input, err)
		}

		row := make(models.Row, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(values[i])
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, h.classifyError(queryCtx, input, err)
	}

	metrics.QueryRowsReturned.WithLabelValues(string(input.Category)).Observe(float64(len(result)))
	h.logger.Info("query executed", map[string]interface{}{
		"rowCount": len(result),
		"columns":  len(columns),
	})

	return &Output{Rows: result, Columns: columns}, nil
}

// normalizeValue keeps scan results JSON friendly. The sqlite driver returns
// text as []byte depending on declared column type.
func normalizeValue(v interface{}) interface{} {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

func (h *Handler) classifyError(ctx context.Context, input *Input, err error) error {
	category := string(input.Category)

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		h.logger.Error("query timed out", map[string]interface{}{
			"category": category,
		})
		return apperrors.NewQueryTimeoutError(category)
	}

	// Raw SQL and driver error text stays in the log and the error Details;
	// the API layer surfaces only a generic description.
	h.logger.Error("query execution failed", map[string]interface{}{
		"category": category,
		"error":    err.Error(),
	})
	return apperrors.NewQueryExecutionFailedError(category, err)
}

// Execute runs generated SQL against the incident database. A failure here
// is terminal for the request.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
