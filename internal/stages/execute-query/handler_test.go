// internal/stages/execute-query/handler_test.go
package executequery

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "citypulse/internal/common/errors"
	"citypulse/internal/common/logger"
	"citypulse/internal/models"
)

type mockQuerier struct {
	db *sql.DB
}

func (m *mockQuerier) Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return m.db.QueryContext(ctx, query, args...)
}

func newTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &Config{MaxRows: 500, QueryTimeout: 5 * time.Second}
	return NewHandler(cfg, &mockQuerier{db: db}, logger.NewTestLogger(t)), mock
}

func TestHandler_Execute_ScansMixedTypes(t *testing.T) {
	handler, mock := newTestHandler(t)

	mock.ExpectQuery("SELECT neighborhood, call_count, score FROM incidents").
		WillReturnRows(sqlmock.NewRows([]string{"neighborhood", "call_count", "score"}).
			AddRow("Mission", int64(42), 3.5).
			AddRow([]byte("Tenderloin"), int64(37), nil))

	output, err := handler.Execute(context.Background(), &Input{
		SQL:      "SELECT neighborhood, call_count, score FROM incidents",
		Category: models.CategoryEmergencyStress,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"neighborhood", "call_count", "score"}, output.Columns)
	require.Len(t, output.Rows, 2)

	assert.Equal(t, "Mission", output.Rows[0]["neighborhood"])
	assert.Equal(t, int64(42), output.Rows[0]["call_count"])
	assert.Equal(t, 3.5, output.Rows[0]["score"])

	// []byte text is converted, NULL survives as nil
	assert.Equal(t, "Tenderloin", output.Rows[1]["neighborhood"])
	assert.Nil(t, output.Rows[1]["score"])
}

func TestHandler_Execute_EmptyResult(t *testing.T) {
	handler, mock := newTestHandler(t)

	mock.ExpectQuery("SELECT \\* FROM sf_disaster_events").
		WillReturnRows(sqlmock.NewRows([]string{"neighborhood", "event_count"}))

	output, err := handler.Execute(context.Background(), &Input{
		SQL:      "SELECT * FROM sf_disaster_events",
		Category: models.CategoryDisasterImpact,
	})
	require.NoError(t, err)

	assert.Empty(t, output.Rows)
	assert.Equal(t, []string{"neighborhood", "event_count"}, output.Columns)
}

func TestHandler_Execute_QueryError(t *testing.T) {
	handler, mock := newTestHandler(t)

	mock.ExpectQuery("SELECT bogus").
		WillReturnError(errors.New("no such column: bogus"))

	_, err := handler.Execute(context.Background(), &Input{
		SQL:      "SELECT bogus",
		Category: models.CategoryMixedQuery,
	})
	require.Error(t, err)

	stdErr := apperrors.AsStandard(err)
	assert.Equal(t, apperrors.ErrCodeQueryExecutionFailed, stdErr.Code)
	assert.False(t, stdErr.Retryable)
	assert.Contains(t, stdErr.Details, "no such column")
}

func TestHandler_Execute_Timeout(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectQuery("SELECT slow").
		WillDelayFor(200 * time.Millisecond).
		WillReturnRows(sqlmock.NewRows([]string{"a"}))

	cfg := &Config{MaxRows: 500, QueryTimeout: 20 * time.Millisecond}
	handler := NewHandler(cfg, &mockQuerier{db: db}, logger.NewTestLogger(t))

	_, err = handler.Execute(context.Background(), &Input{
		SQL:      "SELECT slow",
		Category: models.CategoryUnknown,
	})
	require.Error(t, err)

	stdErr := apperrors.AsStandard(err)
	assert.Equal(t, apperrors.ErrCodeQueryTimeout, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestHandler_Execute_RowCap(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	rows := sqlmock.NewRows([]string{"n"})
	for i := 0; i < 10; i++ {
		rows.AddRow(int64(i))
	}
	mock.ExpectQuery("SELECT n FROM t").WillReturnRows(rows)

	cfg := &Config{MaxRows: 3, QueryTimeout: 5 * time.Second}
	handler := NewHandler(cfg, &mockQuerier{db: db}, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{
		SQL:      "SELECT n FROM t",
		Category: models.CategoryMixedQuery,
	})
	require.NoError(t, err)
	assert.Len(t, output.Rows, 3)
}
