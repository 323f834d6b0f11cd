// internal/executor/executor.go

// Package executor runs generated statements against Postgres and
// returns ordered result sets. It is the only component that touches
// the database; everything upstream works with values.
package executor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"analytics-workers/internal/common/logger"
	"analytics-workers/internal/models"
	"analytics-workers/internal/sqlgen"
)

var (
	ErrQueryExecutionFailed = errors.New("QUERY_EXECUTION_FAILED")
	ErrQueryTimeout         = errors.New("QUERY_TIMEOUT")
)

// Executor executes statements with a per-query timeout.
type Executor struct {
	db      *sql.DB
	timeout time.Duration
	logger  logger.Logger
}

// DefaultTimeout bounds a single statement's execution.
const DefaultTimeout = 30 * time.Second

func New(db *sql.DB, timeout time.Duration, log logger.Logger) *Executor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Executor{
		db:      db,
		timeout: timeout,
		logger:  log.WithFields(map[string]interface{}{"component": "executor"}),
	}
}

// Execute runs the statement and scans every row in order. Timeouts
// map to ErrQueryTimeout, everything else to ErrQueryExecutionFailed.
func (e *Executor) Execute(ctx context.Context, stmt *sqlgen.Statement) (*models.ResultSet, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	rows, err := e.db.QueryContext(ctx, stmt.SQL, stmt.Params...)
	if err != nil {
		return nil, e.wrapErr(ctx, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryExecutionFailed, err)
	}

	rs := &models.ResultSet{Columns: columns}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		scanTargets := make([]interface{}, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrQueryExecutionFailed, err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		rs.Rows = append(rs.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, e.wrapErr(ctx, err)
	}

	e.logger.Debug("query executed", map[string]interface{}{
		"rowCount":   rs.RowCount(),
		"durationMs": time.Since(start).Milliseconds(),
	})
	return rs, nil
}

func (e *Executor) wrapErr(ctx context.Context, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return ErrQueryTimeout
	}
	return fmt.Errorf("%w: %v", ErrQueryExecutionFailed, err)
}
