// internal/workers/analytics/execute-query/handler.go
package executequery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	"analytics-workers/internal/common/logger"
	"analytics-workers/internal/common/metrics"
	"analytics-workers/internal/common/observability"
	"analytics-workers/internal/executor"
	"analytics-workers/internal/formatter"
	"analytics-workers/internal/models"
	"analytics-workers/internal/querycache"
	"analytics-workers/internal/sqlgen"
)

const (
	TaskType = "execute-analytics-query"
)

var (
	ErrInvalidIntent        = errors.New("INVALID_INTENT")
	ErrQueryExecutionFailed = errors.New("DATABASE_ERROR")
	ErrQueryTimeout         = errors.New("QUERY_TIMEOUT")
	ErrExportFailed         = errors.New("EXPORT_FAILED")
)

// QueryExecutor abstracts the database side so tests can substitute
// sqlmock-backed executors.
type QueryExecutor interface {
	Execute(ctx context.Context, stmt *sqlgen.Statement) (*models.ResultSet, error)
}

type Handler struct {
	config    *Config
	cache     *querycache.Cache
	executor  QueryExecutor
	formatter *formatter.Formatter
	obs       *observability.Observability
	logger    logger.Logger
}

func NewHandler(config *Config, cache *querycache.Cache, exec QueryExecutor, form *formatter.Formatter, obs *observability.Observability, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		cache:     cache,
		executor:  exec,
		formatter: form,
		obs:       obs,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, "PARSE_ERROR").Inc()
		h.obs.RecordJobProcessed(context.Background(), TaskType, "failed")
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		code := errorCode(err)
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, code).Inc()
		h.obs.RecordJobProcessed(ctx, TaskType, "failed")
		h.obs.RecordJobDuration(ctx, TaskType, time.Since(startTime), "failed")
		h.failJob(client, job, code, err.Error())
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
	h.obs.RecordJobProcessed(ctx, TaskType, "completed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(startTime), "completed")
	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: missing input", ErrInvalidIntent)
	}
	if input.Intent.Ambiguous {
		return nil, fmt.Errorf("%w: intent still ambiguous, clarification required", ErrInvalidIntent)
	}

	queryID := input.QueryID
	if queryID == "" {
		queryID = uuid.NewString()[:8]
	}
	log := h.logger.WithFields(map[string]interface{}{"queryId": queryID})
	start := time.Now()

	stmt, err := sqlgen.Generate(input.Intent)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIntent, err)
	}

	rows, cached, err := h.cache.GetOrExecute(ctx, stmt, func(ctx context.Context, stmt *sqlgen.Statement) (*models.ResultSet, error) {
		return h.executor.Execute(ctx, stmt)
	})
	if err != nil {
		if errors.Is(err, executor.ErrQueryTimeout) {
			return nil, fmt.Errorf("%w: %v", ErrQueryTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrQueryExecutionFailed, err)
	}
	if cached {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
	} else {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
	}

	formatted, err := h.formatter.Format(rows, input.Intent)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}

	output := &Output{
		QueryID:  queryID,
		Summary:  formatted.Summary,
		RowCount: formatted.RowCount,
		Cached:   cached,
	}
	if formatted.Export != nil {
		path, err := h.writeExport(queryID, formatted.ExportFilename, formatted.Export)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrExportFailed, err)
		}
		output.ExportPath = path
	}

	log.Info("query executed", map[string]interface{}{
		"rowCount":   output.RowCount,
		"cached":     cached,
		"durationMs": time.Since(start).Milliseconds(),
	})
	return output, nil
}

func (h *Handler) writeExport(queryID, filename string, data []byte) (string, error) {
	if err := os.MkdirAll(h.config.ExportDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(h.config.ExportDir, queryID+"_"+filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidIntent):
		return "INVALID_INTENT"
	case errors.Is(err, ErrQueryTimeout):
		return "QUERY_TIMEOUT"
	case errors.Is(err, ErrExportFailed):
		return "EXPORT_FAILED"
	default:
		return "DATABASE_ERROR"
	}
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err = cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
	})

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
