// internal/workers/analytics/handle-query/handler.go
package handlequery

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

	apperrors "analytics-workers/internal/common/errors"
	"analytics-workers/internal/common/logger"
	"analytics-workers/internal/common/metrics"
	"analytics-workers/internal/common/observability"
	"analytics-workers/internal/pipeline"
)

const (
	TaskType = "handle-analytics-query"
)

type Handler struct {
	config     *Config
	pipeline   *pipeline.Service
	errHandler *apperrors.ErrorHandler
	obs        *observability.Observability
	logger     logger.Logger
}

func NewHandler(config *Config, svc *pipeline.Service, obs *observability.Observability, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		pipeline:   svc,
		errHandler: apperrors.NewErrorHandler(scoped),
		obs:        obs,
		logger:     scoped,
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

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, "PARSE_ERROR").Inc()
		h.obs.RecordJobProcessed(ctx, TaskType, "failed")
		h.errHandler.HandleJobError(ctx, client, job, fmt.Errorf("parse input: %w", err))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, failureCode(err)).Inc()
		h.obs.RecordJobProcessed(ctx, TaskType, "failed")
		h.obs.RecordJobDuration(ctx, TaskType, time.Since(startTime), "failed")
		h.errHandler.HandleJobError(ctx, client, job, err)
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
	h.obs.RecordJobProcessed(ctx, TaskType, "completed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(startTime), "completed")
	h.completeJob(client, job, output)
}

// failureCode extracts the metric label for a failed job.
func failureCode(err error) string {
	var stdErr *apperrors.StandardError
	if errors.As(err, &stdErr) {
		return string(stdErr.Code)
	}
	return "INTERNAL_ERROR"
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	resp, err := h.pipeline.HandleQuery(ctx, pipeline.Request{
		Text:    input.Text,
		UserID:  input.UserID,
		Channel: input.Channel,
	})
	if err != nil {
		return nil, err
	}

	output := &Output{
		QueryID:              resp.QueryID,
		Summary:              resp.Summary,
		RowCount:             resp.RowCount,
		Cached:               resp.Cached,
		Ambiguous:            resp.Ambiguous,
		ClarificationOptions: resp.ClarificationOptions,
		ExportFilename:       resp.ExportFilename,
	}
	if len(resp.Export) > 0 {
		path, err := h.writeExport(resp.QueryID, resp.ExportFilename, resp.Export)
		if err != nil {
			return nil, apperrors.NewExportFailedError(err)
		}
		output.ExportPath = path
	}
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
