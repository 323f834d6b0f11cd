// internal/pipeline/pipeline.go

// Package pipeline runs one analytics query end to end: resolve the
// text into an intent, short-circuit on ambiguity, generate SQL, serve
// from cache or execute, then format. Each invocation is independent;
// the query cache and the product catalog are the only shared state.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "analytics-workers/internal/common/errors"
	"analytics-workers/internal/common/logger"
	"analytics-workers/internal/common/metrics"
	"analytics-workers/internal/executor"
	"analytics-workers/internal/feedback"
	"analytics-workers/internal/formatter"
	"analytics-workers/internal/models"
	"analytics-workers/internal/querycache"
	"analytics-workers/internal/resolver"
	"analytics-workers/internal/sqlgen"
)

// Request is one inbound user query.
type Request struct {
	Text    string `json:"text"`
	UserID  string `json:"userId"`
	Channel string `json:"channel,omitempty"`
}

// Response is the user-facing result. Either Summary is the answer,
// or Ambiguous is set and ClarificationOptions carries the follow-up
// question's choices.
type Response struct {
	QueryID              string   `json:"queryId"`
	Summary              string   `json:"summary"`
	RowCount             int      `json:"rowCount"`
	Cached               bool     `json:"cached"`
	Ambiguous            bool     `json:"ambiguous,omitempty"`
	ClarificationOptions []string `json:"clarificationOptions,omitempty"`
	Export               []byte   `json:"export,omitempty"`
	ExportFilename       string   `json:"exportFilename,omitempty"`
}

// QueryExecutor abstracts the database side so tests can substitute
// sqlmock-backed executors.
type QueryExecutor interface {
	Execute(ctx context.Context, stmt *sqlgen.Statement) (*models.ResultSet, error)
}

// Service wires the pipeline stages together.
type Service struct {
	resolver  *resolver.Resolver
	cache     *querycache.Cache
	executor  QueryExecutor
	formatter *formatter.Formatter
	feedback  feedback.Sink
	logger    logger.Logger
}

func NewService(
	res *resolver.Resolver,
	cache *querycache.Cache,
	exec QueryExecutor,
	form *formatter.Formatter,
	sink feedback.Sink,
	log logger.Logger,
) *Service {
	if sink == nil {
		sink = feedback.NoopSink{}
	}
	s := &Service{
		resolver:  res,
		cache:     cache,
		executor:  exec,
		formatter: form,
		feedback:  sink,
		logger:    log.WithFields(map[string]interface{}{"component": "pipeline"}),
	}
	res.OnFallback = func() { metrics.ClassifierFallbacks.Inc() }
	return s
}

// HandleQuery runs the full pipeline for one request. Errors returned
// are always *apperrors.StandardError with user-safe messages; raw
// SQL, stack traces and PII never reach the caller.
func (s *Service) HandleQuery(ctx context.Context, req Request) (*Response, error) {
	queryID := uuid.NewString()[:8]
	log := s.logger.WithFields(map[string]interface{}{"queryId": queryID})
	start := time.Now()

	resp, err := s.handle(ctx, req, queryID, log)

	outcome := "ok"
	switch {
	case err != nil:
		outcome = "error"
	case resp.Ambiguous:
		outcome = "ambiguous"
	case resp.Cached:
		outcome = "cached"
	}
	metrics.QueriesTotal.WithLabelValues(outcome).Inc()
	metrics.QueryDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	return resp, err
}

func (s *Service) handle(ctx context.Context, req Request, queryID string, log logger.Logger) (*Response, error) {
	out, err := s.resolver.Resolve(ctx, req.Text)
	if err != nil {
		if errors.Is(err, resolver.ErrUnresolvableIntent) {
			return nil, apperrors.NewUnresolvableIntentError(err.Error())
		}
		return nil, apperrors.NewClassificationError(err)
	}

	if out.Kind == resolver.KindFeedback {
		s.dispatchFeedback(req)
		return &Response{
			QueryID: queryID,
			Summary: "Thanks, your feedback has been recorded for review.",
		}, nil
	}

	intent := *out.Intent
	if intent.Ambiguous {
		log.Info("ambiguous product, asking for clarification", map[string]interface{}{
			"options": intent.ClarificationOptions,
		})
		return &Response{
			QueryID:              queryID,
			Summary:              "More than one product matches your question. Which one did you mean?",
			Ambiguous:            true,
			ClarificationOptions: intent.ClarificationOptions,
		}, nil
	}

	stmt, err := sqlgen.Generate(intent)
	if err != nil {
		log.Error("sql generation failed", map[string]interface{}{"error": err.Error()})
		return nil, apperrors.NewInvalidIntentError(err.Error())
	}

	rows, cached, err := s.cache.GetOrExecute(ctx, stmt, func(ctx context.Context, stmt *sqlgen.Statement) (*models.ResultSet, error) {
		return s.executor.Execute(ctx, stmt)
	})
	if err != nil {
		log.Error("query execution failed", map[string]interface{}{"error": err.Error()})
		if errors.Is(err, executor.ErrQueryTimeout) {
			return nil, apperrors.NewQueryTimeoutError()
		}
		return nil, apperrors.NewDatabaseError(err)
	}
	if cached {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
	} else {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
	}

	formatted, err := s.formatter.Format(rows, intent)
	if err != nil {
		log.Error("formatting failed", map[string]interface{}{"error": err.Error()})
		return nil, apperrors.NewExportFailedError(err)
	}

	log.Info("query answered", map[string]interface{}{
		"metric":   string(intent.Metric),
		"rowCount": formatted.RowCount,
		"cached":   cached,
		"export":   formatted.Export != nil,
	})

	return &Response{
		QueryID:        queryID,
		Summary:        formatted.Summary,
		RowCount:       formatted.RowCount,
		Cached:         cached,
		Export:         formatted.Export,
		ExportFilename: formatted.ExportFilename,
	}, nil
}

// dispatchFeedback forwards a feedback utterance out of band. The user
// already got their acknowledgment; delivery failure is only logged.
func (s *Service) dispatchFeedback(req Request) {
	record := models.FeedbackRecord{
		UserID:      req.UserID,
		Text:        req.Text,
		Explanation: fmt.Sprintf("received via %s", req.Channel),
		SubmittedAt: time.Now().UTC(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.feedback.Post(ctx, record); err != nil {
			s.logger.Warn("feedback delivery failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()
}
