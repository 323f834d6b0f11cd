// internal/resolver/classifier.go
package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/xeipuuv/gojsonschema"

	commonhttp "analytics-workers/internal/common/http"
	"analytics-workers/internal/common/logger"
)

var (
	ErrClassificationFailed  = errors.New("CLASSIFICATION_FAILED")
	ErrClassificationTimeout = errors.New("CLASSIFICATION_TIMEOUT")
)

// CandidateHint is one pre-extracted product candidate passed to the
// classifier as context.
type CandidateHint struct {
	ID    int     `json:"id"`
	Name  string  `json:"name"`
	Exact bool    `json:"exact"`
	Score float64 `json:"score,omitempty"`
}

// Hints carries the deterministic pre-extraction results alongside the
// masked query text so the classifier refines rather than starts over.
// ColumnValues holds real distinct values of relevant fact table
// columns so the classifier matches against existing vocabulary.
type Hints struct {
	Candidates   []CandidateHint     `json:"candidates,omitempty"`
	Metric       string              `json:"metric,omitempty"`
	Dimension    string              `json:"dimension,omitempty"`
	TimeStart    string              `json:"timeStart,omitempty"`
	TimeEnd      string              `json:"timeEnd,omitempty"`
	ColumnValues map[string][]string `json:"columnValues,omitempty"`
}

// Classification is the classifier's structured verdict.
type Classification struct {
	Intent      string  `json:"intent"`
	Confidence  float64 `json:"confidence"`
	Products    []int   `json:"products"`
	Metric      string  `json:"metric"`
	Dimension   string  `json:"dimension"`
	OnlineOnly  bool    `json:"onlineOnly"`
	Explanation string  `json:"explanation"`
}

// Classifier is the external classification service. Implementations
// must honor ctx cancellation; the resolver treats any error as a cue
// to degrade to rule-based resolution.
type Classifier interface {
	Classify(ctx context.Context, maskedText string, hints Hints) (*Classification, error)
}

// classificationSchema rejects malformed service responses before the
// resolver trusts any field in them.
var classificationSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"intent", "confidence"},
	"properties": map[string]interface{}{
		"intent": map[string]interface{}{
			"type": "string",
			"enum": []interface{}{"metric_query", "feedback", "conversation", "clarification", "help"},
		},
		"confidence": map[string]interface{}{
			"type":    "number",
			"minimum": 0,
			"maximum": 1,
		},
		"products": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "integer"},
		},
		"metric":      map[string]interface{}{"type": "string"},
		"dimension":   map[string]interface{}{"type": "string"},
		"onlineOnly":  map[string]interface{}{"type": "boolean"},
		"explanation": map[string]interface{}{"type": "string"},
	},
}

// HTTPClassifier calls the hosted classification API.
type HTTPClassifier struct {
	baseURL    string
	apiKey     string
	maxRetries int
	client     *commonhttp.Client
	logger     logger.Logger
}

func NewHTTPClassifier(baseURL, apiKey string, timeout time.Duration, maxRetries int, log logger.Logger) *HTTPClassifier {
	return &HTTPClassifier{
		baseURL:    baseURL,
		apiKey:     apiKey,
		maxRetries: maxRetries,
		client:     commonhttp.NewClient(timeout),
		logger:     log.WithFields(map[string]interface{}{"component": "classifier"}),
	}
}

func (c *HTTPClassifier) Classify(ctx context.Context, maskedText string, hints Hints) (*Classification, error) {
	body, err := json.Marshal(map[string]interface{}{
		"query": maskedText,
		"hints": hints,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClassificationFailed, err)
	}

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ErrClassificationTimeout
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/ai/classify-intent", bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrClassificationFailed, err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, lastErr = c.client.Do(req)
		if ctx.Err() != nil ||
			errors.Is(lastErr, context.DeadlineExceeded) ||
			errors.Is(lastErr, context.Canceled) {
			return nil, ErrClassificationTimeout
		}

		if lastErr == nil {
			if resp.StatusCode == http.StatusOK {
				break
			}
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			resp = nil
		}
	}

	if lastErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrClassificationTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrClassificationFailed, lastErr)
	}
	if resp == nil {
		return nil, fmt.Errorf("%w: no successful response after retries", ErrClassificationFailed)
	}
	defer resp.Body.Close()

	var raw map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrClassificationFailed, err)
	}
	if err := validateClassification(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClassificationFailed, err)
	}

	encoded, _ := json.Marshal(raw)
	var out Classification
	if err := json.Unmarshal(encoded, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClassificationFailed, err)
	}

	c.logger.Debug("classification received", map[string]interface{}{
		"intent":     out.Intent,
		"confidence": out.Confidence,
	})
	return &out, nil
}

func validateClassification(doc map[string]interface{}) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(classificationSchema),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("malformed classification: %v", errs)
	}
	return nil
}
