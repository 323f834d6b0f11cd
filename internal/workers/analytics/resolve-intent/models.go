// internal/workers/analytics/resolve-intent/models.go
package resolveintent

import "analytics-workers/internal/models"

type Input struct {
	Text   string `json:"text"`
	UserID string `json:"userId,omitempty"`
}

type Output struct {
	Kind   string                 `json:"kind"` // metric_query or feedback
	Intent *models.ResolvedIntent `json:"intent,omitempty"`
}
