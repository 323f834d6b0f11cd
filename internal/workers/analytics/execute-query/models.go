// internal/workers/analytics/execute-query/models.go
package executequery

import "analytics-workers/internal/models"

type Input struct {
	Intent  models.ResolvedIntent `json:"intent"`
	QueryID string                `json:"queryId,omitempty"`
}

type Output struct {
	QueryID    string `json:"queryId"`
	Summary    string `json:"summary"`
	RowCount   int    `json:"rowCount"`
	Cached     bool   `json:"cached"`
	ExportPath string `json:"exportPath,omitempty"`
}
