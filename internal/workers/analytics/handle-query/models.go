// internal/workers/analytics/handle-query/models.go
package handlequery

type Input struct {
	Text    string `json:"text"`
	UserID  string `json:"userId,omitempty"`
	Channel string `json:"channel,omitempty"`
}

type Output struct {
	QueryID              string   `json:"queryId"`
	Summary              string   `json:"summary"`
	RowCount             int      `json:"rowCount"`
	Cached               bool     `json:"cached"`
	Ambiguous            bool     `json:"ambiguous,omitempty"`
	ClarificationOptions []string `json:"clarificationOptions,omitempty"`
	ExportFilename       string   `json:"exportFilename,omitempty"`
	ExportPath           string   `json:"exportPath,omitempty"`
}
