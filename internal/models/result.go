// internal/models/result.go
package models

import "time"

// ResultSet is an ordered query result: column order and row order are
// both preserved, which matters for cache round-trips and exports.
type ResultSet struct {
	Columns []string        `json:"columns"`
	Rows    [][]interface{} `json:"rows"`
}

// RowCount returns the number of data rows.
func (rs *ResultSet) RowCount() int {
	if rs == nil {
		return 0
	}
	return len(rs.Rows)
}

// Empty reports whether the result carries no rows.
func (rs *ResultSet) Empty() bool {
	return rs.RowCount() == 0
}

// FeedbackRecord captures a feedback-style utterance for out-of-band
// review. Delivery is fire-and-forget; the record never blocks the
// query pipeline.
type FeedbackRecord struct {
	UserID      string    `json:"userId"`
	Text        string    `json:"text"`
	Explanation string    `json:"explanation,omitempty"`
	SubmittedAt time.Time `json:"submittedAt"`
}
