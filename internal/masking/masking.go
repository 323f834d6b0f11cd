// internal/masking/masking.go

// Package masking strips or substitutes personally identifiable data
// in two places: free text forwarded to the external classifier, and
// result columns flagged as sensitive before they leave the pipeline.
package masking

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"

	"github.com/brianvoe/gofakeit/v6"

	"analytics-workers/internal/models"
)

// Strategy selects how a sensitive value is transformed.
type Strategy string

const (
	// StrategyNone passes the value through untouched.
	StrategyNone Strategy = "none"
	// StrategyHash replaces the value with a short stable digest.
	StrategyHash Strategy = "hash"
	// StrategyFake substitutes a deterministic synthetic value.
	StrategyFake Strategy = "fake"
	// StrategyRedact blanks the value entirely.
	StrategyRedact Strategy = "redact"
)

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phoneRe = regexp.MustCompile(`(\+?\d{1,3}[\s\-]?)?\d{10}\b`)
	digitRe = regexp.MustCompile(`\b\d{5,}\b`)
)

// RedactText removes emails, phone numbers and long digit runs from
// free text. Used on every prompt before it reaches the classifier so
// identifiers never leave the process.
func RedactText(text string) string {
	out := emailRe.ReplaceAllString(text, "[EMAIL]")
	out = phoneRe.ReplaceAllString(out, "[PHONE]")
	out = digitRe.ReplaceAllString(out, "[NUMBER]")
	return out
}

// Masker applies per-column strategies to result sets. Fake values are
// seeded from the input so the same input always masks to the same
// output within and across runs.
type Masker struct {
	seed uint64
}

// NewMasker builds a masker with a fixed seed for the fake strategy.
func NewMasker(seed uint64) *Masker {
	return &Masker{seed: seed}
}

// MaskValue transforms a single value under the given strategy.
// Non-string values under hash and fake are stringified first so the
// output type is always a string for masked columns.
func (m *Masker) MaskValue(value interface{}, strategy Strategy) interface{} {
	if value == nil {
		return nil
	}
	switch strategy {
	case StrategyHash:
		return hashValue(fmt.Sprintf("%v", value))
	case StrategyFake:
		return m.fakeValue(fmt.Sprintf("%v", value))
	case StrategyRedact:
		return "[REDACTED]"
	default:
		return value
	}
}

// MaskResultSet returns a copy of rs with the listed columns masked.
// Columns absent from strategies pass through unchanged; the input is
// never mutated.
func (m *Masker) MaskResultSet(rs *models.ResultSet, strategies map[string]Strategy) *models.ResultSet {
	if rs == nil {
		return nil
	}

	colStrategy := make([]Strategy, len(rs.Columns))
	anyMasked := false
	for i, col := range rs.Columns {
		s, ok := strategies[col]
		if !ok || s == StrategyNone {
			colStrategy[i] = StrategyNone
			continue
		}
		colStrategy[i] = s
		anyMasked = true
	}

	out := &models.ResultSet{
		Columns: append([]string(nil), rs.Columns...),
		Rows:    make([][]interface{}, len(rs.Rows)),
	}
	for r, row := range rs.Rows {
		masked := make([]interface{}, len(row))
		for c, v := range row {
			if !anyMasked || c >= len(colStrategy) || colStrategy[c] == StrategyNone {
				masked[c] = v
				continue
			}
			masked[c] = m.MaskValue(v, colStrategy[c])
		}
		out.Rows[r] = masked
	}
	return out
}

// hashValue digests a value to a short stable token. The prefix keeps
// it recognizable as masked output in exports.
func hashValue(s string) string {
	sum := sha256.Sum256([]byte(s))
	return "h_" + hex.EncodeToString(sum[:])[:12]
}

// fakeValue maps a value to a synthetic name. The value seeds the
// pick together with the masker seed, so equal inputs collapse to the
// same fake identity and group-by cardinality survives masking.
func (m *Masker) fakeValue(s string) string {
	sum := sha256.Sum256([]byte(s))
	seed := m.seed ^ (uint64(sum[0])<<24 | uint64(sum[1])<<16 | uint64(sum[2])<<8 | uint64(sum[3]))
	f := gofakeit.New(int64(seed))
	return f.Name()
}
