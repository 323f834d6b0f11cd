// internal/sqlgen/sqlgen.go

// Package sqlgen maps resolved intents onto parameterized SQL against
// the single analytics fact table. The mapping is a fixed, auditable
// template table: only allowlisted column names are ever interpolated
// and every literal (product IDs, month labels, payment status) is
// bound as a positional parameter, never concatenated from user text.
package sqlgen

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"analytics-workers/internal/models"
	"analytics-workers/internal/timeparse"
)

// ErrInvalidIntent marks intents the generator refuses: ambiguous
// intents and metric or dimension values with no template mapping.
// Callers must resolve ambiguity before asking for SQL.
var ErrInvalidIntent = errors.New("INVALID_INTENT")

// Statement is a generated query with its bound parameter values.
type Statement struct {
	SQL    string
	Params []interface{}
}

// Canonical renders the statement with its parameter values inlined as
// text. Used only for cache fingerprinting, never for execution.
func (s Statement) Canonical() string {
	var b strings.Builder
	b.WriteString(s.SQL)
	for _, p := range s.Params {
		fmt.Fprintf(&b, "|%v", p)
	}
	return b.String()
}

// Generate builds the SQL statement for a resolved intent.
func Generate(intent models.ResolvedIntent) (*Statement, error) {
	if intent.Ambiguous {
		return nil, fmt.Errorf("%w: intent is ambiguous, resolve the product first", ErrInvalidIntent)
	}

	metric, ok := metricExprs[intent.Metric]
	if !ok {
		return nil, fmt.Errorf("%w: no mapping for metric %q", ErrInvalidIntent, intent.Metric)
	}

	var selectParts, groupBy []string
	if intent.GroupBy != models.DimensionNone {
		col, ok := dimensionColumns[intent.GroupBy]
		if !ok {
			return nil, fmt.Errorf("%w: no mapping for dimension %q", ErrInvalidIntent, intent.GroupBy)
		}
		selectParts = append(selectParts, col)
		groupBy = append(groupBy, col)
	}
	selectParts = append(selectParts, fmt.Sprintf("%s AS %s", metric.Expr, metric.Alias))

	var (
		where  []string
		params []interface{}
	)
	bind := func(v interface{}) string {
		params = append(params, v)
		return fmt.Sprintf("$%d", len(params))
	}

	if len(intent.ProductIDs) == 1 {
		where = append(where, fmt.Sprintf("investmenttypeid = %s", bind(intent.ProductIDs[0])))
	} else if len(intent.ProductIDs) > 1 {
		// Multiple IDs with Ambiguous unset only happens when the
		// caller already settled the product set (e.g. after a
		// clarification round).
		placeholders := make([]string, len(intent.ProductIDs))
		for i, id := range intent.ProductIDs {
			placeholders[i] = bind(id)
		}
		where = append(where, fmt.Sprintf("investmenttypeid IN (%s)", strings.Join(placeholders, ", ")))
	}

	if intent.TimeRange != nil {
		labels, err := timeparse.Labels(timeparse.Range{
			StartLabel: intent.TimeRange.StartLabel,
			EndLabel:   intent.TimeRange.EndLabel,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidIntent, err)
		}
		if len(labels) == 1 {
			where = append(where, fmt.Sprintf("leadmonth = %s", bind(labels[0])))
		} else {
			placeholders := make([]string, len(labels))
			for i, label := range labels {
				placeholders[i] = bind(label)
			}
			where = append(where, fmt.Sprintf("leadmonth IN (%s)", strings.Join(placeholders, ", ")))
		}
	}

	if intent.OnlineOnly {
		where = append(where, fmt.Sprintf("paymentstatus = %s", bind(300)))
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(selectParts, ", "))
	b.WriteString(" FROM ")
	b.WriteString(FactTable)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	if len(groupBy) > 0 {
		b.WriteString(" GROUP BY ")
		b.WriteString(strings.Join(groupBy, ", "))
		b.WriteString(fmt.Sprintf(" ORDER BY %s DESC", metric.Alias))
	}

	stmt := &Statement{SQL: b.String(), Params: params}
	if err := Validate(stmt.SQL); err != nil {
		return nil, err
	}
	return stmt, nil
}

var dangerousKeywords = regexp.MustCompile(`(?i)\b(insert|update|delete|drop|create|alter|truncate|grant|revoke|merge|exec)\b|;|--`)

// Validate enforces the read-only contract on a SQL string: a single
// SELECT against the fact table with no mutation keywords, comments or
// statement separators. Generate always produces conforming SQL, so a
// failure here is a programming error, not bad user input.
func Validate(sql string) error {
	trimmed := strings.TrimSpace(sql)
	if !strings.HasPrefix(strings.ToUpper(trimmed), "SELECT ") {
		return fmt.Errorf("%w: statement is not a SELECT", ErrInvalidIntent)
	}
	if !strings.Contains(trimmed, FactTable) {
		return fmt.Errorf("%w: statement does not target %s", ErrInvalidIntent, FactTable)
	}
	if m := dangerousKeywords.FindString(trimmed); m != "" {
		return fmt.Errorf("%w: forbidden token %q", ErrInvalidIntent, m)
	}
	return nil
}
