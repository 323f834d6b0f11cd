// internal/formatter/formatter.go

// Package formatter shapes raw result sets into a short human-readable
// summary and, above a row threshold, an Excel export. Formatting is a
// pure transformation: nothing here touches the database or any other
// external system.
package formatter

import (
	"fmt"
	"strings"

	"analytics-workers/internal/catalog"
	"analytics-workers/internal/masking"
	"analytics-workers/internal/models"
	"analytics-workers/internal/sqlgen"
)

// DefaultExportThreshold is the row count above which results come
// back as an attachment instead of inline text.
const DefaultExportThreshold = 10

// maxSummaryRows bounds how many grouped rows the inline summary lists.
const maxSummaryRows = 5

// Result is the formatted response for one query.
type Result struct {
	Summary        string
	RowCount       int
	Export         []byte
	ExportFilename string
}

// Formatter renders result sets. The catalog decorates product IDs
// with display names; the masker sanitizes exported values.
type Formatter struct {
	catalog   *catalog.Catalog
	masker    *masking.Masker
	threshold int
}

func New(cat *catalog.Catalog, masker *masking.Masker, threshold int) *Formatter {
	if threshold <= 0 {
		threshold = DefaultExportThreshold
	}
	return &Formatter{catalog: cat, masker: masker, threshold: threshold}
}

// Format renders rows for the given intent. When the row count exceeds
// the threshold the full table is rendered to an Excel workbook with
// PII columns masked; the inline summary then only carries the top
// rows and a pointer to the attachment.
func (f *Formatter) Format(rs *models.ResultSet, intent models.ResolvedIntent) (*Result, error) {
	if rs == nil || rs.Empty() {
		return &Result{Summary: f.emptySummary(intent)}, nil
	}

	decorated := f.decorateProducts(rs, intent)
	result := &Result{
		Summary:  f.summarize(decorated, intent),
		RowCount: decorated.RowCount(),
	}

	if decorated.RowCount() > f.threshold {
		masked := decorated
		if f.masker != nil {
			masked = f.masker.MaskResultSet(decorated, sqlgen.MaskStrategies())
		}
		export, err := renderWorkbook(masked)
		if err != nil {
			return nil, fmt.Errorf("export failed: %w", err)
		}
		result.Export = export
		result.ExportFilename = exportFilename(intent)
	}
	return result, nil
}

func (f *Formatter) emptySummary(intent models.ResolvedIntent) string {
	subject := metricLabel(intent.Metric)
	if scope := f.scope(intent); scope != "" {
		subject += " " + scope
	}
	return fmt.Sprintf("No data found for %s.", subject)
}

// summarize builds the inline text. A single ungrouped row reads as a
// one-line answer; grouped results list the leading rows.
func (f *Formatter) summarize(rs *models.ResultSet, intent models.ResolvedIntent) string {
	scope := f.scope(intent)

	if intent.GroupBy == models.DimensionNone && rs.RowCount() == 1 {
		value := formatValue(rs.Rows[0][len(rs.Rows[0])-1], intent.Metric)
		line := fmt.Sprintf("%s: %s", metricLabel(intent.Metric), value)
		if scope != "" {
			line = fmt.Sprintf("%s %s: %s", metricLabel(intent.Metric), scope, value)
		}
		return line
	}

	var b strings.Builder
	header := fmt.Sprintf("%s by %s", metricLabel(intent.Metric), string(intent.GroupBy))
	if scope != "" {
		header += " " + scope
	}
	fmt.Fprintf(&b, "%s (%d rows):", header, rs.RowCount())

	shown := rs.RowCount()
	if shown > maxSummaryRows {
		shown = maxSummaryRows
	}
	for i := 0; i < shown; i++ {
		row := rs.Rows[i]
		label := fmt.Sprintf("%v", row[0])
		// Product rows carry "id, name, value"; show the name.
		if len(row) > 2 && intent.GroupBy == models.DimensionProduct {
			label = fmt.Sprintf("%v", row[1])
		}
		fmt.Fprintf(&b, "\n%d. %s: %s", i+1, label, formatValue(row[len(row)-1], intent.Metric))
	}
	if rs.RowCount() > shown {
		fmt.Fprintf(&b, "\n(+%d more, see attached export)", rs.RowCount()-shown)
	}
	return b.String()
}

// scope renders the intent's filters as a readable suffix, e.g.
// "for Marine Insurance in April-2024".
func (f *Formatter) scope(intent models.ResolvedIntent) string {
	var parts []string

	if len(intent.ProductIDs) > 0 && f.catalog != nil {
		names := make([]string, 0, len(intent.ProductIDs))
		for _, id := range intent.ProductIDs {
			if name := f.catalog.Name(id); name != "" {
				names = append(names, name)
			}
		}
		if len(names) > 0 {
			parts = append(parts, "for "+strings.Join(names, ", "))
		}
	}

	if tr := intent.TimeRange; tr != nil {
		if tr.StartLabel == tr.EndLabel {
			parts = append(parts, "in "+tr.StartLabel)
		} else {
			parts = append(parts, fmt.Sprintf("from %s to %s", tr.StartLabel, tr.EndLabel))
		}
	}

	if intent.OnlineOnly {
		parts = append(parts, "(online payments only)")
	}
	return strings.Join(parts, " ")
}

// decorateProducts inserts a product_name column after the product ID
// column on product-grouped results.
func (f *Formatter) decorateProducts(rs *models.ResultSet, intent models.ResolvedIntent) *models.ResultSet {
	if intent.GroupBy != models.DimensionProduct || f.catalog == nil {
		return rs
	}

	idCol := -1
	for i, col := range rs.Columns {
		if col == "investmenttypeid" {
			idCol = i
			break
		}
	}
	if idCol == -1 {
		return rs
	}

	out := &models.ResultSet{}
	out.Columns = append(out.Columns, rs.Columns[:idCol+1]...)
	out.Columns = append(out.Columns, "product_name")
	out.Columns = append(out.Columns, rs.Columns[idCol+1:]...)

	for _, row := range rs.Rows {
		name := ""
		if id, ok := asInt(row[idCol]); ok {
			name = f.catalog.Name(id)
		}
		decorated := make([]interface{}, 0, len(row)+1)
		decorated = append(decorated, row[:idCol+1]...)
		decorated = append(decorated, name)
		decorated = append(decorated, row[idCol+1:]...)
		out.Rows = append(out.Rows, decorated)
	}
	return out
}

func metricLabel(m models.Metric) string {
	switch m {
	case models.MetricLeads:
		return "Leads"
	case models.MetricBookings:
		return "Bookings"
	case models.MetricRevenue:
		return "Total revenue"
	case models.MetricPremium:
		return "Total premium"
	case models.MetricBrokerage:
		return "Total brokerage"
	case models.MetricConversionRate:
		return "Conversion rate"
	case models.MetricAvgPremium:
		return "Average premium"
	case models.MetricSumInsured:
		return "Total sum insured"
	case models.MetricLivesCovered:
		return "Lives covered"
	default:
		return string(m)
	}
}

// formatValue renders a metric value. Counts print as integers, money
// metrics with two decimals and the conversion rate as a percentage.
// Cached rows may arrive as float64 even for count metrics.
func formatValue(v interface{}, metric models.Metric) string {
	if v == nil {
		return "0"
	}

	switch metric {
	case models.MetricLeads, models.MetricBookings, models.MetricLivesCovered:
		if n, ok := asInt(v); ok {
			return fmt.Sprintf("%d", n)
		}
	case models.MetricConversionRate:
		if x, ok := asFloat(v); ok {
			return fmt.Sprintf("%.2f%%", x)
		}
	default:
		if x, ok := asFloat(v); ok {
			return fmt.Sprintf("%.2f", x)
		}
	}
	return fmt.Sprintf("%v", v)
}

func asInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func exportFilename(intent models.ResolvedIntent) string {
	name := string(intent.Metric)
	if intent.GroupBy != models.DimensionNone {
		name += "_by_" + string(intent.GroupBy)
	}
	return name + ".xlsx"
}
