package formatter

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"analytics-workers/internal/catalog"
	"analytics-workers/internal/masking"
	"analytics-workers/internal/models"
)

func newFormatter(threshold int) *Formatter {
	return New(catalog.Default(), masking.NewMasker(42), threshold)
}

func TestFormat_ScalarAnswer(t *testing.T) {
	f := newFormatter(10)
	rs := &models.ResultSet{
		Columns: []string{"bookings"},
		Rows:    [][]interface{}{{int64(42)}},
	}

	res, err := f.Format(rs, models.ResolvedIntent{
		Metric:     models.MetricBookings,
		ProductIDs: []int{13},
		TimeRange:  &models.TimeRange{StartLabel: "April-2024", EndLabel: "April-2024"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Bookings for Marine Insurance in April-2024: 42", res.Summary)
	assert.Equal(t, 1, res.RowCount)
	assert.Nil(t, res.Export)
}

func TestFormat_ScalarValueRendering(t *testing.T) {
	f := newFormatter(10)

	tests := []struct {
		metric models.Metric
		value  interface{}
		want   string
	}{
		{models.MetricLeads, int64(7), "Leads: 7"},
		{models.MetricLeads, float64(7), "Leads: 7"},
		{models.MetricRevenue, float64(12345.678), "Total revenue: 12345.68"},
		{models.MetricConversionRate, float64(12.5), "Conversion rate: 12.50%"},
		{models.MetricAvgPremium, nil, "Average premium: 0"},
	}

	for _, tt := range tests {
		t.Run(string(tt.metric), func(t *testing.T) {
			rs := &models.ResultSet{
				Columns: []string{"value"},
				Rows:    [][]interface{}{{tt.value}},
			}
			res, err := f.Format(rs, models.ResolvedIntent{Metric: tt.metric})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Summary)
		})
	}
}

func TestFormat_EmptyResult(t *testing.T) {
	f := newFormatter(10)
	rs := &models.ResultSet{Columns: []string{"leads"}}

	res, err := f.Format(rs, models.ResolvedIntent{
		Metric:     models.MetricLeads,
		ProductIDs: []int{5},
	})
	require.NoError(t, err)

	assert.Equal(t, "No data found for Leads for Fire Insurance.", res.Summary)
	assert.Zero(t, res.RowCount)
}

func TestFormat_GroupedListsTopRows(t *testing.T) {
	f := newFormatter(10)
	rs := &models.ResultSet{
		Columns: []string{"leadassignedagentname", "leads"},
		Rows: [][]interface{}{
			{"Ravi Sharma", int64(12)},
			{"Priya Patel", int64(7)},
			{"Arjun Mehta", int64(3)},
		},
	}

	res, err := f.Format(rs, models.ResolvedIntent{
		Metric:  models.MetricLeads,
		GroupBy: models.DimensionAgent,
	})
	require.NoError(t, err)

	assert.Contains(t, res.Summary, "Leads by agent (3 rows):")
	assert.Contains(t, res.Summary, "1. Ravi Sharma: 12")
	assert.Contains(t, res.Summary, "3. Arjun Mehta: 3")
	assert.Nil(t, res.Export)
}

func TestFormat_ProductGroupingDecoratesNames(t *testing.T) {
	f := newFormatter(10)
	rs := &models.ResultSet{
		Columns: []string{"investmenttypeid", "total_revenue"},
		Rows: [][]interface{}{
			{int64(13), float64(90000)},
			{int64(5), float64(45000)},
		},
	}

	res, err := f.Format(rs, models.ResolvedIntent{
		Metric:  models.MetricRevenue,
		GroupBy: models.DimensionProduct,
	})
	require.NoError(t, err)

	assert.Contains(t, res.Summary, "1. Marine Insurance: 90000.00")
	assert.Contains(t, res.Summary, "2. Fire Insurance: 45000.00")
}

func TestFormat_ExportAboveThreshold(t *testing.T) {
	f := newFormatter(3)

	rs := &models.ResultSet{Columns: []string{"leadassignedagentname", "leads"}}
	for i := 0; i < 8; i++ {
		rs.Rows = append(rs.Rows, []interface{}{fmt.Sprintf("Agent %d", i), int64(20 - i)})
	}

	res, err := f.Format(rs, models.ResolvedIntent{
		Metric:  models.MetricLeads,
		GroupBy: models.DimensionAgent,
	})
	require.NoError(t, err)

	assert.Equal(t, 8, res.RowCount)
	assert.Contains(t, res.Summary, "(+3 more, see attached export)")
	assert.Equal(t, "leads_by_agent.xlsx", res.ExportFilename)
	require.NotEmpty(t, res.Export)

	wb, err := excelize.OpenReader(bytes.NewReader(res.Export))
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows("Results")
	require.NoError(t, err)
	require.Len(t, rows, 9)
	assert.Equal(t, []string{"leadassignedagentname", "leads"}, rows[0])

	// Agent names are PII and must be masked in the export.
	for _, row := range rows[1:] {
		assert.NotContains(t, row[0], "Agent ")
	}
}

func TestFormat_ExportMasksOnlySensitiveColumns(t *testing.T) {
	f := newFormatter(1)

	rs := &models.ResultSet{
		Columns: []string{"city", "leads"},
		Rows: [][]interface{}{
			{"Mumbai", int64(4)},
			{"Pune", int64(2)},
		},
	}

	res, err := f.Format(rs, models.ResolvedIntent{
		Metric:  models.MetricLeads,
		GroupBy: models.DimensionCity,
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.Export)

	wb, err := excelize.OpenReader(bytes.NewReader(res.Export))
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows("Results")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.NotEqual(t, "Mumbai", rows[1][0])
	assert.Equal(t, "4", rows[1][1])

	// Inline summary keeps the real values; masking is export-only.
	assert.Contains(t, res.Summary, "Mumbai")
}

func TestFormat_NilResultSet(t *testing.T) {
	f := newFormatter(10)

	res, err := f.Format(nil, models.ResolvedIntent{Metric: models.MetricLeads})
	require.NoError(t, err)
	assert.Equal(t, "No data found for Leads.", res.Summary)
}
