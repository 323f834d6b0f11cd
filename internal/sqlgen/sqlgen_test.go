package sqlgen

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"analytics-workers/internal/models"
)

// ==========================
// Generate
// ==========================

func TestGenerate_SingleProductSingleMonth(t *testing.T) {
	stmt, err := Generate(models.ResolvedIntent{
		Metric:     models.MetricBookings,
		ProductIDs: []int{13},
		TimeRange:  &models.TimeRange{StartLabel: "April-2024", EndLabel: "April-2024"},
	})
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT COUNT(CASE WHEN booking_status = 'IssuedBusiness' THEN 1 END) AS bookings "+
			"FROM sme_analytics.sme_leadbookingrevenue "+
			"WHERE investmenttypeid = $1 AND leadmonth = $2",
		stmt.SQL)
	assert.Equal(t, []interface{}{13, "April-2024"}, stmt.Params)
}

func TestGenerate_GroupedByAgent(t *testing.T) {
	stmt, err := Generate(models.ResolvedIntent{
		Metric:     models.MetricLeads,
		GroupBy:    models.DimensionAgent,
		ProductIDs: []int{5},
		TimeRange:  &models.TimeRange{StartLabel: "August-2026", EndLabel: "August-2026"},
	})
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT leadassignedagentname, COUNT(*) AS leads "+
			"FROM sme_analytics.sme_leadbookingrevenue "+
			"WHERE investmenttypeid = $1 AND leadmonth = $2 "+
			"GROUP BY leadassignedagentname ORDER BY leads DESC",
		stmt.SQL)
	assert.Equal(t, []interface{}{5, "August-2026"}, stmt.Params)
}

func TestGenerate_MultiProductAndMonthRange(t *testing.T) {
	stmt, err := Generate(models.ResolvedIntent{
		Metric:     models.MetricRevenue,
		ProductIDs: []int{5, 13},
		TimeRange:  &models.TimeRange{StartLabel: "January-2024", EndLabel: "March-2024"},
	})
	require.NoError(t, err)

	assert.Contains(t, stmt.SQL, "investmenttypeid IN ($1, $2)")
	assert.Contains(t, stmt.SQL, "leadmonth IN ($3, $4, $5)")
	assert.Equal(t, []interface{}{5, 13, "January-2024", "February-2024", "March-2024"}, stmt.Params)
}

func TestGenerate_NoFiltersMeansNoRestriction(t *testing.T) {
	stmt, err := Generate(models.ResolvedIntent{Metric: models.MetricLeads})
	require.NoError(t, err)

	assert.Equal(t, "SELECT COUNT(*) AS leads FROM sme_analytics.sme_leadbookingrevenue", stmt.SQL)
	assert.Empty(t, stmt.Params)
}

func TestGenerate_OnlineOnlyFilter(t *testing.T) {
	stmt, err := Generate(models.ResolvedIntent{
		Metric:     models.MetricPremium,
		OnlineOnly: true,
	})
	require.NoError(t, err)

	assert.Contains(t, stmt.SQL, "paymentstatus = $1")
	assert.Equal(t, []interface{}{300}, stmt.Params)
}

func TestGenerate_RejectsAmbiguousIntent(t *testing.T) {
	_, err := Generate(models.ResolvedIntent{
		Metric:     models.MetricLeads,
		ProductIDs: []int{5, 13},
		Ambiguous:  true,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidIntent)
}

func TestGenerate_RejectsUnknownMetricAndDimension(t *testing.T) {
	_, err := Generate(models.ResolvedIntent{Metric: "median_mood"})
	assert.ErrorIs(t, err, ErrInvalidIntent)

	_, err = Generate(models.ResolvedIntent{Metric: models.MetricLeads, GroupBy: "constellation"})
	assert.ErrorIs(t, err, ErrInvalidIntent)
}

func TestGenerate_RejectsMalformedTimeRange(t *testing.T) {
	_, err := Generate(models.ResolvedIntent{
		Metric:    models.MetricLeads,
		TimeRange: &models.TimeRange{StartLabel: "April", EndLabel: "April-2024"},
	})
	assert.ErrorIs(t, err, ErrInvalidIntent)
}

// ==========================
// Allowlist property
// ==========================

var identRe = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_.]*`)
var stringLiteralRe = regexp.MustCompile(`'[^']*'`)

func allowedTokens() map[string]bool {
	allowed := map[string]bool{
		"select": true, "as": true, "from": true, "where": true,
		"and": true, "in": true, "group": true, "by": true,
		"order": true, "desc": true,
		"count": true, "sum": true, "avg": true, "nullif": true,
		"case": true, "when": true, "then": true, "end": true,
		strings.ToLower(FactTable): true,
	}
	for name := range TableSchema {
		allowed[name] = true
	}
	for _, m := range metricExprs {
		allowed[strings.ToLower(m.Alias)] = true
	}
	return allowed
}

// Every (metric, dimension) pair must produce SQL whose identifiers all
// come from the fixed allowlist. Guards against any future template
// edit leaking a non-allowlisted name.
func TestGenerate_AllPairsEmitOnlyAllowlistedIdentifiers(t *testing.T) {
	allowed := allowedTokens()

	dims := append([]models.Dimension{models.DimensionNone}, models.AllDimensions...)
	for _, metric := range models.AllMetrics {
		for _, dim := range dims {
			stmt, err := Generate(models.ResolvedIntent{
				Metric:     metric,
				GroupBy:    dim,
				ProductIDs: []int{5},
				TimeRange:  &models.TimeRange{StartLabel: "April-2024", EndLabel: "June-2024"},
				OnlineOnly: true,
			})
			require.NoError(t, err, "metric=%s dim=%s", metric, dim)
			require.NoError(t, Validate(stmt.SQL))

			stripped := stringLiteralRe.ReplaceAllString(stmt.SQL, "''")
			for _, tok := range identRe.FindAllString(stripped, -1) {
				assert.True(t, allowed[strings.ToLower(tok)],
					"non-allowlisted identifier %q in %s", tok, stmt.SQL)
			}
		}
	}
}

// ==========================
// Validate
// ==========================

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		sql     string
		wantErr bool
	}{
		{"plain select", "SELECT COUNT(*) AS leads FROM " + FactTable, false},
		{"not a select", "DELETE FROM " + FactTable, true},
		{"wrong table", "SELECT * FROM users", true},
		{"mutation keyword", "SELECT * FROM " + FactTable + " WHERE 1=1; DROP TABLE users", true},
		{"comment injection", "SELECT * FROM " + FactTable + " -- hidden", true},
		{"column named like keyword is fine", "SELECT leadcreationsource AS leads FROM " + FactTable, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.sql)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidIntent)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// ==========================
// Canonical
// ==========================

func TestCanonical_IncludesParamValues(t *testing.T) {
	a := Statement{SQL: "SELECT 1", Params: []interface{}{13, "April-2024"}}
	b := Statement{SQL: "SELECT 1", Params: []interface{}{13, "May-2024"}}

	assert.NotEqual(t, a.Canonical(), b.Canonical())
	assert.Equal(t, a.Canonical(), Statement{SQL: a.SQL, Params: []interface{}{13, "April-2024"}}.Canonical())
}

func TestMaskStrategies_OnlySensitiveColumns(t *testing.T) {
	s := MaskStrategies()
	assert.Contains(t, s, "leadassignedagentname")
	assert.Contains(t, s, "leadcreationsource")
	assert.NotContains(t, s, "investmenttypeid")
	assert.NotContains(t, s, "leadmonth")
	assert.NotContains(t, s, "revenue")
}
