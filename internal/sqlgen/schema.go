// internal/sqlgen/schema.go
package sqlgen

import (
	"analytics-workers/internal/masking"
	"analytics-workers/internal/models"
)

// FactTable is the single table this generator is allowed to query.
const FactTable = "sme_analytics.sme_leadbookingrevenue"

// Column describes one allowlisted fact table column.
type Column struct {
	Name        string
	Categorical bool
	PIILevel    string
	Masking     masking.Strategy
}

// TableSchema is the full column allowlist. Only names present here may
// appear in generated SQL; everything else is rejected outright.
var TableSchema = map[string]Column{
	"leadassignedagentname": {Name: "leadassignedagentname", Categorical: true, PIILevel: "low", Masking: masking.StrategyFake},
	"investmenttypeid":      {Name: "investmenttypeid", Categorical: true, PIILevel: "none", Masking: masking.StrategyNone},
	"leadcreationsource":    {Name: "leadcreationsource", Categorical: true, PIILevel: "low", Masking: masking.StrategyHash},
	"insurername":           {Name: "insurername", Categorical: true, PIILevel: "low", Masking: masking.StrategyFake},
	"booking_status":        {Name: "booking_status", Categorical: true, PIILevel: "low", Masking: masking.StrategyNone},
	"city":                  {Name: "city", Categorical: true, PIILevel: "low", Masking: masking.StrategyFake},
	"state":                 {Name: "state", Categorical: true, PIILevel: "low", Masking: masking.StrategyFake},
	"leadmonth":             {Name: "leadmonth", Categorical: true, PIILevel: "low", Masking: masking.StrategyNone},
	"paymentstatus":         {Name: "paymentstatus", Categorical: true, PIILevel: "none", Masking: masking.StrategyNone},
	"revenue":               {Name: "revenue", PIILevel: "none", Masking: masking.StrategyNone},
	"premium":               {Name: "premium", PIILevel: "none", Masking: masking.StrategyNone},
	"brokerage":             {Name: "brokerage", PIILevel: "none", Masking: masking.StrategyNone},
	"suminsured":            {Name: "suminsured", PIILevel: "none", Masking: masking.StrategyNone},
	"totalnooflives":        {Name: "totalnooflives", PIILevel: "none", Masking: masking.StrategyNone},
}

// metricExprs maps each metric to its fixed aggregate expression and
// output alias. Expressions reference allowlisted columns only.
var metricExprs = map[models.Metric]struct {
	Expr  string
	Alias string
}{
	models.MetricLeads:          {Expr: "COUNT(*)", Alias: "leads"},
	models.MetricBookings:       {Expr: "COUNT(CASE WHEN booking_status = 'IssuedBusiness' THEN 1 END)", Alias: "bookings"},
	models.MetricRevenue:        {Expr: "SUM(revenue)", Alias: "total_revenue"},
	models.MetricPremium:        {Expr: "SUM(premium)", Alias: "total_premium"},
	models.MetricBrokerage:      {Expr: "SUM(brokerage)", Alias: "total_brokerage"},
	models.MetricConversionRate: {Expr: "(COUNT(CASE WHEN booking_status = 'IssuedBusiness' THEN 1 END) * 100.0 / NULLIF(COUNT(*), 0))", Alias: "conversion_rate"},
	models.MetricAvgPremium:     {Expr: "AVG(premium)", Alias: "avg_premium"},
	models.MetricSumInsured:     {Expr: "SUM(suminsured)", Alias: "total_sum_insured"},
	models.MetricLivesCovered:   {Expr: "SUM(totalnooflives)", Alias: "total_lives"},
}

// dimensionColumns maps grouping dimensions to their backing columns.
var dimensionColumns = map[models.Dimension]string{
	models.DimensionAgent:   "leadassignedagentname",
	models.DimensionProduct: "investmenttypeid",
	models.DimensionChannel: "leadcreationsource",
	models.DimensionInsurer: "insurername",
	models.DimensionStatus:  "booking_status",
	models.DimensionCity:    "city",
	models.DimensionState:   "state",
}

// DimensionColumn returns the backing column name for a dimension and
// whether the dimension has one.
func DimensionColumn(d models.Dimension) (string, bool) {
	col, ok := dimensionColumns[d]
	return col, ok
}

// MaskStrategies returns the per-column masking strategies for the
// columns a generated result set can contain. Passed to the masker
// before any rows leave the pipeline.
func MaskStrategies() map[string]masking.Strategy {
	out := make(map[string]masking.Strategy, len(TableSchema))
	for name, col := range TableSchema {
		if col.Masking != masking.StrategyNone {
			out[name] = col.Masking
		}
	}
	return out
}
