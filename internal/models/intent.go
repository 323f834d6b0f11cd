// internal/models/intent.go
package models

// Metric identifies one of the fixed aggregates supported by the SQL
// generator. The set mirrors the analytics fact table and is closed:
// anything outside it is rejected before SQL generation.
type Metric string

const (
	MetricLeads          Metric = "leads"
	MetricBookings       Metric = "bookings"
	MetricRevenue        Metric = "revenue"
	MetricPremium        Metric = "premium"
	MetricBrokerage      Metric = "brokerage"
	MetricConversionRate Metric = "conversion_rate"
	MetricAvgPremium     Metric = "avg_premium"
	MetricSumInsured     Metric = "sum_insured"
	MetricLivesCovered   Metric = "lives_covered"
)

// AllMetrics lists every supported metric in a fixed order.
var AllMetrics = []Metric{
	MetricLeads,
	MetricBookings,
	MetricRevenue,
	MetricPremium,
	MetricBrokerage,
	MetricConversionRate,
	MetricAvgPremium,
	MetricSumInsured,
	MetricLivesCovered,
}

func (m Metric) Valid() bool {
	for _, known := range AllMetrics {
		if m == known {
			return true
		}
	}
	return false
}

// Dimension identifies a grouping dimension a query may break results
// down by. Each maps to exactly one allowlisted fact-table column.
type Dimension string

const (
	DimensionNone    Dimension = ""
	DimensionAgent   Dimension = "agent"
	DimensionProduct Dimension = "product"
	DimensionChannel Dimension = "channel"
	DimensionInsurer Dimension = "insurer"
	DimensionStatus  Dimension = "status"
	DimensionCity    Dimension = "city"
	DimensionState   Dimension = "state"
)

// AllDimensions lists every supported grouping dimension in a fixed order.
var AllDimensions = []Dimension{
	DimensionAgent,
	DimensionProduct,
	DimensionChannel,
	DimensionInsurer,
	DimensionStatus,
	DimensionCity,
	DimensionState,
}

func (d Dimension) Valid() bool {
	if d == DimensionNone {
		return true
	}
	for _, known := range AllDimensions {
		if d == known {
			return true
		}
	}
	return false
}

// TimeRange is an inclusive month-label range in the fact table's
// "FullMonthName-YYYY" format (e.g. "April-2024"). A nil range means
// no time filter.
type TimeRange struct {
	StartLabel string `json:"startLabel"`
	EndLabel   string `json:"endLabel"`
}

// ResolvedIntent is the structured, disambiguated form of a user's
// analytics question, ready for SQL generation.
//
// Invariant: Ambiguous is true exactly when a product filter was
// requested and ProductIDs does not contain exactly one ID;
// ClarificationOptions is non-empty only when Ambiguous is true.
type ResolvedIntent struct {
	Metric               Metric     `json:"metric"`
	GroupBy              Dimension  `json:"groupBy,omitempty"`
	TimeRange            *TimeRange `json:"timeRange,omitempty"`
	ProductIDs           []int      `json:"productIds,omitempty"`
	OnlineOnly           bool       `json:"onlineOnly,omitempty"`
	Ambiguous            bool       `json:"ambiguous"`
	ClarificationOptions []string   `json:"clarificationOptions,omitempty"`
	Confidence           float64    `json:"confidence"`
	Explanation          string     `json:"explanation,omitempty"`
}
