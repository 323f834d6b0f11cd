package resolver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"analytics-workers/internal/catalog"
	"analytics-workers/internal/common/logger"
	"analytics-workers/internal/models"
)

type stubClassifier struct {
	verdict  *Classification
	err      error
	gotText  string
	gotHints Hints
	calls    int
}

func (s *stubClassifier) Classify(_ context.Context, maskedText string, hints Hints) (*Classification, error) {
	s.calls++
	s.gotText = maskedText
	s.gotHints = hints
	if s.err != nil {
		return nil, s.err
	}
	return s.verdict, nil
}

func newResolver(t *testing.T, c Classifier) *Resolver {
	t.Helper()
	r := New(catalog.Default(), c, logger.NewTestLogger(t))
	r.nowFn = func() time.Time {
		return time.Date(2024, time.April, 15, 10, 0, 0, 0, time.UTC)
	}
	return r
}

// ==========================
// Rule-based resolution
// ==========================

func TestResolve_MarineBookingsThisMonth(t *testing.T) {
	r := newResolver(t, nil)

	out, err := r.Resolve(context.Background(), "marine insurance bookings this month")
	require.NoError(t, err)
	require.Equal(t, KindMetricQuery, out.Kind)

	intent := out.Intent
	assert.Equal(t, models.MetricBookings, intent.Metric)
	assert.Equal(t, []int{13}, intent.ProductIDs)
	require.NotNil(t, intent.TimeRange)
	assert.Equal(t, "April-2024", intent.TimeRange.StartLabel)
	assert.Equal(t, "April-2024", intent.TimeRange.EndLabel)
	assert.False(t, intent.Ambiguous)
	assert.Equal(t, models.DimensionNone, intent.GroupBy)
}

func TestResolve_FireLeadsByAgentToday(t *testing.T) {
	r := newResolver(t, nil)

	out, err := r.Resolve(context.Background(), "fire insurance leads by agent today")
	require.NoError(t, err)

	intent := out.Intent
	assert.Equal(t, models.MetricLeads, intent.Metric)
	assert.Equal(t, models.DimensionAgent, intent.GroupBy)
	assert.Equal(t, []int{5}, intent.ProductIDs)
	require.NotNil(t, intent.TimeRange)
	assert.Equal(t, "April-2024", intent.TimeRange.StartLabel)
}

func TestResolve_WisePhrasing(t *testing.T) {
	r := newResolver(t, nil)

	out, err := r.Resolve(context.Background(), "product wise premium last month")
	require.NoError(t, err)

	intent := out.Intent
	assert.Equal(t, models.MetricPremium, intent.Metric)
	assert.Equal(t, models.DimensionProduct, intent.GroupBy)
	require.NotNil(t, intent.TimeRange)
	assert.Equal(t, "March-2024", intent.TimeRange.StartLabel)
}

func TestResolve_OnlineOnlyFlag(t *testing.T) {
	r := newResolver(t, nil)

	out, err := r.Resolve(context.Background(), "online bookings for marine insurance")
	require.NoError(t, err)
	assert.True(t, out.Intent.OnlineOnly)
}

func TestResolve_NoProductMeansNoFilter(t *testing.T) {
	r := newResolver(t, nil)

	out, err := r.Resolve(context.Background(), "how many leads this month")
	require.NoError(t, err)

	intent := out.Intent
	assert.Empty(t, intent.ProductIDs)
	assert.False(t, intent.Ambiguous)
	assert.Equal(t, models.MetricLeads, intent.Metric)
}

func TestResolve_TwoExactProductsIsAmbiguous(t *testing.T) {
	r := newResolver(t, nil)

	out, err := r.Resolve(context.Background(), "compare fire insurance and marine insurance bookings")
	require.NoError(t, err)

	intent := out.Intent
	assert.True(t, intent.Ambiguous)
	assert.Equal(t, []int{5, 13}, intent.ProductIDs)
	assert.Equal(t, []string{"Fire Insurance", "Marine Insurance"}, intent.ClarificationOptions)
}

func TestResolve_FuzzyAmbiguityCarriesClarifications(t *testing.T) {
	r := newResolver(t, nil)

	out, err := r.Resolve(context.Background(), "indemnity leads this month")
	require.NoError(t, err)

	intent := out.Intent
	assert.True(t, intent.Ambiguous)
	assert.GreaterOrEqual(t, len(intent.ClarificationOptions), 2)
	assert.Len(t, intent.ProductIDs, len(intent.ClarificationOptions))
}

func TestResolve_Unresolvable(t *testing.T) {
	r := newResolver(t, nil)

	_, err := r.Resolve(context.Background(), "good morning everyone")
	assert.ErrorIs(t, err, ErrUnresolvableIntent)

	_, err = r.Resolve(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrUnresolvableIntent)
}

func TestResolve_FeedbackDetected(t *testing.T) {
	r := newResolver(t, nil)

	out, err := r.Resolve(context.Background(), "this is wrong, marine numbers should always exclude test leads")
	require.NoError(t, err)
	assert.Equal(t, KindFeedback, out.Kind)
	assert.Nil(t, out.Intent)
}

// ==========================
// Classifier merge
// ==========================

func TestResolve_ClassifierCannotOverrideExactMatch(t *testing.T) {
	stub := &stubClassifier{verdict: &Classification{
		Intent:     "metric_query",
		Confidence: 0.99,
		Products:   []int{5},
	}}
	r := newResolver(t, stub)

	out, err := r.Resolve(context.Background(), "marine insurance bookings this month")
	require.NoError(t, err)

	// Exact match on marine (13) is locked; the classifier's vote for
	// fire (5) is discarded.
	assert.Equal(t, []int{13}, out.Intent.ProductIDs)
	assert.False(t, out.Intent.Ambiguous)
}

func TestResolve_ClassifierSettlesFuzzyAmbiguity(t *testing.T) {
	stub := &stubClassifier{verdict: &Classification{
		Intent:     "metric_query",
		Confidence: 0.9,
		Products:   []int{14},
	}}
	r := newResolver(t, stub)

	out, err := r.Resolve(context.Background(), "indemnity leads this month")
	require.NoError(t, err)

	assert.Equal(t, []int{14}, out.Intent.ProductIDs)
	assert.False(t, out.Intent.Ambiguous)
}

func TestResolve_ClassifierUnknownProductIgnored(t *testing.T) {
	stub := &stubClassifier{verdict: &Classification{
		Intent:     "metric_query",
		Confidence: 0.9,
		Products:   []int{9999},
	}}
	r := newResolver(t, stub)

	out, err := r.Resolve(context.Background(), "indemnity leads this month")
	require.NoError(t, err)
	assert.True(t, out.Intent.Ambiguous)
}

func TestResolve_ClassifierFillsMissingMetricAndDimension(t *testing.T) {
	stub := &stubClassifier{verdict: &Classification{
		Intent:     "metric_query",
		Confidence: 0.85,
		Metric:     "revenue",
		Dimension:  "insurer",
	}}
	r := newResolver(t, stub)

	out, err := r.Resolve(context.Background(), "what did marine insurance bring in this month")
	require.NoError(t, err)

	assert.Equal(t, models.MetricRevenue, out.Intent.Metric)
	assert.Equal(t, models.DimensionInsurer, out.Intent.GroupBy)
	assert.Equal(t, []int{13}, out.Intent.ProductIDs)
}

func TestResolve_ClassifierErrorDegradesToRules(t *testing.T) {
	stub := &stubClassifier{err: ErrClassificationTimeout}
	r := newResolver(t, stub)

	fallbacks := 0
	r.OnFallback = func() { fallbacks++ }

	out, err := r.Resolve(context.Background(), "marine insurance bookings this month")
	require.NoError(t, err)

	assert.Equal(t, 1, fallbacks)
	assert.Equal(t, models.MetricBookings, out.Intent.Metric)
	assert.Equal(t, []int{13}, out.Intent.ProductIDs)
}

func TestResolve_ClassifierReceivesMaskedTextAndHints(t *testing.T) {
	stub := &stubClassifier{verdict: &Classification{Intent: "metric_query", Confidence: 0.9}}
	r := newResolver(t, stub)

	_, err := r.Resolve(context.Background(), "marine insurance leads for client ravi@example.com phone 9876543210")
	require.NoError(t, err)

	assert.NotContains(t, stub.gotText, "ravi@example.com")
	assert.NotContains(t, stub.gotText, "9876543210")
	assert.Contains(t, stub.gotText, "[EMAIL]")
	assert.Contains(t, stub.gotText, "[PHONE]")

	require.NotEmpty(t, stub.gotHints.Candidates)
	assert.Equal(t, 13, stub.gotHints.Candidates[0].ID)
	assert.True(t, stub.gotHints.Candidates[0].Exact)
	assert.Equal(t, "leads", stub.gotHints.Metric)
}

type stubValueSource struct {
	values    map[string][]string
	gotColumn string
}

func (s *stubValueSource) Values(_ context.Context, column string) ([]string, error) {
	s.gotColumn = column
	if vals, ok := s.values[column]; ok {
		return vals, nil
	}
	return nil, errors.New("unknown column")
}

func TestResolve_DistinctValuesEnrichHints(t *testing.T) {
	stub := &stubClassifier{verdict: &Classification{Intent: "metric_query", Confidence: 0.9}}
	r := newResolver(t, stub)

	source := &stubValueSource{values: map[string][]string{
		"insurername": {"ICICI Lombard", "HDFC Ergo", "Tata AIG"},
	}}
	r.Distinct = source

	_, err := r.Resolve(context.Background(), "premium by insurer this month")
	require.NoError(t, err)

	assert.Equal(t, "insurername", source.gotColumn)
	assert.Equal(t, []string{"ICICI Lombard", "HDFC Ergo", "Tata AIG"}, stub.gotHints.ColumnValues["insurername"])
}

func TestResolve_DistinctLookupFailureDegradesQuietly(t *testing.T) {
	stub := &stubClassifier{verdict: &Classification{Intent: "metric_query", Confidence: 0.9}}
	r := newResolver(t, stub)
	r.Distinct = &stubValueSource{}

	out, err := r.Resolve(context.Background(), "leads by agent this month")
	require.NoError(t, err)

	assert.Empty(t, stub.gotHints.ColumnValues)
	assert.Equal(t, models.DimensionAgent, out.Intent.GroupBy)
}
