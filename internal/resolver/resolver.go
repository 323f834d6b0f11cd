// internal/resolver/resolver.go

// Package resolver turns raw user text into a resolved analytics
// intent. Resolution runs in two stages: a deterministic rule pass
// (catalog lookup, time normalization, keyword maps) followed by one
// best-effort call to the external classifier. The classifier refines
// the rule result but can never override an exact-phrase product
// match; on classifier failure the rule result stands alone.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"analytics-workers/internal/catalog"
	"analytics-workers/internal/common/logger"
	"analytics-workers/internal/masking"
	"analytics-workers/internal/models"
	"analytics-workers/internal/sqlgen"
	"analytics-workers/internal/timeparse"
)

// ErrUnresolvableIntent is returned only when the text contains no
// interpretable analytics question at all.
var ErrUnresolvableIntent = errors.New("UNRESOLVABLE_INTENT")

// Kind distinguishes a metric question from a feedback utterance.
type Kind string

const (
	KindMetricQuery Kind = "metric_query"
	KindFeedback    Kind = "feedback"
)

// Outcome is the full resolution result. Intent is populated for
// metric queries; feedback outcomes carry only the text and kind.
type Outcome struct {
	Kind   Kind
	Intent *models.ResolvedIntent
}

// ValueSource supplies distinct values of fact table columns for
// classifier hints.
type ValueSource interface {
	Values(ctx context.Context, column string) ([]string, error)
}

// Resolver performs hybrid rule plus classifier resolution.
type Resolver struct {
	catalog    *catalog.Catalog
	classifier Classifier
	nowFn      func() time.Time
	logger     logger.Logger

	// Emitted when the classifier errors and resolution degrades to
	// the rule-based result. Optional.
	OnFallback func()

	// Distinct enriches classifier hints with real column vocabulary.
	// Optional; lookup failures degrade to hints without values.
	Distinct ValueSource
}

func New(cat *catalog.Catalog, classifier Classifier, log logger.Logger) *Resolver {
	return &Resolver{
		catalog:    cat,
		classifier: classifier,
		nowFn:      time.Now,
		logger:     log.WithFields(map[string]interface{}{"component": "resolver"}),
	}
}

var metricKeywords = []struct {
	metric models.Metric
	words  []string
}{
	{models.MetricConversionRate, []string{"conversion rate", "conversion"}},
	{models.MetricAvgPremium, []string{"average premium", "avg premium"}},
	{models.MetricSumInsured, []string{"sum insured"}},
	{models.MetricLivesCovered, []string{"lives covered", "lives"}},
	{models.MetricBookings, []string{"bookings", "booking", "booked", "issued"}},
	{models.MetricRevenue, []string{"revenue"}},
	{models.MetricBrokerage, []string{"brokerage"}},
	{models.MetricPremium, []string{"premium"}},
	{models.MetricLeads, []string{"leads", "lead", "enquiries", "inquiries", "count", "how many"}},
}

var dimensionKeywords = map[string]models.Dimension{
	"agent":   models.DimensionAgent,
	"agents":  models.DimensionAgent,
	"product": models.DimensionProduct,
	"channel": models.DimensionChannel,
	"source":  models.DimensionChannel,
	"insurer": models.DimensionInsurer,
	"status":  models.DimensionStatus,
	"city":    models.DimensionCity,
	"cities":  models.DimensionCity,
	"state":   models.DimensionState,
	"states":  models.DimensionState,
}

// Grouping is phrased three ways: "by agent", "agent wise", "group by
// agent".
var (
	byDimRe      = regexp.MustCompile(`\b(?:group\s+by|by|per)\s+([a-z]+)`)
	wiseDimRe    = regexp.MustCompile(`\b([a-z]+)[\s-]*wise\b`)
	questionRe   = regexp.MustCompile(`\b(how|what|which|show|give|list|top|total|count)\b`)
	onlineOnlyRe = regexp.MustCompile(`\bonline\s+(payments?|bookings?|business|sales?)\b`)
)

var feedbackPhrases = []string{
	"this is wrong",
	"that is wrong",
	"incorrect",
	"not right",
	"always filter",
	"always exclude",
	"always include",
	"should always",
	"should never",
	"remember that",
	"my feedback",
}

// Resolve produces the structured intent for raw user text.
func (r *Resolver) Resolve(ctx context.Context, text string) (*Outcome, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty query", ErrUnresolvableIntent)
	}
	lower := strings.ToLower(trimmed)

	if isFeedback(lower) {
		return &Outcome{Kind: KindFeedback}, nil
	}

	rule := r.ruleExtract(lower)

	refined := r.refine(ctx, trimmed, rule)

	if !refined.interpretable() {
		return nil, fmt.Errorf("%w: no metric or question found in query", ErrUnresolvableIntent)
	}

	return &Outcome{Kind: KindMetricQuery, Intent: refined.toIntent(r.catalog)}, nil
}

// ruleResult is the deterministic stage-one extraction.
type ruleResult struct {
	metric        models.Metric
	metricStated  bool
	dimension     models.Dimension
	timeRange     *timeparse.Range
	exactIDs      []int
	fuzzy         []catalog.Match
	onlineOnly    bool
	looksQuestion bool
	confidence    float64
	explanation   string
}

func (r *Resolver) ruleExtract(lower string) ruleResult {
	out := ruleResult{metric: models.MetricLeads}

	for _, mk := range metricKeywords {
		for _, w := range mk.words {
			if strings.Contains(lower, w) {
				out.metric = mk.metric
				out.metricStated = true
				break
			}
		}
		if out.metricStated {
			break
		}
	}

	var productText string
	out.dimension, productText = extractDimension(lower)
	out.timeRange = timeparse.Normalize(lower, r.nowFn())
	out.exactIDs = r.catalog.ResolveExact(productText)
	if len(out.exactIDs) == 0 {
		out.fuzzy = r.catalog.ResolveFuzzy(productText)
	}
	out.onlineOnly = onlineOnlyRe.MatchString(lower)
	out.looksQuestion = questionRe.MatchString(lower) || strings.Contains(lower, "?")

	switch {
	case out.metricStated && len(out.exactIDs) > 0:
		out.confidence = 0.9
	case out.metricStated:
		out.confidence = 0.7
	default:
		out.confidence = 0.4
	}
	out.explanation = "rule-based extraction"
	return out
}

// extractDimension finds the grouping dimension and returns the text
// with the grouping phrase removed, so "product wise premium" does not
// also fuzzy-match a product named "Product ...".
func extractDimension(lower string) (models.Dimension, string) {
	if m := wiseDimRe.FindStringSubmatch(lower); m != nil {
		if d, ok := dimensionKeywords[m[1]]; ok {
			return d, strings.Replace(lower, m[0], " ", 1)
		}
	}
	for _, m := range byDimRe.FindAllStringSubmatch(lower, -1) {
		if d, ok := dimensionKeywords[m[1]]; ok {
			return d, strings.Replace(lower, m[0], " ", 1)
		}
	}
	return models.DimensionNone, lower
}

// refine runs the classifier over the masked text and merges its
// verdict into the rule result. The merge is guarded: an exact-phrase
// product match is locked and the classifier cannot change it; fuzzy
// ambiguity may be settled to a single catalog-known ID. Any
// classifier error leaves the rule result untouched.
func (r *Resolver) refine(ctx context.Context, text string, rule ruleResult) ruleResult {
	if r.classifier == nil {
		return rule
	}

	hints := Hints{
		Metric:    string(rule.metric),
		Dimension: string(rule.dimension),
	}
	if rule.timeRange != nil {
		hints.TimeStart = rule.timeRange.StartLabel
		hints.TimeEnd = rule.timeRange.EndLabel
	}
	for _, id := range rule.exactIDs {
		hints.Candidates = append(hints.Candidates, CandidateHint{ID: id, Name: r.catalog.Name(id), Exact: true})
	}
	for _, m := range rule.fuzzy {
		hints.Candidates = append(hints.Candidates, CandidateHint{ID: m.ID, Name: m.Name, Score: m.Score})
	}
	if r.Distinct != nil && rule.dimension != models.DimensionNone {
		if col, ok := sqlgen.DimensionColumn(rule.dimension); ok {
			if vals, err := r.Distinct.Values(ctx, col); err == nil && len(vals) > 0 {
				hints.ColumnValues = map[string][]string{col: vals}
			}
		}
	}

	verdict, err := r.classifier.Classify(ctx, masking.RedactText(text), hints)
	if err != nil {
		r.logger.Warn("classifier unavailable, using rule-based result", map[string]interface{}{
			"error": err.Error(),
		})
		if r.OnFallback != nil {
			r.OnFallback()
		}
		return rule
	}

	if verdict.Intent == string(KindFeedback) {
		// Treated as a question anyway: stage one already ruled out
		// the obvious feedback phrasings, and a metric query
		// misclassified as feedback would otherwise vanish.
		r.logger.Debug("ignoring late feedback classification", nil)
	}

	if m := models.Metric(verdict.Metric); m.Valid() && verdict.Metric != "" && !rule.metricStated {
		rule.metric = m
		rule.metricStated = true
	}
	if d := models.Dimension(verdict.Dimension); d.Valid() && d != models.DimensionNone && rule.dimension == models.DimensionNone {
		rule.dimension = d
	}
	if verdict.OnlineOnly {
		rule.onlineOnly = true
	}

	// Product merge. Exact matches are locked; otherwise accept the
	// classifier's single best guess when the catalog knows it.
	if len(rule.exactIDs) == 0 && len(verdict.Products) == 1 && r.catalog.Known(verdict.Products[0]) {
		rule.exactIDs = verdict.Products
		rule.fuzzy = nil
	}

	if verdict.Confidence > rule.confidence {
		rule.confidence = verdict.Confidence
	}
	if verdict.Explanation != "" {
		rule.explanation = verdict.Explanation
	}
	return rule
}

// interpretable reports whether anything in the text reads as an
// analytics question: a stated metric, a question word, or any
// concrete entity the rules recognized.
func (rr ruleResult) interpretable() bool {
	return rr.metricStated ||
		rr.looksQuestion ||
		len(rr.exactIDs) > 0 ||
		len(rr.fuzzy) > 0 ||
		rr.timeRange != nil ||
		rr.dimension != models.DimensionNone
}

// toIntent finalizes the merged result. Multiple fuzzy candidates with
// no exact match yield an ambiguous intent carrying clarification
// options.
func (rr ruleResult) toIntent(cat *catalog.Catalog) *models.ResolvedIntent {
	intent := &models.ResolvedIntent{
		Metric:      rr.metric,
		GroupBy:     rr.dimension,
		OnlineOnly:  rr.onlineOnly,
		Confidence:  rr.confidence,
		Explanation: rr.explanation,
	}
	if rr.timeRange != nil {
		intent.TimeRange = &models.TimeRange{
			StartLabel: rr.timeRange.StartLabel,
			EndLabel:   rr.timeRange.EndLabel,
		}
	}

	switch {
	case len(rr.exactIDs) == 1:
		intent.ProductIDs = rr.exactIDs
	case len(rr.exactIDs) > 1:
		// Two distinct products both exact-matched. The user must pick
		// one before SQL generation.
		intent.Ambiguous = true
		intent.ProductIDs = rr.exactIDs
		for _, id := range rr.exactIDs {
			intent.ClarificationOptions = append(intent.ClarificationOptions, cat.Name(id))
		}
	case len(rr.fuzzy) == 1:
		intent.ProductIDs = []int{rr.fuzzy[0].ID}
	case len(rr.fuzzy) > 1:
		intent.Ambiguous = true
		for i, m := range rr.fuzzy {
			if i == maxClarifications {
				break
			}
			intent.ProductIDs = append(intent.ProductIDs, m.ID)
			intent.ClarificationOptions = append(intent.ClarificationOptions, m.Name)
		}
	}
	return intent
}

const maxClarifications = 5

func isFeedback(lower string) bool {
	for _, p := range feedbackPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
