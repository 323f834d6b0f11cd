package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveExact_SingleProduct(t *testing.T) {
	c := Default()

	tests := []struct {
		name string
		text string
		want []int
	}{
		{
			name: "full alias phrase",
			text: "marine insurance bookings this month",
			want: []int{13},
		},
		{
			name: "short alias deduplicates with long alias",
			text: "show marine insurance and marine numbers",
			want: []int{13},
		},
		{
			name: "alias respects word boundaries",
			text: "bonfire leads today",
			want: nil,
		},
		{
			name: "short alias inside longer phrase",
			text: "fire extinguisher sales",
			want: []int{5},
		},
		{
			name: "no product named",
			text: "how many leads did we get",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.ResolveExact(tt.text))
		})
	}
}

func TestResolveExact_MultipleProductsKeepDeclarationOrder(t *testing.T) {
	c := Default()

	ids := c.ResolveExact("compare fire insurance with marine insurance")
	assert.Equal(t, []int{5, 13}, ids)
}

func TestResolveFuzzy_RanksByScore(t *testing.T) {
	c := Default()

	matches := c.ResolveFuzzy("group health numbers for last week")
	require.NotEmpty(t, matches)

	assert.Equal(t, 1, matches[0].ID)
	assert.Equal(t, "Group Health Insurance", matches[0].Name)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-9)

	// Every later candidate scores no higher than the leader.
	for _, m := range matches[1:] {
		assert.LessOrEqual(t, m.Score, matches[0].Score)
	}
}

func TestResolveFuzzy_TiesPreserveDeclarationOrder(t *testing.T) {
	c := Default()

	matches := c.ResolveFuzzy("indemnity report please")
	require.GreaterOrEqual(t, len(matches), 2)

	assert.Equal(t, 14, matches[0].ID)
	assert.Equal(t, 20, matches[1].ID)
	assert.Equal(t, matches[0].Score, matches[1].Score)
}

func TestResolveFuzzy_NoSignal(t *testing.T) {
	c := Default()

	assert.Empty(t, c.ResolveFuzzy("hello there"))
	assert.Empty(t, c.ResolveFuzzy(""))
}

func TestNew_RejectsSharedExactAlias(t *testing.T) {
	_, err := New([]Entry{
		{ID: 1, Name: "First", Aliases: []string{"shared phrase"}},
		{ID: 2, Name: "Second", Aliases: []string{"Shared Phrase"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shared phrase")
}

func TestNew_AllowsSubstringOverlapAcrossProducts(t *testing.T) {
	// "fire" (5) is a substring of "standard fire special perils" (112);
	// substring overlap across products is allowed, only exact
	// duplicates are rejected.
	c, err := New(defaultEntries)
	require.NoError(t, err)
	assert.True(t, c.Known(5))
	assert.True(t, c.Known(112))
}

func TestName(t *testing.T) {
	c := Default()
	assert.Equal(t, "Marine Insurance", c.Name(13))
	assert.Equal(t, "", c.Name(9999))
}
