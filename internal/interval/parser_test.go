package interval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		label string
		want  Interval
	}{
		{
			name:  "empty string",
			label: "",
			want:  Interval{},
		},
		{
			name:  "no numeric content",
			label: "Will it rain tomorrow?",
			want:  Interval{},
		},
		{
			name:  "above with date suffix",
			label: "Bitcoin above $120,000 on July 4",
			want:  Interval{Low: f(120000)},
		},
		{
			name:  "below with suffix",
			label: "Bitcoin below $90k",
			want:  Interval{High: f(90000)},
		},
		{
			name:  "two numbers sorted",
			label: "Ethereum between $3,000 and $3,500",
			want:  Interval{Low: f(3000), High: f(3500)},
		},
		{
			name:  "two numbers out of order",
			label: "$3,500 to $3,000",
			want:  Interval{Low: f(3000), High: f(3500)},
		},
		{
			name:  "single number point interval",
			label: "Price hits exactly $50k",
			want:  Interval{Low: f(50000), High: f(50000)},
		},
		{
			name:  "suffix back-fill on range shorthand",
			label: "$114-116k",
			want:  Interval{Low: f(114000), High: f(116000)},
		},
		{
			name:  "greater than sign",
			label: "ETH > $4,000",
			want:  Interval{Low: f(4000)},
		},
		{
			name:  "less than sign",
			label: "ETH < $2,500",
			want:  Interval{High: f(2500)},
		},
		{
			name:  "at least",
			label: "Bitcoin at least $1.2m by year end",
			want:  Interval{Low: f(1200000)},
		},
		{
			name:  "at most",
			label: "Doge at most $5 on August 14",
			want:  Interval{High: f(5)},
		},
		{
			name:  "ambiguous both directions falls through to range",
			label: "Above $100k or below $80k",
			want:  Interval{Low: f(80000), High: f(100000)},
		},
		{
			name:  "ambiguous both directions single number",
			label: "Above or below $95k",
			want:  Interval{Low: f(95000), High: f(95000)},
		},
		{
			name:  "date clause stripped before number search",
			label: "Solana under $200 on September 1",
			want:  Interval{High: f(200)},
		},
		{
			name:  "billions suffix",
			label: "Market cap over $2b",
			want:  Interval{Low: f(2e9)},
		},
	}

	p := New(Options{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Parse(tt.label)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDirectionKeywordsAreSubstrings(t *testing.T) {
	p := New(Options{})

	// "under" appears inside "thunder"; substring matching is the documented
	// behavior inherited from the collectors this parser replaces.
	got := p.Parse("Thunder wins by $5")
	require.NotNil(t, got.High)
	assert.Equal(t, 5.0, *got.High)
	assert.Nil(t, got.Low)
}

func TestParseOptionalKeywords(t *testing.T) {
	base := New(Options{})
	full := New(Options{IncludeDipKeyword: true, IncludeUpToKeyword: true})

	// "dip" is only a LOW keyword when enabled.
	gotBase := base.Parse("Will Bitcoin dip to $60k?")
	require.NotNil(t, gotBase.Low)
	require.NotNil(t, gotBase.High)
	assert.Equal(t, 60000.0, *gotBase.Low)

	gotFull := full.Parse("Will Bitcoin dip to $60k?")
	assert.Nil(t, gotFull.Low)
	require.NotNil(t, gotFull.High)
	assert.Equal(t, 60000.0, *gotFull.High)

	// "up to" is only a HIGH keyword when enabled.
	gotBase = base.Parse("Will ETH go up to $5,000?")
	require.NotNil(t, gotBase.Low)
	require.NotNil(t, gotBase.High)

	gotFull = full.Parse("Will ETH go up to $5,000?")
	require.NotNil(t, gotFull.Low)
	assert.Nil(t, gotFull.High)
	assert.Equal(t, 5000.0, *gotFull.Low)
}

func TestParseSuffixCaseInsensitive(t *testing.T) {
	p := New(Options{})

	lower := p.Parse("$5k")
	upper := p.Parse("$5K")
	require.NotNil(t, lower.Low)
	require.NotNil(t, upper.Low)
	assert.Equal(t, *lower.Low, *upper.Low)
	assert.Equal(t, 5000.0, *upper.Low)
}

func TestParseIdempotent(t *testing.T) {
	p := New(Options{IncludeDipKeyword: true})
	labels := []string{
		"",
		"Bitcoin above $120,000 on July 4",
		"$114-116k",
		"garbage $$$ input ,,, 12",
	}
	for _, label := range labels {
		assert.Equal(t, p.Parse(label), p.Parse(label), "label %q", label)
	}
}

func TestParseBoundOrderingInvariant(t *testing.T) {
	p := New(Options{})
	labels := []string{
		"$3,500 to $3,000",
		"Ethereum between $3,000 and $3,500",
		"$116-114k",
		"exactly $50k",
	}
	for _, label := range labels {
		got := p.Parse(label)
		require.NotNil(t, got.Low, "label %q", label)
		require.NotNil(t, got.High, "label %q", label)
		assert.LessOrEqual(t, *got.Low, *got.High, "label %q", label)
	}
}

func TestTokens(t *testing.T) {
	tokens := Tokens("$114-116k range")
	require.Len(t, tokens, 2)
	assert.Equal(t, 114.0, tokens[0].Magnitude)
	assert.Equal(t, SuffixK, tokens[0].Suffix)
	assert.Equal(t, 114000.0, tokens[0].Value())
	assert.Equal(t, SuffixK, tokens[1].Suffix)
	assert.Equal(t, 116000.0, tokens[1].Value())

	// Explicit suffixes always win over the back-fill.
	tokens = Tokens("$2m to $3k")
	require.Len(t, tokens, 2)
	assert.Equal(t, 2e6, tokens[0].Value())
	assert.Equal(t, 3000.0, tokens[1].Value())

	assert.Empty(t, Tokens("no numbers here"))
}

func TestIntervalHelpers(t *testing.T) {
	assert.True(t, Interval{}.IsEmpty())
	assert.False(t, Interval{Low: f(1)}.IsEmpty())
	assert.True(t, Interval{Low: f(2), High: f(2)}.IsPoint())
	assert.False(t, Interval{Low: f(1), High: f(2)}.IsPoint())
	assert.False(t, Interval{Low: f(1)}.IsPoint())
}
