// Package interval parses free-text market titles into numeric price
// intervals. Titles like "Bitcoin price above $114k on July 25" carry the
// strike information only in prose, so tracking scalar markets means turning
// that prose into a (low, high) bound pair.
package interval

import (
	"regexp"
	"strconv"
	"strings"
)

// Suffix is a magnitude unit attached to a numeric token.
type Suffix int

const (
	SuffixNone Suffix = iota
	SuffixK
	SuffixM
	SuffixB
)

// Multiplier returns the factor the token magnitude is scaled by.
func (s Suffix) Multiplier() float64 {
	switch s {
	case SuffixK:
		return 1e3
	case SuffixM:
		return 1e6
	case SuffixB:
		return 1e9
	default:
		return 1
	}
}

// Token is a numeric literal extracted from a label.
type Token struct {
	Raw       string
	Magnitude float64
	Suffix    Suffix
}

// Value returns the token's dollar amount with the suffix applied.
func (t Token) Value() float64 {
	return t.Magnitude * t.Suffix.Multiplier()
}

// Interval is a parsed price range. A nil pointer means the bound is absent:
// only Low set means "greater than Low", only High set means "less than
// High", both set means a closed range with Low <= High, and Low == High is
// a point ("exactly this value"). Both nil means the label carried no
// recognizable number.
type Interval struct {
	Low  *float64
	High *float64
}

// IsEmpty reports whether no bound was recognized.
func (iv Interval) IsEmpty() bool {
	return iv.Low == nil && iv.High == nil
}

// IsPoint reports whether the interval is degenerate (both bounds set and
// equal). Callers must treat this differently from a true range.
func (iv Interval) IsPoint() bool {
	return iv.Low != nil && iv.High != nil && *iv.Low == *iv.High
}

// Options selects the optional direction keywords. The base keyword sets are
// shared by every collector; "dip" and "up to" appear only in some market
// families and are opt-in so the parser can replace each of the historical
// per-collector variants.
type Options struct {
	IncludeDipKeyword  bool
	IncludeUpToKeyword bool
}

var (
	// priceRe matches an optional dollar sign, a digit group with optional
	// thousands separators and decimal part, and an optional one-letter
	// magnitude suffix.
	priceRe = regexp.MustCompile(`\$?\s*(\d[\d,]*\.?\d*)([kKmMbB]?)\b`)

	// dateClauseRe matches the resolution-date tail many titles carry
	// ("... on July 25"), which must not be mistaken for a price.
	dateClauseRe = regexp.MustCompile(`(?i)\s+on\s+\w+\s+\d{1,2}`)
)

var (
	baseLowWords  = []string{"<", "less", "under", "below", "at most"}
	baseHighWords = []string{">", "greater", "above", "over", "at least"}
)

// Parser converts market labels into intervals. It is stateless after
// construction and safe for concurrent use.
type Parser struct {
	lowWords  []string
	highWords []string
}

// New creates a Parser with the given keyword options.
func New(opts Options) *Parser {
	low := append([]string(nil), baseLowWords...)
	high := append([]string(nil), baseHighWords...)
	if opts.IncludeDipKeyword {
		low = append(low, "dip")
	}
	if opts.IncludeUpToKeyword {
		high = append(high, "up to")
	}
	return &Parser{lowWords: low, highWords: high}
}

// Parse extracts the numeric interval implied by a market label. It is a
// total function: malformed input degrades to an empty interval, never an
// error.
func (p *Parser) Parse(label string) Interval {
	label = stripDateClause(label)
	ltxt := strings.ToLower(label)
	tokens := Tokens(label)

	low := containsAny(ltxt, p.lowWords)
	high := containsAny(ltxt, p.highWords)

	// Exactly one direction keyword set matching yields a one-sided bound
	// from the first number. Both or neither falls through to the numeric
	// cases; titles mentioning both directions are ambiguous and get no
	// special treatment.
	if len(tokens) > 0 && low && !high {
		v := tokens[0].Value()
		return Interval{High: &v}
	}
	if len(tokens) > 0 && high && !low {
		v := tokens[0].Value()
		return Interval{Low: &v}
	}

	switch {
	case len(tokens) >= 2:
		a, b := tokens[0].Value(), tokens[1].Value()
		if a > b {
			a, b = b, a
		}
		return Interval{Low: &a, High: &b}
	case len(tokens) == 1:
		v := tokens[0].Value()
		w := v
		return Interval{Low: &v, High: &w}
	default:
		return Interval{}
	}
}

// Tokens extracts every numeric token from the label, back-filling missing
// magnitude suffixes from the last explicit one. Range shorthand like
// "114-116k" omits the unit on the left number when both sides share it.
func Tokens(label string) []Token {
	matches := priceRe.FindAllStringSubmatch(label, -1)
	if len(matches) == 0 {
		return nil
	}

	last := SuffixNone
	for i := len(matches) - 1; i >= 0; i-- {
		if s := parseSuffix(matches[i][2]); s != SuffixNone {
			last = s
			break
		}
	}

	tokens := make([]Token, 0, len(matches))
	for _, m := range matches {
		mag, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err != nil {
			continue
		}
		suf := parseSuffix(m[2])
		if suf == SuffixNone {
			suf = last
		}
		tokens = append(tokens, Token{Raw: m[0], Magnitude: mag, Suffix: suf})
	}
	return tokens
}

// stripDateClause truncates the label at the first " on <word> <digits>"
// clause. Split-once semantics: only the first match cuts, so earlier text
// that happens to contain a similar phrase is not mangled twice.
func stripDateClause(label string) string {
	if loc := dateClauseRe.FindStringIndex(label); loc != nil {
		return label[:loc[0]]
	}
	return label
}

func parseSuffix(s string) Suffix {
	switch strings.ToLower(s) {
	case "k":
		return SuffixK
	case "m":
		return SuffixM
	case "b":
		return SuffixB
	default:
		return SuffixNone
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
