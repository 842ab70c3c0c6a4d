package deribit

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/marketfeed/internal/domain"
)

// expiryHourUTC is the hour of day at which Deribit options settle.
const expiryHourUTC = 8

// Instrument is a parsed option instrument name such as
// "BTC-27JUN25-100000-C".
type Instrument struct {
	Underlying string
	Expiry     time.Time
	Strike     float64
	Type       domain.OptionType
}

var monthTokens = map[string]time.Month{
	"JAN": time.January, "FEB": time.February, "MAR": time.March,
	"APR": time.April, "MAY": time.May, "JUN": time.June,
	"JUL": time.July, "AUG": time.August, "SEP": time.September,
	"OCT": time.October, "NOV": time.November, "DEC": time.December,
}

var letterExpiryRe = regexp.MustCompile(`^(\d{1,2})([A-Z]{3})(\d{2})$`)

// ParseInstrument splits a Deribit option name into underlying, expiry,
// strike and type. Futures, perpetuals and combo symbols fail with an error.
func ParseInstrument(name string) (Instrument, error) {
	// Unified symbols look like "BTC/USD:BTC-27JUN25-100000-C"; keep the
	// exchange-native part after the colon.
	if i := strings.LastIndexByte(name, ':'); i >= 0 {
		name = name[i+1:]
	}

	parts := strings.Split(name, "-")
	if len(parts) < 4 {
		return Instrument{}, fmt.Errorf("deribit: not an option instrument: %q", name)
	}

	expiry, err := ParseExpiryToken(parts[1])
	if err != nil {
		return Instrument{}, fmt.Errorf("deribit: instrument %q: %w", name, err)
	}

	strike, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return Instrument{}, fmt.Errorf("deribit: instrument %q: bad strike %q", name, parts[2])
	}

	var typ domain.OptionType
	switch strings.ToUpper(parts[3]) {
	case "C":
		typ = domain.OptionCall
	case "P":
		typ = domain.OptionPut
	default:
		return Instrument{}, fmt.Errorf("deribit: instrument %q: bad option letter %q", name, parts[3])
	}

	return Instrument{
		Underlying: parts[0],
		Expiry:     expiry,
		Strike:     strike,
		Type:       typ,
	}, nil
}

// ParseExpiryToken decodes the expiry segment of an instrument name. Two
// encodings exist in the wild: a letter month ("27JUN25", "4JUL25") and a
// compact numeric yymmdd form ("250627", zero-padded when the year segment
// drops a leading zero).
func ParseExpiryToken(token string) (time.Time, error) {
	if m := letterExpiryRe.FindStringSubmatch(token); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, ok := monthTokens[m[2]]
		if !ok {
			return time.Time{}, fmt.Errorf("bad expiry month %q", m[2])
		}
		year, _ := strconv.Atoi(m[3])
		return time.Date(2000+year, month, day, expiryHourUTC, 0, 0, 0, time.UTC), nil
	}

	if n := len(token); n == 5 || n == 6 {
		if _, err := strconv.Atoi(token); err == nil {
			if n == 5 {
				token = "0" + token
			}
			year, _ := strconv.Atoi(token[:2])
			month, _ := strconv.Atoi(token[2:4])
			day, _ := strconv.Atoi(token[4:6])
			if month < 1 || month > 12 || day < 1 || day > 31 {
				return time.Time{}, fmt.Errorf("bad numeric expiry %q", token)
			}
			return time.Date(2000+year, time.Month(month), day, expiryHourUTC, 0, 0, 0, time.UTC), nil
		}
	}

	return time.Time{}, fmt.Errorf("unparseable expiry token %q", token)
}
