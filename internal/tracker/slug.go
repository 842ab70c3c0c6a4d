// Package tracker samples prediction-market events into per-event database
// tables: hourly up-or-down slugs, discovered scalar interval events, Kalshi
// event tickers and the daily Deribit option-chain snapshot.
package tracker

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// etLocation is the exchange's wall clock for hourly market slugs.
var etLocation = mustLoadET()

func mustLoadET() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		panic("tracker: load America/New_York: " + err.Error())
	}
	return loc
}

var monthsByName = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
}

// hourSlugRe matches the "-july-25-3pm-et" tail of hourly up-or-down slugs.
var hourSlugRe = regexp.MustCompile(`(?i)-(?P<month>[a-z]+)-(?P<day>\d+)-(?P<hour>\d+)(?P<ampm>am|pm)-et$`)

// dateInSlugRe finds a "-july-25" style date fragment anywhere in a slug,
// with both full and abbreviated month names.
var dateInSlugRe = regexp.MustCompile(`(?i)-(?P<month>jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|jun(?:e)?|jul(?:y)?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)-(?P<day>\d{1,2})`)

var monthAbbrevs = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// HourlySlugs returns the up-or-down event slugs for the hour containing
// now, e.g. "bitcoin-up-or-down-july-25-3pm-et".
func HourlySlugs(now time.Time) []string {
	et := now.In(etLocation)

	h12 := et.Hour() % 12
	if h12 == 0 {
		h12 = 12
	}
	ampm := "am"
	if et.Hour() >= 12 {
		ampm = "pm"
	}

	frag := fmt.Sprintf("%s-%d-%d%s-et",
		strings.ToLower(et.Month().String()), et.Day(), h12, ampm)

	return []string{
		"bitcoin-up-or-down-" + frag,
		"ethereum-up-or-down-" + frag,
	}
}

// ExpiryFromHourlySlug derives an hourly event's expiry when the API has not
// served one yet: the top of the next ET hour after the one named in the
// slug, converted to UTC. Slugs without the expected tail fall back to one
// hour from now.
func ExpiryFromHourlySlug(slug string, now time.Time) time.Time {
	m := hourSlugRe.FindStringSubmatch(slug)
	if m == nil {
		return now.UTC().Add(time.Hour)
	}

	month, ok := monthsByName[strings.ToLower(m[1])]
	if !ok {
		month = time.January
	}
	day, _ := strconv.Atoi(m[2])
	h12, _ := strconv.Atoi(m[3])

	h24 := h12 % 12
	if strings.EqualFold(m[4], "pm") {
		h24 += 12
	}

	year := now.In(etLocation).Year()
	expiryET := time.Date(year, month, day, (h24+1)%24, 0, 0, 0, etLocation)
	return expiryET.UTC()
}

// ExpiryFromSlugDate falls back to a slug-embedded date when an event carries
// no parseable end time, treating the event as open until the end of that UTC
// day. The bool is false when the slug has no date fragment or the date is
// not in the future.
func ExpiryFromSlugDate(slug string, now time.Time) (time.Time, bool) {
	m := dateInSlugRe.FindStringSubmatch(slug)
	if m == nil {
		return time.Time{}, false
	}

	month, ok := monthAbbrevs[strings.ToLower(m[1])[:3]]
	if !ok {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(m[2])
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, false
	}

	expiry := time.Date(now.UTC().Year(), month, day, 23, 59, 59, 0, time.UTC)
	if !expiry.After(now) {
		return time.Time{}, false
	}
	return expiry, true
}
