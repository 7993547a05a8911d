// Package dateparse extracts meeting dates from free text and renders the
// display form used throughout the service.
//
// Extraction runs an ordered list of matchers, one per supported date-phrase
// shape. Each matcher owns a single compiled pattern and is attempted against
// the input in turn; the first one that yields a valid calendar date wins.
// Document text is matched strictly (weekday prefix or ordinal suffix
// required), query text tolerates a leading "on " and missing weekday/suffix.
package dateparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// ISODate is the wire layout for meeting dates in vector payloads and logs.
const ISODate = "2006-01-02"

// PlainDate is the display layout without an ordinal suffix, used in upload
// confirmations and meeting listings.
const PlainDate = "Monday 02 January, 2006"

var months = map[string]time.Month{
	"january":   time.January,
	"february":  time.February,
	"march":     time.March,
	"april":     time.April,
	"may":       time.May,
	"june":      time.June,
	"july":      time.July,
	"august":    time.August,
	"september": time.September,
	"october":   time.October,
	"november":  time.November,
	"december":  time.December,
}

// matcher couples one date-phrase shape with its pattern. Every pattern
// captures exactly three groups; their order is disambiguated in attempt.
type matcher struct {
	name string
	re   *regexp.Regexp
}

// documentMatchers recognize the strict forms expected inside meeting
// minutes, e.g. "Sunday 26th October, 2025".
var documentMatchers = []matcher{
	{
		name: "weekday-day-month-year",
		re:   regexp.MustCompile(`(?i)(?:Monday|Tuesday|Wednesday|Thursday|Friday|Saturday|Sunday)\s+(\d{1,2})(?:st|nd|rd|th)\s+(\w+),?\s+(\d{4})`),
	},
	{
		name: "day-month-year",
		re:   regexp.MustCompile(`(?i)(\d{1,2})(?:st|nd|rd|th)\s+(\w+),?\s+(\d{4})`),
	},
	{
		name: "month-day-year",
		re:   regexp.MustCompile(`(?i)(\w+)\s+(\d{1,2})(?:st|nd|rd|th),?\s+(\d{4})`),
	},
}

// queryMatchers accept the looser phrasing of user questions, e.g.
// "what was discussed on March 3rd, 2025?".
var queryMatchers = []matcher{
	{
		name: "on-weekday-day-month-year",
		re:   regexp.MustCompile(`(?i)(?:on\s+)?(?:Monday|Tuesday|Wednesday|Thursday|Friday|Saturday|Sunday)?\s*(\d{1,2})(?:st|nd|rd|th)?\s+(\w+),?\s+(\d{4})`),
	},
	{
		name: "day-month-year",
		re:   regexp.MustCompile(`(?i)(\d{1,2})(?:st|nd|rd|th)\s+(\w+),?\s+(\d{4})`),
	},
	{
		name: "month-day-year",
		re:   regexp.MustCompile(`(?i)(\w+)\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})`),
	},
}

// ExtractFromDocument scans document text for a meeting date using the
// strict matcher list. ok is false when no matcher produced a valid date;
// callers treat that as a validation failure, not an error.
func ExtractFromDocument(text string) (time.Time, bool) {
	return extract(text, documentMatchers)
}

// ExtractFromQuery scans a user query for a meeting date using the tolerant
// matcher list.
func ExtractFromQuery(text string) (time.Time, bool) {
	return extract(text, queryMatchers)
}

func extract(text string, matchers []matcher) (time.Time, bool) {
	for _, m := range matchers {
		if t, ok := m.attempt(text); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// attempt applies the matcher's pattern and interprets its first match.
// An unknown month name or an impossible day/month combination makes the
// matcher fail so the next shape gets its turn.
func (m matcher) attempt(text string) (time.Time, bool) {
	groups := m.re.FindStringSubmatch(text)
	if groups == nil {
		return time.Time{}, false
	}

	// Second group alphabetic means day-month-year, first group alphabetic
	// means month-day-year.
	var dayStr, monthName, yearStr string
	switch {
	case isAlpha(groups[2]):
		dayStr, monthName, yearStr = groups[1], groups[2], groups[3]
	case isAlpha(groups[1]):
		monthName, dayStr, yearStr = groups[1], groups[2], groups[3]
	default:
		return time.Time{}, false
	}

	month, ok := months[strings.ToLower(monthName)]
	if !ok {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(dayStr)
	if err != nil {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return time.Time{}, false
	}

	return makeDate(year, month, day)
}

// makeDate builds the date and rejects combinations that time.Date would
// silently normalize, such as February 30th.
func makeDate(year int, month time.Month, day int) (time.Time, bool) {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// Format renders the display form of a meeting date with its ordinal
// suffix, e.g. "Sunday 26th October, 2025". The day keeps its two-digit
// padding to match the stored payload strings.
func Format(t time.Time) string {
	return fmt.Sprintf("%s %02d%s %s, %d", t.Weekday(), t.Day(), ordinalSuffix(t.Day()), t.Month(), t.Year())
}

// ordinalSuffix returns st/nd/rd/th for a day of month. Days 11 through 13
// take "th" regardless of their last digit.
func ordinalSuffix(day int) string {
	if day >= 11 && day <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}
