package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Wedding dates appear in three common shapes: "06/14/2026" (US numeric),
// "June 14, 2026", and "14 June 2026". ISO dates show up in JSON-LD and
// time[datetime] attributes.
var (
	isoDateRe        = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})`)
	numericDateRe    = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`)
	monthDayYearRe   = regexp.MustCompile(`(?i)\b(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|jun(?:e)?|jul(?:y)?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})\b`)
	dayMonthYearRe   = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|jun(?:e)?|jul(?:y)?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?\s+(\d{4})\b`)
)

var monthsByPrefix = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// ParseDate finds the first plausible date in s and returns it as
// YYYY-MM-DD. Implausible dates (outside the booking window, impossible
// day-of-month) are skipped so a stray copyright year or an old blog date
// cannot become the wedding date.
func ParseDate(s string) (string, bool) {
	if m := isoDateRe.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if iso, ok := validDate(year, time.Month(month), day); ok {
			return iso, true
		}
	}

	if m := numericDateRe.FindStringSubmatch(s); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if iso, ok := validDate(year, time.Month(month), day); ok {
			return iso, true
		}
	}

	if m := monthDayYearRe.FindStringSubmatch(s); m != nil {
		month := monthFromName(m[1])
		day, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if iso, ok := validDate(year, month, day); ok {
			return iso, true
		}
	}

	if m := dayMonthYearRe.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		month := monthFromName(m[2])
		year, _ := strconv.Atoi(m[3])
		if iso, ok := validDate(year, month, day); ok {
			return iso, true
		}
	}

	return "", false
}

// NormalizeDate returns the ISO form of a date string in any supported
// format, or the input unchanged when nothing parses.
func NormalizeDate(s string) string {
	if iso, ok := ParseDate(s); ok {
		return iso
	}
	return s
}

// PlausibleWeddingDate reports whether an ISO date falls in the window a
// live wedding site would carry: one year back (recently married couples
// keep sites up) through five years ahead.
func PlausibleWeddingDate(iso string) bool {
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return false
	}
	now := time.Now()
	return t.After(now.AddDate(-1, 0, 0)) && t.Before(now.AddDate(5, 0, 0))
}

func validDate(year int, month time.Month, day int) (string, bool) {
	if month < time.January || month > time.December || day < 1 || day > 31 {
		return "", false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (Feb 30 becomes Mar 2); reject those.
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return "", false
	}
	iso := fmt.Sprintf("%04d-%02d-%02d", year, int(month), day)
	if !PlausibleWeddingDate(iso) {
		return "", false
	}
	return iso, true
}

func monthFromName(name string) time.Month {
	name = strings.ToLower(name)
	if len(name) > 3 {
		name = name[:3]
	}
	return monthsByPrefix[name]
}
