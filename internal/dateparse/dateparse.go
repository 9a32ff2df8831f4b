// Package dateparse normalizes the sheets' free-form date and time
// strings into canonical intervals.
//
// Parsing never fails: anything that cannot be understood degrades to
// the Sentinel instant, which every consumer checks through IsValid.
package dateparse

import (
	"regexp"
	"strings"
	"time"
)

// Sentinel marks a date that could not be parsed. Epoch zero lies
// outside the domain of any real event, so it can stand in for "no
// date" without a separate null case at every call site.
var Sentinel = time.Unix(0, 0).UTC()

// Interval is the canonical {start, end?} representation of an event's
// schedule. End is non-nil only when range syntax was detected in the
// source AND the end side parsed to a valid instant; a nil End on a
// valid Start means a single-occurrence event.
type Interval struct {
	Start time.Time
	End   *time.Time
}

// The two calendar-string shapes the sheet uses. The supplied time
// text is appended before parsing, so the layouts carry it too.
const (
	layoutNumeric = "2/1/2006 15:04"
	layoutNamed   = "2 Jan 2006 15:04"

	layoutISODate = "2006-01-02"

	rangeSep = " to "
)

// namedMonthRe detects the "13 Jun 2025" shape; anything else is tried
// as day/month/year first.
var namedMonthRe = regexp.MustCompile(`\d{1,2} [A-Za-z]{3} \d{4}`)

// IsValid reports whether t represents a real parsed instant rather
// than the sentinel (or a zero value).
func IsValid(t time.Time) bool {
	return !t.IsZero() && !t.Equal(Sentinel)
}

// Parse converts a raw (date, time) string pair into an Interval.
//
// A date containing the literal separator " to " (case-insensitive) is
// treated as a range; each side is format-detected and parsed
// independently, since the sheet mixes formats within one range. The
// single time text applies to both endpoints — a known simplification
// carried over from the source data model.
func Parse(dateText, timeText string) Interval {
	dateStr := strings.TrimSpace(dateText)
	timeStr := strings.TrimSpace(timeText)
	if dateStr == "" || timeStr == "" {
		return Interval{Start: Sentinel}
	}

	if idx := rangeSepIndex(dateStr); idx >= 0 {
		startStr := strings.TrimSpace(dateStr[:idx])
		endStr := strings.TrimSpace(dateStr[idx+len(rangeSep):])

		iv := Interval{Start: parseSingle(startStr, timeStr)}
		if end := parseSingle(endStr, timeStr); IsValid(end) {
			iv.End = &end
		}
		return iv
	}

	return Interval{Start: parseSingle(dateStr, timeStr)}
}

// ParseISODate parses a bare "2006-01-02" date as used by the presence
// sheet, degrading to Sentinel.
func ParseISODate(s string) time.Time {
	t, err := time.Parse(layoutISODate, strings.TrimSpace(s))
	if err != nil {
		return Sentinel
	}
	return t
}

// FormatDate renders an instant as e.g. "Fri, Jun 13, 2025".
func FormatDate(t time.Time) string {
	if !IsValid(t) {
		return "Invalid Date"
	}
	return t.Format("Mon, Jan 2, 2006")
}

// FormatTime renders an instant's time of day as e.g. "5:30 PM".
func FormatTime(t time.Time) string {
	if !IsValid(t) {
		return "Invalid Time"
	}
	return t.Format("3:04 PM")
}

// rangeSepIndex returns the byte offset of the first case-insensitive
// " to " separator, or -1.
func rangeSepIndex(s string) int {
	return strings.Index(strings.ToLower(s), rangeSep)
}

// parseSingle parses one date substring combined with the time text,
// detecting the primary layout and falling back to the alternate
// before giving up.
func parseSingle(dateStr, timeStr string) time.Time {
	primary, alternate := layoutNumeric, layoutNamed
	if namedMonthRe.MatchString(dateStr) {
		primary, alternate = layoutNamed, layoutNumeric
	}

	combined := dateStr + " " + timeStr
	if t, err := time.Parse(primary, combined); err == nil {
		return t
	}
	if t, err := time.Parse(alternate, combined); err == nil {
		return t
	}
	return Sentinel
}
