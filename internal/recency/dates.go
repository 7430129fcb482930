package recency

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the textual form of a normalized date.
const DateLayout = "2006-01-02"

// maxOffsetDays caps relative phrases at roughly a century.
const maxOffsetDays = 36500

var (
	numericDate = regexp.MustCompile(`(\d{4})[.\-/]\s*(\d{1,2})[.\-/]\s*(\d{1,2})`)
	koreanDate  = regexp.MustCompile(`(\d{4})\s*년\s*(\d{1,2})\s*월\s*(\d{1,2})\s*일?`)
	englishDate = regexp.MustCompile(`(?i)\b([a-z]{3,9})\.?\s+(\d{1,2}),?\s+(\d{4})\b`)

	daysAgo    = regexp.MustCompile(`(?i)(\d+)\s*(?:일\s*전|days?\s+ago)`)
	weeksAgo   = regexp.MustCompile(`(?i)(\d+)\s*(?:주\s*전|weeks?\s+ago)`)
	hoursAgo   = regexp.MustCompile(`(?i)(\d+)\s*(?:시간\s*전|hours?\s+ago|hrs?\s+ago)`)
	minutesAgo = regexp.MustCompile(`(?i)(\d+)\s*(?:분\s*전|minutes?\s+ago|mins?\s+ago)`)
)

// specialWords is ordered so longer phrases win over their substrings.
var specialWords = []struct {
	word   string
	offset int
}{
	{"day before yesterday", -2},
	{"그저께", -2},
	{"그제", -2},
	{"yesterday", -1},
	{"어제", -1},
	{"today", 0},
	{"just now", 0},
	{"오늘", 0},
	{"방금", 0},
}

var monthNames = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

// Normalize converts a raw publish string into a calendar date.
// now must already be in the digest timezone; relative phrases are resolved against it.
// The returned time is midnight UTC of the calendar date.
func Normalize(raw string, now time.Time) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}

	if m := numericDate.FindStringSubmatch(s); m != nil {
		return civil(m[1], m[2], m[3])
	}
	if m := koreanDate.FindStringSubmatch(s); m != nil {
		return civil(m[1], m[2], m[3])
	}
	if m := englishDate.FindStringSubmatch(s); m != nil {
		if month, ok := lookupMonth(m[1]); ok {
			return civil(m[3], strconv.Itoa(int(month)), m[2])
		}
	}

	today := dateOf(now)
	lower := strings.ToLower(s)
	for _, sw := range specialWords {
		if strings.Contains(lower, sw.word) {
			return today.AddDate(0, 0, sw.offset), true
		}
	}

	if m := daysAgo.FindStringSubmatch(s); m != nil {
		n, ok := bounded(m[1], maxOffsetDays)
		if !ok {
			return time.Time{}, false
		}
		return today.AddDate(0, 0, -n), true
	}
	if m := weeksAgo.FindStringSubmatch(s); m != nil {
		n, ok := bounded(m[1], maxOffsetDays/7)
		if !ok {
			return time.Time{}, false
		}
		return today.AddDate(0, 0, -7*n), true
	}

	// Sub-day offsets are applied to the wall clock so they can cross midnight.
	if m := hoursAgo.FindStringSubmatch(s); m != nil {
		n, ok := bounded(m[1], maxOffsetDays*24)
		if !ok {
			return time.Time{}, false
		}
		return dateOf(now.Add(-time.Duration(n) * time.Hour)), true
	}
	if m := minutesAgo.FindStringSubmatch(s); m != nil {
		n, ok := bounded(m[1], maxOffsetDays*24*60)
		if !ok {
			return time.Time{}, false
		}
		return dateOf(now.Add(-time.Duration(n) * time.Minute)), true
	}

	return time.Time{}, false
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func civil(year, month, day string) (time.Time, bool) {
	y, okY := atoi(year)
	m, okM := atoi(month)
	d, okD := atoi(day)
	if !okY || !okM || !okD {
		return time.Time{}, false
	}
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Month() != time.Month(m) || t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

func lookupMonth(name string) (time.Month, bool) {
	name = strings.ToLower(name)
	if len(name) < 3 {
		return 0, false
	}
	m, ok := monthNames[name[:3]]
	return m, ok
}

func atoi(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// bounded parses a relative offset no larger than limit.
func bounded(s string, limit int) (int, bool) {
	n, ok := atoi(s)
	if !ok || n < 0 || n > limit {
		return 0, false
	}
	return n, true
}
