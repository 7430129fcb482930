package recency

import (
	"testing"
	"time"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	seoul := time.FixedZone("KST", 9*60*60)
	now := time.Date(2024, time.March, 10, 15, 0, 0, 0, seoul)

	cases := []struct {
		raw  string
		want string
	}{
		{"2024-03-05", "2024-03-05"},
		{"2024.3.5", "2024-03-05"},
		{"2024/03/05 12:00", "2024-03-05"},
		{"2024-03-05T23:10:00.000Z", "2024-03-05"},
		{"2024년 3월 5일", "2024-03-05"},
		{"2024년3월5일", "2024-03-05"},
		{"March 5, 2024", "2024-03-05"},
		{"Sep 30 2023", "2023-09-30"},
		{"3일 전", "2024-03-07"},
		{"3 days ago", "2024-03-07"},
		{"2주 전", "2024-02-25"},
		{"1 week ago", "2024-03-03"},
		{"오늘", "2024-03-10"},
		{"방금 전", "2024-03-10"},
		{"어제", "2024-03-09"},
		{"yesterday", "2024-03-09"},
		{"그제", "2024-03-08"},
		{"day before yesterday", "2024-03-08"},
		{"5시간 전", "2024-03-10"},
		{"30분 전", "2024-03-10"},
		{"2 hours ago", "2024-03-10"},
		{"", ""},
		{"not a date", ""},
		{"2024-02-31", ""},
		{"2024-13-01", ""},
		{"99999999999999999999일 전", ""},
		{"9999999999999 hours ago", ""},
		{"36501 days ago", ""},
		{"36500 days ago", "1924-04-04"},
	}

	for _, tc := range cases {
		if got := normalized(tc.raw, now); got != tc.want {
			t.Fatalf("normalized(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestNormalizeRelativeHoursCrossMidnight(t *testing.T) {
	t.Parallel()

	seoul := time.FixedZone("KST", 9*60*60)
	now := time.Date(2024, time.March, 10, 1, 30, 0, 0, seoul)

	if got := normalized("3시간 전", now); got != "2024-03-09" {
		t.Fatalf("expected previous day, got %q", got)
	}
	if got := normalized("90 minutes ago", now); got != "2024-03-10" {
		t.Fatalf("expected same day, got %q", got)
	}
	if got := normalized("91분 전", now); got != "2024-03-09" {
		t.Fatalf("expected previous day, got %q", got)
	}
}

func TestNormalizeNeverAfterNow(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	limit := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)
	for _, raw := range []string{"2024-03-05", "2024년 3월 5일", "3일 전"} {
		d, ok := Normalize(raw, now)
		if !ok {
			t.Fatalf("%q did not normalize", raw)
		}
		if d.After(limit) {
			t.Fatalf("%q normalized after now: %s", raw, d)
		}
	}
}

func normalized(raw string, now time.Time) string {
	d, ok := Normalize(raw, now)
	if !ok {
		return ""
	}
	return d.Format(DateLayout)
}

func TestNormalizeRejectsOverflowingOffsets(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	for _, raw := range []string{
		"99999999999999999999일 전",
		"9999999999999 hours ago",
		"9999999999999999999분 전",
		"999999 weeks ago",
	} {
		if d, ok := Normalize(raw, now); ok {
			t.Fatalf("%q normalized to %s, want none", raw, d.Format(DateLayout))
		}
	}
}
