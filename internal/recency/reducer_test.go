package recency

import (
	"strings"
	"testing"
	"time"

	"BlogIngest/internal/domain"
)

func fixedReducer(now time.Time) Reducer {
	return Reducer{
		WindowDays: 30,
		MaxTextLen: 10,
		Location:   time.UTC,
		Now:        func() time.Time { return now },
	}
}

func TestHalveRecent(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw, total, want int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{2, 10, 1},
		{3, 10, 2},
		{4, 8, 2},
		{9, 10, 5},
		{9, 3, 3},
		{5, 0, 0},
	}
	for _, tc := range cases {
		if got := HalveRecent(tc.raw, tc.total); got != tc.want {
			t.Fatalf("HalveRecent(%d, %d) = %d, want %d", tc.raw, tc.total, got, tc.want)
		}
	}
}

func TestReduce(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC)
	posts := []domain.PostRecord{
		{URL: "u1", Title: "Fresh", BodyText: "body one", PublishedAtRaw: "2024-03-09"},
		{URL: "u2", Title: "Long", BodyText: "abcdefghijklmnop", PublishedAtRaw: "3일 전"},
		{URL: "u3", Title: "Edge", BodyText: "edge", PublishedAtRaw: "2024-02-09"},
		{URL: "u4", Title: "Old", BodyText: "old", PublishedAtRaw: "2024-02-08"},
		{URL: "u5", Title: "Undated", BodyText: "nodate", PublishedAtRaw: "sometime"},
		{URL: "u6", Title: "Empty", BodyText: "   ", PublishedAtRaw: "2024-03-01"},
	}

	s := fixedReducer(now).Reduce(posts, 6)

	if s.RawRecent != 4 {
		t.Fatalf("expected 4 in-window posts, got %d", s.RawRecent)
	}
	if s.RecentCount != 2 {
		t.Fatalf("expected halved count 2, got %d", s.RecentCount)
	}

	blocks := strings.Split(s.ActivityText, BlockSeparator)
	if len(blocks) != 3 {
		t.Fatalf("expected 3 digest blocks, got %d: %q", len(blocks), s.ActivityText)
	}
	if blocks[0] != "2024-03-09 | [Fresh]\nbody one" {
		t.Fatalf("unexpected first block %q", blocks[0])
	}
	if blocks[1] != "2024-03-07 | [Long]\nabcdefghij" {
		t.Fatalf("body should be truncated, got %q", blocks[1])
	}
	if strings.Contains(s.ActivityText, "Old") || strings.Contains(s.ActivityText, "Undated") {
		t.Fatalf("out-of-window or undated post leaked into digest: %q", s.ActivityText)
	}
}

func TestReduceClampsToTotal(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC)
	var posts []domain.PostRecord
	for i := 0; i < 6; i++ {
		posts = append(posts, domain.PostRecord{BodyText: "x", PublishedAtRaw: "오늘"})
	}

	s := fixedReducer(now).Reduce(posts, 2)
	if s.RecentCount != 2 {
		t.Fatalf("expected clamp to total 2, got %d", s.RecentCount)
	}
}

func TestReduceUsesConfiguredZone(t *testing.T) {
	t.Parallel()

	seoul := time.FixedZone("KST", 9*60*60)
	// 20:00 UTC on the 9th is already the 10th in Seoul.
	now := time.Date(2024, time.March, 9, 20, 0, 0, 0, time.UTC)
	r := Reducer{WindowDays: 0, Location: seoul, Now: func() time.Time { return now }}

	s := r.Reduce([]domain.PostRecord{{BodyText: "b", PublishedAtRaw: "2024-03-10"}}, 1)
	if s.RawRecent != 1 {
		t.Fatalf("expected post dated today in Seoul to count, got %d", s.RawRecent)
	}

	r.Location = time.UTC
	s = r.Reduce([]domain.PostRecord{{BodyText: "b", PublishedAtRaw: "2024-03-08"}}, 1)
	if s.RawRecent != 0 {
		t.Fatalf("expected zero-day window in UTC to exclude the 8th, got %d", s.RawRecent)
	}
}

func TestDigest(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC)
	result := domain.CrawlResult{
		Source:         domain.SourceVelog,
		Posts:          []domain.PostRecord{{Title: "T", BodyText: "b", PublishedAtRaw: "어제"}},
		TotalPostCount: 12,
	}

	d := fixedReducer(now).Digest("https://velog.io/@dev/posts", result)
	if d.Source != "velog" || d.BaseURL != "https://velog.io/@dev/posts" {
		t.Fatalf("unexpected digest header %+v", d)
	}
	if d.PostCount != 12 || d.RecentCount != 1 {
		t.Fatalf("unexpected counts %+v", d)
	}
	if d.RecentActivityText != "2024-03-09 | [T]\nb" {
		t.Fatalf("unexpected text %q", d.RecentActivityText)
	}
}
