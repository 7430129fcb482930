package recency

import (
	"strings"
	"time"

	"BlogIngest/internal/domain"
)

// BlockSeparator joins digest blocks.
const BlockSeparator = "\n---\n"

// Reducer turns crawled posts into the recency figures and activity text of a digest.
type Reducer struct {
	WindowDays int
	MaxTextLen int
	Location   *time.Location
	Now        func() time.Time
}

// Summary is the outcome of one reduction.
type Summary struct {
	RawRecent    int
	RecentCount  int
	ActivityText string
}

// Reduce counts recent posts and renders the activity text.
// totalPostCount caps the reported recent count.
func (r Reducer) Reduce(posts []domain.PostRecord, totalPostCount int) Summary {
	now := r.now()
	cutoff := dateOf(now).AddDate(0, 0, -r.WindowDays)

	var (
		raw    int
		blocks []string
	)
	for _, p := range posts {
		day, ok := Normalize(p.PublishedAtRaw, now)
		if !ok || day.Before(cutoff) {
			continue
		}
		raw++

		body := strings.TrimSpace(p.BodyText)
		if body == "" {
			continue
		}
		body = truncateRunes(body, r.MaxTextLen)
		block := day.Format(DateLayout) + " | [" + strings.TrimSpace(p.Title) + "]\n" + body
		blocks = append(blocks, strings.TrimSpace(block))
	}

	return Summary{
		RawRecent:    raw,
		RecentCount:  HalveRecent(raw, totalPostCount),
		ActivityText: strings.Join(blocks, BlockSeparator),
	}
}

// Digest assembles the downstream artifact for a crawl.
func (r Reducer) Digest(baseURL string, result domain.CrawlResult) domain.Digest {
	s := r.Reduce(result.Posts, result.TotalPostCount)
	source := result.Source
	if source == "" {
		source = domain.SourceVelog
	}
	return domain.Digest{
		Source:             source,
		BaseURL:            baseURL,
		PostCount:          result.TotalPostCount,
		RecentCount:        s.RecentCount,
		RecentActivityText: s.ActivityText,
	}
}

// HalveRecent deflates the raw in-window count to ceil(raw/2), never above total.
func HalveRecent(raw, total int) int {
	if raw <= 0 {
		return 0
	}
	halved := (raw + 1) / 2
	if total >= 0 && halved > total {
		return total
	}
	return halved
}

func (r Reducer) now() time.Time {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	loc := r.Location
	if loc == nil {
		loc = time.Local
	}
	return now().In(loc)
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
