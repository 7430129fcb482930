package parser

import (
	"context"
	"errors"
	"testing"
	"time"

	"BlogIngest/internal/domain"
)

const testProfile = "https://velog.io/@dev/posts"

func seedProfile(fb *fakeBrowser, n int, extra string, empty map[int]bool) []string {
	all := slugs("post", n)
	fb.site(testProfile, profileHTML("dev", all[:n/2], extra), profileHTML("dev", all, extra))
	for i, slug := range all {
		body := "<p>body of " + slug + "</p>"
		if empty[i] {
			body = ""
		}
		html := postHTML(slug, body, "2024-03-05")
		if empty[i] {
			html = `<html><body></body></html>`
		}
		fb.site("https://velog.io/@dev/"+slug, html)
	}
	return all
}

func TestVelogCrawlerCrawl(t *testing.T) {
	t.Parallel()

	fb := newFakeBrowser()
	all := seedProfile(fb, 10, "", map[int]bool{3: true, 7: true})

	res, err := NewVelogCrawler(fb, testCrawlerConfig(), nil).Crawl(context.Background(), testProfile)
	if err != nil {
		t.Fatalf("Crawl error: %v", err)
	}

	if res.Source != domain.SourceVelog || res.Handle != "dev" {
		t.Fatalf("unexpected header %+v", res)
	}
	if len(res.Posts) != 8 {
		t.Fatalf("expected 8 posts after dropping empty bodies, got %d", len(res.Posts))
	}
	if res.TotalPostCount != 8 {
		t.Fatalf("expected total to fall back to fetched posts, got %d", res.TotalPostCount)
	}

	want := make([]string, 0, 8)
	for i, slug := range all {
		if i != 3 && i != 7 {
			want = append(want, "https://velog.io/@dev/"+slug)
		}
	}
	for i, p := range res.Posts {
		if p.URL != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], p.URL)
		}
		if p.ContentHash != domain.ContentHash(p.BodyText, p.URL) {
			t.Fatalf("hash mismatch for %s", p.URL)
		}
	}

	if opened, closed, _ := fb.counts(); opened != closed || opened != 11 {
		t.Fatalf("expected 11 pages opened and closed, got %d/%d", opened, closed)
	}
}

func TestVelogCrawlerPrefersAuthoritativeCount(t *testing.T) {
	t.Parallel()

	fb := newFakeBrowser()
	seedProfile(fb, 4, `<ul><li><a href="/@dev">전체보기 (97)</a></li></ul>`, nil)

	res, err := NewVelogCrawler(fb, testCrawlerConfig(), nil).Crawl(context.Background(), testProfile)
	if err != nil {
		t.Fatalf("Crawl error: %v", err)
	}
	if res.TotalPostCount != 97 {
		t.Fatalf("expected authoritative 97, got %d", res.TotalPostCount)
	}
	if len(res.Posts) != 4 {
		t.Fatalf("expected 4 posts, got %d", len(res.Posts))
	}
}

func TestVelogCrawlerSwallowsPostFailures(t *testing.T) {
	t.Parallel()

	fb := newFakeBrowser()
	all := seedProfile(fb, 5, "", nil)
	delete(fb.sites, "https://velog.io/@dev/"+all[1])
	fb.sites["https://velog.io/@dev/"+all[2]].navFailures = 10

	res, err := NewVelogCrawler(fb, testCrawlerConfig(), nil).Crawl(context.Background(), testProfile)
	if err != nil {
		t.Fatalf("Crawl error: %v", err)
	}
	if len(res.Posts) != 3 {
		t.Fatalf("expected 3 surviving posts, got %d", len(res.Posts))
	}
}

func TestVelogCrawlerFatalErrors(t *testing.T) {
	t.Parallel()

	fb := newFakeBrowser()
	seedProfile(fb, 3, "", nil)
	fb.sites[testProfile].navFailures = 10

	_, err := NewVelogCrawler(fb, testCrawlerConfig(), nil).Crawl(context.Background(), testProfile)
	if !errors.Is(err, domain.ErrNavigation) {
		t.Fatalf("expected navigation error, got %v", err)
	}

	broken := newFakeBrowser()
	broken.launchErr = errors.New("chrome not found")
	if _, err := NewVelogCrawler(broken, testCrawlerConfig(), nil).Crawl(context.Background(), testProfile); err == nil {
		t.Fatalf("expected launch error")
	}

	if _, err := NewVelogCrawler(fb, testCrawlerConfig(), nil).Crawl(context.Background(), "https://velog.io/"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for url without handle, got %v", err)
	}
}

func TestVelogCrawlerConcurrencyCap(t *testing.T) {
	t.Parallel()

	fb := newFakeBrowser()
	fb.delay = 5 * time.Millisecond
	seedProfile(fb, 12, "", nil)

	cfg := testCrawlerConfig()
	cfg.MaxConcurrency = 2

	res, err := NewVelogCrawler(fb, cfg, nil).Crawl(context.Background(), testProfile)
	if err != nil {
		t.Fatalf("Crawl error: %v", err)
	}
	if len(res.Posts) != 12 {
		t.Fatalf("expected 12 posts, got %d", len(res.Posts))
	}
	if _, _, peak := fb.counts(); peak > 2 {
		t.Fatalf("expected at most 2 concurrent pages, saw %d", peak)
	}
}

func TestVelogCrawlerCancelledIsAnError(t *testing.T) {
	t.Parallel()

	fb := newFakeBrowser()
	seedProfile(fb, 6, "", nil)

	cfg := testCrawlerConfig()
	cfg.Pause = 200 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	res, err := NewVelogCrawler(fb, cfg, nil).Crawl(ctx, testProfile)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got err=%v posts=%d total=%d", err, len(res.Posts), res.TotalPostCount)
	}
	if len(res.Posts) != 0 || res.TotalPostCount != 0 {
		t.Fatalf("cancelled crawl must not carry a partial result: %+v", res)
	}
	if opened, closed, _ := fb.counts(); opened != closed {
		t.Fatalf("pages leaked: opened %d closed %d", opened, closed)
	}
}
