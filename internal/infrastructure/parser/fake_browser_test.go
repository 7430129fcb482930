package parser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"BlogIngest/internal/config"
	"BlogIngest/internal/infrastructure/browser"
)

// fakeSite scripts what a URL renders: snapshots[i] is the HTML after i scrolls.
type fakeSite struct {
	snapshots   []string
	navFailures int
}

type fakeBrowser struct {
	mu        sync.Mutex
	sites     map[string]*fakeSite
	launchErr error
	delay     time.Duration

	opened int
	closed int
	active int
	peak   int
}

func newFakeBrowser() *fakeBrowser {
	return &fakeBrowser{sites: map[string]*fakeSite{}}
}

func (b *fakeBrowser) site(url string, snapshots ...string) *fakeSite {
	s := &fakeSite{snapshots: snapshots}
	b.sites[url] = s
	return s
}

func (b *fakeBrowser) Launch(context.Context) (browser.Browser, error) {
	if b.launchErr != nil {
		return nil, b.launchErr
	}
	return b, nil
}

func (b *fakeBrowser) NewPage(context.Context) (browser.Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.opened++
	b.active++
	b.peak = max(b.peak, b.active)
	return &fakePage{browser: b}, nil
}

func (b *fakeBrowser) Close() error { return nil }

func (b *fakeBrowser) counts() (opened, closed, peak int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.opened, b.closed, b.peak
}

type fakePage struct {
	browser *fakeBrowser
	site    *fakeSite
	scrolls int
	closed  bool
}

func (p *fakePage) Navigate(_ context.Context, url string, _ time.Duration) error {
	p.browser.mu.Lock()
	defer p.browser.mu.Unlock()
	s, ok := p.browser.sites[url]
	if !ok {
		return fmt.Errorf("net::ERR_NAME_NOT_RESOLVED at %s", url)
	}
	if s.navFailures > 0 {
		s.navFailures--
		return errors.New("navigation timeout")
	}
	p.site = s
	p.scrolls = 0
	return nil
}

func (p *fakePage) WaitIdle(ctx context.Context, _ time.Duration) error {
	if p.browser.delay > 0 {
		select {
		case <-time.After(p.browser.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (p *fakePage) HTML(context.Context) (string, error) {
	if p.site == nil || len(p.site.snapshots) == 0 {
		return "", errors.New("no document")
	}
	return p.site.snapshots[min(p.scrolls, len(p.site.snapshots)-1)], nil
}

func (p *fakePage) Evaluate(context.Context, string, any) error { return nil }

func (p *fakePage) ScrollToBottom(context.Context) error {
	p.scrolls++
	return nil
}

func (p *fakePage) Close() error {
	p.browser.mu.Lock()
	defer p.browser.mu.Unlock()
	if !p.closed {
		p.closed = true
		p.browser.closed++
		p.browser.active--
	}
	return nil
}

func testCrawlerConfig() config.CrawlerConfig {
	retries := 1
	return config.CrawlerConfig{
		MaxScrolls:        20,
		StagnantRounds:    2,
		ListTimeout:       time.Second,
		PostTimeout:       time.Second,
		HardExtra:         time.Second,
		MaxConcurrency:    3,
		NavigationRetries: &retries,
	}
}

func profileHTML(handle string, slugs []string, extra string) string {
	var b strings.Builder
	b.WriteString("<html><body><div id=\"root\">")
	b.WriteString(extra)
	for _, slug := range slugs {
		fmt.Fprintf(&b, `<a href="/@%s/%s">%s</a>`, handle, slug, slug)
	}
	b.WriteString("</div></body></html>")
	return b.String()
}

func postHTML(title, body, date string) string {
	return fmt.Sprintf(`<html><body><div id="root"><h1>%s</h1><span>%s</span><article>%s</article></div></body></html>`, title, date, body)
}

func slugs(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s-%d", prefix, i+1)
	}
	return out
}
