package parser

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"BlogIngest/internal/config"
	"BlogIngest/internal/domain"
	"BlogIngest/internal/infrastructure/browser"
)

const (
	tagSelector      = `a[href^="/tags/"], a[href*="/tag/"], a[class*="tag"], a[class*="Tag"]`
	maxTagLen        = 50
	maxDateTextLen   = 64
	minHardBudget    = 8 * time.Second
	retryIdleTimeout = 2 * time.Second
)

var bodySelectors = []string{"article", "main", "div#root", "body"}

var timeLikePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d{4}\s*년\s*\d{1,2}\s*월\s*\d{1,2}\s*일`),
	regexp.MustCompile(`\d{4}[.\-/]\s*\d{1,2}[.\-/]\s*\d{1,2}`),
	regexp.MustCompile(`\d+\s*(?:시간|분|일|주)\s*전`),
	regexp.MustCompile(`(?i)\b\d+\s+(?:hours?|hrs?|minutes?|mins?|days?|weeks?)\s+ago\b`),
	regexp.MustCompile(`(?i)^(?:어제|그저께|그제|오늘|방금(?:\s*전)?|yesterday|today|just now)$`),
}

var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true, "br": true,
	"dd": true, "div": true, "dl": true, "dt": true, "figcaption": true, "figure": true,
	"footer": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "nav": true, "ol": true, "p": true,
	"pre": true, "section": true, "table": true, "tr": true, "ul": true,
}

// PostFetcher loads one post page and extracts its content.
type PostFetcher struct {
	postTimeout time.Duration
	hardExtra   time.Duration
	retries     int
	pace        pacer
	logger      *slog.Logger
}

// NewPostFetcher builds a fetcher from crawler settings.
func NewPostFetcher(cfg config.CrawlerConfig, log *slog.Logger) *PostFetcher {
	return &PostFetcher{
		postTimeout: cfg.PostTimeout,
		hardExtra:   cfg.HardExtra,
		retries:     cfg.Retries(),
		pace:        newPacer(cfg),
		logger:      log,
	}
}

// Fetch opens postURL in its own page and extracts title, tags, body and publish text.
// Missing content is not an error; only navigation and page failures are.
func (f *PostFetcher) Fetch(ctx context.Context, b browser.Browser, postURL string) (domain.PostRecord, error) {
	start := time.Now()

	page, err := b.NewPage(ctx)
	if err != nil {
		return domain.PostRecord{}, fmt.Errorf("open post page: %w", err)
	}
	defer page.Close()

	if err := gotoWithRetry(ctx, page, postURL, f.postTimeout, f.retries, f.pace, f.logger); err != nil {
		return domain.PostRecord{}, err
	}

	doc, err := snapshot(ctx, page)
	if err != nil {
		return domain.PostRecord{}, err
	}
	rec := parsePost(doc)
	rec.URL = postURL

	if rec.BodyText == "" && time.Since(start) < f.hardBudget() {
		_ = page.ScrollToBottom(ctx)
		_ = page.WaitIdle(ctx, retryIdleTimeout)
		if retry, err := snapshot(ctx, page); err == nil {
			// Only the article container is re-read; late bodies render there.
			rec.BodyText = textOf(retry.Find("article").First())
		}
	}

	return rec, nil
}

// hardBudget gates the late body retry.
func (f *PostFetcher) hardBudget() time.Duration {
	return max(minHardBudget, f.postTimeout+f.hardExtra)
}

func snapshot(ctx context.Context, page browser.Page) (*goquery.Document, error) {
	raw, err := page.HTML(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

func parsePost(doc *goquery.Document) domain.PostRecord {
	return domain.PostRecord{
		Title:          extractTitle(doc),
		Tags:           extractTags(doc),
		BodyText:       extractBody(doc),
		PublishedAtRaw: extractPublished(doc),
	}
}

func extractTitle(doc *goquery.Document) string {
	return collapseSpaces(doc.Find("h1").First().Text())
}

func extractTags(doc *goquery.Document) []string {
	set := map[string]struct{}{}
	pick := func(raw string) {
		t := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "#"))
		if t == "" || utf8.RuneCountInString(t) > maxTagLen {
			return
		}
		set[t] = struct{}{}
	}

	doc.Find(tagSelector).Each(func(_ int, s *goquery.Selection) {
		pick(s.Text())
	})
	doc.Find(`meta[property="article:tag"]`).Each(func(_ int, s *goquery.Selection) {
		content, _ := s.Attr("content")
		pick(content)
	})

	tags := make([]string, 0, len(set))
	for t := range set {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

func extractBody(doc *goquery.Document) string {
	for _, sel := range bodySelectors {
		if text := textOf(doc.Find(sel).First()); text != "" {
			return text
		}
	}
	return ""
}

// extractPublished prefers time[datetime] and otherwise returns the first short
// time-like text verbatim.
func extractPublished(doc *goquery.Document) string {
	if v, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}

	var found string
	doc.Find("time, span, div").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := collapseSpaces(s.Text())
		if text == "" || utf8.RuneCountInString(text) > maxDateTextLen {
			return true
		}
		if looksLikeTime(text) {
			found = text
			return false
		}
		return true
	})
	return found
}

func looksLikeTime(text string) bool {
	for _, re := range timeLikePatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// textOf renders visible text with block elements on their own lines.
func textOf(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}

	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
			return
		case html.CommentNode:
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "noscript", "template":
				return
			}
		}
		block := n.Type == html.ElementNode && blockElements[n.Data]
		if block {
			b.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			b.WriteByte('\n')
		}
	}
	walk(sel.Get(0))

	lines := strings.Split(b.String(), "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = collapseSpaces(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
