package parser

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"BlogIngest/internal/config"
	"BlogIngest/internal/domain"
	"BlogIngest/internal/infrastructure/browser"
)

var handlePattern = regexp.MustCompile(`/@([A-Za-z0-9_-]{1,30})`)

// reservedSlugs are profile sub-pages that share the /@handle/<slug> shape with posts.
var reservedSlugs = map[string]struct{}{
	"posts":      {},
	"series":     {},
	"about":      {},
	"followers":  {},
	"following":  {},
	"likes":      {},
	"portfolio":  {},
	"lists":      {},
	"tag":        {},
	"categories": {},
}

// ExtractHandle returns the author handle from a profile URL path.
func ExtractHandle(profileURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(profileURL))
	if err != nil {
		return "", fmt.Errorf("%w: parse profile url: %w", domain.ErrInvalidInput, err)
	}
	m := handlePattern.FindStringSubmatch(u.Path)
	if m == nil {
		return "", fmt.Errorf("%w: no author handle in %s", domain.ErrInvalidInput, profileURL)
	}
	return m[1], nil
}

// canonicalPostURL resolves href against base and accepts it only when it is
// exactly /@handle/<slug> on the same host. Query and fragment are dropped.
func canonicalPostURL(base *url.URL, href, handle string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}
	if !strings.EqualFold(abs.Host, base.Host) {
		return "", false
	}

	segments := strings.Split(strings.Trim(abs.Path, "/"), "/")
	if len(segments) != 2 || segments[0] != "@"+handle {
		return "", false
	}
	slug := segments[1]
	if slug == "" {
		return "", false
	}
	if _, reserved := reservedSlugs[strings.ToLower(slug)]; reserved {
		return "", false
	}

	canonical := url.URL{Scheme: base.Scheme, Host: base.Host, Path: "/" + segments[0] + "/" + slug}
	return canonical.String(), true
}

// extractPostLinks returns canonical post URLs in document order, duplicates included.
func extractPostLinks(doc *goquery.Document, base *url.URL, handle string) []string {
	var out []string
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if link, ok := canonicalPostURL(base, href, handle); ok {
			out = append(out, link)
		}
	})
	return out
}

// LinkDiscoverer scrolls a profile page and accumulates the author's post permalinks.
type LinkDiscoverer struct {
	maxScrolls     int
	stagnantRounds int
	pace           pacer
	logger         *slog.Logger
}

// NewLinkDiscoverer builds a discoverer from crawler settings.
func NewLinkDiscoverer(cfg config.CrawlerConfig, log *slog.Logger) *LinkDiscoverer {
	return &LinkDiscoverer{
		maxScrolls:     cfg.MaxScrolls,
		stagnantRounds: cfg.StagnantRounds,
		pace:           newPacer(cfg),
		logger:         log,
	}
}

// Collect reads links from a page already showing the profile. It stops when the
// scroll budget is spent or stagnantRounds consecutive rounds add nothing new.
// Cancellation is an error; the partial list is returned alongside it.
func (d *LinkDiscoverer) Collect(ctx context.Context, page browser.Page, profileURL string) ([]string, error) {
	handle, err := ExtractHandle(profileURL)
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(strings.TrimSpace(profileURL))
	if err != nil {
		return nil, fmt.Errorf("%w: parse profile url: %w", domain.ErrInvalidInput, err)
	}

	var (
		links    []string
		seen     = map[string]struct{}{}
		lastLen  = -1
		stagnant int
	)
	collect := func() {
		html, err := page.HTML(ctx)
		if err != nil {
			d.debug("snapshot failed", "error", err)
			return
		}
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			return
		}
		for _, link := range extractPostLinks(doc, base, handle) {
			if _, ok := seen[link]; ok {
				continue
			}
			seen[link] = struct{}{}
			links = append(links, link)
		}
	}

	rounds := 0
	for ; rounds < d.maxScrolls; rounds++ {
		if err := ctx.Err(); err != nil {
			return links, fmt.Errorf("collect links: %w", err)
		}
		collect()

		if len(links) == lastLen {
			stagnant++
		} else {
			stagnant = 0
		}
		lastLen = len(links)
		if stagnant >= d.stagnantRounds {
			d.debug("discovery stagnated", "round", rounds, "links", len(links))
			return links, nil
		}

		if err := page.ScrollToBottom(ctx); err != nil {
			d.debug("scroll failed", "round", rounds, "error", err)
		}
		if err := d.pace.wait(ctx); err != nil {
			return links, fmt.Errorf("collect links: %w", err)
		}
	}

	// Content loaded by the last scroll.
	collect()
	d.debug("scroll budget spent", "rounds", rounds, "links", len(links))
	return links, nil
}

func (d *LinkDiscoverer) debug(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Debug(msg, args...)
	}
}
