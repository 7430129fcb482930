package parser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"BlogIngest/internal/config"
	"BlogIngest/internal/domain"
	"BlogIngest/internal/infrastructure/browser"
	"BlogIngest/internal/logging"
	"BlogIngest/internal/ports"
)

// VelogCrawler discovers every post of a velog author and fetches them concurrently.
type VelogCrawler struct {
	launcher       browser.Launcher
	links          *LinkDiscoverer
	posts          *PostFetcher
	listTimeout    time.Duration
	retries        int
	pace           pacer
	maxConcurrency int
	logger         *slog.Logger
}

var _ ports.ProfileCrawler = (*VelogCrawler)(nil)

// NewVelogCrawler wires a browser launcher with crawler settings.
func NewVelogCrawler(launcher browser.Launcher, cfg config.CrawlerConfig, log *slog.Logger) *VelogCrawler {
	if log == nil {
		log = logging.Discard()
	}
	return &VelogCrawler{
		launcher:       launcher,
		links:          NewLinkDiscoverer(cfg, log),
		posts:          NewPostFetcher(cfg, log),
		listTimeout:    cfg.ListTimeout,
		retries:        cfg.Retries(),
		pace:           newPacer(cfg),
		maxConcurrency: max(1, cfg.MaxConcurrency),
		logger:         log,
	}
}

// Name identifies the crawler inside the registry.
func (c *VelogCrawler) Name() string {
	return domain.SourceVelog
}

// Crawl produces the author's posts and total count. Launch failures, profile
// navigation failures and cancellation are returned; individual post failures
// drop that post.
func (c *VelogCrawler) Crawl(ctx context.Context, profileURL string) (domain.CrawlResult, error) {
	handle, err := ExtractHandle(profileURL)
	if err != nil {
		return domain.CrawlResult{}, err
	}

	log := c.logger.With("crawl_id", uuid.NewString(), "handle", handle)
	started := time.Now()
	log.Info("crawl started", "url", profileURL)

	b, err := c.launcher.Launch(ctx)
	if err != nil {
		return domain.CrawlResult{}, fmt.Errorf("launch browser: %w", err)
	}
	defer func() {
		if cerr := b.Close(); cerr != nil {
			log.Debug("close browser", "error", cerr)
		}
	}()

	links, authoritative, known, err := c.discover(ctx, b, profileURL, log)
	if err != nil {
		return domain.CrawlResult{}, err
	}

	posts := c.fetchAll(ctx, b, links, log)
	if err := ctx.Err(); err != nil {
		log.Warn("crawl aborted", "links", len(links), "posts", len(posts), "error", err)
		return domain.CrawlResult{}, fmt.Errorf("crawl %s: %w", profileURL, err)
	}

	total := len(posts)
	if known {
		total = authoritative
	}

	log.Info("crawl finished",
		"links", len(links),
		"posts", len(posts),
		"post_count", total,
		"authoritative", known,
		"elapsed", time.Since(started).Round(time.Millisecond),
	)

	return domain.CrawlResult{
		Source:         domain.SourceVelog,
		Handle:         handle,
		Posts:          posts,
		TotalPostCount: total,
	}, nil
}

func (c *VelogCrawler) discover(ctx context.Context, b browser.Browser, profileURL string, log *slog.Logger) ([]string, int, bool, error) {
	page, err := b.NewPage(ctx)
	if err != nil {
		return nil, 0, false, fmt.Errorf("open profile page: %w", err)
	}
	defer page.Close()

	if err := gotoWithRetry(ctx, page, profileURL, c.listTimeout, c.retries, c.pace, log); err != nil {
		return nil, 0, false, err
	}

	var (
		count int
		known bool
	)
	if doc, err := snapshot(ctx, page); err == nil {
		count, known = readTotalCount(doc)
	} else {
		log.Debug("profile snapshot failed", "error", err)
	}

	links, err := c.links.Collect(ctx, page, profileURL)
	if err != nil {
		return nil, 0, false, err
	}
	return links, count, known, nil
}

// fetchAll fetches links under the concurrency cap. Results keep discovery order.
func (c *VelogCrawler) fetchAll(ctx context.Context, b browser.Browser, links []string, log *slog.Logger) []domain.PostRecord {
	sem := semaphore.NewWeighted(int64(c.maxConcurrency))
	results := make([]*domain.PostRecord, len(links))

	var g errgroup.Group
	for i, link := range links {
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Debug("fetch admission cancelled", "remaining", len(links)-i, "error", err)
			break
		}
		i, link := i, link
		g.Go(func() error {
			defer sem.Release(1)

			rec, err := c.posts.Fetch(ctx, b, link)
			if err != nil {
				log.Debug("post fetch failed", "url", link, "error", err)
				return nil
			}
			if strings.TrimSpace(rec.BodyText) == "" {
				log.Debug("post dropped: empty body", "url", link)
				return nil
			}
			rec.URL = link
			rec.ContentHash = domain.ContentHash(rec.BodyText, link)
			results[i] = &rec
			return nil
		})
	}
	_ = g.Wait()

	posts := make([]domain.PostRecord, 0, len(links))
	for _, rec := range results {
		if rec != nil {
			posts = append(posts, *rec)
		}
	}
	return posts
}
