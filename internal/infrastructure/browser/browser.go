package browser

import (
	"context"
	"time"

	"BlogIngest/internal/config"
)

// Page is one open tab. Every method is bounded by its own timeout and the caller's context.
type Page interface {
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	WaitIdle(ctx context.Context, timeout time.Duration) error
	HTML(ctx context.Context) (string, error)
	Evaluate(ctx context.Context, expression string, out any) error
	ScrollToBottom(ctx context.Context) error
	Close() error
}

// Browser is an isolated browsing context shared by the pages of one crawl.
type Browser interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

// Launcher starts browsers.
type Launcher interface {
	Launch(ctx context.Context) (Browser, error)
}

// Options configures the browsing context.
type Options struct {
	UserAgent        string
	Width            int
	Height           int
	Headless         bool
	NoSandbox        bool
	BlockedResources []string
	OpTimeout        time.Duration
}

// OptionsFromConfig maps crawler configuration onto browser options.
func OptionsFromConfig(cfg config.CrawlerConfig) Options {
	return Options{
		UserAgent:        cfg.UserAgent,
		Width:            cfg.Viewport.Width,
		Height:           cfg.Viewport.Height,
		Headless:         cfg.IsHeadless(),
		NoSandbox:        cfg.NoSandbox,
		BlockedResources: cfg.BlockedResources,
		OpTimeout:        cfg.PostTimeout,
	}
}

func (o Options) opTimeout() time.Duration {
	if o.OpTimeout <= 0 {
		return 20 * time.Second
	}
	return o.OpTimeout
}
