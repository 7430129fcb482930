package browser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"BlogIngest/pkg/logger"
)

const scrollScript = `(() => { window.scrollTo(0, document.body.scrollHeight); return document.body.scrollHeight; })()`

var resourceTypeNames = map[string]network.ResourceType{
	"image":      network.ResourceTypeImage,
	"media":      network.ResourceTypeMedia,
	"font":       network.ResourceTypeFont,
	"stylesheet": network.ResourceTypeStylesheet,
	"texttrack":  network.ResourceTypeTextTrack,
	"manifest":   network.ResourceTypeManifest,
	"ping":       network.ResourceTypePing,
	"other":      network.ResourceTypeOther,
}

// ChromeLauncher starts headless Chrome through chromedp.
type ChromeLauncher struct {
	opts   Options
	logger *slog.Logger
}

var _ Launcher = (*ChromeLauncher)(nil)

// NewChromeLauncher wires launch options and the logger for chromedp's error output.
func NewChromeLauncher(opts Options, log *slog.Logger) *ChromeLauncher {
	return &ChromeLauncher{opts: opts, logger: log}
}

// Launch starts a browser process and opens its default context.
func (l *ChromeLauncher) Launch(ctx context.Context) (Browser, error) {
	allocOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", l.opts.Headless),
		chromedp.Flag("no-sandbox", l.opts.NoSandbox),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
	)
	if l.opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(l.opts.UserAgent))
	}
	if l.opts.Width > 0 && l.opts.Height > 0 {
		allocOpts = append(allocOpts, chromedp.WindowSize(l.opts.Width, l.opts.Height))
	}

	// The browser outlives ctx; Close tears it down.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithErrorf(logger.Printf(l.logger, slog.LevelDebug, "chromedp")),
	)

	started := make(chan error, 1)
	go func() { started <- chromedp.Run(browserCtx) }()
	select {
	case err := <-started:
		if err != nil {
			browserCancel()
			allocCancel()
			return nil, fmt.Errorf("launch browser: %w", err)
		}
	case <-ctx.Done():
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("launch browser: %w", ctx.Err())
	}

	return &chromeBrowser{
		ctx:         browserCtx,
		cancel:      browserCancel,
		allocCancel: allocCancel,
		opts:        l.opts,
		blocked:     resourceTypes(l.opts.BlockedResources),
	}, nil
}

type chromeBrowser struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	opts        Options
	blocked     []network.ResourceType
	closeOnce   sync.Once
}

func (b *chromeBrowser) NewPage(ctx context.Context) (Page, error) {
	tabCtx, cancel := chromedp.NewContext(b.ctx)
	stop := context.AfterFunc(ctx, cancel)

	if len(b.blocked) > 0 {
		blockPausedRequests(tabCtx)
	}

	// The first Run allocates the tab; it must not carry a deadline.
	if err := chromedp.Run(tabCtx, b.setupActions()...); err != nil {
		stop()
		cancel()
		return nil, fmt.Errorf("open page: %w", err)
	}

	return &chromePage{ctx: tabCtx, cancel: cancel, stop: stop, opTimeout: b.opts.opTimeout()}, nil
}

func (b *chromeBrowser) setupActions() []chromedp.Action {
	var actions []chromedp.Action
	if b.opts.Width > 0 && b.opts.Height > 0 {
		actions = append(actions, chromedp.EmulateViewport(int64(b.opts.Width), int64(b.opts.Height)))
	}
	if len(b.blocked) > 0 {
		patterns := make([]*fetch.RequestPattern, 0, len(b.blocked))
		for _, rt := range b.blocked {
			patterns = append(patterns, &fetch.RequestPattern{
				URLPattern:   "*",
				ResourceType: rt,
				RequestStage: fetch.RequestStageRequest,
			})
		}
		actions = append(actions, fetch.Enable().WithPatterns(patterns))
	}
	return actions
}

func (b *chromeBrowser) Close() error {
	var err error
	b.closeOnce.Do(func() {
		err = chromedp.Cancel(b.ctx)
		b.cancel()
		b.allocCancel()
	})
	if err != nil {
		return fmt.Errorf("close browser: %w", err)
	}
	return nil
}

// blockPausedRequests fails every request the Fetch domain pauses. Only blocked
// resource types are registered as patterns, so nothing else is intercepted.
func blockPausedRequests(tabCtx context.Context) {
	chromedp.ListenTarget(tabCtx, func(ev any) {
		e, ok := ev.(*fetch.EventRequestPaused)
		if !ok {
			return
		}
		go func() {
			c := chromedp.FromContext(tabCtx)
			if c == nil || c.Target == nil {
				return
			}
			execCtx := cdp.WithExecutor(tabCtx, c.Target)
			_ = fetch.FailRequest(e.RequestID, network.ErrorReasonBlockedByClient).Do(execCtx)
		}()
	})
}

type chromePage struct {
	ctx       context.Context
	cancel    context.CancelFunc
	stop      func() bool
	opTimeout time.Duration
	closeOnce sync.Once
}

func (p *chromePage) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	if err := p.run(ctx, timeout, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (p *chromePage) WaitIdle(ctx context.Context, timeout time.Duration) error {
	var ready bool
	err := p.run(ctx, timeout+time.Second,
		chromedp.Poll(`document.readyState === "complete"`, &ready, chromedp.WithPollingTimeout(timeout)),
	)
	if err != nil {
		return fmt.Errorf("wait idle: %w", err)
	}
	return nil
}

func (p *chromePage) HTML(ctx context.Context) (string, error) {
	var html string
	if err := p.run(ctx, p.opTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("snapshot html: %w", err)
	}
	return html, nil
}

func (p *chromePage) Evaluate(ctx context.Context, expression string, out any) error {
	if err := p.run(ctx, p.opTimeout, chromedp.Evaluate(expression, out)); err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}
	return nil
}

func (p *chromePage) ScrollToBottom(ctx context.Context) error {
	var height float64
	return p.Evaluate(ctx, scrollScript, &height)
}

func (p *chromePage) Close() error {
	p.closeOnce.Do(func() {
		p.stop()
		p.cancel()
	})
	return nil
}

func (p *chromePage) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if timeout <= 0 {
		timeout = p.opTimeout
	}
	runCtx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func resourceTypes(names []string) []network.ResourceType {
	seen := map[network.ResourceType]bool{}
	out := make([]network.ResourceType, 0, len(names))
	for _, name := range names {
		rt, ok := resourceTypeNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok || seen[rt] {
			continue
		}
		seen[rt] = true
		out = append(out, rt)
	}
	return out
}
