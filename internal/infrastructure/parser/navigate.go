package parser

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"BlogIngest/internal/config"
	"BlogIngest/internal/domain"
	"BlogIngest/internal/infrastructure/browser"
	"BlogIngest/internal/logging"
)

const settleTimeout = 5 * time.Second

// pacer produces the pause between scroll rounds and navigation attempts.
type pacer struct {
	fixed time.Duration
	min   time.Duration
	max   time.Duration
}

func newPacer(cfg config.CrawlerConfig) pacer {
	return pacer{fixed: cfg.Pause, min: cfg.PauseMin, max: cfg.PauseMax}
}

// next returns a uniform duration in [min, max] when a range is configured, else the fixed pause.
func (p pacer) next() time.Duration {
	if p.min > 0 && p.max > 0 {
		if p.max <= p.min {
			return p.min
		}
		return p.min + time.Duration(rand.Int63n(int64(p.max-p.min+1)))
	}
	if p.fixed < 0 {
		return 0
	}
	return p.fixed
}

func (p pacer) wait(ctx context.Context) error {
	d := p.next()
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// gotoWithRetry navigates with retries+1 attempts and a jittered pause between them,
// then waits for the document to settle. Settling is best effort.
func gotoWithRetry(ctx context.Context, page browser.Page, url string, timeout time.Duration, retries int, pace pacer, log *slog.Logger) error {
	if retries < 0 {
		retries = 0
	}
	if log == nil {
		log = logging.Discard()
	}

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			log.Debug("retry navigation", "url", url, "attempt", attempt+1, "error", lastErr)
			if err := pace.wait(ctx); err != nil {
				return fmt.Errorf("%w: %s: %w", domain.ErrNavigation, url, err)
			}
		}
		lastErr = page.Navigate(ctx, url, timeout)
		if lastErr == nil {
			_ = page.WaitIdle(ctx, settleTimeout)
			return nil
		}
	}

	return fmt.Errorf("%w: %s after %d attempts: %w", domain.ErrNavigation, url, retries+1, lastErr)
}
