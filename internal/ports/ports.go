package ports

import (
	"context"
	"time"

	"BlogIngest/internal/domain"
)

// ProfileCrawler crawls one author profile into a CrawlResult.
type ProfileCrawler interface {
	Name() string
	Crawl(ctx context.Context, profileURL string) (domain.CrawlResult, error)
}

// JobStore persists ingestion job transitions. Every mutation is a single
// status-guarded update; the bool result reports whether a row was changed.
type JobStore interface {
	ResolveLink(ctx context.Context, subjectID, linkType, url string) (string, error)
	Claim(ctx context.Context, subjectID, linkID string) (bool, error)
	Complete(ctx context.Context, subjectID, linkID string, payload []byte) (bool, error)
	Fail(ctx context.Context, subjectID, linkID string) (bool, error)
	MarkNotExisted(ctx context.Context, subjectID, linkID string, payload []byte) (bool, error)
	Find(ctx context.Context, subjectID, linkID string) (domain.IngestionJob, error)
	ListPending(ctx context.Context, linkType string, limit int) ([]domain.CrawlTarget, error)
}

// DigestCodec converts a Digest to and from its stored byte form.
type DigestCodec interface {
	Encode(digest domain.Digest) ([]byte, error)
	Decode(payload []byte) (domain.Digest, error)
}

// Scheduler controls when background sweeps execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
