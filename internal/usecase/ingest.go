package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"BlogIngest/internal/domain"
	"BlogIngest/internal/logging"
	"BlogIngest/internal/ports"
	"BlogIngest/internal/recency"
	"BlogIngest/internal/scanner"
)

// IngestDeps wires driven adapters into the ingest service.
type IngestDeps struct {
	Store    ports.JobStore
	Crawlers *scanner.Registry
	Codec    ports.DigestCodec
	Reducer  recency.Reducer
	LinkType string
	Logger   *slog.Logger
}

// IngestService drives the job state machine around one profile crawl.
type IngestService struct {
	store    ports.JobStore
	crawlers *scanner.Registry
	codec    ports.DigestCodec
	reducer  recency.Reducer
	linkType string
	logger   *slog.Logger
}

// StoredDigest is a job's status plus its decoded contents, when present.
type StoredDigest struct {
	Status domain.JobStatus `json:"status"`
	Digest *domain.Digest   `json:"digest,omitempty"`
}

// SweepReport tallies one pass over pending jobs.
type SweepReport struct {
	Processed  int `json:"processed"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	Skipped    int `json:"skipped"`
	NotExisted int `json:"notExisted"`
	Errors     int `json:"errors"`
}

// NewIngestService constructs the ingest use case.
func NewIngestService(deps IngestDeps) *IngestService {
	log := deps.Logger
	if log == nil {
		log = logging.Discard()
	}
	return &IngestService{
		store:    deps.Store,
		crawlers: deps.Crawlers,
		codec:    deps.Codec,
		reducer:  deps.Reducer,
		linkType: deps.LinkType,
		logger:   log,
	}
}

// StartIngest crawls the subject's profile link and commits the digest.
// A lost claim or a stale commit is reported as SKIPPED, not as an error.
func (s *IngestService) StartIngest(ctx context.Context, subjectID, rawURL string) (domain.IngestResult, error) {
	subjectID = strings.TrimSpace(subjectID)
	url := strings.TrimSpace(rawURL)
	if subjectID == "" {
		return domain.IngestResult{}, fmt.Errorf("%w: subject id is required", domain.ErrInvalidInput)
	}

	linkID, err := s.store.ResolveLink(ctx, subjectID, s.linkType, url)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) && url == "" {
			return domain.IngestResult{Claimed: false, Status: domain.StatusNotExisted}, nil
		}
		return domain.IngestResult{}, fmt.Errorf("resolve link for subject %s: %w", subjectID, err)
	}

	log := s.logger.With("subject_id", subjectID, "link_id", linkID)

	if url == "" {
		return s.markNotExisted(ctx, log, subjectID, linkID)
	}

	crawler, err := s.crawlers.Resolve(s.linkType)
	if err != nil {
		return domain.IngestResult{}, fmt.Errorf("select crawler: %w", err)
	}

	claimed, err := s.store.Claim(ctx, subjectID, linkID)
	if err != nil {
		return domain.IngestResult{}, fmt.Errorf("claim job: %w", err)
	}
	if !claimed {
		log.Info("claim skipped: job is not pending")
		return domain.IngestResult{Claimed: false, Status: domain.StatusSkipped}, nil
	}

	result, err := crawler.Crawl(ctx, url)
	if err != nil {
		return s.fail(ctx, log, subjectID, linkID, err)
	}

	digest := s.reducer.Digest(url, result)
	payload, err := s.codec.Encode(digest)
	if err != nil {
		return s.fail(ctx, log, subjectID, linkID, fmt.Errorf("encode digest: %w", err))
	}

	applied, err := s.store.Complete(ctx, subjectID, linkID, payload)
	if err != nil {
		return s.fail(ctx, log, subjectID, linkID, fmt.Errorf("commit digest: %w", err))
	}
	if !applied {
		log.Warn("stale commit ignored: job left RUNNING before completion")
		return domain.IngestResult{Claimed: true, Status: domain.StatusSkipped}, nil
	}

	log.Info("ingest completed", "post_count", digest.PostCount, "recent_count", digest.RecentCount, "posts", len(result.Posts))
	postCount := digest.PostCount
	return domain.IngestResult{Claimed: true, Status: domain.StatusCompleted, PostCount: &postCount}, nil
}

// Preview crawls and reduces a profile without touching job state.
func (s *IngestService) Preview(ctx context.Context, rawURL string) (domain.Preview, error) {
	url := strings.TrimSpace(rawURL)
	if url == "" {
		return domain.Preview{}, fmt.Errorf("%w: url is required", domain.ErrInvalidInput)
	}

	crawler, err := s.crawlers.Resolve(s.linkType)
	if err != nil {
		return domain.Preview{}, fmt.Errorf("select crawler: %w", err)
	}

	result, err := crawler.Crawl(ctx, url)
	if err != nil {
		return domain.Preview{}, fmt.Errorf("preview %s: %w", url, err)
	}

	posts := result.Posts
	if posts == nil {
		posts = []domain.PostRecord{}
	}
	return domain.Preview{Digest: s.reducer.Digest(url, result), Posts: posts}, nil
}

// LoadDigest returns a job's status and its stored digest.
func (s *IngestService) LoadDigest(ctx context.Context, subjectID, linkID string) (StoredDigest, error) {
	job, err := s.store.Find(ctx, subjectID, linkID)
	if err != nil {
		return StoredDigest{}, fmt.Errorf("load job %s/%s: %w", subjectID, linkID, err)
	}

	out := StoredDigest{Status: job.Status}
	if len(job.Contents) == 0 {
		return out, nil
	}
	digest, err := s.codec.Decode(job.Contents)
	if err != nil {
		return StoredDigest{}, fmt.Errorf("decode job %s/%s: %w", subjectID, linkID, err)
	}
	out.Digest = &digest
	return out, nil
}

// SweepPending runs StartIngest sequentially for up to limit pending jobs.
func (s *IngestService) SweepPending(ctx context.Context, limit int) (SweepReport, error) {
	targets, err := s.store.ListPending(ctx, s.linkType, limit)
	if err != nil {
		return SweepReport{}, fmt.Errorf("list pending: %w", err)
	}

	var report SweepReport
	for _, t := range targets {
		if ctx.Err() != nil {
			break
		}
		report.Processed++

		res, err := s.StartIngest(ctx, t.SubjectID, t.URL)
		switch {
		case err != nil && errors.Is(err, domain.ErrCrawlingFailed):
			report.Failed++
		case err != nil:
			report.Errors++
			s.logger.Error("sweep ingest", "subject_id", t.SubjectID, "link_id", t.LinkID, "error", err)
		case res.Status == domain.StatusCompleted:
			report.Completed++
		case res.Status == domain.StatusNotExisted:
			report.NotExisted++
		default:
			report.Skipped++
		}
	}

	s.logger.Info("sweep finished",
		"processed", report.Processed,
		"completed", report.Completed,
		"failed", report.Failed,
		"skipped", report.Skipped,
		"not_existed", report.NotExisted,
		"errors", report.Errors,
	)
	return report, nil
}

func (s *IngestService) markNotExisted(ctx context.Context, log *slog.Logger, subjectID, linkID string) (domain.IngestResult, error) {
	payload, err := s.codec.Encode(domain.EmptyDigest(domain.SourceVelog))
	if err != nil {
		return domain.IngestResult{}, fmt.Errorf("encode empty digest: %w", err)
	}
	applied, err := s.store.MarkNotExisted(ctx, subjectID, linkID, payload)
	if err != nil {
		return domain.IngestResult{}, fmt.Errorf("mark not existed: %w", err)
	}
	if !applied {
		log.Debug("not-existed mark skipped: job is not pending")
	}
	return domain.IngestResult{Claimed: false, Status: domain.StatusNotExisted}, nil
}

// fail records FAILED even when ctx is already cancelled.
func (s *IngestService) fail(ctx context.Context, log *slog.Logger, subjectID, linkID string, cause error) (domain.IngestResult, error) {
	log.Error("crawl failed", "error", cause)
	if _, err := s.store.Fail(context.WithoutCancel(ctx), subjectID, linkID); err != nil {
		log.Error("record failure", "error", err)
	}
	return domain.IngestResult{Claimed: true, Status: domain.StatusFailed}, fmt.Errorf("%w: %w", domain.ErrCrawlingFailed, cause)
}
