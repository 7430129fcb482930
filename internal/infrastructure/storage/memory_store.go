package storage

import (
	"context"
	"sort"
	"sync"

	"BlogIngest/internal/domain"
	"BlogIngest/internal/ports"
)

type jobKey struct {
	subjectID string
	linkID    string
}

type memoryLink struct {
	target domain.CrawlTarget
	seq    int
}

// MemoryJobStore keeps jobs in process memory with the same guarded transitions
// as the Postgres store. Used for local runs and tests.
type MemoryJobStore struct {
	mu    sync.Mutex
	links map[jobKey]memoryLink
	jobs  map[jobKey]*domain.IngestionJob
	seq   int
}

var _ ports.JobStore = (*MemoryJobStore)(nil)

// NewMemoryJobStore builds an empty store.
func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{
		links: make(map[jobKey]memoryLink),
		jobs:  make(map[jobKey]*domain.IngestionJob),
	}
}

// AddLink registers a link row and its PENDING job.
func (s *MemoryJobStore) AddLink(target domain.CrawlTarget) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := jobKey{target.SubjectID, target.LinkID}
	s.seq++
	s.links[key] = memoryLink{target: target, seq: s.seq}
	s.jobs[key] = &domain.IngestionJob{
		SubjectID: target.SubjectID,
		LinkID:    target.LinkID,
		Status:    domain.StatusPending,
	}
}

func (s *MemoryJobStore) ResolveLink(_ context.Context, subjectID, linkType, url string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		best  string
		bestN = -1
	)
	for _, l := range s.links {
		t := l.target
		if t.SubjectID != subjectID || t.LinkType != linkType || t.URL != url {
			continue
		}
		if bestN == -1 || l.seq < bestN {
			best, bestN = t.LinkID, l.seq
		}
	}
	if bestN == -1 {
		return "", domain.ErrNotFound
	}
	return best, nil
}

func (s *MemoryJobStore) Claim(_ context.Context, subjectID, linkID string) (bool, error) {
	return s.transition(subjectID, linkID, domain.StatusPending, domain.StatusRunning, nil, false), nil
}

func (s *MemoryJobStore) Complete(_ context.Context, subjectID, linkID string, payload []byte) (bool, error) {
	return s.transition(subjectID, linkID, domain.StatusRunning, domain.StatusCompleted, payload, true), nil
}

func (s *MemoryJobStore) Fail(_ context.Context, subjectID, linkID string) (bool, error) {
	return s.transition(subjectID, linkID, domain.StatusRunning, domain.StatusFailed, nil, false), nil
}

func (s *MemoryJobStore) MarkNotExisted(_ context.Context, subjectID, linkID string, payload []byte) (bool, error) {
	return s.transition(subjectID, linkID, domain.StatusPending, domain.StatusNotExisted, payload, true), nil
}

func (s *MemoryJobStore) Find(_ context.Context, subjectID, linkID string) (domain.IngestionJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobKey{subjectID, linkID}]
	if !ok {
		return domain.IngestionJob{}, domain.ErrNotFound
	}
	out := *job
	out.Contents = append([]byte(nil), job.Contents...)
	return out, nil
}

func (s *MemoryJobStore) ListPending(_ context.Context, linkType string, limit int) ([]domain.CrawlTarget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []memoryLink
	for key, job := range s.jobs {
		l, ok := s.links[key]
		if !ok || job.Status != domain.StatusPending || l.target.LinkType != linkType {
			continue
		}
		pending = append(pending, l)
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].seq < pending[j].seq })

	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	out := make([]domain.CrawlTarget, len(pending))
	for i, l := range pending {
		out[i] = l.target
	}
	return out, nil
}

func (s *MemoryJobStore) transition(subjectID, linkID string, from, to domain.JobStatus, payload []byte, store bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !domain.CanTransition(from, to) {
		return false
	}
	job, ok := s.jobs[jobKey{subjectID, linkID}]
	if !ok || job.Status != from {
		return false
	}
	job.Status = to
	if store {
		job.Contents = append([]byte(nil), payload...)
	}
	return true
}
