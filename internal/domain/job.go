package domain

// JobStatus enumerates the lifecycle of an ingestion job row.
type JobStatus string

const (
	StatusPending    JobStatus = "PENDING"
	StatusRunning    JobStatus = "RUNNING"
	StatusCompleted  JobStatus = "COMPLETED"
	StatusFailed     JobStatus = "FAILED"
	StatusNotExisted JobStatus = "NOTEXISTED"
)

// StatusSkipped is reported to callers when a claim did not apply. It is never persisted.
const StatusSkipped JobStatus = "SKIPPED"

// CanTransition reports whether from -> to is a legal job transition.
func CanTransition(from, to JobStatus) bool {
	switch from {
	case StatusPending:
		return to == StatusRunning || to == StatusNotExisted
	case StatusRunning:
		return to == StatusCompleted || to == StatusFailed
	default:
		return false
	}
}

// CrawlTarget identifies one crawlable profile for one subject.
type CrawlTarget struct {
	SubjectID string `db:"subject_id"`
	LinkID    string `db:"link_id"`
	URL       string `db:"url"`
	LinkType  string `db:"link_type"`
}

// IngestionJob is the persisted row keyed by (SubjectID, LinkID).
type IngestionJob struct {
	SubjectID string    `db:"subject_id"`
	LinkID    string    `db:"link_id"`
	Status    JobStatus `db:"status"`
	Contents  []byte    `db:"contents"`
}

// IngestResult is returned to the caller of StartIngest.
type IngestResult struct {
	Claimed   bool      `json:"claimed"`
	Status    JobStatus `json:"status"`
	PostCount *int      `json:"postCount,omitempty"`
}
