package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"BlogIngest/internal/config"
	"BlogIngest/internal/domain"
	"BlogIngest/internal/ports"
)

const (
	colJobSubject  = "resume_id"
	colJobLink     = "resume_link_id"
	colJobStatus   = "crawling_status"
	colJobContents = "contents"
	colJobUpdated  = "updated_at"

	colLinkID      = "id"
	colLinkSubject = "resume_id"
	colLinkURL     = "url"
	colLinkType    = "link_type"
)

// PostgresJobStore persists ingestion jobs into Postgres. Every transition is one
// status-guarded UPDATE; RowsAffected decides whether it applied.
type PostgresJobStore struct {
	db    *sqlx.DB
	psql  sq.StatementBuilderType
	jobs  string
	links string
}

var _ ports.JobStore = (*PostgresJobStore)(nil)

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

// NewPostgresJobStore wires a sqlx.DB with the configured table names.
func NewPostgresJobStore(db *sqlx.DB, tables config.TablesConfig) *PostgresJobStore {
	jobs, links := tables.Jobs, tables.Links
	if jobs == "" {
		jobs = "crawling_result"
	}
	if links == "" {
		links = "resume_link"
	}
	return &PostgresJobStore{
		db:    db,
		psql:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		jobs:  jobs,
		links: links,
	}
}

// ResolveLink finds the link id for (subject, type, url). An empty url matches
// rows whose url is NULL or empty.
func (r *PostgresJobStore) ResolveLink(ctx context.Context, subjectID, linkType, url string) (string, error) {
	var urlCond sq.Sqlizer = sq.Eq{colLinkURL: url}
	if url == "" {
		urlCond = sq.Or{sq.Eq{colLinkURL: nil}, sq.Eq{colLinkURL: ""}}
	}

	query, args, err := r.psql.
		Select(colLinkID).
		From(r.links).
		Where(sq.Eq{colLinkSubject: subjectID}).
		Where(sq.Eq{colLinkType: linkType}).
		Where(urlCond).
		Limit(1).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build resolve link: %w", err)
	}

	var id string
	if err := r.db.GetContext(ctx, &id, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("resolve link: %w", err)
	}
	return id, nil
}

// Claim moves PENDING to RUNNING.
func (r *PostgresJobStore) Claim(ctx context.Context, subjectID, linkID string) (bool, error) {
	return r.exec(ctx, "claim", r.transition(subjectID, linkID, domain.StatusPending, domain.StatusRunning))
}

// Complete moves RUNNING to COMPLETED and stores the payload.
func (r *PostgresJobStore) Complete(ctx context.Context, subjectID, linkID string, payload []byte) (bool, error) {
	b := r.transition(subjectID, linkID, domain.StatusRunning, domain.StatusCompleted).Set(colJobContents, payload)
	return r.exec(ctx, "complete", b)
}

// Fail moves RUNNING to FAILED without touching contents.
func (r *PostgresJobStore) Fail(ctx context.Context, subjectID, linkID string) (bool, error) {
	return r.exec(ctx, "fail", r.transition(subjectID, linkID, domain.StatusRunning, domain.StatusFailed))
}

// MarkNotExisted moves PENDING to NOTEXISTED and stores the placeholder payload.
func (r *PostgresJobStore) MarkNotExisted(ctx context.Context, subjectID, linkID string, payload []byte) (bool, error) {
	b := r.transition(subjectID, linkID, domain.StatusPending, domain.StatusNotExisted).Set(colJobContents, payload)
	return r.exec(ctx, "mark not existed", b)
}

// Find loads one job row.
func (r *PostgresJobStore) Find(ctx context.Context, subjectID, linkID string) (domain.IngestionJob, error) {
	query, args, err := r.psql.
		Select(
			colJobSubject+" AS subject_id",
			colJobLink+" AS link_id",
			colJobStatus+" AS status",
			colJobContents+" AS contents",
		).
		From(r.jobs).
		Where(sq.Eq{colJobSubject: subjectID}).
		Where(sq.Eq{colJobLink: linkID}).
		Limit(1).
		ToSql()
	if err != nil {
		return domain.IngestionJob{}, fmt.Errorf("build find job: %w", err)
	}

	var job domain.IngestionJob
	if err := r.db.GetContext(ctx, &job, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.IngestionJob{}, domain.ErrNotFound
		}
		return domain.IngestionJob{}, fmt.Errorf("find job: %w", err)
	}
	return job, nil
}

// ListPending returns up to limit PENDING jobs of the given link type with their URL.
func (r *PostgresJobStore) ListPending(ctx context.Context, linkType string, limit int) ([]domain.CrawlTarget, error) {
	b := r.psql.
		Select(
			"cr."+colJobSubject+" AS subject_id",
			"cr."+colJobLink+" AS link_id",
			"COALESCE(rl."+colLinkURL+", '') AS url",
			"rl."+colLinkType+" AS link_type",
		).
		From(r.jobs + " AS cr").
		Join(fmt.Sprintf("%s AS rl ON cr.%s = rl.%s", r.links, colJobLink, colLinkID)).
		Where(sq.Eq{"cr." + colJobStatus: string(domain.StatusPending)}).
		Where(sq.Eq{"rl." + colLinkType: linkType}).
		OrderBy("cr." + colJobUpdated)
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list pending: %w", err)
	}

	var targets []domain.CrawlTarget
	if err := r.db.SelectContext(ctx, &targets, query, args...); err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}
	return targets, nil
}

func (r *PostgresJobStore) transition(subjectID, linkID string, from, to domain.JobStatus) sq.UpdateBuilder {
	return r.psql.
		Update(r.jobs).
		Set(colJobStatus, string(to)).
		Set(colJobUpdated, sq.Expr("CURRENT_TIMESTAMP")).
		Where(sq.Eq{colJobSubject: subjectID}).
		Where(sq.Eq{colJobLink: linkID}).
		Where(sq.Eq{colJobStatus: string(from)})
}

func (r *PostgresJobStore) exec(ctx context.Context, op string, b sq.UpdateBuilder) (bool, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return false, fmt.Errorf("build %s: %w", op, err)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s rows affected: %w", op, err)
	}
	return n > 0, nil
}
