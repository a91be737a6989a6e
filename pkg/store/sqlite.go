package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements host/job/report persistence on SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}

	// WAL mode for better concurrency between the API handlers and the
	// background job runner.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS hosts (
		id TEXT PRIMARY KEY,
		hostname TEXT NOT NULL UNIQUE,
		address TEXT,
		tags TEXT,
		last_seen_at INTEGER,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_hosts_hostname ON hosts(hostname);

	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		host_id TEXT NOT NULL REFERENCES hosts(id),
		status TEXT NOT NULL,
		requested_at INTEGER NOT NULL,
		started_at INTEGER,
		finished_at INTEGER,
		error_message TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);

	CREATE TABLE IF NOT EXISTS reports (
		id TEXT PRIMARY KEY,
		job_id TEXT NOT NULL UNIQUE REFERENCES jobs(id),
		rendered_markdown TEXT NOT NULL,
		raw_payload TEXT,
		created_at INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(query)
	return err
}

// migrate applies simple, idempotent column additions so databases
// created by older versions keep working.
func (s *SQLiteStore) migrate() error {
	rows, err := s.db.Query("PRAGMA table_info('hosts')")
	if err != nil {
		return err
	}
	defer rows.Close()

	columns := map[string]bool{}
	for rows.Next() {
		var (
			cid     int
			name    string
			colType string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return err
		}
		columns[name] = true
	}
	if err := rows.Err(); err != nil {
		return err
	}

	additions := []struct{ column, ddl string }{
		{"source", "ALTER TABLE hosts ADD COLUMN source TEXT"},
		{"notes", "ALTER TABLE hosts ADD COLUMN notes TEXT"},
		{"is_active", "ALTER TABLE hosts ADD COLUMN is_active BOOLEAN DEFAULT 1"},
		{"allow_privileged", "ALTER TABLE hosts ADD COLUMN allow_privileged BOOLEAN DEFAULT 1"},
	}
	for _, a := range additions {
		if !columns[a.column] {
			if _, err := s.db.Exec(a.ddl); err != nil {
				return err
			}
		}
	}
	return nil
}

// DB exposes the underlying handle for tests.
func (s *SQLiteStore) DB() *sql.DB { return s.db }

func (s *SQLiteStore) Close() error { return s.db.Close() }

// --- hosts ---

// CreateHost inserts a new host, assigning ID and CreatedAt. A
// duplicate hostname yields ErrHostExists.
func (s *SQLiteStore) CreateHost(ctx context.Context, h *Host) error {
	if _, err := s.GetHostByHostname(ctx, h.Hostname); err == nil {
		return ErrHostExists
	}

	h.ID = uuid.NewString()
	h.CreatedAt = time.Now().UTC().Truncate(time.Second)

	query := `
		INSERT INTO hosts (id, hostname, address, tags, source, notes, is_active, allow_privileged, last_seen_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		h.ID, h.Hostname, h.Address, tagsToString(h.Tags), h.Source, h.Notes,
		h.IsActive, h.AllowPrivileged, timePtrToUnix(h.LastSeenAt), h.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert host: %w", err)
	}
	return nil
}

const hostColumns = "id, hostname, address, tags, source, notes, is_active, allow_privileged, last_seen_at, created_at"

func (s *SQLiteStore) GetHost(ctx context.Context, id string) (*Host, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+hostColumns+" FROM hosts WHERE id = ?", id)
	return scanHost(row)
}

func (s *SQLiteStore) GetHostByHostname(ctx context.Context, hostname string) (*Host, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+hostColumns+" FROM hosts WHERE hostname = ?", hostname)
	return scanHost(row)
}

func (s *SQLiteStore) ListHosts(ctx context.Context) ([]Host, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+hostColumns+" FROM hosts ORDER BY created_at ASC")
	if err != nil {
		return nil, fmt.Errorf("query hosts: %w", err)
	}
	defer rows.Close()

	var hosts []Host
	for rows.Next() {
		h, err := scanHost(rows)
		if err != nil {
			return nil, err
		}
		hosts = append(hosts, *h)
	}
	return hosts, rows.Err()
}

// TouchHost updates the last-seen timestamp.
func (s *SQLiteStore) TouchHost(ctx context.Context, id string, seen time.Time) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE hosts SET last_seen_at = ? WHERE id = ?", seen.Unix(), id)
	if err != nil {
		return fmt.Errorf("touch host: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrHostNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHost(row rowScanner) (*Host, error) {
	var (
		h        Host
		address  sql.NullString
		tags     sql.NullString
		source   sql.NullString
		notes    sql.NullString
		lastSeen sql.NullInt64
		created  int64
	)
	err := row.Scan(&h.ID, &h.Hostname, &address, &tags, &source, &notes,
		&h.IsActive, &h.AllowPrivileged, &lastSeen, &created)
	if err == sql.ErrNoRows {
		return nil, ErrHostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan host: %w", err)
	}
	h.Address = address.String
	h.Tags = stringToTags(tags.String)
	h.Source = source.String
	h.Notes = notes.String
	h.LastSeenAt = unixToTimePtr(lastSeen)
	h.CreatedAt = time.Unix(created, 0).UTC()
	return &h, nil
}

// --- jobs ---

// CreateJob inserts a queued job for hostID, assigning ID and
// RequestedAt.
func (s *SQLiteStore) CreateJob(ctx context.Context, hostID string) (*Job, error) {
	if _, err := s.GetHost(ctx, hostID); err != nil {
		return nil, err
	}

	j := &Job{
		ID:          uuid.NewString(),
		HostID:      hostID,
		Status:      JobQueued,
		RequestedAt: time.Now().UTC().Truncate(time.Second),
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO jobs (id, host_id, status, requested_at) VALUES (?, ?, ?, ?)",
		j.ID, j.HostID, string(j.Status), j.RequestedAt.Unix())
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return j, nil
}

const jobColumns = "id, host_id, status, requested_at, started_at, finished_at, error_message"

func (s *SQLiteStore) GetJob(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+jobColumns+" FROM jobs WHERE id = ?", id)
	return scanJob(row)
}

func (s *SQLiteStore) ListJobs(ctx context.Context) ([]Job, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+jobColumns+" FROM jobs ORDER BY requested_at DESC")
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}

// MarkJobRunning flips a job to running and stamps StartedAt.
func (s *SQLiteStore) MarkJobRunning(ctx context.Context, id string) error {
	return s.updateJob(ctx, id,
		"UPDATE jobs SET status = ?, started_at = ? WHERE id = ?",
		string(JobRunning), time.Now().UTC().Unix(), id)
}

// MarkJobFinished records a terminal status with optional error text.
func (s *SQLiteStore) MarkJobFinished(ctx context.Context, id string, status JobStatus, errorMessage string) error {
	return s.updateJob(ctx, id,
		"UPDATE jobs SET status = ?, finished_at = ?, error_message = ? WHERE id = ?",
		string(status), time.Now().UTC().Unix(), errorMessage, id)
}

func (s *SQLiteStore) updateJob(ctx context.Context, id, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update job %s: %w", id, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrJobNotFound
	}
	return nil
}

func scanJob(row rowScanner) (*Job, error) {
	var (
		j         Job
		status    string
		requested int64
		started   sql.NullInt64
		finished  sql.NullInt64
		errMsg    sql.NullString
	)
	err := row.Scan(&j.ID, &j.HostID, &status, &requested, &started, &finished, &errMsg)
	if err == sql.ErrNoRows {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan job: %w", err)
	}
	j.Status = JobStatus(status)
	j.RequestedAt = time.Unix(requested, 0).UTC()
	j.StartedAt = unixToTimePtr(started)
	j.FinishedAt = unixToTimePtr(finished)
	j.ErrorMessage = errMsg.String
	return &j, nil
}

// --- reports ---

// CreateReport stores the rendered report for a completed job.
func (s *SQLiteStore) CreateReport(ctx context.Context, r *Report) error {
	r.ID = uuid.NewString()
	r.CreatedAt = time.Now().UTC().Truncate(time.Second)

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO reports (id, job_id, rendered_markdown, raw_payload, created_at) VALUES (?, ?, ?, ?, ?)",
		r.ID, r.JobID, r.RenderedMarkdown, r.RawPayload, r.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// GetReportByJobID fetches the report attached to a job.
func (s *SQLiteStore) GetReportByJobID(ctx context.Context, jobID string) (*Report, error) {
	var (
		r       Report
		payload sql.NullString
		created int64
	)
	row := s.db.QueryRowContext(ctx,
		"SELECT id, job_id, rendered_markdown, raw_payload, created_at FROM reports WHERE job_id = ?", jobID)
	err := row.Scan(&r.ID, &r.JobID, &r.RenderedMarkdown, &payload, &created)
	if err == sql.ErrNoRows {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan report: %w", err)
	}
	r.RawPayload = payload.String
	r.CreatedAt = time.Unix(created, 0).UTC()
	return &r, nil
}

// --- helpers ---

func tagsToString(tags []string) string {
	cleaned := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			cleaned = append(cleaned, t)
		}
	}
	return strings.Join(cleaned, ",")
}

func stringToTags(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}

func timePtrToUnix(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}

func unixToTimePtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0).UTC()
	return &t
}
