// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history records completed searches in a SQLite database so they
// can be listed, shown, and exported later. It is never consulted in place
// of a new search.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/advisor-search/internal/search"
	"github.com/pdiddy/advisor-search/pkg/types"
)

// DefaultPath is the database file used when none is configured.
const DefaultPath = "advisor-search.db"

const defaultMaxResults = 20

// Search outcome recorded in the status column.
const (
	StatusOK    = "ok"
	StatusEmpty = "empty"
	StatusError = "error"
)

// ErrNotFound is returned by Get when no search has the given ID.
var ErrNotFound = errors.New("search not found")

// Entry is one recorded search. Results is only populated by Get and the
// exports; List fills ResultCount instead.
type Entry struct {
	ID           string                  `json:"id" yaml:"id"`
	CreatedAt    time.Time               `json:"createdAt" yaml:"created_at"`
	Keywords     []string                `json:"keywords" yaml:"keywords"`
	RankingRange string                  `json:"rankingRange,omitempty" yaml:"ranking_range,omitempty"`
	Department   string                  `json:"department,omitempty" yaml:"department,omitempty"`
	Provider     string                  `json:"provider" yaml:"provider"`
	Status       string                  `json:"status" yaml:"status"`
	ErrorKind    string                  `json:"errorKind,omitempty" yaml:"error_kind,omitempty"`
	Attempts     int                     `json:"attempts" yaml:"attempts"`
	ResultCount  int                     `json:"resultCount" yaml:"result_count"`
	Results      []types.ProfessorRecord `json:"results,omitempty" yaml:"results,omitempty"`
}

// FromReport converts a finished search into an Entry ready to record.
func FromReport(rep search.Report, provider string) Entry {
	e := Entry{
		Keywords:     rep.Request.Keywords,
		RankingRange: rep.Request.Filters.RankingRange,
		Department:   rep.Request.Filters.Department,
		Provider:     provider,
		Attempts:     rep.Attempts,
		ResultCount:  len(rep.Records),
		Results:      rep.Records,
	}
	switch {
	case rep.Err != nil:
		e.Status = StatusError
		e.ErrorKind = string(rep.Err.Kind)
	case len(rep.Records) == 0:
		e.Status = StatusEmpty
	default:
		e.Status = StatusOK
	}
	return e
}

// timeLayout stores created_at at a fixed width so text order is time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ListOptions filters List.
type ListOptions struct {
	// Keyword keeps searches whose keywords contain this text.
	Keyword string
	// Limit caps the number of searches; 0 uses the configured default.
	Limit int
}

// Store manages the history database.
type Store struct {
	db         *sql.DB
	maxResults int
	now        func() time.Time
}

// Open opens or creates the history database at cfg.Path and creates the
// schema if it does not exist.
func Open(cfg types.HistoryConfig) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = DefaultPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	s := &Store{db: db, maxResults: maxResults, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS searches (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			keywords TEXT NOT NULL,
			ranking_range TEXT,
			department TEXT,
			provider TEXT,
			status TEXT NOT NULL,
			error_kind TEXT,
			attempts INTEGER,
			result_count INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS professors (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			search_id TEXT NOT NULL REFERENCES searches(id) ON DELETE CASCADE,
			rank INTEGER NOT NULL,
			record_id TEXT,
			name TEXT,
			university TEXT,
			department TEXT,
			match_score REAL,
			match_reason TEXT,
			website_url TEXT,
			research_interests TEXT,
			summary TEXT,
			relevant_papers TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_professors_search_id ON professors(search_id)`,
		`CREATE INDEX IF NOT EXISTS idx_searches_created_at ON searches(created_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores e under a new ID and returns the stored entry.
func (s *Store) Record(ctx context.Context, e Entry) (Entry, error) {
	e.ID = uuid.NewString()
	e.CreatedAt = s.now().UTC()
	e.ResultCount = len(e.Results)

	keywordsJSON, err := json.Marshal(e.Keywords)
	if err != nil {
		return Entry{}, fmt.Errorf("marshaling keywords: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Entry{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO searches (id, created_at, keywords, ranking_range, department, provider, status, error_kind, attempts, result_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.CreatedAt.Format(timeLayout), string(keywordsJSON),
		e.RankingRange, e.Department, e.Provider, e.Status, e.ErrorKind, e.Attempts, e.ResultCount,
	); err != nil {
		return Entry{}, fmt.Errorf("inserting search: %w", err)
	}

	for i, r := range e.Results {
		interests, _ := json.Marshal(r.ResearchInterests)
		papers, _ := json.Marshal(r.RelevantPapers)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO professors (search_id, rank, record_id, name, university, department, match_score, match_reason, website_url, research_interests, summary, relevant_papers)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, i+1, r.ID, r.Name, r.University, r.Department, r.MatchScore,
			r.MatchReason, r.WebsiteURL, string(interests), r.Summary, string(papers),
		); err != nil {
			return Entry{}, fmt.Errorf("inserting professor %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Entry{}, fmt.Errorf("committing search: %w", err)
	}
	return e, nil
}

// List returns recorded searches, newest first, without their results.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Entry, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = s.maxResults
	}

	var qb strings.Builder
	var args []any
	qb.WriteString(`SELECT id, created_at, keywords, ranking_range, department, provider, status, error_kind, attempts, result_count FROM searches`)
	if opts.Keyword != "" {
		qb.WriteString(` WHERE keywords LIKE ?`)
		args = append(args, "%"+opts.Keyword+"%")
	}
	qb.WriteString(` ORDER BY created_at DESC, rowid DESC LIMIT ?`)
	args = append(args, limit)

	return s.queryEntries(ctx, qb.String(), args...)
}

// Get returns the search with the given ID, including its results in rank
// order.
func (s *Store) Get(ctx context.Context, id string) (Entry, error) {
	entries, err := s.queryEntries(ctx,
		`SELECT id, created_at, keywords, ranking_range, department, provider, status, error_kind, attempts, result_count FROM searches WHERE id = ?`, id)
	if err != nil {
		return Entry{}, err
	}
	if len(entries) == 0 {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	e := entries[0]
	if e.Results, err = s.results(ctx, e.ID); err != nil {
		return Entry{}, err
	}
	return e, nil
}

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying searches: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e            Entry
			created      string
			keywordsJSON string
			ranking      sql.NullString
			department   sql.NullString
			provider     sql.NullString
			errorKind    sql.NullString
			attempts     sql.NullInt64
			resultCount  sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &created, &keywordsJSON, &ranking, &department,
			&provider, &e.Status, &errorKind, &attempts, &resultCount); err != nil {
			return nil, fmt.Errorf("scanning search: %w", err)
		}
		if e.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("parsing created_at %q: %w", created, err)
		}
		if err := json.Unmarshal([]byte(keywordsJSON), &e.Keywords); err != nil {
			return nil, fmt.Errorf("parsing keywords: %w", err)
		}
		e.RankingRange = ranking.String
		e.Department = department.String
		e.Provider = provider.String
		e.ErrorKind = errorKind.String
		e.Attempts = int(attempts.Int64)
		e.ResultCount = int(resultCount.Int64)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) results(ctx context.Context, searchID string) ([]types.ProfessorRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT record_id, name, university, department, match_score, match_reason, website_url, research_interests, summary, relevant_papers
		FROM professors WHERE search_id = ? ORDER BY rank`, searchID)
	if err != nil {
		return nil, fmt.Errorf("querying professors: %w", err)
	}
	defer rows.Close()

	records := []types.ProfessorRecord{}
	for rows.Next() {
		var (
			r         types.ProfessorRecord
			dept      sql.NullString
			interests sql.NullString
			papers    sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Name, &r.University, &dept, &r.MatchScore,
			&r.MatchReason, &r.WebsiteURL, &interests, &r.Summary, &papers); err != nil {
			return nil, fmt.Errorf("scanning professor: %w", err)
		}
		r.Department = dept.String
		if interests.Valid && interests.String != "" {
			_ = json.Unmarshal([]byte(interests.String), &r.ResearchInterests)
		}
		if r.ResearchInterests == nil {
			r.ResearchInterests = []string{}
		}
		if papers.Valid && papers.String != "" && papers.String != "null" {
			_ = json.Unmarshal([]byte(papers.String), &r.RelevantPapers)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
