package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/glebarez/go-sqlite"
	"github.com/rahul/scout/internal/agent"
)

// ErrNotFound is returned when no report has the requested id.
var ErrNotFound = errors.New("report not found")

// timeLayout has a fixed width so created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ReportStore archives finished account plans in SQLite.
type ReportStore struct {
	DB *sql.DB
}

var _ agent.Archive = (*ReportStore)(nil)

func NewReportStore(dbPath string) (*ReportStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create archive dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS reports (
		id TEXT PRIMARY KEY,
		company TEXT NOT NULL,
		goals TEXT,
		plan TEXT NOT NULL,
		sources TEXT,
		created_at TEXT NOT NULL
	);`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create reports table: %w", err)
	}

	return &ReportStore{DB: db}, nil
}

func (s *ReportStore) Close() error {
	return s.DB.Close()
}

func (s *ReportStore) SaveReport(ctx context.Context, r agent.Report) error {
	plan, err := json.Marshal(r.Plan)
	if err != nil {
		return err
	}
	sources, err := json.Marshal(r.Sources)
	if err != nil {
		return err
	}
	query := `INSERT INTO reports (id, company, goals, plan, sources, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	_, err = s.DB.ExecContext(ctx, query, r.ID, r.Company, r.Goals, string(plan), string(sources), r.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("save report %s: %w", r.ID, err)
	}
	return nil
}

// ListReports returns up to limit reports, newest first.
func (s *ReportStore) ListReports(ctx context.Context, limit int) ([]agent.Report, error) {
	query := `SELECT id, company, goals, plan, sources, created_at FROM reports ORDER BY created_at DESC LIMIT ?`
	rows, err := s.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := []agent.Report{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

func (s *ReportStore) GetReport(ctx context.Context, id string) (agent.Report, error) {
	query := `SELECT id, company, goals, plan, sources, created_at FROM reports WHERE id = ?`
	r, err := scanReport(s.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return agent.Report{}, ErrNotFound
	}
	return r, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReport(row scanner) (agent.Report, error) {
	var r agent.Report
	var goals, sources sql.NullString
	var plan, created string
	if err := row.Scan(&r.ID, &r.Company, &goals, &plan, &sources, &created); err != nil {
		return agent.Report{}, err
	}
	r.Goals = goals.String
	if err := json.Unmarshal([]byte(plan), &r.Plan); err != nil {
		return agent.Report{}, fmt.Errorf("decode plan of report %s: %w", r.ID, err)
	}
	r.Sources = []string{}
	if sources.Valid && sources.String != "" {
		if err := json.Unmarshal([]byte(sources.String), &r.Sources); err != nil {
			return agent.Report{}, fmt.Errorf("decode sources of report %s: %w", r.ID, err)
		}
	}
	t, err := time.Parse(timeLayout, created)
	if err != nil {
		return agent.Report{}, fmt.Errorf("decode created_at of report %s: %w", r.ID, err)
	}
	r.CreatedAt = t
	return r, nil
}
