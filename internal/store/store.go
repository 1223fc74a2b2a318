// Package store persists named row tables in a local SQLite database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jlrodriguez/jobsift/internal/schema"
)

// WriteMode selects how Write treats rows already in the table.
type WriteMode string

const (
	// WriteOverwrite replaces the table contents.
	WriteOverwrite WriteMode = "overwrite"
	// WriteAppend adds rows after the existing ones.
	WriteAppend WriteMode = "append"
)

// TableStore reads and writes ordered row tables by name.
type TableStore interface {
	Read(ctx context.Context, table string) ([]schema.Row, error)
	Write(ctx context.Context, table string, rows []schema.Row, mode WriteMode) error
}

// SQLiteStore keeps every table in a single table_rows relation keyed
// by (table_name, position). Row order is the position order.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies pending
// migrations.
func Open(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const rowColumns = `job_title, link, entry_title, published, feed_title, reader,
	time_window, summary, notes, effective_from, effective_to, as_of,
	match_percentage, matched_skills, missing_skills`

// Read returns the rows of table in position order. A table that was
// never written reads as empty.
func (s *SQLiteStore) Read(ctx context.Context, table string) ([]schema.Row, error) {
	query := `SELECT ` + rowColumns + `
		FROM table_rows WHERE table_name = ? ORDER BY position`

	res, err := s.db.QueryContext(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", table, err)
	}
	defer res.Close()

	var rows []schema.Row
	for res.Next() {
		var (
			row                          schema.Row
			published, from, to, asOf    string
			matchPct                     sql.NullFloat64
			matchedSkills, missingSkills string
		)
		err := res.Scan(
			&row.JobTitle, &row.Link, &row.EntryTitle, &published,
			&row.FeedTitle, &row.Reader, &row.TimeWindow, &row.Summary,
			&row.Notes, &from, &to, &asOf,
			&matchPct, &matchedSkills, &missingSkills,
		)
		if err != nil {
			return nil, fmt.Errorf("read %q: %w", table, err)
		}

		if row.Published, err = parseInstant(published); err != nil {
			return nil, fmt.Errorf("read %q: published: %w", table, err)
		}
		if row.EffectiveFrom, err = parseInstant(from); err != nil {
			return nil, fmt.Errorf("read %q: effective_from: %w", table, err)
		}
		if row.EffectiveTo, err = parseInstant(to); err != nil {
			return nil, fmt.Errorf("read %q: effective_to: %w", table, err)
		}
		if row.AsOf, err = parseInstant(asOf); err != nil {
			return nil, fmt.Errorf("read %q: as_of: %w", table, err)
		}
		if matchPct.Valid {
			v := matchPct.Float64
			row.MatchPercentage = &v
		}
		if row.MatchedSkills, err = parseSkills(matchedSkills); err != nil {
			return nil, fmt.Errorf("read %q: matched_skills: %w", table, err)
		}
		if row.MissingSkills, err = parseSkills(missingSkills); err != nil {
			return nil, fmt.Errorf("read %q: missing_skills: %w", table, err)
		}

		rows = append(rows, row)
	}

	return rows, res.Err()
}

// Write stores rows into table. Overwrite replaces the table contents;
// append adds after the current last position. Either way the write is
// a single transaction.
func (s *SQLiteStore) Write(ctx context.Context, table string, rows []schema.Row, mode WriteMode) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write %q: %w", table, err)
	}
	defer tx.Rollback()

	next := 0
	switch mode {
	case WriteOverwrite:
		if _, err := tx.ExecContext(ctx, `DELETE FROM table_rows WHERE table_name = ?`, table); err != nil {
			return fmt.Errorf("write %q: clear: %w", table, err)
		}
	case WriteAppend:
		err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(position) + 1, 0) FROM table_rows WHERE table_name = ?`,
			table,
		).Scan(&next)
		if err != nil {
			return fmt.Errorf("write %q: next position: %w", table, err)
		}
	default:
		return fmt.Errorf("write %q: unknown mode %q", table, mode)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO table_rows
		(table_name, position, `+rowColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("write %q: prepare: %w", table, err)
	}
	defer stmt.Close()

	for i, row := range rows {
		var matchPct any
		if row.MatchPercentage != nil {
			matchPct = *row.MatchPercentage
		}

		matched, err := formatSkills(row.MatchedSkills)
		if err != nil {
			return fmt.Errorf("write %q: matched_skills: %w", table, err)
		}
		missing, err := formatSkills(row.MissingSkills)
		if err != nil {
			return fmt.Errorf("write %q: missing_skills: %w", table, err)
		}

		_, err = stmt.ExecContext(ctx,
			table, next+i,
			row.JobTitle, row.Link, row.EntryTitle, formatInstant(row.Published),
			row.FeedTitle, row.Reader, row.TimeWindow, row.Summary,
			row.Notes, formatInstant(row.EffectiveFrom), formatInstant(row.EffectiveTo),
			formatInstant(row.AsOf), matchPct, matched, missing,
		)
		if err != nil {
			return fmt.Errorf("write %q: insert: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write %q: commit: %w", table, err)
	}
	return nil
}

func formatInstant(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}

func parseInstant(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

func formatSkills(skills []string) (string, error) {
	if len(skills) == 0 {
		return "", nil
	}
	b, err := json.Marshal(skills)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func parseSkills(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	var skills []string
	if err := json.Unmarshal([]byte(s), &skills); err != nil {
		return nil, err
	}
	return skills, nil
}
