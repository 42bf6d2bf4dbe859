// Package history journals finished jobs in sqlite so their output can be
// looked at after the process that ran them is gone.
package history

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

var (
	ErrNotFound  = errors.New("no such job in history")
	ErrAmbiguous = errors.New("job id prefix is ambiguous")
)

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
    id           TEXT PRIMARY KEY,
    class        TEXT NOT NULL,
    target       TEXT NOT NULL DEFAULT '',
    args         TEXT NOT NULL DEFAULT '[]',
    state        TEXT NOT NULL,
    exit_code    INTEGER NOT NULL DEFAULT 0,
    submitted_at TEXT NOT NULL,
    finished_at  TEXT NOT NULL,
    output       BLOB
);
CREATE INDEX IF NOT EXISTS jobs_finished_at ON jobs (finished_at);
`

// Fixed width so that timestamps order correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type Record struct {
	ID          string
	Class       string
	Target      string
	Args        []string
	State       string
	Code        int
	SubmittedAt time.Time
	FinishedAt  time.Time
	// Output is only filled in by Get.
	Output []string
}

type Store struct {
	mu    sync.RWMutex
	db    *sql.DB
	codec Codec
}

func Open(dbPath string, codec Codec) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db, codec: codec}, nil
}

func (s *Store) Add(r *Record) error {
	output, err := Compress(s.codec, []byte(strings.Join(r.Output, "\n")))
	if err != nil {
		return fmt.Errorf("failed to compress output of %s: %w", r.ID, err)
	}
	args, _ := json.Marshal(r.Args)

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO jobs
		(id, class, target, args, state, exit_code, submitted_at, finished_at, output)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Class, r.Target, string(args), r.State, r.Code,
		formatTime(r.SubmittedAt), formatTime(r.FinishedAt), output)
	return err
}

// List returns up to limit records, newest first, without their output.
// A limit of zero or less returns everything.
func (s *Store) List(limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = -1
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, class, target, args, state, exit_code, submitted_at, finished_at
		FROM jobs ORDER BY finished_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Get returns one record with its output. id may be a unique prefix.
func (s *Store) Get(id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, class, target, args, state, exit_code, submitted_at, finished_at, output
		FROM jobs WHERE id = ? OR id LIKE ? ESCAPE '\'
		ORDER BY id = ? DESC LIMIT 2`, id, escapeLike(id)+"%", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var found []*Record
	for rows.Next() {
		var r Record
		var args, submitted, finished string
		var output []byte
		if err := rows.Scan(&r.ID, &r.Class, &r.Target, &args, &r.State, &r.Code,
			&submitted, &finished, &output); err != nil {
			return nil, err
		}
		fill(&r, args, submitted, finished)

		data, err := Decompress(output)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress output of %s: %w", r.ID, err)
		}
		if len(data) > 0 {
			r.Output = strings.Split(string(data), "\n")
		}
		if r.ID == id {
			return &r, nil
		}
		found = append(found, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrAmbiguous, id)
	}
}

// Prune keeps the newest keep records and deletes the rest. A negative keep
// deletes nothing.
func (s *Store) Prune(keep int) (int64, error) {
	if keep < 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`
		DELETE FROM jobs WHERE id NOT IN (
			SELECT id FROM jobs ORDER BY finished_at DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) Close() error {
	return s.db.Close()
}

func scanRecord(rows *sql.Rows) (*Record, error) {
	var r Record
	var args, submitted, finished string
	if err := rows.Scan(&r.ID, &r.Class, &r.Target, &args, &r.State, &r.Code, &submitted, &finished); err != nil {
		return nil, err
	}
	fill(&r, args, submitted, finished)
	return &r, nil
}

func fill(r *Record, args, submitted, finished string) {
	json.Unmarshal([]byte(args), &r.Args)
	r.SubmittedAt, _ = time.Parse(timeLayout, submitted)
	r.FinishedAt, _ = time.Parse(timeLayout, finished)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
