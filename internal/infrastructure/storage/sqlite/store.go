// Package sqlite keeps the host's capture list and selection across
// restarts.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"formbridge/internal/application/port/output"
	"formbridge/internal/domain/entity"
)

var ErrCaptureNotFound = errors.New("capture not found")

const DefaultKeep = 20

const schema = `
CREATE TABLE IF NOT EXISTS captures (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	url         TEXT    NOT NULL,
	title       TEXT    NOT NULL DEFAULT '',
	captured_at INTEGER NOT NULL,
	schema_json TEXT    NOT NULL,
	selected    INTEGER NOT NULL DEFAULT 0 CHECK (selected IN (0, 1))
);
CREATE INDEX IF NOT EXISTS idx_captures_selected ON captures(selected) WHERE selected = 1;
`

var _ output.CaptureStorePort = (*Store)(nil)

type Store struct {
	db   *sql.DB
	keep int
}

type config struct {
	keep int
}

type Option func(*config)

// WithKeep bounds the number of stored captures. Default: DefaultKeep.
func WithKeep(n int) Option { return func(c *config) { c.keep = n } }

// Open opens (and creates) the store at path. ":memory:" is accepted.
func Open(path string, opts ...Option) (*Store, error) {
	cfg := config{keep: DefaultKeep}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.keep <= 0 {
		cfg.keep = DefaultKeep
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("capture store: mkdir: %w", err)
		}
	}

	dsn := path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(10000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("capture store: open: %w", err)
	}
	// single writer; also keeps ":memory:" on one database
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("capture store: schema: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("capture store: ping: %w", err)
	}
	return &Store{db: db, keep: cfg.keep}, nil
}

// Save stores schema as the selected capture and prunes past the limit.
func (s *Store) Save(ctx context.Context, fs entity.FormSchema) (int64, error) {
	data, err := json.Marshal(fs)
	if err != nil {
		return 0, fmt.Errorf("encode capture: %w", err)
	}

	var id int64
	err = s.tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE captures SET selected = 0 WHERE selected = 1`); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO captures (url, title, captured_at, schema_json, selected) VALUES (?, ?, ?, ?, 1)`,
			fs.URL, fs.Title, fs.CapturedAt.UnixMilli(), string(data))
		if err != nil {
			return err
		}
		if id, err = res.LastInsertId(); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`DELETE FROM captures WHERE id NOT IN (SELECT id FROM captures ORDER BY id DESC LIMIT ?)`, s.keep)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("save capture: %w", err)
	}
	return id, nil
}

// List returns stored captures, newest first.
func (s *Store) List(ctx context.Context) ([]output.StoredCapture, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, selected, schema_json FROM captures ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list captures: %w", err)
	}
	defer rows.Close()

	var out []output.StoredCapture
	for rows.Next() {
		c, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list captures: %w", err)
	}
	return out, nil
}

func (s *Store) Select(ctx context.Context, id int64) error {
	return s.tx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM captures WHERE id = ?`, id).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %d", ErrCaptureNotFound, id)
		}
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE captures SET selected = (id = ?)`, id); err != nil {
			return err
		}
		return nil
	})
}

// Selected returns nil without error when nothing is selected.
func (s *Store) Selected(ctx context.Context) (*output.StoredCapture, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, selected, schema_json FROM captures WHERE selected = 1 LIMIT 1`)
	c, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) Remove(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM captures WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("remove capture: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove capture: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrCaptureNotFound, id)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) tx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(r scanner) (output.StoredCapture, error) {
	var (
		c        output.StoredCapture
		selected int
		data     string
	)
	if err := r.Scan(&c.ID, &selected, &data); err != nil {
		return c, err
	}
	c.Selected = selected == 1
	if err := json.Unmarshal([]byte(data), &c.Schema); err != nil {
		return c, fmt.Errorf("decode capture %d: %w", c.ID, err)
	}
	return c, nil
}
