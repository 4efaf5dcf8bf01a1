// Package store keeps named editor states in a SQLite database.
package store

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/walteh/propexpr/pkg/editor"
	"gitlab.com/tozd/go/errors"
)

var ErrNotFound = errors.Base("state not found")

const schema = `CREATE TABLE IF NOT EXISTS states (
	name       TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	state      BLOB NOT NULL,
	updated_at INTEGER NOT NULL
)`

type Store struct {
	db   *sql.DB
	path string
}

// Entry describes a saved state without its content.
type Entry struct {
	Name      string
	Kind      string
	UpdatedAt time.Time
}

// Open opens or creates the database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Errorf("opening %s: %w", path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Errorf("opening %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, errors.Errorf("creating schema in %s: %w", path, err)
	}

	zerolog.Ctx(ctx).Debug().Str("path", path).Msg("store opened")
	return &Store{db: db, path: path}, nil
}

func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return errors.Errorf("closing %s: %w", s.path, err)
	}
	return nil
}

// Save writes st under name, replacing any earlier state of that name.
func (s *Store) Save(ctx context.Context, name string, st editor.State) error {
	if name == "" {
		return errors.New("saving state: empty name")
	}
	data, err := editor.MarshalState(st)
	if err != nil {
		return errors.Errorf("saving %q: %w", name, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO states (name, kind, state, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET kind = excluded.kind, state = excluded.state, updated_at = excluded.updated_at`,
		name, st.Kind, data, time.Now().UnixNano())
	if err != nil {
		return errors.Errorf("saving %q: %w", name, err)
	}

	zerolog.Ctx(ctx).Debug().Str("name", name).Int("nodes", len(st.Content)).Msg("state saved")
	return nil
}

func (s *Store) Load(ctx context.Context, name string) (editor.State, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT state FROM states WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return editor.State{}, errors.Errorf("%q: %w", name, ErrNotFound)
	}
	if err != nil {
		return editor.State{}, errors.Errorf("loading %q: %w", name, err)
	}

	st, err := editor.UnmarshalState(data)
	if err != nil {
		return editor.State{}, errors.Errorf("loading %q: %w", name, err)
	}
	return st, nil
}

// List returns the saved states ordered by name.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, kind, updated_at FROM states ORDER BY name`)
	if err != nil {
		return nil, errors.Errorf("listing states: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var updated int64
		if err := rows.Scan(&e.Name, &e.Kind, &updated); err != nil {
			return nil, errors.Errorf("listing states: %w", err)
		}
		e.UpdatedAt = time.Unix(0, updated)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Errorf("listing states: %w", err)
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM states WHERE name = ?`, name)
	if err != nil {
		return errors.Errorf("deleting %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Errorf("deleting %q: %w", name, err)
	}
	if n == 0 {
		return errors.Errorf("%q: %w", name, ErrNotFound)
	}
	return nil
}
