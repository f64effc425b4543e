package store

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

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/rcliao/welfare-desk/internal/model"
)

// SQLiteStore implements ProfileStore using SQLite as the local record medium.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
// A nil logger discards output.
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	// Immediate transactions take the write lock on BEGIN so a read-modify-write
	// from another process cannot interleave with ours.
	dsn := dbPath + "?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)&_txlock=immediate"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_records_updated ON records(updated_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func readValue(ctx context.Context, q queryer, key string) (string, error) {
	var value string
	err := q.QueryRowContext(ctx, `SELECT value FROM records WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", &StorageError{Op: "read", Key: key, Err: err}
	}
	return value, nil
}

func writeValue(ctx context.Context, q queryer, key, value string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := q.ExecContext(ctx,
		`INSERT INTO records (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, now)
	if err != nil {
		return &StorageError{Op: "write", Key: key, Err: err}
	}
	return nil
}

// loadProfile reads and decodes a profile. Corrupt records are logged and
// reported as ErrNotFound.
func (s *SQLiteStore) loadProfile(ctx context.Context, q queryer, session string) (*model.Profile, error) {
	key := ProfileKey(session)
	raw, err := readValue(ctx, q, key)
	if err != nil {
		return nil, err
	}
	p, err := model.DecodeProfile([]byte(raw))
	if err != nil {
		s.logger.Warn("discarding unreadable profile record",
			zap.String("key", key), zap.Error(err))
		return nil, ErrNotFound
	}
	return p, nil
}

func encodeProfile(key string, p *model.Profile) (string, error) {
	if p.Reminders == nil {
		p.Reminders = []model.Reminder{}
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "", &StorageError{Op: "encode", Key: key, Err: err}
	}
	return string(b), nil
}

func (s *SQLiteStore) Get(ctx context.Context, session string) (*model.Profile, error) {
	if session == "" {
		return nil, ErrNoSession
	}
	return s.loadProfile(ctx, s.db, session)
}

func (s *SQLiteStore) Set(ctx context.Context, session string, p *model.Profile) error {
	if session == "" {
		return ErrNoSession
	}
	key := ProfileKey(session)
	value, err := encodeProfile(key, p)
	if err != nil {
		return err
	}
	return writeValue(ctx, s.db, key, value)
}

func (s *SQLiteStore) Update(ctx context.Context, session string, fn UpdateFunc) (*model.Profile, error) {
	return s.update(ctx, session, fn, true)
}

func (s *SQLiteStore) UpdateExisting(ctx context.Context, session string, fn UpdateFunc) (*model.Profile, error) {
	return s.update(ctx, session, fn, false)
}

// update runs fn inside one immediate transaction. With create unset a
// missing or unreadable record is ErrNotFound and fn is never called.
func (s *SQLiteStore) update(ctx context.Context, session string, fn UpdateFunc, create bool) (*model.Profile, error) {
	if session == "" {
		return nil, ErrNoSession
	}
	key := ProfileKey(session)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, &StorageError{Op: "begin", Key: key, Err: err}
	}
	defer tx.Rollback()

	p, err := s.loadProfile(ctx, tx, session)
	switch {
	case errors.Is(err, ErrNotFound) && create:
		p = model.NewProfile(session)
	case err != nil:
		return nil, err
	}

	if err := fn(p); err != nil {
		return nil, err
	}

	value, err := encodeProfile(key, p)
	if err != nil {
		return nil, err
	}
	if err := writeValue(ctx, tx, key, value); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, &StorageError{Op: "commit", Key: key, Err: err}
	}
	return p, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, session string) error {
	if session == "" {
		return ErrNoSession
	}
	key := ProfileKey(session)
	if _, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE key = ?`, key); err != nil {
		return &StorageError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

func (s *SQLiteStore) CurrentSession(ctx context.Context) (string, error) {
	v, err := readValue(ctx, s.db, currentSessionKey)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return v, err
}

func (s *SQLiteStore) SetCurrentSession(ctx context.Context, session string) error {
	if session == "" {
		return ErrNoSession
	}
	return writeValue(ctx, s.db, currentSessionKey, session)
}

func (s *SQLiteStore) ClearCurrentSession(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE key = ?`, currentSessionKey); err != nil {
		return &StorageError{Op: "delete", Key: currentSessionKey, Err: err}
	}
	return nil
}

// SessionInfo describes one stored profile.
type SessionInfo struct {
	Session   string `json:"session"`
	UpdatedAt string `json:"updated_at"`
}

// List returns every session with a stored profile, most recently updated first.
func (s *SQLiteStore) List(ctx context.Context) ([]SessionInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, updated_at FROM records ORDER BY updated_at DESC, key`)
	if err != nil {
		return nil, &StorageError{Op: "list", Err: err}
	}
	defer rows.Close()

	out := []SessionInfo{}
	for rows.Next() {
		var key, updated string
		if err := rows.Scan(&key, &updated); err != nil {
			return nil, err
		}
		if !strings.HasPrefix(key, profilePrefix) {
			continue
		}
		out = append(out, SessionInfo{Session: strings.TrimPrefix(key, profilePrefix), UpdatedAt: updated})
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ ProfileStore = (*SQLiteStore)(nil)
