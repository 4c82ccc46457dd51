// Package session implements local session persistence and the controller
// that drives the login/logout lifecycle.
//
// Refresh tokens live in a transactional sqlite tier when the environment
// supports it, with a plain JSON file as fallback. The file also serves as a
// simple key-value store for the access token and the cached profile.
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/genesisio/genesisio/internal/client/migrations"
	"github.com/genesisio/genesisio/internal/common"
	"github.com/genesisio/genesisio/internal/dbx"
	"github.com/genesisio/genesisio/internal/logging"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// refreshTokenKey is the fixed logical id of the single session row.
const refreshTokenKey = "refreshToken"

// TokenStore is the storage strategy for the refresh token. Implementations
// are chosen by a capability probe at session start.
type TokenStore interface {
	SaveRefreshToken(ctx context.Context, token string) error
	RefreshToken(ctx context.Context) (string, error)
	DeleteRefreshToken(ctx context.Context) (bool, error)
}

// SQLiteStore is the transactional tier. Every operation runs in its own
// transaction so a torn write can never leave a partial token behind.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the sqlite database, runs migrations and
// verifies writability with a probe transaction. Any failure means the
// environment does not support the transactional tier.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	// Probe transaction: an opened file is not necessarily writable.
	err = dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := tx.ExecContext(ctx, `SELECT count(*) FROM session`)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("probe error: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) SaveRefreshToken(ctx context.Context, token string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if token == "" {
			_, err := tx.ExecContext(ctx, `DELETE FROM session WHERE id = ?`, refreshTokenKey)
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO session (id, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
			 ON CONFLICT (id) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			refreshTokenKey, token)
		return err
	})
}

func (s *SQLiteStore) RefreshToken(ctx context.Context) (string, error) {
	var token string
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		row := tx.QueryRowContext(ctx, `SELECT value FROM session WHERE id = ?`, refreshTokenKey)
		if err := row.Scan(&token); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return common.ErrorNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

func (s *SQLiteStore) DeleteRefreshToken(ctx context.Context) (bool, error) {
	var deleted bool
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM session WHERE id = ?`, refreshTokenKey)
		if err != nil {
			return err
		}
		if affected, err := res.RowsAffected(); err == nil {
			deleted = affected > 0
		}
		return nil
	})
	return deleted, err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type sessionFile struct {
	RefreshToken string          `json:"refreshToken,omitempty"`
	AccessToken  string          `json:"accessToken,omitempty"`
	Profile      json.RawMessage `json:"profile,omitempty"`
}

// FileStore is the fallback tier and the kv store for session artifacts
// that need no transactional guarantees. Writes go through a temp file and
// an atomic rename. Saving an empty value clears the field.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) load() (*sessionFile, error) {
	f := &sessionFile{}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return f, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *FileStore) store(f *sessionFile) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func (s *FileStore) update(fn func(*sessionFile)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return err
	}
	fn(f)
	return s.store(f)
}

func (s *FileStore) SaveRefreshToken(ctx context.Context, token string) error {
	return s.update(func(f *sessionFile) { f.RefreshToken = token })
}

func (s *FileStore) RefreshToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return "", err
	}
	if f.RefreshToken == "" {
		return "", common.ErrorNotFound
	}
	return f.RefreshToken, nil
}

func (s *FileStore) DeleteRefreshToken(ctx context.Context) (bool, error) {
	var deleted bool
	err := s.update(func(f *sessionFile) {
		deleted = f.RefreshToken != ""
		f.RefreshToken = ""
	})
	return deleted, err
}

func (s *FileStore) SaveAccessToken(ctx context.Context, token string) error {
	return s.update(func(f *sessionFile) { f.AccessToken = token })
}

func (s *FileStore) AccessToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return "", err
	}
	if f.AccessToken == "" {
		return "", common.ErrorNotFound
	}
	return f.AccessToken, nil
}

func (s *FileStore) SaveProfile(ctx context.Context, profile json.RawMessage) error {
	return s.update(func(f *sessionFile) { f.Profile = profile })
}

func (s *FileStore) Profile(ctx context.Context) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return nil, err
	}
	if len(f.Profile) == 0 {
		return nil, common.ErrorNotFound
	}
	return f.Profile, nil
}

// Clear wipes every session artifact in one atomic write.
func (s *FileStore) Clear(ctx context.Context) error {
	return s.update(func(f *sessionFile) { *f = sessionFile{} })
}

// Open probes the transactional tier and picks the storage strategy for the
// session. When sqlite is unavailable, the file tier serves refresh tokens
// too; the caller never sees the probe failure.
func Open(ctx context.Context, logger logging.Logger, dbPath string, kv *FileStore) TokenStore {
	store, err := NewSQLiteStore(ctx, dbPath)
	if err != nil {
		logger.Warn(ctx, "transactional session store unavailable, using file fallback", "error", err)
		return kv
	}
	return store
}
