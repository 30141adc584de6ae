// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package sqlstore provides a cookie.Store persisted in a SQLite
// database, so that cookies survive process restarts.
//
// Session cookies, which have no expiry time, are kept while the store
// is open and are discarded when the store is next opened.
package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gogama/httpexec/cookie"

	_ "modernc.org/sqlite" // SQLite driver
)

// Store is a cookie.Store backed by SQLite.
type Store struct {
	db        *sql.DB
	mu        sync.Mutex
	closeOnce sync.Once

	upsertStmt *sql.Stmt
	deleteStmt *sql.Stmt
	listStmt   *sql.Stmt
}

// Config configures a Store.
type Config struct {
	// Path is the path of the database file. ":memory:" opens a private
	// in-memory database.
	Path string
	// BusyTimeout is how long to wait for a lock held by another
	// connection. Default: 5 seconds.
	BusyTimeout time.Duration
}

// Open opens or creates the cookie database at path.
func Open(path string) (*Store, error) {
	return OpenWithConfig(Config{Path: path})
}

// OpenWithConfig opens or creates a cookie database.
func OpenWithConfig(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, errors.New("httpexec/sqlstore: database path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)", cfg.Path, cfg.BusyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("httpexec/sqlstore: failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite only supports single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &Store{db: db}
	if err = s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("httpexec/sqlstore: failed to initialize schema: %w", err)
	}
	if err = s.prepareStatements(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("httpexec/sqlstore: failed to prepare statements: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cookies (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		key TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		value TEXT NOT NULL,
		domain TEXT NOT NULL,
		path TEXT NOT NULL,
		expires INTEGER NOT NULL,
		secure INTEGER NOT NULL,
		http_only INTEGER NOT NULL,
		version INTEGER NOT NULL,
		host_only INTEGER NOT NULL,
		cookie2 INTEGER NOT NULL,
		created INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_cookies_expires ON cookies(expires);

	DELETE FROM cookies WHERE expires = 0;
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) prepareStatements() error {
	var err error
	s.upsertStmt, err = s.db.Prepare(`
		INSERT INTO cookies (key, name, value, domain, path, expires, secure, http_only, version, host_only, cookie2, created)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			value = excluded.value,
			expires = excluded.expires,
			secure = excluded.secure,
			http_only = excluded.http_only,
			version = excluded.version,
			host_only = excluded.host_only,
			cookie2 = excluded.cookie2
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert statement: %w", err)
	}
	s.deleteStmt, err = s.db.Prepare(`DELETE FROM cookies WHERE key = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare delete statement: %w", err)
	}
	s.listStmt, err = s.db.Prepare(`
		SELECT name, value, domain, path, expires, secure, http_only, version, host_only, cookie2, created
		FROM cookies ORDER BY seq
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare list statement: %w", err)
	}
	return nil
}

// Add stores c, replacing any cookie with the same key. An expired
// cookie deletes the cookie it replaces.
func (s *Store) Add(c *cookie.Cookie) error {
	if c == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.IsExpired(time.Now()) {
		if _, err := s.deleteStmt.Exec(c.Key()); err != nil {
			return fmt.Errorf("httpexec/sqlstore: failed to delete cookie: %w", err)
		}
		return nil
	}
	created := c.Created
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.upsertStmt.Exec(c.Key(), c.Name, c.Value, c.Domain, c.Path,
		unixNano(c.Expires), c.Secure, c.HTTPOnly, c.Version, c.HostOnly, c.Cookie2,
		created.UnixNano())
	if err != nil {
		return fmt.Errorf("httpexec/sqlstore: failed to save cookie: %w", err)
	}
	return nil
}

// Cookies returns the stored cookies in the order they were first
// added.
func (s *Store) Cookies() ([]*cookie.Cookie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.listStmt.Query()
	if err != nil {
		return nil, fmt.Errorf("httpexec/sqlstore: failed to list cookies: %w", err)
	}
	defer rows.Close()

	var result []*cookie.Cookie
	for rows.Next() {
		var c cookie.Cookie
		var expires, created int64
		if err = rows.Scan(&c.Name, &c.Value, &c.Domain, &c.Path, &expires,
			&c.Secure, &c.HTTPOnly, &c.Version, &c.HostOnly, &c.Cookie2, &created); err != nil {
			return nil, fmt.Errorf("httpexec/sqlstore: failed to scan cookie: %w", err)
		}
		if expires != 0 {
			c.Expires = time.Unix(0, expires)
		}
		c.Created = time.Unix(0, created)
		result = append(result, &c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("httpexec/sqlstore: failed to list cookies: %w", err)
	}
	return result, nil
}

// ClearExpired deletes cookies expired at now.
func (s *Store) ClearExpired(now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.Exec(`DELETE FROM cookies WHERE expires != 0 AND expires <= ?`, now.UnixNano())
	if err != nil {
		return false, fmt.Errorf("httpexec/sqlstore: failed to clear expired cookies: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Clear deletes every cookie.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec(`DELETE FROM cookies`); err != nil {
		return fmt.Errorf("httpexec/sqlstore: failed to clear cookies: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		for _, stmt := range []*sql.Stmt{s.upsertStmt, s.deleteStmt, s.listStmt} {
			_ = stmt.Close()
		}
		err = s.db.Close()
	})
	return err
}

func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

var _ cookie.Store = (*Store)(nil)
