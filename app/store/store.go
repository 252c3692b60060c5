// Package store is the persistence layer: a sqlite database shared by every
// connection goroutine. All statement execution, reads and writes alike, is
// serialized behind a single process-wide lock, trading parallelism for
// safety under the one-goroutine-per-connection model.
package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

type DB struct {
	mu   sync.Mutex
	conn *sql.DB
}

// Open creates the database file (and its directory) if needed and applies
// the schema.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db := &DB{conn: conn}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// Execute runs one statement under the lock.
func (db *DB) Execute(query string, args ...any) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	_, err := db.conn.Exec(query, args...)
	return err
}

// FetchOne runs the query and scans its single row through scan. A missing
// row reports (false, nil) rather than an error.
func (db *DB) FetchOne(scan func(*sql.Row) error, query string, args ...any) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	err := scan(db.conn.QueryRow(query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// FetchAll runs the query and invokes scan once per row.
func (db *DB) FetchAll(scan func(*sql.Rows) error, query string, args ...any) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Transactional groups statements into one transaction under the lock, so a
// logical operation cannot interleave with concurrent writers.
func (db *DB) Transactional(op func(*sql.Tx) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	if err := op(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (db *DB) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			display_name TEXT NOT NULL,
			email TEXT,
			bio TEXT,
			avatar_url TEXT,
			role TEXT NOT NULL DEFAULT 'user',
			is_vip INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS posts (
			id TEXT PRIMARY KEY,
			author_id INTEGER NOT NULL,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			summary TEXT,
			category TEXT,
			tags TEXT,
			cover_image TEXT,
			permission_type TEXT NOT NULL DEFAULT 'public',
			password_hint TEXT,
			password_hash TEXT,
			allow_comments INTEGER NOT NULL DEFAULT 1,
			is_encrypted INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			FOREIGN KEY(author_id) REFERENCES users(id)
		)`,
		`CREATE TABLE IF NOT EXISTS comments (
			id TEXT PRIMARY KEY,
			post_id TEXT NOT NULL,
			author_id INTEGER NOT NULL,
			parent_id TEXT,
			content TEXT NOT NULL,
			emoji TEXT,
			created_at TEXT NOT NULL,
			FOREIGN KEY(post_id) REFERENCES posts(id),
			FOREIGN KEY(author_id) REFERENCES users(id)
		)`,
		`CREATE TABLE IF NOT EXISTS likes (
			id TEXT PRIMARY KEY,
			post_id TEXT NOT NULL,
			user_id INTEGER NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS favorites (
			id TEXT PRIMARY KEY,
			post_id TEXT NOT NULL,
			user_id INTEGER NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS subscriptions (
			id TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL,
			subscription_type TEXT NOT NULL,
			subscription_value TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			sender_id INTEGER NOT NULL,
			receiver_id INTEGER NOT NULL,
			content TEXT NOT NULL,
			sender_state TEXT NOT NULL DEFAULT 'active',
			receiver_state TEXT NOT NULL DEFAULT 'active',
			is_read INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS user_privacy_settings (
			user_id INTEGER PRIMARY KEY,
			hide_posts INTEGER NOT NULL DEFAULT 0,
			hide_favorites INTEGER NOT NULL DEFAULT 0,
			access_password_hash TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS performance_metrics (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp TEXT NOT NULL,
			latency_ms REAL NOT NULL,
			throughput REAL NOT NULL,
			rtt REAL NOT NULL,
			request_count INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL,
			message TEXT NOT NULL,
			type TEXT NOT NULL,
			is_read INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_posts_author ON posts(author_id)`,
		`CREATE INDEX IF NOT EXISTS idx_comments_post ON comments(post_id)`,
		`CREATE INDEX IF NOT EXISTS idx_likes_post_user ON likes(post_id, user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_favorites_post_user ON favorites(post_id, user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_users ON messages(sender_id, receiver_id)`,
	}
	for _, statement := range statements {
		if err := db.Execute(statement); err != nil {
			return err
		}
	}
	return nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Digest is the one-way password digest used for user, post and privacy
// passwords.
func Digest(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
