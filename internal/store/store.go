// Package store persists subscribers, attachment metadata and label
// mappings in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"pagebridge/internal/domain"
)

// SQLiteStore implements domain.SubscriberStore, domain.AttachmentResolver
// and domain.LabelStore on a single SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (creating if needed) the database at dbPath.
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Single connection: SQLite serializes writers anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS subscribers (
		foreign_id    TEXT PRIMARY KEY,
		channel       TEXT NOT NULL,
		first_name    TEXT,
		last_name     TEXT,
		gender        TEXT,
		locale        TEXT,
		timezone      INTEGER DEFAULT 0,
		labels        TEXT,
		last_visit    DATETIME,
		retained_from DATETIME
	);

	CREATE TABLE IF NOT EXISTS attachments (
		id         TEXT PRIMARY KEY,
		foreign_id TEXT NOT NULL UNIQUE,
		mime_type  TEXT,
		url        TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_attachments_foreign ON attachments(foreign_id);

	CREATE TABLE IF NOT EXISTS labels (
		name       TEXT PRIMARY KEY,
		foreign_id TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// UpsertSubscriber inserts or refreshes a subscriber record. LastVisit is
// always advanced; RetainedFrom keeps its first value.
func (s *SQLiteStore) UpsertSubscriber(ctx context.Context, sub domain.Subscriber) error {
	now := time.Now()
	if sub.LastVisit.IsZero() {
		sub.LastVisit = now
	}
	if sub.RetainedFrom.IsZero() {
		sub.RetainedFrom = now
	}
	labels, err := json.Marshal(sub.Labels)
	if err != nil {
		return fmt.Errorf("encode labels: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO subscribers (foreign_id, channel, first_name, last_name, gender, locale, timezone, labels, last_visit, retained_from)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(foreign_id) DO UPDATE SET
			first_name = excluded.first_name,
			last_name  = excluded.last_name,
			gender     = excluded.gender,
			locale     = excluded.locale,
			timezone   = excluded.timezone,
			labels     = excluded.labels,
			last_visit = excluded.last_visit`,
		sub.ForeignID, sub.Channel, sub.FirstName, sub.LastName, sub.Gender,
		sub.Locale, sub.Timezone, string(labels), sub.LastVisit, sub.RetainedFrom,
	)
	return err
}

// GetSubscriber returns the subscriber with the given page-scoped id, or
// (nil, nil) when unknown.
func (s *SQLiteStore) GetSubscriber(ctx context.Context, foreignID string) (*domain.Subscriber, error) {
	var (
		sub    domain.Subscriber
		labels sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT foreign_id, channel, first_name, last_name, gender, locale, timezone, labels, last_visit, retained_from
		 FROM subscribers WHERE foreign_id = ?`, foreignID,
	).Scan(&sub.ForeignID, &sub.Channel, &sub.FirstName, &sub.LastName, &sub.Gender,
		&sub.Locale, &sub.Timezone, &labels, &sub.LastVisit, &sub.RetainedFrom)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if labels.Valid && labels.String != "" {
		if err := json.Unmarshal([]byte(labels.String), &sub.Labels); err != nil {
			s.logger.Warn("corrupt labels column", "subscriber", foreignID, "error", err)
		}
	}
	return &sub, nil
}

// SaveAttachment records metadata for a platform-issued attachment id and
// returns the stored row id.
func (s *SQLiteStore) SaveAttachment(ctx context.Context, foreignID, mimeType, url string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO attachments (id, foreign_id, mime_type, url) VALUES (?, ?, ?, ?)
		 ON CONFLICT(foreign_id) DO UPDATE SET mime_type = excluded.mime_type, url = excluded.url`,
		id, foreignID, mimeType, url,
	)
	if err != nil {
		return "", err
	}
	// The upsert may have kept an earlier row id.
	var stored string
	if err := s.db.QueryRowContext(ctx,
		`SELECT id FROM attachments WHERE foreign_id = ?`, foreignID,
	).Scan(&stored); err != nil {
		return "", err
	}
	return stored, nil
}

// ResolveAttachment maps a platform attachment id to stored metadata, or
// (nil, nil) when the attachment has not been ingested yet.
func (s *SQLiteStore) ResolveAttachment(ctx context.Context, foreignID string) (*domain.AttachmentMetadata, error) {
	var meta domain.AttachmentMetadata
	err := s.db.QueryRowContext(ctx,
		`SELECT id, mime_type, url FROM attachments WHERE foreign_id = ?`, foreignID,
	).Scan(&meta.ID, &meta.MimeType, &meta.URL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

// SaveLabel stores or refreshes a label name to external id mapping.
func (s *SQLiteStore) SaveLabel(ctx context.Context, label domain.Label) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO labels (name, foreign_id) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET foreign_id = excluded.foreign_id`,
		label.Name, label.ForeignID,
	)
	return err
}

// GetLabel returns the mapping for a label name, or (nil, nil) when absent.
func (s *SQLiteStore) GetLabel(ctx context.Context, name string) (*domain.Label, error) {
	var label domain.Label
	err := s.db.QueryRowContext(ctx,
		`SELECT name, foreign_id FROM labels WHERE name = ?`, name,
	).Scan(&label.Name, &label.ForeignID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &label, nil
}

// DeleteLabel removes a label mapping.
func (s *SQLiteStore) DeleteLabel(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM labels WHERE name = ?`, name)
	return err
}
