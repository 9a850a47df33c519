package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/shoplens/backend/internal/domain"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteStore persists research entries and settings in a single SQLite
// file. It implements domain.ResearchRepository and domain.SettingsRepository.
type SQLiteStore struct {
	conn *sql.DB
}

// NewSQLiteStore opens (creating if necessary) the database at path and
// applies the schema
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// modernc.org/sqlite is not safe for concurrent writers on one file
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}

	if _, err := conn.Exec(schemaSQL); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{conn: conn}, nil
}

// Close releases the underlying database handle
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

// List returns all research entries, most recent first
func (s *SQLiteStore) List(ctx context.Context) ([]domain.ResearchEntry, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, query, product_name, requirements, categories, keywords,
		        timestamp, last_used, conversation_id
		 FROM research_entries
		 ORDER BY timestamp DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("%w: list entries: %v", domain.ErrStorageFailure, err)
	}
	defer rows.Close()

	var entries []domain.ResearchEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate entries: %v", domain.ErrStorageFailure, err)
	}

	return entries, nil
}

// Get returns the entry with the given id
func (s *SQLiteStore) Get(ctx context.Context, id string) (*domain.ResearchEntry, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT id, query, product_name, requirements, categories, keywords,
		        timestamp, last_used, conversation_id
		 FROM research_entries WHERE id = ?`, id)

	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrEntryNotFound
		}
		return nil, err
	}
	return entry, nil
}

// Put inserts or replaces the entry keyed by its ID
func (s *SQLiteStore) Put(ctx context.Context, entry domain.ResearchEntry) error {
	requirements, err := encodeStrings(entry.Requirements)
	if err != nil {
		return err
	}
	categories, err := encodeStrings(entry.Categories)
	if err != nil {
		return err
	}
	keywords, err := encodeStrings(entry.Keywords)
	if err != nil {
		return err
	}

	_, err = s.conn.ExecContext(ctx,
		`INSERT OR REPLACE INTO research_entries (
			id, query, product_name, requirements, categories, keywords,
			timestamp, last_used, conversation_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Query,
		entry.ProductName,
		requirements,
		categories,
		keywords,
		entry.Timestamp.UnixNano(),
		entry.LastUsed.UnixNano(),
		entry.ConversationID,
	)
	if err != nil {
		return fmt.Errorf("%w: put entry: %v", domain.ErrStorageFailure, err)
	}
	return nil
}

// Delete removes the entry with the given id; absent ids are not an error
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.conn.ExecContext(ctx,
		`DELETE FROM research_entries WHERE id = ?`, id); err != nil {
		return fmt.Errorf("%w: delete entry: %v", domain.ErrStorageFailure, err)
	}
	return nil
}

// DeleteBefore removes entries whose last_used is older than cutoff and
// returns how many were removed
func (s *SQLiteStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int, error) {
	result, err := s.conn.ExecContext(ctx,
		`DELETE FROM research_entries WHERE last_used < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("%w: delete stale entries: %v", domain.ErrStorageFailure, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: delete stale entries: %v", domain.ErrStorageFailure, err)
	}
	return int(affected), nil
}

// TrimTo keeps only the n most recent entries
func (s *SQLiteStore) TrimTo(ctx context.Context, n int) error {
	if n < 0 {
		n = 0
	}
	_, err := s.conn.ExecContext(ctx,
		`DELETE FROM research_entries WHERE id NOT IN (
			SELECT id FROM research_entries ORDER BY timestamp DESC, rowid DESC LIMIT ?
		)`, n)
	if err != nil {
		return fmt.Errorf("%w: trim entries: %v", domain.ErrStorageFailure, err)
	}
	return nil
}

// GetSetting returns the stored value for key, or "" when unset
func (s *SQLiteStore) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.conn.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: get setting: %v", domain.ErrStorageFailure, err)
	}
	return value, nil
}

// PutSetting stores the value for key, replacing any previous value
func (s *SQLiteStore) PutSetting(ctx context.Context, key, value string) error {
	if _, err := s.conn.ExecContext(ctx,
		`INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)`,
		key, value); err != nil {
		return fmt.Errorf("%w: put setting: %v", domain.ErrStorageFailure, err)
	}
	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row rowScanner) (*domain.ResearchEntry, error) {
	var entry domain.ResearchEntry
	var requirements, categories, keywords string
	var timestamp, lastUsed int64

	if err := row.Scan(
		&entry.ID,
		&entry.Query,
		&entry.ProductName,
		&requirements,
		&categories,
		&keywords,
		&timestamp,
		&lastUsed,
		&entry.ConversationID,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: scan entry: %v", domain.ErrStorageFailure, err)
	}

	var err error
	if entry.Requirements, err = decodeStrings(requirements); err != nil {
		return nil, err
	}
	if entry.Categories, err = decodeStrings(categories); err != nil {
		return nil, err
	}
	if entry.Keywords, err = decodeStrings(keywords); err != nil {
		return nil, err
	}

	entry.Timestamp = time.Unix(0, timestamp)
	entry.LastUsed = time.Unix(0, lastUsed)

	return &entry, nil
}

func encodeStrings(values []string) (string, error) {
	if len(values) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("%w: encode strings: %v", domain.ErrStorageFailure, err)
	}
	return string(data), nil
}

func decodeStrings(raw string) ([]string, error) {
	if raw == "" || raw == "[]" {
		return nil, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("%w: decode strings: %v", domain.ErrStorageFailure, err)
	}
	return values, nil
}
