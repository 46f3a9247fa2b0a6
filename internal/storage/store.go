package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"

	_ "modernc.org/sqlite"
)

// CachedAnalysis represents a cached analysis result. Size and Brand are
// nil when the model could not determine them.
type CachedAnalysis struct {
	Analyzer string
	ItemType string
	Size     *string
	Brand    *string
}

// AnalysisCache defines the interface for analysis result persistence.
type AnalysisCache interface {
	GetAnalysis(imageHash string) (*CachedAnalysis, error)
	SetAnalysis(imageHash string, entry *CachedAnalysis) error
	Close() error
}

// SQLiteStore implements AnalysisCache using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (creating if needed) the cache database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Configure SQLite with WAL mode and busy timeout for better concurrency
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}

	// The file exists once the schema has been created
	if err := os.Chmod(dbPath, 0600); err != nil && !errors.Is(err, os.ErrNotExist) {
		db.Close()
		return nil, fmt.Errorf("failed to set database permissions: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) init() error {
	query := `
	CREATE TABLE IF NOT EXISTS analysis_cache (
		image_hash TEXT PRIMARY KEY,
		analyzer TEXT NOT NULL,
		item_type TEXT NOT NULL,
		size TEXT,
		brand TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create analysis_cache table: %w", err)
	}
	return nil
}

// GetAnalysis retrieves a cached analysis by image hash.
// Returns nil, nil if no cache entry exists.
func (s *SQLiteStore) GetAnalysis(imageHash string) (*CachedAnalysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entry CachedAnalysis
	var size, brand sql.NullString
	err := s.db.QueryRow(
		"SELECT analyzer, item_type, size, brand FROM analysis_cache WHERE image_hash = ?",
		imageHash,
	).Scan(&entry.Analyzer, &entry.ItemType, &size, &brand)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis cache: %w", err)
	}

	entry.Size = fromNullString(size)
	entry.Brand = fromNullString(brand)

	return &entry, nil
}

// SetAnalysis stores an analysis result in the cache.
func (s *SQLiteStore) SetAnalysis(imageHash string, entry *CachedAnalysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO analysis_cache (image_hash, analyzer, item_type, size, brand)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(image_hash) DO UPDATE SET
			analyzer = excluded.analyzer,
			item_type = excluded.item_type,
			size = excluded.size,
			brand = excluded.brand,
			created_at = CURRENT_TIMESTAMP
	`, imageHash, entry.Analyzer, entry.ItemType, toNullString(entry.Size), toNullString(entry.Brand))

	if err != nil {
		return fmt.Errorf("failed to cache analysis result: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
