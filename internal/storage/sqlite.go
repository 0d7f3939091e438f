// Package storage implements the collaborator interfaces over SQLite:
// merchant directory, subcategory taxonomy, transaction history and the
// alert store. The decision engines only ever see the read interfaces.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mizuiro-dev/zenibako/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// merchantCacheTTL bounds how long directory lookups are served from memory.
const merchantCacheTTL = 5 * time.Minute

// SQLiteStorage implements service.Storage using SQLite.
type SQLiteStorage struct {
	cacheExpiry   time.Time
	db            *sql.DB
	merchantCache map[string]*model.Merchant
	dbPath        string
	cacheMutex    sync.RWMutex
}

// queryable abstracts *sql.DB and *sql.Tx for helpers used inside and
// outside transactions.
type queryable interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// NewSQLiteStorage creates a new SQLite storage instance.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStorage{
		db:            db,
		dbPath:        dbPath,
		merchantCache: make(map[string]*model.Merchant),
	}, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) getCachedMerchant(key string) *model.Merchant {
	s.cacheMutex.RLock()
	defer s.cacheMutex.RUnlock()
	if time.Now().After(s.cacheExpiry) {
		return nil
	}
	return s.merchantCache[key]
}

func (s *SQLiteStorage) cacheMerchant(key string, m *model.Merchant) {
	s.cacheMutex.Lock()
	defer s.cacheMutex.Unlock()
	if time.Now().After(s.cacheExpiry) {
		s.merchantCache = make(map[string]*model.Merchant)
		s.cacheExpiry = time.Now().Add(merchantCacheTTL)
	}
	s.merchantCache[key] = m
}

func (s *SQLiteStorage) invalidateMerchantCache() {
	s.cacheMutex.Lock()
	defer s.cacheMutex.Unlock()
	s.merchantCache = make(map[string]*model.Merchant)
	s.cacheExpiry = time.Time{}
}
