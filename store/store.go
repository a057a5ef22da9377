// Package store persists patching outputs in SQLite, keyed by a content
// hash of the input containers. A front-end can use it to skip re-patching
// an application package whose inputs have not changed.
package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// ErrNotFound indicates no stored outputs exist for the requested input hash.
var ErrNotFound = errors.New("no stored outputs for input hash")

// Outcome is one persisted per-patch result.
type Outcome struct {
	Patch   string
	OK      bool
	Message string
}

// Store is the SQLite-backed output store.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex
}

// Open opens (creating if needed) the store at the given path.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	// Create tables if needed
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS outputs (
		input_hash TEXT NOT NULL,
		name       TEXT NOT NULL,
		data       BLOB NOT NULL,
		PRIMARY KEY (input_hash, name)
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating outputs table: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS outcomes (
		input_hash TEXT NOT NULL,
		patch      TEXT NOT NULL,
		ok         INTEGER NOT NULL,
		message    TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (input_hash, patch)
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating outcomes table: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// HashInputs computes the content hash identifying a set of input container
// files: sha256 over their bytes in path order.
func HashInputs(paths []string) (string, error) {
	h := sha256.New()
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("hashing input %s: %w", path, err)
		}
		h.Write(data)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// PutOutputs stores serialized output containers for an input hash,
// replacing any previous set for the same hash.
func (s *Store) PutOutputs(inputHash string, outputs map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM outputs WHERE input_hash = ?", inputHash); err != nil {
		return fmt.Errorf("clearing previous outputs: %w", err)
	}
	for name, data := range outputs {
		if _, err := tx.Exec(
			"INSERT INTO outputs (input_hash, name, data) VALUES (?, ?, ?)",
			inputHash, name, data,
		); err != nil {
			return fmt.Errorf("saving output %s: %w", name, err)
		}
	}
	return tx.Commit()
}

// GetOutputs retrieves the stored output containers for an input hash.
// Returns ErrNotFound if nothing is stored for it.
func (s *Store) GetOutputs(inputHash string) (map[string][]byte, error) {
	rows, err := s.db.Query(
		"SELECT name, data FROM outputs WHERE input_hash = ?", inputHash)
	if err != nil {
		return nil, fmt.Errorf("querying outputs: %w", err)
	}
	defer rows.Close()

	outputs := make(map[string][]byte)
	for rows.Next() {
		var name string
		var data []byte
		if err := rows.Scan(&name, &data); err != nil {
			return nil, fmt.Errorf("scanning output row: %w", err)
		}
		outputs[name] = data
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading outputs: %w", err)
	}
	if len(outputs) == 0 {
		return nil, ErrNotFound
	}
	return outputs, nil
}

// PutOutcomes stores per-patch outcomes for an input hash, replacing any
// previous set for the same hash.
func (s *Store) PutOutcomes(inputHash string, outcomes []Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM outcomes WHERE input_hash = ?", inputHash); err != nil {
		return fmt.Errorf("clearing previous outcomes: %w", err)
	}
	for _, o := range outcomes {
		ok := 0
		if o.OK {
			ok = 1
		}
		if _, err := tx.Exec(
			"INSERT INTO outcomes (input_hash, patch, ok, message) VALUES (?, ?, ?, ?)",
			inputHash, o.Patch, ok, o.Message,
		); err != nil {
			return fmt.Errorf("saving outcome for %s: %w", o.Patch, err)
		}
	}
	return tx.Commit()
}

// GetOutcomes retrieves the stored per-patch outcomes for an input hash,
// ordered by patch name. An input with no outcomes returns an empty slice.
func (s *Store) GetOutcomes(inputHash string) ([]Outcome, error) {
	rows, err := s.db.Query(
		"SELECT patch, ok, message FROM outcomes WHERE input_hash = ? ORDER BY patch",
		inputHash)
	if err != nil {
		return nil, fmt.Errorf("querying outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []Outcome
	for rows.Next() {
		var o Outcome
		var ok int
		if err := rows.Scan(&o.Patch, &ok, &o.Message); err != nil {
			return nil, fmt.Errorf("scanning outcome row: %w", err)
		}
		o.OK = ok != 0
		outcomes = append(outcomes, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading outcomes: %w", err)
	}
	return outcomes, nil
}
