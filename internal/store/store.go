// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists extracted places in a SQLite database and exports
// them for inspection.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/mapscout/pkg/types"
)

const dbFile = "mapscout.db"

// Store manages the places SQLite database.
type Store struct {
	db         *sql.DB
	dataDir    string
	maxResults int
}

// NewStore opens or creates the places database at dataDir/mapscout.db.
// It creates the schema if it does not exist.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}

	s := &Store{db: db, dataDir: cfg.DataDir, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS places (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			name_en TEXT,
			address TEXT,
			city TEXT,
			country TEXT,
			latitude REAL,
			longitude REAL,
			place_id TEXT,
			maps_url TEXT,
			source_url TEXT,
			source_account TEXT,
			session_id TEXT,
			place_types TEXT,
			highlights TEXT,
			tags TEXT,
			price_range TEXT,
			recommendation TEXT,
			status TEXT NOT NULL,
			confidence TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_places_session ON places(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_places_place_id ON places(place_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Provenance records where a persisted place came from.
type Provenance struct {
	SourceURL     string
	SourceAccount string
	SessionID     string
}

// Insert stores one place and returns its row id. List fields are stored as
// JSON text columns.
func (s *Store) Insert(ctx context.Context, p types.PersistedPlace, prov Provenance) (int64, error) {
	placeTypes, err := json.Marshal(p.Candidate.PlaceTypes)
	if err != nil {
		return 0, fmt.Errorf("marshaling place types: %w", err)
	}
	highlights, err := json.Marshal(p.Candidate.Highlights)
	if err != nil {
		return 0, fmt.Errorf("marshaling highlights: %w", err)
	}
	tags, err := json.Marshal(p.Candidate.Tags)
	if err != nil {
		return 0, fmt.Errorf("marshaling tags: %w", err)
	}

	address := p.Candidate.Address
	if p.Match.Found && p.Match.Address != "" {
		address = p.Match.Address
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO places (
			name, name_en, address, city, country,
			latitude, longitude, place_id, maps_url,
			source_url, source_account, session_id,
			place_types, highlights, tags,
			price_range, recommendation, status, confidence, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Candidate.Name, p.Candidate.NameEN, address, p.Candidate.City, p.Candidate.Country,
		p.Match.Latitude, p.Match.Longitude, p.Match.PlaceID, p.Match.MapsURL,
		prov.SourceURL, prov.SourceAccount, prov.SessionID,
		string(placeTypes), string(highlights), string(tags),
		p.Candidate.PriceRange, p.Candidate.Recommendation,
		string(p.Status), string(p.Candidate.Confidence),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting place %q: %w", p.Candidate.Name, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading row id: %w", err)
	}
	return id, nil
}

// StoredPlace is one persisted row as read back from the database.
type StoredPlace struct {
	RowID      int64    `json:"row_id" yaml:"row_id"`
	Name       string   `json:"name" yaml:"name"`
	NameEN     string   `json:"name_en,omitempty" yaml:"name_en,omitempty"`
	Address    string   `json:"address,omitempty" yaml:"address,omitempty"`
	City       string   `json:"city,omitempty" yaml:"city,omitempty"`
	Country    string   `json:"country,omitempty" yaml:"country,omitempty"`
	Latitude   float64  `json:"latitude,omitempty" yaml:"latitude,omitempty"`
	Longitude  float64  `json:"longitude,omitempty" yaml:"longitude,omitempty"`
	PlaceID    string   `json:"place_id,omitempty" yaml:"place_id,omitempty"`
	MapsURL    string   `json:"maps_url,omitempty" yaml:"maps_url,omitempty"`
	SourceURL  string   `json:"source_url,omitempty" yaml:"source_url,omitempty"`
	SessionID  string   `json:"session_id,omitempty" yaml:"session_id,omitempty"`
	PlaceTypes []string `json:"place_types,omitempty" yaml:"place_types,omitempty"`
	Highlights []string `json:"highlights,omitempty" yaml:"highlights,omitempty"`
	Tags       []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Status     string   `json:"status" yaml:"status"`
	Confidence string   `json:"confidence,omitempty" yaml:"confidence,omitempty"`
	CreatedAt  string   `json:"created_at" yaml:"created_at"`
}

// Recent returns the newest places, optionally filtered by session. A zero
// limit selects the store's default; a negative limit returns everything.
func (s *Store) Recent(ctx context.Context, sessionID string, limit int) ([]StoredPlace, error) {
	if limit == 0 {
		limit = s.maxResults
	}

	query := `
		SELECT rowid, name, name_en, address, city, country,
			latitude, longitude, place_id, maps_url,
			source_url, session_id, place_types, highlights, tags,
			status, confidence, created_at
		FROM places`
	args := []any{}
	if sessionID != "" {
		query += " WHERE session_id = ?"
		args = append(args, sessionID)
	}
	query += " ORDER BY rowid DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying places: %w", err)
	}
	defer rows.Close()

	var places []StoredPlace
	for rows.Next() {
		p, err := scanPlace(rows)
		if err != nil {
			return nil, err
		}
		places = append(places, p)
	}
	return places, rows.Err()
}

func scanPlace(rows *sql.Rows) (StoredPlace, error) {
	var p StoredPlace
	var placeTypes, highlights, tags sql.NullString
	var nameEN, address, city, country, placeID, mapsURL, sourceURL, sessionID, confidence sql.NullString

	err := rows.Scan(&p.RowID, &p.Name, &nameEN, &address, &city, &country,
		&p.Latitude, &p.Longitude, &placeID, &mapsURL,
		&sourceURL, &sessionID, &placeTypes, &highlights, &tags,
		&p.Status, &confidence, &p.CreatedAt)
	if err != nil {
		return p, fmt.Errorf("scanning place row: %w", err)
	}

	p.NameEN = nameEN.String
	p.Address = address.String
	p.City = city.String
	p.Country = country.String
	p.PlaceID = placeID.String
	p.MapsURL = mapsURL.String
	p.SourceURL = sourceURL.String
	p.SessionID = sessionID.String
	p.Confidence = confidence.String

	for _, col := range []struct {
		raw  sql.NullString
		dest *[]string
	}{
		{placeTypes, &p.PlaceTypes},
		{highlights, &p.Highlights},
		{tags, &p.Tags},
	} {
		if col.raw.String == "" {
			continue
		}
		if err := json.Unmarshal([]byte(col.raw.String), col.dest); err != nil {
			return p, fmt.Errorf("decoding list column: %w", err)
		}
	}
	return p, nil
}
