// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package vectorstore

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Rohith-gande/PaperLens-updated/pkg/types"
)

const dbFile = "index.db"

// Store persists built indices in a SQLite database so a restart, or
// an eviction under memory pressure, never repeats embedding work for
// unchanged source text.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the index database at dir/index.db,
// creating the schema if it does not exist.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
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
		`CREATE TABLE IF NOT EXISTS papers (
			id TEXT PRIMARY KEY,
			source_type TEXT NOT NULL,
			fingerprint TEXT NOT NULL,
			title TEXT,
			authors TEXT,
			year TEXT,
			meta_text TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS chunks (
			paper_id TEXT NOT NULL REFERENCES papers(id) ON DELETE CASCADE,
			idx INTEGER NOT NULL,
			text TEXT NOT NULL,
			start_pos INTEGER NOT NULL,
			end_pos INTEGER NOT NULL,
			vector BLOB NOT NULL,
			PRIMARY KEY (paper_id, idx)
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// persisted is one paper's saved index state.
type persisted struct {
	sourceType  types.SourceType
	fingerprint string
	metaText    string
	reference   types.PaperReference
	chunks      []types.Chunk
	vectors     [][]float32
}

// Save writes a paper's index, replacing any previous state for the
// same id in one transaction.
func (s *Store) Save(ctx context.Context, rec types.SourceRecord, fingerprint, metaText string, chunks []types.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks and vectors length mismatch: %d vs %d", len(chunks), len(vectors))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE paper_id = ?`, rec.PaperID); err != nil {
		return fmt.Errorf("deleting old chunks: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO papers (id, source_type, fingerprint, title, authors, year, meta_text)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			source_type=excluded.source_type, fingerprint=excluded.fingerprint,
			title=excluded.title, authors=excluded.authors, year=excluded.year,
			meta_text=excluded.meta_text`,
		rec.PaperID, string(rec.Type), fingerprint,
		rec.Reference.Title, rec.Reference.Authors, rec.Reference.Year, metaText,
	)
	if err != nil {
		return fmt.Errorf("upserting paper: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (paper_id, idx, text, start_pos, end_pos, vector)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing chunk insert: %w", err)
	}
	defer stmt.Close()

	for i, c := range chunks {
		if _, err := stmt.ExecContext(ctx, c.PaperID, c.Index, c.Text, c.Start, c.End, encodeVector(vectors[i])); err != nil {
			return fmt.Errorf("inserting chunk %d: %w", c.Index, err)
		}
	}

	return tx.Commit()
}

// Load reads a paper's saved index state. It returns sql.ErrNoRows
// (wrapped) when the paper has never been saved.
func (s *Store) Load(ctx context.Context, paperID string) (*persisted, error) {
	var p persisted
	var sourceType string
	err := s.db.QueryRowContext(ctx,
		`SELECT source_type, fingerprint, title, authors, year, meta_text FROM papers WHERE id = ?`,
		paperID,
	).Scan(&sourceType, &p.fingerprint, &p.reference.Title, &p.reference.Authors, &p.reference.Year, &p.metaText)
	if err != nil {
		return nil, fmt.Errorf("loading paper %s: %w", paperID, err)
	}
	p.sourceType = types.SourceType(sourceType)

	rows, err := s.db.QueryContext(ctx,
		`SELECT idx, text, start_pos, end_pos, vector FROM chunks WHERE paper_id = ? ORDER BY idx`,
		paperID,
	)
	if err != nil {
		return nil, fmt.Errorf("loading chunks for %s: %w", paperID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var c types.Chunk
		var blob []byte
		if err := rows.Scan(&c.Index, &c.Text, &c.Start, &c.End, &blob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		c.PaperID = paperID
		p.chunks = append(p.chunks, c)
		p.vectors = append(p.vectors, decodeVector(blob))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return &p, nil
}

// encodeVector packs float32 values into a little-endian blob.
func encodeVector(v []float32) []byte {
	out := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(f))
	}
	return out
}

// decodeVector unpacks a little-endian blob into float32 values.
func decodeVector(data []byte) []float32 {
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return out
}
