// Package sqlite provides a durable, disk-backed vector store.
//
// Vectors are stored as little-endian float32 blobs and scored with
// brute-force cosine distance at query time. The store deliberately has no
// ANN structure: the index is treated as an external capability and this
// adapter only honours the storage contract (durable add, ranked search).
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/arden-labs/ragline/internal/adapters/driven/vectorstore/memory"
	"github.com/arden-labs/ragline/internal/core/domain"
	"github.com/arden-labs/ragline/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// DefaultCollection is the collection used when none is configured.
const DefaultCollection = "docs"

// Store is a SQLite-backed implementation of driven.VectorStore.
// One database file can hold several named collections; a Store instance
// is scoped to exactly one.
type Store struct {
	db         *sql.DB
	path       string
	collection string
}

// NewStore opens (or creates) the vector database under dataDir and scopes
// it to the given collection. If dataDir is empty, defaults to
// ~/.ragline/data. WAL mode keeps concurrent readers from blocking the
// single writer.
func NewStore(dataDir, collection string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".ragline", "data")
	}
	if collection == "" {
		collection = DefaultCollection
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "vectors.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:         db,
		path:       dbPath,
		collection: collection,
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// migrate creates the entries table if it does not exist.
func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS entries (
			collection  TEXT NOT NULL,
			id          TEXT NOT NULL,
			doc_id      TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			content     TEXT NOT NULL,
			embedding   BLOB NOT NULL,
			created_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (collection, id)
		)
	`)
	if err != nil {
		return fmt.Errorf("creating entries table: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Collection returns the collection this store is scoped to.
func (s *Store) Collection() string {
	return s.collection
}

// Add inserts the entries in a single transaction: either the whole batch
// becomes visible or none of it does. Existing ids are replaced.
func (s *Store) Add(ctx context.Context, entries []domain.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %v: %w", err, domain.ErrStore)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO entries (collection, id, doc_id, chunk_index, content, embedding)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %v: %w", err, domain.ErrStore)
	}
	defer stmt.Close()

	for _, e := range entries {
		blob := float32SliceToBytes(e.Vector)
		if _, err := stmt.ExecContext(ctx, s.collection, e.ID, e.Metadata.DocID, e.Metadata.ChunkIndex, e.Text, blob); err != nil {
			return fmt.Errorf("inserting entry %q: %v: %w", e.ID, err, domain.ErrStore)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing batch: %v: %w", err, domain.ErrStore)
	}
	return nil
}

// Search scans the collection, scores every entry by cosine distance and
// returns the min(k, stored) closest, ascending. An empty collection yields
// an empty result.
func (s *Store) Search(ctx context.Context, vector []float32, k int) ([]domain.RetrievalHit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT doc_id, chunk_index, content, embedding
		FROM entries WHERE collection = ?
	`, s.collection)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %v: %w", err, domain.ErrStore)
	}
	defer rows.Close()

	var hits []domain.RetrievalHit
	for rows.Next() {
		var (
			meta    domain.ChunkMeta
			content string
			blob    []byte
		)
		if err := rows.Scan(&meta.DocID, &meta.ChunkIndex, &content, &blob); err != nil {
			return nil, fmt.Errorf("scanning entry: %v: %w", err, domain.ErrStore)
		}
		hits = append(hits, domain.RetrievalHit{
			Document: content,
			Metadata: meta,
			Distance: memory.CosineDistance(vector, bytesToFloat32Slice(blob)),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entries: %v: %w", err, domain.ErrStore)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})

	if k < 0 {
		k = 0
	}
	if k < len(hits) {
		hits = hits[:k]
	}
	if hits == nil {
		hits = []domain.RetrievalHit{}
	}
	return hits, nil
}

// Count returns the number of entries in the collection.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM entries WHERE collection = ?`, s.collection,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting entries: %v: %w", err, domain.ErrStore)
	}
	return n, nil
}

// Ping verifies the database file is usable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("pinging database: %v: %w", err, domain.ErrStore)
	}
	return nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
