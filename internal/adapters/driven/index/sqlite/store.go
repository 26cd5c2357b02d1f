// Package sqlite provides SQLite-backed persistence for the vector index.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/ragchat-cli/internal/adapters/driven/index/memory"
	"github.com/custodia-labs/ragchat-cli/internal/adapters/driven/index/sqlite/migrations"
	"github.com/custodia-labs/ragchat-cli/internal/core/domain"
	"github.com/custodia-labs/ragchat-cli/internal/core/ports/driven"
)

// dbFileName is the index database file inside the index directory.
const dbFileName = "index.db"

// Store persists the vector index to a SQLite database on disk.
// It implements the IndexStore interface.
//
// Persist writes to a temporary file and renames it over the previous
// database, so a crash mid-write never leaves a half-written index and
// concurrent loaders always see either the old or the new snapshot.
type Store struct{}

var _ driven.IndexStore = (*Store)(nil)

// NewStore creates a new SQLite index store.
func NewStore() *Store {
	return &Store{}
}

// Exists reports whether an index database is present in dir.
func (s *Store) Exists(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, dbFileName))
	return err == nil && !info.IsDir()
}

// Persist writes the chunks to a fresh database and atomically replaces
// any previous index in dir.
func (s *Store) Persist(ctx context.Context, dir string, chunks []domain.Chunk) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFileName)
	tmpPath := dbPath + ".tmp"

	if err := os.Remove(tmpPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing stale temp index: %w", err)
	}

	if err := s.writeDatabase(ctx, tmpPath, chunks); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, dbPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing index: %w", err)
	}
	return nil
}

// Load reads the index from dir into memory.
// Returns ErrIndexNotFound when no database exists and ErrIndexCorrupt
// when the database cannot be read back.
func (s *Store) Load(ctx context.Context, dir string) (driven.Index, error) {
	dbPath := filepath.Join(dir, dbFileName)
	if _, err := os.Stat(dbPath); errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrIndexNotFound
	} else if err != nil {
		return nil, fmt.Errorf("checking index: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %v", domain.ErrIndexCorrupt, err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `
		SELECT id, document_id, content, position, embedding, metadata
		FROM chunks ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying chunks: %v", domain.ErrIndexCorrupt, err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrIndexCorrupt, err)
		}
		chunks = append(chunks, *chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating chunks: %v", domain.ErrIndexCorrupt, err)
	}

	return memory.New(chunks), nil
}

// writeDatabase creates a database at path and inserts all chunks.
func (s *Store) writeDatabase(ctx context.Context, path string, chunks []domain.Chunk) error {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := migrate(db, migrations.FS); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, content, position, embedding, metadata)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		metadataJSON, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling chunk metadata: %w", err)
		}

		embeddingBlob := float32SliceToBytes(chunk.Embedding)

		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.DocumentID, chunk.Content,
			chunk.Position, embeddingBlob, string(metadataJSON)); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// migrate runs all pending migrations.
func migrate(db *sql.DB, fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// scanChunk scans a chunk from *sql.Rows.
func scanChunk(rows *sql.Rows) (*domain.Chunk, error) {
	var chunk domain.Chunk
	var embeddingBlob []byte
	var metadataJSON string

	if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Content,
		&chunk.Position, &embeddingBlob, &metadataJSON); err != nil {
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	if len(embeddingBlob)%4 != 0 {
		return nil, fmt.Errorf("embedding blob for chunk %s has invalid length %d", chunk.ID, len(embeddingBlob))
	}
	chunk.Embedding = bytesToFloat32Slice(embeddingBlob)

	if metadataJSON != "" {
		if err := json.Unmarshal([]byte(metadataJSON), &chunk.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling chunk metadata: %w", err)
		}
	}

	return &chunk, nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
