package registry

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SchemaRecord is one row of the schema index: where a schema's binary
// image lives in the blob store, and the ETag it was last written with.
type SchemaRecord struct {
	Name      string
	BlobKey   string
	ETag      string
	CreatedAt time.Time
}

// SchemaIndex catalogs where each array's serialized schema image lives.
type SchemaIndex interface {
	Register(ctx context.Context, name, blobKey, etag string) error
	Find(ctx context.Context, name string) (*SchemaRecord, error)
	List(ctx context.Context) ([]*SchemaRecord, error)
	Delete(ctx context.Context, name string) error
	Close() error
}

const createSchemaIndexSQL = `
CREATE TABLE IF NOT EXISTS schema_index (
	name       TEXT PRIMARY KEY,
	blob_key   TEXT NOT NULL,
	etag       TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// SQLiteSchemaIndex implements SchemaIndex using SQLite, in the same
// single-writer/read-pool shape as the rest of this project's storage
// layer.
type SQLiteSchemaIndex struct {
	db     *sql.DB
	readDB *sql.DB
	mu     sync.Mutex
}

// NewSQLiteSchemaIndex opens (or creates) the index database at dbPath.
func NewSQLiteSchemaIndex(dbPath string) (*SQLiteSchemaIndex, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("registry: failed to open index database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	readDB, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&mode=ro")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("registry: failed to open read database: %w", err)
	}
	readDB.SetMaxOpenConns(4)
	readDB.SetMaxIdleConns(4)
	readDB.SetConnMaxLifetime(5 * time.Minute)

	if _, err := db.Exec(createSchemaIndexSQL); err != nil {
		readDB.Close()
		db.Close()
		return nil, fmt.Errorf("registry: failed to create schema_index table: %w", err)
	}

	return &SQLiteSchemaIndex{db: db, readDB: readDB}, nil
}

func (idx *SQLiteSchemaIndex) Register(ctx context.Context, name, blobKey, etag string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	_, err := idx.db.ExecContext(ctx, `
		INSERT INTO schema_index (name, blob_key, etag) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET blob_key = excluded.blob_key, etag = excluded.etag
	`, name, blobKey, etag)
	if err != nil {
		return fmt.Errorf("registry: failed to register schema %q: %w", name, err)
	}
	return nil
}

func (idx *SQLiteSchemaIndex) Find(ctx context.Context, name string) (*SchemaRecord, error) {
	row := idx.readDB.QueryRowContext(ctx,
		`SELECT name, blob_key, etag, created_at FROM schema_index WHERE name = ?`, name)
	rec := &SchemaRecord{}
	if err := row.Scan(&rec.Name, &rec.BlobKey, &rec.ETag, &rec.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("registry: failed to find schema %q: %w", name, err)
	}
	return rec, nil
}

func (idx *SQLiteSchemaIndex) List(ctx context.Context) ([]*SchemaRecord, error) {
	rows, err := idx.readDB.QueryContext(ctx,
		`SELECT name, blob_key, etag, created_at FROM schema_index ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("registry: failed to list schemas: %w", err)
	}
	defer rows.Close()

	var recs []*SchemaRecord
	for rows.Next() {
		rec := &SchemaRecord{}
		if err := rows.Scan(&rec.Name, &rec.BlobKey, &rec.ETag, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("registry: failed to scan schema row: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (idx *SQLiteSchemaIndex) Delete(ctx context.Context, name string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	_, err := idx.db.ExecContext(ctx, `DELETE FROM schema_index WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("registry: failed to delete schema %q: %w", name, err)
	}
	return nil
}

func (idx *SQLiteSchemaIndex) Close() error {
	readErr := idx.readDB.Close()
	writeErr := idx.db.Close()
	if writeErr != nil {
		return writeErr
	}
	return readErr
}
