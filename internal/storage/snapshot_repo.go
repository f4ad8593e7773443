package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_snapshot_store.go -package=mocks campus-advisor/internal/storage SnapshotStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

const (
	metaVersion = "index_version"
	metaDim     = "embedding_dim"
)

// SnapshotStore persists whole ingestion results.
type SnapshotStore interface {
	// Save replaces the stored snapshot atomically.
	Save(ctx context.Context, snap *Snapshot) error
	// Load returns the stored snapshot. Returns ErrNotFound if nothing was saved yet.
	Load(ctx context.Context) (*Snapshot, error)
	// ChunkIDs returns the IDs of the stored chunks.
	ChunkIDs(ctx context.Context) ([]string, error)
}

// SnapshotRepo stores snapshots in SQLite.
// It implements the SnapshotStore interface.
type SnapshotRepo struct {
	db     *sql.DB
	chunks *ChunkRepo
}

// NewSnapshotRepo creates a new SnapshotRepo.
func NewSnapshotRepo(db *sql.DB) *SnapshotRepo {
	return &SnapshotRepo{db: db, chunks: NewChunkRepo(db)}
}

// Save replaces every document, module, schedule entry and chunk in a
// single transaction. Readers see either the old or the new snapshot.
func (r *SnapshotRepo) Save(ctx context.Context, snap *Snapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, table := range []string{"schedule_entries", "modules", "chunks", "documents", "meta"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for i, d := range snap.Documents {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO documents (name, kind, hash, position) VALUES (?, ?, ?, ?)",
			d.Name, d.Kind, d.Hash, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert document %s: %w", d.Name, err)
		}
	}
	if err := writeCatalog(ctx, tx, snap.Catalog); err != nil {
		return err
	}
	if err := writeChunks(ctx, tx, snap.Chunks); err != nil {
		return err
	}
	for key, value := range map[string]string{metaVersion: snap.Version, metaDim: strconv.Itoa(snap.Dim)} {
		if _, err := tx.ExecContext(ctx, "INSERT INTO meta (key, value) VALUES (?, ?)", key, value); err != nil {
			return fmt.Errorf("failed to write %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// Load reads the stored snapshot inside a read transaction.
func (r *SnapshotRepo) Load(ctx context.Context) (*Snapshot, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	snap := &Snapshot{}
	err = tx.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = ?", metaVersion).Scan(&snap.Version)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query index version: %w", err)
	}
	var dim string
	if err := tx.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = ?", metaDim).Scan(&dim); err != nil {
		return nil, fmt.Errorf("failed to query embedding dim: %w", err)
	}
	if snap.Dim, err = strconv.Atoi(dim); err != nil {
		return nil, fmt.Errorf("invalid embedding dim %q: %w", dim, err)
	}

	rows, err := tx.QueryContext(ctx, "SELECT name, kind, hash FROM documents ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	for rows.Next() {
		var d DocumentRecord
		if err := rows.Scan(&d.Name, &d.Kind, &d.Hash); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		snap.Documents = append(snap.Documents, d)
	}
	err = rows.Err()
	_ = rows.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read documents: %w", err)
	}

	if snap.Catalog, err = readCatalog(ctx, tx); err != nil {
		return nil, err
	}
	if snap.Chunks, err = readChunks(ctx, tx); err != nil {
		return nil, err
	}
	return snap, nil
}

// ChunkIDs returns the IDs of the stored chunks.
func (r *SnapshotRepo) ChunkIDs(ctx context.Context) ([]string, error) {
	return r.chunks.ListIDs(ctx)
}
