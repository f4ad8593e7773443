package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chunk_store.go -package=mocks campus-advisor/internal/storage ChunkStore

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"

	"campus-advisor/internal/vectorstore"
)

// ChunkStore defines the read operations on persisted chunks.
type ChunkStore interface {
	// ListIDs returns all chunk IDs in ascending order.
	ListIDs(ctx context.Context) ([]string, error)
	// GetByID gets a chunk by its ID. Returns ErrNotFound if not found.
	GetByID(ctx context.Context, id string) (*vectorstore.Chunk, error)
}

// ChunkRepo provides methods for chunk operations.
// It implements the ChunkStore interface.
type ChunkRepo struct {
	db *sql.DB
}

// NewChunkRepo creates a new ChunkRepo.
func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// ListIDs returns all chunk IDs in ascending order.
// Returns an empty slice if no chunks exist (not an error).
// Used to find the vector store points a new snapshot makes stale.
func (r *ChunkRepo) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id FROM chunks ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query chunk IDs: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan chunk ID: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chunk IDs: %w", err)
	}
	return ids, nil
}

// GetByID gets a chunk by its ID. Returns ErrNotFound if not found.
func (r *ChunkRepo) GetByID(ctx context.Context, id string) (*vectorstore.Chunk, error) {
	var (
		c    vectorstore.Chunk
		code sql.NullString
		blob []byte
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT id, text, document, offset_pos, module_code, embedding FROM chunks WHERE id = ?",
		id,
	).Scan(&c.ID, &c.Text, &c.Source.Document, &c.Source.Offset, &code, &blob)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query chunk: %w", err)
	}
	c.Source.ModuleCode = code.String
	if c.Vector, err = decodeVector(blob); err != nil {
		return nil, fmt.Errorf("failed to decode chunk %s: %w", id, err)
	}
	return &c, nil
}

func writeChunks(ctx context.Context, q execer, chunks []vectorstore.Chunk) error {
	for _, c := range chunks {
		var code sql.NullString
		if c.Source.ModuleCode != "" {
			code = sql.NullString{String: c.Source.ModuleCode, Valid: true}
		}
		_, err := q.ExecContext(ctx,
			"INSERT INTO chunks (id, text, document, offset_pos, module_code, embedding) VALUES (?, ?, ?, ?, ?, ?)",
			c.ID, c.Text, c.Source.Document, c.Source.Offset, code, encodeVector(c.Vector),
		)
		if err != nil {
			return fmt.Errorf("failed to insert chunk %s: %w", c.ID, err)
		}
	}
	return nil
}

func readChunks(ctx context.Context, q execer) ([]vectorstore.Chunk, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT id, text, document, offset_pos, module_code, embedding FROM chunks ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var chunks []vectorstore.Chunk
	for rows.Next() {
		var (
			c    vectorstore.Chunk
			code sql.NullString
			blob []byte
		)
		if err := rows.Scan(&c.ID, &c.Text, &c.Source.Document, &c.Source.Offset, &code, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		c.Source.ModuleCode = code.String
		if c.Vector, err = decodeVector(blob); err != nil {
			return nil, fmt.Errorf("failed to decode chunk %s: %w", c.ID, err)
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chunks: %w", err)
	}
	return chunks, nil
}

// encodeVector stores a vector as little-endian float32 values.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("embedding blob length %d is not a multiple of 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, nil
}
