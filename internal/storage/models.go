package storage

import (
	"campus-advisor/internal/catalog"
	"campus-advisor/internal/vectorstore"
)

// DocumentRecord is a source document that took part in an ingestion run.
type DocumentRecord struct {
	Name string // path relative to the data directory
	Kind string // handbook, schedule or general
	Hash string // SHA256 hex string of file content
}

// Snapshot is the persisted result of one ingestion run: the entity index
// in its keyed layout and the vector index as {id, vector, text, source}.
type Snapshot struct {
	Version   string // index version hash
	Dim       int    // embedding dimensionality
	Documents []DocumentRecord
	Catalog   catalog.Layout
	Chunks    []vectorstore.Chunk
}
