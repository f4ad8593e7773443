package indexer

import (
	"campus-advisor/internal/catalog"
	"campus-advisor/internal/storage"
	"campus-advisor/internal/vectorstore"
)

// Piece is a window of document text produced by the chunker.
type Piece struct {
	Index  int    // position within the document (starts at 0)
	Offset int    // rune offset of the first character in the source text
	Text   string // trimmed window content
}

// Snapshot is the result of one ingestion run. Both indexes are immutable
// and may be shared by any number of concurrent queries.
type Snapshot struct {
	Version   string
	Documents []storage.DocumentRecord
	Catalog   *catalog.Index
	Vectors   *vectorstore.Index
}

// Stored converts the snapshot into its persisted layout.
func (s *Snapshot) Stored() *storage.Snapshot {
	return &storage.Snapshot{
		Version:   s.Version,
		Dim:       s.Vectors.Dim(),
		Documents: s.Documents,
		Catalog:   s.Catalog.Layout(),
		Chunks:    s.Vectors.Chunks(),
	}
}

// FromStored rebuilds both indexes from a persisted snapshot without
// calling the embedding backend.
func FromStored(st *storage.Snapshot) *Snapshot {
	return &Snapshot{
		Version:   st.Version,
		Documents: st.Documents,
		Catalog:   catalog.FromLayout(st.Catalog),
		Vectors:   vectorstore.NewIndex(st.Dim, st.Chunks),
	}
}

// Empty returns a snapshot with no modules, entries or chunks.
func Empty(dim int) *Snapshot {
	return &Snapshot{
		Catalog: catalog.NewIndex(nil, nil),
		Vectors: vectorstore.NewIndex(dim, nil),
	}
}
