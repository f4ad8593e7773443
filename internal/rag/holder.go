package rag

import (
	"context"
	"errors"
	"sync/atomic"

	"campus-advisor/internal/catalog"
	"campus-advisor/internal/llm"
)

// ErrNotReady is returned before the first engine has been stored.
var ErrNotReady = errors.New("index not loaded")

// Holder publishes the current Engine. Reindexing stores a new engine while
// queries in flight finish on the one they loaded.
type Holder struct {
	current atomic.Pointer[Engine]
}

// NewHolder creates a holder. e may be nil until the first ingestion.
func NewHolder(e *Engine) *Holder {
	h := &Holder{}
	if e != nil {
		h.current.Store(e)
	}
	return h
}

// Load returns the current engine or nil.
func (h *Holder) Load() *Engine {
	return h.current.Load()
}

// Store replaces the current engine.
func (h *Holder) Store(e *Engine) {
	h.current.Store(e)
}

// AnswerContext delegates to the current engine.
func (h *Holder) AnswerContext(ctx context.Context, query string, history []llm.Message) (Bundle, error) {
	e := h.current.Load()
	if e == nil {
		return Bundle{}, ErrNotReady
	}
	return e.AnswerContext(ctx, query, history)
}

// Catalog returns the current entity index or nil.
func (h *Holder) Catalog() *catalog.Index {
	e := h.current.Load()
	if e == nil {
		return nil
	}
	return e.Catalog()
}
