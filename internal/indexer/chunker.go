package indexer

import (
	"fmt"
	"strings"
	"unicode"
)

// WindowChunker splits text into overlapping windows of bounded length.
// Window ends are moved back to the nearest whitespace when one exists in
// the second half of the window, so words are not cut in half.
type WindowChunker struct {
	size    int
	overlap int
}

// NewWindowChunker creates a chunker with windows of size runes that share
// overlap runes with their predecessor.
func NewWindowChunker(size, overlap int) (*WindowChunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", size, overlap)
	}
	return &WindowChunker{size: size, overlap: overlap}, nil
}

// Split returns the windows of text in order. Whitespace-only windows are
// dropped. Offsets count runes from the start of text.
func (c *WindowChunker) Split(text string) []Piece {
	runes := []rune(text)
	n := len(runes)
	var pieces []Piece

	start := 0
	for start < n {
		for start < n && unicode.IsSpace(runes[start]) {
			start++
		}
		if start >= n {
			break
		}

		end := min(start+c.size, n)
		if end < n {
			for cut := end; cut > start+c.size/2; cut-- {
				if unicode.IsSpace(runes[cut]) {
					end = cut
					break
				}
			}
		}

		if body := strings.TrimRightFunc(string(runes[start:end]), unicode.IsSpace); body != "" {
			pieces = append(pieces, Piece{Index: len(pieces), Offset: start, Text: body})
		}
		if end >= n {
			break
		}

		next := end - c.overlap
		// Resume at a word start inside the overlap.
		for next > start && next < end && !unicode.IsSpace(runes[next-1]) {
			next++
		}
		if next <= start {
			next = end
		}
		start = next
	}
	return pieces
}
