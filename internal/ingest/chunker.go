// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ingest splits a paper's grounding text into ordered,
// overlapping chunks for retrieval indexing. Chunking is a pure
// function of (text, configuration): the same input always yields the
// same boundaries, which index reproducibility and caching depend on.
package ingest

import (
	"strings"

	"github.com/Rohith-gande/PaperLens-updated/pkg/types"
)

const (
	// DefaultChunkSize is the maximum chunk length in characters.
	DefaultChunkSize = 1000

	// DefaultChunkOverlap is the number of characters shared between
	// consecutive chunks.
	DefaultChunkOverlap = 200
)

// separators lists break points in preference order: paragraph break,
// line break, sentence end, word boundary.
var separators = []string{"\n\n", "\n", ". ", " "}

// Chunk splits raw text into ordered chunks of at most cfg.ChunkSize
// characters, each overlapping its predecessor by roughly
// cfg.ChunkOverlap characters. Boundaries prefer paragraph, line,
// sentence, and word breaks, in that order, within the second half of
// the window so chunks stay close to the configured size.
//
// Empty or whitespace-only input yields zero chunks.
func Chunk(raw, paperID string, cfg types.ChunkingConfig) []types.Chunk {
	size := cfg.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}
	overlap := cfg.ChunkOverlap
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 2
	}

	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var chunks []types.Chunk
	n := len(raw)
	start := 0
	idx := 0

	for start < n {
		end := start + size
		if end >= n {
			end = n
		} else {
			end = breakPoint(raw, start, end)
		}

		text := strings.TrimSpace(raw[start:end])
		if text != "" {
			chunks = append(chunks, types.Chunk{
				PaperID: paperID,
				Index:   idx,
				Text:    text,
				Start:   start,
				End:     end,
			})
			idx++
		}

		if end == n {
			break
		}

		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}

// breakPoint finds the best boundary inside raw[start:limit], scanning
// for each separator from the window end backwards. Breaks are only
// taken in the second half of the window; if no separator is found the
// hard limit is used.
func breakPoint(raw string, start, limit int) int {
	minBreak := start + (limit-start)/2
	for _, sep := range separators {
		for i := limit - len(sep); i > minBreak; i-- {
			if raw[i:i+len(sep)] == sep {
				return i + len(sep)
			}
		}
	}
	return limit
}
