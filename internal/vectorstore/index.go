// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package vectorstore owns the mapping from paper id to vector index.
// It deduplicates concurrent build requests per paper, keeps a bounded
// number of indices resident with least-recently-queried eviction, and
// persists built indices to SQLite so they survive restarts without
// re-embedding.
package vectorstore

import (
	"math"
	"sort"

	"github.com/Rohith-gande/PaperLens-updated/pkg/types"
)

// memoryIndex holds the embedded chunks of one paper and answers
// brute-force cosine similarity searches. Indices are immutable once
// built.
type memoryIndex struct {
	chunks  []types.Chunk
	vectors [][]float32
}

// scored pairs a chunk position with its similarity to the query.
type scored struct {
	pos   int
	score float64
}

// search returns the topK chunks ranked by cosine similarity to the
// query vector, highest first. Ties break toward the lower chunk index
// so retrieval stays deterministic.
func (ix *memoryIndex) search(query []float32, topK int) []types.Chunk {
	if topK <= 0 || len(ix.chunks) == 0 {
		return nil
	}

	results := make([]scored, len(ix.vectors))
	for i, v := range ix.vectors {
		results[i] = scored{pos: i, score: cosine(query, v)}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return ix.chunks[results[i].pos].Index < ix.chunks[results[j].pos].Index
	})

	if topK > len(results) {
		topK = len(results)
	}
	out := make([]types.Chunk, topK)
	for i := 0; i < topK; i++ {
		out[i] = ix.chunks[results[i].pos]
	}
	return out
}

// cosine computes cosine similarity, accumulating in float64 for
// stable ordering. Zero vectors score zero.
func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
