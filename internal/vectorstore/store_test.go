// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rohith-gande/PaperLens-updated/pkg/types"
)

func testRecord(url string) types.SourceRecord {
	ref := types.PaperReference{
		Title:     "Stored Paper",
		Authors:   "Doe, Roe",
		Year:      "2023",
		SourceURL: url,
	}
	return types.SourceRecord{
		PaperID:   ref.ID(),
		Type:      types.SourcePDFPrimary,
		Reference: ref,
	}
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	rec := testRecord("https://example.org/stored.pdf")
	chunks := []types.Chunk{
		{PaperID: rec.PaperID, Index: 0, Text: "first chunk", Start: 0, End: 11},
		{PaperID: rec.PaperID, Index: 1, Text: "second chunk", Start: 11, End: 23},
	}
	vectors := [][]float32{{0.25, -1.5, 3}, {0, 0.125, -0.5}}

	require.NoError(t, store.Save(context.Background(), rec, "fp-1", "", chunks, vectors))

	p, err := store.Load(context.Background(), rec.PaperID)
	require.NoError(t, err)
	assert.Equal(t, types.SourcePDFPrimary, p.sourceType)
	assert.Equal(t, "fp-1", p.fingerprint)
	assert.Equal(t, "Stored Paper", p.reference.Title)
	assert.Equal(t, chunks, p.chunks)
	assert.Equal(t, vectors, p.vectors)
}

func TestStoreSaveReplacesChunks(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	rec := testRecord("https://example.org/stored.pdf")
	chunks := []types.Chunk{
		{PaperID: rec.PaperID, Index: 0, Text: "a", Start: 0, End: 1},
		{PaperID: rec.PaperID, Index: 1, Text: "b", Start: 1, End: 2},
		{PaperID: rec.PaperID, Index: 2, Text: "c", Start: 2, End: 3},
	}
	vectors := [][]float32{{1}, {2}, {3}}
	require.NoError(t, store.Save(context.Background(), rec, "fp-1", "", chunks, vectors))

	require.NoError(t, store.Save(context.Background(), rec, "fp-2", "", chunks[:1], vectors[:1]))

	p, err := store.Load(context.Background(), rec.PaperID)
	require.NoError(t, err)
	assert.Equal(t, "fp-2", p.fingerprint)
	assert.Len(t, p.chunks, 1)
	assert.Len(t, p.vectors, 1)
}

func TestStoreSaveMetadataOnly(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	rec := testRecord("https://example.org/meta-only")
	rec.Type = types.SourceMetadataOnly
	meta := rec.Reference.MetadataText()

	require.NoError(t, store.Save(context.Background(), rec, "fp-meta", meta, nil, nil))

	p, err := store.Load(context.Background(), rec.PaperID)
	require.NoError(t, err)
	assert.Equal(t, types.SourceMetadataOnly, p.sourceType)
	assert.Equal(t, meta, p.metaText)
	assert.Empty(t, p.chunks)
}

func TestStoreSaveRejectsMismatchedVectors(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	rec := testRecord("https://example.org/stored.pdf")
	chunks := []types.Chunk{{PaperID: rec.PaperID, Index: 0, Text: "a", Start: 0, End: 1}}

	err = store.Save(context.Background(), rec, "fp-1", "", chunks, nil)
	assert.Error(t, err)
}

func TestStoreLoadMissingPaper(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Load(context.Background(), "deadbeef0000")
	assert.Error(t, err)
}

func TestVectorEncodingRoundTrip(t *testing.T) {
	v := []float32{0, 1, -1, 0.5, 3.14159, -2.71828}
	assert.Equal(t, v, decodeVector(encodeVector(v)))
}
