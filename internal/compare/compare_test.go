// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package compare

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rohith-gande/PaperLens-updated/internal/answer"
	"github.com/Rohith-gande/PaperLens-updated/internal/vectorstore"
	"github.com/Rohith-gande/PaperLens-updated/pkg/types"
)

const paperText = "cats purr softly\n\ndogs bark loudly\n\nbirds sing sweetly"

type stubEmbedder struct{}

func (stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func (stubEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func (stubEmbedder) Name() string { return "stub" }

type stubResolver struct {
	records map[string]types.SourceRecord
	calls   int32
}

func (r *stubResolver) Resolve(ctx context.Context, ref types.PaperReference) types.SourceRecord {
	atomic.AddInt32(&r.calls, 1)
	if rec, ok := r.records[ref.ID()]; ok {
		return rec
	}
	return types.SourceRecord{
		PaperID:   ref.ID(),
		Type:      types.SourcePDFPrimary,
		RawText:   paperText,
		Reference: ref,
	}
}

type stubBackend struct {
	answer  string
	fail    bool
	prompts []string
}

func (b *stubBackend) Generate(ctx context.Context, prompt string) (string, error) {
	b.prompts = append(b.prompts, prompt)
	if b.fail {
		return "", errors.New("model overloaded")
	}
	return b.answer, nil
}

func ref(title, url string) types.PaperReference {
	return types.PaperReference{
		Title:     title,
		Authors:   "Jane Doe, Richard Roe",
		Year:      "2024",
		Abstract:  "A study of " + title + ".",
		SourceURL: url,
	}
}

func newTestEngine(resolver *stubResolver, backend answer.Backend) *Engine {
	mgr := vectorstore.NewManager(stubEmbedder{}, nil, types.StoreConfig{},
		types.ChunkingConfig{ChunkSize: 20, ChunkOverlap: 0})
	prep := answer.NewEngine(resolver, mgr, backend, types.GenerationConfig{MaxRetries: 1})
	return NewEngine(prep, mgr, backend, types.GenerationConfig{MaxRetries: 1})
}

func TestCompareRejectsTooFewDistinctPapers(t *testing.T) {
	resolver := &stubResolver{}
	e := newTestEngine(resolver, &stubBackend{})

	refs := []types.PaperReference{
		ref("Paper A", "https://example.org/a.pdf"),
		ref("Also Paper A", "https://example.org/a.pdf"),
	}
	_, err := e.Compare(context.Background(), refs, "methodology")
	assert.True(t, errors.Is(err, ErrInsufficientPapers))
	assert.Equal(t, int32(0), atomic.LoadInt32(&resolver.calls))
}

func TestCompareTwoFullTextPapers(t *testing.T) {
	resolver := &stubResolver{}
	synthesis := "Both papers study animal sounds; Paper A looks at domestic animals while Paper B covers wild birds. Their methods differ: field recordings versus controlled playback, and they disagree about pitch variation within species despite agreeing on diurnal patterns overall."
	backend := &stubBackend{answer: synthesis}
	e := newTestEngine(resolver, backend)

	refs := []types.PaperReference{
		ref("Paper A", "https://example.org/a.pdf"),
		ref("Paper B", "https://example.org/b.pdf"),
	}
	res, err := e.Compare(context.Background(), refs, "how do the methodologies differ?")
	require.NoError(t, err)

	assert.Equal(t, synthesis, res.Comparison)
	require.Len(t, res.Papers, 2)
	assert.Equal(t, "Paper A", res.Papers[0].Title)
	assert.Equal(t, "Paper B", res.Papers[1].Title)
	assert.False(t, res.Papers[0].Degraded)
	assert.Equal(t, []types.SourceType{types.SourcePDFPrimary}, res.SourcesUsed)

	// source 30 + retrieval 32 + completeness 20 + chunks 10
	assert.Equal(t, 92, res.Confidence)
	assert.Equal(t, "High Confidence", res.ConfidenceLabel)

	require.Len(t, backend.prompts, 1)
	prompt := backend.prompts[0]
	assert.Contains(t, prompt, "PAPER 1: Paper A")
	assert.Contains(t, prompt, "PAPER 2: Paper B")
	assert.Contains(t, prompt, "Comparison Query: how do the methodologies differ?")
	assert.Contains(t, prompt, "(Doe et al., 2024), (Doe et al., 2024)")
	assert.Contains(t, prompt, "dogs bark loudly")
}

func TestCompareDegradedPaperUsesMetadata(t *testing.T) {
	metaRef := ref("Paper B", "https://example.org/locked")
	metaRec := types.SourceRecord{
		PaperID:   metaRef.ID(),
		Type:      types.SourceMetadataOnly,
		RawText:   metaRef.MetadataText(),
		Reference: metaRef,
	}
	resolver := &stubResolver{records: map[string]types.SourceRecord{metaRef.ID(): metaRec}}
	backend := &stubBackend{answer: "Comparison text."}
	e := newTestEngine(resolver, backend)

	refs := []types.PaperReference{
		ref("Paper A", "https://example.org/a.pdf"),
		metaRef,
	}
	res, err := e.Compare(context.Background(), refs, "findings")
	require.NoError(t, err)

	require.Len(t, res.Papers, 2)
	assert.False(t, res.Papers[0].Degraded)
	assert.True(t, res.Papers[1].Degraded)
	assert.ElementsMatch(t,
		[]types.SourceType{types.SourcePDFPrimary, types.SourceMetadataOnly},
		res.SourcesUsed)

	require.Len(t, backend.prompts, 1)
	assert.Contains(t, backend.prompts[0], "Abstract: A study of Paper B.")
}

func TestCompareFailsWhenNothingUsable(t *testing.T) {
	refA := types.PaperReference{SourceURL: "https://example.org/gone-a"}
	refB := types.PaperReference{SourceURL: "https://example.org/gone-b"}
	records := map[string]types.SourceRecord{
		refA.ID(): {PaperID: refA.ID(), Type: types.SourceUnavailable, Reference: refA},
		refB.ID(): {PaperID: refB.ID(), Type: types.SourceUnavailable, Reference: refB},
	}
	resolver := &stubResolver{records: records}
	backend := &stubBackend{answer: "unused"}
	e := newTestEngine(resolver, backend)

	_, err := e.Compare(context.Background(), []types.PaperReference{refA, refB}, "anything")
	assert.True(t, errors.Is(err, ErrInsufficientPapers))
	assert.Empty(t, backend.prompts)
}

func TestCompareGenerationFailure(t *testing.T) {
	resolver := &stubResolver{}
	e := newTestEngine(resolver, &stubBackend{fail: true})

	refs := []types.PaperReference{
		ref("Paper A", "https://example.org/a.pdf"),
		ref("Paper B", "https://example.org/b.pdf"),
	}
	_, err := e.Compare(context.Background(), refs, "methods")
	assert.True(t, errors.Is(err, answer.ErrGenerationFailed))
}

func TestDedupePreservesOrder(t *testing.T) {
	refs := []types.PaperReference{
		ref("A", "https://example.org/a.pdf"),
		ref("B", "https://example.org/b.pdf"),
		ref("A again", "https://example.org/a.pdf"),
	}
	got := dedupe(refs)
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Title)
	assert.Equal(t, "B", got[1].Title)
}
