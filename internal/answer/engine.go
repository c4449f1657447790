// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package answer turns prepared papers into grounded conversational
// answers. A paper moves through unprepared, preparing, and ready (or
// ready-degraded when only metadata could be sourced); questions
// against anything short of ready fail with ErrNotReady rather than
// guessing.
package answer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/Rohith-gande/PaperLens-updated/internal/vectorstore"
	"github.com/Rohith-gande/PaperLens-updated/pkg/types"
)

var (
	// ErrNotReady is returned by Ask when the paper has not completed
	// preparation.
	ErrNotReady = errors.New("paper not prepared")

	// ErrGenerationFailed marks a turn whose generation call exhausted
	// its retries. The paper stays ready; the next Ask may succeed.
	ErrGenerationFailed = errors.New("answer generation failed")
)

const (
	// noContextAnswer is returned without a generation call when
	// retrieval finds nothing to ground an answer in.
	noContextAnswer = "I couldn't find specific information about this in the paper. Could you try rephrasing your question or asking about a different aspect?"

	degradedDisclaimer      = "This answer is based on limited data available for this paper (title and abstract only)."
	lowConfidenceDisclaimer = "This answer may be weakly grounded in the paper; treat it with caution."
)

// Resolver locates grounding text for a paper reference.
type Resolver interface {
	Resolve(ctx context.Context, ref types.PaperReference) types.SourceRecord
}

// PrepareResult reports the outcome of preparing one paper.
type PrepareResult struct {
	PaperID    string           `json:"paper_id" yaml:"paper_id"`
	SourceType types.SourceType `json:"source_type" yaml:"source_type"`
	Chunks     int              `json:"chunks" yaml:"chunks"`
	Ready      bool             `json:"ready" yaml:"ready"`
	Degraded   bool             `json:"degraded" yaml:"degraded"`
}

// Turn is one answered question.
type Turn struct {
	Answer          string           `json:"answer" yaml:"answer"`
	Citation        string           `json:"citation,omitempty" yaml:"citation,omitempty"`
	Confidence      int              `json:"confidence" yaml:"confidence"`
	ConfidenceLabel string           `json:"confidence_label" yaml:"confidence_label"`
	Disclaimer      string           `json:"disclaimer,omitempty" yaml:"disclaimer,omitempty"`
	SourceType      types.SourceType `json:"source_type" yaml:"source_type"`
}

// BatchSummary holds counts from a batch prepare run.
type BatchSummary struct {
	Prepared int
	Degraded int
	Failed   int
}

// Total returns the number of papers processed.
func (s BatchSummary) Total() int {
	return s.Prepared + s.Degraded + s.Failed
}

// HasFailures reports whether any papers failed.
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}

// Engine answers questions about prepared papers.
type Engine struct {
	resolver   Resolver
	index      *vectorstore.Manager
	backend    Backend
	maxRetries int

	group singleflight.Group

	mu     sync.Mutex
	papers map[string]*vectorstore.Handle
}

// NewEngine creates an answer engine over a resolver, an index
// manager, and a generation backend.
func NewEngine(resolver Resolver, index *vectorstore.Manager, backend Backend, cfg types.GenerationConfig) *Engine {
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Engine{
		resolver:   resolver,
		index:      index,
		backend:    backend,
		maxRetries: maxRetries,
		papers:     make(map[string]*vectorstore.Handle),
	}
}

// Prepare resolves a paper's grounding text and builds its index.
// Preparing an already-ready paper is a no-op returning the prior
// outcome; concurrent calls for the same paper coalesce. Degraded
// sourcing (metadata only, or nothing at all) is a successful prepare,
// not an error.
func (e *Engine) Prepare(ctx context.Context, ref types.PaperReference) (PrepareResult, error) {
	id := ref.ID()

	if h := e.lookup(id); h != nil {
		return resultFor(h), nil
	}

	v, err, _ := e.group.Do(id, func() (any, error) {
		if h := e.lookup(id); h != nil {
			return h, nil
		}

		rec := e.resolver.Resolve(ctx, ref)
		h, err := e.index.EnsureIndex(ctx, rec)
		if err != nil {
			return nil, fmt.Errorf("indexing %s: %w", id, err)
		}

		e.mu.Lock()
		e.papers[id] = h
		e.mu.Unlock()
		return h, nil
	})
	if err != nil {
		return PrepareResult{}, err
	}
	return resultFor(v.(*vectorstore.Handle)), nil
}

// PrepareBatch prepares every reference, writing one progress line per
// paper. Individual failures are reported and counted, never fatal.
func (e *Engine) PrepareBatch(ctx context.Context, refs []types.PaperReference, w io.Writer) (BatchSummary, error) {
	var summary BatchSummary
	for _, ref := range refs {
		res, err := e.Prepare(ctx, ref)
		if err != nil {
			fmt.Fprintf(w, "failed   %s: %v\n", ref.ID(), err)
			summary.Failed++
			continue
		}
		if res.Degraded {
			fmt.Fprintf(w, "degraded %s (%s)\n", res.PaperID, res.SourceType)
			summary.Degraded++
			continue
		}
		fmt.Fprintf(w, "prepared %s (%d chunks)\n", res.PaperID, res.Chunks)
		summary.Prepared++
	}
	return summary, nil
}

// Ask answers one question about a prepared paper. A paper prepared in
// an earlier run is recovered from the persistent store; otherwise the
// caller must Prepare first.
func (e *Engine) Ask(ctx context.Context, paperID, question string) (Turn, error) {
	h := e.lookup(paperID)
	if h == nil {
		recovered, err := e.index.Get(ctx, paperID)
		if err != nil {
			return Turn{}, fmt.Errorf("%w: %s", ErrNotReady, paperID)
		}
		e.mu.Lock()
		e.papers[paperID] = recovered
		e.mu.Unlock()
		h = recovered
	}

	chunks, err := e.index.Query(ctx, h, question, 0)
	if err != nil {
		return Turn{}, fmt.Errorf("retrieving context for %s: %w", paperID, err)
	}

	citation := Citation(h.Reference())
	degraded := h.Degraded()

	if len(chunks) == 0 {
		turn := Turn{
			Answer:          noContextAnswer,
			SourceType:      h.SourceType(),
			ConfidenceLabel: ConfidenceLabel(0),
			Disclaimer:      degradedDisclaimer,
		}
		return turn, nil
	}

	var texts []string
	for _, c := range chunks {
		texts = append(texts, c.Text)
	}
	contextText := strings.Join(texts, "\n\n")

	prompt, err := renderAskPrompt(!degraded, promptData{
		Context:  contextText,
		Question: question,
		Citation: citation,
	})
	if err != nil {
		return Turn{}, fmt.Errorf("rendering prompt: %w", err)
	}

	answerText, err := GenerateWithRetry(ctx, e.backend, prompt, e.maxRetries)
	if err != nil {
		return Turn{}, fmt.Errorf("%w: %s: %v", ErrGenerationFailed, paperID, err)
	}

	score := Confidence(ConfidenceInput{
		SourceType:      h.SourceType(),
		RetrievalScores: lexicalScores(question, chunks),
		AnswerLength:    len(answerText),
		QuestionLength:  len(question),
		ChunksUsed:      len(chunks),
	})

	turn := Turn{
		Answer:          answerText,
		Confidence:      score,
		ConfidenceLabel: ConfidenceLabel(score),
		SourceType:      h.SourceType(),
	}
	if degraded {
		turn.Disclaimer = degradedDisclaimer
	} else {
		turn.Citation = citation
		if needsDisclaimer(score, h.SourceType()) {
			turn.Disclaimer = lowConfidenceDisclaimer
		}
	}
	return turn, nil
}

// Handle returns the index handle for a prepared paper, or nil.
func (e *Engine) Handle(paperID string) *vectorstore.Handle {
	return e.lookup(paperID)
}

func (e *Engine) lookup(paperID string) *vectorstore.Handle {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.papers[paperID]
}

func resultFor(h *vectorstore.Handle) PrepareResult {
	return PrepareResult{
		PaperID:    h.PaperID(),
		SourceType: h.SourceType(),
		Chunks:     h.ChunkCount(),
		Ready:      true,
		Degraded:   h.Degraded(),
	}
}

// lexicalScores approximates retrieval quality by word overlap between
// the question and each retrieved chunk.
func lexicalScores(question string, chunks []types.Chunk) []float64 {
	qWords := strings.Fields(strings.ToLower(question))
	if len(qWords) == 0 {
		return nil
	}
	qSet := make(map[string]bool, len(qWords))
	for _, w := range qWords {
		qSet[w] = true
	}

	scores := make([]float64, len(chunks))
	for i, c := range chunks {
		seen := make(map[string]bool)
		overlap := 0
		for _, w := range strings.Fields(strings.ToLower(c.Text)) {
			if qSet[w] && !seen[w] {
				seen[w] = true
				overlap++
			}
		}
		scores[i] = float64(overlap) / float64(len(qWords))
	}
	return scores
}
