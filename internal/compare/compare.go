// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package compare synthesizes a cross-paper comparison from each
// paper's retrieved excerpts. Papers whose full text is unavailable
// participate with their title and abstract; papers with nothing
// usable drop out, and the comparison fails only when fewer than two
// remain.
package compare

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"golang.org/x/sync/errgroup"

	"github.com/Rohith-gande/PaperLens-updated/internal/answer"
	"github.com/Rohith-gande/PaperLens-updated/internal/vectorstore"
	"github.com/Rohith-gande/PaperLens-updated/pkg/types"
)

// ErrInsufficientPapers is returned when fewer than two distinct
// papers are submitted, or fewer than two yield usable context.
var ErrInsufficientPapers = errors.New("at least 2 papers required for comparison")

// prepareConcurrency bounds the per-paper fan-out.
const prepareConcurrency = 4

// placeholderRetrievalScore stands in for a real relevance score per
// retrieved excerpt when scoring comparison confidence.
const placeholderRetrievalScore = 0.8

// PaperSummary describes one paper's participation in a comparison.
type PaperSummary struct {
	PaperID    string           `json:"paper_id" yaml:"paper_id"`
	Title      string           `json:"title" yaml:"title"`
	Citation   string           `json:"citation" yaml:"citation"`
	SourceType types.SourceType `json:"source_type" yaml:"source_type"`
	Degraded   bool             `json:"degraded" yaml:"degraded"`
}

// Result is a completed comparison.
type Result struct {
	Comparison      string             `json:"comparison" yaml:"comparison"`
	Confidence      int                `json:"confidence" yaml:"confidence"`
	ConfidenceLabel string             `json:"confidence_label" yaml:"confidence_label"`
	Papers          []PaperSummary     `json:"papers" yaml:"papers"`
	SourcesUsed     []types.SourceType `json:"sources_used" yaml:"sources_used"`
}

// Engine runs multi-paper comparisons on top of the answer engine's
// prepared papers.
type Engine struct {
	prep       *answer.Engine
	index      *vectorstore.Manager
	backend    answer.Backend
	maxRetries int
}

// NewEngine creates a comparison engine sharing the answer engine's
// papers, index manager, and generation backend.
func NewEngine(prep *answer.Engine, index *vectorstore.Manager, backend answer.Backend, cfg types.GenerationConfig) *Engine {
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Engine{
		prep:       prep,
		index:      index,
		backend:    backend,
		maxRetries: maxRetries,
	}
}

// paperContext is one paper's contribution to the synthesis prompt.
type paperContext struct {
	summary PaperSummary
	excerpt string
	chunks  int
}

func (pc paperContext) usable() bool {
	return strings.TrimSpace(pc.excerpt) != ""
}

// Compare retrieves each paper's most relevant excerpts for the aspect
// and synthesizes a single comparison. References are deduplicated by
// paper id before any sourcing work; fewer than two distinct papers is
// an error up front.
func (e *Engine) Compare(ctx context.Context, refs []types.PaperReference, aspect string) (*Result, error) {
	distinct := dedupe(refs)
	if len(distinct) < 2 {
		return nil, fmt.Errorf("%w: got %d distinct papers", ErrInsufficientPapers, len(distinct))
	}

	contexts := make([]paperContext, len(distinct))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(prepareConcurrency)
	for i, ref := range distinct {
		i, ref := i, ref
		g.Go(func() error {
			pc, err := e.gather(gctx, ref, aspect)
			if err != nil {
				return err
			}
			contexts[i] = pc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var usable []paperContext
	for _, pc := range contexts {
		if pc.usable() {
			usable = append(usable, pc)
		}
	}
	if len(usable) < 2 {
		return nil, fmt.Errorf("%w: only %d papers yielded usable context", ErrInsufficientPapers, len(usable))
	}

	prompt, err := renderComparePrompt(usable, aspect)
	if err != nil {
		return nil, fmt.Errorf("rendering comparison prompt: %w", err)
	}

	text, err := answer.GenerateWithRetry(ctx, e.backend, prompt, e.maxRetries)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", answer.ErrGenerationFailed, err)
	}

	return e.buildResult(text, aspect, usable), nil
}

// gather prepares one paper and retrieves its excerpts for the aspect.
// Sourcing and retrieval trouble degrades the paper to its title and
// abstract; only context cancellation aborts the comparison.
func (e *Engine) gather(ctx context.Context, ref types.PaperReference, aspect string) (paperContext, error) {
	summary := PaperSummary{
		PaperID:  ref.ID(),
		Title:    ref.Title,
		Citation: answer.Citation(ref),
	}

	res, err := e.prep.Prepare(ctx, ref)
	if err != nil {
		if ctx.Err() != nil {
			return paperContext{}, ctx.Err()
		}
		return degradedContext(summary, ref), nil
	}
	summary.SourceType = res.SourceType
	summary.Degraded = res.Degraded

	h := e.prep.Handle(res.PaperID)
	if h == nil {
		return degradedContext(summary, ref), nil
	}

	chunks, err := e.index.Query(ctx, h, aspect, e.index.CompareTopK())
	if err != nil {
		if ctx.Err() != nil {
			return paperContext{}, ctx.Err()
		}
		return degradedContext(summary, ref), nil
	}
	if len(chunks) == 0 {
		return degradedContext(summary, ref), nil
	}

	var texts []string
	for _, c := range chunks {
		texts = append(texts, c.Text)
	}
	return paperContext{
		summary: summary,
		excerpt: strings.Join(texts, "\n"),
		chunks:  len(chunks),
	}, nil
}

func degradedContext(summary PaperSummary, ref types.PaperReference) paperContext {
	summary.Degraded = true
	if summary.SourceType == "" {
		summary.SourceType = types.SourceMetadataOnly
	}
	var b strings.Builder
	if ref.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", ref.Title)
	}
	if ref.Abstract != "" {
		fmt.Fprintf(&b, "Abstract: %s\n", ref.Abstract)
	}
	if b.Len() > 0 {
		b.WriteString("(Full text was not available for this paper.)")
	}
	return paperContext{summary: summary, excerpt: b.String(), chunks: 1}
}

func (e *Engine) buildResult(text, aspect string, usable []paperContext) *Result {
	var (
		papers     []PaperSummary
		sources    []types.SourceType
		seenSource = map[types.SourceType]bool{}
		scores     []float64
		chunksUsed int
		bestSource = types.SourceUnavailable
	)
	for _, pc := range usable {
		papers = append(papers, pc.summary)
		if !seenSource[pc.summary.SourceType] {
			seenSource[pc.summary.SourceType] = true
			sources = append(sources, pc.summary.SourceType)
		}
		for i := 0; i < pc.chunks; i++ {
			scores = append(scores, placeholderRetrievalScore)
		}
		chunksUsed += pc.chunks
		if sourceRank(pc.summary.SourceType) < sourceRank(bestSource) {
			bestSource = pc.summary.SourceType
		}
	}

	score := answer.Confidence(answer.ConfidenceInput{
		SourceType:      bestSource,
		RetrievalScores: scores,
		AnswerLength:    len(text),
		QuestionLength:  len(aspect),
		ChunksUsed:      chunksUsed,
	})

	return &Result{
		Comparison:      text,
		Confidence:      score,
		ConfidenceLabel: answer.ConfidenceLabel(score),
		Papers:          papers,
		SourcesUsed:     sources,
	}
}

// sourceRank orders source types best first for confidence scoring.
func sourceRank(t types.SourceType) int {
	switch t {
	case types.SourcePDFPrimary:
		return 0
	case types.SourcePDFSecondary:
		return 1
	case types.SourceMetadataOnly:
		return 2
	default:
		return 3
	}
}

// dedupe drops references resolving to an already-seen paper id,
// preserving first-seen order.
func dedupe(refs []types.PaperReference) []types.PaperReference {
	seen := make(map[string]bool, len(refs))
	var out []types.PaperReference
	for _, ref := range refs {
		id := ref.ID()
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, ref)
	}
	return out
}

// comparePromptTmpl is the synthesis prompt combining every paper's
// excerpts.
var comparePromptTmpl = template.Must(template.New("compare").Parse(`You are PaperLens, an AI research assistant. Compare and contrast the following research papers based on the user's query. Provide a clear, well-structured comparison that helps users understand the similarities and differences.
{{range $i, $p := .Papers}}
============================================================
PAPER {{$p.Number}}: {{$p.Title}}
Citation: {{$p.Citation}}

Relevant Excerpts:
{{$p.Excerpt}}
{{end}}
============================================================

Comparison Query: {{.Aspect}}

Instructions:
1. Provide a comprehensive yet clear comparison with:
   - An executive summary (2-3 sentences)
   - Key similarities and differences (use bullet points)
   - Methodological approaches (if relevant)
   - Main findings and conclusions
   - Strengths and limitations of each approach
   - Any contradictions or agreements

2. Use inline citations for each claim: {{.Citations}}

3. Structure your comparison clearly with sections and headings

4. Use language that is accessible but maintains scientific accuracy

5. Keep the comparison comprehensive but readable (aim for 400-600 words)

6. Be objective and evidence-based

Comparison:`))

type promptPaper struct {
	Number   int
	Title    string
	Citation string
	Excerpt  string
}

func renderComparePrompt(usable []paperContext, aspect string) (string, error) {
	var papers []promptPaper
	var citations []string
	for i, pc := range usable {
		papers = append(papers, promptPaper{
			Number:   i + 1,
			Title:    pc.summary.Title,
			Citation: pc.summary.Citation,
			Excerpt:  pc.excerpt,
		})
		citations = append(citations, pc.summary.Citation)
	}

	var buf bytes.Buffer
	err := comparePromptTmpl.Execute(&buf, struct {
		Papers    []promptPaper
		Aspect    string
		Citations string
	}{
		Papers:    papers,
		Aspect:    aspect,
		Citations: strings.Join(citations, ", "),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
