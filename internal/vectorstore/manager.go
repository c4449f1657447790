// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package vectorstore

import (
	"container/list"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/Rohith-gande/PaperLens-updated/internal/embed"
	"github.com/Rohith-gande/PaperLens-updated/internal/ingest"
	"github.com/Rohith-gande/PaperLens-updated/pkg/types"
)

const (
	// DefaultMaxResident caps the indices kept in memory.
	DefaultMaxResident = 32

	// DefaultTopK is the number of chunks retrieved per question.
	DefaultTopK = 5

	// DefaultCompareTopK is the per-paper retrieval depth during comparisons.
	DefaultCompareTopK = 3
)

// ErrUnknownPaper is returned by Get when no index exists for the id,
// resident or persisted.
var ErrUnknownPaper = errors.New("no index for paper")

// Handle is a read-only view of one paper's built index. Handles stay
// valid after the manager evicts the entry; eviction only affects what
// is resident.
type Handle struct {
	paperID     string
	sourceType  types.SourceType
	fingerprint string
	metaText    string
	ref         types.PaperReference
	index       *memoryIndex
}

// PaperID returns the id the handle was built for.
func (h *Handle) PaperID() string { return h.paperID }

// Reference returns the bibliographic reference the index was built from.
func (h *Handle) Reference() types.PaperReference { return h.ref }

// SourceType returns the source classification behind the handle.
func (h *Handle) SourceType() types.SourceType { return h.sourceType }

// Degraded reports whether the handle serves synthetic metadata text
// instead of an embedded full-text index.
func (h *Handle) Degraded() bool { return h.index == nil }

// ChunkCount returns the number of indexed chunks (zero when degraded).
func (h *Handle) ChunkCount() int {
	if h.index == nil {
		return 0
	}
	return len(h.index.chunks)
}

// Manager exclusively owns the paper id to index mapping. At most one
// build per paper id runs at a time; concurrent callers share the
// in-flight build's result.
type Manager struct {
	engine   embed.Engine
	store    *Store
	cfg      types.StoreConfig
	chunkCfg types.ChunkingConfig

	group singleflight.Group

	mu       sync.Mutex
	resident map[string]*list.Element
	lru      *list.List
	builds   map[string]int
}

// NewManager creates a Manager. store may be nil to disable persistence.
func NewManager(engine embed.Engine, store *Store, cfg types.StoreConfig, chunkCfg types.ChunkingConfig) *Manager {
	if cfg.MaxResident <= 0 {
		cfg.MaxResident = DefaultMaxResident
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.CompareTopK <= 0 {
		cfg.CompareTopK = DefaultCompareTopK
	}
	return &Manager{
		engine:   engine,
		store:    store,
		cfg:      cfg,
		chunkCfg: chunkCfg,
		resident: make(map[string]*list.Element),
		lru:      list.New(),
		builds:   make(map[string]int),
	}
}

// TopK returns the configured per-question retrieval depth.
func (m *Manager) TopK() int { return m.cfg.TopK }

// CompareTopK returns the configured per-paper comparison retrieval depth.
func (m *Manager) CompareTopK() int { return m.cfg.CompareTopK }

// fingerprint identifies source content so a re-submitted paper with
// different text triggers a rebuild rather than serving stale chunks.
func fingerprint(rec types.SourceRecord) string {
	h := sha256.New()
	h.Write([]byte(rec.Type))
	h.Write([]byte{0})
	h.Write([]byte(rec.RawText))
	return fmt.Sprintf("%x", h.Sum(nil))[:16]
}

// EnsureIndex returns the existing index for the record's paper id or
// builds one. Concurrent calls for the same unbuilt id coalesce into a
// single build whose result every caller shares.
func (m *Manager) EnsureIndex(ctx context.Context, rec types.SourceRecord) (*Handle, error) {
	fp := fingerprint(rec)
	if h := m.lookup(rec.PaperID); h != nil && h.fingerprint == fp {
		return h, nil
	}

	v, err, _ := m.group.Do(rec.PaperID, func() (any, error) {
		// A coalesced waiter may arrive after the winner admitted the
		// handle; re-check before building.
		if h := m.lookup(rec.PaperID); h != nil && h.fingerprint == fp {
			return h, nil
		}
		return m.build(ctx, rec, fp)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Handle), nil
}

// Get returns the handle for an already-built paper, reloading it from
// the persistent store after an eviction or restart. It never embeds.
func (m *Manager) Get(ctx context.Context, paperID string) (*Handle, error) {
	if h := m.lookup(paperID); h != nil {
		return h, nil
	}
	if m.store == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPaper, paperID)
	}

	p, err := m.store.Load(ctx, paperID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPaper, paperID)
	}
	h := handleFromPersisted(paperID, p)
	m.admit(h)
	return h, nil
}

// Query retrieves the chunks most similar to the question, highest
// similarity first. Degenerate handles return their single synthetic
// text regardless of topK.
func (m *Manager) Query(ctx context.Context, h *Handle, question string, topK int) ([]types.Chunk, error) {
	m.touch(h.paperID)

	if h.Degraded() {
		if strings.TrimSpace(h.metaText) == "" {
			return nil, nil
		}
		return []types.Chunk{{
			PaperID: h.paperID,
			Index:   0,
			Text:    h.metaText,
			Start:   0,
			End:     len(h.metaText),
		}}, nil
	}

	if topK <= 0 {
		topK = m.cfg.TopK
	}

	qv, err := m.engine.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embedding question: %w", err)
	}
	return h.index.search(qv, topK), nil
}

// BuildCount reports how many embedding builds have run for a paper.
func (m *Manager) BuildCount(paperID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.builds[paperID]
}

func (m *Manager) build(ctx context.Context, rec types.SourceRecord, fp string) (*Handle, error) {
	// Metadata-only and unavailable sources skip chunking and
	// embedding entirely.
	if !rec.Type.FullText() {
		h := &Handle{
			paperID:     rec.PaperID,
			sourceType:  rec.Type,
			fingerprint: fp,
			metaText:    rec.RawText,
			ref:         rec.Reference,
		}
		m.persist(ctx, rec, h, nil, nil)
		m.admit(h)
		return h, nil
	}

	chunks := ingest.Chunk(rec.RawText, rec.PaperID, m.chunkCfg)
	if len(chunks) == 0 {
		// Unchunkable text behaves like a metadata-only source.
		h := &Handle{
			paperID:     rec.PaperID,
			sourceType:  types.SourceMetadataOnly,
			fingerprint: fp,
			metaText:    rec.Reference.MetadataText(),
			ref:         rec.Reference,
		}
		m.persist(ctx, rec, h, nil, nil)
		m.admit(h)
		return h, nil
	}

	// Reuse persisted vectors when the source content is unchanged.
	if m.store != nil {
		if p, err := m.store.Load(ctx, rec.PaperID); err == nil &&
			p.fingerprint == fp && len(p.chunks) == len(chunks) {
			h := handleFromPersisted(rec.PaperID, p)
			m.admit(h)
			return h, nil
		}
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := m.engine.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding %d chunks for %s: %w", len(chunks), rec.PaperID, err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedding for %s returned %d vectors for %d chunks", rec.PaperID, len(vectors), len(chunks))
	}

	m.mu.Lock()
	m.builds[rec.PaperID]++
	m.mu.Unlock()

	h := &Handle{
		paperID:     rec.PaperID,
		sourceType:  rec.Type,
		fingerprint: fp,
		ref:         rec.Reference,
		index:       &memoryIndex{chunks: chunks, vectors: vectors},
	}
	m.persist(ctx, rec, h, chunks, vectors)
	m.admit(h)
	return h, nil
}

// persist saves best-effort: the resident index serves queries either way.
func (m *Manager) persist(ctx context.Context, rec types.SourceRecord, h *Handle, chunks []types.Chunk, vectors [][]float32) {
	if m.store == nil {
		return
	}
	_ = m.store.Save(ctx, rec, h.fingerprint, h.metaText, chunks, vectors)
}

func handleFromPersisted(paperID string, p *persisted) *Handle {
	h := &Handle{
		paperID:     paperID,
		sourceType:  p.sourceType,
		fingerprint: p.fingerprint,
		metaText:    p.metaText,
		ref:         p.reference,
	}
	if len(p.chunks) > 0 {
		h.index = &memoryIndex{chunks: p.chunks, vectors: p.vectors}
	}
	return h
}

// lookup returns the resident handle for an id, refreshing its recency.
func (m *Manager) lookup(paperID string) *Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	elem, ok := m.resident[paperID]
	if !ok {
		return nil
	}
	m.lru.MoveToFront(elem)
	return elem.Value.(*Handle)
}

// touch refreshes an id's recency.
func (m *Manager) touch(paperID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if elem, ok := m.resident[paperID]; ok {
		m.lru.MoveToFront(elem)
	}
}

// admit inserts or replaces a resident handle and evicts the least
// recently queried entries beyond the configured bound. Evicted
// indices reload from the persistent store on next access.
func (m *Manager) admit(h *Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if elem, ok := m.resident[h.paperID]; ok {
		elem.Value = h
		m.lru.MoveToFront(elem)
		return
	}

	m.resident[h.paperID] = m.lru.PushFront(h)
	for m.lru.Len() > m.cfg.MaxResident {
		back := m.lru.Back()
		if back == nil {
			break
		}
		evicted := back.Value.(*Handle)
		delete(m.resident, evicted.paperID)
		m.lru.Remove(back)
	}
}
