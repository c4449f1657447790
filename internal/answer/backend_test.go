// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package answer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rohith-gande/PaperLens-updated/pkg/types"
)

func TestGeminiBackendGenerate(t *testing.T) {
	var gotPath, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"The paper "},{"text":"argues X."}]}}]}`)
	}))
	defer srv.Close()

	orig := geminiAPIBase
	geminiAPIBase = srv.URL
	defer func() { geminiAPIBase = orig }()

	b := NewGeminiBackend(types.GenerationConfig{APIKey: "test-key", Temperature: 0.3}, srv.Client())
	text, err := b.Generate(context.Background(), "Summarize the paper.")
	require.NoError(t, err)
	assert.Equal(t, "The paper argues X.", text)
	assert.Equal(t, "/gemini-2.0-flash:generateContent", gotPath)
	assert.Equal(t, "test-key", gotKey)
}

func TestGeminiBackendHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	orig := geminiAPIBase
	geminiAPIBase = srv.URL
	defer func() { geminiAPIBase = orig }()

	b := NewGeminiBackend(types.GenerationConfig{APIKey: "k"}, srv.Client())
	_, err := b.Generate(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestGeminiBackendNoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"candidates":[]}`)
	}))
	defer srv.Close()

	orig := geminiAPIBase
	geminiAPIBase = srv.URL
	defer func() { geminiAPIBase = orig }()

	b := NewGeminiBackend(types.GenerationConfig{APIKey: "k"}, srv.Client())
	_, err := b.Generate(context.Background(), "hi")
	assert.Error(t, err)
}

type flakyBackend struct {
	failures int
	calls    int
}

func (f *flakyBackend) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls++
	if f.failures > 0 {
		f.failures--
		return "", errors.New("transient")
	}
	return "done", nil
}

func TestGenerateWithRetry(t *testing.T) {
	b := &flakyBackend{failures: 2}
	text, err := GenerateWithRetry(context.Background(), b, "p", 3)
	require.NoError(t, err)
	assert.Equal(t, "done", text)
	assert.Equal(t, 3, b.calls)
}

func TestGenerateWithRetryExhausted(t *testing.T) {
	b := &flakyBackend{failures: 10}
	_, err := GenerateWithRetry(context.Background(), b, "p", 2)
	require.Error(t, err)
	assert.Equal(t, 3, b.calls)
}

func TestGenerateWithRetryContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := &flakyBackend{failures: 10}
	_, err := GenerateWithRetry(ctx, b, "p", 3)
	assert.True(t, errors.Is(err, context.Canceled))
}
