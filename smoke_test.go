package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmoke_Run(t *testing.T) {
	var completions, images atomic.Int32

	ollamaSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("X-Correlation-ID"))
		completions.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response": " A quiet harbour at dawn. ", "done": true}`))
	}))
	defer ollamaSrv.Close()

	imageSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		images.Add(1)
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(0), body["chapter"])
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"image_id": "img-1"}`))
	}))
	defer imageSrv.Close()

	dir := t.TempDir()
	input := filepath.Join(dir, "book.json")
	output := filepath.Join(dir, "illustrated.json")
	require.NoError(t, os.WriteFile(input, []byte(`{"chapters": [{"paragraphs": [
		{"sentences": ["The boat left.", "Gulls followed."]},
		{"sentences": ["Fog rolled in."]},
		{"sentences": ["A bell rang."]},
		{"sentences": ["They reached the island."]}
	]}]}`), 0o600))

	t.Setenv("INPUT_PATH", input)
	t.Setenv("OUTPUT_PATH", output)
	t.Setenv("LLM_PROVIDER", "ollama")
	t.Setenv("OLLAMA_URL", ollamaSrv.URL)
	t.Setenv("IMAGE_GENERATION_URL", imageSrv.URL)
	t.Setenv("LOG_LEVEL", "error")

	require.NoError(t, run(context.Background()))

	// Two pages, four completions each, one image request each.
	assert.Equal(t, int32(8), completions.Load())
	assert.Equal(t, int32(2), images.Load())

	raw, err := os.ReadFile(output)
	require.NoError(t, err)
	var results []map[string]any
	require.NoError(t, json.Unmarshal(raw, &results))
	require.Len(t, results, 2)
	assert.Equal(t, "A quiet harbour at dawn.", results[0]["image_prompt"])
	assert.True(t, strings.HasPrefix(string(raw), "[\n    {\n        \"chapter_number\": 1,"))

	resp := results[1]["image_generation_response"].(map[string]any)
	assert.Equal(t, float64(200), resp["status_code"])
}

func TestSmoke_MissingConfig(t *testing.T) {
	t.Setenv("INPUT_PATH", "")
	t.Setenv("OUTPUT_PATH", "")
	assert.Error(t, run(context.Background()))
}
