package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func TestNewCompleter_MissingAPIKey(t *testing.T) {
	c, err := NewCompleter(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	assert.Nil(t, c)
}

func TestCompleter_Complete(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{{
				"content": map[string]interface{}{
					"role":  "model",
					"parts": []map[string]interface{}{{"text": "A hobbit "}, {"text": "in a hole."}},
				},
				"finishReason": "STOP",
			}},
		})
	}))
	defer ts.Close()

	ctx := context.Background()
	c, err := NewCompleter(ctx, "test-key", "test-model", option.WithEndpoint(ts.URL))
	require.NoError(t, err)
	defer c.Close()

	out, err := c.Complete(ctx, "Please summarize the following chapter: In a hole in the ground")
	require.NoError(t, err)
	assert.Equal(t, "A hobbit in a hole.", out)

	assert.True(t, strings.HasSuffix(gotPath, "models/test-model:generateContent"), "path %q", gotPath)
	raw, _ := json.Marshal(gotBody)
	assert.Contains(t, string(raw), "In a hole in the ground")
}

func TestCompleter_Complete_ErrorHandling(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{
				"code":    400,
				"message": "API key not valid",
				"status":  "INVALID_ARGUMENT",
			},
		})
	}))
	defer ts.Close()

	ctx := context.Background()
	c, err := NewCompleter(ctx, "bad-key", "", option.WithEndpoint(ts.URL))
	require.NoError(t, err)
	defer c.Close()

	out, err := c.Complete(ctx, "hello")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "API key not valid")
	assert.Empty(t, out)
}

func TestResponseText(t *testing.T) {
	t.Run("Joins text parts", func(t *testing.T) {
		res := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{
					Role:  "model",
					Parts: []genai.Part{genai.Text("A hobbit "), genai.Text("in a hole.")},
				},
			}},
		}
		out, err := responseText(res)
		assert.NoError(t, err)
		assert.Equal(t, "A hobbit in a hole.", out)
	})

	t.Run("Skips non-text parts", func(t *testing.T) {
		res := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{
					Parts: []genai.Part{genai.Blob{MIMEType: "image/png", Data: []byte{1}}, genai.Text("text")},
				},
			}},
		}
		out, err := responseText(res)
		assert.NoError(t, err)
		assert.Equal(t, "text", out)
	})

	t.Run("No candidates", func(t *testing.T) {
		_, err := responseText(&genai.GenerateContentResponse{})
		assert.ErrorIs(t, err, ErrNoCandidates)

		_, err = responseText(nil)
		assert.ErrorIs(t, err, ErrNoCandidates)
	})

	t.Run("Candidate without content", func(t *testing.T) {
		_, err := responseText(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}})
		assert.ErrorIs(t, err, ErrNoCandidates)
	})
}
