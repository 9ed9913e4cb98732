package pipeline_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookillustrator/internal/pipeline"
)

func TestTracker_PageDone(t *testing.T) {
	var progress, live bytes.Buffer
	tr := pipeline.NewTracker(&progress, &live)
	ctx := context.Background()

	tr.PageDone(ctx, pipeline.Progress{Done: 1, Total: 2}, pipeline.PageResult{ChapterNumber: 1, StartingParagraphNumber: 1, Paragraphs: []string{"a"}})
	assert.Contains(t, progress.String(), "\rProcessing pages: 1/2 (50.0%) | chapter 1, paragraph 1")

	tr.PageDone(ctx, pipeline.Progress{Done: 2, Total: 2}, pipeline.PageResult{ChapterNumber: 1, StartingParagraphNumber: 4, Paragraphs: []string{"b"}})
	assert.Contains(t, progress.String(), "2/2 (100.0%) | chapter 1, paragraph 4")
	assert.True(t, strings.HasSuffix(progress.String(), "\n"))

	lines := strings.Split(strings.TrimSpace(live.String()), "\n")
	require.Len(t, lines, 2)
	var second pipeline.PageResult
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, 4, second.StartingParagraphNumber)
}

func TestTracker_SharedWriter(t *testing.T) {
	var out bytes.Buffer
	tr := pipeline.NewTracker(&out, &out)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		tr.PageDone(ctx, pipeline.Progress{Done: i, Total: 3}, pipeline.PageResult{
			ChapterNumber:           1,
			StartingParagraphNumber: 3*i - 2,
			Paragraphs:              []string{"text"},
		})
	}

	var progressLines, records int
	for _, line := range strings.Split(strings.TrimRight(out.String(), "\n"), "\n") {
		if strings.HasPrefix(line, "\rProcessing pages:") {
			progressLines++
			assert.NotContains(t, line, "{", "record glued onto progress line")
			continue
		}
		var r pipeline.PageResult
		require.NoError(t, json.Unmarshal([]byte(line), &r), "line %q", line)
		records++
		assert.Equal(t, 3*records-2, r.StartingParagraphNumber)
	}
	assert.Equal(t, 3, progressLines)
	assert.Equal(t, 3, records)
}

func TestTracker_ProgressOnly(t *testing.T) {
	var progress bytes.Buffer
	tr := pipeline.NewTracker(&progress, nil)

	tr.PageDone(context.Background(), pipeline.Progress{Done: 1, Total: 2}, pipeline.PageResult{})
	assert.Contains(t, progress.String(), "1/2")
	assert.False(t, strings.HasSuffix(progress.String(), "\n"), "progress line is rewritten in place")

	tr.PageDone(context.Background(), pipeline.Progress{Done: 2, Total: 2}, pipeline.PageResult{})
	assert.True(t, strings.HasSuffix(progress.String(), "\n"))
}
