package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"bookillustrator/internal/adapter/imagegen"
)

// PageResult is one entry of the output document. Field order is part of the
// output format.
type PageResult struct {
	ChapterNumber           int                `json:"chapter_number"`
	StartingParagraphNumber int                `json:"starting_paragraph_number"`
	Paragraphs              []string           `json:"paragraphs"`
	SceneDescription        string             `json:"scene_description"`
	ImagePrompt             string             `json:"image_prompt"`
	ChapterSummary          string             `json:"chapter_summary"`
	VisualElements          string             `json:"visual_elements"`
	ImageGenerationResponse *imagegen.Response `json:"image_generation_response,omitempty"`
}

// EncodeResults renders results as an indented JSON array; nil encodes as [].
func EncodeResults(results []PageResult) ([]byte, error) {
	if results == nil {
		results = []PageResult{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(results); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteResults writes the whole document in a single write.
func WriteResults(path string, results []PageResult) error {
	data, err := EncodeResults(results)
	if err != nil {
		return fmt.Errorf("%w: encoding: %v", ErrOutputWrite, err)
	}
	if err := os.WriteFile(filepath.Clean(path), data, 0o644); err != nil { // #nosec G306 -- output is meant to be shared
		return fmt.Errorf("%w: %v", ErrOutputWrite, err)
	}
	return nil
}
