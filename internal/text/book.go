package text

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var (
	ErrInputRead  = errors.New("input read failed")
	ErrInputParse = errors.New("input parse failed")
)

// Book mirrors the input document: chapters of paragraphs of sentences.
type Book struct {
	Chapters []ChapterBlock `json:"chapters"`
}

type ChapterBlock struct {
	Paragraphs []ParagraphBlock `json:"paragraphs"`
}

type ParagraphBlock struct {
	Sentences []string `json:"sentences"`
}

// LoadBook reads and parses the whole input file in one go.
func LoadBook(path string) (*Book, error) {
	data, err := os.ReadFile(filepath.Clean(path)) // #nosec G304 -- path comes from run configuration
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInputRead, path, err)
	}
	return ParseBook(data)
}

func ParseBook(data []byte) (*Book, error) {
	var b Book
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInputParse, err)
	}
	return &b, nil
}
