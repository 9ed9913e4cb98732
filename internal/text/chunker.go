package text

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidSize = errors.New("size must be positive")

type Paragraph struct {
	ChapterNumber   int
	ParagraphNumber int
	Text            string
}

type Page struct {
	ChapterNumber           int
	StartingParagraphNumber int
	Paragraphs              []Paragraph
}

// Text joins the page's paragraphs into the single string fed to the prompt chain.
func (p Page) Text() string {
	parts := make([]string, len(p.Paragraphs))
	for i, para := range p.Paragraphs {
		parts[i] = para.Text
	}
	return strings.Join(parts, " ")
}

// Texts returns the raw paragraph texts in order.
func (p Page) Texts() []string {
	out := make([]string, len(p.Paragraphs))
	for i, para := range p.Paragraphs {
		out[i] = para.Text
	}
	return out
}

type Chunk struct {
	ChapterNumber int
	Pages         []Page
}

// ChapterParagraphs flattens one chapter into numbered paragraphs.
// Sentences are joined with a single space; chapter and paragraph numbers are 1-based.
func ChapterParagraphs(chapterNumber int, chapter ChapterBlock) []Paragraph {
	paragraphs := make([]Paragraph, 0, len(chapter.Paragraphs))
	for i, block := range chapter.Paragraphs {
		paragraphs = append(paragraphs, Paragraph{
			ChapterNumber:   chapterNumber,
			ParagraphNumber: i + 1,
			Text:            strings.Join(block.Sentences, " "),
		})
	}
	return paragraphs
}

// CreatePages groups paragraphs into pages of pageSize. Only the last page may be shorter.
func CreatePages(paragraphs []Paragraph, pageSize int) []Page {
	if len(paragraphs) == 0 {
		return nil
	}

	pages := make([]Page, 0, (len(paragraphs)+pageSize-1)/pageSize)
	for start := 0; start < len(paragraphs); start += pageSize {
		end := min(start+pageSize, len(paragraphs))
		first := paragraphs[start]
		pages = append(pages, Page{
			ChapterNumber:           first.ChapterNumber,
			StartingParagraphNumber: first.ParagraphNumber,
			Paragraphs:              paragraphs[start:end:end],
		})
	}
	return pages
}

// ExtractChunks splits every chapter into pages and then into chunks of at most
// chunkSize pages. Chunks never span chapters and come out in chapter order,
// then page order. Empty chapters contribute nothing.
func ExtractChunks(book *Book, pageSize, chunkSize int) ([]Chunk, error) {
	if pageSize <= 0 {
		return nil, fmt.Errorf("%w: paragraphs per page = %d", ErrInvalidSize, pageSize)
	}
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size = %d", ErrInvalidSize, chunkSize)
	}
	if book == nil {
		return nil, nil
	}

	var chunks []Chunk
	for i, chapter := range book.Chapters {
		chapterNumber := i + 1
		pages := CreatePages(ChapterParagraphs(chapterNumber, chapter), pageSize)

		for start := 0; start < len(pages); start += chunkSize {
			end := min(start+chunkSize, len(pages))
			chunks = append(chunks, Chunk{
				ChapterNumber: chapterNumber,
				Pages:         pages[start:end:end],
			})
		}
	}
	return chunks, nil
}
