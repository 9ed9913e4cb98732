package pipeline

import (
	"errors"
	"fmt"

	"bookillustrator/internal/adapter/imagegen"
	"bookillustrator/internal/prompt"
	"bookillustrator/internal/text"
)

// Error kinds surfaced by a run. Lower layers return the same sentinels, so
// errors.Is works whichever package the caller holds.
var (
	ErrInputRead         = text.ErrInputRead
	ErrInputParse        = text.ErrInputParse
	ErrCompletionService = prompt.ErrCompletionFailed
	ErrImageService      = imagegen.ErrRequestFailed
	ErrOutputWrite       = errors.New("output write failed")
)

const StageGenerateImage = "generate_image"

// PageError pins a failure to the page that caused it.
type PageError struct {
	Chunk             int
	Chapter           int
	StartingParagraph int
	Stage             string
	Err               error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("chunk %d, chapter %d, page at paragraph %d: %s: %v",
		e.Chunk, e.Chapter, e.StartingParagraph, e.Stage, e.Err)
}

func (e *PageError) Unwrap() error {
	return e.Err
}
