package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"bookillustrator/internal/adapter/imagegen"
	"bookillustrator/internal/middleware"
	"bookillustrator/internal/prompt"
	"bookillustrator/internal/text"
)

type PromptChain interface {
	Run(ctx context.Context, pageText string) (prompt.Result, error)
}

type ImageGenerator interface {
	Generate(ctx context.Context, chapter, paragraph int, prompt string) (*imagegen.Response, error)
}

type Progress struct {
	Done  int
	Total int
}

// Reporter observes each page as it completes. Calls are serialized.
type Reporter interface {
	PageDone(ctx context.Context, p Progress, r PageResult)
}

// RunObserver is implemented by reporters that also want the run outcome.
// RunDone is called once per Run, after the output is written or the run
// has failed.
type RunObserver interface {
	RunDone(ctx context.Context, pages int, err error)
}

type Options struct {
	InputPath         string
	OutputPath        string
	ParagraphsPerPage int
	ChunkSize         int
	NumChunks         int
	// GenerateImages switches the image request on; off gives a text-only preview run.
	GenerateImages bool
	Workers        int
}

type Processor struct {
	opts      Options
	chain     PromptChain
	images    ImageGenerator
	reporters []Reporter
}

func NewProcessor(opts Options, chain PromptChain, images ImageGenerator, reporters ...Reporter) *Processor {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Processor{
		opts:      opts,
		chain:     chain,
		images:    images,
		reporters: reporters,
	}
}

// Run loads the book, processes the selected chunks and writes the output
// document. Nothing is written if any page fails.
func (p *Processor) Run(ctx context.Context) (results []PageResult, err error) {
	start := time.Now()
	defer func() { p.finish(ctx, len(results), err) }()

	book, err := text.LoadBook(p.opts.InputPath)
	if err != nil {
		return nil, err
	}

	chunks, err := text.ExtractChunks(book, p.opts.ParagraphsPerPage, p.opts.ChunkSize)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "book chunked", "chapters", len(book.Chapters), "chunks", len(chunks), "paragraphs_per_page", p.opts.ParagraphsPerPage)

	results, err = p.ProcessChunks(ctx, chunks)
	if err != nil {
		return nil, err
	}

	if err := WriteResults(p.opts.OutputPath, results); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "processing complete", "output", p.opts.OutputPath, "pages", len(results), "duration", time.Since(start))
	return results, nil
}

func (p *Processor) finish(ctx context.Context, pages int, err error) {
	for _, rep := range p.reporters {
		if o, ok := rep.(RunObserver); ok {
			o.RunDone(ctx, pages, err)
		}
	}
}

type pageJob struct {
	chunk int
	page  text.Page
}

// ProcessChunks runs every page of the first NumChunks chunks and returns the
// results in visitation order: chunk order, then page order.
func (p *Processor) ProcessChunks(ctx context.Context, chunks []text.Chunk) ([]PageResult, error) {
	n := min(max(p.opts.NumChunks, 0), len(chunks))

	var jobs []pageJob
	for i, chunk := range chunks[:n] {
		for _, page := range chunk.Pages {
			jobs = append(jobs, pageJob{chunk: i + 1, page: page})
		}
	}

	results := make([]PageResult, len(jobs))
	var mu sync.Mutex
	done := 0
	report := func(ctx context.Context, r PageResult) {
		mu.Lock()
		defer mu.Unlock()
		done++
		for _, rep := range p.reporters {
			rep.PageDone(ctx, Progress{Done: done, Total: len(jobs)}, r)
		}
	}

	if p.opts.Workers == 1 {
		for i, job := range jobs {
			res, err := p.processPage(ctx, job)
			if err != nil {
				return nil, err
			}
			results[i] = res
			report(ctx, res)
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			res, err := p.processPage(gctx, job)
			if err != nil {
				return err
			}
			results[i] = res
			report(gctx, res)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (p *Processor) processPage(ctx context.Context, job pageJob) (PageResult, error) {
	page := job.page
	ctx = middleware.WithPage(ctx, page.ChapterNumber, page.StartingParagraphNumber)

	fail := func(stage string, err error) error {
		return &PageError{
			Chunk:             job.chunk,
			Chapter:           page.ChapterNumber,
			StartingParagraph: page.StartingParagraphNumber,
			Stage:             stage,
			Err:               err,
		}
	}

	if err := ctx.Err(); err != nil {
		return PageResult{}, fail("cancelled", err)
	}

	chain, err := p.chain.Run(ctx, page.Text())
	if err != nil {
		stage := "prompt_chain"
		var stageErr *prompt.StageError
		if errors.As(err, &stageErr) {
			stage = string(stageErr.Stage)
		}
		return PageResult{}, fail(stage, err)
	}

	res := PageResult{
		ChapterNumber:           page.ChapterNumber,
		StartingParagraphNumber: page.StartingParagraphNumber,
		Paragraphs:              page.Texts(),
		SceneDescription:        chain.SceneDescription,
		ImagePrompt:             chain.ImagePrompt,
		ChapterSummary:          chain.Summary,
		VisualElements:          chain.VisualElements,
	}

	if p.opts.GenerateImages {
		if p.images == nil {
			return PageResult{}, fail(StageGenerateImage, fmt.Errorf("%w: no image generator configured", ErrImageService))
		}
		// The image service indexes chapters from zero.
		img, err := p.images.Generate(ctx, page.ChapterNumber-1, page.StartingParagraphNumber, chain.ImagePrompt)
		if err != nil {
			return PageResult{}, fail(StageGenerateImage, err)
		}
		res.ImageGenerationResponse = img
	}

	slog.InfoContext(ctx, "page processed", "chunk", job.chunk, "paragraphs", len(page.Paragraphs))
	return res, nil
}
