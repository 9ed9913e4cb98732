// Package prompt runs the four-stage completion chain that turns a page of
// story text into an image-generation prompt.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/time/rate"
)

var (
	ErrCompletionFailed = errors.New("completion service call failed")
	ErrEmptyCompletion  = errors.New("completion service returned empty text")
)

// Completer is a text-in, text-out language model.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type Stage string

const (
	StageSummarize      Stage = "summarize"
	StageVisualElements Stage = "visual_elements"
	StageDescribeScene  Stage = "describe_scene"
	StageImagePrompt    Stage = "image_prompt"
)

// StageError reports which link of the chain broke.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

type Result struct {
	Summary          string
	VisualElements   string
	SceneDescription string
	ImagePrompt      string
}

type Chain struct {
	completer Completer
	limiter   *rate.Limiter
}

type Option func(*Chain)

// WithRateLimit caps completion calls at perSecond; zero or less leaves them unthrottled.
func WithRateLimit(perSecond float64) Option {
	return func(c *Chain) {
		if perSecond > 0 {
			burst := max(1, int(perSecond))
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

func NewChain(c Completer, opts ...Option) *Chain {
	chain := &Chain{completer: c}
	for _, opt := range opts {
		opt(chain)
	}
	return chain
}

func SummarizePrompt(text string) string {
	return fmt.Sprintf("Please summarize the following chapter: %s", text)
}

func VisualElementsPrompt(text string) string {
	return fmt.Sprintf("Please extract the primary visual elements of this text: %s", text)
}

func DescribeScenePrompt(pageText, elements, summary string) string {
	return fmt.Sprintf("Using the following general visual elements extracted from the text: '%s', "+
		"the overall context from this chapter summary: '%s', and the specific story text in this page: '%s', "+
		"provide a concise visual description of the scene.", elements, summary, pageText)
}

func ImagePromptPrompt(description string) string {
	return fmt.Sprintf("Create a concise image generation prompt based on this scene description; "+
		"focus on the key elements of the narrative: '%s'", description)
}

func (c *Chain) Summarize(ctx context.Context, text string) (string, error) {
	return c.complete(ctx, StageSummarize, SummarizePrompt(text))
}

func (c *Chain) ExtractVisualElements(ctx context.Context, text string) (string, error) {
	return c.complete(ctx, StageVisualElements, VisualElementsPrompt(text))
}

func (c *Chain) DescribeScene(ctx context.Context, pageText, elements, summary string) (string, error) {
	return c.complete(ctx, StageDescribeScene, DescribeScenePrompt(pageText, elements, summary))
}

func (c *Chain) BuildImagePrompt(ctx context.Context, description string) (string, error) {
	return c.complete(ctx, StageImagePrompt, ImagePromptPrompt(description))
}

// Run executes summarize → visual elements → scene → image prompt, each stage
// feeding on the trimmed output of the ones before it.
func (c *Chain) Run(ctx context.Context, pageText string) (Result, error) {
	var res Result
	var err error

	if res.Summary, err = c.Summarize(ctx, pageText); err != nil {
		return Result{}, err
	}
	if res.VisualElements, err = c.ExtractVisualElements(ctx, pageText); err != nil {
		return Result{}, err
	}
	if res.SceneDescription, err = c.DescribeScene(ctx, pageText, res.VisualElements, res.Summary); err != nil {
		return Result{}, err
	}
	if res.ImagePrompt, err = c.BuildImagePrompt(ctx, res.SceneDescription); err != nil {
		return Result{}, err
	}
	return res, nil
}

func (c *Chain) complete(ctx context.Context, stage Stage, prompt string) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", &StageError{Stage: stage, Err: fmt.Errorf("%w: rate limit wait: %w", ErrCompletionFailed, err)}
		}
	}

	out, err := c.completer.Complete(ctx, prompt)
	if err != nil {
		slog.ErrorContext(ctx, "completion failed", "stage", stage, "error", err)
		return "", &StageError{Stage: stage, Err: fmt.Errorf("%w: %w", ErrCompletionFailed, err)}
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return "", &StageError{Stage: stage, Err: fmt.Errorf("%w: %w", ErrCompletionFailed, ErrEmptyCompletion)}
	}
	slog.DebugContext(ctx, "stage complete", "stage", stage, "length", len(out))
	return out, nil
}
