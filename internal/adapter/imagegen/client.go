package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"bookillustrator/internal/middleware"
)

// DefaultStylePreamble is prepended to every image prompt unless overridden.
const DefaultStylePreamble = "Create an image inspired by the epic, cinematic style of Peter Jackson's Lord of the Rings trilogy. Use dramatic, sweeping landscapes, with a focus on natural elements such as verdant rolling hills, towering mountains, and mystical forests. Emphasize the contrast between light and shadow to create a sense of depth and atmosphere. Characters should have intricate, detailed costumes with natural, earthy tones and weathered textures. The lighting should evoke the mood of a high-fantasy world, using soft, golden light for tranquil scenes, and darker, more foreboding tones for moments of tension. The overall style should be grounded in realism, but with an otherworldly, mythical quality.  Here is the specific scene to illustrate:"

var (
	ErrRequestFailed = errors.New("image generation request failed")
	ErrNoEndpoint    = errors.New("image generation url not configured")
)

type Request struct {
	Prompt  string `json:"prompt"`
	Chapter int    `json:"chapter"`
	ParaIdx int    `json:"para_idx"`
	SentIdx int    `json:"sent_idx"`
}

// Response is reported back as-is; neither status nor body shape is checked.
type Response struct {
	RequestedPrompt string `json:"requested_prompt"`
	StatusCode      int    `json:"status_code"`
	ResponseJSON    any    `json:"response_json"`
}

type Client struct {
	url      string
	headers  map[string]string
	preamble string
	client   *http.Client
}

type Option func(*Client)

func WithHeaders(h map[string]string) Option {
	return func(c *Client) {
		if h != nil {
			c.headers = h
		}
	}
}

// WithStylePreamble overrides DefaultStylePreamble. An empty value keeps the default.
func WithStylePreamble(p string) Option {
	return func(c *Client) {
		if p != "" {
			c.preamble = p
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

func NewClient(url string, opts ...Option) *Client {
	c := &Client{
		url:      url,
		headers:  map[string]string{"Content-Type": "application/json"},
		preamble: DefaultStylePreamble,
		client:   &http.Client{Transport: middleware.NewCorrelationTransport(nil)},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) ConditionPrompt(prompt string) string {
	return c.preamble + " " + prompt
}

// Generate posts one conditioned prompt to the image endpoint.
func (c *Client) Generate(ctx context.Context, chapter, paragraph int, prompt string) (*Response, error) {
	conditioned := c.ConditionPrompt(prompt)
	if c.url == "" {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, ErrNoEndpoint)
	}

	jsonBody, err := json.Marshal(Request{
		Prompt:  conditioned,
		Chapter: chapter,
		ParaIdx: paragraph,
		SentIdx: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrRequestFailed, err)
	}

	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: status %d: malformed response body: %v", ErrRequestFailed, resp.StatusCode, err)
	}

	slog.InfoContext(ctx, "image requested", "status", resp.StatusCode, "chapter", chapter, "para_idx", paragraph)
	return &Response{
		RequestedPrompt: conditioned,
		StatusCode:      resp.StatusCode,
		ResponseJSON:    parsed,
	}, nil
}
