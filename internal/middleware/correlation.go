package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type key int

const (
	CorrelationKey key = iota
	ChapterKey
	ParagraphKey
)

const CorrelationHeader = "X-Correlation-ID"

// NewCorrelationID returns a fresh run identifier.
func NewCorrelationID() string {
	return uuid.New().String()
}

func GetCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(CorrelationKey).(string); ok {
		return id
	}
	return "unknown"
}

func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationKey, id)
}

// WithPage tags ctx with the page being processed so log records carry it.
func WithPage(ctx context.Context, chapter, paragraph int) context.Context {
	ctx = context.WithValue(ctx, ChapterKey, chapter)
	return context.WithValue(ctx, ParagraphKey, paragraph)
}

// CorrelationTransport stamps outgoing requests with the run's correlation ID
// and logs each round trip.
type CorrelationTransport struct {
	Base http.RoundTripper
}

func NewCorrelationTransport(base http.RoundTripper) *CorrelationTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &CorrelationTransport{Base: base}
}

func (t *CorrelationTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	ctx := r.Context()
	id, ok := ctx.Value(CorrelationKey).(string)
	if ok && id != "" && r.Header.Get(CorrelationHeader) == "" {
		r = r.Clone(ctx)
		r.Header.Set(CorrelationHeader, id)
	}

	slog.DebugContext(ctx, "request sent", "method", r.Method, "url", r.URL.Redacted())
	start := time.Now()

	resp, err := t.Base.RoundTrip(r)
	if err != nil {
		slog.DebugContext(ctx, "request failed", "method", r.Method, "url", r.URL.Redacted(), "error", err, "duration", time.Since(start))
		return nil, err
	}

	slog.DebugContext(ctx, "request completed", "method", r.Method, "url", r.URL.Redacted(), "status", resp.StatusCode, "duration", time.Since(start))
	return resp, nil
}
