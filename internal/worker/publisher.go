package worker

import (
	"context"
	"encoding/json"
	"log/slog"

	"bookillustrator/internal/middleware"
	"bookillustrator/internal/pipeline"
)

// ResultPublisher streams page results to a topic as they complete. Publish
// failures are logged and never stop the run; the output file stays the
// source of truth.
type ResultPublisher struct {
	publisher TaskPublisher
	topic     string
}

var _ pipeline.RunObserver = (*ResultPublisher)(nil)

func NewResultPublisher(tp TaskPublisher, topic string) *ResultPublisher {
	return &ResultPublisher{publisher: tp, topic: topic}
}

func (h *ResultPublisher) PageDone(ctx context.Context, p pipeline.Progress, r pipeline.PageResult) {
	payload := PageResultPayload{
		Event:         EventPage,
		Done:          p.Done,
		Total:         p.Total,
		Result:        r,
		CorrelationID: middleware.GetCorrelationID(ctx),
	}

	if h.publish(ctx, payload) {
		slog.DebugContext(ctx, "published page result", "topic", h.topic, "done", p.Done, "total", p.Total)
	}
}

// RunDone publishes the terminal message of the run.
func (h *ResultPublisher) RunDone(ctx context.Context, pages int, err error) {
	payload := RunStatusPayload{
		Event:         EventRunFinished,
		Pages:         pages,
		CorrelationID: middleware.GetCorrelationID(ctx),
	}
	if err != nil {
		payload.Event = EventRunFailed
		payload.Error = err.Error()
	}

	if h.publish(ctx, payload) {
		slog.InfoContext(ctx, "published run status", "topic", h.topic, "event", payload.Event)
	}
}

func (h *ResultPublisher) publish(ctx context.Context, payload any) bool {
	bytes, err := json.Marshal(payload)
	if err != nil {
		slog.ErrorContext(ctx, "failed to marshal payload", "error", err)
		return false
	}

	if err := h.publisher.Publish(h.topic, bytes); err != nil {
		slog.WarnContext(ctx, "failed to publish", "topic", h.topic, "error", err)
		return false
	}
	return true
}
