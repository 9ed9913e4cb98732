package worker

import "bookillustrator/internal/pipeline"

const (
	EventPage        = "page"
	EventRunFinished = "run_finished"
	EventRunFailed   = "run_failed"
)

// PageResultPayload is the message published for every finished page.
type PageResultPayload struct {
	Event string `json:"event"`
	Done  int    `json:"done"`
	Total int    `json:"total"`

	Result pipeline.PageResult `json:"result"`

	CorrelationID string `json:"correlation_id"`
}

// RunStatusPayload closes a run's stream. After run_failed no output file
// exists, so earlier page messages of the same correlation ID are orphaned.
type RunStatusPayload struct {
	Event string `json:"event"`
	Pages int    `json:"pages"`
	Error string `json:"error,omitempty"`

	CorrelationID string `json:"correlation_id"`
}
