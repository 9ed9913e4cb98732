package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// Tracker prints a progress line per page and, when live is set, echoes each
// finished result as one JSON line.
type Tracker struct {
	progress io.Writer
	live     *json.Encoder
	start    time.Time
}

func NewTracker(progress, live io.Writer) *Tracker {
	t := &Tracker{progress: progress, start: time.Now()}
	if live != nil {
		enc := json.NewEncoder(live)
		enc.SetEscapeHTML(false)
		t.live = enc
	}
	return t
}

func (t *Tracker) PageDone(ctx context.Context, p Progress, r PageResult) {
	if t.progress != nil && p.Total > 0 {
		percent := float64(p.Done) / float64(p.Total) * 100
		elapsed := time.Since(t.start)
		eta := elapsed / time.Duration(p.Done) * time.Duration(p.Total-p.Done)

		fmt.Fprintf(t.progress, "\rProcessing pages: %d/%d (%.1f%%) | chapter %d, paragraph %d | ETA: %v",
			p.Done, p.Total, percent, r.ChapterNumber, r.StartingParagraphNumber, eta.Round(time.Second))
		// Live records must start on a line of their own.
		if t.live != nil || p.Done == p.Total {
			fmt.Fprintln(t.progress)
		}
	}

	if t.live != nil {
		if err := t.live.Encode(r); err != nil {
			slog.WarnContext(ctx, "failed to display page result", "error", err)
		}
	}
}
