package telemetry

import (
	"context"

	"github.com/petasbytes/stock-analyzer/internal/metrics"
)

// EmitPromptFeatures records size features of a message posted to a thread.
// The text itself is never written.
func EmitPromptFeatures(ctx context.Context, threadID, text string) {
	if !ObserveEnabled() {
		return
	}
	f := metrics.CountFeatures(text)
	EmitCtx(ctx, "message_posted", map[string]any{
		"thread_id":        threadID,
		"features_version": "1",
		"prompt": map[string]any{
			"bytes": f.Bytes,
			"runes": f.Runes,
			"words": f.Words,
			"lines": f.Lines,
		},
	})
}
