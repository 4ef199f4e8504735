// Package oracle provides text-generation backends for the review
// pipeline and the resilient wrapper that absorbs backend failures.
package oracle

import (
	"context"
	"log/slog"

	"github.com/opensource-finance/harrier/internal/domain"
)

// Resilient wraps a TextOracle so that any failure is replaced by the
// deterministic fallback text. Callers never see an error; downstream
// keyword parsing always has something recognizable to work with.
type Resilient struct {
	backend domain.TextOracle
}

// NewResilient wraps backend. A nil backend runs in fallback-only mode,
// mirroring the original demo behavior when no model can be loaded.
func NewResilient(backend domain.TextOracle) *Resilient {
	return &Resilient{backend: backend}
}

// Generate returns the backend response, or the fallback text when the
// backend is absent or fails.
func (r *Resilient) Generate(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	if r.backend == nil {
		return domain.FallbackResponse(prompt), nil
	}

	resp, err := r.backend.Generate(ctx, prompt, maxTokens, temperature)
	if err != nil {
		slog.Warn("oracle backend failed, using fallback response",
			"error", err,
		)
		return domain.FallbackResponse(prompt), nil
	}

	return resp, nil
}
