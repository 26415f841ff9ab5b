// Package enhanced selects how the enhanced (0-500 scale) assessment is
// produced: locally, or by a remote scoring backend guarded by a circuit
// breaker. Either way the caller holds one contract: a complete reading in,
// an EnhancedResult out, or ErrBackendUnavailable signalling that the crisp
// path must take over.
package enhanced

import (
	"context"
	"errors"

	"github.com/Sameer-159/Air-Quality/internal/aqi"
)

// ErrBackendUnavailable marks an enhanced-scoring failure the caller must
// absorb by falling back to crisp scoring. It is never a hard failure.
var ErrBackendUnavailable = errors.New("enhanced scoring backend unavailable")

// Scorer produces an enhanced assessment for a reading.
type Scorer interface {
	Score(ctx context.Context, r aqi.Reading) (aqi.EnhancedResult, error)
}

// Local scores in-process using the built-in engine.
type Local struct{}

func (Local) Score(_ context.Context, r aqi.Reading) (aqi.EnhancedResult, error) {
	return aqi.ScoreEnhanced(r)
}
