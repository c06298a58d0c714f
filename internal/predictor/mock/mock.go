// Package mock provides deterministic [predictor.Predictor] test doubles.
package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/glyphmatch/enrich/internal/predictor"
)

var _ predictor.Predictor = (*Predictor)(nil)

// Mode selects which canned prediction behavior the mock follows.
type Mode int

const (
	// ModeFirstCandidate always picks the first candidate (or signals end
	// of sequence when there are none) — the path generator's resolved
	// default.
	ModeFirstCandidate Mode = iota

	// ModeJoinAll returns one label string holding every candidate joined
	// by single spaces, instead of choosing one. h_r compares predicted
	// labels with candidate labels exactly, so with more than one candidate
	// the walk stops at that step.
	ModeJoinAll
)

// PredictCall records a single invocation of Predict.
type PredictCall struct {
	Label      string
	Candidates []string
}

// Predictor is a canned [predictor.Predictor] for tests.
type Predictor struct {
	mu sync.Mutex

	// Mode selects the prediction behavior. Zero value is ModeFirstCandidate.
	Mode Mode

	// PredictErr, if non-nil, is returned from every Predict call.
	PredictErr error

	// Calls records every invocation of Predict in order.
	Calls []PredictCall
}

// Predict implements [predictor.Predictor].
func (p *Predictor) Predict(ctx context.Context, label string, candidates []string) ([]string, bool, error) {
	p.mu.Lock()
	p.Calls = append(p.Calls, PredictCall{Label: label, Candidates: append([]string(nil), candidates...)})
	p.mu.Unlock()

	if p.PredictErr != nil {
		return nil, false, p.PredictErr
	}

	switch p.Mode {
	case ModeJoinAll:
		return []string{strings.Join(candidates, " ")}, len(candidates) == 0, nil
	default:
		if len(candidates) == 0 {
			return nil, true, nil
		}
		return []string{candidates[0]}, false, nil
	}
}

// Reset clears recorded calls.
func (p *Predictor) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = nil
}
