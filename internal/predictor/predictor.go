// Package predictor abstracts the next-edge-label predictor that drives the
// top-k paraphrase path generator h_r: given the label just followed and the
// labels of the candidate outward edges available from here, it picks which
// candidate (if any) continues the path.
package predictor

import "context"

// Predictor chooses which candidate edge label continues a path walk, or
// signals that the walk should stop.
//
// Implementations must be safe for concurrent use.
type Predictor interface {
	// Predict returns the predicted next label given the label of the edge
	// just taken and the labels of the candidate edges available from the
	// current vertex. eos reports whether the predictor elected to end the
	// path here rather than choose a candidate — the walk stops in that
	// case regardless of the returned label.
	//
	// Implementations may return more than one ranked label; h_r follows
	// the first candidate edge, in the graph's edge order, whose label is
	// any of the returned labels.
	Predict(ctx context.Context, label string, candidates []string) (labels []string, eos bool, err error)
}
