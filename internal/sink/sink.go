package sink

import (
	"context"
	"errors"

	"github.com/wardensec/warden/internal/review"
)

// Multi fans a report out to several sinks. The returned path is the first
// sink's location; every sink is attempted even when an earlier one fails,
// and the errors are joined.
type Multi struct {
	sinks []review.Sink
}

// NewMulti combines sinks. At least one is required by callers; an empty
// Multi stores nowhere and returns an empty path.
func NewMulti(sinks ...review.Sink) *Multi {
	return &Multi{sinks: sinks}
}

// Store implements review.Sink.
func (m *Multi) Store(ctx context.Context, report *review.Report) (string, error) {
	var firstPath string
	var errs []error

	for _, s := range m.sinks {
		path, err := s.Store(ctx, report)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if firstPath == "" {
			firstPath = path
		}
	}

	return firstPath, errors.Join(errs...)
}
