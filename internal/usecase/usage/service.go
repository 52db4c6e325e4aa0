package usage

import (
	"context"
	"time"

	domusage "github.com/kailas-cloud/shelfsearch/internal/domain/usage"
)

// Service builds embedding usage reports.
type Service struct {
	wr       WindowReader
	provider string
	model    string
	now      func() time.Time
}

// New creates a Service. wr may be nil when no budget is tracked.
func New(wr WindowReader, provider, model string) *Service {
	return &Service{wr: wr, provider: provider, model: model, now: time.Now}
}

// GetReport returns usage for the current period. Without a tracker the
// window carries period bounds and zero usage with no limit.
func (s *Service) GetReport(_ context.Context, period domusage.Period) domusage.Report {
	var w domusage.Window
	if s.wr != nil {
		w = s.wr.Window(period)
	} else {
		start, end := domusage.Bounds(period, s.now())
		w = domusage.Window{Period: period, Start: start, End: end}
	}
	return domusage.NewReport(s.provider, s.model, w)
}
