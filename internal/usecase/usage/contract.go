package usage

import domusage "github.com/kailas-cloud/shelfsearch/internal/domain/usage"

// WindowReader exposes budget counters read-only.
type WindowReader interface {
	Window(period domusage.Period) domusage.Window
}
