package usage

import "time"

// Period is a budget accounting window.
type Period string

// Budget periods.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

// ParsePeriod maps a query parameter onto a Period. Empty selects the month.
func ParsePeriod(s string) (Period, bool) {
	switch Period(s) {
	case "", PeriodMonth:
		return PeriodMonth, true
	case PeriodDay:
		return PeriodDay, true
	default:
		return "", false
	}
}

// Bounds returns the UTC window of period containing now.
func Bounds(period Period, now time.Time) (start, end time.Time) {
	now = now.UTC()
	if period == PeriodDay {
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 0, 1)
	}
	start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// Window is query embedding consumption within one period.
// Limit 0 means unlimited.
type Window struct {
	Period   Period
	Start    time.Time
	End      time.Time
	Requests int64
	Tokens   int64
	Limit    int64
}

// Remaining returns tokens left, -1 when unlimited.
func (w Window) Remaining() int64 {
	if w.Limit == 0 {
		return -1
	}
	if w.Tokens >= w.Limit {
		return 0
	}
	return w.Limit - w.Tokens
}

// Exhausted reports whether a limited window is spent.
func (w Window) Exhausted() bool { return w.Limit > 0 && w.Tokens >= w.Limit }

// Report is the embedding usage report served by GET /usage.
type Report struct {
	provider string
	model    string
	window   Window
}

// NewReport creates a usage report.
func NewReport(provider, model string, w Window) Report {
	return Report{provider: provider, model: model, window: w}
}

// Provider returns the embedding provider name.
func (r Report) Provider() string { return r.provider }

// Model returns the embedding model.
func (r Report) Model() string { return r.model }

// Window returns the accounting window.
func (r Report) Window() Window { return r.window }
