package multistep

// ErrorContext identifies the integrator and its position when a failure is
// reported.
type ErrorContext struct {
	Name string
	T    float64
	H    float64
	Q    int
	Step int
	Msg  string
}

// Reporter receives failure reports and per-step status notifications.
// ReportStatus is called after every accepted internal step; callers that
// drive a UI should throttle it.
type Reporter interface {
	ReportError(kind Kind, ctx ErrorContext)
	ReportStatus(t float64)
}

type nopReporter struct{}

func (nopReporter) ReportError(Kind, ErrorContext) {}
func (nopReporter) ReportStatus(float64)           {}
