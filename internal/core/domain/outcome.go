package domain

// Outcome is the classification of a batch transition.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeNonRetryable
	OutcomeRetryable
	OutcomeDeadLettered
)

// Outcomes lists every outcome in declaration order.
var Outcomes = []Outcome{
	OutcomeSuccess,
	OutcomeNonRetryable,
	OutcomeRetryable,
	OutcomeDeadLettered,
}

// Metric labels. Retryable and non-retryable failures share "error".
const (
	LabelSuccess    = "success"
	LabelError      = "error"
	LabelDeadLetter = "dead_letter"
)

// EventLabel returns the value written to the "outcome" field of the event log.
func (o Outcome) EventLabel() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeNonRetryable:
		return "api_error"
	case OutcomeRetryable:
		return "retryable_error"
	case OutcomeDeadLettered:
		return "dead_letter"
	default:
		return "unknown"
	}
}

// MetricLabel returns the coarse label used for metric aggregation.
func (o Outcome) MetricLabel() string {
	switch o {
	case OutcomeSuccess:
		return LabelSuccess
	case OutcomeDeadLettered:
		return LabelDeadLetter
	default:
		return LabelError
	}
}

// IsTerminal reports whether the outcome ends a batch's lifecycle.
func (o Outcome) IsTerminal() bool {
	return o != OutcomeRetryable
}

func (o Outcome) String() string {
	return o.EventLabel()
}
