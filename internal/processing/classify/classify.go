// Package classify maps downstream results to batch outcomes.
package classify

import "github.com/vietddude/inventorybot/internal/core/domain"

// Classifier maps the result of a downstream call to an outcome.
// Implementations must be pure and total.
type Classifier func(err error) domain.Outcome

// Default is the classifier used when none is configured.
var Default Classifier = Classify

// Classify determines the outcome for a downstream result.
// Unclassified failures are treated as transient.
func Classify(err error) domain.Outcome {
	if err == nil {
		return domain.OutcomeSuccess
	}

	switch domain.FailureKindOf(err) {
	case domain.FailureAPI:
		return domain.OutcomeNonRetryable
	case domain.FailureTransient:
		return domain.OutcomeRetryable
	default:
		return domain.OutcomeRetryable
	}
}
