package authenticator

import "context"

// BiometricOutcome is the result category the OS biometric API can
// return for a single evaluation attempt.
type BiometricOutcome int

const (
	OutcomeSuccess BiometricOutcome = iota
	OutcomeUserCancel
	OutcomeAppCancel
	OutcomeSystemCancel
	OutcomeNotAvailable
	OutcomeNotEnrolled
	OutcomeOtherFailure
)

// BiometricEvaluator abstracts the platform biometric API (Touch ID,
// Windows Hello, or a fake for tests) so the authenticator's policy
// logic is portable and testable.
type BiometricEvaluator interface {
	// Available reports whether biometric hardware is present and
	// enrolled, sampled fresh at call time.
	Available(ctx context.Context) bool
	// Evaluate prompts the user with a localized reason and returns the
	// outcome category.
	Evaluate(ctx context.Context, reason string) BiometricOutcome
}

// unsupportedEvaluator is used on platforms with no biometric API
// wired in; it always reports unavailable.
type unsupportedEvaluator struct{}

func (unsupportedEvaluator) Available(ctx context.Context) bool { return false }

func (unsupportedEvaluator) Evaluate(ctx context.Context, reason string) BiometricOutcome {
	return OutcomeNotAvailable
}

// NewUnsupportedEvaluator returns an evaluator for platforms without a
// biometric integration wired in yet.
func NewUnsupportedEvaluator() BiometricEvaluator {
	return unsupportedEvaluator{}
}
