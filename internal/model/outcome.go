package model

// Outcome is the result of a command that can be declined by a business rule.
// Declines are expected and frequent, so they are values rather than errors.
type Outcome int

const (
	// OutcomeNotFound means the event does not exist or was removed.
	OutcomeNotFound Outcome = iota
	// OutcomeDeclined means the event exists but the operation was refused.
	OutcomeDeclined
	// OutcomeSucceeded means the operation took effect.
	OutcomeSucceeded
)

// OK reports whether the operation took effect.
func (o Outcome) OK() bool {
	return o == OutcomeSucceeded
}

func (o Outcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeDeclined:
		return "declined"
	default:
		return "not_found"
	}
}
