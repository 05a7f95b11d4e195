package compare

type OutcomeEnum int

const (
	_ OutcomeEnum = iota // skip zero value, use it as a default (invalid) value for OutcomeEnum

	// OutcomeIdentical: same-identity values, no further action needed.
	OutcomeIdentical
	// OutcomeEqual: value-equal yet distinct identity/instance.
	OutcomeEqual
	// OutcomeNotEqual: values differ.
	OutcomeNotEqual
	// OutcomeNoLeft: the right side has no left counterpart (an addition).
	OutcomeNoLeft
	// OutcomeNoRight: the left side has no right counterpart (a removal).
	OutcomeNoRight

	// OutcomeTotal is a constant that represents the total number of outcomes defined
	OutcomeTotal = int(iota)
)

// Equalish reports whether the outcome counts as "no difference".
func (o OutcomeEnum) Equalish() bool {
	return o == OutcomeIdentical || o == OutcomeEqual
}

func (o OutcomeEnum) String() string {
	switch o {
	case OutcomeIdentical:
		return "identical"
	case OutcomeEqual:
		return "equal"
	case OutcomeNotEqual:
		return "not-equal"
	case OutcomeNoLeft:
		return "no-left"
	case OutcomeNoRight:
		return "no-right"
	default:
		return "invalid"
	}
}
