package audience

// Result is the outcome of a three-valued condition evaluation. The zero
// value is Unknown.
type Result int8

const (
	Unknown Result = iota
	False
	True
)

func (r Result) String() string {
	switch r {
	case True:
		return "TRUE"
	case False:
		return "FALSE"
	default:
		return "UNKNOWN"
	}
}

// FromBool lifts b into a Result.
func FromBool(b bool) Result {
	if b {
		return True
	}
	return False
}

// And combines results: False wins, then Unknown, otherwise True.
func And(results ...Result) Result {
	sawUnknown := false
	for _, r := range results {
		switch r {
		case False:
			return False
		case Unknown:
			sawUnknown = true
		}
	}
	if sawUnknown {
		return Unknown
	}
	return True
}

// Or combines results: True wins, then Unknown, otherwise False.
func Or(results ...Result) Result {
	sawUnknown := false
	for _, r := range results {
		switch r {
		case True:
			return True
		case Unknown:
			sawUnknown = true
		}
	}
	if sawUnknown {
		return Unknown
	}
	return False
}

// Not inverts True and False; Unknown stays Unknown.
func Not(r Result) Result {
	switch r {
	case True:
		return False
	case False:
		return True
	default:
		return Unknown
	}
}
