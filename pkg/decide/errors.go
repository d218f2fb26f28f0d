package decide

import "errors"

// ErrInvalidOption is returned when an option name is not recognised.
var ErrInvalidOption = errors.New("invalid decide option")
