package decide

import (
	"errors"
	"fmt"
)

// Option is the wire name of a decide option.
type Option string

const (
	DisableDecisionEvent     Option = "DISABLE_DECISION_EVENT"
	EnabledFlagsOnly         Option = "ENABLED_FLAGS_ONLY"
	IgnoreUserProfileService Option = "IGNORE_USER_PROFILE_SERVICE"
	IncludeReasons           Option = "INCLUDE_REASONS"
	ExcludeVariables         Option = "EXCLUDE_VARIABLES"
	IgnoreCMABCache          Option = "IGNORE_CMAB_CACHE"
	ResetCMABCache           Option = "RESET_CMAB_CACHE"
	InvalidateUserCMABCache  Option = "INVALIDATE_USER_CMAB_CACHE"
)

// Options is the resolved set of options for one decision call.
type Options struct {
	DisableDecisionEvent     bool
	EnabledFlagsOnly         bool
	IgnoreUserProfileService bool
	IncludeReasons           bool
	ExcludeVariables         bool
	IgnoreCMABCache          bool
	ResetCMABCache           bool
	InvalidateUserCMABCache  bool
}

// Apply returns a copy of o with the given options switched on.
func (o Options) Apply(opts ...Option) (Options, error) {
	for _, opt := range opts {
		switch opt {
		case DisableDecisionEvent:
			o.DisableDecisionEvent = true
		case EnabledFlagsOnly:
			o.EnabledFlagsOnly = true
		case IgnoreUserProfileService:
			o.IgnoreUserProfileService = true
		case IncludeReasons:
			o.IncludeReasons = true
		case ExcludeVariables:
			o.ExcludeVariables = true
		case IgnoreCMABCache:
			o.IgnoreCMABCache = true
		case ResetCMABCache:
			o.ResetCMABCache = true
		case InvalidateUserCMABCache:
			o.InvalidateUserCMABCache = true
		default:
			return o, errors.Join(ErrInvalidOption, fmt.Errorf("unknown option %q", opt))
		}
	}
	return o, nil
}

// TranslateOptions converts option names (as received from a host config or
// wire payload) into Options.
func TranslateOptions(names []string) (Options, error) {
	opts := make([]Option, 0, len(names))
	for _, n := range names {
		opts = append(opts, Option(n))
	}
	return Options{}.Apply(opts...)
}
