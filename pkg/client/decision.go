package client

// Decision is the outcome of deciding one flag for one user.
type Decision struct {
	VariationKey string
	Enabled      bool
	Variables    map[string]any
	RuleKey      string
	FlagKey      string
	// UserContext is a copy of the user state the decision was made with.
	UserContext *UserContext
	Reasons     []string
}

func errorDecision(flagKey string, user *UserContext, reason string) Decision {
	return Decision{
		FlagKey:     flagKey,
		UserContext: user,
		Variables:   map[string]any{},
		Reasons:     []string{reason},
	}
}

// Variable returns the resolved value of a variable.
func (d Decision) Variable(key string) (any, bool) {
	v, ok := d.Variables[key]
	return v, ok
}

func (d Decision) String(key string) (string, bool) {
	v, ok := d.Variables[key].(string)
	return v, ok
}

func (d Decision) Int(key string) (int, bool) {
	v, ok := d.Variables[key].(int)
	return v, ok
}

func (d Decision) Float(key string) (float64, bool) {
	v, ok := d.Variables[key].(float64)
	return v, ok
}

func (d Decision) Bool(key string) (bool, bool) {
	v, ok := d.Variables[key].(bool)
	return v, ok
}

// JSON returns a json variable decoded into a map.
func (d Decision) JSON(key string) (map[string]any, bool) {
	v, ok := d.Variables[key].(map[string]any)
	return v, ok
}
