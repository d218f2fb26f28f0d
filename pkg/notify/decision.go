package notify

// DecisionType tells which API produced a decision notification.
type DecisionType string

const (
	DecisionFlag   DecisionType = "flag"
	DecisionABTest DecisionType = "ab-test"
)

// Decision describes one decision handed back to the host.
type Decision struct {
	Type         DecisionType
	UserID       string
	Attributes   map[string]any
	FlagKey      string
	RuleKey      string
	VariationKey string
	Enabled      bool
	Variables    map[string]any
	Reasons      []string
	// EventDispatched reports whether an impression was sent for it.
	EventDispatched bool
}
