package decision

import "github.com/dmitrymomot/flagkit/pkg/entities"

// Source tags the stage that produced a flag decision.
type Source string

const (
	SourceFeatureTest Source = "FEATURE_TEST"
	SourceRollout     Source = "ROLLOUT"
	SourceHoldout     Source = "HOLDOUT"
)

// FeatureDecision is the result of resolving one flag for one user. A nil
// Variation with SourceRollout means the flag is off and defaults apply.
type FeatureDecision struct {
	Experiment *entities.Experiment
	Holdout    *entities.Holdout
	Variation  *entities.Variation
	Source     Source
	CmabUUID   string
}

// RuleKey returns the key of the experiment, rollout rule or holdout that
// decided.
func (d FeatureDecision) RuleKey() string {
	switch {
	case d.Experiment != nil:
		return d.Experiment.Key
	case d.Holdout != nil:
		return d.Holdout.Key
	default:
		return ""
	}
}

// RuleID returns the id of the experiment, rollout rule or holdout that
// decided.
func (d FeatureDecision) RuleID() string {
	switch {
	case d.Experiment != nil:
		return d.Experiment.ID
	case d.Holdout != nil:
		return d.Holdout.ID
	default:
		return ""
	}
}

// Enabled reports whether the decided variation turns the feature on.
func (d FeatureDecision) Enabled() bool {
	return d.Variation != nil && d.Variation.FeatureEnabled
}
