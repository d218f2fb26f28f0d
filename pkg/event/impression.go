package event

import (
	"maps"
	"time"

	"github.com/google/uuid"
)

// RuleType classifies the rule an impression was produced by.
type RuleType string

const (
	RuleFeatureTest RuleType = "feature-test"
	RuleRollout     RuleType = "rollout"
	RuleHoldout     RuleType = "holdout"
	RuleExperiment  RuleType = "experiment"
	RuleFlag        RuleType = "flag"
)

// Impression records that a user was exposed to a decision.
type Impression struct {
	UUID         string         `json:"uuid"`
	Timestamp    time.Time      `json:"timestamp"`
	UserID       string         `json:"user_id"`
	Attributes   map[string]any `json:"attributes,omitempty"`
	ProjectID    string         `json:"project_id,omitempty"`
	Revision     string         `json:"revision,omitempty"`
	FlagKey      string         `json:"flag_key,omitempty"`
	RuleKey      string         `json:"rule_key,omitempty"`
	RuleType     RuleType       `json:"rule_type"`
	ExperimentID string         `json:"experiment_id,omitempty"`
	VariationKey string         `json:"variation_key,omitempty"`
	VariationID  string         `json:"variation_id,omitempty"`
	Enabled      bool           `json:"enabled"`
	CmabUUID     string         `json:"cmab_uuid,omitempty"`
}

// NewImpression starts an impression for userID with a fresh id and the
// current time. Attributes are copied.
func NewImpression(userID string, attrs map[string]any) Impression {
	return Impression{
		UUID:       uuid.NewString(),
		Timestamp:  time.Now().UTC(),
		UserID:     userID,
		Attributes: maps.Clone(attrs),
	}
}
