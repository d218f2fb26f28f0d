package entities

import "github.com/dmitrymomot/flagkit/pkg/audience"

// Status of an experiment, rollout rule or holdout.
type Status string

const (
	StatusRunning    Status = "Running"
	StatusPaused     Status = "Paused"
	StatusLaunched   Status = "Launched"
	StatusNotStarted Status = "Not started"
	StatusArchived   Status = "Archived"
)

// GroupPolicy controls how a group's member experiments share traffic.
type GroupPolicy string

const (
	// PolicyRandom makes member experiments mutually exclusive.
	PolicyRandom GroupPolicy = "random"
	// PolicyOverlapping lets a user enter any number of member experiments.
	PolicyOverlapping GroupPolicy = "overlapping"
)

// Range assigns the bucket values below EndOfRange (and at or above the end
// of the previous range) to EntityID.
type Range struct {
	EntityID   string `json:"entityId" yaml:"entityId"`
	EndOfRange int    `json:"endOfRange" yaml:"endOfRange"`
}

// Variation is one arm of an experiment, rule or holdout.
type Variation struct {
	ID             string
	Key            string
	FeatureEnabled bool
	// Variables maps variable id to the overriding raw value.
	Variables map[string]string
}

// Equal reports whether two variations are the same entity.
func (v Variation) Equal(other Variation) bool {
	return v.ID == other.ID
}

// Cmab marks an experiment as driven by the contextual-bandit service.
type Cmab struct {
	AttributeIDs      []string
	TrafficAllocation int
}

// Experiment is an A/B test, a feature test or a rollout rule.
type Experiment struct {
	ID      string
	Key     string
	LayerID string
	Status  Status
	GroupID string

	Variations       map[string]Variation // by id
	VariationOrder   []string             // ids in datafile order
	VariationKeyToID map[string]string

	TrafficAllocation []Range

	AudienceIDs           []string
	AudienceConditionTree *audience.Tree

	// Whitelist maps user id to a forced variation key.
	Whitelist map[string]string

	IsFeatureExperiment bool
	Cmab                *Cmab
}

// IsRunning reports whether the experiment accepts traffic.
func (e *Experiment) IsRunning() bool {
	return e.Status == StatusRunning
}

// VariationByID returns the variation with the given id.
func (e *Experiment) VariationByID(id string) (Variation, bool) {
	v, ok := e.Variations[id]
	return v, ok
}

// VariationByKey returns the variation with the given key.
func (e *Experiment) VariationByKey(key string) (Variation, bool) {
	id, ok := e.VariationKeyToID[key]
	if !ok {
		return Variation{}, false
	}
	return e.VariationByID(id)
}

// Group is a set of experiments that may share traffic exclusively.
type Group struct {
	ID                string
	Policy            GroupPolicy
	TrafficAllocation []Range
	ExperimentIDs     []string
}

// VariableType is the declared type of a feature variable.
type VariableType string

const (
	VariableString  VariableType = "string"
	VariableInteger VariableType = "integer"
	VariableDouble  VariableType = "double"
	VariableBoolean VariableType = "boolean"
	VariableJSON    VariableType = "json"
)

// Variable is a typed feature variable with its default value.
type Variable struct {
	ID           string
	Key          string
	Type         VariableType
	DefaultValue string
}

// Feature is a feature flag.
type Feature struct {
	ID            string
	Key           string
	RolloutID     string
	ExperimentIDs []string
	Variables     []Variable
}

// Rollout is an ordered list of targeting rules. The last rule is the
// "everyone else" fallback by convention.
type Rollout struct {
	ID          string
	Experiments []Experiment
}

// Holdout withholds a share of users from experimentation on one or more
// flags.
type Holdout struct {
	ID     string
	Key    string
	Status Status

	Variations        map[string]Variation
	VariationOrder    []string
	TrafficAllocation []Range

	AudienceIDs           []string
	AudienceConditionTree *audience.Tree

	IncludedFlags []string
	ExcludedFlags []string
}

// IsRunning reports whether the holdout is active.
func (h *Holdout) IsRunning() bool {
	return h.Status == StatusRunning
}

// IsGlobal reports whether the holdout applies to every flag not explicitly
// excluded.
func (h *Holdout) IsGlobal() bool {
	return len(h.IncludedFlags) == 0
}

// Attribute declares a user attribute known to the project.
type Attribute struct {
	ID  string
	Key string
}
