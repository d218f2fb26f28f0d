package datafile

import "github.com/dmitrymomot/flagkit/pkg/entities"

// Datafile is the decoded experiment configuration document.
type Datafile struct {
	Version        string        `json:"version" yaml:"version"`
	Revision       string        `json:"revision" yaml:"revision"`
	ProjectID      string        `json:"projectId" yaml:"projectId"`
	AccountID      string        `json:"accountId,omitempty" yaml:"accountId,omitempty"`
	Experiments    []Experiment  `json:"experiments" yaml:"experiments"`
	Groups         []Group       `json:"groups" yaml:"groups"`
	FeatureFlags   []FeatureFlag `json:"featureFlags" yaml:"featureFlags"`
	Rollouts       []Rollout     `json:"rollouts" yaml:"rollouts"`
	Audiences      []Audience    `json:"audiences" yaml:"audiences"`
	TypedAudiences []Audience    `json:"typedAudiences,omitempty" yaml:"typedAudiences,omitempty"`
	Attributes     []Attribute   `json:"attributes" yaml:"attributes"`
	Holdouts       []Holdout     `json:"holdouts,omitempty" yaml:"holdouts,omitempty"`
}

type Experiment struct {
	ID                 string            `json:"id" yaml:"id"`
	Key                string            `json:"key" yaml:"key"`
	Status             string            `json:"status" yaml:"status"`
	LayerID            string            `json:"layerId,omitempty" yaml:"layerId,omitempty"`
	AudienceIDs        []string          `json:"audienceIds" yaml:"audienceIds"`
	AudienceConditions any               `json:"audienceConditions,omitempty" yaml:"audienceConditions,omitempty"`
	Variations         []Variation       `json:"variations" yaml:"variations"`
	TrafficAllocation  []entities.Range  `json:"trafficAllocation" yaml:"trafficAllocation"`
	ForcedVariations   map[string]string `json:"forcedVariations,omitempty" yaml:"forcedVariations,omitempty"`
	Cmab               *Cmab             `json:"cmab,omitempty" yaml:"cmab,omitempty"`
}

type Variation struct {
	ID             string          `json:"id" yaml:"id"`
	Key            string          `json:"key" yaml:"key"`
	FeatureEnabled bool            `json:"featureEnabled" yaml:"featureEnabled"`
	Variables      []VariableValue `json:"variables,omitempty" yaml:"variables,omitempty"`
}

type VariableValue struct {
	ID    string `json:"id" yaml:"id"`
	Value string `json:"value" yaml:"value"`
}

type Cmab struct {
	AttributeIDs      []string `json:"attributeIds" yaml:"attributeIds"`
	TrafficAllocation int      `json:"trafficAllocation" yaml:"trafficAllocation"`
}

type Group struct {
	ID                string           `json:"id" yaml:"id"`
	Policy            string           `json:"policy" yaml:"policy"`
	TrafficAllocation []entities.Range `json:"trafficAllocation" yaml:"trafficAllocation"`
	Experiments       []Experiment     `json:"experiments" yaml:"experiments"`
}

type FeatureFlag struct {
	ID            string     `json:"id" yaml:"id"`
	Key           string     `json:"key" yaml:"key"`
	RolloutID     string     `json:"rolloutId" yaml:"rolloutId"`
	ExperimentIDs []string   `json:"experimentIds" yaml:"experimentIds"`
	Variables     []Variable `json:"variables" yaml:"variables"`
}

type Variable struct {
	ID           string `json:"id" yaml:"id"`
	Key          string `json:"key" yaml:"key"`
	Type         string `json:"type" yaml:"type"`
	SubType      string `json:"subType,omitempty" yaml:"subType,omitempty"`
	DefaultValue string `json:"defaultValue" yaml:"defaultValue"`
}

type Rollout struct {
	ID          string       `json:"id" yaml:"id"`
	Experiments []Experiment `json:"experiments" yaml:"experiments"`
}

// Audience conditions are a JSON string in legacy audiences and a decoded
// tree in typed audiences.
type Audience struct {
	ID         string `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	Conditions any    `json:"conditions" yaml:"conditions"`
}

type Attribute struct {
	ID  string `json:"id" yaml:"id"`
	Key string `json:"key" yaml:"key"`
}

type Holdout struct {
	ID                 string           `json:"id" yaml:"id"`
	Key                string           `json:"key" yaml:"key"`
	Status             string           `json:"status" yaml:"status"`
	AudienceIDs        []string         `json:"audienceIds" yaml:"audienceIds"`
	AudienceConditions any              `json:"audienceConditions,omitempty" yaml:"audienceConditions,omitempty"`
	Variations         []Variation      `json:"variations" yaml:"variations"`
	TrafficAllocation  []entities.Range `json:"trafficAllocation" yaml:"trafficAllocation"`
	IncludedFlags      []string         `json:"includedFlags,omitempty" yaml:"includedFlags,omitempty"`
	ExcludedFlags      []string         `json:"excludedFlags,omitempty" yaml:"excludedFlags,omitempty"`
}
