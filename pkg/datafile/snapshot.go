package datafile

import (
	"fmt"
	"slices"

	"github.com/dmitrymomot/flagkit/pkg/audience"
	"github.com/dmitrymomot/flagkit/pkg/bucketing"
	"github.com/dmitrymomot/flagkit/pkg/entities"
)

// Snapshot is an immutable, flat id/key-indexed view of one datafile
// revision. All cross references are resolved on demand by id. A snapshot is
// never mutated after Build returns, so it may be shared across goroutines.
type Snapshot struct {
	revision  string
	projectID string
	accountID string

	experimentsByID  map[string]*entities.Experiment
	experimentsByKey map[string]*entities.Experiment
	groups           map[string]*entities.Group
	features         []*entities.Feature
	featuresByKey    map[string]*entities.Feature
	rollouts         map[string]*entities.Rollout
	audiences        map[string]*audience.Audience
	attributesByID   map[string]entities.Attribute
	attributesByKey  map[string]entities.Attribute

	globalHoldouts   []*entities.Holdout
	includedHoldouts map[string][]*entities.Holdout // by flag id
	excludedHoldouts map[string]map[string]bool    // holdout id -> flag id

	// flagVariations maps flag key to every variation reachable from the
	// flag's experiments and rollout rules, by variation key.
	flagVariations map[string]map[string]entities.Variation
}

// Build indexes a decoded datafile.
func Build(df *Datafile) (*Snapshot, error) {
	if df == nil {
		return nil, fmt.Errorf("%w: nil datafile", ErrInvalidDatafile)
	}
	if df.Version != "" && !supportedVersions[df.Version] {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedVersion, df.Version)
	}

	s := &Snapshot{
		revision:         df.Revision,
		projectID:        df.ProjectID,
		accountID:        df.AccountID,
		experimentsByID:  make(map[string]*entities.Experiment),
		experimentsByKey: make(map[string]*entities.Experiment),
		groups:           make(map[string]*entities.Group, len(df.Groups)),
		featuresByKey:    make(map[string]*entities.Feature, len(df.FeatureFlags)),
		rollouts:         make(map[string]*entities.Rollout, len(df.Rollouts)),
		audiences:        make(map[string]*audience.Audience),
		attributesByID:   make(map[string]entities.Attribute, len(df.Attributes)),
		attributesByKey:  make(map[string]entities.Attribute, len(df.Attributes)),
		includedHoldouts: make(map[string][]*entities.Holdout),
		excludedHoldouts: make(map[string]map[string]bool),
		flagVariations:   make(map[string]map[string]entities.Variation),
	}

	if err := s.indexAudiences(df); err != nil {
		return nil, err
	}
	for _, a := range df.Attributes {
		attr := entities.Attribute{ID: a.ID, Key: a.Key}
		s.attributesByID[a.ID] = attr
		s.attributesByKey[a.Key] = attr
	}

	for _, raw := range df.Experiments {
		exp, err := buildExperiment(raw, "")
		if err != nil {
			return nil, err
		}
		s.addExperiment(exp)
	}

	for _, g := range df.Groups {
		if err := bucketing.ValidateRanges(g.TrafficAllocation); err != nil {
			return nil, fmt.Errorf("group %s: %w", g.ID, err)
		}
		group := &entities.Group{
			ID:                g.ID,
			Policy:            entities.GroupPolicy(g.Policy),
			TrafficAllocation: slices.Clone(g.TrafficAllocation),
		}
		for _, raw := range g.Experiments {
			exp, err := buildExperiment(raw, g.ID)
			if err != nil {
				return nil, err
			}
			s.addExperiment(exp)
			group.ExperimentIDs = append(group.ExperimentIDs, exp.ID)
		}
		s.groups[g.ID] = group
	}

	for _, r := range df.Rollouts {
		rollout := &entities.Rollout{ID: r.ID}
		for _, raw := range r.Experiments {
			rule, err := buildExperiment(raw, "")
			if err != nil {
				return nil, err
			}
			rollout.Experiments = append(rollout.Experiments, *rule)
		}
		s.rollouts[r.ID] = rollout
	}

	for _, f := range df.FeatureFlags {
		feature := buildFeature(f)
		s.features = append(s.features, feature)
		s.featuresByKey[f.Key] = feature

		variations := make(map[string]entities.Variation)
		for _, id := range f.ExperimentIDs {
			exp, ok := s.experimentsByID[id]
			if !ok {
				continue
			}
			exp.IsFeatureExperiment = true
			for _, v := range exp.Variations {
				variations[v.Key] = v
			}
		}
		if rollout, ok := s.rollouts[f.RolloutID]; ok {
			for _, rule := range rollout.Experiments {
				for _, v := range rule.Variations {
					variations[v.Key] = v
				}
			}
		}
		s.flagVariations[f.Key] = variations
	}

	for _, raw := range df.Holdouts {
		h, err := buildHoldout(raw)
		if err != nil {
			return nil, err
		}
		if h.IsGlobal() {
			s.globalHoldouts = append(s.globalHoldouts, h)
		}
		for _, flagID := range h.IncludedFlags {
			s.includedHoldouts[flagID] = append(s.includedHoldouts[flagID], h)
		}
		if len(h.ExcludedFlags) > 0 {
			excluded := make(map[string]bool, len(h.ExcludedFlags))
			for _, flagID := range h.ExcludedFlags {
				excluded[flagID] = true
			}
			s.excludedHoldouts[h.ID] = excluded
		}
	}

	return s, nil
}

func (s *Snapshot) indexAudiences(df *Datafile) error {
	// Typed audiences come second so they replace legacy ones with the same id.
	for _, list := range [][]Audience{df.Audiences, df.TypedAudiences} {
		for _, a := range list {
			tree, err := audience.ParseConditions(a.Conditions)
			if err != nil {
				return fmt.Errorf("%w: audience %s: %w", ErrInvalidDatafile, a.ID, err)
			}
			s.audiences[a.ID] = &audience.Audience{ID: a.ID, Name: a.Name, Conditions: tree}
		}
	}
	return nil
}

func (s *Snapshot) addExperiment(exp *entities.Experiment) {
	s.experimentsByID[exp.ID] = exp
	s.experimentsByKey[exp.Key] = exp
}

func buildVariations(raw []Variation) (map[string]entities.Variation, []string, map[string]string) {
	byID := make(map[string]entities.Variation, len(raw))
	order := make([]string, 0, len(raw))
	keyToID := make(map[string]string, len(raw))
	for _, v := range raw {
		variation := entities.Variation{ID: v.ID, Key: v.Key, FeatureEnabled: v.FeatureEnabled}
		if len(v.Variables) > 0 {
			variation.Variables = make(map[string]string, len(v.Variables))
			for _, vv := range v.Variables {
				variation.Variables[vv.ID] = vv.Value
			}
		}
		byID[v.ID] = variation
		order = append(order, v.ID)
		keyToID[v.Key] = v.ID
	}
	return byID, order, keyToID
}

func buildConditionTree(ids []string, conditions any) (*audience.Tree, error) {
	if conditions != nil {
		return audience.ParseAudienceConditions(conditions)
	}
	return audience.OrAudiences(ids), nil
}

func buildExperiment(raw Experiment, groupID string) (*entities.Experiment, error) {
	if err := bucketing.ValidateRanges(raw.TrafficAllocation); err != nil {
		return nil, fmt.Errorf("experiment %s: %w", raw.Key, err)
	}
	tree, err := buildConditionTree(raw.AudienceIDs, raw.AudienceConditions)
	if err != nil {
		return nil, fmt.Errorf("%w: experiment %s: %w", ErrInvalidDatafile, raw.Key, err)
	}

	variations, order, keyToID := buildVariations(raw.Variations)
	exp := &entities.Experiment{
		ID:                    raw.ID,
		Key:                   raw.Key,
		LayerID:               raw.LayerID,
		Status:                entities.Status(raw.Status),
		GroupID:               groupID,
		Variations:            variations,
		VariationOrder:        order,
		VariationKeyToID:      keyToID,
		TrafficAllocation:     slices.Clone(raw.TrafficAllocation),
		AudienceIDs:           slices.Clone(raw.AudienceIDs),
		AudienceConditionTree: tree,
		Whitelist:             raw.ForcedVariations,
	}
	if raw.Cmab != nil {
		exp.Cmab = &entities.Cmab{
			AttributeIDs:      slices.Clone(raw.Cmab.AttributeIDs),
			TrafficAllocation: raw.Cmab.TrafficAllocation,
		}
	}
	return exp, nil
}

func buildHoldout(raw Holdout) (*entities.Holdout, error) {
	if err := bucketing.ValidateRanges(raw.TrafficAllocation); err != nil {
		return nil, fmt.Errorf("holdout %s: %w", raw.Key, err)
	}
	tree, err := buildConditionTree(raw.AudienceIDs, raw.AudienceConditions)
	if err != nil {
		return nil, fmt.Errorf("%w: holdout %s: %w", ErrInvalidDatafile, raw.Key, err)
	}
	variations, order, _ := buildVariations(raw.Variations)
	return &entities.Holdout{
		ID:                    raw.ID,
		Key:                   raw.Key,
		Status:                entities.Status(raw.Status),
		Variations:            variations,
		VariationOrder:        order,
		TrafficAllocation:     slices.Clone(raw.TrafficAllocation),
		AudienceIDs:           slices.Clone(raw.AudienceIDs),
		AudienceConditionTree: tree,
		IncludedFlags:         slices.Clone(raw.IncludedFlags),
		ExcludedFlags:         slices.Clone(raw.ExcludedFlags),
	}, nil
}

func buildFeature(raw FeatureFlag) *entities.Feature {
	f := &entities.Feature{
		ID:            raw.ID,
		Key:           raw.Key,
		RolloutID:     raw.RolloutID,
		ExperimentIDs: slices.Clone(raw.ExperimentIDs),
	}
	for _, v := range raw.Variables {
		typ := entities.VariableType(v.Type)
		if typ == entities.VariableString && v.SubType == string(entities.VariableJSON) {
			typ = entities.VariableJSON
		}
		f.Variables = append(f.Variables, entities.Variable{
			ID:           v.ID,
			Key:          v.Key,
			Type:         typ,
			DefaultValue: v.DefaultValue,
		})
	}
	return f
}

// Revision returns the datafile revision.
func (s *Snapshot) Revision() string { return s.revision }

// ProjectID returns the datafile project id.
func (s *Snapshot) ProjectID() string { return s.projectID }

// AccountID returns the datafile account id.
func (s *Snapshot) AccountID() string { return s.accountID }

func (s *Snapshot) ExperimentByID(id string) (*entities.Experiment, bool) {
	e, ok := s.experimentsByID[id]
	return e, ok
}

func (s *Snapshot) ExperimentByKey(key string) (*entities.Experiment, bool) {
	e, ok := s.experimentsByKey[key]
	return e, ok
}

func (s *Snapshot) GroupByID(id string) (*entities.Group, bool) {
	g, ok := s.groups[id]
	return g, ok
}

func (s *Snapshot) FeatureByKey(key string) (*entities.Feature, bool) {
	f, ok := s.featuresByKey[key]
	return f, ok
}

// Features returns every flag in datafile order.
func (s *Snapshot) Features() []*entities.Feature {
	return slices.Clone(s.features)
}

func (s *Snapshot) RolloutByID(id string) (*entities.Rollout, bool) {
	r, ok := s.rollouts[id]
	return r, ok
}

func (s *Snapshot) AudienceByID(id string) (*audience.Audience, bool) {
	a, ok := s.audiences[id]
	return a, ok
}

func (s *Snapshot) AttributeByID(id string) (entities.Attribute, bool) {
	a, ok := s.attributesByID[id]
	return a, ok
}

func (s *Snapshot) AttributeByKey(key string) (entities.Attribute, bool) {
	a, ok := s.attributesByKey[key]
	return a, ok
}

// HoldoutsForFlag returns the holdouts applying to flagID in evaluation
// order: global holdouts not excluding the flag, then holdouts that list it.
func (s *Snapshot) HoldoutsForFlag(flagID string) []*entities.Holdout {
	var out []*entities.Holdout
	for _, h := range s.globalHoldouts {
		if s.excludedHoldouts[h.ID][flagID] {
			continue
		}
		out = append(out, h)
	}
	return append(out, s.includedHoldouts[flagID]...)
}

// FlagVariationByKey finds a variation of a flag's experiments or rollout
// rules by key.
func (s *Snapshot) FlagVariationByKey(flagKey, variationKey string) (*entities.Variation, bool) {
	v, ok := s.flagVariations[flagKey][variationKey]
	if !ok {
		return nil, false
	}
	return &v, true
}
