package decision

import (
	"context"

	"github.com/dmitrymomot/flagkit/pkg/bucketing"
	"github.com/dmitrymomot/flagkit/pkg/decide"
	"github.com/dmitrymomot/flagkit/pkg/entities"
	"github.com/dmitrymomot/flagkit/pkg/forced"
	"github.com/dmitrymomot/flagkit/pkg/logger"
	"github.com/dmitrymomot/flagkit/pkg/profile"
)

// resolveFeature runs the flag chain. A flag-level forced decision applies
// only when none of the flag's rules carries a forced decision that
// resolves; rule-scoped entries take effect inside the rule loops.
func (s *Service) resolveFeature(ctx context.Context, cfg Config, feature *entities.Feature, user User, opts decide.Options, tracker *profile.Tracker, reasons *decide.Reasons) FeatureDecision {
	if !s.ruleForcedResolves(cfg, feature, user) {
		if v := s.forcedVariation(cfg, forced.Context{FlagKey: feature.Key}, user, reasons); v != nil {
			return FeatureDecision{Variation: v, Source: SourceFeatureTest}
		}
	}

	if d, ok := s.featureExperimentDecision(ctx, cfg, feature, user, opts, tracker, reasons); ok {
		return d
	}

	if d, ok := s.holdoutDecision(ctx, cfg, feature, user, reasons); ok {
		return d
	}

	return s.rolloutDecision(ctx, cfg, feature, user, reasons)
}

func (s *Service) forcedVariation(cfg Config, fctx forced.Context, user User, reasons *decide.Reasons) *entities.Variation {
	if user.Forced == nil {
		return nil
	}
	v, forcedReasons := user.Forced.Resolve(cfg, fctx, user.ID)
	reasons.Append(forcedReasons)
	return v
}

func (s *Service) ruleForcedResolves(cfg Config, feature *entities.Feature, user User) bool {
	if user.Forced == nil || user.Forced.Len() == 0 {
		return false
	}
	resolves := func(ruleKey string) bool {
		return user.Forced.Resolves(cfg, forced.Context{FlagKey: feature.Key, RuleKey: ruleKey})
	}
	for _, id := range feature.ExperimentIDs {
		if exp, ok := cfg.ExperimentByID(id); ok && resolves(exp.Key) {
			return true
		}
	}
	if feature.RolloutID == "" {
		return false
	}
	rollout, ok := cfg.RolloutByID(feature.RolloutID)
	if !ok {
		return false
	}
	for i := range rollout.Experiments {
		if resolves(rollout.Experiments[i].Key) {
			return true
		}
	}
	return false
}

func (s *Service) featureExperimentDecision(ctx context.Context, cfg Config, feature *entities.Feature, user User, opts decide.Options, tracker *profile.Tracker, reasons *decide.Reasons) (FeatureDecision, bool) {
	for _, id := range feature.ExperimentIDs {
		exp, ok := cfg.ExperimentByID(id)
		if !ok {
			s.logger.WarnContext(ctx, "feature references an unknown experiment",
				logger.FlagKey(feature.Key), logger.ExperimentKey(id))
			continue
		}

		if v := s.forcedVariation(cfg, forced.Context{FlagKey: feature.Key, RuleKey: exp.Key}, user, reasons); v != nil {
			return FeatureDecision{Experiment: exp, Variation: v, Source: SourceFeatureTest}, true
		}

		v, cmabUUID := s.experimentVariation(ctx, cfg, exp, user, opts, tracker, reasons)
		if v != nil {
			return FeatureDecision{Experiment: exp, Variation: v, Source: SourceFeatureTest, CmabUUID: cmabUUID}, true
		}
	}
	return FeatureDecision{}, false
}

func (s *Service) holdoutDecision(ctx context.Context, cfg Config, feature *entities.Feature, user User, reasons *decide.Reasons) (FeatureDecision, bool) {
	for _, h := range cfg.HoldoutsForFlag(feature.ID) {
		if !h.IsRunning() {
			reasons.AddInfo("Holdout [%s] is not running.", h.Key)
			continue
		}
		if !s.evaluator.Gate(ctx, "holdout", h.Key, h.AudienceConditionTree, user.Attributes, cfg, reasons) {
			reasons.AddInfo("User [%s] does not meet conditions for holdout [%s].", user.ID, h.Key)
			continue
		}

		bucketingID := bucketing.BucketingID(user.ID, user.Attributes, reasons)
		v, bucketReasons := s.bucketer.BucketHoldout(h, bucketingID, user.ID)
		reasons.Append(bucketReasons)
		if v != nil {
			s.logger.DebugContext(ctx, "user is held out", logger.UserID(user.ID), logger.FlagKey(feature.Key))
			return FeatureDecision{Holdout: h, Variation: v, Source: SourceHoldout}, true
		}
	}
	return FeatureDecision{}, false
}

func (s *Service) rolloutDecision(ctx context.Context, cfg Config, feature *entities.Feature, user User, reasons *decide.Reasons) FeatureDecision {
	off := FeatureDecision{Source: SourceRollout}
	if feature.RolloutID == "" {
		reasons.AddInfo("The feature flag [%s] is not used in a rollout.", feature.Key)
		return off
	}
	rollout, ok := cfg.RolloutByID(feature.RolloutID)
	if !ok {
		msg := reasons.AddError("Rollout with ID [%s] is not in the datafile.", feature.RolloutID)
		s.logger.WarnContext(ctx, msg, logger.FlagKey(feature.Key))
		return off
	}
	if len(rollout.Experiments) == 0 {
		reasons.AddInfo("Rollout [%s] has no rules.", rollout.ID)
		return off
	}

	bucketingID := bucketing.BucketingID(user.ID, user.Attributes, reasons)
	for i := range rollout.Experiments {
		rule := &rollout.Experiments[i]

		if v := s.forcedVariation(cfg, forced.Context{FlagKey: feature.Key, RuleKey: rule.Key}, user, reasons); v != nil {
			return FeatureDecision{Experiment: rule, Variation: v, Source: SourceRollout}
		}

		if !s.evaluator.Gate(ctx, "rule", rule.Key, rule.AudienceConditionTree, user.Attributes, cfg, reasons) {
			reasons.AddInfo("User [%s] does not meet conditions for targeting rule [%s].", user.ID, rule.Key)
			continue
		}
		reasons.AddInfo("User [%s] meets conditions for targeting rule [%s].", user.ID, rule.Key)

		v, bucketReasons := s.bucketer.Bucket(cfg, rule, bucketingID, user.ID)
		reasons.Append(bucketReasons)
		if v != nil {
			reasons.AddInfo("User [%s] is bucketed into a rollout for feature flag [%s].", user.ID, feature.Key)
			return FeatureDecision{Experiment: rule, Variation: v, Source: SourceRollout}
		}
		reasons.AddInfo("User [%s] is not bucketed into targeting rule [%s].", user.ID, rule.Key)
	}

	reasons.AddInfo("User [%s] is not bucketed into any of the targeting rules for feature flag [%s].", user.ID, feature.Key)
	return off
}
