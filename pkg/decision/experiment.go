package decision

import (
	"context"

	"github.com/dmitrymomot/flagkit/pkg/bucketing"
	"github.com/dmitrymomot/flagkit/pkg/decide"
	"github.com/dmitrymomot/flagkit/pkg/entities"
	"github.com/dmitrymomot/flagkit/pkg/logger"
	"github.com/dmitrymomot/flagkit/pkg/profile"
)

// cmabTrafficEntity is the placeholder entity of the single range used to
// check a contextual-bandit rule's traffic allocation.
const cmabTrafficEntity = "$cmab"

func (s *Service) experimentVariation(ctx context.Context, cfg Config, exp *entities.Experiment, user User, opts decide.Options, tracker *profile.Tracker, reasons *decide.Reasons) (*entities.Variation, string) {
	if !exp.IsRunning() {
		msg := reasons.AddInfo("Experiment [%s] is not running.", exp.Key)
		s.logger.DebugContext(ctx, msg, logger.ExperimentKey(exp.Key))
		return nil, ""
	}

	if v := s.whitelistedVariation(exp, user.ID, reasons); v != nil {
		return v, ""
	}

	// Contextual-bandit rules neither read nor write the user profile.
	if exp.Cmab == nil {
		if v := s.savedVariation(ctx, exp, user.ID, tracker, reasons); v != nil {
			return v, ""
		}
	}

	if !s.evaluator.Gate(ctx, "experiment", exp.Key, exp.AudienceConditionTree, user.Attributes, cfg, reasons) {
		msg := reasons.AddInfo("User [%s] does not meet conditions to be in experiment [%s].", user.ID, exp.Key)
		s.logger.DebugContext(ctx, msg, logger.UserID(user.ID))
		return nil, ""
	}

	bucketingID := bucketing.BucketingID(user.ID, user.Attributes, reasons)

	if exp.Cmab != nil {
		return s.cmabVariation(ctx, cfg, exp, user, bucketingID, opts, reasons)
	}

	variation, bucketReasons := s.bucketer.Bucket(cfg, exp, bucketingID, user.ID)
	reasons.Append(bucketReasons)
	if variation != nil {
		tracker.Update(exp.ID, variation.ID)
	}
	return variation, ""
}

func (s *Service) whitelistedVariation(exp *entities.Experiment, userID string, reasons *decide.Reasons) *entities.Variation {
	key, ok := exp.Whitelist[userID]
	if !ok {
		return nil
	}
	v, found := exp.VariationByKey(key)
	if !found {
		reasons.AddError("Variation [%s] forced for user [%s] is not in experiment [%s].", key, userID, exp.Key)
		return nil
	}
	reasons.AddInfo("User [%s] is forced in variation [%s] of experiment [%s].", userID, key, exp.Key)
	return &v
}

func (s *Service) savedVariation(ctx context.Context, exp *entities.Experiment, userID string, tracker *profile.Tracker, reasons *decide.Reasons) *entities.Variation {
	variationID, ok := tracker.VariationID(exp.ID)
	if !ok {
		return nil
	}
	v, found := exp.VariationByID(variationID)
	if !found {
		msg := reasons.AddInfo("User [%s] was previously bucketed into variation with ID [%s] for experiment [%s], but no matching variation was found. Re-bucketing user.", userID, variationID, exp.Key)
		s.logger.InfoContext(ctx, msg, logger.UserID(userID))
		return nil
	}
	reasons.AddInfo("Returning previously activated variation [%s] of experiment [%s] for user [%s] from user profile.", v.Key, exp.Key, userID)
	return &v
}

func (s *Service) cmabVariation(ctx context.Context, cfg Config, exp *entities.Experiment, user User, bucketingID string, opts decide.Options, reasons *decide.Reasons) (*entities.Variation, string) {
	if exp.GroupID != "" {
		if group, ok := cfg.GroupByID(exp.GroupID); ok && group.Policy == entities.PolicyRandom {
			memberID, found := s.bucketer.BucketToEntity(bucketingID, group.ID, group.TrafficAllocation)
			if !found || memberID != exp.ID {
				reasons.AddInfo("User [%s] is not in experiment [%s] of group [%s].", user.ID, exp.Key, group.ID)
				return nil, ""
			}
		}
	}

	traffic := []entities.Range{{EntityID: cmabTrafficEntity, EndOfRange: exp.Cmab.TrafficAllocation}}
	if _, in := s.bucketer.BucketToEntity(bucketingID, exp.ID, traffic); !in {
		reasons.AddInfo("User [%s] not in CMAB experiment [%s] due to traffic allocation.", user.ID, exp.Key)
		return nil, ""
	}

	if s.cmab == nil {
		msg := reasons.AddError("Failed to fetch CMAB data for experiment [%s].", exp.Key)
		s.logger.WarnContext(ctx, msg, logger.ExperimentKey(exp.Key))
		return nil, ""
	}

	decision, err := s.cmab.GetDecision(ctx, cfg, user.ID, user.Attributes, exp.ID, opts)
	if err != nil {
		msg := reasons.AddError("Failed to fetch CMAB data for experiment [%s].", exp.Key)
		s.logger.WarnContext(ctx, msg, logger.ExperimentKey(exp.Key), logger.UserID(user.ID), logger.Error(err))
		return nil, ""
	}

	v, found := exp.VariationByID(decision.VariationID)
	if !found {
		reasons.AddInfo("User [%s] is in no variation of experiment [%s].", user.ID, exp.Key)
		s.logger.WarnContext(ctx, "cmab returned an unknown variation",
			logger.ExperimentKey(exp.Key), logger.VariationKey(decision.VariationID))
		return nil, ""
	}
	reasons.AddInfo("User [%s] is in variation [%s] of experiment [%s].", user.ID, v.Key, exp.Key)
	return &v, decision.CmabUUID
}
