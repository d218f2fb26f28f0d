package bucketing

import (
	"log/slog"

	"github.com/dmitrymomot/flagkit/pkg/audience"
	"github.com/dmitrymomot/flagkit/pkg/decide"
	"github.com/dmitrymomot/flagkit/pkg/entities"
	"github.com/dmitrymomot/flagkit/pkg/logger"
)

// BucketingIDAttribute is the reserved attribute that overrides the user id
// as the bucketing key.
const BucketingIDAttribute = "$opt_bucketing_id"

// GroupSource resolves mutual-exclusion groups.
type GroupSource interface {
	GroupByID(id string) (*entities.Group, bool)
}

// Bucketer assigns users to group members, variations and holdouts.
// It is stateless and safe for concurrent use.
type Bucketer struct {
	bucketValue func(key string) int
	logger      *slog.Logger
}

// Option configures a Bucketer.
type Option func(*Bucketer)

// WithBucketFunc replaces the hash primitive. Intended for tests that need
// to land on exact range boundaries.
func WithBucketFunc(fn func(key string) int) Option {
	return func(b *Bucketer) {
		if fn != nil {
			b.bucketValue = fn
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bucketer) {
		if l != nil {
			b.logger = l
		}
	}
}

// New creates a Bucketer using BucketValue.
func New(opts ...Option) *Bucketer {
	b := &Bucketer{bucketValue: BucketValue, logger: slog.Default()}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With(logger.Component("bucketing"))
	return b
}

// Bucket assigns the user to a variation of exp. A nil variation is the empty
// result: the user landed outside every range, outside the experiment's slot
// in its group, or on a range pointing at an unknown variation.
func (b *Bucketer) Bucket(groups GroupSource, exp *entities.Experiment, bucketingID, userID string) (*entities.Variation, *decide.Reasons) {
	reasons := decide.NewDetailedReasons()
	if exp == nil {
		return nil, reasons
	}

	if exp.GroupID != "" && groups != nil {
		if group, ok := groups.GroupByID(exp.GroupID); ok && group.Policy == entities.PolicyRandom {
			bucket := b.bucketValue(bucketingID + group.ID)
			memberID, found := FindEntity(group.TrafficAllocation, bucket)
			if !found {
				msg := reasons.AddInfo("User [%s] is not in any experiment of group [%s].", userID, group.ID)
				b.logger.Info(msg, logger.UserID(userID))
				return nil, reasons
			}
			if memberID != exp.ID {
				msg := reasons.AddInfo("User [%s] is not in experiment [%s] of group [%s].", userID, exp.Key, group.ID)
				b.logger.Info(msg, logger.UserID(userID))
				return nil, reasons
			}
			reasons.AddInfo("User [%s] is in experiment [%s] of group [%s].", userID, exp.Key, group.ID)
		}
	}

	bucket := b.bucketValue(bucketingID + exp.ID)
	variationID, found := FindEntity(exp.TrafficAllocation, bucket)
	if !found {
		msg := reasons.AddInfo("User [%s] is in no variation of experiment [%s].", userID, exp.Key)
		b.logger.Info(msg, logger.UserID(userID), logger.ExperimentKey(exp.Key))
		return nil, reasons
	}

	variation, ok := exp.VariationByID(variationID)
	if !ok {
		msg := reasons.AddInfo("User [%s] is in no variation of experiment [%s].", userID, exp.Key)
		b.logger.Warn("traffic allocation references an unknown variation",
			slog.String("variation_id", variationID), logger.ExperimentKey(exp.Key))
		b.logger.Info(msg, logger.UserID(userID), logger.ExperimentKey(exp.Key))
		return nil, reasons
	}

	reasons.AddInfo("User [%s] is in variation [%s] of experiment [%s].", userID, variation.Key, exp.Key)
	return &variation, reasons
}

// BucketHoldout assigns the user to a variation of the holdout. Holdouts have
// no group semantics. A holdout without a key or without variations yields
// the empty result.
func (b *Bucketer) BucketHoldout(h *entities.Holdout, bucketingID, userID string) (*entities.Variation, *decide.Reasons) {
	reasons := decide.NewDetailedReasons()
	if h == nil || h.Key == "" || len(h.Variations) == 0 {
		return nil, reasons
	}

	bucket := b.bucketValue(bucketingID + h.ID)
	variationID, found := FindEntity(h.TrafficAllocation, bucket)
	if !found {
		msg := reasons.AddInfo("User [%s] is in no variation of holdout [%s].", userID, h.Key)
		b.logger.Info(msg, logger.UserID(userID))
		return nil, reasons
	}

	variation, ok := h.Variations[variationID]
	if !ok {
		msg := reasons.AddInfo("User [%s] is in no variation of holdout [%s].", userID, h.Key)
		b.logger.Info(msg, logger.UserID(userID))
		return nil, reasons
	}

	reasons.AddInfo("User [%s] is in variation [%s] of holdout [%s].", userID, variation.Key, h.Key)
	return &variation, reasons
}

// BucketToEntity buckets bucketingID+parentID into ranges and returns the
// matched entity id.
func (b *Bucketer) BucketToEntity(bucketingID, parentID string, ranges []entities.Range) (string, bool) {
	return FindEntity(ranges, b.bucketValue(bucketingID+parentID))
}

// BucketingID returns the key users are bucketed by: the reserved
// $opt_bucketing_id attribute when it is a string (the empty string
// included), otherwise userID.
func BucketingID(userID string, attrs audience.Attributes, reasons *decide.Reasons) string {
	v, ok := attrs.Lookup(BucketingIDAttribute)
	if !ok {
		return userID
	}
	if id, isString := v.AsString(); isString {
		return id
	}
	reasons.AddInfo("Bucketing ID attribute is not a string. Defaulted to user ID [%s].", userID)
	return userID
}
