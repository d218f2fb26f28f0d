package decision

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmitrymomot/flagkit/pkg/audience"
	"github.com/dmitrymomot/flagkit/pkg/bucketing"
	"github.com/dmitrymomot/flagkit/pkg/cmab"
	"github.com/dmitrymomot/flagkit/pkg/decide"
	"github.com/dmitrymomot/flagkit/pkg/entities"
	"github.com/dmitrymomot/flagkit/pkg/forced"
	"github.com/dmitrymomot/flagkit/pkg/logger"
	"github.com/dmitrymomot/flagkit/pkg/metrics"
	"github.com/dmitrymomot/flagkit/pkg/profile"
)

// Config is the read-only view of a configuration snapshot the service needs.
type Config interface {
	audience.AudienceMap
	bucketing.GroupSource
	forced.VariationLookup
	cmab.ConfigSource
	RolloutByID(id string) (*entities.Rollout, bool)
	HoldoutsForFlag(flagID string) []*entities.Holdout
}

// CmabDecider resolves contextual-bandit rules.
type CmabDecider interface {
	GetDecision(ctx context.Context, cfg cmab.ConfigSource, userID string, attrs audience.Attributes, ruleID string, opts decide.Options) (cmab.Decision, error)
}

// User is the subject of a decision.
type User struct {
	ID         string
	Attributes audience.Attributes
	// Forced holds the user's forced decisions. May be nil.
	Forced *forced.Store
}

// Service resolves experiments and feature flags. It keeps no per-call
// state and is safe for concurrent use.
type Service struct {
	bucketer  *bucketing.Bucketer
	evaluator *audience.Evaluator
	cmab      CmabDecider
	profiles  profile.Store
	logger    *slog.Logger
	metrics   *metrics.Collector
}

// Option configures a Service.
type Option func(*Service)

func WithCmabService(c CmabDecider) Option {
	return func(s *Service) {
		s.cmab = c
	}
}

// WithProfileStore enables sticky bucketing through store.
func WithProfileStore(store profile.Store) Option {
	return func(s *Service) {
		s.profiles = store
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithMetrics(c *metrics.Collector) Option {
	return func(s *Service) {
		s.metrics = c
	}
}

// New creates a Service. Nil collaborators fall back to defaults.
func New(bucketer *bucketing.Bucketer, evaluator *audience.Evaluator, opts ...Option) *Service {
	s := &Service{
		bucketer:  bucketer,
		evaluator: evaluator,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.bucketer == nil {
		s.bucketer = bucketing.New(bucketing.WithLogger(s.logger))
	}
	if s.evaluator == nil {
		s.evaluator = audience.NewEvaluator(audience.WithLogger(s.logger))
	}
	s.logger = s.logger.With(logger.Component("decision"))
	return s
}

// GetVariation resolves a single experiment for user. It returns the
// variation (nil when the user is not in the experiment), the cmab UUID for
// contextual-bandit experiments, and the reasons.
func (s *Service) GetVariation(ctx context.Context, cfg Config, exp *entities.Experiment, user User, opts decide.Options) (*entities.Variation, string, *decide.Reasons) {
	reasons := decide.NewReasons(opts)
	if exp == nil {
		return nil, "", reasons
	}
	tracker := s.loadProfile(ctx, user.ID, opts)
	variation, cmabUUID := s.experimentVariation(ctx, cfg, exp, user, opts, tracker, reasons)
	s.saveProfile(ctx, tracker)
	return variation, cmabUUID, reasons
}

// GetVariationForFeature resolves one feature flag for user.
func (s *Service) GetVariationForFeature(ctx context.Context, cfg Config, feature *entities.Feature, user User, opts decide.Options) (FeatureDecision, *decide.Reasons) {
	reasons := decide.NewReasons(opts)
	if feature == nil {
		return FeatureDecision{Source: SourceRollout}, reasons
	}
	tracker := s.loadProfile(ctx, user.ID, opts)
	decision := s.featureDecision(ctx, cfg, feature, user, opts, tracker, reasons)
	s.saveProfile(ctx, tracker)
	return decision, reasons
}

// GetDecisionsForFlags resolves several flags for one user, loading and
// saving the user's profile once. Results are in the order of features.
func (s *Service) GetDecisionsForFlags(ctx context.Context, cfg Config, features []*entities.Feature, user User, opts decide.Options) ([]FeatureDecision, []*decide.Reasons) {
	decisions := make([]FeatureDecision, len(features))
	allReasons := make([]*decide.Reasons, len(features))

	tracker := s.loadProfile(ctx, user.ID, opts)
	for i, feature := range features {
		reasons := decide.NewReasons(opts)
		allReasons[i] = reasons
		if feature == nil {
			decisions[i] = FeatureDecision{Source: SourceRollout}
			continue
		}
		decisions[i] = s.featureDecision(ctx, cfg, feature, user, opts, tracker, reasons)
	}
	s.saveProfile(ctx, tracker)
	return decisions, allReasons
}

func (s *Service) featureDecision(ctx context.Context, cfg Config, feature *entities.Feature, user User, opts decide.Options, tracker *profile.Tracker, reasons *decide.Reasons) FeatureDecision {
	start := time.Now()
	decision := s.resolveFeature(ctx, cfg, feature, user, opts, tracker, reasons)
	s.metrics.ObserveDecision(string(decision.Source), time.Since(start))
	s.logger.DebugContext(ctx, "feature decision",
		logger.FlagKey(feature.Key),
		logger.UserID(user.ID),
		logger.Source(string(decision.Source)),
		logger.RuleKey(decision.RuleKey()),
		slog.Bool("enabled", decision.Enabled()),
	)
	return decision
}

func (s *Service) loadProfile(ctx context.Context, userID string, opts decide.Options) *profile.Tracker {
	if s.profiles == nil || opts.IgnoreUserProfileService {
		return nil
	}
	tracker := profile.NewTracker(s.profiles, userID)
	if err := tracker.Load(ctx); err != nil {
		s.metrics.ProfileStoreFailed("lookup")
		s.logger.WarnContext(ctx, "user profile lookup failed, continuing without it",
			logger.UserID(userID), logger.Error(err))
	}
	return tracker
}

func (s *Service) saveProfile(ctx context.Context, tracker *profile.Tracker) {
	if err := tracker.SaveIfChanged(ctx); err != nil {
		s.metrics.ProfileStoreFailed("save")
		s.logger.WarnContext(ctx, "user profile save failed", logger.Error(err))
	}
}
