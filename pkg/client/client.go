package client

import (
	"context"
	"errors"
	"log/slog"
	"maps"

	"github.com/dmitrymomot/flagkit/pkg/audience"
	"github.com/dmitrymomot/flagkit/pkg/bucketing"
	"github.com/dmitrymomot/flagkit/pkg/cache"
	"github.com/dmitrymomot/flagkit/pkg/cmab"
	"github.com/dmitrymomot/flagkit/pkg/datafile"
	"github.com/dmitrymomot/flagkit/pkg/decide"
	"github.com/dmitrymomot/flagkit/pkg/decision"
	"github.com/dmitrymomot/flagkit/pkg/entities"
	"github.com/dmitrymomot/flagkit/pkg/event"
	"github.com/dmitrymomot/flagkit/pkg/logger"
	"github.com/dmitrymomot/flagkit/pkg/metrics"
	"github.com/dmitrymomot/flagkit/pkg/notify"
	"github.com/dmitrymomot/flagkit/pkg/profile"
)

const serviceName = "flagkit"

// Client is the host-facing entry point of the decision engine. It is safe
// for concurrent use.
type Client struct {
	provider datafile.Provider
	cfg      Config

	logger       *slog.Logger
	profiles     profile.Store
	scorer       cmab.Scorer
	cmabCache    cache.Cache[string, cmab.CacheEntry]
	sink         event.Sink
	metrics      *metrics.Collector
	notifier     *notify.Broadcaster[notify.Decision]
	extraOptions []decide.Option

	defaults  decide.Options
	decisions *decision.Service
}

// New creates a Client reading configuration snapshots from provider.
func New(provider datafile.Provider, opts ...Option) (*Client, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}

	c := &Client{
		provider: provider,
		cfg:      DefaultConfig(),
		sink:     event.NoopSink{},
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = logger.New(
			logger.WithEnvironment(c.cfg.Env, serviceName),
			logger.WithLevelName(c.cfg.LogLevel),
		)
	}

	defaults, err := decide.TranslateOptions(c.cfg.DefaultDecideOptions)
	if err != nil {
		return nil, errors.Join(ErrInvalidOptions, err)
	}
	if defaults, err = defaults.Apply(c.extraOptions...); err != nil {
		return nil, errors.Join(ErrInvalidOptions, err)
	}
	c.defaults = defaults

	if c.scorer == nil {
		c.scorer = cmab.NewHTTPScorer(
			cmab.WithEndpoint(c.cfg.CmabEndpoint),
			cmab.WithTimeout(c.cfg.CmabTimeout),
		)
	}
	if c.cmabCache == nil {
		size := c.cfg.CmabCacheSize
		if size <= 0 {
			size = cmab.DefaultCacheSize
		}
		c.cmabCache = cache.NewLRUCache[string, cmab.CacheEntry](size, cache.WithTTL(c.cfg.CmabCacheTTL))
	}

	cmabService := cmab.NewService(c.scorer,
		cmab.WithCache(c.cmabCache),
		cmab.WithLogger(c.logger),
		cmab.WithMetrics(c.metrics),
	)

	serviceOpts := []decision.Option{
		decision.WithCmabService(cmabService),
		decision.WithLogger(c.logger),
		decision.WithMetrics(c.metrics),
	}
	if c.profiles != nil {
		serviceOpts = append(serviceOpts, decision.WithProfileStore(c.profiles))
	}
	c.decisions = decision.New(
		bucketing.New(bucketing.WithLogger(c.logger)),
		audience.NewEvaluator(audience.WithLogger(c.logger)),
		serviceOpts...,
	)

	c.logger = c.logger.With(logger.Component("client"))
	return c, nil
}

// CreateUserContext returns a context for userID. Attributes are copied.
func (c *Client) CreateUserContext(userID string, attrs map[string]any) *UserContext {
	return newUserContext(c, userID, attrs)
}

// GetVariation buckets userID into the experiment with experimentKey without
// sending an impression. An empty key means the user is in no variation.
func (c *Client) GetVariation(ctx context.Context, experimentKey, userID string, attrs map[string]any) (string, error) {
	v, _, err := c.experimentVariation(ctx, experimentKey, userID, attrs)
	if err != nil {
		return "", err
	}
	c.notifyExperiment(experimentKey, userID, attrs, v, false)
	if v == nil {
		return "", nil
	}
	return v.Key, nil
}

// Activate works like GetVariation and sends an impression when the user is
// bucketed.
func (c *Client) Activate(ctx context.Context, experimentKey, userID string, attrs map[string]any) (string, error) {
	v, ad, err := c.experimentVariation(ctx, experimentKey, userID, attrs)
	if err != nil {
		return "", err
	}
	if v == nil {
		c.notifyExperiment(experimentKey, userID, attrs, nil, false)
		return "", nil
	}

	imp := event.NewImpression(userID, attrs)
	imp.ProjectID = ad.cfg.ProjectID()
	imp.Revision = ad.cfg.Revision()
	imp.RuleKey = ad.exp.Key
	imp.RuleType = event.RuleExperiment
	imp.ExperimentID = ad.exp.ID
	imp.VariationKey = v.Key
	imp.VariationID = v.ID
	imp.Enabled = v.FeatureEnabled
	imp.CmabUUID = ad.cmabUUID
	c.send(ctx, imp)
	c.notifyExperiment(experimentKey, userID, attrs, v, true)

	return v.Key, nil
}

func (c *Client) notifyExperiment(experimentKey, userID string, attrs map[string]any, v *entities.Variation, dispatched bool) {
	if c.notifier == nil {
		return
	}
	n := notify.Decision{
		Type:            notify.DecisionABTest,
		UserID:          userID,
		Attributes:      maps.Clone(attrs),
		RuleKey:         experimentKey,
		EventDispatched: dispatched,
	}
	if v != nil {
		n.VariationKey = v.Key
		n.Enabled = v.FeatureEnabled
	}
	c.notifier.Publish(n)
}

type activation struct {
	cfg      *datafile.Snapshot
	exp      *entities.Experiment
	cmabUUID string
}

func (c *Client) experimentVariation(ctx context.Context, experimentKey, userID string, attrs map[string]any) (*entities.Variation, activation, error) {
	cfg, err := c.provider.GetConfig()
	if err != nil || cfg == nil {
		return nil, activation{}, ErrNotReady
	}
	exp, ok := cfg.ExperimentByKey(experimentKey)
	if !ok {
		return nil, activation{}, errors.Join(ErrUnknownExperiment, errors.New(experimentKey))
	}

	ctx = logger.WithScope(ctx, logger.Revision(cfg.Revision()))
	user := decision.User{ID: userID, Attributes: audience.NewAttributes(maps.Clone(attrs))}
	v, cmabUUID, reasons := c.decisions.GetVariation(ctx, cfg, exp, user, c.defaults)
	for _, msg := range reasons.Errors() {
		c.logger.WarnContext(ctx, msg, logger.ExperimentKey(experimentKey), logger.UserID(userID))
	}
	return v, activation{cfg: cfg, exp: exp, cmabUUID: cmabUUID}, nil
}

func (c *Client) send(ctx context.Context, imp event.Impression) {
	err := c.sink.Process(ctx, imp)
	c.metrics.ImpressionSent(err == nil)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to send impression",
			logger.FlagKey(imp.FlagKey),
			logger.UserID(imp.UserID),
			logger.Error(err),
		)
	}
}
