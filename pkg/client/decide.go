package client

import (
	"context"
	"maps"
	"slices"

	"github.com/dmitrymomot/flagkit/pkg/datafile"
	"github.com/dmitrymomot/flagkit/pkg/decide"
	"github.com/dmitrymomot/flagkit/pkg/decision"
	"github.com/dmitrymomot/flagkit/pkg/entities"
	"github.com/dmitrymomot/flagkit/pkg/event"
	"github.com/dmitrymomot/flagkit/pkg/logger"
	"github.com/dmitrymomot/flagkit/pkg/notify"
)

func (c *Client) decide(ctx context.Context, user *UserContext, flagKey string, opts []decide.Option) Decision {
	cfg, err := c.provider.GetConfig()
	if err != nil || cfg == nil {
		c.logger.WarnContext(ctx, ErrNotReady.Error(), logger.FlagKey(flagKey))
		return errorDecision(flagKey, user, ErrNotReady.Error())
	}

	resolved, err := c.defaults.Apply(opts...)
	if err != nil {
		return errorDecision(flagKey, user, err.Error())
	}
	// A single decide always returns its flag.
	resolved.EnabledFlagsOnly = false

	decisions := c.decideFlags(ctx, cfg, user, []string{flagKey}, resolved)
	return decisions[flagKey]
}

func (c *Client) decideForKeys(ctx context.Context, user *UserContext, keys []string, opts []decide.Option) map[string]Decision {
	cfg, resolved, ok := c.prepareBatch(ctx, opts)
	if !ok {
		return map[string]Decision{}
	}
	return c.decideFlags(ctx, cfg, user, keys, resolved)
}

// decideAll decides every flag of a single snapshot, the same one the keys
// are read from.
func (c *Client) decideAll(ctx context.Context, user *UserContext, opts []decide.Option) map[string]Decision {
	cfg, resolved, ok := c.prepareBatch(ctx, opts)
	if !ok {
		return map[string]Decision{}
	}

	features := cfg.Features()
	keys := make([]string, 0, len(features))
	for _, f := range features {
		keys = append(keys, f.Key)
	}
	return c.decideFlags(ctx, cfg, user, keys, resolved)
}

func (c *Client) prepareBatch(ctx context.Context, opts []decide.Option) (*datafile.Snapshot, decide.Options, bool) {
	cfg, err := c.provider.GetConfig()
	if err != nil || cfg == nil {
		c.logger.WarnContext(ctx, ErrNotReady.Error())
		return nil, decide.Options{}, false
	}

	resolved, err := c.defaults.Apply(opts...)
	if err != nil {
		c.logger.WarnContext(ctx, "invalid decide options", logger.Error(err))
		return nil, decide.Options{}, false
	}
	return cfg, resolved, true
}

func (c *Client) decideFlags(ctx context.Context, cfg *datafile.Snapshot, user *UserContext, keys []string, opts decide.Options) map[string]Decision {
	ctx = logger.WithScope(ctx, logger.Revision(cfg.Revision()))
	out := make(map[string]Decision, len(keys))
	features := make([]*entities.Feature, 0, len(keys))
	for _, key := range keys {
		feature, ok := cfg.FeatureByKey(key)
		if !ok {
			if !opts.EnabledFlagsOnly {
				out[key] = errorDecision(key, user, decide.NewReasons(opts).AddError("No flag was found for key [%s].", key))
			}
			continue
		}
		features = append(features, feature)
	}
	if len(features) == 0 {
		return out
	}

	results, reasons := c.decisions.GetDecisionsForFlags(ctx, cfg, features, user.decisionUser(), opts)
	for i, feature := range features {
		fd := results[i]

		variables := map[string]any{}
		if !opts.ExcludeVariables {
			variables = resolveVariables(feature, fd.Variation, reasons[i])
		}

		dispatched := !opts.DisableDecisionEvent && fd.Variation != nil
		if dispatched {
			c.send(ctx, c.impression(cfg, user, feature, fd))
		}

		d := Decision{
			FlagKey:     feature.Key,
			Enabled:     fd.Enabled(),
			RuleKey:     fd.RuleKey(),
			Variables:   variables,
			UserContext: user,
			Reasons:     reasons[i].ToReport(),
		}
		if fd.Variation != nil {
			d.VariationKey = fd.Variation.Key
		}
		c.notifyFlag(user, d, dispatched)

		if opts.EnabledFlagsOnly && !d.Enabled {
			continue
		}
		out[feature.Key] = d
	}
	return out
}

func (c *Client) notifyFlag(user *UserContext, d Decision, dispatched bool) {
	if c.notifier == nil {
		return
	}
	c.notifier.Publish(notify.Decision{
		Type:            notify.DecisionFlag,
		UserID:          user.userID,
		Attributes:      maps.Clone(user.attrs),
		FlagKey:         d.FlagKey,
		RuleKey:         d.RuleKey,
		VariationKey:    d.VariationKey,
		Enabled:         d.Enabled,
		Variables:       maps.Clone(d.Variables),
		Reasons:         slices.Clone(d.Reasons),
		EventDispatched: dispatched,
	})
}

func (c *Client) impression(cfg *datafile.Snapshot, user *UserContext, feature *entities.Feature, fd decision.FeatureDecision) event.Impression {
	imp := event.NewImpression(user.userID, user.attrs)
	imp.ProjectID = cfg.ProjectID()
	imp.Revision = cfg.Revision()
	imp.FlagKey = feature.Key
	imp.RuleKey = fd.RuleKey()
	imp.ExperimentID = fd.RuleID()
	imp.VariationKey = fd.Variation.Key
	imp.VariationID = fd.Variation.ID
	imp.Enabled = fd.Enabled()
	imp.CmabUUID = fd.CmabUUID

	switch fd.Source {
	case decision.SourceHoldout:
		imp.RuleType = event.RuleHoldout
	case decision.SourceRollout:
		imp.RuleType = event.RuleRollout
	default:
		imp.RuleType = event.RuleFeatureTest
		if fd.Experiment == nil {
			imp.RuleType = event.RuleFlag
		}
	}
	return imp
}
