package forced

import (
	"github.com/dmitrymomot/flagkit/pkg/decide"
	"github.com/dmitrymomot/flagkit/pkg/entities"
)

// VariationLookup finds a variation of a flag by key across the flag's
// experiments and rollout rules.
type VariationLookup interface {
	FlagVariationByKey(flagKey, variationKey string) (*entities.Variation, bool)
}

// Resolve returns the forced variation for ctx when one is stored and the
// variation still exists in cfg. A stored key that no longer resolves is
// reported as an error reason and ignored.
func (s *Store) Resolve(cfg VariationLookup, ctx Context, userID string) (*entities.Variation, *decide.Reasons) {
	reasons := decide.NewDetailedReasons()
	if s == nil || cfg == nil {
		return nil, reasons
	}

	variationKey, ok := s.Get(ctx)
	if !ok {
		return nil, reasons
	}

	variation, found := cfg.FlagVariationByKey(ctx.FlagKey, variationKey)
	if !found {
		if ctx.RuleKey != "" {
			reasons.AddError("Invalid variation is mapped to flag [%s], rule [%s] and user [%s] in the forced decision map.", ctx.FlagKey, ctx.RuleKey, userID)
		} else {
			reasons.AddError("Invalid variation is mapped to flag [%s] and user [%s] in the forced decision map.", ctx.FlagKey, userID)
		}
		return nil, reasons
	}

	if ctx.RuleKey != "" {
		reasons.AddInfo("Variation [%s] is mapped to flag [%s], rule [%s] and user [%s] in the forced decision map.", variationKey, ctx.FlagKey, ctx.RuleKey, userID)
	} else {
		reasons.AddInfo("Variation [%s] is mapped to flag [%s] and user [%s] in the forced decision map.", variationKey, ctx.FlagKey, userID)
	}
	return variation, reasons
}

// Resolves reports whether ctx is stored and its variation still exists in
// cfg. It records no reasons.
func (s *Store) Resolves(cfg VariationLookup, ctx Context) bool {
	if s == nil || cfg == nil {
		return false
	}
	variationKey, ok := s.Get(ctx)
	if !ok {
		return false
	}
	_, found := cfg.FlagVariationByKey(ctx.FlagKey, variationKey)
	return found
}
