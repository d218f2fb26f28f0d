package audience

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dmitrymomot/flagkit/pkg/decide"
	"github.com/dmitrymomot/flagkit/pkg/logger"
)

// AudienceMap resolves audience ids to their definitions.
type AudienceMap interface {
	AudienceByID(id string) (*Audience, bool)
}

// Evaluator evaluates condition trees against user attributes with
// three-valued logic. It holds no per-call state and is safe for concurrent
// use.
type Evaluator struct {
	logger *slog.Logger
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger sets the logger used for debug output about unknown results.
func WithLogger(l *slog.Logger) Option {
	return func(e *Evaluator) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(logger.Component("audience"))
	return e
}

// Evaluate walks tree against attrs. A nil tree matches everyone.
func (e *Evaluator) Evaluate(ctx context.Context, tree *Tree, attrs Attributes, audiences AudienceMap, reasons *decide.Reasons) Result {
	if tree == nil {
		return True
	}
	return e.eval(ctx, tree, attrs, audiences, reasons)
}

// Gate evaluates the audience tree of an experiment, rollout rule or holdout
// and reports whether the user may proceed. Unknown counts as not matching.
func (e *Evaluator) Gate(ctx context.Context, kind, key string, tree *Tree, attrs Attributes, audiences AudienceMap, reasons *decide.Reasons) bool {
	result := e.Evaluate(ctx, tree, attrs, audiences, reasons)
	matched := result == True
	reasons.AddInfo("Audiences for %s [%s] collectively evaluated to [%s].", kind, key, FromBool(matched))
	if result == Unknown {
		e.logger.DebugContext(ctx, "audience evaluation is unknown, treating as no match",
			slog.String("kind", kind), slog.String("key", key))
	}
	return matched
}

func (e *Evaluator) eval(ctx context.Context, t *Tree, attrs Attributes, audiences AudienceMap, reasons *decide.Reasons) Result {
	switch {
	case t.Condition != nil:
		return e.evalCondition(ctx, t.Condition, attrs)
	case t.AudienceID != "":
		return e.evalAudience(ctx, t.AudienceID, attrs, audiences, reasons)
	}

	switch t.Operator {
	case OperatorAnd:
		sawUnknown := false
		for _, child := range t.Children {
			switch e.eval(ctx, child, attrs, audiences, reasons) {
			case False:
				return False
			case Unknown:
				sawUnknown = true
			}
		}
		if sawUnknown {
			return Unknown
		}
		return True
	case OperatorOr:
		sawUnknown := false
		for _, child := range t.Children {
			switch e.eval(ctx, child, attrs, audiences, reasons) {
			case True:
				return True
			case Unknown:
				sawUnknown = true
			}
		}
		if sawUnknown {
			return Unknown
		}
		return False
	case OperatorNot:
		if len(t.Children) == 0 {
			return Unknown
		}
		return Not(e.eval(ctx, t.Children[0], attrs, audiences, reasons))
	default:
		e.logger.DebugContext(ctx, "unknown condition operator", slog.String("operator", string(t.Operator)))
		return Unknown
	}
}

func (e *Evaluator) evalAudience(ctx context.Context, id string, attrs Attributes, audiences AudienceMap, reasons *decide.Reasons) Result {
	if audiences == nil {
		return Unknown
	}
	aud, ok := audiences.AudienceByID(id)
	if !ok || aud == nil {
		reasons.AddInfo("Audience [%s] was not found.", id)
		e.logger.DebugContext(ctx, "audience not found", slog.String("audience_id", id))
		return Unknown
	}
	result := True
	if aud.Conditions != nil {
		result = e.eval(ctx, aud.Conditions, attrs, audiences, reasons)
	}
	reasons.AddInfo("Audience [%s] evaluated to [%s].", id, result)
	return result
}

func (e *Evaluator) evalCondition(ctx context.Context, c *Condition, attrs Attributes) Result {
	if c.Type != CustomAttribute {
		e.logger.DebugContext(ctx, "unsupported condition type",
			slog.String("type", c.Type), slog.String("attribute", c.Name))
		return Unknown
	}

	attr, present := attrs.Lookup(c.Name)
	if c.Match == MatchExists {
		return FromBool(present && !attr.IsNull())
	}
	if !present || attr.IsNull() {
		e.logger.DebugContext(ctx, "attribute missing or null, condition is unknown",
			slog.String("attribute", c.Name), slog.String("match", c.Match))
		return Unknown
	}

	var result Result
	switch c.Match {
	case MatchExact:
		result = matchExact(c.Value, attr)
	case MatchSubstring:
		result = matchSubstring(c.Value, attr)
	case MatchGT, MatchGE, MatchLT, MatchLE:
		result = matchNumber(c.Match, c.Value, attr)
	case MatchSemverEQ, MatchSemverLT, MatchSemverLE, MatchSemverGT, MatchSemverGE:
		result = matchSemver(c.Match, c.Value, attr)
	default:
		e.logger.DebugContext(ctx, "unsupported match type", slog.String("match", c.Match))
		return Unknown
	}

	if result == Unknown {
		e.logger.DebugContext(ctx, "condition evaluated to unknown",
			slog.String("attribute", c.Name),
			slog.String("match", c.Match),
			slog.String("attribute_kind", attr.Kind().String()),
			slog.String("condition_kind", c.Value.Kind().String()),
		)
	}
	return result
}

func matchExact(want, got Value) Result {
	switch want.Kind() {
	case KindString:
		w, _ := want.AsString()
		g, ok := got.AsString()
		if !ok {
			return Unknown
		}
		return FromBool(w == g)
	case KindBool:
		w, _ := want.AsBool()
		g, ok := got.AsBool()
		if !ok {
			return Unknown
		}
		return FromBool(w == g)
	case KindNumber:
		w, ok := want.finiteNumber()
		if !ok {
			return Unknown
		}
		g, ok := got.finiteNumber()
		if !ok {
			return Unknown
		}
		return FromBool(w == g)
	default:
		return Unknown
	}
}

func matchSubstring(want, got Value) Result {
	w, ok := want.AsString()
	if !ok {
		return Unknown
	}
	g, ok := got.AsString()
	if !ok {
		return Unknown
	}
	return FromBool(strings.Contains(g, w))
}

func matchNumber(match string, want, got Value) Result {
	w, ok := want.finiteNumber()
	if !ok {
		return Unknown
	}
	g, ok := got.finiteNumber()
	if !ok {
		return Unknown
	}
	switch match {
	case MatchGT:
		return FromBool(g > w)
	case MatchGE:
		return FromBool(g >= w)
	case MatchLT:
		return FromBool(g < w)
	default:
		return FromBool(g <= w)
	}
}

func matchSemver(match string, want, got Value) Result {
	w, ok := want.AsString()
	if !ok {
		return Unknown
	}
	g, ok := got.AsString()
	if !ok {
		return Unknown
	}
	cmp, err := compareVersions(g, w)
	if err != nil {
		return Unknown
	}
	switch match {
	case MatchSemverEQ:
		return FromBool(cmp == 0)
	case MatchSemverLT:
		return FromBool(cmp < 0)
	case MatchSemverLE:
		return FromBool(cmp <= 0)
	case MatchSemverGT:
		return FromBool(cmp > 0)
	default:
		return FromBool(cmp >= 0)
	}
}
