package audience

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Operator joins the children of a tree node.
type Operator string

const (
	OperatorAnd Operator = "and"
	OperatorOr  Operator = "or"
	OperatorNot Operator = "not"
)

// CustomAttribute is the only leaf condition type the evaluator understands.
const CustomAttribute = "custom_attribute"

// Match types of a leaf condition.
const (
	MatchExact     = "exact"
	MatchSubstring = "substring"
	MatchExists    = "exists"
	MatchGT        = "gt"
	MatchGE        = "ge"
	MatchLT        = "lt"
	MatchLE        = "le"
	MatchSemverEQ  = "semver_eq"
	MatchSemverLT  = "semver_lt"
	MatchSemverLE  = "semver_le"
	MatchSemverGT  = "semver_gt"
	MatchSemverGE  = "semver_ge"
)

// Condition is a leaf comparing one user attribute with an expected value.
type Condition struct {
	Type  string
	Name  string
	Match string
	Value Value
}

// Tree is a node of a condition tree. Exactly one of Operator, Condition or
// AudienceID is set.
type Tree struct {
	Operator   Operator
	Children   []*Tree
	Condition  *Condition
	AudienceID string
}

// Audience is a named condition tree referenced from experiments by id.
type Audience struct {
	ID         string
	Name       string
	Conditions *Tree
}

// OrAudiences builds the implicit "any of" tree used when an experiment only
// lists audience ids.
func OrAudiences(ids []string) *Tree {
	if len(ids) == 0 {
		return nil
	}
	t := &Tree{Operator: OperatorOr}
	for _, id := range ids {
		t.Children = append(t.Children, &Tree{AudienceID: id})
	}
	return t
}

// ParseConditionString decodes the JSON-string encoding used by legacy
// audiences.
func ParseConditionString(s string) (*Tree, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var raw any
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, errors.Join(ErrInvalidConditions, err)
	}
	return ParseConditions(raw)
}

// ParseConditions decodes a condition tree whose leaves are attribute
// conditions, as found in audience definitions.
func ParseConditions(raw any) (*Tree, error) {
	return parse(raw, false)
}

// ParseAudienceConditions decodes a tree whose leaves are audience ids, as
// found in experiment audienceConditions.
func ParseAudienceConditions(raw any) (*Tree, error) {
	return parse(raw, true)
}

func parse(raw any, audienceLeaves bool) (*Tree, error) {
	switch x := raw.(type) {
	case nil:
		return nil, nil
	case string:
		if x == "" {
			return nil, nil
		}
		if !audienceLeaves {
			return ParseConditionString(x)
		}
		return &Tree{AudienceID: x}, nil
	case []any:
		if len(x) == 0 {
			return nil, nil
		}
		return parseList(x, audienceLeaves)
	case map[string]any:
		if audienceLeaves {
			return nil, fmt.Errorf("%w: unexpected condition object in audience list", ErrInvalidConditions)
		}
		return parseLeaf(x)
	default:
		return nil, fmt.Errorf("%w: unsupported node type %T", ErrInvalidConditions, raw)
	}
}

func parseList(items []any, audienceLeaves bool) (*Tree, error) {
	node := &Tree{Operator: OperatorOr}
	rest := items
	if op, ok := items[0].(string); ok {
		switch Operator(op) {
		case OperatorAnd, OperatorOr, OperatorNot:
			node.Operator = Operator(op)
			rest = items[1:]
		}
	}

	for _, item := range rest {
		var (
			child *Tree
			err   error
		)
		if s, ok := item.(string); ok && audienceLeaves {
			child = &Tree{AudienceID: s}
		} else {
			child, err = parse(item, audienceLeaves)
		}
		if err != nil {
			return nil, err
		}
		if child != nil {
			node.Children = append(node.Children, child)
		}
	}
	return node, nil
}

func parseLeaf(m map[string]any) (*Tree, error) {
	c := &Condition{Match: MatchExact}
	if v, ok := m["type"].(string); ok {
		c.Type = v
	}
	if v, ok := m["name"].(string); ok {
		c.Name = v
	}
	if v, ok := m["match"].(string); ok && v != "" {
		c.Match = v
	}
	if c.Name == "" {
		return nil, fmt.Errorf("%w: condition without attribute name", ErrInvalidConditions)
	}
	c.Value = ValueOf(m["value"])
	return &Tree{Condition: c}, nil
}
