// Package audience evaluates audience conditions against user attributes.
//
// Conditions form a tree of "and", "or" and "not" nodes whose leaves either
// compare one attribute with an expected value or reference an audience by
// id. Evaluation is three-valued: a leaf whose attribute is missing, has the
// wrong type for its match, or carries a malformed version string evaluates
// to Unknown rather than failing. Unknown propagates through the operators:
//
//	And(True, Unknown)  == Unknown
//	And(False, Unknown) == False
//	Or(False, Unknown)  == Unknown
//	Not(Unknown)        == Unknown
//
// Callers gating traffic treat anything other than True as "does not match".
//
// # Attribute values
//
// User attributes are converted into Value, a tagged union of string,
// number, bool and null. Matchers switch on the tag instead of inspecting Go
// types at evaluation time:
//
//	attrs := audience.NewAttributes(map[string]any{"plan": "pro", "age": 31})
//	ev := audience.NewEvaluator()
//	ok := ev.Gate(ctx, "experiment", "checkout_test", tree, attrs, snapshot, reasons)
//
// # Match types
//
// exact, substring, exists, gt, ge, lt, le and the semver_* family. Numbers
// must be finite and within ±2^53 to be compared.
package audience
