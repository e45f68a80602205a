// Contactd - Contact Management REST API
// Copyright 2026 Y. Kravets (ykravets)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ykravets/contactd

package filter

// Op is one of the closed set of filter operators accepted in query strings.
// The set is fixed; permitting an operator on a field is a FilterSpec change,
// never ad-hoc string matching in a handler.
type Op string

const (
	OpEq         Op = "eq"
	OpNe         Op = "ne"
	OpGt         Op = "gt"
	OpLt         Op = "lt"
	OpGte        Op = "gte"
	OpLte        Op = "lte"
	OpIn         Op = "in_"
	OpNotIn      Op = "not_in"
	OpLike       Op = "like"
	OpILike      Op = "ilike"
	OpNotLike    Op = "not_like"
	OpBetween    Op = "between"
	OpStartsWith Op = "startswith"
	OpEndsWith   Op = "endswith"
	OpContains   Op = "contains"
)

// allOps lists every operator the engine understands, used to distinguish
// "unknown operator" from "operator not permitted for this field".
var allOps = map[Op]struct{}{
	OpEq: {}, OpNe: {}, OpGt: {}, OpLt: {}, OpGte: {}, OpLte: {},
	OpIn: {}, OpNotIn: {}, OpLike: {}, OpILike: {}, OpNotLike: {},
	OpBetween: {}, OpStartsWith: {}, OpEndsWith: {}, OpContains: {},
}

// Known reports whether op is a member of the closed operator set.
func (op Op) Known() bool {
	_, ok := allOps[op]
	return ok
}

// Ordered reports whether op requires an orderable value type (date, integer).
func (op Op) Ordered() bool {
	switch op {
	case OpGt, OpLt, OpGte, OpLte, OpBetween:
		return true
	default:
		return false
	}
}

// Pattern reports whether op is a string pattern-match operator.
func (op Op) Pattern() bool {
	switch op {
	case OpLike, OpILike, OpNotLike, OpStartsWith, OpEndsWith, OpContains:
		return true
	default:
		return false
	}
}

// Membership reports whether op operates over a list literal.
func (op Op) Membership() bool {
	return op == OpIn || op == OpNotIn
}

// ValueType is the semantic type a field's operand values coerce to.
type ValueType int

const (
	String ValueType = iota
	Date
	Integer
)

// String returns the type name used in validation error messages.
func (t ValueType) String() string {
	switch t {
	case Date:
		return "date"
	case Integer:
		return "integer"
	default:
		return "string"
	}
}

// Orderable reports whether values of this type have a natural order usable
// by range and comparison operators.
func (t ValueType) Orderable() bool {
	return t == Date || t == Integer
}
