// Contactd - Contact Management REST API
// Copyright 2026 Y. Kravets (ykravets)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ykravets/contactd

package filter

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Condition is one validated clause: a whitelisted field, a permitted
// operator, and operand values coerced to the field's declared type.
// Values holds one element for scalar operators, two for between, and one
// per list element for membership operators.
type Condition struct {
	Field  string
	Op     Op
	Values []any
}

// Request is an ordered sequence of conditions, implicitly AND-combined.
// It is built per HTTP request, consumed to produce query predicates, and
// discarded; it has no persisted identity.
type Request struct {
	Conditions []Condition
}

// Empty reports whether the request carries no conditions.
func (r Request) Empty() bool {
	return len(r.Conditions) == 0
}

// dateLayouts are the accepted textual forms for date-typed operands.
// Timestamps may contain colons; only the first two colons of a clause split.
var dateLayouts = []string{"2006-01-02", time.RFC3339}

// Parse validates a raw filter string against spec and returns the parsed
// request. An empty or blank string parses to an empty request.
//
// Every clause is validated; when any fail, the returned error is a
// *ParseErrors accumulating all failures left to right, the first (most
// relevant) one first. Successfully parsed clauses are not returned alongside
// an error: a filter string is accepted or rejected as a whole.
func Parse(spec *Spec, raw string) (Request, error) {
	if strings.TrimSpace(raw) == "" {
		return Request{}, nil
	}

	segments := mergeBetweenBounds(splitClauses(raw))

	var (
		conds []Condition
		errs  []*ParseError
	)
	for _, seg := range segments {
		cond, perr := parseClause(spec, seg)
		if perr != nil {
			errs = append(errs, perr)
			continue
		}
		conds = append(conds, cond)
	}

	if len(errs) > 0 {
		return Request{}, &ParseErrors{Errs: errs}
	}
	return Request{Conditions: conds}, nil
}

// splitClauses splits the raw string on top-level commas. Commas inside a
// bracketed list literal or inside a double-quoted list element are value
// content, not clause boundaries. Quotes only carry that meaning inside a
// list literal; in a scalar value a double quote is ordinary text and must
// not swallow the next comma.
func splitClauses(raw string) []string {
	var (
		segments []string
		depth    int
		inQuote  bool
		escaped  bool
		start    int
	)

	for i, r := range raw {
		switch {
		case escaped:
			escaped = false
		case inQuote:
			switch r {
			case '\\':
				escaped = true
			case '"':
				inQuote = false
			}
		case r == '"' && depth > 0:
			inQuote = true
		case r == '[':
			depth++
		case r == ']':
			if depth > 0 {
				depth--
			}
		case r == ',' && depth == 0:
			segments = append(segments, raw[start:i])
			start = i + 1
		}
	}
	segments = append(segments, raw[start:])
	return segments
}

// mergeBetweenBounds rejoins the two comma-separated operands of a between
// clause that the top-level split pulled apart. A segment whose operator
// token is "between" consumes exactly the following segment as its upper
// bound; a missing bound is left for semantic validation to reject.
func mergeBetweenBounds(segments []string) []string {
	merged := make([]string, 0, len(segments))
	for i := 0; i < len(segments); i++ {
		seg := segments[i]
		parts := strings.SplitN(seg, ":", 3)
		if len(parts) == 3 && strings.TrimSpace(parts[1]) == string(OpBetween) && i+1 < len(segments) {
			seg = seg + "," + segments[i+1]
			i++
		}
		merged = append(merged, seg)
	}
	return merged
}

// parseClause validates a single field:operator:value clause against spec.
func parseClause(spec *Spec, clause string) (Condition, *ParseError) {
	parts := strings.SplitN(clause, ":", 3)
	if len(parts) < 3 {
		return Condition{}, &ParseError{
			Kind:  KindSyntax,
			Token: clause,
			Msg:   fmt.Sprintf("malformed filter clause %q: expected field:operator:value", strings.TrimSpace(clause)),
		}
	}

	field := strings.TrimSpace(parts[0])
	op := Op(strings.TrimSpace(parts[1]))
	value := strings.TrimSpace(parts[2])

	rule, ok := spec.rule(field)
	if !ok {
		return Condition{}, &ParseError{
			Kind:  KindSchema,
			Field: field,
			Op:    op,
			Msg:   fmt.Sprintf("unknown filter field %q for %s", field, spec.resource),
		}
	}
	if !rule.allows(op) {
		return Condition{}, &ParseError{
			Kind:  KindSchema,
			Field: field,
			Op:    op,
			Msg:   fmt.Sprintf("operator %q is not supported for field %q", op, field),
		}
	}

	values, perr := parseOperands(field, op, rule.typ, value)
	if perr != nil {
		return Condition{}, perr
	}
	return Condition{Field: field, Op: op, Values: values}, nil
}

// parseOperands converts the raw value token(s) according to operator arity
// and coerces each to the field's declared type.
func parseOperands(field string, op Op, typ ValueType, value string) ([]any, *ParseError) {
	switch {
	case op == OpBetween:
		return parseBetweenOperands(field, typ, value)
	case op.Membership():
		return parseListOperands(field, op, typ, value)
	default:
		v, err := coerceScalar(typ, value)
		if err != nil {
			return nil, coercionError(field, op, typ, value)
		}
		if op.Pattern() {
			v = normalizePattern(op, v.(string))
		}
		return []any{v}, nil
	}
}

func parseBetweenOperands(field string, typ ValueType, value string) ([]any, *ParseError) {
	bounds := strings.Split(value, ",")
	if len(bounds) != 2 {
		return nil, &ParseError{
			Kind:  KindSemantic,
			Field: field,
			Op:    OpBetween,
			Token: value,
			Msg:   fmt.Sprintf("between on field %q requires exactly two comma-separated values", field),
		}
	}

	low, errLow := coerceScalar(typ, strings.TrimSpace(bounds[0]))
	if errLow != nil {
		return nil, coercionError(field, OpBetween, typ, strings.TrimSpace(bounds[0]))
	}
	high, errHigh := coerceScalar(typ, strings.TrimSpace(bounds[1]))
	if errHigh != nil {
		return nil, coercionError(field, OpBetween, typ, strings.TrimSpace(bounds[1]))
	}

	if boundsInverted(low, high) {
		return nil, &ParseError{
			Kind:  KindSemantic,
			Field: field,
			Op:    OpBetween,
			Token: value,
			Msg:   fmt.Sprintf("between bounds for field %q are inverted: %s > %s", field, strings.TrimSpace(bounds[0]), strings.TrimSpace(bounds[1])),
		}
	}
	return []any{low, high}, nil
}

func parseListOperands(field string, op Op, typ ValueType, value string) ([]any, *ParseError) {
	elements, err := parseListLiteral(value)
	if err != nil {
		return nil, &ParseError{
			Kind:  KindSemantic,
			Field: field,
			Op:    op,
			Token: value,
			Msg:   fmt.Sprintf("malformed list literal for field %q: %v", field, err),
		}
	}
	if len(elements) == 0 {
		return nil, &ParseError{
			Kind:  KindSemantic,
			Field: field,
			Op:    op,
			Token: value,
			Msg:   fmt.Sprintf("empty list for operator %q on field %q", op, field),
		}
	}

	values := make([]any, 0, len(elements))
	for _, el := range elements {
		v, cerr := coerceScalar(typ, el)
		if cerr != nil {
			return nil, coercionError(field, op, typ, el)
		}
		values = append(values, v)
	}
	return values, nil
}

// parseListLiteral parses a bracketed list such as ["John","Jane"] or
// [1,2,3] into its raw element strings. Elements may be double-quoted;
// inside quotes, commas and ']' are literal and \" and \\ are the only
// escapes. Malformed literals are rejected outright, never repaired.
func parseListLiteral(value string) ([]string, error) {
	s := strings.TrimSpace(value)
	if !strings.HasPrefix(s, "[") {
		return nil, fmt.Errorf("expected %q to start with '['", s)
	}
	if !strings.HasSuffix(s, "]") {
		return nil, fmt.Errorf("unterminated list literal")
	}

	inner := s[1 : len(s)-1]
	if strings.TrimSpace(inner) == "" {
		return []string{}, nil
	}

	var (
		elements []string
		sb       strings.Builder
		inQuote  bool
		escaped  bool
		quoted   bool // current element was quoted
	)
	flush := func() error {
		el := sb.String()
		if !quoted {
			el = strings.TrimSpace(el)
			if el == "" {
				return fmt.Errorf("empty list element")
			}
			if strings.ContainsAny(el, "[]\"") {
				return fmt.Errorf("unquoted element %q contains reserved characters", el)
			}
		}
		elements = append(elements, el)
		sb.Reset()
		quoted = false
		return nil
	}

	for _, r := range inner {
		switch {
		case escaped:
			if r != '"' && r != '\\' {
				return nil, fmt.Errorf("unsupported escape \\%c in list element", r)
			}
			sb.WriteRune(r)
			escaped = false
		case inQuote:
			switch r {
			case '\\':
				escaped = true
			case '"':
				inQuote = false
			default:
				sb.WriteRune(r)
			}
		case r == '"':
			if sb.Len() > 0 || quoted {
				return nil, fmt.Errorf("unexpected quote inside list element")
			}
			inQuote = true
			quoted = true
		case r == ',':
			if err := flush(); err != nil {
				return nil, err
			}
		case r == ' ' || r == '\t':
			if sb.Len() > 0 && !quoted {
				sb.WriteRune(r)
			}
		default:
			if quoted {
				return nil, fmt.Errorf("trailing content after quoted element")
			}
			sb.WriteRune(r)
		}
	}
	if inQuote || escaped {
		return nil, fmt.Errorf("unterminated quoted element")
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return elements, nil
}

// coerceScalar converts one raw token to the field's semantic type.
// Failure is a validation error for the caller; nothing is truncated or
// defaulted.
func coerceScalar(typ ValueType, token string) (any, error) {
	switch typ {
	case Date:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, token); err == nil {
				return t.UTC(), nil
			}
		}
		return nil, fmt.Errorf("invalid date %q", token)
	case Integer:
		n, err := strconv.ParseInt(token, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", token)
		}
		return n, nil
	default:
		return token, nil
	}
}

func coercionError(field string, op Op, typ ValueType, token string) *ParseError {
	return &ParseError{
		Kind:  KindSemantic,
		Field: field,
		Op:    op,
		Token: token,
		Msg:   fmt.Sprintf("cannot parse %q as %s for field %q", token, typ, field),
	}
}

func boundsInverted(low, high any) bool {
	switch lo := low.(type) {
	case time.Time:
		return lo.After(high.(time.Time))
	case int64:
		return lo > high.(int64)
	default:
		return false
	}
}

// normalizePattern prepares the operand of a pattern operator. For the
// SQL-style operators the user-facing '*' wildcard becomes '%'; for the
// anchored operators the operand is kept literal and anchoring happens at
// predicate-build time.
func normalizePattern(op Op, v string) string {
	switch op {
	case OpLike, OpILike, OpNotLike:
		return strings.ReplaceAll(v, "*", "%")
	default:
		return v
	}
}
