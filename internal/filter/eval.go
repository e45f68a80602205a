// Contactd - Contact Management REST API
// Copyright 2026 Y. Kravets (ykravets)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ykravets/contactd

package filter

import (
	"strings"
	"time"
)

// Match evaluates the request against an in-memory row, mirroring the SQL
// semantics of BuildConditions. Rows map field names to string, int64, or
// time.Time values. Missing fields and type mismatches evaluate to false
// for the affected condition. All conditions must hold.
//
// The evaluator exists so the SQL rendering can be cross-checked against a
// direct implementation of the operator semantics.
func Match(req Request, row map[string]any) bool {
	for _, cond := range req.Conditions {
		if !matchCondition(cond, row) {
			return false
		}
	}
	return true
}

// Match is the method form of the package-level evaluator.
func (r Request) Match(row map[string]any) bool {
	return Match(r, row)
}

func matchCondition(cond Condition, row map[string]any) bool {
	val, ok := row[cond.Field]
	if !ok {
		return false
	}

	switch cond.Op {
	case OpEq:
		c, ok := compare(val, cond.Values[0])
		return ok && c == 0
	case OpNe:
		c, ok := compare(val, cond.Values[0])
		return ok && c != 0
	case OpGt:
		c, ok := compare(val, cond.Values[0])
		return ok && c > 0
	case OpLt:
		c, ok := compare(val, cond.Values[0])
		return ok && c < 0
	case OpGte:
		c, ok := compare(val, cond.Values[0])
		return ok && c >= 0
	case OpLte:
		c, ok := compare(val, cond.Values[0])
		return ok && c <= 0
	case OpBetween:
		lo, okLo := compare(val, cond.Values[0])
		hi, okHi := compare(val, cond.Values[1])
		return okLo && okHi && lo >= 0 && hi <= 0
	case OpIn:
		for _, v := range cond.Values {
			if c, ok := compare(val, v); ok && c == 0 {
				return true
			}
		}
		return false
	case OpNotIn:
		for _, v := range cond.Values {
			if c, ok := compare(val, v); ok && c == 0 {
				return false
			}
		}
		return true
	case OpLike:
		s, ok := val.(string)
		return ok && likeMatch(cond.Values[0].(string), s, false)
	case OpILike:
		s, ok := val.(string)
		return ok && likeMatch(cond.Values[0].(string), s, true)
	case OpNotLike:
		s, ok := val.(string)
		return ok && !likeMatch(cond.Values[0].(string), s, false)
	case OpStartsWith:
		s, ok := val.(string)
		return ok && strings.HasPrefix(s, cond.Values[0].(string))
	case OpEndsWith:
		s, ok := val.(string)
		return ok && strings.HasSuffix(s, cond.Values[0].(string))
	case OpContains:
		s, ok := val.(string)
		return ok && strings.Contains(s, cond.Values[0].(string))
	}
	return false
}

// compare orders two operands of the same semantic type. ok reports whether
// the operands were comparable at all; callers must treat !ok as a failed
// condition regardless of the operator.
func compare(a, b any) (int, bool) {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case int64:
		bv, ok := b.(int64)
		if !ok {
			return 0, false
		}
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		}
		return 0, true
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		switch {
		case av.Before(bv):
			return -1, true
		case av.After(bv):
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// likeMatch interprets a SQL LIKE pattern: '%' matches any run, '_' matches
// one rune, and backslash escapes the next rune.
func likeMatch(pattern, s string, foldCase bool) bool {
	if foldCase {
		pattern = strings.ToLower(pattern)
		s = strings.ToLower(s)
	}
	return likeRunes([]rune(pattern), []rune(s))
}

func likeRunes(pattern, s []rune) bool {
	if len(pattern) == 0 {
		return len(s) == 0
	}

	switch pattern[0] {
	case '%':
		for i := 0; i <= len(s); i++ {
			if likeRunes(pattern[1:], s[i:]) {
				return true
			}
		}
		return false
	case '_':
		return len(s) > 0 && likeRunes(pattern[1:], s[1:])
	case '\\':
		if len(pattern) < 2 {
			return false
		}
		return len(s) > 0 && s[0] == pattern[1] && likeRunes(pattern[2:], s[1:])
	default:
		return len(s) > 0 && s[0] == pattern[0] && likeRunes(pattern[1:], s[1:])
	}
}
