// Contactd - Contact Management REST API
// Copyright 2026 Y. Kravets (ykravets)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ykravets/contactd

package filter

import (
	"fmt"
	"strings"
)

// BuildConditions renders the parsed request into SQL predicate fragments
// with positional placeholders, plus the bound argument list. Numbering
// starts at startArgPos so callers can prepend their own predicates
// (ownership scoping, soft-delete flags) before the filter ones.
//
// Values never enter the SQL text: every operand is a bound parameter, and
// field names come from the whitelist validated at parse time.
func BuildConditions(req Request, startArgPos int) ([]string, []any) {
	clauses := make([]string, 0, len(req.Conditions))
	args := make([]any, 0, len(req.Conditions))
	argPos := startArgPos

	for _, cond := range req.Conditions {
		switch cond.Op {
		case OpEq:
			clauses = append(clauses, fmt.Sprintf("%s = $%d", cond.Field, argPos))
			args = append(args, cond.Values[0])
			argPos++
		case OpNe:
			clauses = append(clauses, fmt.Sprintf("%s <> $%d", cond.Field, argPos))
			args = append(args, cond.Values[0])
			argPos++
		case OpGt:
			clauses = append(clauses, fmt.Sprintf("%s > $%d", cond.Field, argPos))
			args = append(args, cond.Values[0])
			argPos++
		case OpLt:
			clauses = append(clauses, fmt.Sprintf("%s < $%d", cond.Field, argPos))
			args = append(args, cond.Values[0])
			argPos++
		case OpGte:
			clauses = append(clauses, fmt.Sprintf("%s >= $%d", cond.Field, argPos))
			args = append(args, cond.Values[0])
			argPos++
		case OpLte:
			clauses = append(clauses, fmt.Sprintf("%s <= $%d", cond.Field, argPos))
			args = append(args, cond.Values[0])
			argPos++
		case OpBetween:
			clauses = append(clauses, fmt.Sprintf("%s BETWEEN $%d AND $%d", cond.Field, argPos, argPos+1))
			args = append(args, cond.Values[0], cond.Values[1])
			argPos += 2
		case OpIn, OpNotIn:
			placeholders := make([]string, len(cond.Values))
			for i, v := range cond.Values {
				placeholders[i] = fmt.Sprintf("$%d", argPos)
				args = append(args, v)
				argPos++
			}
			keyword := "IN"
			if cond.Op == OpNotIn {
				keyword = "NOT IN"
			}
			clauses = append(clauses, fmt.Sprintf("%s %s (%s)", cond.Field, keyword, strings.Join(placeholders, ", ")))
		case OpLike:
			clauses = append(clauses, fmt.Sprintf("%s LIKE $%d", cond.Field, argPos))
			args = append(args, cond.Values[0])
			argPos++
		case OpILike:
			clauses = append(clauses, fmt.Sprintf("%s ILIKE $%d", cond.Field, argPos))
			args = append(args, cond.Values[0])
			argPos++
		case OpNotLike:
			clauses = append(clauses, fmt.Sprintf("%s NOT LIKE $%d", cond.Field, argPos))
			args = append(args, cond.Values[0])
			argPos++
		case OpStartsWith:
			clauses = append(clauses, fmt.Sprintf("%s LIKE $%d", cond.Field, argPos))
			args = append(args, escapeLike(cond.Values[0].(string))+"%")
			argPos++
		case OpEndsWith:
			clauses = append(clauses, fmt.Sprintf("%s LIKE $%d", cond.Field, argPos))
			args = append(args, "%"+escapeLike(cond.Values[0].(string)))
			argPos++
		case OpContains:
			clauses = append(clauses, fmt.Sprintf("%s LIKE $%d", cond.Field, argPos))
			args = append(args, "%"+escapeLike(cond.Values[0].(string))+"%")
			argPos++
		}
	}

	return clauses, args
}

// WhereClause wraps BuildConditions into a single AND-joined clause with a
// "1=1" base for safe concatenation into a larger statement.
//
// Example:
//
//	where, args := filter.WhereClause(req, 2)
//	query := fmt.Sprintf("SELECT * FROM contacts WHERE user_id = $1 AND %s", where)
func WhereClause(req Request, startArgPos int) (string, []any) {
	clauses, args := BuildConditions(req, startArgPos)
	if len(clauses) == 0 {
		return "1=1", args
	}
	return "1=1 AND " + strings.Join(clauses, " AND "), args
}

// SQL renders the request as a single WHERE-ready clause. Shorthand for
// WhereClause.
func (r Request) SQL(startArgPos int) (string, []any) {
	return WhereClause(r, startArgPos)
}

// escapeLike escapes LIKE metacharacters so anchored pattern operators
// match the user's text literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
