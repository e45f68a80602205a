// Contactd - Contact Management REST API
// Copyright 2026 Y. Kravets (ykravets)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ykravets/contactd

// Package filter implements the query-string filter expression engine.
//
// A raw filter string is a comma-separated list of field:operator:value
// clauses, e.g.
//
//	first_name:eq:John,created_at:gt:2025-01-01
//
// Parsing validates every clause against a per-resource Spec (a static
// whitelist of filterable fields and the operators permitted on each),
// coerces values to the field's declared type, and produces a Request whose
// conditions convert to parameterized SQL predicates. All operand values are
// emitted as bound parameters; user input never reaches query text.
//
// The engine is purely functional over its inputs: a Spec is immutable after
// construction and a parse touches no shared state, so concurrent use needs
// no synchronization.
package filter

import "fmt"

// FieldRule declares one filterable field: its semantic value type and the
// operators callers may apply to it.
type FieldRule struct {
	Type ValueType
	Ops  []Op
}

// Spec is the static whitelist of filterable fields for one resource type.
// Build it once at process start with NewSpec or MustSpec and treat it as
// immutable configuration.
type Spec struct {
	resource string
	fields   map[string]fieldRule
}

type fieldRule struct {
	typ ValueType
	ops map[Op]struct{}
}

// NewSpec builds a Spec for the named resource. It rejects rules that could
// never produce a valid predicate: unknown operators, ordered operators on
// non-orderable types, and pattern operators on non-string types.
func NewSpec(resource string, rules map[string]FieldRule) (*Spec, error) {
	if resource == "" {
		return nil, fmt.Errorf("filter spec requires a resource name")
	}

	fields := make(map[string]fieldRule, len(rules))
	for name, rule := range rules {
		if name == "" {
			return nil, fmt.Errorf("filter spec for %s has an empty field name", resource)
		}
		if len(rule.Ops) == 0 {
			return nil, fmt.Errorf("filter spec field %s.%s permits no operators", resource, name)
		}

		ops := make(map[Op]struct{}, len(rule.Ops))
		for _, op := range rule.Ops {
			if !op.Known() {
				return nil, fmt.Errorf("filter spec field %s.%s permits unknown operator %q", resource, name, op)
			}
			if op.Ordered() && !rule.Type.Orderable() {
				return nil, fmt.Errorf("filter spec field %s.%s permits %q on non-orderable type %s", resource, name, op, rule.Type)
			}
			if op.Pattern() && rule.Type != String {
				return nil, fmt.Errorf("filter spec field %s.%s permits pattern operator %q on type %s", resource, name, op, rule.Type)
			}
			ops[op] = struct{}{}
		}
		fields[name] = fieldRule{typ: rule.Type, ops: ops}
	}

	return &Spec{resource: resource, fields: fields}, nil
}

// MustSpec is NewSpec for package-level spec tables; it panics on invalid
// rules, which is a programming error rather than runtime input.
func MustSpec(resource string, rules map[string]FieldRule) *Spec {
	s, err := NewSpec(resource, rules)
	if err != nil {
		panic(err)
	}
	return s
}

// Resource returns the resource name this spec filters.
func (s *Spec) Resource() string {
	return s.resource
}

// Fields returns the filterable field names, for documentation endpoints.
func (s *Spec) Fields() []string {
	names := make([]string, 0, len(s.fields))
	for name := range s.fields {
		names = append(names, name)
	}
	return names
}

func (s *Spec) rule(field string) (fieldRule, bool) {
	r, ok := s.fields[field]
	return r, ok
}

func (r fieldRule) allows(op Op) bool {
	_, ok := r.ops[op]
	return ok
}
