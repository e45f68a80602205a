// Contactd - Contact Management REST API
// Copyright 2026 Y. Kravets (ykravets)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ykravets/contactd

package filter

import "strings"

// ErrorKind classifies a filter validation failure.
type ErrorKind int

const (
	// KindSyntax marks a clause that does not split into field:operator:value.
	KindSyntax ErrorKind = iota
	// KindSchema marks an unknown field or an operator not permitted for it.
	KindSchema
	// KindSemantic marks a value that fails type coercion, inverted between
	// bounds, or a malformed/empty list literal.
	KindSemantic
)

// ParseError describes one invalid clause. All parse errors are caller-input
// errors: they are surfaced verbatim in a 400-class response and never retried.
type ParseError struct {
	Kind  ErrorKind
	Field string
	Op    Op
	Token string
	Msg   string
}

// Error returns the human-readable message for the failing clause.
func (e *ParseError) Error() string {
	return e.Msg
}

// ParseErrors collects every invalid clause in a filter string, left to right.
// The first entry is the most relevant one and is what handlers surface.
type ParseErrors struct {
	Errs []*ParseError
}

// Error joins all clause failures, first failure first.
func (e *ParseErrors) Error() string {
	msgs := make([]string, len(e.Errs))
	for i, pe := range e.Errs {
		msgs[i] = pe.Msg
	}
	return strings.Join(msgs, "; ")
}

// First returns the first (most relevant) clause failure.
func (e *ParseErrors) First() *ParseError {
	if len(e.Errs) == 0 {
		return nil
	}
	return e.Errs[0]
}
