// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

// Package equation parses and evaluates math field equations: arithmetic,
// comparison, boolean and text expressions over field references that
// resolve against the current node, its parent, the root or its children.
package equation

import (
	"errors"
	"fmt"
)

var (
	// ErrBlank is returned by Eval when a referenced field is blank and blanks
	// are not replaced by zero placeholders. The result should be stored empty.
	ErrBlank = errors.New("blank reference")

	// ErrEval is matched by every *EvalError.
	ErrEval = errors.New("evaluation error")
)

// SyntaxError reports an equation that cannot be parsed.
type SyntaxError struct {
	Source string
	Pos    int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("equation %q: %s at position %d", e.Source, e.Msg, e.Pos)
}

// EvalError reports a failure while evaluating a parsed equation: type
// mismatch, division by zero, bad function arguments or an unresolved
// reference.
type EvalError struct {
	Msg string
	Err error
}

func (e *EvalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

// Is reports true for ErrEval.
func (e *EvalError) Is(target error) bool {
	return target == ErrEval
}

func (e *EvalError) Unwrap() error {
	return e.Err
}

func evalErrorf(format string, args ...any) error {
	return &EvalError{Msg: fmt.Sprintf(format, args...)}
}
