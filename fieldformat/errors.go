// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

package fieldformat

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// ErrorMarker replaces the output of a value that does not match its
	// field's format.
	ErrorMarker = "#####"
	// BrokenLinkMarker replaces the output of an internal link whose target
	// node no longer exists.
	BrokenLinkMarker = "#broken link#"
)

var (
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("invalid field definition")
	// ErrCircularReference is matched by every *CircularReferenceError.
	ErrCircularReference = errors.New("circular reference")
	// ErrBrokenLink is returned when an internal link target cannot be found.
	ErrBrokenLink = errors.New("broken internal link")
)

// ValidationError reports a field definition that cannot be used: an unknown
// type, a malformed format pattern, an invalid equation.
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Value   any    `json:"value,omitempty"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("field %q: %s", e.Field, e.Message)
}

// Is reports true for ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(field, tag string, value any, err error) *ValidationError {
	return &ValidationError{Field: field, Tag: tag, Value: value, Message: err.Error(), Err: err}
}

// CircularReferenceError reports a cycle among math field equations. Path
// lists the field names around the cycle, starting and ending with the same
// name.
type CircularReferenceError struct {
	Path []string
}

func (e *CircularReferenceError) Error() string {
	return "circular reference in math fields: " + strings.Join(e.Path, " -> ")
}

// Is reports true for ErrCircularReference.
func (e *CircularReferenceError) Is(target error) bool {
	return target == ErrCircularReference
}

// FieldError records one math field that failed to evaluate on one node.
type FieldError struct {
	NodeID string
	Field  string
	Err    error
}

func (e FieldError) Error() string {
	return fmt.Sprintf("node %s field %q: %v", e.NodeID, e.Field, e.Err)
}

func (e FieldError) Unwrap() error {
	return e.Err
}
