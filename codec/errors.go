// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

// Package codec converts primitive field values between their canonical stored
// strings and pattern-driven editor and output text.
package codec

import (
	"errors"
	"fmt"
)

// ErrFormat is matched by every *FormatError.
var ErrFormat = errors.New("format error")

// FormatError reports text that does not match the declared pattern of a value
// kind. Partial holds the best-effort text to show in place of the value.
type FormatError struct {
	Kind    string // number, boolean, date, time, datetime, numbering, ...
	Text    string
	Partial string
	Msg     string
	Err     error
}

func (e *FormatError) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = "invalid value"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s %q: %s: %v", e.Kind, e.Text, msg, e.Err)
	}
	return fmt.Sprintf("%s %q: %s", e.Kind, e.Text, msg)
}

// Is reports true for ErrFormat.
func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

func formatErr(kind, text, msg string) *FormatError {
	return &FormatError{Kind: kind, Text: text, Partial: text, Msg: msg}
}
