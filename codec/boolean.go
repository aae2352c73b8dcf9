// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

package codec

import (
	"fmt"
	"strings"
)

const (
	// DefaultBoolFormat is used by boolean fields without an explicit pattern.
	DefaultBoolFormat = "yes/no"

	StoredTrue  = "True"
	StoredFalse = "False"
)

// BoolFormat is a compiled true/false token pair.
type BoolFormat struct {
	trueText  string
	falseText string
}

// ParseBoolFormat compiles a "true/false" pattern. A literal slash inside a
// token is written as \/.
func ParseBoolFormat(pattern string) (BoolFormat, error) {
	parts := SplitEscaped(pattern, '/')
	if len(parts) != 2 {
		return BoolFormat{}, fmt.Errorf("invalid boolean format %q: need exactly two tokens", pattern)
	}
	t, f := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if t == "" || f == "" {
		return BoolFormat{}, fmt.Errorf("invalid boolean format %q: empty token", pattern)
	}
	if strings.EqualFold(t, f) {
		return BoolFormat{}, fmt.Errorf("invalid boolean format %q: tokens must differ", pattern)
	}
	return BoolFormat{trueText: t, falseText: f}, nil
}

// Format returns the pattern token for v.
func (bf BoolFormat) Format(v bool) string {
	if v {
		return bf.trueText
	}
	return bf.falseText
}

// Parse accepts only the pattern tokens, case-insensitively.
func (bf BoolFormat) Parse(text string) (bool, error) {
	t := strings.TrimSpace(text)
	switch {
	case strings.EqualFold(t, bf.trueText):
		return true, nil
	case strings.EqualFold(t, bf.falseText):
		return false, nil
	}
	return false, formatErr("boolean", text, fmt.Sprintf("expected %q or %q", bf.trueText, bf.falseText))
}

// StoredBool returns the stored token for v.
func StoredBool(v bool) string {
	if v {
		return StoredTrue
	}
	return StoredFalse
}

// ParseStoredBool reads a stored boolean token.
func ParseStoredBool(stored string) (bool, error) {
	switch strings.TrimSpace(stored) {
	case StoredTrue:
		return true, nil
	case StoredFalse:
		return false, nil
	}
	return false, formatErr("boolean", stored, "expected True or False")
}

// SplitEscaped splits s on sep, honouring backslash-escaped separators.
func SplitEscaped(s string, sep byte) []string {
	var parts []string
	var cur strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) && s[i+1] == sep {
			cur.WriteByte(sep)
			i++
			continue
		}
		if c == sep {
			parts = append(parts, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteByte(c)
	}
	return append(parts, cur.String())
}

// JoinEscaped joins items with sep, escaping any sep inside an item.
func JoinEscaped(items []string, sep byte) string {
	esc := make([]string, len(items))
	for i, item := range items {
		esc[i] = strings.ReplaceAll(item, string(sep), `\`+string(sep))
	}
	return strings.Join(esc, string(sep))
}
