// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

package codec

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// DefaultNumberingFormat is used by numbering fields without an explicit pattern.
const DefaultNumberingFormat = "1.1.1"

// MaxNumberingLevel bounds the number at any one outline level.
const MaxNumberingLevel = 1_000_000

type numberingLevel struct {
	kind byte   // '1', 'A', 'a', 'I' or 'i'
	sep  string // literal text before this level; empty for the first level
}

// NumberingFormat is a compiled outline numbering pattern such as "I.A.1" or
// "(1)". Each symbol 1, A, a, I, i selects the style of one level; the text
// between symbols is the separator. Outlines deeper than the pattern repeat
// the last level. A backslash makes the next character literal.
type NumberingFormat struct {
	pattern string
	prefix  string
	suffix  string
	levels  []numberingLevel
}

func isNumberingSymbol(c rune) bool {
	return c == '1' || c == 'A' || c == 'a' || c == 'I' || c == 'i'
}

// ParseNumberingFormat compiles a numbering pattern.
func ParseNumberingFormat(pattern string) (NumberingFormat, error) {
	nf := NumberingFormat{pattern: pattern}
	var text strings.Builder
	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if c == '\\' && i+1 < len(runes) {
			text.WriteRune(runes[i+1])
			i++
			continue
		}
		if !isNumberingSymbol(c) {
			text.WriteRune(c)
			continue
		}
		if len(nf.levels) == 0 {
			nf.prefix = text.String()
			nf.levels = append(nf.levels, numberingLevel{kind: byte(c)})
		} else {
			if text.Len() == 0 {
				return nf, fmt.Errorf("invalid numbering format %q: levels need a separator", pattern)
			}
			nf.levels = append(nf.levels, numberingLevel{kind: byte(c), sep: text.String()})
		}
		text.Reset()
	}
	if len(nf.levels) == 0 {
		return nf, fmt.Errorf("invalid numbering format %q: no level symbol (1, A, a, I, i)", pattern)
	}
	nf.suffix = text.String()
	for _, lvl := range nf.levels[1:] {
		if strings.IndexFunc(lvl.sep, isAlnum) >= 0 {
			return nf, fmt.Errorf("invalid numbering format %q: separator %q contains letters or digits", pattern, lvl.sep)
		}
	}
	return nf, nil
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (nf NumberingFormat) level(i int) numberingLevel {
	if i < len(nf.levels) {
		return nf.levels[i]
	}
	last := nf.levels[len(nf.levels)-1]
	if last.sep == "" {
		last.sep = "."
	}
	return last
}

// Format renders an outline number such as [2 1 3].
func (nf NumberingFormat) Format(nums []int) (string, error) {
	if len(nums) == 0 {
		return "", formatErr("numbering", "", "empty numbering")
	}
	var b strings.Builder
	b.WriteString(nf.prefix)
	for i, n := range nums {
		lvl := nf.level(i)
		if i > 0 {
			b.WriteString(lvl.sep)
		}
		s, err := formatNumberingSymbol(lvl.kind, n)
		if err != nil {
			return "", err
		}
		b.WriteString(s)
	}
	b.WriteString(nf.suffix)
	return b.String(), nil
}

func formatNumberingSymbol(kind byte, n int) (string, error) {
	if n < 0 || n > MaxNumberingLevel || (kind != '1' && n == 0) {
		return "", formatErr("numbering", strconv.Itoa(n), fmt.Sprintf("out of range for style %c", kind))
	}
	switch kind {
	case 'A':
		return letters(n), nil
	case 'a':
		return strings.ToLower(letters(n)), nil
	case 'I':
		return roman(n), nil
	case 'i':
		return strings.ToLower(roman(n)), nil
	}
	return strconv.Itoa(n), nil
}

// Parse reads a label produced by Format, or a plain dotted number.
func (nf NumberingFormat) Parse(label string) ([]int, error) {
	s := strings.TrimSpace(label)
	if nf.prefix != "" {
		s = strings.TrimPrefix(s, nf.prefix)
	}
	if nf.suffix != "" {
		s = strings.TrimSuffix(s, nf.suffix)
	}
	tokens := strings.FieldsFunc(s, func(r rune) bool { return !isAlnum(r) })
	if len(tokens) == 0 {
		return nil, formatErr("numbering", label, "no numbering levels")
	}
	nums := make([]int, len(tokens))
	for i, tok := range tokens {
		n, err := parseNumberingSymbol(nf.level(i).kind, tok)
		if err != nil {
			if n, err = strconv.Atoi(tok); err != nil || n < 0 {
				return nil, formatErr("numbering", label, fmt.Sprintf("bad level %q", tok))
			}
		}
		if n > MaxNumberingLevel {
			return nil, formatErr("numbering", label, fmt.Sprintf("level %q out of range", tok))
		}
		nums[i] = n
	}
	return nums, nil
}

func parseNumberingSymbol(kind byte, tok string) (int, error) {
	switch kind {
	case 'A', 'a':
		return parseLetters(tok)
	case 'I', 'i':
		return parseRoman(tok)
	}
	n, err := strconv.Atoi(tok)
	if err == nil && n < 0 {
		err = fmt.Errorf("negative level")
	}
	return n, err
}

func letters(n int) string {
	ch := byte('A' + (n-1)%26)
	return strings.Repeat(string(ch), (n-1)/26+1)
}

func parseLetters(tok string) (int, error) {
	up := strings.ToUpper(tok)
	if up == "" || up[0] < 'A' || up[0] > 'Z' || strings.Trim(up, up[:1]) != "" {
		return 0, fmt.Errorf("not a letter sequence: %q", tok)
	}
	return (len(up)-1)*26 + int(up[0]-'A') + 1, nil
}

var romanTable = []struct {
	value  int
	symbol string
}{
	{1000, "M"}, {900, "CM"}, {500, "D"}, {400, "CD"}, {100, "C"}, {90, "XC"},
	{50, "L"}, {40, "XL"}, {10, "X"}, {9, "IX"}, {5, "V"}, {4, "IV"}, {1, "I"},
}

func roman(n int) string {
	var b strings.Builder
	for _, r := range romanTable {
		for n >= r.value {
			b.WriteString(r.symbol)
			n -= r.value
		}
	}
	return b.String()
}

func parseRoman(tok string) (int, error) {
	up := strings.ToUpper(tok)
	s, n := up, 0
	for _, r := range romanTable {
		for strings.HasPrefix(s, r.symbol) {
			n += r.value
			s = s[len(r.symbol):]
		}
	}
	if s != "" || n == 0 || roman(n) != up {
		return 0, fmt.Errorf("not a roman numeral: %q", tok)
	}
	return n, nil
}

// StoredNumbering returns the dot-joined stored form.
func StoredNumbering(nums []int) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ".")
}

// ParseStoredNumbering reads a dot-joined stored numbering.
func ParseStoredNumbering(stored string) ([]int, error) {
	s := strings.TrimSpace(stored)
	if s == "" {
		return nil, formatErr("numbering", stored, "empty numbering")
	}
	parts := strings.Split(s, ".")
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > MaxNumberingLevel {
			return nil, formatErr("numbering", stored, fmt.Sprintf("bad level %q", p))
		}
		nums[i] = n
	}
	return nums, nil
}

// CompareNumbering orders outline numbers level by level as integers; a
// prefix sorts before its extensions.
func CompareNumbering(a, b []int) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}
