// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

package codec

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultNumberFormat is used by number fields without an explicit pattern.
const DefaultNumberFormat = "#.##"

// NumberFormat is a compiled number pattern.
//
// Pattern grammar:
//
//	#      optional digit
//	0      required digit
//	.      decimal separator (or \, for a decimal comma)
//	, ' or space   group separator in the integer part
//	+ or - sign marker, leading or trailing (+ always shows the sign)
//	e or E exponent marker, followed by an optional sign marker and digits
type NumberFormat struct {
	pattern      string
	signAlways   bool
	signTrailing bool
	intMin       int
	groupSep     string
	groupSize    int
	decimalSep   string
	fracMin      int
	fracMax      int
	exp          bool
	expChar      byte
	expSign      bool
	expMin       int
}

// ParseNumberFormat compiles a number pattern. An empty pattern formats with
// full precision and no grouping.
func ParseNumberFormat(pattern string) (NumberFormat, error) {
	nf := NumberFormat{pattern: pattern, decimalSep: ".", fracMax: -1}
	p := strings.TrimSpace(pattern)
	if p == "" {
		return nf, nil
	}

	switch p[0] {
	case '+':
		nf.signAlways = true
		p = p[1:]
	case '-':
		p = p[1:]
	default:
		if last := p[len(p)-1]; last == '+' || last == '-' {
			// a trailing sign after an exponent belongs to the exponent only
			// when the exponent has no digits, which is invalid anyway
			nf.signAlways = last == '+'
			nf.signTrailing = true
			p = p[:len(p)-1]
		}
	}

	mantissa := p
	if i := strings.IndexAny(p, "eE"); i >= 0 {
		mantissa = p[:i]
		nf.exp = true
		nf.expChar = p[i]
		rest := p[i+1:]
		if rest != "" && (rest[0] == '+' || rest[0] == '-') {
			nf.expSign = rest[0] == '+'
			rest = rest[1:]
		}
		if rest == "" {
			return nf, fmt.Errorf("invalid number format %q: exponent needs digit placeholders", pattern)
		}
		for _, c := range rest {
			switch c {
			case '0':
				nf.expMin++
			case '#':
			default:
				return nf, fmt.Errorf("invalid number format %q: unexpected %q in exponent", pattern, c)
			}
		}
	}

	intPart, fracPart := mantissa, ""
	hasDecimal := false
	groupChars := ", '"
	if i := strings.Index(mantissa, `\,`); i >= 0 {
		nf.decimalSep = ","
		groupChars = ". '"
		intPart, fracPart = mantissa[:i], mantissa[i+2:]
		hasDecimal = true
	} else if i := strings.IndexByte(mantissa, '.'); i >= 0 {
		intPart, fracPart = mantissa[:i], mantissa[i+1:]
		hasDecimal = true
	}

	placeholders := 0
	sinceGroup := -1
	for _, c := range intPart {
		switch {
		case c == '0':
			nf.intMin++
			placeholders++
			if sinceGroup >= 0 {
				sinceGroup++
			}
		case c == '#':
			placeholders++
			if sinceGroup >= 0 {
				sinceGroup++
			}
		case strings.ContainsRune(groupChars, c):
			nf.groupSep = string(c)
			sinceGroup = 0
		default:
			return nf, fmt.Errorf("invalid number format %q: unexpected %q", pattern, c)
		}
	}
	if nf.groupSep != "" {
		if sinceGroup <= 0 {
			return nf, fmt.Errorf("invalid number format %q: group separator needs following digits", pattern)
		}
		nf.groupSize = sinceGroup
	}

	nf.fracMax = 0
	if hasDecimal {
		for i, c := range fracPart {
			switch c {
			case '0':
				nf.fracMin = i + 1
			case '#':
			default:
				return nf, fmt.Errorf("invalid number format %q: unexpected %q in fraction", pattern, c)
			}
		}
		nf.fracMax = len(fracPart)
	}
	if placeholders == 0 && nf.fracMax == 0 {
		return nf, fmt.Errorf("invalid number format %q: no digit placeholders", pattern)
	}
	return nf, nil
}

// Pattern returns the source pattern.
func (nf NumberFormat) Pattern() string {
	return nf.pattern
}

// Format renders v according to the pattern.
func (nf NumberFormat) Format(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	negative := v < 0
	a := math.Abs(v)

	expText := ""
	if nf.exp {
		expo := 0
		if a != 0 {
			expo = int(math.Floor(math.Log10(a)))
			a = a / math.Pow(10, float64(expo))
			if nf.fracMax >= 0 {
				r, _ := strconv.ParseFloat(strconv.FormatFloat(a, 'f', nf.fracMax, 64), 64)
				if r >= 10 {
					a /= 10
					expo++
				}
			}
		}
		expText = nf.formatExponent(expo)
	}

	var digits string
	if nf.fracMax < 0 {
		digits = strconv.FormatFloat(a, 'f', -1, 64)
	} else {
		digits = strconv.FormatFloat(a, 'f', nf.fracMax, 64)
	}
	intStr, fracStr, _ := strings.Cut(digits, ".")
	if nf.fracMax >= 0 {
		for len(fracStr) > nf.fracMin && strings.HasSuffix(fracStr, "0") {
			fracStr = fracStr[:len(fracStr)-1]
		}
	}
	for len(intStr) < nf.intMin {
		intStr = "0" + intStr
	}
	if nf.groupSep != "" {
		intStr = groupDigits(intStr, nf.groupSep, nf.groupSize)
	}

	out := intStr
	if fracStr != "" {
		out += nf.decimalSep + fracStr
	}
	out += expText

	if negative && strings.Trim(intStr+fracStr, "0"+nf.groupSep) == "" {
		negative = false
	}
	sign := ""
	if negative {
		sign = "-"
	} else if nf.signAlways {
		sign = "+"
	}
	if nf.signTrailing {
		return out + sign
	}
	return sign + out
}

func (nf NumberFormat) formatExponent(expo int) string {
	sign := ""
	if expo < 0 {
		sign = "-"
		expo = -expo
	} else if nf.expSign {
		sign = "+"
	}
	d := strconv.Itoa(expo)
	for len(d) < nf.expMin {
		d = "0" + d
	}
	return string(nf.expChar) + sign + d
}

func groupDigits(s, sep string, size int) string {
	if size <= 0 || len(s) <= size {
		return s
	}
	var b strings.Builder
	lead := len(s) % size
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += size {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(s[i : i+size])
	}
	return b.String()
}

// Parse reads editor text written with the pattern's separators.
func (nf NumberFormat) Parse(text string) (float64, error) {
	t := strings.TrimSpace(text)
	if t == "" {
		return 0, formatErr("number", text, "empty value")
	}
	if nf.groupSep != "" {
		t = strings.ReplaceAll(t, nf.groupSep, "")
	}
	if nf.decimalSep == "," {
		t = strings.ReplaceAll(t, ",", ".")
	}
	if n := len(t); n > 1 && (t[n-1] == '-' || t[n-1] == '+') {
		t = t[n-1:] + t[:n-1]
	}
	t = strings.ReplaceAll(t, " ", "")
	return parseFinite(t, text)
}

// EditorText renders v at full precision with the pattern's decimal separator,
// so Parse(EditorText(v)) == v.
func (nf NumberFormat) EditorText(v float64) string {
	s := CanonicalNumber(v)
	if nf.decimalSep == "," {
		s = strings.ReplaceAll(s, ".", ",")
	}
	return s
}

// CanonicalNumber is the stored form of a number: shortest exact decimal
// representation, without a decimal point for integral values.
func CanonicalNumber(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ParseCanonical reads a stored number.
func ParseCanonical(stored string) (float64, error) {
	return parseFinite(strings.TrimSpace(stored), stored)
}

func parseFinite(t, orig string) (float64, error) {
	lower := strings.ToLower(t)
	if strings.Contains(lower, "inf") || strings.Contains(lower, "nan") || strings.HasPrefix(lower, "0x") {
		return 0, formatErr("number", orig, "not a finite decimal number")
	}
	v, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0, &FormatError{Kind: "number", Text: orig, Partial: orig, Msg: "not a number", Err: err}
	}
	return v, nil
}
