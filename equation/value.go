// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

package equation

import (
	"strconv"
	"strings"

	"github.com/doug-101/TreeLine-sub000/codec"
)

// Kind identifies the type carried by a Value.
type Kind int

const (
	KindBlank    Kind = iota
	KindNumber        // Num
	KindDate          // Num is the day offset from 1970-01-01
	KindTime          // Num is seconds since midnight
	KindDateTime      // Num is seconds since 1970-01-01 00:00
	KindBool          // Bool
	KindText          // Str
	KindList          // List
)

var kindNames = map[Kind]string{
	KindBlank:    "blank",
	KindNumber:   "number",
	KindDate:     "date",
	KindTime:     "time",
	KindDateTime: "datetime",
	KindBool:     "boolean",
	KindText:     "text",
	KindList:     "list",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a typed equation operand or result.
type Value struct {
	Kind Kind
	Num  float64
	Str  string
	Bool bool
	List []Value
}

// Blank is the value of an absent field.
var Blank = Value{}

func NumberValue(v float64) Value { return Value{Kind: KindNumber, Num: v} }
func DateValue(days float64) Value { return Value{Kind: KindDate, Num: days} }
func TimeValue(secs float64) Value { return Value{Kind: KindTime, Num: secs} }
func DateTimeValue(secs float64) Value { return Value{Kind: KindDateTime, Num: secs} }
func BoolValue(b bool) Value { return Value{Kind: KindBool, Bool: b} }
func TextValue(s string) Value { return Value{Kind: KindText, Str: s} }
func ListValue(items ...Value) Value { return Value{Kind: KindList, List: items} }

// IsBlank reports whether v is the blank value.
func (v Value) IsBlank() bool {
	return v.Kind == KindBlank
}

func (v Value) numeric() bool {
	switch v.Kind {
	case KindNumber, KindBool:
		return true
	}
	return false
}

// AsNumber converts v to a float. Dates and times give their offsets, text
// must hold a decimal number.
func (v Value) AsNumber() (float64, error) {
	switch v.Kind {
	case KindNumber, KindDate, KindTime, KindDateTime:
		return v.Num, nil
	case KindBool:
		if v.Bool {
			return 1, nil
		}
		return 0, nil
	case KindText:
		f, err := codec.ParseCanonical(v.Str)
		if err != nil {
			return 0, &EvalError{Msg: "text is not a number", Err: err}
		}
		return f, nil
	case KindBlank:
		return 0, ErrBlank
	}
	return 0, evalErrorf("cannot use a %s as a number", v.Kind)
}

// Truth returns the boolean interpretation of v: zero, empty text, empty
// lists and blanks are false.
func (v Value) Truth() bool {
	switch v.Kind {
	case KindBool:
		return v.Bool
	case KindNumber, KindDate, KindTime, KindDateTime:
		return v.Num != 0
	case KindText:
		return v.Str != ""
	case KindList:
		return len(v.List) > 0
	}
	return false
}

// Text returns the plain text form of v used for concatenation and text
// results.
func (v Value) Text() string {
	switch v.Kind {
	case KindNumber:
		return codec.CanonicalNumber(v.Num)
	case KindDate:
		return codec.StoredDate(codec.DateFromOrdinal(v.Num))
	case KindTime:
		return codec.StoredTime(codec.TimeFromSeconds(v.Num))
	case KindDateTime:
		return codec.StoredDateTime(codec.DateTimeFromSeconds(v.Num))
	case KindBool:
		return codec.StoredBool(v.Bool)
	case KindText:
		return v.Str
	case KindList:
		parts := make([]string, len(v.List))
		for i, item := range v.List {
			parts[i] = item.Text()
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

func (v Value) String() string {
	if v.Kind == KindText {
		return strconv.Quote(v.Str)
	}
	if v.Kind == KindBlank {
		return "<blank>"
	}
	return v.Text()
}

// flatten expands nested lists into their items.
func flatten(args []Value) []Value {
	var out []Value
	for _, a := range args {
		if a.Kind == KindList {
			out = append(out, flatten(a.List)...)
			continue
		}
		out = append(out, a)
	}
	return out
}
