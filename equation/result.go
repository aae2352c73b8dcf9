// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

package equation

import (
	"fmt"
	"strings"

	"github.com/doug-101/TreeLine-sub000/codec"
)

// ResultKind is the declared result type of a math field. It decides how an
// equation result is stored and which placeholder stands in for a blank.
type ResultKind string

const (
	ResultNumber  ResultKind = "number"
	ResultDate    ResultKind = "date"
	ResultTime    ResultKind = "time"
	ResultBoolean ResultKind = "boolean"
	ResultText    ResultKind = "text"
)

// ResultKinds lists the valid result kinds.
func ResultKinds() []ResultKind {
	return []ResultKind{ResultNumber, ResultDate, ResultTime, ResultBoolean, ResultText}
}

// ParseResultKind reads a result kind name; empty means number.
func ParseResultKind(name string) (ResultKind, error) {
	k := ResultKind(strings.ToLower(strings.TrimSpace(name)))
	if k == "" {
		return ResultNumber, nil
	}
	for _, valid := range ResultKinds() {
		if k == valid {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown result type %q", name)
}

// Placeholder is the value a blank field of this kind contributes when
// blanks are replaced by zeros.
func (k ResultKind) Placeholder() Value {
	switch k {
	case ResultDate:
		return DateValue(0)
	case ResultTime:
		return TimeValue(0)
	case ResultBoolean:
		return BoolValue(false)
	case ResultText:
		return TextValue("")
	}
	return NumberValue(0)
}

// Store converts an equation result to the stored form of this kind. Numbers
// become dates as day offsets from 1970-01-01 and times as seconds since
// midnight. A blank value stores as the empty string.
func (k ResultKind) Store(v Value) (string, error) {
	if v.IsBlank() {
		return "", nil
	}
	switch k {
	case ResultNumber:
		if v.Kind == KindList {
			return "", evalErrorf("cannot store a list as a number")
		}
		n, err := v.AsNumber()
		if err != nil {
			return "", err
		}
		return codec.CanonicalNumber(n), nil
	case ResultDate:
		switch v.Kind {
		case KindDate, KindNumber:
			return codec.StoredDate(codec.DateFromOrdinal(v.Num)), nil
		case KindDateTime:
			return codec.StoredDate(codec.DateTimeFromSeconds(v.Num)), nil
		case KindText:
			t, err := codec.ParseStoredDate(v.Str)
			if err != nil {
				return "", &EvalError{Msg: "text result is not a date", Err: err}
			}
			return codec.StoredDate(t), nil
		}
	case ResultTime:
		switch v.Kind {
		case KindTime, KindNumber:
			return codec.StoredTime(codec.TimeFromSeconds(v.Num)), nil
		case KindDateTime:
			return codec.StoredTime(codec.DateTimeFromSeconds(v.Num)), nil
		case KindText:
			t, err := codec.ParseStoredTime(v.Str)
			if err != nil {
				return "", &EvalError{Msg: "text result is not a time", Err: err}
			}
			return codec.StoredTime(t), nil
		}
	case ResultBoolean:
		return codec.StoredBool(v.Truth()), nil
	case ResultText:
		return v.Text(), nil
	default:
		return "", fmt.Errorf("unknown result type %q", string(k))
	}
	return "", evalErrorf("cannot store a %s as a %s", v.Kind, string(k))
}
