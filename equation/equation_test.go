// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

package equation

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doug-101/TreeLine-sub000/codec"
)

// mapResolver resolves references from a fixed table keyed by Ref.String().
type mapResolver map[string]Value

func (m mapResolver) Resolve(ref Ref, zeroBlanks bool) (Value, error) {
	v, ok := m[ref.String()]
	if !ok {
		return Blank, evalErrorf("unknown field %s", ref)
	}
	return v, nil
}

var testFields = mapResolver{
	"{*A*}":      NumberValue(4),
	"{**B*}":     NumberValue(6),
	"{*$Name*}":  TextValue("root"),
	"{*&Count*}": ListValue(NumberValue(2), NumberValue(3), NumberValue(5)),
	"{*#Count*}": NumberValue(3),
	"{*Missing*}": Blank,
	"{*Due*}":    DateValue(codec.DateOrdinal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))),
}

func TestEval(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want Value
	}{
		{"precedence", "1 + 2 * 3", NumberValue(7)},
		{"parentheses", "(1 + 2) * 3", NumberValue(9)},
		{"power right assoc", "2 ** 3 ** 2", NumberValue(512)},
		{"unary binds looser than power", "-2 ** 2", NumberValue(-4)},
		{"floor division", "-7 // 2", NumberValue(-4)},
		{"modulo sign of divisor", "-7 % 3", NumberValue(2)},
		{"exponent literal", "1.5e3 / 3", NumberValue(500)},
		{"constants", "round(pi, 2)", NumberValue(3.14)},
		{"chained comparison", "1 < 2 < 3", BoolValue(true)},
		{"chained comparison false", "3 > 2 > 2", BoolValue(false)},
		{"mixed kinds unequal", "1 == 'a'", BoolValue(false)},
		{"text concat", "'a' + \"b\"", TextValue("ab")},
		{"text with number", "'n=' + 3", TextValue("n=3")},
		{"text repeat", "'ab' * 2", TextValue("abab")},
		{"conditional", "10 if 1 > 2 else 20", NumberValue(20)},
		{"or returns operand", "0 or 5", NumberValue(5)},
		{"and returns operand", "2 and 0", NumberValue(0)},
		{"not", "not 0", BoolValue(true)},
		{"self and parent refs", "{*A*} + {**B*}", NumberValue(10)},
		{"root ref", "upper({*$Name*})", TextValue("ROOT")},
		{"child sum", "sum({*&Count*})", NumberValue(10)},
		{"child count", "{*#Count*} * 2", NumberValue(6)},
		{"aggregates flatten", "max({*&Count*}, 4)", NumberValue(5)},
		{"mean", "mean(2, 4)", NumberValue(3)},
		{"min", "min(3, 1, 2)", NumberValue(1)},
		{"round half even", "round(2.5)", NumberValue(2)},
		{"round digits", "round(2.567, 2)", NumberValue(2.57)},
		{"factorial", "factorial(5)", NumberValue(120)},
		{"int truncates", "int(-2.7)", NumberValue(-2)},
		{"float from text", "float('2.5') + 1", NumberValue(3.5)},
		{"join", "join({*&Count*}, '+')", TextValue("2+3+5")},
		{"replace", "replace('a-b', '-', '+')", TextValue("a+b")},
		{"startswith", "startswith('hello', 'he')", BoolValue(true)},
		{"contains text", "contains('hello', 'ell')", BoolValue(true)},
		{"contains list", "contains({*&Count*}, 3)", BoolValue(true)},
		{"len counts runes", "len('héllo')", NumberValue(5)},
		{"date difference", "date(2024, 3, 1) - date(2024, 2, 1)", NumberValue(29)},
		{"date plus days", "{*Due*} + 1", DateValue(codec.DateOrdinal(time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)))},
		{"time difference", "time(10, 30) - time(9, 0)", NumberValue(5400)},
		{"date plus time", "date(1970, 1, 2) + time(1, 0)", DateTimeValue(90000)},
		{"date comparison", "{*Due*} > date(2024, 2, 29)", BoolValue(true)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eq, err := Parse(tt.src)
			require.NoError(t, err)
			got, err := eq.Eval(testFields, EvalOptions{})
			require.NoError(t, err)
			assert.Equal(t, tt.want.Kind, got.Kind)
			switch got.Kind {
			case KindText:
				assert.Equal(t, tt.want.Str, got.Str)
			case KindBool:
				assert.Equal(t, tt.want.Bool, got.Bool)
			default:
				assert.InDelta(t, tt.want.Num, got.Num, 1e-9)
			}
		})
	}
}

func TestEvalErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"division by zero", "1 / 0"},
		{"modulo by zero", "5 % 0"},
		{"text minus number", "'a' - 1"},
		{"ordering mixed kinds", "1 < 'a'"},
		{"sqrt domain", "sqrt(-1)"},
		{"log domain", "log(0)"},
		{"factorial of fraction", "factorial(2.5)"},
		{"bad date", "date(2024, 2, 30)"},
		{"list subtraction", "{*&Count*} - {*&Count*}"},
		{"mean of empty text", "mean('')"},
		{"unknown field", "{*Nope*} + 1"},
		{"text not a number", "float('abc')"},
		{"repeat past length limit", "'ab' * 600000"},
		{"repeat count overflows", "'abcdefghij' * 1000000000000000000"},
		{"repeat by huge float", "'a' * 1e300"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eq, err := Parse(tt.src)
			require.NoError(t, err)
			_, err = eq.Eval(testFields, EvalOptions{})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrEval), "error %v should match ErrEval", err)
			assert.False(t, errors.Is(err, ErrBlank))
		})
	}
}

func TestEvalBlankPolicy(t *testing.T) {
	eq := MustParse("{*Missing*} + 1")

	_, err := eq.Eval(testFields, EvalOptions{})
	assert.ErrorIs(t, err, ErrBlank)

	got, err := eq.Eval(testFields, EvalOptions{ZeroBlanks: true})
	require.NoError(t, err)
	assert.Equal(t, NumberValue(1), got)

	text := MustParse("{*Missing*} + 'x'")
	got, err = text.Eval(testFields, EvalOptions{ZeroBlanks: true, Placeholder: TextValue("")})
	require.NoError(t, err)
	assert.Equal(t, TextValue("x"), got)

	// the untaken branch is never resolved
	lazy := MustParse("1 if true else {*Missing*}")
	got, err = lazy.Eval(testFields, EvalOptions{})
	require.NoError(t, err)
	assert.Equal(t, NumberValue(1), got)
}

func TestEvalResolverError(t *testing.T) {
	boom := errors.New("boom")
	r := ResolverFunc(func(Ref, bool) (Value, error) { return Blank, boom })
	_, err := MustParse("{*A*}").Eval(r, EvalOptions{})
	assert.ErrorIs(t, err, boom)
}

func TestEvalClock(t *testing.T) {
	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	got, err := MustParse("today()").Eval(nil, EvalOptions{Now: now})
	require.NoError(t, err)
	assert.Equal(t, KindDate, got.Kind)
	assert.Equal(t, "2024-05-06", got.Text())

	_, err = MustParse("now() - today()").Eval(nil, EvalOptions{Now: now})
	assert.ErrorIs(t, err, ErrEval, "datetime minus date is not defined")
}

func TestParseErrors(t *testing.T) {
	for _, src := range []string{
		"",
		"1 +",
		"(1",
		"foo(1)",
		"sum()",
		"pow(1)",
		"{*A",
		"{**}",
		"{*$*}",
		"1 if 2",
		"2x",
		"'abc",
		"bogus",
		"1 2",
	} {
		t.Run(src, func(t *testing.T) {
			_, err := Parse(src)
			var se *SyntaxError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, src, se.Source)
		})
	}
}

func TestRefs(t *testing.T) {
	eq := MustParse("{*A*} + {*A*} * sum({*&B*}) + {**C*}")
	assert.Equal(t, []Ref{
		{Field: "A", Rel: RelSelf},
		{Field: "B", Rel: RelChildren},
		{Field: "C", Rel: RelParent},
	}, eq.Refs())
	assert.True(t, eq.ReadsDown())
	assert.False(t, MustParse("{*$A*} + {**B*}").ReadsDown())
}

func TestRenameField(t *testing.T) {
	eq := MustParse("{*Old*} + {**Old*} + {*Other*} + {*#Old*}")
	assert.Equal(t, "{*New*} + {**New*} + {*Other*} + {*#New*}", eq.RenameField("Old", "New"))
	assert.Equal(t, eq.Source(), eq.RenameField("Absent", "X"))
	assert.Equal(t, "{*Old*} + {**New*} + {*Other*} + {*#Old*}", eq.RenameField("Old", "New", RelParent, RelChildren))
}

func TestResultStore(t *testing.T) {
	tests := []struct {
		name    string
		kind    ResultKind
		value   Value
		want    string
		wantErr bool
	}{
		{"number", ResultNumber, NumberValue(10), "10", false},
		{"number from bool", ResultNumber, BoolValue(true), "1", false},
		{"blank", ResultNumber, Blank, "", false},
		{"date from offset", ResultDate, NumberValue(0), "1970-01-01", false},
		{"date from date", ResultDate, DateValue(31), "1970-02-01", false},
		{"date from text", ResultDate, TextValue("2024-01-05"), "2024-01-05", false},
		{"time from seconds", ResultTime, NumberValue(3661), "01:01:01.000000", false},
		{"time wraps", ResultTime, TimeValue(86400 + 60), "00:01:00.000000", false},
		{"boolean from number", ResultBoolean, NumberValue(2), "True", false},
		{"text", ResultText, NumberValue(2.5), "2.5", false},
		{"text of list", ResultText, ListValue(TextValue("a"), TextValue("b")), "a, b", false},
		{"number from text", ResultNumber, TextValue("x"), "", true},
		{"date from bool", ResultDate, BoolValue(true), "", true},
		{"list as number", ResultNumber, ListValue(NumberValue(1)), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.kind.Store(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseResultKind(t *testing.T) {
	k, err := ParseResultKind("")
	require.NoError(t, err)
	assert.Equal(t, ResultNumber, k)

	k, err = ParseResultKind("Date")
	require.NoError(t, err)
	assert.Equal(t, ResultDate, k)

	_, err = ParseResultKind("bogus")
	assert.Error(t, err)

	assert.Equal(t, BoolValue(false), ResultBoolean.Placeholder())
	assert.Equal(t, NumberValue(0), ResultNumber.Placeholder())
}
