// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

package codec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseStrftime(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		text    string
		want    time.Time
		wantErr bool
	}{
		{"short year pivot low", "%m/%d/%y", "1/2/03", date(2003, 1, 2), false},
		{"short year pivot high", "%m/%d/%y", "12/31/99", date(1999, 12, 31), false},
		{"two digit %Y", "%m/%d/%Y", "1/2/49", date(2049, 1, 2), false},
		{"full year", "%m/%d/%Y", "01/02/2003", date(2003, 1, 2), false},
		{"month name", "%B %d, %Y", "January 05, 2024", date(2024, 1, 5), false},
		{"month abbrev", "%b %d %Y", "feb 9 2024", date(2024, 2, 9), false},
		{"weekday ignored", "%A, %B %d, %Y", "Friday, January 05, 2024", date(2024, 1, 5), false},
		{"day of year", "%Y-%j", "2024-060", date(2024, 2, 29), false},
		{"extra whitespace", "%m / %d / %Y", "1/2/2003", date(2003, 1, 2), false},
		{"twelve hour pm", "%I:%M:%S %p", "1:05:09 pm", time.Date(1900, 1, 1, 13, 5, 9, 0, time.UTC), false},
		{"twelve hour midnight", "%I:%M %p", "12:00 AM", time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC), false},
		{"implicit fraction", "%H:%M:%S", "08:30:15.25", time.Date(1900, 1, 1, 8, 30, 15, 250000000, time.UTC), false},
		{"explicit fraction", "%H:%M:%S.%f", "08:30:15.000123", time.Date(1900, 1, 1, 8, 30, 15, 123000, time.UTC), false},
		{"day out of range", "%m/%d/%Y", "2/30/2024", time.Time{}, true},
		{"month out of range", "%m/%d/%Y", "13/1/2024", time.Time{}, true},
		{"trailing text", "%m/%d/%Y", "1/2/2003 x", time.Time{}, true},
		{"wrong separator", "%m/%d/%Y", "1-2-2003", time.Time{}, true},
		{"missing ampm", "%I:%M %p", "10:00", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStrftime(tt.pattern, tt.text)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrFormat)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v want %v", got, tt.want)
		})
	}
}

func TestFormatStrftime(t *testing.T) {
	ts := time.Date(2024, 1, 5, 13, 5, 9, 123456000, time.UTC)
	tests := []struct {
		pattern string
		want    string
	}{
		{DefaultDateFormat, "January 05, 2024"},
		{DefaultTimeFormat, "01:05:09 PM"},
		{DefaultDateEditorFormat, "01/05/2024"},
		{"%H:%M:%S.%f", "13:05:09.123456"},
		{WithFraction("%H:%M:%S"), "13:05:09.123456"},
		{"100%% at %H", "100% at 13"},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatStrftime(tt.pattern, ts))
		})
	}
}

func TestStrftimeRoundTrip(t *testing.T) {
	ts := time.Date(2021, 7, 14, 16, 45, 30, 500000000, time.UTC)
	for _, pattern := range []string{
		WithFraction(DefaultDateTimeEditorFormat),
		WithFraction(DefaultDateTimeFormat),
		"%Y-%m-%d %H:%M:%S.%f",
	} {
		t.Run(pattern, func(t *testing.T) {
			got, err := ParseStrftime(pattern, FormatStrftime(pattern, ts))
			require.NoError(t, err)
			assert.True(t, ts.Equal(got), "got %v", got)
		})
	}
}

func TestStoredDateTime(t *testing.T) {
	ts := time.Date(2024, 3, 9, 8, 30, 0, 250000000, time.UTC)
	assert.Equal(t, "2024-03-09", StoredDate(ts))
	assert.Equal(t, "08:30:00.250000", StoredTime(ts))
	assert.Equal(t, "2024-03-09 08:30:00.250000", StoredDateTime(ts))

	d, err := ParseStoredDate("2024-03-09")
	require.NoError(t, err)
	assert.Equal(t, date(2024, 3, 9), d)

	tm, err := ParseStoredTime("08:30")
	require.NoError(t, err)
	assert.Equal(t, 8, tm.Hour())
	assert.Equal(t, 30, tm.Minute())

	dt, err := ParseStoredDateTime("2024-03-09T08:30:00.25")
	require.NoError(t, err)
	assert.True(t, ts.Equal(dt))

	_, err = ParseStoredDate("03/09/2024")
	assert.ErrorIs(t, err, ErrFormat)
	_, err = ParseStoredTime("noon")
	assert.ErrorIs(t, err, ErrFormat)
}

func TestNowSentinel(t *testing.T) {
	assert.True(t, IsNow("now"))
	assert.True(t, IsNow(" Now "))
	assert.False(t, IsNow("nowhere"))

	local := time.Date(2024, 5, 6, 7, 8, 9, 123456789, time.FixedZone("X", 3600))
	r := ResolveNow(local)
	assert.Equal(t, time.UTC, r.Location())
	assert.Equal(t, 7, r.Hour())
	assert.Equal(t, 123456000, r.Nanosecond())
}

func TestMathConversions(t *testing.T) {
	assert.Equal(t, 0.0, DateOrdinal(date(1970, 1, 1)))
	assert.Equal(t, 1.0, DateOrdinal(date(1970, 1, 2)))
	assert.Equal(t, -1.0, DateOrdinal(date(1969, 12, 31)))
	assert.Equal(t, date(2024, 2, 29), DateFromOrdinal(DateOrdinal(date(2024, 2, 29))))

	assert.Equal(t, 3661.0, TimeSeconds(time.Date(1900, 1, 1, 1, 1, 1, 0, time.UTC)))
	wrapped := TimeFromSeconds(-1)
	assert.Equal(t, 23, wrapped.Hour())
	assert.Equal(t, 59, wrapped.Second())
	assert.Equal(t, 0, TimeFromSeconds(86400).Hour())

	ts := time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)
	assert.True(t, ts.Equal(DateTimeFromSeconds(DateTimeSeconds(ts))))
}

func TestExpandYear(t *testing.T) {
	assert.Equal(t, 2000, ExpandYear(0))
	assert.Equal(t, 2049, ExpandYear(49))
	assert.Equal(t, 1950, ExpandYear(50))
	assert.Equal(t, 1999, ExpandYear(99))
}

func TestCheckStrftime(t *testing.T) {
	tests := []struct {
		pattern  string
		forParse bool
		wantErr  bool
	}{
		{"%B %d, %Y", false, false},
		{"%B %d, %Y", true, false},
		{"%A %j", true, false},
		{"%U week", false, false},
		{"%U week", true, true},
		{"%Q", false, true},
		{"100%", false, true},
		{"  ", false, true},
		{"%%d", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			err := CheckStrftime(tt.pattern, tt.forParse)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
