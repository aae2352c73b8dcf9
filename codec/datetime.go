// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

package codec

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/ncruces/go-strftime"
)

const (
	DateStoredLayout     = "2006-01-02"
	TimeStoredLayout     = "15:04:05.000000"
	DateTimeStoredLayout = "2006-01-02 15:04:05.000000"

	DefaultDateFormat           = "%B %d, %Y"
	DefaultTimeFormat           = "%I:%M:%S %p"
	DefaultDateTimeFormat       = "%B %d, %Y %I:%M:%S %p"
	DefaultDateEditorFormat     = "%m/%d/%Y"
	DefaultTimeEditorFormat     = "%H:%M:%S"
	DefaultDateTimeEditorFormat = "%m/%d/%Y %H:%M:%S"

	// NowSentinel is stored in place of a literal value when the current
	// date or time is substituted at creation or evaluation time.
	NowSentinel = "now"
	// NowEditorText is the editor form of NowSentinel.
	NowEditorText = "Now"
)

var epoch = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)

// IsNow reports whether text is the now sentinel in stored or editor form.
func IsNow(text string) bool {
	return strings.EqualFold(strings.TrimSpace(text), NowSentinel)
}

// ResolveNow returns the wall-clock components of now as a UTC time.
func ResolveNow(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), now.Minute(),
		now.Second(), now.Nanosecond()/1000*1000, time.UTC)
}

// ExpandYear applies the two-digit year pivot: 00-49 are 20xx, 50-99 are 19xx.
func ExpandYear(yy int) int {
	if yy < 50 {
		return 2000 + yy
	}
	return 1900 + yy
}

// StoredDate returns the stored form of the date part of t.
func StoredDate(t time.Time) string {
	return t.Format(DateStoredLayout)
}

// StoredTime returns the stored form of the time-of-day part of t.
func StoredTime(t time.Time) string {
	return t.Format(TimeStoredLayout)
}

// StoredDateTime returns the stored form of t.
func StoredDateTime(t time.Time) string {
	return t.Format(DateTimeStoredLayout)
}

// ParseStoredDate reads a YYYY-MM-DD stored date.
func ParseStoredDate(stored string) (time.Time, error) {
	t, err := time.Parse(DateStoredLayout, strings.TrimSpace(stored))
	if err != nil {
		return time.Time{}, &FormatError{Kind: "date", Text: stored, Partial: stored, Msg: "not an ISO date", Err: err}
	}
	return t, nil
}

// ParseStoredTime reads a stored time; the fractional part is optional.
func ParseStoredTime(stored string) (time.Time, error) {
	s := strings.TrimSpace(stored)
	for _, layout := range []string{"15:04:05.999999", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(1900, 1, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC), nil
		}
	}
	return time.Time{}, formatErr("time", stored, "not an ISO time")
}

// ParseStoredDateTime reads a stored date and time, with a space or T between.
func ParseStoredDateTime(stored string) (time.Time, error) {
	s := strings.Replace(strings.TrimSpace(stored), "T", " ", 1)
	for _, layout := range []string{"2006-01-02 15:04:05.999999", "2006-01-02 15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, formatErr("datetime", stored, "not an ISO date and time")
}

// FormatStrftime renders t with strftime directives. %f expands to
// zero-padded microseconds.
func FormatStrftime(pattern string, t time.Time) string {
	if !strings.Contains(pattern, "%f") {
		return strftime.Format(pattern, t)
	}
	micro := fmt.Sprintf("%06d", t.Nanosecond()/1000)
	var b strings.Builder
	for i := 0; i < len(pattern); i++ {
		if pattern[i] == '%' && i+1 < len(pattern) {
			switch pattern[i+1] {
			case 'f':
				b.WriteString(micro)
				i++
				continue
			case '%':
				b.WriteString("%%")
				i++
				continue
			}
		}
		b.WriteByte(pattern[i])
	}
	return strftime.Format(b.String(), t)
}

// WithFraction extends every %S directive with .%f so sub-second values
// survive an editor round trip.
func WithFraction(pattern string) string {
	if strings.Contains(pattern, "%f") {
		return pattern
	}
	return strings.ReplaceAll(pattern, "%S", "%S.%f")
}

const (
	parseDirectives  = "YymdejHIMSfpbBhaA%"
	formatDirectives = parseDirectives + "cCDFgGklLnNPrRstTuUVwWxXzZ"
)

// CheckStrftime rejects an empty pattern or one holding a directive that
// FormatStrftime cannot render. With forParse set, the directives must also
// be readable by ParseStrftime.
func CheckStrftime(pattern string, forParse bool) error {
	if strings.TrimSpace(pattern) == "" {
		return fmt.Errorf("empty date format")
	}
	allowed := formatDirectives
	if forParse {
		allowed = parseDirectives
	}
	for i := 0; i < len(pattern); i++ {
		if pattern[i] != '%' {
			continue
		}
		if i+1 >= len(pattern) {
			return fmt.Errorf("dangling %% at end of %q", pattern)
		}
		i++
		if !strings.ContainsRune(allowed, rune(pattern[i])) {
			return fmt.Errorf("unsupported directive %%%c in %q", pattern[i], pattern)
		}
	}
	return nil
}

var monthNames = []string{"january", "february", "march", "april", "may", "june", "july",
	"august", "september", "october", "november", "december"}

var weekdayNames = []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// ParseStrftime reads text laid out by a strftime pattern. Numeric fields
// accept unpadded input; %y and short %Y input use the ExpandYear pivot; %S
// accepts an optional fractional part. Whitespace in the pattern matches any
// run of whitespace.
func ParseStrftime(pattern, text string) (time.Time, error) {
	year, month, day := 1900, 1, 1
	hour, minute, sec, nano := 0, 0, 0, 0
	yday := 0
	pm, hasAMPM := false, false
	s := text
	fail := func(msg string) (time.Time, error) {
		return time.Time{}, formatErr("date", text, fmt.Sprintf("does not match %q: %s", pattern, msg))
	}

	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if unicode.IsSpace(rune(c)) {
			s = strings.TrimLeftFunc(s, unicode.IsSpace)
			continue
		}
		if c != '%' || i+1 >= len(pattern) {
			if s == "" || (s[0] != c && (c >= 0x80 || !strings.EqualFold(s[:1], string(c)))) {
				return fail(fmt.Sprintf("expected %q", c))
			}
			s = s[1:]
			continue
		}
		i++
		var n, width int
		var ok bool
		switch pattern[i] {
		case 'Y':
			if n, width, ok = readInt(&s, 4); !ok {
				return fail("expected year")
			}
			year = n
			if width <= 2 {
				year = ExpandYear(n)
			}
		case 'y':
			if n, _, ok = readInt(&s, 2); !ok {
				return fail("expected two-digit year")
			}
			year = ExpandYear(n)
		case 'm':
			if month, _, ok = readInt(&s, 2); !ok || month < 1 || month > 12 {
				return fail("expected month")
			}
		case 'd', 'e':
			s = strings.TrimLeft(s, " ")
			if day, _, ok = readInt(&s, 2); !ok || day < 1 || day > 31 {
				return fail("expected day")
			}
		case 'j':
			if yday, _, ok = readInt(&s, 3); !ok || yday < 1 || yday > 366 {
				return fail("expected day of year")
			}
		case 'H':
			if hour, _, ok = readInt(&s, 2); !ok || hour > 23 {
				return fail("expected hour")
			}
		case 'I':
			if hour, _, ok = readInt(&s, 2); !ok || hour < 1 || hour > 12 {
				return fail("expected 12-hour clock hour")
			}
		case 'M':
			if minute, _, ok = readInt(&s, 2); !ok || minute > 59 {
				return fail("expected minute")
			}
		case 'S':
			if sec, _, ok = readInt(&s, 2); !ok || sec > 59 {
				return fail("expected second")
			}
			if strings.HasPrefix(s, ".") && (i+2 >= len(pattern) || pattern[i+1:i+3] != ".%") {
				rest := s[1:]
				if n, width, ok = readInt(&rest, 6); ok {
					nano = n * int(math.Pow10(9-width))
					s = rest
				}
			}
		case 'f':
			if n, width, ok = readInt(&s, 6); !ok {
				return fail("expected microseconds")
			}
			nano = n * int(math.Pow10(9-width))
		case 'p':
			switch {
			case len(s) >= 2 && strings.EqualFold(s[:2], "am"):
				pm = false
			case len(s) >= 2 && strings.EqualFold(s[:2], "pm"):
				pm = true
			default:
				return fail("expected AM or PM")
			}
			hasAMPM = true
			s = s[2:]
		case 'b', 'B', 'h':
			if month, ok = readName(&s, monthNames); !ok {
				return fail("expected month name")
			}
		case 'a', 'A':
			if _, ok = readName(&s, weekdayNames); !ok {
				return fail("expected weekday name")
			}
		case '%':
			if !strings.HasPrefix(s, "%") {
				return fail("expected %")
			}
			s = s[1:]
		default:
			return time.Time{}, fmt.Errorf("unsupported directive %%%c in %q", pattern[i], pattern)
		}
	}
	if strings.TrimSpace(s) != "" {
		return fail(fmt.Sprintf("unexpected trailing text %q", s))
	}
	if hasAMPM {
		hour %= 12
		if pm {
			hour += 12
		}
	}
	if yday > 0 {
		t := time.Date(year, 1, 1, hour, minute, sec, nano, time.UTC).AddDate(0, 0, yday-1)
		if t.Year() != year {
			return fail("day of year out of range")
		}
		return t, nil
	}
	t := time.Date(year, time.Month(month), day, hour, minute, sec, nano, time.UTC)
	if t.Day() != day {
		return fail("day out of range for month")
	}
	return t, nil
}

func readInt(s *string, maxDigits int) (n, width int, ok bool) {
	str := *s
	for width < len(str) && width < maxDigits && str[width] >= '0' && str[width] <= '9' {
		width++
	}
	if width == 0 {
		return 0, 0, false
	}
	n, err := strconv.Atoi(str[:width])
	if err != nil {
		return 0, 0, false
	}
	*s = str[width:]
	return n, width, true
}

// readName matches a full name or its three-letter abbreviation and returns
// the 1-based index.
func readName(s *string, names []string) (int, bool) {
	lower := strings.ToLower(*s)
	for i, name := range names {
		if strings.HasPrefix(lower, name) {
			*s = (*s)[len(name):]
			return i + 1, true
		}
	}
	for i, name := range names {
		if strings.HasPrefix(lower, name[:3]) {
			*s = (*s)[3:]
			return i + 1, true
		}
	}
	return 0, false
}

// DateOrdinal is the day offset of t's date from 1970-01-01.
func DateOrdinal(t time.Time) float64 {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return math.Round(d.Sub(epoch).Hours() / 24)
}

// DateFromOrdinal inverts DateOrdinal; fractional days are dropped.
func DateFromOrdinal(days float64) time.Time {
	return epoch.AddDate(0, 0, int(math.Floor(days)))
}

// TimeSeconds is the number of seconds since midnight.
func TimeSeconds(t time.Time) float64 {
	return float64(t.Hour()*3600+t.Minute()*60+t.Second()) + float64(t.Nanosecond())/1e9
}

// TimeFromSeconds wraps secs into one day and returns that time of day.
func TimeFromSeconds(secs float64) time.Time {
	secs = math.Mod(secs, 86400)
	if secs < 0 {
		secs += 86400
	}
	micros := int64(math.Round(secs * 1e6))
	return time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(micros) * time.Microsecond)
}

// DateTimeSeconds is the number of seconds since 1970-01-01 00:00.
func DateTimeSeconds(t time.Time) float64 {
	u := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	return float64(u.Sub(epoch).Microseconds()) / 1e6
}

// DateTimeFromSeconds inverts DateTimeSeconds.
func DateTimeFromSeconds(secs float64) time.Time {
	return epoch.Add(time.Duration(math.Round(secs*1e6)) * time.Microsecond)
}
