// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

package fieldformat

import (
	"html"
	"regexp"
	"strings"

	strip "github.com/grokify/html-strip-tags-go"

	"github.com/doug-101/TreeLine-sub000/equation"
)

var (
	// Stored text is HTML: the three markup characters are escaped and line
	// breaks become <br />.
	escaper   = strings.NewReplacer("\r\n", "<br />", "\n", "<br />", "&", "&amp;", "<", "&lt;", ">", "&gt;")
	unescaper = strings.NewReplacer("<br />", "\n", "<br/>", "\n", "<br>", "\n", "&lt;", "<", "&gt;", ">", "&amp;", "&")

	preEscaper = strings.NewReplacer("\r\n", "\n", "&", "&amp;", "<", "&lt;", ">", "&gt;")

	breakTag = regexp.MustCompile(`(?i)<br\s*/?>`)
)

func escapeText(s string) string {
	return escaper.Replace(s)
}

func unescapeText(s string) string {
	return unescaper.Replace(s)
}

// plainText turns stored HTML into display text: breaks become newlines,
// other tags are dropped and entities decoded.
func plainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	s = breakTag.ReplaceAllString(s, "\n")
	return html.UnescapeString(strip.StripTags(s))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// textVariant covers the four free-text types. They differ only in how
// editor text is escaped and how much of it is kept.
type textVariant struct {
	typ FieldType
}

func (v *textVariant) output(stored string, _ *Env, markup bool) (string, error) {
	if v.typ == TypeSpacedText {
		if markup {
			return "<pre>" + stored + "</pre>", nil
		}
		return html.UnescapeString(stored), nil
	}
	if v.typ == TypeOneLineText {
		stored = firstLine(breakTag.ReplaceAllString(stored, "\n"))
	}
	if markup {
		return stored, nil
	}
	return plainText(stored), nil
}

func (v *textVariant) editorText(stored string, _ *Env) (string, error) {
	switch v.typ {
	case TypeHtmlText:
		return stored, nil
	case TypeSpacedText:
		return html.UnescapeString(stored), nil
	}
	return unescapeText(stored), nil
}

func (v *textVariant) storedText(editor string, _ *Env) (string, error) {
	switch v.typ {
	case TypeHtmlText:
		return editor, nil
	case TypeSpacedText:
		return preEscaper.Replace(editor), nil
	case TypeOneLineText:
		return escapeText(firstLine(strings.ReplaceAll(editor, "\r\n", "\n"))), nil
	}
	return escapeText(editor), nil
}

func (v *textVariant) mathValue(stored string, _ *Env) (equation.Value, error) {
	if v.typ == TypeSpacedText {
		return equation.TextValue(html.UnescapeString(stored)), nil
	}
	return equation.TextValue(plainText(stored)), nil
}

func (v *textVariant) placeholder() equation.Value {
	return equation.TextValue("")
}

func (v *textVariant) sortKey(stored string, _ *Env) SortKey {
	return textSortKey(stored)
}
