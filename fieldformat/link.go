// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

package fieldformat

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/doug-101/TreeLine-sub000/codec"
	"github.com/doug-101/TreeLine-sub000/equation"
)

var (
	anchorTag   = regexp.MustCompile(`(?is)^\s*<a\s+href="([^"]*)"[^>]*>(.*?)</a>\s*$`)
	imageTag    = regexp.MustCompile(`(?is)^\s*<img\s+src="([^"]*)"[^>]*/?>\s*$`)
	namedTarget = regexp.MustCompile(`^(.*?)\s*\[([^\[\]]+)\]\s*$`)
)

// parseAnchor splits a stored link into its target and display name.
func parseAnchor(stored string) (target, name string, ok bool) {
	m := anchorTag.FindStringSubmatch(stored)
	if m == nil {
		return "", "", false
	}
	return html.UnescapeString(m[1]), unescapeText(m[2]), true
}

func anchor(target, name string) string {
	return `<a href="` + html.EscapeString(target) + `">` + escapeText(name) + `</a>`
}

// splitNamed reads editor text written as "name [target]" or as a bare
// target.
func splitNamed(editor string) (target, name string) {
	editor = strings.TrimSpace(editor)
	if m := namedTarget.FindStringSubmatch(editor); m != nil {
		target, name = strings.TrimSpace(m[2]), strings.TrimSpace(m[1])
	} else {
		target = editor
	}
	if name == "" {
		name = target
	}
	return target, name
}

func linkError(kind, stored, msg string) error {
	return &codec.FormatError{Kind: kind, Text: stored, Partial: plainText(stored), Msg: msg}
}

type externalLinkVariant struct{}

func (v *externalLinkVariant) output(stored string, _ *Env, markup bool) (string, error) {
	_, name, ok := parseAnchor(stored)
	if !ok {
		return "", linkError("link", stored, "not a link")
	}
	if markup {
		return stored, nil
	}
	return name, nil
}

func (v *externalLinkVariant) editorText(stored string, _ *Env) (string, error) {
	url, name, ok := parseAnchor(stored)
	if !ok {
		return plainText(stored), linkError("link", stored, "not a link")
	}
	if name == "" || name == url {
		return url, nil
	}
	return name + " [" + url + "]", nil
}

func (v *externalLinkVariant) storedText(editor string, _ *Env) (string, error) {
	url, name := splitNamed(editor)
	if strings.ContainsAny(url, " \t\n") {
		return editor, linkError("link", editor, "address contains whitespace")
	}
	return anchor(url, name), nil
}

func (v *externalLinkVariant) mathValue(stored string, _ *Env) (equation.Value, error) {
	_, name, ok := parseAnchor(stored)
	if !ok {
		return equation.Blank, linkError("link", stored, "not a link")
	}
	return equation.TextValue(name), nil
}

func (v *externalLinkVariant) placeholder() equation.Value {
	return equation.TextValue("")
}

func (v *externalLinkVariant) sortKey(stored string, _ *Env) SortKey {
	_, name, ok := parseAnchor(stored)
	if !ok {
		return textSortKey(stored)
	}
	return SortKey{Rank: RankLink, Text: fold(name)}
}

// internalLinkVariant points at another node by ID. Output always shows the
// target's current title; a missing target shows BrokenLinkMarker.
type internalLinkVariant struct{}

func internalTarget(stored string) (string, bool) {
	target, _, ok := parseAnchor(stored)
	if !ok || !strings.HasPrefix(target, "#") || len(target) == 1 {
		return "", false
	}
	return target[1:], true
}

func (v *internalLinkVariant) resolve(stored string, env *Env) (id, title string, err error) {
	id, ok := internalTarget(stored)
	if !ok {
		return "", "", linkError("internal link", stored, "not an internal link")
	}
	title, ok = env.lookup(id)
	if !ok {
		return id, "", fmt.Errorf("node %s: %w", id, ErrBrokenLink)
	}
	return id, title, nil
}

func (v *internalLinkVariant) output(stored string, env *Env, markup bool) (string, error) {
	id, title, err := v.resolve(stored, env)
	if err != nil {
		if id != "" {
			return BrokenLinkMarker, nil
		}
		return "", err
	}
	if markup {
		return anchor("#"+id, title), nil
	}
	return title, nil
}

func (v *internalLinkVariant) editorText(stored string, env *Env) (string, error) {
	id, title, err := v.resolve(stored, env)
	if err != nil {
		if id != "" {
			return "#" + id, err
		}
		return plainText(stored), err
	}
	return title + " [#" + id + "]", nil
}

// storedText accepts "title [#id]", "#id" or a bare id. The target must
// exist.
func (v *internalLinkVariant) storedText(editor string, env *Env) (string, error) {
	target, _ := splitNamed(editor)
	id := strings.TrimPrefix(target, "#")
	if id == "" {
		return editor, linkError("internal link", editor, "missing node id")
	}
	title, ok := env.lookup(id)
	if !ok {
		return editor, fmt.Errorf("node %s: %w", id, ErrBrokenLink)
	}
	return anchor("#"+id, title), nil
}

func (v *internalLinkVariant) mathValue(stored string, env *Env) (equation.Value, error) {
	_, title, err := v.resolve(stored, env)
	if err != nil {
		return equation.Blank, err
	}
	return equation.TextValue(title), nil
}

func (v *internalLinkVariant) placeholder() equation.Value {
	return equation.TextValue("")
}

func (v *internalLinkVariant) sortKey(stored string, env *Env) SortKey {
	id, title, err := v.resolve(stored, env)
	if err != nil {
		return SortKey{Rank: RankLink, Text: fold(id)}
	}
	return SortKey{Rank: RankLink, Text: fold(title)}
}

type pictureVariant struct{}

func imageSource(stored string) (string, bool) {
	m := imageTag.FindStringSubmatch(stored)
	if m == nil {
		return "", false
	}
	return html.UnescapeString(m[1]), true
}

func (v *pictureVariant) output(stored string, _ *Env, markup bool) (string, error) {
	src, ok := imageSource(stored)
	if !ok {
		return "", linkError("picture", stored, "not an image")
	}
	if markup {
		return stored, nil
	}
	return src, nil
}

func (v *pictureVariant) editorText(stored string, _ *Env) (string, error) {
	src, ok := imageSource(stored)
	if !ok {
		return plainText(stored), linkError("picture", stored, "not an image")
	}
	return src, nil
}

func (v *pictureVariant) storedText(editor string, _ *Env) (string, error) {
	return `<img src="` + html.EscapeString(strings.TrimSpace(editor)) + `" />`, nil
}

func (v *pictureVariant) mathValue(stored string, _ *Env) (equation.Value, error) {
	src, ok := imageSource(stored)
	if !ok {
		return equation.Blank, linkError("picture", stored, "not an image")
	}
	return equation.TextValue(src), nil
}

func (v *pictureVariant) placeholder() equation.Value {
	return equation.TextValue("")
}

func (v *pictureVariant) sortKey(stored string, _ *Env) SortKey {
	src, _ := imageSource(stored)
	return SortKey{Rank: RankLink, Text: fold(src)}
}

// regexVariant accepts only text fully matching its pattern.
type regexVariant struct {
	re *regexp.Regexp
}

func newRegexVariant(f *FieldDefinition) (variant, error) {
	re, err := regexp.Compile(`^(?:` + f.Format + `)$`)
	if err != nil {
		return nil, invalid(f.Name, "format", f.Format, err)
	}
	return &regexVariant{re: re}, nil
}

func (v *regexVariant) check(text string) error {
	if v.re.MatchString(text) {
		return nil
	}
	return &codec.FormatError{Kind: "regular expression", Text: text, Partial: text,
		Msg: fmt.Sprintf("does not match %s", v.re.String())}
}

func (v *regexVariant) output(stored string, _ *Env, markup bool) (string, error) {
	text := unescapeText(stored)
	if err := v.check(text); err != nil {
		return "", err
	}
	if markup {
		return stored, nil
	}
	return text, nil
}

func (v *regexVariant) editorText(stored string, _ *Env) (string, error) {
	text := unescapeText(stored)
	return text, v.check(text)
}

func (v *regexVariant) storedText(editor string, _ *Env) (string, error) {
	if err := v.check(editor); err != nil {
		return editor, err
	}
	return escapeText(editor), nil
}

func (v *regexVariant) mathValue(stored string, _ *Env) (equation.Value, error) {
	return equation.TextValue(unescapeText(stored)), nil
}

func (v *regexVariant) placeholder() equation.Value {
	return equation.TextValue("")
}

func (v *regexVariant) sortKey(stored string, _ *Env) SortKey {
	return textSortKey(stored)
}
