// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

package fieldformat

import (
	"time"

	"github.com/doug-101/TreeLine-sub000/codec"
)

// Settings are the document-scoped options that change how fields format
// and evaluate.
type Settings struct {
	// ZeroBlanks makes blank fields count as zero, false or empty text in
	// math equations. When false a blank reference leaves the result blank.
	ZeroBlanks bool `json:"zero_blanks" mapstructure:"zero_blanks" yaml:"zero_blanks"`

	DateEditorFormat     string `json:"date_editor_format,omitempty" mapstructure:"date_editor_format" yaml:"date_editor_format,omitempty"`
	TimeEditorFormat     string `json:"time_editor_format,omitempty" mapstructure:"time_editor_format" yaml:"time_editor_format,omitempty"`
	DateTimeEditorFormat string `json:"datetime_editor_format,omitempty" mapstructure:"datetime_editor_format" yaml:"datetime_editor_format,omitempty"`
}

// DefaultSettings returns the settings of a new document.
func DefaultSettings() Settings {
	return Settings{
		ZeroBlanks:           true,
		DateEditorFormat:     codec.DefaultDateEditorFormat,
		TimeEditorFormat:     codec.DefaultTimeEditorFormat,
		DateTimeEditorFormat: codec.DefaultDateTimeEditorFormat,
	}
}

// NodeLookup resolves internal link targets.
type NodeLookup interface {
	NodeTitle(id string) (string, bool)
}

// Env is the context a field needs beyond its own definition: document
// settings, the clock that resolves "now", and the node lookup used by
// internal links. A nil *Env uses DefaultSettings, the wall clock and no
// lookup.
type Env struct {
	Settings Settings
	Now      time.Time
	Links    NodeLookup
}

func (e *Env) settings() Settings {
	if e == nil {
		return DefaultSettings()
	}
	return e.Settings
}

func (e *Env) now() time.Time {
	if e == nil || e.Now.IsZero() {
		return time.Now()
	}
	return e.Now
}

func (e *Env) lookup(id string) (string, bool) {
	if e == nil || e.Links == nil {
		return "", false
	}
	return e.Links.NodeTitle(id)
}

// OutputOptions select the form of FormatOutput.
type OutputOptions struct {
	// TitleMode returns plain text limited to the first line.
	TitleMode bool
	// AllowMarkup returns HTML; otherwise markup is stripped and entities
	// are decoded.
	AllowMarkup bool
	Env         *Env
}
