// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

package fieldformat

import (
	"fmt"

	"github.com/doug-101/TreeLine-sub000/codec"
	"github.com/doug-101/TreeLine-sub000/equation"
)

// variant holds the compiled format of one field type. Callers handle blank
// stored values before dispatching here.
type variant interface {
	output(stored string, env *Env, markup bool) (string, error)
	editorText(stored string, env *Env) (string, error)
	storedText(editor string, env *Env) (string, error)
	mathValue(stored string, env *Env) (equation.Value, error)
	placeholder() equation.Value
	sortKey(stored string, env *Env) SortKey
}

func newVariant(f *FieldDefinition) (variant, error) {
	bad := func(err error) (variant, error) {
		return nil, invalid(f.Name, "format", f.Format, err)
	}
	switch f.Type {
	case TypeText, TypeHtmlText, TypeOneLineText, TypeSpacedText:
		return &textVariant{typ: f.Type}, nil
	case TypeNumber:
		nf, err := codec.ParseNumberFormat(f.Format)
		if err != nil {
			return bad(err)
		}
		return &numberVariant{nf: nf}, nil
	case TypeNumbering:
		nf, err := codec.ParseNumberingFormat(f.Format)
		if err != nil {
			return bad(err)
		}
		return &numberingVariant{nf: nf}, nil
	case TypeDate, TypeTime, TypeDateTime:
		return newDateVariant(f)
	case TypeBoolean:
		pattern := f.Format
		if pattern == "" {
			pattern = codec.DefaultBoolFormat
		}
		bf, err := codec.ParseBoolFormat(pattern)
		if err != nil {
			return bad(err)
		}
		return &boolVariant{bf: bf}, nil
	case TypeChoice, TypeAutoChoice:
		return newChoiceVariant(f)
	case TypeCombination, TypeAutoCombination:
		return newCombinationVariant(f)
	case TypeExternalLink:
		return &externalLinkVariant{}, nil
	case TypeInternalLink:
		return &internalLinkVariant{}, nil
	case TypePicture:
		return &pictureVariant{}, nil
	case TypeRegularExpression:
		return newRegexVariant(f)
	case TypeMath:
		return newMathVariant(f)
	}
	return nil, invalid(f.Name, "fieldtype", f.Type, fmt.Errorf("unknown field type %q", f.Type))
}
