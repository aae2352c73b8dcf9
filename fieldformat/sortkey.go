// Copyright (c) 2024-2026 Multitech Systems, Inc.
// Author: Jason Reiss
// SPDX-License-Identifier: MIT

package fieldformat

import (
	"cmp"
	"slices"
)

// Sort ranks group values of different kinds so that mixed columns order
// deterministically: blanks first, then numbering, numbers, booleans,
// dates, date-times, times, text and links.
const (
	RankBlank     = "00"
	RankNumbering = "10"
	RankNumber    = "20"
	RankBool      = "30"
	RankDate      = "40"
	RankDateTime  = "50"
	RankTime      = "60"
	RankText      = "80"
	RankLink      = "90"
)

// SortKey orders stored values. Keys compare by Rank, then Seq, then Num,
// then Text.
type SortKey struct {
	Rank string
	Num  float64
	Seq  []int
	Text string
}

// CompareKeys returns -1, 0 or +1.
func CompareKeys(a, b SortKey) int {
	if c := cmp.Compare(a.Rank, b.Rank); c != 0 {
		return c
	}
	if c := slices.Compare(a.Seq, b.Seq); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Num, b.Num); c != 0 {
		return c
	}
	return cmp.Compare(a.Text, b.Text)
}

// Less reports whether k sorts before other.
func (k SortKey) Less(other SortKey) bool {
	return CompareKeys(k, other) < 0
}

func textSortKey(stored string) SortKey {
	return SortKey{Rank: RankText, Text: fold(plainText(stored))}
}
