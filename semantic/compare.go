// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package semantic provides a loose, total ordering over version strings.
//
// Versions are split on periods and each segment is reduced to its first run of
// ASCII digits, so qualifiers such as "-RC1" or ".Final" do not take part in the
// comparison. Missing segments compare as zero, which makes "1.2" and "1.2.0"
// equal.
package semantic

import (
	"math/big"
	"strings"
)

// Ordering is the result of comparing two versions.
type Ordering int

// The possible orderings of two versions.
const (
	Less    Ordering = -1
	Equal   Ordering = 0
	Greater Ordering = 1
)

func (o Ordering) String() string {
	switch o {
	case Less:
		return "LESS"
	case Equal:
		return "EQUAL"
	case Greater:
		return "GREATER"
	default:
		return "UNKNOWN"
	}
}

type segments []*big.Int

func (s segments) fetch(n int) *big.Int {
	if len(s) <= n {
		return big.NewInt(0)
	}

	return s[n]
}

func (s segments) cmp(b segments) int {
	n := max(len(s), len(b))

	for i := range n {
		if diff := s.fetch(i).Cmp(b.fetch(i)); diff != 0 {
			return diff
		}
	}

	return 0
}

func isASCIIDigit(c rune) bool {
	return c >= '0' && c <= '9'
}

func parse(v string) segments {
	parts := strings.Split(v, ".")
	segs := make(segments, 0, len(parts))
	for _, p := range parts {
		// Only the first run of digits in a segment counts, so "2-RC1" is 2 and
		// "Final" or "" is zero.
		start := strings.IndexFunc(p, isASCIIDigit)
		if start < 0 {
			segs = append(segs, big.NewInt(0))
			continue
		}
		p = p[start:]
		if end := strings.IndexFunc(p, func(r rune) bool { return !isASCIIDigit(r) }); end >= 0 {
			p = p[:end]
		}
		n, ok := new(big.Int).SetString(p, 10)
		if !ok {
			n = big.NewInt(0)
		}
		segs = append(segs, n)
	}

	return segs
}

// Compare returns the ordering of a relative to b. It never fails: any input
// decomposes into a (possibly empty) sequence of numeric segments.
func Compare(a, b string) Ordering {
	switch parse(a).cmp(parse(b)) {
	case -1:
		return Less
	case 1:
		return Greater
	default:
		return Equal
	}
}

// IsGreater reports whether a sorts strictly after b.
func IsGreater(a, b string) bool {
	return Compare(a, b) == Greater
}
