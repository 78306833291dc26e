// Copyright 2026 The Geolocator Authors
// SPDX-License-Identifier: Apache-2.0

package geolocator

import (
	"cmp"
	"slices"
	"strings"
)

// AddressSeparator joins snippets into a composite address.
const AddressSeparator = ", "

// Candidates returns every composite address made of 1 to depth snippets,
// most promising first.
//
// Subsets are ordered by their first snippet index and then by their last
// one: everything that keeps the first (most specific) snippet is tried
// before anything that drops it, and among those the ones reaching least
// far into the remaining snippets go first. For [a b c] and depth 3 this is
// a, "a, b", "a, c", "a, b, c", b, "b, c", c.
func Candidates(snippets []string, depth int) []string {
	n := len(snippets)
	if n == 0 {
		return nil
	}

	depth = min(max(depth, 1), n)

	var subsets [][]int
	for size := 1; size <= depth; size++ {
		subsets = appendCombinations(subsets, n, size)
	}

	// stable: ties keep the smaller subsets first
	slices.SortStableFunc(subsets, func(a, b []int) int {
		if c := cmp.Compare(a[0], b[0]); c != 0 {
			return c
		}

		return cmp.Compare(a[len(a)-1], b[len(b)-1])
	})

	candidates := make([]string, len(subsets))
	parts := make([]string, 0, depth)

	for i, subset := range subsets {
		parts = parts[:0]
		for _, idx := range subset {
			parts = append(parts, snippets[idx])
		}

		candidates[i] = strings.Join(parts, AddressSeparator)
	}

	return candidates
}

// appendCombinations appends the k-sized index combinations of [0, n) in
// lexicographic order.
func appendCombinations(dst [][]int, n, k int) [][]int {
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}

	for {
		dst = append(dst, slices.Clone(idx))

		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}

		if i < 0 {
			return dst
		}

		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}

// fallbackThreshold is the candidate index from which a row of n snippets
// reports a loss of fidelity: 2^(n-1), the number of subsets keeping the
// first snippet when depth is unbounded. Lower depths do not change it.
func fallbackThreshold(n int) int {
	if n <= 0 {
		return 0
	}

	if n-1 >= 62 {
		return int(^uint(0) >> 1)
	}

	return 1 << (n - 1)
}
