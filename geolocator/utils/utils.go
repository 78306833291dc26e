// Copyright 2026 The Geolocator Authors
// SPDX-License-Identifier: Apache-2.0

package utils

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Lower trims surrounding spaces and lower-cases s using full Unicode case
// mapping. Accents are kept: "Orjol" and "Orjól" are different addresses.
func Lower(s string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(s))
}

// FormatCoordinate renders a latitude or longitude with the shortest
// representation that round-trips.
func FormatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatInt formats an integer with commas for human readability.
func FormatInt(n int64) string {
	in := strconv.FormatInt(n, 10)

	numOfDigits := len(in)
	if n < 0 {
		numOfDigits-- // the sign is not a digit
	}

	numOfCommas := (numOfDigits - 1) / 3

	out := make([]byte, len(in)+numOfCommas)
	if n < 0 {
		in, out[0] = in[1:], '-'
	}

	for i, j, k := len(in)-1, len(out)-1, 0; ; i, j = i-1, j-1 {
		out[j] = in[i]
		if i == 0 {
			return string(out)
		}

		if k++; k == 3 {
			j, k = j-1, 0
			out[j] = ','
		}
	}
}
