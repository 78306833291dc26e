// Copyright 2026 The Geolocator Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/jcodagnone/csvgeo/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
