// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

//go:build !windows

package main

import "github.com/google/renameio/v2"

// writeFile replaces a corpus file atomically.
var writeFile = renameio.WriteFile
