// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

//go:build !windows

package main

import (
	"os"
	"testing"

	"github.com/creack/pty"
	qt "github.com/frankban/quicktest"
)

func TestIsTerminal(t *testing.T) {
	ptmx, tty, err := pty.Open()
	if err != nil {
		t.Skipf("cannot open a pseudo-terminal: %v", err)
	}
	defer ptmx.Close()
	defer tty.Close()
	qt.Assert(t, isTerminal(tty), qt.IsTrue)

	r, w, err := os.Pipe()
	qt.Assert(t, err, qt.IsNil)
	defer r.Close()
	defer w.Close()
	qt.Assert(t, isTerminal(r), qt.IsFalse)
	qt.Assert(t, isTerminal(w), qt.IsFalse)
}
