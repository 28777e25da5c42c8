// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package main

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/google/go-cmp/cmp"
	"github.com/rogpeppe/go-internal/testscript"
)

func TestMain(m *testing.M) {
	os.Exit(testscript.RunMain(m, map[string]func() int{
		"parable": main1,
	}))
}

func TestScript(t *testing.T) {
	t.Parallel()
	testscript.Run(t, testscript.Params{
		Dir: filepath.Join("testdata", "script"),
		Setup: func(env *testscript.Env) error {
			// keep editorconfig lookups inside the work directory
			env.Setenv("HOME", env.WorkDir)
			return nil
		},
	})
}

type action uint

const (
	None action = iota
	Parse
	Error
)

var walkTests = []struct {
	want       action
	symlink    bool
	path, body string
}{
	{Parse, false, "shebang-1", "#!/bin/sh\necho foo"},
	{Parse, false, "shebang-2", "#!/bin/bash\necho foo"},
	{Parse, false, "shebang-3", "#!/usr/bin/sh\necho foo"},
	{Parse, false, "shebang-4", "#!/usr/bin/env bash\necho foo"},
	{Parse, false, "shebang-space", "#! /bin/sh\necho foo"},
	{Parse, false, "shebang-args", "#!/bin/bash -e -x\nfoo"},
	{Parse, false, "ext.sh", "echo foo"},
	{Parse, false, "ext.bash", "echo foo"},
	{Parse, false, "ext-shebang.sh", "#!/bin/sh\necho foo"},
	{Parse, false, filepath.Join("dir", "ext.sh"), "echo foo"},
	{Parse, false, "glob.sh", "echo @(a|b)"},
	{None, false, ".hidden", "echo foo long enough"},
	{None, false, ".hidden-shebang", "#!/bin/sh\necho foo"},
	{None, false, "noext-empty", "foo"},
	{None, false, "noext-noshebang", "echo foo long enough"},
	{None, false, "shebang-nonewline", "#!/bin/shfoo"},
	{None, false, "shebang-zsh", "#!/bin/zsh\necho foo"},
	{None, false, "ext.other", "echo foo"},
	{None, false, "ext-shebang.other", "#!/bin/sh\necho foo"},
	{None, false, "corpus.tests", "=== a\necho\n---\n(command (word \"echo\"))\n---\n"},
	{None, false, "ignored.sh", "echo foo"},
	{None, false, filepath.Join(".git", "ext.sh"), "echo foo"},
	{None, false, filepath.Join(".svn", "ext.sh"), "echo foo"},
	{None, false, filepath.Join(".hg", "ext.sh"), "echo foo"},
	{Error, false, "parse-error.sh", "fi"},
	{None, true, "reallylongdir/symlink-file", "ext-shebang.sh"},
	{None, true, "symlink-dir", "reallylongdir"},
	{None, true, "symlink-none", "reallylongdir/nonexistent"},
}

const walkEditorConfig = `root = true

[ignored.sh]
ignore = true

[glob.sh]
extglob = true
`

func TestWalk(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, os.Chdir(dir), qt.IsNil)
	t.Cleanup(func() { os.Chdir(wd) })

	err = os.WriteFile(".editorconfig", []byte(walkEditorConfig), 0o666)
	qt.Assert(t, err, qt.IsNil)
	for _, wt := range walkTests {
		if dir, _ := filepath.Split(wt.path); dir != "" {
			os.MkdirAll(dir[:len(dir)-1], 0o777)
		}
		if wt.symlink {
			qt.Assert(t, os.Symlink(wt.body, wt.path), qt.IsNil)
			continue
		}
		err := os.WriteFile(wt.path, []byte(wt.body), 0o666)
		qt.Assert(t, err, qt.IsNil)
	}

	var outBuf, errBuf bytes.Buffer
	out, errOut = &outBuf, &errBuf
	t.Cleanup(func() { out, errOut = os.Stdout, os.Stderr })

	status := parsePaths(".")
	qt.Assert(t, status, qt.Equals, 1)

	parsed := map[string]bool{}
	scan := bufio.NewScanner(&outBuf)
	for scan.Scan() {
		if path := strings.TrimPrefix(scan.Text(), "# "); path != scan.Text() {
			parsed[path] = true
		}
	}
	for _, wt := range walkTests {
		t.Run(wt.path, func(t *testing.T) {
			got := parsed[wt.path]
			want := wt.want != None
			if got != want {
				t.Fatalf("walk parsed %s: %v, wanted %v", wt.path, got, want)
			}
		})
	}
	errs := strings.Count(errBuf.String(), "Error: ")
	qt.Assert(t, errs, qt.Equals, 1, qt.Commentf("%s", errBuf.String()))

	outBuf.Reset()
	errBuf.Reset()
	qt.Assert(t, parsePaths("glob.sh"), qt.Equals, 0)
	qt.Assert(t, outBuf.String(), qt.Equals, "(command (word \"echo\") (word \"@(a|b)\"))\n")

	outBuf.Reset()
	qt.Assert(t, parsePaths(".hidden"), qt.Equals, 0)
	qt.Assert(t, outBuf.Len() > 0, qt.IsTrue, qt.Commentf("a file named directly should always be parsed"))

	errBuf.Reset()
	qt.Assert(t, parsePaths("nonexistent"), qt.Equals, 1)
	qt.Assert(t, errBuf.String(), qt.Contains, "Error: ")
}

func TestPrintNodes(t *testing.T) {
	var buf bytes.Buffer
	out = &buf
	t.Cleanup(func() { out = os.Stdout })

	err := parseBytes([]byte("a\n\nb && c\n"), "", config())
	qt.Assert(t, err, qt.IsNil)
	want := []string{
		`(command (word "a"))`,
		`(and (command (word "b")) (command (word "c")))`,
	}
	got := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}

	buf.Reset()
	err = parseBytes([]byte("  \n"), "", config())
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, buf.String(), qt.Equals, "")
}

func TestWriteError(t *testing.T) {
	src := []byte("a\necho ${x")
	_, err := config().Parse(src, "")
	qt.Assert(t, err, qt.IsNotNil)

	var buf bytes.Buffer
	writeError(&buf, src, "", err)
	qt.Assert(t, buf.String(), qt.Equals,
		"Error: Parse error at line 2, position 7: unexpected EOF looking for `}'\n")

	*verbose = true
	t.Cleanup(func() { *verbose = false })
	buf.Reset()
	writeError(&buf, src, "", err)
	lines := strings.Split(buf.String(), "\n")
	qt.Assert(t, len(lines) > 2, qt.IsTrue, qt.Commentf("%q", buf.String()))
	qt.Assert(t, lines[1], qt.Contains, "echo ")
	// a buffer is not a terminal, so the context is not styled
	qt.Assert(t, strings.Contains(buf.String(), "\x1b"), qt.IsFalse, qt.Commentf("%q", buf.String()))

	qt.Assert(t, sgrSeq.ReplaceAllString("input:1:6: echo \x1b[1;4m^\x1b[m$((", ""), qt.Equals,
		"input:1:6: echo ^$((")
}
