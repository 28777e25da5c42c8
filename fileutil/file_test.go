// Copyright (c) 2025, Ville Skyttä <ville.skytta@iki.fi>
// See LICENSE for licensing information

package fileutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestShebang(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   []byte
		want string
	}{
		{
			in:   []byte("#!/usr/bin/env bash"),
			want: "bash",
		},
		{
			in:   []byte("#!/bin/bash"),
			want: "bash",
		},
		{
			in:   []byte("#!/usr/local/bin/bash -e\necho"),
			want: "bash",
		},
		{
			in:   []byte("#!foo bar"),
			want: "",
		},
		{
			in:   []byte("#!/bin/zsh"),
			want: "zsh",
		},
		{
			in:   []byte("#! /bin/zsh true"),
			want: "zsh",
		},
		{
			in:   []byte("#!  /bin/zsh"),
			want: "zsh",
		},
		{
			in:   []byte("#!\t/bin/zsh"),
			want: "zsh",
		},
		{
			in:   []byte("#!\f/bin/zsh"),
			want: "",
		},
	}

	for _, test := range tests {
		test := test
		name := strings.ReplaceAll(strings.ReplaceAll(string(test.in), "\f", "\\f"), "\t", "\\t")
		t.Run(name, func(t *testing.T) {
			qt.Assert(t, Shebang(test.in), qt.Equals, test.want)
		})
	}
}

func TestHasShebang(t *testing.T) {
	t.Parallel()
	qt.Assert(t, HasShebang([]byte("#!/bin/sh\n")), qt.IsTrue)
	qt.Assert(t, HasShebang([]byte("#!/usr/bin/env bash\n")), qt.IsTrue)
	qt.Assert(t, HasShebang([]byte("#!/bin/zsh\n")), qt.IsFalse)
	qt.Assert(t, HasShebang([]byte("echo foo\n")), qt.IsFalse)
}

func TestCouldBeScript(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	tests := []struct {
		name, content string
		want          ScriptConfidence
	}{
		{"a.sh", "echo", ConfIsScript},
		{"b.bash", "", ConfIsScript},
		{"basic.tests", "=== x\necho\n---\n", ConfIsCorpus},
		{"notes.txt", "#!/bin/sh\necho", ConfNotScript},
		{".hidden", "#!/bin/sh\necho", ConfNotScript},
		{"tiny", "a", ConfNotScript},
		{"script", "#!/bin/bash\necho foo\n", ConfIfShebang},
	}
	for _, test := range tests {
		path := filepath.Join(dir, test.name)
		err := os.WriteFile(path, []byte(test.content), 0o666)
		qt.Assert(t, err, qt.IsNil)
		info, err := os.Stat(path)
		qt.Assert(t, err, qt.IsNil)
		qt.Assert(t, CouldBeScript(info), qt.Equals, test.want, qt.Commentf("%s", test.name))
	}
	info, err := os.Stat(dir)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, CouldBeScript(info), qt.Equals, ConfNotScript)
}
