// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

// Package fileutil classifies files as bash scripts or test corpus files.
package fileutil

import (
	"io/fs"
	"regexp"
	"strings"
)

var (
	shebangRe = regexp.MustCompile(`^#![ \t]*/(?:usr/)?(?:local/)?bin/(?:env[ \t]+)?(\w+)(?:[ \t\r\n]|$)`)
	extRe     = regexp.MustCompile(`\.(sh|bash)$`)
)

// CorpusExt is the extension of test corpus files.
const CorpusExt = ".tests"

// Shebang returns the name of the interpreter in the shebang line at the
// start of bs, or an empty string if there is none.
func Shebang(bs []byte) string {
	m := shebangRe.FindSubmatch(bs)
	if m == nil {
		return ""
	}
	return string(m[1])
}

// HasShebang reports whether bs starts with a shebang for sh or bash.
func HasShebang(bs []byte) bool {
	switch Shebang(bs) {
	case "sh", "bash":
		return true
	}
	return false
}

type ScriptConfidence int

const (
	ConfNotScript ScriptConfidence = iota
	ConfIfShebang
	ConfIsScript
	ConfIsCorpus
)

func (c ScriptConfidence) String() string {
	switch c {
	case ConfIfShebang:
		return "if-shebang"
	case ConfIsScript:
		return "script"
	case ConfIsCorpus:
		return "corpus"
	}
	return "not-script"
}

// CouldBeScript reports how likely a file is to be parseable, judging
// by its name and metadata alone.
func CouldBeScript(info fs.FileInfo) ScriptConfidence {
	name := info.Name()
	switch {
	case info.IsDir(), name == "", name[0] == '.', !info.Mode().IsRegular():
		return ConfNotScript
	case extRe.MatchString(name):
		return ConfIsScript
	case strings.HasSuffix(name, CorpusExt):
		return ConfIsCorpus
	case strings.Contains(name, "."):
		return ConfNotScript // different extension
	case info.Size() < int64(len("#/bin/sh\n")):
		return ConfNotScript // cannot possibly hold valid shebang
	default:
		return ConfIfShebang
	}
}
