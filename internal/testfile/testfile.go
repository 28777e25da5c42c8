// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

// Package testfile reads and rewrites test corpus files. A corpus file
// holds a sequence of cases:
//
//	=== name
//	input lines
//	---
//	expected lines
//	---
//
// Comment and blank lines between cases are ignored.
package testfile

import (
	"bytes"
	"os"
	"strings"
)

// Case is a single test case in a corpus file.
type Case struct {
	Name     string
	Input    string
	Expected string
	// Line is the 1-based line number of the case header.
	Line int

	// Range of the expected lines, as 0-based line indexes, end
	// exclusive and without trailing blank lines.
	expStart, expEnd int
}

// ExtglobMarker at the start of an input enables extended globbing.
const ExtglobMarker = "# @extglob"

// Extglob reports whether the case wants extended globbing.
func (c Case) Extglob() bool { return strings.HasPrefix(c.Input, ExtglobMarker) }

// WantError reports whether the case expects the parse to fail.
func (c Case) WantError() bool {
	switch strings.TrimSpace(c.Expected) {
	case "<error>", "<infinite>":
		return true
	}
	return false
}

// Parse splits the contents of a corpus file into its cases.
func Parse(src []byte) []Case {
	lines := strings.Split(string(src), "\n")
	var cases []Case
	for i := 0; i < len(lines); {
		line := lines[i]
		if !strings.HasPrefix(line, "=== ") {
			i++
			continue
		}
		c := Case{Name: strings.TrimSpace(line[4:]), Line: i + 1}
		i++
		start := i
		for i < len(lines) && lines[i] != "---" {
			i++
		}
		c.Input = strings.Join(lines[start:i], "\n")
		if i < len(lines) {
			i++
		}
		c.expStart = i
		for i < len(lines) && lines[i] != "---" && !strings.HasPrefix(lines[i], "=== ") {
			i++
		}
		exp := lines[c.expStart:i]
		for len(exp) > 0 && strings.TrimSpace(exp[len(exp)-1]) == "" {
			exp = exp[:len(exp)-1]
		}
		c.Expected = strings.Join(exp, "\n")
		c.expEnd = c.expStart + len(exp)
		if i < len(lines) && lines[i] == "---" {
			i++
		}
		cases = append(cases, c)
	}
	return cases
}

// ReadFile reads and parses the corpus file at path.
func ReadFile(path string) ([]Case, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(src), nil
}

// Rewrite returns src with the expected lines of each case replaced by
// its current Expected value. The cases must have come from parsing src.
// Everything else, such as comments, is left untouched.
func Rewrite(src []byte, cases []Case) []byte {
	lines := strings.Split(string(src), "\n")
	var buf bytes.Buffer
	last := 0
	for _, c := range cases {
		if c.expStart < last || c.expEnd > len(lines) {
			continue
		}
		for _, line := range lines[last:c.expStart] {
			buf.WriteString(line)
			buf.WriteByte('\n')
		}
		if c.Expected != "" || c.expEnd > c.expStart {
			buf.WriteString(c.Expected)
			buf.WriteByte('\n')
		}
		last = c.expEnd
	}
	buf.WriteString(strings.Join(lines[last:], "\n"))
	return buf.Bytes()
}

// Normalize collapses all whitespace runs into single spaces, so that
// outputs can be compared regardless of line breaks.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
