// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/google/go-cmp/cmp"
	"github.com/rogpeppe/go-internal/testscript"

	"github.com/parable-parser/parable/internal/testfile"
)

func TestMain(m *testing.M) {
	os.Exit(testscript.RunMain(m, map[string]func() int{
		"parable-tests": main1,
	}))
}

func TestScript(t *testing.T) {
	t.Parallel()
	testscript.Run(t, testscript.Params{
		Dir: filepath.Join("testdata", "script"),
	})
}

const mixedCorpus = `=== pass
echo hi
---
(command (word "echo") (word "hi"))
---

=== wrong
echo hi
---
(command (word "echo"))
---

=== error expected
fi
---
<error>
---

=== error unexpected
fi
---
(command (word "fi"))
---
`

const extglobCorpus = `# Extended globs.

=== extglob
# @extglob
echo @(a|b)
---
(command (word "echo") (word "@(a|b)"))
---
`

func writeCorpus(t *testing.T) string {
	dir := t.TempDir()
	files := map[string]string{
		"a.tests":         mixedCorpus,
		"sub/b.tests":     extglobCorpus,
		".hidden/c.tests": mixedCorpus,
		"notes.txt":       "not a corpus",
	}
	for name, body := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		qt.Assert(t, os.MkdirAll(filepath.Dir(path), 0o777), qt.IsNil)
		qt.Assert(t, os.WriteFile(path, []byte(body), 0o666), qt.IsNil)
	}
	return dir
}

func TestFindTestFiles(t *testing.T) {
	t.Parallel()
	dir := writeCorpus(t)
	got, err := findTestFiles(dir)
	qt.Assert(t, err, qt.IsNil)
	want := []string{
		filepath.Join(dir, "a.tests"),
		filepath.Join(dir, "sub", "b.tests"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("files mismatch (-want +got):\n%s", diff)
	}

	_, err = findTestFiles(filepath.Join(dir, "nonexistent"))
	qt.Assert(t, err, qt.IsNotNil)
}

func runCorpus(t *testing.T, dir, pattern string) []*fileResult {
	paths, err := findTestFiles(dir)
	qt.Assert(t, err, qt.IsNil)
	r := &runner{pattern: pattern, timeout: time.Minute, jobs: 2}
	files, err := r.run(paths)
	qt.Assert(t, err, qt.IsNil)
	return files
}

func TestRun(t *testing.T) {
	t.Parallel()
	dir := writeCorpus(t)
	files := runCorpus(t, dir, "")
	qt.Assert(t, files, qt.HasLen, 2)

	var statuses []string
	for _, fr := range files {
		for _, res := range fr.results {
			statuses = append(statuses, res.Name+": "+[]string{"pass", "fail", "timeout"}[res.status])
		}
	}
	want := []string{
		"pass: pass",
		"wrong: fail",
		"error expected: pass",
		"error unexpected: fail",
		"extglob: pass",
	}
	if diff := cmp.Diff(want, statuses); diff != "" {
		t.Fatalf("statuses mismatch (-want +got):\n%s", diff)
	}

	var buf bytes.Buffer
	passed, failed := reporter{w: &buf}.report(files)
	qt.Assert(t, passed, qt.Equals, 3)
	qt.Assert(t, failed, qt.Equals, 2)
	got := buf.String()
	qt.Assert(t, got, qt.Contains, "FAIL "+filepath.Join(dir, "a.tests")+":7 wrong\n")
	qt.Assert(t, got, qt.Contains, "-(command (word \"echo\"))\n")
	qt.Assert(t, got, qt.Contains, "+(command (word \"echo\") (word \"hi\"))\n")
	qt.Assert(t, got, qt.Contains, "FAIL "+filepath.Join(dir, "a.tests")+":19 error unexpected\n")
	qt.Assert(t, got, qt.Contains, "  error: Parse error at line 1, position 0: Unexpected reserved word 'fi'\n")
	qt.Assert(t, strings.Contains(got, "PASS"), qt.IsFalse)

	buf.Reset()
	reporter{w: &buf, verbose: true, maxFailures: 1}.report(files)
	got = buf.String()
	qt.Assert(t, got, qt.Contains, "PASS "+filepath.Join(dir, "sub", "b.tests")+":3 extglob\n")
	qt.Assert(t, strings.Count(got, "FAIL "), qt.Equals, 1)
	qt.Assert(t, got, qt.Contains, "... and 1 more failures\n")
}

func TestRunPattern(t *testing.T) {
	t.Parallel()
	dir := writeCorpus(t)
	var names []string
	for _, fr := range runCorpus(t, dir, "error*") {
		for _, res := range fr.results {
			names = append(names, res.Name)
		}
	}
	qt.Assert(t, names, qt.DeepEquals, []string{"error expected", "error unexpected"})
}

func TestReportTimeout(t *testing.T) {
	t.Parallel()
	res := caseResult{
		Case:   testfile.Case{Name: "slow", Input: "a", Line: 3},
		status: timedOut,
		actual: "<timeout>",
	}
	var buf bytes.Buffer
	passed, failed := reporter{w: &buf}.report([]*fileResult{{path: "x.tests", results: []caseResult{res}}})
	qt.Assert(t, passed, qt.Equals, 0)
	qt.Assert(t, failed, qt.Equals, 1)
	qt.Assert(t, buf.String(), qt.Equals, "FAIL x.tests:3 slow\n  input:\n    a\n  timed out\n")
}

func TestUpdate(t *testing.T) {
	t.Parallel()
	dir := writeCorpus(t)
	updated, err := updateFiles(runCorpus(t, dir, ""))
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, updated, qt.Equals, 2)

	for _, fr := range runCorpus(t, dir, "") {
		for _, res := range fr.results {
			qt.Assert(t, res.status, qt.Equals, pass, qt.Commentf("%s", res.Name))
		}
	}
	cases, err := testfile.ReadFile(filepath.Join(dir, "a.tests"))
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, cases, qt.HasLen, 4)
	qt.Assert(t, cases[1].Expected, qt.Equals, `(command (word "echo") (word "hi"))`)
	qt.Assert(t, cases[3].Expected, qt.Equals, "<error>")

	// files without failures are left alone
	src, err := os.ReadFile(filepath.Join(dir, "sub", "b.tests"))
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, string(src), qt.Equals, extglobCorpus)
}
