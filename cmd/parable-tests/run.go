// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/diff"
	diffwrite "github.com/pkg/diff/write"
	"golang.org/x/sync/errgroup"

	"github.com/parable-parser/parable/internal/testfile"
	"github.com/parable-parser/parable/syntax"
)

type status int

const (
	pass status = iota
	fail
	timedOut
)

// caseResult is the outcome of running a single corpus case.
type caseResult struct {
	testfile.Case
	status status

	// actual is the output, one S-expression per line, or "<error>".
	actual string
	// err is the parse error, if any.
	err error
}

type fileResult struct {
	path    string
	src     []byte
	cases   []testfile.Case
	results []caseResult
}

type runner struct {
	pattern string
	timeout time.Duration
	jobs    int
}

// run runs the cases of every file in paths, up to r.jobs files at a
// time. Results are returned in the same order as paths.
func (r *runner) run(paths []string) ([]*fileResult, error) {
	files := make([]*fileResult, len(paths))
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(r.jobs)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			fr, err := r.runFile(ctx, path)
			if err != nil {
				return err
			}
			files[i] = fr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

func (r *runner) runFile(ctx context.Context, path string) (*fileResult, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fr := &fileResult{path: path, src: src, cases: testfile.Parse(src)}
	for _, c := range fr.cases {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if r.pattern != "" {
			if ok, _ := filepath.Match(r.pattern, c.Name); !ok {
				continue
			}
		}
		fr.results = append(fr.results, r.runCase(ctx, c))
	}
	return fr, nil
}

type parseOutcome struct {
	nodes []syntax.Node
	err   error
}

// runCase parses the input of c and compares the output with what c
// expects. A parse that takes longer than the timeout is abandoned.
func (r *runner) runCase(ctx context.Context, c testfile.Case) caseResult {
	res := caseResult{Case: c}
	input := c.Input
	var mode syntax.ParseMode
	if c.Extglob() {
		mode |= syntax.Extglob
		input = strings.TrimPrefix(input, testfile.ExtglobMarker)
		input = strings.TrimPrefix(input, "\n")
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	done := make(chan parseOutcome, 1)
	go func() {
		nodes, err := syntax.ParseString(input, mode)
		done <- parseOutcome{nodes, err}
	}()
	var outcome parseOutcome
	select {
	case outcome = <-done:
	case <-ctx.Done():
		res.status = timedOut
		res.actual = "<timeout>"
		return res
	}

	if outcome.err != nil {
		res.err = outcome.err
		res.actual = "<error>"
		if !c.WantError() {
			res.status = fail
		}
		return res
	}
	var lines []string
	for _, node := range outcome.nodes {
		if s := node.Sexp(); s != "" {
			lines = append(lines, s)
		}
	}
	res.actual = strings.Join(lines, "\n")
	if c.WantError() || testfile.Normalize(res.actual) != testfile.Normalize(c.Expected) {
		res.status = fail
	}
	return res
}

type reporter struct {
	w           io.Writer
	verbose     bool
	maxFailures int
	color       bool
}

// report prints the failures in files, and every case if verbose.
// It returns the number of passed and failed cases.
func (rep reporter) report(files []*fileResult) (passed, failed int) {
	shown := 0
	for _, fr := range files {
		for _, res := range fr.results {
			if res.status == pass {
				passed++
				if rep.verbose {
					fmt.Fprintf(rep.w, "PASS %s:%d %s\n", fr.path, res.Line, res.Name)
				}
				continue
			}
			failed++
			if rep.maxFailures > 0 && shown >= rep.maxFailures {
				continue
			}
			shown++
			rep.failure(fr.path, res)
		}
	}
	if hidden := failed - shown; hidden > 0 {
		fmt.Fprintf(rep.w, "... and %d more failures\n", hidden)
	}
	return passed, failed
}

func (rep reporter) failure(path string, res caseResult) {
	w := rep.w
	fmt.Fprintf(w, "FAIL %s:%d %s\n", path, res.Line, res.Name)
	fmt.Fprintf(w, "  input:\n%s\n", indent(res.Input))
	switch {
	case res.status == timedOut:
		fmt.Fprintln(w, "  timed out")
		return
	case res.err != nil:
		fmt.Fprintf(w, "  error: %v\n", res.err)
		fmt.Fprintf(w, "  expected:\n%s\n", indent(res.Expected))
		return
	case res.WantError():
		fmt.Fprintln(w, "  expected a parse error")
		fmt.Fprintf(w, "  actual:\n%s\n", indent(res.actual))
		return
	}
	var opts []diffwrite.Option
	if rep.color {
		opts = append(opts, diffwrite.TerminalColor())
	}
	if err := diff.Text("expected", "actual", res.Expected+"\n", res.actual+"\n", w, opts...); err != nil {
		fmt.Fprintf(w, "  computing diff: %v\n", err)
	}
}

func indent(s string) string {
	return "    " + strings.ReplaceAll(s, "\n", "\n    ")
}

// updateFiles rewrites the expectations of the failed cases in files
// with their actual output. It returns how many cases were updated.
func updateFiles(files []*fileResult) (int, error) {
	total := 0
	for _, fr := range files {
		byLine := make(map[int]caseResult)
		for _, res := range fr.results {
			if res.status == fail {
				byLine[res.Line] = res
			}
		}
		if len(byLine) == 0 {
			continue
		}
		for i, c := range fr.cases {
			if res, ok := byLine[c.Line]; ok {
				fr.cases[i].Expected = res.actual
			}
		}
		info, err := os.Stat(fr.path)
		if err != nil {
			return total, err
		}
		data := testfile.Rewrite(fr.src, fr.cases)
		if err := writeFile(fr.path, data, info.Mode().Perm()); err != nil {
			return total, err
		}
		total += len(byLine)
	}
	return total, nil
}
