// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"golang.org/x/term"

	"github.com/parable-parser/parable/fileutil"
)

var (
	runPattern  = flag.String("run", "", "")
	update      = flag.Bool("u", false, "")
	jobs        = flag.Int("j", runtime.GOMAXPROCS(0), "")
	verbose     = flag.Bool("v", false, "")
	timeout     = flag.Duration("timeout", 5*time.Second, "")
	maxFailures = flag.Int("max-failures", 20, "")

	out    io.Writer = os.Stdout
	errOut io.Writer = os.Stderr
	color  bool
)

func main() {
	os.Exit(main1())
}

func main1() int {
	flag.CommandLine.SetOutput(errOut)
	flag.Usage = func() {
		fmt.Fprint(errOut, `usage: parable-tests [flags] [dir]

Runs every test case in the .tests files found under dir, which
defaults to "tests", and reports the cases whose output differs.

  -run glob          only run cases whose name matches glob
  -u                 rewrite failing expectations with the actual output
  -j n               number of files to run in parallel
  -v                 report every case, not just failures
  -timeout d         time limit for each case (default 5s)
  -max-failures n    show at most n failures (0 for all, default 20)
`)
	}
	flag.Parse()

	dir := "tests"
	switch flag.NArg() {
	case 0:
	case 1:
		dir = flag.Arg(0)
	default:
		flag.Usage()
		return 1
	}
	if *jobs < 1 {
		fmt.Fprintln(errOut, "-j must be at least 1")
		return 1
	}
	if *runPattern != "" {
		if _, err := filepath.Match(*runPattern, ""); err != nil {
			fmt.Fprintf(errOut, "invalid -run pattern: %v\n", err)
			return 1
		}
	}

	if os.Getenv("FORCE_COLOR") == "true" {
		// Undocumented way to force color; used in the tests.
		color = true
	} else if os.Getenv("TERM") == "dumb" {
		// Equivalent to forcing color to be turned off.
	} else if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		color = true
	}

	paths, err := findTestFiles(dir)
	if err != nil {
		fmt.Fprintln(errOut, "Error:", err)
		return 1
	}
	if len(paths) == 0 {
		fmt.Fprintf(errOut, "Error: no %s files found in %s\n", fileutil.CorpusExt, dir)
		return 1
	}

	r := &runner{
		pattern: *runPattern,
		timeout: *timeout,
		jobs:    *jobs,
	}
	start := time.Now()
	files, err := r.run(paths)
	if err != nil {
		fmt.Fprintln(errOut, "Error:", err)
		return 1
	}
	elapsed := time.Since(start)

	rep := reporter{w: out, verbose: *verbose, maxFailures: *maxFailures, color: color}
	passed, failed := rep.report(files)

	if *update {
		updated, err := updateFiles(files)
		if err != nil {
			fmt.Fprintln(errOut, "Error:", err)
			return 1
		}
		fmt.Fprintf(out, "updated %d cases\n", updated)
		failed -= updated
	}
	fmt.Fprintf(out, "%d passed, %d failed in %.2fs\n", passed, failed, elapsed.Seconds())
	if failed > 0 {
		return 1
	}
	return 0
}

// findTestFiles returns the corpus files under dir, sorted by path.
func findTestFiles(dir string) ([]string, error) {
	var paths []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() && path != dir && info.Name()[0] == '.' {
			return filepath.SkipDir
		}
		if fileutil.CouldBeScript(info) == fileutil.ConfIsCorpus {
			paths = append(paths, path)
		}
		return nil
	})
	sort.Strings(paths)
	return paths, err
}
