// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"mvdan.cc/editorconfig"

	"github.com/parable-parser/parable/fileutil"
	"github.com/parable-parser/parable/syntax"
)

var (
	readBuf bytes.Buffer
	copyBuf = make([]byte, 32*1024)

	vcsDir = regexp.MustCompile(`^\.(git|svn|hg)$`)

	ecQuery = editorconfig.Query{
		FileCache:   make(map[string]*editorconfig.File),
		RegexpCache: make(map[string]*regexp.Regexp),
	}
)

// parsePaths parses the file at path. If path is a directory, every
// shell script found under it is parsed, each one's output preceded by
// a line with its path.
func parsePaths(path string) int {
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		// A file named directly is always parsed, no matter its
		// extension or shebang.
		if err := parsePath(path, false, false); err != nil {
			if !isParseError(err) {
				fmt.Fprintln(errOut, "Error:", err)
			}
			return 1
		}
		return 0
	}
	status := 0
	if err := filepath.Walk(path, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		switch err := walkPath(path, info); {
		case err == nil:
		case err == filepath.SkipDir:
			return err
		case isParseError(err):
			status = 1
		default:
			fmt.Fprintln(errOut, "Error:", err)
			status = 1
		}
		return nil
	}); err != nil {
		// Something went wrong walking the filesystem; stop.
		fmt.Fprintln(errOut, "Error:", err)
		return 1
	}
	return status
}

func walkPath(path string, info os.FileInfo) error {
	if info.IsDir() && vcsDir.MatchString(info.Name()) {
		return filepath.SkipDir
	}
	if useEditorConfig {
		props, err := ecQuery.Find(path)
		if err != nil {
			return err
		}
		if props.Get("ignore") == "true" {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
	}
	switch fileutil.CouldBeScript(info) {
	case fileutil.ConfIsScript:
		return ignoreNotExist(parsePath(path, false, true))
	case fileutil.ConfIfShebang:
		return ignoreNotExist(parsePath(path, true, true))
	}
	// directories, corpus files and anything else
	return nil
}

func ignoreNotExist(err error) error {
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func isParseError(err error) bool {
	_, ok := err.(*syntax.ParseError)
	if !ok {
		_, ok = err.(*syntax.MatchedPairError)
	}
	return ok
}

// pathConfig returns the parser options for path, taking the
// editorconfig properties into account unless flags override them.
func pathConfig(path string) (syntax.Config, error) {
	c := config()
	if !useEditorConfig {
		return c, nil
	}
	props, err := ecQuery.Find(path)
	if err != nil {
		return c, err
	}
	if props.Get("extglob") == "true" {
		c.Mode |= syntax.Extglob
	}
	if s := props.Get("max_depth"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return c, fmt.Errorf("%s: invalid max_depth %q", path, s)
		}
		c.MaxDepth = n
	}
	return c, nil
}

func parsePath(path string, checkShebang, header bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	readBuf.Reset()
	if checkShebang {
		n, err := f.Read(copyBuf[:32])
		if err != nil {
			return err
		}
		if !fileutil.HasShebang(copyBuf[:n]) {
			return nil
		}
		readBuf.Write(copyBuf[:n])
	}
	if _, err := io.CopyBuffer(&readBuf, f, copyBuf); err != nil {
		return err
	}
	f.Close()
	c, err := pathConfig(path)
	if err != nil {
		return err
	}
	if header {
		if _, err := fmt.Fprintf(out, "# %s\n", path); err != nil {
			return err
		}
	}
	return parseBytes(readBuf.Bytes(), path, c)
}
