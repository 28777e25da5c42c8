// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/parable-parser/parable/syntax"
)

const (
	primaryPrompt   = "$ "
	secondaryPrompt = "> "
)

// lineReader reads one line of input at a time, after showing a prompt.
// The returned line has no trailing newline.
type lineReader interface {
	readLine(prompt string) (string, error)
	addHistory(entry string)
	close() error
}

// runInteractive reads commands from r until EOF, printing the
// S-expressions of each complete command to stdout. Input that ends
// inside an unclosed construct is continued on the next line.
func runInteractive(r io.Reader, stdout, stderr io.Writer) error {
	var lr lineReader
	if f, ok := r.(*os.File); ok && isTerminal(f) {
		lr = newLinerReader()
	} else {
		lr = &plainReader{r: bufio.NewReader(r), w: stdout}
	}
	defer lr.close()

	c := config()
	var pending strings.Builder
	for {
		prompt := primaryPrompt
		if pending.Len() > 0 {
			prompt = secondaryPrompt
		}
		line, err := lr.readLine(prompt)
		if err == liner.ErrPromptAborted {
			pending.Reset()
			fmt.Fprintln(stderr)
			continue
		}
		if err == io.EOF {
			if pending.Len() > 0 {
				src := []byte(pending.String())
				if _, err := c.Parse(src, ""); err != nil {
					writeError(stderr, src, "", err)
				}
			}
			return nil
		}
		if err != nil {
			return err
		}
		if pending.Len() == 0 && strings.TrimSpace(line) == "" {
			continue
		}
		pending.WriteString(line)
		pending.WriteByte('\n')
		src := pending.String()
		if continuedLine(line) {
			continue
		}
		nodes, err := c.Parse([]byte(src), "")
		if err != nil && incomplete(src, err) {
			continue
		}
		pending.Reset()
		lr.addHistory(strings.TrimSuffix(src, "\n"))
		if err != nil {
			writeError(stderr, []byte(src), "", err)
			continue
		}
		if err := printNodes(stdout, nodes); err != nil {
			return err
		}
	}
}

// continuedLine reports whether line ends with an unescaped backslash.
func continuedLine(line string) bool {
	n := 0
	for i := len(line) - 1; i >= 0 && line[i] == '\\'; i-- {
		n++
	}
	return n%2 == 1
}

// incomplete reports whether err means that src stopped in the middle
// of a construct, so that more input could still complete it.
func incomplete(src string, err error) bool {
	var mpe *syntax.MatchedPairError
	if errors.As(err, &mpe) {
		return true
	}
	var pe *syntax.ParseError
	if !errors.As(err, &pe) {
		return false
	}
	if strings.HasPrefix(pe.Message, "Unterminated") {
		return true
	}
	return pe.Pos >= len(strings.TrimRight(src, " \t\n"))
}

type plainReader struct {
	r *bufio.Reader
	w io.Writer
}

func (p *plainReader) readLine(prompt string) (string, error) {
	if _, err := io.WriteString(p.w, prompt); err != nil {
		return "", err
	}
	line, err := p.r.ReadString('\n')
	if err == io.EOF && line != "" {
		err = nil
	}
	return strings.TrimSuffix(line, "\n"), err
}

func (p *plainReader) addHistory(string) {}
func (p *plainReader) close() error      { return nil }

// linerReader is a line editor with history, for use on terminals.
type linerReader struct {
	state       *liner.State
	historyPath string
}

func newLinerReader() *linerReader {
	lr := &linerReader{state: liner.NewLiner(), historyPath: historyFile()}
	lr.state.SetCtrlCAborts(true)
	if lr.historyPath != "" {
		if f, err := os.Open(lr.historyPath); err == nil {
			_, _ = lr.state.ReadHistory(f)
			f.Close()
		}
	}
	return lr
}

func (l *linerReader) readLine(prompt string) (string, error) {
	return l.state.Prompt(prompt)
}

func (l *linerReader) addHistory(entry string) {
	// liner keeps one entry per line
	for _, line := range strings.Split(entry, "\n") {
		if strings.TrimSpace(line) != "" {
			l.state.AppendHistory(line)
		}
	}
}

func (l *linerReader) close() error {
	if l.historyPath != "" {
		if f, err := os.Create(l.historyPath); err == nil {
			_, _ = l.state.WriteHistory(f)
			f.Close()
		}
	}
	return l.state.Close()
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, ".parable_history")
}
