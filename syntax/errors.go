// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

import "fmt"

// ParseError represents an error found when parsing a shell source.
//
// Pos is a byte offset into the source, or -1 if unknown. Line is
// 1-based, or zero if unknown.
type ParseError struct {
	Message  string
	Pos      int
	Line     int
	Filename string
}

func (e *ParseError) Error() string {
	switch {
	case e.Line > 0 && e.Pos >= 0:
		return fmt.Sprintf("Parse error at line %d, position %d: %s", e.Line, e.Pos, e.Message)
	case e.Pos >= 0:
		return fmt.Sprintf("Parse error at position %d: %s", e.Pos, e.Message)
	}
	return fmt.Sprintf("Parse error: %s", e.Message)
}

// MatchedPairError is a ParseError for a construct that was clearly
// started, such as a quote or a "$(", but never closed before the end of
// the input. Pos points at the opening delimiter.
type MatchedPairError struct {
	ParseError
}

func (e *MatchedPairError) Unwrap() error { return &e.ParseError }

// bailout carries an error up through the recursive descent to the
// nearest recover, which is either a public entry point or a
// speculative parse that falls back to another production.
// A fatal bailout is never caught by a speculative parse.
type bailout struct {
	err   error
	fatal bool
}

func (p *parser) posErr(pos int, format string, a ...interface{}) {
	panic(bailout{err: &ParseError{
		Message:  fmt.Sprintf(format, a...),
		Pos:      p.base + pos,
		Filename: p.name,
	}})
}

func (p *parser) pairErr(pos int, format string, a ...interface{}) {
	panic(bailout{err: &MatchedPairError{ParseError{
		Message:  fmt.Sprintf(format, a...),
		Pos:      p.base + pos,
		Filename: p.name,
	}}})
}

// curErr reports an error at the start of the next token.
func (p *parser) curErr(format string, a ...interface{}) {
	p.posErr(p.peekToken().pos, format, a...)
}

// try runs fn and reports whether it completed without bailing out.
// Foreign panics are propagated.
func (p *parser) try(fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			if b, isBail := r.(bailout); !isBail || b.fatal {
				panic(r)
			}
			ok = false
		}
	}()
	fn()
	return true
}
