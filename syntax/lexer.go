// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

import "strings"

func (p *parser) atEnd() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) peekAt(off int) byte { return at(p.src, p.pos+off) }

func (p *parser) advance() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	b := p.src[p.pos]
	p.pos++
	return b
}

func (p *parser) lookahead(n int) string {
	return p.src[p.pos:min(p.pos+n, len(p.src))]
}

// wordBuf accumulates the text of a word in chunks. The start of the
// last chunk is kept, as some decisions depend on what was appended
// last rather than on the last byte.
type wordBuf struct {
	buf  []byte
	last int
}

func (w *wordBuf) add(s string) {
	w.last = len(w.buf)
	w.buf = append(w.buf, s...)
}

func (w *wordBuf) addByte(b byte) {
	w.last = len(w.buf)
	w.buf = append(w.buf, b)
}

func (w *wordBuf) empty() bool       { return len(w.buf) == 0 }
func (w *wordBuf) lastChunk() string { return string(w.buf[w.last:]) }
func (w *wordBuf) String() string    { return string(w.buf) }

func (p *parser) readOperator() (token, bool) {
	if p.atEnd() {
		return token{}, false
	}
	start := p.pos
	rest := p.src[p.pos:]
	for _, op := range operators {
		if strings.HasPrefix(rest, op.text) {
			p.pos += len(op.text)
			return token{kind: op.kind, val: op.text, pos: start}, true
		}
	}
	c := p.src[p.pos]
	var kind tokKind
	switch c {
	case ';':
		kind = semicolon
	case '|':
		kind = or
	case '&':
		kind = and
	case '(', ')':
		if p.wordCtx == wordRegex {
			return token{}, false
		}
		kind = leftParen
		if c == ')' {
			kind = rightParen
		}
	case '<', '>':
		if p.peekAt(1) == '(' {
			return token{}, false
		}
		kind = rdrIn
		if c == '>' {
			kind = rdrOut
		}
	case '\n':
		kind = _Newline
	default:
		return token{}, false
	}
	p.pos++
	return token{kind: kind, val: string(c), pos: start}, true
}

func (p *parser) skipBlanks() {
	for p.pos < len(p.src) && isBlank(p.src[p.pos]) {
		p.pos++
	}
}

// skipComment skips a comment up to the end of its line. A "#" only
// starts a comment at the start of a word.
func (p *parser) skipComment() bool {
	if p.peek() != '#' {
		return false
	}
	if p.pos > 0 && strings.IndexByte(" \t\n;|&(){}", p.src[p.pos-1]) < 0 {
		return false
	}
	for p.pos < len(p.src) && p.src[p.pos] != '\n' {
		p.pos++
	}
	return true
}

// readSingleQuote reads up to and including the closing quote; the
// opening quote must already be consumed.
func (p *parser) readSingleQuote(start int) (text string, sawNewline bool) {
	from := p.pos - 1
	for p.pos < len(p.src) {
		c := p.advance()
		if c == '\n' {
			sawNewline = true
		}
		if c == '\'' {
			return p.src[from:p.pos], sawNewline
		}
	}
	p.posErr(start, "Unterminated single quote")
	return "", false
}

func (p *parser) isWordTerminator(ctx wordCtx, c byte, bracketDepth, parenDepth int) bool {
	next := p.peekAt(1)
	switch ctx {
	case wordRegex:
		switch {
		case c == ']' && next == ']':
			return true
		case c == '&' && next == '&':
			return true
		case c == ')' && parenDepth == 0:
			return true
		}
		return isSpace(c) && parenDepth == 0
	case wordCond:
		switch c {
		case ']':
			return next == ']'
		case ')', '&', '|', ';':
			return true
		case '<', '>':
			return next != '('
		}
		return isSpace(c)
	}
	if p.inState(stEOFToken) && p.eofToken != 0 && c == p.eofToken && bracketDepth == 0 {
		return true
	}
	if (c == '<' || c == '>') && next == '(' {
		return false
	}
	return isMetachar(c) && bracketDepth == 0
}

// readBracketExpression reads a bracket expression such as "[a-z]" or
// "[[:alpha:]]" into w. It reports false without consuming anything if
// the "[" is to be taken literally.
func (p *parser) readBracketExpression(w *wordBuf, parts *[]WordPart, forRegex bool, parenDepth int) bool {
	if forRegex {
		scan := p.pos + 1
		if at(p.src, scan) == '^' {
			scan++
		}
		if at(p.src, scan) == ']' {
			scan++
		}
		closes := false
	scanLoop:
		for scan < len(p.src) {
			c := p.src[scan]
			switch {
			case c == ']' && at(p.src, scan+1) == ']':
				break scanLoop
			case c == ')' && parenDepth > 0:
				break scanLoop
			case c == '&' && at(p.src, scan+1) == '&':
				break scanLoop
			case c == ']':
				closes = true
				break scanLoop
			case c == '[' && at(p.src, scan+1) == ':':
				scan += 2
				for scan < len(p.src) && !(p.src[scan] == ':' && at(p.src, scan+1) == ']') {
					scan++
				}
				if scan < len(p.src) {
					scan += 2
				}
				continue
			}
			scan++
		}
		if !closes {
			return false
		}
	} else {
		if p.pos+1 >= len(p.src) {
			return false
		}
		if next := p.src[p.pos+1]; isBlank(next) || next == '&' || next == '|' {
			return false
		}
	}
	w.addByte(p.advance())
	if p.peek() == '^' {
		w.addByte(p.advance())
	}
	if p.peek() == ']' {
		w.addByte(p.advance())
	}
	for !p.atEnd() {
		c := p.peek()
		if c == ']' {
			w.addByte(p.advance())
			break
		}
		if c == '[' {
			var end byte
			switch p.peekAt(1) {
			case ':':
				end = ':'
			case '=', '.':
				if !forRegex {
					end = p.peekAt(1)
				}
			}
			if end != 0 {
				w.addByte(p.advance())
				w.addByte(p.advance())
				for !p.atEnd() && !(p.peek() == end && p.peekAt(1) == ']') {
					w.addByte(p.advance())
				}
				if !p.atEnd() {
					w.addByte(p.advance())
					w.addByte(p.advance())
				}
				continue
			}
		}
		if forRegex && c == '$' {
			if !p.dollarExpansion(w, parts, false) {
				w.addByte(p.advance())
			}
			continue
		}
		w.addByte(p.advance())
	}
	return true
}

// parseMatchedPair scans up to the close byte matching an already
// consumed open byte and returns the text in between. Expansions found
// along the way are fully parsed, and their canonical text is spliced
// into the result.
func (p *parser) parseMatchedPair(open, close byte, flags pairFlags, initialWasDollar bool) string {
	p.ctx.open(open)
	defer p.ctx.close(open)
	start := p.pos
	count := 1
	var buf []byte
	passNext := false
	wasDollar := initialWasDollar
	wasGtlt := false
	for count > 0 {
		if p.atEnd() {
			p.pairErr(start, "unexpected EOF while looking for matching `%c'", close)
		}
		ch := p.advance()
		if flags&pairDolbrace != 0 && p.dolbrace == dolbraceOp {
			if strings.IndexByte("#%^,~:-=?+/", ch) < 0 {
				p.dolbrace = dolbraceWord
			}
		}
		if passNext {
			passNext = false
			buf = append(buf, ch)
			wasDollar = ch == '$'
			wasGtlt = ch == '<' || ch == '>'
			continue
		}
		if open == '\'' {
			if ch == close {
				count--
				if count == 0 {
					break
				}
			}
			if ch == '\\' && flags&pairAllowEsc != 0 {
				passNext = true
			}
			buf = append(buf, ch)
			wasDollar, wasGtlt = false, false
			continue
		}
		if ch == '\\' {
			if p.peek() == '\n' {
				p.advance()
				wasDollar, wasGtlt = false, false
				continue
			}
			passNext = true
			buf = append(buf, ch)
			wasDollar, wasGtlt = false, false
			continue
		}
		if ch == close {
			count--
			if count == 0 {
				break
			}
			buf = append(buf, ch)
			wasDollar = false
			wasGtlt = ch == '<' || ch == '>'
			continue
		}
		if ch == open && open != close {
			if !(flags&pairDolbrace != 0 && open == '{') {
				count++
			}
			buf = append(buf, ch)
			wasDollar = false
			wasGtlt = ch == '<' || ch == '>'
			continue
		}
		if open != close && (ch == '\'' || ch == '"' || ch == '`') {
			var nested string
			switch ch {
			case '\'':
				qflags := flags
				if wasDollar {
					qflags |= pairAllowEsc
				}
				nested = p.parseMatchedPair('\'', '\'', qflags, false)
			case '"':
				nested = p.parseMatchedPair('"', '"', flags|pairDquote, false)
			default:
				nested = p.parseMatchedPair('`', '`', flags, false)
			}
			buf = append(buf, ch)
			buf = append(buf, nested...)
			buf = append(buf, ch)
			wasDollar, wasGtlt = false, false
			continue
		}
		if ch == '$' && !p.atEnd() && flags&pairExtglob == 0 {
			if wasDollar {
				buf = append(buf, ch)
				wasDollar, wasGtlt = false, false
				continue
			}
			switch p.peek() {
			case '{':
				if flags&pairArith != 0 {
					if !isFunsubByte(p.peekAt(1)) {
						buf = append(buf, ch)
						wasDollar, wasGtlt = true, false
						continue
					}
				}
				p.pos--
				if part, text := p.paramExpansion(flags&pairDquote != 0); part != nil {
					buf = append(buf, text...)
					wasDollar = false
				} else {
					buf = append(buf, p.advance())
					wasDollar = true
				}
				wasGtlt = false
				continue
			case '(':
				p.pos--
				text, ok := "", false
				if p.peekAt(2) == '(' {
					if ae, t := p.arithExpansion(); ae != nil {
						text, ok = t, true
					}
				}
				if !ok {
					if cs, t := p.cmdSubst(); cs != nil {
						text, ok = t, true
					}
				}
				if ok {
					buf = append(buf, text...)
				} else {
					buf = append(buf, p.advance(), p.advance())
				}
				wasDollar, wasGtlt = false, false
				continue
			case '[':
				p.pos--
				if ad, text := p.deprecatedArith(); ad != nil {
					buf = append(buf, text...)
					wasDollar = false
				} else {
					buf = append(buf, p.advance())
					wasDollar = true
				}
				wasGtlt = false
				continue
			}
		}
		if ch == '(' && wasGtlt {
			dir := buf[len(buf)-1]
			buf = buf[:len(buf)-1]
			p.pos--
			if ps, text := p.procSubst(); ps != nil {
				buf = append(buf, text...)
			} else {
				buf = append(buf, dir, p.advance())
			}
			wasDollar, wasGtlt = false, false
			continue
		}
		buf = append(buf, ch)
		wasDollar = ch == '$'
		wasGtlt = ch == '<' || ch == '>'
	}
	return string(buf)
}

func isFunsubByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '|'
}

// readWordInternal reads a single word under the given context. It
// returns nil if no bytes could be taken.
func (p *parser) readWordInternal(ctx wordCtx, atCmdStart, inArrayLit, inAssignBuiltin bool) *Word {
	start := p.pos
	var w wordBuf
	var parts []WordPart
	bracketDepth := 0
	bracketStart := -1
	seenEquals := false
	parenDepth := 0
loop:
	for !p.atEnd() {
		ch := p.peek()
		if ctx == wordRegex && ch == '\\' && p.peekAt(1) == '\n' {
			p.pos += 2
			continue
		}
		if ctx != wordNormal && p.isWordTerminator(ctx, ch, bracketDepth, parenDepth) {
			break
		}
		if ctx == wordNormal {
			switch {
			case ch == '[' && bracketDepth > 0:
				bracketDepth++
				w.addByte(p.advance())
				continue
			case ch == '[' && !w.empty() && atCmdStart && !seenEquals && isArrayAssignmentPrefix(w.String()):
				if isNameByte(at(w.lastChunk(), 0)) {
					bracketStart = p.pos
					bracketDepth++
					w.addByte(p.advance())
					continue
				}
			case ch == '[' && w.empty() && !seenEquals && inArrayLit:
				bracketStart = p.pos
				bracketDepth++
				w.addByte(p.advance())
				continue
			case ch == ']' && bracketDepth > 0:
				bracketDepth--
				w.addByte(p.advance())
				continue
			case ch == '=' && bracketDepth == 0:
				seenEquals = true
			}
		}
		if ctx == wordRegex && ch == '(' {
			parenDepth++
			w.addByte(p.advance())
			continue
		}
		if ctx == wordRegex && ch == ')' {
			if parenDepth > 0 {
				parenDepth--
				w.addByte(p.advance())
				continue
			}
			break
		}
		if ctx != wordNormal && ch == '[' {
			if !p.readBracketExpression(&w, &parts, ctx == wordRegex, parenDepth) {
				w.addByte(p.advance())
			}
			continue
		}
		if ctx == wordCond && ch == '(' {
			if p.extglob && !w.empty() && isExtglobPrefix(at(w.lastChunk(), 0)) && len(w.lastChunk()) == 1 {
				w.addByte(p.advance())
				w.add(p.parseMatchedPair('(', ')', pairExtglob, false))
				w.addByte(')')
				continue
			}
			break
		}
		if ctx == wordRegex && isSpace(ch) && parenDepth > 0 {
			w.addByte(p.advance())
			continue
		}
		switch {
		case ch == '\'':
			p.advance()
			text, sawNewline := p.readSingleQuote(start)
			w.add(text)
			if ctx == wordNormal && sawNewline {
				p.sawNewlineInSQ = true
			}
			continue
		case ch == '"':
			p.advance()
			if ctx == wordNormal {
				p.readDoubleQuoted(&w, &parts, start)
			} else {
				p.scanDoubleQuote(&w, &parts, start, ctx == wordCond)
			}
			continue
		case ch == '\\' && p.pos+1 < len(p.src):
			if ctx != wordRegex && p.src[p.pos+1] == '\n' {
				p.pos += 2
			} else {
				w.addByte(p.advance())
				w.addByte(p.advance())
			}
			continue
		case ctx != wordRegex && ch == '$' && p.peekAt(1) == '\'':
			if aq, text := p.readAnsiCQuote(); aq != nil {
				parts = append(parts, aq)
				w.add(text)
			} else {
				w.addByte(p.advance())
			}
			continue
		case ctx != wordRegex && ch == '$' && p.peekAt(1) == '"':
			if ls, text, inner := p.readLocaleString(); ls != nil {
				parts = append(parts, ls)
				parts = append(parts, inner...)
				w.add(text)
			} else {
				w.addByte(p.advance())
			}
			continue
		case ch == '$':
			if !p.dollarExpansion(&w, &parts, false) {
				w.addByte(p.advance())
				continue
			}
			if last := w.lastChunk(); p.extglob && ctx == wordNormal && len(last) == 2 &&
				last[0] == '$' && strings.IndexByte("?*@", last[1]) >= 0 && p.peek() == '(' {
				w.addByte(p.advance())
				w.add(p.parseMatchedPair('(', ')', pairExtglob, false))
				w.addByte(')')
			}
			continue
		case ctx != wordRegex && ch == '`':
			if cs, text := p.backquote(); cs != nil {
				parts = append(parts, cs)
				w.add(text)
			} else {
				w.addByte(p.advance())
			}
			continue
		case ctx != wordRegex && (ch == '<' || ch == '>') && p.peekAt(1) == '(':
			ps, text := p.procSubst()
			switch {
			case ps != nil:
				parts = append(parts, ps)
				w.add(text)
			case text != "":
				w.add(text)
			default:
				w.addByte(p.advance())
				if ctx == wordNormal {
					w.addByte(p.advance())
				}
			}
			continue
		}
		if ctx == wordNormal && ch == '(' && !w.empty() && bracketDepth == 0 {
			s := w.String()
			isArrayAssign := false
			if strings.HasSuffix(s, "+=") && len(s) >= 3 {
				isArrayAssign = isArrayAssignmentPrefix(s[:len(s)-2])
			} else if strings.HasSuffix(s, "=") && len(s) >= 2 {
				isArrayAssign = isArrayAssignmentPrefix(s[:len(s)-1])
			}
			if isArrayAssign && (atCmdStart || inAssignBuiltin) {
				arr, text := p.arrayLiteral()
				if arr == nil {
					break loop
				}
				parts = append(parts, arr)
				w.add(text)
				continue
			}
		}
		if p.extglob && ctx == wordNormal && isExtglobPrefix(ch) && p.peekAt(1) == '(' {
			w.addByte(p.advance())
			w.addByte(p.advance())
			w.add(p.parseMatchedPair('(', ')', pairExtglob, false))
			w.addByte(')')
			continue
		}
		if ctx == wordNormal && p.inState(stEOFToken) && p.eofToken != 0 && ch == p.eofToken && bracketDepth == 0 {
			if w.empty() {
				w.addByte(p.advance())
			}
			break
		}
		if ctx == wordNormal && isMetachar(ch) && bracketDepth == 0 {
			break
		}
		w.addByte(p.advance())
	}
	if bracketDepth > 0 && bracketStart != -1 && p.atEnd() {
		p.pairErr(bracketStart, "unexpected EOF looking for `]'")
	}
	if w.empty() {
		return nil
	}
	return &Word{Value: w.String(), Parts: parts}
}

// readDoubleQuoted reads the rest of a double-quoted string in a normal
// word, including the closing quote.
func (p *parser) readDoubleQuoted(w *wordBuf, parts *[]WordPart, start int) {
	w.addByte('"')
	inSingle := false
	for !p.atEnd() && (inSingle || p.peek() != '"') {
		c := p.peek()
		if inSingle {
			w.addByte(p.advance())
			if c == '\'' {
				inSingle = false
			}
			continue
		}
		switch {
		case c == '\\' && p.pos+1 < len(p.src):
			if p.src[p.pos+1] == '\n' {
				p.pos += 2
			} else {
				w.addByte(p.advance())
				w.addByte(p.advance())
			}
		case c == '$':
			if !p.dollarExpansion(w, parts, true) {
				w.addByte(p.advance())
			}
		case c == '`':
			if cs, text := p.backquote(); cs != nil {
				*parts = append(*parts, cs)
				w.add(text)
			} else {
				w.addByte(p.advance())
			}
		default:
			w.addByte(p.advance())
		}
	}
	if p.atEnd() {
		p.posErr(start, "Unterminated double quote")
	}
	w.addByte(p.advance())
}

// scanDoubleQuote is the variant of readDoubleQuoted used inside [[ ]],
// where backquotes are taken literally.
func (p *parser) scanDoubleQuote(w *wordBuf, parts *[]WordPart, start int, lineCont bool) {
	w.addByte('"')
	for !p.atEnd() && p.peek() != '"' {
		c := p.peek()
		switch {
		case c == '\\' && p.pos+1 < len(p.src):
			if lineCont && p.src[p.pos+1] == '\n' {
				p.pos += 2
			} else {
				w.addByte(p.advance())
				w.addByte(p.advance())
			}
		case c == '$':
			if !p.dollarExpansion(w, parts, true) {
				w.addByte(p.advance())
			}
		default:
			w.addByte(p.advance())
		}
	}
	if p.atEnd() {
		p.posErr(start, "Unterminated double quote")
	}
	w.addByte(p.advance())
}

func (p *parser) readWord() (token, bool) {
	start := p.pos
	if p.atEnd() {
		return token{}, false
	}
	c := p.peek()
	isProcSubst := (c == '<' || c == '>') && p.peekAt(1) == '('
	isRegexParen := p.wordCtx == wordRegex && (c == '(' || c == ')')
	if isMetachar(c) && !isProcSubst && !isRegexParen {
		return token{}, false
	}
	w := p.readWordInternal(p.wordCtx, p.atCmdStart, p.inArrayLit, p.inAssignBuiltin)
	if w == nil {
		return token{}, false
	}
	return token{kind: _Word, val: w.Value, pos: start, word: w}, true
}

// atStopByte reports whether the next byte is the stop byte of an
// enclosing construct, which ends the token stream for now.
func (p *parser) atStopByte() bool {
	return p.eofToken != 0 && p.peek() == p.eofToken && !p.inState(stCasePat|stEOFToken)
}

// lex reads the next token from the current position.
func (p *parser) lex() token {
	p.skipBlanks()
	if p.atEnd() || p.atStopByte() {
		return token{kind: _EOF, pos: p.pos}
	}
	for p.skipComment() {
		p.skipBlanks()
		if p.atEnd() || p.atStopByte() {
			return token{kind: _EOF, pos: p.pos}
		}
	}
	if tok, ok := p.readOperator(); ok {
		return tok
	}
	if tok, ok := p.readWord(); ok {
		return tok
	}
	return token{kind: _EOF, pos: p.pos}
}

// tokCache is the one-token lookahead cache. A cached token is only
// reused when the cursor sits at its start and the word context flags
// are the same as when it was lexed.
type tokCache struct {
	tok *token
	key lexKey
	end int
}

type lexKey struct {
	ctx                                wordCtx
	atCmdStart, inArrayLit, assignArgs bool
}

func (p *parser) lexKey() lexKey {
	return lexKey{p.wordCtx, p.atCmdStart, p.inArrayLit, p.inAssignBuiltin}
}

func (p *parser) cacheHit() bool {
	return p.look.tok != nil && p.look.tok.pos == p.pos && p.look.key == p.lexKey()
}

// peekToken returns the next token without consuming it.
func (p *parser) peekToken() *token {
	if p.cacheHit() {
		return p.look.tok
	}
	saved := p.pos
	tok := p.lex()
	p.look = tokCache{tok: &tok, key: p.lexKey(), end: p.pos}
	p.pos = saved
	return p.look.tok
}

// nextToken consumes and returns the next token.
func (p *parser) nextToken() *token {
	if p.cacheHit() {
		tok := p.look.tok
		p.pos = p.look.end
		p.look.tok = nil
		return tok
	}
	p.look.tok = nil
	tok := p.lex()
	// lexing a word may have parsed nested lists, which peek tokens
	p.look.tok = nil
	return &tok
}

// readAnsiCQuote reads a "$'...'" string, keeping its escapes as they
// are.
func (p *parser) readAnsiCQuote() (*AnsiCQuote, string) {
	if p.peek() != '$' || p.peekAt(1) != '\'' {
		return nil, ""
	}
	start := p.pos
	p.pos += 2
	contentStart := p.pos
	for {
		if p.atEnd() {
			p.pairErr(start, "unexpected EOF while looking for matching `''")
		}
		c := p.advance()
		if c == '\'' {
			break
		}
		if c == '\\' && !p.atEnd() {
			p.advance()
		}
	}
	return &AnsiCQuote{Content: p.src[contentStart : p.pos-1]}, p.src[start:p.pos]
}

// readLocaleString reads a "$"..."" string. If the closing quote is
// missing, nothing is consumed and nil is returned.
func (p *parser) readLocaleString() (*LocaleString, string, []WordPart) {
	if p.peek() != '$' || p.peekAt(1) != '"' {
		return nil, "", nil
	}
	start := p.pos
	p.pos += 2
	var content wordBuf
	var inner []WordPart
	closed := false
	for !p.atEnd() {
		c := p.peek()
		switch {
		case c == '"':
			p.advance()
			closed = true
		case c == '\\' && p.pos+1 < len(p.src):
			if p.src[p.pos+1] == '\n' {
				p.pos += 2
			} else {
				content.addByte(p.advance())
				content.addByte(p.advance())
			}
		case c == '$' && p.peekAt(1) == '(' && p.peekAt(2) == '(':
			if ae, text := p.arithExpansion(); ae != nil {
				inner = append(inner, ae)
				content.add(text)
			} else if cs, text := p.cmdSubst(); cs != nil {
				inner = append(inner, cs)
				content.add(text)
			} else {
				content.addByte(p.advance())
			}
		case isExpansionStart(p.src, p.pos, "$("):
			if cs, text := p.cmdSubst(); cs != nil {
				inner = append(inner, cs)
				content.add(text)
			} else {
				content.addByte(p.advance())
			}
		case c == '$':
			if part, text := p.paramExpansion(false); part != nil {
				inner = append(inner, part)
				content.add(text)
			} else {
				content.addByte(p.advance())
			}
		case c == '`':
			if cs, text := p.backquote(); cs != nil {
				inner = append(inner, cs)
				content.add(text)
			} else {
				content.addByte(p.advance())
			}
		default:
			content.addByte(p.advance())
		}
		if closed {
			break
		}
	}
	if !closed {
		p.pos = start
		return nil, "", nil
	}
	s := content.String()
	return &LocaleString{Content: s}, `$"` + s + `"`, inner
}
