// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

import "strings"

// dollarExpansion parses the expansion starting at the "$" under the
// cursor and appends it to w and parts. It reports false, consuming
// nothing, if the "$" is literal.
func (p *parser) dollarExpansion(w *wordBuf, parts *[]WordPart, inDquote bool) bool {
	var part WordPart
	var text string
	switch {
	case p.peekAt(1) == '(' && p.peekAt(2) == '(':
		if ae, t := p.arithExpansion(); ae != nil {
			part, text = ae, t
		} else if cs, t := p.cmdSubst(); cs != nil {
			part, text = cs, t
		}
	case p.peekAt(1) == '[':
		if ad, t := p.deprecatedArith(); ad != nil {
			part, text = ad, t
		}
	case p.peekAt(1) == '(':
		if cs, t := p.cmdSubst(); cs != nil {
			part, text = cs, t
		}
	default:
		part, text = p.paramExpansion(inDquote)
	}
	if part == nil {
		return false
	}
	*parts = append(*parts, part)
	w.add(text)
	return true
}

// cmdSubst parses "$(...)" inline. If the list is not followed by the
// closing parenthesis, nothing is consumed.
func (p *parser) cmdSubst() (*CmdSubst, string) {
	if p.peek() != '$' || p.peekAt(1) != '(' {
		return nil, ""
	}
	start := p.pos
	p.pos += 2
	saved := p.save()
	defer p.restore(saved)
	p.enter(start)
	p.ctx.push(ctxCmdSubst)
	p.setState(stCmdSubst | stEOFToken)
	p.eofToken = ')'
	cmd := p.parseList(true)
	if cmd == nil {
		cmd = &Empty{}
	}
	p.skipSpaceNewlines()
	if p.peek() != ')' {
		p.pos = start
		return nil, ""
	}
	p.advance()
	return &CmdSubst{Cmd: cmd}, p.src[start:p.pos]
}

// funSubst parses the body of "${ cmd; }" or "${| cmd; }", with the
// cursor just past the "${" at start.
func (p *parser) funSubst(start int) (*CmdSubst, string) {
	if p.peek() == '|' {
		p.advance()
	}
	saved := p.save()
	defer p.restore(saved)
	p.enter(start)
	p.ctx.push(ctxCmdSubst)
	p.setState(stCmdSubst | stEOFToken)
	p.eofToken = '}'
	cmd := p.parseList(true)
	if cmd == nil {
		cmd = &Empty{}
	}
	p.skipSpaceNewlines()
	if p.peek() != '}' {
		p.pairErr(start, "unexpected EOF looking for `}'")
	}
	p.advance()
	return &CmdSubst{Cmd: cmd, Brace: true}, p.src[start:p.pos]
}

// backquote parses a "`...`" substitution. Its body is unescaped and
// parsed separately; here-documents started inside it may have their
// bodies after the closing backquote.
func (p *parser) backquote() (*CmdSubst, string) {
	if p.peek() != '`' {
		return nil, ""
	}
	start := p.pos
	p.advance()
	var content, text []byte
	text = append(text, '`')
	both := func(s string) {
		content = append(content, s...)
		text = append(text, s...)
	}
	take := func() {
		if !p.atEnd() {
			b := p.advance()
			content = append(content, b)
			text = append(text, b)
		}
	}
	var pending []heredocDelim
	var cur heredocDelim
	inBody := false
	nextBody := func() {
		inBody = false
		if len(pending) > 0 {
			cur, pending = pending[0], pending[1:]
			inBody = true
		}
	}
	for !p.atEnd() && (inBody || p.peek() != '`') {
		if inBody {
			lineStart := p.pos
			lineEnd := len(p.src)
			if i := strings.IndexByte(p.src[lineStart:], '\n'); i >= 0 {
				lineEnd = lineStart + i
			}
			line := p.src[lineStart:lineEnd]
			check := line
			if cur.stripTabs {
				check = strings.TrimLeft(line, "\t")
			}
			switch {
			case check == cur.delim:
				both(line)
				p.pos = lineEnd
				if p.peek() == '\n' {
					take()
				}
				nextBody()
			case strings.HasPrefix(check, cur.delim) && len(check) > len(cur.delim):
				end := len(line) - len(check) + len(cur.delim)
				both(line[:end])
				p.pos = lineStart + end
				nextBody()
			default:
				both(line)
				p.pos = lineEnd
				if p.peek() == '\n' {
					take()
				}
			}
			continue
		}
		c := p.peek()
		if c == '\\' && p.pos+1 < len(p.src) {
			switch next := p.src[p.pos+1]; {
			case next == '\n':
				p.pos += 2
			case isBackquoteEscape(next):
				p.pos += 2
				content = append(content, next)
				text = append(text, '\\', next)
			default:
				take()
			}
			continue
		}
		if c == '<' && p.peekAt(1) == '<' {
			if p.peekAt(2) == '<' {
				take()
				take()
				take()
				for isBlank(p.peek()) {
					take()
				}
				p.backquoteHereString(take)
				continue
			}
			take()
			take()
			strip := false
			if p.peek() == '-' {
				strip = true
				take()
			}
			for isBlank(p.peek()) {
				take()
			}
			if delim := p.backquoteHeredocDelim(take); delim != "" {
				pending = append(pending, heredocDelim{delim, strip})
			}
			continue
		}
		take()
		if c == '\n' && len(pending) > 0 {
			nextBody()
		}
	}
	if p.atEnd() {
		p.posErr(start, "Unterminated backtick")
	}
	p.advance()
	text = append(text, '`')
	body := string(content)
	if len(pending) > 0 {
		from, end := findHeredocContentEnd(p.src, p.pos, pending)
		if end > from {
			body += p.src[from:end]
			if p.cmdsubHeredocEnd < 0 || end > p.cmdsubHeredocEnd {
				p.cmdsubHeredocEnd = end
			}
		}
	}
	sub := p.subParser(body, false)
	sub.base = p.base + start + 1
	cmd := sub.parseList(true)
	if cmd == nil {
		cmd = &Empty{}
	}
	return &CmdSubst{Cmd: cmd}, string(text)
}

// backquoteHereString copies the word of a "<<<" inside backquotes.
func (p *parser) backquoteHereString(take func()) {
	for !p.atEnd() && !isSpace(p.peek()) && p.peek() != '(' && p.peek() != ')' {
		switch q := p.peek(); {
		case q == '\\' && p.pos+1 < len(p.src):
			take()
			take()
		case q == '"' || q == '\'':
			take()
			for !p.atEnd() && p.peek() != q {
				if q == '"' && p.peek() == '\\' {
					take()
				}
				take()
			}
			take()
		default:
			take()
		}
	}
}

// backquoteHeredocDelim copies a here-document delimiter inside
// backquotes and returns it with its quoting removed.
func (p *parser) backquoteHeredocDelim(take func()) string {
	var delim []byte
	takeDelim := func() {
		if !p.atEnd() {
			delim = append(delim, p.peek())
			take()
		}
	}
	quoted := func(q byte) {
		take()
		for !p.atEnd() && p.peek() != q {
			takeDelim()
		}
		take()
	}
	switch ch := p.peek(); {
	case p.atEnd():
	case ch == '"' || ch == '\'':
		quoted(ch)
	case ch == '\\':
		take()
		takeDelim()
		for !p.atEnd() && !isMetachar(p.peek()) {
			takeDelim()
		}
	default:
		for !p.atEnd() && !isMetachar(p.peek()) && p.peek() != '`' {
			switch ch := p.peek(); {
			case ch == '"' || ch == '\'':
				quoted(ch)
			case ch == '\\':
				take()
				takeDelim()
			default:
				takeDelim()
			}
		}
	}
	return string(delim)
}

// procSubst parses "<(...)" or ">(...)". If the body does not parse as
// a list, its text is still consumed as a balanced pair, and a nil node
// is returned alongside it.
func (p *parser) procSubst() (*ProcSubst, string) {
	if c := p.peek(); (c != '<' && c != '>') || p.peekAt(1) != '(' {
		return nil, ""
	}
	start := p.pos
	dir := p.src[start : start+1]
	p.pos += 2
	saved := p.save()
	oldInProcSub := p.inProcSub
	var ps *ProcSubst
	var text string
	ok := p.try(func() {
		p.enter(start)
		p.inProcSub = true
		p.ctx.push(ctxCmdSubst)
		p.setState(stEOFToken)
		p.eofToken = ')'
		cmd := p.parseList(true)
		if cmd == nil {
			cmd = &Empty{}
		}
		p.skipSpaceNewlines()
		if p.peek() != ')' {
			p.posErr(p.pos, "expected ) to close process substitution")
		}
		p.advance()
		text = stripContinuations(p.src[start:p.pos])
		ps = &ProcSubst{Direction: dir, Cmd: cmd}
	})
	p.restore(saved)
	p.inProcSub = oldInProcSub
	if ok {
		return ps, text
	}
	if c := at(p.src, start+2); c == ' ' || c == '\t' || c == '\n' {
		p.posErr(start, "Invalid process substitution")
	}
	p.pos = start + 2
	p.parseMatchedPair('(', ')', 0, false)
	return nil, stripContinuations(p.src[start:p.pos])
}

// arrayLiteral parses the "(...)" of an array assignment.
func (p *parser) arrayLiteral() (*ArrayExpr, string) {
	if p.peek() != '(' {
		return nil, ""
	}
	start := p.pos
	p.advance()
	p.setState(stCompAssign)
	defer p.clearState(stCompAssign)
	var elems []*Word
	for {
		p.skipSpaceNewlines()
		if p.atEnd() {
			p.posErr(start, "Unterminated array literal")
		}
		if p.peek() == ')' {
			break
		}
		w := p.parseWord(false, true, false)
		if w == nil {
			if p.peek() == ')' {
				break
			}
			p.posErr(p.pos, "Expected word in array literal")
		}
		elems = append(elems, w)
	}
	p.advance()
	return &ArrayExpr{Elems: elems}, p.src[start:p.pos]
}

// arithExpansion parses "$((...))". If the contents do not form a valid
// arithmetic expression, nothing is consumed so that the caller can try
// a command substitution instead.
func (p *parser) arithExpansion() (*ArithmExp, string) {
	if p.peek() != '$' || p.peekAt(1) != '(' || p.peekAt(2) != '(' {
		return nil, ""
	}
	start := p.pos
	p.pos += 3
	contentStart := p.pos
	depth := 2
	firstClose := -1
	for !p.atEnd() && depth > 0 {
		switch c := p.peek(); {
		case c == '\'':
			p.advance()
			for !p.atEnd() && p.peek() != '\'' {
				p.advance()
			}
			p.advance()
		case c == '"':
			p.advance()
			for !p.atEnd() {
				if p.peek() == '\\' && p.pos+1 < len(p.src) {
					p.pos += 2
				} else if p.advance() == '"' {
					break
				}
			}
		case c == '\\' && p.pos+1 < len(p.src):
			p.pos += 2
		case c == '(':
			depth++
			p.advance()
		case c == ')':
			if depth == 2 {
				firstClose = p.pos
			}
			depth--
			if depth > 0 {
				p.advance()
			}
		default:
			if depth == 1 {
				firstClose = -1
			}
			p.advance()
		}
	}
	if depth != 0 {
		p.pairErr(start, "unexpected EOF looking for `))'")
	}
	end := p.pos
	if firstClose != -1 {
		end = firstClose
	}
	content := p.src[contentStart:end]
	p.advance()
	text := p.src[start:p.pos]
	var x ArithmExpr
	if !p.try(func() { x = p.parseArithExpr(content, contentStart) }) {
		p.pos = start
		return nil, ""
	}
	return &ArithmExp{X: x}, text
}

// deprecatedArith parses the "$[...]" form, keeping its contents as
// text.
func (p *parser) deprecatedArith() (*ArithDeprecated, string) {
	if p.peek() != '$' || p.peekAt(1) != '[' {
		return nil, ""
	}
	start := p.pos
	p.pos += 2
	content := p.parseMatchedPair('[', ']', pairArith, false)
	return &ArithDeprecated{Expr: content}, p.src[start:p.pos]
}
