// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

import "strings"

func isSimpleParamOp(b byte) bool {
	return b == '-' || b == '=' || b == '?' || b == '+'
}

// updateDolbrace moves the "${" state forward once an operator has been
// read, which changes how quotes in the argument are treated.
func (p *parser) updateDolbrace(op string, hasParam bool) {
	if p.dolbrace == dolbraceNone || op == "" {
		return
	}
	first := op[0]
	if p.dolbrace == dolbraceParam && hasParam {
		if strings.IndexByte("%#^,", first) >= 0 {
			p.dolbrace = dolbraceQuote
			return
		}
		if first == '/' {
			p.dolbrace = dolbraceQuote2
			return
		}
	}
	if p.dolbrace == dolbraceParam && strings.IndexByte("#%^,~:-=?+/", first) >= 0 {
		p.dolbrace = dolbraceOp
	}
}

// paramOperator consumes the operator after a parameter name, if any.
func (p *parser) paramOperator() string {
	if p.atEnd() {
		return ""
	}
	ch := p.peek()
	switch {
	case ch == ':':
		p.advance()
		if next := p.peek(); isSimpleParamOp(next) {
			p.advance()
			return ":" + string(next)
		}
		return ":"
	case isSimpleParamOp(ch), ch == '@':
		p.advance()
		return string(ch)
	case ch == '#', ch == '%', ch == '^', ch == ',':
		p.advance()
		if p.peek() == ch {
			p.advance()
			return string([]byte{ch, ch})
		}
		return string(ch)
	case ch == '/':
		p.advance()
		switch next := p.peek(); next {
		case '/', '#', '%':
			p.advance()
			return "/" + string(next)
		}
		return "/"
	}
	return ""
}

// subscriptCloses reports whether the "[" at start has a matching "]"
// before the end of the enclosing "${".
func (p *parser) subscriptCloses(start int) bool {
	depth := 1
	var q quoteState
	for i := start + 1; i < len(p.src); i++ {
		c := p.src[i]
		switch {
		case q.single:
			if c == '\'' {
				q.single = false
			}
		case q.double:
			if c == '\\' && i+1 < len(p.src) {
				i++
			} else if c == '"' {
				q.double = false
			}
		case c == '\'':
			q.single = true
		case c == '"':
			q.double = true
		case c == '\\':
			i++
		case c == '}':
			return false
		case c == '[':
			depth++
		case c == ']':
			depth--
			if depth == 0 {
				return true
			}
		}
	}
	return false
}

// paramName consumes a parameter name inside "${", including any array
// subscript.
func (p *parser) paramName() string {
	if p.atEnd() {
		return ""
	}
	ch := p.peek()
	switch {
	case isSpecialParam(ch):
		if ch == '$' && strings.IndexByte("{'\"", p.peekAt(1)) >= 0 && p.peekAt(1) != 0 {
			return ""
		}
		p.advance()
		return string(ch)
	case isDigit(ch):
		start := p.pos
		for isDigit(p.peek()) {
			p.advance()
		}
		return p.src[start:p.pos]
	case isNameStart(ch):
		var name wordBuf
		for !p.atEnd() {
			c := p.peek()
			if isNameByte(c) {
				name.addByte(p.advance())
				continue
			}
			if c == '[' && p.subscriptCloses(p.pos) {
				name.addByte(p.advance())
				name.add(p.parseMatchedPair('[', ']', pairArraySub, false))
				name.addByte(']')
			}
			break
		}
		return name.String()
	}
	return ""
}

// paramExpansion parses a parameter expansion starting at "$". On
// failure it consumes nothing and returns a nil part.
func (p *parser) paramExpansion(inDquote bool) (WordPart, string) {
	if p.peek() != '$' {
		return nil, ""
	}
	start := p.pos
	p.advance()
	if p.atEnd() {
		p.pos = start
		return nil, ""
	}
	ch := p.peek()
	switch {
	case ch == '{':
		p.advance()
		return p.bracedParam(start, inDquote)
	case isSpecialParamUnbraced(ch), isDigit(ch), ch == '#':
		p.advance()
		return &ParamExp{Param: string(ch)}, p.src[start:p.pos]
	case isNameStart(ch):
		nameStart := p.pos
		for isNameByte(p.peek()) {
			p.advance()
		}
		return &ParamExp{Param: p.src[nameStart:p.pos]}, p.src[start:p.pos]
	}
	p.pos = start
	return nil, ""
}

// bracedParam parses the rest of a "${...}" expansion, with start at
// its "$".
func (p *parser) bracedParam(start int, inDquote bool) (WordPart, string) {
	if p.atEnd() {
		p.pairErr(start, "unexpected EOF looking for `}'")
	}
	savedDolbrace := p.dolbrace
	defer func() { p.dolbrace = savedDolbrace }()
	if c := p.peek(); c == ' ' || c == '\t' || c == '\n' || c == '|' {
		return p.funSubst(start)
	}
	p.enter(start)
	defer p.leave()
	p.dolbrace = dolbraceParam
	switch p.peek() {
	case '#':
		p.advance()
		if param := p.paramName(); param != "" && p.peek() == '}' {
			p.advance()
			return &ParamLen{Param: param}, p.src[start:p.pos]
		}
		p.pos = start + 2
	case '!':
		if part, text := p.indirectParam(start); part != nil {
			return part, text
		}
		p.pos = start + 2
	}
	param := p.paramName()
	if param == "" {
		c := p.peek()
		if c == 0 || !(strings.IndexByte("-=+?", c) >= 0 || c == ':' && isSimpleParamOp(p.peekAt(1))) {
			content := p.parseMatchedPair('{', '}', pairDolbrace, false)
			return &ParamExp{Param: content}, "${" + content + "}"
		}
	}
	if p.atEnd() {
		p.pairErr(start, "unexpected EOF looking for `}'")
	}
	if p.peek() == '}' {
		p.advance()
		return &ParamExp{Param: param}, p.src[start:p.pos]
	}
	op := p.paramOperator()
	if op == "" {
		op = p.irregularParamOperator()
	}
	p.updateDolbrace(op, param != "")
	var flags pairFlags
	if inDquote {
		flags = pairDquote
	}
	arg := p.parseMatchedPair('{', '}', flags|pairDolbrace, strings.HasSuffix(param, "$"))
	if (op == "<" || op == ">") && len(arg) >= 2 && arg[0] == '(' && arg[len(arg)-1] == ')' {
		inner := arg[1 : len(arg)-1]
		p.try(func() {
			sub := p.subParser(inner, true)
			cmd := sub.parseList(true)
			if cmd != nil && sub.atEnd() {
				arg = "(" + formatCmdNode(cmd, 0, true, false, true) + ")"
			}
		})
	}
	return &ParamExp{Param: param, Op: op, Arg: arg}, "${" + param + op + arg + "}"
}

// indirectParam parses "${!name...}". It returns a nil part when the
// text does not form an indirect expansion, leaving the position for the
// caller to reset.
func (p *parser) indirectParam(start int) (WordPart, string) {
	p.advance()
	for isBlank(p.peek()) {
		p.advance()
	}
	param := p.paramName()
	if param == "" {
		return nil, ""
	}
	for isBlank(p.peek()) {
		p.advance()
	}
	switch c := p.peek(); {
	case c == '}':
		p.advance()
		return &ParamIndirect{Param: param}, p.src[start:p.pos]
	case c == '@' || c == '*':
		p.advance()
		trailing := p.parseMatchedPair('{', '}', pairDolbrace, false)
		return &ParamIndirect{Param: param + string(c) + trailing}, p.src[start:p.pos]
	}
	op := p.paramOperator()
	if op == "" && !p.atEnd() && strings.IndexByte("}\"'`", p.peek()) < 0 {
		op = string(p.advance())
	}
	if op != "" && strings.IndexAny(op, "\"'`") < 0 {
		arg := p.parseMatchedPair('{', '}', pairDolbrace, false)
		return &ParamIndirect{Param: param, Op: op, Arg: arg}, p.src[start:p.pos]
	}
	if p.atEnd() {
		p.pairErr(start, "unexpected EOF looking for `}'")
	}
	return nil, ""
}

// irregularParamOperator reads what follows a parameter name when it is
// not one of the known operators. bash takes the next byte, or a whole
// backquoted string, as the operator.
func (p *parser) irregularParamOperator() string {
	switch c := p.peek(); {
	case c == '$' && (p.peekAt(1) == '"' || p.peekAt(1) == '\''):
		if (1+dollarsBefore(p.src, p.pos))%2 == 1 {
			return ""
		}
		return string(p.advance())
	case c == '`':
		backquote := p.pos
		p.advance()
		for !p.atEnd() && p.peek() != '`' {
			if p.peek() == '\\' && isBackquoteEscape(p.peekAt(1)) {
				p.advance()
			}
			p.advance()
		}
		if p.atEnd() {
			p.posErr(backquote, "Unterminated backtick")
		}
		p.advance()
		return "`"
	case c == '$' && p.peekAt(1) == '{', c == '\'', c == '"':
		return ""
	case c == '\\':
		p.advance()
		if !p.atEnd() {
			return "\\" + string(p.advance())
		}
		return "\\"
	}
	if p.atEnd() {
		return ""
	}
	return string(p.advance())
}

func isBackquoteEscape(b byte) bool { return b == '$' || b == '`' || b == '\\' }
