// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

import "strings"

// parseArithExpr parses src as an arithmetic expression. base is the
// offset of src within the parser's source, used to position errors.
// An empty expression yields nil. Anything after a complete expression
// is ignored.
func (p *parser) parseArithExpr(src string, base int) ArithmExpr {
	savedSrc, savedPos, savedBase := p.arithSrc, p.arithPos, p.arithBase
	savedState, savedDepth, mark := p.state, p.depth, p.ctx.mark()
	defer func() {
		p.arithSrc, p.arithPos, p.arithBase = savedSrc, savedPos, savedBase
		p.state, p.depth = savedState, savedDepth
		p.ctx.rollback(mark)
	}()
	p.enter(base)
	p.ctx.push(ctxArith)
	p.arithSrc, p.arithPos, p.arithBase = src, 0, base
	p.arithSkipWs()
	if p.arithAtEnd() {
		return nil
	}
	return p.arithmExprComma()
}

func (p *parser) arithAtEnd() bool { return p.arithPos >= len(p.arithSrc) }

func (p *parser) arithPeek(off int) byte { return at(p.arithSrc, p.arithPos+off) }

func (p *parser) arithAdvance() byte {
	if p.arithAtEnd() {
		return 0
	}
	b := p.arithSrc[p.arithPos]
	p.arithPos++
	return b
}

func (p *parser) arithSkipWs() {
	for !p.arithAtEnd() {
		c := p.arithSrc[p.arithPos]
		if isSpace(c) {
			p.arithPos++
		} else if c == '\\' && p.arithPeek(1) == '\n' {
			p.arithPos += 2
		} else {
			break
		}
	}
}

func (p *parser) arithMatch(s string) bool {
	return strings.HasPrefix(p.arithSrc[p.arithPos:], s)
}

func (p *parser) arithConsume(s string) bool {
	if p.arithMatch(s) {
		p.arithPos += len(s)
		return true
	}
	return false
}

func (p *parser) arithErr(format string, a ...interface{}) {
	p.posErr(p.arithBase+p.arithPos, format, a...)
}

// These function names are inspired by Bash's expr.c

func (p *parser) arithmExprComma() ArithmExpr {
	x := p.arithmExprAssign()
	for {
		p.arithSkipWs()
		if !p.arithConsume(",") {
			return x
		}
		p.arithSkipWs()
		x = &ArithComma{X: x, Y: p.arithmExprAssign()}
	}
}

var arithAssignOps = [...]string{
	"<<=", ">>=", "+=", "-=", "*=", "/=", "%=", "&=", "^=", "|=", "=",
}

func (p *parser) arithmExprAssign() ArithmExpr {
	x := p.arithmExprCond()
	p.arithSkipWs()
	for _, op := range arithAssignOps {
		if !p.arithMatch(op) {
			continue
		}
		if op == "=" && p.arithPeek(1) == '=' {
			break
		}
		p.enter(p.arithBase + p.arithPos)
		p.arithPos += len(op)
		p.arithSkipWs()
		value := p.arithmExprAssign()
		p.leave()
		return &ArithAssign{Op: op, Target: x, Value: value}
	}
	return x
}

// arithmExprCond parses a ternary. Either branch may be omitted, in
// which case it is left nil.
func (p *parser) arithmExprCond() ArithmExpr {
	cond := p.arithmExprLor()
	p.arithSkipWs()
	if !p.arithConsume("?") {
		return cond
	}
	p.enter(p.arithBase + p.arithPos)
	defer p.leave()
	t := &ArithTernary{Cond: cond}
	p.arithSkipWs()
	if !p.arithMatch(":") {
		t.Then = p.arithmExprAssign()
	}
	p.arithSkipWs()
	if p.arithConsume(":") {
		p.arithSkipWs()
		if !p.arithAtEnd() && p.arithPeek(0) != ')' {
			t.Else = p.arithmExprCond()
		}
	}
	return t
}

// arithmLeft parses one left-associative level of binary operators.
// opAt returns the operator at the cursor, or "" if there is none at
// this level.
func (p *parser) arithmLeft(next func() ArithmExpr, opAt func(c, c2 byte) string) ArithmExpr {
	x := next()
	for {
		p.arithSkipWs()
		op := opAt(p.arithPeek(0), p.arithPeek(1))
		if op == "" {
			return x
		}
		p.arithPos += len(op)
		p.arithSkipWs()
		x = &BinaryArithm{Op: op, X: x, Y: next()}
	}
}

func (p *parser) arithmExprLor() ArithmExpr {
	return p.arithmLeft(p.arithmExprLand, func(c, c2 byte) string {
		if c == '|' && c2 == '|' {
			return "||"
		}
		return ""
	})
}

func (p *parser) arithmExprLand() ArithmExpr {
	return p.arithmLeft(p.arithmExprBor, func(c, c2 byte) string {
		if c == '&' && c2 == '&' {
			return "&&"
		}
		return ""
	})
}

func (p *parser) arithmExprBor() ArithmExpr {
	return p.arithmLeft(p.arithmExprBxor, func(c, c2 byte) string {
		if c == '|' && c2 != '|' && c2 != '=' {
			return "|"
		}
		return ""
	})
}

func (p *parser) arithmExprBxor() ArithmExpr {
	return p.arithmLeft(p.arithmExprBand, func(c, c2 byte) string {
		if c == '^' && c2 != '=' {
			return "^"
		}
		return ""
	})
}

func (p *parser) arithmExprBand() ArithmExpr {
	return p.arithmLeft(p.arithmExprEquality, func(c, c2 byte) string {
		if c == '&' && c2 != '&' && c2 != '=' {
			return "&"
		}
		return ""
	})
}

func (p *parser) arithmExprEquality() ArithmExpr {
	return p.arithmLeft(p.arithmExprComparison, func(c, c2 byte) string {
		if (c == '=' || c == '!') && c2 == '=' {
			return string([]byte{c, c2})
		}
		return ""
	})
}

func (p *parser) arithmExprComparison() ArithmExpr {
	return p.arithmLeft(p.arithmExprShift, func(c, c2 byte) string {
		if c != '<' && c != '>' {
			return ""
		}
		switch c2 {
		case '=':
			return string(c) + "="
		case c:
			return ""
		}
		return string(c)
	})
}

func (p *parser) arithmExprShift() ArithmExpr {
	return p.arithmLeft(p.arithmExprAddition, func(c, c2 byte) string {
		if (c == '<' || c == '>') && c2 == c && p.arithPeek(2) != '=' {
			return string([]byte{c, c})
		}
		return ""
	})
}

func (p *parser) arithmExprAddition() ArithmExpr {
	return p.arithmLeft(p.arithmExprMultiplication, func(c, c2 byte) string {
		if (c == '+' || c == '-') && c2 != c && c2 != '=' {
			return string(c)
		}
		return ""
	})
}

func (p *parser) arithmExprMultiplication() ArithmExpr {
	return p.arithmLeft(p.arithmExprPower, func(c, c2 byte) string {
		switch {
		case c2 == '=':
			return ""
		case c == '*' && c2 != '*', c == '/', c == '%':
			return string(c)
		}
		return ""
	})
}

// arithmExprPower parses "**", which is right-associative.
func (p *parser) arithmExprPower() ArithmExpr {
	x := p.arithmExprUnary()
	p.arithSkipWs()
	if !p.arithConsume("**") {
		return x
	}
	p.enter(p.arithBase + p.arithPos)
	p.arithSkipWs()
	y := p.arithmExprPower()
	p.leave()
	return &BinaryArithm{Op: "**", X: x, Y: y}
}

func (p *parser) arithmExprUnary() ArithmExpr {
	p.arithSkipWs()
	var op string
	switch c, c2 := p.arithPeek(0), p.arithPeek(1); {
	case (c == '+' || c == '-') && c2 == c:
		op = string([]byte{c, c})
	case c == '!', c == '~', c == '+', c == '-':
		op = string(c)
	default:
		return p.arithmExprPostfix()
	}
	p.enter(p.arithBase + p.arithPos)
	p.arithPos += len(op)
	p.arithSkipWs()
	x := p.arithmExprUnary()
	p.leave()
	return &UnaryArithm{Op: op, X: x}
}

func (p *parser) arithmExprPostfix() ArithmExpr {
	x := p.arithmExprValue()
	for {
		p.arithSkipWs()
		switch {
		case p.arithMatch("++"), p.arithMatch("--"):
			op := p.arithSrc[p.arithPos : p.arithPos+2]
			p.arithPos += 2
			x = &UnaryArithm{Op: op, Post: true, X: x}
		case p.arithPeek(0) == '[':
			v, ok := x.(*ArithVar)
			if !ok {
				return x
			}
			p.arithAdvance()
			p.arithSkipWs()
			index := p.arithmExprComma()
			p.arithSkipWs()
			if !p.arithConsume("]") {
				p.arithErr("Expected ']' in array subscript")
			}
			x = &ArithSubscript{Array: v.Name, Index: index}
		default:
			return x
		}
	}
}

func (p *parser) arithmExprValue() ArithmExpr {
	p.arithSkipWs()
	c := p.arithPeek(0)
	switch {
	case c == '(':
		p.enter(p.arithBase + p.arithPos)
		p.ctx.open('(')
		p.arithAdvance()
		p.arithSkipWs()
		x := p.arithmExprComma()
		p.arithSkipWs()
		if !p.arithConsume(")") {
			p.arithErr("Expected ')' in arithmetic expression")
		}
		p.ctx.close('(')
		p.leave()
		return x
	case c == '#' && p.arithPeek(1) == '$':
		p.arithAdvance()
		return p.arithmExpansion()
	case c == '$':
		return p.arithmExpansion()
	case c == '\'':
		return &ArithNumber{Value: p.arithmQuoted('\'', "Unterminated single quote in arithmetic")}
	case c == '"':
		return &ArithNumber{Value: p.arithmQuoted('"', "Unterminated double quote in arithmetic")}
	case c == '`':
		start := p.arithPos + 1
		content := p.arithmQuoted('`', "Unterminated backtick in arithmetic")
		return &CmdSubst{Cmd: p.arithmSubList(content, start)}
	case c == '\\':
		p.arithAdvance()
		if p.arithAtEnd() {
			p.arithErr("Unexpected end after backslash in arithmetic")
		}
		return &ArithEscape{Char: string(p.arithAdvance())}
	case p.arithAtEnd() || strings.IndexByte(")]:,;?|&<>=!+-*/%^~#{}", c) >= 0:
		return &ArithEmpty{}
	}
	return p.arithmNumberOrVar()
}

// arithmQuoted reads a quoted string inside an arithmetic expression and
// returns its contents. Backslashes escape the next byte except inside
// single quotes.
func (p *parser) arithmQuoted(quote byte, unterminated string) string {
	p.arithAdvance()
	start := p.arithPos
	for !p.arithAtEnd() && p.arithPeek(0) != quote {
		if quote != '\'' && p.arithPeek(0) == '\\' {
			p.arithAdvance()
		}
		p.arithAdvance()
	}
	content := p.arithSrc[start:p.arithPos]
	if !p.arithConsume(string(quote)) {
		p.arithErr(unterminated)
	}
	return content
}

// arithmSubList parses the body of a command substitution found inside
// an arithmetic expression.
func (p *parser) arithmSubList(src string, offset int) Command {
	sub := p.subParser(src, false)
	sub.base = p.base + p.arithBase + offset
	if cmd := sub.parseList(true); cmd != nil {
		return cmd
	}
	return &Empty{}
}

func (p *parser) arithmExpansion() ArithmExpr {
	if !p.arithConsume("$") {
		p.arithErr("Expected '$'")
	}
	switch p.arithPeek(0) {
	case '(':
		return p.arithmCmdSubst()
	case '{':
		return p.arithmBracedParam()
	}
	start := p.arithPos
	for !p.arithAtEnd() {
		c := p.arithPeek(0)
		if isNameByte(c) {
			p.arithAdvance()
			continue
		}
		if (isSpecialParam(c) || isDigit(c)) && p.arithPos == start {
			p.arithAdvance()
		}
		break
	}
	if p.arithPos == start {
		p.arithErr("Expected variable name after $")
	}
	return &ParamExp{Param: p.arithSrc[start:p.arithPos]}
}

// arithmCmdSubst parses "$(...)" or a nested "$((...))", with the "$"
// already consumed.
func (p *parser) arithmCmdSubst() ArithmExpr {
	p.arithAdvance()
	depth := 1
	if p.arithPeek(0) == '(' {
		p.arithAdvance()
		start := p.arithPos
	scan:
		for !p.arithAtEnd() && depth > 0 {
			switch p.arithPeek(0) {
			case '(':
				depth++
			case ')':
				if depth == 1 && p.arithPeek(1) == ')' {
					break scan
				}
				depth--
			}
			p.arithAdvance()
		}
		content := p.arithSrc[start:p.arithPos]
		p.arithAdvance()
		p.arithAdvance()
		return &ArithmExp{X: p.parseArithExpr(content, p.arithBase+start)}
	}
	start := p.arithPos
	for !p.arithAtEnd() {
		if c := p.arithPeek(0); c == '(' {
			depth++
		} else if c == ')' {
			depth--
			if depth == 0 {
				break
			}
		}
		p.arithAdvance()
	}
	content := p.arithSrc[start:p.arithPos]
	p.arithAdvance()
	return &CmdSubst{Cmd: p.arithmSubList(content, start)}
}

var arithParamOps = [...]string{
	":-", ":=", ":+", ":?", ":", "##", "#", "%%", "%", "//", "/",
}

// arithmBracedParam parses "${...}" inside an arithmetic expression,
// where only the name and the operator are told apart.
func (p *parser) arithmBracedParam() ArithmExpr {
	p.arithAdvance()
	switch p.arithPeek(0) {
	case '!', '#':
		indirect := p.arithPeek(0) == '!'
		p.arithAdvance()
		start := p.arithPos
		for !p.arithAtEnd() && p.arithPeek(0) != '}' {
			p.arithAdvance()
		}
		name := p.arithSrc[start:p.arithPos]
		p.arithConsume("}")
		if indirect {
			return &ParamIndirect{Param: name}
		}
		return &ParamLen{Param: name}
	}
	start := p.arithPos
	for !p.arithAtEnd() {
		c := p.arithPeek(0)
		if c == '}' {
			name := p.arithSrc[start:p.arithPos]
			p.arithAdvance()
			return &ParamExp{Param: name}
		}
		if strings.IndexByte(":-=+?#%/^,@*[", c) >= 0 {
			break
		}
		p.arithAdvance()
	}
	name := p.arithSrc[start:p.arithPos]
	opStart := p.arithPos
	depth := 1
	for !p.arithAtEnd() {
		if c := p.arithPeek(0); c == '{' {
			depth++
		} else if c == '}' {
			depth--
			if depth == 0 {
				break
			}
		}
		p.arithAdvance()
	}
	rest := p.arithSrc[opStart:p.arithPos]
	p.arithConsume("}")
	for _, op := range arithParamOps {
		if strings.HasPrefix(rest, op) {
			return &ParamExp{Param: name, Op: op, Arg: rest[len(op):]}
		}
	}
	return &ParamExp{Param: name, Arg: rest}
}

func (p *parser) arithmNumberOrVar() ArithmExpr {
	p.arithSkipWs()
	start := p.arithPos
	c := p.arithPeek(0)
	switch {
	case isDigit(c):
		for !p.arithAtEnd() && (isNameByte(p.arithPeek(0)) || p.arithPeek(0) == '#') {
			p.arithAdvance()
		}
		num := &ArithNumber{Value: p.arithSrc[start:p.arithPos]}
		if p.arithPeek(0) == '$' {
			return &ArithConcat{Parts: []ArithmExpr{num, p.arithmExpansion()}}
		}
		return num
	case isNameStart(c):
		for !p.arithAtEnd() && isNameByte(p.arithPeek(0)) {
			p.arithAdvance()
		}
		return &ArithVar{Name: p.arithSrc[start:p.arithPos]}
	}
	p.arithErr("Unexpected character '%c' in arithmetic expression", c)
	return nil
}
