// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

// testClause parses "[[ expr ]]".
func (p *parser) testClause() *TestClause {
	p.skipWhitespace()
	if p.peek() != '[' || p.peekAt(1) != '[' {
		return nil
	}
	if p.pos+2 < len(p.src) {
		next := p.peekAt(2)
		if !isSpace(next) && !(next == '\\' && p.peekAt(3) == '\n') {
			return nil
		}
	}
	p.pos += 2
	p.setState(stCondExpr)
	p.wordCtx = wordCond
	defer func() {
		p.clearState(stCondExpr)
		p.wordCtx = wordNormal
	}()
	x := p.condOr()
	for isBlank(p.peek()) {
		p.advance()
	}
	if p.peek() != ']' || p.peekAt(1) != ']' {
		p.clearState(stCondExpr)
		p.wordCtx = wordNormal
		p.posErr(p.pos, "Expected ]] to close conditional expression")
	}
	p.pos += 2
	p.clearState(stCondExpr)
	p.wordCtx = wordNormal
	return &TestClause{X: x, Redirects: p.redirects()}
}

func (p *parser) condSkip() {
	for !p.atEnd() {
		switch c := p.peek(); {
		case isBlank(c), c == '\n':
			p.advance()
		case c == '\\' && p.peekAt(1) == '\n':
			p.pos += 2
		default:
			return
		}
	}
}

func (p *parser) condAtEnd() bool {
	return p.atEnd() || (p.peek() == ']' && p.peekAt(1) == ']')
}

func (p *parser) condOp(op string) bool {
	if p.peek() == op[0] && p.peekAt(1) == op[1] {
		p.pos += 2
		return true
	}
	return false
}

func (p *parser) condOr() CondExpr {
	p.condSkip()
	x := p.condAnd()
	p.condSkip()
	if !p.condAtEnd() && p.condOp("||") {
		p.enter(p.pos)
		defer p.leave()
		return &CondOr{X: x, Y: p.condOr()}
	}
	return x
}

func (p *parser) condAnd() CondExpr {
	p.condSkip()
	x := p.condTerm()
	p.condSkip()
	if !p.condAtEnd() && p.condOp("&&") {
		p.enter(p.pos)
		defer p.leave()
		return &CondAnd{X: x, Y: p.condAnd()}
	}
	return x
}

func (p *parser) condTerm() CondExpr {
	p.condSkip()
	if p.condAtEnd() {
		p.posErr(p.pos, "Unexpected end of conditional expression")
	}
	switch p.peek() {
	case '!':
		if next := p.peekAt(1); p.pos+1 >= len(p.src) || isBlank(next) || next == '\n' {
			p.enter(p.pos)
			defer p.leave()
			p.advance()
			return &CondNot{X: p.condTerm()}
		}
	case '(':
		p.enter(p.pos)
		defer p.leave()
		p.advance()
		x := p.condOr()
		p.condSkip()
		if p.peek() != ')' {
			p.posErr(p.pos, "Expected ) in conditional expression")
		}
		p.advance()
		return &ParenTest{X: x}
	}
	x := p.condWord()
	if x == nil {
		p.posErr(p.pos, "Expected word in conditional expression")
	}
	p.condSkip()
	if condUnaryOps[x.Value] {
		y := p.condWord()
		if y == nil {
			p.posErr(p.pos, "Expected operand after %s", x.Value)
		}
		return &UnaryTest{Op: x.Value, X: y}
	}
	if p.condAtEnd() {
		return &UnaryTest{Op: "-n", X: x}
	}
	switch c := p.peek(); {
	case c == '&' || c == '|' || c == ')':
	case (c == '<' || c == '>') && p.peekAt(1) != '(':
		op := string(p.advance())
		p.condSkip()
		y := p.condWord()
		if y == nil {
			p.posErr(p.pos, "Expected operand after %s", op)
		}
		return &BinaryTest{Op: op, X: x, Y: y}
	default:
		saved := p.pos
		opWord := p.condWord()
		if opWord == nil || !condBinaryOps[opWord.Value] {
			p.pos = saved
			break
		}
		op := opWord.Value
		p.condSkip()
		var y *Word
		if op == "=~" {
			y = p.condRegexWord()
		} else {
			y = p.condWord()
		}
		if y == nil {
			p.posErr(p.pos, "Expected operand after %s", op)
		}
		return &BinaryTest{Op: op, X: x, Y: y}
	}
	return &UnaryTest{Op: "-n", X: x}
}

// condWord reads a single operand or operator inside "[[ ]]".
func (p *parser) condWord() *Word {
	p.condSkip()
	if p.condAtEnd() {
		return nil
	}
	switch c := p.peek(); c {
	case '(', ')':
		return nil
	case '&', '|':
		if p.peekAt(1) == c {
			return nil
		}
	}
	return p.readWordInternal(wordCond, false, false, false)
}

// condRegexWord reads the right hand side of "=~", where parentheses
// and blanks inside groups belong to the pattern.
func (p *parser) condRegexWord() *Word {
	p.condSkip()
	if p.condAtEnd() {
		return nil
	}
	p.setState(stRegexp)
	p.wordCtx = wordRegex
	defer func() {
		p.clearState(stRegexp)
		p.wordCtx = wordCond
	}()
	return p.readWordInternal(wordRegex, false, false, false)
}
