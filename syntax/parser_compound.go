// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

import "strings"

func (p *parser) subshell() *Subshell {
	p.skipWhitespace()
	if p.peek() != '(' {
		return nil
	}
	start := p.pos
	p.advance()
	p.enter(start)
	defer p.leave()
	p.setState(stSubshell)
	defer p.clearState(stSubshell)
	body := p.parseList(true)
	if body == nil {
		p.posErr(p.pos, "Expected command in subshell")
	}
	p.skipWhitespace()
	if p.peek() != ')' {
		p.posErr(p.pos, "Expected ) to close subshell")
	}
	p.advance()
	p.clearState(stSubshell)
	return &Subshell{Body: body, Redirects: p.redirects()}
}

// arithmCmd parses "(( expr ))". If the parentheses turn out not to
// close as a pair, as in "((a) (b))", nothing is consumed so that a
// subshell can be parsed instead.
func (p *parser) arithmCmd() *ArithmCmd {
	p.skipWhitespace()
	if p.peek() != '(' || p.peekAt(1) != '(' {
		return nil
	}
	start := p.pos
	p.pos += 2
	contentStart := p.pos
	depth := 1
scan:
	for !p.atEnd() {
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
			if depth == 1 && p.peekAt(1) == ')' {
				break scan
			}
			depth--
			if depth == 0 {
				p.pos = start
				return nil
			}
			p.advance()
		default:
			p.advance()
		}
	}
	if p.atEnd() {
		p.pairErr(start, "unexpected EOF looking for `))'")
	}
	raw := strings.ReplaceAll(p.src[contentStart:p.pos], "\\\n", "")
	p.pos += 2
	x := p.parseArithExpr(raw, contentStart)
	return &ArithmCmd{X: x, Raw: raw, Redirects: p.redirects()}
}

func (p *parser) block() *Block {
	p.skipWhitespace()
	start := p.pos
	if !p.gotWord("{") {
		return nil
	}
	p.enter(start)
	defer p.leave()
	p.skipSpaceNewlines()
	body := p.parseList(true)
	if body == nil {
		p.curErr("Expected command in brace group")
	}
	p.skipWhitespace()
	if !p.gotWord("}") {
		p.curErr("Expected } to close brace group")
	}
	return &Block{Body: body, Redirects: p.redirects()}
}

func (p *parser) ifClause() *IfClause {
	p.skipWhitespace()
	start := p.pos
	if !p.gotWord("if") {
		return nil
	}
	p.enter(start)
	defer p.leave()
	ic := p.ifBody("if")
	p.skipSpaceNewlines()
	if !p.gotWord("fi") {
		p.curErr("Expected 'fi' to close if statement")
	}
	ic.Redirects = p.redirects()
	return ic
}

// ifBody parses what follows an "if" or "elif" keyword, up to the "fi"
// that closes the whole chain.
func (p *parser) ifBody(kw string) *IfClause {
	ic := &IfClause{}
	if ic.Cond = p.listUntil("then"); ic.Cond == nil {
		p.curErr("Expected condition after '%s'", kw)
	}
	p.skipSpaceNewlines()
	if !p.gotWord("then") {
		p.curErr("Expected 'then' after %s condition", kw)
	}
	if ic.Then = p.listUntil("elif", "else", "fi"); ic.Then == nil {
		p.curErr("Expected commands after 'then'")
	}
	p.skipSpaceNewlines()
	switch {
	case p.atReserved("elif"):
		p.enter(p.pos)
		p.gotWord("elif")
		ic.Else = p.ifBody("elif")
		p.leave()
	case p.atReserved("else"):
		p.gotWord("else")
		if ic.Else = p.listUntil("fi"); ic.Else == nil {
			p.curErr("Expected commands after 'else'")
		}
	}
	return ic
}

// loopClause parses the condition and body of a while or until loop.
func (p *parser) loopClause(kw string) (cond, body Command, ok bool) {
	p.skipWhitespace()
	start := p.pos
	if !p.gotWord(kw) {
		return nil, nil, false
	}
	p.enter(start)
	defer p.leave()
	if cond = p.listUntil("do"); cond == nil {
		p.curErr("Expected condition after '%s'", kw)
	}
	p.skipSpaceNewlines()
	if !p.gotWord("do") {
		p.curErr("Expected 'do' after %s condition", kw)
	}
	if body = p.listUntil("done"); body == nil {
		p.curErr("Expected commands after 'do'")
	}
	p.skipSpaceNewlines()
	if !p.gotWord("done") {
		p.curErr("Expected 'done' to close %s loop", kw)
	}
	return cond, body, true
}

func (p *parser) whileClause() *WhileClause {
	cond, body, ok := p.loopClause("while")
	if !ok {
		return nil
	}
	return &WhileClause{Cond: cond, Body: body, Redirects: p.redirects()}
}

func (p *parser) untilClause() *UntilClause {
	cond, body, ok := p.loopClause("until")
	if !ok {
		return nil
	}
	return &UntilClause{Cond: cond, Body: body, Redirects: p.redirects()}
}

// loopBody parses a "do ... done" or "{ ... }" loop body.
func (p *parser) loopBody(what string) Command {
	if p.peek() == '{' {
		b := p.block()
		if b == nil {
			p.curErr("Expected brace group body in %s", what)
		}
		return b.Body
	}
	if !p.gotWord("do") {
		p.curErr("Expected 'do' or '{' in %s", what)
	}
	body := p.listUntil("done")
	if body == nil {
		p.curErr("Expected commands after 'do'")
	}
	p.skipSpaceNewlines()
	if !p.gotWord("done") {
		p.curErr("Expected 'done' to close %s", what)
	}
	return body
}

// forClause parses both kinds of for loop.
func (p *parser) forClause() Command {
	p.skipWhitespace()
	start := p.pos
	if !p.gotWord("for") {
		return nil
	}
	p.enter(start)
	defer p.leave()
	p.skipWhitespace()
	if p.peek() == '(' && p.peekAt(1) == '(' {
		return p.cStyleLoop()
	}
	fc := &ForClause{}
	if p.peek() == '$' {
		w := p.parseWord(false, false, false)
		if w == nil {
			p.curErr("Expected variable name after 'for'")
		}
		fc.Var = w.Value
	} else {
		if fc.Var = p.peekName(); fc.Var == "" {
			p.curErr("Expected variable name after 'for'")
		}
		p.gotName(fc.Var)
	}
	p.skipWhitespace()
	if p.peek() == ';' {
		p.advance()
	}
	p.skipSpaceNewlines()
	if p.atReserved("in") {
		p.gotWord("in")
		fc.InList = true
		p.skipWhitespace()
		sawDelim := p.peek() == ';' || p.peek() == '\n'
		if p.peek() == ';' {
			p.advance()
		}
		p.skipSpaceNewlines()
		for {
			p.skipWhitespace()
			if p.atEnd() {
				break
			}
			if c := p.peek(); c == ';' || c == '\n' {
				if c == ';' {
					p.advance()
				}
				break
			}
			if p.atReserved("do") {
				if sawDelim {
					break
				}
				p.curErr("Expected ';' or newline before 'do'")
			}
			w := p.parseWord(false, false, false)
			if w == nil {
				break
			}
			fc.Words = append(fc.Words, w)
		}
	}
	p.skipSpaceNewlines()
	if p.peek() == '{' {
		b := p.block()
		if b == nil {
			p.curErr("Expected brace group in for loop")
		}
		fc.Body = b.Body
	} else {
		if !p.gotWord("do") {
			p.curErr("Expected 'do' in for loop")
		}
		if fc.Body = p.listUntil("done"); fc.Body == nil {
			p.curErr("Expected commands after 'do'")
		}
		p.skipSpaceNewlines()
		if !p.gotWord("done") {
			p.curErr("Expected 'done' to close for loop")
		}
	}
	fc.Redirects = p.redirects()
	return fc
}

// cStyleLoop parses "for ((init; cond; post))", with the "for" already
// consumed. The three expressions are kept as text.
func (p *parser) cStyleLoop() *CStyleLoop {
	p.pos += 2
	var exprs []string
	start := p.pos
	depth := 0
loop:
	for !p.atEnd() {
		switch p.peek() {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
				break
			}
			if p.peekAt(1) == ')' {
				exprs = append(exprs, strings.TrimLeft(p.src[start:p.pos], " \t"))
				p.pos += 2
				break loop
			}
		case ';':
			if depth == 0 {
				exprs = append(exprs, strings.TrimLeft(p.src[start:p.pos], " \t"))
				p.advance()
				start = p.pos
				continue
			}
		}
		p.advance()
	}
	if len(exprs) != 3 {
		p.posErr(p.pos, "Expected three expressions in for ((;;))")
	}
	p.skipWhitespace()
	if p.peek() == ';' {
		p.advance()
	}
	p.skipSpaceNewlines()
	body := p.loopBody("for loop")
	return &CStyleLoop{
		Init:      exprs[0],
		Cond:      exprs[1],
		Post:      exprs[2],
		Body:      body,
		Redirects: p.redirects(),
	}
}

func (p *parser) selectClause() *SelectClause {
	p.skipWhitespace()
	start := p.pos
	if !p.gotWord("select") {
		return nil
	}
	p.enter(start)
	defer p.leave()
	p.skipWhitespace()
	sc := &SelectClause{}
	if sc.Var = p.peekName(); sc.Var == "" {
		p.curErr("Expected variable name after 'select'")
	}
	p.gotName(sc.Var)
	p.skipWhitespace()
	if p.peek() == ';' {
		p.advance()
	}
	p.skipSpaceNewlines()
	if p.atReserved("in") {
		p.gotWord("in")
		sc.InList = true
		p.skipSpaceNewlines()
		for {
			p.skipWhitespace()
			if p.atEnd() {
				break
			}
			if c := p.peek(); c == ';' || c == '\n' || c == '{' {
				if c == ';' {
					p.advance()
				}
				break
			}
			if p.atReserved("do") {
				break
			}
			w := p.parseWord(false, false, false)
			if w == nil {
				break
			}
			sc.Words = append(sc.Words, w)
		}
	}
	p.skipSpaceNewlines()
	sc.Body = p.loopBody("select")
	sc.Redirects = p.redirects()
	return sc
}

func (p *parser) caseClause() *CaseClause {
	start := p.pos
	if !p.gotName("case") {
		return nil
	}
	p.enter(start)
	defer p.leave()
	p.setState(stCaseStmt)
	defer p.clearState(stCaseStmt | stCasePat)
	p.ctx.top().caseDepth++
	defer func() { p.ctx.top().caseDepth-- }()
	p.skipWhitespace()
	cc := &CaseClause{}
	if cc.Word = p.parseWord(false, false, false); cc.Word == nil {
		p.curErr("Expected word after 'case'")
	}
	p.skipSpaceNewlines()
	if !p.gotWord("in") {
		p.curErr("Expected 'in' after case word")
	}
	p.skipSpaceNewlines()
	p.setState(stCasePat)
	for {
		p.skipSpaceNewlines()
		if p.atReserved("esac") && !p.esacIsPattern() {
			break
		}
		p.skipSpaceNewlines()
		if p.peek() == '(' {
			p.advance()
			p.skipSpaceNewlines()
		}
		item := &CaseItem{Pattern: p.casePattern()}
		if item.Pattern == "" {
			p.curErr("Expected pattern in case statement")
		}
		p.skipWhitespace()
		if p.peekCaseTerm() == "" {
			p.skipSpaceNewlines()
			if !p.atEnd() && !p.atReserved("esac") && p.peekCaseTerm() == "" {
				item.Body = p.listUntil("esac")
				p.skipWhitespace()
			}
		}
		item.Terminator = ";;"
		if term := p.peekCaseTerm(); term != "" {
			p.nextToken()
			item.Terminator = term
		}
		p.skipSpaceNewlines()
		cc.Items = append(cc.Items, item)
	}
	p.clearState(stCasePat)
	p.skipSpaceNewlines()
	if !p.gotWord("esac") {
		p.curErr("Expected 'esac' to close case statement")
	}
	p.clearState(stCaseStmt)
	cc.Redirects = p.redirects()
	return cc
}

// esacIsPattern reports whether the "esac" under the cursor is used as
// a pattern, as in "esac) cmd;;", rather than closing the statement.
func (p *parser) esacIsPattern() bool {
	saved := p.pos
	defer func() { p.pos = saved }()
	p.skipWhitespace()
	for !p.atEnd() && !isMetachar(p.peek()) && p.peek() != '"' && p.peek() != '\'' {
		p.advance()
	}
	p.skipWhitespace()
	if p.peek() != ')' || p.eofToken == ')' {
		return false
	}
	p.advance()
	p.skipWhitespace()
	next := p.peek()
	return !p.atEnd() && next != '\n' && next != ')'
}

// casePattern reads the pattern list of a case clause up to and
// including its closing ")". Unquoted blanks are dropped.
func (p *parser) casePattern() string {
	var pat []byte
	take := func() { pat = append(pat, p.advance()) }
	extglobDepth := 0
	for !p.atEnd() {
		switch c := p.peek(); {
		case c == ')':
			if extglobDepth == 0 {
				p.advance()
				return string(pat)
			}
			take()
			extglobDepth--
		case c == '\\':
			if p.peekAt(1) == '\n' {
				p.pos += 2
				break
			}
			take()
			if !p.atEnd() {
				take()
			}
		case isExpansionStart(p.src, p.pos, "$("):
			take()
			take()
			if p.peek() != '(' {
				extglobDepth++
				break
			}
			take()
			for depth := 2; !p.atEnd() && depth > 0; {
				switch p.peek() {
				case '(':
					depth++
				case ')':
					depth--
				}
				take()
			}
		case c == '(' && extglobDepth > 0:
			take()
			extglobDepth++
		case p.extglob && isExtglobPrefix(c) && p.peekAt(1) == '(':
			take()
			take()
			extglobDepth++
		case c == '[':
			if !p.patternBracketCloses() {
				take()
				break
			}
			take()
			if c := p.peek(); c == '^' || c == '!' {
				take()
			}
			if p.peek() == ']' {
				take()
			}
			for !p.atEnd() && p.peek() != ']' {
				take()
			}
			if !p.atEnd() {
				take()
			}
		case c == '\'':
			take()
			for !p.atEnd() && p.peek() != '\'' {
				take()
			}
			if !p.atEnd() {
				take()
			}
		case c == '"':
			take()
			for !p.atEnd() && p.peek() != '"' {
				if p.peek() == '\\' && p.pos+1 < len(p.src) {
					take()
				}
				take()
			}
			if !p.atEnd() {
				take()
			}
		case isSpace(c):
			if extglobDepth > 0 {
				take()
			} else {
				p.advance()
			}
		default:
			take()
		}
	}
	return string(pat)
}

// patternBracketCloses reports whether the "[" under the cursor starts a
// bracket expression that closes before the pattern ends.
func (p *parser) patternBracketCloses() bool {
	i := p.pos + 1
	if c := at(p.src, i); c == '^' || c == '!' {
		i++
	}
	if at(p.src, i) == ']' {
		i++
	}
	depth := 0
	for ; i < len(p.src); i++ {
		switch p.src[i] {
		case ']':
			if depth == 0 {
				return true
			}
		case '[':
			depth++
		case ')', '|':
			if depth == 0 {
				return false
			}
		}
	}
	return false
}

// coprocCompound parses the compound command of a coproc, if there is
// one under the cursor.
func (p *parser) coprocCompound() Command {
	switch p.peek() {
	case '{':
		if b := p.block(); b != nil {
			return b
		}
	case '(':
		if p.peekAt(1) == '(' {
			if ac := p.arithmCmd(); ac != nil {
				return ac
			}
		}
		if s := p.subshell(); s != nil {
			return s
		}
	}
	if compoundKeywords[p.peekReserved()] {
		if cmd := p.command(); cmd != nil {
			return cmd
		}
	}
	return nil
}

// coprocClause parses a coproc. A name is only taken as such when a
// compound command follows it.
func (p *parser) coprocClause() *CoprocClause {
	p.skipWhitespace()
	if !p.gotWord("coproc") {
		return nil
	}
	p.skipWhitespace()
	if cmd := p.coprocCompound(); cmd != nil {
		return &CoprocClause{Cmd: cmd}
	}
	start := p.pos
	if name := p.peekName(); name != "" {
		for !p.atEnd() && !isMetachar(p.peek()) && p.peek() != '"' && p.peek() != '\'' {
			p.advance()
		}
		p.skipWhitespace()
		if isValidIdentifier(name) {
			if cmd := p.coprocCompound(); cmd != nil {
				return &CoprocClause{Name: name, Cmd: cmd}
			}
		}
		p.pos = start
	}
	if call := p.callExpr(); call != nil {
		return &CoprocClause{Cmd: call}
	}
	p.posErr(p.pos, "Expected command after coproc")
	return nil
}

// funcDecl parses a function declaration in either of its forms,
// "function name [()] body" or "name() body". It returns nil and
// consumes nothing if there is none.
func (p *parser) funcDecl() *FuncDecl {
	p.skipWhitespace()
	if p.atEnd() {
		return nil
	}
	saved := p.pos
	if p.atReserved("function") {
		p.gotWord("function")
		p.skipWhitespace()
		name := p.peekName()
		if name == "" {
			p.pos = saved
			return nil
		}
		p.gotName(name)
		p.skipWhitespace()
		if p.peek() == '(' && p.peekAt(1) == ')' {
			p.pos += 2
		}
		p.skipSpaceNewlines()
		body := p.funcBody()
		if body == nil {
			p.posErr(p.pos, "Expected function body")
		}
		return &FuncDecl{Name: name, Body: body}
	}
	if name := p.peekName(); name == "" || reservedWords[name] || looksLikeAssignment(name) {
		return nil
	}
	p.skipWhitespace()
	nameStart := p.pos
	for !p.atEnd() && !isMetachar(p.peek()) && p.peek() != '"' && p.peek() != '\'' &&
		p.peek() != '(' && p.peek() != ')' {
		p.advance()
	}
	name := p.src[nameStart:p.pos]
	if name == "" || unclosedDolbrace(name) {
		p.pos = saved
		return nil
	}
	afterName := p.pos
	p.skipWhitespace()
	if p.pos == afterName && strings.IndexByte("*?@+!$", name[len(name)-1]) >= 0 {
		// an extended glob such as "@(a|b)"
		p.pos = saved
		return nil
	}
	if p.peek() != '(' {
		p.pos = saved
		return nil
	}
	p.advance()
	p.skipWhitespace()
	if p.peek() != ')' {
		p.pos = saved
		return nil
	}
	p.advance()
	p.skipSpaceNewlines()
	body := p.funcBody()
	if body == nil {
		p.posErr(p.pos, "Expected function body")
	}
	return &FuncDecl{Name: name, Body: body}
}

func unclosedDolbrace(s string) bool {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch {
		case isExpansionStart(s, i, "${"):
			depth++
			i++
		case s[i] == '}':
			depth--
		}
	}
	return depth > 0
}

// funcBody parses the compound command that forms a function body.
func (p *parser) funcBody() Command {
	if b := p.block(); b != nil {
		return b
	}
	if p.peek() == '(' && p.peekAt(1) == '(' {
		if ac := p.arithmCmd(); ac != nil {
			return ac
		}
	}
	if s := p.subshell(); s != nil {
		return s
	}
	if tc := p.testClause(); tc != nil {
		return tc
	}
	if ic := p.ifClause(); ic != nil {
		return ic
	}
	if wc := p.whileClause(); wc != nil {
		return wc
	}
	if uc := p.untilClause(); uc != nil {
		return uc
	}
	if fc := p.forClause(); fc != nil {
		return fc
	}
	if cc := p.caseClause(); cc != nil {
		return cc
	}
	if sc := p.selectClause(); sc != nil {
		return sc
	}
	return nil
}
