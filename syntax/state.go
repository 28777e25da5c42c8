// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

// quoteState tracks whether the scanner is inside single or double
// quotes, with a stack for quotes that nest through expansions.
type quoteState struct {
	single, double bool
	stack          []quotePair
}

type quotePair struct{ single, double bool }

func (q *quoteState) push() {
	q.stack = append(q.stack, quotePair{q.single, q.double})
	q.single, q.double = false, false
}

func (q *quoteState) pop() {
	if n := len(q.stack); n > 0 {
		top := q.stack[n-1]
		q.stack = q.stack[:n-1]
		q.single, q.double = top.single, top.double
	}
}

func (q *quoteState) inQuotes() bool { return q.single || q.double }

// outerDouble reports whether the quotes that enclosed the innermost
// push were double quotes.
func (q *quoteState) outerDouble() bool {
	if n := len(q.stack); n > 0 {
		return q.stack[n-1].double
	}
	return false
}

func (q quoteState) clone() quoteState {
	q.stack = append([]quotePair(nil), q.stack...)
	return q
}

type ctxKind uint8

const (
	ctxNormal ctxKind = iota
	ctxCmdSubst
	ctxArith
)

// parseContext holds the counts of delimiters opened and not yet closed
// at one nesting level.
type parseContext struct {
	kind ctxKind

	parenDepth   int
	braceDepth   int
	bracketDepth int
	caseDepth    int
	arithDepth   int // parentheses inside arithmetic

	quote quoteState
}

// contextStack is the stack of nested parse contexts. It always holds
// the base context, which can never be popped.
type contextStack struct {
	stack []parseContext
}

func (c *contextStack) reset() {
	c.stack = append(c.stack[:0], parseContext{kind: ctxNormal})
}

// top returns the innermost context. The pointer is only valid until
// the next push.
func (c *contextStack) top() *parseContext {
	return &c.stack[len(c.stack)-1]
}

func (c *contextStack) push(kind ctxKind) {
	c.stack = append(c.stack, parseContext{kind: kind})
}

func (c *contextStack) counter(delim byte) *int {
	top := c.top()
	switch delim {
	case '(':
		if top.kind == ctxArith {
			return &top.arithDepth
		}
		return &top.parenDepth
	case '{':
		return &top.braceDepth
	case '[':
		return &top.bracketDepth
	}
	return nil
}

// open records an opening delimiter in the innermost context. Quotes
// are tracked in its quote state, and brackets in its counters.
func (c *contextStack) open(delim byte) {
	q := &c.top().quote
	switch delim {
	case '\'':
		q.push()
		q.single = true
	case '"':
		q.push()
		q.double = true
	default:
		if n := c.counter(delim); n != nil {
			*n++
		}
	}
}

// close undoes the matching call to open.
func (c *contextStack) close(delim byte) {
	switch delim {
	case '\'', '"':
		c.top().quote.pop()
	default:
		if n := c.counter(delim); n != nil {
			*n--
		}
	}
}

// Only the topmost context is ever mutated, so a checkpoint needs the
// stack length and a copy of that one entry.
type ctxMark struct {
	n   int
	top parseContext
}

func (c *contextStack) mark() ctxMark {
	top := *c.top()
	top.quote = top.quote.clone()
	return ctxMark{n: len(c.stack), top: top}
}

func (c *contextStack) rollback(m ctxMark) {
	c.stack = c.stack[:m.n]
	c.stack[m.n-1] = m.top
}

// parserState flags record which sub-grammar is active.
type parserState uint16

const (
	stCasePat parserState = 1 << iota
	stCmdSubst
	stCaseStmt
	stCondExpr
	stCompAssign
	stHeredoc
	stRegexp
	stSubshell
	stEOFToken
)

// dolbraceState tracks which part of a "${...}" is being read.
type dolbraceState uint8

const (
	dolbraceNone  dolbraceState = 0
	dolbraceParam dolbraceState = 1
	dolbraceOp    dolbraceState = 2
	dolbraceWord  dolbraceState = 4
	dolbraceQuote dolbraceState = 0x40
	// dolbraceQuote2 is used after a "/" pattern substitution operator.
	dolbraceQuote2 dolbraceState = 0x80
)

// pairFlags alter how matched-pair scanning treats its contents.
type pairFlags uint16

const (
	pairDquote pairFlags = 1 << iota
	pairDolbrace
	pairCommand
	pairArith
	pairAllowEsc
	pairExtglob
	pairArraySub
)

// wordCtx selects the word termination rules.
type wordCtx uint8

const (
	wordNormal wordCtx = iota
	wordCond           // operand inside [[ ]]
	wordRegex          // right hand side of =~
)

// checkpoint is a snapshot of the parser state that speculative and
// nested parses restore on the way out, whether they succeed or not.
type checkpoint struct {
	state    parserState
	dolbrace dolbraceState
	eofToken byte
	ctx      ctxMark
	depth    int
}

func (p *parser) save() checkpoint {
	return checkpoint{
		state:    p.state,
		dolbrace: p.dolbrace,
		eofToken: p.eofToken,
		ctx:      p.ctx.mark(),
		depth:    p.depth,
	}
}

func (p *parser) restore(c checkpoint) {
	p.state = c.state
	p.dolbrace = c.dolbrace
	p.eofToken = c.eofToken
	p.ctx.rollback(c.ctx)
	p.depth = c.depth
	p.look.tok = nil
}

func (p *parser) setState(f parserState)     { p.state |= f }
func (p *parser) clearState(f parserState)   { p.state &^= f }
func (p *parser) inState(f parserState) bool { return p.state&f != 0 }

// enter records one more level of nesting and bails out if that goes
// past the configured maximum. Each call must be paired with leave,
// unless the parse bails out.
func (p *parser) enter(pos int) {
	p.depth++
	if p.maxDepth > 0 && p.depth > p.maxDepth {
		panic(bailout{err: &ParseError{
			Message:  "maximum nesting depth exceeded",
			Pos:      p.base + pos,
			Filename: p.name,
		}, fatal: true})
	}
}

func (p *parser) leave() { p.depth-- }
