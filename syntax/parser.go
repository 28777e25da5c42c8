// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

import (
	"errors"
	"strconv"
	"strings"
	"sync"
)

// ParseMode controls the parser behaviour via a set of flags.
type ParseMode uint

const (
	// Extglob enables the extended globbing operators, such as
	// "@(a|b)", in words and case patterns.
	Extglob ParseMode = 1 << iota
)

// DefaultMaxDepth is the nesting limit used when Config.MaxDepth is
// zero.
const DefaultMaxDepth = 1000

// Config holds the options for a parse.
type Config struct {
	Mode ParseMode

	// MaxDepth limits how deeply substitutions, subshells and
	// arithmetic expressions may nest. Zero means DefaultMaxDepth, and
	// a negative value disables the limit.
	MaxDepth int
}

var parserFree = sync.Pool{
	New: func() interface{} { return &parser{} },
}

// Parse reads and parses a shell program with an optional name. It
// returns one node per top-level list if no issues were encountered.
// Otherwise, an error is returned.
func Parse(src []byte, name string, mode ParseMode) ([]Node, error) {
	return Config{Mode: mode}.Parse(src, name)
}

// ParseString is like Parse, for a source held in a string.
func ParseString(src string, mode ParseMode) ([]Node, error) {
	return Config{Mode: mode}.parse(src, "")
}

// Parse is like the package-level Parse, with the options in c.
func (c Config) Parse(src []byte, name string) ([]Node, error) {
	return c.parse(string(src), name)
}

func (c Config) parse(src, name string) (nodes []Node, err error) {
	p := parserFree.Get().(*parser)
	p.reset(src, name, c)
	err = p.run(func() { nodes = p.file() })
	p.release()
	return nodes, err
}

// parseSubList parses src as a single command list, as found inside a
// command substitution. It also returns how far the list reached.
func parseSubList(src string) (cmd Command, end int, err error) {
	p := parserFree.Get().(*parser)
	p.reset(src, "", Config{})
	err = p.run(func() { cmd = p.parseList(true) })
	end = p.pos
	p.release()
	return cmd, end, err
}

type parser struct {
	src  string
	name string
	pos  int
	// base is added to error positions, for parsers that work on a
	// piece of some larger source.
	base int

	extglob  bool
	maxDepth int
	depth    int

	state    parserState
	dolbrace dolbraceState
	eofToken byte
	ctx      contextStack

	// flags for the next word to be lexed
	wordCtx         wordCtx
	atCmdStart      bool
	inArrayLit      bool
	inAssignBuiltin bool
	look            tokCache

	// here-documents whose bodies start after the current line
	heredocs []*HereDoc
	// end of the here-document bodies already consumed by a
	// substitution on the current line, or -1
	cmdsubHeredocEnd int
	sawNewlineInSQ   bool
	inProcSub        bool

	arithSrc  string
	arithPos  int
	arithBase int
}

func (p *parser) reset(src, name string, c Config) {
	*p = parser{
		src:              src,
		name:             name,
		extglob:          c.Mode&Extglob != 0,
		maxDepth:         c.MaxDepth,
		cmdsubHeredocEnd: -1,
		ctx:              p.ctx,
		heredocs:         p.heredocs[:0],
	}
	if p.maxDepth == 0 {
		p.maxDepth = DefaultMaxDepth
	}
	p.ctx.reset()
}

// release drops the references to the source and to nodes, and puts
// the parser back into the pool.
func (p *parser) release() {
	for i := range p.heredocs {
		p.heredocs[i] = nil
	}
	p.src, p.arithSrc = "", ""
	p.look = tokCache{}
	parserFree.Put(p)
}

// subParser returns a parser for src, a piece of text that is parsed on
// its own, sharing the options and nesting depth of p.
func (p *parser) subParser(src string, inProcSub bool) *parser {
	sub := &parser{
		src:              src,
		name:             p.name,
		extglob:          p.extglob,
		maxDepth:         p.maxDepth,
		depth:            p.depth,
		cmdsubHeredocEnd: -1,
		inProcSub:        inProcSub,
	}
	sub.ctx.reset()
	return sub
}

// run calls fn, turning a bailout into a returned error. Any other
// panic is passed on.
func (p *parser) run(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(bailout)
			if !ok {
				panic(r)
			}
			err = p.located(b.err)
		}
	}()
	fn()
	return nil
}

// located fills in the line of a parse error, when its position falls
// inside the source.
func (p *parser) located(err error) error {
	var pe *ParseError
	if errors.As(err, &pe) && pe.Line == 0 && pe.Pos >= 0 && pe.Pos <= len(p.src) {
		pe.Line = 1 + strings.Count(p.src[:pe.Pos], "\n")
	}
	return err
}

// file parses the whole source as a series of lists separated by
// newlines.
func (p *parser) file() []Node {
	if strings.TrimSpace(p.src) == "" {
		return []Node{&Empty{}}
	}
	for {
		p.skipWhitespace()
		for p.peek() == '\n' {
			p.advance()
		}
		if p.atEnd() || p.peek() != '#' {
			break
		}
		for !p.atEnd() && p.peek() != '\n' {
			p.advance()
		}
	}
	var nodes []Node
	for !p.atEnd() {
		if cmd := p.parseList(false); cmd != nil {
			nodes = append(nodes, cmd)
		}
		p.skipWhitespace()
		sawNewline := false
		for p.peek() == '\n' {
			sawNewline = true
			p.advance()
			p.newlineHeredocs()
			p.skipWhitespace()
		}
		if !sawNewline && !p.atEnd() {
			p.posErr(p.pos, "Syntax error")
		}
	}
	if len(nodes) == 0 {
		return []Node{&Empty{}}
	}
	if p.sawNewlineInSQ && strings.HasSuffix(p.src, `\`) && !strings.HasSuffix(p.src, "\\\n\\") {
		// bash drops a trailing backslash once a quoted newline has
		// been seen, unless the last word is on a line of its own
		if len(nodes) < 2 {
			stripTrailingBackslash(nodes[len(nodes)-1])
		}
	}
	return nodes
}

func stripTrailingBackslash(n Node) {
	w := lastWord(n)
	if w == nil || !strings.HasSuffix(w.Value, `\`) {
		return
	}
	w.Value = w.Value[:len(w.Value)-1]
	if call, ok := n.(*CallExpr); ok && w.Value == "" && len(call.Words) > 0 {
		call.Words = call.Words[:len(call.Words)-1]
	}
}

func lastWord(n Node) *Word {
	switch n := n.(type) {
	case *Word:
		return n
	case *CallExpr:
		if len(n.Words) > 0 {
			if w := n.Words[len(n.Words)-1]; strings.HasSuffix(w.Value, `\`) {
				return w
			}
		}
		if len(n.Redirects) > 0 {
			if r, ok := n.Redirects[len(n.Redirects)-1].(*Redirect); ok {
				return r.Target
			}
		}
		if len(n.Words) > 0 {
			return n.Words[len(n.Words)-1]
		}
	case *Pipeline:
		if len(n.Cmds) > 0 {
			return lastWord(n.Cmds[len(n.Cmds)-1].Cmd)
		}
	case *List:
		if len(n.Parts) > 0 {
			return lastWord(n.Parts[len(n.Parts)-1])
		}
	}
	return nil
}

// skipWhitespace skips blanks, comments and line continuations, but not
// newlines.
func (p *parser) skipWhitespace() {
	for !p.atEnd() {
		p.skipBlanks()
		switch {
		case p.atEnd():
			return
		case p.peek() == '#':
			if !p.skipComment() {
				return
			}
		case p.peek() == '\\' && p.peekAt(1) == '\n':
			p.pos += 2
		default:
			return
		}
	}
}

// skipSpaceNewlines is like skipWhitespace, but also skips newlines,
// reading any pending here-document bodies after each of them.
func (p *parser) skipSpaceNewlines() {
	for !p.atEnd() {
		switch c := p.peek(); {
		case isSpace(c):
			p.advance()
			if c == '\n' {
				p.newlineHeredocs()
			}
		case c == '#':
			for !p.atEnd() && p.peek() != '\n' {
				p.advance()
			}
		case c == '\\' && p.peekAt(1) == '\n':
			p.pos += 2
		default:
			return
		}
	}
}

// newlineHeredocs reads the pending here-document bodies once a newline
// has been consumed, and skips past any bodies that a substitution on
// the line already read.
func (p *parser) newlineHeredocs() {
	p.gatherHeredocs()
	if p.cmdsubHeredocEnd != -1 && p.cmdsubHeredocEnd > p.pos {
		p.pos = p.cmdsubHeredocEnd
		p.cmdsubHeredocEnd = -1
	}
}

func (p *parser) atCmdTerminator() bool {
	switch p.peekToken().kind {
	case _EOF, _Newline, or, semicolon, leftParen, rightParen, and:
		return true
	}
	return false
}

// peekOperator returns the kind of the next token if it is an operator,
// and _EOF otherwise.
func (p *parser) peekOperator() tokKind {
	if tok := p.peekToken(); tok.kind.isOperator() {
		return tok.kind
	}
	return _EOF
}

// tokWord returns the text of a word token as used to match keywords.
func tokWord(tok *token) string {
	return strings.TrimSuffix(tok.val, "\\\n")
}

// peekReserved returns the next token if it is a reserved word.
func (p *parser) peekReserved() string {
	tok := p.peekToken()
	if tok.kind != _Word {
		return ""
	}
	if w := tokWord(tok); isReserved(w) {
		return w
	}
	return ""
}

func (p *parser) atReserved(word string) bool { return p.peekReserved() == word }

// gotWord consumes the next token if it is the word s.
func (p *parser) gotWord(s string) bool {
	tok := p.peekToken()
	if tok.kind != _Word || tokWord(tok) != s {
		return false
	}
	p.nextToken()
	return true
}

func (p *parser) peekCaseTerm() string {
	switch p.peekToken().kind {
	case dblSemicolon:
		return ";;"
	case semiFall:
		return ";&"
	case dblSemiFall:
		return ";;&"
	}
	return ""
}

// peekName returns the plain text of the next word without consuming
// it. Quotes end it.
func (p *parser) peekName() string {
	saved := p.pos
	defer func() { p.pos = saved }()
	p.skipWhitespace()
	start := p.pos
	for !p.atEnd() && !isMetachar(p.peek()) {
		c := p.peek()
		if c == '"' || c == '\'' || c == '\\' && p.peekAt(1) == '\n' {
			break
		}
		if c == '\\' && p.pos+1 < len(p.src) {
			p.pos++
		}
		p.advance()
	}
	return p.src[start:p.pos]
}

// gotName consumes the plain word s. Inside a process substitution a
// "}" stuck to the front of the word is skipped too.
func (p *parser) gotName(s string) bool {
	saved := p.pos
	p.skipWhitespace()
	word := p.peekName()
	leadingBrace := false
	if p.inProcSub && len(word) > 1 && word[0] == '}' {
		word = word[1:]
		leadingBrace = true
	}
	if word != s {
		p.pos = saved
		return false
	}
	p.skipWhitespace()
	if leadingBrace {
		p.advance()
	}
	p.pos += len(s)
	for p.peek() == '\\' && p.peekAt(1) == '\n' {
		p.pos += 2
	}
	return true
}

// parseWord reads the next word token, with the given flags applying to
// how it is lexed. It returns nil if the next token is not a word.
func (p *parser) parseWord(atCmdStart, inArrayLit, inAssignBuiltin bool) *Word {
	p.skipWhitespace()
	if p.atEnd() {
		return nil
	}
	p.atCmdStart, p.inArrayLit, p.inAssignBuiltin = atCmdStart, inArrayLit, inAssignBuiltin
	defer func() { p.atCmdStart, p.inArrayLit, p.inAssignBuiltin = false, false, false }()
	if p.peekToken().kind != _Word {
		return nil
	}
	return p.nextToken().word
}

// listOperator consumes one of the list operators "&&", "||", ";" and
// "&".
func (p *parser) listOperator() string {
	p.skipWhitespace()
	switch k := p.peekOperator(); k {
	case andAnd, orOr, semicolon, and:
		p.nextToken()
		return k.String()
	}
	return ""
}

func (p *parser) peekListOperator() string {
	saved := p.pos
	op := p.listOperator()
	p.pos = saved
	return op
}

// atListEnd reports whether the list must end before the next byte,
// because it closes some enclosing construct.
func (p *parser) atListEnd() bool {
	if p.atEnd() {
		return false
	}
	c := p.peek()
	switch {
	case p.eofToken != 0 && c == p.eofToken, c == ')':
		return true
	case c == '}':
		return p.pos+1 >= len(p.src) || isWordEnd(p.src[p.pos+1])
	}
	return false
}

func isWordEnd(b byte) bool { return strings.IndexByte(" \t\n;|&<>()", b) >= 0 }

// atEOFToken reports whether the next token closes the inline parse
// started by a substitution.
func (p *parser) atEOFToken() bool {
	tok := p.peekToken()
	switch p.eofToken {
	case ')':
		return tok.kind == rightParen
	case '}':
		return tok.kind == _Word && tok.val == "}"
	}
	return false
}

func listOf(parts []Node) Command {
	if len(parts) == 1 {
		return parts[0].(Command)
	}
	return &List{Parts: parts}
}

// parseList parses a list of pipelines. Newlines only separate its
// pipelines if newlineSep is set; at the top level, each line is its own
// list. It returns nil if there are no commands.
func (p *parser) parseList(newlineSep bool) Command {
	if newlineSep {
		p.skipSpaceNewlines()
	} else {
		p.skipWhitespace()
	}
	first := p.pipeline()
	if first == nil {
		return nil
	}
	parts := []Node{first}
	if p.inState(stEOFToken) && p.atEOFToken() {
		return listOf(parts)
	}
	for {
		p.skipWhitespace()
		op := p.listOperator()
		if op == "" {
			if p.peek() != '\n' || !newlineSep {
				break
			}
			p.advance()
			p.newlineHeredocs()
			p.skipSpaceNewlines()
			if p.atEnd() || p.atListEnd() {
				break
			}
			if next := p.peekListOperator(); next == "&" || next == ";" {
				break
			}
			op = "\n"
		}
		parts = append(parts, &Operator{Op: op})
		switch op {
		case "&&", "||":
			p.skipSpaceNewlines()
		case "&", ";":
			p.skipWhitespace()
			if p.peek() == '\n' {
				if !newlineSep {
					return listOf(parts)
				}
				p.skipSpaceNewlines()
			}
			if p.atEnd() || p.atListEnd() {
				return listOf(parts)
			}
		}
		next := p.pipeline()
		if next == nil {
			p.posErr(p.pos, "Expected command after %s", op)
		}
		parts = append(parts, next)
		if p.inState(stEOFToken) && p.atEOFToken() {
			break
		}
	}
	return listOf(parts)
}

// atListUntilEnd is like atListEnd, for lists that also stop at the
// given reserved words or at a case clause terminator.
func (p *parser) atListUntilEnd(stop []string) bool {
	if p.atEnd() {
		return true
	}
	switch p.peek() {
	case ')':
		return true
	case '}':
		if p.pos+1 >= len(p.src) || isWordEnd(p.src[p.pos+1]) {
			return true
		}
	}
	if r := p.peekReserved(); r != "" {
		for _, s := range stop {
			if r == s {
				return true
			}
		}
	}
	return p.peekCaseTerm() != ""
}

// listUntil parses a list that ends at any of the stop words, as in the
// condition or body of a compound command.
func (p *parser) listUntil(stop ...string) Command {
	p.skipSpaceNewlines()
	if r := p.peekReserved(); r != "" {
		for _, s := range stop {
			if r == s {
				return nil
			}
		}
	}
	first := p.pipeline()
	if first == nil {
		return nil
	}
	parts := []Node{first}
	for {
		p.skipWhitespace()
		op := p.listOperator()
		if op == "" {
			if p.peek() != '\n' {
				break
			}
			p.advance()
			p.newlineHeredocs()
			p.skipSpaceNewlines()
			if p.atListUntilEnd(stop) {
				break
			}
			if next := p.peekListOperator(); next == "&" || next == ";" {
				break
			}
			op = "\n"
		}
		switch op {
		case ";":
			p.skipSpaceNewlines()
			if p.atListUntilEnd(stop) {
				return listOf(parts)
			}
			parts = append(parts, &Operator{Op: op})
		case "&":
			parts = append(parts, &Operator{Op: op})
			p.skipSpaceNewlines()
			if p.atListUntilEnd(stop) {
				return listOf(parts)
			}
		case "&&", "||":
			parts = append(parts, &Operator{Op: op})
			p.skipSpaceNewlines()
		default:
			parts = append(parts, &Operator{Op: op})
		}
		if p.atListUntilEnd(stop) {
			break
		}
		next := p.pipeline()
		if next == nil {
			p.posErr(p.pos, "Expected command after %s", op)
		}
		parts = append(parts, next)
	}
	return listOf(parts)
}

// gotTimePosix consumes a "-p" option to time.
func (p *parser) gotTimePosix() bool {
	if p.peek() != '-' || p.peekAt(1) != 'p' {
		return false
	}
	if c := p.peekAt(2); c != 0 && !isMetachar(c) {
		return false
	}
	p.pos += 2
	return true
}

// bangFollowedByProcSubst reports whether the "!" under the cursor is
// followed by "<(" or ">(".
func (p *parser) bangFollowedByProcSubst() bool {
	next := p.peekAt(1)
	return (next == '<' || next == '>') && p.peekAt(2) == '('
}

// atNegation reports whether the next byte is a "!" that negates a
// pipeline.
func (p *parser) atNegation() bool {
	if p.peek() != '!' {
		return false
	}
	if next := p.peekAt(1); next != 0 && !isNegationBoundary(next) {
		return false
	}
	return !p.bangFollowedByProcSubst()
}

// pipeline parses a pipeline with its optional "time" and "!" prefixes.
func (p *parser) pipeline() Command {
	p.skipWhitespace()
	if p.atReserved("time") {
		p.gotWord("time")
		p.skipWhitespace()
		posix := p.gotTimePosix()
		p.skipWhitespace()
		if strings.HasPrefix(p.src[p.pos:], "--") {
			if c := p.peekAt(2); c == 0 || isSpace(c) {
				p.pos += 2
				posix = true
				p.skipWhitespace()
			}
		}
		for p.atReserved("time") {
			p.gotWord("time")
			p.skipWhitespace()
			if p.gotTimePosix() {
				posix = true
			}
		}
		p.skipWhitespace()
		negated := false
		if p.atNegation() {
			p.advance()
			negated = true
			p.skipWhitespace()
		}
		var tc Command = &TimeClause{Pipeline: p.simplePipeline(), Posix: posix}
		if negated {
			tc = &Negation{Pipeline: tc}
		}
		return tc
	}
	if p.atNegation() {
		p.enter(p.pos)
		defer p.leave()
		p.advance()
		p.skipWhitespace()
		inner := p.pipeline()
		if neg, ok := inner.(*Negation); ok {
			// "! !cmd" cancels out
			if neg.Pipeline != nil {
				return neg.Pipeline
			}
			return &CallExpr{}
		}
		return &Negation{Pipeline: inner}
	}
	return p.simplePipeline()
}

// simplePipeline parses commands joined by "|" or "|&".
func (p *parser) simplePipeline() Command {
	cmd := p.command()
	if cmd == nil {
		return nil
	}
	cmds := []PipeCmd{{Cmd: cmd}}
	for {
		p.skipWhitespace()
		k := p.peekOperator()
		if k != or && k != orAnd {
			break
		}
		p.nextToken()
		cmds[len(cmds)-1].Both = k == orAnd
		p.skipSpaceNewlines()
		cmd := p.command()
		if cmd == nil {
			p.posErr(p.pos, "Expected command after |")
		}
		cmds = append(cmds, PipeCmd{Cmd: cmd})
	}
	if len(cmds) == 1 {
		return cmds[0].Cmd
	}
	return &Pipeline{Cmds: cmds}
}

// command parses a single command, simple or compound.
func (p *parser) command() Command {
	p.skipWhitespace()
	if p.atEnd() {
		return nil
	}
	c := p.peek()
	if c == '(' && p.peekAt(1) == '(' {
		if ac := p.arithmCmd(); ac != nil {
			return ac
		}
	}
	if c == '(' {
		if s := p.subshell(); s != nil {
			return s
		}
		return nil
	}
	if c == '{' {
		if b := p.block(); b != nil {
			return b
		}
	}
	if c == '[' && p.peekAt(1) == '[' {
		if tc := p.testClause(); tc != nil {
			return tc
		}
	}
	reserved := p.peekReserved()
	if reserved == "" && p.inProcSub {
		if w := p.peekName(); len(w) > 1 && w[0] == '}' && isReserved(w[1:]) {
			reserved = w[1:]
		}
	}
	switch reserved {
	case "fi", "then", "elif", "else", "done", "esac", "do", "in":
		p.curErr("Unexpected reserved word '%s'", reserved)
	case "if":
		if ic := p.ifClause(); ic != nil {
			return ic
		}
		return nil
	case "while":
		if wc := p.whileClause(); wc != nil {
			return wc
		}
		return nil
	case "until":
		if uc := p.untilClause(); uc != nil {
			return uc
		}
		return nil
	case "for":
		return p.forClause()
	case "select":
		if sc := p.selectClause(); sc != nil {
			return sc
		}
		return nil
	case "case":
		if cc := p.caseClause(); cc != nil {
			return cc
		}
		return nil
	case "function":
		if fd := p.funcDecl(); fd != nil {
			return fd
		}
		return nil
	case "coproc":
		if cc := p.coprocClause(); cc != nil {
			return cc
		}
		return nil
	}
	if fd := p.funcDecl(); fd != nil {
		return fd
	}
	if call := p.callExpr(); call != nil {
		return call
	}
	return nil
}

// callExpr parses a simple command: words and redirections up to the
// next operator.
func (p *parser) callExpr() *CallExpr {
	var words []*Word
	var redirs []Redirection
	for {
		p.skipWhitespace()
		if p.atCmdTerminator() {
			break
		}
		if len(words) == 0 {
			if r := p.peekReserved(); r == "}" || r == "]]" {
				break
			}
		}
		if r := p.redirect(); r != nil {
			redirs = append(redirs, r)
			continue
		}
		allAssigns := true
		for _, w := range words {
			if !looksLikeAssignment(w.Value) {
				allAssigns = false
				break
			}
		}
		inAssignBuiltin := len(words) > 0 && assignBuiltins[words[0].Value]
		cmdStart := len(words) == 0 || allAssigns && len(redirs) == 0
		w := p.parseWord(cmdStart, false, inAssignBuiltin)
		if w == nil {
			break
		}
		words = append(words, w)
	}
	if len(words) == 0 && len(redirs) == 0 {
		return nil
	}
	return &CallExpr{Words: words, Redirects: redirs}
}

// redirects collects the redirections that follow a compound command.
func (p *parser) redirects() []Redirection {
	var redirs []Redirection
	for {
		p.skipWhitespace()
		r := p.redirect()
		if r == nil {
			return redirs
		}
		redirs = append(redirs, r)
	}
}

// varFd reads a "{name}" or "{name[sub]}" prefix of a redirection. It
// consumes nothing and returns "" if there is none.
func (p *parser) varFd() string {
	if p.peek() != '{' {
		return ""
	}
	saved := p.pos
	p.advance()
	start := p.pos
	inBracket := false
loop:
	for !p.atEnd() && p.peek() != '<' && p.peek() != '>' {
		switch c := p.peek(); {
		case c == '}' && !inBracket:
			break loop
		case c == '[':
			inBracket = true
		case c == ']':
			inBracket = false
		case isNameByte(c):
		case inBracket && !isMetachar(c):
		default:
			break loop
		}
		p.advance()
	}
	name := p.src[start:p.pos]
	valid := false
	if i := strings.IndexByte(name, '['); i >= 0 || strings.IndexByte(name, ']') >= 0 {
		j := strings.LastIndexByte(name, ']')
		valid = i != -1 && j == len(name)-1 && j > i+1 && isValidIdentifier(name[:i])
	} else {
		valid = isValidIdentifier(name)
	}
	if !valid || p.peek() != '}' {
		p.pos = saved
		return ""
	}
	p.advance()
	return name
}

// redirect parses a single redirection, returning nil and consuming
// nothing if there is none.
func (p *parser) redirect() Redirection {
	p.skipWhitespace()
	if p.atEnd() {
		return nil
	}
	start := p.pos
	fd := -1
	varfd := p.varFd()
	if varfd == "" && isDigit(p.peek()) {
		fdStart := p.pos
		for isDigit(p.peek()) {
			p.advance()
		}
		n, err := strconv.Atoi(p.src[fdStart:p.pos])
		if err != nil {
			p.posErr(fdStart, "file descriptor out of range")
		}
		fd = n
	}
	c := p.peek()
	if c == '&' && p.peekAt(1) == '>' {
		if fd != -1 || varfd != "" {
			p.pos = start
			return nil
		}
		p.pos += 2
		op := "&>"
		if p.peek() == '>' {
			p.advance()
			op = "&>>"
		}
		p.skipWhitespace()
		target := p.parseWord(false, false, false)
		if target == nil {
			p.posErr(p.pos, "Expected target for redirect %s", op)
		}
		return &Redirect{Op: op, Target: target, Fd: fd}
	}
	if c != '<' && c != '>' {
		p.pos = start
		return nil
	}
	if fd == -1 && p.peekAt(1) == '(' {
		p.pos = start
		return nil
	}
	op := string(p.advance())
	stripTabs := false
	switch next := p.peek(); {
	case op == ">" && next == '>':
		p.advance()
		op = ">>"
	case op == "<" && next == '<':
		p.advance()
		op = "<<"
		switch p.peek() {
		case '<':
			p.advance()
			op = "<<<"
		case '-':
			p.advance()
			stripTabs = true
		}
	case op == "<" && next == '>':
		p.advance()
		op = "<>"
	case op == ">" && next == '|':
		p.advance()
		op = ">|"
	case fd == -1 && varfd == "" && next == '&':
		if !isDigit(p.peekAt(1)) && p.peekAt(1) != '-' {
			p.advance()
			op += "&"
		}
	}
	if op == "<<" {
		return p.heredoc(fd, stripTabs)
	}
	if varfd != "" {
		op = "{" + varfd + "}" + op
	} else if fd != -1 {
		op = strconv.Itoa(fd) + op
	}
	var target *Word
	if p.peek() == '&' {
		p.advance()
		p.skipWhitespace()
		target = p.dupTarget(op)
	} else {
		p.skipWhitespace()
		if (op == ">&" || op == "<&") && p.peek() == '-' &&
			p.pos+1 < len(p.src) && !isMetachar(p.peekAt(1)) {
			p.advance()
			target = &Word{Value: "&-"}
		} else {
			target = p.parseWord(false, false, false)
		}
	}
	if target == nil {
		p.posErr(p.pos, "Expected target for redirect %s", op)
	}
	return &Redirect{Op: op, Target: target, Fd: fd}
}

// dupTarget reads the target of a duplication such as "N>&M", with the
// "&" already consumed. The returned word keeps the "&" prefix.
func (p *parser) dupTarget(op string) *Word {
	if p.peek() == '-' && p.pos+1 < len(p.src) && !isMetachar(p.peekAt(1)) {
		p.advance()
		return &Word{Value: "&-"}
	}
	wordOf := func() *Word {
		inner := p.parseWord(false, false, false)
		if inner == nil {
			p.posErr(p.pos, "Expected target for redirect %s", op)
		}
		return &Word{Value: "&" + inner.Value, Parts: inner.Parts}
	}
	if c := p.peek(); !isDigit(c) && c != '-' {
		return wordOf()
	}
	start := p.pos
	for isDigit(p.peek()) {
		p.advance()
	}
	if p.peek() == '-' {
		p.advance()
	}
	fdTarget := p.src[start:p.pos]
	if fdTarget != "-" && !p.atEnd() && !isMetachar(p.peek()) {
		p.pos = start
		return wordOf()
	}
	return &Word{Value: "&" + fdTarget}
}

// heredoc records a here-document whose "<<" or "<<-" operator was just
// read. Its body is filled in once the current line has been parsed.
func (p *parser) heredoc(fd int, stripTabs bool) *HereDoc {
	start := p.pos
	p.setState(stHeredoc)
	defer p.clearState(stHeredoc)
	delim, quoted := p.heredocDelim()
	for _, h := range p.heredocs {
		// the same operator, lexed again after backtracking
		if h.startPos == start && h.Delimiter == delim {
			return h
		}
	}
	h := &HereDoc{
		Delimiter: delim,
		StripTabs: stripTabs,
		Quoted:    quoted,
		Fd:        fd,
		startPos:  start,
	}
	p.heredocs = append(p.heredocs, h)
	return h
}

// oddDollarRun reports whether the "$" at pos is the second half of a
// "$$", ignoring a run that starts with an escaped "$".
func oddDollarRun(s string, pos int) bool {
	n := 0
	j := pos - 1
	for ; j >= 0 && s[j] == '$'; j-- {
		n++
	}
	if j >= 0 && s[j] == '\\' {
		n--
	}
	return n%2 == 1
}

// heredocDelim reads a here-document delimiter word, removing its
// quoting. The delimiter is quoted if any part of it was.
func (p *parser) heredocDelim() (string, bool) {
	p.skipWhitespace()
	var delim []byte
	quoted := false
	take := func() { delim = append(delim, p.advance()) }
	balanced := func(open, close byte, depth int) {
		for !p.atEnd() && depth > 0 {
			switch p.peek() {
			case open:
				depth++
			case close:
				depth--
			}
			take()
		}
	}
	for {
		for !p.atEnd() && !isMetachar(p.peek()) {
			c := p.peek()
			switch {
			case c == '"' || c == '\'':
				quoted = true
				p.advance()
				for !p.atEnd() && p.peek() != c {
					if c == '\'' && p.peek() == '\n' {
						p.sawNewlineInSQ = true
					}
					take()
				}
				p.advance()
			case c == '\\':
				p.advance()
				if p.peek() == '\n' {
					p.advance()
				} else if !p.atEnd() {
					quoted = true
					take()
				}
			case c == '$' && p.peekAt(1) == '\'':
				quoted = true
				p.pos += 2
				for !p.atEnd() && p.peek() != '\'' {
					if p.peek() == '\\' && p.pos+1 < len(p.src) {
						p.advance()
						if b, ok := ansiCEscapes[p.peek()]; ok {
							delim = append(delim, b)
							p.advance()
							continue
						}
					}
					take()
				}
				p.advance()
			case isExpansionStart(p.src, p.pos, "$("):
				take()
				take()
				balanced('(', ')', 1)
			case c == '$' && p.peekAt(1) == '{':
				if oddDollarRun(p.src, p.pos) {
					take()
					break
				}
				take()
				take()
				depth := 0
			braces:
				for !p.atEnd() {
					switch p.peek() {
					case '{':
						depth++
					case '}':
						take()
						if depth == 0 {
							break braces
						}
						depth--
						if depth == 0 && !p.atEnd() && isMetachar(p.peek()) {
							break braces
						}
						continue
					}
					take()
				}
			case c == '$' && p.peekAt(1) == '[':
				if oddDollarRun(p.src, p.pos) {
					take()
					break
				}
				take()
				take()
				balanced('[', ']', 1)
			case c == '`':
				take()
				p.heredocDelimBackquote(take)
			default:
				take()
			}
		}
		if c := p.peek(); (c == '<' || c == '>') && p.peekAt(1) == '(' {
			take()
			take()
			balanced('(', ')', 1)
			continue
		}
		return string(delim), quoted
	}
}

// heredocDelimBackquote copies the rest of a backquoted part of a
// here-document delimiter, including its closing backquote.
func (p *parser) heredocDelimBackquote(take func()) {
	for !p.atEnd() && p.peek() != '`' {
		switch c := p.peek(); {
		case c == '\'':
			take()
			for !p.atEnd() && p.peek() != '\'' && p.peek() != '`' {
				take()
			}
			if p.peek() == '\'' {
				take()
			}
		case c == '"':
			take()
			for !p.atEnd() && p.peek() != '"' && p.peek() != '`' {
				if p.peek() == '\\' && p.pos+1 < len(p.src) {
					take()
				}
				take()
			}
			if p.peek() == '"' {
				take()
			}
		case c == '\\' && p.pos+1 < len(p.src):
			take()
			take()
		default:
			take()
		}
	}
	if !p.atEnd() {
		take()
	}
}

// gatherHeredocs reads the bodies of the pending here-documents, in
// order, starting at the current position.
func (p *parser) gatherHeredocs() {
	for _, h := range p.heredocs {
		var body strings.Builder
		delim := normalizeHeredocDelimiter(h.Delimiter)
		for p.pos < len(p.src) {
			lineStart := p.pos
			var line string
			var lineEnd int
			if h.Quoted {
				lineEnd = lineStart
				for lineEnd < len(p.src) && p.src[lineEnd] != '\n' {
					lineEnd++
				}
				line = p.src[lineStart:lineEnd]
			} else {
				line, lineEnd = heredocLine(p.src, lineStart)
			}
			check := line
			if h.StripTabs {
				check = strings.TrimLeft(line, "\t")
			}
			normCheck := normalizeHeredocDelimiter(check)
			if normCheck == delim {
				p.pos = lineEnd
				if lineEnd < len(p.src) {
					p.pos++
				}
				h.Complete = true
				break
			}
			// a delimiter followed by the closing of a substitution
			if strings.HasPrefix(normCheck, delim) &&
				(p.eofToken == ')' || lineEnd >= len(p.src) && p.inProcSub) {
				p.pos = lineStart + len(line) - len(check) + len(h.Delimiter)
				h.Complete = true
				break
			}
			if lineEnd < len(p.src) {
				body.WriteString(check)
				body.WriteByte('\n')
				p.pos = lineEnd + 1
				continue
			}
			// the final line keeps its newline unless it was escaped
			body.WriteString(check)
			if h.Quoted || trailingBackslashes(line)%2 == 0 {
				body.WriteByte('\n')
			}
			p.pos = len(p.src)
		}
		h.Content = body.String()
	}
	for i := range p.heredocs {
		p.heredocs[i] = nil
	}
	p.heredocs = p.heredocs[:0]
}
