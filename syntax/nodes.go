// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

// Node represents an AST node.
type Node interface {
	// Kind returns the name of the node kind, such as "command" or
	// "binary-op".
	Kind() string
	// Sexp returns the canonical S-expression for the node.
	Sexp() string
}

// Command represents all nodes that can appear where a command may
// start, from simple commands to lists of pipelines.
type Command interface {
	Node
	commandNode()
}

func (*CallExpr) commandNode()     {}
func (*Pipeline) commandNode()     {}
func (*List) commandNode()         {}
func (*Empty) commandNode()        {}
func (*Subshell) commandNode()     {}
func (*Block) commandNode()        {}
func (*IfClause) commandNode()     {}
func (*WhileClause) commandNode()  {}
func (*UntilClause) commandNode()  {}
func (*ForClause) commandNode()    {}
func (*CStyleLoop) commandNode()   {}
func (*SelectClause) commandNode() {}
func (*CaseClause) commandNode()   {}
func (*FuncDecl) commandNode()     {}
func (*CoprocClause) commandNode() {}
func (*ArithmCmd) commandNode()    {}
func (*TestClause) commandNode()   {}
func (*Negation) commandNode()     {}
func (*TimeClause) commandNode()   {}

// Redirection represents the nodes that can redirect a command's input
// or output.
type Redirection interface {
	Node
	redirNode()
}

func (*Redirect) redirNode() {}
func (*HereDoc) redirNode()  {}

// WordPart represents the expansions that can be found inside a word.
type WordPart interface {
	Node
	wordPartNode()
}

func (*ParamExp) wordPartNode()        {}
func (*ParamLen) wordPartNode()        {}
func (*ParamIndirect) wordPartNode()   {}
func (*CmdSubst) wordPartNode()        {}
func (*ArithmExp) wordPartNode()       {}
func (*ArithDeprecated) wordPartNode() {}
func (*AnsiCQuote) wordPartNode()      {}
func (*LocaleString) wordPartNode()    {}
func (*ProcSubst) wordPartNode()       {}
func (*ArrayExpr) wordPartNode()       {}

// ArithmExpr represents all nodes that form arithmetic expressions.
type ArithmExpr interface {
	Node
	arithmExprNode()
}

func (*ArithNumber) arithmExprNode()    {}
func (*ArithEmpty) arithmExprNode()     {}
func (*ArithVar) arithmExprNode()       {}
func (*BinaryArithm) arithmExprNode()   {}
func (*UnaryArithm) arithmExprNode()    {}
func (*ArithAssign) arithmExprNode()    {}
func (*ArithTernary) arithmExprNode()   {}
func (*ArithComma) arithmExprNode()     {}
func (*ArithSubscript) arithmExprNode() {}
func (*ArithEscape) arithmExprNode()    {}
func (*ArithConcat) arithmExprNode()    {}
func (*ParamExp) arithmExprNode()       {}
func (*ParamLen) arithmExprNode()       {}
func (*ParamIndirect) arithmExprNode()  {}
func (*CmdSubst) arithmExprNode()       {}
func (*ArithmExp) arithmExprNode()      {}

// CondExpr represents all nodes that form expressions inside [[ ]].
type CondExpr interface {
	Node
	condExprNode()
}

func (*UnaryTest) condExprNode()  {}
func (*BinaryTest) condExprNode() {}
func (*CondAnd) condExprNode()    {}
func (*CondOr) condExprNode()     {}
func (*CondNot) condExprNode()    {}
func (*ParenTest) condExprNode()  {}

// Word represents a shell word. Value holds its source text, with any
// expansions still in place; Parts holds the expansions found inside it,
// in order.
type Word struct {
	Value string
	Parts []WordPart
}

// CallExpr represents a simple command: a list of words and redirections.
type CallExpr struct {
	Words     []*Word
	Redirects []Redirection
}

// PipeCmd is one command in a pipeline.
type PipeCmd struct {
	Cmd Command
	// Both is set when the command's output was piped with "|&", so that
	// its standard error is sent down the pipe too.
	Both bool
}

// Pipeline represents two or more commands joined by pipes.
type Pipeline struct {
	Cmds []PipeCmd
}

// List represents a sequence of pipelines joined by operators. Parts
// alternates between commands and *Operator nodes, and may end with an
// operator.
type List struct {
	Parts []Node
}

// Operator represents one of the list operators "&&", "||", ";", "&" or
// a newline.
type Operator struct {
	Op string
}

// Empty represents the absence of a command, such as an empty input or
// an empty command substitution.
type Empty struct{}

// Redirect represents an input/output redirection other than a
// here-document. Op includes any leading file descriptor or {varname}.
type Redirect struct {
	Op     string
	Target *Word
	Fd     int
}

// HereDoc represents a here-document redirection. Its Content is filled
// in once the line holding the operator has been fully read.
type HereDoc struct {
	Delimiter string
	Content   string
	StripTabs bool
	Quoted    bool
	Fd        int
	Complete  bool

	startPos int
}

// Subshell represents a series of commands that should be executed in a
// nested shell environment.
type Subshell struct {
	Body      Command
	Redirects []Redirection
}

// Block represents a series of commands that should be executed in a
// nested scope, as in "{ cmd; }".
type Block struct {
	Body      Command
	Redirects []Redirection
}

// IfClause represents an if statement. An elif chain is represented by
// an IfClause in Else.
type IfClause struct {
	Cond      Command
	Then      Command
	Else      Command
	Redirects []Redirection
}

// WhileClause represents a while loop.
type WhileClause struct {
	Cond      Command
	Body      Command
	Redirects []Redirection
}

// UntilClause represents an until loop.
type UntilClause struct {
	Cond      Command
	Body      Command
	Redirects []Redirection
}

// ForClause represents a for loop over a list of words. When InList is
// false the loop had no "in" clause and iterates over "$@".
type ForClause struct {
	Var       string
	InList    bool
	Words     []*Word
	Body      Command
	Redirects []Redirection
}

// CStyleLoop represents a for loop similar to the C language, such as
// "for ((i = 0; i < n; i++))". Its three expressions are kept as text.
type CStyleLoop struct {
	Init, Cond, Post string
	Body             Command
	Redirects        []Redirection
}

// SelectClause represents a select loop. InList has the same meaning as
// in ForClause.
type SelectClause struct {
	Var       string
	InList    bool
	Words     []*Word
	Body      Command
	Redirects []Redirection
}

// CaseClause represents a case statement.
type CaseClause struct {
	Word      *Word
	Items     []*CaseItem
	Redirects []Redirection
}

// CaseItem represents a pattern list and its body inside a case
// statement. Body is nil for an empty clause.
type CaseItem struct {
	Pattern    string
	Body       Command
	Terminator string
}

// FuncDecl represents the declaration of a function.
type FuncDecl struct {
	Name string
	Body Command
}

// CoprocClause represents a coproc command. Name is empty when the
// default name is used.
type CoprocClause struct {
	Name string
	Cmd  Command
}

// Negation represents a pipeline prefixed by "!". Pipeline is nil for a
// bare "!".
type Negation struct {
	Pipeline Command
}

// TimeClause represents a pipeline prefixed by "time". Pipeline is nil
// for a bare "time".
type TimeClause struct {
	Pipeline Command
	Posix    bool
}

// ArithmCmd represents an arithmetic command, such as "(( x++ ))". Raw
// holds the source text between the parentheses.
type ArithmCmd struct {
	X         ArithmExpr
	Raw       string
	Redirects []Redirection
}

// TestClause represents a Bash extended test clause, "[[ expr ]]".
type TestClause struct {
	X         CondExpr
	Redirects []Redirection
}

// ParamExp represents a parameter expansion, either "$name" or
// "${name<op><arg>}".
type ParamExp struct {
	Param string
	Op    string
	Arg   string
}

// ParamLen represents a length expansion, "${#name}".
type ParamLen struct {
	Param string
}

// ParamIndirect represents an indirect expansion, "${!name}", optionally
// followed by an operator and its argument.
type ParamIndirect struct {
	Param string
	Op    string
	Arg   string
}

// CmdSubst represents a command substitution. Brace is set for the
// "${ cmd; }" and "${| cmd; }" forms.
type CmdSubst struct {
	Cmd   Command
	Brace bool
}

// ArithmExp represents an arithmetic expansion, "$(( expr ))". X is nil
// for an empty expression.
type ArithmExp struct {
	X ArithmExpr
}

// ArithDeprecated represents the deprecated "$[ expr ]" form, kept as
// text.
type ArithDeprecated struct {
	Expr string
}

// AnsiCQuote represents an ANSI-C quoted string, "$'...'", with its
// escapes still in place.
type AnsiCQuote struct {
	Content string
}

// LocaleString represents a locale-translated string, "$"..."".
type LocaleString struct {
	Content string
}

// ProcSubst represents a process substitution, "<(cmd)" or ">(cmd)".
type ProcSubst struct {
	Direction string
	Cmd       Command
}

// ArrayExpr represents the parenthesized list of elements assigned to an
// array.
type ArrayExpr struct {
	Elems []*Word
}

// ArithNumber represents a numeric literal, or any literal text that is
// used as one.
type ArithNumber struct {
	Value string
}

// ArithEmpty represents a missing operand.
type ArithEmpty struct{}

// ArithVar represents a variable referenced by its bare name.
type ArithVar struct {
	Name string
}

// BinaryArithm represents a binary expression between two arithmetic
// expressions.
type BinaryArithm struct {
	Op   string
	X, Y ArithmExpr
}

// UnaryArithm represents an unary expression over a node, either before
// or after it. Post can only be set for the "++" and "--" operators.
type UnaryArithm struct {
	Op   string
	Post bool
	X    ArithmExpr
}

// ArithAssign represents an assignment such as "x += 2".
type ArithAssign struct {
	Op     string
	Target ArithmExpr
	Value  ArithmExpr
}

// ArithTernary represents "cond ? a : b".
type ArithTernary struct {
	Cond, Then, Else ArithmExpr
}

// ArithComma represents "a, b".
type ArithComma struct {
	X, Y ArithmExpr
}

// ArithSubscript represents an array element, "name[index]".
type ArithSubscript struct {
	Array string
	Index ArithmExpr
}

// ArithEscape represents a backslash-escaped character.
type ArithEscape struct {
	Char string
}

// ArithConcat represents a literal immediately followed by expansions,
// such as "0x$hex".
type ArithConcat struct {
	Parts []ArithmExpr
}

// UnaryTest represents a unary test expression, such as "-f file".
type UnaryTest struct {
	Op string
	X  *Word
}

// BinaryTest represents a binary test expression, such as "a == b".
type BinaryTest struct {
	Op   string
	X, Y *Word
}

// CondAnd represents "a && b" inside [[ ]].
type CondAnd struct {
	X, Y CondExpr
}

// CondOr represents "a || b" inside [[ ]].
type CondOr struct {
	X, Y CondExpr
}

// CondNot represents "! expr" inside [[ ]].
type CondNot struct {
	X CondExpr
}

// ParenTest represents a parenthesized expression inside [[ ]].
type ParenTest struct {
	X CondExpr
}

func (*Word) Kind() string          { return "word" }
func (*CallExpr) Kind() string      { return "command" }
func (*Pipeline) Kind() string      { return "pipeline" }
func (*List) Kind() string          { return "list" }
func (*Operator) Kind() string      { return "operator" }
func (*Empty) Kind() string         { return "empty" }
func (*Redirect) Kind() string      { return "redirect" }
func (*HereDoc) Kind() string       { return "heredoc" }
func (*Subshell) Kind() string      { return "subshell" }
func (*Block) Kind() string         { return "brace-group" }
func (*IfClause) Kind() string      { return "if" }
func (*WhileClause) Kind() string   { return "while" }
func (*UntilClause) Kind() string   { return "until" }
func (*ForClause) Kind() string     { return "for" }
func (*CStyleLoop) Kind() string    { return "for-arith" }
func (*SelectClause) Kind() string  { return "select" }
func (*CaseClause) Kind() string    { return "case" }
func (*CaseItem) Kind() string      { return "pattern" }
func (*FuncDecl) Kind() string      { return "function" }
func (*CoprocClause) Kind() string  { return "coproc" }
func (*Negation) Kind() string      { return "negation" }
func (*TimeClause) Kind() string    { return "time" }
func (*ArithmCmd) Kind() string     { return "arith-cmd" }
func (*TestClause) Kind() string    { return "cond-expr" }
func (*ParamExp) Kind() string      { return "param" }
func (*ParamLen) Kind() string      { return "param-len" }
func (*ParamIndirect) Kind() string { return "param-indirect" }
func (*CmdSubst) Kind() string      { return "cmdsub" }
func (*ArithmExp) Kind() string     { return "arith" }
func (*ArithDeprecated) Kind() string {
	return "arith-deprecated"
}
func (*AnsiCQuote) Kind() string     { return "ansi-c" }
func (*LocaleString) Kind() string   { return "locale" }
func (*ProcSubst) Kind() string      { return "procsub" }
func (*ArrayExpr) Kind() string      { return "array" }
func (*ArithNumber) Kind() string    { return "number" }
func (*ArithEmpty) Kind() string     { return "empty" }
func (*ArithVar) Kind() string       { return "var" }
func (*BinaryArithm) Kind() string   { return "binary-op" }
func (*ArithAssign) Kind() string    { return "assign" }
func (*ArithTernary) Kind() string   { return "ternary" }
func (*ArithComma) Kind() string     { return "comma" }
func (*ArithSubscript) Kind() string { return "subscript" }
func (*ArithEscape) Kind() string    { return "escape" }
func (*ArithConcat) Kind() string    { return "arith-concat" }
func (*UnaryTest) Kind() string      { return "unary-test" }
func (*BinaryTest) Kind() string     { return "binary-test" }
func (*CondAnd) Kind() string        { return "cond-and" }
func (*CondOr) Kind() string         { return "cond-or" }
func (*CondNot) Kind() string        { return "cond-not" }
func (*ParenTest) Kind() string      { return "cond-paren" }

func (u *UnaryArithm) Kind() string {
	switch {
	case u.Op == "++" && u.Post:
		return "post-incr"
	case u.Op == "++":
		return "pre-incr"
	case u.Op == "--" && u.Post:
		return "post-decr"
	case u.Op == "--":
		return "pre-decr"
	}
	return "unary-op"
}

// hasHeredoc reports whether a simple command carries a here-document.
func (c *CallExpr) hasHeredoc() bool {
	for _, r := range c.Redirects {
		if _, ok := r.(*HereDoc); ok {
			return true
		}
	}
	return false
}
