// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

type tokKind uint8

// The list of all tokens the lexer produces. Reserved words are plain
// words; the parser recognizes them by value.
const (
	_EOF tokKind = iota
	_Word
	_Newline

	semicolon  // ;
	or         // |
	and        // &
	leftParen  // (
	rightParen // )
	rdrIn      // <
	rdrOut     // >

	andAnd       // &&
	orOr         // ||
	dblSemicolon // ;;
	semiFall     // ;&
	dblSemiFall  // ;;&
	hdoc         // <<
	appOut       // >>
	dplIn        // <&
	dplOut       // >&
	rdrInOut     // <>
	clbOut       // >|
	dashHdoc     // <<-
	wordHdoc     // <<<
	rdrAll       // &>
	appAll       // &>>
	orAnd        // |&
)

var tokNames = [...]string{
	_EOF:     "EOF",
	_Word:    "word",
	_Newline: "newline",

	semicolon:  ";",
	or:         "|",
	and:        "&",
	leftParen:  "(",
	rightParen: ")",
	rdrIn:      "<",
	rdrOut:     ">",

	andAnd:       "&&",
	orOr:         "||",
	dblSemicolon: ";;",
	semiFall:     ";&",
	dblSemiFall:  ";;&",
	hdoc:         "<<",
	appOut:       ">>",
	dplIn:        "<&",
	dplOut:       ">&",
	rdrInOut:     "<>",
	clbOut:       ">|",
	dashHdoc:     "<<-",
	wordHdoc:     "<<<",
	rdrAll:       "&>",
	appAll:       "&>>",
	orAnd:        "|&",
}

func (k tokKind) String() string { return tokNames[k] }

func (k tokKind) isOperator() bool { return k >= semicolon }

func (k tokKind) isRedirOp() bool {
	switch k {
	case rdrIn, rdrOut, hdoc, appOut, dplIn, dplOut, rdrInOut,
		clbOut, dashHdoc, wordHdoc, rdrAll, appAll:
		return true
	}
	return false
}

// token is a single lexed token. For words, val is the raw source text
// with line continuations removed and word holds the parsed form.
type token struct {
	kind tokKind
	val  string
	pos  int
	word *Word
}

// operators is ordered so that longer operators are tried first.
var operators = [...]struct {
	text string
	kind tokKind
}{
	{";;&", dblSemiFall},
	{"<<-", dashHdoc},
	{"<<<", wordHdoc},
	{"&>>", appAll},
	{"&&", andAnd},
	{"||", orOr},
	{";;", dblSemicolon},
	{";&", semiFall},
	{"<<", hdoc},
	{">>", appOut},
	{"<&", dplIn},
	{">&", dplOut},
	{"<>", rdrInOut},
	{">|", clbOut},
	{"&>", rdrAll},
	{"|&", orAnd},
}

var reservedWords = map[string]bool{
	"case": true, "coproc": true, "do": true, "done": true,
	"elif": true, "else": true, "esac": true, "fi": true,
	"for": true, "function": true, "if": true, "in": true,
	"select": true, "then": true, "until": true, "while": true,
}

// isReserved also accepts the words that only act as keywords in
// command position.
func isReserved(s string) bool {
	switch s {
	case "{", "}", "[[", "]]", "!", "time":
		return true
	}
	return reservedWords[s]
}

var compoundKeywords = map[string]bool{
	"case": true, "for": true, "if": true,
	"select": true, "until": true, "while": true,
}

// assignBuiltins take assignment words as arguments, so array literals
// are allowed after them.
var assignBuiltins = map[string]bool{
	"alias": true, "declare": true, "eval": true, "export": true,
	"let": true, "local": true, "readonly": true, "typeset": true,
}

var condUnaryOps = map[string]bool{
	"-a": true, "-b": true, "-c": true, "-d": true, "-e": true,
	"-f": true, "-g": true, "-h": true, "-k": true, "-n": true,
	"-o": true, "-p": true, "-r": true, "-s": true, "-t": true,
	"-u": true, "-v": true, "-w": true, "-x": true, "-z": true,
	"-G": true, "-L": true, "-N": true, "-O": true, "-R": true,
	"-S": true,
}

var condBinaryOps = map[string]bool{
	"=": true, "==": true, "!=": true, "=~": true, "<": true, ">": true,
	"-eq": true, "-ne": true, "-lt": true, "-le": true, "-gt": true,
	"-ge": true, "-nt": true, "-ot": true, "-ef": true,
}
