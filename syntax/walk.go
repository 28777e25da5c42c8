// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

import (
	"fmt"
	"io"
	"reflect"
)

// Walk traverses a syntax tree in depth-first order: It starts by calling
// f(node); node must not be nil. If f returns true, Walk invokes f
// recursively for each of the non-nil children of node, followed by
// f(nil). Nodes embedded in words, such as command substitutions, are
// visited as children of their word.
func Walk(node Node, f func(Node) bool) {
	if !f(node) {
		return
	}

	switch node := node.(type) {
	case *Word:
		walkList(node.Parts, f)
	case *CallExpr:
		walkList(node.Words, f)
		walkList(node.Redirects, f)
	case *Pipeline:
		for _, pc := range node.Cmds {
			walkOpt(pc.Cmd, f)
		}
	case *List:
		walkList(node.Parts, f)
	case *Operator, *Empty, *HereDoc:
	case *Redirect:
		walkOpt(node.Target, f)
	case *Subshell:
		walkOpt(node.Body, f)
		walkList(node.Redirects, f)
	case *Block:
		walkOpt(node.Body, f)
		walkList(node.Redirects, f)
	case *IfClause:
		walkOpt(node.Cond, f)
		walkOpt(node.Then, f)
		walkOpt(node.Else, f)
		walkList(node.Redirects, f)
	case *WhileClause:
		walkOpt(node.Cond, f)
		walkOpt(node.Body, f)
		walkList(node.Redirects, f)
	case *UntilClause:
		walkOpt(node.Cond, f)
		walkOpt(node.Body, f)
		walkList(node.Redirects, f)
	case *ForClause:
		walkList(node.Words, f)
		walkOpt(node.Body, f)
		walkList(node.Redirects, f)
	case *CStyleLoop:
		walkOpt(node.Body, f)
		walkList(node.Redirects, f)
	case *SelectClause:
		walkList(node.Words, f)
		walkOpt(node.Body, f)
		walkList(node.Redirects, f)
	case *CaseClause:
		walkOpt(node.Word, f)
		walkList(node.Items, f)
		walkList(node.Redirects, f)
	case *CaseItem:
		walkOpt(node.Body, f)
	case *FuncDecl:
		walkOpt(node.Body, f)
	case *CoprocClause:
		walkOpt(node.Cmd, f)
	case *Negation:
		walkOpt(node.Pipeline, f)
	case *TimeClause:
		walkOpt(node.Pipeline, f)
	case *ArithmCmd:
		walkOpt(node.X, f)
		walkList(node.Redirects, f)
	case *TestClause:
		walkOpt(node.X, f)
		walkList(node.Redirects, f)
	case *ParamExp, *ParamLen, *ParamIndirect, *ArithDeprecated,
		*AnsiCQuote, *LocaleString:
	case *CmdSubst:
		walkOpt(node.Cmd, f)
	case *ArithmExp:
		walkOpt(node.X, f)
	case *ProcSubst:
		walkOpt(node.Cmd, f)
	case *ArrayExpr:
		walkList(node.Elems, f)
	case *ArithNumber, *ArithEmpty, *ArithVar, *ArithEscape:
	case *BinaryArithm:
		walkOpt(node.X, f)
		walkOpt(node.Y, f)
	case *UnaryArithm:
		walkOpt(node.X, f)
	case *ArithAssign:
		walkOpt(node.Target, f)
		walkOpt(node.Value, f)
	case *ArithTernary:
		walkOpt(node.Cond, f)
		walkOpt(node.Then, f)
		walkOpt(node.Else, f)
	case *ArithComma:
		walkOpt(node.X, f)
		walkOpt(node.Y, f)
	case *ArithSubscript:
		walkOpt(node.Index, f)
	case *ArithConcat:
		walkList(node.Parts, f)
	case *UnaryTest:
		walkOpt(node.X, f)
	case *BinaryTest:
		walkOpt(node.X, f)
		walkOpt(node.Y, f)
	case *CondAnd:
		walkOpt(node.X, f)
		walkOpt(node.Y, f)
	case *CondOr:
		walkOpt(node.X, f)
		walkOpt(node.Y, f)
	case *CondNot:
		walkOpt(node.X, f)
	case *ParenTest:
		walkOpt(node.X, f)
	default:
		panic(fmt.Sprintf("syntax.Walk: unexpected node type %T", node))
	}

	f(nil)
}

func walkList[N Node](list []N, f func(Node) bool) {
	for _, node := range list {
		walkOpt(node, f)
	}
}

// walkOpt walks node unless it is nil, including a nil pointer stored in
// an interface.
func walkOpt(node Node, f func(Node) bool) {
	if node == nil {
		return
	}
	if v := reflect.ValueOf(node); v.Kind() == reflect.Ptr && v.IsNil() {
		return
	}
	Walk(node, f)
}

// DebugPrint prints the provided syntax tree, spanning multiple lines and with
// indentation. Can be useful to investigate the content of a syntax tree.
func DebugPrint(w io.Writer, node Node) error {
	p := debugPrinter{out: w}
	p.print(reflect.ValueOf(node))
	p.printf("\n")
	return p.err
}

type debugPrinter struct {
	out   io.Writer
	level int
	err   error
}

func (p *debugPrinter) printf(format string, args ...any) {
	_, err := fmt.Fprintf(p.out, format, args...)
	if err != nil && p.err == nil {
		p.err = err
	}
}

func (p *debugPrinter) newline() {
	p.printf("\n")
	for i := 0; i < p.level; i++ {
		p.printf(".  ")
	}
}

func (p *debugPrinter) print(x reflect.Value) {
	switch x.Kind() {
	case reflect.Interface:
		if x.IsNil() {
			p.printf("nil")
			return
		}
		p.print(x.Elem())
	case reflect.Ptr:
		if x.IsNil() {
			p.printf("nil")
			return
		}
		p.printf("*")
		p.print(x.Elem())
	case reflect.Slice:
		p.printf("%s (len = %d) {", x.Type(), x.Len())
		if x.Len() > 0 {
			p.level++
			p.newline()
			for i := 0; i < x.Len(); i++ {
				p.printf("%d: ", i)
				p.print(x.Index(i))
				if i == x.Len()-1 {
					p.level--
				}
				p.newline()
			}
		}
		p.printf("}")

	case reflect.Struct:
		t := x.Type()
		var fields []int
		for i := 0; i < t.NumField(); i++ {
			if t.Field(i).IsExported() {
				fields = append(fields, i)
			}
		}
		p.printf("%s {", t)
		if len(fields) == 0 {
			p.printf("}")
			return
		}
		p.level++
		p.newline()
		for j, i := range fields {
			p.printf("%s: ", t.Field(i).Name)
			p.print(x.Field(i))
			if j == len(fields)-1 {
				p.level--
			}
			p.newline()
		}
		p.printf("}")
	default:
		if s, ok := x.Interface().(fmt.Stringer); ok && !x.IsZero() {
			p.printf("%#v (%s)", x.Interface(), s)
		} else {
			p.printf("%#v", x.Interface())
		}
	}
}
