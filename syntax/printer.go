// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"sync"
)

// PrintConfig controls how the printing of an AST node will behave.
//
// The output follows the layout bash itself uses when it prints a command
// back, such as when showing a function body or reformatting the body of
// a command substitution.
type PrintConfig struct {
	Spaces int // 0 (default) for 4 spaces, >0 for number of spaces
}

var printerFree = sync.Pool{
	New: func() interface{} {
		return &printer{bufWriter: bufio.NewWriter(nil)}
	},
}

// Fprint "pretty-prints" the given command to the given writer.
func (c PrintConfig) Fprint(w io.Writer, node Command) error {
	p := printerFree.Get().(*printer)
	p.step = c.Spaces
	if p.step <= 0 {
		p.step = 4
	}
	p.bufWriter.Reset(w)
	p.bufWriter.WriteString(p.node(node, 0, false, false, false))
	p.bufWriter.WriteByte('\n')
	err := p.bufWriter.Flush()
	printerFree.Put(p)
	return err
}

// Fprint "pretty-prints" the given command to the given writer. It calls
// PrintConfig.Fprint with its default settings.
func Fprint(w io.Writer, node Command) error {
	return PrintConfig{}.Fprint(w, node)
}

type printer struct {
	bufWriter *bufio.Writer

	step int
}

// canonical is used when formatting substitutions inside words.
var canonical = &printer{step: 4}

func formatCmdNode(node Node, indent int, inProcsub, compact, procsubFirst bool) string {
	return canonical.node(node, indent, inProcsub, compact, procsubFirst)
}

func startsWithSubshell(node Node) bool {
	switch x := node.(type) {
	case *Subshell:
		return true
	case *List:
		for _, part := range x.Parts {
			if _, ok := part.(*Operator); !ok {
				return startsWithSubshell(part)
			}
		}
	case *Pipeline:
		if len(x.Cmds) > 0 {
			return startsWithSubshell(x.Cmds[0].Cmd)
		}
	}
	return false
}

func hasHeredoc(node Node) bool {
	switch x := node.(type) {
	case *CallExpr:
		return x.hasHeredoc()
	case *Pipeline:
		for _, pc := range x.Cmds {
			if call, ok := pc.Cmd.(*CallExpr); ok && call.hasHeredoc() {
				return true
			}
		}
	}
	return false
}

// insertBeforeNewline inserts s before the first newline in text, or
// appends it if there is none.
func insertBeforeNewline(text, s string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		return text[:i] + s + text[i:]
	}
	return text + s
}

func (p *printer) redirects(redirs []Redirection, sep string) string {
	parts := make([]string, len(redirs))
	for i, r := range redirs {
		parts[i] = formatRedirect(r, false, false)
	}
	return strings.Join(parts, sep)
}

func (p *printer) trailingRedirects(redirs []Redirection) string {
	var sb strings.Builder
	for _, r := range redirs {
		sb.WriteByte(' ')
		sb.WriteString(formatRedirect(r, false, false))
	}
	return sb.String()
}

func (p *printer) node(node Node, indent int, inProcsub, compact, procsubFirst bool) string {
	if node == nil {
		return ""
	}
	sp := strings.Repeat(" ", indent)
	innerSp := strings.Repeat(" ", indent+p.step)
	switch x := node.(type) {
	case *CallExpr:
		return p.call(x, compact)
	case *Pipeline:
		return p.pipeline(x, indent, inProcsub, procsubFirst)
	case *List:
		return p.list(x, indent, inProcsub, compact, procsubFirst)
	case *IfClause:
		s := "if " + p.node(x.Cond, indent, false, false, false) + "; then\n" +
			innerSp + p.node(x.Then, indent+p.step, false, false, false) + ";"
		if x.Else != nil {
			s += "\n" + sp + "else\n" + innerSp + p.node(x.Else, indent+p.step, false, false, false) + ";"
		}
		return s + "\n" + sp + "fi"
	case *WhileClause:
		return "while " + p.node(x.Cond, indent, false, false, false) + "; do\n" +
			innerSp + p.node(x.Body, indent+p.step, false, false, false) + ";\n" + sp + "done" +
			p.trailingRedirects(x.Redirects)
	case *UntilClause:
		return "until " + p.node(x.Cond, indent, false, false, false) + "; do\n" +
			innerSp + p.node(x.Body, indent+p.step, false, false, false) + ";\n" + sp + "done" +
			p.trailingRedirects(x.Redirects)
	case *ForClause:
		words := `"$@"`
		if x.InList {
			vals := make([]string, len(x.Words))
			for i, w := range x.Words {
				vals[i] = w.Value
			}
			words = strings.Join(vals, " ")
		}
		return "for " + x.Var + " in " + words + ";\n" + sp + "do\n" +
			innerSp + p.node(x.Body, indent+p.step, false, false, false) + ";\n" + sp + "done" +
			p.trailingRedirects(x.Redirects)
	case *CStyleLoop:
		return "for ((" + x.Init + "; " + x.Cond + "; " + x.Post + "))\ndo\n" +
			innerSp + p.node(x.Body, indent+p.step, false, false, false) + ";\n" + sp + "done" +
			p.trailingRedirects(x.Redirects)
	case *CaseClause:
		return p.caseClause(x, indent)
	case *FuncDecl:
		body := x.Body
		if b, ok := body.(*Block); ok {
			body = b.Body
		}
		s := strings.TrimSuffix(p.node(body, indent+p.step, false, false, false), ";")
		return "function " + x.Name + " () \n{ \n" + innerSp + s + "\n}"
	case *Subshell:
		body := p.node(x.Body, indent, inProcsub, compact, false)
		redirs := p.redirects(x.Redirects, " ")
		open, close := "( ", " )"
		if procsubFirst {
			open, close = "(", ")"
		}
		if redirs != "" {
			return open + body + close + " " + redirs
		}
		return open + body + close
	case *Block:
		body := strings.TrimSuffix(p.node(x.Body, indent, false, false, false), ";")
		term := "; }"
		if strings.HasSuffix(body, " &") {
			term = " }"
		}
		if redirs := p.redirects(x.Redirects, " "); redirs != "" {
			return "{ " + body + term + " " + redirs
		}
		return "{ " + body + term
	case *ArithmCmd:
		return "((" + x.Raw + "))"
	case *TestClause:
		return "[[ " + condBody(x.X) + " ]]"
	case *Negation:
		if x.Pipeline == nil {
			return "! "
		}
		return "! " + p.node(x.Pipeline, indent, false, false, false)
	case *TimeClause:
		prefix := "time "
		if x.Posix {
			prefix = "time -p "
		}
		if x.Pipeline == nil {
			return prefix
		}
		return prefix + p.node(x.Pipeline, indent, false, false, false)
	}
	return ""
}

func (p *printer) call(c *CallExpr, compact bool) string {
	parts := make([]string, 0, len(c.Words)+len(c.Redirects))
	for _, w := range c.Words {
		val := expandAnsiCQuotes(w.Value)
		val = stripLocaleDollars(val)
		val = normalizeArrayWhitespace(val)
		parts = append(parts, formatCmdSubsts(val, w.Parts, false))
	}
	for _, r := range c.Redirects {
		parts = append(parts, formatRedirect(r, compact, true))
	}
	var s string
	if compact && len(c.Words) > 0 && len(c.Redirects) > 0 {
		s = strings.Join(parts[:len(c.Words)], " ") + strings.Join(parts[len(c.Words):], "")
	} else {
		s = strings.Join(parts, " ")
	}
	for _, r := range c.Redirects {
		if h, ok := r.(*HereDoc); ok {
			s += "\n" + h.Content + h.Delimiter + "\n"
		}
	}
	return s
}

func (p *printer) pipeline(pl *Pipeline, indent int, inProcsub, procsubFirst bool) string {
	var sb strings.Builder
	for i, pc := range pl.Cmds {
		s := p.node(pc.Cmd, indent, inProcsub, false, procsubFirst && i == 0)
		heredoc := hasHeredoc(pc.Cmd)
		if pc.Both {
			if heredoc {
				s = insertBeforeNewline(s, " 2>&1")
			} else {
				s += " 2>&1"
			}
		}
		if i < len(pl.Cmds)-1 && heredoc && strings.IndexByte(s, '\n') >= 0 {
			s = insertBeforeNewline(s, " |")
		}
		if i > 0 {
			switch {
			case strings.HasSuffix(sb.String(), "\n"):
				sb.WriteString("  ")
			case inProcsub && isSubshell(pl.Cmds[0].Cmd):
				sb.WriteString("|")
			default:
				sb.WriteString(" | ")
			}
		}
		sb.WriteString(s)
	}
	return sb.String()
}

func isSubshell(c Command) bool {
	_, ok := c.(*Subshell)
	return ok
}

func (p *printer) list(l *List, indent int, inProcsub, compact, procsubFirst bool) string {
	heredoc := false
	for _, part := range l.Parts {
		if hasHeredoc(part) {
			heredoc = true
			break
		}
	}
	var out []string
	last := func() string {
		if len(out) == 0 {
			return ""
		}
		return out[len(out)-1]
	}
	skippedSemi := false
	cmdCount := 0
	for _, part := range l.Parts {
		op, ok := part.(*Operator)
		if !ok {
			if len(out) > 0 && !strings.HasSuffix(last(), " ") && !strings.HasSuffix(last(), "\n") {
				out = append(out, " ")
			}
			s := p.node(part, indent, inProcsub, compact, procsubFirst && cmdCount == 0)
			if prev := last(); strings.Contains(prev, " || \n") || strings.Contains(prev, " && \n") {
				s = " " + s
			}
			if skippedSemi {
				s = " " + s
				skippedSemi = false
			}
			out = append(out, s)
			cmdCount++
			continue
		}
		pendingHeredoc := strings.Contains(last(), "<<") && strings.Contains(last(), "\n")
		switch op.Op {
		case ";":
			if strings.HasSuffix(last(), "\n") ||
				(len(out) >= 3 && out[len(out)-2] == "\n" && strings.HasSuffix(out[len(out)-3], "\n")) {
				skippedSemi = true
				continue
			}
			out = append(out, ";")
			skippedSemi = false
		case "\n":
			switch {
			case last() == ";":
			case strings.HasSuffix(last(), "\n"):
				if skippedSemi {
					out = append(out, " ")
				} else {
					out = append(out, "\n")
				}
			default:
				out = append(out, "\n")
			}
			skippedSemi = false
		case "&":
			if !pendingHeredoc {
				out = append(out, " &")
			} else if s := last(); strings.Contains(s, " |") || strings.HasPrefix(s, "|") {
				out[len(out)-1] = s + " &"
			} else {
				out[len(out)-1] = insertBeforeNewline(s, " &")
			}
		default:
			if pendingHeredoc {
				out[len(out)-1] = insertBeforeNewline(last(), " "+op.Op+" ")
			} else {
				out = append(out, " "+op.Op)
			}
		}
	}
	s := strings.Join(out, "")
	if strings.Contains(s, " &\n") && strings.HasSuffix(s, "\n") {
		return s + " "
	}
	s = strings.TrimRight(s, ";")
	if !heredoc {
		s = strings.TrimRight(s, "\n")
	}
	return s
}

func (p *printer) caseClause(c *CaseClause, indent int) string {
	patIndent := strings.Repeat(" ", indent+2*p.step)
	termIndent := strings.Repeat(" ", indent+p.step)
	items := make([]string, len(c.Items))
	for i, item := range c.Items {
		pat := strings.ReplaceAll(item.Pattern, "|", " | ")
		bodyPart := "\n"
		if item.Body != nil {
			if body := p.node(item.Body, indent+2*p.step, false, false, false); body != "" {
				bodyPart = patIndent + body + "\n"
			}
		}
		if i == 0 {
			pat = " " + pat
		}
		items[i] = pat + ")\n" + bodyPart + termIndent + item.Terminator
	}
	s := "case " + c.Word.Value + " in" + strings.Join(items, "\n"+termIndent) +
		"\n" + strings.Repeat(" ", indent) + "esac"
	if len(c.Redirects) > 0 {
		s += " " + p.redirects(c.Redirects, " ")
	}
	return s
}

// condBody prints the body of a [[ ]] test.
func condBody(x CondExpr) string {
	switch x := x.(type) {
	case *UnaryTest:
		return x.Op + " " + x.X.condValue()
	case *BinaryTest:
		return x.X.condValue() + " " + x.Op + " " + x.Y.condValue()
	case *CondAnd:
		return condBody(x.X) + " && " + condBody(x.Y)
	case *CondOr:
		return condBody(x.X) + " || " + condBody(x.Y)
	case *CondNot:
		return "! " + condBody(x.X)
	case *ParenTest:
		return "( " + condBody(x.X) + " )"
	}
	return ""
}

// formatRedirect prints a redirection. With compact, no space separates
// the operator from its target. With heredocOpOnly, a here-document
// prints only its operator and delimiter, leaving the body to the caller.
func formatRedirect(r Redirection, compact, heredocOpOnly bool) string {
	if h, ok := r.(*HereDoc); ok {
		op := "<<"
		if h.StripTabs {
			op = "<<-"
		}
		if h.Fd > 0 {
			op = strconv.Itoa(h.Fd) + op
		}
		delim := h.Delimiter
		if h.Quoted {
			delim = "'" + delim + "'"
		}
		if heredocOpOnly {
			return op + delim
		}
		return op + delim + "\n" + h.Content + h.Delimiter + "\n"
	}
	rd := r.(*Redirect)
	op := rd.Op
	switch op {
	case "1>":
		op = ">"
	case "0<":
		op = "<"
	}
	target := rd.Target.formatted()
	if strings.HasPrefix(target, "&") {
		inputClose := false
		if target == "&-" && strings.HasSuffix(op, "<") {
			inputClose = true
			op = op[:len(op)-1] + ">"
		}
		after := target[1:]
		if after == "-" || (after != "" && isDigit(after[0])) {
			switch op {
			case ">", ">&":
				op = "1>"
				if inputClose {
					op = "0>"
				}
			case "<", "<&":
				op = "0<"
			}
		}
		return op + target
	}
	if strings.HasSuffix(op, "&") || compact {
		return op + target
	}
	return op + " " + target
}
