// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

import (
	"strconv"
	"strings"
)

var (
	quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	textEscaper  = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
	fullEscaper  = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\t", `\t`)
)

func appendRedirects(base string, redirs []Redirection) string {
	if len(redirs) == 0 {
		return base
	}
	var sb strings.Builder
	sb.WriteString(base)
	for _, r := range redirs {
		sb.WriteByte(' ')
		sb.WriteString(r.Sexp())
	}
	return sb.String()
}

func joinSexps(words []*Word) string {
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = w.Sexp()
	}
	return strings.Join(parts, " ")
}

func (w *Word) Sexp() string {
	val := w.normalized()
	val = doubleCtlesc(val)
	val = strings.ReplaceAll(val, "\x7f", "\x01\x7f")
	val = strings.ReplaceAll(val, `\`, `\\`)
	if strings.HasSuffix(val, `\\`) && !strings.HasSuffix(val, `\\\\`) {
		val += `\\`
	}
	val = strings.NewReplacer(`"`, `\"`, "\n", `\n`, "\t", `\t`).Replace(val)
	return `(word "` + val + `")`
}

func (c *CallExpr) Sexp() string {
	return c.sexp(false)
}

// sexp renders the command, adding a redirection of standard error to
// standard output when it was piped with "|&".
func (c *CallExpr) sexp(pipeBoth bool) string {
	parts := make([]string, 0, len(c.Words)+len(c.Redirects)+1)
	for _, w := range c.Words {
		parts = append(parts, w.Sexp())
	}
	for _, r := range c.Redirects {
		parts = append(parts, r.Sexp())
	}
	if pipeBoth {
		parts = append(parts, `(redirect ">&" 1)`)
	}
	if len(parts) == 0 {
		return "(command)"
	}
	return "(command " + strings.Join(parts, " ") + ")"
}

func pipeCmdSexp(pc PipeCmd) string {
	if call, ok := pc.Cmd.(*CallExpr); ok {
		return call.sexp(pc.Both)
	}
	return pc.Cmd.Sexp()
}

func (p *Pipeline) Sexp() string {
	n := len(p.Cmds)
	if n == 0 {
		return ""
	}
	result := pipeCmdSexp(p.Cmds[n-1])
	for i := n - 2; i >= 0; i-- {
		pc := p.Cmds[i]
		if _, ok := pc.Cmd.(*CallExpr); pc.Both && !ok {
			result = "(pipe " + pc.Cmd.Sexp() + ` (redirect ">&" 1) ` + result + ")"
		} else {
			result = "(pipe " + pipeCmdSexp(pc) + " " + result + ")"
		}
	}
	return result
}

func isOp(n Node, ops ...string) bool {
	op, ok := n.(*Operator)
	if !ok {
		return false
	}
	for _, s := range ops {
		if op.Op == s {
			return true
		}
	}
	return false
}

func partsSexp(parts []Node) string {
	if len(parts) == 1 {
		return parts[0].Sexp()
	}
	return (&List{Parts: parts}).Sexp()
}

func (l *List) Sexp() string {
	parts := l.Parts
	for len(parts) > 1 && isOp(parts[len(parts)-1], ";", "\n") {
		parts = parts[:len(parts)-1]
	}
	if len(parts) == 1 {
		return parts[0].Sexp()
	}
	if isOp(parts[len(parts)-1], "&") {
		for i := len(parts) - 3; i > 0; i -= 2 {
			if isOp(parts[i], ";", "\n") {
				left := partsSexp(parts[:i])
				right := partsSexp(parts[i+1 : len(parts)-1])
				return "(semi " + left + " (background " + right + "))"
			}
		}
		return "(background " + partsSexp(parts[:len(parts)-1]) + ")"
	}
	return sexpSemi(parts)
}

// sexpSemi splits on the lowest precedence operators, ";" and newline.
func sexpSemi(parts []Node) string {
	var segs [][]Node
	start := 0
	found := false
	for i, p := range parts {
		if !isOp(p, ";", "\n") {
			continue
		}
		found = true
		if seg := parts[start:i]; len(seg) > 0 && !isOp(seg[0]) {
			segs = append(segs, seg)
		}
		start = i + 1
	}
	if !found {
		return sexpAmp(parts)
	}
	if seg := parts[start:]; len(seg) > 0 && !isOp(seg[0]) {
		segs = append(segs, seg)
	}
	if len(segs) == 0 {
		return "()"
	}
	result := sexpAmp(segs[0])
	for _, seg := range segs[1:] {
		result = "(semi " + result + " " + sexpAmp(seg) + ")"
	}
	return result
}

func sexpAmp(parts []Node) string {
	if len(parts) == 1 {
		return parts[0].Sexp()
	}
	var segs [][]Node
	start := 0
	for i := 1; i < len(parts)-1; i += 2 {
		if isOp(parts[i], "&") {
			segs = append(segs, parts[start:i])
			start = i + 1
		}
	}
	if segs == nil {
		return sexpAndOr(parts)
	}
	segs = append(segs, parts[start:])
	result := sexpAndOr(segs[0])
	for _, seg := range segs[1:] {
		result = "(background " + result + " " + sexpAndOr(seg) + ")"
	}
	return result
}

var listOpNames = map[string]string{
	"&&": "and", "||": "or",
	";": "semi", "\n": "semi",
	"&": "background",
}

func sexpAndOr(parts []Node) string {
	result := parts[0].Sexp()
	for i := 1; i+1 < len(parts); i += 2 {
		op := parts[i].(*Operator).Op
		name, ok := listOpNames[op]
		if !ok {
			name = op
		}
		result = "(" + name + " " + result + " " + parts[i+1].Sexp() + ")"
	}
	return result
}

var operatorNames = map[string]string{
	"&&": "and", "||": "or",
	";": "semi", "&": "bg", "|": "pipe",
}

func (o *Operator) Sexp() string {
	if name, ok := operatorNames[o.Op]; ok {
		return "(" + name + ")"
	}
	return "(" + o.Op + ")"
}

func (*Empty) Sexp() string { return "" }

// fdNumber parses a file descriptor number that fits in an int32.
func fdNumber(s string) (int, bool) {
	if !allDigits(s) {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n > 1<<31-1 {
		return 0, false
	}
	return int(n), true
}

// stripVarFd removes a leading "{name}" or "{name[sub]}" from a
// redirection operator.
func stripVarFd(op string) string {
	if !strings.HasPrefix(op, "{") || !isNameStart(at(op, 1)) {
		return op
	}
	j := 2
	for j < len(op) && isNameByte(op[j]) {
		j++
	}
	if at(op, j) == '[' {
		j++
		for j < len(op) && op[j] != ']' {
			j++
		}
		if j < len(op) {
			j++
		}
	}
	if at(op, j) == '}' {
		return op[j+1:]
	}
	return op
}

func (r *Redirect) Sexp() string {
	op := stripVarFd(strings.TrimLeft(r.Op, "0123456789"))
	target := r.Target.formatted()
	target = stripArithContinuations(target)
	if strings.HasSuffix(target, `\`) && !strings.HasSuffix(target, `\\`) {
		target += `\`
	}
	num := func(op string, n int) string {
		return `(redirect "` + op + `" ` + strconv.Itoa(n) + ")"
	}
	quoted := func(op, s string) string {
		return `(redirect "` + op + `" "` + s + `")`
	}
	if strings.HasPrefix(target, "&") {
		switch op {
		case ">":
			op = ">&"
		case "<":
			op = "<&"
		}
		raw := target[1:]
		if n, ok := fdNumber(raw); ok {
			return num(op, n)
		}
		if strings.HasSuffix(raw, "-") {
			if n, ok := fdNumber(raw[:len(raw)-1]); ok {
				return num(op, n)
			}
		}
		if target == "&-" {
			return `(redirect ">&-" 0)`
		}
		return quoted(op, strings.TrimSuffix(raw, "-"))
	}
	if op == ">&" || op == "<&" {
		if n, ok := fdNumber(target); ok {
			return num(op, n)
		}
		if target == "-" {
			return `(redirect ">&-" 0)`
		}
		if strings.HasSuffix(target, "-") {
			if n, ok := fdNumber(target[:len(target)-1]); ok {
				return num(op, n)
			}
		}
		return quoted(op, strings.TrimSuffix(target, "-"))
	}
	return quoted(op, target)
}

func (h *HereDoc) Sexp() string {
	op := "<<"
	if h.StripTabs {
		op = "<<-"
	}
	content := h.Content
	if strings.HasSuffix(content, `\`) && !strings.HasSuffix(content, `\\`) {
		content += `\`
	}
	return `(redirect "` + op + `" "` + content + `")`
}

func (s *Subshell) Sexp() string {
	return appendRedirects("(subshell "+s.Body.Sexp()+")", s.Redirects)
}

func (b *Block) Sexp() string {
	return appendRedirects("(brace-group "+b.Body.Sexp()+")", b.Redirects)
}

func (c *IfClause) Sexp() string {
	s := "(if " + c.Cond.Sexp() + " " + c.Then.Sexp()
	if c.Else != nil {
		s += " " + c.Else.Sexp()
	}
	return appendRedirects(s+")", c.Redirects)
}

func (w *WhileClause) Sexp() string {
	return appendRedirects("(while "+w.Cond.Sexp()+" "+w.Body.Sexp()+")", w.Redirects)
}

func (u *UntilClause) Sexp() string {
	return appendRedirects("(until "+u.Cond.Sexp()+" "+u.Body.Sexp()+")", u.Redirects)
}

const implicitInList = `(in (word "\"$@\""))`

func inListSexp(inList bool, words []*Word) string {
	switch {
	case !inList:
		return implicitInList
	case len(words) == 0:
		return "(in)"
	}
	return "(in " + joinSexps(words) + ")"
}

func (f *ForClause) Sexp() string {
	name := quoteEscaper.Replace(formatCmdSubsts(f.Var, nil, false))
	s := `(for (word "` + name + `") ` + inListSexp(f.InList, f.Words) + " " + f.Body.Sexp() + ")"
	return appendRedirects(s, f.Redirects)
}

// arithForValue formats one of the three expressions of a C-style loop.
func arithForValue(s string) string {
	if s == "" {
		s = "1"
	}
	s = expandAnsiCQuotes(s)
	s = stripLocaleDollars(s)
	s = formatCmdSubsts(s, nil, false)
	return fullEscaper.Replace(s)
}

func (c *CStyleLoop) Sexp() string {
	s := `(arith-for (init (word "` + arithForValue(c.Init) + `")) (test (word "` +
		arithForValue(c.Cond) + `")) (step (word "` + arithForValue(c.Post) + `")) ` +
		c.Body.Sexp() + ")"
	return appendRedirects(s, c.Redirects)
}

func (s *SelectClause) Sexp() string {
	name := quoteEscaper.Replace(s.Var)
	str := `(select (word "` + name + `") ` + inListSexp(s.InList, s.Words) + " " + s.Body.Sexp() + ")"
	return appendRedirects(str, s.Redirects)
}

func (c *CaseClause) Sexp() string {
	var sb strings.Builder
	sb.WriteString("(case ")
	sb.WriteString(c.Word.Sexp())
	for _, item := range c.Items {
		sb.WriteByte(' ')
		sb.WriteString(item.Sexp())
	}
	sb.WriteByte(')')
	return appendRedirects(sb.String(), c.Redirects)
}

// alternatives splits a case pattern on the "|" separators that are not
// nested inside quotes, brackets or extended globs.
func (c *CaseItem) alternatives() []string {
	pat := c.Pattern
	var alts []string
	var cur strings.Builder
	depth := 0
	for i := 0; i < len(pat); {
		ch := pat[i]
		switch {
		case ch == '\\' && i+1 < len(pat):
			cur.WriteString(pat[i : i+2])
			i += 2
		case isExtglobPrefix(ch) && at(pat, i+1) == '(',
			isExpansionStart(pat, i, "$("):
			cur.WriteString(pat[i : i+2])
			depth++
			i += 2
		case ch == '(' && depth > 0:
			cur.WriteByte(ch)
			depth++
			i++
		case ch == ')' && depth > 0:
			cur.WriteByte(ch)
			depth--
			i++
		case ch == '[':
			end, _ := consumeBracketClass(pat, i, depth)
			cur.WriteString(pat[i:end])
			i = end
		case ch == '\'' && depth == 0:
			end := consumeSingleQuote(pat, i)
			cur.WriteString(pat[i:end])
			i = end
		case ch == '"' && depth == 0:
			end := consumeDoubleQuote(pat, i)
			cur.WriteString(pat[i:end])
			i = end
		case ch == '|' && depth == 0:
			alts = append(alts, cur.String())
			cur.Reset()
			i++
		default:
			cur.WriteByte(ch)
			i++
		}
	}
	return append(alts, cur.String())
}

func (c *CaseItem) Sexp() string {
	alts := c.alternatives()
	words := make([]*Word, len(alts))
	for i, alt := range alts {
		words[i] = &Word{Value: alt}
	}
	body := "()"
	if c.Body != nil {
		body = c.Body.Sexp()
	}
	return "(pattern (" + joinSexps(words) + ") " + body + ")"
}

func (f *FuncDecl) Sexp() string {
	return `(function "` + f.Name + `" ` + f.Body.Sexp() + ")"
}

func paramSexp(kind, param, op, arg string) string {
	s := "(" + kind + ` "` + quoteEscaper.Replace(param) + `"`
	if op != "" {
		s += ` "` + quoteEscaper.Replace(op) + `" "` + quoteEscaper.Replace(arg) + `"`
	}
	return s + ")"
}

func (p *ParamExp) Sexp() string      { return paramSexp("param", p.Param, p.Op, p.Arg) }
func (p *ParamIndirect) Sexp() string { return paramSexp("param-indirect", p.Param, p.Op, p.Arg) }
func (p *ParamLen) Sexp() string      { return paramSexp("param-len", p.Param, "", "") }

func (c *CmdSubst) Sexp() string {
	if c.Brace {
		return "(funsub " + c.Cmd.Sexp() + ")"
	}
	return "(cmdsub " + c.Cmd.Sexp() + ")"
}

func (a *ArithmExp) Sexp() string {
	if a.X == nil {
		return "(arith)"
	}
	return "(arith " + a.X.Sexp() + ")"
}

func (a *ArithmCmd) Sexp() string {
	raw := fullEscaper.Replace(formatCmdSubsts(a.Raw, nil, true))
	return appendRedirects(`(arith (word "`+raw+`"))`, a.Redirects)
}

func (a *ArithNumber) Sexp() string    { return `(number "` + a.Value + `")` }
func (*ArithEmpty) Sexp() string       { return "(empty)" }
func (a *ArithVar) Sexp() string       { return `(var "` + a.Name + `")` }
func (a *ArithEscape) Sexp() string    { return `(escape "` + a.Char + `")` }
func (a *ArithComma) Sexp() string     { return "(comma " + a.X.Sexp() + " " + a.Y.Sexp() + ")" }
func (a *ArithSubscript) Sexp() string { return `(subscript "` + a.Array + `" ` + a.Index.Sexp() + ")" }

func (b *BinaryArithm) Sexp() string {
	return `(binary-op "` + b.Op + `" ` + b.X.Sexp() + " " + b.Y.Sexp() + ")"
}

func (u *UnaryArithm) Sexp() string {
	if kind := u.Kind(); kind != "unary-op" {
		return "(" + kind + " " + u.X.Sexp() + ")"
	}
	return `(unary-op "` + u.Op + `" ` + u.X.Sexp() + ")"
}

func (a *ArithAssign) Sexp() string {
	return `(assign "` + a.Op + `" ` + a.Target.Sexp() + " " + a.Value.Sexp() + ")"
}

func (a *ArithTernary) Sexp() string {
	return "(ternary " + a.Cond.Sexp() + " " + arithSexp(a.Then) + " " + arithSexp(a.Else) + ")"
}

// arithSexp renders an omitted ternary branch, as in "a ?: b", as empty.
func arithSexp(x ArithmExpr) string {
	if x == nil {
		return "(empty)"
	}
	return x.Sexp()
}

func (a *ArithConcat) Sexp() string {
	parts := make([]string, len(a.Parts))
	for i, p := range a.Parts {
		parts[i] = p.Sexp()
	}
	return "(arith-concat " + strings.Join(parts, " ") + ")"
}

func (a *ArithDeprecated) Sexp() string {
	return `(arith-deprecated "` + textEscaper.Replace(a.Expr) + `")`
}

func (a *AnsiCQuote) Sexp() string {
	return `(ansi-c "` + textEscaper.Replace(a.Content) + `")`
}

func (l *LocaleString) Sexp() string {
	return `(locale "` + textEscaper.Replace(l.Content) + `")`
}

func (p *ProcSubst) Sexp() string {
	return `(procsub "` + p.Direction + `" ` + p.Cmd.Sexp() + ")"
}

func (n *Negation) Sexp() string {
	if n.Pipeline == nil {
		return "(negation (command))"
	}
	return "(negation " + n.Pipeline.Sexp() + ")"
}

func (t *TimeClause) Sexp() string {
	prefix := "(time "
	if t.Posix {
		prefix = "(time -p "
	}
	if t.Pipeline == nil {
		return prefix + "(command))"
	}
	return prefix + t.Pipeline.Sexp() + ")"
}

func (t *TestClause) Sexp() string {
	return appendRedirects("(cond "+t.X.Sexp()+")", t.Redirects)
}

func (u *UnaryTest) Sexp() string {
	return `(cond-unary "` + u.Op + `" (cond-term "` + u.X.condValue() + `"))`
}

func (b *BinaryTest) Sexp() string {
	return `(cond-binary "` + b.Op + `" (cond-term "` + b.X.condValue() +
		`") (cond-term "` + b.Y.condValue() + `"))`
}

func (c *CondAnd) Sexp() string { return "(cond-and " + c.X.Sexp() + " " + c.Y.Sexp() + ")" }
func (c *CondOr) Sexp() string  { return "(cond-or " + c.X.Sexp() + " " + c.Y.Sexp() + ")" }

// Sexp of a negated test is that of its operand; bash-oracle drops the
// negation.
func (c *CondNot) Sexp() string { return c.X.Sexp() }

func (p *ParenTest) Sexp() string { return "(cond-expr " + p.X.Sexp() + ")" }

func (a *ArrayExpr) Sexp() string {
	if len(a.Elems) == 0 {
		return "(array)"
	}
	return "(array " + joinSexps(a.Elems) + ")"
}

func (c *CoprocClause) Sexp() string {
	name := c.Name
	if name == "" {
		name = "COPROC"
	}
	return `(coproc "` + name + `" ` + c.Cmd.Sexp() + ")"
}
