// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// normalized returns the word's text in the canonical form bash-oracle
// prints, before any quoting for the S-expression.
func (w *Word) normalized() string {
	val := expandAnsiCQuotes(w.Value)
	val = stripLocaleDollars(val)
	val = normalizeArrayWhitespace(val)
	val = formatCmdSubsts(val, w.Parts, false)
	val = normalizeParamNewlines(val)
	return stripArithContinuations(val)
}

// formatted is the lighter normalization used for redirection targets
// and words printed back as shell source.
func (w *Word) formatted() string {
	val := expandAnsiCQuotes(w.Value)
	val = stripLocaleDollars(val)
	return formatCmdSubsts(val, w.Parts, false)
}

// condValue is the text of an operand inside [[ ]].
func (w *Word) condValue() string {
	val := w.formatted()
	val = normalizeExtglobWhitespace(val)
	val = strings.ReplaceAll(val, "\x01", "\x01\x01")
	return strings.TrimRight(val, "\n")
}

// doubleCtlesc doubles each CTLESC byte, except inside double quotes where
// an odd number of preceding backslashes already escapes it.
func doubleCtlesc(s string) string {
	if strings.IndexByte(s, '\x01') < 0 {
		return s
	}
	var q quoteState
	buf := make([]byte, 0, len(s)+4)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\'' && !q.double {
			q.single = !q.single
		} else if c == '"' && !q.single {
			q.double = !q.double
		}
		buf = append(buf, c)
		if c != '\x01' {
			continue
		}
		if !q.double {
			buf = append(buf, c)
			continue
		}
		bs := 0
		for j := len(buf) - 2; j >= 0 && buf[j] == '\\'; j-- {
			bs++
		}
		if bs%2 == 0 {
			buf = append(buf, c)
		}
	}
	return string(buf)
}

// normalizeParamNewlines removes line continuations inside "${...}" and
// turns a newline right after the brace into padding spaces.
func normalizeParamNewlines(s string) string {
	var sb strings.Builder
	var q quoteState
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '\'' && !q.double:
			q.single = !q.single
		case c == '"' && !q.single:
			q.double = !q.double
		case !q.single && isExpansionStart(s, i, "${"):
			sb.WriteString("${")
			i += 2
			leadingNewline := at(s, i) == '\n'
			if leadingNewline {
				sb.WriteByte(' ')
				i++
			}
			depth := 1
		inner:
			for i < len(s) && depth > 0 {
				ch := s[i]
				if ch == '\\' && i+1 < len(s) && !q.single {
					if s[i+1] != '\n' {
						sb.WriteString(s[i : i+2])
					}
					i += 2
					continue
				}
				switch {
				case ch == '\'' && !q.double:
					q.single = !q.single
				case ch == '"' && !q.single:
					q.double = !q.double
				case q.inQuotes():
				case ch == '{':
					depth++
				case ch == '}':
					depth--
					if depth == 0 {
						if leadingNewline {
							sb.WriteByte(' ')
						}
						sb.WriteByte(ch)
						i++
						break inner
					}
				}
				sb.WriteByte(ch)
				i++
			}
			continue
		}
		sb.WriteByte(c)
		i++
	}
	return sb.String()
}

// shSingleQuote quotes s for the shell using single quotes. Invalid UTF-8
// is replaced, one replacement character per byte.
func shSingleQuote(s string) string {
	switch s {
	case "":
		return "''"
	case "'":
		return `\'`
	}
	var sb strings.Builder
	sb.WriteByte('\'')
	for _, r := range s {
		if r == '\'' {
			sb.WriteString(`'\''`)
		} else {
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('\'')
	return sb.String()
}

var ansiCEscapes = map[byte]byte{
	'a': 0x07, 'b': 0x08, 'e': 0x1b, 'E': 0x1b,
	'f': 0x0c, 'n': 0x0a, 'r': 0x0d, 't': 0x09,
	'v': 0x0b, '\\': '\\', '"': '"', '?': '?',
	'\'': '\'',
}

func parseBase(s string, base int) int {
	n, err := strconv.ParseInt(s, base, 64)
	if err != nil {
		return 0
	}
	return int(n)
}

func countRun(s string, from, limit int, ok func(byte) bool) int {
	j := from
	for j < len(s) && j < limit && ok(s[j]) {
		j++
	}
	return j
}

// decodeAnsiC decodes the escapes of a "$'...'" string body. Decoding
// stops at the first escape that produces a NUL byte, as bash does.
func decodeAnsiC(s string) []byte {
	var out []byte
	for i := 0; i < len(s); {
		if s[i] != '\\' || i+1 >= len(s) {
			out = append(out, s[i])
			i++
			continue
		}
		c := s[i+1]
		if b, ok := ansiCEscapes[c]; ok {
			out = append(out, b)
			i += 2
			continue
		}
		switch {
		case c == 'x' && at(s, i+2) == '{':
			j := countRun(s, i+3, len(s), isHexDigit)
			hex := s[i+3 : j]
			if at(s, j) == '}' {
				j++
			}
			if hex == "" {
				return out
			}
			b := parseBase(hex, 16) & 0xff
			if b == 0 {
				return out
			}
			out = append(out, byte(b))
			i = j
		case c == 'x':
			j := countRun(s, i+2, i+4, isHexDigit)
			if j == i+2 {
				out = append(out, '\\')
				i++
				continue
			}
			b := parseBase(s[i+2:j], 16)
			if b == 0 {
				return out
			}
			out = append(out, byte(b))
			i = j
		case c == 'u' || c == 'U':
			width := 4
			if c == 'U' {
				width = 8
			}
			j := countRun(s, i+2, i+2+width, isHexDigit)
			if j == i+2 {
				out = append(out, '\\')
				i++
				continue
			}
			r := parseBase(s[i+2:j], 16)
			if r == 0 {
				return out
			}
			out = utf8.AppendRune(out, rune(r))
			i = j
		case c == 'c':
			if i+3 > len(s) {
				out = append(out, '\\')
				i++
				continue
			}
			ctrl := s[i+2]
			extra := 0
			if ctrl == '\\' && at(s, i+3) == '\\' {
				extra = 1
			}
			b := ctrl & 0x1f
			if b == 0 {
				return out
			}
			out = append(out, b)
			i += 3 + extra
		case c == '0':
			j := countRun(s, i+2, i+4, isOctalDigit)
			if j == i+2 {
				return out
			}
			b := parseBase(s[i+1:j], 8) & 0xff
			if b == 0 {
				return out
			}
			out = append(out, byte(b))
			i = j
		case '1' <= c && c <= '7':
			j := countRun(s, i+1, i+4, isOctalDigit)
			b := parseBase(s[i+1:j], 8) & 0xff
			if b == 0 {
				return out
			}
			out = append(out, byte(b))
			i = j
		default:
			out = append(out, '\\', c)
			i += 2
		}
	}
	return out
}

// expandAnsiCEscapes turns a single-quoted "'...'" body of a "$'...'"
// string into an equivalent plain single-quoted string.
func expandAnsiCEscapes(s string) string {
	if len(s) < 2 || s[0] != '\'' || s[len(s)-1] != '\'' {
		return s
	}
	return shSingleQuote(string(decodeAnsiC(s[1 : len(s)-1])))
}

var patternOps = []string{"//", "%%", "##", "/", "%", "#", "^", "^^", ",", ",,"}

func hasPatternOp(s string, prefixOnly bool) bool {
	for _, op := range patternOps {
		if prefixOnly && strings.HasPrefix(s, op) {
			return true
		}
		if !prefixOnly && strings.Contains(s, op) {
			return true
		}
	}
	return false
}

// inParamPattern reports whether the text after the last "${" in out is
// a parameter expansion whose operator takes a pattern.
func inParamPattern(out string) bool {
	idx := strings.LastIndex(out, "${")
	if idx < 0 {
		return false
	}
	after := out[idx+2:]
	nameLen := 0
	if after != "" {
		if strings.IndexByte("@*#?-$!0123456789_", after[0]) >= 0 {
			nameLen = 1
		} else if isNameStart(after[0]) {
			for nameLen < len(after) && isNameByte(after[nameLen]) {
				nameLen++
			}
		}
	}
	switch {
	case nameLen > 0 && nameLen < len(after) && strings.IndexByte("#?-", after[0]) < 0:
		op := after[nameLen:]
		if strings.HasPrefix(op, "@") && len(op) > 1 {
			op = op[1:]
		}
		if hasPatternOp(op, true) {
			return true
		}
		return op != "" && strings.IndexByte("%#/^,~:+-=?", op[0]) < 0 && hasPatternOp(op, false)
	case nameLen == 0 && len(after) > 1:
		return strings.IndexByte("%#/^,", after[0]) < 0 && hasPatternOp(after[1:], false)
	}
	return false
}

// expandAnsiCQuotes replaces every "$'...'" string in s with its decoded
// single-quoted equivalent. Inside a double-quoted "${...}" the quotes
// are dropped, unless the string is part of a pattern.
func expandAnsiCQuotes(s string) string {
	if !strings.Contains(s, "$'") {
		return s
	}
	var sb strings.Builder
	var q quoteState
	inBacktick := false
	braceDepth := 0
	for i := 0; i < len(s); {
		ch := s[i]
		if ch == '`' && !q.single {
			inBacktick = !inBacktick
			sb.WriteByte(ch)
			i++
			continue
		}
		if inBacktick {
			if ch == '\\' && i+1 < len(s) {
				sb.WriteString(s[i : i+2])
				i += 2
			} else {
				sb.WriteByte(ch)
				i++
			}
			continue
		}
		if !q.single {
			if isExpansionStart(s, i, "${") {
				braceDepth++
				q.push()
				sb.WriteString("${")
				i += 2
				continue
			}
			if ch == '}' && braceDepth > 0 && !q.double {
				braceDepth--
				sb.WriteByte(ch)
				q.pop()
				i++
				continue
			}
		}
		switch {
		case ch == '\'' && !q.double:
			isAnsiC := !q.single && i > 0 && s[i-1] == '$' && dollarsBefore(s, i-1)%2 == 0
			if !isAnsiC {
				q.single = !q.single
			}
			sb.WriteByte(ch)
			i++
		case ch == '"' && !q.single:
			q.double = !q.double
			sb.WriteByte(ch)
			i++
		case ch == '\\' && i+1 < len(s) && !q.single:
			sb.WriteString(s[i : i+2])
			i += 2
		case strings.HasPrefix(s[i:], "$'") && !q.single && !q.double && dollarsBefore(s, i)%2 == 0:
			j := i + 2
			for j < len(s) {
				if s[j] == '\\' && j+1 < len(s) {
					j += 2
				} else if s[j] == '\'' {
					j++
					break
				} else {
					j++
				}
			}
			expanded := expandAnsiCEscapes(s[i+1 : j])
			if braceDepth > 0 && q.outerDouble() && len(expanded) >= 2 &&
				expanded[0] == '\'' && expanded[len(expanded)-1] == '\'' {
				inner := expanded[1 : len(expanded)-1]
				if !strings.Contains(inner, "\x01") && !inParamPattern(sb.String()) {
					expanded = inner
				}
			}
			sb.WriteString(expanded)
			i = j
		default:
			sb.WriteByte(ch)
			i++
		}
	}
	return sb.String()
}

// stripLocaleDollars turns each "$"..."" locale string into a plain
// double-quoted string.
func stripLocaleDollars(s string) string {
	if !strings.Contains(s, `$"`) {
		return s
	}
	var sb strings.Builder
	var q, braceQ quoteState
	braceDepth, bracketDepth := 0, 0
	bracketInDouble := false
	for i := 0; i < len(s); {
		ch := s[i]
		switch {
		case ch == '\\' && i+1 < len(s) && !q.single && !braceQ.single:
			sb.WriteString(s[i : i+2])
			i += 2
			continue
		case strings.HasPrefix(s[i:], "${") && !q.single && !braceQ.single && (i == 0 || s[i-1] != '$'):
			braceDepth++
			braceQ.single, braceQ.double = false, false
			sb.WriteString("${")
			i += 2
			continue
		case ch == '}' && braceDepth > 0 && !q.single && !braceQ.double && !braceQ.single:
			braceDepth--
		case ch == '[' && braceDepth > 0 && !q.single && !braceQ.double:
			bracketDepth++
			bracketInDouble = false
		case ch == ']' && bracketDepth > 0 && !q.single && !bracketInDouble:
			bracketDepth--
		case ch == '\'' && !q.double && braceDepth == 0:
			q.single = !q.single
		case ch == '"' && !q.single && braceDepth == 0:
			q.double = !q.double
		case ch == '"' && !q.single && bracketDepth > 0:
			bracketInDouble = !bracketInDouble
		case ch == '"' && !q.single && !braceQ.single && braceDepth > 0:
			braceQ.double = !braceQ.double
		case ch == '\'' && !q.double && !braceQ.double && braceDepth > 0:
			braceQ.single = !braceQ.single
		case strings.HasPrefix(s[i:], `$"`) && !q.single && !braceQ.single &&
			(braceDepth > 0 || bracketDepth > 0 || !q.double) && !braceQ.double && !bracketInDouble:
			if (1+dollarsBefore(s, i))%2 == 1 {
				sb.WriteByte('"')
				switch {
				case bracketDepth > 0:
					bracketInDouble = true
				case braceDepth > 0:
					braceQ.double = true
				default:
					q.double = true
				}
				i += 2
				continue
			}
		}
		sb.WriteByte(ch)
		i++
	}
	return sb.String()
}

// normalizeArrayWhitespace rewrites the elements of an array assignment
// such as "arr=(  a   b )" separated by single spaces.
func normalizeArrayWhitespace(s string) string {
	if s == "" || !isNameStart(s[0]) {
		return s
	}
	i := 1
	for i < len(s) && isNameByte(s[i]) {
		i++
	}
	for i < len(s) && s[i] == '[' {
		depth := 1
		i++
		for i < len(s) && depth > 0 {
			switch s[i] {
			case '[':
				depth++
			case ']':
				depth--
			}
			i++
		}
		if depth != 0 {
			return s
		}
	}
	if at(s, i) == '+' {
		i++
	}
	if at(s, i) != '=' || at(s, i+1) != '(' {
		return s
	}
	prefix := s[:i+1]
	open := i + 1
	close := len(s) - 1
	if !strings.HasSuffix(s, ")") {
		if close = findMatchingParen(s, open); close < 0 {
			return s
		}
	}
	return prefix + "(" + normalizeArrayInner(s[open+1:close]) + ")" + s[close+1:]
}

func findMatchingParen(s string, open int) int {
	if at(s, open) != '(' {
		return -1
	}
	depth := 1
	var q quoteState
	for i := open + 1; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch == '\\' && i+1 < len(s) && !q.single:
			i++
		case ch == '\'' && !q.double:
			q.single = !q.single
		case ch == '"' && !q.single:
			q.double = !q.double
		case q.inQuotes():
		case ch == '#':
			for i < len(s) && s[i] != '\n' {
				i++
			}
			i--
		case ch == '(':
			depth++
		case ch == ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// skipParenGroup returns the end of a "(...)" group starting at j, past
// any opener, skipping quotes. If dollarOnly is set, only "$(" nests.
func skipParenGroup(s string, j int, dollarOnly bool) int {
	depth := 1
	for j < len(s) && depth > 0 {
		switch s[j] {
		case '(':
			if !dollarOnly || (j > 0 && s[j-1] == '$') {
				depth++
			}
		case ')':
			depth--
		case '\'':
			j++
			for j < len(s) && s[j] != '\'' {
				j++
			}
		case '"':
			j++
			for j < len(s) {
				if s[j] == '\\' && j+1 < len(s) {
					j += 2
					continue
				}
				if s[j] == '"' {
					break
				}
				j++
			}
		}
		j++
	}
	return min(j, len(s))
}

func normalizeArrayInner(inner string) string {
	var out strings.Builder
	inSpace := true
	braceDepth, bracketDepth := 0, 0
	for i := 0; i < len(inner); {
		ch := inner[i]
		switch {
		case isSpace(ch):
			if !inSpace && out.Len() > 0 && braceDepth == 0 && bracketDepth == 0 {
				out.WriteByte(' ')
				inSpace = true
			}
			if braceDepth > 0 || bracketDepth > 0 {
				out.WriteByte(ch)
			}
			i++
		case ch == '\'':
			inSpace = false
			j := i + 1
			for j < len(inner) && inner[j] != '\'' {
				j++
			}
			out.WriteString(inner[i:min(j+1, len(inner))])
			i = j + 1
		case ch == '"':
			inSpace = false
			j := i + 1
			out.WriteByte('"')
			depth := 0
		dq:
			for j < len(inner) {
				switch {
				case inner[j] == '\\' && j+1 < len(inner):
					if inner[j+1] != '\n' {
						out.WriteString(inner[j : j+2])
					}
					j += 2
				case isExpansionStart(inner, j, "${"):
					out.WriteString("${")
					depth++
					j += 2
				case inner[j] == '}' && depth > 0:
					out.WriteByte('}')
					depth--
					j++
				case inner[j] == '"' && depth == 0:
					out.WriteByte('"')
					j++
					break dq
				default:
					out.WriteByte(inner[j])
					j++
				}
			}
			i = j
		case ch == '\\' && i+1 < len(inner):
			if inner[i+1] != '\n' {
				inSpace = false
				out.WriteString(inner[i : i+2])
			}
			i += 2
		case isExpansionStart(inner, i, "$(("):
			inSpace = false
			j := i + 3
			depth := 1
			for j < len(inner) && depth > 0 {
				switch {
				case strings.HasPrefix(inner[j:], "(("):
					depth++
					j += 2
				case strings.HasPrefix(inner[j:], "))"):
					depth--
					j += 2
				default:
					j++
				}
			}
			out.WriteString(inner[i:j])
			i = j
		case isExpansionStart(inner, i, "$("):
			inSpace = false
			j := skipParenGroup(inner, i+2, true)
			out.WriteString(inner[i:j])
			i = j
		case (ch == '<' || ch == '>') && at(inner, i+1) == '(':
			inSpace = false
			j := skipParenGroup(inner, i+2, false)
			out.WriteString(inner[i:j])
			i = j
		case isExpansionStart(inner, i, "${"):
			inSpace = false
			out.WriteString("${")
			braceDepth++
			i += 2
		case ch == '{' && braceDepth > 0:
			out.WriteByte(ch)
			braceDepth++
			i++
		case ch == '}' && braceDepth > 0:
			out.WriteByte(ch)
			braceDepth--
			i++
		case ch == '#' && braceDepth == 0 && inSpace:
			for i < len(inner) && inner[i] != '\n' {
				i++
			}
		case ch == '[':
			if inSpace || bracketDepth > 0 {
				bracketDepth++
			}
			inSpace = false
			out.WriteByte(ch)
			i++
		case ch == ']' && bracketDepth > 0:
			out.WriteByte(ch)
			bracketDepth--
			i++
		default:
			inSpace = false
			out.WriteByte(ch)
			i++
		}
	}
	return strings.TrimRight(out.String(), " \t\n\r\v\f")
}

// stripArithContinuations removes line continuations inside "$((...))".
func stripArithContinuations(s string) string {
	if !strings.Contains(s, "$((") {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); {
		if !isExpansionStart(s, i, "$((") {
			sb.WriteByte(s[i])
			i++
			continue
		}
		start := i
		i += 3
		depth := 2
		var content []byte
		firstClose := -1
		for i < len(s) && depth > 0 {
			switch {
			case s[i] == '(':
				content = append(content, '(')
				depth++
				i++
				firstClose = -1
			case s[i] == ')':
				if depth == 2 {
					firstClose = len(content)
				}
				depth--
				if depth > 0 {
					content = append(content, ')')
				}
				i++
			case s[i] == '\\' && at(s, i+1) == '\n':
				j := len(content) - 1
				for j >= 0 && content[j] == '\n' {
					j--
				}
				bs := 0
				for j >= 0 && content[j] == '\\' {
					bs++
					j--
				}
				if bs%2 == 1 {
					content = append(content, '\\', '\n')
				}
				i += 2
				if depth == 1 {
					firstClose = -1
				}
			default:
				content = append(content, s[i])
				i++
				if depth == 1 {
					firstClose = -1
				}
			}
		}
		switch {
		case depth == 1 && firstClose != -1, depth == 0 && firstClose != -1:
			closing := ")"
			if depth == 0 {
				closing = "))"
			}
			sb.WriteString("$((" + string(content[:firstClose]) + closing)
		case depth == 0:
			sb.WriteString("$((" + string(content) + ")")
		default:
			sb.WriteString(s[start:i])
		}
	}
	return sb.String()
}

func hasProcSubstPrefix(s string, i int) bool {
	if i == 0 {
		return true
	}
	prev := s[i-1]
	return !isLetter(prev) && !isDigit(prev) && prev != '"' && prev != '\''
}

// needsCmdSubstFormat reports whether s may hold a substitution that
// formatCmdSubsts would rewrite.
func needsCmdSubstFormat(s string, cmdsubs, procsubs int) bool {
	if cmdsubs > 0 || procsubs > 0 {
		return true
	}
	for _, p := range []string{"${ ", "${\t", "${\n", "${|"} {
		if strings.Contains(s, p) {
			return true
		}
	}
	if strings.Contains(s, "${") && (strings.Contains(s, "<(") || strings.Contains(s, ">(")) {
		return true
	}
	double := false
	for i := 0; i < len(s); {
		switch {
		case s[i] == '"':
			double = !double
		case s[i] == '\'' && !double:
			i = consumeSingleQuote(s, i)
			continue
		case strings.HasPrefix(s[i:], "$(") && !strings.HasPrefix(s[i:], "$((") &&
			!isBackslashEscaped(s, i) && !oddDollarsBefore(s, i):
			return true
		case (strings.HasPrefix(s[i:], "<(") || strings.HasPrefix(s[i:], ">(")) && !double:
			if hasProcSubstPrefix(s, i) {
				return true
			}
		}
		i++
	}
	return false
}

// formatCmdSubsts rewrites the command and process substitutions in s
// into the canonical form bash prints. parts supplies the already parsed
// substitutions of the word, in source order; substitutions without a
// parsed node are parsed on the spot.
func formatCmdSubsts(s string, parts []WordPart, inArith bool) string {
	var cmdsubs []*CmdSubst
	var procsubs []*ProcSubst
	hasArith := false
	for _, p := range parts {
		switch p := p.(type) {
		case *CmdSubst:
			cmdsubs = append(cmdsubs, p)
		case *ProcSubst:
			procsubs = append(procsubs, p)
		case *ArithmExp:
			hasArith = true
		}
	}
	if !needsCmdSubstFormat(s, len(cmdsubs), len(procsubs)) {
		return s
	}
	f := cmdSubstFormatter{
		src: s, parts: parts, inArith: inArith, hasArith: hasArith,
		cmdsubs: cmdsubs, procsubs: procsubs,
	}
	return f.format()
}

type cmdSubstFormatter struct {
	src      string
	parts    []WordPart
	inArith  bool
	hasArith bool

	cmdsubs  []*CmdSubst
	procsubs []*ProcSubst
	cmdIdx   int
	procIdx  int

	out strings.Builder
}

func (f *cmdSubstFormatter) nextCmdSubst() *CmdSubst {
	if f.cmdIdx < len(f.cmdsubs) {
		return f.cmdsubs[f.cmdIdx]
	}
	return nil
}

func (f *cmdSubstFormatter) skipCmdSubst() {
	if f.cmdIdx < len(f.cmdsubs) {
		f.cmdIdx++
	}
}

func (f *cmdSubstFormatter) format() string {
	s := f.src
	double := false
	extglobDepth, deprecatedDepth := 0, 0
	arithDepth, arithParens := 0, 0
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case i > 0 && isExtglobPrefix(s[i-1]) && c == '(' && !isBackslashEscaped(s, i-1):
			extglobDepth++
		case c == ')' && extglobDepth > 0:
			extglobDepth--
		case strings.HasPrefix(s[i:], "$[") && !isBackslashEscaped(s, i):
			deprecatedDepth++
		case c == ']' && deprecatedDepth > 0:
			deprecatedDepth--
		case f.hasArith && isExpansionStart(s, i, "$((") && !isBackslashEscaped(s, i):
			arithDepth++
			arithParens += 2
			f.out.WriteString("$((")
			i += 3
			continue
		case arithDepth > 0 && arithParens == 2 && strings.HasPrefix(s[i:], "))"):
			arithDepth--
			arithParens -= 2
			f.out.WriteString("))")
			i += 2
			continue
		case arithDepth > 0 && c == '(':
			arithParens++
		case arithDepth > 0 && c == ')':
			arithParens--
		case !f.hasArith && isExpansionStart(s, i, "$(("):
			j := findCmdsubEnd(s, i+2)
			f.out.WriteString(s[i:j])
			f.skipCmdSubst()
			i = j
			continue
		case strings.HasPrefix(s[i:], "$(") && !strings.HasPrefix(s[i:], "$((") &&
			!isBackslashEscaped(s, i) && !oddDollarsBefore(s, i):
			i = f.cmdSubst(i, extglobDepth > 0)
			continue
		case c == '`' && f.cmdIdx < len(f.cmdsubs):
			j := i + 1
			for j < len(s) {
				if s[j] == '\\' && j+1 < len(s) {
					j += 2
					continue
				}
				j++
				if s[j-1] == '`' {
					break
				}
			}
			f.out.WriteString(s[i:min(j, len(s))])
			f.cmdIdx++
			i = j
			continue
		case isExpansionStart(s, i, "${") && i+2 < len(s) && strings.IndexByte(" \t\n|", s[i+2]) >= 0 &&
			!isBackslashEscaped(s, i):
			if cs := f.nextCmdSubst(); cs != nil && cs.Brace {
				i = f.funSubst(i, cs)
				continue
			}
			j := findFunsubEnd(s, i+2)
			f.out.WriteString(s[i:j])
			i = j
			continue
		case (strings.HasPrefix(s[i:], ">(") || strings.HasPrefix(s[i:], "<(")) && !double &&
			deprecatedDepth == 0 && arithDepth == 0:
			i = f.procSubst(i, extglobDepth > 0)
			continue
		case isExpansionStart(s, i, "${") && !isBackslashEscaped(s, i):
			i = f.paramExp(i)
			continue
		case c == '"':
			double = !double
		case c == '\'' && !double:
			j := consumeSingleQuote(s, i)
			f.out.WriteString(s[i:j])
			i = j
			continue
		}
		f.out.WriteByte(c)
		i++
	}
	return f.out.String()
}

func (f *cmdSubstFormatter) cmdSubst(i int, inExtglob bool) int {
	s := f.src
	j := findCmdsubEnd(s, i+2)
	if inExtglob {
		f.out.WriteString(s[i:j])
		f.skipCmdSubst()
		return j
	}
	inner := s[i+2 : max(i+2, j-1)]
	var formatted string
	if cs := f.nextCmdSubst(); cs != nil {
		formatted = formatCmdNode(cs.Cmd, 0, false, false, false)
		f.cmdIdx++
	} else if cmd, _, err := parseSubList(inner); err != nil {
		formatted = inner
	} else if cmd != nil {
		formatted = formatCmdNode(cmd, 0, false, false, false)
	}
	if strings.HasPrefix(formatted, "(") {
		f.out.WriteString("$( " + formatted + ")")
	} else {
		f.out.WriteString("$(" + formatted + ")")
	}
	return j
}

func (f *cmdSubstFormatter) funSubst(i int, cs *CmdSubst) int {
	s := f.src
	j := findFunsubEnd(s, i+2)
	formatted := formatCmdNode(cs.Cmd, 0, false, false, false)
	prefix := "${ "
	if s[i+2] == '|' {
		prefix = "${|"
	}
	origInner := s[i+2 : max(i+2, j-1)]
	var suffix string
	switch {
	case strings.TrimSpace(formatted) == "":
		suffix = "}"
	case strings.HasSuffix(formatted, "&"):
		suffix = " }"
	case strings.HasSuffix(formatted, "& "):
		suffix = "}"
	case strings.HasSuffix(origInner, "\n"):
		suffix = "\n }"
	default:
		suffix = "; }"
	}
	f.out.WriteString(prefix + formatted + suffix)
	f.cmdIdx++
	return j
}

func (f *cmdSubstFormatter) procSubst(i int, inExtglob bool) int {
	s := f.src
	isProc := hasProcSubstPrefix(s, i)
	if inExtglob {
		j := findCmdsubEnd(s, i+2)
		f.out.WriteString(s[i:j])
		if f.procIdx < len(f.procsubs) {
			f.procIdx++
		}
		return j
	}
	dir := s[i : i+1]
	if f.procIdx < len(f.procsubs) {
		ps := f.procsubs[f.procIdx]
		f.procIdx++
		j := findCmdsubEnd(s, i+2)
		raw := s[i+2 : max(i+2, j-1)]
		if _, ok := ps.Cmd.(*Subshell); ok {
			trimmed := strings.TrimLeft(raw, " \t\n")
			if lead := raw[:len(raw)-len(trimmed)]; strings.HasPrefix(trimmed, "(") {
				if lead != "" {
					lead = strings.NewReplacer("\n", " ", "\t", " ").Replace(lead)
					f.out.WriteString(dir + "(" + lead + formatCmdNode(ps.Cmd, 0, false, false, false) + ")")
				} else {
					f.out.WriteString(dir + "(" + strings.ReplaceAll(raw, "\\\n", "") + ")")
				}
				return j
			}
		}
		compact := startsWithSubshell(ps.Cmd)
		formatted := formatCmdNode(ps.Cmd, 0, true, compact, true)
		rawStripped := strings.ReplaceAll(raw, "\\\n", "")
		if compact && formatted != rawStripped {
			f.out.WriteString(dir + "(" + rawStripped + ")")
		} else {
			f.out.WriteString(dir + "(" + formatted + ")")
		}
		return j
	}
	if !isProc {
		f.out.WriteByte(s[i])
		return i + 1
	}
	j := findCmdsubEnd(s, i+2)
	if j > len(s) || (j > 0 && s[j-1] != ')') {
		f.out.WriteByte(s[i])
		return i + 1
	}
	inner := s[i+2 : j-1]
	switch {
	case len(f.parts) > 0:
		formatted := inner
		cmd, end, err := parseSubList(inner)
		if err == nil && cmd != nil && end == len(inner) && !strings.Contains(inner, "\n") {
			formatted = formatCmdNode(cmd, 0, true, startsWithSubshell(cmd), true)
		}
		f.out.WriteString(dir + "(" + formatted + ")")
	case f.inArith:
		f.out.WriteString(dir + "(" + inner + ")")
	case strings.TrimSpace(inner) != "":
		f.out.WriteString(dir + "(" + strings.TrimLeft(inner, " \t") + ")")
	default:
		f.out.WriteString(dir + "(" + inner + ")")
	}
	return j
}

func (f *cmdSubstFormatter) paramExp(i int) int {
	s := f.src
	j := i + 2
	depth := 1
	var q quoteState
	for j < len(s) && depth > 0 {
		c := s[j]
		if c == '\\' && j+1 < len(s) && !q.single {
			j += 2
			continue
		}
		switch {
		case c == '\'' && !q.double:
			q.single = !q.single
		case c == '"' && !q.single:
			q.double = !q.double
		case q.inQuotes():
		case isExpansionStart(s, j, "$(") && !strings.HasPrefix(s[j:], "$(("):
			j = findCmdsubEnd(s, j+2)
			continue
		case c == '{':
			depth++
		case c == '}':
			depth--
		}
		j++
	}
	j = min(j, len(s))
	inner := s[i+2 : j]
	if depth == 0 {
		inner = s[i+2 : j-1]
	}
	inner = formatCmdSubsts(inner, f.parts, false)
	inner = normalizeExtglobWhitespace(inner)
	if depth == 0 {
		f.out.WriteString("${" + inner + "}")
	} else {
		f.out.WriteString("${" + inner)
	}
	return j
}

// normalizeExtglobWhitespace tidies the alternatives of "<(...)" and
// ">(...)" groups as they appear inside [[ ]] patterns.
func normalizeExtglobWhitespace(s string) string {
	var out strings.Builder
	double := false
	deprecatedDepth := 0
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '"':
			double = !double
		case strings.HasPrefix(s[i:], "$[") && !isBackslashEscaped(s, i):
			deprecatedDepth++
		case c == ']' && deprecatedDepth > 0:
			deprecatedDepth--
		case (c == '<' || c == '>') && at(s, i+1) == '(' && !double && deprecatedDepth == 0:
			out.WriteString(s[i : i+2])
			i += 2
			depth := 1
			var alts []string
			var cur strings.Builder
			hasPipe := false
			flush := func(trim bool) {
				part := cur.String()
				if !strings.Contains(part, "<<") && trim {
					part = strings.TrimSpace(part)
				}
				alts = append(alts, part)
				cur.Reset()
			}
		group:
			for i < len(s) && depth > 0 {
				switch {
				case s[i] == '\\' && i+1 < len(s):
					cur.WriteString(s[i : i+2])
					i += 2
				case s[i] == '(':
					depth++
					cur.WriteByte('(')
					i++
				case s[i] == ')':
					depth--
					if depth == 0 {
						flush(hasPipe)
						break group
					}
					cur.WriteByte(')')
					i++
				case s[i] == '|' && depth == 1:
					if at(s, i+1) == '|' {
						cur.WriteString("||")
						i += 2
					} else {
						hasPipe = true
						flush(true)
						i++
					}
				default:
					cur.WriteByte(s[i])
					i++
				}
			}
			out.WriteString(strings.Join(alts, " | "))
			if depth == 0 {
				out.WriteByte(')')
				i++
			}
			continue
		}
		out.WriteByte(c)
		i++
	}
	return out.String()
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
