// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package syntax

import "strings"

// The functions in this file scan raw source text without building any
// nodes. They are used to find where nested constructs end, both while
// lexing and while reformatting words for their S-expressions.

func isDigit(b byte) bool      { return '0' <= b && b <= '9' }
func isOctalDigit(b byte) bool { return '0' <= b && b <= '7' }

func isHexDigit(b byte) bool {
	return isDigit(b) || ('a' <= b && b <= 'f') || ('A' <= b && b <= 'F')
}

func isLetter(b byte) bool {
	return ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}

func isNameStart(b byte) bool { return isLetter(b) || b == '_' }
func isNameByte(b byte) bool  { return isLetter(b) || isDigit(b) || b == '_' }

func isBlank(b byte) bool { return b == ' ' || b == '\t' }
func isSpace(b byte) bool { return b == ' ' || b == '\t' || b == '\n' }

// isMetachar reports whether b separates words outside of quotes.
func isMetachar(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '|', '&', ';', '(', ')', '<', '>':
		return true
	}
	return false
}

func isExtglobPrefix(b byte) bool {
	switch b {
	case '@', '?', '*', '+', '!':
		return true
	}
	return false
}

// isSpecialParam reports whether b names a special parameter inside
// braces.
func isSpecialParam(b byte) bool {
	switch b {
	case '?', '$', '!', '#', '@', '*', '-', '&':
		return true
	}
	return false
}

func isSpecialParamUnbraced(b byte) bool {
	return b != '&' && isSpecialParam(b)
}

func isNegationBoundary(b byte) bool {
	switch b {
	case ' ', '\t', '\n', ';', '|', ')', '&', '>', '<':
		return true
	}
	return false
}

func isValidIdentifier(name string) bool {
	if name == "" || !isNameStart(name[0]) {
		return false
	}
	for i := 1; i < len(name); i++ {
		if !isNameByte(name[i]) {
			return false
		}
	}
	return true
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

func at(s string, i int) byte {
	if i < 0 || i >= len(s) {
		return 0
	}
	return s[i]
}

// dollarsBefore counts the unescaped "$" characters immediately before
// pos, so that "$$(" can be told apart from "$(".
func dollarsBefore(s string, pos int) int {
	count := 0
	for k := pos - 1; k >= 0 && s[k] == '$'; k-- {
		bs := 0
		for j := k - 1; j >= 0 && s[j] == '\\'; j-- {
			bs++
		}
		if bs%2 == 1 {
			break
		}
		count++
	}
	return count
}

// isExpansionStart reports whether s has the given expansion opener at
// pos that is not the second half of a "$$".
func isExpansionStart(s string, pos int, opener string) bool {
	return strings.HasPrefix(s[pos:], opener) && dollarsBefore(s, pos)%2 == 0
}

func isBackslashEscaped(s string, idx int) bool {
	n := 0
	for j := idx - 1; j >= 0 && s[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}

// oddDollarsBefore reports whether idx follows an odd run of "$", which
// makes the "$" at idx-1 part of "$$".
func oddDollarsBefore(s string, idx int) bool {
	n := 0
	for j := idx - 1; j >= 0 && s[j] == '$'; j-- {
		n++
	}
	return n%2 == 1
}

func trailingBackslashes(s string) int {
	n := 0
	for i := len(s) - 1; i >= 0 && s[i] == '\\'; i-- {
		n++
	}
	return n
}

// stripContinuations removes backslash-newline pairs, except that a
// continuation ending a comment keeps its newline.
func stripContinuations(text string) string {
	var sb strings.Builder
	inComment := false
	var q quoteState
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '\\' && at(text, i+1) == '\n' && !isBackslashEscaped(text, i) {
			if inComment {
				sb.WriteByte('\n')
			}
			i++
			inComment = false
			continue
		}
		switch {
		case c == '\n':
			inComment = false
		case inComment:
		case c == '\'' && !q.double:
			q.single = !q.single
		case c == '"' && !q.single:
			q.double = !q.double
		case c == '#' && !q.single:
			inComment = true
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// skipSingleQuoted returns the position after the closing quote, with
// start just past the opening one.
func skipSingleQuoted(s string, start int) int {
	i := strings.IndexByte(s[min(start, len(s)):], '\'')
	if i < 0 {
		return len(s)
	}
	return start + i + 1
}

// skipDoubleQuoted is like skipSingleQuoted, but it also skips over
// escapes, backticks and "$(" or "${" expansions inside the quotes.
func skipDoubleQuoted(s string, start int) int {
	i := start
	backq := false
	for i < len(s) {
		c := s[i]
		switch {
		case c == '\\':
			i += 2
			continue
		case backq:
			if c == '`' {
				backq = false
			}
		case c == '`':
			backq = true
		case c == '$' && at(s, i+1) == '(':
			i = findCmdsubEnd(s, i+2)
			continue
		case c == '$' && at(s, i+1) == '{':
			i = findBracedParamEnd(s, i+2)
			continue
		case c == '"':
			return i + 1
		}
		i++
	}
	return min(i, len(s))
}

func skipBacktick(s string, start int) int {
	i := start + 1
	for i < len(s) && s[i] != '`' {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		i++
	}
	if i < len(s) {
		i++
	}
	return i
}

// consumeSingleQuote returns the end of the single-quoted string at start.
func consumeSingleQuote(s string, start int) int {
	i := start + 1
	for i < len(s) && s[i] != '\'' {
		i++
	}
	if i < len(s) {
		i++
	}
	return i
}

func consumeDoubleQuote(s string, start int) int {
	i := start + 1
	for i < len(s) && s[i] != '"' {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		i++
	}
	if i < len(s) {
		i++
	}
	return i
}

func hasBracketClose(s string, start, depth int) bool {
	for i := start; i < len(s); i++ {
		switch s[i] {
		case ']':
			return true
		case '|', ')':
			if depth == 0 {
				return false
			}
		}
	}
	return false
}

// consumeBracketClass returns the end of the bracket expression at start.
// If there is no closing bracket, ok is false and the "[" is literal.
func consumeBracketClass(s string, start, depth int) (end int, ok bool) {
	i := start + 1
	if c := at(s, i); c == '!' || c == '^' {
		i++
	}
	if at(s, i) == ']' && hasBracketClose(s, i+1, depth) {
		i++
	}
	for j := i; ; j++ {
		if j >= len(s) {
			return start + 1, false
		}
		c := s[j]
		if c == ']' {
			break
		}
		if (c == ')' || c == '|') && depth == 0 {
			return start + 1, false
		}
	}
	for i < len(s) && s[i] != ']' {
		i++
	}
	if i < len(s) {
		i++
	}
	return i, true
}

// isWordBoundary reports whether the keyword of length n at pos stands
// on its own.
func isWordBoundary(s string, pos, n int) bool {
	if pos > 0 {
		prev := s[pos-1]
		if isNameByte(prev) || prev == '{' || prev == '}' || prev == '!' {
			return false
		}
	}
	return pos+n >= len(s) || !isNameByte(s[pos+n])
}

func hasKeywordAt(s string, i int, kw string) bool {
	return strings.HasPrefix(s[i:], kw) && isWordBoundary(s, i, len(kw))
}

// lookaheadForEsac reports whether a case statement nested caseDepth
// deep is closed by an "esac" before the enclosing parenthesis ends.
func lookaheadForEsac(s string, start, caseDepth int) bool {
	depth := caseDepth
	var q quoteState
	for i := start; i < len(s); {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s) && q.double:
			i += 2
			continue
		case c == '\'' && !q.double:
			q.single = !q.single
		case c == '"' && !q.single:
			q.double = !q.double
		case q.inQuotes():
		case hasKeywordAt(s, i, "case"):
			depth++
			i += 4
			continue
		case hasKeywordAt(s, i, "esac"):
			depth--
			if depth == 0 {
				return true
			}
			i += 4
			continue
		case c == ')' && depth <= 0:
			return false
		}
		i++
	}
	return false
}

// isValidArithmeticStart reports whether the "$((" at start is closed by
// a matching "))", as opposed to being a command substitution starting
// with a subshell.
func isValidArithmeticStart(s string, start int) bool {
	depth := 0
	for i := start + 3; i < len(s); i++ {
		if isExpansionStart(s, i, "$(") {
			i = findCmdsubEnd(s, i+2) - 1
			continue
		}
		switch s[i] {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			} else {
				return at(s, i+1) == ')'
			}
		}
	}
	return false
}

// findFunsubEnd returns the position after the "}" closing a "${ cmd; }"
// whose body starts at start.
func findFunsubEnd(s string, start int) int {
	depth := 1
	var q quoteState
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s) && !q.single:
			i++
		case c == '\'' && !q.double:
			q.single = !q.single
		case c == '"' && !q.single:
			q.double = !q.double
		case q.inQuotes():
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return len(s)
}

// findCmdsubEnd returns the position after the ")" closing a "$(" whose
// body starts at start. It understands quotes, comments, here-strings,
// here-documents, nested arithmetic and case statements.
func findCmdsubEnd(s string, start int) int {
	depth := 1
	i := start
	caseDepth := 0
	inPatterns := false
	arithDepth, arithParens := 0, 0
	for i < len(s) && depth > 0 {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s):
			i += 2
			continue
		case c == '\'':
			i = skipSingleQuoted(s, i+1)
			continue
		case c == '"':
			i = skipDoubleQuoted(s, i+1)
			continue
		case c == '#' && arithDepth == 0 && (i == start || strings.IndexByte(" \t\n;|&()", s[i-1]) >= 0):
			for i < len(s) && s[i] != '\n' {
				i++
			}
			continue
		case strings.HasPrefix(s[i:], "<<<"):
			i = skipHereString(s, i+3)
			continue
		case isExpansionStart(s, i, "$(("):
			if isValidArithmeticStart(s, i) {
				arithDepth++
				i += 3
			} else {
				i = findCmdsubEnd(s, i+2)
			}
			continue
		case arithDepth > 0 && arithParens == 0 && strings.HasPrefix(s[i:], "))"):
			arithDepth--
			i += 2
			continue
		case c == '`':
			i = skipBacktick(s, i)
			continue
		case arithDepth == 0 && strings.HasPrefix(s[i:], "<<"):
			i = skipHeredoc(s, i)
			continue
		case hasKeywordAt(s, i, "case"):
			caseDepth++
			inPatterns = false
			i += 4
			continue
		case caseDepth > 0 && hasKeywordAt(s, i, "in"):
			inPatterns = true
			i += 2
			continue
		case hasKeywordAt(s, i, "esac"):
			if caseDepth > 0 {
				caseDepth--
				inPatterns = false
			}
			i += 4
			continue
		case strings.HasPrefix(s[i:], ";;"):
			i += 2
			continue
		case c == '(':
			if !(inPatterns && caseDepth > 0) {
				if arithDepth > 0 {
					arithParens++
				} else {
					depth++
				}
			}
		case c == ')':
			if inPatterns && caseDepth > 0 {
				if !lookaheadForEsac(s, i+1, caseDepth) {
					depth--
				}
			} else if arithDepth > 0 {
				if arithParens > 0 {
					arithParens--
				}
			} else {
				depth--
			}
		}
		i++
	}
	return i
}

// skipHereString skips the word following a "<<<" operator.
func skipHereString(s string, i int) int {
	for i < len(s) && isBlank(s[i]) {
		i++
	}
	switch at(s, i) {
	case '"':
		i++
		for i < len(s) && s[i] != '"' {
			if s[i] == '\\' && i+1 < len(s) {
				i++
			}
			i++
		}
		if i < len(s) {
			i++
		}
	case '\'':
		i++
		for i < len(s) && s[i] != '\'' {
			i++
		}
		if i < len(s) {
			i++
		}
	default:
		for i < len(s) && strings.IndexByte(" \t\n;|&<>()", s[i]) < 0 {
			i++
		}
	}
	return i
}

// findBracedParamEnd returns the position after the "}" closing a "${"
// whose body starts at start.
func findBracedParamEnd(s string, start int) int {
	depth := 1
	i := start
	inDouble := false
	state := dolbraceParam
	for i < len(s) && depth > 0 {
		c := s[i]
		if c == '\\' && i+1 < len(s) {
			i += 2
			continue
		}
		if c == '\'' && state == dolbraceQuote && !inDouble {
			i = skipSingleQuoted(s, i+1)
			continue
		}
		if c == '"' {
			inDouble = !inDouble
			i++
			continue
		}
		if inDouble {
			i++
			continue
		}
		if state == dolbraceParam {
			if strings.IndexByte("%#^,", c) >= 0 {
				state = dolbraceQuote
			} else if strings.IndexByte(":-=?+/", c) >= 0 {
				state = dolbraceWord
			}
		}
		if c == '[' && state == dolbraceParam {
			if end := skipSubscript(s, i, 0); end != -1 {
				i = end
				continue
			}
		}
		if (c == '<' || c == '>') && at(s, i+1) == '(' {
			i = findCmdsubEnd(s, i+2)
			continue
		}
		if c == '{' {
			depth++
		} else if c == '}' {
			depth--
			if depth == 0 {
				return i + 1
			}
		}
		if isExpansionStart(s, i, "$(") {
			i = findCmdsubEnd(s, i+2)
			continue
		}
		if isExpansionStart(s, i, "${") {
			i = findBracedParamEnd(s, i+2)
			continue
		}
		i++
	}
	return i
}

// heredocLine returns the logical line starting at lineStart, joining
// physical lines that end in an odd number of backslashes, and the
// position of its terminating newline.
func heredocLine(s string, lineStart int) (line string, lineEnd int) {
	lineEnd = lineStart
	for lineEnd < len(s) && s[lineEnd] != '\n' {
		lineEnd++
	}
	line = s[lineStart:lineEnd]
	for lineEnd < len(s) && trailingBackslashes(line)%2 == 1 {
		line = line[:len(line)-1]
		lineEnd++
		next := lineEnd
		for lineEnd < len(s) && s[lineEnd] != '\n' {
			lineEnd++
		}
		line += s[next:lineEnd]
	}
	return line, lineEnd
}

// matchHeredocEnd checks whether the logical line closes a here-document.
// It returns the position to continue from and whether the body ended.
func matchHeredocEnd(s, line string, lineStart, lineEnd int, delim string, stripTabs bool) (int, bool) {
	stripped := line
	if stripTabs {
		stripped = strings.TrimLeft(line, "\t")
	}
	if stripped == delim {
		if lineEnd < len(s) {
			return lineEnd + 1, true
		}
		return lineEnd, true
	}
	if strings.HasPrefix(stripped, delim) && len(stripped) > len(delim) {
		return lineStart + len(line) - len(stripped) + len(delim), true
	}
	if lineEnd < len(s) {
		return lineEnd + 1, false
	}
	return lineEnd, false
}

// skipHeredoc skips a here-document operator at start, the rest of its
// line and its body.
func skipHeredoc(s string, start int) int {
	i := start + 2
	stripTabs := at(s, i) == '-'
	if stripTabs {
		i++
	}
	for i < len(s) && isBlank(s[i]) {
		i++
	}
	var delim string
	switch c := at(s, i); {
	case c == '"' || c == '\'':
		i++
		ds := i
		for i < len(s) && s[i] != c {
			i++
		}
		delim = s[ds:i]
		if i < len(s) {
			i++
		}
	case c == '\\':
		i++
		ds := i
		if i < len(s) {
			i++
		}
		for i < len(s) && !isMetachar(s[i]) {
			i++
		}
		delim = s[ds:i]
	default:
		ds := i
		for i < len(s) && !isMetachar(s[i]) {
			i++
		}
		delim = s[ds:i]
	}
	parens := 0
	var q quoteState
	inBacktick := false
rest:
	for i < len(s) && s[i] != '\n' {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s) && (q.double || inBacktick):
			i++
		case c == '\'' && !q.double && !inBacktick:
			q.single = !q.single
		case c == '"' && !q.single && !inBacktick:
			q.double = !q.double
		case c == '`' && !q.single:
			inBacktick = !inBacktick
		case q.inQuotes() || inBacktick:
		case c == '(':
			parens++
		case c == ')':
			if parens == 0 {
				break rest
			}
			parens--
		}
		i++
	}
	if at(s, i) == ')' {
		return i
	}
	if at(s, i) == '\n' {
		i++
	}
	for i < len(s) {
		line, lineEnd := heredocLine(s, i)
		next, done := matchHeredocEnd(s, line, i, lineEnd, delim, stripTabs)
		if done {
			return next
		}
		i = next
	}
	return i
}

type heredocDelim struct {
	delim     string
	stripTabs bool
}

// findHeredocContentEnd returns the newline that ends the line at start,
// and the position after the bodies of the given here-documents that
// follow it.
func findHeredocContentEnd(s string, start int, delims []heredocDelim) (contentStart, end int) {
	if len(delims) == 0 {
		return start, start
	}
	pos := start
	for pos < len(s) && s[pos] != '\n' {
		pos++
	}
	if pos >= len(s) {
		return start, start
	}
	contentStart = pos
	pos++
	for _, d := range delims {
		for pos < len(s) {
			line, lineEnd := heredocLine(s, pos)
			next, done := matchHeredocEnd(s, line, pos, lineEnd, d.delim, d.stripTabs)
			pos = next
			if done {
				break
			}
		}
	}
	return contentStart, pos
}

// collapseWhitespace squeezes runs of blanks into one space and trims
// the result.
func collapseWhitespace(s string) string {
	var sb strings.Builder
	prevBlank := false
	for i := 0; i < len(s); i++ {
		if isBlank(s[i]) {
			if !prevBlank {
				sb.WriteByte(' ')
			}
			prevBlank = true
			continue
		}
		sb.WriteByte(s[i])
		prevBlank = false
	}
	return strings.TrimSpace(sb.String())
}

// normalizeHeredocDelimiter collapses the whitespace inside any "$(",
// "${", "<(" or ">(" found in a delimiter.
func normalizeHeredocDelimiter(delim string) string {
	var sb strings.Builder
	for i := 0; i < len(delim); {
		var open, close byte
		switch {
		case strings.HasPrefix(delim[i:], "$("), strings.HasPrefix(delim[i:], "<("), strings.HasPrefix(delim[i:], ">("):
			open, close = '(', ')'
		case strings.HasPrefix(delim[i:], "${"):
			open, close = '{', '}'
		default:
			sb.WriteByte(delim[i])
			i++
			continue
		}
		sb.WriteString(delim[i : i+2])
		i += 2
		depth := 1
		innerStart := i
		for i < len(delim) && depth > 0 {
			switch delim[i] {
			case open:
				depth++
			case close:
				depth--
				if depth == 0 {
					sb.WriteString(collapseWhitespace(delim[innerStart:i]))
					sb.WriteByte(close)
				}
			}
			i++
		}
	}
	return sb.String()
}

const (
	skipLiteral  = 1 << iota // no quoting or expansions inside
	skipPastOpen             // start is already past the opening byte
)

// skipMatchedPair returns the position after the close byte matching the
// open byte at start, or -1 if there is none.
func skipMatchedPair(s string, start int, open, close byte, flags int) int {
	i := start
	if flags&skipPastOpen == 0 {
		if at(s, start) != open || start >= len(s) {
			return -1
		}
		i++
	}
	literal := flags&skipLiteral != 0
	depth := 1
	backq := false
	for i < len(s) && depth > 0 {
		c := s[i]
		switch {
		case !literal && c == '\\':
			i += 2
			continue
		case backq:
			if c == '`' {
				backq = false
			}
		case !literal && c == '`':
			backq = true
		case !literal && c == '\'':
			i = skipSingleQuoted(s, i+1)
			continue
		case !literal && c == '"':
			i = skipDoubleQuoted(s, i+1)
			continue
		case !literal && isExpansionStart(s, i, "$("):
			i = findCmdsubEnd(s, i+2)
			continue
		case !literal && isExpansionStart(s, i, "${"):
			i = findBracedParamEnd(s, i+2)
			continue
		case !literal && c == open:
			depth++
		case c == close:
			depth--
		}
		i++
	}
	if depth == 0 {
		return i
	}
	return -1
}

func skipSubscript(s string, start, flags int) int {
	return skipMatchedPair(s, start, '[', ']', flags)
}

// assignmentIndex returns the index of the "=" if s starts with an
// assignment such as "name=", "name+=" or "name[sub]=", or -1 otherwise.
func assignmentIndex(s string, literalSubscript bool) int {
	if s == "" || !isNameStart(s[0]) {
		return -1
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '=':
			return i
		case c == '[':
			flags := 0
			if literalSubscript {
				flags = skipLiteral
			}
			end := skipSubscript(s, i, flags)
			if end == -1 {
				return -1
			}
			i = end
			if at(s, i) == '+' {
				i++
			}
			if at(s, i) == '=' {
				return i
			}
			return -1
		case c == '+':
			if at(s, i+1) == '=' {
				return i + 1
			}
			return -1
		case !isNameByte(c):
			return -1
		}
	}
	return -1
}

func looksLikeAssignment(s string) bool { return assignmentIndex(s, false) != -1 }

// isArrayAssignmentPrefix reports whether s is a name followed only by
// complete subscripts, such as "arr" or "arr[1]".
func isArrayAssignmentPrefix(s string) bool {
	if s == "" || !isNameStart(s[0]) {
		return false
	}
	i := 1
	for i < len(s) && isNameByte(s[i]) {
		i++
	}
	for i < len(s) {
		if s[i] != '[' {
			return false
		}
		end := skipSubscript(s, i, skipLiteral)
		if end == -1 {
			return false
		}
		i = end
	}
	return true
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
