// Package lexer implements the VM's line-level tokenizing helpers
// (spec §4.6): quote-aware comma/colon splitting and argument-kind
// classification. It does not build a token stream the way a
// traditional scanner would — RA source is line-oriented, so the unit
// of work is a single logical line, already assembled by the parser's
// continuation/comment preprocessing pass.
package lexer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"ravm/internal/instruction"
)

// Keywords is the static registry spec §4.6 calls for: IO modes,
// relational operators, memory-level constants, type names, file
// modes, and user-added instruction names all classify as `keyword`
// rather than `identifier`.
var Keywords = buildKeywords()

func buildKeywords() map[string]bool {
	words := []string{
		// relational operators (spec §4.2)
		"RG", "RGE", "RNE", "RE", "RAE", "RLE", "RL", "RT", "RF", "AND", "OR",
		// arithmetic operators (spec §4.2: "add/sub/mul/div/mod/pow/root");
		// OPT's bare operator argument (spec §8 scenario 1: `OPT: c, a, b, +`)
		// names one of these directly rather than going through ctx.Lookup.
		"+", "-", "*", "/", "%", "^", "root",
		// file modes (spec §3.x File)
		"READ", "WRITE", "APPEND", "READWRITE",
		// IO sink/source modes
		"STDOUT", "STDERR", "STDIN",
		// memory-level constants
		"GLOBAL", "CURRENT",
		// built-in type names (spec §6.3 tp-* presets, bare form)
		"null", "int", "float", "bool", "char", "string", "list", "dict",
		"series", "kvp", "cgroup", "custom_type", "custom_inst",
		"function", "return_function", "quote", "file", "time", "error", "extension",
	}
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// RegisterKeyword adds a user/opcode-table-declared keyword (spec
// §4.6's "user-added instructions" clause) to the static registry.
func RegisterKeyword(word string) { Keywords[word] = true }

// SplitColon finds the first colon outside a quoted string and splits
// line into (opcode, rest). If no colon is found, rest is empty and ok
// is false (a bare opcode with no arguments, e.g. `END`).
func SplitColon(line string) (opcode, rest string, ok bool) {
	inQuote := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		if c == '"' && (i == 0 || line[i-1] != '\\') {
			inQuote = !inQuote
			continue
		}
		if c == ':' && !inQuote {
			return strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+1:]), true
		}
	}
	return strings.TrimSpace(line), "", false
}

// SplitArgs performs quote-aware comma splitting (spec §4.6): commas
// inside balanced double quotes are literal, a backslash before a quote
// escapes it, and adjacent quoted pieces on the same argument are
// merged (e.g. `"a""b"` stays one argument).
func SplitArgs(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var args []string
	var cur strings.Builder
	inQuote := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"' && (i == 0 || s[i-1] != '\\'):
			inQuote = !inQuote
			cur.WriteByte(c)
		case c == ',' && !inQuote:
			args = append(args, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	args = append(args, strings.TrimSpace(cur.String()))
	return args
}

// Classify determines an argument's kind and, for strings, resolves its
// escape sequences (spec §4.6). The returned text is the resolved
// value ready to feed into value construction: the unescaped body for
// strings, the literal token otherwise.
func Classify(text string) (instruction.ArgKind, string, error) {
	if text == "" {
		return instruction.KindUnknown, text, fmt.Errorf("SyntaxError: empty argument")
	}
	if isQuotedString(text) {
		resolved, err := unescape(text[1 : len(text)-1])
		if err != nil {
			return instruction.KindUnknown, text, err
		}
		return instruction.KindString, resolved, nil
	}
	if isNumber(text) {
		return instruction.KindNumber, text, nil
	}
	if Keywords[text] {
		return instruction.KindKeyword, text, nil
	}
	if isIdentifier(text) {
		return instruction.KindIdentifier, text, nil
	}
	if kind, ok := containerLiteral(text); ok {
		return instruction.KindContainer, kind, nil
	}
	if isAccessExpr(text) {
		return instruction.KindExpr, text, nil
	}
	if isInlineArithExpr(text) {
		return instruction.KindExpr, text, nil
	}
	return instruction.KindUnknown, text, fmt.Errorf("SyntaxError: unrecognized argument %q", text)
}

// containerLiteral matches the bare literal container forms spec §8
// scenario 3 parses (`VAR: d, {}`). Text normalizes to the container's
// type name so resolveArg doesn't need to re-inspect the original
// bracket text.
func containerLiteral(text string) (string, bool) {
	switch text {
	case "{}":
		return "dict", true
	case "[]":
		return "list", true
	default:
		return "", false
	}
}

// isAccessExpr recognizes the member-access sugar spec §8 scenario 3
// parses (`PRINT: d@"k"`): an identifier, a literal `@`, and a key
// token that itself classifies as string/number/identifier/keyword.
// The split happens again at resolveArg time against the live scope;
// here we only validate the shape so it doesn't fall through to
// KindUnknown.
func isAccessExpr(text string) bool {
	container, key, ok := SplitAccessExpr(text)
	if !ok {
		return false
	}
	if !isIdentifier(container) {
		return false
	}
	_, _, err := Classify(key)
	return err == nil
}

// SplitAccessExpr splits `container@key` on the first unquoted `@`,
// returning its two halves. Used by both the classifier and
// opcode.resolveArg (which re-splits the already-validated text).
func SplitAccessExpr(text string) (container, key string, ok bool) {
	inQuote := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '"' && (i == 0 || text[i-1] != '\\') {
			inQuote = !inQuote
			continue
		}
		if c == '@' && !inQuote {
			return text[:i], text[i+1:], true
		}
	}
	return "", "", false
}

// arithOperators lists the inline infix operators spec §8 scenario 4's
// `RET: x*x` can use. "root" is excluded — it only appears as OPT's
// word-form operator argument, never inline.
var arithOperators = []byte{'+', '-', '*', '/', '%', '^'}

// isInlineArithExpr recognizes a bare binary expression like `x*x` or
// `x*2`: exactly one operator character, not at the first position (so
// a leading sign stays part of a signed number), with both operand
// halves independently resolvable as a number or an identifier.
func isInlineArithExpr(text string) bool {
	_, _, _, ok := SplitInlineArithExpr(text)
	return ok
}

// SplitInlineArithExpr splits text into (left, op, right) at the first
// arithmetic operator found at index > 0, provided both halves
// classify as a number or identifier. Used by both the classifier and
// opcode.resolveArg.
func SplitInlineArithExpr(text string) (left, op, right string, ok bool) {
	for i := 1; i < len(text)-1; i++ {
		isOp := false
		for _, o := range arithOperators {
			if text[i] == o {
				isOp = true
				break
			}
		}
		if !isOp {
			continue
		}
		l, r := text[:i], text[i+1:]
		if isOperand(l) && isOperand(r) {
			return l, string(text[i]), r, true
		}
	}
	return "", "", "", false
}

func isOperand(text string) bool {
	return isNumber(text) || isIdentifier(text)
}

func isQuotedString(text string) bool {
	if len(text) < 2 || text[0] != '"' || text[len(text)-1] != '"' {
		return false
	}
	inQuote := false
	for i := 0; i < len(text); i++ {
		if text[i] == '"' && (i == 0 || text[i-1] != '\\') {
			inQuote = !inQuote
		}
	}
	return !inQuote
}

func unescape(body string) (string, error) {
	var out strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' {
			out.WriteByte(c)
			continue
		}
		i++
		if i >= len(body) {
			return "", fmt.Errorf("SyntaxError: dangling escape at end of string")
		}
		switch body[i] {
		case 'n':
			out.WriteByte('\n')
		case 't':
			out.WriteByte('\t')
		case 'r':
			out.WriteByte('\r')
		case '\\':
			out.WriteByte('\\')
		case '"':
			out.WriteByte('"')
		default:
			return "", fmt.Errorf("SyntaxError: unknown escape sequence \\%c", body[i])
		}
	}
	return out.String(), nil
}

// isNumber matches spec §4.6: optional sign, digits, optional single
// dot, digit on at least one side.
func isNumber(text string) bool {
	i := 0
	if i < len(text) && (text[i] == '+' || text[i] == '-') {
		i++
	}
	if i >= len(text) {
		return false
	}
	dotSeen := false
	digitSeen := false
	for ; i < len(text); i++ {
		switch {
		case unicode.IsDigit(rune(text[i])):
			digitSeen = true
		case text[i] == '.' && !dotSeen:
			dotSeen = true
		default:
			return false
		}
	}
	return digitSeen
}

func isIdentifier(text string) bool {
	if text == "" {
		return false
	}
	first := rune(text[0])
	if !unicode.IsLetter(first) && first != '_' {
		return false
	}
	for _, r := range text[1:] {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return true
}

// ParseNumber converts a number-classified token to int64 or float64,
// integers routing first per spec §4.6 (fallback to float when the text
// contains a dot or does not fit in an int64).
func ParseNumber(text string) (isInt bool, i int64, f float64, err error) {
	if !strings.Contains(text, ".") {
		if i, err = strconv.ParseInt(text, 10, 64); err == nil {
			return true, i, 0, nil
		}
	}
	f, err = strconv.ParseFloat(text, 64)
	if err != nil {
		return false, 0, 0, fmt.Errorf("SyntaxError: malformed number %q", text)
	}
	return false, 0, f, nil
}
