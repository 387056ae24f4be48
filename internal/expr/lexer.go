package expr

import (
	"strconv"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokSlashSlash
	tokPercent
	tokStarStar
	tokLParen
	tokRParen
	tokComma
	tokEq  // ==
	tokNe  // !=
	tokLt  // <
	tokLe  // <=
	tokGt  // >
	tokGe  // >=
)

type token struct {
	kind tokenKind
	pos  int
	text string
	num  float64 // populated for tokNumber
}

// lex tokenizes the expression text. Anything outside the grammar's
// character set fails here; characters that would introduce constructs of
// a general-purpose language (assignment, subscripting, attribute access,
// statements, string literals) are reported as ErrUnsupportedConstruct so
// the security boundary is visible in the error, not just a generic
// syntax failure.
func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			i++
		case c >= '0' && c <= '9' || c == '.' && i+1 < len(src) && isDigit(src[i+1]):
			start := i
			for i < len(src) && isDigit(src[i]) {
				i++
			}
			if i < len(src) && src[i] == '.' {
				i++
				for i < len(src) && isDigit(src[i]) {
					i++
				}
			}
			// Reject a second dot ("1.2.3") and exponent soup early.
			num, err := strconv.ParseFloat(src[start:i], 64)
			if err != nil {
				return nil, errAt(ErrSyntax, start, "malformed number %q", src[start:i])
			}
			toks = append(toks, token{kind: tokNumber, pos: start, text: src[start:i], num: num})
		case isIdentStart(rune(c)):
			start := i
			for i < len(src) {
				r, size := utf8.DecodeRuneInString(src[i:])
				if !isIdentPart(r) {
					break
				}
				i += size
			}
			toks = append(toks, token{kind: tokIdent, pos: start, text: src[start:i]})
		case c == '+':
			toks = append(toks, token{kind: tokPlus, pos: i, text: "+"})
			i++
		case c == '-':
			toks = append(toks, token{kind: tokMinus, pos: i, text: "-"})
			i++
		case c == '*':
			if i+1 < len(src) && src[i+1] == '*' {
				toks = append(toks, token{kind: tokStarStar, pos: i, text: "**"})
				i += 2
			} else {
				toks = append(toks, token{kind: tokStar, pos: i, text: "*"})
				i++
			}
		case c == '/':
			if i+1 < len(src) && src[i+1] == '/' {
				toks = append(toks, token{kind: tokSlashSlash, pos: i, text: "//"})
				i += 2
			} else {
				toks = append(toks, token{kind: tokSlash, pos: i, text: "/"})
				i++
			}
		case c == '%':
			toks = append(toks, token{kind: tokPercent, pos: i, text: "%"})
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen, pos: i, text: "("})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, pos: i, text: ")"})
			i++
		case c == ',':
			toks = append(toks, token{kind: tokComma, pos: i, text: ","})
			i++
		case c == '=':
			if i+1 < len(src) && src[i+1] == '=' {
				toks = append(toks, token{kind: tokEq, pos: i, text: "=="})
				i += 2
			} else {
				return nil, errAt(ErrUnsupportedConstruct, i, "assignment is not allowed")
			}
		case c == '!':
			if i+1 < len(src) && src[i+1] == '=' {
				toks = append(toks, token{kind: tokNe, pos: i, text: "!="})
				i += 2
			} else {
				return nil, errAt(ErrUnsupportedOperator, i, "operator %q is not allowed", "!")
			}
		case c == '<':
			if i+1 < len(src) && src[i+1] == '=' {
				toks = append(toks, token{kind: tokLe, pos: i, text: "<="})
				i += 2
			} else {
				toks = append(toks, token{kind: tokLt, pos: i, text: "<"})
				i++
			}
		case c == '>':
			if i+1 < len(src) && src[i+1] == '=' {
				toks = append(toks, token{kind: tokGe, pos: i, text: ">="})
				i += 2
			} else {
				toks = append(toks, token{kind: tokGt, pos: i, text: ">"})
				i++
			}
		case c == '[' || c == ']':
			return nil, errAt(ErrUnsupportedConstruct, i, "subscripting is not allowed")
		case c == '.':
			return nil, errAt(ErrUnsupportedConstruct, i, "attribute access is not allowed")
		case c == ';' || c == ':':
			return nil, errAt(ErrUnsupportedConstruct, i, "statements are not allowed")
		case c == '\'' || c == '"':
			return nil, errAt(ErrUnsupportedConstruct, i, "string literals are not allowed")
		case c == '{' || c == '}':
			return nil, errAt(ErrUnsupportedConstruct, i, "braces are not allowed")
		case c == '&' || c == '|' || c == '^' || c == '~' || c == '@':
			return nil, errAt(ErrUnsupportedOperator, i, "operator %q is not allowed", string(c))
		default:
			return nil, errAt(ErrSyntax, i, "unexpected character %q", string(c))
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(src)})
	return toks, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
