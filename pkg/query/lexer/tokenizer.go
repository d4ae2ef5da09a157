package lexer

import (
	"fmt"
	"regexp"
	"strings"
)

type Error struct {
	Position int
	message  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at position %d", e.message, e.Position)
}

type rule struct {
	regex *regexp.Regexp
	kind  TokenKind
	skip  bool
}

//nolint:gochecknoglobals
var rules = []rule{
	{regex: regexp.MustCompile(`^\s+`), skip: true},
	{regex: regexp.MustCompile(`^"[^"]*"`), kind: String},
	{regex: regexp.MustCompile(`^'[^']*'`), kind: String},
	{regex: regexp.MustCompile("^`[^`]*`"), kind: String},
	{regex: regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?`), kind: Number},
	{regex: regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*`), kind: Identifier},
	{regex: regexp.MustCompile(`^\(`), kind: OpenParen},
	{regex: regexp.MustCompile(`^\)`), kind: CloseParen},
	{regex: regexp.MustCompile(`^!=`), kind: NotEquals},
	{regex: regexp.MustCompile(`^==?`), kind: Equals},
	{regex: regexp.MustCompile(`^<=`), kind: LessEquals},
	{regex: regexp.MustCompile(`^<`), kind: Less},
	{regex: regexp.MustCompile(`^>=`), kind: GreaterEquals},
	{regex: regexp.MustCompile(`^>`), kind: Greater},
	{regex: regexp.MustCompile(`^\.`), kind: Dot},
	{regex: regexp.MustCompile(`^,`), kind: Comma},
}

// Tokenize splits a filter expression into tokens terminated by EOF.
func Tokenize(source string) ([]Token, error) {
	tokens := make([]Token, 0)
	pos := 0

	for pos < len(source) {
		remainder := source[pos:]
		matched := false

		for _, r := range rules {
			text := r.regex.FindString(remainder)
			if text == "" {
				continue
			}

			matched = true

			if !r.skip {
				tokens = append(tokens, newToken(r.kind, text, pos))
			}

			pos += len(text)

			break
		}

		if !matched {
			return tokens, &Error{Position: pos, message: fmt.Sprintf("unrecognized token near %q", remainder)}
		}
	}

	return append(tokens, Token{Kind: EOF, Value: "EOF", Position: pos}), nil
}

func newToken(kind TokenKind, text string, pos int) Token {
	if kind == Identifier {
		if keyword, ok := keywords[strings.ToUpper(text)]; ok {
			kind = keyword
		}
	}

	return Token{Kind: kind, Value: text, Position: pos}
}
