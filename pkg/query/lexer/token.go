package lexer

import "fmt"

type TokenKind int

const (
	EOF TokenKind = iota
	Number
	String
	Identifier

	OpenParen
	CloseParen

	Equals
	NotEquals

	Less
	LessEquals
	Greater
	GreaterEquals

	Dot
	Comma

	In //nolint:varnamelen
	Not
	Like
	ILike
	And
)

//nolint:gochecknoglobals
var keywords = map[string]TokenKind{
	"AND":   And,
	"NOT":   Not,
	"IN":    In,
	"LIKE":  Like,
	"ILIKE": ILike,
}

//nolint:gochecknoglobals
var kindNames = map[TokenKind]string{
	EOF:           "eof",
	Number:        "number",
	String:        "string",
	Identifier:    "identifier",
	OpenParen:     "open_paren",
	CloseParen:    "close_paren",
	Equals:        "equals",
	NotEquals:     "not_equals",
	Less:          "less",
	LessEquals:    "less_equals",
	Greater:       "greater",
	GreaterEquals: "greater_equals",
	Dot:           "dot",
	Comma:         "comma",
	In:            "in",
	Not:           "not",
	Like:          "like",
	ILike:         "ilike",
	And:           "and",
}

func (kind TokenKind) String() string {
	if name, ok := kindNames[kind]; ok {
		return name
	}

	return fmt.Sprintf("unknown(%d)", kind)
}

type Token struct {
	Kind     TokenKind
	Value    string
	Position int
}

// Debug renders literal tokens with their text, e.g. string('iris').
func (token Token) Debug() string {
	switch token.Kind {
	case Identifier, Number, String:
		return fmt.Sprintf("%s(%s)", token.Kind, token.Value)
	default:
		return token.Kind.String()
	}
}

// Unquote strips the surrounding quotes of a string token.
func (token Token) Unquote() string {
	if token.Kind != String || len(token.Value) < 2 {
		return token.Value
	}

	return token.Value[1 : len(token.Value)-1]
}
