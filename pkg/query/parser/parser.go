package parser

import (
	"fmt"
	"strconv"

	"github.com/mlopslite/mlopslite/pkg/query/lexer"
)

type parser struct {
	tokens []lexer.Token
	pos    int
}

type Error struct {
	message string
}

func NewParserError(format string, a ...any) *Error {
	return &Error{message: fmt.Sprintf(format, a...)}
}

func (e *Error) Error() string {
	return e.message
}

func (p *parser) current() lexer.Token {
	return p.tokens[p.pos]
}

func (p *parser) hasTokens() bool {
	return p.pos < len(p.tokens) && p.current().Kind != lexer.EOF
}

func (p *parser) advance() lexer.Token {
	token := p.current()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}

	return token
}

func (p *parser) expect(kind lexer.TokenKind) error {
	if p.current().Kind != kind {
		return NewParserError("expected %s, got %s", kind, p.current().Debug())
	}

	p.advance()

	return nil
}

func (p *parser) parseIdentifier() (Identifier, error) {
	if p.current().Kind != lexer.Identifier {
		return Identifier{}, NewParserError("expected identifier, got %s", p.current().Debug())
	}

	first := p.advance().Value

	if p.current().Kind != lexer.Dot {
		return Identifier{Key: first}, nil
	}

	p.advance()

	switch p.current().Kind {
	case lexer.Identifier, lexer.String:
		return Identifier{Entity: first, Key: p.advance().Unquote()}, nil
	default:
		return Identifier{}, NewParserError("expected identifier or string after %q., got %s", first, p.current().Debug())
	}
}

func (p *parser) parseOperator() (OperatorKind, error) {
	token := p.advance()

	switch token.Kind {
	case lexer.Equals:
		return Equals, nil
	case lexer.NotEquals:
		return NotEquals, nil
	case lexer.Less:
		return Less, nil
	case lexer.LessEquals:
		return LessEquals, nil
	case lexer.Greater:
		return Greater, nil
	case lexer.GreaterEquals:
		return GreaterEquals, nil
	case lexer.Like:
		return Like, nil
	case lexer.ILike:
		return ILike, nil
	default:
		return -1, NewParserError("expected operator, got %s", token.Debug())
	}
}

func (p *parser) parseValue() (Value, error) {
	switch p.current().Kind {
	case lexer.Number:
		token := p.advance()

		n, err := strconv.ParseFloat(token.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("number token could not be parsed to float: %w", err)
		}

		return NumberExpr{Value: n}, nil
	case lexer.String:
		return StringExpr{Value: p.advance().Unquote()}, nil
	default:
		return nil, NewParserError("expected number or string, got %s", p.current().Debug())
	}
}

func (p *parser) parseList() (ListExpr, error) {
	if err := p.expect(lexer.OpenParen); err != nil {
		return ListExpr{}, err
	}

	values := make([]Value, 0)

	for p.hasTokens() && p.current().Kind != lexer.CloseParen {
		value, err := p.parseValue()
		if err != nil {
			return ListExpr{}, err
		}

		values = append(values, value)

		if p.current().Kind == lexer.Comma {
			p.advance()
		} else if p.current().Kind != lexer.CloseParen {
			return ListExpr{}, NewParserError("expected ',' or ')', got %s", p.current().Debug())
		}
	}

	if err := p.expect(lexer.CloseParen); err != nil {
		return ListExpr{}, err
	}

	if len(values) == 0 {
		return ListExpr{}, NewParserError("IN list must not be empty")
	}

	return ListExpr{Values: values}, nil
}

func (p *parser) parseExpression() (*CompareExpr, error) {
	ident, err := p.parseIdentifier()
	if err != nil {
		return nil, err
	}

	operator := In

	switch p.current().Kind {
	case lexer.Not:
		p.advance()

		if p.current().Kind != lexer.In {
			return nil, NewParserError("expected IN after NOT, got %s", p.current().Debug())
		}

		operator = NotIn

		fallthrough
	case lexer.In:
		p.advance()

		list, err := p.parseList()
		if err != nil {
			return nil, err
		}

		return &CompareExpr{Left: ident, Operator: operator, Right: list}, nil
	default:
		operator, err := p.parseOperator()
		if err != nil {
			return nil, err
		}

		value, err := p.parseValue()
		if err != nil {
			return nil, err
		}

		return &CompareExpr{Left: ident, Operator: operator, Right: value}, nil
	}
}

// Parse reads a conjunction of comparisons.
func Parse(tokens []lexer.Token) (*AndExpr, error) {
	if len(tokens) == 0 {
		return nil, NewParserError("no tokens")
	}

	p := &parser{tokens: tokens}
	exprs := make([]*CompareExpr, 0)

	for {
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}

		exprs = append(exprs, expr)

		if p.current().Kind != lexer.And {
			break
		}

		p.advance()
	}

	if p.hasTokens() {
		return nil, NewParserError("unexpected leftover token(s) after parsing: %s", p.current().Debug())
	}

	return &AndExpr{Exprs: exprs}, nil
}
