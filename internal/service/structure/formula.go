package structure

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/workstream-hq/payroll-engine-go/internal/domain/salary"
)

// Formula components carry a restricted arithmetic expression: + - * /,
// parentheses, numeric literals and identifiers bound to basicSalary or the
// computed value of an already-evaluated component. No function calls, no
// strings, no external state.

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokIdent
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokLParen
	tokRParen
	tokEOF
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func lexFormula(expr string) ([]token, error) {
	var tokens []token
	runes := []rune(expr)
	i := 0
	for i < len(runes) {
		c := runes[i]
		switch {
		case unicode.IsSpace(c):
			i++
		case c == '+':
			tokens = append(tokens, token{tokPlus, "+", i})
			i++
		case c == '-':
			tokens = append(tokens, token{tokMinus, "-", i})
			i++
		case c == '*':
			tokens = append(tokens, token{tokStar, "*", i})
			i++
		case c == '/':
			tokens = append(tokens, token{tokSlash, "/", i})
			i++
		case c == '(':
			tokens = append(tokens, token{tokLParen, "(", i})
			i++
		case c == ')':
			tokens = append(tokens, token{tokRParen, ")", i})
			i++
		case unicode.IsDigit(c) || c == '.':
			start := i
			dots := 0
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.') {
				if runes[i] == '.' {
					dots++
				}
				i++
			}
			text := string(runes[start:i])
			if dots > 1 || text == "." {
				return nil, fmt.Errorf("%w: invalid number %q at position %d", salary.ErrFormulaSyntax, text, start)
			}
			tokens = append(tokens, token{tokNumber, text, start})
		case unicode.IsLetter(c) || c == '_':
			start := i
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '_') {
				i++
			}
			tokens = append(tokens, token{tokIdent, string(runes[start:i]), start})
		default:
			return nil, fmt.Errorf("%w: unexpected character %q at position %d", salary.ErrFormulaSyntax, string(c), i)
		}
	}
	tokens = append(tokens, token{tokEOF, "", len(runes)})
	return tokens, nil
}

// AST

type exprNode interface {
	eval(scope map[string]decimal.Decimal) (decimal.Decimal, error)
	collectIdents(into map[string]struct{})
}

type numberNode struct {
	value decimal.Decimal
}

type identNode struct {
	name string
}

type unaryNode struct {
	operand exprNode
}

type binaryNode struct {
	op          tokenKind
	left, right exprNode
}

func (n numberNode) eval(map[string]decimal.Decimal) (decimal.Decimal, error) {
	return n.value, nil
}

func (n numberNode) collectIdents(map[string]struct{}) {}

func (n identNode) eval(scope map[string]decimal.Decimal) (decimal.Decimal, error) {
	value, ok := scope[n.name]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %q", salary.ErrUnknownIdentifier, n.name)
	}
	return value, nil
}

func (n identNode) collectIdents(into map[string]struct{}) {
	into[n.name] = struct{}{}
}

func (n unaryNode) eval(scope map[string]decimal.Decimal) (decimal.Decimal, error) {
	value, err := n.operand.eval(scope)
	if err != nil {
		return decimal.Zero, err
	}
	return value.Neg(), nil
}

func (n unaryNode) collectIdents(into map[string]struct{}) {
	n.operand.collectIdents(into)
}

func (n binaryNode) eval(scope map[string]decimal.Decimal) (decimal.Decimal, error) {
	left, err := n.left.eval(scope)
	if err != nil {
		return decimal.Zero, err
	}
	right, err := n.right.eval(scope)
	if err != nil {
		return decimal.Zero, err
	}
	switch n.op {
	case tokPlus:
		return left.Add(right), nil
	case tokMinus:
		return left.Sub(right), nil
	case tokStar:
		return left.Mul(right), nil
	default:
		if right.IsZero() {
			return decimal.Zero, salary.ErrDivisionByZero
		}
		return left.Div(right), nil
	}
}

func (n binaryNode) collectIdents(into map[string]struct{}) {
	n.left.collectIdents(into)
	n.right.collectIdents(into)
}

// Parser
//
//	expr   := term (('+' | '-') term)*
//	term   := factor (('*' | '/') factor)*
//	factor := NUMBER | IDENT | '(' expr ')' | '-' factor

type formulaParser struct {
	tokens []token
	pos    int
}

func (p *formulaParser) current() token {
	return p.tokens[p.pos]
}

func (p *formulaParser) advance() token {
	t := p.tokens[p.pos]
	if p.current().kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *formulaParser) parseExpr() (exprNode, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.current().kind == tokPlus || p.current().kind == tokMinus {
		op := p.advance().kind
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, left: left, right: right}
	}
	return left, nil
}

func (p *formulaParser) parseTerm() (exprNode, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for p.current().kind == tokStar || p.current().kind == tokSlash {
		op := p.advance().kind
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, left: left, right: right}
	}
	return left, nil
}

func (p *formulaParser) parseFactor() (exprNode, error) {
	t := p.current()
	switch t.kind {
	case tokNumber:
		p.advance()
		value, err := decimal.NewFromString(t.text)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid number %q at position %d", salary.ErrFormulaSyntax, t.text, t.pos)
		}
		return numberNode{value: value}, nil
	case tokIdent:
		p.advance()
		return identNode{name: t.text}, nil
	case tokMinus:
		p.advance()
		operand, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return unaryNode{operand: operand}, nil
	case tokLParen:
		p.advance()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.current().kind != tokRParen {
			return nil, fmt.Errorf("%w: missing closing parenthesis at position %d", salary.ErrFormulaSyntax, p.current().pos)
		}
		p.advance()
		return inner, nil
	case tokEOF:
		return nil, fmt.Errorf("%w: unexpected end of formula", salary.ErrFormulaSyntax)
	default:
		return nil, fmt.Errorf("%w: unexpected %q at position %d", salary.ErrFormulaSyntax, t.text, t.pos)
	}
}

// parseFormula parses expr and returns its AST root.
func parseFormula(expr string) (exprNode, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, fmt.Errorf("%w: empty formula", salary.ErrFormulaSyntax)
	}
	tokens, err := lexFormula(expr)
	if err != nil {
		return nil, err
	}
	p := &formulaParser{tokens: tokens}
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.current().kind != tokEOF {
		t := p.current()
		return nil, fmt.Errorf("%w: unexpected %q at position %d", salary.ErrFormulaSyntax, t.text, t.pos)
	}
	return root, nil
}

// EvaluateFormula parses and evaluates expr against the given scope.
func EvaluateFormula(expr string, scope map[string]decimal.Decimal) (decimal.Decimal, error) {
	root, err := parseFormula(expr)
	if err != nil {
		return decimal.Zero, err
	}
	return root.eval(scope)
}

// FormulaIdentifiers parses expr and returns the identifiers it references,
// sorted. Used for save-time validation before any value exists to evaluate
// against.
func FormulaIdentifiers(expr string) ([]string, error) {
	root, err := parseFormula(expr)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{})
	root.collectIdents(set)
	idents := make([]string, 0, len(set))
	for name := range set {
		idents = append(idents, name)
	}
	sort.Strings(idents)
	return idents, nil
}
