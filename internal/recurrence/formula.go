package recurrence

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// maxFormulaLen bounds user-supplied formulas before any parsing happens.
const maxFormulaLen = 256

// EvalFormula evaluates a constrained arithmetic formula over the variables
// base, month and year. The grammar admits only numbers, those three
// identifiers, the operators + - * /, parentheses and spaces; anything else
// is rejected. On rejection (or any evaluation failure such as division by
// zero) the base amount is returned along with the error. The evaluator
// never panics and is deliberately not a general-purpose interpreter.
func EvalFormula(formula string, base float64, date time.Time) (float64, error) {
	if strings.TrimSpace(formula) == "" {
		return base, fmt.Errorf("empty formula")
	}
	if len(formula) > maxFormulaLen {
		return base, fmt.Errorf("formula exceeds %d characters", maxFormulaLen)
	}

	tokens, err := scanFormula(formula)
	if err != nil {
		return base, err
	}

	p := &formulaParser{
		tokens: tokens,
		vars: map[string]float64{
			"base":  base,
			"month": float64(date.Month()),
			"year":  float64(date.Year()),
		},
	}
	value, err := p.parseExpr()
	if err != nil {
		return base, err
	}
	if p.pos != len(p.tokens) {
		return base, fmt.Errorf("unexpected trailing token %q", p.tokens[p.pos].text)
	}
	return value, nil
}

type formulaToken struct {
	kind byte // 'n' number, 'v' variable, 'o' operator, '(' or ')'
	text string
}

// scanFormula tokenizes the formula, enforcing the character allow-list as
// it goes.
func scanFormula(formula string) ([]formulaToken, error) {
	var tokens []formulaToken
	i := 0
	for i < len(formula) {
		c := formula[i]
		switch {
		case c == ' ':
			i++
		case c == '(' || c == ')':
			tokens = append(tokens, formulaToken{kind: c, text: string(c)})
			i++
		case c == '+' || c == '-' || c == '*' || c == '/':
			tokens = append(tokens, formulaToken{kind: 'o', text: string(c)})
			i++
		case c >= '0' && c <= '9' || c == '.':
			j := i
			for j < len(formula) && (formula[j] >= '0' && formula[j] <= '9' || formula[j] == '.') {
				j++
			}
			tokens = append(tokens, formulaToken{kind: 'n', text: formula[i:j]})
			i = j
		case c >= 'a' && c <= 'z':
			j := i
			for j < len(formula) && formula[j] >= 'a' && formula[j] <= 'z' {
				j++
			}
			word := formula[i:j]
			if word != "base" && word != "month" && word != "year" {
				return nil, fmt.Errorf("unknown identifier %q", word)
			}
			tokens = append(tokens, formulaToken{kind: 'v', text: word})
			i = j
		default:
			return nil, fmt.Errorf("disallowed character %q in formula", string(c))
		}
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty formula")
	}
	return tokens, nil
}

// formulaParser is a recursive-descent parser for the grammar
//
//	expr   = term   { ("+" | "-") term }
//	term   = factor { ("*" | "/") factor }
//	factor = number | variable | "(" expr ")" | ("+" | "-") factor
type formulaParser struct {
	tokens []formulaToken
	vars   map[string]float64
	pos    int
}

func (p *formulaParser) parseExpr() (float64, error) {
	left, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for p.pos < len(p.tokens) && p.tokens[p.pos].kind == 'o' &&
		(p.tokens[p.pos].text == "+" || p.tokens[p.pos].text == "-") {
		op := p.tokens[p.pos].text
		p.pos++
		right, err := p.parseTerm()
		if err != nil {
			return 0, err
		}
		if op == "+" {
			left += right
		} else {
			left -= right
		}
	}
	return left, nil
}

func (p *formulaParser) parseTerm() (float64, error) {
	left, err := p.parseFactor()
	if err != nil {
		return 0, err
	}
	for p.pos < len(p.tokens) && p.tokens[p.pos].kind == 'o' &&
		(p.tokens[p.pos].text == "*" || p.tokens[p.pos].text == "/") {
		op := p.tokens[p.pos].text
		p.pos++
		right, err := p.parseFactor()
		if err != nil {
			return 0, err
		}
		if op == "*" {
			left *= right
		} else {
			if right == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			left /= right
		}
	}
	return left, nil
}

func (p *formulaParser) parseFactor() (float64, error) {
	if p.pos >= len(p.tokens) {
		return 0, fmt.Errorf("unexpected end of formula")
	}
	tok := p.tokens[p.pos]
	switch tok.kind {
	case 'n':
		p.pos++
		value, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number %q", tok.text)
		}
		return value, nil
	case 'v':
		p.pos++
		return p.vars[tok.text], nil
	case '(':
		p.pos++
		value, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		if p.pos >= len(p.tokens) || p.tokens[p.pos].kind != ')' {
			return 0, fmt.Errorf("missing closing parenthesis")
		}
		p.pos++
		return value, nil
	case 'o':
		if tok.text == "+" || tok.text == "-" {
			p.pos++
			value, err := p.parseFactor()
			if err != nil {
				return 0, err
			}
			if tok.text == "-" {
				value = -value
			}
			return value, nil
		}
	}
	return 0, fmt.Errorf("unexpected token %q", tok.text)
}
