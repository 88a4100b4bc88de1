// Package formula evaluates a narrow arithmetic sublanguage over record fields.
//
// A formula is interpolated against the record first, then evaluated only if
// the interpolated text contains nothing but digits, whitespace and the
// characters + - * / ( ) . -- anything else is returned verbatim as a string.
// Expressions are parsed with a fixed-grammar recursive-descent parser; no
// code is ever constructed from input text.
package formula

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/fieldkit/cascade/pkg/template"
)

var arithmeticOnly = regexp.MustCompile(`^[0-9+\-*/(). \t]+$`)

// Evaluate interpolates expr against the record and, when the result is a
// pure arithmetic expression, returns its numeric value as float64. In every
// other case (letters left over after interpolation, parse errors, division
// by zero) the interpolated string is returned unchanged.
func Evaluate(expr string, record map[string]any) any {
	interpolated := strings.TrimSpace(template.Interpolate(expr, record))
	if interpolated == "" || !arithmeticOnly.MatchString(interpolated) {
		return interpolated
	}

	value, err := parse(interpolated)
	if err != nil {
		return interpolated
	}

	return value
}

// parse runs the grammar
//
//	expression := term (('+'|'-') term)*
//	term       := factor (('*'|'/') factor)*
//	factor     := number | '(' expression ')' | '-' factor
//
// over the whitelisted input.
func parse(input string) (float64, error) {
	p := &parser{input: input}

	value, err := p.expression()
	if err != nil {
		return 0, err
	}

	p.skipSpaces()

	if p.pos != len(p.input) {
		return 0, fmt.Errorf("unexpected character at position %d", p.pos)
	}

	return value, nil
}

type parser struct {
	input string
	pos   int
}

func (p *parser) expression() (float64, error) {
	value, err := p.term()
	if err != nil {
		return 0, err
	}

	for {
		p.skipSpaces()

		switch p.peek() {
		case '+':
			p.pos++

			right, err := p.term()
			if err != nil {
				return 0, err
			}

			value += right
		case '-':
			p.pos++

			right, err := p.term()
			if err != nil {
				return 0, err
			}

			value -= right
		default:
			return value, nil
		}
	}
}

func (p *parser) term() (float64, error) {
	value, err := p.factor()
	if err != nil {
		return 0, err
	}

	for {
		p.skipSpaces()

		switch p.peek() {
		case '*':
			p.pos++

			right, err := p.factor()
			if err != nil {
				return 0, err
			}

			value *= right
		case '/':
			p.pos++

			right, err := p.factor()
			if err != nil {
				return 0, err
			}

			if right == 0 {
				return 0, fmt.Errorf("division by zero")
			}

			value /= right
		default:
			return value, nil
		}
	}
}

func (p *parser) factor() (float64, error) {
	p.skipSpaces()

	switch {
	case p.peek() == '-':
		p.pos++

		value, err := p.factor()
		if err != nil {
			return 0, err
		}

		return -value, nil
	case p.peek() == '(':
		p.pos++

		value, err := p.expression()
		if err != nil {
			return 0, err
		}

		p.skipSpaces()

		if p.peek() != ')' {
			return 0, fmt.Errorf("missing closing parenthesis at position %d", p.pos)
		}

		p.pos++

		return value, nil
	default:
		return p.number()
	}
}

func (p *parser) number() (float64, error) {
	start := p.pos

	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if (c < '0' || c > '9') && c != '.' {
			break
		}

		p.pos++
	}

	if start == p.pos {
		return 0, fmt.Errorf("expected number at position %d", start)
	}

	value, err := strconv.ParseFloat(p.input[start:p.pos], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", p.input[start:p.pos], err)
	}

	return value, nil
}

func (p *parser) peek() byte {
	if p.pos >= len(p.input) {
		return 0
	}

	return p.input[p.pos]
}

func (p *parser) skipSpaces() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}
