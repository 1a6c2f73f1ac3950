package tools

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// evalExpression evaluates basic arithmetic: + - * / ( ), unary minus, the
// constant pi, and the functions sqrt and abs. Recursive descent, no
// dependencies on the host language's eval.
func evalExpression(input string) (float64, error) {
	p := &exprParser{src: strings.TrimSpace(input)}
	val, err := p.parseSum()
	if err != nil {
		return 0, err
	}
	p.skipSpaces()
	if p.pos != len(p.src) {
		return 0, fmt.Errorf("calculator: unexpected %q at position %d", p.src[p.pos], p.pos)
	}
	return val, nil
}

type exprParser struct {
	src string
	pos int
}

func (p *exprParser) skipSpaces() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *exprParser) peek() byte {
	if p.pos < len(p.src) {
		return p.src[p.pos]
	}
	return 0
}

func (p *exprParser) parseSum() (float64, error) {
	left, err := p.parseProduct()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpaces()
		switch p.peek() {
		case '+':
			p.pos++
			right, err := p.parseProduct()
			if err != nil {
				return 0, err
			}
			left += right
		case '-':
			p.pos++
			right, err := p.parseProduct()
			if err != nil {
				return 0, err
			}
			left -= right
		default:
			return left, nil
		}
	}
}

func (p *exprParser) parseProduct() (float64, error) {
	left, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for {
		p.skipSpaces()
		switch p.peek() {
		case '*':
			p.pos++
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			left *= right
		case '/':
			p.pos++
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			if right == 0 {
				return 0, fmt.Errorf("calculator: division by zero")
			}
			left /= right
		default:
			return left, nil
		}
	}
}

func (p *exprParser) parseUnary() (float64, error) {
	p.skipSpaces()
	if p.peek() == '-' {
		p.pos++
		val, err := p.parseUnary()
		return -val, err
	}
	return p.parseAtom()
}

func (p *exprParser) parseAtom() (float64, error) {
	p.skipSpaces()
	if p.pos >= len(p.src) {
		return 0, fmt.Errorf("calculator: unexpected end of expression")
	}

	c := p.src[p.pos]
	switch {
	case c == '(':
		p.pos++
		val, err := p.parseSum()
		if err != nil {
			return 0, err
		}
		p.skipSpaces()
		if p.peek() != ')' {
			return 0, fmt.Errorf("calculator: missing closing parenthesis")
		}
		p.pos++
		return val, nil

	case unicode.IsDigit(rune(c)) || c == '.':
		return p.parseNumber()

	case unicode.IsLetter(rune(c)):
		return p.parseIdentifier()
	}
	return 0, fmt.Errorf("calculator: unexpected %q at position %d", c, p.pos)
}

func (p *exprParser) parseNumber() (float64, error) {
	start := p.pos
	for p.pos < len(p.src) && (unicode.IsDigit(rune(p.src[p.pos])) || p.src[p.pos] == '.') {
		p.pos++
	}
	val, err := strconv.ParseFloat(p.src[start:p.pos], 64)
	if err != nil {
		return 0, fmt.Errorf("calculator: bad number %q", p.src[start:p.pos])
	}
	return val, nil
}

func (p *exprParser) parseIdentifier() (float64, error) {
	start := p.pos
	for p.pos < len(p.src) && unicode.IsLetter(rune(p.src[p.pos])) {
		p.pos++
	}
	name := strings.ToLower(p.src[start:p.pos])

	if name == "pi" {
		return math.Pi, nil
	}

	p.skipSpaces()
	if p.peek() != '(' {
		return 0, fmt.Errorf("calculator: unknown identifier %q", name)
	}
	p.pos++
	arg, err := p.parseSum()
	if err != nil {
		return 0, err
	}
	p.skipSpaces()
	if p.peek() != ')' {
		return 0, fmt.Errorf("calculator: missing closing parenthesis after %s", name)
	}
	p.pos++

	switch name {
	case "sqrt":
		if arg < 0 {
			return 0, fmt.Errorf("calculator: sqrt of negative number")
		}
		return math.Sqrt(arg), nil
	case "abs":
		return math.Abs(arg), nil
	}
	return 0, fmt.Errorf("calculator: unknown function %q", name)
}
