// Package calculator implements a restricted arithmetic evaluator. It accepts
// numbers, parentheses, unary signs and the binary operators + - * / // %,
// and nothing else: there is no identifier, call or attribute syntax, so the
// evaluated surface is limited to arithmetic by construction.
package calculator

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrParse is returned for malformed expressions.
	ErrParse = errors.New("invalid expression")
	// ErrDivisionByZero is returned when /, // or % has a zero divisor.
	ErrDivisionByZero = errors.New("division by zero")
)

// Evaluate parses and evaluates expr with standard precedence: unary signs
// bind tightest, then * / // %, then + -. Operators of equal precedence
// associate left to right.
func Evaluate(expr string) (Value, error) {
	tokens, err := tokenize(expr)
	if err != nil {
		return Value{}, err
	}
	p := &parser{tokens: tokens}
	if p.peek().kind == tokEOF {
		return Value{}, fmt.Errorf("%w: empty expression", ErrParse)
	}
	v, err := p.expr()
	if err != nil {
		return Value{}, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return Value{}, fmt.Errorf("%w: unexpected %s at position %d", ErrParse, t.kind, t.pos)
	}
	return v, nil
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expr() (Value, error) {
	left, err := p.term()
	if err != nil {
		return Value{}, err
	}
	for {
		op := p.peek().kind
		if op != tokPlus && op != tokMinus {
			return left, nil
		}
		p.next()
		right, err := p.term()
		if err != nil {
			return Value{}, err
		}
		if op == tokPlus {
			left = add(left, right)
		} else {
			left = sub(left, right)
		}
	}
}

func (p *parser) term() (Value, error) {
	left, err := p.unary()
	if err != nil {
		return Value{}, err
	}
	for {
		op := p.peek().kind
		if op != tokStar && op != tokSlash && op != tokFloorDiv && op != tokPercent {
			return left, nil
		}
		p.next()
		right, err := p.unary()
		if err != nil {
			return Value{}, err
		}
		switch op {
		case tokStar:
			left = mul(left, right)
		case tokSlash:
			left, err = div(left, right)
		case tokFloorDiv:
			left, err = floorDiv(left, right)
		case tokPercent:
			left, err = mod(left, right)
		}
		if err != nil {
			return Value{}, err
		}
	}
}

func (p *parser) unary() (Value, error) {
	switch p.peek().kind {
	case tokPlus:
		p.next()
		return p.unary()
	case tokMinus:
		p.next()
		v, err := p.unary()
		if err != nil {
			return Value{}, err
		}
		return neg(v), nil
	}
	return p.primary()
}

func (p *parser) primary() (Value, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return t.value, nil
	case tokLParen:
		v, err := p.expr()
		if err != nil {
			return Value{}, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return Value{}, fmt.Errorf("%w: expected ')' at position %d, found %s", ErrParse, closing.pos, closing.kind)
		}
		return v, nil
	default:
		return Value{}, fmt.Errorf("%w: unexpected %s at position %d", ErrParse, t.kind, t.pos)
	}
}

func neg(v Value) Value {
	if v.IsInt() {
		if v.i == math.MinInt64 {
			return FloatValue(-float64(v.i))
		}
		return IntValue(-v.i)
	}
	return FloatValue(-v.f)
}

func add(a, b Value) Value {
	if a.IsInt() && b.IsInt() {
		r := a.i + b.i
		if (a.i > 0 && b.i > 0 && r < 0) || (a.i < 0 && b.i < 0 && r >= 0) {
			return FloatValue(float64(a.i) + float64(b.i))
		}
		return IntValue(r)
	}
	return FloatValue(a.Float64() + b.Float64())
}

func sub(a, b Value) Value {
	if a.IsInt() && b.IsInt() {
		r := a.i - b.i
		if (a.i >= 0 && b.i < 0 && r < 0) || (a.i < 0 && b.i > 0 && r >= 0) {
			return FloatValue(float64(a.i) - float64(b.i))
		}
		return IntValue(r)
	}
	return FloatValue(a.Float64() - b.Float64())
}

func mul(a, b Value) Value {
	if a.IsInt() && b.IsInt() {
		if a.i == 0 || b.i == 0 {
			return IntValue(0)
		}
		r := a.i * b.i
		if r/b.i != a.i || (a.i == -1 && b.i == math.MinInt64) || (b.i == -1 && a.i == math.MinInt64) {
			return FloatValue(float64(a.i) * float64(b.i))
		}
		return IntValue(r)
	}
	return FloatValue(a.Float64() * b.Float64())
}

// div is true division: the result is always a float.
func div(a, b Value) (Value, error) {
	if b.isZero() {
		return Value{}, ErrDivisionByZero
	}
	return FloatValue(a.Float64() / b.Float64()), nil
}

// floorDiv rounds the quotient toward negative infinity.
func floorDiv(a, b Value) (Value, error) {
	if b.isZero() {
		return Value{}, ErrDivisionByZero
	}
	if a.IsInt() && b.IsInt() {
		if a.i == math.MinInt64 && b.i == -1 {
			return FloatValue(-float64(a.i)), nil
		}
		q := a.i / b.i
		if a.i%b.i != 0 && (a.i < 0) != (b.i < 0) {
			q--
		}
		return IntValue(q), nil
	}
	return FloatValue(floorDivFloat(a.Float64(), b.Float64())), nil
}

// floorDivFloat derives the quotient from the exact remainder instead of
// flooring a rounded a/b, so 1 // 0.1 is 9.0 and not 10.0.
func floorDivFloat(a, b float64) float64 {
	m := math.Mod(a, b)
	div := (a - m) / b
	if m != 0 && (b < 0) != (m < 0) {
		div--
	}
	if div == 0 {
		return math.Copysign(0, a/b)
	}
	fd := math.Floor(div)
	if div-fd > 0.5 {
		fd++
	}
	return fd
}

// mod returns a remainder carrying the sign of the divisor.
func mod(a, b Value) (Value, error) {
	if b.isZero() {
		return Value{}, ErrDivisionByZero
	}
	if a.IsInt() && b.IsInt() {
		if b.i == -1 {
			return IntValue(0), nil
		}
		r := a.i % b.i
		if r != 0 && (r < 0) != (b.i < 0) {
			r += b.i
		}
		return IntValue(r), nil
	}
	x, y := a.Float64(), b.Float64()
	r := math.Mod(x, y)
	if r != 0 && (r < 0) != (y < 0) {
		r += y
	}
	return FloatValue(r), nil
}
