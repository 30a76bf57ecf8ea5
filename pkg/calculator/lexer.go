package calculator

import (
	"fmt"
	"strconv"
	"strings"
)

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokFloorDiv
	tokPercent
	tokLParen
	tokRParen
	tokEOF
)

func (k tokenKind) String() string {
	switch k {
	case tokNumber:
		return "number"
	case tokPlus:
		return "'+'"
	case tokMinus:
		return "'-'"
	case tokStar:
		return "'*'"
	case tokSlash:
		return "'/'"
	case tokFloorDiv:
		return "'//'"
	case tokPercent:
		return "'%'"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	default:
		return "end of input"
	}
}

type token struct {
	kind  tokenKind
	value Value
	pos   int
}

// tokenize splits an expression into tokens. Only digits, the decimal point,
// the operators + - * / // % and parentheses are recognised.
func tokenize(expr string) ([]token, error) {
	var tokens []token
	for i := 0; i < len(expr); {
		c := expr[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c >= '0' && c <= '9' || c == '.':
			start := i
			dots := 0
			for i < len(expr) && (expr[i] >= '0' && expr[i] <= '9' || expr[i] == '.') {
				if expr[i] == '.' {
					dots++
				}
				i++
			}
			lit := expr[start:i]
			v, err := parseNumber(lit, dots)
			if err != nil {
				return nil, fmt.Errorf("%w: malformed number %q at position %d", ErrParse, lit, start)
			}
			tokens = append(tokens, token{kind: tokNumber, value: v, pos: start})
		case c == '+':
			tokens = append(tokens, token{kind: tokPlus, pos: i})
			i++
		case c == '-':
			tokens = append(tokens, token{kind: tokMinus, pos: i})
			i++
		case c == '*':
			tokens = append(tokens, token{kind: tokStar, pos: i})
			i++
		case c == '/':
			if i+1 < len(expr) && expr[i+1] == '/' {
				tokens = append(tokens, token{kind: tokFloorDiv, pos: i})
				i += 2
				continue
			}
			tokens = append(tokens, token{kind: tokSlash, pos: i})
			i++
		case c == '%':
			tokens = append(tokens, token{kind: tokPercent, pos: i})
			i++
		case c == '(':
			tokens = append(tokens, token{kind: tokLParen, pos: i})
			i++
		case c == ')':
			tokens = append(tokens, token{kind: tokRParen, pos: i})
			i++
		default:
			return nil, fmt.Errorf("%w: unexpected character %q at position %d", ErrParse, c, i)
		}
	}
	tokens = append(tokens, token{kind: tokEOF, pos: len(expr)})
	return tokens, nil
}

func parseNumber(lit string, dots int) (Value, error) {
	if dots > 1 || strings.Trim(lit, ".") == "" {
		return Value{}, strconv.ErrSyntax
	}
	if dots == 0 {
		i, err := strconv.ParseInt(lit, 10, 64)
		if err == nil {
			return IntValue(i), nil
		}
		// integer literals beyond int64 still evaluate, as floats
		f, ferr := strconv.ParseFloat(lit, 64)
		if ferr != nil {
			return Value{}, ferr
		}
		return FloatValue(f), nil
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return Value{}, err
	}
	return FloatValue(f), nil
}
