package calculator

import (
	"math"
	"strconv"
)

// Kind distinguishes integer results from floating point results.
type Kind int

const (
	Int Kind = iota
	Float
)

// Value is the result of evaluating an expression. Integer arithmetic stays
// exact until it overflows int64, at which point it is promoted to float.
type Value struct {
	kind Kind
	i    int64
	f    float64
}

func IntValue(v int64) Value     { return Value{kind: Int, i: v} }
func FloatValue(v float64) Value { return Value{kind: Float, f: v} }

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsInt() bool  { return v.kind == Int }
func (v Value) Int64() int64 { return v.i }

// Float64 returns the value as a float64 regardless of its kind.
func (v Value) Float64() float64 {
	if v.kind == Int {
		return float64(v.i)
	}
	return v.f
}

func (v Value) isZero() bool {
	if v.kind == Int {
		return v.i == 0
	}
	return v.f == 0
}

// String renders the value the way a calculator user expects: integers
// without a fractional part, integral floats with a trailing ".0" and all
// other floats in their shortest round-trip form.
func (v Value) String() string {
	if v.kind == Int {
		return strconv.FormatInt(v.i, 10)
	}
	f := v.f
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	if f == math.Trunc(f) {
		return strconv.FormatFloat(f, 'f', 1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
