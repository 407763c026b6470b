// Package money implements the fixed-point decimal arithmetic this
// system uses for every monetary quantity: a scaled integer
// representation at scale 4 with banker's (round-half-to-even)
// rounding at every quantization boundary.
package money

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Scale is the number of fractional digits every Amount carries.
// Fixed at build time; never configurable.
const Scale = 4

const scaleFactor = 10000

// Amount is a scale-4 fixed-point decimal backed by an int64 of
// ten-thousandths. Arithmetic that stays within scale 4 (Add, Sub,
// Negate) is exact integer arithmetic; arithmetic that crosses scale
// (Mul, Ratio) quantizes the result with banker's rounding.
type Amount struct {
	scaled int64
}

// Zero is the additive identity.
var Zero = Amount{}

// FromScaled builds an Amount directly from its ten-thousandths
// representation, bypassing parsing/rounding.
func FromScaled(scaled int64) Amount {
	return Amount{scaled: scaled}
}

// Scaled returns the underlying ten-thousandths integer.
func (a Amount) Scaled() int64 {
	return a.scaled
}

// Parse parses a decimal string (e.g. "10.0000", "-250", "0.00005")
// into an Amount, quantizing to scale 4 with banker's rounding. A
// string with more than 4 fractional digits is rounded, not rejected
// — the caller is responsible for rejecting unexpected precision if
// that matters at a validation boundary.
func Parse(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, fmt.Errorf("money: empty amount")
	}

	negative := false
	switch s[0] {
	case '-':
		negative = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	if s == "" {
		return Amount{}, fmt.Errorf("money: invalid amount")
	}

	intPart := s
	fracPart := ""
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		intPart = s[:idx]
		fracPart = s[idx+1:]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart {
		if r < '0' || r > '9' {
			return Amount{}, fmt.Errorf("money: invalid amount %q", s)
		}
	}
	for _, r := range fracPart {
		if r < '0' || r > '9' {
			return Amount{}, fmt.Errorf("money: invalid amount %q", s)
		}
	}

	intVal, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return Amount{}, fmt.Errorf("money: invalid amount %q: %w", s, err)
	}

	kept := fracPart
	rest := ""
	if len(kept) > Scale {
		rest = kept[Scale:]
		kept = kept[:Scale]
	}
	for len(kept) < Scale {
		kept += "0"
	}
	fracVal, err := strconv.ParseInt(kept, 10, 64)
	if err != nil {
		return Amount{}, fmt.Errorf("money: invalid amount %q: %w", s, err)
	}

	scaled := intVal*scaleFactor + fracVal
	scaled = applyRoundHalfEven(scaled, rest)

	if negative {
		scaled = -scaled
	}
	return Amount{scaled: scaled}, nil
}

// applyRoundHalfEven rounds scaled (already truncated to scale 4) up
// by one unit according to the discarded decimal digits in rest, per
// round-half-to-even: exact halves round to the nearest even kept
// digit, anything else rounds to nearest.
func applyRoundHalfEven(scaled int64, rest string) int64 {
	if rest == "" {
		return scaled
	}
	first := rest[0]
	restNonZero := false
	for i := 1; i < len(rest); i++ {
		if rest[i] != '0' {
			restNonZero = true
			break
		}
	}
	switch {
	case first < '5':
		return scaled
	case first > '5' || restNonZero:
		return scaled + 1
	default: // exactly half
		if scaled%2 != 0 {
			return scaled + 1
		}
		return scaled
	}
}

// MustParse parses s and panics on error. Intended for tests and
// compile-time-known constants only.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// String renders the amount as a fixed 4-decimal string, e.g. "-10.0000".
func (a Amount) String() string {
	neg := a.scaled < 0
	v := a.scaled
	if neg {
		v = -v
	}
	intPart := v / scaleFactor
	fracPart := v % scaleFactor
	sign := ""
	if neg {
		sign = "-"
	}
	return fmt.Sprintf("%s%d.%04d", sign, intPart, fracPart)
}

// MarshalJSON renders the amount as a quoted canonical decimal string,
// matching this system's convention of formatting Money as a string
// wherever it crosses a serialization boundary (never a bare float).
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

// UnmarshalJSON accepts either a quoted decimal string or a bare JSON
// number; a bare float is not rejected here — reject floats explicitly
// at validation boundaries that need to enforce the "no float input"
// deliberate non-goal, since JSON itself cannot distinguish
// "123" the integer from "123" the decimal at this layer.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	s = strings.Trim(s, `"`)
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Add returns a+b. Exact integer arithmetic; cannot itself introduce
// rounding error since both operands already share scale 4.
func Add(a, b Amount) Amount {
	return Amount{scaled: a.scaled + b.scaled}
}

// Sub returns a-b.
func Sub(a, b Amount) Amount {
	return Amount{scaled: a.scaled - b.scaled}
}

// Sum adds a slice of Amounts using exact integer arithmetic — the
// primitive the balanced-posting invariant is checked with.
func Sum(amounts []Amount) Amount {
	var total int64
	for _, a := range amounts {
		total += a.scaled
	}
	return Amount{scaled: total}
}

// Negate returns -a.
func Negate(a Amount) Amount {
	return Amount{scaled: -a.scaled}
}

// Abs returns the absolute value of a.
func Abs(a Amount) Amount {
	if a.scaled < 0 {
		return Amount{scaled: -a.scaled}
	}
	return a
}

// Float64Approx returns a is a float64 approximation. It exists only
// for boundaries that are inherently approximate (an optional CEL
// policy predicate's numeric comparisons) — never use it for a
// balance, threshold, or hash computation, which must stay exact.
func (a Amount) Float64Approx() (float64, bool) {
	return float64(a.scaled) / float64(scaleFactor), true
}

// IsZero reports whether a is exactly zero.
func (a Amount) IsZero() bool { return a.scaled == 0 }

// IsNegative reports whether a is strictly negative.
func (a Amount) IsNegative() bool { return a.scaled < 0 }

// IsPositive reports whether a is strictly positive.
func (a Amount) IsPositive() bool { return a.scaled > 0 }

// Cmp returns -1, 0, or 1 as a is less than, equal to, or greater
// than b.
func Cmp(a, b Amount) int {
	switch {
	case a.scaled < b.scaled:
		return -1
	case a.scaled > b.scaled:
		return 1
	default:
		return 0
	}
}

// Min returns the lesser of a and b.
func Min(a, b Amount) Amount {
	if Cmp(a, b) <= 0 {
		return a
	}
	return b
}

// Mul returns a*b quantized to scale 4 with banker's rounding. Both
// operands are scale-4 fixed point, so the raw product carries 8
// fractional digits of precision before quantization; the
// intermediate product is computed in arbitrary precision to avoid
// int64 overflow on large balances.
func Mul(a, b Amount) Amount {
	return quantizeBigProduct(big.NewInt(a.scaled), big.NewInt(b.scaled), scaleFactor)
}

// MulPercent returns a * (pct/100), where pct is itself a scale-4
// Amount expressing a percentage (e.g. 5.0000 means 5%). Used for
// interest/APR style calculations. Quantized to scale 4 with banker's
// rounding.
func MulPercent(a, pct Amount) Amount {
	denom := big.NewInt(scaleFactor * 100)
	return quantizeBigProduct(big.NewInt(a.scaled), big.NewInt(pct.scaled), denom)
}

func quantizeBigProduct(x, y, denom *big.Int) Amount {
	product := new(big.Int).Mul(x, y)
	return quantizeBigRatio(product, denom)
}

// Ratio returns numerator/denominator quantized to scale 4 with
// banker's rounding. The caller must handle denominator == 0
// separately — this system's reserve-ratio computation defines its
// own zero-denominator convention (the posture engine) rather
// than letting this helper decide it.
func Ratio(numerator, denominator Amount) (Amount, error) {
	if denominator.scaled == 0 {
		return Amount{}, fmt.Errorf("money: division by zero")
	}
	num := new(big.Int).Mul(big.NewInt(numerator.scaled), big.NewInt(scaleFactor))
	return quantizeBigRatio(num, big.NewInt(denominator.scaled)), nil
}

// quantizeBigRatio computes round_half_even(num/denom) as an int64
// scale-4 Amount, where num and denom already encode the extra scale
// factor needed so the quotient lands at scale 4.
func quantizeBigRatio(num, denom *big.Int) Amount {
	negative := (num.Sign() < 0) != (denom.Sign() < 0)
	n := new(big.Int).Abs(num)
	d := new(big.Int).Abs(denom)

	quotient, remainder := new(big.Int).QuoRem(n, d, new(big.Int))
	twiceRemainder := new(big.Int).Mul(remainder, big.NewInt(2))

	cmp := twiceRemainder.Cmp(d)
	roundUp := false
	switch {
	case cmp > 0:
		roundUp = true
	case cmp == 0:
		roundUp = quotient.Bit(0) == 1 // round to even
	}
	if roundUp {
		quotient.Add(quotient, big.NewInt(1))
	}

	result := quotient.Int64()
	if negative {
		result = -result
	}
	return Amount{scaled: result}
}
