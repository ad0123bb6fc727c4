// Package money provides a fixed-point amount type for currency values.
// Amounts are stored as int64 minor units (cents) so that totals computed
// independently by the order and payment services never drift, while the
// JSON wire format remains a plain decimal number.
package money

import (
	"fmt"
	"strconv"
	"strings"
)

// Cents is a monetary amount in minor units (1/100 of the major unit).
type Cents int64

// FromFloat converts a float amount in major units to Cents, rounding
// half away from zero.
func FromFloat(f float64) Cents {
	if f < 0 {
		return -FromFloat(-f)
	}
	return Cents(f*100 + 0.5)
}

// Float returns the amount in major units. Only for display and
// interoperability; arithmetic should stay in Cents.
func (c Cents) Float() float64 {
	return float64(c) / 100
}

// Mul multiplies the amount by an integer quantity.
func (c Cents) Mul(n int) Cents {
	return c * Cents(n)
}

// String formats the amount as a decimal with two fractional digits,
// e.g. "99.99".
func (c Cents) String() string {
	v := int64(c)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// Parse converts a decimal string such as "20", "20.5" or "99.99" to
// Cents. A third fractional digit rounds half away from zero.
func Parse(s string) (Cents, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	// Scientific notation shows up from some JSON encoders; fall back to
	// float parsing for it.
	if strings.ContainsAny(s, "eE") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid amount %q: %w", s, err)
		}
		return FromFloat(f), nil
	}

	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	intPart, fracPart, _ := strings.Cut(s, ".")
	if intPart == "" {
		intPart = "0"
	}
	// ParseUint so a stray second sign is rejected rather than absorbed.
	major, err := strconv.ParseUint(intPart, 10, 63)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}

	var minor uint64
	if fracPart != "" {
		// Keep three digits: two for cents, one for rounding.
		digits := fracPart
		if len(digits) > 3 {
			digits = digits[:3]
		}
		for len(digits) < 3 {
			digits += "0"
		}
		frac, err := strconv.ParseUint(digits, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid amount %q: %w", s, err)
		}
		minor = frac / 10
		if frac%10 >= 5 {
			minor++
		}
	}

	total := int64(major*100 + minor)
	if neg {
		total = -total
	}
	return Cents(total), nil
}

// MarshalJSON emits the amount as a JSON number in major units.
func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalJSON accepts a JSON number (or numeric string) in major units.
func (c *Cents) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" {
		return nil
	}
	v, err := Parse(s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}
