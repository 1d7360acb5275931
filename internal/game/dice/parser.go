package dice

import (
	"strconv"
	"strings"
)

// Expression is parsed dice notation: Count dice of Sides faces, the
// sum scaled by Multiplier (negative means divide by its magnitude) and then
// offset by Addend. Count == 0 is a pure constant equal to Addend.
//
// Invariant: Sides >= 1 whenever Count > 0.
type Expression struct {
	Count      int
	Sides      int
	Multiplier int
	Addend     int
}

// New returns count dice of the given sides with no modifiers.
func New(count, sides int) Expression {
	return Expression{Count: count, Sides: sides, Multiplier: 1}
}

// Constant returns an Expression that always rolls n.
func Constant(n int) Expression {
	return Expression{Multiplier: 1, Addend: n}
}

// Parse reads dice notation of the form
//
//	[count]d<sides>[x<mult> | /<div>][+<add> | -<add>]
//
// e.g. "d6", "3d6+2", "2d8x2-1", "4d6/2". The notation is matched against
// the start of s and anything after the longest valid prefix is ignored. If s
// does not start with dice notation it is read as a signed integer constant,
// and failing that as the constant zero. Parse never fails: table data is
// hand-authored and a bad cell must not stop a simulation.
func Parse(s string) Expression {
	if e, ok := scan(s); ok {
		return e
	}
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return Constant(n)
	}
	return Constant(0)
}

// scan matches dice notation at the start of s.
func scan(s string) (Expression, bool) {
	e := Expression{Count: 1, Multiplier: 1}
	i := 0
	if n, next, ok := positive(s, i); ok {
		e.Count = n
		i = next
	}
	if i >= len(s) || s[i] != 'd' {
		return Expression{}, false
	}
	sides, next, ok := positive(s, i+1)
	if !ok {
		return Expression{}, false
	}
	e.Sides = sides
	i = next

	if i < len(s) && (s[i] == 'x' || s[i] == '/') {
		if m, next, ok := positive(s, i+1); ok {
			if s[i] == 'x' {
				e.Multiplier = m
			} else {
				e.Multiplier = -m
			}
			i = next
		}
	}

	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		if a, _, ok := unsigned(s, i+1); ok {
			if s[i] == '+' {
				e.Addend = a
			} else {
				e.Addend = -a
			}
		}
	}
	return e, true
}

// positive reads a decimal integer without a leading zero starting at i.
func positive(s string, i int) (int, int, bool) {
	if i >= len(s) || s[i] < '1' || s[i] > '9' {
		return 0, i, false
	}
	return unsigned(s, i)
}

// unsigned reads one or more decimal digits starting at i. Values that do not
// fit in an int are reported as no match.
func unsigned(s string, i int) (int, int, bool) {
	j := i
	for j < len(s) && s[j] >= '0' && s[j] <= '9' {
		j++
	}
	if j == i {
		return 0, i, false
	}
	n, err := strconv.Atoi(s[i:j])
	if err != nil {
		return 0, i, false
	}
	return n, j, true
}

// String reconstructs dice notation. Constants format as the bare addend.
//
// Postcondition: Parse(e.String()) == e whenever e.Count > 0 and e.Multiplier != 0.
func (e Expression) String() string {
	if e.Count <= 0 {
		return strconv.Itoa(e.Addend)
	}
	var b strings.Builder
	b.WriteString(strconv.Itoa(e.Count))
	b.WriteByte('d')
	b.WriteString(strconv.Itoa(e.Sides))
	if e.Multiplier != 1 {
		if e.Multiplier >= 0 {
			b.WriteByte('x')
			b.WriteString(strconv.Itoa(e.Multiplier))
		} else {
			b.WriteByte('/')
			b.WriteString(strconv.Itoa(-e.Multiplier))
		}
	}
	if e.Addend != 0 {
		if e.Addend > 0 {
			b.WriteByte('+')
		}
		b.WriteString(strconv.Itoa(e.Addend))
	}
	return b.String()
}

// AddToAddend shifts the flat modifier by delta.
func (e *Expression) AddToAddend(delta int) {
	e.Addend += delta
}

// Min returns the smallest possible roll.
func (e Expression) Min() int {
	return adjust(e.Count, e.Multiplier, e.Addend)
}

// Max returns the largest possible roll.
func (e Expression) Max() int {
	return adjust(e.Count*e.Sides, e.Multiplier, e.Addend)
}

// Avg returns the midpoint of Min and Max, rounded down. This is the
// tabletop approximation, not the true expected value.
func (e Expression) Avg() int {
	return floorDiv(e.Min()+e.Max(), 2)
}
