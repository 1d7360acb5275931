// Package dice provides the randomness abstraction, dice-notation parsing and
// roll evaluation used by the encounter tables.
package dice

import "fmt"

// RollResult holds the full audit trail for a single dice roll evaluation.
//
// Postcondition: Total() == adjust(sum(Dice)) under Multiplier, plus Addend.
type RollResult struct {
	Expression string // canonical expression string, e.g. "2d6+3"
	Dice       []int  // individual die results before adjustment
	Multiplier int    // positive multiplies, negative divides
	Addend     int    // flat modifier (may be negative)
}

// Sum returns the raw sum of the dice before any adjustment.
func (r RollResult) Sum() int {
	sum := 0
	for _, d := range r.Dice {
		sum += d
	}
	return sum
}

// Total returns the adjusted roll.
func (r RollResult) Total() int {
	return adjust(r.Sum(), r.Multiplier, r.Addend)
}

// String returns a human-readable audit string in the format:
//
//	"2d6+3 → [4 5] = 12"
//
// Precondition: r.Expression is non-empty.
func (r RollResult) String() string {
	if r.Expression == "" {
		panic("dice: RollResult.String() precondition violated: Expression must be non-empty")
	}
	return fmt.Sprintf("%s → %v = %d", r.Expression, r.Dice, r.Total())
}

// Source is the randomness provider for dice rolls and table draws.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// D rolls one die with the given number of sides.
//
// Precondition: sides >= 1.
// Postcondition: return value is in [1, sides].
func D(src Source, sides int) int {
	return src.Intn(sides) + 1
}

// adjust applies the multiplier and addend to a raw dice sum. A negative
// multiplier divides, rounding up via floorDiv(sum-1, m)+1 so a zero sum
// stays zero.
func adjust(sum, multiplier, addend int) int {
	if multiplier >= 0 {
		sum *= multiplier
	} else {
		sum = floorDiv(sum-1, -multiplier) + 1
	}
	return sum + addend
}

// floorDiv divides rounding toward negative infinity.
//
// Precondition: d > 0.
func floorDiv(n, d int) int {
	q := n / d
	if n%d != 0 && n < 0 {
		q--
	}
	return q
}
