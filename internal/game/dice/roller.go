package dice

// Roll evaluates an Expression using the given Source and returns a RollResult.
//
// Precondition: src must be non-nil; expr.Sides >= 1 when expr.Count > 0.
// Postcondition: len(result.Dice) == max(expr.Count, 0), each in [1, expr.Sides].
func Roll(expr Expression, src Source) RollResult {
	var rolled []int
	if expr.Count > 0 {
		rolled = make([]int, expr.Count)
		for i := range rolled {
			rolled[i] = D(src, expr.Sides)
		}
	}
	return RollResult{
		Expression: expr.String(),
		Dice:       rolled,
		Multiplier: expr.Multiplier,
		Addend:     expr.Addend,
	}
}

// RollExpr parses notation and rolls it using src in a single call.
func RollExpr(notation string, src Source) RollResult {
	return Roll(Parse(notation), src)
}

// Roll rolls the expression and returns the adjusted total.
func (e Expression) Roll(src Source) int {
	return Roll(e, src).Total()
}

// BoundRoll rolls the expression, returning at least floor.
func (e Expression) BoundRoll(src Source, floor int) int {
	return max(e.Roll(src), floor)
}
