package dice

import "go.uber.org/zap"

// Roller wraps a Source and logger to provide logged dice rolling.
// All rolls are logged at debug level with expression, dice values and total.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that rolls with src and logs each roll to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Source returns the underlying randomness source.
func (r *Roller) Source() Source {
	return r.src
}

// Roll evaluates expr and logs the result at debug level.
func (r *Roller) Roll(expr Expression) RollResult {
	result := Roll(expr, r.src)
	r.logger.Debug("dice roll",
		zap.String("expression", result.Expression),
		zap.Ints("dice", result.Dice),
		zap.Int("total", result.Total()),
	)
	return result
}

// RollExpr parses notation and rolls it, logging the result.
func (r *Roller) RollExpr(notation string) RollResult {
	return r.Roll(Parse(notation))
}

// D rolls a single die of the given sides and logs it.
//
// Precondition: sides >= 1.
func (r *Roller) D(sides int) int {
	v := D(r.src, sides)
	r.logger.Debug("die roll", zap.Int("sides", sides), zap.Int("result", v))
	return v
}
