package dice

import "go.uber.org/zap"

// Roll evaluates expr with src.
//
// Precondition: expr came from Parse; src is non-nil.
// Postcondition: len(result.Dice) == expr.Count and every die is in [1, Sides].
func Roll(expr Expression, src Source) RollResult {
	rolled := make([]int, expr.Count)
	for i := range rolled {
		rolled[i] = src.Intn(expr.Sides) + 1
	}
	return RollResult{Expression: expr.Raw, Dice: rolled, Modifier: expr.Modifier}
}

// Roller rolls expressions and logs every roll at debug level.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewRoller creates a Roller.
//
// Precondition: src and logger must be non-nil.
func NewRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Source returns the roller's randomness provider.
func (r *Roller) Source() Source { return r.src }

// RollExpr parses and rolls expr.
//
// Postcondition: Returns the logged RollResult or a parse error.
func (r *Roller) RollExpr(expr string) (RollResult, error) {
	e, err := Parse(expr)
	if err != nil {
		return RollResult{}, err
	}
	result := Roll(e, r.src)
	r.logger.Debug("dice roll",
		zap.String("expression", result.Expression),
		zap.Ints("dice", result.Dice),
		zap.Int("modifier", result.Modifier),
		zap.Int("total", result.Total()),
	)
	return result, nil
}
