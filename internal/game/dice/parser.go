package dice

import (
	"fmt"
	"strconv"
	"strings"
)

// Limits on a single expression.
const (
	MaxCount = 100
	MaxSides = 1000
)

// Expression is a parsed dice expression.
//
// Invariant: 1 <= Count <= MaxCount, 2 <= Sides <= MaxSides.
type Expression struct {
	Raw      string
	Count    int
	Sides    int
	Modifier int
}

// Parse parses "d20", "2d6", "2d6+3" or "4d8-2".
//
// Postcondition: Returns a valid Expression or a descriptive error.
func Parse(expr string) (Expression, error) {
	s := strings.ToLower(strings.TrimSpace(expr))
	if s == "" {
		return Expression{}, fmt.Errorf("dice: empty expression")
	}
	countStr, rest, ok := strings.Cut(s, "d")
	if !ok {
		return Expression{}, fmt.Errorf("dice: missing 'd' in expression %q", expr)
	}

	count := 1
	if countStr != "" {
		n, err := strconv.Atoi(countStr)
		if err != nil {
			return Expression{}, fmt.Errorf("dice: invalid die count in %q: %w", expr, err)
		}
		if n < 1 || n > MaxCount {
			return Expression{}, fmt.Errorf("dice: die count in %q must be in [1, %d]", expr, MaxCount)
		}
		count = n
	}

	sidesStr, modStr := rest, ""
	if i := strings.IndexAny(rest, "+-"); i > 0 {
		sidesStr, modStr = rest[:i], rest[i:]
	}
	sides, err := strconv.Atoi(sidesStr)
	if err != nil {
		return Expression{}, fmt.Errorf("dice: invalid die sides in %q: %w", expr, err)
	}
	if sides < 2 || sides > MaxSides {
		return Expression{}, fmt.Errorf("dice: die sides in %q must be in [2, %d]", expr, MaxSides)
	}

	modifier := 0
	if modStr != "" {
		modifier, err = strconv.Atoi(modStr)
		if err != nil {
			return Expression{}, fmt.Errorf("dice: invalid modifier in %q: %w", expr, err)
		}
	}

	return Expression{Raw: expr, Count: count, Sides: sides, Modifier: modifier}, nil
}

// Min returns the smallest possible total.
func (e Expression) Min() int { return e.Count + e.Modifier }

// Max returns the largest possible total.
func (e Expression) Max() int { return e.Count*e.Sides + e.Modifier }
