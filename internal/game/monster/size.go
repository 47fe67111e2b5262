package monster

import (
	"fmt"
	"strings"
)

// SizeCategory is the sprite size class of a monster. It carries no geometry
// in the core; it is validated so content errors surface at setup.
type SizeCategory int

const (
	SizeUnknown SizeCategory = iota
	SizeSmall
	SizeMedium
	SizeLarge
)

// String returns the content name of the size.
func (s SizeCategory) String() string {
	switch s {
	case SizeSmall:
		return "small"
	case SizeMedium:
		return "medium"
	case SizeLarge:
		return "large"
	default:
		return "unknown"
	}
}

// ParseSize maps a content name to a SizeCategory.
//
// Postcondition: Returns a valid SizeCategory or an error wrapping ErrConfiguration.
func ParseSize(s string) (SizeCategory, error) {
	switch strings.ToLower(s) {
	case "small":
		return SizeSmall, nil
	case "medium":
		return SizeMedium, nil
	case "large":
		return SizeLarge, nil
	default:
		return SizeUnknown, fmt.Errorf("size must be one of [small, medium, large], got %q: %w", s, ErrConfiguration)
	}
}
