package pricing

import (
	"fmt"
	"regexp"
	"strings"
)

// ColorKey identifies a selectable product color. Hex keys are stored as
// upper-case "#RRGGBB" or "#RGB"; named colors are stored lower-case.
type ColorKey string

var (
	hexColorPattern   = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
	namedColorPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9 _-]*$`)
)

// ParseColorKey normalizes raw input into a ColorKey.
func ParseColorKey(raw string) (ColorKey, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", fmt.Errorf("color key is required")
	}
	if strings.HasPrefix(value, "#") {
		if !hexColorPattern.MatchString(value) {
			return "", fmt.Errorf("invalid hex color %q", raw)
		}
		return ColorKey(strings.ToUpper(value)), nil
	}
	if !namedColorPattern.MatchString(value) {
		return "", fmt.Errorf("invalid color name %q", raw)
	}
	return ColorKey(strings.ToLower(value)), nil
}

func (c ColorKey) String() string {
	return string(c)
}

// IsHex reports whether the key is a hex code rather than a color name.
func (c ColorKey) IsHex() bool {
	return strings.HasPrefix(string(c), "#")
}
