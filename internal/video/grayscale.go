package video

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseGrayscale canonicalizes the grayscale flag from its transport form.
// Form transports deliver it as a string; this is the single place the
// literal is interpreted, regardless of encoding. An empty value means
// false. Accepted literals are those of strconv.ParseBool in any case:
// "true"/"false", "t"/"f", "1"/"0".
func ParseGrayscale(raw string) (bool, error) {
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(strings.ToLower(raw))
	if err != nil {
		return false, fmt.Errorf("%w: grayscale must be a boolean, got %q", ErrInvalidParameters, raw)
	}
	return v, nil
}
