package query

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseTristate reads a yes/no filter. Empty and "any" are Unset.
func ParseTristate(s string) (Tristate, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any":
		return Unset, nil
	case "true", "yes", "t", "1":
		return Yes, nil
	case "false", "no", "f", "0":
		return No, nil
	default:
		return Unset, fmt.Errorf("expected true, false or any, got %q", s)
	}
}

// String returns "true", "false" or "".
func (t Tristate) String() string {
	switch t {
	case Yes:
		return "true"
	case No:
		return "false"
	default:
		return ""
	}
}

var ratingNames = map[string]Rating{
	"not_rated": NotRated,
	"general":   General,
	"teen":      Teen,
	"mature":    Mature,
	"explicit":  Explicit,
}

// ParseRating reads a rating by name (general, teen, mature, explicit,
// not_rated) or catalog id. Empty means any rating.
func ParseRating(s string) (Rating, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "any" {
		return 0, nil
	}
	if r, ok := ratingNames[strings.ReplaceAll(s, "-", "_")]; ok {
		return r, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < int(NotRated) || n > int(Explicit) {
		return 0, fmt.Errorf("unknown rating %q", s)
	}
	return Rating(n), nil
}
