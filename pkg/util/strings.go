package util

import "strconv"

// ParseIntDefault falls back to def for empty or unparseable input.
func ParseIntDefault(s string, def int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
