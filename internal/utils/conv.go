package utils

import (
	"strconv"
)

// StringToInt converts s to an int, returning def when s is empty or invalid.
func StringToInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

// StringToID parses a positive object id from a path segment.
func StringToID(s string) (uint, bool) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
