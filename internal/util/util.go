package util

import (
	"errors"
	"strconv"
	"strings"
)

// OnOff renders a flag the way the dashboard toggle feed expects it.
func OnOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}

// OneZero renders a flag as "1"/"0".
func OneZero(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func Itoa[T ~int | ~int32 | ~int64 | ~uint16 | ~uint32](v T) string {
	return strconv.FormatInt(int64(v), 10)
}

// ParseInt accepts an ASCII integer with optional sign and surrounding
// whitespace. A well-formed integer beyond the int range saturates to the
// nearest bound instead of failing.
func ParseInt(payload []byte) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(string(payload)))
	if errors.Is(err, strconv.ErrRange) {
		return n, nil
	}
	return n, err
}

// Trimmed returns the payload as a string without surrounding whitespace.
func Trimmed(payload []byte) string {
	return strings.TrimSpace(string(payload))
}
