// Package normalizers provides the value normalization used for match keys and conflict comparison
package normalizers

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Normalize reduces any JSON scalar to its comparable form. nil becomes "".
//
// "(02) 9876-5432" and "0298765432" both normalize to "298765432".
func Normalize(value any) string {
	if value == nil {
		return ""
	}
	return Comparable(Stringify(value))
}

// Stringify formats a decoded JSON value the way it would be written back out.
// Whole floats drop their fraction so 2000.0 and "2000" compare equal.
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Comparable lowercases, trims, drops whitespace and the separators - ( ) . then strips leading zeros.
func Comparable(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		switch r {
		case '-', '(', ')', '.':
			return -1
		}
		return r
	}, s)
	return StripLeadingZeros(s)
}

// StripPhoneSeparators removes whitespace, dashes and parentheses from a phone number
func StripPhoneSeparators(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '-' || r == '(' || r == ')' {
			return -1
		}
		return r
	}, s)
}

// StripLeadingZeros removes every leading '0'
func StripLeadingZeros(s string) string {
	return strings.TrimLeft(s, "0")
}

// RemoveWhitespace removes all whitespace characters
func RemoveWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
