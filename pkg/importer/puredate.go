package importer

import (
	"strconv"
	"strings"
)

// ConvertToPureDate turns a date string into the ODS PureDate integer (YYYYMMDD).
// Accepted forms are YYYY-MM-DD, DD/MM/YYYY, YYYY/MM/DD and YYYYMMDD; any time part after T is dropped.
func ConvertToPureDate(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	s, _, _ = strings.Cut(s, "T")

	var year, month, day string
	switch {
	case strings.Contains(s, "-"):
		parts := strings.Split(s, "-")
		if len(parts) < 3 {
			return 0, false
		}
		year, month, day = parts[0], parts[1], parts[2]
	case strings.Contains(s, "/"):
		parts := strings.Split(s, "/")
		if len(parts) < 3 {
			return 0, false
		}
		switch {
		case len(parts[2]) == 4:
			year, month, day = parts[2], parts[1], parts[0]
		case len(parts[0]) == 4:
			year, month, day = parts[0], parts[1], parts[2]
		default:
			return 0, false
		}
	case len(s) == 8:
		return atoi(s)
	default:
		return 0, false
	}

	return atoi(year + pad2(month) + pad2(day))
}

func pad2(s string) string {
	if len(s) < 2 {
		return strings.Repeat("0", 2-len(s)) + s
	}
	return s
}

func atoi(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
