// Package report is the presentation boundary: display month labels, the
// text summary, and the JSON shapes handed to reporting consumers. The
// engines underneath only ever see canonical YYYY-MM month keys.
package report

import (
	"fmt"
	"strconv"
	"strings"
)

var monthNames = [12]string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

var monthNumbers = map[string]int{
	"Jan": 1, "Feb": 2, "Mar": 3, "Apr": 4, "May": 5, "Jun": 6,
	"Jul": 7, "Aug": 8, "Sep": 9, "Oct": 10, "Nov": 11, "Dec": 12,
}

// DisplayMonth translates a canonical "2025-01" key into the "Jan-25"
// label used in planning configs and reports. Unrecognized keys pass
// through unchanged.
func DisplayMonth(month string) string {
	year, num, ok := splitCanonical(month)
	if !ok {
		return month
	}
	return fmt.Sprintf("%s-%02d", monthNames[num-1], year%100)
}

// CanonicalMonth translates a "Jan-25" display label into the canonical
// "2025-01" key. Canonical keys and unrecognized tokens pass through
// unchanged.
func CanonicalMonth(token string) string {
	name, rest, found := strings.Cut(token, "-")
	if !found {
		return token
	}
	num, ok := monthNumbers[name]
	if !ok {
		return token
	}
	year, err := strconv.Atoi(rest)
	if err != nil {
		return token
	}
	if year < 100 {
		year += 2000
	}
	return fmt.Sprintf("%04d-%02d", year, num)
}

func splitCanonical(month string) (year, num int, ok bool) {
	yearPart, monthPart, found := strings.Cut(month, "-")
	if !found || len(yearPart) != 4 || len(monthPart) != 2 {
		return 0, 0, false
	}
	year, err := strconv.Atoi(yearPart)
	if err != nil {
		return 0, 0, false
	}
	num, err = strconv.Atoi(monthPart)
	if err != nil || num < 1 || num > 12 {
		return 0, 0, false
	}
	return year, num, true
}
