// Package version holds the tag comparison, ordering, cleaning and
// upgrade recommendation rules used to decide whether a package has
// fallen behind its upstream project.
//
// The ordering is token-wise, not SemVer: tokens are
// compared by their leading number, then by length (shorter wins), then
// by their last digit. It is not transitive for every mix of
// alphanumeric tokens.
package version

import (
	"strings"
	"unicode/utf8"
)

// Compare orders two cleaned tags. It returns a negative number when a
// sorts before b, zero when neither decides, and a positive number
// otherwise.
func Compare(a, b string) int {
	ta := Tokens(a)
	tb := Tokens(b)

	n := min(len(ta), len(tb))
	for i := 0; i < n; i++ {
		if res := compareLeadingNumber(ta[i], tb[i]); res != 0 {
			return res
		}
		// Shorter token sorts greater
		la, lb := utf8.RuneCountInString(ta[i]), utf8.RuneCountInString(tb[i])
		if la != lb {
			return sign(lb - la)
		}
		if res := sign(lastDigit(ta[i]) - lastDigit(tb[i])); res != 0 {
			return res
		}
	}

	return sign(len(ta) - len(tb))
}

// Tokens splits a tag on dots. Trailing empty tokens are dropped, so "1.2."
// has two tokens and "" has none.
func Tokens(tag string) []string {
	if tag == "" {
		return nil
	}
	tokens := strings.Split(tag, ".")
	for len(tokens) > 0 && tokens[len(tokens)-1] == "" {
		tokens = tokens[:len(tokens)-1]
	}
	return tokens
}

// leadingDigits returns the run of decimal digits at the start of s with
// leading zeros removed. A token without leading digits yields "".
func leadingDigits(s string) string {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return strings.TrimLeft(s[:end], "0")
}

// compareLeadingNumber compares the integer prefixes of a and b without
// converting them, so arbitrarily long date-like tokens stay exact.
func compareLeadingNumber(a, b string) int {
	da := leadingDigits(a)
	db := leadingDigits(b)
	if len(da) != len(db) {
		return sign(len(da) - len(db))
	}
	return strings.Compare(da, db)
}

func lastDigit(s string) int {
	if s == "" {
		return 0
	}
	c := s[len(s)-1]
	if c < '0' || c > '9' {
		return 0
	}
	return int(c - '0')
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}
