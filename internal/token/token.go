package token

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

const (
	// Prefix is the literal every token starts with.
	Prefix = "JW-"

	// Alphabet holds the 36 symbols a token group may contain.
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// Pattern is the exact textual form a token must match before it is accepted as a key.
	Pattern = `^JW-[A-Z0-9]{4}-[A-Z0-9]{4}-[A-Z0-9]{4}$`

	// Length is the length of a formatted token including prefix and hyphens.
	Length = 17

	groups    = 3
	groupSize = 4
)

// ErrInvalidFormat is returned when a candidate does not match Pattern.
var ErrInvalidFormat = errors.New("invalid token format")

var pattern = regexp.MustCompile(Pattern)

// Normalize removes all whitespace (and any byte order mark) from raw and upper-cases the remainder.
// It never fails and the result is not necessarily a valid token.
func Normalize(raw string) string {
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '\uFEFF' {
			return -1
		}
		return r
	}, raw)

	return strings.ToUpper(stripped)
}

// Validate reports whether candidate matches Pattern exactly. It does not normalize.
func Validate(candidate string) bool {
	return len(candidate) == Length && pattern.MatchString(candidate)
}

// Parse normalizes raw and validates the result, returning the canonical token.
func Parse(raw string) (string, error) {
	normalized := Normalize(raw)
	if !Validate(normalized) {
		return "", fmt.Errorf("%w: %q must match %s", ErrInvalidFormat, normalized, Pattern)
	}
	return normalized, nil
}

// format assembles a token from 12 symbol indexes.
func format(symbols []byte) string {
	var b strings.Builder
	b.Grow(Length)
	b.WriteString(Prefix)

	for g := range groups {
		if g > 0 {
			b.WriteByte('-')
		}
		for _, s := range symbols[g*groupSize : (g+1)*groupSize] {
			b.WriteByte(Alphabet[int(s)%len(Alphabet)])
		}
	}

	return b.String()
}
