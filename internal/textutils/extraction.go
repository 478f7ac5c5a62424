// Package textutils provides text extraction and manipulation utilities.
package textutils

import (
	"regexp"
	"strings"
)

// MinReferenceLength is the shortest token accepted as a transaction reference.
const MinReferenceLength = 8

var (
	// referencePattern matches a standalone run of uppercase letters and digits.
	referencePattern = regexp.MustCompile(`\b([A-Z0-9]{8,})\b`)

	// counterpartyDelimiter is " to " surrounded by single spaces, any case.
	counterpartyDelimiter = regexp.MustCompile(`(?i) to `)
)

// ExtractReference returns the first standalone token of at least eight uppercase
// letters or digits, e.g. the "QAB1CD2EF3" transaction code of an M-PESA message.
// No checksum or format validation is done beyond length and character class.
func ExtractReference(text string) (string, bool) {
	m := referencePattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ExtractCounterparty makes a best-effort guess of the other party from the text
// following the first " to ". The remainder is trimmed and cut before the first
// '.', unless that '.' is its very first character.
func ExtractCounterparty(text string) (string, bool) {
	loc := counterpartyDelimiter.FindStringIndex(text)
	if loc == nil || loc[0] == 0 {
		return "", false
	}

	after := strings.TrimSpace(text[loc[1]:])
	if stop := strings.Index(after, "."); stop > 0 {
		after = strings.TrimSpace(after[:stop])
	}
	if after == "" {
		return "", false
	}
	return after, true
}

// ContainsAny reports whether text contains at least one of the given substrings.
func ContainsAny(text string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}

// Fold lower-cases text for case-insensitive keyword checks.
func Fold(text string) string {
	return strings.ToLower(text)
}
