//-------------------------------------------------------------------------
//
// Sales ETL Pipeline
//
// Portions copyright (c) 2025 - 2026, Mini Data Platform contributors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package transform

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
)

// HashEmail lowercases the email and returns its SHA-256 hex digest.
// Identical emails always map to the identical hash regardless of case.
//
// The hash is deliberately unsalted for compatibility with historically
// stored dim_customer keys; switching to a keyed hash (HMAC) would
// orphan every existing email_hash and break idempotent matching.
func HashEmail(email string) string {
	normalized := strings.ToLower(strings.TrimSpace(email))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// RedactPhone keeps only the final 4 digits of a phone number. Numbers
// with fewer than 4 digits are fully masked.
func RedactPhone(phone string) string {
	var digits []rune
	for _, r := range phone {
		if unicode.IsDigit(r) {
			digits = append(digits, r)
		}
	}
	if len(digits) < 4 {
		return "***-***-****"
	}
	return "***-***-" + string(digits[len(digits)-4:])
}

// RedactAddress masks the leading token of an address (typically the
// house or street number) and retains the remainder.
func RedactAddress(address string) string {
	trimmed := strings.TrimSpace(address)
	if trimmed == "" {
		return ""
	}
	first, rest, found := strings.Cut(trimmed, " ")
	if !found {
		return strings.Repeat("*", len(first))
	}
	return strings.Repeat("*", len(first)) + " " + rest
}
