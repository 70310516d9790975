package errors

import (
	"strings"
	"unicode"
)

// MaxKeywordLength bounds search keywords accepted by the CLI and the server.
const MaxKeywordLength = 256

// ValidateKeyword checks a search keyword before it is sent to the search API
// or used in a store query.
//
// Rules:
//   - not empty after trimming whitespace
//   - at most MaxKeywordLength bytes
//   - no control characters (including null bytes)
func ValidateKeyword(keyword string) error {
	if strings.TrimSpace(keyword) == "" {
		return New(ErrCodeInvalidKeyword, "keyword cannot be empty")
	}
	if len(keyword) > MaxKeywordLength {
		return New(ErrCodeInvalidKeyword, "keyword too long (max %d characters)", MaxKeywordLength)
	}
	for _, r := range keyword {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidKeyword, "keyword contains invalid control characters")
		}
	}
	return nil
}
