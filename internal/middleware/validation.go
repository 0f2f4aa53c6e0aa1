package middleware

import (
	"errors"
	"strconv"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxContentLength bounds edited email content.
const MaxContentLength = 100000

// ValidateSessionID validates a session ID.
func ValidateSessionID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New("invalid session ID format")
	}
	return nil
}

// ValidateRecordID validates a history record ID.
func ValidateRecordID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New("invalid record ID format")
	}
	return nil
}

// ValidateContent validates edited email content.
func ValidateContent(content string) error {
	if len(content) > MaxContentLength {
		return errors.New("content exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("content must be valid UTF-8")
	}
	return nil
}

// ParseIndex parses a non-negative history index.
func ParseIndex(s string) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil || i < 0 {
		return 0, errors.New("index must be a non-negative integer")
	}
	return i, nil
}
