// Package id generates short random identifiers for correlating requests in logs.
package id

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	// Base62 alphabet: 0-9, A-Z, a-z
	alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// DefaultLength is the default length for generated short IDs
	DefaultLength = 12
)

const (
	// PrefixRequest marks HTTP request IDs.
	PrefixRequest = "req"
	// PrefixPoll marks poller tick IDs.
	PrefixPoll = "poll"
)

// Generate creates a random Base62 ID of the given length.
func Generate(length int) (string, error) {
	if length <= 0 {
		length = DefaultLength
	}

	result := make([]byte, length)
	alphabetLen := big.NewInt(int64(len(alphabet)))

	for i := 0; i < length; i++ {
		num, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		result[i] = alphabet[num.Int64()]
	}

	return string(result), nil
}

// GenerateWithPrefix creates an ID in the format "prefix_randomstring".
func GenerateWithPrefix(prefix string, length int) (string, error) {
	id, err := Generate(length)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s_%s", prefix, id), nil
}

// NewRequestID returns a request ID, or a fixed placeholder when the random
// source fails.
func NewRequestID() string {
	id, err := GenerateWithPrefix(PrefixRequest, DefaultLength)
	if err != nil {
		return PrefixRequest + "_unknown"
	}
	return id
}

// NewPollID returns an ID for one poller tick.
func NewPollID() string {
	id, err := GenerateWithPrefix(PrefixPoll, DefaultLength)
	if err != nil {
		return PrefixPoll + "_unknown"
	}
	return id
}

// ParsePrefixedID extracts the prefix and short ID from a prefixed ID string.
// Example: ParsePrefixedID("req_xK9mP2vL3nQ") returns ("req", "xK9mP2vL3nQ", nil)
func ParsePrefixedID(prefixedID string) (prefix, shortID string, err error) {
	parts := strings.SplitN(prefixedID, "_", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid prefixed ID format: %s", prefixedID)
	}
	return parts[0], parts[1], nil
}
