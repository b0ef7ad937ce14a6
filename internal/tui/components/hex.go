package components

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ParseHex converts hex text to bytes. Whitespace and 0x prefixes are
// ignored, so "48 65 6C", "0x48 0x65 0x6c" and "48656c" are all accepted.
func ParseHex(s string) ([]byte, error) {
	clean := strings.Join(strings.Fields(s), "")
	clean = strings.ReplaceAll(clean, "0x", "")
	clean = strings.ReplaceAll(clean, "0X", "")
	if clean == "" {
		return nil, errors.New("empty input")
	}
	if len(clean)%2 != 0 {
		return nil, fmt.Errorf("hex string must have even number of digits (got %d)", len(clean))
	}
	b, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}
	return b, nil
}
