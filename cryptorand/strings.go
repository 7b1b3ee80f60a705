// Package cryptorand produces random strings from crypto/rand for use as
// secrets.
package cryptorand

import (
	"crypto/rand"
	"strings"

	"golang.org/x/xerrors"
)

// Charsets
const (
	// Numeric includes decimal numbers (0-9)
	Numeric = "0123456789"

	// Lower is lowercase characters in the Latin alphabet
	Lower = "abcdefghijklmnopqrstuvwxyz"

	// Hex is hexadecimal lowercase characters
	Hex = "0123456789abcdef"

	// Default is lowercase or numeric characters
	Default = Numeric + Lower
)

// StringCharset generates a random string of size characters drawn
// uniformly from charSet. Bytes that would bias the result are rejected
// and redrawn, so charSet may hold at most 256 characters.
func StringCharset(charSet string, size int) (string, error) {
	if size == 0 {
		return "", nil
	}
	chars := []rune(charSet)
	if len(chars) == 0 {
		return "", xerrors.New("charset must not be empty")
	}
	if len(chars) > 256 {
		return "", xerrors.Errorf("charset has %d characters, at most 256 are supported", len(chars))
	}

	// limit is the largest multiple of len(chars) that fits in a byte.
	limit := 256 - (256 % len(chars))
	var buf strings.Builder
	buf.Grow(size)
	entropy := make([]byte, size*2)
	n := 0
	for n < size {
		_, err := rand.Read(entropy)
		if err != nil {
			return "", xerrors.Errorf("read entropy: %w", err)
		}
		for _, b := range entropy {
			if int(b) >= limit {
				continue
			}
			_, _ = buf.WriteRune(chars[int(b)%len(chars)])
			n++
			if n == size {
				break
			}
		}
	}
	return buf.String(), nil
}

// String returns a random string using Default.
func String(size int) (string, error) {
	return StringCharset(Default, size)
}

// HexString returns a hexadecimal string of given length.
func HexString(size int) (string, error) {
	return StringCharset(Hex, size)
}
