// Package base62 implements encoding and decoding of unsigned integers
// using the 62-character alphabet 0-9, A-Z, a-z. The alphabet contains no
// characters that require escaping in a URL, which makes it suitable for
// packing numeric identifiers into compact short codes.
package base62

import (
	"errors"
	"math"
	"strings"
)

// Alphabet is the full Base62 character set in encoding order.
const Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

const base = uint64(62)

var (
	// ErrInvalidCharacter is returned when the input string contains
	// a character outside the Base62 alphabet.
	ErrInvalidCharacter = errors.New("invalid character in base62 string")
	// ErrOverflow is returned when the decoded value doesn't fit in uint64.
	ErrOverflow = errors.New("decoded value exceeds uint64 range")
)

var charValues [256]int8

func init() {
	for i := range charValues {
		charValues[i] = -1
	}
	for i := 0; i < len(Alphabet); i++ {
		charValues[Alphabet[i]] = int8(i)
	}
}

// Encode converts num into its Base62 representation.
// Encode(0) returns "0".
func Encode(num uint64) string {
	if num == 0 {
		return string(Alphabet[0])
	}

	buf := make([]byte, 0, 11)
	for num > 0 {
		buf = append(buf, Alphabet[num%base])
		num /= base
	}

	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}

	return string(buf)
}

// Decode converts a Base62 string back into the number it encodes.
// It is the inverse of Encode: Decode(Encode(n)) == n for any n.
func Decode(s string) (uint64, error) {
	var num uint64

	for i := 0; i < len(s); i++ {
		v := charValues[s[i]]
		if v < 0 {
			return 0, ErrInvalidCharacter
		}
		if num > (math.MaxUint64-uint64(v))/base {
			return 0, ErrOverflow
		}
		num = num*base + uint64(v)
	}

	return num, nil
}

// Pad left-pads an encoded string with the zero character up to length n,
// producing fixed-width codes. Strings already n or more characters long
// are returned unchanged.
func Pad(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return strings.Repeat(string(Alphabet[0]), n-len(s)) + s
}

// IsValid reports whether s is non-empty and consists only of Base62 characters.
func IsValid(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if charValues[s[i]] < 0 {
			return false
		}
	}
	return true
}
