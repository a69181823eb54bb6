// Package protect computes sheet protection state: the legacy password
// digest embedded in sheetProtection and the per-cell lock resolution.
package protect

import (
	"errors"
	"fmt"
)

// MaxPasswordLength is the longest password the legacy digest format
// supports.
const MaxPasswordLength = 255

// hashSalt is the constant the legacy algorithm folds in last.
const hashSalt = 0xCE4B

// ErrPasswordTooLong is returned for passwords over MaxPasswordLength
// characters.
var ErrPasswordTooLong = errors.New("password exceeds maximum supported length")

// HashPassword computes the legacy 16-bit XOR-rotate digest used by the
// sheetProtection password attribute, rendered as upper-case hex.
//
// This is an integrity/compatibility marker required by the packaging
// spec, not a security control: the digest is trivially invertible and
// collides freely. It must not be strengthened, or host applications
// would reject the package's protection state.
//
// The algorithm walks the characters in reverse, rotating the running
// 15-bit hash left one bit before XOR-ing each character code in, then
// rotates once more and XORs the character count and a constant salt.
// An empty password yields an empty digest.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", nil
	}
	chars := []rune(password)
	if len(chars) > MaxPasswordLength {
		return "", ErrPasswordTooLong
	}

	hash := 0
	for i := len(chars) - 1; i >= 0; i-- {
		hash = rotate15(hash)
		hash ^= int(chars[i])
	}
	hash = rotate15(hash)
	hash ^= len(chars)
	hash ^= hashSalt

	return fmt.Sprintf("%X", hash), nil
}

// rotate15 rotates the low 15 bits left by one; bit 15 of the input is
// discarded, matching the legacy algorithm exactly.
func rotate15(v int) int {
	return ((v >> 14) & 1) | ((v << 1) & 0x7FFF)
}
