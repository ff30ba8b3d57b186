// Package password generates random initial credentials for company accounts.
package password

import (
	"crypto/rand"
	"math/big"
)

const (
	lowercase = "abcdefghijklmnopqrstuvwxyz"
	uppercase = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digits    = "0123456789"
	symbols   = "!@#$%^&*()_+-=[]{}|;:,.<>?"
)

// DefaultLength is the generated password length.
const DefaultLength = 12

// Generate returns a random password of the given length (min 4) containing at
// least one lowercase, uppercase, digit, and symbol character.
func Generate(length int) string {
	if length < 4 {
		length = DefaultLength
	}

	all := lowercase + uppercase + digits + symbols
	buf := make([]byte, length)
	buf[0] = pick(lowercase)
	buf[1] = pick(uppercase)
	buf[2] = pick(digits)
	buf[3] = pick(symbols)
	for i := 4; i < length; i++ {
		buf[i] = pick(all)
	}

	// Shuffle so the guaranteed character classes are not positionally fixed.
	for i := len(buf) - 1; i > 0; i-- {
		j := randInt(i + 1)
		buf[i], buf[j] = buf[j], buf[i]
	}
	return string(buf)
}

func pick(charset string) byte {
	return charset[randInt(len(charset))]
}

func randInt(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// crypto/rand only fails when the OS entropy source is broken.
		panic(err)
	}
	return int(v.Int64())
}
