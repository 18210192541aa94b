package utils

import (
	cryptoRand "crypto/rand"
	"fmt"
)

const alphanumericCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// RandomAlphanumeric generates a random string of the given length using
// uppercase letters, lowercase letters and digits, drawn from crypto/rand.
// It is used for the locally generated shared secret, where the requirement
// is uniqueness across installations rather than key-exchange strength.
func RandomAlphanumeric(length int) string {
	if length <= 0 {
		length = 16
	}

	randomBytes := make([]byte, length)
	if _, err := cryptoRand.Read(randomBytes); err != nil {
		// crypto/rand failure indicates a serious system problem (e.g., /dev/urandom unavailable).
		// Panic is appropriate here since this should never happen on any supported OS.
		panic(fmt.Sprintf("crypto/rand.Read failed: %v", err))
	}

	out := make([]byte, length)
	for i, b := range randomBytes {
		out[i] = alphanumericCharset[int(b)%len(alphanumericCharset)]
	}
	return string(out)
}
