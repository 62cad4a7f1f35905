package utils

import "crypto/rand"

const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// RandomToken returns a random alphanumeric string of the given length,
// suitable as a merchant transaction id.
func RandomToken(length int) string {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand reads never fail on supported platforms.
		panic(err)
	}

	for i, b := range buf {
		buf[i] = tokenAlphabet[int(b)%len(tokenAlphabet)]
	}

	return string(buf)
}
