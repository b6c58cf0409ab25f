package book

import "crypto/rand"

const (
	isbnLength   = 13
	isbnAlphabet = "0123456789ABCDEF"
)

// NewISBN returns a random 13 character uppercase hexadecimal identifier.
// Uniqueness is not checked here; the inventory rejects collisions.
func NewISBN() string {
	buf := make([]byte, isbnLength)
	// Read never returns an error as of Go 1.24.
	rand.Read(buf)
	for i, b := range buf {
		// low nibble is uniform over 0-15
		buf[i] = isbnAlphabet[b&0x0F]
	}
	return string(buf)
}
