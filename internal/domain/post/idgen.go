package post

import "math/rand/v2"

// IDLength is the length of every public identifier.
const IDLength = 16

const idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// RandomIDGenerator draws identifiers uniformly from the alphanumeric alphabet.
// It performs no uniqueness check; a collision fails the metadata insert.
type RandomIDGenerator struct{}

// NewRandomIDGenerator constructs the generator.
func NewRandomIDGenerator() *RandomIDGenerator {
	return &RandomIDGenerator{}
}

// NewID returns a fresh identifier. Safe for concurrent use.
func (g *RandomIDGenerator) NewID() string {
	return randomString(IDLength)
}

// ValidID reports whether id has the shape of a generated identifier.
func ValidID(id string) bool {
	if len(id) != IDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}

func randomString(n int) string {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = idAlphabet[rand.IntN(len(idAlphabet))]
	}
	return string(buf)
}

var _ IDGenerator = (*RandomIDGenerator)(nil)
