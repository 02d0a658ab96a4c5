package random

import (
	"crypto/rand"
	"math/big"
)

// Alphabet is the set of letters a round can be played on
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Random provides random number generation that can be mocked for testing
type Random interface {
	// Intn returns a random int in [0, n)
	Intn(n int) int

	// String generates a random string of the given length from the given alphabet
	String(length int, alphabet string) string

	// Letter returns a uniformly random uppercase letter A-Z
	Letter() rune

	// CoinFlip returns true or false with equal probability
	CoinFlip() bool
}

// CryptoRandom implements Random using crypto/rand
type CryptoRandom struct{}

// New creates a new CryptoRandom
func New() *CryptoRandom {
	return &CryptoRandom{}
}

// Intn returns a cryptographically random int in [0, n)
func (r *CryptoRandom) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	result, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(result.Int64())
}

// String generates a random string of the given length from the given alphabet
func (r *CryptoRandom) String(length int, alphabet string) string {
	if length <= 0 || len(alphabet) == 0 {
		return ""
	}
	result := make([]byte, length)
	for i := range result {
		result[i] = alphabet[r.Intn(len(alphabet))]
	}
	return string(result)
}

// Letter returns a random uppercase letter
func (r *CryptoRandom) Letter() rune {
	return rune(Alphabet[r.Intn(len(Alphabet))])
}

// CoinFlip returns a fair random boolean
func (r *CryptoRandom) CoinFlip() bool {
	return r.Intn(2) == 1
}
