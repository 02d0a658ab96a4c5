package mocks

import (
	"sync"

	"github.com/mcoot/wordduel/internal/dependencies/random"
)

// MockRandom is a mock implementation of Random for testing.
// Each method pops from its own queue and falls back to a fixed value when empty.
type MockRandom struct {
	mu sync.Mutex

	intnResults   []int
	stringResults []string
	letterResults []rune
	coinResults   []bool
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// Intn returns the next queued result, or 0 if none remaining
func (r *MockRandom) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.intnResults) == 0 {
		return 0
	}
	result := r.intnResults[0]
	r.intnResults = r.intnResults[1:]
	return result
}

// String returns the next queued result, or "ROOM01" if none remaining
func (r *MockRandom) String(length int, alphabet string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.stringResults) == 0 {
		return "ROOM01"
	}
	result := r.stringResults[0]
	r.stringResults = r.stringResults[1:]
	return result
}

// Letter returns the next queued letter, or 'A' if none remaining
func (r *MockRandom) Letter() rune {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.letterResults) == 0 {
		return 'A'
	}
	result := r.letterResults[0]
	r.letterResults = r.letterResults[1:]
	return result
}

// CoinFlip returns the next queued flip, or false if none remaining.
// false keeps the first player on the start letter.
func (r *MockRandom) CoinFlip() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.coinResults) == 0 {
		return false
	}
	result := r.coinResults[0]
	r.coinResults = r.coinResults[1:]
	return result
}

// QueueIntn adds values to the Intn result queue
func (r *MockRandom) QueueIntn(values ...int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.intnResults = append(r.intnResults, values...)
}

// QueueString adds values to the String result queue
func (r *MockRandom) QueueString(values ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stringResults = append(r.stringResults, values...)
}

// QueueLetters adds letters to the Letter result queue
func (r *MockRandom) QueueLetters(letters ...rune) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.letterResults = append(r.letterResults, letters...)
}

// QueueCoinFlips adds values to the CoinFlip result queue
func (r *MockRandom) QueueCoinFlips(values ...bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.coinResults = append(r.coinResults, values...)
}
