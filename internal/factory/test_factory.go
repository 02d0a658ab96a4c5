package factory

import (
	"io"
	"log/slog"
	"time"

	"github.com/mcoot/wordduel/internal/dependencies/mocks"
	"github.com/mcoot/wordduel/internal/model"
	"github.com/mcoot/wordduel/internal/storage/memory"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom

	// Audit records land here once the recorder has flushed
	MemoryStore *memory.Storage
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	app := newWithDependencies(store, mockClock, mockRandom, model.DefaultGameConfig(), logger)

	return &TestApp{
		App:         app,
		MockClock:   mockClock,
		MockRandom:  mockRandom,
		MemoryStore: store,
	}
}

// LoadTestDictionary loads a small dictionary for testing
func (t *TestApp) LoadTestDictionary() error {
	return t.DictionaryService.LoadWords([]string{
		// C..T
		"cat", "cot", "cut", "cart", "cast", "coat", "colt", "cult", "count", "court",
		// B..T
		"bat", "bet", "bit", "boat", "bolt", "boot", "beat",
		// D..G
		"dig", "dog", "drag", "drug",
		// Others
		"apple", "banana", "cherry", "table", "tab", "zebra",
	})
}
