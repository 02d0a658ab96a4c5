package dictionary

import (
	"bufio"
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"github.com/mcoot/wordduel/internal/model"
)

const (
	MinWordLength = 3
	MaxWordLength = 15
)

//go:embed fallback_words.txt
var fallbackWords []byte

// Index is an immutable word set with a first/last letter bucket index
type Index struct {
	words   map[string]struct{}
	buckets map[model.LetterPair][]string
}

// NewIndex builds an index from raw words. Words are trimmed and lowercased;
// anything outside 3-15 letters is dropped.
func NewIndex(words []string) *Index {
	idx := &Index{
		words:   make(map[string]struct{}, len(words)),
		buckets: make(map[model.LetterPair][]string),
	}
	for _, raw := range words {
		w := strings.ToLower(strings.TrimSpace(raw))
		n := utf8.RuneCountInString(w)
		if n < MinWordLength || n > MaxWordLength {
			continue
		}
		if _, dup := idx.words[w]; dup {
			continue
		}
		idx.words[w] = struct{}{}

		first, _ := utf8.DecodeRuneInString(w)
		last, _ := utf8.DecodeLastRuneInString(w)
		key := bucketKey(first, last)
		idx.buckets[key] = append(idx.buckets[key], w)
	}
	return idx
}

func bucketKey(first, last rune) model.LetterPair {
	return model.LetterPair{Start: toUpper(first), End: toUpper(last)}
}

func toUpper(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - 'a' + 'A'
	}
	return r
}

// Contains reports whether a normalized word is in the index
func (i *Index) Contains(word string) bool {
	_, ok := i.words[word]
	return ok
}

// CandidatesFor returns the words starting with first and ending with last.
// The returned slice is shared and must not be modified.
func (i *Index) CandidatesFor(first, last rune) []string {
	return i.buckets[bucketKey(first, last)]
}

// Len returns the number of distinct words
func (i *Index) Len() int {
	return len(i.words)
}

// Service holds the loaded dictionary. The index is swapped atomically on load
// so lookups from many rooms need no locking.
type Service struct {
	logger *slog.Logger
	index  atomic.Pointer[Index]
}

// New creates a new dictionary Service with nothing loaded
func New(logger *slog.Logger) *Service {
	return &Service{
		logger: logger.With(slog.String("component", "dictionary")),
	}
}

// LoadWords directly loads a slice of words (useful for testing)
func (s *Service) LoadWords(words []string) error {
	idx := NewIndex(words)
	if idx.Len() == 0 {
		return fmt.Errorf("no usable words: %w", model.ErrDictionaryNotLoaded)
	}
	s.index.Store(idx)
	return nil
}

// LoadFromFile loads dictionary words from a file (one word per line)
func (s *Service) LoadFromFile(ctx context.Context, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	words, err := readWords(ctx, file)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return s.LoadWords(words)
}

// LoadWithFallback tries the primary word list, then the fallback list, then the
// embedded list. An empty path is skipped.
func (s *Service) LoadWithFallback(ctx context.Context, primary, fallback string) error {
	for _, path := range []string{primary, fallback} {
		if path == "" {
			continue
		}
		err := s.LoadFromFile(ctx, path)
		if err == nil {
			s.logger.Info("dictionary loaded", slog.String("path", path), slog.Int("words", s.WordCount()))
			return nil
		}
		s.logger.Warn("failed to load word list", slog.String("path", path), slog.String("error", err.Error()))
	}

	words, err := readWords(ctx, bytes.NewReader(fallbackWords))
	if err != nil {
		return err
	}
	if err := s.LoadWords(words); err != nil {
		return err
	}
	s.logger.Info("dictionary loaded from embedded list", slog.Int("words", s.WordCount()))
	return nil
}

func readWords(ctx context.Context, r io.Reader) ([]string, error) {
	var words []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if len(words)%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		word := strings.TrimSpace(scanner.Text())
		if word != "" {
			words = append(words, word)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return words, nil
}

// Contains checks if a normalized word exists in the dictionary
func (s *Service) Contains(word string) bool {
	idx := s.index.Load()
	if idx == nil {
		return false
	}
	return idx.Contains(word)
}

// CandidatesFor returns dictionary words with the given first and last letters
func (s *Service) CandidatesFor(first, last rune) []string {
	idx := s.index.Load()
	if idx == nil {
		return nil
	}
	return idx.CandidatesFor(first, last)
}

// IsLoaded returns whether the dictionary has been loaded
func (s *Service) IsLoaded() bool {
	return s.index.Load() != nil
}

// WordCount returns the number of words in the dictionary
func (s *Service) WordCount() int {
	idx := s.index.Load()
	if idx == nil {
		return 0
	}
	return idx.Len()
}

// ServiceInterface is the lookup surface used by validation
type ServiceInterface interface {
	Contains(word string) bool
	CandidatesFor(first, last rune) []string
	IsLoaded() bool
	WordCount() int
}

var _ ServiceInterface = (*Service)(nil)
