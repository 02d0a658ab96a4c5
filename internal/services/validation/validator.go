package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mcoot/wordduel/internal/services/dictionary"
)

// Reason identifies the first rule a word failed
type Reason string

const (
	ReasonNone        Reason = ""
	ReasonTooShort    Reason = "too-short"
	ReasonTooLong     Reason = "too-long"
	ReasonNotAWord    Reason = "not-a-word"
	ReasonAlreadyUsed Reason = "already-used"
	ReasonWrongStart  Reason = "wrong-start-letter"
	ReasonWrongEnd    Reason = "wrong-end-letter"
)

// Result is the outcome of validating one submission
type Result struct {
	Valid   bool
	Reason  Reason
	Message string // User-facing text, empty when valid
	Word    string // Normalized word
}

// Lookup is the dictionary surface the validator needs
type Lookup interface {
	Contains(word string) bool
	CandidatesFor(first, last rune) []string
}

// UsedWords reports whether a normalized word was already accepted
type UsedWords interface {
	IsWordUsed(word string) bool
}

// Validator checks submissions against the dictionary and round constraints
type Validator struct {
	dict Lookup
}

// New creates a Validator over the given dictionary
func New(dict Lookup) *Validator {
	return &Validator{dict: dict}
}

// Normalize trims and lowercases a raw submission
func Normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Validate runs the checks in order: length, membership, reuse, then letters.
// The first failing check decides the reason.
func (v *Validator) Validate(raw string, start, end rune, used UsedWords) Result {
	w := Normalize(raw)
	n := utf8.RuneCountInString(w)

	switch {
	case n < dictionary.MinWordLength:
		return reject(w, ReasonTooShort, fmt.Sprintf("Word must be at least %d letters", dictionary.MinWordLength))
	case n > dictionary.MaxWordLength:
		return reject(w, ReasonTooLong, fmt.Sprintf("Word too long (max %d letters)", dictionary.MaxWordLength))
	case !v.dict.Contains(w):
		return reject(w, ReasonNotAWord, "Not a valid English word")
	case used.IsWordUsed(w):
		return reject(w, ReasonAlreadyUsed, "Word already used")
	}

	first, _ := utf8.DecodeRuneInString(w)
	if !sameLetter(first, start) {
		return reject(w, ReasonWrongStart, fmt.Sprintf("Must start with '%c'", upper(start)))
	}
	last, _ := utf8.DecodeLastRuneInString(w)
	if !sameLetter(last, end) {
		return reject(w, ReasonWrongEnd, fmt.Sprintf("Must end with '%c'", upper(end)))
	}

	return Result{Valid: true, Word: w}
}

// HasAnyValidWord returns true if at least one dictionary word fits the pair
// and has not been used yet
func (v *Validator) HasAnyValidWord(start, end rune, used UsedWords) bool {
	for _, w := range v.dict.CandidatesFor(start, end) {
		if !used.IsWordUsed(w) {
			return true
		}
	}
	return false
}

func reject(word string, reason Reason, message string) Result {
	return Result{Reason: reason, Message: message, Word: word}
}

func sameLetter(a, b rune) bool {
	return upper(a) == upper(b)
}

func upper(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - 'a' + 'A'
	}
	return r
}
