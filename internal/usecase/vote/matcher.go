// Package vote maps free-form chat text onto one of the offered crimes.
package vote

import (
	"strings"
	"unicode"

	"github.com/LavaJover/shvark-heist-service/internal/domain"
)

// Match returns the id of the first offered crime the text votes for.
//
// Rules are tried in order across all options before moving to the next:
// exact match of the whole message against the id or the full name, then the
// id as a whole word (or every word of the name) inside the message, then any
// alias as a whole word or phrase.
func Match(options []domain.CrimeDefinition, text string) (string, bool) {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return "", false
	}

	for _, opt := range options {
		if normalized == strings.ToLower(opt.ID) || normalized == strings.ToLower(strings.TrimSpace(opt.Name)) {
			return opt.ID, true
		}
	}

	tokens := Tokenize(normalized)
	if len(tokens) == 0 {
		return "", false
	}
	words := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		words[tok] = struct{}{}
	}

	for _, opt := range options {
		if containsPhrase(tokens, Tokenize(opt.ID)) {
			return opt.ID, true
		}
		if containsAll(words, Tokenize(opt.Name)) {
			return opt.ID, true
		}
	}

	for _, opt := range options {
		for _, alias := range opt.Aliases {
			if containsPhrase(tokens, Tokenize(alias)) {
				return opt.ID, true
			}
		}
	}

	return "", false
}

// Tokenize lower-cases s and splits it on anything that is not a letter or digit.
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func containsAll(words map[string]struct{}, required []string) bool {
	if len(required) == 0 {
		return false
	}
	for _, w := range required {
		if _, ok := words[w]; !ok {
			return false
		}
	}
	return true
}

func containsPhrase(tokens, phrase []string) bool {
	if len(phrase) == 0 || len(phrase) > len(tokens) {
		return false
	}
	for i := 0; i+len(phrase) <= len(tokens); i++ {
		matched := true
		for j := range phrase {
			if tokens[i+j] != phrase[j] {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}
	return false
}
