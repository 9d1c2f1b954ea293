// Package nlp implements the language-facing pieces of the assistant:
// language detection, query translation, gold-intent classification, and
// reply generation. Every upstream dependency (translation endpoint,
// language model) is optional; each function degrades to a deterministic
// result when its upstream is missing or failing.
package nlp

import (
	"unicode"

	"golang.org/x/text/language"
)

// DetectLanguage returns language.Hindi when the text contains Devanagari
// letters and language.English otherwise. English is also the fixed default
// for text with no letters at all, matching the reply-language contract.
func DetectLanguage(s string) language.Tag {
	for _, r := range s {
		if unicode.Is(unicode.Devanagari, r) {
			return language.Hindi
		}
	}
	return language.English
}
