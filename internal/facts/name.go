package facts

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

var introPhrases = []string{
	"my name is ", "i'm ", "i am ", "this is ", "call me ",
	"name's ", "it's ", "the name is ", "name is ",
}

var nameStopWords = map[string]bool{
	"what": true, "whats": true, "what's": true, "when": true, "where": true, "how": true,
	"why": true, "which": true, "who": true, "can": true, "could": true, "would": true,
	"will": true, "do": true, "does": true, "did": true, "is": true, "are": true,
	"was": true, "were": true, "the": true, "and": true, "or": true, "but": true,
	"for": true, "to": true, "at": true, "on": true, "in": true, "i": true,
	"my": true, "me": true, "want": true, "need": true, "have": true, "had": true,
	"reservation": true, "appointment": true, "booking": true, "book": true,
	"table": true, "dinner": true, "lunch": true, "breakfast": true, "please": true,
	"thanks": true, "make": true, "call": true, "calling": true, "check": true,
	"looking": true, "like": true, "just": true, "give": true, "tell": true,
	"show": true, "info": true, "information": true, "details": true, "about": true,
}

const nameTrim = ".,!?"

// matchName recognises a bare short name ("Maria Lopez") or a name that
// follows an introduction phrase ("my name is John Smith"). Any reply of at
// most three capitalised words is taken whole as a name, so "Yes Please"
// gives "Yes" and "I'm Bob" gives "I'm Bob"; the stop words only drop the
// obvious fillers.
func matchName(text, lower string) (string, bool) {
	words := strings.Fields(text)
	if len(words) <= 3 && allCapitalised(words) {
		var parts []string
		for _, w := range words {
			clean := strings.Trim(w, nameTrim)
			if clean != "" && !nameStopWords[strings.ToLower(clean)] {
				parts = append(parts, clean)
			}
		}
		name := strings.Join(parts, " ")
		if len(parts) > 0 && len(name) > 1 {
			return name, true
		}
		return "", false
	}

	// lower is only index-compatible with text when case folding kept byte lengths
	if len(lower) != len(text) {
		return "", false
	}

	padded := lower + " "
	for _, phrase := range introPhrases {
		idx := strings.Index(padded, phrase)
		if idx < 0 {
			continue
		}
		start := idx + len(phrase)
		if start > len(text) {
			continue
		}
		if name := leadingName(strings.Fields(text[start:])); name != "" {
			return name, true
		}
	}
	return "", false
}

// leadingName takes up to three capitalised tokens, stopping at a stop word,
// a lower-case token, or right after a token that ended a clause.
func leadingName(words []string) string {
	var parts []string
	for i, w := range words {
		if i >= 3 {
			break
		}
		clean := strings.Trim(w, nameTrim)
		if clean == "" || nameStopWords[strings.ToLower(clean)] || !startsUpper(clean) {
			break
		}
		parts = append(parts, clean)
		if strings.TrimRight(w, nameTrim) != w {
			break
		}
	}
	return strings.Join(parts, " ")
}

func allCapitalised(words []string) bool {
	for _, w := range words {
		if !startsUpper(w) {
			return false
		}
	}
	return true
}

func startsUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}
