// Package classifier decides whether a turn should be sent to the reasoning
// engine with tools attached.
package classifier

import (
	"strings"

	"voice_agent/internal/gateway"
)

var (
	searchKeywords = []string{
		"what is", "tell me about", "how do i get to", "directions", "where is",
		"nearby", "close to", "around here", "weather", "traffic", "news", "latest",
		"reviews", "ratings", "best", "recommended", "hours", "open", "closed",
		"website", "phone number", "price", "cost of", "how much", "location",
		"address", "availability",
	}
	bookingKeywords = []string{
		"book", "reserve", "appointment", "schedule", "available", "availability",
		"can i get", "sign up", "register", "membership",
	}

	openerWords = map[string]bool{
		"hi": true, "hello": true, "hey": true, "thanks": true, "thank": true,
		"yes": true, "yeah": true, "yep": true, "no": true, "nope": true, "sure": true,
		"ok": true, "okay": true, "great": true, "perfect": true, "good": true,
	}
	openerPrefixes = []string{"my name is", "i'm ", "i am ", "this is ", "it's ", "sounds good"}
	searchVerbs    = map[string]bool{"find": true, "search": true, "show": true, "what": true, "where": true}
)

// Decision says which tool families a turn needs.
type Decision struct {
	UseTools     bool
	NeedsSearch  bool
	NeedsBooking bool
}

// Decide inspects an utterance. Greetings, confirmations and introductions do
// not trigger a web search unless they also ask for something explicitly.
func Decide(utterance string) Decision {
	lower := strings.ToLower(strings.TrimSpace(utterance))
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return r == ' ' || r == ',' || r == '.' || r == '!' || r == '?' || r == '\t' || r == '\n'
	})

	d := Decision{
		NeedsSearch:  containsAny(lower, searchKeywords),
		NeedsBooking: containsAny(lower, bookingKeywords),
	}
	if d.NeedsSearch && isOpener(lower, words) && !hasSearchVerb(words) {
		d.NeedsSearch = false
	}
	d.UseTools = d.NeedsSearch || d.NeedsBooking
	return d
}

// Tools returns the declarations to attach for d. Function tools are only
// offered when publicURL is set, since the engine has to call back into us.
func (d Decision) Tools(publicURL string) []gateway.Tool {
	var tools []gateway.Tool
	if d.NeedsSearch {
		tools = append(tools, gateway.SearchTools()...)
	}
	if d.NeedsBooking && publicURL != "" {
		tools = append(tools, gateway.FunctionTools(publicURL)...)
	}
	return tools
}

func isOpener(lower string, words []string) bool {
	if len(words) == 0 {
		return true
	}
	if openerWords[words[0]] || (len(words) <= 3 && allOpenerWords(words)) {
		return true
	}
	for _, p := range openerPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

// allOpenerWords reports whether a short reply is only an acknowledgement
// such as "ok great thanks".
func allOpenerWords(words []string) bool {
	for _, w := range words {
		if !openerWords[w] {
			return false
		}
	}
	return true
}

func hasSearchVerb(words []string) bool {
	for _, w := range words {
		if searchVerbs[w] {
			return true
		}
	}
	return false
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
