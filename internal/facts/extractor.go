package facts

import (
	"context"
	"strings"

	"voice_agent/internal/model"
)

// Extractor turns one utterance, plus optional recent context, into facts.
// Implementations never fail: when nothing is recognised they return an
// empty set, and they never produce values absent from the text.
type Extractor interface {
	Extract(ctx context.Context, text, recent string) model.FactSet
}

// Rule fills at most one fact key from an utterance. Match receives the raw
// text and its lower-cased form.
type Rule struct {
	Key   string
	Match func(text, lower string) (string, bool)
}

// Deterministic runs an ordered list of independent rules.
type Deterministic struct {
	rules []Rule
}

// NewDeterministic returns the pattern extractor with the default rule set.
// assumedYear completes "Month Day" dates that carry no year.
func NewDeterministic(assumedYear string) *Deterministic {
	return &Deterministic{rules: DefaultRules(assumedYear)}
}

// NewDeterministicWithRules returns an extractor running exactly rules.
func NewDeterministicWithRules(rules ...Rule) *Deterministic {
	return &Deterministic{rules: rules}
}

// Extract applies every rule in order.
func (d *Deterministic) Extract(_ context.Context, text, _ string) model.FactSet {
	var out model.FactSet
	text = strings.TrimSpace(text)
	if text == "" {
		return out
	}

	lower := strings.ToLower(text)
	for _, r := range d.rules {
		if out.Has(r.Key) {
			continue
		}
		if v, ok := r.Match(text, lower); ok && strings.TrimSpace(v) != "" {
			out.Set(r.Key, v)
		}
	}
	return out
}

// DefaultRules is the ordered rule set used by the deterministic extractor.
func DefaultRules(assumedYear string) []Rule {
	return []Rule{
		{Key: model.FactName, Match: matchName},
		{Key: model.FactPhone, Match: firstGroup(phonePattern, false)},
		{Key: model.FactEmail, Match: firstGroup(emailPattern, false)},
		{Key: model.FactPartySize, Match: firstOf(partySizePatterns)},
		{Key: model.FactReservationDate, Match: bookingDate(assumedYear)},
		{Key: model.FactReservationTime, Match: matchTime},
		{Key: model.FactSeatingPreference, Match: matchSeating},
		{Key: model.FactWantsToBook, Match: containsAny(wantsToBookPhrases)},
		{Key: model.FactClaimsExistingReservation, Match: containsAny(existingReservationPhrases)},
		{Key: model.FactBudget, Match: matchBudget},
		{Key: model.FactBedrooms, Match: firstGroup(bedroomsPattern, true)},
		{Key: model.FactBathrooms, Match: firstGroup(bathroomsPattern, true)},
		{Key: model.FactStayDuration, Match: matchStayDuration},
		{Key: model.FactRoomType, Match: matchRoomType},
		{Key: model.FactMembershipType, Match: matchMembership},
		{Key: model.FactServiceInterest, Match: firstGroup(servicePattern, true)},
		{Key: model.FactSignedUpFor, Match: matchSignedUpFor},
	}
}
