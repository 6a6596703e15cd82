package facts

import (
	"regexp"
	"strings"

	"voice_agent/internal/model"
)

var (
	confirmationTriggers = []string{"reserved", "booked", "confirmed", "all set", "appointment is"}

	confirmedMonthDay = regexp.MustCompile(`(january|february|march|april|may|june|july|august|september|october|november|december)\s+(\d{1,2})`)
	confirmedRelative = regexp.MustCompile(`\b(tonight|today|tomorrow|this evening)\b`)
	confirmedTime     = regexp.MustCompile(`\bat\s+(\d{1,2}(?::\d{2})?\s*(?:am|pm|a\.m\.|p\.m\.)?)`)
	confirmedParty    = regexp.MustCompile(`(?:for|party of)\s+(\d+)|(\d+)\s+(?:people|guests)`)
)

// Confirmation reads an agent reply that confirms a booking and recovers the
// booking details it repeats back.
type Confirmation struct{}

// Extract returns has_reservation plus any date, time and party size found in
// reply whose keys are not already present in known. Replies that do not
// confirm anything yield an empty set.
func (Confirmation) Extract(reply string, known model.FactSet) model.FactSet {
	var out model.FactSet
	lower := strings.ToLower(reply)
	if !hasAny(lower, confirmationTriggers) {
		return out
	}

	out.Set(model.FactHasReservation, model.FactTrue)

	if !known.Has(model.FactReservationDate) {
		if m := confirmedMonthDay.FindStringSubmatch(lower); m != nil {
			out.Set(model.FactReservationDate, titleCase(m[1])+" "+m[2])
		} else if m := confirmedRelative.FindStringSubmatch(lower); m != nil {
			out.Set(model.FactReservationDate, m[1])
		}
	}

	if !known.Has(model.FactReservationTime) {
		if m := confirmedTime.FindStringSubmatch(lower); m != nil {
			out.Set(model.FactReservationTime, strings.TrimSpace(m[1]))
		}
	}

	if !known.Has(model.FactPartySize) {
		if m := confirmedParty.FindStringSubmatch(lower); m != nil {
			size := m[1]
			if size == "" {
				size = m[2]
			}
			out.Set(model.FactPartySize, size)
		}
	}
	return out
}
