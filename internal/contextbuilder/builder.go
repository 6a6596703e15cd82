// Package contextbuilder assembles the prompt sent to the reasoning engine
// for one turn.
package contextbuilder

import (
	"fmt"
	"strings"

	"voice_agent/internal/model"
)

const responseInstructions = `[RESPONSE INSTRUCTIONS]
1. LISTEN FIRST: Don't assume you know what the customer wants. Ask clarifying questions if needed.
2. DON'T ASSUME: Never claim to have information you don't have. If unsure, ASK.
3. Be conversational and warm - you're on a phone call.
4. Keep responses concise (2-3 sentences).
5. Use the customer's name if you know it.
6. If the customer mentions a problem or concern, acknowledge it with empathy FIRST, then ask how you can help.
7. Always gather NAME, DATE/TIME and PARTY SIZE before confirming any booking.
8. Do not include role labels like "Agent:" - just speak directly.`

const criticalRules = `CRITICAL RULES:
- NEVER say "I have your reservation right here" unless you actually have their name + date + time above
- If they say "I want to make a reservation" - that means they DON'T have one yet, ASK for details!
- Always gather: NAME, DATE/TIME, PARTY SIZE before confirming any booking
- Be helpful and conversational while collecting this information`

// Input is everything one prompt is built from.
type Input struct {
	BusinessName string
	SystemPrompt string
	// FactSummary is the rendered fact block, empty when nothing is known.
	FactSummary string
	History     []model.Turn
	Utterance   string
	Facts       model.FactSet
	Returning   bool
}

// Build renders the prompt. Blocks with nothing to show are left out.
func Build(in Input) string {
	sections := []string{
		fmt.Sprintf("You are the voice agent for %s.", in.BusinessName),
		"[YOUR ROLE AND INSTRUCTIONS]\n" + strings.TrimSpace(in.SystemPrompt),
	}

	if s := strings.TrimSpace(in.FactSummary); s != "" {
		sections = append(sections, s)
	}
	if len(in.History) > 0 {
		sections = append(sections, renderHistory(in.History))
	}

	sections = append(sections,
		"[CURRENT MESSAGE FROM CUSTOMER]\nCustomer: "+strings.TrimSpace(in.Utterance),
		responseInstructions,
		reservationGuidance(in.Facts, in.Returning),
	)
	return strings.Join(sections, "\n\n")
}

func renderHistory(turns []model.Turn) string {
	var b strings.Builder
	b.WriteString("[CONVERSATION HISTORY]")
	for _, t := range turns {
		b.WriteByte('\n')
		if t.Role == model.RoleAgent {
			b.WriteString("Agent: ")
		} else {
			b.WriteString("Customer: ")
		}
		b.WriteString(t.Text)
	}
	return b.String()
}

// HasCompleteReservation reports whether the facts describe a booking the
// agent can confirm back: a known returning customer, or a name with a date
// or a time.
func HasCompleteReservation(facts model.FactSet, returning bool) bool {
	hasName := facts.Name() != ""
	if returning && hasName {
		return true
	}
	return hasName && (facts.Has(model.FactReservationDate) || facts.Has(model.FactReservationTime))
}

func reservationGuidance(facts model.FactSet, returning bool) string {
	lines := []string{"[HANDLING RESERVATIONS]"}
	if HasCompleteReservation(facts, returning) {
		lines = append(lines, "RETURNING CUSTOMER: You have their complete reservation details above - confirm them!")
		return strings.Join(lines, "\n")
	}

	wantsToBook := facts.Has(model.FactWantsToBook)
	if wantsToBook {
		lines = append(lines, "CUSTOMER WANTS TO BOOK: They want to CREATE a new reservation. You MUST ask for missing information BEFORE confirming anything:")
	}
	if facts.Name() == "" {
		lines = append(lines, "- Ask for their NAME first if you don't have it")
	}
	if !facts.Has(model.FactReservationDate) && !facts.Has(model.FactReservationTime) {
		lines = append(lines, "- Ask what DATE/TIME they prefer")
	}
	if !facts.Has(model.FactPartySize) {
		lines = append(lines, "- Ask how many GUESTS/PEOPLE")
	}
	if wantsToBook {
		lines = append(lines, "- Only CONFIRM the booking once you have: name, date/time, and party size")
	}
	if facts.Has(model.FactClaimsExistingReservation) && facts.Name() == "" {
		lines = append(lines, "CUSTOMER CLAIMS EXISTING RESERVATION: Ask for their NAME to look it up.")
	}

	lines = append(lines, "", criticalRules)
	return strings.Join(lines, "\n")
}
