package facts

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"voice_agent/internal/model"
)

func TestConfirmationExtractsRepeatedDetails(t *testing.T) {
	reply := "Great, you're all set! Your table for 4 is reserved for tomorrow at 7:30 pm."
	facts := Confirmation{}.Extract(reply, model.FactSet{})

	assert.Equal(t, model.FactTrue, facts.Value(model.FactHasReservation))
	assert.Equal(t, "tomorrow", facts.Value(model.FactReservationDate))
	assert.Equal(t, "7:30 pm", facts.Value(model.FactReservationTime))
	assert.Equal(t, "4", facts.Value(model.FactPartySize))
}

func TestConfirmationKeepsKnownFacts(t *testing.T) {
	known := model.NewFactSet(model.FactPartySize, "2", model.FactReservationDate, "Friday")
	facts := Confirmation{}.Extract("Your booking is confirmed for March 12 at 8pm for 6 guests.", known)

	assert.Equal(t, model.FactTrue, facts.Value(model.FactHasReservation))
	assert.Equal(t, "8pm", facts.Value(model.FactReservationTime))
	assert.False(t, facts.Has(model.FactPartySize))
	assert.False(t, facts.Has(model.FactReservationDate))
}

func TestConfirmationMonthDay(t *testing.T) {
	facts := Confirmation{}.Extract("You're booked for March 12 at 8pm, party of 3.", model.FactSet{})
	assert.Equal(t, "March 12", facts.Value(model.FactReservationDate))
	assert.Equal(t, "3", facts.Value(model.FactPartySize))
}

func TestConfirmationIgnoresOrdinaryReplies(t *testing.T) {
	facts := Confirmation{}.Extract("Sure, what time works for you tomorrow?", model.FactSet{})
	assert.Equal(t, 0, facts.Len())
}
