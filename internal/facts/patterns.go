package facts

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"voice_agent/internal/model"
)

var (
	phonePattern = regexp.MustCompile(`(\d{3}[-.\s]?\d{3}[-.\s]?\d{4}|\(\d{3}\)\s*\d{3}[-.\s]?\d{4})`)
	emailPattern = regexp.MustCompile(`([\w.-]+@[\w.-]+\.\w+)`)

	partySizePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(\d+)\s*(?:people|persons|guests|of us)`),
		regexp.MustCompile(`party of (\d+)`),
		regexp.MustCompile(`table for (\d+)`),
		regexp.MustCompile(`room for (\d+)`),
		regexp.MustCompile(`for (\d+)\b`),
		regexp.MustCompile(`(\d+)\s*(?:adults?|kids?|children)`),
	}

	bookingContextWords = []string{
		"book", "reserv", "appointment", "schedule", "table for", "room for",
		"want to", "like to", "need to", "can i", "available", "opening", "slot",
	}

	monthDayPattern = regexp.MustCompile(`(january|february|march|april|may|june|july|august|september|october|november|december)\s+(\d{1,2})(?:st|nd|rd|th)?(?:\s*,?\s*(\d{4}))?`)
	relativeDates   = []labelPattern{
		{regexp.MustCompile(`(today|tonight)`), "today"},
		{regexp.MustCompile(`(tomorrow)`), "tomorrow"},
		{regexp.MustCompile(`(this weekend)`), "this weekend"},
		{regexp.MustCompile(`(next week)`), "next week"},
		{regexp.MustCompile(`(monday|tuesday|wednesday|thursday|friday|saturday|sunday)`), ""},
		{regexp.MustCompile(`(\d{1,2}[/\-]\d{1,2}(?:[/\-]\d{2,4})?)`), ""},
	}

	timePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(\d{1,2}:\d{2}\s*(?:am|pm|a\.m\.|p\.m\.))`),
		regexp.MustCompile(`(\d{1,2}\s*(?:am\b|pm\b|a\.m\.|p\.m\.))`),
		regexp.MustCompile(`(\d{1,2}\s*o'?clock)`),
	}
	atHourPattern   = regexp.MustCompile(`at\s+(\d{1,2})\b`)
	atHourExclusion = regexp.MustCompile(`^\s*(?:st|nd|rd|th|people|guests|person)`)

	seatingPatterns = []labelPattern{
		{regexp.MustCompile(`\b(?:terrace|patio|outdoor|outside)\b`), "outdoor terrace"},
		{regexp.MustCompile(`\b(?:indoor|inside)\b`), "indoor"},
		{regexp.MustCompile(`\b(?:private room|private dining)\b`), "private room"},
		{regexp.MustCompile(`\b(?:bar|counter)\b`), "bar area"},
		{regexp.MustCompile(`\b(?:window|by the window)\b`), "window seat"},
	}

	wantsToBookPhrases = []string{
		"want to book", "want to make", "want to reserve", "like to book",
		"like to make", "like to reserve", "need to book", "need to make",
		"can i book", "can i make", "can i reserve", "make a reservation",
		"book a table", "book a room", "schedule an appointment", "need an appointment",
	}
	existingReservationPhrases = []string{
		"my reservation", "my appointment", "my booking", "i have a reservation",
		"i have an appointment", "i have a booking", "i booked", "i reserved",
		"i made a reservation", "check my", "look up my", "find my",
	}

	budgetPatterns = []struct {
		re         *regexp.Regexp
		multiplier float64
		raw        bool
	}{
		{regexp.MustCompile(`\$\s*([\d,]+(?:\.\d{2})?)\s*(?:million|m)\b`), 1_000_000, false},
		{regexp.MustCompile(`\$\s*([\d,]+(?:\.\d{2})?)\s*(?:k|thousand)\b`), 1_000, false},
		{regexp.MustCompile(`\$\s*([\d,]+(?:\.\d{2})?)`), 1, true},
		{regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:million|m)\b\s*(?:dollars?)?`), 1_000_000, false},
		{regexp.MustCompile(`(\d+)\s*(?:k|thousand)\b\s*(?:dollars?)?`), 1_000, false},
	}

	bedroomsPattern     = regexp.MustCompile(`(\d+)\s*bed(?:room)?s?\b`)
	bathroomsPattern    = regexp.MustCompile(`(\d+)\s*bath(?:room)?s?\b`)
	stayDurationPattern = regexp.MustCompile(`for\s*(\d+)\s*(night|day)s?\b`)
	roomTypePattern     = regexp.MustCompile(`\b(standard|deluxe|suite|king|queen|double|single|twin)\s+(room|suite|bed)\b`)
	membershipPatterns  = []*regexp.Regexp{
		regexp.MustCompile(`\b(basic|plus|premium|vip|gold|silver|platinum|student|family)\s+(?:membership|plan|package|tier)\b`),
		regexp.MustCompile(`(?:i have|i've got|i got|signed up for)\s+(?:a |an |the )?([a-z]+)\s+(?:membership|plan|package|subscription)\b`),
	}
	servicePattern  = regexp.MustCompile(`\b(haircut|coloring|color|highlights|blowout|manicure|pedicure|facial|massage|checkup|check-up|physical|consultation|cleaning|vaccination|viewing|tour|personal training|yoga|spin class)\b`)
	signedUpPattern = regexp.MustCompile(`signed up for\s+(?:a |an |the )?([a-z]+(?:\s+[a-z]+)?)`)
)

type labelPattern struct {
	re    *regexp.Regexp
	label string
}

// firstGroup returns the first capture group of re, matched against the
// lower-cased text when useLower is set.
func firstGroup(re *regexp.Regexp, useLower bool) func(text, lower string) (string, bool) {
	return func(text, lower string) (string, bool) {
		src := text
		if useLower {
			src = lower
		}
		m := re.FindStringSubmatch(src)
		if m == nil {
			return "", false
		}
		return strings.TrimSpace(m[1]), true
	}
}

func firstOf(patterns []*regexp.Regexp) func(text, lower string) (string, bool) {
	return func(_, lower string) (string, bool) {
		return firstMatch(patterns, lower)
	}
}

func firstMatch(patterns []*regexp.Regexp, s string) (string, bool) {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(s); m != nil {
			return strings.TrimSpace(m[1]), true
		}
	}
	return "", false
}

func containsAny(phrases []string) func(text, lower string) (string, bool) {
	return func(_, lower string) (string, bool) {
		if hasAny(lower, phrases) {
			return model.FactTrue, true
		}
		return "", false
	}
}

func hasAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// bookingDate only looks for a date when the utterance is about booking.
func bookingDate(assumedYear string) func(text, lower string) (string, bool) {
	return func(_, lower string) (string, bool) {
		if !hasAny(lower, bookingContextWords) {
			return "", false
		}

		if m := monthDayPattern.FindStringSubmatch(lower); m != nil {
			year := m[3]
			if year == "" {
				year = assumedYear
			}
			return fmt.Sprintf("%s %s, %s", titleCase(m[1]), m[2], year), true
		}

		for _, p := range relativeDates {
			if m := p.re.FindStringSubmatch(lower); m != nil {
				if p.label != "" {
					return p.label, true
				}
				return titleCase(m[1]), true
			}
		}
		return "", false
	}
}

func matchTime(_, lower string) (string, bool) {
	if v, ok := firstMatch(timePatterns, lower); ok {
		return v, true
	}

	// "at 8" but not "at 25th" or "at 3 people"
	for _, loc := range atHourPattern.FindAllStringSubmatchIndex(lower, -1) {
		if atHourExclusion.MatchString(lower[loc[1]:]) {
			continue
		}
		return lower[loc[2]:loc[3]], true
	}
	return "", false
}

func matchSeating(_, lower string) (string, bool) {
	for _, p := range seatingPatterns {
		if p.re.MatchString(lower) {
			return p.label, true
		}
	}
	return "", false
}

func matchBudget(_, lower string) (string, bool) {
	for _, p := range budgetPatterns {
		m := p.re.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		if p.raw {
			return "$" + m[1], true
		}
		n, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err != nil {
			continue
		}
		return "$" + formatThousands(int64(n*p.multiplier+0.5)), true
	}
	return "", false
}

func matchStayDuration(_, lower string) (string, bool) {
	m := stayDurationPattern.FindStringSubmatch(lower)
	if m == nil {
		return "", false
	}
	unit := m[2]
	if m[1] != "1" {
		unit += "s"
	}
	return m[1] + " " + unit, true
}

func matchRoomType(_, lower string) (string, bool) {
	m := roomTypePattern.FindStringSubmatch(lower)
	if m == nil {
		return "", false
	}
	return titleCase(m[1] + " " + m[2]), true
}

func matchMembership(_, lower string) (string, bool) {
	v, ok := firstMatch(membershipPatterns, lower)
	if !ok {
		return "", false
	}
	return titleCase(v), true
}

func matchSignedUpFor(_, lower string) (string, bool) {
	m := signedUpPattern.FindStringSubmatch(lower)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

func formatThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
