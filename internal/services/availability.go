// Package services holds the business-side backends that the reasoning
// engine calls as function tools.
package services

import (
	"context"
	"strings"
)

// AvailabilityRequest asks whether a business can take a booking.
type AvailabilityRequest struct {
	BusinessID  string `json:"business_id" jsonschema:"description=Business identifier"`
	Date        string `json:"date" jsonschema:"description=Date to check"`
	Time        string `json:"time,omitempty" jsonschema:"description=Time to check (optional)"`
	ServiceType string `json:"service_type,omitempty" jsonschema:"description=Type of service or room or table requested"`
}

// Availability is the answer to an AvailabilityRequest.
type Availability struct {
	Available bool     `json:"available"`
	Message   string   `json:"message"`
	Options   []string `json:"options,omitempty"`
}

type offer struct {
	message func(date, at string) string
	options []string
}

// AvailabilityService is a mock booking calendar: every business is always
// open and offers a fixed set of options.
type AvailabilityService struct {
	offers map[string]offer
}

// NewAvailabilityService creates the service with the mock offers.
func NewAvailabilityService() *AvailabilityService {
	return &AvailabilityService{
		offers: map[string]offer{
			"restaurant": {
				message: func(date, at string) string {
					return "We have availability on " + date + suffix(" at ", at) + ". Would you like to book?"
				},
				options: []string{"Indoor seating", "Outdoor terrace", "Private room"},
			},
			"hotel": {
				message: func(date, _ string) string { return "We have rooms available for " + date + "." },
				options: []string{"Standard Room ($199)", "Deluxe Room ($299)", "Suite ($499)"},
			},
			"salon": {
				message: func(date, at string) string {
					return "We have openings on " + date + suffix(" around ", at) + "."
				},
				options: []string{"Maria (Master Stylist)", "Jake (Color Specialist)", "Sofia"},
			},
			"gym": {
				message: func(_, _ string) string {
					return "You can start your membership anytime! We're open 5am-11pm weekdays."
				},
				options: []string{"Basic ($39/mo)", "Plus ($59/mo)", "Premium ($89/mo)"},
			},
			"clinic": {
				message: func(date, _ string) string { return "We have appointment slots on " + date + "." },
				options: []string{"Dr. Smith", "Dr. Chen", "Dr. Patel"},
			},
			"realestate": {
				message: func(date, _ string) string { return "We can schedule property viewings for " + date + "." },
				options: []string{"Available agents ready to help"},
			},
		},
	}
}

// Check answers an availability request. Unknown businesses get a generic
// holding answer.
func (s *AvailabilityService) Check(_ context.Context, req AvailabilityRequest) Availability {
	date := strings.TrimSpace(req.Date)
	at := strings.TrimSpace(req.Time)

	o, ok := s.offers[req.BusinessID]
	if !ok {
		return Availability{Available: true, Message: "Checking availability for " + date + "..."}
	}
	return Availability{
		Available: true,
		Message:   o.message(date, at),
		Options:   append([]string(nil), o.options...),
	}
}

func suffix(prefix, v string) string {
	if v == "" {
		return ""
	}
	return prefix + v
}
