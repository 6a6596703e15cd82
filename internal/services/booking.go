package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"voice_agent/internal/catalog"
	"voice_agent/internal/directory"
	"voice_agent/internal/logger"
	"voice_agent/internal/model"
)

// LookupRequest names the customer to find.
type LookupRequest struct {
	CustomerName string `json:"customer_name" jsonschema:"description=The customer's name to look up"`
	BusinessID   string `json:"business_id" jsonschema:"description=The business identifier such as hotel or restaurant"`
}

// LookupResult carries the stored facts when the customer is known.
type LookupResult struct {
	Found    bool           `json:"found"`
	Customer *model.FactSet `json:"customer,omitempty"`
	Message  string         `json:"message"`
}

// BookingRequest saves a confirmed booking for a customer.
type BookingRequest struct {
	CustomerName   string         `json:"customer_name" jsonschema:"description=Customer's full name"`
	BusinessID     string         `json:"business_id" jsonschema:"description=Business identifier"`
	BookingDetails map[string]any `json:"booking_details" jsonschema:"description=Booking details such as date and time and party_size"`
}

// BookingResult reports the outcome of a save.
type BookingResult struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Booking *model.FactSet `json:"booking,omitempty"`
}

// BusinessInfoRequest selects a business.
type BusinessInfoRequest struct {
	BusinessID string `json:"business_id" jsonschema:"description=Business identifier"`
}

// BusinessInfo is the public description of a business.
type BusinessInfo struct {
	Name           string   `json:"name,omitempty"`
	Greeting       string   `json:"greeting,omitempty"`
	SampleServices []string `json:"sample_services,omitempty"`
	Error          string   `json:"error,omitempty"`
}

// BookingService serves customer lookups and bookings from the directory.
type BookingService struct {
	dir     directory.Directory
	catalog *catalog.Catalog
}

// NewBookingService creates the service over dir and the business catalog.
func NewBookingService(dir directory.Directory, cat *catalog.Catalog) *BookingService {
	return &BookingService{dir: dir, catalog: cat}
}

// LookupCustomer finds a customer by name. A missing name is answered, not
// treated as an error.
func (s *BookingService) LookupCustomer(ctx context.Context, req LookupRequest) (LookupResult, error) {
	name := strings.TrimSpace(req.CustomerName)
	if name == "" {
		return LookupResult{Message: "No customer name provided"}, nil
	}

	facts, found, err := s.dir.Find(ctx, name, req.BusinessID)
	if err != nil {
		return LookupResult{}, fmt.Errorf("failed to look up customer: %w", err)
	}
	if !found {
		return LookupResult{Message: fmt.Sprintf("No record found for %s. They may be a new customer.", name)}, nil
	}
	return LookupResult{
		Found:    true,
		Customer: &facts,
		Message:  fmt.Sprintf("Found customer %s in our records", name),
	}, nil
}

// SaveBooking merges the booking details into the customer's record and
// marks the booking confirmed.
func (s *BookingService) SaveBooking(ctx context.Context, req BookingRequest) (BookingResult, error) {
	name := strings.TrimSpace(req.CustomerName)
	if name == "" {
		return BookingResult{Message: "Customer name is required"}, nil
	}

	booking := model.NewFactSet(model.FactName, name)
	for _, k := range sortedKeys(req.BookingDetails) {
		key := model.NormalizeFactKey(k)
		if key == "" || key == model.FactName {
			continue
		}
		if v := detailValue(req.BookingDetails[k]); v != "" {
			booking.Set(key, v)
		}
	}
	booking.Set(model.FactBookingConfirmed, model.FactTrue)

	if _, err := s.dir.Save(ctx, name, req.BusinessID, booking); err != nil {
		return BookingResult{}, fmt.Errorf("failed to save booking: %w", err)
	}
	logger.Info().
		Str("business_id", req.BusinessID).
		Str("customer", name).
		Int("facts", booking.Len()).
		Msg("booking saved")

	return BookingResult{
		Success: true,
		Message: "Booking saved for " + name,
		Booking: &booking,
	}, nil
}

// BusinessInfo describes a business from the catalog.
func (s *BookingService) BusinessInfo(_ context.Context, req BusinessInfoRequest) BusinessInfo {
	b, ok := s.catalog.Get(req.BusinessID)
	if !ok {
		return BusinessInfo{Error: "Business not found"}
	}
	return BusinessInfo{
		Name:           b.Name,
		Greeting:       b.Greeting,
		SampleServices: b.SampleQueries,
	}
}

// detailValue renders a JSON scalar as fact text; nested values are dropped.
func detailValue(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
