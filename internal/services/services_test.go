package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice_agent/internal/catalog"
	"voice_agent/internal/directory"
	"voice_agent/internal/model"
)

func TestCheckAvailability(t *testing.T) {
	s := NewAvailabilityService()
	ctx := context.Background()

	got := s.Check(ctx, AvailabilityRequest{BusinessID: "restaurant", Date: "Friday", Time: "7pm"})
	assert.True(t, got.Available)
	assert.Equal(t, "We have availability on Friday at 7pm. Would you like to book?", got.Message)
	assert.Contains(t, got.Options, "Outdoor terrace")

	got = s.Check(ctx, AvailabilityRequest{BusinessID: "salon", Date: "Saturday"})
	assert.Equal(t, "We have openings on Saturday.", got.Message)

	got = s.Check(ctx, AvailabilityRequest{BusinessID: "bakery", Date: "Monday"})
	assert.True(t, got.Available)
	assert.Equal(t, "Checking availability for Monday...", got.Message)
	assert.Empty(t, got.Options)
}

func TestBookingRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := directory.NewMemory()
	s := NewBookingService(dir, catalog.New("hotel"))

	res, err := s.LookupCustomer(ctx, LookupRequest{CustomerName: "John Smith", BusinessID: "restaurant"})
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Contains(t, res.Message, "new customer")

	saved, err := s.SaveBooking(ctx, BookingRequest{
		CustomerName: "John Smith",
		BusinessID:   "restaurant",
		BookingDetails: map[string]any{
			"party size": float64(4),
			"date":       "Friday",
			"notes":      map[string]any{"ignored": true},
			"outdoor":    true,
		},
	})
	require.NoError(t, err)
	assert.True(t, saved.Success)
	require.NotNil(t, saved.Booking)
	assert.Equal(t, "4", saved.Booking.Value(model.FactPartySize))
	assert.Equal(t, "true", saved.Booking.Value("outdoor"))
	assert.False(t, saved.Booking.Has("notes"))
	assert.Equal(t, model.FactTrue, saved.Booking.Value(model.FactBookingConfirmed))

	res, err = s.LookupCustomer(ctx, LookupRequest{CustomerName: "john smith", BusinessID: "restaurant"})
	require.NoError(t, err)
	require.True(t, res.Found)
	assert.Equal(t, "John Smith", res.Customer.Value(model.FactName))
	assert.Equal(t, "Friday", res.Customer.Value("date"))

	res, err = s.LookupCustomer(ctx, LookupRequest{CustomerName: "John Smith", BusinessID: "hotel"})
	require.NoError(t, err)
	assert.False(t, res.Found, "bookings are scoped to their business")
}

func TestBookingRequiresName(t *testing.T) {
	s := NewBookingService(directory.NewMemory(), catalog.New("hotel"))

	saved, err := s.SaveBooking(context.Background(), BookingRequest{BusinessID: "restaurant"})
	require.NoError(t, err)
	assert.False(t, saved.Success)
	assert.Equal(t, "Customer name is required", saved.Message)

	res, err := s.LookupCustomer(context.Background(), LookupRequest{CustomerName: "  "})
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Equal(t, "No customer name provided", res.Message)
}

func TestBusinessInfo(t *testing.T) {
	s := NewBookingService(directory.NewMemory(), catalog.New("hotel"))

	info := s.BusinessInfo(context.Background(), BusinessInfoRequest{BusinessID: "gym"})
	assert.Equal(t, "FitLife Gym", info.Name)
	assert.NotEmpty(t, info.SampleServices)

	info = s.BusinessInfo(context.Background(), BusinessInfoRequest{BusinessID: "bakery"})
	assert.Equal(t, "Business not found", info.Error)
}
