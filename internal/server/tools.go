package server

import (
	"net/http"

	"voice_agent/internal/logger"
	"voice_agent/internal/services"
)

// The tool endpoints are called back by the reasoning engine while it
// answers. Missing fields are reported in the body, not as HTTP errors.

func (s *Server) lookupCustomerHandler(w http.ResponseWriter, r *http.Request) {
	var req services.LookupRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := s.deps.Booking.LookupCustomer(r.Context(), req)
	if err != nil {
		logger.Error().Err(err).Msg("lookup_customer failed")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) saveBookingHandler(w http.ResponseWriter, r *http.Request) {
	var req services.BookingRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := s.deps.Booking.SaveBooking(r.Context(), req)
	if err != nil {
		logger.Error().Err(err).Msg("save_booking failed")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) checkAvailabilityHandler(w http.ResponseWriter, r *http.Request) {
	var req services.AvailabilityRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Availability.Check(r.Context(), req))
}

func (s *Server) businessInfoHandler(w http.ResponseWriter, r *http.Request) {
	var req services.BusinessInfoRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Booking.BusinessInfo(r.Context(), req))
}
