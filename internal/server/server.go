// Package server exposes the voice agent over HTTP.
package server

import (
	"bytes"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi"
	"github.com/rs/cors"

	"voice_agent/internal/catalog"
	"voice_agent/internal/gateway"
	"voice_agent/internal/logger"
	"voice_agent/internal/orchestrator"
	"voice_agent/internal/services"
	"voice_agent/internal/transcribe"
)

// maxAudioBytes bounds an uploaded recording.
const maxAudioBytes = 32 << 20

// Deps are the components the HTTP handlers call into.
type Deps struct {
	Orchestrator *orchestrator.Orchestrator
	Catalog      *catalog.Catalog
	Gateway      gateway.Gateway
	Transcriber  transcribe.Transcriber
	Booking      *services.BookingService
	Availability *services.AvailabilityService
}

// Server holds the HTTP handlers.
type Server struct {
	deps Deps
}

// New creates the HTTP server handlers.
func New(deps Deps) *Server {
	return &Server{deps: deps}
}

// Router wires every route behind CORS and request logging.
func (s *Server) Router() *chi.Mux {
	router := chi.NewRouter()

	router.Use(cors.New(cors.Options{
		AllowCredentials: true,
		AllowedOrigins:   []string{"*"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Accept"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
	}).Handler)
	router.Use(logger.Middleware)

	router.Route("/api", func(r chi.Router) {
		r.Post("/chat", s.chatHandler)
		r.Post("/chat/stream", s.chatStreamHandler)
		r.Post("/greeting", s.greetingHandler)
		r.Post("/reset", s.resetHandler)
		r.Get("/health", s.healthHandler)
		r.Get("/businesses", s.businessesHandler)
		r.Post("/transcribe", s.transcribeHandler)

		r.Get("/debug/customers", s.debugCustomersHandler)
		r.Post("/debug/test", s.debugTestHandler)

		r.Post("/tools/lookup_customer", s.lookupCustomerHandler)
		r.Post("/tools/save_booking", s.saveBookingHandler)
		r.Post("/tools/check_availability", s.checkAvailabilityHandler)
		r.Post("/tools/get_business_info", s.businessInfoHandler)
	})

	return router
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	return sonic.Unmarshal(body, v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := sonic.ConfigDefault.NewEncoder(w).Encode(v); err != nil {
		logger.Warn().Err(err).Msg("failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
