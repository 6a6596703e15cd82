package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bytedance/sonic"

	"voice_agent/internal/gateway"
	"voice_agent/internal/logger"
	"voice_agent/internal/orchestrator"
)

const probePrompt = "Say 'API connection successful!' and nothing else."

type chatRequest struct {
	Message    string `json:"message"`
	BusinessID string `json:"business_id"`
	SessionID  string `json:"session_id"`
}

func (c chatRequest) turn() orchestrator.TurnRequest {
	return orchestrator.TurnRequest{SessionID: c.SessionID, BusinessID: c.BusinessID, Message: c.Message}
}

type chatResponse struct {
	Success  bool   `json:"success"`
	Response string `json:"response"`
	Business string `json:"business,omitempty"`
	Error    string `json:"error,omitempty"`
}

type sessionRequest struct {
	BusinessID string `json:"business_id"`
	SessionID  string `json:"session_id"`
}

func (s *Server) chatHandler(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := s.deps.Orchestrator.HandleTurn(r.Context(), req.turn())
	if err != nil {
		s.turnError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Success:  res.Success,
		Response: res.Answer,
		Business: res.Business,
		Error:    res.Error,
	})
}

func (s *Server) turnError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, orchestrator.ErrEmptyUtterance):
		writeError(w, http.StatusBadRequest, "No message provided")
	case errors.Is(err, orchestrator.ErrUnknownBusiness):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		logger.Error().Err(err).Msg("turn failed")
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (s *Server) chatStreamHandler(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	events, err := s.deps.Orchestrator.StreamTurn(r.Context(), req.turn())
	if err != nil {
		s.turnError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)

	for ev := range events {
		data, err := sonic.Marshal(gateway.Event{Type: ev.Type, Content: ev.Content})
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		if flusher != nil {
			flusher.Flush()
		}
	}
	fmt.Fprint(w, "data: [DONE]\n\n")
	if flusher != nil {
		flusher.Flush()
	}
}

func (s *Server) greetingHandler(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	g, err := s.deps.Orchestrator.Greeting(r.Context(), req.SessionID, req.BusinessID)
	if err != nil {
		logger.Error().Err(err).Msg("greeting failed")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) resetHandler(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.deps.Orchestrator.Reset(r.Context(), req.SessionID); err != nil {
		logger.Error().Err(err).Msg("reset failed")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Conversation reset"})
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "healthy",
		"api_configured": s.deps.Gateway.Configured(),
		"timestamp":      time.Now().Format(time.RFC3339),
	})
}

func (s *Server) businessesHandler(w http.ResponseWriter, _ *http.Request) {
	out := make(map[string]any)
	for _, b := range s.deps.Catalog.List() {
		out[b.ID] = b
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) debugCustomersHandler(w http.ResponseWriter, r *http.Request) {
	snap, err := s.deps.Orchestrator.Snapshot(r.Context())
	if err != nil {
		logger.Error().Err(err).Msg("snapshot failed")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) debugTestHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Gateway.Submit(r.Context(), probePrompt, nil))
}

func (s *Server) transcribeHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAudioBytes)
	file, header, err := r.FormFile("audio")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "No audio file provided", "text": ""})
		return
	}
	defer file.Close()

	if header.Size == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Empty audio file", "text": ""})
		return
	}

	text, err := s.deps.Transcriber.Transcribe(r.Context(), file, header.Filename)
	if err != nil {
		logger.Warn().Err(err).Msg("transcription failed")
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "error": err.Error(), "text": ""})
		return
	}
	if text == "" {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "error": "Could not understand audio", "text": ""})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "text": text})
}
