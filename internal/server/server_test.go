package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice_agent/internal/catalog"
	"voice_agent/internal/directory"
	"voice_agent/internal/facts"
	"voice_agent/internal/gateway"
	"voice_agent/internal/orchestrator"
	"voice_agent/internal/services"
	"voice_agent/internal/session"
)

type fakeGateway struct {
	answer string
}

func (g fakeGateway) Submit(context.Context, string, []gateway.Tool) gateway.Result {
	return gateway.Result{Success: true, Answer: g.answer}
}

func (g fakeGateway) Stream(context.Context, string, []gateway.Tool) <-chan gateway.Event {
	out := make(chan gateway.Event, 3)
	out <- gateway.Event{Type: gateway.EventDelta, Content: g.answer}
	out <- gateway.Event{Type: gateway.EventDone, Content: g.answer}
	close(out)
	return out
}

func (fakeGateway) Configured() bool { return true }

type fakeTranscriber struct {
	text string
	err  error
}

func (f fakeTranscriber) Transcribe(_ context.Context, audio io.Reader, _ string) (string, error) {
	_, _ = io.ReadAll(audio)
	return f.text, f.err
}

func newTestServer(t *testing.T, tr fakeTranscriber) *httptest.Server {
	t.Helper()
	dir := directory.NewMemory()
	cat := catalog.New("hotel")
	gw := fakeGateway{answer: "Assistant: How can I help?"}
	orch := orchestrator.New(orchestrator.Deps{
		Sessions:  session.NewManager(session.NewMemoryRepository(), dir, 20),
		Directory: dir,
		Catalog:   cat,
		Extractor: facts.NewDeterministic("2025"),
		Gateway:   gw,
	})
	srv := httptest.NewServer(New(Deps{
		Orchestrator: orch,
		Catalog:      cat,
		Gateway:      gw,
		Transcriber:  tr,
		Booking:      services.NewBookingService(dir, cat),
		Availability: services.NewAvailabilityService(),
	}).Router())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, sonic.Unmarshal(raw, &out), string(raw))
	return resp.StatusCode, out
}

func TestChatEndpoint(t *testing.T) {
	srv := newTestServer(t, fakeTranscriber{})

	status, body := post(t, srv.URL+"/api/chat", `{"message":"I'd like to book a room","business_id":"hotel","session_id":"s1"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "How can I help?", body["response"])
	assert.Equal(t, "Grand Plaza Hotel", body["business"])
}

func TestChatValidation(t *testing.T) {
	srv := newTestServer(t, fakeTranscriber{})

	status, body := post(t, srv.URL+"/api/chat", `{"message":"  "}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "No message provided", body["error"])

	status, _ = post(t, srv.URL+"/api/chat", `{"message":"hi","business_id":"bakery"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = post(t, srv.URL+"/api/chat", `{not json`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestChatStreamEndpoint(t *testing.T) {
	srv := newTestServer(t, fakeTranscriber{})

	resp, err := http.Post(srv.URL+"/api/chat/stream", "application/json",
		strings.NewReader(`{"message":"hello","session_id":"s1"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(raw)
	assert.Contains(t, text, `data: {"type":"delta","content":"Assistant: How can I help?"}`)
	assert.Contains(t, text, `data: {"type":"done","content":"How can I help?"}`)
	assert.True(t, strings.HasSuffix(text, "data: [DONE]\n\n"))
}

func TestGreetingResetAndDebug(t *testing.T) {
	srv := newTestServer(t, fakeTranscriber{})

	status, body := post(t, srv.URL+"/api/greeting", `{"business_id":"clinic"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "CityCare Medical Clinic", body["name"])

	status, body = post(t, srv.URL+"/api/greeting", ``)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Grand Plaza Hotel", body["name"])

	post(t, srv.URL+"/api/chat", `{"message":"My name is Ana Diaz, call me at 555-867-5309","session_id":"s1"}`)

	resp, err := http.Get(srv.URL + "/api/debug/customers")
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(raw), `"hotel:ana diaz"`)
	assert.Contains(t, string(raw), `555-867-5309`)

	status, body = post(t, srv.URL+"/api/reset", `{"session_id":"s1"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
}

func TestHealthAndBusinesses(t *testing.T) {
	srv := newTestServer(t, fakeTranscriber{})

	resp, err := http.Get(srv.URL + "/api/health")
	require.NoError(t, err)
	var health map[string]any
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, sonic.Unmarshal(raw, &health))
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, true, health["api_configured"])

	resp, err = http.Get(srv.URL + "/api/businesses")
	require.NoError(t, err)
	var businesses map[string]map[string]any
	raw, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, sonic.Unmarshal(raw, &businesses))
	require.Contains(t, businesses, "gym")
	assert.Equal(t, "FitLife Gym", businesses["gym"]["name"])
	assert.NotContains(t, businesses["gym"], "system_prompt")
}

func uploadAudio(t *testing.T, url string, content []byte) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if content != nil {
		fw, err := mw.CreateFormFile("audio", "clip.webm")
		require.NoError(t, err)
		_, _ = fw.Write(content)
	}
	require.NoError(t, mw.Close())

	resp, err := http.Post(url, mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	raw, _ := io.ReadAll(resp.Body)
	require.NoError(t, sonic.Unmarshal(raw, &out))
	return resp.StatusCode, out
}

func TestTranscribeEndpoint(t *testing.T) {
	srv := newTestServer(t, fakeTranscriber{text: "table for two"})
	status, body := uploadAudio(t, srv.URL+"/api/transcribe", []byte("audio"))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "table for two", body["text"])

	status, body = uploadAudio(t, srv.URL+"/api/transcribe", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "No audio file provided", body["error"])

	failing := newTestServer(t, fakeTranscriber{err: errors.New("boom")})
	status, body = uploadAudio(t, failing.URL+"/api/transcribe", []byte("audio"))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["success"])
}

func TestToolEndpoints(t *testing.T) {
	srv := newTestServer(t, fakeTranscriber{})

	_, body := post(t, srv.URL+"/api/tools/save_booking",
		`{"customer_name":"Lee Park","business_id":"restaurant","booking_details":{"party_size":6,"date":"Friday"}}`)
	assert.Equal(t, true, body["success"])

	_, body = post(t, srv.URL+"/api/tools/lookup_customer", `{"customer_name":"lee park","business_id":"restaurant"}`)
	assert.Equal(t, true, body["found"])
	customer := body["customer"].(map[string]any)
	assert.Equal(t, "6", customer["party_size"])

	_, body = post(t, srv.URL+"/api/tools/lookup_customer", `{}`)
	assert.Equal(t, false, body["found"])

	_, body = post(t, srv.URL+"/api/tools/check_availability", `{"business_id":"hotel","date":"June 3"}`)
	assert.Equal(t, "We have rooms available for June 3.", body["message"])

	_, body = post(t, srv.URL+"/api/tools/get_business_info", `{"business_id":"nowhere"}`)
	assert.Equal(t, "Business not found", body["error"])
}
