package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"voice_agent/internal/logger"
	"voice_agent/internal/model"
)

// RunsClient talks to a runs-style reasoning API: a run is created with
// POST /runs and polled with GET /runs/{id} until it settles. Streaming uses
// POST /runs/stream.
type RunsClient struct {
	baseURL      string
	apiKey       string
	engine       string
	timeout      time.Duration
	pollInterval time.Duration
	maxPolls     int
	httpClient   *http.Client
}

// NewRunsClient builds a client from config.
func NewRunsClient(cfg model.GatewayConfig) *RunsClient {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.MaxPolls <= 0 {
		cfg.MaxPolls = 30
	}
	return &RunsClient{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		engine:       cfg.Engine,
		timeout:      cfg.Timeout,
		pollInterval: cfg.PollInterval,
		maxPolls:     cfg.MaxPolls,
		httpClient:   &http.Client{},
	}
}

type runInput struct {
	Instructions string `json:"instructions"`
	Tools        []Tool `json:"tools,omitempty"`
}

type runRequest struct {
	Engine string   `json:"engine"`
	Input  runInput `json:"input"`
}

type runResult struct {
	Answer    string `json:"answer"`
	ToolCalls any    `json:"tool_calls"`
	Sources   any    `json:"sources"`
}

type runResponse struct {
	RunID  string     `json:"runId"`
	Status string     `json:"status"`
	Result *runResult `json:"result"`
	Error  any        `json:"error"`
}

type streamPayload struct {
	Type    string `json:"type"`
	Content string `json:"content"`
	Error   any    `json:"error"`
}

func (c *RunsClient) Configured() bool {
	return c.apiKey != ""
}

// Submit creates a run and polls it to completion.
func (c *RunsClient) Submit(ctx context.Context, prompt string, tools []Tool) Result {
	if !c.Configured() {
		return failure("API key not configured")
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	log := logger.With().Str("engine", c.engine).Int("tools", len(tools)).Logger()
	start := time.Now()

	var created runResponse
	status, err := c.do(ctx, http.MethodPost, "/runs", c.request(prompt, tools), &created)
	if err != nil {
		log.Error().Err(err).Msg("failed to create run")
		return failure(err.Error())
	}
	if status != http.StatusOK && status != http.StatusCreated && status != http.StatusAccepted {
		return failure(fmt.Sprintf("API error: %d", status))
	}

	if created.RunID == "" {
		if created.Result != nil && created.Result.Answer != "" {
			return success(created.Result)
		}
		return failure("no runId in response")
	}
	log = log.With().Str("run_id", created.RunID).Logger()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for i := 0; i < c.maxPolls; i++ {
		select {
		case <-ctx.Done():
			log.Warn().Err(ctx.Err()).Msg("run abandoned")
			return failure(ctx.Err().Error())
		case <-ticker.C:
		}

		var run runResponse
		status, err := c.do(ctx, http.MethodGet, "/runs/"+created.RunID, nil, &run)
		if err != nil || status != http.StatusOK {
			log.Debug().Err(err).Int("status", status).Int("poll", i+1).Msg("poll failed")
			continue
		}

		switch run.Status {
		case "succeeded":
			if run.Result != nil && run.Result.Answer != "" {
				log.Info().Dur("took", time.Since(start)).Int("polls", i+1).Msg("run succeeded")
				return success(run.Result)
			}
		case "failed", "error", "cancelled":
			reason := "run " + run.Status
			if run.Error != nil {
				reason = fmt.Sprint(run.Error)
			}
			log.Error().Str("status", run.Status).Str("reason", reason).Msg("run failed")
			return failure(reason)
		}
	}

	log.Warn().Int("polls", c.maxPolls).Msg("run timed out")
	return failure("timeout")
}

func success(r *runResult) Result {
	return Result{Success: true, Answer: r.Answer, ToolCalls: r.ToolCalls, Sources: r.Sources}
}

// Stream opens a streaming run and forwards its deltas.
func (c *RunsClient) Stream(ctx context.Context, prompt string, tools []Tool) <-chan Event {
	out := make(chan Event, 16)

	go func() {
		defer close(out)

		if !c.Configured() {
			send(ctx, out, Event{Type: EventError, Err: "API key not configured"})
			return
		}

		body, err := sonic.Marshal(c.request(prompt, tools))
		if err != nil {
			send(ctx, out, Event{Type: EventError, Err: err.Error()})
			return
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/runs/stream", bytes.NewReader(body))
		if err != nil {
			send(ctx, out, Event{Type: EventError, Err: err.Error()})
			return
		}
		c.setHeaders(req)
		req.Header.Set("Accept", "text/event-stream")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			send(ctx, out, Event{Type: EventError, Err: err.Error()})
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			send(ctx, out, Event{Type: EventError, Err: fmt.Sprintf("API error: %d", resp.StatusCode)})
			return
		}

		c.relay(ctx, newSSEReader(resp.Body), out)
	}()

	return out
}

// relay converts SSE events into gateway events until a terminal one.
func (c *RunsClient) relay(ctx context.Context, reader *sseReader, out chan<- Event) {
	var answer strings.Builder
	for {
		ev, err := reader.Next()
		if err != nil {
			send(ctx, out, Event{Type: EventError, Err: err.Error()})
			return
		}
		if ev == nil || strings.TrimSpace(ev.Data) == "[DONE]" {
			break
		}

		var payload streamPayload
		if err := sonic.UnmarshalString(ev.Data, &payload); err != nil {
			logger.Debug().Err(err).Str("data", ev.Data).Msg("skipping unparsable stream event")
			continue
		}
		if payload.Type == "" {
			payload.Type = ev.Type
		}

		switch EventType(payload.Type) {
		case EventDelta:
			if payload.Content == "" {
				continue
			}
			answer.WriteString(payload.Content)
			if !send(ctx, out, Event{Type: EventDelta, Content: payload.Content}) {
				return
			}
		case EventError:
			send(ctx, out, Event{Type: EventError, Err: fmt.Sprint(payload.Error)})
			return
		case EventDone:
			send(ctx, out, Event{Type: EventDone, Content: answer.String()})
			return
		}
	}

	if answer.Len() == 0 {
		send(ctx, out, Event{Type: EventError, Err: "stream ended without an answer"})
		return
	}
	send(ctx, out, Event{Type: EventDone, Content: answer.String()})
}

func (c *RunsClient) request(prompt string, tools []Tool) runRequest {
	return runRequest{
		Engine: c.engine,
		Input:  runInput{Instructions: prompt, Tools: tools},
	}
}

func (c *RunsClient) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
}

// do sends a JSON request and decodes a JSON response into out.
func (c *RunsClient) do(ctx context.Context, method, path string, in, out any) (int, error) {
	var body io.Reader
	if in != nil {
		data, err := sonic.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	if len(data) > 0 && out != nil {
		if err := sonic.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
