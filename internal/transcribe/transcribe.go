// Package transcribe converts recorded speech to text.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"voice_agent/internal/logger"
	"voice_agent/internal/model"
)

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("transcription API key not configured")

// Transcriber turns audio into text. Unrecognisable audio yields "".
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
}

// Whisper transcribes through the OpenAI audio API.
type Whisper struct {
	client     openai.Client
	model      string
	configured bool
}

// NewWhisper creates a Whisper transcriber from cfg.
func NewWhisper(cfg model.TranscribeConfig) *Whisper {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	m := cfg.Model
	if m == "" {
		m = openai.AudioModelWhisper1
	}
	return &Whisper{
		client:     openai.NewClient(opts...),
		model:      m,
		configured: cfg.APIKey != "",
	}
}

func (w *Whisper) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	if !w.configured {
		return "", ErrNotConfigured
	}
	if filename == "" {
		filename = "recording.webm"
	}

	resp, err := w.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:  openai.File(audio, filename, contentType(filename)),
		Model: w.model,
	})
	if err != nil {
		return "", fmt.Errorf("transcription failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text)
	logger.Debug().Int("chars", len(text)).Msg("audio transcribed")
	return text, nil
}

func contentType(filename string) string {
	if ct := mime.TypeByExtension(filepath.Ext(filename)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
