package gateway

import (
	"bufio"
	"io"
	"strings"
)

// sseEvent is one event from a text/event-stream body.
type sseEvent struct {
	Type string
	Data string
}

// sseReader parses server-sent events. Multiple data lines of one event are
// joined with "\n"; comments and unknown fields are skipped.
type sseReader struct {
	scanner *bufio.Scanner
	current sseEvent
	lines   int
	hasData bool
}

func newSSEReader(src io.Reader) *sseReader {
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	return &sseReader{scanner: scanner}
}

// Next blocks until a complete event is read. It returns nil, nil at the end
// of the stream.
func (r *sseReader) Next() (*sseEvent, error) {
	for r.scanner.Scan() {
		line := strings.TrimSuffix(r.scanner.Text(), "\r")

		if line == "" {
			if r.hasData {
				return r.take(), nil
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		r.parseLine(line)
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	// stream ended without a trailing blank line
	if r.hasData {
		return r.take(), nil
	}
	return nil, nil
}

func (r *sseReader) parseLine(line string) {
	field, value, _ := strings.Cut(line, ":")
	value = strings.TrimPrefix(value, " ")

	switch field {
	case "event":
		r.current.Type = value
		r.hasData = true
	case "data":
		if r.lines > 0 {
			r.current.Data += "\n"
		}
		r.current.Data += value
		r.lines++
		r.hasData = true
	}
}

func (r *sseReader) take() *sseEvent {
	ev := r.current
	r.current = sseEvent{}
	r.lines = 0
	r.hasData = false
	return &ev
}
