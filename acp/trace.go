package acp

import (
	"encoding/json"
	"io"
	"strconv"
	"sync"
	"time"
)

// TraceEntry wraps one wire message with metadata for debugging and fixtures.
type TraceEntry struct {
	ID        string          `json:"id"`
	Timestamp string          `json:"timestamp"`
	Direction string          `json:"direction"` // "sent" or "received"
	Message   json.RawMessage `json:"message"`
}

// Trace directions.
const (
	TraceSent     = "sent"
	TraceReceived = "received"
)

// traceWriter serializes JSONL trace entries to a writer.
type traceWriter struct {
	mu   sync.Mutex
	w    io.Writer
	next int
	now  func() time.Time
}

func newTraceWriter(w io.Writer) *traceWriter {
	return &traceWriter{w: w, now: time.Now}
}

func (t *traceWriter) record(direction string, message []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	entry := TraceEntry{
		ID:        "trace-" + strconv.Itoa(t.next),
		Timestamp: t.now().UTC().Format(time.RFC3339Nano),
		Direction: direction,
		Message:   json.RawMessage(message),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	t.w.Write(append(data, '\n'))
}

// ParseTraceEntry parses a trace line and extracts the inner wire message.
// Falls back to treating the line as a raw wire message when the entry
// wrapper does not match (i.e. the line came from an unwrapped capture).
func ParseTraceEntry(line []byte) (json.RawMessage, error) {
	var entry TraceEntry
	if err := json.Unmarshal(line, &entry); err != nil || len(entry.Message) == 0 {
		var raw json.RawMessage
		if err := json.Unmarshal(line, &raw); err != nil {
			return nil, &ProtocolError{Message: "failed to parse trace line", Line: string(line), Cause: err}
		}
		return raw, nil
	}
	return entry.Message, nil
}
