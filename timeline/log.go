package timeline

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marimo-team/use-acp/acp"
)

// Kind is the coarse category of a notification.
type Kind string

const (
	KindUpdate     Kind = "acp"
	KindConnection Kind = "connection"
	KindError      Kind = "error"
)

// ConnectionChange is a snapshot of one endpoint's transport state at the
// moment it changed. Kept as plain strings so the timeline stays decoupled
// from the transport package.
type ConnectionChange struct {
	Endpoint string `json:"endpoint"`
	Phase    string `json:"phase"`
	Err      string `json:"error,omitempty"`
}

// Notification is one immutable entry in the event log. Exactly one of
// Update, Connection, or Err is populated, matching Kind.
type Notification struct {
	ID         string            `json:"id"`
	Timestamp  time.Time         `json:"timestamp"`
	Kind       Kind              `json:"kind"`
	SessionID  string            `json:"sessionId,omitempty"`
	Update     acp.SessionUpdate `json:"update,omitempty"`
	Connection *ConnectionChange `json:"connection,omitempty"`
	Err        string            `json:"error,omitempty"`
}

// NewUpdateNotification records a session update.
func NewUpdateNotification(sessionID string, update acp.SessionUpdate) Notification {
	return Notification{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Kind:      KindUpdate,
		SessionID: sessionID,
		Update:    update,
	}
}

// NewConnectionNotification records a transport state change.
func NewConnectionNotification(change ConnectionChange) Notification {
	return Notification{
		ID:         uuid.NewString(),
		Timestamp:  time.Now(),
		Kind:       KindConnection,
		Connection: &change,
	}
}

// NewErrorNotification records an error.
func NewErrorNotification(sessionID string, err error) Notification {
	return Notification{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Kind:      KindError,
		SessionID: sessionID,
		Err:       err.Error(),
	}
}

// Log is an append-only notification store. Appends and reads may run
// concurrently; readers always see a consistent snapshot. The only
// mutations besides Append are the explicit clear operations.
type Log struct {
	mu      sync.RWMutex
	entries []Notification
}

// NewLog creates an empty log.
func NewLog() *Log {
	return &Log{}
}

// Append adds one notification to the end of the log.
func (l *Log) Append(n Notification) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, n)
}

// All returns a snapshot copy of every notification in append order.
func (l *Log) All() []Notification {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Notification, len(l.entries))
	copy(out, l.entries)
	return out
}

// Session returns a snapshot of the notifications for one session, plus
// the session-less entries (connection changes), in append order.
func (l *Log) Session(sessionID string) []Notification {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Notification
	for _, n := range l.entries {
		if n.SessionID == sessionID || n.SessionID == "" {
			out = append(out, n)
		}
	}
	return out
}

// Len returns the number of notifications in the log.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// ClearSession removes every notification belonging to one session.
func (l *Log) ClearSession(sessionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kept := l.entries[:0]
	for _, n := range l.entries {
		if n.SessionID != sessionID {
			kept = append(kept, n)
		}
	}
	l.entries = kept
}

// Clear removes every notification.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}
