package wsbridge

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Phase is one position in the transport's connection state machine.
type Phase int

const (
	PhaseDisconnected Phase = iota
	PhaseConnecting
	PhaseConnected
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseDisconnected:
		return "disconnected"
	case PhaseConnecting:
		return "connecting"
	case PhaseConnected:
		return "connected"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// State is one observed transport state: the phase, the endpoint it
// belongs to, and the error that caused it when the phase is PhaseError.
type State struct {
	Err      error
	Endpoint string
	Phase    Phase
}

// Observer is invoked on every state transition.
type Observer func(State)

// Transport owns the lifecycle of one WebSocket endpoint: dialing,
// fixed-delay reconnects up to a maximum attempt count, and state
// notifications on every transition.
//
// The machine runs disconnected → connecting → connected, drops back to
// disconnected on socket close and auto-retries, and reports error on a
// failed handshake. Entering connected resets the retry counter.
// Exceeding the attempt ceiling leaves the transport disconnected with no
// further automatic action until the next Connect.
//
// At most one socket exists per transport at any time: attempt cycles are
// serialized under dialMu, so concurrent Connect calls (and background
// retries) share one dial and return the same stream.
type Transport struct {
	url        string
	config     Config
	mu         sync.Mutex
	dialMu     sync.Mutex
	stream     *Stream
	phase      Phase
	retryTimer *time.Timer
	attempts   int
	gen        int
}

// NewTransport creates a transport for one endpoint URL.
func NewTransport(url string, opts ...Option) *Transport {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return &Transport{
		url:    url,
		config: config,
		phase:  PhaseDisconnected,
	}
}

// Endpoint returns the transport's endpoint URL.
func (t *Transport) Endpoint() string {
	return t.url
}

// Phase returns the current connection phase.
func (t *Transport) Phase() Phase {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.phase
}

// Stream returns the current stream, or nil when not connected.
func (t *Transport) Stream() *Stream {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stream
}

// Connect runs a fresh attempt cycle and returns a connected stream. When
// the transport is already connected the existing stream is returned
// without a new socket. The retry counter starts at zero; each failed
// handshake reports PhaseError and the cycle retries after the fixed
// delay until the attempt ceiling, after which the transport is left
// disconnected and the last error is returned.
func (t *Transport) Connect(ctx context.Context) (*Stream, error) {
	// One attempt cycle at a time. A concurrent Connect parks here until
	// the winner publishes its stream, then reuses it below.
	t.dialMu.Lock()
	defer t.dialMu.Unlock()

	t.mu.Lock()
	if t.stream != nil && t.stream.Open() {
		s := t.stream
		t.mu.Unlock()
		return s, nil
	}
	// A stream that is no longer open but whose pump has not exited yet
	// must not shadow the cycle's result; discard it silently.
	old := t.stream
	t.stream = nil
	t.stopRetryLocked()
	t.attempts = 0
	gen := t.gen
	t.mu.Unlock()

	if old != nil {
		old.detach()
		old.Close()
	}

	var lastErr error
	for attempt := 1; attempt <= t.config.MaxAttempts; attempt++ {
		if t.generation() != gen {
			return nil, fmt.Errorf("connect %s: transport disconnected", t.url)
		}
		s, err := t.dialOnce(ctx, gen)
		if err == nil {
			return s, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		if attempt < t.config.MaxAttempts {
			select {
			case <-time.After(t.config.RetryDelay):
			case <-ctx.Done():
				lastErr = ctx.Err()
				attempt = t.config.MaxAttempts
			}
		}
	}

	if t.generation() == gen {
		t.setPhase(PhaseDisconnected, nil)
	}
	return nil, fmt.Errorf("connect %s: %w", t.url, lastErr)
}

func (t *Transport) generation() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gen
}

// Disconnect cancels any pending retry, closes the socket if present, and
// forces the transport to disconnected. Terminal until the next Connect,
// which starts over with the counter reset.
func (t *Transport) Disconnect() {
	t.mu.Lock()
	t.gen++ // invalidates in-flight dials and scheduled retries
	t.stopRetryLocked()
	t.attempts = 0
	s := t.stream
	t.stream = nil
	t.mu.Unlock()

	if s != nil {
		s.Close()
	}
	t.setPhase(PhaseDisconnected, nil)
}

// dialOnce performs one handshake attempt, announcing connecting and then
// either connected or error. Attempts invalidated by Disconnect make no
// announcements and publish no stream.
func (t *Transport) dialOnce(ctx context.Context, gen int) (*Stream, error) {
	if t.generation() != gen {
		return nil, fmt.Errorf("connect %s: transport disconnected", t.url)
	}
	t.setPhase(PhaseConnecting, nil)

	conn, resp, err := t.config.Dialer.DialContext(ctx, t.url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		if t.generation() != gen {
			return nil, fmt.Errorf("connect %s: transport disconnected", t.url)
		}
		t.config.Logger.Warn("websocket dial failed", "endpoint", t.url, "error", err)
		t.setPhase(PhaseError, err)
		return nil, err
	}

	s := newStream(conn, t.config.Logger, func(downErr error) {
		t.onStreamDown(gen, downErr)
	})

	t.mu.Lock()
	if t.gen != gen || t.stream != nil {
		// Disconnected while the handshake was in flight, or another
		// socket already holds the slot. The newcomer is discarded with
		// its down callback disarmed so its exit cannot tear down the
		// published stream.
		existing := t.stream
		t.mu.Unlock()
		s.detach()
		s.Close()
		if existing != nil && existing.Open() {
			return existing, nil
		}
		return nil, fmt.Errorf("connect %s: transport disconnected", t.url)
	}
	t.stream = s
	t.attempts = 0
	t.mu.Unlock()

	t.setPhase(PhaseConnected, nil)
	return s, nil
}

// onStreamDown runs when a connected socket's pump exits. Reconnects are
// scheduled only from here, so attempts stay serialized: a new one is
// never queued while the previous socket is still closing.
func (t *Transport) onStreamDown(gen int, err error) {
	t.mu.Lock()
	if t.gen != gen {
		t.mu.Unlock()
		return
	}
	t.stream = nil
	t.mu.Unlock()

	if err != nil {
		t.config.Logger.Warn("websocket closed", "endpoint", t.url, "error", err)
	}
	t.setPhase(PhaseDisconnected, err)

	t.mu.Lock()
	t.scheduleRetryLocked(gen)
	t.mu.Unlock()
}

// scheduleRetryLocked arms the retry timer. Caller holds t.mu.
func (t *Transport) scheduleRetryLocked(gen int) {
	t.stopRetryLocked()
	t.retryTimer = time.AfterFunc(t.config.RetryDelay, func() {
		t.retryAttempt(gen)
	})
}

// retryAttempt runs one background reconnect attempt. It competes with
// Connect for dialMu; a fired timer whose slot was revoked while it
// waited (stopRetryLocked nils retryTimer) bails out instead of dialing.
func (t *Transport) retryAttempt(gen int) {
	t.dialMu.Lock()
	defer t.dialMu.Unlock()

	t.mu.Lock()
	if t.gen != gen || t.retryTimer == nil || t.stream != nil {
		t.mu.Unlock()
		return
	}
	t.retryTimer = nil
	t.attempts++
	t.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), t.config.Dialer.HandshakeTimeout+time.Second)
	defer cancel()

	if _, err := t.dialOnce(ctx, gen); err != nil {
		t.mu.Lock()
		if t.gen != gen {
			t.mu.Unlock()
			return
		}
		exhausted := t.attempts >= t.config.MaxAttempts
		if !exhausted {
			t.scheduleRetryLocked(gen)
		}
		t.mu.Unlock()

		if exhausted {
			t.config.Logger.Warn("reconnect attempts exhausted", "endpoint", t.url, "attempts", t.config.MaxAttempts)
			t.setPhase(PhaseDisconnected, nil)
		}
	}
}

// stopRetryLocked cancels a pending retry timer. Caller holds t.mu.
func (t *Transport) stopRetryLocked() {
	if t.retryTimer != nil {
		t.retryTimer.Stop()
		t.retryTimer = nil
	}
}

// setPhase records the phase and notifies the observer outside the lock.
func (t *Transport) setPhase(phase Phase, err error) {
	t.mu.Lock()
	t.phase = phase
	observer := t.config.Observer
	t.mu.Unlock()

	if observer != nil {
		observer(State{Phase: phase, Endpoint: t.url, Err: err})
	}
}
