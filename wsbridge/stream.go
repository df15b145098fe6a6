package wsbridge

import (
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// inboundBuffer is the capacity of the inbound frame queue. The pump blocks
// once it fills, which is the only backpressure the bridge applies.
const inboundBuffer = 64

// Stream adapts one WebSocket connection into an io.ReadWriteCloser
// carrying newline-delimited protocol traffic.
//
// The read side delivers frames in arrival order: binary frames pass
// through as raw bytes, text frames get a trailing newline appended
// because the peer's line-based framing expects a terminator that
// text-mode delivery does not guarantee. A clean close ends reads with
// io.EOF; a socket error ends them with that error, after queued frames
// drain. Reads support a single consumer; concurrent reads are not
// supported.
//
// The write side is fire-and-forget: each Write sends one text frame
// while the socket is open, and writes attempted in any other state are
// silently dropped with no queuing. A slow peer can lose writes during
// the transition out of the open state; this is an accepted
// simplification, not a delivery guarantee.
type Stream struct {
	conn     *websocket.Conn
	logger   *slog.Logger
	frames   chan []byte
	closed   chan struct{}
	leftover []byte
	readErr  error
	open     atomic.Bool
	writeMu  sync.Mutex
	closeOne sync.Once
	downOne  sync.Once
	onDown   func(err error)
}

var _ io.ReadWriteCloser = (*Stream)(nil)

// newStream wraps an established connection and starts its read pump.
// onDown fires exactly once when the pump exits, with nil for a clean
// close; it may be nil.
func newStream(conn *websocket.Conn, logger *slog.Logger, onDown func(err error)) *Stream {
	s := &Stream{
		conn:   conn,
		logger: logger,
		frames: make(chan []byte, inboundBuffer),
		closed: make(chan struct{}),
		onDown: onDown,
	}
	s.open.Store(true)
	go s.readPump()
	return s
}

// NewStream wraps an established WebSocket connection as a duplex stream.
func NewStream(conn *websocket.Conn) *Stream {
	return newStream(conn, slog.Default(), nil)
}

// readPump moves inbound frames onto the queue until the socket ends.
func (s *Stream) readPump() {
	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			s.open.Store(false)
			select {
			case <-s.closed:
				// Locally closed; the read error it provoked is not a
				// transport failure, so reads end with io.EOF.
			default:
				if !isCleanClose(err) {
					s.readErr = err
				}
			}
			close(s.frames)
			s.notifyDown(s.readErr)
			return
		}
		if msgType == websocket.TextMessage {
			data = append(data, '\n')
		}
		select {
		case s.frames <- data:
		case <-s.closed:
			// Closed with a full queue and no reader draining it.
			s.open.Store(false)
			close(s.frames)
			s.notifyDown(nil)
			return
		}
	}
}

// isCleanClose reports whether err represents an orderly shutdown rather
// than a transport failure.
func isCleanClose(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}

// Read copies the next queued bytes into p, blocking until a frame
// arrives or the stream ends. Returns io.EOF after a clean close and the
// socket error after a failure, in both cases only once queued frames
// have drained. Single consumer only.
func (s *Stream) Read(p []byte) (int, error) {
	if len(s.leftover) == 0 {
		chunk, ok := <-s.frames
		if !ok {
			if s.readErr != nil {
				return 0, s.readErr
			}
			return 0, io.EOF
		}
		s.leftover = chunk
	}
	n := copy(p, s.leftover)
	s.leftover = s.leftover[n:]
	return n, nil
}

// Write sends p as one text frame while the socket is open. In any other
// state the write is silently dropped: n is reported as len(p) with no
// error and no network send.
func (s *Stream) Write(p []byte) (int, error) {
	if !s.open.Load() {
		return len(p), nil
	}

	s.writeMu.Lock()
	err := s.conn.WriteMessage(websocket.TextMessage, p)
	s.writeMu.Unlock()

	if err != nil {
		// The socket left the open state mid-write; the frame is lost,
		// matching the no-queuing contract.
		s.open.Store(false)
		s.logger.Debug("dropping write on closed socket", "error", err)
	}
	return len(p), nil
}

// Close closes the socket, sending a close frame best effort, and ends
// the read side cleanly.
func (s *Stream) Close() error {
	var err error
	s.closeOne.Do(func() {
		s.open.Store(false)
		close(s.closed)
		deadline := time.Now().Add(time.Second)
		s.writeMu.Lock()
		s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		s.writeMu.Unlock()
		err = s.conn.Close()
	})
	return err
}

// Open reports whether the socket is in the open state.
func (s *Stream) Open() bool {
	return s.open.Load()
}

// detach disarms the down callback. Used when a socket loses the publish
// race and is discarded, so its exit cannot be mistaken for the published
// stream going down.
func (s *Stream) detach() {
	s.downOne.Do(func() {})
}

func (s *Stream) notifyDown(err error) {
	s.downOne.Do(func() {
		if s.onDown != nil {
			s.onDown(err)
		}
	})
}
