package wsbridge

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stateRecorder collects observed transitions.
type stateRecorder struct {
	mu     sync.Mutex
	states []State
}

func (r *stateRecorder) observe(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *stateRecorder) phases() []Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Phase, len(r.states))
	for i, s := range r.states {
		out[i] = s.Phase
	}
	return out
}

func (r *stateRecorder) count(p Phase) int {
	n := 0
	for _, phase := range r.phases() {
		if phase == p {
			n++
		}
	}
	return n
}

// deadEndpoint returns a ws:// URL nothing listens on.
func deadEndpoint(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	l.Close()
	return "ws://" + addr
}

func TestTransport_ExhaustsAttemptsAndEndsDisconnected(t *testing.T) {
	rec := &stateRecorder{}
	transport := NewTransport(deadEndpoint(t),
		WithMaxAttempts(3),
		WithRetryDelay(5*time.Millisecond),
		WithObserver(rec.observe),
	)

	_, err := transport.Connect(context.Background())
	require.Error(t, err)
	assert.Equal(t, PhaseDisconnected, transport.Phase())

	assert.Equal(t, []Phase{
		PhaseConnecting, PhaseError,
		PhaseConnecting, PhaseError,
		PhaseConnecting, PhaseError,
		PhaseDisconnected,
	}, rec.phases())

	// No further attempts happen on their own.
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 3, rec.count(PhaseConnecting))
}

func TestTransport_ObserverCarriesEndpointAndError(t *testing.T) {
	rec := &stateRecorder{}
	url := deadEndpoint(t)
	transport := NewTransport(url,
		WithMaxAttempts(1),
		WithRetryDelay(time.Millisecond),
		WithObserver(rec.observe),
	)

	transport.Connect(context.Background())

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.NotEmpty(t, rec.states)
	for _, s := range rec.states {
		assert.Equal(t, url, s.Endpoint)
	}
	assert.Equal(t, PhaseError, rec.states[1].Phase)
	assert.Error(t, rec.states[1].Err)
}

func TestTransport_ConnectReusesExistingStream(t *testing.T) {
	url := wsServer(t, func(conn *websocket.Conn) {
		conn.ReadMessage() // hold open
	})
	transport := NewTransport(url)
	defer transport.Disconnect()

	first, err := transport.Connect(context.Background())
	require.NoError(t, err)
	second, err := transport.Connect(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, PhaseConnected, transport.Phase())
}

func TestTransport_AutoReconnectsAfterSocketDrop(t *testing.T) {
	var mu sync.Mutex
	var conns []*websocket.Conn
	connected := make(chan struct{}, 4)

	url := wsServer(t, func(conn *websocket.Conn) {
		mu.Lock()
		conns = append(conns, conn)
		mu.Unlock()
		connected <- struct{}{}
		conn.ReadMessage() // hold open until dropped
	})

	rec := &stateRecorder{}
	transport := NewTransport(url,
		WithRetryDelay(5*time.Millisecond),
		WithMaxAttempts(3),
		WithObserver(rec.observe),
	)
	defer transport.Disconnect()

	_, err := transport.Connect(context.Background())
	require.NoError(t, err)
	<-connected

	// Drop the server side of the first socket; the transport must come
	// back on its own with a fresh stream.
	mu.Lock()
	conns[0].Close()
	mu.Unlock()

	select {
	case <-connected:
	case <-time.After(2 * time.Second):
		t.Fatal("transport never reconnected")
	}

	require.Eventually(t, func() bool {
		return transport.Phase() == PhaseConnected
	}, 2*time.Second, 10*time.Millisecond)
	assert.GreaterOrEqual(t, rec.count(PhaseConnected), 2)
}

func TestTransport_DisconnectCancelsPendingRetry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.Close() // drop immediately, forcing a retry cycle
	}))
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	rec := &stateRecorder{}
	transport := NewTransport(url,
		WithRetryDelay(50*time.Millisecond),
		WithMaxAttempts(5),
		WithObserver(rec.observe),
	)

	_, err := transport.Connect(context.Background())
	require.NoError(t, err)

	// Wait for the drop to register and a retry to be scheduled, then
	// disconnect before the timer fires.
	require.Eventually(t, func() bool {
		return transport.Phase() == PhaseDisconnected
	}, 2*time.Second, 5*time.Millisecond)
	transport.Disconnect()

	before := rec.count(PhaseConnecting)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, before, rec.count(PhaseConnecting), "no attempt may run after Disconnect")
	assert.Equal(t, PhaseDisconnected, transport.Phase())
}

func TestTransport_ConcurrentConnectsShareOneSocket(t *testing.T) {
	var mu sync.Mutex
	upgrades := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond) // slow handshake widens the race window
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		mu.Lock()
		upgrades++
		mu.Unlock()
		conn.ReadMessage() // hold open
	}))
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	transport := NewTransport(url)
	defer transport.Disconnect()

	streams := make(chan *Stream, 2)
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			s, err := transport.Connect(context.Background())
			streams <- s
			errs <- err
		}()
	}

	first, second := <-streams, <-streams
	require.NoError(t, <-errs)
	require.NoError(t, <-errs)
	require.NotNil(t, first)
	assert.Same(t, first, second)

	// Exactly one socket reached the server; the loser of the race waited
	// and reused the winner's stream instead of dialing its own.
	time.Sleep(150 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, upgrades)
}

func TestTransport_DisconnectAbortsConnectCycle(t *testing.T) {
	rec := &stateRecorder{}
	transport := NewTransport(deadEndpoint(t),
		WithMaxAttempts(50),
		WithRetryDelay(20*time.Millisecond),
		WithObserver(rec.observe),
	)

	done := make(chan error, 1)
	go func() {
		_, err := transport.Connect(context.Background())
		done <- err
	}()

	require.Eventually(t, func() bool {
		return rec.count(PhaseError) >= 1
	}, 2*time.Second, 5*time.Millisecond)
	transport.Disconnect()

	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Connect kept dialing after Disconnect")
	}

	// The invalidated cycle makes no further attempts or announcements.
	before := rec.count(PhaseConnecting)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, before, rec.count(PhaseConnecting))
	assert.Equal(t, PhaseDisconnected, transport.Phase())
}

func TestTransport_ConnectAfterDisconnectStartsFresh(t *testing.T) {
	url := wsServer(t, func(conn *websocket.Conn) {
		conn.ReadMessage()
	})
	transport := NewTransport(url, WithRetryDelay(5*time.Millisecond))

	first, err := transport.Connect(context.Background())
	require.NoError(t, err)
	transport.Disconnect()
	assert.Equal(t, PhaseDisconnected, transport.Phase())

	second, err := transport.Connect(context.Background())
	require.NoError(t, err)
	defer transport.Disconnect()
	assert.NotSame(t, first, second)
	assert.Equal(t, PhaseConnected, transport.Phase())
}
