package wsbridge

import (
	"context"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func holdOpen(conn *websocket.Conn) {
	conn.ReadMessage()
}

func TestMux_ConnectCreatesTransportLazily(t *testing.T) {
	url := wsServer(t, holdOpen)
	mux := NewMux()
	defer mux.DisconnectAll()

	assert.Nil(t, mux.Transport(url))
	assert.Empty(t, mux.Endpoints())

	stream, err := mux.Connect(context.Background(), url)
	require.NoError(t, err)
	require.NotNil(t, stream)
	require.NotNil(t, mux.Transport(url))
	assert.Equal(t, []string{url}, mux.Endpoints())
}

func TestMux_ConnectTwiceReusesStream(t *testing.T) {
	url := wsServer(t, holdOpen)
	mux := NewMux()
	defer mux.DisconnectAll()

	first, err := mux.Connect(context.Background(), url)
	require.NoError(t, err)
	second, err := mux.Connect(context.Background(), url)
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestMux_SeparateTransportsPerEndpoint(t *testing.T) {
	urlA := wsServer(t, holdOpen)
	urlB := wsServer(t, holdOpen)
	mux := NewMux()
	defer mux.DisconnectAll()

	streamA, err := mux.Connect(context.Background(), urlA)
	require.NoError(t, err)
	streamB, err := mux.Connect(context.Background(), urlB)
	require.NoError(t, err)

	assert.NotSame(t, streamA, streamB)
	assert.Len(t, mux.Endpoints(), 2)
	assert.NotSame(t, mux.Transport(urlA), mux.Transport(urlB))
}

func TestMux_DisconnectTearsDownOneEndpoint(t *testing.T) {
	urlA := wsServer(t, holdOpen)
	urlB := wsServer(t, holdOpen)
	mux := NewMux()
	defer mux.DisconnectAll()

	_, err := mux.Connect(context.Background(), urlA)
	require.NoError(t, err)
	_, err = mux.Connect(context.Background(), urlB)
	require.NoError(t, err)

	mux.Disconnect(urlA)

	// The endpoint's state stays queryable until DisconnectAll.
	require.NotNil(t, mux.Transport(urlA))
	assert.Equal(t, PhaseDisconnected, mux.Transport(urlA).Phase())
	assert.Equal(t, PhaseConnected, mux.Transport(urlB).Phase())
	assert.Len(t, mux.Endpoints(), 2)
}

func TestMux_DisconnectAllClearsEndpoints(t *testing.T) {
	url := wsServer(t, holdOpen)
	mux := NewMux()

	_, err := mux.Connect(context.Background(), url)
	require.NoError(t, err)

	mux.DisconnectAll()
	assert.Empty(t, mux.Endpoints())
	assert.Nil(t, mux.Transport(url))
}

func TestMux_ObserverSeesEndpointTaggedStates(t *testing.T) {
	urlA := wsServer(t, holdOpen)
	urlB := wsServer(t, holdOpen)

	rec := &stateRecorder{}
	mux := NewMux(WithObserver(rec.observe))
	defer mux.DisconnectAll()

	_, err := mux.Connect(context.Background(), urlA)
	require.NoError(t, err)
	_, err = mux.Connect(context.Background(), urlB)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	endpoints := map[string]bool{}
	for _, s := range rec.states {
		endpoints[s.Endpoint] = true
	}
	assert.True(t, endpoints[urlA])
	assert.True(t, endpoints[urlB])
}
