package wsbridge

import (
	"context"
	"sync"
)

// Mux multiplexes transports across endpoint URLs: one Transport per
// distinct URL, created lazily on first connect. Every transition reaches
// the shared observer tagged with the endpoint it belongs to.
type Mux struct {
	mu         sync.Mutex
	transports map[string]*Transport
	opts       []Option
}

// NewMux creates a multiplexer. The options are applied to every
// transport it creates.
func NewMux(opts ...Option) *Mux {
	return &Mux{
		transports: make(map[string]*Transport),
		opts:       opts,
	}
}

// Connect returns a connected stream for url, creating the endpoint's
// transport on first use. An already-connected endpoint's existing stream
// is reused without a new socket.
func (m *Mux) Connect(ctx context.Context, url string) (*Stream, error) {
	m.mu.Lock()
	t, ok := m.transports[url]
	if !ok {
		t = NewTransport(url, m.opts...)
		m.transports[url] = t
	}
	m.mu.Unlock()

	return t.Connect(ctx)
}

// Transport returns the transport for url, or nil if none was created.
func (m *Mux) Transport(url string) *Transport {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transports[url]
}

// Endpoints returns the URLs with a transport, connected or not.
func (m *Mux) Endpoints() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	urls := make([]string, 0, len(m.transports))
	for url := range m.transports {
		urls = append(urls, url)
	}
	return urls
}

// Disconnect tears down one endpoint. Its transport stays in the map, so
// its state remains queryable until DisconnectAll.
func (m *Mux) Disconnect(url string) {
	m.mu.Lock()
	t := m.transports[url]
	m.mu.Unlock()

	if t != nil {
		t.Disconnect()
	}
}

// DisconnectAll tears down every endpoint and clears the mapping.
func (m *Mux) DisconnectAll() {
	m.mu.Lock()
	transports := make([]*Transport, 0, len(m.transports))
	for url, t := range m.transports {
		transports = append(transports, t)
		delete(m.transports, url)
	}
	m.mu.Unlock()

	for _, t := range transports {
		t.Disconnect()
	}
}
