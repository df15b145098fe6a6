package acp

import "sync"

// ClientState represents the lifecycle state of a Client.
type ClientState int

const (
	ClientStateIdle ClientState = iota
	ClientStateRunning
	ClientStateClosed
)

func (s ClientState) String() string {
	switch s {
	case ClientStateIdle:
		return "idle"
	case ClientStateRunning:
		return "running"
	case ClientStateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// clientStateManager manages thread-safe client state transitions.
type clientStateManager struct {
	mu    sync.RWMutex
	state ClientState
}

func newClientStateManager() *clientStateManager {
	return &clientStateManager{state: ClientStateIdle}
}

func (m *clientStateManager) Current() ClientState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *clientStateManager) SetRunning() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != ClientStateIdle {
		if m.state == ClientStateRunning {
			return ErrAlreadyStarted
		}
		return ErrInvalidState
	}
	m.state = ClientStateRunning
	return nil
}

func (m *clientStateManager) SetClosed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = ClientStateClosed
}

func (m *clientStateManager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state == ClientStateRunning
}
