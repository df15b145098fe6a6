package acp

import (
	"context"
	"errors"
	"sync"
)

// CallObserver receives lifecycle hooks for every outbound call. Nil fields
// are no-ops. Observers run on the caller's goroutine; a panicking observer
// is recovered and logged so it can never corrupt dispatch.
type CallObserver struct {
	OnCallStart    func(method Method, params interface{})
	OnCallResponse func(method Method, params, result interface{})
	OnCallError    func(method Method, params interface{}, err *RPCError)
}

// Agent is the outbound half of the connection: one typed method per RPC
// the client may invoke on the remote agent, each wrapped with the
// observer's start/response/error hooks.
//
// Failures are classified through NormalizeError: protocol-level errors
// reach the error hook normalized, anything else propagates untouched and
// fires no hook.
type Agent struct {
	client   *Client
	observer CallObserver
	mu       sync.RWMutex
	caps     *AgentCapabilities
	init     bool
}

// NewAgent wraps a client with call instrumentation.
func NewAgent(client *Client, observer CallObserver) *Agent {
	return &Agent{client: client, observer: observer}
}

// Client returns the underlying protocol client.
func (a *Agent) Client() *Client {
	return a.client
}

// AgentCapabilities returns the capability set recorded by Initialize, or
// nil before initialization.
func (a *Agent) AgentCapabilities() *AgentCapabilities {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.caps
}

// Initialize performs the protocol handshake and records the agent's
// advertised capability set for later gating.
func (a *Agent) Initialize(ctx context.Context, req InitializeRequest) (InitializeResponse, error) {
	var resp InitializeResponse
	if err := a.call(ctx, MethodInitialize, req, &resp); err != nil {
		return InitializeResponse{}, err
	}

	a.mu.Lock()
	a.init = true
	a.caps = resp.AgentCapabilities
	if a.caps == nil {
		a.caps = &AgentCapabilities{}
	}
	a.mu.Unlock()

	return resp, nil
}

// Authenticate selects one of the agent's advertised auth methods.
func (a *Agent) Authenticate(ctx context.Context, req AuthenticateRequest) (AuthenticateResponse, error) {
	var resp AuthenticateResponse
	err := a.call(ctx, MethodAuthenticate, req, &resp)
	return resp, err
}

// NewSession creates a new session.
func (a *Agent) NewSession(ctx context.Context, req NewSessionRequest) (NewSessionResponse, error) {
	var resp NewSessionResponse
	err := a.call(ctx, MethodSessionNew, req, &resp)
	return resp, err
}

// LoadSession resumes a session. Fails fast with a CapabilityError, before
// any hook fires, when the agent did not advertise loadSession.
func (a *Agent) LoadSession(ctx context.Context, req LoadSessionRequest) (LoadSessionResponse, error) {
	if err := a.requireCapability(MethodSessionLoad, "loadSession"); err != nil {
		return LoadSessionResponse{}, err
	}
	var resp LoadSessionResponse
	err := a.call(ctx, MethodSessionLoad, req, &resp)
	return resp, err
}

// Prompt sends a prompt turn and waits for its stop reason.
func (a *Agent) Prompt(ctx context.Context, req PromptRequest) (PromptResponse, error) {
	var resp PromptResponse
	err := a.call(ctx, MethodSessionPrompt, req, &resp)
	return resp, err
}

// Cancel asks the agent to stop the current turn. Pending permission
// requests are settled with the cancelled outcome first, so the agent is
// not left waiting on answers that will not come.
func (a *Agent) Cancel(ctx context.Context, notif CancelNotification) error {
	a.client.CancelPermissions()
	return a.notify(ctx, MethodSessionCancel, notif)
}

// SetSessionMode switches the session mode.
func (a *Agent) SetSessionMode(ctx context.Context, req SetSessionModeRequest) (SetSessionModeResponse, error) {
	var resp SetSessionModeResponse
	err := a.call(ctx, MethodSessionSetMode, req, &resp)
	return resp, err
}

// SetSessionModel switches the session model.
func (a *Agent) SetSessionModel(ctx context.Context, req SetSessionModelRequest) (SetSessionModelResponse, error) {
	var resp SetSessionModelResponse
	err := a.call(ctx, MethodSessionSetModel, req, &resp)
	return resp, err
}

// ExtMethod invokes a protocol extension request/response pair.
func (a *Agent) ExtMethod(ctx context.Context, method string, params, result interface{}) error {
	return a.call(ctx, Method(method), params, result)
}

// ExtNotification sends a protocol extension notification.
func (a *Agent) ExtNotification(ctx context.Context, method string, params interface{}) error {
	return a.notify(ctx, Method(method), params)
}

// requireCapability gates an optional method on the capability set the
// agent advertised at initialization.
func (a *Agent) requireCapability(method Method, capability string) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if !a.init {
		return &CapabilityError{Method: method, Capability: capability}
	}
	switch capability {
	case "loadSession":
		if a.caps.LoadSession {
			return nil
		}
	}
	return &CapabilityError{Method: method, Capability: capability}
}

// call dispatches one instrumented request.
func (a *Agent) call(ctx context.Context, method Method, params, result interface{}) error {
	a.hookStart(method, params)
	if err := a.client.Call(ctx, method, params, result); err != nil {
		return a.hookFailure(method, params, err)
	}
	a.hookResponse(method, params, result)
	return nil
}

// notify dispatches one instrumented notification.
func (a *Agent) notify(ctx context.Context, method Method, params interface{}) error {
	a.hookStart(method, params)
	if err := a.client.Notify(ctx, method, params); err != nil {
		return a.hookFailure(method, params, err)
	}
	a.hookResponse(method, params, nil)
	return nil
}

// hookFailure classifies err: normalized protocol errors reach the error
// hook and replace the return value, anything unclassifiable propagates
// unchanged with no hook. Cancellation is not a protocol failure and
// passes through so errors.Is(err, context.Canceled) keeps working.
func (a *Agent) hookFailure(method Method, params interface{}, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	rpcErr, ok := NormalizeError(err)
	if !ok {
		return err
	}
	if a.observer.OnCallError != nil {
		a.safely(func() { a.observer.OnCallError(method, params, rpcErr) })
	}
	return rpcErr
}

func (a *Agent) hookStart(method Method, params interface{}) {
	if a.observer.OnCallStart != nil {
		a.safely(func() { a.observer.OnCallStart(method, params) })
	}
}

func (a *Agent) hookResponse(method Method, params, result interface{}) {
	if a.observer.OnCallResponse != nil {
		a.safely(func() { a.observer.OnCallResponse(method, params, result) })
	}
}

// safely runs an observer hook, recovering any panic so observers can never
// break the dispatch path.
func (a *Agent) safely(hook func()) {
	defer func() {
		if r := recover(); r != nil {
			a.client.config.Logger.Error("call observer panicked", "panic", r)
		}
	}()
	hook()
}
