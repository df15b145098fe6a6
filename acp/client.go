package acp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
)

// Client speaks the client half of ACP over any newline-delimited JSON-RPC
// stream. It issues outbound requests via Call/Notify and implements the
// inbound contract the agent invokes on this side: session/update routing,
// fs callbacks, and externally-resolved permission requests.
//
// The stream is typically a wsbridge.Stream, but any io.ReadWriteCloser
// carrying one JSON object per line works (net.Pipe in tests).
type Client struct {
	stream      io.ReadWriteCloser
	config      ClientConfig
	state       *clientStateManager
	idGen       *idGenerator
	trace       *traceWriter
	ctx         context.Context
	cancel      context.CancelFunc
	pending     map[int64]chan *rpcResult
	permissions map[string]*Deferred[PermissionOutcome]
	mu          sync.Mutex
	writeMu     sync.Mutex
	readWg      sync.WaitGroup
}

// rpcResult holds the result of a JSON-RPC request.
type rpcResult struct {
	Response *JSONRPCResponse
	Error    error
}

// NewClient creates a client over a newline-delimited JSON-RPC stream.
func NewClient(stream io.ReadWriteCloser, opts ...ClientOption) *Client {
	config := defaultClientConfig()
	for _, opt := range opts {
		opt(&config)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		stream:      stream,
		config:      config,
		state:       newClientStateManager(),
		idGen:       &idGenerator{},
		ctx:         ctx,
		cancel:      cancel,
		pending:     make(map[int64]chan *rpcResult),
		permissions: make(map[string]*Deferred[PermissionOutcome]),
	}
	if config.TraceWriter != nil {
		c.trace = newTraceWriter(config.TraceWriter)
	}
	return c
}

// Start spawns the read loop. Returns ErrAlreadyStarted on a second call.
func (c *Client) Start() error {
	if err := c.state.SetRunning(); err != nil {
		return err
	}
	c.readWg.Add(1)
	go c.readLoop()
	return nil
}

// State returns the current client lifecycle state.
func (c *Client) State() ClientState {
	return c.state.Current()
}

// Close shuts the client down: the stream is closed, pending calls fail
// with ErrClientClosed, and pending permission waits are abandoned with
// the cancelled outcome. Idempotent.
func (c *Client) Close() error {
	if c.state.Current() == ClientStateClosed {
		return nil
	}
	c.state.SetClosed()
	c.cancel()
	err := c.stream.Close()
	c.failAll(ErrClientClosed)
	c.CancelPermissions()
	c.readWg.Wait()
	return err
}

// Call sends a request and waits for its response. A wire-level error
// response decodes into *RPCError. result may be nil to discard the
// response payload.
func (c *Client) Call(ctx context.Context, method Method, params, result interface{}) error {
	if !c.state.IsRunning() {
		if c.state.Current() == ClientStateClosed {
			return ErrClientClosed
		}
		return ErrNotStarted
	}

	id := c.idGen.Next()
	req, err := newRequest(id, method, params)
	if err != nil {
		return err
	}

	ch := make(chan *rpcResult, 1)
	c.mu.Lock()
	c.pending[id] = ch
	c.mu.Unlock()

	if err := c.writeMessage(req); err != nil {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return err
	}

	select {
	case res := <-ch:
		if res.Error != nil {
			return res.Error
		}
		if result != nil && len(res.Response.Result) > 0 {
			if err := json.Unmarshal(res.Response.Result, result); err != nil {
				return &ProtocolError{Message: fmt.Sprintf("failed to parse %s response", method), Cause: err}
			}
		}
		return nil
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return ctx.Err()
	case <-c.ctx.Done():
		return ErrClientClosed
	}
}

// Notify sends a notification (no response expected).
func (c *Client) Notify(_ context.Context, method Method, params interface{}) error {
	if !c.state.IsRunning() {
		if c.state.Current() == ClientStateClosed {
			return ErrClientClosed
		}
		return ErrNotStarted
	}
	notif, err := newNotification(method, params)
	if err != nil {
		return err
	}
	return c.writeMessage(notif)
}

// ResolvePermission settles a pending permission request with an outcome.
// Unknown ids are a silent no-op: the request may already have settled or
// never existed.
func (c *Client) ResolvePermission(id string, outcome PermissionOutcome) {
	if d, ok := c.takePermission(id); ok {
		d.Resolve(outcome)
	}
}

// RejectPermission settles a pending permission request with an error.
// Unknown ids are a silent no-op.
func (c *Client) RejectPermission(id string, err error) {
	if d, ok := c.takePermission(id); ok {
		d.Reject(err)
	}
}

// CancelPermissions settles every pending permission request with the
// cancelled outcome. Used before sending session/cancel so the agent is
// never left waiting on answers that will not come.
func (c *Client) CancelPermissions() {
	c.mu.Lock()
	abandoned := make([]*Deferred[PermissionOutcome], 0, len(c.permissions))
	for id, d := range c.permissions {
		abandoned = append(abandoned, d)
		delete(c.permissions, id)
	}
	c.mu.Unlock()

	for _, d := range abandoned {
		d.Resolve(CancelledOutcome())
	}
}

// PendingPermissions returns the correlation ids currently awaiting
// settlement.
func (c *Client) PendingPermissions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.permissions))
	for id := range c.permissions {
		ids = append(ids, id)
	}
	return ids
}

// takePermission removes and returns the deferred for id. The entry leaves
// the map before it settles, so a racing second settle finds nothing.
func (c *Client) takePermission(id string) (*Deferred[PermissionOutcome], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.permissions[id]
	if ok {
		delete(c.permissions, id)
	}
	return d, ok
}

// readLoop reads and processes inbound messages until the stream ends.
func (c *Client) readLoop() {
	defer c.readWg.Done()

	reader := bufio.NewReader(c.stream)
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			c.handleLine(line)
		}
		if err != nil {
			if err != io.EOF && c.state.Current() != ClientStateClosed {
				c.emitError(fmt.Errorf("read stream: %w", err))
			}
			c.failAll(ErrClientClosed)
			return
		}
	}
}

// handleLine processes a single inbound wire line.
func (c *Client) handleLine(line []byte) {
	trimmed := trimLine(line)
	if len(trimmed) == 0 {
		return
	}
	if c.trace != nil {
		c.trace.record(TraceReceived, trimmed)
	}

	// Peek at the message to determine its shape.
	var base struct {
		ID     json.RawMessage `json:"id,omitempty"`
		Method Method          `json:"method,omitempty"`
	}
	if err := json.Unmarshal(trimmed, &base); err != nil {
		c.emitError(&ProtocolError{Message: "failed to parse message", Line: string(trimmed), Cause: err})
		return
	}

	switch {
	case base.Method != "" && presentID(base.ID):
		// Agent-to-client request: dispatched on its own goroutine so a
		// blocked permission request cannot stall the read loop.
		go c.handleAgentRequest(trimmed, base.Method, base.ID)
	case presentID(base.ID):
		c.handleResponse(trimmed)
	case base.Method != "":
		c.handleNotification(trimmed, base.Method)
	}
}

func trimLine(line []byte) []byte {
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return line
}

// handleResponse routes a response to its pending waiter.
func (c *Client) handleResponse(line []byte) {
	var resp JSONRPCResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		c.emitError(&ProtocolError{Message: "failed to parse response", Line: string(line), Cause: err})
		return
	}

	var id int64
	if err := json.Unmarshal(resp.ID, &id); err != nil {
		c.config.Logger.Warn("dropping response with non-numeric id", "id", string(resp.ID))
		return
	}

	c.mu.Lock()
	ch, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	c.mu.Unlock()

	if !ok {
		c.config.Logger.Warn("dropping response with no pending call", "id", id)
		return
	}

	result := &rpcResult{Response: &resp}
	if resp.Error != nil {
		result.Error = &RPCError{Code: resp.Error.Code, Message: resp.Error.Message, Data: resp.Error.Data}
	}
	select {
	case ch <- result:
	default:
	}
}

// handleNotification processes an agent notification.
func (c *Client) handleNotification(line []byte, method Method) {
	if method != MethodSessionUpdate {
		c.config.Logger.Warn("skipping unknown notification", "method", method)
		return
	}

	var notif JSONRPCNotification
	if err := json.Unmarshal(line, &notif); err != nil {
		c.emitError(&ProtocolError{Message: "failed to parse session/update", Line: string(line), Cause: err})
		return
	}

	var params SessionNotification
	if err := json.Unmarshal(notif.Params, &params); err != nil {
		c.emitError(&ProtocolError{Message: "failed to parse session/update params", Line: string(line), Cause: err})
		return
	}

	update, err := ParseSessionUpdate(params.Update)
	if err != nil {
		c.emitError(&ProtocolError{Message: "failed to parse session update payload", Line: string(line), Cause: err})
		return
	}

	if c.config.OnUpdate != nil {
		c.config.OnUpdate(params.SessionID, update)
	}
}

// handleAgentRequest processes a request the agent issued against this
// client: file operations and permission requests.
func (c *Client) handleAgentRequest(line []byte, method Method, id json.RawMessage) {
	var req JSONRPCRequestIn
	if err := json.Unmarshal(line, &req); err != nil {
		c.emitError(&ProtocolError{Message: "failed to parse agent request", Line: string(line), Cause: err})
		return
	}

	switch method {
	case MethodFsReadTextFile:
		c.handleFsReadTextFile(id, req.Params)
	case MethodFsWriteTextFile:
		c.handleFsWriteTextFile(id, req.Params)
	case MethodRequestPermission:
		c.handleRequestPermission(id, req.Params)
	default:
		c.sendErrorResponse(id, ErrCodeMethodNotFound, "unknown method: "+string(method), nil)
	}
}

func (c *Client) handleFsReadTextFile(id json.RawMessage, params json.RawMessage) {
	var req ReadTextFileRequest
	if err := json.Unmarshal(params, &req); err != nil {
		c.sendErrorResponse(id, ErrCodeInvalidParams, err.Error(), nil)
		return
	}
	if c.config.Fs == nil {
		c.failUnimplemented(id, MethodFsReadTextFile)
		return
	}
	resp, err := c.config.Fs.ReadTextFile(c.ctx, req)
	if err != nil {
		c.sendErrorResponse(id, ErrCodeInternalError, err.Error(), nil)
		return
	}
	c.sendResponse(id, resp)
}

func (c *Client) handleFsWriteTextFile(id json.RawMessage, params json.RawMessage) {
	var req WriteTextFileRequest
	if err := json.Unmarshal(params, &req); err != nil {
		c.sendErrorResponse(id, ErrCodeInvalidParams, err.Error(), nil)
		return
	}
	if c.config.Fs == nil {
		c.failUnimplemented(id, MethodFsWriteTextFile)
		return
	}
	resp, err := c.config.Fs.WriteTextFile(c.ctx, req)
	if err != nil {
		c.sendErrorResponse(id, ErrCodeInternalError, err.Error(), nil)
		return
	}
	c.sendResponse(id, resp)
}

// failUnimplemented answers an agent request whose local handler was never
// configured. This is a client configuration error, surfaced via the error
// sink distinctly from protocol errors.
func (c *Client) failUnimplemented(id json.RawMessage, method Method) {
	c.sendErrorResponse(id, ErrCodeInternalError, string(method)+" handler not implemented", nil)
	c.emitError(fmt.Errorf("%s: %w", method, ErrHandlerNotImplemented))
}

// handleRequestPermission registers a deferred under a fresh correlation id,
// hands the request to the permission sink, and answers the agent with
// whatever outcome external code eventually settles.
func (c *Client) handleRequestPermission(id json.RawMessage, params json.RawMessage) {
	var req RequestPermissionRequest
	if err := json.Unmarshal(params, &req); err != nil {
		c.sendErrorResponse(id, ErrCodeInvalidParams, err.Error(), nil)
		return
	}

	if c.config.OnPermission == nil {
		c.config.Logger.Warn("no permission sink configured, cancelling request",
			"session_id", req.SessionID, "tool_call_id", req.ToolCall.ToolCallID)
		c.sendResponse(id, RequestPermissionResponse{Outcome: CancelledOutcome()})
		return
	}

	correlationID := uuid.NewString()
	d := NewDeferred[PermissionOutcome]()

	c.mu.Lock()
	c.permissions[correlationID] = d
	c.mu.Unlock()

	c.config.OnPermission(correlationID, req)

	outcome, err := d.Await(c.ctx)
	if err != nil {
		if c.ctx.Err() != nil {
			// Client closed while waiting; the stream is gone, nothing to answer.
			return
		}
		if rpcErr, ok := NormalizeError(err); ok {
			c.sendErrorResponse(id, rpcErr.Code, rpcErr.Message, rpcErr.Data)
			return
		}
		c.sendErrorResponse(id, ErrCodeInternalError, err.Error(), nil)
		return
	}
	c.sendResponse(id, RequestPermissionResponse{Outcome: outcome})
}

// sendResponse answers an agent request, echoing its id verbatim.
func (c *Client) sendResponse(id json.RawMessage, result interface{}) {
	resp, err := newResponse(id, result)
	if err != nil {
		c.emitError(fmt.Errorf("marshal response: %w", err))
		return
	}
	if err := c.writeMessage(resp); err != nil {
		c.emitError(err)
	}
}

// sendErrorResponse answers an agent request with a JSON-RPC error.
func (c *Client) sendErrorResponse(id json.RawMessage, code int, message string, data interface{}) {
	if err := c.writeMessage(newErrorResponse(id, code, message, data)); err != nil {
		c.emitError(err)
	}
}

// writeMessage marshals v and writes it as one wire line.
func (c *Client) writeMessage(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if c.trace != nil {
		c.trace.record(TraceSent, data)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if _, err := c.stream.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write stream: %w", err)
	}
	return nil
}

// failAll fails every pending call with err.
func (c *Client) failAll(err error) {
	c.mu.Lock()
	waiters := make([]chan *rpcResult, 0, len(c.pending))
	for id, ch := range c.pending {
		waiters = append(waiters, ch)
		delete(c.pending, id)
	}
	c.mu.Unlock()

	for _, ch := range waiters {
		select {
		case ch <- &rpcResult{Error: err}:
		default:
		}
	}
}

func (c *Client) emitError(err error) {
	if c.config.OnError != nil {
		c.config.OnError(err)
		return
	}
	c.config.Logger.Warn("unhandled client error", "error", err)
}
