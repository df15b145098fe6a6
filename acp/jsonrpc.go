package acp

import (
	"bytes"
	"encoding/json"
	"sync/atomic"
)

// Method identifies an ACP JSON-RPC method. The protocol's method set is
// fixed and known in advance; extension calls carry caller-supplied names
// through Agent.ExtMethod and Agent.ExtNotification.
type Method string

// ACP JSON-RPC method constants.
const (
	// Agent-provided methods (client sends, agent responds)
	MethodInitialize      Method = "initialize"
	MethodAuthenticate    Method = "authenticate"
	MethodSessionNew      Method = "session/new"
	MethodSessionLoad     Method = "session/load"
	MethodSessionPrompt   Method = "session/prompt"
	MethodSessionSetMode  Method = "session/set_mode"
	MethodSessionSetModel Method = "session/set_model"

	// Client-sent notifications
	MethodSessionCancel Method = "session/cancel"

	// Agent-sent notifications
	MethodSessionUpdate Method = "session/update"

	// Client-provided methods (agent sends, client responds)
	MethodRequestPermission Method = "session/request_permission"
	MethodFsReadTextFile    Method = "fs/read_text_file"
	MethodFsWriteTextFile   Method = "fs/write_text_file"
)

// JSONRPCRequest represents a JSON-RPC 2.0 request sent by this client.
// Outbound request ids are generated by a monotonic counter.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  Method          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      int64           `json:"id"`
}

// JSONRPCRequestIn represents a JSON-RPC 2.0 request received from the
// agent. The id is kept raw and echoed verbatim in the response; the agent
// may use any JSON value as an id.
type JSONRPCRequestIn struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  Method          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      json.RawMessage `json:"id"`
}

// JSONRPCResponse represents a JSON-RPC 2.0 response. The id mirrors the
// request it answers: an int64 for requests this client issued, echoed
// verbatim for requests the agent issued (the agent may use any JSON id).
type JSONRPCResponse struct {
	Error   *JSONRPCError   `json:"error,omitempty"`
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	ID      json.RawMessage `json:"id"`
}

// JSONRPCNotification represents a JSON-RPC 2.0 notification (no id).
type JSONRPCNotification struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  Method          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// JSONRPCError represents a JSON-RPC 2.0 error object.
type JSONRPCError struct {
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message"`
	Code    int         `json:"code"`
}

// Standard JSON-RPC error codes.
const (
	ErrCodeParseError     = -32700
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// ACP-specific error codes.
const (
	ErrCodeAuthRequired     = -32000
	ErrCodeResourceNotFound = -32002
)

// idGenerator generates unique ids for outbound requests.
type idGenerator struct {
	next atomic.Int64
}

func (g *idGenerator) Next() int64 {
	return g.next.Add(1)
}

var jsonNull = []byte("null")

// presentID reports whether a peeked id field carries an actual id.
// Both an absent field and an explicit null mean "no id".
func presentID(id json.RawMessage) bool {
	return len(id) > 0 && !bytes.Equal(id, jsonNull)
}

// newRequest creates a new JSON-RPC 2.0 request.
func newRequest(id int64, method Method, params interface{}) (*JSONRPCRequest, error) {
	paramsData, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	return &JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      id,
		Method:  method,
		Params:  paramsData,
	}, nil
}

// newResponse creates a new JSON-RPC 2.0 response answering an agent request.
func newResponse(id json.RawMessage, result interface{}) (*JSONRPCResponse, error) {
	resultData, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	return &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  resultData,
	}, nil
}

// newErrorResponse creates a new JSON-RPC 2.0 error response.
func newErrorResponse(id json.RawMessage, code int, message string, data interface{}) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &JSONRPCError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// newNotification creates a new JSON-RPC 2.0 notification.
func newNotification(method Method, params interface{}) (*JSONRPCNotification, error) {
	paramsData, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	return &JSONRPCNotification{
		JSONRPC: "2.0",
		Method:  method,
		Params:  paramsData,
	}, nil
}
