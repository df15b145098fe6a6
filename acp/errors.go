package acp

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrAlreadyStarted is returned when Start() is called on an already started client.
	ErrAlreadyStarted = errors.New("client already started")

	// ErrNotStarted is returned when an operation requires a started client.
	ErrNotStarted = errors.New("client not started")

	// ErrClientClosed is returned when an operation is attempted on a closed client.
	ErrClientClosed = errors.New("client is closed")

	// ErrInvalidState is returned for invalid state transitions.
	ErrInvalidState = errors.New("invalid state transition")

	// ErrHandlerNotImplemented is returned when the agent invokes a local
	// handler (fs read/write) that was never configured. This is a
	// configuration error on the client side, not a protocol error.
	ErrHandlerNotImplemented = errors.New("handler not implemented")
)

// RPCError is the canonical protocol error shape: a JSON-RPC error object
// carried across the wire, or a local failure normalized into one.
type RPCError struct {
	Data    interface{}
	Message string
	Code    int
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// CapabilityError is returned when a method is invoked that the agent did
// not advertise support for. The call is never dispatched.
type CapabilityError struct {
	Method     Method
	Capability string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("agent does not support %s (missing capability %q)", e.Method, e.Capability)
}

// ProtocolError represents a protocol-level error (e.g., malformed JSON).
type ProtocolError struct {
	Cause   error
	Message string
	Line    string
}

func (e *ProtocolError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ProtocolError) Unwrap() error {
	return e.Cause
}

// NormalizeError classifies an arbitrary failure value into the canonical
// RPCError shape. Classification is attempted in order:
//
//  1. an RPCError (possibly wrapped) passes through unchanged;
//  2. any other error wraps as an internal error (-32603) carrying the
//     original message as data;
//  3. a map with a numeric "code" and string "message" is preserved,
//     along with its optional "data";
//  4. anything else fails classification: ok is false and the caller must
//     propagate the original value unmodified.
//
// The distinction lets instrumentation report protocol-level failures in a
// structured way while leaving unrelated values untouched.
func NormalizeError(v interface{}) (*RPCError, bool) {
	switch val := v.(type) {
	case *RPCError:
		return val, true
	case error:
		var rpcErr *RPCError
		if errors.As(val, &rpcErr) {
			return rpcErr, true
		}
		return &RPCError{
			Code:    ErrCodeInternalError,
			Message: "Internal error",
			Data:    map[string]interface{}{"message": val.Error()},
		}, true
	case map[string]interface{}:
		code, okCode := numericCode(val["code"])
		message, okMessage := val["message"].(string)
		if !okCode || !okMessage {
			return nil, false
		}
		return &RPCError{Code: code, Message: message, Data: val["data"]}, true
	default:
		return nil, false
	}
}

// numericCode accepts the number representations a decoded JSON value or
// hand-built map may carry for an error code.
func numericCode(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
