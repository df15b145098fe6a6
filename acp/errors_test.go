package acp

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeError_RPCErrorPassesThrough(t *testing.T) {
	original := &RPCError{Code: -32602, Message: "bad"}

	normalized, ok := NormalizeError(original)
	require.True(t, ok)
	assert.Same(t, original, normalized)
}

func TestNormalizeError_WrappedRPCError(t *testing.T) {
	inner := &RPCError{Code: -32601, Message: "method not found"}
	wrapped := fmt.Errorf("calling agent: %w", inner)

	normalized, ok := NormalizeError(wrapped)
	require.True(t, ok)
	assert.Same(t, inner, normalized)
}

func TestNormalizeError_GenericErrorWrapsAsInternal(t *testing.T) {
	normalized, ok := NormalizeError(errors.New("boom"))
	require.True(t, ok)
	assert.Equal(t, ErrCodeInternalError, normalized.Code)
	assert.Equal(t, "Internal error", normalized.Message)

	data, isMap := normalized.Data.(map[string]interface{})
	require.True(t, isMap)
	assert.Equal(t, "boom", data["message"])
}

func TestNormalizeError_StructuredMapPreserved(t *testing.T) {
	tests := []struct {
		name string
		code interface{}
		want int
	}{
		{"int code", -32602, -32602},
		{"float64 code", float64(-32602), -32602},
		{"int64 code", int64(-32000), -32000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			normalized, ok := NormalizeError(map[string]interface{}{
				"code":    tt.code,
				"message": "bad",
				"data":    "details",
			})
			require.True(t, ok)
			assert.Equal(t, tt.want, normalized.Code)
			assert.Equal(t, "bad", normalized.Message)
			assert.Equal(t, "details", normalized.Data)
		})
	}
}

func TestNormalizeError_UnclassifiableValues(t *testing.T) {
	for _, v := range []interface{}{
		42,
		"just a string",
		nil,
		map[string]interface{}{"code": "not numeric", "message": "x"},
		map[string]interface{}{"message": "no code"},
		[]int{1, 2, 3},
	} {
		normalized, ok := NormalizeError(v)
		assert.False(t, ok, "value %#v should fail classification", v)
		assert.Nil(t, normalized)
	}
}

func TestCapabilityError_Message(t *testing.T) {
	err := &CapabilityError{Method: MethodSessionLoad, Capability: "loadSession"}
	assert.Contains(t, err.Error(), "session/load")
	assert.Contains(t, err.Error(), "loadSession")
}

func TestProtocolError_Unwrap(t *testing.T) {
	cause := errors.New("bad json")
	err := &ProtocolError{Message: "failed to parse message", Cause: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "failed to parse message")
}
