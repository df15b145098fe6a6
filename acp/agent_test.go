package acp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type hookCall struct {
	hook   string
	method Method
}

// newTestAgent wires an Agent to a scripted responder: for each inbound
// request, respond produces the raw result or error JSON to answer with.
func newTestAgent(t *testing.T, observer CallObserver, respond func(method Method) string) *Agent {
	t.Helper()
	clientEnd, agentEnd := net.Pipe()
	c := NewClient(clientEnd)
	require.NoError(t, c.Start())
	t.Cleanup(func() {
		c.Close()
		agentEnd.Close()
	})

	go func() {
		reader := bufio.NewReader(agentEnd)
		for {
			line, err := reader.ReadBytes('\n')
			if err != nil {
				return
			}
			var req JSONRPCRequest
			if json.Unmarshal(line, &req) != nil || req.ID == 0 {
				continue // notification
			}
			reply := respond(req.Method)
			agentEnd.Write([]byte(fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,%s}`, req.ID, reply) + "\n"))
		}
	}()

	return NewAgent(c, observer)
}

func initializedReply(caps string) func(Method) string {
	return func(method Method) string {
		if method == MethodInitialize {
			return fmt.Sprintf(`"result":{"protocolVersion":1,"agentCapabilities":%s}`, caps)
		}
		return `"result":{}`
	}
}

func TestAgent_HookOrderOnSuccess(t *testing.T) {
	var hooks []hookCall
	var seenParams []interface{}

	agent := newTestAgent(t, CallObserver{
		OnCallStart: func(method Method, params interface{}) {
			hooks = append(hooks, hookCall{"start", method})
			seenParams = append(seenParams, params)
		},
		OnCallResponse: func(method Method, params, result interface{}) {
			hooks = append(hooks, hookCall{"response", method})
			seenParams = append(seenParams, params)
		},
	}, initializedReply(`{}`))

	req := InitializeRequest{ProtocolVersion: ProtocolVersion}
	_, err := agent.Initialize(context.Background(), req)
	require.NoError(t, err)

	require.Equal(t, []hookCall{
		{"start", MethodInitialize},
		{"response", MethodInitialize},
	}, hooks)
	// Both hooks see the same request value.
	assert.Equal(t, seenParams[0], seenParams[1])
}

func TestAgent_ErrorHookReceivesNormalizedError(t *testing.T) {
	var hooks []hookCall
	var hookErr *RPCError

	agent := newTestAgent(t, CallObserver{
		OnCallStart: func(method Method, _ interface{}) {
			hooks = append(hooks, hookCall{"start", method})
		},
		OnCallError: func(method Method, _ interface{}, err *RPCError) {
			hooks = append(hooks, hookCall{"error", method})
			hookErr = err
		},
	}, func(method Method) string {
		if method == MethodSessionPrompt {
			return `"error":{"code":-32603,"message":"agent exploded"}`
		}
		return `"result":{"protocolVersion":1}`
	})

	_, err := agent.Prompt(context.Background(), PromptRequest{SessionID: "s1"})
	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, -32603, rpcErr.Code)

	require.Equal(t, []hookCall{
		{"start", MethodSessionPrompt},
		{"error", MethodSessionPrompt},
	}, hooks)
	assert.Same(t, rpcErr, hookErr)
}

func TestAgent_LoadSessionGatedOnCapability(t *testing.T) {
	var hooks []hookCall
	observer := CallObserver{
		OnCallStart: func(method Method, _ interface{}) {
			hooks = append(hooks, hookCall{"start", method})
		},
	}

	agent := newTestAgent(t, observer, initializedReply(`{"loadSession":false}`))

	_, err := agent.Initialize(context.Background(), InitializeRequest{ProtocolVersion: ProtocolVersion})
	require.NoError(t, err)
	hooks = nil

	_, err = agent.LoadSession(context.Background(), LoadSessionRequest{SessionID: "s1"})
	var capErr *CapabilityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, MethodSessionLoad, capErr.Method)
	// The call was never dispatched: no hook fired.
	assert.Empty(t, hooks)
}

func TestAgent_LoadSessionBeforeInitialize(t *testing.T) {
	agent := newTestAgent(t, CallObserver{}, initializedReply(`{}`))

	_, err := agent.LoadSession(context.Background(), LoadSessionRequest{SessionID: "s1"})
	var capErr *CapabilityError
	assert.ErrorAs(t, err, &capErr)
	assert.Nil(t, agent.AgentCapabilities())
}

func TestAgent_LoadSessionAllowedWhenAdvertised(t *testing.T) {
	agent := newTestAgent(t, CallObserver{}, initializedReply(`{"loadSession":true}`))

	_, err := agent.Initialize(context.Background(), InitializeRequest{ProtocolVersion: ProtocolVersion})
	require.NoError(t, err)
	require.NotNil(t, agent.AgentCapabilities())
	assert.True(t, agent.AgentCapabilities().LoadSession)

	_, err = agent.LoadSession(context.Background(), LoadSessionRequest{SessionID: "s1"})
	assert.NoError(t, err)
}

func TestAgent_ObserverPanicDoesNotBreakDispatch(t *testing.T) {
	agent := newTestAgent(t, CallObserver{
		OnCallStart: func(Method, interface{}) { panic("observer bug") },
	}, initializedReply(`{}`))

	_, err := agent.Initialize(context.Background(), InitializeRequest{ProtocolVersion: ProtocolVersion})
	assert.NoError(t, err)
}

func TestAgent_ExtMethod(t *testing.T) {
	agent := newTestAgent(t, CallObserver{}, func(method Method) string {
		if method == "_custom/echo" {
			return `"result":{"echo":"pong"}`
		}
		return `"result":{}`
	})

	var result map[string]string
	err := agent.ExtMethod(context.Background(), "_custom/echo", map[string]string{"ping": "ping"}, &result)
	require.NoError(t, err)
	assert.Equal(t, "pong", result["echo"])
}
