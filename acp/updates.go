package acp

import (
	"encoding/json"
	"log/slog"
)

// UpdateType discriminates between session update kinds. The wire field is
// "sessionUpdate" inside the session/update notification params.
type UpdateType string

const (
	UpdateTypeUserMessageChunk  UpdateType = "user_message_chunk"
	UpdateTypeAgentMessageChunk UpdateType = "agent_message_chunk"
	UpdateTypeAgentThoughtChunk UpdateType = "agent_thought_chunk"
	UpdateTypeToolCall          UpdateType = "tool_call"
	UpdateTypeToolCallUpdate    UpdateType = "tool_call_update"
	UpdateTypePlan              UpdateType = "plan"
	UpdateTypeAvailableCommands UpdateType = "available_commands_update"
	UpdateTypeCurrentMode       UpdateType = "current_mode_update"
)

// SessionUpdate is the interface for session update discrimination.
type SessionUpdate interface {
	UpdateType() UpdateType
}

// SessionNotification is the params of a session/update notification.
type SessionNotification struct {
	SessionID string          `json:"sessionId"`
	Update    json.RawMessage `json:"update"`
}

// UserMessageChunk echoes a piece of the user's prompt back into the stream.
type UserMessageChunk struct {
	Type    UpdateType   `json:"sessionUpdate"`
	Content ContentBlock `json:"content"`
}

// UpdateType returns the session update type.
func (u UserMessageChunk) UpdateType() UpdateType { return UpdateTypeUserMessageChunk }

// AgentMessageChunk is a streaming piece of agent output.
type AgentMessageChunk struct {
	Type    UpdateType   `json:"sessionUpdate"`
	Content ContentBlock `json:"content"`
}

// UpdateType returns the session update type.
func (u AgentMessageChunk) UpdateType() UpdateType { return UpdateTypeAgentMessageChunk }

// AgentThoughtChunk is a streaming piece of agent reasoning.
type AgentThoughtChunk struct {
	Type    UpdateType   `json:"sessionUpdate"`
	Content ContentBlock `json:"content"`
}

// UpdateType returns the session update type.
func (u AgentThoughtChunk) UpdateType() UpdateType { return UpdateTypeAgentThoughtChunk }

// ToolCallStart announces a new tool call.
type ToolCallStart struct {
	Type UpdateType `json:"sessionUpdate"`
	ToolCall
}

// UpdateType returns the session update type.
func (u ToolCallStart) UpdateType() UpdateType { return UpdateTypeToolCall }

// ToolCallProgress is a partial update to an announced tool call.
type ToolCallProgress struct {
	Type UpdateType `json:"sessionUpdate"`
	ToolCall
}

// UpdateType returns the session update type.
func (u ToolCallProgress) UpdateType() UpdateType { return UpdateTypeToolCallUpdate }

// PlanUpdate replaces the agent's current execution plan.
type PlanUpdate struct {
	Type    UpdateType  `json:"sessionUpdate"`
	Entries []PlanEntry `json:"entries"`
}

// UpdateType returns the session update type.
func (u PlanUpdate) UpdateType() UpdateType { return UpdateTypePlan }

// AvailableCommandsUpdate replaces the agent's slash command list.
type AvailableCommandsUpdate struct {
	Type              UpdateType         `json:"sessionUpdate"`
	AvailableCommands []AvailableCommand `json:"availableCommands"`
}

// UpdateType returns the session update type.
func (u AvailableCommandsUpdate) UpdateType() UpdateType { return UpdateTypeAvailableCommands }

// CurrentModeUpdate reports a session mode change initiated by the agent.
type CurrentModeUpdate struct {
	Type          UpdateType `json:"sessionUpdate"`
	CurrentModeID string     `json:"currentModeId"`
}

// UpdateType returns the session update type.
func (u CurrentModeUpdate) UpdateType() UpdateType { return UpdateTypeCurrentMode }

// GenericUpdate carries an update of a type this client does not model.
// Updates are forwarded unconditionally, so unknown subtypes pass through
// with their raw payload intact rather than being dropped.
type GenericUpdate struct {
	Type UpdateType      `json:"sessionUpdate"`
	Raw  json.RawMessage `json:"-"`
}

// UpdateType returns the session update type.
func (u GenericUpdate) UpdateType() UpdateType { return u.Type }

// MarshalJSON re-emits the original payload unchanged.
func (u GenericUpdate) MarshalJSON() ([]byte, error) {
	if len(u.Raw) > 0 {
		return u.Raw, nil
	}
	type alias struct {
		Type UpdateType `json:"sessionUpdate"`
	}
	return json.Marshal(alias{Type: u.Type})
}

// ParseSessionUpdate parses the update payload of a session/update
// notification into its concrete type.
func ParseSessionUpdate(data json.RawMessage) (SessionUpdate, error) {
	var base struct {
		Type UpdateType `json:"sessionUpdate"`
	}
	if err := json.Unmarshal(data, &base); err != nil {
		return nil, err
	}

	switch base.Type {
	case UpdateTypeUserMessageChunk:
		var u UserMessageChunk
		if err := json.Unmarshal(data, &u); err != nil {
			return nil, err
		}
		return u, nil
	case UpdateTypeAgentMessageChunk:
		var u AgentMessageChunk
		if err := json.Unmarshal(data, &u); err != nil {
			return nil, err
		}
		return u, nil
	case UpdateTypeAgentThoughtChunk:
		var u AgentThoughtChunk
		if err := json.Unmarshal(data, &u); err != nil {
			return nil, err
		}
		return u, nil
	case UpdateTypeToolCall:
		var u ToolCallStart
		if err := json.Unmarshal(data, &u); err != nil {
			return nil, err
		}
		return u, nil
	case UpdateTypeToolCallUpdate:
		var u ToolCallProgress
		if err := json.Unmarshal(data, &u); err != nil {
			return nil, err
		}
		return u, nil
	case UpdateTypePlan:
		var u PlanUpdate
		if err := json.Unmarshal(data, &u); err != nil {
			return nil, err
		}
		return u, nil
	case UpdateTypeAvailableCommands:
		var u AvailableCommandsUpdate
		if err := json.Unmarshal(data, &u); err != nil {
			return nil, err
		}
		return u, nil
	case UpdateTypeCurrentMode:
		var u CurrentModeUpdate
		if err := json.Unmarshal(data, &u); err != nil {
			return nil, err
		}
		return u, nil
	default:
		slog.Warn("passing through unknown session update", "type", base.Type)
		return GenericUpdate{Type: base.Type, Raw: append(json.RawMessage(nil), data...)}, nil
	}
}

// ToolCallFields extracts the tool call payload from an update, reporting
// whether the update is tool-call-related (tool_call or tool_call_update).
func ToolCallFields(u SessionUpdate) (ToolCall, bool) {
	switch v := u.(type) {
	case ToolCallStart:
		return v.ToolCall, true
	case ToolCallProgress:
		return v.ToolCall, true
	case *ToolCallStart:
		return v.ToolCall, true
	case *ToolCallProgress:
		return v.ToolCall, true
	default:
		return ToolCall{}, false
	}
}
