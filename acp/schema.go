package acp

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// SchemaFor generates a JSON Schema for one wire type, with definitions
// inlined so the result embeds standalone into devtools and validators.
func SchemaFor(v interface{}) json.RawMessage {
	reflector := &jsonschema.Reflector{
		DoNotReference: true, // Inline all definitions instead of using $ref
		ExpandedStruct: true, // Don't use $ref for struct types
	}

	schema := reflector.Reflect(v)

	data, err := json.Marshal(schema)
	if err != nil {
		// This should never happen with valid types
		panic(fmt.Sprintf("failed to generate schema for type %T: %v", v, err))
	}

	return json.RawMessage(data)
}

// Schemas returns JSON Schemas for the wire-facing request, response, and
// update types, keyed by type name.
func Schemas() map[string]json.RawMessage {
	return map[string]json.RawMessage{
		"InitializeRequest":         SchemaFor(InitializeRequest{}),
		"InitializeResponse":        SchemaFor(InitializeResponse{}),
		"AuthenticateRequest":       SchemaFor(AuthenticateRequest{}),
		"NewSessionRequest":         SchemaFor(NewSessionRequest{}),
		"NewSessionResponse":        SchemaFor(NewSessionResponse{}),
		"LoadSessionRequest":        SchemaFor(LoadSessionRequest{}),
		"LoadSessionResponse":       SchemaFor(LoadSessionResponse{}),
		"PromptRequest":             SchemaFor(PromptRequest{}),
		"PromptResponse":            SchemaFor(PromptResponse{}),
		"CancelNotification":        SchemaFor(CancelNotification{}),
		"SetSessionModeRequest":     SchemaFor(SetSessionModeRequest{}),
		"SetSessionModelRequest":    SchemaFor(SetSessionModelRequest{}),
		"RequestPermissionRequest":  SchemaFor(RequestPermissionRequest{}),
		"RequestPermissionResponse": SchemaFor(RequestPermissionResponse{}),
		"ReadTextFileRequest":       SchemaFor(ReadTextFileRequest{}),
		"ReadTextFileResponse":      SchemaFor(ReadTextFileResponse{}),
		"WriteTextFileRequest":      SchemaFor(WriteTextFileRequest{}),
		"ToolCall":                  SchemaFor(ToolCall{}),
		"UserMessageChunk":          SchemaFor(UserMessageChunk{}),
		"AgentMessageChunk":         SchemaFor(AgentMessageChunk{}),
		"AgentThoughtChunk":         SchemaFor(AgentThoughtChunk{}),
		"ToolCallStart":             SchemaFor(ToolCallStart{}),
		"ToolCallProgress":          SchemaFor(ToolCallProgress{}),
		"PlanUpdate":                SchemaFor(PlanUpdate{}),
		"AvailableCommandsUpdate":   SchemaFor(AvailableCommandsUpdate{}),
		"CurrentModeUpdate":         SchemaFor(CurrentModeUpdate{}),
	}
}
