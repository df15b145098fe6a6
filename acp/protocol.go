package acp

// ACP protocol version supported by this client.
const ProtocolVersion = 1

// --- Initialize ---

// InitializeRequest is sent by the client to establish the connection.
type InitializeRequest struct {
	ClientCapabilities *ClientCapabilities `json:"clientCapabilities,omitempty"`
	ClientInfo         *Implementation     `json:"clientInfo,omitempty"`
	ProtocolVersion    int                 `json:"protocolVersion"`
}

// InitializeResponse is returned by the agent with its capabilities.
type InitializeResponse struct {
	AgentCapabilities *AgentCapabilities `json:"agentCapabilities,omitempty"`
	AgentInfo         *Implementation    `json:"agentInfo,omitempty"`
	AuthMethods       []AuthMethod       `json:"authMethods,omitempty"`
	ProtocolVersion   int                `json:"protocolVersion"`
}

// Implementation identifies a client or agent.
type Implementation struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// ClientCapabilities advertises what the client supports.
type ClientCapabilities struct {
	Fs       *FsCapability `json:"fs,omitempty"`
	Terminal bool          `json:"terminal,omitempty"`
}

// FsCapability describes file system capabilities.
type FsCapability struct {
	ReadTextFile  bool `json:"readTextFile"`
	WriteTextFile bool `json:"writeTextFile"`
}

// AgentCapabilities advertises what the agent supports. Optional methods
// (session/load) must be gated on these flags, never attempted blind.
type AgentCapabilities struct {
	McpCapabilities *McpCapabilities `json:"mcpCapabilities,omitempty"`
	LoadSession     bool             `json:"loadSession,omitempty"`
}

// McpCapabilities describes supported MCP transports.
type McpCapabilities struct {
	Stdio bool `json:"stdio,omitempty"`
	HTTP  bool `json:"http,omitempty"`
	SSE   bool `json:"sse,omitempty"`
}

// AuthMethod describes an authentication method offered by the agent.
type AuthMethod struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// --- Authenticate ---

// AuthenticateRequest selects one of the agent's advertised auth methods.
type AuthenticateRequest struct {
	MethodID string `json:"methodId"`
}

// AuthenticateResponse is empty on success.
type AuthenticateResponse struct{}

// --- Session ---

// NewSessionRequest creates a new conversation session.
type NewSessionRequest struct {
	CWD        string            `json:"cwd"`
	McpServers []McpServerConfig `json:"mcpServers"`
}

// NewSessionResponse returns the created session info.
type NewSessionResponse struct {
	SessionID string             `json:"sessionId"`
	Modes     *SessionModeState  `json:"modes,omitempty"`
	Models    *SessionModelState `json:"models,omitempty"`
}

// LoadSessionRequest resumes a previously created session. Only valid
// against agents advertising the loadSession capability.
type LoadSessionRequest struct {
	SessionID  string            `json:"sessionId"`
	CWD        string            `json:"cwd"`
	McpServers []McpServerConfig `json:"mcpServers"`
}

// LoadSessionResponse mirrors NewSessionResponse for a resumed session.
type LoadSessionResponse struct {
	Modes  *SessionModeState  `json:"modes,omitempty"`
	Models *SessionModelState `json:"models,omitempty"`
}

// SessionModeState describes the agent's current and available modes.
type SessionModeState struct {
	CurrentModeID  string        `json:"currentModeId"`
	AvailableModes []SessionMode `json:"availableModes,omitempty"`
}

// SessionMode is one selectable agent mode.
type SessionMode struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// SessionModelState describes the agent's current and available models.
type SessionModelState struct {
	CurrentModelID  string      `json:"currentModelId"`
	AvailableModels []ModelInfo `json:"availableModels,omitempty"`
}

// ModelInfo is one selectable model.
type ModelInfo struct {
	ModelID     string `json:"modelId"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// SetSessionModeRequest switches the session to another mode.
type SetSessionModeRequest struct {
	SessionID string `json:"sessionId"`
	ModeID    string `json:"modeId"`
}

// SetSessionModeResponse is empty on success.
type SetSessionModeResponse struct{}

// SetSessionModelRequest switches the session to another model.
type SetSessionModelRequest struct {
	SessionID string `json:"sessionId"`
	ModelID   string `json:"modelId"`
}

// SetSessionModelResponse is empty on success.
type SetSessionModelResponse struct{}

// McpServerConfig configures an MCP server for the session.
type McpServerConfig struct {
	Name    string      `json:"name"`
	Type    string      `json:"type,omitempty"`
	Command string      `json:"command,omitempty"`
	URL     string      `json:"url,omitempty"`
	Headers []McpHeader `json:"headers,omitempty"`
	Env     []EnvVar    `json:"env,omitempty"`
	Args    []string    `json:"args,omitempty"`
}

// McpHeader is a name-value pair for HTTP headers.
type McpHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// EnvVar is a name-value pair for environment variables.
type EnvVar struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// --- Prompt ---

// PromptRequest sends a user prompt to the agent.
type PromptRequest struct {
	SessionID string         `json:"sessionId"`
	Prompt    []ContentBlock `json:"prompt"`
}

// PromptResponse indicates the prompt turn has completed.
type PromptResponse struct {
	StopReason string `json:"stopReason"` // "end_turn", "cancelled", "refusal", "max_tokens"
}

// --- Cancel ---

// CancelNotification asks the agent to stop the current prompt turn.
type CancelNotification struct {
	SessionID string `json:"sessionId"`
}

// --- Content Blocks ---

// ContentBlock represents typed content in prompts and messages.
// Discriminated by the Type field.
type ContentBlock struct {
	// Common
	Type string `json:"type"` // "text", "image", "audio", "resource_link", "resource"

	// TextContent
	Text string `json:"text,omitempty"`

	// ImageContent / AudioContent
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"` // base64-encoded
	URI      string `json:"uri,omitempty"`

	// ResourceLink
	Name string `json:"name,omitempty"`
}

// NewTextContent creates a text content block.
func NewTextContent(text string) ContentBlock {
	return ContentBlock{Type: "text", Text: text}
}

// --- Tool Calls ---

// ToolCall describes a unit of agent work. The agent reports one tool call
// as a sequence of partial updates sharing a toolCallId; any field may be
// absent on any given update.
type ToolCall struct {
	ToolCallID string                 `json:"toolCallId"`
	Title      string                 `json:"title,omitempty"`
	Kind       string                 `json:"kind,omitempty"`   // "read", "edit", "execute", "fetch", ...
	Status     string                 `json:"status,omitempty"` // "pending", "in_progress", "completed", "failed"
	Content    []ToolCallContent      `json:"content,omitempty"`
	Locations  []ToolCallLocation     `json:"locations,omitempty"`
	RawInput   map[string]interface{} `json:"rawInput,omitempty"`
	RawOutput  map[string]interface{} `json:"rawOutput,omitempty"`
}

// ToolCallContent is one piece of tool call output.
// Discriminated by the Type field.
type ToolCallContent struct {
	Type    string        `json:"type"` // "content", "diff", "terminal"
	Content *ContentBlock `json:"content,omitempty"`

	// diff fields
	Path    string  `json:"path,omitempty"`
	OldText *string `json:"oldText,omitempty"`
	NewText string  `json:"newText,omitempty"`
}

// ToolCallLocation is a file location a tool call touches.
type ToolCallLocation struct {
	Path string `json:"path"`
	Line int    `json:"line,omitempty"`
}

// --- Plan ---

// Plan represents an agent's execution plan.
type Plan struct {
	Entries []PlanEntry `json:"entries"`
}

// PlanEntry is a single step in a plan.
type PlanEntry struct {
	Content  string `json:"content"`
	Status   string `json:"status,omitempty"`   // "pending", "in_progress", "completed"
	Priority string `json:"priority,omitempty"` // "high", "medium", "low"
}

// AvailableCommand describes a slash command the agent exposes.
type AvailableCommand struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// --- Agent-to-Client Requests ---

// ReadTextFileRequest is sent by the agent to read a file through the client.
type ReadTextFileRequest struct {
	SessionID string `json:"sessionId"`
	Path      string `json:"path"`
	Line      int    `json:"line,omitempty"`  // 1-based, optional
	Limit     int    `json:"limit,omitempty"` // optional
}

// ReadTextFileResponse returns the file content.
type ReadTextFileResponse struct {
	Content string `json:"content"`
}

// WriteTextFileRequest is sent by the agent to write a file through the client.
type WriteTextFileRequest struct {
	SessionID string `json:"sessionId"`
	Path      string `json:"path"`
	Content   string `json:"content"`
}

// WriteTextFileResponse is empty on success.
type WriteTextFileResponse struct{}

// RequestPermissionRequest is sent by the agent to ask for tool permission.
type RequestPermissionRequest struct {
	SessionID string             `json:"sessionId"`
	ToolCall  ToolCall           `json:"toolCall"`
	Options   []PermissionOption `json:"options"`
}

// PermissionOption describes one permission choice.
type PermissionOption struct {
	ID   string `json:"optionId"`
	Name string `json:"name"`
	Kind string `json:"kind"` // "allow_once", "allow_always", "reject_once", "reject_always"
}

// RequestPermissionResponse returns the chosen outcome.
type RequestPermissionResponse struct {
	Outcome PermissionOutcome `json:"outcome"`
}

// PermissionOutcome is the result of a permission request.
// Discriminated by the Type field.
type PermissionOutcome struct {
	Type     string `json:"outcome"` // "cancelled", "selected"
	OptionID string `json:"optionId,omitempty"`
}

// CancelledOutcome is the outcome used when a permission request is
// abandoned rather than answered.
func CancelledOutcome() PermissionOutcome {
	return PermissionOutcome{Type: "cancelled"}
}

// SelectedOutcome answers a permission request with one of its options.
func SelectedOutcome(optionID string) PermissionOutcome {
	return PermissionOutcome{Type: "selected", OptionID: optionID}
}
