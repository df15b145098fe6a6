package acp

import (
	"context"
	"io"
	"log/slog"
)

// FileSystem handles file system requests issued by the agent. Both methods
// are invoked from the client's dispatch goroutines; implementations must
// honor ctx cancellation.
type FileSystem interface {
	ReadTextFile(ctx context.Context, req ReadTextFileRequest) (ReadTextFileResponse, error)
	WriteTextFile(ctx context.Context, req WriteTextFileRequest) (WriteTextFileResponse, error)
}

// UpdateSink receives every session/update notification, parsed, in arrival
// order. Updates are forwarded unconditionally with no buffering.
type UpdateSink func(sessionID string, update SessionUpdate)

// PermissionSink receives a permission request together with the correlation
// id external code later passes to ResolvePermission or RejectPermission.
type PermissionSink func(id string, req RequestPermissionRequest)

// ErrorSink receives protocol and configuration errors the client cannot
// return to any caller (malformed inbound lines, missing handlers).
type ErrorSink func(err error)

// ClientConfig holds client configuration.
type ClientConfig struct {
	Fs           FileSystem
	OnUpdate     UpdateSink
	OnPermission PermissionSink
	OnError      ErrorSink
	Logger       *slog.Logger
	TraceWriter  io.Writer
}

func defaultClientConfig() ClientConfig {
	return ClientConfig{
		Logger: slog.Default(),
	}
}

// ClientOption is a functional option for configuring a Client.
type ClientOption func(*ClientConfig)

// WithFileSystem sets the handler for fs/read_text_file and
// fs/write_text_file. Without it those requests fail as unimplemented.
func WithFileSystem(fs FileSystem) ClientOption {
	return func(c *ClientConfig) { c.Fs = fs }
}

// WithSessionUpdates sets the sink for session/update notifications.
func WithSessionUpdates(sink UpdateSink) ClientOption {
	return func(c *ClientConfig) { c.OnUpdate = sink }
}

// WithPermissionRequests sets the sink notified of each permission request
// and its correlation id.
func WithPermissionRequests(sink PermissionSink) ClientOption {
	return func(c *ClientConfig) { c.OnPermission = sink }
}

// WithErrorSink sets the sink for errors with no caller to return to.
func WithErrorSink(sink ErrorSink) ClientOption {
	return func(c *ClientConfig) { c.OnError = sink }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *ClientConfig) { c.Logger = logger }
}

// WithTrace writes every sent and received wire message to w as JSONL
// trace entries.
func WithTrace(w io.Writer) ClientOption {
	return func(c *ClientConfig) { c.TraceWriter = w }
}
