// Package acp implements the client side of the Agent Client Protocol
// (ACP): newline-delimited JSON-RPC 2.0 over any byte stream, typically a
// WebSocket bridged through the wsbridge package.
//
// The package splits the protocol into its two halves. Client implements
// the inbound contract the remote agent invokes on this side (session
// update routing, file callbacks, and permission requests settled
// externally through correlation ids). Agent implements the outbound
// contract (initialize, sessions, prompts, mode and model switches) with
// lifecycle hooks around every call.
//
// # Connecting
//
//	stream, err := transport.Connect(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	client := acp.NewClient(stream,
//	    acp.WithFileSystem(acp.OSFileSystem{}),
//	    acp.WithSessionUpdates(func(sessionID string, u acp.SessionUpdate) {
//	        // render u
//	    }),
//	    acp.WithPermissionRequests(func(id string, req acp.RequestPermissionRequest) {
//	        // show req to the user, later:
//	        // client.ResolvePermission(id, acp.SelectedOutcome(optionID))
//	    }),
//	)
//	if err := client.Start(); err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
// # Driving the agent
//
//	agent := acp.NewAgent(client, acp.CallObserver{
//	    OnCallError: func(m acp.Method, params interface{}, err *acp.RPCError) {
//	        log.Printf("%s failed: %v", m, err)
//	    },
//	})
//
//	if _, err := agent.Initialize(ctx, acp.InitializeRequest{
//	    ProtocolVersion: acp.ProtocolVersion,
//	}); err != nil {
//	    log.Fatal(err)
//	}
//
//	created, err := agent.NewSession(ctx, acp.NewSessionRequest{CWD: "/work"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := agent.Prompt(ctx, acp.PromptRequest{
//	    SessionID: created.SessionID,
//	    Prompt:    []acp.ContentBlock{acp.NewTextContent("hello")},
//	})
//
// # Permission requests
//
// The agent blocks its tool call until the client answers
// session/request_permission. The client never answers directly: it hands
// the request plus a fresh correlation id to the permission sink and parks
// the wire response on a Deferred. Whoever owns the UI settles it later
// with ResolvePermission or RejectPermission; settling an id that is not
// pending is a no-op. Cancel settles everything pending with the cancelled
// outcome before notifying the agent.
package acp
