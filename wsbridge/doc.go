// Package wsbridge adapts WebSocket connections into the byte streams the
// acp protocol layer consumes, and owns their reconnect lifecycle.
//
// Stream presents one socket as an io.ReadWriteCloser: inbound frames
// become ordered chunks (text frames gain a trailing newline for the
// peer's line-based framing), outbound writes become text frames while
// the socket is open and are dropped otherwise. Transport dials one
// endpoint with a fixed-delay retry policy and announces every state
// transition to an observer. Mux keeps one Transport per endpoint URL.
//
// # Usage
//
//	transport := wsbridge.NewTransport("ws://localhost:3017",
//	    wsbridge.WithMaxAttempts(3),
//	    wsbridge.WithObserver(func(s wsbridge.State) {
//	        log.Printf("%s: %s", s.Endpoint, s.Phase)
//	    }),
//	)
//
//	stream, err := transport.Connect(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer transport.Disconnect()
//
//	client := acp.NewClient(stream)
//
// Connecting to several agents goes through a Mux instead:
//
//	mux := wsbridge.NewMux(wsbridge.WithObserver(observe))
//	stream, err := mux.Connect(ctx, "ws://localhost:3017")
//	...
//	mux.DisconnectAll()
package wsbridge
