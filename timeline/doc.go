// Package timeline aggregates the raw client event stream into
// UI-renderable form.
//
// Log is the append-only notification store an external state holder
// feeds from the acp sinks. GroupNotifications clusters adjacent entries
// of the same semantic kind for rendering, and MergeToolCalls collapses
// the fragmented partial updates of each tool call into one coherent
// record.
//
//	log := timeline.NewLog()
//
//	client := acp.NewClient(stream,
//	    acp.WithSessionUpdates(func(sessionID string, u acp.SessionUpdate) {
//	        log.Append(timeline.NewUpdateNotification(sessionID, u))
//	    }),
//	    acp.WithErrorSink(func(err error) {
//	        log.Append(timeline.NewErrorNotification("", err))
//	    }),
//	)
//
//	for _, group := range timeline.GroupNotifications(log.All()) {
//	    render(group)
//	}
package timeline
