package timeline

import "github.com/marimo-team/use-acp/acp"

// GroupKind labels a cluster of notifications for rendering.
type GroupKind string

const (
	// GroupToolCalls clusters tool_call and tool_call_update entries,
	// regardless of which tool call they belong to.
	GroupToolCalls GroupKind = "tool_calls"
	// GroupConnection clusters connection state changes.
	GroupConnection GroupKind = "connection"
	// GroupError clusters errors.
	GroupError GroupKind = "error"
	// Other session updates cluster under their update subtype.
)

// Group is a run of consecutive notifications of the same kind.
type Group struct {
	Kind          GroupKind
	Notifications []Notification
}

// GroupNotifications clusters an ordered sequence of notifications into
// runs of "the same kind": tool-call-related updates cluster together
// regardless of tool call id, other session updates cluster on identical
// subtype, and connection and error entries cluster on their coarse kind.
// A single left-to-right scan with no lookahead or reordering.
func GroupNotifications(notifications []Notification) []Group {
	var groups []Group
	for _, n := range notifications {
		kind := groupKind(n)
		if len(groups) > 0 && groups[len(groups)-1].Kind == kind {
			last := &groups[len(groups)-1]
			last.Notifications = append(last.Notifications, n)
			continue
		}
		groups = append(groups, Group{Kind: kind, Notifications: []Notification{n}})
	}
	return groups
}

// groupKind maps a notification to its clustering label.
func groupKind(n Notification) GroupKind {
	switch n.Kind {
	case KindConnection:
		return GroupConnection
	case KindError:
		return GroupError
	case KindUpdate:
		if n.Update == nil {
			return GroupKind(KindUpdate)
		}
		if _, ok := acp.ToolCallFields(n.Update); ok {
			return GroupToolCalls
		}
		return GroupKind(n.Update.UpdateType())
	default:
		return GroupKind(n.Kind)
	}
}
