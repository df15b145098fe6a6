package timeline

import (
	"fmt"

	"github.com/marimo-team/use-acp/acp"
)

// MergeToolCalls folds a flat sequence of tool-call updates, possibly
// interleaved across different tool call ids, into one coherent record per
// id. Records come out in first-appearance order. Within one id:
//
//   - identity fields (title, kind) come from the first update that sets
//     them; later updates fill gaps but never override;
//   - status is the last non-empty status observed;
//   - content and locations are concatenated across updates in arrival
//     order, without deduplication;
//   - rawInput and rawOutput are shallow-merged in arrival order, later
//     keys overwriting earlier ones.
//
// Updates that are not tool-call-related are skipped. A tool-call update
// with no id is a programming error and fails the whole merge rather than
// silently dropping data.
func MergeToolCalls(updates []acp.SessionUpdate) ([]acp.ToolCall, error) {
	var order []string
	merged := make(map[string]*acp.ToolCall)

	for i, u := range updates {
		tc, ok := acp.ToolCallFields(u)
		if !ok {
			continue
		}
		if tc.ToolCallID == "" {
			return nil, fmt.Errorf("tool call update at index %d has no toolCallId", i)
		}

		rec, seen := merged[tc.ToolCallID]
		if !seen {
			rec = &acp.ToolCall{ToolCallID: tc.ToolCallID}
			merged[tc.ToolCallID] = rec
			order = append(order, tc.ToolCallID)
		}

		if rec.Title == "" {
			rec.Title = tc.Title
		}
		if rec.Kind == "" {
			rec.Kind = tc.Kind
		}
		if tc.Status != "" {
			rec.Status = tc.Status
		}
		rec.Content = append(rec.Content, tc.Content...)
		rec.Locations = append(rec.Locations, tc.Locations...)
		rec.RawInput = mergeMaps(rec.RawInput, tc.RawInput)
		rec.RawOutput = mergeMaps(rec.RawOutput, tc.RawOutput)
	}

	out := make([]acp.ToolCall, 0, len(order))
	for _, id := range order {
		out = append(out, *merged[id])
	}
	return out, nil
}

// mergeMaps shallow-merges src into dst, later keys overwriting earlier.
func mergeMaps(dst, src map[string]interface{}) map[string]interface{} {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]interface{}, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
