package acp

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// OSFileSystem serves agent file requests directly from the host filesystem.
type OSFileSystem struct{}

func (OSFileSystem) ReadTextFile(_ context.Context, req ReadTextFileRequest) (ReadTextFileResponse, error) {
	data, err := os.ReadFile(req.Path)
	if err != nil {
		if os.IsNotExist(err) {
			// Agents probe for file existence via read_text_file before
			// writing and do not handle error responses in that flow.
			return ReadTextFileResponse{Content: ""}, nil
		}
		return ReadTextFileResponse{}, fmt.Errorf("failed to read file %s: %w", req.Path, err)
	}

	content := string(data)

	// Apply line offset and limit if specified
	if req.Line > 0 || req.Limit > 0 {
		lines := strings.Split(content, "\n")
		start := 0
		if req.Line > 0 {
			start = req.Line - 1 // 1-based to 0-based
		}
		if start >= len(lines) {
			content = ""
		} else {
			end := len(lines)
			if req.Limit > 0 && start+req.Limit < end {
				end = start + req.Limit
			}
			content = strings.Join(lines[start:end], "\n")
		}
	}

	return ReadTextFileResponse{Content: content}, nil
}

func (OSFileSystem) WriteTextFile(_ context.Context, req WriteTextFileRequest) (WriteTextFileResponse, error) {
	if err := os.WriteFile(req.Path, []byte(req.Content), 0644); err != nil {
		return WriteTextFileResponse{}, fmt.Errorf("failed to write file %s: %w", req.Path, err)
	}
	return WriteTextFileResponse{}, nil
}
