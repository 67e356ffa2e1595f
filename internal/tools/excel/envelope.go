package excel

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// failurePayload builds the uniform failure envelope. Every failed call
// returns a flat JSON object carrying at least "error" and "error_type",
// echoing the file path and sheet name being operated on. Stack traces and
// internal details never reach the wire.
func failurePayload(err error, filePath, sheetName string) map[string]any {
	payload := map[string]any{
		"error":      err.Error(),
		"error_type": errorKind(err),
	}
	if filePath != "" {
		payload["file_path"] = filePath
	}
	if sheetName != "" {
		payload["sheet_name"] = sheetName
	}
	return payload
}

// toolResult wraps a handler outcome into the single JSON envelope every
// tool call produces. Success payloads pass through flat; errors are
// converted rather than propagated, so a malformed request never becomes a
// transport-level fault.
func toolResult(payload map[string]any, err error, filePath, sheetName string) (*mcp.CallToolResult, error) {
	if err != nil {
		return mcp.NewToolResultJSON(failurePayload(err, filePath, sheetName))
	}
	return mcp.NewToolResultJSON(payload)
}
