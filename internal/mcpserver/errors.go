package mcpserver

import (
	"context"
	goerrors "errors"
	"fmt"

	ciErrors "github.com/crateindex/crateindex/internal/errors"
)

// Standard JSON-RPC error codes, reused for every crateindex-specific
// condition rather than minting new ones (spec §7 only distinguishes
// "invalid request" from "internal error").
const (
	ErrCodeInvalidRequest = -32600
	ErrCodeInternalError  = -32603
)

// MCPError is an MCP protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// MapError converts a crateindex error into the MCP error envelope, per
// spec §7's taxonomy table: the caller-side kinds listed in the switch
// below map to "invalid request", and every other failure (fetch, chunk,
// embedding, store, cancellation, unexpected) maps to "internal error",
// matching
// original_source/src/error.rs's BackendError -> McpError mapping.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	if goerrors.Is(err, context.Canceled) {
		return &MCPError{Code: ErrCodeInternalError, Message: "Operation cancelled."}
	}

	var ciErr *ciErrors.Error
	if goerrors.As(err, &ciErr) {
		message := ciErr.Message
		if ciErr.Suggestion != "" {
			message = fmt.Sprintf("%s %s", ciErr.Message, ciErr.Suggestion)
		}

		switch ciErr.Code {
		case ciErrors.ErrCodeInvalidTarget,
			ciErrors.ErrCodeVersionResolutionFailed,
			ciErrors.ErrCodeUnknownFeature,
			ciErrors.ErrCodeConflict,
			ciErrors.ErrCodeNoEmbeddedDocs,
			ciErrors.ErrCodeNoQueryResults,
			ciErrors.ErrCodeOperationNotFound,
			ciErrors.ErrCodeInvalidQuery:
			return &MCPError{Code: ErrCodeInvalidRequest, Message: message}
		default:
			return &MCPError{Code: ErrCodeInternalError, Message: message}
		}
	}

	return &MCPError{Code: ErrCodeInternalError, Message: err.Error()}
}
