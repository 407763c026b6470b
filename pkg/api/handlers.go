package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ChrisPatten/capital-os/pkg/security"
	"github.com/ChrisPatten/capital-os/pkg/toolruntime"
)

// Server wires the tool execution runtime onto the HTTP transport:
// one POST endpoint per tool name plus a liveness check. Grounded on
// original_source/.../api/routes.py, which exposes the same
// single-dispatch shape rather than one route per tool.
type Server struct {
	Runtime          *toolruntime.Runtime
	ToolCapabilities map[string]string
}

// toolCallRequest is the envelope every /tools/{name} POST body must
// match: the payload fields plus the correlation_id execute_tool
// requires on every invocation.
type toolCallRequest struct {
	CorrelationID string         `json:"correlation_id"`
	Payload       map[string]any `json:"payload"`
}

// HandleToolCall dispatches POST /tools/{name} to the runtime. The
// caller's security context must already be attached to the request
// context by the bearer-token middleware.
func (s *Server) HandleToolCall(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteMethodNotAllowed(w)
		return
	}

	toolName := strings.TrimPrefix(r.URL.Path, "/tools/")
	if toolName == "" || strings.Contains(toolName, "/") {
		WriteNotFound(w, "no such tool")
		return
	}

	sc, ok := security.FromContext(r.Context())
	if !ok {
		WriteUnauthorized(w, "")
		return
	}
	if !security.AuthorizeTool(sc, s.ToolCapabilities, toolName) {
		WriteForbidden(w, "caller lacks the capability this tool requires")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req toolCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "request body must be a JSON object with correlation_id and payload")
		return
	}
	if req.Payload == nil {
		req.Payload = map[string]any{}
	}
	if _, has := req.Payload["correlation_id"]; !has {
		req.Payload["correlation_id"] = req.CorrelationID
	}

	invocation := toolruntime.InvocationContext{
		ActorID:             sc.ActorID,
		AuthnMethod:         sc.AuthnMethod,
		AuthorizationResult: sc.AuthorizationResult,
	}

	result := s.Runtime.ExecuteTool(r.Context(), toolName, req.Payload, req.CorrelationID, invocation)
	writeToolResult(w, r, result)
}

// HandleHealth handles GET /health: a dependency-free liveness probe.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteMethodNotAllowed(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// writeToolResult maps a ToolResult onto the HTTP status and body the
// RFC 7807 error convention (or a plain 200 JSON body on success)
// requires.
func writeToolResult(w http.ResponseWriter, r *http.Request, result toolruntime.ToolResult) {
	switch result.Status {
	case toolruntime.ResultOK:
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(result.Response)
	case toolruntime.ResultUnknownTool:
		WriteErrorR(w, r, http.StatusNotFound, "Not Found", result.ErrorMessage)
	case toolruntime.ResultValidationError:
		WriteErrorR(w, r, http.StatusUnprocessableEntity, "Validation Error", result.ErrorMessage)
	case toolruntime.ResultEventLogFailure:
		WriteErrorR(w, r, http.StatusInternalServerError, "Event Log Failure", "the tool ran but its execution could not be durably recorded")
	default:
		WriteErrorR(w, r, http.StatusBadRequest, "Tool Execution Error", result.ErrorMessage)
	}
}
