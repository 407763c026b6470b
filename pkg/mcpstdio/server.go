// Package mcpstdio implements a JSON-RPC-like stdio transport: one
// JSON object per line in, one JSON object per line out, with three
// methods — initialize, tools/list, tools/call. Grounded on
// pkg/mcp/server.go's WrapToolHandler idea (pre/post hooks wrapping a
// tool call), generalized from "governance intercept" to "shared
// runtime dispatch": this transport has no governance-firewall
// concept of its own, so the wrapper is just the tool execution
// runtime's own correlation-id/security-context/hashing pipeline.
package mcpstdio

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/ChrisPatten/capital-os/pkg/security"
	"github.com/ChrisPatten/capital-os/pkg/toolruntime"
	"github.com/ChrisPatten/capital-os/pkg/toolschema"
)

// Request is one line of stdin: a method name plus its params.
type Request struct {
	ID     any             `json:"id,omitempty"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response is one line of stdout, mirroring the request id.
type Response struct {
	ID     any       `json:"id,omitempty"`
	Result any       `json:"result,omitempty"`
	Error  *RPCError `json:"error,omitempty"`
}

// RPCError is the JSON-RPC-shaped error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// toolsCallParams is tools/call's params shape.
type toolsCallParams struct {
	Name          string         `json:"name"`
	Arguments     map[string]any `json:"arguments"`
	CorrelationID string         `json:"correlation_id"`
}

// Server runs the stdio read-eval-print loop against one Runtime.
type Server struct {
	Runtime  *toolruntime.Runtime
	Identity security.Context
}

// Serve reads newline-delimited JSON-RPC requests from r and writes
// responses to w until r is exhausted or a read error occurs.
func (s *Server) Serve(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	enc := json.NewEncoder(w)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			_ = enc.Encode(Response{Error: &RPCError{Code: -32700, Message: "parse error: " + err.Error()}})
			continue
		}
		resp := s.dispatch(req)
		if err := enc.Encode(resp); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// initializeParams is initialize's params shape. MinSchemaVersion is
// an optional semver constraint (e.g. "^1.0.0") the client requires
// this build's tool schema to satisfy before it will proceed.
type initializeParams struct {
	MinSchemaVersion string `json:"min_schema_version"`
}

func (s *Server) dispatch(req Request) Response {
	switch req.Method {
	case "initialize":
		var params initializeParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &params); err != nil {
				return Response{ID: req.ID, Error: &RPCError{Code: -32602, Message: "invalid params: " + err.Error()}}
			}
		}
		if params.MinSchemaVersion != "" {
			compatible, err := toolschema.CheckCompatible(params.MinSchemaVersion)
			if err != nil {
				return Response{ID: req.ID, Error: &RPCError{Code: -32602, Message: err.Error()}}
			}
			if !compatible {
				return Response{ID: req.ID, Error: &RPCError{Code: -32000, Message: fmt.Sprintf(
					"schema version %s does not satisfy requested constraint %q", toolschema.Version, params.MinSchemaVersion)}}
			}
		}
		return Response{ID: req.ID, Result: map[string]any{
			"protocol":       "capital-os-stdio/1",
			"tools":          len(toolschema.Names()),
			"schema_version": toolschema.Version,
		}}
	case "tools/list":
		return Response{ID: req.ID, Result: s.toolList()}
	case "tools/call":
		return s.handleToolsCall(req)
	default:
		return Response{ID: req.ID, Error: &RPCError{Code: -32601, Message: "unknown method: " + req.Method}}
	}
}

func (s *Server) toolList() map[string]any {
	names := toolschema.Names()
	descriptors := make([]map[string]any, 0, len(names))
	for _, name := range names {
		d, _ := toolschema.Get(name)
		descriptors = append(descriptors, map[string]any{
			"name":           d.Name,
			"write":          d.Write,
			"input_schema":   d.Schema,
			"schema_version": d.SchemaVersion,
		})
	}
	return map[string]any{"tools": descriptors}
}

func (s *Server) handleToolsCall(req Request) Response {
	var params toolsCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return Response{ID: req.ID, Error: &RPCError{Code: -32602, Message: "invalid params: " + err.Error()}}
	}
	if _, ok := toolschema.Get(params.Name); !ok {
		return Response{ID: req.ID, Error: &RPCError{Code: -32601, Message: fmt.Sprintf("unknown tool: %s", params.Name)}}
	}

	correlationID := params.CorrelationID
	if correlationID == "" {
		correlationID = uuid.New().String()
	}
	payload := params.Arguments
	if payload == nil {
		payload = map[string]any{}
	}
	if _, has := payload["correlation_id"]; !has {
		payload["correlation_id"] = correlationID
	}

	invocation := toolruntime.InvocationContext{
		ActorID:             s.Identity.ActorID,
		AuthnMethod:         s.Identity.AuthnMethod,
		AuthorizationResult: s.Identity.AuthorizationResult,
	}

	result := s.Runtime.ExecuteTool(context.Background(), params.Name, payload, correlationID, invocation)
	if result.Status != toolruntime.ResultOK {
		return Response{ID: req.ID, Error: &RPCError{Code: -32000, Message: result.ErrorMessage}}
	}
	return Response{ID: req.ID, Result: result.Response}
}
