package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/zhubert/gitgate/journal"
	"github.com/zhubert/gitgate/logger"
	"github.com/zhubert/gitgate/service"
)

const (
	DefaultProtocolVersion = "2024-11-05"
	ServerName             = "gitgate"
)

// Capability blocks mirrored back to a client that declares them.
var mirroredCapabilities = []string{"prompts", "resources", "logging", "roots", "sampling"}

// Server implements an MCP server over newline-delimited JSON-RPC 2.0.
// Lines are handled strictly one at a time, each journaled before its
// response is written.
type Server struct {
	reader  *bufio.Reader
	writer  io.Writer
	svc     *service.Service
	tools   *toolset
	version string
	mu      sync.Mutex
	log     *slog.Logger

	initialized  bool
	clientInfo   ClientInfo
	capabilities map[string]json.RawMessage
}

// ServerOption is a functional option for configuring Server
type ServerOption func(*Server)

// WithVersion sets the version reported in serverInfo.
func WithVersion(v string) ServerOption {
	return func(s *Server) {
		s.version = v
	}
}

// NewServer creates a new MCP server
func NewServer(r io.Reader, w io.Writer, svc *service.Service, opts ...ServerOption) (*Server, error) {
	tools, err := newToolset(svc)
	if err != nil {
		return nil, err
	}
	s := &Server{
		reader:  bufio.NewReader(r),
		writer:  w,
		svc:     svc,
		tools:   tools,
		version: "dev",
		log:     logger.WithComponent("mcp"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ClientInfo returns the client identification recorded by the first
// initialize call.
func (s *Server) ClientInfo() ClientInfo {
	return s.clientInfo
}

// ClientCapabilities returns the capability blocks the client declared.
func (s *Server) ClientCapabilities() map[string]json.RawMessage {
	return s.capabilities
}

type line struct {
	text string
	err  error
}

// Run starts the MCP server loop. It returns nil on EOF, shutdown, exit or
// when ctx is cancelled, and an error only when reading fails.
func (s *Server) Run(ctx context.Context) error {
	s.log.Info("server starting", "mode", s.svc.Snapshot().Mode, "tools", len(s.tools.tools))

	lines := make(chan line)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			text, err := s.reader.ReadString('\n')
			select {
			case lines <- line{text: text, err: err}:
			case <-done:
				return
			}
			if err != nil {
				return
			}
		}
	}()

	for {
		var l line
		select {
		case <-ctx.Done():
			s.log.Info("context cancelled, shutting down")
			return nil
		case l = <-lines:
		}

		if text := strings.TrimSpace(l.text); text != "" {
			s.log.Debug("received message", "line", text)
			if stop := s.handleLine(ctx, text); stop {
				s.log.Info("shutdown requested")
				return nil
			}
		}

		if l.err == io.EOF {
			s.log.Info("EOF received, shutting down")
			return nil
		}
		if l.err != nil {
			s.log.Error("read error", "error", l.err)
			return l.err
		}
	}
}

// exchange is one request and its outcome.
type exchange struct {
	req     *JSONRPCRequest
	tool    string
	repo    string
	result  any
	err     *RPCError
	noReply bool
}

func (s *Server) handleLine(ctx context.Context, text string) bool {
	var req JSONRPCRequest
	if err := json.Unmarshal([]byte(text), &req); err != nil {
		s.log.Error("JSON parse error", "error", err)
		rpcErr := &RPCError{Code: CodeParseError, Message: "Parse error", Data: err.Error()}
		s.journal(&exchange{req: &JSONRPCRequest{Params: journal.MarshalResult(text)}, err: rpcErr})
		s.sendError(nil, rpcErr)
		return false
	}
	return s.handleRequest(ctx, &req)
}

// handleRequest dispatches req. The deferred path journals the exchange,
// recovers handler panics and writes the response, in that order.
func (s *Server) handleRequest(ctx context.Context, req *JSONRPCRequest) (stop bool) {
	ex := &exchange{req: req}
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("handler panic", "method", req.Method, "panic", r, "stack", string(debug.Stack()))
			ex.result = nil
			ex.err = &RPCError{
				Code:    CodeInternalError,
				Message: fmt.Sprintf("internal error: %v", r),
				Data:    ErrorData{Code: DataCodeInternal},
			}
			stop = false
		}
		s.journal(ex)
		s.reply(ex)
	}()

	if req.JSONRPC != JSONRPCVersion {
		ex.err = &RPCError{Code: CodeInvalidRequest, Message: fmt.Sprintf("Invalid Request: jsonrpc must be %q", JSONRPCVersion)}
		return false
	}
	if req.Method == "" {
		ex.err = &RPCError{Code: CodeInvalidRequest, Message: "Invalid Request: method is required"}
		return false
	}
	return s.dispatch(ctx, ex)
}

func (s *Server) dispatch(ctx context.Context, ex *exchange) bool {
	req := ex.req
	switch req.Method {
	case MethodInitialize:
		ex.result, ex.err = s.handleInitialize(req)
	case MethodInitialized, MethodInitializedLegacy:
		s.log.Debug("initialized notification received")
		ex.noReply = true
	case MethodToolsList:
		ex.result = ToolsListResult{Tools: s.tools.definitions(), Status: s.svc.Snapshot()}
	case MethodToolsCall:
		s.handleToolsCall(ctx, ex)
	case MethodPing:
		ex.result = struct{}{}
	case MethodShutdown:
		ex.result = struct{}{}
		return true
	case MethodExit, MethodExitLegacy:
		ex.noReply = true
		return true
	case MethodPromptsList:
		ex.result = map[string]any{"prompts": []any{}}
	case MethodPromptsGet:
		ex.result = map[string]any{"messages": []any{}}
	case MethodResourcesList:
		ex.result = map[string]any{"resources": []any{}}
	case MethodResourcesTemplatesList:
		ex.result = map[string]any{"resourceTemplates": []any{}}
	case MethodResourcesRead:
		ex.result = map[string]any{"contents": []any{}}
	case MethodRootsList:
		ex.result = map[string]any{"roots": []any{}}
	case MethodLoggingSetLevel:
		ex.result, ex.err = s.handleSetLevel(req)
	default:
		if req.IsNotification() {
			s.log.Debug("ignoring unknown notification", "method", req.Method)
			ex.noReply = true
			return false
		}
		s.log.Warn("unknown method", "method", req.Method)
		ex.err = &RPCError{Code: CodeMethodNotFound, Message: "Method not found: " + req.Method}
	}
	return false
}

func (s *Server) handleInitialize(req *JSONRPCRequest) (any, *RPCError) {
	var params InitializeParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return nil, &RPCError{Code: CodeInvalidParams, Message: "Invalid params: " + err.Error()}
		}
	}

	if !s.initialized {
		s.initialized = true
		s.clientInfo = params.ClientInfo
		s.capabilities = params.Capabilities
		s.log.Info("client initialized", "client", params.ClientInfo.Name, "clientVersion", params.ClientInfo.Version,
			"protocolVersion", params.ProtocolVersion)
	}

	version := params.ProtocolVersion
	if version == "" {
		version = DefaultProtocolVersion
	}

	caps := map[string]any{"tools": ToolCapability{}}
	for _, name := range mirroredCapabilities {
		if _, ok := params.Capabilities[name]; ok {
			caps[name] = struct{}{}
		}
	}

	return InitializeResult{
		ProtocolVersion: version,
		Capabilities:    caps,
		ServerInfo:      ServerInfo{Name: ServerName, Version: s.version},
		Instructions: "Git operations with a review gate. Record edits with " + s.svc.ToolName(service.ToolSaveChanges) +
			", review them with " + s.svc.ToolName(service.ToolGetPendingChanges) +
			", then push with " + s.svc.ToolName(service.ToolGitPush) + ".",
	}, nil
}

func (s *Server) handleSetLevel(req *JSONRPCRequest) (any, *RPCError) {
	var params SetLevelParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params.Level == "" {
		return nil, &RPCError{Code: CodeInvalidParams, Message: "Invalid params: level is required"}
	}
	if !logger.SetLevel(params.Level) {
		return nil, &RPCError{Code: CodeInvalidParams, Message: "Invalid params: unknown level " + params.Level}
	}
	s.log.Info("log level changed", "level", params.Level)
	return struct{}{}, nil
}

func (s *Server) handleToolsCall(ctx context.Context, ex *exchange) {
	var params ToolCallParams
	if err := json.Unmarshal(ex.req.Params, &params); err != nil || params.Name == "" {
		s.log.Error("failed to parse tool call params", "error", err)
		ex.err = &RPCError{Code: CodeInvalidParams, Message: "Invalid params: tool name is required"}
		return
	}

	t, ok := s.tools.lookup(params.Name)
	if !ok {
		s.log.Warn("unknown tool", "tool", params.Name)
		ex.err = &RPCError{Code: CodeMethodNotFound, Message: "Unknown tool: " + params.Name}
		return
	}
	ex.tool = t.name

	args := params.Arguments
	if len(args) == 0 || string(args) == "null" {
		args = json.RawMessage("{}")
	}
	ex.repo = repoArgument(args)

	if err := t.validate(args); err != nil {
		ex.err = rpcErrorFrom(err)
		return
	}

	log := s.log.With("tool", t.name)
	if ex.repo != "" {
		log = log.With("repo", ex.repo)
	}
	log.Debug("tool called")

	out, err := t.call(ctx, s.svc, args)
	if err != nil {
		ex.err = rpcErrorFrom(err)
		log.Warn("tool failed", "code", ex.err.Code, "error", err)
		return
	}
	res, err := toolResult(out)
	if err != nil {
		ex.err = rpcErrorFrom(err)
		return
	}
	ex.result = res
}

// journal records the exchange. Journal failures are logged and never
// change the response.
func (s *Server) journal(ex *exchange) {
	store := s.svc.Journal(ex.repo)
	op := store.NewOperation(ex.req.Method)
	op.Tool = ex.tool
	op.Repo = ex.repo
	op.Params = ex.req.Params
	if ex.err != nil {
		op.Error = &journal.OperationError{Code: ex.err.Code, Message: ex.err.Message}
		if data, ok := ex.err.Data.(ErrorData); ok {
			op.Error.Kind = data.Code
		}
	} else {
		op.Result = journal.MarshalResult(ex.result)
	}
	if err := store.AppendOperation(op); err != nil {
		s.log.Warn("failed to journal operation", "method", ex.req.Method, "error", err)
	}
}

func (s *Server) reply(ex *exchange) {
	if ex.noReply || ex.req.IsNotification() {
		return
	}
	if ex.err != nil {
		s.sendError(ex.req.ID, ex.err)
		return
	}
	s.sendResult(ex.req.ID, ex.result)
}

func (s *Server) sendResult(id json.RawMessage, result any) {
	resp := JSONRPCResponse{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Result:  result,
	}

	s.send(resp)
}

func (s *Server) sendError(id json.RawMessage, rpcErr *RPCError) {
	resp := JSONRPCResponse{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Error:   rpcErr,
	}

	s.send(resp)
}

func (s *Server) send(resp JSONRPCResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.log.Error("failed to marshal response", "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = fmt.Fprintf(s.writer, "%s\n", data)
	if err != nil {
		s.log.Error("failed to write response", "error", err)
	} else {
		s.log.Debug("sent response", "data", string(data))
	}
}
