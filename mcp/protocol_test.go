package mcp

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestJSONRPCRequest_IsNotification(t *testing.T) {
	tests := []struct {
		name string
		line string
		want bool
	}{
		{"numeric id", `{"jsonrpc":"2.0","id":1,"method":"ping"}`, false},
		{"string id", `{"jsonrpc":"2.0","id":"abc","method":"ping"}`, false},
		{"null id", `{"jsonrpc":"2.0","id":null,"method":"ping"}`, false},
		{"no id", `{"jsonrpc":"2.0","method":"notifications/initialized"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req JSONRPCRequest
			if err := json.Unmarshal([]byte(tt.line), &req); err != nil {
				t.Fatalf("Failed to unmarshal: %v", err)
			}
			if got := req.IsNotification(); got != tt.want {
				t.Errorf("IsNotification() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJSONRPCResponse_IDPreserved(t *testing.T) {
	resp := JSONRPCResponse{JSONRPC: "2.0", ID: json.RawMessage(`"req-7"`), Result: struct{}{}}
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}
	if got := string(data); got != `{"jsonrpc":"2.0","id":"req-7","result":{}}` {
		t.Errorf("unexpected encoding: %s", got)
	}
}

func TestJSONRPCResponse_NullID(t *testing.T) {
	resp := JSONRPCResponse{JSONRPC: "2.0", Error: &RPCError{Code: CodeParseError, Message: "Parse error"}}
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}
	if !strings.Contains(string(data), `"id":null`) {
		t.Errorf("expected id null, got %s", data)
	}
	if strings.Contains(string(data), `"result"`) {
		t.Errorf("error response must not carry a result: %s", data)
	}
}

func TestToolCallResult_OmitsFalseIsError(t *testing.T) {
	data, err := json.Marshal(ToolCallResult{Content: []ContentItem{{Type: "text", Text: "{}"}}})
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}
	if strings.Contains(string(data), "isError") {
		t.Errorf("isError should be omitted when false: %s", data)
	}
}
