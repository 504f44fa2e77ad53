package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// cannedTransport answers each method from a fixed result (or RPC
// error) and records the traffic it carried.
type cannedTransport struct {
	results map[string]any
	rpcErrs map[string]*RPCError
	sent    []Request
	notifs  []string
	closed  bool
}

func newCannedTransport() *cannedTransport {
	return &cannedTransport{
		results: map[string]any{
			"initialize": initializeResult{
				ProtocolVersion: protocolVersion,
				ServerInfo:      serverInfo{Name: "mem-agent", Version: "0.3.1"},
			},
		},
		rpcErrs: map[string]*RPCError{},
	}
}

func (ct *cannedTransport) Send(_ context.Context, req *Request) (*Response, error) {
	ct.sent = append(ct.sent, *req)
	if e, ok := ct.rpcErrs[req.Method]; ok {
		return &Response{JSONRPC: rpcVersion, ID: req.ID, Error: e}, nil
	}
	result, ok := ct.results[req.Method]
	if !ok {
		return nil, fmt.Errorf("unexpected method %s", req.Method)
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	return &Response{JSONRPC: rpcVersion, ID: req.ID, Result: raw}, nil
}

func (ct *cannedTransport) Notify(_ context.Context, notif *Notification) error {
	ct.notifs = append(ct.notifs, notif.Method)
	return nil
}

func (ct *cannedTransport) Close() error {
	ct.closed = true
	return nil
}

func TestInitializeHandshake(t *testing.T) {
	ct := newCannedTransport()
	c := NewClient("mem-agent", ct, nil)

	if err := c.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	if len(ct.sent) != 1 || ct.sent[0].Method != "initialize" {
		t.Fatalf("wire requests: %+v", ct.sent)
	}
	if len(ct.notifs) != 1 || ct.notifs[0] != "notifications/initialized" {
		t.Errorf("handshake must end with the initialized notification, got %v", ct.notifs)
	}
	if c.Name() != "mem-agent" {
		t.Errorf("Name() = %q", c.Name())
	}
	if !c.ready || c.server.Name != "mem-agent" {
		t.Errorf("server info not captured: %+v", c.server)
	}
}

func TestListToolsCachesCatalog(t *testing.T) {
	ct := newCannedTransport()
	ct.results["tools/list"] = toolsListResult{
		Tools: []ToolDefinition{
			{Name: "store_memory", Description: "Persist a fact"},
			{Name: "retrieve_memory", Description: "Recall facts"},
		},
	}
	c := NewClient("mem-agent", ct, nil)

	for round := 0; round < 2; round++ {
		defs, err := c.ListTools(context.Background())
		if err != nil {
			t.Fatalf("round %d: %v", round, err)
		}
		if len(defs) != 2 || defs[0].Name != "store_memory" {
			t.Fatalf("round %d: catalog %+v", round, defs)
		}
	}

	// Both rounds served by one wire request.
	if len(ct.sent) != 1 {
		t.Errorf("tools/list hit the wire %d times, want 1", len(ct.sent))
	}
}

func TestCallToolFlattensContent(t *testing.T) {
	ct := newCannedTransport()
	ct.results["tools/call"] = callToolResult{
		Content: []ContentBlock{
			{Type: "text", Text: "stored: user prefers terse notes"},
			{Type: "image"},
			{Type: "text", Text: "id m_42"},
		},
	}
	c := NewClient("mem-agent", ct, nil)

	got, err := c.CallTool(context.Background(), "store_memory", map[string]any{
		"content": "user prefers terse notes",
	})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	want := "stored: user prefers terse notes\n[image]\nid m_42"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCallToolServerSideFailure(t *testing.T) {
	ct := newCannedTransport()
	ct.results["tools/call"] = callToolResult{
		Content: []ContentBlock{{Type: "text", Text: "memory store is read-only"}},
		IsError: true,
	}
	c := NewClient("mem-agent", ct, nil)

	_, err := c.CallTool(context.Background(), "store_memory", nil)
	if err == nil {
		t.Fatal("isError result must surface as an error")
	}
	if !strings.Contains(err.Error(), "memory store is read-only") {
		t.Errorf("error should carry the server text: %v", err)
	}
}

func TestCallToolProtocolError(t *testing.T) {
	ct := newCannedTransport()
	ct.rpcErrs["tools/call"] = &RPCError{Code: -32601, Message: "Method not found"}
	c := NewClient("mem-agent", ct, nil)

	_, err := c.CallTool(context.Background(), "no_such_tool", nil)
	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) || rpcErr.Code != -32601 {
		t.Errorf("expected the RPC error to pass through, got %v", err)
	}
}

func TestPing(t *testing.T) {
	ct := newCannedTransport()
	ct.results["ping"] = map[string]any{}
	c := NewClient("mem-agent", ct, nil)

	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestCloseReleasesTransport(t *testing.T) {
	ct := newCannedTransport()
	c := NewClient("mem-agent", ct, nil)
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !ct.closed {
		t.Error("transport left open")
	}
}

func TestJoinContent(t *testing.T) {
	cases := []struct {
		name   string
		blocks []ContentBlock
		want   string
	}{
		{"text only", []ContentBlock{{Type: "text", Text: "hello"}}, "hello"},
		{"marker for unknown type", []ContentBlock{{Type: "audio"}}, "[audio]"},
		{"empty", nil, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := joinContent(tc.blocks); got != tc.want {
				t.Errorf("joinContent() = %q, want %q", got, tc.want)
			}
		})
	}
}
