package mcp

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestRequestWireFormat(t *testing.T) {
	data, err := json.Marshal(&Request{JSONRPC: rpcVersion, ID: 7, Method: "ping"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["jsonrpc"] != "2.0" || m["method"] != "ping" {
		t.Errorf("frame = %s", data)
	}
	if _, ok := m["params"]; ok {
		t.Error("nil params must be omitted from the frame")
	}
	if _, ok := m["id"]; !ok {
		t.Error("requests must carry an id")
	}
}

func TestNotificationHasNoID(t *testing.T) {
	data, err := json.Marshal(&Notification{JSONRPC: rpcVersion, Method: "notifications/initialized"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), `"id"`) {
		t.Errorf("notifications must not carry an id: %s", data)
	}
}

func TestResponseDecode(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"result", `{"jsonrpc":"2.0","id":1,"result":{"tools":[]}}`, false},
		{"error", `{"jsonrpc":"2.0","id":2,"error":{"code":-32601,"message":"Method not found"}}`, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var resp Response
			if err := json.Unmarshal([]byte(tc.raw), &resp); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if tc.wantErr {
				if resp.Error == nil {
					t.Fatal("expected error object")
				}
				if resp.Error.Code != -32601 {
					t.Errorf("code = %d", resp.Error.Code)
				}
			} else {
				if resp.Error != nil || resp.Result == nil {
					t.Errorf("result response parsed as %+v", resp)
				}
			}
		})
	}
}

func TestRPCErrorMessage(t *testing.T) {
	e := &RPCError{Code: -32600, Message: "Invalid Request"}
	if got := e.Error(); got != "rpc error -32600: Invalid Request" {
		t.Errorf("Error() = %q", got)
	}
}
