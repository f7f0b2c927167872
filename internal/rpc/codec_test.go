package rpc

import (
	"strings"
	"testing"
)

func TestCodec(t *testing.T) {
	c := Codec{}
	if c.Name() != "json" {
		t.Fatalf("expected codec name json, got %q", c.Name())
	}

	data, err := c.Marshal(&PlaceOrderRequest{ItemID: "17", Quantity: 2, Note: "no ice"})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"itemId":"17"`) {
		t.Errorf("expected camelCase field names, got %s", data)
	}

	var req PlaceOrderRequest
	if err := c.Unmarshal(data, &req); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if req.Quantity != 2 || req.Note != "no ice" {
		t.Errorf("unexpected request %+v", req)
	}

	var empty ListUsersRequest
	if err := c.Unmarshal(nil, &empty); err != nil {
		t.Errorf("empty body should decode to the zero message: %v", err)
	}

	if err := c.Unmarshal([]byte("{"), &req); err == nil {
		t.Error("expected error for truncated JSON")
	}
}
