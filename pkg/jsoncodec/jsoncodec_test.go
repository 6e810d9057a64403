package jsoncodec

import "testing"

func TestMarshalMatchesStdlibFieldOrder(t *testing.T) {
	type payload struct {
		ReplyIDs []string `json:"reply_ids,omitempty"`
		Note     string   `json:"note,omitempty"`
	}

	got, err := Marshal(payload{ReplyIDs: []string{"a", "b"}})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(got) != `{"reply_ids":["a","b"]}` {
		t.Fatalf("unexpected encoding %s", got)
	}
}

func TestUnmarshalIntoInterface(t *testing.T) {
	var v any
	if err := Unmarshal([]byte(`{"replies":[{"reply_id":"r1"}]}`), &v); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		t.Fatalf("expected object, got %T", v)
	}
	if _, ok := m["replies"].([]any); !ok {
		t.Fatalf("expected replies array, got %T", m["replies"])
	}
}

func TestUnmarshalRejectsMalformed(t *testing.T) {
	var v any
	if err := Unmarshal([]byte(`{"replies":`), &v); err == nil {
		t.Fatalf("expected error for truncated document")
	}
}
