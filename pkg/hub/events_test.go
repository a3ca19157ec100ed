package hub

import (
	"encoding/json"
	"testing"

	"github.com/driftchat/driftchat/pkg/errs"
)

func TestParseLogin(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantID  int64
		wantErr bool
	}{
		{"numeric id", `{"user_id": 7}`, 7, false},
		{"string id", `{"user_id": "7"}`, 7, false},
		{"zero id", `{"user_id": 0}`, 0, true},
		{"negative id", `{"user_id": -3}`, 0, true},
		{"missing id", `{}`, 0, true},
		{"non-numeric string", `{"user_id": "seven"}`, 0, true},
		{"not json", `login as 7 please`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := parseLogin(json.RawMessage(tt.payload))
			if tt.wantErr {
				if !errs.Is(err, errs.KindValidation) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if int64(p.UserID) != tt.wantID {
				t.Fatalf("expected user id %d, got %d", tt.wantID, p.UserID)
			}
		})
	}
}

func TestParseSendMessage(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{"valid", `{"to_user_id": 2, "from_user_id": 1, "text": "hi"}`, false},
		{"string ids", `{"to_user_id": "2", "from_user_id": "1", "text": "hi"}`, false},
		{"missing from", `{"to_user_id": 2, "text": "hi"}`, true},
		{"missing to", `{"from_user_id": 1, "text": "hi"}`, true},
		{"negative to", `{"to_user_id": -2, "from_user_id": 1, "text": "hi"}`, true},
		{"not json", `send it`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseSendMessage(json.RawMessage(tt.payload))
			if tt.wantErr && !errs.Is(err, errs.KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestErrorEventHidesStoreDetails(t *testing.T) {
	data := errorEvent(errs.StoreUnavailable("connection refused to 10.0.0.5", nil))

	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		t.Fatalf("failed to decode event: %v", err)
	}
	var payload ErrorPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if payload.Kind != errs.KindStoreUnavailable.String() {
		t.Fatalf("unexpected kind: %s", payload.Kind)
	}
	if payload.Reason != "failed to process request" {
		t.Fatalf("store details leaked to client: %q", payload.Reason)
	}
}

func TestClientEnqueueAfterClose(t *testing.T) {
	c := &Client{send: make(chan []byte, 1)}
	c.Close()
	c.Close() // idempotent

	err := c.Enqueue([]byte("data"))
	if !errs.Is(err, errs.KindDelivery) {
		t.Fatalf("expected delivery error, got %v", err)
	}
}

func TestClientEnqueueBufferFull(t *testing.T) {
	c := &Client{send: make(chan []byte, 1)}
	if err := c.Enqueue([]byte("first")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := c.Enqueue([]byte("second"))
	if !errs.Is(err, errs.KindDelivery) {
		t.Fatalf("expected delivery error on full buffer, got %v", err)
	}
}
