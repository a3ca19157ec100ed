package hub

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/driftchat/driftchat/config"
	"github.com/driftchat/driftchat/pkg/errs"
)

type fakeDirectory struct {
	mu       sync.Mutex
	users    map[int64]bool
	lastSeen map[int64]time.Time
}

func newFakeDirectory(userIDs ...int64) *fakeDirectory {
	users := make(map[int64]bool)
	for _, id := range userIDs {
		users[id] = true
	}
	return &fakeDirectory{users: users, lastSeen: make(map[int64]time.Time)}
}

func (f *fakeDirectory) UserExists(userID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[userID], nil
}

func (f *fakeDirectory) UpdateUserLastSeen(userID int64, lastSeen time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSeen[userID] = lastSeen
	return nil
}

type fakePresenceCache struct {
	mu     sync.Mutex
	marked map[int64]int
}

func newFakePresenceCache() *fakePresenceCache {
	return &fakePresenceCache{marked: make(map[int64]int)}
}

func (f *fakePresenceCache) MarkPresence(userID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marked[userID]++
}

func (f *fakePresenceCache) ClearPresence(userID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marked[userID]--
}

func newTestHub(t *testing.T, directory Directory, store MessageStore) (*Hub, *Presence) {
	t.Helper()
	presence := NewPresence()
	dispatcher := NewDispatcher(store, presence, nil, true, testLogger())
	h := NewHub(directory, newFakePresenceCache(), presence, dispatcher, config.WebSocketConfig{SendBufferSize: 8}, testLogger())
	go h.Run()
	return h, presence
}

func mustPayload(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	return data
}

// recv reads the next server event pushed to the client.
func recv(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case data, ok := <-c.send:
		if !ok {
			t.Fatal("send channel closed while waiting for event")
		}
		return decodeEvent(t, data)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func login(t *testing.T, h *Hub, c *Client, id int64) {
	t.Helper()
	h.Inbound <- InboundEvent{Client: c, Event: Event{
		Type:    EventLogin,
		Payload: mustPayload(t, map[string]int64{"user_id": id}),
	}}
}

func TestLoginBindsConnection(t *testing.T) {
	h, presence := newTestHub(t, newFakeDirectory(7), &fakeMessageStore{})
	c := NewClient(h, nil, "s1")

	h.Register <- c
	login(t, h, c, 7)

	event := recv(t, c)
	if event.Type != EventLoginOK {
		t.Fatalf("expected %s, got %s", EventLoginOK, event.Type)
	}

	got, ok := presence.Lookup(7)
	if !ok || got != c {
		t.Fatal("expected login to bind the connection in the registry")
	}
	if c.UserID() != 7 {
		t.Fatalf("expected bound user id stored on client, got %d", c.UserID())
	}
}

func TestLoginUnknownUserRejected(t *testing.T) {
	h, presence := newTestHub(t, newFakeDirectory(), &fakeMessageStore{})
	c := NewClient(h, nil, "s1")

	h.Register <- c
	login(t, h, c, 42)

	event := recv(t, c)
	if event.Type != EventError {
		t.Fatalf("expected error event, got %s", event.Type)
	}
	var payload ErrorPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		t.Fatalf("failed to decode error payload: %v", err)
	}
	if payload.Kind != errs.KindNotFound.String() {
		t.Fatalf("expected not_found, got %s", payload.Kind)
	}
	if _, ok := presence.Lookup(42); ok {
		t.Fatal("failed login must not bind")
	}
}

func TestLoginMalformedPayloadRejected(t *testing.T) {
	h, presence := newTestHub(t, newFakeDirectory(7), &fakeMessageStore{})
	c := NewClient(h, nil, "s1")

	h.Register <- c
	h.Inbound <- InboundEvent{Client: c, Event: Event{
		Type:    EventLogin,
		Payload: json.RawMessage(`{"user_id": "not a number"}`),
	}}

	event := recv(t, c)
	if event.Type != EventError {
		t.Fatalf("expected error event, got %s", event.Type)
	}
	if len(presence.Online()) != 0 {
		t.Fatal("malformed login must have no side effects")
	}
}

// Re-login with the same user id on a new connection supersedes the old
// binding, and messages reach only the new connection.
func TestReloginSupersedesOldBinding(t *testing.T) {
	h, presence := newTestHub(t, newFakeDirectory(7), &fakeMessageStore{})
	c1 := NewClient(h, nil, "s1")
	c2 := NewClient(h, nil, "s2")

	h.Register <- c1
	login(t, h, c1, 7)
	recv(t, c1)

	h.Register <- c2
	login(t, h, c2, 7)
	recv(t, c2)

	got, ok := presence.Lookup(7)
	if !ok || got != c2 {
		t.Fatal("expected newest connection bound")
	}

	if _, err := h.Dispatcher().Dispatch(1, 7, "ping"); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	event := recv(t, c2)
	if event.Type != EventReceiveMessage {
		t.Fatalf("expected %s on new connection, got %s", EventReceiveMessage, event.Type)
	}
	select {
	case <-c1.send:
		t.Fatal("superseded connection must not receive the message")
	default:
	}
}

// C1 binds user 7, C2 later binds user 7, C1 disconnects. Lookup must still
// return C2.
func TestStaleDisconnectKeepsNewerBinding(t *testing.T) {
	h, presence := newTestHub(t, newFakeDirectory(7), &fakeMessageStore{})
	c1 := NewClient(h, nil, "s1")
	c2 := NewClient(h, nil, "s2")

	h.Register <- c1
	login(t, h, c1, 7)
	recv(t, c1)

	h.Register <- c2
	login(t, h, c2, 7)
	recv(t, c2)

	h.Unregister <- c1
	waitClosed(t, c1)

	got, ok := presence.Lookup(7)
	if !ok || got != c2 {
		t.Fatal("stale disconnect must not evict the newer binding")
	}
}

func TestAnonymousDisconnectIsNoOp(t *testing.T) {
	h, presence := newTestHub(t, newFakeDirectory(7), &fakeMessageStore{})
	c := NewClient(h, nil, "s1")

	h.Register <- c
	h.Unregister <- c
	waitClosed(t, c)

	if len(presence.Online()) != 0 {
		t.Fatal("anonymous disconnect must not touch the registry")
	}
}

func TestDisconnectUnbinds(t *testing.T) {
	h, presence := newTestHub(t, newFakeDirectory(7), &fakeMessageStore{})
	c := NewClient(h, nil, "s1")

	h.Register <- c
	login(t, h, c, 7)
	recv(t, c)

	h.Unregister <- c
	waitClosed(t, c)

	if _, ok := presence.Lookup(7); ok {
		t.Fatal("disconnect must remove the binding")
	}
}

// Rebinding the same connection to a different id leaves the previous id's
// entry in place, inherited protocol behavior.
func TestRebindDifferentIDLeavesOldEntry(t *testing.T) {
	h, presence := newTestHub(t, newFakeDirectory(7, 8), &fakeMessageStore{})
	c := NewClient(h, nil, "s1")

	h.Register <- c
	login(t, h, c, 7)
	recv(t, c)
	login(t, h, c, 8)
	recv(t, c)

	if got, ok := presence.Lookup(8); !ok || got != c {
		t.Fatal("expected binding for the new id")
	}
	if got, ok := presence.Lookup(7); !ok || got != c {
		t.Fatal("old id entry stays until its own overwrite or disconnect")
	}
	if c.UserID() != 8 {
		t.Fatalf("expected stored user id 8, got %d", c.UserID())
	}
}

func TestSendMessageEventDispatches(t *testing.T) {
	store := &fakeMessageStore{}
	h, _ := newTestHub(t, newFakeDirectory(1, 2), store)
	sender := NewClient(h, nil, "s1")
	recipient := NewClient(h, nil, "s2")

	h.Register <- sender
	login(t, h, sender, 1)
	recv(t, sender)

	h.Register <- recipient
	login(t, h, recipient, 2)
	recv(t, recipient)

	h.Inbound <- InboundEvent{Client: sender, Event: Event{
		Type:    EventSendMessage,
		Payload: json.RawMessage(`{"to_user_id": 2, "from_user_id": 1, "text": "hello"}`),
	}}

	ackEvent := recv(t, sender)
	if ackEvent.Type != EventSendAck {
		t.Fatalf("expected %s, got %s", EventSendAck, ackEvent.Type)
	}
	var ack SendAckPayload
	if err := json.Unmarshal(ackEvent.Payload, &ack); err != nil {
		t.Fatalf("failed to decode ack: %v", err)
	}
	if !ack.Persisted || !ack.Delivered {
		t.Fatalf("expected persisted and delivered ack, got %+v", ack)
	}

	msgEvent := recv(t, recipient)
	if msgEvent.Type != EventReceiveMessage {
		t.Fatalf("expected %s, got %s", EventReceiveMessage, msgEvent.Type)
	}
	var payload ReceiveMessagePayload
	if err := json.Unmarshal(msgEvent.Payload, &payload); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}
	if payload.From != 1 || payload.Text != "hello" {
		t.Fatalf("unexpected payload: %+v", payload)
	}

	if store.count() != 1 {
		t.Fatalf("expected one persisted message, got %d", store.count())
	}
}

func TestSendMessageMalformedPayloadRejected(t *testing.T) {
	store := &fakeMessageStore{}
	h, _ := newTestHub(t, newFakeDirectory(1), store)
	c := NewClient(h, nil, "s1")

	h.Register <- c
	h.Inbound <- InboundEvent{Client: c, Event: Event{
		Type:    EventSendMessage,
		Payload: json.RawMessage(`{"to_user_id": 0}`),
	}}

	event := recv(t, c)
	if event.Type != EventError {
		t.Fatalf("expected error event, got %s", event.Type)
	}
	if store.count() != 0 {
		t.Fatal("malformed send must not reach the store")
	}
}

func TestUnknownEventTypeRejected(t *testing.T) {
	h, _ := newTestHub(t, newFakeDirectory(), &fakeMessageStore{})
	c := NewClient(h, nil, "s1")

	h.Register <- c
	h.Inbound <- InboundEvent{Client: c, Event: Event{Type: "typing"}}

	event := recv(t, c)
	if event.Type != EventError {
		t.Fatalf("expected error event, got %s", event.Type)
	}
}

// waitClosed blocks until the hub has processed the unregister and closed the
// client's send channel.
func waitClosed(t *testing.T, c *Client) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-c.send:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for client shutdown")
		}
	}
}
