// Tripsync - Real-time Presence and Event Fan-out for Group Travel
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tripsync

package websocket

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/tomtom215/tripsync/internal/logging"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

// createTestClient creates a client without a network connection
func createTestClient(hub *Hub, userID string) *Client {
	return NewClient(hub, nil, userID)
}

// drain returns every message currently queued for the client
func drain(c *Client) []Message {
	var out []Message
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return out
			}
			out = append(out, msg)
		default:
			return out
		}
	}
}

// lastOnlineUsers returns the payload of the most recent getOnlineUsers frame
func lastOnlineUsers(t *testing.T, msgs []Message) []string {
	t.Helper()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Type == EventGetOnlineUsers {
			users, ok := msgs[i].Data.([]string)
			if !ok {
				t.Fatalf("getOnlineUsers payload has type %T", msgs[i].Data)
			}
			return users
		}
	}
	t.Fatal("no getOnlineUsers frame queued")
	return nil
}

func ofType(msgs []Message, event string) []Message {
	var out []Message
	for _, m := range msgs {
		if m.Type == event {
			out = append(out, m)
		}
	}
	return out
}

type recordingObserver struct {
	mu        sync.Mutex
	snapshots [][]string
}

func (r *recordingObserver) OnlineUsersChanged(userIDs []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, userIDs)
}

func (r *recordingObserver) last() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snapshots) == 0 {
		return nil
	}
	return r.snapshots[len(r.snapshots)-1]
}

func TestNewHub(t *testing.T) {
	hub := NewHub()

	checks := []struct {
		name   string
		check  bool
		errMsg string
	}{
		{"clients map", hub.clients != nil, "clients map not initialized"},
		{"presence map", hub.presence != nil, "presence map not initialized"},
		{"rooms map", hub.rooms != nil, "rooms map not initialized"},
		{"empty clients", len(hub.clients) == 0, "clients map should be empty"},
		{"default send buffer", hub.sendBuffer == defaultSendBuffer, "send buffer should default"},
	}

	for _, c := range checks {
		if !c.check {
			t.Errorf("%s: %s", c.name, c.errMsg)
		}
	}
}

func TestNewHub_Options(t *testing.T) {
	obs := &recordingObserver{}
	hub := NewHub(WithSendBuffer(4), WithInboundLimit(1, 2), WithPresenceObserver(obs), WithSendBuffer(-1))

	if hub.sendBuffer != 4 {
		t.Errorf("sendBuffer = %d, want 4", hub.sendBuffer)
	}
	if hub.inboundRate != 1 || hub.inboundBurst != 2 {
		t.Errorf("inbound = %v/%d, want 1/2", hub.inboundRate, hub.inboundBurst)
	}
	if len(hub.observers) != 1 {
		t.Errorf("observers = %d, want 1", len(hub.observers))
	}

	c := createTestClient(hub, "u1")
	if cap(c.send) != 4 {
		t.Errorf("client send capacity = %d, want 4", cap(c.send))
	}
}

func TestHub_ConnectBroadcastsOnlineUsers(t *testing.T) {
	hub := NewHub()
	u1 := createTestClient(hub, "u1")
	u2 := createTestClient(hub, "u2")

	hub.Connect(u1)
	if diff := cmp.Diff([]string{"u1"}, lastOnlineUsers(t, drain(u1))); diff != "" {
		t.Errorf("u1 snapshot after own connect (-want +got):\n%s", diff)
	}

	hub.Connect(u2)
	want := []string{"u1", "u2"}
	if diff := cmp.Diff(want, lastOnlineUsers(t, drain(u1))); diff != "" {
		t.Errorf("u1 snapshot after u2 connect (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, lastOnlineUsers(t, drain(u2))); diff != "" {
		t.Errorf("u2 snapshot (-want +got):\n%s", diff)
	}

	hub.Disconnect(u2)
	if diff := cmp.Diff([]string{"u1"}, lastOnlineUsers(t, drain(u1))); diff != "" {
		t.Errorf("u1 snapshot after u2 disconnect (-want +got):\n%s", diff)
	}
	if _, ok := hub.Lookup("u2"); ok {
		t.Error("u2 should not be in presence after disconnect")
	}
}

func TestHub_AnonymousConnection(t *testing.T) {
	hub := NewHub()
	anon := createTestClient(hub, "")
	u1 := createTestClient(hub, "u1")

	hub.Connect(anon)
	hub.Connect(u1)

	if got := hub.GetClientCount(); got != 2 {
		t.Errorf("GetClientCount() = %d, want 2", got)
	}
	if diff := cmp.Diff([]string{"u1"}, hub.OnlineUsers()); diff != "" {
		t.Errorf("OnlineUsers mismatch (-want +got):\n%s", diff)
	}
	// Anonymous connections still receive the online set.
	if diff := cmp.Diff([]string{"u1"}, lastOnlineUsers(t, drain(anon))); diff != "" {
		t.Errorf("anonymous snapshot (-want +got):\n%s", diff)
	}
}

func TestHub_LastConnectWins(t *testing.T) {
	hub := NewHub()
	connA := createTestClient(hub, "alice")
	connB := createTestClient(hub, "alice")

	hub.Connect(connA)
	hub.Connect(connB)
	drain(connA)
	drain(connB)

	got, ok := hub.Lookup("alice")
	if !ok || got != connB {
		t.Fatalf("Lookup(alice) = %v, %v; want connB", got, ok)
	}

	hub.Dispatch(EventNotification, "hello", UserScope("alice"))
	if n := len(drain(connA)); n != 0 {
		t.Errorf("connA received %d frames, want 0", n)
	}
	if n := len(ofType(drain(connB), EventNotification)); n != 1 {
		t.Errorf("connB received %d notifications, want 1", n)
	}

	// The older connection closing must not remove the newer entry.
	hub.Disconnect(connA)
	got, ok = hub.Lookup("alice")
	if !ok || got != connB {
		t.Errorf("Lookup(alice) after connA disconnect = %v, %v; want connB", got, ok)
	}
	if diff := cmp.Diff([]string{"alice"}, lastOnlineUsers(t, drain(connB))); diff != "" {
		t.Errorf("snapshot after connA disconnect (-want +got):\n%s", diff)
	}

	hub.Disconnect(connB)
	if _, ok := hub.Lookup("alice"); ok {
		t.Error("alice should be offline after connB disconnect")
	}
}

func TestHub_DisconnectIsIdempotent(t *testing.T) {
	hub := NewHub()
	c := createTestClient(hub, "u1")
	other := createTestClient(hub, "u2")
	hub.Connect(c)
	hub.Connect(other)
	drain(other)

	hub.Disconnect(c)
	hub.Disconnect(c)

	if n := len(ofType(drain(other), EventGetOnlineUsers)); n != 1 {
		t.Errorf("second disconnect produced extra snapshots: got %d, want 1", n)
	}

	// Disconnecting a never-connected client is a no-op.
	hub.Disconnect(createTestClient(hub, "ghost"))
	if got := hub.GetClientCount(); got != 1 {
		t.Errorf("GetClientCount() = %d, want 1", got)
	}
}

func TestHub_ConnectAfterDisconnectIgnored(t *testing.T) {
	hub := NewHub()
	c := createTestClient(hub, "u1")
	hub.Connect(c)
	hub.Disconnect(c)
	hub.Connect(c)

	if got := hub.GetClientCount(); got != 0 {
		t.Errorf("GetClientCount() = %d, want 0", got)
	}
	if _, ok := hub.Lookup("u1"); ok {
		t.Error("closed client must not re-enter presence")
	}
}

func TestHub_RoomScoping(t *testing.T) {
	hub := NewHub()
	a := createTestClient(hub, "a")
	b := createTestClient(hub, "b")
	c := createTestClient(hub, "c")
	for _, cl := range []*Client{a, b, c} {
		hub.Connect(cl)
	}

	hub.Join(a, "g1")
	hub.Join(b, "g1")
	hub.Join(b, "g1")
	hub.Join(c, "g2")

	if got := hub.RoomSize("g1"); got != 2 {
		t.Errorf("RoomSize(g1) = %d, want 2", got)
	}
	for _, cl := range []*Client{a, b, c} {
		drain(cl)
	}

	delivered := hub.Dispatch(EventNewGroupMessage, "hi", RoomScope("g1"))
	if delivered != 2 {
		t.Errorf("Dispatch delivered = %d, want 2", delivered)
	}
	if len(drain(a)) != 1 || len(drain(b)) != 1 {
		t.Error("g1 members should each receive exactly one frame")
	}
	if n := len(drain(c)); n != 0 {
		t.Errorf("non-member received %d frames", n)
	}

	hub.Leave(b, "g1")
	hub.Leave(b, "never-joined")
	if hub.InRoom(b, "g1") {
		t.Error("b should have left g1")
	}
	hub.Dispatch(EventNewGroupMessage, "again", RoomScope("g1"))
	if n := len(drain(b)); n != 0 {
		t.Errorf("b received %d frames after leaving", n)
	}

	hub.Leave(a, "g1")
	if _, ok := hub.rooms["g1"]; ok {
		t.Error("empty room should be removed")
	}
}

func TestHub_JoinUnknownClientOrEmptyRoom(t *testing.T) {
	hub := NewHub()
	c := createTestClient(hub, "u1")

	hub.Join(c, "g1")
	if hub.RoomSize("g1") != 0 {
		t.Error("unregistered client must not join rooms")
	}

	hub.Connect(c)
	hub.Join(c, "")
	if len(hub.rooms) != 0 {
		t.Error("empty room id must be ignored")
	}
}

func TestHub_DisconnectLeavesRooms(t *testing.T) {
	hub := NewHub()
	c := createTestClient(hub, "u1")
	hub.Connect(c)
	hub.Join(c, "g1")
	hub.Join(c, "g2")

	hub.Disconnect(c)

	if len(hub.rooms) != 0 {
		t.Errorf("rooms = %v, want none", hub.rooms)
	}
	if len(c.rooms) != 0 {
		t.Errorf("client rooms = %v, want none", c.rooms)
	}
}

func TestHub_DispatchUserOffline(t *testing.T) {
	hub := NewHub()
	online := createTestClient(hub, "u1")
	hub.Connect(online)
	drain(online)

	if got := hub.Dispatch(EventNewMessage, "x", UserScope("u2")); got != 0 {
		t.Errorf("Dispatch to offline user delivered = %d, want 0", got)
	}
	if got := hub.Dispatch(EventNewMessage, "x", UserScope("")); got != 0 {
		t.Errorf("Dispatch to empty user delivered = %d, want 0", got)
	}
	if n := len(drain(online)); n != 0 {
		t.Errorf("unrelated client received %d frames", n)
	}
}

func TestHub_DispatchBroadcast(t *testing.T) {
	hub := NewHub()
	clients := make([]*Client, 5)
	for i := range clients {
		clients[i] = createTestClient(hub, fmt.Sprintf("u%d", i))
		hub.Connect(clients[i])
	}
	for _, c := range clients {
		drain(c)
	}

	if got := hub.Dispatch(EventLocationUpdate, "loc", BroadcastScope()); got != len(clients) {
		t.Errorf("Dispatch delivered = %d, want %d", got, len(clients))
	}
	for i, c := range clients {
		msgs := drain(c)
		if len(msgs) != 1 || msgs[0].Type != EventLocationUpdate {
			t.Errorf("client %d frames = %+v", i, msgs)
		}
	}
}

func TestHub_StalledClientEvicted(t *testing.T) {
	hub := NewHub(WithSendBuffer(2))
	slow := createTestClient(hub, "slow")
	fast := createTestClient(hub, "fast")
	hub.Connect(slow)
	hub.Connect(fast)
	hub.Join(slow, "g1")
	hub.Join(fast, "g1")
	drain(fast)
	// slow now holds two snapshots and its queue is full.

	delivered := hub.Dispatch(EventNewGroupMessage, "m1", RoomScope("g1"))
	if delivered != 1 {
		t.Errorf("Dispatch delivered = %d, want 1", delivered)
	}

	if _, ok := hub.Lookup("slow"); ok {
		t.Error("stalled client should be evicted")
	}
	if hub.InRoom(slow, "g1") {
		t.Error("stalled client should leave its rooms")
	}

	msgs := drain(fast)
	if n := len(ofType(msgs, EventNewGroupMessage)); n != 1 {
		t.Errorf("fast client received %d group messages, want 1", n)
	}
	if diff := cmp.Diff([]string{"fast"}, lastOnlineUsers(t, msgs)); diff != "" {
		t.Errorf("snapshot after eviction (-want +got):\n%s", diff)
	}

	// The evicted client's queue is closed once its backlog is consumed.
	remaining := 0
	for range slow.send {
		remaining++
	}
	if remaining != 2 {
		t.Errorf("slow backlog = %d, want 2", remaining)
	}
}

func TestHub_PresenceObserver(t *testing.T) {
	obs := &recordingObserver{}
	hub := NewHub(WithPresenceObserver(obs))
	u1 := createTestClient(hub, "u1")
	u2 := createTestClient(hub, "u2")

	hub.Connect(u1)
	hub.Connect(u2)
	if diff := cmp.Diff([]string{"u1", "u2"}, obs.last()); diff != "" {
		t.Errorf("observer snapshot (-want +got):\n%s", diff)
	}

	hub.Disconnect(u1)
	if diff := cmp.Diff([]string{"u2"}, obs.last()); diff != "" {
		t.Errorf("observer snapshot after disconnect (-want +got):\n%s", diff)
	}

	obs.mu.Lock()
	n := len(obs.snapshots)
	obs.mu.Unlock()
	if n != 3 {
		t.Errorf("observer calls = %d, want 3", n)
	}
}

func TestHub_RunWithContext(t *testing.T) {
	hub := NewHub()
	c := createTestClient(hub, "u1")
	hub.Connect(c)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.RunWithContext(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("RunWithContext() = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("RunWithContext did not return after cancel")
	}

	if got := hub.GetClientCount(); got != 0 {
		t.Errorf("GetClientCount() after shutdown = %d, want 0", got)
	}
	if !c.closed {
		t.Error("client should be closed on shutdown")
	}
}

func TestGetShutdownReason(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()
	if got := getShutdownReason(ctx); got != ShutdownReasonContextDeadline {
		t.Errorf("getShutdownReason() = %q, want %q", got, ShutdownReasonContextDeadline)
	}

	ctx2, cancel2 := context.WithCancel(context.Background())
	cancel2()
	if got := getShutdownReason(ctx2); got != ShutdownReasonContextCanceled {
		t.Errorf("getShutdownReason() = %q, want %q", got, ShutdownReasonContextCanceled)
	}
}

func TestHub_ConcurrentConnectDispatch(t *testing.T) {
	hub := NewHub()
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			c := createTestClient(hub, fmt.Sprintf("user-%d", i))
			hub.Connect(c)
			hub.Join(c, "g1")
			hub.Disconnect(c)
		}(i)
		go func() {
			defer wg.Done()
			hub.Dispatch(EventNewGroupMessage, "x", RoomScope("g1"))
			hub.Dispatch(EventLocationUpdate, "y", BroadcastScope())
		}()
	}
	wg.Wait()

	if got := hub.GetClientCount(); got != 0 {
		t.Errorf("GetClientCount() = %d, want 0", got)
	}
	if len(hub.OnlineUsers()) != 0 {
		t.Errorf("OnlineUsers() = %v, want empty", hub.OnlineUsers())
	}
}

func TestScope_RoundTrip(t *testing.T) {
	tests := []struct {
		in      string
		want    Scope
		wantErr bool
	}{
		{"broadcast", BroadcastScope(), false},
		{"user:u1", UserScope("u1"), false},
		{"room:g1", RoomScope("g1"), false},
		{"user:", Scope{}, true},
		{"team:x", Scope{}, true},
		{"nonsense", Scope{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseScope(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseScope(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got != tt.want {
				t.Errorf("ParseScope(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
			if got.String() != tt.in {
				t.Errorf("String() = %q, want %q", got.String(), tt.in)
			}
		})
	}
}
