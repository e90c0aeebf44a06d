package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"wanderplan/globals"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

func fixedClock() time.Time { return time.Unix(1700000000, 0) }

func TestHubRegisterNotifyUnregister(t *testing.T) {
	hub := NewHub()
	hub.now = fixedClock
	go hub.Run()
	defer hub.Stop()

	client := &Client{Send: make(chan []byte, 10), Room: "it-1"}
	other := &Client{Send: make(chan []byte, 10), Room: "it-2"}
	hub.Register(client)
	hub.Register(other)

	hub.Notify("it-1", "updated", "u-1")

	select {
	case got := <-client.Send:
		var n Notice
		if err := json.Unmarshal(got, &n); err != nil {
			t.Fatalf("decode: %v", err)
		}
		want := Notice{Action: "updated", ItineraryID: "it-1", By: "u-1", Timestamp: 1700000000}
		if n != want {
			t.Fatalf("got %+v, want %+v", n, want)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for notice")
	}

	select {
	case got := <-other.Send:
		t.Fatalf("other room received %s", got)
	case <-time.After(50 * time.Millisecond):
	}

	hub.Unregister(client)
	select {
	case _, ok := <-client.Send:
		if ok {
			t.Fatal("expected send channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("send channel not closed after unregister")
	}
}

func TestHubStopClosesClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := &Client{Send: make(chan []byte, 1), Room: "it-1"}
	hub.Register(client)
	hub.Stop()
	hub.Stop()

	select {
	case _, ok := <-client.Send:
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("stop did not close client")
	}

	if hub.Register(&Client{Send: make(chan []byte, 1), Room: "it-1"}) {
		t.Fatal("register succeeded on a stopped hub")
	}
	// must not block
	hub.Notify("it-1", "deleted", "u-1")
}

func TestHubDropsSlowReader(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	slow := &Client{Send: make(chan []byte, 1), Room: "it-1"}
	slow.Send <- []byte("backlog")
	probe := &Client{Send: make(chan []byte, 4), Room: "it-1"}
	hub.Register(slow)
	hub.Register(probe)

	hub.Notify("it-1", "updated", "u-1")
	hub.Notify("it-1", "updated", "u-2")
	for i := 0; i < 2; i++ {
		select {
		case <-probe.Send:
		case <-time.After(time.Second):
			t.Fatal("probe missed a notice")
		}
	}

	if got := <-slow.Send; string(got) != "backlog" {
		t.Fatalf("unexpected first message %s", got)
	}
	if _, ok := <-slow.Send; ok {
		t.Fatal("slow reader should have been dropped")
	}
}

func asUser(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		ctx := context.WithValue(r.Context(), globals.UserIDKey, r.URL.Query().Get("user"))
		next(w, r.WithContext(ctx), ps)
	}
}

func TestWebSocketHandler(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	allow := func(_ context.Context, userID, id string) bool {
		return userID == "owner" && id == "it-1"
	}
	router := httprouter.New()
	router.GET("/api/itineraries/:id/live", asUser(WebSocketHandler(hub, allow)))
	srv := httptest.NewServer(router)
	defer srv.Close()

	base := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/itineraries/it-1/live"

	_, resp, err := websocket.DefaultDialer.Dial(base+"?user=stranger", nil)
	if err == nil {
		t.Fatal("stranger should not be upgraded")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("stranger: want 404, got %v", resp)
	}

	_, resp, err = websocket.DefaultDialer.Dial(base, nil)
	if err == nil || resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous: want 401, got %v (%v)", resp, err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(base+"?user=owner", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	got := make(chan Notice, 1)
	go func() {
		var n Notice
		conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		if err := conn.ReadJSON(&n); err == nil {
			got <- n
		}
		close(got)
	}()

	// Registration races the handshake; publish until the first notice lands.
	tick := time.NewTicker(20 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case n, ok := <-got:
			if !ok {
				t.Fatal("no notice received")
			}
			if n.Action != "collaborator_added" || n.ItineraryID != "it-1" || n.By != "owner" {
				t.Fatalf("unexpected notice %+v", n)
			}
			return
		case <-tick.C:
			hub.Notify("it-1", "collaborator_added", "owner")
		}
	}
}

func TestClientPermitsRechecksAccess(t *testing.T) {
	allowed := true
	c := &Client{Allowed: func(context.Context) bool { return allowed }}
	updated, _ := json.Marshal(Notice{Action: "updated", ItineraryID: "it-1", By: "owner"})
	deleted, _ := json.Marshal(Notice{Action: "deleted", ItineraryID: "it-1", By: "owner"})

	if !c.permits(updated) {
		t.Fatal("reader with access should receive updates")
	}
	allowed = false
	if c.permits(updated) {
		t.Fatal("reader without access must not receive updates")
	}
	if !c.permits(deleted) {
		t.Fatal("deletion notice is delivered to remaining readers")
	}
	if !(&Client{}).permits(updated) {
		t.Fatal("a client without a check is always allowed")
	}
}

func TestWebSocketDropsReaderAfterAccessIsRevoked(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	// The handshake check passes; every later check fails, as after the
	// reader was removed from the itinerary.
	var checks atomic.Int32
	authorize := func(_ context.Context, userID, id string) bool {
		return checks.Add(1) == 1
	}
	router := httprouter.New()
	router.GET("/api/itineraries/:id/live", asUser(WebSocketHandler(hub, authorize)))
	srv := httptest.NewServer(router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/itineraries/it-1/live?user=former"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	type result struct {
		n   Notice
		err error
	}
	got := make(chan result, 1)
	go func() {
		var n Notice
		conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		err := conn.ReadJSON(&n)
		got <- result{n, err}
	}()

	tick := time.NewTicker(20 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case r := <-got:
			if r.err == nil {
				t.Fatalf("revoked reader received %+v", r.n)
			}
			if !websocket.IsCloseError(r.err, websocket.ClosePolicyViolation) {
				t.Fatalf("expected a policy close, got %v", r.err)
			}
			return
		case <-tick.C:
			hub.Notify("it-1", "updated", "owner")
		}
	}
}
