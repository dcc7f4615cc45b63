package server

import (
	"testing"
	"time"

	"mixvault/model"

	"github.com/goccy/go-json"
)

func TestEventHubBroadcastReachesClients(t *testing.T) {
	hub := NewEventHub()
	go hub.Run()
	defer hub.Stop()

	client := &eventClient{send: make(chan []byte, eventSendBuffer)}
	if !hub.add(client) {
		t.Fatal("add should succeed on a running hub")
	}

	hub.BroadcastMixCreated(&model.Mix{ID: 9, Title: "Night Drive", Artist: "DJ Test"})

	select {
	case msg := <-client.send:
		var event Event
		if err := json.Unmarshal(msg, &event); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		if event.Type != "mix.created" {
			t.Errorf("type = %q", event.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("broadcast never reached the client")
	}
}

func TestEventHubShutdownUnblocksClients(t *testing.T) {
	hub := NewEventHub()
	go hub.Run()

	client := &eventClient{send: make(chan []byte, eventSendBuffer)}
	if !hub.add(client) {
		t.Fatal("add should succeed on a running hub")
	}

	hub.Stop()

	// Run closes every subscribed send channel on its way out; once that
	// happens the loop is gone and nothing drains register/unregister.
	select {
	case _, open := <-client.send:
		if open {
			t.Fatal("unexpected message during shutdown")
		}
	case <-time.After(time.Second):
		t.Fatal("hub did not release clients on shutdown")
	}

	done := make(chan struct{})
	go func() {
		hub.remove(client)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("remove blocked after shutdown")
	}

	if hub.add(&eventClient{send: make(chan []byte, 1)}) {
		t.Error("add must refuse clients after shutdown")
	}
}
