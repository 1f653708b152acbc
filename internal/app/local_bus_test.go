package app

import (
	"encoding/json"
	"testing"
	"time"
)

func TestLocalBus_DeliversAndRetains(t *testing.T) {
	b := newLocalBus()
	got := make(chan string, 4)
	handler := func(payload []byte) {
		var s string
		if err := json.Unmarshal(payload, &s); err == nil {
			got <- s
		}
	}

	if err := b.PublishJSON("status", true, "retained"); err != nil {
		t.Fatalf("PublishJSON: %v", err)
	}
	if err := b.PublishJSON("ticks", false, "lost"); err != nil {
		t.Fatalf("PublishJSON: %v", err)
	}

	b.Subscribe("status", handler)
	b.Subscribe("ticks", handler)
	select {
	case s := <-got:
		if s != "retained" {
			t.Fatalf("got=%q want retained", s)
		}
	case <-time.After(time.Second):
		t.Fatalf("retained message not delivered")
	}

	b.PublishJSON("ticks", false, "live")
	if s := <-got; s != "live" {
		t.Fatalf("got=%q want live", s)
	}

	b.Unsubscribe("ticks")
	b.PublishJSON("ticks", false, "after")
	select {
	case s := <-got:
		t.Fatalf("unexpected delivery %q", s)
	case <-time.After(20 * time.Millisecond):
	}
}
