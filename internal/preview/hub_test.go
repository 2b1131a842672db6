package preview

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
)

func drain(c *Client) []Message {
	var msgs []Message
	for {
		select {
		case data := <-c.send:
			var m Message
			json.Unmarshal(data, &m)
			msgs = append(msgs, m)
		default:
			return msgs
		}
	}
}

func TestDocSyncBroadcastToWatchers(t *testing.T) {
	h := NewHub()
	host := NewClient(h, nil, "proj_1", "c1", true)
	watcher := NewClient(h, nil, "proj_1", "c2", false)
	h.addClient(host)
	h.addClient(watcher)
	drain(host)
	drain(watcher)

	doc := json.RawMessage(`{"version":63}`)
	h.handleMessage(host, &Message{Type: TypeDocSync, ProjectID: "proj_1", ClientID: "c1", Payload: doc})

	if msgs := drain(host); len(msgs) != 0 {
		t.Fatalf("host received its own sync: %+v", msgs)
	}
	msgs := drain(watcher)
	if len(msgs) != 1 || msgs[0].Type != TypeDocSync || string(msgs[0].Payload) != `{"version":63}` {
		t.Fatalf("watcher messages = %+v", msgs)
	}
}

func TestLateJoinerReplaysLastDoc(t *testing.T) {
	h := NewHub()
	host := NewClient(h, nil, "proj_1", "c1", true)
	h.addClient(host)
	h.handleMessage(host, &Message{Type: TypeDocSync, Payload: json.RawMessage(`{"v":2}`)})

	late := NewClient(h, nil, "proj_1", "c9", false)
	h.addClient(late)

	msgs := drain(late)
	var gotSync bool
	for _, m := range msgs {
		if m.Type == TypeDocSync && string(m.Payload) == `{"v":2}` {
			gotSync = true
		}
	}
	if !gotSync {
		t.Fatalf("late joiner missed the replay: %+v", msgs)
	}
}

func TestWatcherCannotPublish(t *testing.T) {
	h := NewHub()
	host := NewClient(h, nil, "proj_1", "c1", true)
	watcher := NewClient(h, nil, "proj_1", "c2", false)
	h.addClient(host)
	h.addClient(watcher)
	drain(host)
	drain(watcher)

	h.handleMessage(watcher, &Message{Type: TypeDocSync, Payload: json.RawMessage(`{"evil":true}`)})

	if msgs := drain(host); len(msgs) != 0 {
		t.Fatalf("watcher publish reached the host: %+v", msgs)
	}
}

func TestSendToRemovedClientIsNoOp(t *testing.T) {
	h := NewHub()
	w := NewClient(h, nil, "proj_1", "c1", false)
	h.addClient(w)
	h.removeClient(w)

	// A broadcast snapshot taken just before removal may still deliver.
	w.Send(&Message{Type: TypeDocSync, Payload: json.RawMessage(`{}`)})
	w.Send(&Message{Type: TypeDocSync, Payload: json.RawMessage(`{}`)})
}

func TestBroadcastDuringUnregisterChurn(t *testing.T) {
	h := NewHub()
	host := NewClient(h, nil, "proj_1", "host", true)
	h.addClient(host)

	for round := 0; round < 10; round++ {
		watchers := make([]*Client, 40)
		for i := range watchers {
			watchers[i] = NewClient(h, nil, "proj_1", fmt.Sprintf("w%d_%d", round, i), false)
			h.addClient(watchers[i])
		}

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for _, w := range watchers {
				h.removeClient(w)
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				h.handleMessage(host, &Message{Type: TypeDocSync, Payload: json.RawMessage(`{"v":1}`)})
			}
		}()
		wg.Wait()
		drain(host)
	}
}

func TestRoomRemovedWhenEmpty(t *testing.T) {
	h := NewHub()
	host := NewClient(h, nil, "proj_1", "c1", true)
	h.addClient(host)
	h.removeClient(host)

	h.mu.RLock()
	_, ok := h.rooms["proj_1"]
	h.mu.RUnlock()
	if ok {
		t.Fatal("empty room not removed")
	}
}

func TestWatchersCount(t *testing.T) {
	h := NewHub()
	host := NewClient(h, nil, "proj_1", "c1", true)
	watcher := NewClient(h, nil, "proj_1", "c2", false)
	h.addClient(host)
	drain(host)
	h.addClient(watcher)

	msgs := drain(host)
	if len(msgs) != 1 || msgs[0].Type != TypeWatchers {
		t.Fatalf("host messages = %+v", msgs)
	}
	var wp WatchersPayload
	json.Unmarshal(msgs[0].Payload, &wp)
	if wp.Count != 2 {
		t.Fatalf("count = %d", wp.Count)
	}
}
