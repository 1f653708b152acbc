package app

import (
	"encoding/json"
	"sync"
)

type published struct {
	topic    string
	retained bool
	payload  []byte
}

// fakeBus records publications and lets tests deliver messages to the
// registered handlers.
type fakeBus struct {
	mu       sync.Mutex
	pubs     []published
	handlers map[string]func([]byte)
	unsubs   []string
}

func newFakeBus() *fakeBus {
	return &fakeBus{handlers: make(map[string]func([]byte))}
}

func (b *fakeBus) PublishJSON(topic string, retained bool, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.pubs = append(b.pubs, published{topic: topic, retained: retained, payload: payload})
	b.mu.Unlock()
	return nil
}

func (b *fakeBus) Subscribe(topic string, handler func([]byte)) error {
	b.mu.Lock()
	b.handlers[topic] = handler
	b.mu.Unlock()
	return nil
}

func (b *fakeBus) Unsubscribe(topics ...string) error {
	b.mu.Lock()
	for _, t := range topics {
		delete(b.handlers, t)
		b.unsubs = append(b.unsubs, t)
	}
	b.mu.Unlock()
	return nil
}

func (b *fakeBus) subscribed(topic string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.handlers[topic]
	return ok
}

// deliver sends v to the handler of topic and reports whether one existed.
func (b *fakeBus) deliver(topic string, v any) bool {
	payload, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	b.mu.Lock()
	h, ok := b.handlers[topic]
	b.mu.Unlock()
	if ok {
		h(payload)
	}
	return ok
}

func (b *fakeBus) publications(topic string) []published {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []published
	for _, p := range b.pubs {
		if p.topic == topic {
			out = append(out, p)
		}
	}
	return out
}
