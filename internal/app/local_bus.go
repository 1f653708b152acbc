// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"sync"
)

// localBus is an in-process Bus with MQTT-like retained messages, used
// when everything runs in one process.
type localBus struct {
	mu       sync.Mutex
	handlers map[string]func([]byte)
	retained map[string][]byte
}

func newLocalBus() *localBus {
	return &localBus{
		handlers: make(map[string]func([]byte)),
		retained: make(map[string][]byte),
	}
}

func (b *localBus) PublishJSON(topic string, retained bool, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("json marshal (%s): %w", topic, err)
	}
	b.mu.Lock()
	if retained {
		b.retained[topic] = payload
	}
	h := b.handlers[topic]
	b.mu.Unlock()
	if h != nil {
		h(payload)
	}
	return nil
}

func (b *localBus) Subscribe(topic string, handler func([]byte)) error {
	b.mu.Lock()
	b.handlers[topic] = handler
	payload, ok := b.retained[topic]
	b.mu.Unlock()
	if ok {
		go handler(payload)
	}
	return nil
}

func (b *localBus) Unsubscribe(topics ...string) error {
	b.mu.Lock()
	for _, t := range topics {
		delete(b.handlers, t)
	}
	b.mu.Unlock()
	return nil
}
