// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Publisher sends JSON payloads to a topic.
type Publisher interface {
	PublishJSON(topic string, retained bool, v any) error
}

// Bus is the part of MQTT the processes use.
type Bus interface {
	Publisher
	Subscribe(topic string, handler func(payload []byte)) error
	Unsubscribe(topics ...string) error
}

type mqttBus struct {
	client mqtt.Client
}

// dialBus connects to the broker and returns a Bus backed by it.
func dialBus(broker, clientID string) (*mqttBus, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("MQTT connect %s: %w", broker, token.Error())
	}
	log.Printf("connected to MQTT broker at %s as %s", broker, clientID)
	return &mqttBus{client: client}, nil
}

func (b *mqttBus) PublishJSON(topic string, retained bool, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("json marshal (%s): %w", topic, err)
	}
	if token := b.client.Publish(topic, 0, retained, payload); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT publish (%s): %w", topic, token.Error())
	}
	return nil
}

func (b *mqttBus) Subscribe(topic string, handler func(payload []byte)) error {
	token := b.client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		handler(msg.Payload())
	})
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("MQTT subscribe (%s): %w", topic, token.Error())
	}
	return nil
}

func (b *mqttBus) Unsubscribe(topics ...string) error {
	if len(topics) == 0 {
		return nil
	}
	token := b.client.Unsubscribe(topics...)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("MQTT unsubscribe %v: %w", topics, token.Error())
	}
	return nil
}

func (b *mqttBus) Close() {
	b.client.Disconnect(250)
}
