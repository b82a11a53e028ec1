package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/KevinKickass/PlantDeck/internal/types"
)

type MQTTOptions struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
}

// MQTTPublisher sends each snapshot to <prefix>/<id> with QoS 0.
type MQTTPublisher struct {
	client mqtt.Client
	prefix string
}

func NewMQTTPublisher(opts MQTTOptions) (*MQTTPublisher, error) {
	clientOpts := mqtt.NewClientOptions()
	clientOpts.AddBroker(opts.Broker)
	clientOpts.SetClientID(opts.ClientID)

	if opts.Username != "" {
		clientOpts.SetUsername(opts.Username)
	}
	if opts.Password != "" {
		clientOpts.SetPassword(opts.Password)
	}

	clientOpts.SetAutoReconnect(true)
	clientOpts.SetCleanSession(true)

	client := mqtt.NewClient(clientOpts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return NewMQTTPublisherWithClient(client, opts.TopicPrefix), nil
}

func NewMQTTPublisherWithClient(client mqtt.Client, prefix string) *MQTTPublisher {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		prefix = "plantdeck/telemetry"
	}
	return &MQTTPublisher{client: client, prefix: prefix}
}

func (p *MQTTPublisher) Name() string { return "mqtt" }

func (p *MQTTPublisher) Topic(id string) string {
	return p.prefix + "/" + id
}

func (p *MQTTPublisher) Publish(ctx context.Context, snap types.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	token := p.client.Publish(p.Topic(snap.ID), 0, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("publish to %s: %w", p.Topic(snap.ID), ctx.Err())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", p.Topic(snap.ID), err)
	}
	return nil
}

func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
