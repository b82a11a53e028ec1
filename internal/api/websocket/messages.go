package websocket

import (
	"time"

	"github.com/KevinKickass/PlantDeck/internal/auth"
	"github.com/KevinKickass/PlantDeck/internal/types"
)

type MessageType string

const (
	MessageTypeAuth       MessageType = "auth"
	MessageTypeAuthOK     MessageType = "auth_success"
	MessageTypeAuthFailed MessageType = "auth_failed"

	MessageTypeTelemetrySnapshot MessageType = "telemetry_snapshot"
	MessageTypeTelemetryBatch    MessageType = "telemetry_batch"

	// Sent by a client to get a fresh telemetry_batch.
	MessageTypeRefresh MessageType = "refresh"
)

type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
	Reason    string      `json:"reason,omitempty"`
}

// inbound is what clients send; only auth carries a token.
type inbound struct {
	Type  MessageType `json:"type"`
	Token string      `json:"token,omitempty"`
}

func NewMessage(msgType MessageType, data interface{}) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

func NewSnapshotMessage(snap types.Snapshot) Message {
	return NewMessage(MessageTypeTelemetrySnapshot, snap)
}

func NewBatchMessage(snaps map[string]types.Snapshot) Message {
	return NewMessage(MessageTypeTelemetryBatch, snaps)
}

func newAuthSuccess(user auth.User) Message {
	return NewMessage(MessageTypeAuthOK, user)
}

func newAuthFailed(reason string) Message {
	msg := NewMessage(MessageTypeAuthFailed, nil)
	msg.Reason = reason
	return msg
}
