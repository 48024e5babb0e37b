package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/yourorg/groupchat/realtime-service/internal/hub"
)

// Notifier is the hub surface the consumer fans events into.
type Notifier interface {
	Notify(roomID string, e hub.Event)
}

// Events the HTTP CRUD layer emits through the chat-events topic and this
// service relays into live rooms. new_message is deliberately absent: the
// websocket path broadcasts those itself.
var relayedKinds = map[string]struct{}{
	hub.EventMessageEdited:   {},
	hub.EventMessageDeleted:  {},
	hub.EventMemberJoined:    {},
	hub.EventMemberLeft:      {},
	hub.EventReactionUpdate:  {},
	hub.EventMessagePinned:   {},
	hub.EventMessageUnpinned: {},
	hub.EventPollCreated:     {},
	hub.EventPollClosed:      {},
	hub.EventPollVote:        {},
	hub.EventMessageRead:     {},
}

type chatEvent struct {
	Type    string         `json:"type"`
	GroupID string         `json:"group_id"`
	Data    map[string]any `json:"data"`
}

// Consumer relays chat events published by other services into local rooms.
type Consumer struct {
	reader *kafkago.Reader
	log    *zap.SugaredLogger
}

func NewConsumer(brokers []string, topic, groupID string, log *zap.SugaredLogger) *Consumer {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
	})
	return &Consumer{reader: r, log: log}
}

// Run consumes until ctx is cancelled. Delivery into rooms is best-effort:
// a dropped relay is recovered by the client's next HTTP fetch.
func (c *Consumer) Run(ctx context.Context, n Notifier) {
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
				return
			}
			c.log.Errorw("kafka read failed", "error", err)
			time.Sleep(time.Second)
			continue
		}

		c.relay(n, m.Value)
	}
}

// relay applies one raw chat event to local rooms. Anything that cannot be
// decoded or addressed to a room is dropped; kinds the websocket path
// already broadcasts itself are skipped.
func (c *Consumer) relay(n Notifier, value []byte) {
	var ev chatEvent
	if err := json.Unmarshal(value, &ev); err != nil {
		c.log.Warnw("malformed chat event skipped", "error", err)
		return
	}
	if ev.GroupID == "" {
		return
	}
	if _, ok := relayedKinds[ev.Type]; !ok {
		c.log.Debugw("chat event kind not relayed", "type", ev.Type)
		return
	}

	n.Notify(ev.GroupID, hub.Event{
		Type:      ev.Type,
		Data:      ev.Data,
		Timestamp: time.Now().UnixMilli(),
	})
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
