package events

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
)

var _ Bus = (*Nats)(nil)

// Nats publishes retry events as JSON messages on NATS subjects.
type Nats struct {
	nc *nats.Conn
}

func NewNatsBus(url string) (*Nats, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, err
	}
	return &Nats{nc: nc}, nil
}

func (b *Nats) Publish(topic string, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.nc.Publish(topic, data)
}

func (b *Nats) Subscribe(topic string, handler Receiver) {
	_, err := b.nc.Subscribe(topic, func(msg *nats.Msg) {
		var ev Event
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			return
		}
		handler.Receive(context.Background(), ev)
	})
	if err != nil {
		panic(err)
	}
}

// Close drains the connection.
func (b *Nats) Close() {
	b.nc.Close()
}
