// Package events publishes the retry lifecycle onto a message bus so that
// other processes can watch chains run and settle. The Publisher type plugs
// into a Retryer as an observer; buses exist for in-process delivery and for
// NATS.
package events

import "context"

// Type enumerates the published retry lifecycle events.
type Type string

const (
	TypeChainStarted Type = "chain_started"
	TypeAttempt      Type = "attempt"
	TypeDelay        Type = "delay_scheduled"
	TypeChainSettled Type = "chain_settled"
)

// Event is one retry lifecycle notification. Fields irrelevant to the event
// type stay at their zero values and are omitted from the wire form.
type Event struct {
	Type     Type   `json:"type"`
	ChainID  string `json:"chain_id"`
	Mode     string `json:"mode,omitempty"`
	Attempt  int    `json:"attempt,omitempty"`
	DelayMS  int64  `json:"delay_ms,omitempty"`
	Outcome  string `json:"outcome,omitempty"`
	Attempts int    `json:"attempts,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Bus carries retry events to interested parties.
type Bus interface {
	Publish(topic string, ev Event) error
	Subscribe(topic string, handler Receiver)
}

// Receiver handles events delivered by a Bus.
type Receiver interface {
	Receive(ctx context.Context, ev Event)
}

// ReceiverFunc adapts a function into a Receiver.
type ReceiverFunc func(ctx context.Context, ev Event)

func (f ReceiverFunc) Receive(ctx context.Context, ev Event) { f(ctx, ev) }
