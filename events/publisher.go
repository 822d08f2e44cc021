package events

import (
	"context"

	"github.com/seb7887/retryx"
)

// DefaultTopic is used when NewPublisher is given an empty topic.
const DefaultTopic = "retryx.events"

// Publisher is a retryx.Observer that forwards the retry lifecycle to a Bus.
// Register it with retryx.WithObserver.
type Publisher struct {
	bus   Bus
	topic string
}

// NewPublisher publishes lifecycle events for every chain onto bus under
// topic. It panics if bus is nil.
func NewPublisher(bus Bus, topic string) *Publisher {
	if bus == nil {
		panic("events: nil bus")
	}
	if topic == "" {
		topic = DefaultTopic
	}
	return &Publisher{bus: bus, topic: topic}
}

func (p *Publisher) ChainStarted(_ context.Context, info retryx.ChainInfo) {
	_ = p.bus.Publish(p.topic, Event{
		Type:    TypeChainStarted,
		ChainID: info.ID,
		Mode:    string(info.Mode),
	})
}

func (p *Publisher) AttemptFinished(_ context.Context, info retryx.AttemptInfo) {
	ev := Event{
		Type:    TypeAttempt,
		ChainID: info.ChainID,
		Attempt: int(info.Attempt),
	}
	if info.Err != nil {
		ev.Error = info.Err.Error()
	}
	_ = p.bus.Publish(p.topic, ev)
}

func (p *Publisher) DelayScheduled(_ context.Context, info retryx.DelayInfo) {
	_ = p.bus.Publish(p.topic, Event{
		Type:    TypeDelay,
		ChainID: info.ChainID,
		Attempt: int(info.Attempt),
		DelayMS: info.Delay.Milliseconds(),
	})
}

func (p *Publisher) ChainSettled(_ context.Context, info retryx.SettleInfo) {
	ev := Event{
		Type:     TypeChainSettled,
		ChainID:  info.ChainID,
		Outcome:  string(info.Outcome),
		Attempts: info.Attempts,
	}
	if info.Err != nil {
		ev.Error = info.Err.Error()
	}
	_ = p.bus.Publish(p.topic, ev)
}
