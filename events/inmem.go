package events

import "context"

var _ Bus = (*InMem)(nil)

// InMem is a process-local bus backed by a buffered channel. Topics are
// accepted for interface parity and ignored; every subscriber competes for
// the same stream.
type InMem struct {
	ch chan Event
}

func NewInMemBus() *InMem {
	return &InMem{
		ch: make(chan Event, 100),
	}
}

func (b *InMem) Publish(_ string, ev Event) error {
	b.ch <- ev
	return nil
}

func (b *InMem) Subscribe(_ string, handler Receiver) {
	go func() {
		for ev := range b.ch {
			handler.Receive(context.Background(), ev)
		}
	}()
}

// Close stops delivery. Subscribers return after draining the buffer.
func (b *InMem) Close() {
	close(b.ch)
}
