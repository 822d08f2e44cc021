package retryx

import (
	"log/slog"

	"github.com/seb7887/retryx/clock"
	"github.com/seb7887/retryx/ident"
)

type options struct {
	clock     clock.Clock
	logger    *slog.Logger
	observers []Observer
	newID     func() string
}

// Option configures a Retryer at construction time.
type Option func(*options)

// WithClock sets the clock used for blocking waits and time-limited
// sequences started by this Retryer. Defaults to clock.System().
func WithClock(c clock.Clock) Option {
	if c == nil {
		panic("retryx: nil clock")
	}
	return func(o *options) { o.clock = c }
}

// WithLogger reports the retry lifecycle through log. Attempts and chain
// settlements log at debug, failures at warn.
func WithLogger(log *slog.Logger) Option {
	if log == nil {
		panic("retryx: nil logger")
	}
	return func(o *options) { o.logger = log }
}

// WithObserver registers an additional lifecycle observer. Observers are
// invoked in registration order.
func WithObserver(obs Observer) Option {
	if obs == nil {
		panic("retryx: nil observer")
	}
	return func(o *options) { o.observers = append(o.observers, obs) }
}

// WithChainIDs sets the generator for chain correlation ids. Defaults to
// ident.New.
func WithChainIDs(fn func() string) Option {
	if fn == nil {
		panic("retryx: nil id generator")
	}
	return func(o *options) { o.newID = fn }
}

func (o *options) clockOrSystem() clock.Clock {
	if o.clock != nil {
		return o.clock
	}
	return clock.System()
}

func (o *options) chainID() string {
	if o.newID != nil {
		return o.newID()
	}
	return ident.New()
}

func (o *options) observerSet() observers {
	set := make(observers, 0, len(o.observers)+1)
	set = append(set, o.observers...)
	if o.logger != nil {
		set = append(set, logObserver{log: o.logger})
	}
	return set
}
