package retryx

import (
	"context"
	"log/slog"
	"time"

	"github.com/seb7887/retryx/ordinal"
)

// Mode identifies the entry point driving a retry chain.
type Mode string

const (
	ModeBlocking    Mode = "blocking"
	ModeAsync       Mode = "async"
	ModeAsyncFuture Mode = "async_future"
)

// Outcome classifies how a retry chain settled.
type Outcome string

const (
	// OutcomeSuccess: an attempt returned without error.
	OutcomeSuccess Outcome = "success"
	// OutcomeUnmatched: a failure no rule covers propagated unchanged.
	OutcomeUnmatched Outcome = "unmatched"
	// OutcomeExhausted: the matching rule ran out of delays.
	OutcomeExhausted Outcome = "exhausted"
	// OutcomeHookFailed: a delay hook failed and became the terminal error.
	OutcomeHookFailed Outcome = "hook_failed"
	// OutcomeCanceled: the context or the future was canceled.
	OutcomeCanceled Outcome = "canceled"
)

// ChainInfo describes a chain that just started.
type ChainInfo struct {
	ID   string
	Mode Mode
}

// AttemptInfo describes one finished attempt. Err is nil when the attempt
// succeeded.
type AttemptInfo struct {
	ChainID string
	Attempt ordinal.Ordinal
	Err     error
}

// DelayInfo describes a granted retry delay. Attempt is the attempt whose
// failure is being retried.
type DelayInfo struct {
	ChainID string
	Attempt ordinal.Ordinal
	Delay   time.Duration
}

// SettleInfo describes a settled chain. Err is the terminal error, nil on
// success.
type SettleInfo struct {
	ChainID  string
	Outcome  Outcome
	Attempts int
	Err      error
}

// Observer receives retry lifecycle callbacks. Implementations must be safe
// for concurrent use; a Retryer drives any number of chains at once.
// Callbacks run inline on the goroutine advancing the chain and should not
// block.
type Observer interface {
	ChainStarted(ctx context.Context, info ChainInfo)
	AttemptFinished(ctx context.Context, info AttemptInfo)
	DelayScheduled(ctx context.Context, info DelayInfo)
	ChainSettled(ctx context.Context, info SettleInfo)
}

// observers fans callbacks out to every registered Observer in order.
type observers []Observer

func (os observers) ChainStarted(ctx context.Context, info ChainInfo) {
	for _, o := range os {
		o.ChainStarted(ctx, info)
	}
}

func (os observers) AttemptFinished(ctx context.Context, info AttemptInfo) {
	for _, o := range os {
		o.AttemptFinished(ctx, info)
	}
}

func (os observers) DelayScheduled(ctx context.Context, info DelayInfo) {
	for _, o := range os {
		o.DelayScheduled(ctx, info)
	}
}

func (os observers) ChainSettled(ctx context.Context, info SettleInfo) {
	for _, o := range os {
		o.ChainSettled(ctx, info)
	}
}

// logObserver reports the retry lifecycle through slog.
type logObserver struct {
	log *slog.Logger
}

func (o logObserver) ChainStarted(ctx context.Context, info ChainInfo) {
	o.log.DebugContext(ctx, "retry chain started",
		slog.String("chain_id", info.ID),
		slog.String("mode", string(info.Mode)))
}

func (o logObserver) AttemptFinished(ctx context.Context, info AttemptInfo) {
	if info.Err == nil {
		o.log.DebugContext(ctx, "attempt succeeded",
			slog.String("chain_id", info.ChainID),
			slog.String("attempt", info.Attempt.String()))
		return
	}
	o.log.WarnContext(ctx, "attempt failed",
		slog.String("chain_id", info.ChainID),
		slog.String("attempt", info.Attempt.String()),
		slog.Any("error", info.Err))
}

func (o logObserver) DelayScheduled(ctx context.Context, info DelayInfo) {
	o.log.DebugContext(ctx, "retry scheduled",
		slog.String("chain_id", info.ChainID),
		slog.String("attempt", info.Attempt.String()),
		slog.Duration("delay", info.Delay))
}

func (o logObserver) ChainSettled(ctx context.Context, info SettleInfo) {
	if info.Err == nil {
		o.log.DebugContext(ctx, "retry chain settled",
			slog.String("chain_id", info.ChainID),
			slog.String("outcome", string(info.Outcome)),
			slog.Int("attempts", info.Attempts))
		return
	}
	o.log.WarnContext(ctx, "retry chain settled",
		slog.String("chain_id", info.ChainID),
		slog.String("outcome", string(info.Outcome)),
		slog.Int("attempts", info.Attempts),
		slog.Any("error", info.Err))
}
