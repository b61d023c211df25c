// Package outbox relays committed ledger events from the store to in-process
// subscribers. Events are written in the same transaction as the mutation
// that caused them, so the relay delivers every event at least once and in
// global append order.
package outbox

import (
	"context"
	"time"

	evbus "github.com/asaskevich/EventBus"
	"github.com/rs/zerolog"

	"github.com/fundlift/fundlift/internal/funding/domain/event"
	"github.com/fundlift/fundlift/internal/funding/storage"
)

const (
	defaultInterval  = 500 * time.Millisecond
	defaultBatchSize = 64
)

// Relay polls the outbox and publishes pending events on the bus, using the
// event type as the topic.
type Relay struct {
	store    storage.EventStore
	bus      evbus.Bus
	interval time.Duration
	batch    int
	logger   zerolog.Logger
}

// Option configures a Relay.
type Option func(*Relay)

// WithInterval sets the polling interval.
func WithInterval(interval time.Duration) Option {
	return func(r *Relay) {
		if interval > 0 {
			r.interval = interval
		}
	}
}

// WithBatchSize sets how many events one poll drains.
func WithBatchSize(size int) Option {
	return func(r *Relay) {
		if size > 0 {
			r.batch = size
		}
	}
}

// WithLogger sets the relay logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Relay) {
		r.logger = logger
	}
}

// New creates a relay draining store onto bus.
func New(store storage.EventStore, bus evbus.Bus, opts ...Option) *Relay {
	r := &Relay{
		store:    store,
		bus:      bus,
		interval: defaultInterval,
		batch:    defaultBatchSize,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run polls until ctx is cancelled. It returns ctx.Err() on shutdown.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if _, err := r.DrainOnce(ctx); err != nil {
			r.logger.Error().Err(err).Msg("outbox drain failed")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// DrainOnce publishes one batch of pending events and marks them dispatched.
// It returns the number of events delivered. An undecodable event is logged
// and marked dispatched anyway so it cannot wedge the relay.
func (r *Relay) DrainOnce(ctx context.Context) (int, error) {
	events, err := r.store.ListUndispatchedEvents(ctx, r.batch)
	if err != nil {
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}

	sequences := make([]uint64, 0, len(events))
	delivered := 0
	for _, evt := range events {
		payload, err := event.Decode(evt)
		if err != nil {
			r.logger.Error().
				Err(err).
				Uint64("sequence", evt.Sequence).
				Str("type", string(evt.Type)).
				Msg("skipping undecodable ledger event")
			sequences = append(sequences, evt.Sequence)
			continue
		}
		r.bus.Publish(string(evt.Type), payload)
		sequences = append(sequences, evt.Sequence)
		delivered++
	}

	if err := r.store.MarkEventsDispatched(ctx, sequences); err != nil {
		return delivered, err
	}
	return delivered, nil
}
