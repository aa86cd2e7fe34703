package queue

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/99minutos/auth-system/internal/core/domain"
	"github.com/99minutos/auth-system/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher persists audit events off the request path. Events are sharded
// by username so a single user's trail is written in order.
type Dispatcher struct {
	workers []chan domain.AuthEvent
	service ports.AuditService
	log     zerolog.Logger

	dropped atomic.Uint64
	onDrop  func(domain.AuthEvent)
	wg      sync.WaitGroup
}

var _ ports.AuditRecorder = (*Dispatcher)(nil)

// Option customises a Dispatcher.
type Option func(*Dispatcher)

// WithDropHook registers fn to be called for every event dropped because
// its shard was full.
func WithDropHook(fn func(domain.AuthEvent)) Option {
	return func(d *Dispatcher) { d.onDrop = fn }
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service ports.AuditService, log zerolog.Logger, opts ...Option) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.AuthEvent, numWorkers),
		service: service,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.AuthEvent, channelBuffer)
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start launches all worker goroutines. When ctx is cancelled each worker
// drains its buffered events and returns.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Record hands the event to its shard. It never blocks: when the shard is
// full the event is dropped and counted.
func (d *Dispatcher) Record(event domain.AuthEvent) {
	select {
	case d.workers[d.shardIndex(event.Username)] <- event:
	default:
		d.dropped.Add(1)
		d.log.Warn().
			Str("event_type", string(event.Type)).
			Str("username", event.Username).
			Msg("audit queue full, event dropped")
		if d.onDrop != nil {
			d.onDrop(event)
		}
	}
}

// Dropped returns how many events were discarded since start.
func (d *Dispatcher) Dropped() uint64 {
	return d.dropped.Load()
}

// Depth returns the number of events waiting across all shards.
func (d *Dispatcher) Depth() int {
	n := 0
	for _, ch := range d.workers {
		n += len(ch)
	}
	return n
}

// shardIndex maps a username deterministically to a worker index.
func (d *Dispatcher) shardIndex(username string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(username))
	return int(h.Sum32() % uint32(len(d.workers)))
}

// runWorker processes events until ctx is cancelled, then drains whatever is
// still buffered in its shard. Processing uses a context detached from ctx so
// shutdown does not abort writes already dequeued.
func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.AuthEvent) {
	defer d.wg.Done()
	pctx := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			d.drain(pctx, id, ch)
			return
		case event := <-ch:
			d.process(pctx, id, event)
		}
	}
}

func (d *Dispatcher) drain(ctx context.Context, id int, ch <-chan domain.AuthEvent) {
	n := 0
	for {
		select {
		case event := <-ch:
			d.process(ctx, id, event)
			n++
		default:
			if n > 0 {
				d.log.Info().Int("worker_id", id).Int("events", n).Msg("audit queue drained")
			}
			return
		}
	}
}

func (d *Dispatcher) process(ctx context.Context, id int, event domain.AuthEvent) {
	if err := d.service.Process(ctx, event); err != nil {
		d.log.Error().Err(err).
			Str("event_type", string(event.Type)).
			Str("username", event.Username).
			Int("worker_id", id).
			Msg("audit event processing failed")
	}
}
