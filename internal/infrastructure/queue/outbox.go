package queue

import (
	"context"
	"hash/fnv"
	"time"

	"github.com/rs/zerolog"

	"github.com/errandly/identity-service/internal/core/ports"
)

const (
	defaultWorkers     = 4
	defaultMaxAttempts = 5
	defaultBackoff     = 500 * time.Millisecond
	channelBuffer      = 256
)

// Outbox delivers messages through a Notifier on a fixed set of workers,
// sharded by recipient so mail to one address keeps its order. Failed
// deliveries are retried with exponential backoff.
type Outbox struct {
	workers     []chan ports.Message
	notifier    ports.Notifier
	maxAttempts int
	backoff     time.Duration
	log         zerolog.Logger
	done        chan struct{}
}

// NewOutbox creates an Outbox with numWorkers workers. Non-positive values
// fall back to defaults.
func NewOutbox(numWorkers, maxAttempts int, notifier ports.Notifier, log zerolog.Logger) *Outbox {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	o := &Outbox{
		workers:     make([]chan ports.Message, numWorkers),
		notifier:    notifier,
		maxAttempts: maxAttempts,
		backoff:     defaultBackoff,
		log:         log,
		done:        make(chan struct{}),
	}
	for i := range o.workers {
		o.workers[i] = make(chan ports.Message, channelBuffer)
	}
	return o
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
// Call it once.
func (o *Outbox) Start(ctx context.Context) {
	for i, ch := range o.workers {
		go o.runWorker(ctx, i, ch)
	}
	go func() {
		<-ctx.Done()
		close(o.done)
	}()
}

// Enqueue hands msg to the worker owning its recipient. It blocks only while
// that worker's buffer is full; once the outbox is stopped messages are
// logged and dropped.
func (o *Outbox) Enqueue(msg ports.Message) {
	select {
	case <-o.done:
		o.drop(msg)
		return
	default:
	}

	select {
	case o.workers[o.shardIndex(msg.To)] <- msg:
	case <-o.done:
		o.drop(msg)
	}
}

func (o *Outbox) drop(msg ports.Message) {
	o.log.Warn().Str("to", msg.To).Str("subject", msg.Subject).Msg("outbox stopped, message dropped")
}

func (o *Outbox) shardIndex(recipient string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(recipient))
	return int(h.Sum32() % uint32(len(o.workers)))
}

func (o *Outbox) runWorker(ctx context.Context, id int, ch <-chan ports.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			o.deliver(ctx, id, msg)
		}
	}
}

func (o *Outbox) deliver(ctx context.Context, id int, msg ports.Message) {
	wait := o.backoff
	for attempt := 1; ; attempt++ {
		err := o.notifier.Send(ctx, msg)
		if err == nil {
			return
		}
		if attempt >= o.maxAttempts {
			o.log.Error().Err(err).
				Str("to", msg.To).
				Int("worker_id", id).
				Int("attempts", attempt).
				Msg("message dropped")
			return
		}
		o.log.Warn().Err(err).Str("to", msg.To).Int("attempt", attempt).Msg("delivery failed, retrying")

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
		wait *= 2
	}
}
