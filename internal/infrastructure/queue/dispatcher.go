package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/prestalink/lending-bot/internal/api/metrics"
	"github.com/prestalink/lending-bot/internal/core/ports"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// Dispatcher routes inbound updates to a fixed set of workers using
// consistent hashing on the chat identity. All updates for one
// conversation land on the same worker, so a conversation never has more
// than one update in flight — the session model depends on this.
type Dispatcher struct {
	workers []chan ports.Update
	router  ports.UpdateRouter
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, router ports.UpdateRouter, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.Update, numWorkers),
		router:  router,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.Update, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue sends an update to the worker owning its conversation. The call
// is non-blocking up to channelBuffer capacity.
func (d *Dispatcher) Enqueue(up ports.Update) {
	idx := d.shardIndex(up.ChatID)
	d.workers[idx] <- up
	metrics.QueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
}

// shardIndex maps a chat identity deterministically to a worker index.
func (d *Dispatcher) shardIndex(chatID int64) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strconv.FormatInt(chatID, 10)))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case up, ok := <-ch:
			if !ok {
				return
			}
			start := time.Now()
			outcome := "ok"
			if err := d.router.Route(ctx, up); err != nil {
				outcome = "error"
				d.log.Error().Err(err).
					Int64("chat_id", up.ChatID).
					Int64("update_id", up.ID).
					Int("worker_id", id).
					Msg("update processing failed")
			}
			metrics.ProcessingDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
			metrics.QueueDepth.WithLabelValues(strconv.Itoa(id)).Set(float64(len(ch)))
		}
	}
}
