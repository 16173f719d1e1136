package events

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"seaweedSwimmerAPI/internal/metrics"
)

var log = logrus.StandardLogger().WithFields(logrus.Fields{
	"component": "events",
})

// Dispatcher hands events to a Bus from a small worker pool so that request
// handlers never wait on the broker.
type Dispatcher struct {
	bus          Bus
	workers      int
	queue        chan *Event
	stop         chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
	emitTimeout  time.Duration
	queueTimeout time.Duration
}

type Option func(*Dispatcher)

func WithWorkers(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(d *Dispatcher) {
		if n >= 0 {
			d.queue = make(chan *Event, n)
		}
	}
}

// WithQueueTimeout bounds how long Publish waits for room in a full queue.
func WithQueueTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		d.queueTimeout = timeout
	}
}

func NewDispatcher(bus Bus, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		bus:          bus,
		workers:      2,
		queue:        make(chan *Event, 100),
		stop:         make(chan struct{}),
		emitTimeout:  5 * time.Second,
		queueTimeout: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(d)
	}

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}

	return d
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()
	for {
		select {
		case evt := <-d.queue:
			d.process(evt)
		case <-d.stop:
			for {
				select {
				case evt := <-d.queue:
					d.process(evt)
				default:
					log.WithField("worker", id).Debug("Event worker stopped")
					return
				}
			}
		}
	}
}

func (d *Dispatcher) process(evt *Event) {
	ctx, cancel := context.WithTimeout(context.Background(), d.emitTimeout)
	defer cancel()

	if err := d.bus.Emit(ctx, evt); err != nil {
		metrics.EventsPublished.WithLabelValues(string(evt.Type), "failed").Inc()
		log.WithError(err).WithFields(logrus.Fields{
			"type":     evt.Type,
			"username": evt.Entry.Username,
		}).Error("Failed to emit event")
		return
	}
	metrics.EventsPublished.WithLabelValues(string(evt.Type), "sent").Inc()
}

// Publish queues evt and reports whether it was accepted. Events are dropped
// when the queue stays full past the queue timeout or the dispatcher is closed.
func (d *Dispatcher) Publish(evt *Event) bool {
	select {
	case <-d.stop:
		return false
	default:
	}

	select {
	case d.queue <- evt:
		return true
	case <-d.stop:
		return false
	case <-time.After(d.queueTimeout):
		metrics.EventsPublished.WithLabelValues(string(evt.Type), "dropped").Inc()
		log.WithField("type", evt.Type).Warn("Event queue full, dropping event")
		return false
	}
}

// Close stops accepting events, waits for queued ones to be emitted and closes
// the bus.
func (d *Dispatcher) Close() error {
	var err error
	d.stopOnce.Do(func() {
		close(d.stop)
		d.wg.Wait()
		err = d.bus.Close()
	})
	return err
}
