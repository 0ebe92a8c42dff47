// Package dispatcher routes host commands and in-process journal events to
// their handlers. A handler runs inline by default; Buffered handlers get a
// dedicated lane (a channel plus one consumer goroutine) so the caller only
// pays for the enqueue.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrQueueFull      = errors.New("queue full")
	ErrClosed         = errors.New("dispatcher closed")
)

// Queued is the result a buffered handler reports to the caller.
const Queued = "queued"

// Event is a host command (Args) or an in-process event (Payload).
type Event struct {
	Command   string
	Args      []string
	Payload   any
	Timestamp time.Time
}

type HandlerFunc func(Event) (any, error)

// Logger is satisfied by logging.DispatcherLogger and by test doubles.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

type Option func(*registration)

type registration struct {
	lane     int
	blocking bool
	logged   bool
}

// Buffered runs the handler on its own goroutine behind a queue of size events.
func Buffered(size int) Option {
	return func(r *registration) { r.lane = size }
}

// Blocking makes Dispatch wait for room in a buffered queue rather than fail.
// A blocking lane's handler must not call back into the Dispatcher.
func Blocking() Option {
	return func(r *registration) { r.blocking = true }
}

// Logged emits a debug line per call and an error line per failure.
func Logged() Option {
	return func(r *registration) { r.logged = true }
}

type instruments struct {
	depth     metric.Int64ObservableGauge
	processed metric.Int64Counter
	dropped   metric.Int64Counter
	failed    metric.Int64Counter
}

// lane is the queue and consumer behind a buffered command.
type lane struct {
	events chan Event
	attrs  metric.MeasurementOption
}

type Dispatcher struct {
	log Logger
	ins instruments

	mu     sync.RWMutex
	routes map[string]HandlerFunc
	lanes  map[string]*lane
	closed bool

	stop      chan struct{}
	consumers sync.WaitGroup
}

// New uses the global OpenTelemetry meter, which is a no-op until a provider is installed.
func New(logger Logger) (*Dispatcher, error) {
	return NewWithMeter(logger, otel.Meter("github.com/SmartTank/extension/internal/dispatcher"))
}

func NewWithMeter(logger Logger, m metric.Meter) (*Dispatcher, error) {
	d := &Dispatcher{
		log:    logger,
		routes: map[string]HandlerFunc{},
		lanes:  map[string]*lane{},
		stop:   make(chan struct{}),
	}
	if err := d.instrument(m); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dispatcher) instrument(m metric.Meter) error {
	var err error
	if d.ins.depth, err = m.Int64ObservableGauge("dispatcher.queue.size",
		metric.WithDescription("Events waiting in a buffered command queue")); err != nil {
		return fmt.Errorf("dispatcher: queue gauge: %w", err)
	}
	if _, err = m.RegisterCallback(d.observeDepth, d.ins.depth); err != nil {
		return fmt.Errorf("dispatcher: queue gauge callback: %w", err)
	}
	if d.ins.processed, err = m.Int64Counter("dispatcher.events.processed",
		metric.WithDescription("Buffered events handled")); err != nil {
		return fmt.Errorf("dispatcher: processed counter: %w", err)
	}
	if d.ins.dropped, err = m.Int64Counter("dispatcher.events.dropped",
		metric.WithDescription("Buffered events rejected because the queue was full")); err != nil {
		return fmt.Errorf("dispatcher: dropped counter: %w", err)
	}
	if d.ins.failed, err = m.Int64Counter("dispatcher.events.failed",
		metric.WithDescription("Buffered events whose handler failed")); err != nil {
		return fmt.Errorf("dispatcher: failed counter: %w", err)
	}
	return nil
}

func (d *Dispatcher) observeDepth(_ context.Context, o metric.Observer) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, l := range d.lanes {
		o.ObserveInt64(d.ins.depth, int64(len(l.events)), l.attrs)
	}
	return nil
}

// Register binds h to command, replacing any earlier binding.
func (d *Dispatcher) Register(command string, h HandlerFunc, opts ...Option) {
	var r registration
	for _, opt := range opts {
		opt(&r)
	}

	if r.lane > 0 {
		h = d.enqueue(command, d.openLane(command, r.lane, h), r.blocking)
	}
	if r.logged {
		h = d.logged(command, h)
	}

	d.mu.Lock()
	d.routes[command] = h
	d.mu.Unlock()
}

func (d *Dispatcher) Dispatch(e Event) (any, error) {
	d.mu.RLock()
	h, ok := d.routes[e.Command]
	closed := d.closed
	d.mu.RUnlock()

	switch {
	case closed:
		return nil, ErrClosed
	case !ok:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, e.Command)
	}
	return h(e)
}

func (d *Dispatcher) HasHandler(command string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.routes[command]
	return ok
}

// Commands returns the registered command names, sorted.
func (d *Dispatcher) Commands() []string {
	d.mu.RLock()
	cmds := make([]string, 0, len(d.routes))
	for c := range d.routes {
		cmds = append(cmds, c)
	}
	d.mu.RUnlock()
	slices.Sort(cmds)
	return cmds
}

// Close rejects further events, then waits for every lane to finish what it
// had already accepted. It is safe to call more than once.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.stop)
	}
	d.mu.Unlock()
	d.consumers.Wait()
}

func (d *Dispatcher) openLane(command string, size int, h HandlerFunc) *lane {
	l := &lane{
		events: make(chan Event, size),
		attrs:  metric.WithAttributes(attribute.String("command", command)),
	}
	d.mu.Lock()
	d.lanes[command] = l
	d.mu.Unlock()

	d.consumers.Add(1)
	go d.consume(command, l, h)
	return l
}

func (d *Dispatcher) consume(command string, l *lane, h HandlerFunc) {
	defer d.consumers.Done()
	for {
		select {
		case e := <-l.events:
			d.run(command, l, h, e)
		case <-d.stop:
			for {
				select {
				case e := <-l.events:
					d.run(command, l, h, e)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) run(command string, l *lane, h HandlerFunc, e Event) {
	ctx := context.Background()
	if _, err := h(e); err != nil {
		d.ins.failed.Add(ctx, 1, l.attrs)
		d.log.Error("buffered event failed", "command", command, "error", err)
	}
	d.ins.processed.Add(ctx, 1, l.attrs)
}

// enqueue holds the read lock from the closed check through the send, so
// Close cannot close stop while an event is half accepted. A blocked sender
// keeps the lane consumer running, which frees the slot it waits for.
func (d *Dispatcher) enqueue(command string, l *lane, blocking bool) HandlerFunc {
	return func(e Event) (any, error) {
		d.mu.RLock()
		defer d.mu.RUnlock()
		if d.closed {
			return nil, ErrClosed
		}

		if blocking {
			l.events <- e
			return Queued, nil
		}
		select {
		case l.events <- e:
			return Queued, nil
		default:
			d.ins.dropped.Add(context.Background(), 1, l.attrs)
			return nil, fmt.Errorf("%w: %s", ErrQueueFull, command)
		}
	}
}

func (d *Dispatcher) logged(command string, h HandlerFunc) HandlerFunc {
	return func(e Event) (any, error) {
		start := time.Now()
		d.log.Debug("dispatch", "command", command, "args", len(e.Args))
		res, err := h(e)
		if err != nil {
			d.log.Error("dispatch failed", "command", command, "took", time.Since(start), "error", err)
			return res, err
		}
		d.log.Debug("dispatch done", "command", command, "took", time.Since(start))
		return res, nil
	}
}
