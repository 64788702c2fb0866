package relaylog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// Defaults for unset options.
const (
	defaultBatchSize     = 16
	defaultFlushInterval = time.Second
	defaultQueueSize     = 1024
)

// Options configures a Logger.
type Options struct {
	// Sender delivers drained batches. Required.
	Sender Sender
	// Source and DeviceID are stamped onto every entry that does not
	// set its own.
	Source   string
	DeviceID string
	// BatchSize triggers a flush once this many entries are buffered.
	BatchSize int
	// FlushInterval triggers a periodic flush of whatever is buffered.
	FlushInterval time.Duration
	// QueueSize bounds the intake queue; full queue drops the entry.
	QueueSize int
}

// Logger buffers log entries and ships them through a Sender. Three
// triggers funnel into the same drain: the batch-size threshold, the
// interval ticker, and an explicit Flush. The drain runs on a single
// goroutine, so concurrent triggers can never double-send a batch.
type Logger struct {
	opts    Options
	queue   chan Entry
	flushCh chan chan struct{}
	done    chan struct{}
	wg      sync.WaitGroup
	dropped atomic.Int64
	closed  atomic.Bool
}

// New starts a Logger.
func New(opts Options) (*Logger, error) {
	if opts.Sender == nil {
		return nil, errors.New("relaylog: sender is required")
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = defaultFlushInterval
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	l := &Logger{
		opts:    opts,
		queue:   make(chan Entry, opts.QueueSize),
		flushCh: make(chan chan struct{}),
		done:    make(chan struct{}),
	}
	l.wg.Add(1)
	go l.runLoop()
	return l, nil
}

// Log enqueues one entry, stamping defaults. A full queue drops the
// entry rather than blocking the caller.
func (l *Logger) Log(e Entry) {
	if l.closed.Load() {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if e.Source == "" {
		e.Source = l.opts.Source
	}
	if e.DeviceID == "" {
		e.DeviceID = l.opts.DeviceID
	}
	select {
	case l.queue <- e:
	default:
		l.dropped.Add(1)
	}
}

// Convenience per-level helpers.

func (l *Logger) Trace(msg string)    { l.Log(Entry{Level: "trace", Message: msg}) }
func (l *Logger) Debug(msg string)    { l.Log(Entry{Level: "debug", Message: msg}) }
func (l *Logger) Info(msg string)     { l.Log(Entry{Level: "info", Message: msg}) }
func (l *Logger) Notice(msg string)   { l.Log(Entry{Level: "notice", Message: msg}) }
func (l *Logger) Warning(msg string)  { l.Log(Entry{Level: "warning", Message: msg}) }
func (l *Logger) Error(msg string)    { l.Log(Entry{Level: "error", Message: msg}) }
func (l *Logger) Critical(msg string) { l.Log(Entry{Level: "critical", Message: msg}) }

// Flush drains everything queued so far and waits for the send to
// finish, or for ctx to expire.
func (l *Logger) Flush(ctx context.Context) error {
	if l.closed.Load() {
		return nil
	}
	ack := make(chan struct{})
	select {
	case l.flushCh <- ack:
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return nil
	}
	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains the queue and stops the logger. Idempotent.
func (l *Logger) Close() {
	if l.closed.Swap(true) {
		return
	}
	close(l.done)
	l.wg.Wait()
}

// Dropped reports entries lost to a full intake queue.
func (l *Logger) Dropped() int64 {
	return l.dropped.Load()
}

func (l *Logger) runLoop() {
	defer l.wg.Done()
	ticker := time.NewTicker(l.opts.FlushInterval)
	defer ticker.Stop()

	var batch []Entry
	send := func() {
		if len(batch) == 0 {
			return
		}
		_ = l.opts.Sender.Send(context.Background(), batch)
		batch = nil
	}

	for {
		select {
		case e := <-l.queue:
			batch = append(batch, e)
			if len(batch) >= l.opts.BatchSize {
				send()
			}
		case <-ticker.C:
			send()
		case ack := <-l.flushCh:
			l.drainQueue(&batch)
			send()
			close(ack)
		case <-l.done:
			l.drainQueue(&batch)
			send()
			return
		}
	}
}

func (l *Logger) drainQueue(batch *[]Entry) {
	for {
		select {
		case e := <-l.queue:
			*batch = append(*batch, e)
		default:
			return
		}
	}
}
