package edge

import (
	"context"
	"sync"

	"github.com/kbukum/flowkit/datum"
	"github.com/kbukum/flowkit/errors"
)

// Packet is a datum as it travels on an edge. Stamp orders the packet
// relative to the producer's steps; unstamped packets never take part in
// synchronisation checks.
type Packet struct {
	Datum   datum.Datum
	Stamp   uint64
	Stamped bool
}

// Stamped returns a packet carrying d with the given stamp.
func Stamped(d datum.Datum, stamp uint64) Packet {
	return Packet{Datum: d, Stamp: stamp, Stamped: true}
}

// Unstamped returns a packet carrying d without a stamp.
func Unstamped(d datum.Datum) Packet {
	return Packet{Datum: d}
}

func completePacket() Packet {
	return Packet{Datum: datum.Complete()}
}

type overflowKey struct{}

// WithOverflow marks ctx so that pushes made with it never block on a full
// edge. Single-goroutine schedulers use it so a step cannot wait on a
// consumer that only runs after the step returns.
func WithOverflow(ctx context.Context) context.Context {
	return context.WithValue(ctx, overflowKey{}, true)
}

// Overflow reports whether ctx allows pushing past capacity.
func Overflow(ctx context.Context) bool {
	v, _ := ctx.Value(overflowKey{}).(bool)
	return v
}

// Option configures an Edge.
type Option func(*Edge)

// WithName sets the name used in errors and logs, usually
// "producer.port -> consumer.port".
func WithName(name string) Option {
	return func(e *Edge) { e.name = name }
}

// Edge is a FIFO queue from one output port to one or more readers. Every
// reader has its own cursor; a packet is released once all live readers have
// consumed it. Capacity bounds the backlog of the slowest live reader.
type Edge struct {
	name string
	cfg  Config

	mu       sync.Mutex
	changed  chan struct{}
	buf      []Packet
	base     uint64
	readers  []*Reader
	complete bool
	pushed   uint64
	dropped  uint64
}

// New creates an edge.
func New(cfg Config, opts ...Option) *Edge {
	e := &Edge{
		cfg:     cfg,
		changed: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the edge name.
func (e *Edge) Name() string { return e.name }

// Config returns the edge configuration.
func (e *Edge) Config() Config { return e.cfg }

// AddReader attaches a new reader positioned at the oldest buffered packet.
func (e *Edge) AddReader(opts ...ReaderOption) *Reader {
	e.mu.Lock()
	defer e.mu.Unlock()
	r := &Reader{e: e, pos: e.base}
	for _, opt := range opts {
		opt(r)
	}
	e.readers = append(e.readers, r)
	return r
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// AsFeedback marks the reader as the end of a no-dependency connection.
// Its producer may run after its consumer, so the reader starts empty.
func AsFeedback() ReaderOption {
	return func(r *Reader) { r.feedback = true }
}

// Readers returns the number of attached readers.
func (e *Edge) Readers() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.readers)
}

// Push appends p. It blocks while the slowest live reader has Capacity
// packets pending, unless ctx carries WithOverflow, and returns ctx.Err() if
// ctx ends first. Packets pushed after every reader has completed are
// dropped.
func (e *Edge) Push(ctx context.Context, p Packet) error {
	e.mu.Lock()
	for {
		if e.drained() {
			e.dropped++
			e.mu.Unlock()
			return nil
		}
		if e.cfg.Capacity == 0 || e.backlog() < e.cfg.Capacity || Overflow(ctx) {
			break
		}
		ch := e.changed
		e.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
		e.mu.Lock()
	}

	e.buf = append(e.buf, p)
	e.pushed++
	if p.Datum.IsComplete() {
		e.complete = true
	}
	e.notify()
	e.mu.Unlock()
	return nil
}

// Room returns how many packets can be pushed without blocking, or -1 when
// pushes never block.
func (e *Edge) Room() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cfg.Capacity == 0 || e.drained() {
		return -1
	}
	return max(e.cfg.Capacity-e.backlog(), 0)
}

// HasRoom reports whether n packets can be pushed without blocking.
func (e *Edge) HasRoom(n int) bool {
	room := e.Room()
	return room < 0 || room >= n
}

// Completed reports whether a complete packet has been pushed.
func (e *Edge) Completed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.complete
}

// Pushed returns the number of packets accepted so far.
func (e *Edge) Pushed() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pushed
}

// Dropped returns the number of packets discarded because every reader had
// completed.
func (e *Edge) Dropped() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dropped
}

// Len returns the number of packets pending for the first reader.
func (e *Edge) Len() int { return e.first().Len() }

// Peek inspects the packet at index i of the first reader.
func (e *Edge) Peek(i int) (Packet, error) { return e.first().Peek(i) }

// Pop removes the next packet of the first reader.
func (e *Edge) Pop(ctx context.Context) (Packet, error) { return e.first().Pop(ctx) }

func (e *Edge) first() *Reader {
	e.mu.Lock()
	if len(e.readers) > 0 {
		r := e.readers[0]
		e.mu.Unlock()
		return r
	}
	e.mu.Unlock()
	return e.AddReader()
}

// --- internal, e.mu held ---

func (e *Edge) end() uint64 { return e.base + uint64(len(e.buf)) }

func (e *Edge) drained() bool {
	if len(e.readers) == 0 {
		return false
	}
	for _, r := range e.readers {
		if !r.done {
			return false
		}
	}
	return true
}

func (e *Edge) backlog() int {
	if len(e.readers) == 0 {
		return len(e.buf)
	}
	worst := 0
	for _, r := range e.readers {
		if r.done {
			continue
		}
		worst = max(worst, int(e.end()-r.pos))
	}
	return worst
}

func (e *Edge) trim() {
	if len(e.readers) == 0 {
		return
	}
	low := e.end()
	for _, r := range e.readers {
		if !r.done && r.pos < low {
			low = r.pos
		}
	}
	n := int(low - e.base)
	if n == 0 {
		return
	}
	clear(e.buf[:n])
	e.buf = e.buf[n:]
	e.base = low
}

func (e *Edge) notify() {
	close(e.changed)
	e.changed = make(chan struct{})
}

// Reader is one consumer's cursor into an edge.
type Reader struct {
	e        *Edge
	pos      uint64
	done     bool
	feedback bool
}

// Edge returns the edge the reader belongs to.
func (r *Reader) Edge() *Edge { return r.e }

// Feedback reports whether the reader was added with AsFeedback.
func (r *Reader) Feedback() bool { return r.feedback }

// Len returns the number of packets pending for this reader.
func (r *Reader) Len() int {
	r.e.mu.Lock()
	defer r.e.mu.Unlock()
	return r.available()
}

// Completed reports whether MarkComplete was called.
func (r *Reader) Completed() bool {
	r.e.mu.Lock()
	defer r.e.mu.Unlock()
	return r.done
}

// Peek returns the packet at index i without consuming it. Past the end of a
// completed edge it returns a complete packet; otherwise an out-of-range
// index fails with NO_DATA.
func (r *Reader) Peek(i int) (Packet, error) {
	r.e.mu.Lock()
	defer r.e.mu.Unlock()
	avail := r.available()
	if i >= 0 && i < avail {
		return r.e.buf[r.pos-r.e.base+uint64(i)], nil
	}
	if i >= 0 && (r.e.complete || r.done) {
		return completePacket(), nil
	}
	return Packet{}, errors.NoData(i, avail).WithDetail("edge", r.e.name)
}

// TryPop removes the next packet if one is available. Once the edge has
// completed and the reader is exhausted it keeps returning complete packets.
func (r *Reader) TryPop() (Packet, bool) {
	r.e.mu.Lock()
	defer r.e.mu.Unlock()
	return r.tryPop()
}

// Pop removes the next packet, blocking until one arrives or ctx ends.
func (r *Reader) Pop(ctx context.Context) (Packet, error) {
	for {
		r.e.mu.Lock()
		if p, ok := r.tryPop(); ok {
			r.e.mu.Unlock()
			return p, nil
		}
		ch := r.e.changed
		r.e.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return Packet{}, ctx.Err()
		}
	}
}

// Wait blocks until n packets are pending for this reader or the edge has
// completed.
func (r *Reader) Wait(ctx context.Context, n int) error {
	for {
		r.e.mu.Lock()
		if r.available() >= n || r.e.complete || r.done {
			r.e.mu.Unlock()
			return nil
		}
		ch := r.e.changed
		r.e.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// MarkComplete detaches the reader: pending packets are released and the
// reader no longer counts towards capacity.
func (r *Reader) MarkComplete() {
	r.e.mu.Lock()
	defer r.e.mu.Unlock()
	if r.done {
		return
	}
	r.done = true
	r.pos = r.e.end()
	r.e.trim()
	r.e.notify()
}

func (r *Reader) available() int {
	if r.done {
		return 0
	}
	return int(r.e.end() - r.pos)
}

func (r *Reader) tryPop() (Packet, bool) {
	if r.available() > 0 {
		p := r.e.buf[r.pos-r.e.base]
		r.pos++
		r.e.trim()
		r.e.notify()
		return p, true
	}
	if r.e.complete || r.done {
		return completePacket(), true
	}
	return Packet{}, false
}
