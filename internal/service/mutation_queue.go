package service

import (
	"slices"
	"sync"
)

// MutationKind selects the coalescing lane of a mutation.
type MutationKind int

const (
	KindAdd MutationKind = iota
	KindRemove
	KindUpdate
	KindRemoveDevice
)

var mutationKinds = []MutationKind{KindAdd, KindRemove, KindUpdate, KindRemoveDevice}

func (k MutationKind) String() string {
	switch k {
	case KindAdd:
		return "add"
	case KindRemove:
		return "remove"
	case KindUpdate:
		return "update"
	case KindRemoveDevice:
		return "remove_device"
	default:
		return "unknown"
	}
}

// batch accumulates the payloads of one lane. Add keeps every text in
// order; Remove and RemoveDevice keep a set; Update keeps the newest
// replacement per original text.
type batch struct {
	texts   []string
	updates map[string]string
	order   []string
}

func (b *batch) empty() bool {
	return len(b.texts) == 0 && len(b.order) == 0
}

func (b *batch) add(texts ...string) {
	b.texts = append(b.texts, texts...)
}

func (b *batch) addUnique(texts ...string) {
	for _, t := range texts {
		if !slices.Contains(b.texts, t) {
			b.texts = append(b.texts, t)
		}
	}
}

func (b *batch) update(oldText, newText string) {
	if b.updates == nil {
		b.updates = make(map[string]string)
	}
	if _, ok := b.updates[oldText]; !ok {
		b.order = append(b.order, oldText)
	}
	b.updates[oldText] = newText
}

// flightFunc applies one drained batch to the cached profile and issues at
// most one remote write.
type flightFunc func(kind MutationKind, b *batch)

type lane struct {
	mu       sync.Mutex
	inFlight bool
	pending  *batch
}

// MutationQueue coalesces concurrent mutations per kind. While a flight of
// one kind is in progress, further submissions of that kind are buffered;
// when the flight returns, everything buffered is applied in the next flight
// before the lane is released. Different kinds fly independently.
type MutationQueue struct {
	lanes      map[MutationKind]*lane
	fly        flightFunc
	onCoalesce func(MutationKind)

	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

// NewMutationQueue returns a queue executing flights with fly. onCoalesce,
// when not nil, is called for every submission buffered behind a flight.
func NewMutationQueue(fly flightFunc, onCoalesce func(MutationKind)) *MutationQueue {
	q := &MutationQueue{
		lanes:      make(map[MutationKind]*lane, len(mutationKinds)),
		fly:        fly,
		onCoalesce: onCoalesce,
	}
	for _, k := range mutationKinds {
		q.lanes[k] = &lane{pending: &batch{}}
	}
	return q
}

func (q *MutationQueue) SubmitAdd(text string) bool {
	return q.submit(KindAdd, func(b *batch) { b.add(text) })
}

func (q *MutationQueue) SubmitRemove(texts ...string) bool {
	return q.submit(KindRemove, func(b *batch) { b.addUnique(texts...) })
}

func (q *MutationQueue) SubmitUpdate(oldText, newText string) bool {
	return q.submit(KindUpdate, func(b *batch) { b.update(oldText, newText) })
}

func (q *MutationQueue) SubmitRemoveDevice(id string) bool {
	return q.submit(KindRemoveDevice, func(b *batch) { b.addUnique(id) })
}

// submit merges a payload into the lane of kind and starts a flight when
// none is running. It never waits for the flight. It returns false when the
// queue is closed.
func (q *MutationQueue) submit(kind MutationKind, merge func(*batch)) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.wg.Add(1)
	q.mu.Unlock()

	l := q.lanes[kind]
	l.mu.Lock()
	merge(l.pending)
	if l.inFlight {
		l.mu.Unlock()
		q.wg.Done()
		if q.onCoalesce != nil {
			q.onCoalesce(kind)
		}
		return true
	}

	l.inFlight = true
	b := l.pending
	l.pending = &batch{}
	l.mu.Unlock()

	go q.run(kind, l, b)
	return true
}

func (q *MutationQueue) run(kind MutationKind, l *lane, b *batch) {
	defer q.wg.Done()

	for {
		q.fly(kind, b)

		l.mu.Lock()
		if l.pending.empty() {
			l.inFlight = false
			l.mu.Unlock()
			return
		}
		b = l.pending
		l.pending = &batch{}
		l.mu.Unlock()
	}
}

// Wait blocks until every started flight, including the drain of buffered
// payloads, has returned.
func (q *MutationQueue) Wait() {
	q.wg.Wait()
}

// Close rejects further submissions and waits for running flights.
func (q *MutationQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	q.wg.Wait()
}
