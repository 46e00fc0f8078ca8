// Package trace implements the append-only, hash-chained computation log.
//
// Every step of a divination is recorded as an Event whose hash covers the
// previous event's hash, making the log tamper-evident. Nested groups carry
// their own digest over the hashes sealed inside them, so any sub-tree can be
// verified without re-hashing the whole log.
package trace

import "github.com/maelin/cybermancy/internal/mix"

// Logical clock step bounds. Events jitter 80–300 units, group boundaries
// 160–520, from a dedicated RNG so timing noise never touches scoring streams.
const (
	eventStepBase = 80
	eventStepSpan = 220
	groupStepBase = 160
	groupStepSpan = 360
)

// frame tracks one open group: the index of its start event in the
// append-only slice and the fold of every hash sealed inside it so far.
type frame struct {
	startIdx int
	depth    int
	acc      uint32
}

// Ledger builds the event log. It owns an explicit stack of frames over an
// append-only slice; events are never mutated after emission except to
// attach group and root digests.
type Ledger struct {
	events []Event
	frames []frame
	clock  int64
	depth  int
	prev   uint32
	root   uint32
	rng    *mix.RNG
	sealed bool
}

// NewLedger returns a ledger whose clock jitter is driven by rng.
// The same rng also supplies the combiner's final rounding jitter, keeping
// all trace-side randomness on one stream.
func NewLedger(rng *mix.RNG) *Ledger {
	return &Ledger{rng: rng}
}

// Jitter exposes the ledger's RNG stream for trace-side noise (final score
// rounding). Scoring substreams must not use it.
func (l *Ledger) Jitter() *mix.RNG {
	return l.rng
}

// Emit appends a plain event at the current depth.
func (l *Ledger) Emit(phase, message string, data map[string]string, fp []float64) {
	l.advance(eventStepBase, eventStepSpan)
	l.push(KindEvent, phase, message, data, fp, l.depth)
}

// GroupStart opens a group. Subsequent events nest one level deeper until the
// matching GroupEnd.
func (l *Ledger) GroupStart(phase, title string, data map[string]string, fp []float64) {
	l.advance(groupStepBase, groupStepSpan)
	idx := l.push(KindGroupStart, phase, title, data, fp, l.depth)
	l.frames = append(l.frames, frame{startIdx: idx, depth: l.depth})
	l.depth++
}

// GroupEnd closes the innermost open group and attaches the group digest to
// both boundary events. The digest covers the start hash, the fold of every
// hash sealed strictly inside the group, and the end hash.
func (l *Ledger) GroupEnd(phase, title string, data map[string]string, fp []float64) {
	if len(l.frames) == 0 {
		l.Emit(phase, title, data, fp)
		return
	}
	l.depth--
	fr := l.frames[len(l.frames)-1]
	l.frames = l.frames[:len(l.frames)-1]

	l.advance(groupStepBase, groupStepSpan)
	idx := l.push(KindGroupEnd, phase, title, data, fp, l.depth)

	start := &l.events[fr.startIdx]
	end := &l.events[idx]
	digest := fold(fold(start.Hash, fr.acc), end.Hash)
	start.GroupDigest = digest
	end.GroupDigest = digest
}

// Seal folds every event hash into the root digest, attaches it to the first
// and last events, and returns the completed log. The ledger must not be
// used after Seal.
func (l *Ledger) Seal() []Event {
	if l.sealed || len(l.events) == 0 {
		l.sealed = true
		return l.events
	}
	l.events[0].RootDigest = l.root
	l.events[len(l.events)-1].RootDigest = l.root
	l.sealed = true
	return l.events
}

// advance moves the logical clock by base plus jittered span.
func (l *Ledger) advance(base, span int) {
	l.clock += int64(base) + int64(l.rng.Float64()*float64(span))
}

// push appends the event, hashes it and folds the hash into the root
// accumulator and every open frame. Returns the event's index.
func (l *Ledger) push(kind Kind, phase, message string, data map[string]string, fp []float64, depth int) int {
	e := Event{
		Seq:     len(l.events),
		T:       l.clock,
		Depth:   depth,
		Kind:    kind,
		Phase:   phase,
		Message: message,
		Data:    data,
		FP:      fp,
		Prev:    l.prev,
	}
	e.Hash = hashEvent(&e)
	l.prev = e.Hash
	l.root = fold(l.root, e.Hash)
	for i := range l.frames {
		l.frames[i].acc = fold(l.frames[i].acc, e.Hash)
	}
	l.events = append(l.events, e)
	return len(l.events) - 1
}
