package trace

import (
	"reflect"
	"testing"

	"github.com/maelin/cybermancy/internal/mix"
)

func buildSample(seed uint32) []Event {
	l := NewLedger(mix.New(seed))
	l.GroupStart("seed", "derive", map[string]string{"seed": "42"}, nil)
	l.Emit("seed", "root seed mixed", nil, nil)
	l.GroupStart("temporal", "pillars", nil, nil)
	l.Emit("temporal", "element tally", map[string]string{"wood": "0.2", "fire": "0.3"}, nil)
	l.Emit("temporal", "balance", nil, []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8})
	l.GroupEnd("temporal", "pillars done", nil, nil)
	l.Emit("verdict", "combined", map[string]string{"score": "61"}, nil)
	l.GroupEnd("seed", "done", nil, nil)
	return l.Seal()
}

func TestLedger_Deterministic(t *testing.T) {
	a := buildSample(1234)
	b := buildSample(1234)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("identical seeds must produce identical logs")
	}
}

func TestLedger_ChainIntegrity(t *testing.T) {
	events := buildSample(1234)
	if err := Verify(events); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	for i := 1; i < len(events); i++ {
		if events[i].Prev != events[i-1].Hash {
			t.Errorf("event %d: prev != previous hash", i)
		}
	}
}

func TestLedger_GroupDigests(t *testing.T) {
	events := buildSample(5)
	// Matched pairs carry equal non-zero digests.
	type pair struct{ start, end int }
	var stack []int
	var pairs []pair
	for i, e := range events {
		switch e.Kind {
		case KindGroupStart:
			stack = append(stack, i)
		case KindGroupEnd:
			pairs = append(pairs, pair{stack[len(stack)-1], i})
			stack = stack[:len(stack)-1]
		}
	}
	if len(pairs) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(pairs))
	}
	for _, p := range pairs {
		if events[p.start].GroupDigest == 0 {
			t.Errorf("group %d-%d: zero digest", p.start, p.end)
		}
		if events[p.start].GroupDigest != events[p.end].GroupDigest {
			t.Errorf("group %d-%d: digests differ", p.start, p.end)
		}
	}
	// Inner and outer group digests must not collide.
	if pairs[0].start != pairs[1].start && events[pairs[0].start].GroupDigest == events[pairs[1].start].GroupDigest {
		t.Error("distinct groups share a digest")
	}
}

func TestLedger_GroupDigestScope(t *testing.T) {
	// The inner group digest must be a function of only its boundary hashes
	// and the hashes strictly between them.
	events := buildSample(5)
	var start, end int
	for i, e := range events {
		if e.Kind == KindGroupStart && e.Phase == "temporal" {
			start = i
		}
		if e.Kind == KindGroupEnd && e.Phase == "temporal" {
			end = i
		}
	}
	acc := uint32(0)
	for i := start + 1; i < end; i++ {
		acc = fold(acc, events[i].Hash)
	}
	want := fold(fold(events[start].Hash, acc), events[end].Hash)
	if events[start].GroupDigest != want {
		t.Errorf("inner digest = %d, recomputed %d", events[start].GroupDigest, want)
	}
}

func TestLedger_RootDigest(t *testing.T) {
	events := buildSample(77)
	acc := uint32(0)
	for _, e := range events {
		acc = fold(acc, e.Hash)
	}
	if events[0].RootDigest != acc {
		t.Errorf("first root digest = %d, want %d", events[0].RootDigest, acc)
	}
	if events[len(events)-1].RootDigest != acc {
		t.Errorf("last root digest = %d, want %d", events[len(events)-1].RootDigest, acc)
	}
}

func TestLedger_ClockMonotonic(t *testing.T) {
	events := buildSample(31)
	for i := 1; i < len(events); i++ {
		if events[i].T <= events[i-1].T {
			t.Fatalf("clock not monotonic at event %d", i)
		}
	}
}

func TestVerify_RejectsTamper(t *testing.T) {
	events := buildSample(9)

	tampered := make([]Event, len(events))
	copy(tampered, events)
	tampered[2].Message = "altered"
	if Verify(tampered) == nil {
		t.Error("tampered message accepted")
	}

	copy(tampered, events)
	tampered[3].Hash ^= 1
	if Verify(tampered) == nil {
		t.Error("tampered hash accepted")
	}

	copy(tampered, events)
	tampered[0].RootDigest ^= 1
	if Verify(tampered) == nil {
		t.Error("tampered root digest accepted")
	}
}

func TestPayload_SortsDataKeys(t *testing.T) {
	e := Event{Data: map[string]string{"b": "2", "a": "1", "c": "3"}}
	p1 := payload(&e)
	p2 := payload(&e)
	if p1 != p2 {
		t.Error("payload not stable across map iterations")
	}
}

func TestLedger_UnbalancedEndDegrades(t *testing.T) {
	l := NewLedger(mix.New(1))
	l.Emit("seed", "one", nil, nil)
	l.GroupEnd("seed", "stray end", nil, nil) // no open group: degrades to event
	events := l.Seal()
	if err := Verify(events); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if events[1].Kind != KindEvent {
		t.Errorf("stray GroupEnd kind = %s, want event", events[1].Kind)
	}
}
