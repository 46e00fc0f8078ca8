package trace

import "fmt"

// Verify recomputes the hash chain, group digests and root digest of a
// sealed log, returning the first discrepancy found. It is used by tests,
// `cym check`, and whenever a stored trace is replayed.
func Verify(events []Event) error {
	if len(events) == 0 {
		return nil
	}

	var (
		root  uint32
		prev  uint32
		stack []frame
	)
	for i := range events {
		e := events[i]
		if e.Seq != i {
			return fmt.Errorf("event %d: seq = %d", i, e.Seq)
		}
		if e.Prev != prev {
			return fmt.Errorf("event %d: prev = %d, chain expects %d", i, e.Prev, prev)
		}
		if h := hashEvent(&e); h != e.Hash {
			return fmt.Errorf("event %d: hash = %d, recomputed %d", i, e.Hash, h)
		}
		if i > 0 && e.T <= events[i-1].T {
			return fmt.Errorf("event %d: clock not monotonic (%d after %d)", i, e.T, events[i-1].T)
		}

		switch e.Kind {
		case KindGroupEnd:
			if len(stack) == 0 {
				return fmt.Errorf("event %d: group_end without open group", i)
			}
			fr := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			start := events[fr.startIdx]
			digest := fold(fold(start.Hash, fr.acc), e.Hash)
			if start.GroupDigest != digest || e.GroupDigest != digest {
				return fmt.Errorf("event %d: group digest mismatch", i)
			}
		}

		prev = e.Hash
		root = fold(root, e.Hash)
		for j := range stack {
			stack[j].acc = fold(stack[j].acc, e.Hash)
		}
		if e.Kind == KindGroupStart {
			stack = append(stack, frame{startIdx: i, depth: e.Depth})
		}
	}
	if len(stack) != 0 {
		return fmt.Errorf("%d groups left open", len(stack))
	}
	if events[0].RootDigest != root {
		return fmt.Errorf("root digest on first event = %d, recomputed %d", events[0].RootDigest, root)
	}
	if events[len(events)-1].RootDigest != root {
		return fmt.Errorf("root digest on last event = %d, recomputed %d", events[len(events)-1].RootDigest, root)
	}
	return nil
}
