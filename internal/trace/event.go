package trace

import (
	"fmt"
	"sort"
	"strings"

	"github.com/maelin/cybermancy/internal/mix"
)

// Kind distinguishes plain events from group boundaries.
type Kind string

const (
	KindEvent      Kind = "event"
	KindGroupStart Kind = "group_start"
	KindGroupEnd   Kind = "group_end"
)

// Event is one entry in the hash-chained computation log.
// This is the stable public type — it is what gets persisted, replayed and
// forwarded to the interpretation relay.
type Event struct {
	Seq     int               `json:"seq"`
	T       int64             `json:"t"` // logical clock, monotonically increasing
	Depth   int               `json:"depth"`
	Kind    Kind              `json:"kind"`
	Phase   string            `json:"phase"`
	Message string            `json:"message"`
	Data    map[string]string `json:"data,omitempty"`
	FP      []float64         `json:"fp,omitempty"` // fingerprint, length 8 when present

	Prev uint32 `json:"prev"`
	Hash uint32 `json:"hash"`

	// GroupDigest is set on matched group_start/group_end pairs.
	// RootDigest is set on the first and last event after Seal.
	GroupDigest uint32 `json:"group_digest,omitempty"`
	RootDigest  uint32 `json:"root_digest,omitempty"`
}

// payload builds the canonical string the event hash is computed over.
// It depends only on the event's own fields, never on later events, so any
// event hash can be re-derived in isolation.
func payload(e *Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d|%d|%d|%s|%s|%s|", e.Prev, e.T, e.Depth, e.Kind, e.Phase, e.Message)
	if len(e.Data) > 0 {
		keys := make([]string, 0, len(e.Data))
		for k := range e.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(';')
			}
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(e.Data[k])
		}
	}
	b.WriteByte('|')
	for i, v := range e.FP {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%.4f", v)
	}
	return b.String()
}

// hashEvent computes the chained hash for e (Prev must already be set).
func hashEvent(e *Event) uint32 {
	return mix.HashString(payload(e))
}

// fold accumulates h into acc. Accumulators start at zero.
func fold(acc, h uint32) uint32 {
	return mix.Mix(acc, h)
}
