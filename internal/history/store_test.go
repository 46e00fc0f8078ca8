package history

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/maelin/cybermancy/internal/engine"
)

func testStore(t *testing.T, compress bool) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"), compress)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndGet(t *testing.T) {
	for _, compress := range []bool{true, false} {
		s := testStore(t, compress)
		in := engine.Input{Question: "will it rain", When: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
		r, events := engine.DivineWithTrace(in, 77, nil, nil, nil)

		id, err := s.Save(in, r, events)
		if err != nil {
			t.Fatalf("compress=%t Save: %v", compress, err)
		}

		rec, err := s.Get(id)
		if err != nil {
			t.Fatalf("compress=%t Get: %v", compress, err)
		}
		if rec.Question != in.Question {
			t.Errorf("question = %q", rec.Question)
		}
		if rec.Score != r.Score {
			t.Errorf("score = %d, want %d", rec.Score, r.Score)
		}
		if rec.Signature != r.Signature {
			t.Errorf("signature = %q", rec.Signature)
		}
		if rec.Hexagram != r.Carry.Hexagram.Name {
			t.Errorf("hexagram = %q", rec.Hexagram)
		}
		if len(rec.Events) != len(events) {
			t.Errorf("events = %d, want %d", len(rec.Events), len(events))
		}
	}
}

func TestGet_RejectsTamperedTrace(t *testing.T) {
	s := testStore(t, false)
	in := engine.Input{Question: "q", When: time.Now()}
	r, events := engine.DivineWithTrace(in, 1, nil, nil, nil)
	id, err := s.Save(in, r, events)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Flip a stored message directly; the chain hash no longer matches.
	events[2].Message = "altered"
	raw, _ := json.Marshal(events)
	if _, err := s.db.Exec(`UPDATE runs SET trace_zst = ? WHERE run_id = ?`, raw, id); err != nil {
		t.Fatalf("tamper: %v", err)
	}

	if _, err := s.Get(id); err == nil {
		t.Fatal("tampered trace accepted")
	}
}

func TestList_NewestFirst(t *testing.T) {
	s := testStore(t, true)
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		in := engine.Input{Question: "q", When: base.Add(time.Duration(i) * time.Hour)}
		r, events := engine.DivineWithTrace(in, uint32(i), nil, nil, nil)
		if _, err := s.Save(in, r, events); err != nil {
			t.Fatalf("Save %d: %v", i, err)
		}
	}

	recs, err := s.List(10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("len = %d", len(recs))
	}
	for i := 1; i < len(recs); i++ {
		if recs[i].AskedAt.After(recs[i-1].AskedAt) {
			t.Error("list not newest-first")
		}
	}
	for _, rec := range recs {
		if len(rec.Events) != 0 {
			t.Error("List should not load trace blobs")
		}
	}
}

func TestPrune(t *testing.T) {
	s := testStore(t, true)
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		in := engine.Input{Question: "q", When: base.Add(time.Duration(i) * time.Minute)}
		r, events := engine.DivineWithTrace(in, uint32(i), nil, nil, nil)
		if _, err := s.Save(in, r, events); err != nil {
			t.Fatalf("Save %d: %v", i, err)
		}
	}

	n, err := s.Prune(2)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if n != 3 {
		t.Errorf("pruned %d, want 3", n)
	}

	recs, err := s.List(10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("len = %d after prune", len(recs))
	}
	// The survivors are the newest two.
	if !recs[0].AskedAt.After(recs[1].AskedAt) {
		t.Error("prune kept the wrong runs")
	}

	if n, err := s.Prune(0); err != nil || n != 0 {
		t.Errorf("Prune(0) = %d, %v; want no-op", n, err)
	}
}

func TestExport(t *testing.T) {
	s := testStore(t, true)
	in := engine.Input{Question: "export me", When: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	r, events := engine.DivineWithTrace(in, 3, nil, nil, nil)
	if _, err := s.Save(in, r, events); err != nil {
		t.Fatalf("Save: %v", err)
	}

	var buf bytes.Buffer
	if err := s.Export(&buf); err != nil {
		t.Fatalf("Export: %v", err)
	}

	dec, err := zstd.NewReader(&buf)
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}
	defer dec.Close()

	var row exportRow
	if err := json.NewDecoder(dec).Decode(&row); err != nil {
		t.Fatalf("decode export line: %v", err)
	}
	if row.Question != "export me" {
		t.Errorf("question = %q", row.Question)
	}
	if len(row.Events) != len(events) {
		t.Errorf("events = %d, want %d", len(row.Events), len(events))
	}
	if !strings.Contains(row.AskedAt, "2025-06-01") {
		t.Errorf("asked_at = %q", row.AskedAt)
	}
}
