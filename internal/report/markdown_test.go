package report

import (
	"strings"
	"testing"
	"time"

	"github.com/maelin/cybermancy/internal/engine"
	"github.com/maelin/cybermancy/internal/formula"
	"github.com/maelin/cybermancy/internal/interpret"
)

func sampleRun(t *testing.T) (engine.Input, engine.Result, NoteData) {
	t.Helper()
	in := engine.Input{
		Question: "should I ship on friday",
		When:     time.Date(2025, 7, 4, 10, 0, 0, 0, time.UTC),
	}
	r, events := engine.DivineWithTrace(in, 11, nil, nil, nil)
	fd := formula.Build(42, engine.PhaseTerms(events), formula.DefaultPolicy())
	d := FromRun(in, r, events, &fd, nil, "", "run-123")
	return in, r, d
}

func TestNote_Frontmatter(t *testing.T) {
	_, r, d := sampleRun(t)
	note := Note(d)

	if !strings.HasPrefix(note, "---\n") {
		t.Fatal("note missing frontmatter")
	}
	if !strings.Contains(note, "date: 2025-07-04\n") {
		t.Error("missing date")
	}
	if !strings.Contains(note, "type: divination\n") {
		t.Error("missing type")
	}
	if !strings.Contains(note, "run_id: \"run-123\"\n") {
		t.Error("missing run id")
	}
	if !strings.Contains(note, "signature: \""+r.Signature+"\"") {
		t.Error("missing signature")
	}
	if !strings.Contains(note, "tags: [cybermancy]\n") {
		t.Error("missing default tags")
	}
}

func TestNote_Sections(t *testing.T) {
	_, r, d := sampleRun(t)
	note := Note(d)

	if !strings.Contains(note, "# should I ship on friday\n") {
		t.Error("missing title")
	}
	if !strings.Contains(note, "## Verdict\n") {
		t.Error("missing verdict section")
	}
	if !strings.Contains(note, "## Hexagram\n") || !strings.Contains(note, r.Carry.Hexagram.Name) {
		t.Error("missing hexagram section")
	}
	if !strings.Contains(note, "## Four Pillars\n") || !strings.Contains(note, r.Carry.Pillars.Year) {
		t.Error("missing pillars section")
	}
	if !strings.Contains(note, "## Formula\n") || !strings.Contains(note, "$$") {
		t.Error("missing formula section")
	}
	if !strings.Contains(note, "## Trace\n") {
		t.Error("missing trace section")
	}
	if !strings.Contains(note, "*cym v0.1.0*\n") {
		t.Error("missing footer")
	}
}

func TestNote_WithReading(t *testing.T) {
	_, _, d := sampleRun(t)
	d.Reading = "A steady omen for shipping."
	d.Advice = []string{"Cut the risky migration"}
	d.Mood = "steady"
	d.Relayed = "test-model"

	note := Note(d)
	if !strings.Contains(note, "A steady omen for shipping.") {
		t.Error("missing reading")
	}
	if !strings.Contains(note, "## Advice\n") || !strings.Contains(note, "- Cut the risky migration\n") {
		t.Error("missing advice section")
	}
	if !strings.Contains(note, "tags: [cybermancy, steady]\n") {
		t.Error("mood not in tags")
	}
	if !strings.Contains(note, "interpreted by test-model") {
		t.Error("missing relay footer")
	}
}

func TestFromRun_Omega(t *testing.T) {
	_, _, d := sampleRun(t)
	if d.Omega == "" {
		t.Error("omega not extracted from formula params")
	}
	if d.FormulaLatex == "" || len(d.FormulaSteps) == 0 {
		t.Error("formula not carried into note data")
	}
	if d.EventCount == 0 || len(d.Phases) == 0 {
		t.Error("trace summary not carried into note data")
	}
}

func TestFromRun_NilExtras(t *testing.T) {
	in := engine.Input{Question: "q", When: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	r, events := engine.DivineWithTrace(in, 1, nil, nil, nil)
	d := FromRun(in, r, events, nil, nil, "", "")
	note := Note(d)
	if strings.Contains(note, "## Formula\n") {
		t.Error("formula section rendered without formula data")
	}
	if strings.Contains(note, "## Advice\n") {
		t.Error("advice section rendered without reading")
	}
	if strings.Contains(note, "run_id") {
		t.Error("run id rendered when empty")
	}
}

func TestFromRun_WithReadingStruct(t *testing.T) {
	in := engine.Input{Question: "q", When: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	r, events := engine.DivineWithTrace(in, 1, nil, nil, nil)
	reading := &interpret.Result{Reading: "calm waters", Mood: "steady"}
	d := FromRun(in, r, events, nil, reading, "relay-model", "")
	if d.Reading != "calm waters" || d.Mood != "steady" || d.Relayed != "relay-model" {
		t.Errorf("reading not carried: %+v", d)
	}
}

func TestFilename(t *testing.T) {
	d := NoteData{Date: "2025-07-04", Signature: "deadbeefcafebabe"}
	if got := Filename(d); got != "2025-07-04-deadbeef.md" {
		t.Errorf("Filename = %q", got)
	}
	short := NoteData{Date: "2025-07-04", Signature: "abc"}
	if got := Filename(short); got != "2025-07-04-abc.md" {
		t.Errorf("Filename short = %q", got)
	}
}

func TestScoreBand(t *testing.T) {
	cases := []struct {
		score int
		want  string
	}{
		{100, "greatly auspicious"},
		{85, "greatly auspicious"},
		{70, "auspicious"},
		{50, "neutral"},
		{30, "inauspicious"},
		{0, "greatly inauspicious"},
	}
	for _, c := range cases {
		if got := scoreBand(c.score); got != c.want {
			t.Errorf("scoreBand(%d) = %q, want %q", c.score, got, c.want)
		}
	}
}

func TestTitleFromQuestion(t *testing.T) {
	if got := titleFromQuestion(""); got != "Divination" {
		t.Errorf("empty question title = %q", got)
	}
	if got := titleFromQuestion("first line\nsecond line"); got != "first line" {
		t.Errorf("multiline title = %q", got)
	}
	long := strings.Repeat("a", 100)
	if got := titleFromQuestion(long); len(got) != 80 || !strings.HasSuffix(got, "...") {
		t.Errorf("long title = %q", got)
	}
}
