package stats

import (
	"strings"
	"testing"
	"time"

	"github.com/maelin/cybermancy/internal/history"
)

func makeRecord(day, nickname, hexagram string, score, line int) history.Record {
	asked, _ := time.Parse("2006-01-02", day)
	return history.Record{
		AskedAt:  asked,
		Nickname: nickname,
		Hexagram: hexagram,
		Score:    score,
		Line:     line,
	}
}

func TestCompute_Empty(t *testing.T) {
	s := Compute(nil, "")
	if s.TotalRuns != 0 || s.MinScore != 0 || s.MaxScore != 0 {
		t.Errorf("empty summary: %+v", s)
	}
}

func TestCompute_Aggregates(t *testing.T) {
	records := []history.Record{
		makeRecord("2025-08-01", "a", "乾为天", 90, 1),
		makeRecord("2025-08-01", "a", "乾为天", 70, 3),
		makeRecord("2025-08-02", "b", "坤为地", 20, 6),
		makeRecord("2025-08-03", "a", "水火既济", 50, 3),
	}

	s := Compute(records, "")
	if s.TotalRuns != 4 {
		t.Fatalf("TotalRuns = %d", s.TotalRuns)
	}
	if s.MinScore != 20 || s.MaxScore != 90 {
		t.Errorf("min/max = %d/%d", s.MinScore, s.MaxScore)
	}
	if s.MeanScore != 57.5 {
		t.Errorf("MeanScore = %v", s.MeanScore)
	}
	if s.Bands[4] != 1 || s.Bands[3] != 1 || s.Bands[2] != 1 || s.Bands[0] != 1 {
		t.Errorf("Bands = %v", s.Bands)
	}
	if s.Lines[2] != 2 || s.Lines[0] != 1 || s.Lines[5] != 1 {
		t.Errorf("Lines = %v", s.Lines)
	}
}

func TestCompute_HexagramBreakdown(t *testing.T) {
	records := []history.Record{
		makeRecord("2025-08-01", "", "乾为天", 80, 1),
		makeRecord("2025-08-02", "", "乾为天", 60, 2),
		makeRecord("2025-08-03", "", "坤为地", 40, 3),
	}

	s := Compute(records, "")
	if len(s.Hexagrams) != 2 {
		t.Fatalf("hexagrams = %d", len(s.Hexagrams))
	}
	// Most frequent first.
	if s.Hexagrams[0].Name != "乾为天" || s.Hexagrams[0].Runs != 2 {
		t.Errorf("top hexagram = %+v", s.Hexagrams[0])
	}
	if s.Hexagrams[0].MeanScore != 70 {
		t.Errorf("top hexagram mean = %v", s.Hexagrams[0].MeanScore)
	}
}

func TestCompute_NicknameFilter(t *testing.T) {
	records := []history.Record{
		makeRecord("2025-08-01", "a", "乾为天", 80, 1),
		makeRecord("2025-08-02", "b", "坤为地", 40, 2),
	}

	s := Compute(records, "a")
	if s.TotalRuns != 1 {
		t.Fatalf("TotalRuns = %d", s.TotalRuns)
	}
	if s.MinScore != 80 || s.MaxScore != 80 {
		t.Errorf("min/max = %d/%d", s.MinScore, s.MaxScore)
	}
}

func TestCompute_DailyRecentFirst(t *testing.T) {
	var records []history.Record
	for i := 1; i <= 20; i++ {
		records = append(records, makeRecord(time.Date(2025, 8, i, 0, 0, 0, 0, time.UTC).Format("2006-01-02"), "", "", 50, 1))
	}

	s := Compute(records, "")
	if len(s.Daily) != 14 {
		t.Fatalf("daily cap = %d", len(s.Daily))
	}
	if s.Daily[0].Date != "2025-08-20" {
		t.Errorf("first day = %q", s.Daily[0].Date)
	}
	for i := 1; i < len(s.Daily); i++ {
		if s.Daily[i].Date > s.Daily[i-1].Date {
			t.Fatal("daily not recent-first")
		}
	}
}

func TestBand(t *testing.T) {
	cases := []struct {
		score int
		want  int
	}{
		{0, 0}, {24, 0}, {25, 1}, {44, 1}, {45, 2}, {64, 2}, {65, 3}, {84, 3}, {85, 4}, {100, 4},
	}
	for _, c := range cases {
		if got := band(c.score); got != c.want {
			t.Errorf("band(%d) = %d, want %d", c.score, got, c.want)
		}
	}
}

func TestFormat_Empty(t *testing.T) {
	out := Format(Summary{}, "")
	if !strings.Contains(out, "No runs archived yet") {
		t.Errorf("empty format: %q", out)
	}
	out = Format(Summary{}, "a")
	if !strings.Contains(out, `No runs found for "a"`) {
		t.Errorf("empty filtered format: %q", out)
	}
}

func TestFormat_Populated(t *testing.T) {
	records := []history.Record{
		makeRecord("2025-08-01", "", "乾为天", 90, 1),
		makeRecord("2025-08-02", "", "坤为地", 30, 4),
	}
	out := Format(Compute(records, ""), "")

	if !strings.Contains(out, "cym stats\n") {
		t.Error("missing header")
	}
	if !strings.Contains(out, "mean score") {
		t.Error("missing mean score")
	}
	if !strings.Contains(out, "Score Distribution") {
		t.Error("missing distribution section")
	}
	if !strings.Contains(out, "乾为天") {
		t.Error("missing hexagram breakdown")
	}
	if !strings.Contains(out, "Recent Days") {
		t.Error("missing daily section")
	}
	if !strings.Contains(out, "█") {
		t.Error("missing bars")
	}
}
