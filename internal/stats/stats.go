// Package stats computes aggregate metrics over the run archive.
package stats

import (
	"sort"
	"strings"

	"github.com/maelin/cybermancy/internal/history"
)

// Band edges of the score distribution, matching the verdict bands.
var bandNames = []string{"0-24", "25-44", "45-64", "65-84", "85-100"}

// Summary holds aggregate metrics computed from archived runs.
type Summary struct {
	TotalRuns int
	MeanScore float64
	MinScore  int
	MaxScore  int

	Bands     [5]int // score distribution over bandNames
	Hexagrams []HexagramStats
	Lines     [6]int // changing-line distribution, index = line-1
	Daily     []DayStats
}

// HexagramStats holds per-hexagram counts.
type HexagramStats struct {
	Name      string
	Runs      int
	MeanScore float64
}

// DayStats holds per-day run counts.
type DayStats struct {
	Date string // YYYY-MM-DD
	Runs int
}

// Compute builds a Summary from archived runs, optionally filtered by
// nickname.
func Compute(records []history.Record, nickname string) Summary {
	var s Summary
	s.MinScore = 101

	hexMap := make(map[string]*HexagramStats)
	dayMap := make(map[string]int)
	scoreSum := 0

	for _, r := range records {
		if nickname != "" && r.Nickname != nickname {
			continue
		}

		s.TotalRuns++
		scoreSum += r.Score
		if r.Score < s.MinScore {
			s.MinScore = r.Score
		}
		if r.Score > s.MaxScore {
			s.MaxScore = r.Score
		}
		s.Bands[band(r.Score)]++

		if r.Hexagram != "" {
			hs, ok := hexMap[r.Hexagram]
			if !ok {
				hs = &HexagramStats{Name: r.Hexagram}
				hexMap[r.Hexagram] = hs
			}
			hs.Runs++
			hs.MeanScore += float64(r.Score)
		}
		if r.Line >= 1 && r.Line <= 6 {
			s.Lines[r.Line-1]++
		}

		dayMap[r.AskedAt.Format("2006-01-02")]++
	}

	if s.TotalRuns == 0 {
		s.MinScore = 0
		return s
	}
	s.MeanScore = float64(scoreSum) / float64(s.TotalRuns)

	for _, hs := range hexMap {
		hs.MeanScore /= float64(hs.Runs)
		s.Hexagrams = append(s.Hexagrams, *hs)
	}
	sort.Slice(s.Hexagrams, func(i, j int) bool {
		if s.Hexagrams[i].Runs != s.Hexagrams[j].Runs {
			return s.Hexagrams[i].Runs > s.Hexagrams[j].Runs
		}
		return strings.Compare(s.Hexagrams[i].Name, s.Hexagrams[j].Name) < 0
	})

	for date, runs := range dayMap {
		s.Daily = append(s.Daily, DayStats{Date: date, Runs: runs})
	}
	// Recent-first, cap at 14 days.
	sort.Slice(s.Daily, func(i, j int) bool {
		return s.Daily[i].Date > s.Daily[j].Date
	})
	if len(s.Daily) > 14 {
		s.Daily = s.Daily[:14]
	}

	return s
}

func band(score int) int {
	switch {
	case score >= 85:
		return 4
	case score >= 65:
		return 3
	case score >= 45:
		return 2
	case score >= 25:
		return 1
	default:
		return 0
	}
}
