package stats

import (
	"fmt"
	"strings"
)

// Format renders a Summary as aligned terminal output.
func Format(s Summary, nickname string) string {
	if s.TotalRuns == 0 {
		if nickname != "" {
			return fmt.Sprintf("cym stats --nickname %s\n\n  No runs found for %q.\n", nickname, nickname)
		}
		return "cym stats\n\n  No runs archived yet. Run `cym divine` first.\n"
	}

	var b strings.Builder

	if nickname != "" {
		fmt.Fprintf(&b, "cym stats --nickname %s\n", nickname)
	} else {
		b.WriteString("cym stats\n")
	}

	// Overview
	b.WriteString("\nOverview\n")
	fmt.Fprintf(&b, "  %-16s %d\n", "runs", s.TotalRuns)
	fmt.Fprintf(&b, "  %-16s %.1f\n", "mean score", s.MeanScore)
	fmt.Fprintf(&b, "  %-16s %d / %d\n", "min / max", s.MinScore, s.MaxScore)

	// Score distribution
	b.WriteString("\nScore Distribution\n")
	for i, name := range bandNames {
		fmt.Fprintf(&b, "  %-8s %4d  %s\n", name, s.Bands[i], bar(s.Bands[i], s.TotalRuns))
	}

	// Hexagrams
	if len(s.Hexagrams) > 0 {
		b.WriteString("\nHexagrams\n")
		limit := 10
		if len(s.Hexagrams) < limit {
			limit = len(s.Hexagrams)
		}
		for _, h := range s.Hexagrams[:limit] {
			fmt.Fprintf(&b, "  %-16s %3d runs   mean %.1f\n", h.Name, h.Runs, h.MeanScore)
		}
		if len(s.Hexagrams) > 10 {
			fmt.Fprintf(&b, "  ... and %d more\n", len(s.Hexagrams)-10)
		}
	}

	// Changing lines
	b.WriteString("\nChanging Lines\n")
	for i, n := range s.Lines {
		fmt.Fprintf(&b, "  line %d  %4d  %s\n", i+1, n, bar(n, s.TotalRuns))
	}

	// Daily trend
	if len(s.Daily) > 0 {
		b.WriteString("\nRecent Days\n")
		for _, d := range s.Daily {
			fmt.Fprintf(&b, "  %-12s %3d runs\n", d.Date, d.Runs)
		}
	}

	return b.String()
}

// bar renders a proportional block bar up to 20 cells wide.
func bar(n, total int) string {
	if total <= 0 || n <= 0 {
		return ""
	}
	w := n * 20 / total
	if w == 0 {
		w = 1
	}
	return strings.Repeat("█", w)
}
