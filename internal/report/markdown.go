// Package report renders a divination into a markdown note with YAML
// frontmatter, suitable for dropping into a plain-text knowledge vault.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/maelin/cybermancy/internal/dimension"
	"github.com/maelin/cybermancy/internal/engine"
	"github.com/maelin/cybermancy/internal/formula"
	"github.com/maelin/cybermancy/internal/interpret"
	"github.com/maelin/cybermancy/internal/trace"
)

// NoteData holds everything needed to render a divination note.
type NoteData struct {
	Date      string // YYYY-MM-DD
	Question  string
	Nickname  string
	Score     int
	Signature string
	RunID     string

	PillarYear  string
	PillarMonth string
	PillarDay   string
	PillarHour  string
	Elements    [5]float64

	Hexagram     string
	UpperTrigram string
	LowerTrigram string
	ChangingLine int

	FormulaLatex string
	FormulaSteps []string
	Omega        string

	Reading string
	Advice  []string
	Mood    string
	Relayed string // model name when the reading came from the relay

	EventCount int
	Phases     []string
}

// Note renders the full markdown note from NoteData.
func Note(d NoteData) string {
	var b strings.Builder

	// Frontmatter
	b.WriteString("---\n")
	b.WriteString(fmt.Sprintf("date: %s\n", d.Date))
	b.WriteString("type: divination\n")
	b.WriteString(fmt.Sprintf("score: %d\n", d.Score))
	b.WriteString(fmt.Sprintf("signature: \"%s\"\n", d.Signature))
	if d.RunID != "" {
		b.WriteString(fmt.Sprintf("run_id: \"%s\"\n", d.RunID))
	}
	if d.Hexagram != "" {
		b.WriteString(fmt.Sprintf("hexagram: %s\n", d.Hexagram))
		b.WriteString(fmt.Sprintf("changing_line: %d\n", d.ChangingLine))
	}
	if d.Mood != "" {
		b.WriteString(fmt.Sprintf("tags: [cybermancy, %s]\n", d.Mood))
	} else {
		b.WriteString("tags: [cybermancy]\n")
	}
	b.WriteString(fmt.Sprintf("summary: \"%s\"\n", escapeYAML(titleFromQuestion(d.Question))))
	b.WriteString("---\n\n")

	// Title
	b.WriteString(fmt.Sprintf("# %s\n\n", titleFromQuestion(d.Question)))

	// Verdict
	b.WriteString("## Verdict\n\n")
	b.WriteString(fmt.Sprintf("**%d / 100** — %s\n\n", d.Score, scoreBand(d.Score)))
	if d.Reading != "" {
		b.WriteString(fmt.Sprintf("%s\n\n", d.Reading))
	}

	// Hexagram
	if d.Hexagram != "" {
		b.WriteString("## Hexagram\n\n")
		b.WriteString(fmt.Sprintf("**%s** (%s over %s), changing line %d\n\n",
			d.Hexagram, d.UpperTrigram, d.LowerTrigram, d.ChangingLine))
	}

	// Four Pillars
	if d.PillarYear != "" {
		b.WriteString("## Four Pillars\n\n")
		b.WriteString("| Year | Month | Day | Hour |\n")
		b.WriteString("|------|-------|-----|------|\n")
		b.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n\n",
			d.PillarYear, d.PillarMonth, d.PillarDay, d.PillarHour))

		b.WriteString("Element balance: ")
		parts := make([]string, len(dimension.ElementNames))
		for i, name := range dimension.ElementNames {
			parts[i] = fmt.Sprintf("%s %.2f", name, d.Elements[i])
		}
		b.WriteString(strings.Join(parts, ", "))
		b.WriteString("\n\n")
	}

	// Formula
	if d.FormulaLatex != "" {
		b.WriteString("## Formula\n\n")
		b.WriteString(fmt.Sprintf("$$%s$$\n\n", d.FormulaLatex))
		if d.Omega != "" {
			b.WriteString(fmt.Sprintf("$\\Omega = %s$\n\n", d.Omega))
		}
		if len(d.FormulaSteps) > 1 {
			b.WriteString("<details><summary>Reveal steps</summary>\n\n")
			for i, s := range d.FormulaSteps {
				b.WriteString(fmt.Sprintf("%d. $%s$\n", i+1, s))
			}
			b.WriteString("\n</details>\n\n")
		}
	}

	// Advice
	if len(d.Advice) > 0 {
		b.WriteString("## Advice\n\n")
		for _, a := range d.Advice {
			b.WriteString(fmt.Sprintf("- %s\n", a))
		}
		b.WriteString("\n")
	}

	// Trace summary
	if d.EventCount > 0 {
		b.WriteString("## Trace\n\n")
		b.WriteString(fmt.Sprintf("%d events across phases: %s\n\n",
			d.EventCount, strings.Join(d.Phases, ", ")))
	}

	// Footer
	b.WriteString("---\n")
	if d.Relayed != "" {
		b.WriteString(fmt.Sprintf("*cym v0.1.0 | interpreted by %s*\n", d.Relayed))
	} else {
		b.WriteString("*cym v0.1.0*\n")
	}

	return b.String()
}

// FromRun assembles NoteData from a completed divination.
func FromRun(in engine.Input, r engine.Result, events []trace.Event, fd *formula.Data, reading *interpret.Result, relayModel, runID string) NoteData {
	d := NoteData{
		Date:      in.When.Format("2006-01-02"),
		Question:  in.Question,
		Nickname:  in.Nickname,
		Score:     r.Score,
		Signature: r.Signature,
		RunID:     runID,

		PillarYear:  r.Carry.Pillars.Year,
		PillarMonth: r.Carry.Pillars.Month,
		PillarDay:   r.Carry.Pillars.Day,
		PillarHour:  r.Carry.Pillars.Hour,
		Elements:    r.Carry.Elements,

		Hexagram:     r.Carry.Hexagram.Name,
		UpperTrigram: r.Carry.Hexagram.Upper,
		LowerTrigram: r.Carry.Hexagram.Lower,
		ChangingLine: r.Carry.Hexagram.Line,

		EventCount: len(events),
		Phases:     engine.PhaseTerms(events),
	}
	if d.Date == "0001-01-01" {
		d.Date = time.Now().Format("2006-01-02")
	}
	if fd != nil {
		d.FormulaLatex = fd.Latex
		d.FormulaSteps = fd.Steps
		for _, p := range fd.Params {
			if p.Name == "Ω" {
				d.Omega = p.Value
			}
		}
	}
	if reading != nil {
		d.Reading = reading.Reading
		d.Advice = reading.Advice
		d.Mood = reading.Mood
		d.Relayed = relayModel
	}
	return d
}

// Filename returns the note filename: YYYY-MM-DD-<sig8>.md
func Filename(d NoteData) string {
	sig := d.Signature
	if len(sig) > 8 {
		sig = sig[:8]
	}
	return fmt.Sprintf("%s-%s.md", d.Date, sig)
}

func scoreBand(score int) string {
	switch {
	case score >= 85:
		return "greatly auspicious"
	case score >= 65:
		return "auspicious"
	case score >= 45:
		return "neutral"
	case score >= 25:
		return "inauspicious"
	default:
		return "greatly inauspicious"
	}
}

func titleFromQuestion(q string) string {
	q = strings.TrimSpace(q)
	if q == "" {
		return "Divination"
	}
	if idx := strings.IndexByte(q, '\n'); idx > 0 {
		q = q[:idx]
	}
	if len(q) > 80 {
		q = q[:77] + "..."
	}
	return q
}

func escapeYAML(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	return s
}
