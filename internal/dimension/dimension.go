// Package dimension computes the five dimension scores of a divination:
// temporal, textual, divinatory, numerological and entropic. Each scorer is
// pure given its inputs and its RNG substream, emits one trace group, and
// returns a score in [0,1].
package dimension

import (
	"fmt"
	"math"
	"time"

	"github.com/maelin/cybermancy/internal/almanac"
	"github.com/maelin/cybermancy/internal/mix"
	"github.com/maelin/cybermancy/internal/trace"
)

// Phase labels for the trace log.
const (
	PhaseTemporal   = "temporal"
	PhaseTextual    = "textual"
	PhaseHexagram   = "hexagram"
	PhaseNumerology = "numerology"
	PhaseEntropy    = "entropy"
)

// Phases lists the dimension phases in evaluation order.
var Phases = []string{PhaseTemporal, PhaseTextual, PhaseHexagram, PhaseNumerology, PhaseEntropy}

// Substream tags, one per scorer.
const (
	tagTemporal   uint32 = 0x74656D70
	tagTextual    uint32 = 0x74657874
	tagHexagram   uint32 = 0x68657861
	tagNumerology uint32 = 0x6E756D62
	tagEntropy    uint32 = 0x656E7470
)

// Scores holds the five dimension scores, each in [0,1].
type Scores struct {
	Temporal      float64
	Textual       float64
	Divinatory    float64
	Numerological float64
	Entropic      float64
}

// Hexagram describes the cast composite symbol.
type Hexagram struct {
	Upper string `json:"upper"`
	Lower string `json:"lower"`
	Name  string `json:"name"`
	Line  int    `json:"line"` // changing line, 1..6
}

// Context carries everything the scorers read. All fields are inputs; the
// ledger is the only thing written to.
type Context struct {
	Question     string
	Nickname     string
	When         time.Time
	Entropy      uint32
	Seed         uint32 // effective seed
	QuestionHash uint32
	Calendar     almanac.Calendar
	Ledger       *trace.Ledger
}

// Outcome bundles the scores with the carry data surfaced to the caller.
type Outcome struct {
	Scores   Scores
	Pillars  almanac.Pillars
	Elements [5]float64
	Hexagram Hexagram
}

// Evaluate runs the five scorers in fixed order.
func Evaluate(ctx *Context) Outcome {
	var out Outcome
	out.Scores.Temporal, out.Pillars, out.Elements = temporal(ctx, mix.Stream(ctx.Seed, tagTemporal, 1))
	out.Scores.Textual = textual(ctx, mix.Stream(ctx.Seed, tagTextual, 2))
	out.Scores.Divinatory, out.Hexagram = divinatory(ctx, mix.Stream(ctx.Seed, tagHexagram, 3))
	out.Scores.Numerological = numerological(ctx, mix.Stream(ctx.Seed, tagNumerology, 4))
	out.Scores.Entropic = entropic(ctx, mix.Stream(ctx.Seed, tagEntropy, 5))
	return out
}

// temporal scores the element balance of the four pillars.
func temporal(ctx *Context, rng *mix.RNG) (float64, almanac.Pillars, [5]float64) {
	l := ctx.Ledger
	pillars := ctx.Calendar.Pillars(ctx.When)
	l.GroupStart(PhaseTemporal, "four pillars cast", map[string]string{
		"year": pillars.Year, "month": pillars.Month, "day": pillars.Day, "hour": pillars.Hour,
	}, nil)

	var tally [5]float64
	total := 0.0
	for _, p := range []string{pillars.Year, pillars.Month, pillars.Day, pillars.Hour} {
		runes := []rune(p)
		if len(runes) != 2 {
			continue
		}
		if e, ok := stemElements[runes[0]]; ok {
			tally[e] += stemWeight
			total += stemWeight
		}
		if e, ok := branchElements[runes[1]]; ok {
			tally[e] += branchWeight
			total += branchWeight
		}
	}
	if total > 0 {
		for i := range tally {
			tally[i] /= total
		}
	}
	l.Emit(PhaseTemporal, "element distribution", elementData(tally), nil)

	deviation := 0.0
	flow := 0.0
	for i, v := range tally {
		deviation += math.Abs(v - 0.2)
		flow += v * flowWeights[i]
	}
	balance := 1 - deviation/2
	score := clamp01(0.65*balance + 0.35*flow + (rng.Float64()-0.5)*0.02)

	l.GroupEnd(PhaseTemporal, "temporal settled", map[string]string{
		"balance": f4(balance), "flow": f4(flow), "score": f4(score),
	}, nil)
	return score, pillars, tally
}

// textual scores the question text itself: stroke density, focus, omen.
func textual(ctx *Context, rng *mix.RNG) float64 {
	l := ctx.Ledger
	l.GroupStart(PhaseTextual, "reading the question", map[string]string{
		"length": fmt.Sprintf("%d", len([]rune(ctx.Question))),
	}, nil)

	var chaos uint32
	strokes := 0
	unicodeSum := 0
	count := 0
	for _, r := range ctx.Question {
		chaos = chaos*31 + uint32(r)
		strokes += 5 + int(mix.HashString(string(r))%23) // pseudo stroke count 5..27
		unicodeSum += int(r)
		count++
	}
	l.Emit(PhaseTextual, "chaos accumulated", map[string]string{
		"chaos": fmt.Sprintf("%d", chaos), "strokes": fmt.Sprintf("%d", strokes),
	}, nil)

	density := 0.0
	if count > 0 {
		density = float64(strokes) / float64(count*27)
	}
	focusMod := unicodeSum % 97
	focus := 1 - math.Abs(float64(focusMod)-48)/48
	omen := float64((chaos>>8)&0xFFFF) / 65535

	score := clamp01(0.40*density + 0.35*focus + 0.25*omen + (rng.Float64()-0.5)*0.02)
	l.GroupEnd(PhaseTextual, "textual settled", map[string]string{
		"density": f4(density), "focus": f4(focus), "omen": f4(omen), "score": f4(score),
	}, nil)
	return score
}

// divinatory casts a hexagram from seed/question/entropy mixing.
func divinatory(ctx *Context, rng *mix.RNG) (float64, Hexagram) {
	l := ctx.Ledger
	upper := 1 + int(mix.Mix(ctx.Seed, ctx.QuestionHash)%8)
	lower := 1 + int(mix.Mix(ctx.QuestionHash, ctx.Entropy)%8)
	line := 1 + rng.IntN(6)

	hex := Hexagram{
		Upper: TrigramNames[upper-1],
		Lower: TrigramNames[lower-1],
		Name:  hexagramNames[(upper-1)*8+(lower-1)],
		Line:  line,
	}

	l.GroupStart(PhaseHexagram, "casting trigrams", map[string]string{
		"upper": hex.Upper, "lower": hex.Lower,
	}, nil)
	l.Emit(PhaseHexagram, "hexagram named", map[string]string{
		"name": hex.Name, "line": fmt.Sprintf("%d", line),
	}, nil)

	agitation := 1 - math.Abs(float64(line)-3.5)/3.5
	harmony := harmonyNeutral
	switch {
	case favorableHexagrams[hex.Name]:
		harmony = harmonyFavorable
	case unfavorableHexagrams[hex.Name]:
		harmony = harmonyUnfavorable
	}
	score := clamp01(0.45*agitation + 0.55*harmony)

	l.GroupEnd(PhaseHexagram, "hexagram settled", map[string]string{
		"agitation": f4(agitation), "harmony": f4(harmony), "score": f4(score),
	}, nil)
	return score, hex
}

// numerological reduces date and text hashes to digital roots and scores
// them through the fixed tables.
func numerological(ctx *Context, rng *mix.RNG) float64 {
	l := ctx.Ledger
	y, m, d := ctx.When.Date()
	r1 := digitalRoot(uint64(y) + uint64(m) + uint64(d))
	r2 := digitalRoot(uint64(ctx.QuestionHash) + uint64(mix.HashString(ctx.Nickname)))
	r3 := digitalRoot(uint64(7*r1 + 3*r2))

	l.GroupStart(PhaseNumerology, "reducing to roots", map[string]string{
		"r1": fmt.Sprintf("%d", r1), "r2": fmt.Sprintf("%d", r2), "r3": fmt.Sprintf("%d", r3),
	}, nil)

	score := clamp01(0.40*lifePathTable[r1] + 0.35*questionTable[r2] + 0.25*bridgeTable[r3] + (rng.Float64()-0.5)*0.02)
	l.GroupEnd(PhaseNumerology, "numerology settled", map[string]string{"score": f4(score)}, nil)
	return score
}

// entropic peaks when the caller-supplied entropy sits at the exact midpoint
// and decays toward the extremes.
func entropic(ctx *Context, rng *mix.RNG) float64 {
	l := ctx.Ledger
	x := float64(ctx.Entropy) / float64(0xFFFFFFFF)
	score := 0.35 + 0.65*(1-2*math.Abs(x-0.5))

	l.GroupStart(PhaseEntropy, "folding entropy", map[string]string{"x": f4(x)}, nil)
	l.Emit(PhaseEntropy, "ambient noise", map[string]string{"noise": f4(rng.Float64())}, nil)
	l.GroupEnd(PhaseEntropy, "entropy settled", map[string]string{"score": f4(score)}, nil)
	return clamp01(score)
}

// digitalRoot repeatedly sums decimal digits down to one digit.
func digitalRoot(n uint64) int {
	for n > 9 {
		s := uint64(0)
		for n > 0 {
			s += n % 10
			n /= 10
		}
		n = s
	}
	return int(n)
}

func elementData(dist [5]float64) map[string]string {
	data := make(map[string]string, 5)
	for i, name := range ElementNames {
		data[name] = f4(dist[i])
	}
	return data
}

func f4(v float64) string {
	return fmt.Sprintf("%.4f", v)
}

func clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
