// Package engine wires the dimension scorers, the factor cascade and the
// score combiner into the public divination entry point. The whole path is
// synchronous and pure: every output is a function of the entry arguments,
// so concurrent invocations need no locking.
package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/maelin/cybermancy/internal/almanac"
	"github.com/maelin/cybermancy/internal/dimension"
	"github.com/maelin/cybermancy/internal/factor"
	"github.com/maelin/cybermancy/internal/formula"
	"github.com/maelin/cybermancy/internal/mix"
	"github.com/maelin/cybermancy/internal/model"
	"github.com/maelin/cybermancy/internal/score"
	"github.com/maelin/cybermancy/internal/trace"
)

// Trace phases owned by the engine itself.
const (
	PhaseSeed    = "seed"
	PhaseVerdict = "verdict"
)

// Substream tags. Trace jitter and radiation draw from their own streams so
// they never perturb the scoring streams.
const (
	tagTrace     uint32 = 0x74726163
	tagJitter    uint32 = 0x6A697474
	tagRadiation uint32 = 0x72616469
)

// Input is the caller's question.
type Input struct {
	Question string
	When     time.Time
	Nickname string
}

// Observation is the caller-supplied ambient fingerprint: a hash plus up to
// eight floats in [0,1] from non-deterministic signals.
type Observation struct {
	Hash     uint32
	FP8      []float64
	Enhanced bool
}

// Extras bundles the optional collaborators.
type Extras struct {
	Obs   *Observation
	Model *model.Model
}

// Carry is the symbolic state surfaced alongside the score.
type Carry struct {
	Seed     uint32             `json:"seed"`
	Pillars  almanac.Pillars    `json:"pillars"`
	Elements [5]float64         `json:"elements"`
	Hexagram dimension.Hexagram `json:"hexagram"`
}

// Result is the divination verdict.
type Result struct {
	Score     int    `json:"score"` // [0,100]
	Signature string `json:"signature"`
	Carry     Carry  `json:"carry"`
}

// DivineWithTrace runs a full divination. weights, extras and cal may be nil;
// defaults are resolved here, before the core, so the computation itself
// never branches on missing configuration.
func DivineWithTrace(in Input, entropy uint32, weights *score.Weights, extras *Extras, cal almanac.Calendar) (Result, []trace.Event) {
	if cal == nil {
		cal = almanac.Sexagenary{}
	}
	w := score.DefaultWeights()
	if weights != nil {
		w = *weights
	}
	m := model.New(0)
	var obs Observation
	if extras != nil {
		if extras.Model != nil {
			m = extras.Model
		}
		if extras.Obs != nil {
			obs = *extras.Obs
		}
	}

	qhash := mix.HashString(in.Question)
	unix := uint64(in.When.Unix())
	timeSeed := mix.Mix(uint32(unix), uint32(unix>>32))
	rootSeed := mix.MixSeed(qhash, timeSeed, entropy)
	effSeed := mix.MixSeed(rootSeed, mix.Mix(m.Salt, m.RunCount), mix.Mix(m.ThetaHash(), obs.Hash))

	ledger := trace.NewLedger(mix.Stream(effSeed, tagTrace, tagJitter))
	radiation := mix.Stream(effSeed, tagRadiation, 0xBADC0DE).Float64()

	ledger.GroupStart(PhaseSeed, "divination opened", map[string]string{
		"entropy": fmt.Sprintf("%d", entropy),
		"runs":    fmt.Sprintf("%d", m.RunCount),
	}, nil)
	ledger.Emit(PhaseSeed, "seeds derived", map[string]string{
		"root":      fmt.Sprintf("%08x", rootSeed),
		"effective": fmt.Sprintf("%08x", effSeed),
		"radiation": fmt.Sprintf("%.4f", radiation),
	}, nil)

	dims := dimension.Evaluate(&dimension.Context{
		Question:     in.Question,
		Nickname:     in.Nickname,
		When:         in.When,
		Entropy:      entropy,
		Seed:         effSeed,
		QuestionHash: qhash,
		Calendar:     cal,
		Ledger:       ledger,
	})

	factors := (&factor.Engine{
		Seed:         effSeed,
		QuestionHash: qhash,
		TimeSeed:     timeSeed,
		Entropy:      entropy,
		Radiation:    radiation,
		Obs:          obs.FP8,
		Ledger:       ledger,
	}).Run()

	combined := score.Combine(score.Inputs{
		Scores:      dims.Scores,
		FactorScore: factors.Score,
		Radiation:   radiation,
		ObsTerm:     obsTerm(obs),
		Theta:       m.Theta,
	}, w, ledger.Jitter())

	ledger.Emit(PhaseVerdict, "score combined", map[string]string{
		"score": fmt.Sprintf("%d", combined.Score100),
		"gate":  fmt.Sprintf("%.4f", combined.Gate),
		"base":  fmt.Sprintf("%.4f", combined.Base),
	}, nil)
	ledger.GroupEnd(PhaseSeed, "divination sealed", map[string]string{
		"factor_sig": fmt.Sprintf("%08x", factors.Signature),
	}, nil)

	events := ledger.Seal()
	sig := fmt.Sprintf("%08x%08x", events[0].RootDigest, factors.Signature)

	return Result{
		Score:     combined.Score100,
		Signature: sig,
		Carry: Carry{
			Seed:     effSeed,
			Pillars:  dims.Pillars,
			Elements: dims.Elements,
			Hexagram: dims.Hexagram,
		},
	}, events
}

// BuildFormula synthesizes the presentation formula. It is seeded separately
// from the trace path; the two meet only at the caller.
func BuildFormula(seed uint32, phaseTerms []string, pol formula.Policy) formula.Data {
	return formula.Build(seed, phaseTerms, pol)
}

// FormulaSeed derives the synthesis seed from a result and the model, per
// the contract that the formula path is decoupled from the trace path.
func FormulaSeed(r Result, m *model.Model) uint32 {
	return mix.MixSeed(r.Carry.Seed, m.ThetaHash(), uint32(r.Score))
}

// PhaseTerms returns the distinct trace phases in first-appearance order,
// used as the formula's phase-factor leaves.
func PhaseTerms(events []trace.Event) []string {
	seen := map[string]bool{}
	var terms []string
	for _, e := range events {
		if !seen[e.Phase] {
			seen[e.Phase] = true
			terms = append(terms, e.Phase)
		}
	}
	return terms
}

// obsTerm compresses the observation fingerprint into the combiner's small
// observation term.
func obsTerm(obs Observation) float64 {
	if len(obs.FP8) == 0 {
		return 0
	}
	s := 0.0
	for _, v := range obs.FP8 {
		if !math.IsNaN(v) {
			s += v
		}
	}
	t := s / float64(len(obs.FP8))
	if obs.Enhanced {
		t += 0.1
	}
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
