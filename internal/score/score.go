// Package score folds the five dimension scores and the aggregate factor
// score into the display score in [0,100].
package score

import (
	"math"

	"github.com/maelin/cybermancy/internal/dimension"
	"github.com/maelin/cybermancy/internal/mix"
	"github.com/maelin/cybermancy/internal/model"
)

// Weights names the base weight of each dimension. They need not sum to 1;
// Effective renormalizes after the model perturbation.
type Weights struct {
	Temporal      float64 `toml:"temporal"`
	Textual       float64 `toml:"textual"`
	Divinatory    float64 `toml:"divinatory"`
	Numerological float64 `toml:"numerological"`
	Entropic      float64 `toml:"entropic"`
}

// DefaultWeights is the base configuration before model adaptation.
func DefaultWeights() Weights {
	return Weights{
		Temporal:      0.22,
		Textual:       0.18,
		Divinatory:    0.26,
		Numerological: 0.14,
		Entropic:      0.20,
	}
}

// modelDims designates which theta dimension perturbs each weight.
var modelDims = [5]int{0, 3, 6, 9, 12}

// perturbScale bounds the model's pull on each base weight to ±4%.
const perturbScale = 0.08

// Inputs carries everything the combiner reads.
type Inputs struct {
	Scores      dimension.Scores
	FactorScore float64
	Radiation   float64
	ObsTerm     float64 // small observation-derived term, [0,1]
	Theta       [model.ThetaLen]float64
}

// Result reports the combined score and its intermediates.
type Result struct {
	Score100 int
	Combined float64
	Base     float64
	Gate     float64
	Weights  [5]float64 // effective, sums to 1
}

// Effective perturbs each base weight by ±4% scaled by (theta[d] - 0.5) and
// renormalizes to sum 1.
func Effective(w Weights, theta [model.ThetaLen]float64) [5]float64 {
	raw := [5]float64{w.Temporal, w.Textual, w.Divinatory, w.Numerological, w.Entropic}
	sum := 0.0
	for i := range raw {
		raw[i] *= 1 + perturbScale*(theta[modelDims[i]]-0.5)
		if raw[i] < 0 {
			raw[i] = 0
		}
		sum += raw[i]
	}
	if sum <= 0 {
		for i := range raw {
			raw[i] = 0.2
		}
		return raw
	}
	for i := range raw {
		raw[i] /= sum
	}
	return raw
}

// Combine computes the pre-remap combined score. jitterRNG must be the trace
// ledger's stream: final-rounding noise stays separable from scorer streams.
func Combine(in Inputs, base Weights, jitterRNG *mix.RNG) Result {
	w := Effective(base, in.Theta)
	s := [5]float64{
		in.Scores.Temporal, in.Scores.Textual, in.Scores.Divinatory,
		in.Scores.Numerological, in.Scores.Entropic,
	}
	linear := 0.0
	for i := range s {
		linear += s[i] * w[i]
	}

	// Steep logistic sharpening blended back toward the raw average:
	// mid-range inputs separate more than extreme ones.
	combinedBase := sigmoid(6.2*(linear-0.5))*0.92 + linear*0.08

	gate := clamp01(0.15 + 0.25*in.Radiation + 0.20*in.Scores.Entropic +
		0.25*in.Theta[2] + 0.15*in.ObsTerm)
	combined := combinedBase*(1-gate) + in.FactorScore*gate

	jitter := jitterRNG.Float64()
	score := int(math.Round(clamp01(combined+(jitter-0.5)*0.06) * 100))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return Result{
		Score100: score,
		Combined: combined,
		Base:     combinedBase,
		Gate:     gate,
		Weights:  w,
	}
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
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
