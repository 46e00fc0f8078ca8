// Package factor runs the cascade of themed sub-computations that feed the
// aggregate factor score. Each factor is a registry entry with a fixed tag,
// computed on its own RNG substream; the engine loop owns the shared feature
// vector and blends each factor's candidate vector into it in declared order.
// Factor N may depend statistically on the state left by factors 1..N-1, so
// the order is part of the output contract.
package factor

import (
	"fmt"
	"math"

	"github.com/maelin/cybermancy/internal/mix"
	"github.com/maelin/cybermancy/internal/trace"
)

// Phase is the trace phase label shared by the whole cascade.
const Phase = "factor"

// VectorLen is the length of the shared feature vector.
const VectorLen = 16

// Output is the immutable result of one factor computation.
type Output struct {
	Scalar      float64           // [0,1]
	Vector      [VectorLen]float64 // candidate blend vector
	Fingerprint [8]float64
	Signature   uint32
}

// Context is the read-only view a factor computes from.
type Context struct {
	RNG       *mix.RNG
	Vector    [VectorLen]float64 // snapshot of the shared vector
	Obs       []float64          // observation fingerprint, may be empty
	Radiation float64
	Prior     []float64 // scalars of factors already run
}

// Descriptor declares one factor: tag, phase, human name, compute.
type Descriptor struct {
	Tag     uint32
	Phase   string
	Name    string
	Compute func(*Context) Output
}

// Engine wires the cascade to a seed and a ledger.
type Engine struct {
	Seed         uint32
	QuestionHash uint32
	TimeSeed     uint32
	Entropy      uint32
	Radiation    float64
	Obs          []float64
	Ledger       *trace.Ledger
}

// Aggregate is the folded result of the whole cascade.
type Aggregate struct {
	Score         float64
	Coverage      float64
	MeanScalar    float64
	VectorEntropy float64
	ObsEntropy    float64
	Signature     uint32
	Vector        [VectorLen]float64
	Scalars       []float64
}

// Run executes every registered factor in declared order and folds the
// aggregate. Non-finite scalars are counted against coverage and replaced
// with the neutral 0.5 before blending.
func (e *Engine) Run() Aggregate {
	l := e.Ledger
	l.GroupStart(Phase, "factor cascade", map[string]string{
		"factors": fmt.Sprintf("%d", len(Registry)),
	}, nil)

	var vec [VectorLen]float64
	for i := range vec {
		vec[i] = 0.5
	}

	var (
		scalars []float64
		okCount int
		sig     uint32
	)
	for _, d := range Registry {
		rng := mix.New(mix.MixSeed(mix.MixSeed(e.Seed, e.QuestionHash, d.Tag), e.TimeSeed, e.Entropy^d.Tag))
		ctx := &Context{
			RNG:       rng,
			Vector:    vec,
			Obs:       e.Obs,
			Radiation: e.Radiation,
			Prior:     scalars,
		}
		out := d.Compute(ctx)

		ok := !math.IsNaN(out.Scalar) && !math.IsInf(out.Scalar, 0)
		scalar := clamp01(out.Scalar)
		if !ok {
			scalar = 0.5
		} else {
			okCount++
		}

		t := blendWeight(scalar, e.Radiation)
		for i := range vec {
			vec[i] = clamp01(vec[i]*(1-t) + out.Vector[i]*t)
		}

		scalars = append(scalars, scalar)
		sig = mix.Mix(sig, out.Signature)

		l.Emit(d.Phase, d.Name, map[string]string{
			"scalar": fmt.Sprintf("%.4f", scalar),
			"sig":    fmt.Sprintf("%08x", out.Signature),
			"ok":     fmt.Sprintf("%t", ok),
		}, out.Fingerprint[:])
	}

	agg := Aggregate{
		Coverage:      float64(okCount) / float64(len(Registry)),
		MeanScalar:    mean(scalars),
		VectorEntropy: normalizedEntropy(vec[:]),
		ObsEntropy:    normalizedEntropy(e.Obs),
		Signature:     sig,
		Vector:        vec,
		Scalars:       scalars,
	}
	agg.Score = clamp01((0.64*agg.MeanScalar + 0.22*agg.VectorEntropy + 0.14*agg.ObsEntropy) *
		(0.7 + 0.3*agg.Coverage))

	l.GroupEnd(Phase, "cascade folded", map[string]string{
		"score":    fmt.Sprintf("%.4f", agg.Score),
		"coverage": fmt.Sprintf("%.4f", agg.Coverage),
		"sig":      fmt.Sprintf("%08x", agg.Signature),
	}, nil)
	return agg
}

// blendWeight derives the shared-vector blend factor from a factor's scalar
// and the radiation bias, clamped to keep every factor's influence bounded.
func blendWeight(scalar, radiation float64) float64 {
	t := 0.08 + 0.30*scalar + 0.10*radiation
	if t < 0.05 {
		t = 0.05
	}
	if t > 0.45 {
		t = 0.45
	}
	return t
}

// fingerprint8 centers vals, L2-normalizes and remaps into [0,1] around 0.5.
// Fewer than 8 values wrap around; a zero-variance input maps to all 0.5.
func fingerprint8(vals []float64) [8]float64 {
	var fp [8]float64
	if len(vals) == 0 {
		for i := range fp {
			fp[i] = 0.5
		}
		return fp
	}
	var raw [8]float64
	for i := range raw {
		raw[i] = sanitize(vals[i%len(vals)])
	}
	m := 0.0
	for _, v := range raw {
		m += v
	}
	m /= 8
	norm := 0.0
	for i := range raw {
		raw[i] -= m
		norm += raw[i] * raw[i]
	}
	norm = math.Sqrt(norm)
	for i := range fp {
		if norm > 0 {
			fp[i] = clamp01(0.5 + 0.5*raw[i]/norm)
		} else {
			fp[i] = 0.5
		}
	}
	return fp
}

// signature hashes a factor's tag-qualified intermediate values.
func signature(tag uint32, vals ...float64) uint32 {
	h := mix.Mix(tag, 0x5F610A7E)
	for _, v := range vals {
		h = mix.Mix(h, mix.HashString(fmt.Sprintf("%.6g", sanitize(v))))
	}
	return h
}

// candidate spreads a factor's intermediates across a full-length vector,
// perturbed from the factor's own stream so distinct factors pull the shared
// vector in distinct directions.
func candidate(rng *mix.RNG, vals []float64) [VectorLen]float64 {
	var v [VectorLen]float64
	if len(vals) == 0 {
		for i := range v {
			v[i] = rng.Float64()
		}
		return v
	}
	for i := range v {
		base := sanitize(vals[i%len(vals)])
		_, frac := math.Modf(math.Abs(base) * 0.6180339887)
		v[i] = clamp01(0.15 + 0.70*frac + (rng.Float64()-0.5)*0.1)
	}
	return v
}

// normalizedEntropy is the Shannon entropy of the L1-normalized positive
// parts of vals, scaled to [0,1]. Empty or non-positive input scores 0.
func normalizedEntropy(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		if v > 0 && !math.IsInf(v, 1) && !math.IsNaN(v) {
			sum += v
		}
	}
	if sum <= 0 {
		return 0
	}
	h := 0.0
	for _, v := range vals {
		if v <= 0 || math.IsInf(v, 1) || math.IsNaN(v) {
			continue
		}
		p := v / sum
		h -= p * math.Log(p)
	}
	return clamp01(h / math.Log(float64(len(vals))))
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	s := 0.0
	for _, v := range vals {
		s += v
	}
	return s / float64(len(vals))
}

// sanitize replaces non-finite values so helper math stays total.
func sanitize(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if math.IsInf(v, 1) {
		return math.MaxFloat64
	}
	if math.IsInf(v, -1) {
		return -math.MaxFloat64
	}
	return v
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
