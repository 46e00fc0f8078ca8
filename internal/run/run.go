// Package run drives one full divination from config to note: engine,
// formula synthesis, optional interpretation relay, archiving and model
// evolution. Both the CLI and the watch daemon go through Divine.
package run

import (
	"context"
	"fmt"
	"time"

	"github.com/maelin/cybermancy/internal/config"
	"github.com/maelin/cybermancy/internal/dimension"
	"github.com/maelin/cybermancy/internal/engine"
	"github.com/maelin/cybermancy/internal/formula"
	"github.com/maelin/cybermancy/internal/history"
	"github.com/maelin/cybermancy/internal/interpret"
	"github.com/maelin/cybermancy/internal/mix"
	"github.com/maelin/cybermancy/internal/model"
	"github.com/maelin/cybermancy/internal/report"
	"github.com/maelin/cybermancy/internal/trace"
)

// Options configures one divination. A zero When means now; HasEntropy
// false draws entropy from the wall clock.
type Options struct {
	Question   string
	Nickname   string
	When       time.Time
	Entropy    uint32
	HasEntropy bool
	NoSave     bool
}

// Outcome bundles everything a caller may want to surface. RelayErr records
// a relay failure; the run itself still succeeded.
type Outcome struct {
	Input    engine.Input
	Result   engine.Result
	Events   []trace.Event
	Formula  formula.Data
	Reading  *interpret.Result
	RelayErr error
	RunID    string
	Note     string
}

// Divine runs the full pipeline. The engine core is deterministic given
// (question, when, entropy, model state); everything around it is plumbing.
func Divine(ctx context.Context, cfg config.Config, opts Options) (*Outcome, error) {
	stateDir, err := cfg.StateDir()
	if err != nil {
		return nil, err
	}
	m, err := model.Load(stateDir)
	if err != nil {
		return nil, err
	}

	in := engine.Input{
		Question: opts.Question,
		When:     opts.When,
		Nickname: opts.Nickname,
	}
	if in.When.IsZero() {
		in.When = time.Now()
	}
	if in.Nickname == "" {
		in.Nickname = cfg.Nickname
	}

	entropy := opts.Entropy
	if !opts.HasEntropy {
		now := uint64(time.Now().UnixNano())
		entropy = mix.Mix(uint32(now), uint32(now>>32))
	}

	weights := cfg.Weights
	res, events := engine.DivineWithTrace(in, entropy, &weights, &engine.Extras{Model: m}, nil)

	fd := engine.BuildFormula(engine.FormulaSeed(res, m), engine.PhaseTerms(events), m.Policy())

	out := &Outcome{
		Input:   in,
		Result:  res,
		Events:  events,
		Formula: fd,
	}

	if cfg.Interpret.Enabled {
		out.Reading, out.RelayErr = relay(ctx, cfg.Interpret, in, res, events)
	}

	if cfg.History.Enabled && !opts.NoSave {
		dbPath, err := cfg.HistoryDBPath()
		if err != nil {
			return nil, err
		}
		store, err := history.Open(dbPath, cfg.History.Compress)
		if err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
		defer store.Close()

		out.RunID, err = store.Save(in, res, events)
		if err != nil {
			return nil, fmt.Errorf("archive run: %w", err)
		}
		if cfg.History.Keep > 0 {
			if _, err := store.Prune(cfg.History.Keep); err != nil {
				return nil, fmt.Errorf("prune history: %w", err)
			}
		}
	}

	// Evolve the model from this run's outcome. The root digest feeds the
	// update so replays of old runs stay reproducible against old models.
	m.Update(res.Score, events[0].RootDigest)
	if err := model.Save(stateDir, m); err != nil {
		return nil, fmt.Errorf("save model: %w", err)
	}

	relayModel := ""
	if out.Reading != nil {
		relayModel = cfg.Interpret.Model
	}
	out.Note = report.Note(report.FromRun(in, res, events, &out.Formula, out.Reading, relayModel, out.RunID))

	return out, nil
}

func relay(ctx context.Context, icfg config.InterpretConfig, in engine.Input, res engine.Result, events []trace.Event) (*interpret.Result, error) {
	timeout := time.Duration(icfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	elements := make(map[string]string, len(dimension.ElementNames))
	for i, name := range dimension.ElementNames {
		elements[name] = fmt.Sprintf("%.4f", res.Carry.Elements[i])
	}

	return interpret.Generate(ctx, icfg, interpret.PromptInput{
		Question:     in.Question,
		Nickname:     in.Nickname,
		Score:        res.Score,
		Signature:    res.Signature,
		Hexagram:     res.Carry.Hexagram.Name,
		ChangingLine: res.Carry.Hexagram.Line,
		Pillars: []string{
			res.Carry.Pillars.Year, res.Carry.Pillars.Month,
			res.Carry.Pillars.Day, res.Carry.Pillars.Hour,
		},
		Elements: elements,
		Phases:   engine.PhaseTerms(events),
	})
}
