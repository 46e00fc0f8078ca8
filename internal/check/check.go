// Package check implements the doctor-style environment checks behind
// "cym check".
package check

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/maelin/cybermancy/internal/config"
	"github.com/maelin/cybermancy/internal/engine"
	"github.com/maelin/cybermancy/internal/history"
)

// Status represents the outcome of a single check.
type Status int

const (
	Pass Status = iota
	Warn
	Fail
)

func (s Status) String() string {
	switch s {
	case Pass:
		return "pass"
	case Warn:
		return "warn"
	case Fail:
		return "FAIL"
	default:
		return "unknown"
	}
}

// Result holds the outcome of a single check.
type Result struct {
	Name   string
	Status Status
	Detail string
}

// Report aggregates all check results.
type Report struct {
	Results []Result
}

// HasFailures returns true if any result has Fail status.
func (r Report) HasFailures() bool {
	for _, res := range r.Results {
		if res.Status == Fail {
			return true
		}
	}
	return false
}

// Format returns the human-readable report string.
func (r Report) Format() string {
	if len(r.Results) == 0 {
		return "cym check\n\n  no checks ran\n"
	}

	// Find max name length for alignment.
	maxName := 0
	for _, res := range r.Results {
		if len(res.Name) > maxName {
			maxName = len(res.Name)
		}
	}

	var b strings.Builder
	b.WriteString("cym check\n\n")

	var passed, warnings, failures int
	for _, res := range r.Results {
		switch res.Status {
		case Pass:
			passed++
		case Warn:
			warnings++
		case Fail:
			failures++
		}
		fmt.Fprintf(&b, "  %-4s  %-*s  %s\n", res.Status, maxName, res.Name, res.Detail)
	}

	fmt.Fprintf(&b, "\n%d passed, %d warning, %d failure\n", passed, warnings, failures)
	return b.String()
}

// CheckStateDir checks that the state directory exists and is writable.
func CheckStateDir(cfg config.Config) Result {
	dir, err := cfg.StateDir()
	if err != nil {
		return Result{Name: "state", Status: Fail, Detail: err.Error()}
	}
	probe := filepath.Join(dir, ".cym-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return Result{Name: "state", Status: Fail, Detail: dir + " not writable"}
	}
	os.Remove(probe)
	return Result{Name: "state", Status: Pass, Detail: dir}
}

// CheckModel validates model.json in the state directory.
func CheckModel(cfg config.Config) Result {
	dir, err := cfg.StateDir()
	if err != nil {
		return Result{Name: "model", Status: Fail, Detail: err.Error()}
	}
	path := filepath.Join(dir, "model.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{Name: "model", Status: Warn, Detail: "model.json not found yet (fresh install)"}
	}
	var parsed map[string]json.RawMessage
	if err := json.Unmarshal(data, &parsed); err != nil {
		return Result{Name: "model", Status: Fail, Detail: "model.json invalid JSON"}
	}
	return Result{Name: "model", Status: Pass, Detail: "model.json"}
}

// CheckHistory opens the history database and verifies the newest stored
// trace end to end.
func CheckHistory(cfg config.Config) Result {
	if !cfg.History.Enabled {
		return Result{Name: "history", Status: Pass, Detail: "disabled"}
	}
	dbPath, err := cfg.HistoryDBPath()
	if err != nil {
		return Result{Name: "history", Status: Fail, Detail: err.Error()}
	}
	store, err := history.Open(dbPath, cfg.History.Compress)
	if err != nil {
		return Result{Name: "history", Status: Fail, Detail: err.Error()}
	}
	defer store.Close()

	recs, err := store.List(1)
	if err != nil {
		return Result{Name: "history", Status: Fail, Detail: err.Error()}
	}
	if len(recs) == 0 {
		return Result{Name: "history", Status: Pass, Detail: "empty archive"}
	}
	if _, err := store.Get(recs[0].RunID); err != nil {
		return Result{Name: "history", Status: Fail, Detail: fmt.Sprintf("latest run: %v", err)}
	}
	return Result{Name: "history", Status: Pass, Detail: "latest trace verified"}
}

// CheckInterpret checks the relay configuration.
func CheckInterpret(icfg config.InterpretConfig) Result {
	if !icfg.Enabled {
		return Result{Name: "interpret", Status: Pass, Detail: "disabled"}
	}
	keyEnv := icfg.APIKeyEnv
	if keyEnv == "" {
		keyEnv = "XAI_API_KEY"
	}
	if os.Getenv(keyEnv) != "" {
		return Result{Name: "interpret", Status: Pass, Detail: keyEnv + " set"}
	}
	return Result{Name: "interpret", Status: Warn, Detail: keyEnv + " not set"}
}

// CheckWatchDirs checks the daemon's drop directories.
func CheckWatchDirs(wcfg config.WatchConfig) []Result {
	pairs := []struct {
		name string
		path string
	}{
		{"watch:inbox", wcfg.Dir},
		{"watch:outbox", wcfg.OutDir},
	}

	var results []Result
	for _, p := range pairs {
		if p.path == "" {
			continue
		}
		if info, err := os.Stat(p.path); err == nil && info.IsDir() {
			results = append(results, Result{Name: p.name, Status: Pass, Detail: p.path})
		} else {
			results = append(results, Result{Name: p.name, Status: Warn, Detail: p.path + " not found (created on daemon start)"})
		}
	}
	return results
}

// CheckDeterminism runs the same divination twice and compares signatures.
func CheckDeterminism() Result {
	in := engine.Input{Question: "self-test", When: time.Unix(1700000000, 0).UTC()}
	a, _ := engine.DivineWithTrace(in, 0x5EED, nil, nil, nil)
	b, _ := engine.DivineWithTrace(in, 0x5EED, nil, nil, nil)
	if a.Signature != b.Signature || a.Score != b.Score {
		return Result{Name: "engine", Status: Fail, Detail: "repeated run diverged"}
	}
	return Result{Name: "engine", Status: Pass, Detail: fmt.Sprintf("deterministic (sig %s)", a.Signature[:8])}
}

// Run executes all checks against the given config and returns a report.
func Run(cfg config.Config) Report {
	var results []Result

	results = append(results, CheckStateDir(cfg))
	results = append(results, CheckModel(cfg))
	results = append(results, CheckHistory(cfg))
	results = append(results, CheckInterpret(cfg.Interpret))
	results = append(results, CheckWatchDirs(cfg.Watch)...)
	results = append(results, CheckDeterminism())

	return Report{Results: results}
}
