package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/maelin/cybermancy/internal/check"
	"github.com/maelin/cybermancy/internal/config"
	"github.com/maelin/cybermancy/internal/engine"
	"github.com/maelin/cybermancy/internal/history"
	"github.com/maelin/cybermancy/internal/model"
	"github.com/maelin/cybermancy/internal/run"
	"github.com/maelin/cybermancy/internal/stats"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fatal("load config: %v", err)
	}

	switch os.Args[1] {
	case "divine":
		cmdDivine(cfg, os.Args[2:])

	case "formula":
		cmdFormula(cfg, os.Args[2:])

	case "history":
		cmdHistory(cfg, os.Args[2:])

	case "stats":
		cmdStats(cfg, os.Args[2:])

	case "check":
		report := check.Run(cfg)
		fmt.Print(report.Format())
		if report.HasFailures() {
			os.Exit(1)
		}

	case "init":
		path, err := config.WriteDefault()
		if err != nil {
			fatal("%v", err)
		}
		fmt.Printf("wrote %s\n", path)

	case "version":
		fmt.Printf("cym v%s (cybermancy)\n", version)

	case "help", "--help", "-h":
		usage()

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

func cmdDivine(cfg config.Config, args []string) {
	opts := run.Options{
		Nickname: flagValue(args, "--nickname"),
		NoSave:   hasFlag(args, "--no-save"),
	}
	if v := flagValue(args, "--entropy"); v != "" {
		n, err := strconv.ParseUint(v, 0, 32)
		if err != nil {
			fatal("bad --entropy %q: %v", v, err)
		}
		opts.Entropy = uint32(n)
		opts.HasEntropy = true
	}
	opts.Question = strings.Join(positional(args), " ")
	if opts.Question == "" {
		fatal("usage: cym divine [flags] <question>")
	}

	out, err := run.Divine(context.Background(), cfg, opts)
	if err != nil {
		fatal("divine: %v", err)
	}
	if out.RelayErr != nil {
		fmt.Fprintf(os.Stderr, "cym: interpretation relay failed: %v\n", out.RelayErr)
	}

	if hasFlag(args, "--json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out.Result); err != nil {
			fatal("encode result: %v", err)
		}
		return
	}
	fmt.Print(out.Note)
	if out.RunID != "" {
		fmt.Fprintf(os.Stderr, "archived: %s\n", out.RunID)
	}
}

func cmdFormula(cfg config.Config, args []string) {
	var seed uint32 = 42
	if v := flagValue(args, "--seed"); v != "" {
		n, err := strconv.ParseUint(v, 0, 32)
		if err != nil {
			fatal("bad --seed %q: %v", v, err)
		}
		seed = uint32(n)
	}
	terms := positional(args)

	stateDir, err := cfg.StateDir()
	if err != nil {
		fatal("%v", err)
	}
	m, err := model.Load(stateDir)
	if err != nil {
		fatal("%v", err)
	}

	fd := engine.BuildFormula(seed, terms, m.Policy())
	fmt.Println(fd.Latex)
	fmt.Println()
	for i, s := range fd.Steps {
		fmt.Printf("%d. %s\n", i+1, s)
	}
	fmt.Println()
	for _, p := range fd.Params {
		fmt.Printf("%s = %s\n", p.Name, p.Value)
	}
}

func cmdHistory(cfg config.Config, args []string) {
	dbPath, err := cfg.HistoryDBPath()
	if err != nil {
		fatal("%v", err)
	}
	store, err := history.Open(dbPath, cfg.History.Compress)
	if err != nil {
		fatal("open history: %v", err)
	}
	defer store.Close()

	sub := "list"
	if len(args) > 0 && !strings.HasPrefix(args[0], "--") {
		sub = args[0]
		args = args[1:]
	}

	switch sub {
	case "list":
		limit := 20
		if v := flagValue(args, "--limit"); v != "" {
			limit, err = strconv.Atoi(v)
			if err != nil {
				fatal("bad --limit %q: %v", v, err)
			}
		}
		recs, err := store.List(limit)
		if err != nil {
			fatal("list: %v", err)
		}
		if len(recs) == 0 {
			fmt.Println("no runs archived yet")
			return
		}
		for _, r := range recs {
			fmt.Printf("%s  %s  %3d  %-8s  %s\n",
				r.RunID[:8], r.AskedAt.Format("2006-01-02 15:04"), r.Score, r.Hexagram, truncate(r.Question, 48))
		}

	case "show":
		if len(args) < 1 {
			fatal("usage: cym history show <run-id>")
		}
		rec, err := store.Get(resolveID(store, args[0]))
		if err != nil {
			fatal("show: %v", err)
		}
		fmt.Printf("run:       %s\n", rec.RunID)
		fmt.Printf("asked:     %s\n", rec.AskedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("question:  %s\n", rec.Question)
		fmt.Printf("score:     %d\n", rec.Score)
		fmt.Printf("signature: %s\n", rec.Signature)
		if rec.Hexagram != "" {
			fmt.Printf("hexagram:  %s (line %d)\n", rec.Hexagram, rec.Line)
		}
		fmt.Printf("events:    %d (chain verified)\n", len(rec.Events))

	case "export":
		if len(args) < 1 {
			fatal("usage: cym history export <file.jsonl.zst>")
		}
		f, err := os.Create(args[0])
		if err != nil {
			fatal("create export: %v", err)
		}
		defer f.Close()
		if err := store.Export(f); err != nil {
			fatal("export: %v", err)
		}
		fmt.Printf("exported to %s\n", args[0])

	case "prune":
		keep := cfg.History.Keep
		if v := flagValue(args, "--keep"); v != "" {
			keep, err = strconv.Atoi(v)
			if err != nil {
				fatal("bad --keep %q: %v", v, err)
			}
		}
		if keep <= 0 {
			fatal("prune needs --keep N (or history.keep in config)")
		}
		n, err := store.Prune(keep)
		if err != nil {
			fatal("prune: %v", err)
		}
		fmt.Printf("pruned %d runs, kept %d\n", n, keep)

	default:
		fatal("unknown history subcommand: %s", sub)
	}
}

func cmdStats(cfg config.Config, args []string) {
	dbPath, err := cfg.HistoryDBPath()
	if err != nil {
		fatal("%v", err)
	}
	store, err := history.Open(dbPath, cfg.History.Compress)
	if err != nil {
		fatal("open history: %v", err)
	}
	defer store.Close()

	recs, err := store.List(100000)
	if err != nil {
		fatal("list: %v", err)
	}
	fmt.Print(stats.Format(stats.Compute(recs, flagValue(args, "--nickname")), flagValue(args, "--nickname")))
}

// resolveID expands a run-id prefix to the full id when unambiguous.
func resolveID(store *history.Store, prefix string) string {
	if len(prefix) >= 36 {
		return prefix
	}
	recs, err := store.List(100000)
	if err != nil {
		return prefix
	}
	match := prefix
	found := 0
	for _, r := range recs {
		if strings.HasPrefix(r.RunID, prefix) {
			match = r.RunID
			found++
		}
	}
	if found == 1 {
		return match
	}
	return prefix
}

func usage() {
	fmt.Fprintf(os.Stderr, `cym v%s — deterministic divination engine

Usage:
  cym divine [flags] <question>     Run a divination
      --nickname <name>             Attribute the question
      --entropy <u32>               Pin the entropy word (reproducible runs)
      --no-save                     Skip the history archive
      --json                        Print the raw result as JSON
  cym formula [--seed N] [terms]    Synthesize a presentation formula
  cym history [list|show|export|prune]
  cym stats [--nickname <name>]     Aggregates over archived runs
  cym check                         Verify config, state and determinism
  cym init                          Write a default config file
  cym version                       Print version
  cym help                          Show this help

Configuration: ~/.config/cybermancy/config.toml
`, version)
}

func flagValue(args []string, flag string) string {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func hasFlag(args []string, flag string) bool {
	for _, a := range args {
		if a == flag {
			return true
		}
	}
	return false
}

// positional returns the args that are not flags or flag values.
func positional(args []string) []string {
	valueFlags := map[string]bool{
		"--nickname": true, "--entropy": true, "--seed": true,
		"--limit": true, "--keep": true,
	}
	var out []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		if valueFlags[a] {
			i++
			continue
		}
		if strings.HasPrefix(a, "--") {
			continue
		}
		out = append(out, a)
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "cym: "+format+"\n", args...)
	os.Exit(1)
}
