// Package watch runs the drop-directory daemon: question files written into
// the inbox are divined and their notes land in the outbox.
package watch

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/maelin/cybermancy/internal/config"
	"github.com/maelin/cybermancy/internal/report"
	"github.com/maelin/cybermancy/internal/run"
)

// Diviner runs one divination. Satisfied by run.Divine; a stub in tests.
type Diviner func(ctx context.Context, cfg config.Config, opts run.Options) (*run.Outcome, error)

// Watcher owns the inbox/outbox pair.
type Watcher struct {
	cfg      config.Config
	divine   Diviner
	debounce time.Duration
	logf     func(format string, args ...interface{})

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// New builds a Watcher over cfg.Watch. divine may be nil (defaults to
// run.Divine); logf may be nil (defaults to log.Printf).
func New(cfg config.Config, divine Diviner, logf func(string, ...interface{})) *Watcher {
	if divine == nil {
		divine = run.Divine
	}
	if logf == nil {
		logf = log.Printf
	}
	debounce := time.Duration(cfg.Watch.DebounceMsec) * time.Millisecond
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}
	return &Watcher{
		cfg:      cfg,
		divine:   divine,
		debounce: debounce,
		logf:     logf,
		pending:  make(map[string]*time.Timer),
	}
}

// Run watches the inbox until ctx is canceled. Files already present at
// startup are processed first.
func (w *Watcher) Run(ctx context.Context) error {
	for _, dir := range []string{w.cfg.Watch.Dir, w.cfg.Watch.OutDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create watch dir: %w", err)
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.cfg.Watch.Dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.cfg.Watch.Dir, err)
	}

	// Catch up on files dropped while the daemon was down.
	entries, err := os.ReadDir(w.cfg.Watch.Dir)
	if err != nil {
		return fmt.Errorf("read inbox: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() && questionFile(e.Name()) {
			w.schedule(ctx, filepath.Join(w.cfg.Watch.Dir, e.Name()))
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if questionFile(filepath.Base(ev.Name)) {
				w.schedule(ctx, ev.Name)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logf("watch error: %v", err)
		}
	}
}

// schedule (re)arms the debounce timer for path. Editors produce several
// write events per save; only the last one fires.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		if err := w.process(ctx, path); err != nil {
			w.logf("process %s: %v", filepath.Base(path), err)
		}
	})
}

// process divines one question file, writes the note and consumes the input.
func (w *Watcher) process(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read question: %w", err)
	}
	question := strings.TrimSpace(string(data))
	if question == "" {
		return os.Remove(path)
	}

	out, err := w.divine(ctx, w.cfg, run.Options{Question: question})
	if err != nil {
		return err
	}
	if out.RelayErr != nil {
		w.logf("relay failed for %s: %v", filepath.Base(path), out.RelayErr)
	}

	noteName := report.Filename(report.FromRun(out.Input, out.Result, out.Events, &out.Formula, out.Reading, "", out.RunID))
	notePath := filepath.Join(w.cfg.Watch.OutDir, noteName)
	if err := os.WriteFile(notePath, []byte(out.Note), 0o644); err != nil {
		return fmt.Errorf("write note: %w", err)
	}
	w.logf("divined %s -> %s (score %d)", filepath.Base(path), noteName, out.Result.Score)

	return os.Remove(path)
}

// questionFile reports whether name looks like a dropped question.
func questionFile(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	return strings.HasSuffix(name, ".txt") || strings.HasSuffix(name, ".md")
}
