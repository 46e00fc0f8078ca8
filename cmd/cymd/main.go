package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/maelin/cybermancy/internal/config"
	"github.com/maelin/cybermancy/internal/watch"
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
	case "start":
		log.SetPrefix("cymd: ")
		log.SetFlags(log.LstdFlags)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.Printf("watching %s -> %s", cfg.Watch.Dir, cfg.Watch.OutDir)
		w := watch.New(cfg, nil, nil)
		if err := w.Run(ctx); err != nil && err != context.Canceled {
			fatal("%v", err)
		}
		log.Print("stopped")

	case "version":
		fmt.Printf("cymd v%s (cybermancy)\n", version)

	case "help", "--help", "-h":
		usage()

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `cymd v%s — cybermancy drop-directory daemon

Usage:
  cymd start      Watch the inbox for question files
  cymd version    Print version
  cymd help       Show this help

Drop a .txt or .md file containing a question into the inbox; the
rendered divination note appears in the outbox.

Configuration: ~/.config/cybermancy/config.toml ([watch] section)
`, version)
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "cymd: "+format+"\n", args...)
	os.Exit(1)
}
