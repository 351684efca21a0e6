package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/sovralabs/sovra/internal/config"
	"github.com/sovralabs/sovra/internal/logx"
	"github.com/sovralabs/sovra/internal/ollama"
	"github.com/sovralabs/sovra/internal/relay"
)

var (
	version   = "dev"
	buildSHA  = "unknown"
	buildDate = "unknown"
)

func usage() {
	name := os.Args[0]
	fmt.Fprintf(os.Stderr, "Usage: %s \"text for the model\"\n", name)
	fmt.Fprintf(os.Stderr, "   or: cat event.json | %s --event\n", name)
	fmt.Fprintf(os.Stderr, "   or: %s --interactive\n\n", name)
	flag.PrintDefaults()
}

func main() {
	_ = godotenv.Load()

	showVersion := flag.Bool("version", false, "print version and exit")
	eventMode := flag.Bool("event", false, "read a JSON event payload from stdin")
	interactive := flag.Bool("interactive", false, "interactive chat loop on stdin")
	var cfg config.RelayConfig
	cfg.BindFlags()
	flag.Usage = usage
	flag.Parse()
	if *showVersion {
		fmt.Printf("sovra-relay version=%s sha=%s date=%s\n", version, buildSHA, buildDate)
		return
	}

	if cfg.ConfigFile != "" {
		if err := cfg.LoadFile(cfg.ConfigFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			logx.Log.Fatal().Err(err).Str("path", cfg.ConfigFile).Msg("load config")
		}
	}
	logx.Configure(cfg.LogLevel)

	if !*eventMode && !*interactive && flag.NArg() == 0 {
		usage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := relay.New(ollama.New(cfg.OllamaBaseURL), cfg)
	if err := r.Init(ctx); err != nil {
		logx.Log.Error().Err(err).Msg("backend initialization failed")
		os.Exit(1)
	}

	var result relay.Result
	switch {
	case *interactive:
		r.Interactive(ctx, os.Stdin, os.Stdout)
		return
	case *eventMode:
		var event relay.Event
		if err := json.NewDecoder(os.Stdin).Decode(&event); err != nil {
			result = relay.Fail("invalid JSON input")
		} else {
			result = r.ProcessEvent(ctx, event)
		}
	default:
		result = r.Generate(ctx, strings.Join(flag.Args(), " "))
	}

	printResult(result)
}

func printResult(res relay.Result) {
	fmt.Println()
	fmt.Println("==================================================")
	fmt.Println("RESULT")
	fmt.Println("==================================================")
	b, _ := json.MarshalIndent(res, "", "  ")
	fmt.Println(string(b))
}
