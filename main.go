package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/raine/fashion-analyzer/internal/config"
	"github.com/raine/fashion-analyzer/internal/fashion"
	"github.com/raine/fashion-analyzer/internal/images"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [flags] [directory]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "\nAnalyzes photos of one clothing item and prints its type, size and brand.\n")
	fmt.Fprintf(os.Stderr, "Without a directory argument you are asked for one (default: %s).\n\n", config.DefaultDirectory)
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nEnvironment variables:\n")
	fmt.Fprintf(os.Stderr, "  OPENAI_API_KEY   - Required for openai\n")
	fmt.Fprintf(os.Stderr, "  GEMINI_API_KEY   - Required for gemini\n")
	fmt.Fprintf(os.Stderr, "  FASHION_CACHE_DB - Enables the SQLite analysis cache at this path\n")
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	provider := flag.String("provider", "", "Vision provider: openai or gemini (default $FASHION_PROVIDER, then openai)")
	model := flag.String("model", "", "Model name override")
	jsonOutput := flag.Bool("json", false, "Print the result as JSON")
	noCache := flag.Bool("no-cache", false, "Bypass the analysis cache")
	flag.Usage = usage
	flag.Parse()

	config.LoadEnvFile()

	cfg, err := config.FromEnv(*provider)
	if err != nil {
		fatalWithWait("%v", err)
	}
	if *model != "" {
		cfg.Model = *model
	}
	if *noCache {
		cfg.CacheDBPath = ""
	}

	zerolog.SetGlobalLevel(cfg.LogLevel)
	log.Logger = log.With().Str("run", uuid.NewString()).Logger()

	dir, err := chooseDirectory(flag.Arg(0), isInteractiveTerminal(), promptDirectory)
	if err != nil {
		fatalWithWait("failed to read directory: %v", err)
	}

	// Create context that cancels on SIGINT or SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, cfg, dir, *jsonOutput, os.Stdout, os.Stderr)
	cancel()
	if code != 0 {
		waitOnWindows()
	}
	os.Exit(code)
}

// run analyzes dir and writes the result to stdout. It returns the process
// exit code.
func run(ctx context.Context, cfg *config.Config, dir string, jsonOutput bool, stdout, stderr io.Writer) int {
	analyzer, err := fashion.NewAnalyzer(ctx, cfg)
	if err != nil {
		printError(stderr, err)
		return 1
	}
	log.Info().Str("analyzer", analyzer.Name()).Msg("vision analyzer initialized")

	analyzer, closeCache, err := fashion.WithCache(analyzer, cfg)
	if err != nil {
		printError(stderr, err)
		return 1
	}
	defer func() {
		if err := closeCache(); err != nil {
			log.Warn().Err(err).Msg("failed to close analysis cache")
		}
	}()

	root, rel, err := images.ResolvePath(dir)
	if err != nil {
		printError(stderr, err)
		return 1
	}

	svc := fashion.NewService(images.NewOSFilesystem(root), analyzer, fashion.Options{
		DetectMIME: cfg.DetectMIME,
		Timeout:    cfg.Timeout,
	})

	report, err := svc.AnalyzeDirectory(ctx, rel)
	if err != nil {
		printError(stderr, err)
		return 1
	}

	if jsonOutput {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report.Result.Item); err != nil {
			printError(stderr, err)
			return 1
		}
		return 0
	}

	printReport(stdout, dir, report)
	return 0
}
