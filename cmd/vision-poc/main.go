package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/raine/fashion-analyzer/internal/config"
	"github.com/raine/fashion-analyzer/internal/fashion"
	"github.com/raine/fashion-analyzer/internal/images"
	"github.com/raine/fashion-analyzer/internal/llm"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <image-dir> [gemini|openai|both]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment variables:\n")
		fmt.Fprintf(os.Stderr, "  GEMINI_API_KEY - Required for Gemini\n")
		fmt.Fprintf(os.Stderr, "  OPENAI_API_KEY - Required for OpenAI\n")
		os.Exit(1)
	}

	provider := "both"
	if len(os.Args) >= 3 {
		provider = os.Args[2]
	}

	var providers []string
	switch provider {
	case config.ProviderGemini, config.ProviderOpenAI:
		providers = []string{provider}
	case "both":
		providers = []string{config.ProviderGemini, config.ProviderOpenAI}
	default:
		fmt.Fprintf(os.Stderr, "Unknown provider: %s (use gemini, openai, or both)\n", provider)
		os.Exit(1)
	}

	config.LoadEnvFile()

	root, rel, err := images.ResolvePath(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to resolve directory: %v\n", err)
		os.Exit(1)
	}

	detectMIME, err := config.DetectMIMEFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Analyzer is not needed for preparing the images.
	svc := fashion.NewService(images.NewOSFilesystem(root), nil, fashion.Options{DetectMIME: detectMIME})
	files, encoded, err := svc.ScanAndEncode(rel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read images: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Found %d images in %s\n\n", len(files), os.Args[1])

	ctx := context.Background()
	for i, p := range providers {
		if i > 0 {
			fmt.Println("\n" + strings.Repeat("-", 50) + "\n")
		}
		runProvider(ctx, p, encoded)
	}
}

func runProvider(ctx context.Context, provider string, encoded []*images.EncodedImage) {
	fmt.Printf("=== %s ===\n", strings.ToUpper(provider))

	cfg, err := config.FromEnv(provider)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		return
	}

	analyzer, err := fashion.NewAnalyzer(ctx, cfg)
	if err != nil {
		fmt.Printf("Error creating analyzer: %v\n", err)
		return
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	result, err := analyzer.AnalyzeImages(ctx, encoded)
	if err != nil {
		fmt.Printf("Error analyzing images: %v\n", err)
		return
	}

	printResult(analyzer.Name(), result)
}

func printResult(name string, result *llm.AnalysisResult) {
	fmt.Printf("Analyzer:    %s\n", name)
	fmt.Printf("Item type:   %s\n", result.Item.ItemType)
	fmt.Printf("Size:        %s\n", orUnknown(result.Item.Size))
	fmt.Printf("Brand:       %s\n", orUnknown(result.Item.Brand))
	fmt.Println()
	fmt.Printf("Tokens:      %d in / %d out / %d total\n",
		result.Usage.InputTokens, result.Usage.OutputTokens, result.Usage.TotalTokens)
	fmt.Printf("Cost:        $%.6f\n", result.Usage.CostUSD)
}

func orUnknown(s *string) string {
	if s == nil {
		return "(unknown)"
	}
	return *s
}
