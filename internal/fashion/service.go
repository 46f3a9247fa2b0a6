// Package fashion runs the scan, encode and analyze steps for one directory.
package fashion

import (
	"context"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/raine/fashion-analyzer/internal/images"
	"github.com/raine/fashion-analyzer/internal/llm"
	"github.com/rs/zerolog/log"
)

// Options controls how images are prepared.
type Options struct {
	DetectMIME bool
	// Timeout bounds the analysis call. Zero leaves it to the SDK.
	Timeout time.Duration
}

// Report is the outcome of analyzing one directory.
type Report struct {
	Files  []string
	Result *llm.AnalysisResult
}

// Service analyzes a directory of photos of a single clothing item.
type Service struct {
	fs       billy.Filesystem
	analyzer llm.Analyzer
	opts     Options
}

func NewService(fs billy.Filesystem, analyzer llm.Analyzer, opts Options) *Service {
	return &Service{fs: fs, analyzer: analyzer, opts: opts}
}

// ScanAndEncode finds the images in dir and encodes them in scan order.
func (s *Service) ScanAndEncode(dir string) ([]string, []*images.EncodedImage, error) {
	files, err := images.Scan(s.fs, dir)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Str("dir", dir).Int("imageCount", len(files)).Msg("found images")

	encoded, err := images.EncodeAll(s.fs, files, s.opts.DetectMIME)
	if err != nil {
		return nil, nil, err
	}
	return files, encoded, nil
}

// AnalyzeDirectory scans dir, encodes every image and sends them to the
// analyzer in a single request. Errors from each step are returned as-is.
func (s *Service) AnalyzeDirectory(ctx context.Context, dir string) (*Report, error) {
	files, encoded, err := s.ScanAndEncode(dir)
	if err != nil {
		return nil, err
	}

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	result, err := s.analyzer.AnalyzeImages(ctx, encoded)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("analyzer", s.analyzer.Name()).
		Str("itemType", result.Item.ItemType).
		Bool("cached", result.Cached).
		Msg("analysis complete")

	return &Report{Files: files, Result: result}, nil
}
