package llm

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"github.com/raine/fashion-analyzer/internal/images"
	"github.com/raine/fashion-analyzer/internal/storage"
	"github.com/rs/zerolog/log"
)

// CacheStore is the subset of storage.AnalysisCache the analyzer needs.
type CacheStore interface {
	GetAnalysis(imageHash string) (*storage.CachedAnalysis, error)
	SetAnalysis(imageHash string, entry *storage.CachedAnalysis) error
}

// CachedAnalyzer wraps an Analyzer with SQLite caching.
type CachedAnalyzer struct {
	inner Analyzer
	store CacheStore
}

// NewCachedAnalyzer creates a cached analyzer.
func NewCachedAnalyzer(inner Analyzer, store CacheStore) *CachedAnalyzer {
	return &CachedAnalyzer{inner: inner, store: store}
}

func (c *CachedAnalyzer) Name() string {
	return c.inner.Name()
}

// hashImages creates a SHA256 hash from the analyzer name and image data.
// Includes length prefix for each part to prevent boundary collisions.
func hashImages(analyzer string, imgs []*images.EncodedImage) string {
	h := sha256.New()
	writePart := func(b []byte) {
		// Write length to prevent boundary collisions (e.g. [A,B] vs [AB])
		binary.Write(h, binary.LittleEndian, int64(len(b)))
		h.Write(b)
	}
	writePart([]byte(analyzer))
	for _, img := range imgs {
		writePart([]byte(img.MIMEType))
		writePart([]byte(img.Base64))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// AnalyzeImages implements the Analyzer interface with caching.
func (c *CachedAnalyzer) AnalyzeImages(ctx context.Context, imgs []*images.EncodedImage) (*AnalysisResult, error) {
	if len(imgs) == 0 {
		return c.inner.AnalyzeImages(ctx, imgs)
	}

	name := c.inner.Name()
	hash := hashImages(name, imgs)

	// Check cache
	cached, err := c.store.GetAnalysis(hash)
	if err != nil {
		log.Warn().Err(err).Msg("failed to check analysis cache")
	} else if cached != nil {
		log.Debug().Str("hash", hash[:16]).Msg("analysis cache hit")
		return &AnalysisResult{
			Item: &FashionItem{
				ItemType: cached.ItemType,
				Size:     cached.Size,
				Brand:    cached.Brand,
			},
			Cached: true,
		}, nil
	}

	result, err := c.inner.AnalyzeImages(ctx, imgs)
	if err != nil {
		return nil, err
	}

	if result.Item != nil {
		entry := &storage.CachedAnalysis{
			Analyzer: name,
			ItemType: result.Item.ItemType,
			Size:     result.Item.Size,
			Brand:    result.Item.Brand,
		}
		if err := c.store.SetAnalysis(hash, entry); err != nil {
			log.Warn().Err(err).Msg("failed to cache analysis result")
		} else {
			log.Debug().Str("hash", hash[:16]).Msg("cached analysis result")
		}
	}

	return result, nil
}
