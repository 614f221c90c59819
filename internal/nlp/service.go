package nlp

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"

	ferrors "github.com/revlogica/orchestrator/internal/foundation/errors"
	"github.com/revlogica/orchestrator/internal/logfields"
)

// Extractor performs named entity recognition on plain text.
// *Client satisfies it.
type Extractor interface {
	ExtractEntities(ctx context.Context, content string) ([]Entity, error)
}

// DocumentSource fetches document content for analysis.
// *manuscript.Service satisfies it.
type DocumentSource interface {
	GetDocument(ctx context.Context, collection, name string) (string, error)
}

// Cache stores past extractions keyed by content hash so unchanged documents
// are not re-analyzed. Cache failures must never fail an extraction.
type Cache interface {
	GetExtraction(ctx context.Context, key string) ([]Entity, bool, error)
	SetExtraction(ctx context.Context, key string, entities []Entity) error
}

// noopCache is used when no cache is configured.
type noopCache struct{}

func (noopCache) GetExtraction(context.Context, string) ([]Entity, bool, error) {
	return nil, false, nil
}
func (noopCache) SetExtraction(context.Context, string, []Entity) error { return nil }

// Extraction is the outcome of analyzing a stored document.
type Extraction struct {
	Collection string   `json:"collection"`
	Document   string   `json:"document_name"`
	Entities   []Entity `json:"entities"`
	Cached     bool     `json:"cached"`
}

// Service fetches a stored document, reduces it to plain text, and runs
// entity extraction with content-hash caching.
type Service struct {
	docs      DocumentSource
	extractor Extractor
	cache     Cache
}

// NewService creates an extraction service.
func NewService(docs DocumentSource, extractor Extractor) *Service {
	return &Service{docs: docs, extractor: extractor, cache: noopCache{}}
}

// WithCache injects an extraction cache (fluent helper).
func (s *Service) WithCache(c Cache) *Service {
	if c != nil {
		s.cache = c
	}
	return s
}

// ExtractFromDocument analyzes a stored document and returns its entities.
func (s *Service) ExtractFromDocument(ctx context.Context, collection, name string) (*Extraction, error) {
	content, err := s.docs.GetDocument(ctx, collection, name)
	if err != nil {
		return nil, err
	}

	text, err := PlainText(content)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, ferrors.ValidationError("document contains no extractable text").
			WithContext("collection", collection).
			WithContext("document", name).
			Build()
	}

	key := contentKey(text)
	if entities, hit, err := s.cache.GetExtraction(ctx, key); err != nil {
		slog.Warn("Extraction cache lookup failed",
			logfields.Collection(collection), logfields.Document(name), logfields.Error(err))
	} else if hit {
		slog.Debug("Extraction served from cache",
			logfields.Collection(collection), logfields.Document(name))
		return &Extraction{Collection: collection, Document: name, Entities: entities, Cached: true}, nil
	}

	entities, err := s.extractor.ExtractEntities(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetExtraction(ctx, key, entities); err != nil {
		slog.Warn("Failed to cache extraction",
			logfields.Collection(collection), logfields.Document(name), logfields.Error(err))
	}
	return &Extraction{Collection: collection, Document: name, Entities: entities}, nil
}

// contentKey derives the cache key from the analyzed text, so renames and
// reformatting of markup do not invalidate cached results.
func contentKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
