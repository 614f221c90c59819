package nlp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "github.com/revlogica/orchestrator/internal/foundation/errors"
)

type fakeDocs map[string]string

func (f fakeDocs) GetDocument(_ context.Context, collection, name string) (string, error) {
	content, ok := f[collection+"/"+name]
	if !ok {
		return "", ferrors.NotFoundError("document not found").Build()
	}
	return content, nil
}

type fakeExtractor struct {
	calls    int
	lastText string
	entities []Entity
	err      error
}

func (f *fakeExtractor) ExtractEntities(_ context.Context, content string) ([]Entity, error) {
	f.calls++
	f.lastText = content
	return f.entities, f.err
}

type memCache map[string][]Entity

func (m memCache) GetExtraction(_ context.Context, key string) ([]Entity, bool, error) {
	entities, ok := m[key]
	return entities, ok, nil
}

func (m memCache) SetExtraction(_ context.Context, key string, entities []Entity) error {
	m[key] = entities
	return nil
}

const teiDoc = `<?xml version="1.0"?>
<TEI xmlns="http://www.tei-c.org/ns/1.0">
  <teiHeader><fileDesc><titleStmt><title>Relación</title></titleStmt></fileDesc></teiHeader>
  <text><body>
    <p>Bartolomé   escribió
    en Sevilla.</p>
  </body></text>
</TEI>`

func TestPlainTextCollapsesMarkupAndWhitespace(t *testing.T) {
	text, err := PlainText(teiDoc)
	require.NoError(t, err)
	assert.Equal(t, "Relación Bartolomé escribió en Sevilla.", text)
}

func TestPlainTextRejectsBrokenXML(t *testing.T) {
	_, err := PlainText("<TEI><p>unclosed")
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
}

func TestExtractFromDocument(t *testing.T) {
	docs := fakeDocs{"manuscripts/ms.xml": teiDoc}
	extractor := &fakeExtractor{entities: []Entity{{Text: "Sevilla", Type: EntityLocation}}}
	svc := NewService(docs, extractor)

	got, err := svc.ExtractFromDocument(context.Background(), "manuscripts", "ms.xml")
	require.NoError(t, err)
	assert.Equal(t, "manuscripts", got.Collection)
	assert.Equal(t, "ms.xml", got.Document)
	assert.Equal(t, extractor.entities, got.Entities)
	assert.False(t, got.Cached)
	assert.Equal(t, "Relación Bartolomé escribió en Sevilla.", extractor.lastText)
}

func TestExtractFromDocumentUsesCache(t *testing.T) {
	docs := fakeDocs{"manuscripts/ms.xml": teiDoc}
	extractor := &fakeExtractor{entities: []Entity{{Text: "Sevilla", Type: EntityLocation}}}
	svc := NewService(docs, extractor).WithCache(memCache{})

	first, err := svc.ExtractFromDocument(context.Background(), "manuscripts", "ms.xml")
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := svc.ExtractFromDocument(context.Background(), "manuscripts", "ms.xml")
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Entities, second.Entities)
	assert.Equal(t, 1, extractor.calls, "second extraction must come from the cache")
}

func TestExtractFromDocumentMissingDocument(t *testing.T) {
	svc := NewService(fakeDocs{}, &fakeExtractor{})
	_, err := svc.ExtractFromDocument(context.Background(), "manuscripts", "ghost.xml")
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryNotFound))
}

func TestExtractFromDocumentEmptyText(t *testing.T) {
	docs := fakeDocs{"manuscripts/empty.xml": `<TEI><text><body/></text></TEI>`}
	extractor := &fakeExtractor{}
	svc := NewService(docs, extractor)

	_, err := svc.ExtractFromDocument(context.Background(), "manuscripts", "empty.xml")
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
	assert.Zero(t, extractor.calls)
}
