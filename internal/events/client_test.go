package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revlogica/orchestrator/internal/config"
	"github.com/revlogica/orchestrator/internal/nlp"
)

func TestDocumentEventWireShape(t *testing.T) {
	event := DocumentEvent{
		Action:     "created",
		Collection: "manuscripts",
		Document:   "ms-001.xml",
		Timestamp:  time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "created", decoded["action"])
	assert.Equal(t, "manuscripts", decoded["collection"])
	assert.Equal(t, "ms-001.xml", decoded["document_name"])
	assert.Contains(t, decoded, "timestamp")
}

func TestExtractionCacheCodec(t *testing.T) {
	start, end := 0, 7
	entities := []nlp.Entity{
		{Text: "Sevilla", Type: nlp.EntityLocation, StartChar: &start, EndChar: &end},
		{Text: "encomienda", Type: nlp.EntityConcept},
	}

	data, err := encodeExtraction(entities)
	require.NoError(t, err)

	decoded, err := decodeExtraction(data)
	require.NoError(t, err)
	assert.Equal(t, entities, decoded)
}

func TestDecodeExtractionRejectsGarbage(t *testing.T) {
	_, err := decodeExtraction([]byte("not json"))
	assert.Error(t, err)
}

func TestConnectRequiresEnabledConfig(t *testing.T) {
	_, err := Connect(config.EventsConfig{Enabled: false})
	assert.Error(t, err)
}
