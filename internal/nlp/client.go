// Package nlp integrates the named-entity-recognition microservice. It sends
// plain manuscript text for analysis and caches extractions by content hash.
package nlp

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/revlogica/orchestrator/internal/config"
	ferrors "github.com/revlogica/orchestrator/internal/foundation/errors"
	"github.com/revlogica/orchestrator/internal/metrics"
	"github.com/revlogica/orchestrator/internal/retry"
)

// Entity types recognized by the NLP microservice.
const (
	EntityPerson   = "PERSON"
	EntityLocation = "LOCATION"
	EntityConcept  = "CONCEPT"
)

// Entity is a single named entity identified in manuscript text. Character
// offsets are optional; some models only report the surface form.
type Entity struct {
	Text      string `json:"text"`
	Type      string `json:"type"`
	StartChar *int   `json:"start_char,omitempty"`
	EndChar   *int   `json:"end_char,omitempty"`
}

// extractRequest is the wire format of the extraction request body.
type extractRequest struct {
	Content string `json:"content"`
}

// Client calls the NLP microservice over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	policy     retry.Policy
	recorder   metrics.Recorder
}

// NewClient creates a client from configuration.
func NewClient(cfg config.NLPConfig, policy retry.Policy) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = config.DefaultNLPTimeout
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		policy:     policy,
		recorder:   metrics.NoopRecorder{},
	}
}

// WithRecorder injects a metrics recorder (fluent helper).
func (c *Client) WithRecorder(r metrics.Recorder) *Client {
	if r != nil {
		c.recorder = r
	}
	return c
}

// ExtractEntities sends text to the microservice for named entity recognition.
// The response is a JSON array of entities.
func (c *Client) ExtractEntities(ctx context.Context, content string) ([]Entity, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ferrors.ValidationError("content must not be empty").Build()
	}

	payload, err := json.Marshal(extractRequest{Content: content})
	if err != nil {
		return nil, ferrors.InternalError("failed to encode extraction request").WithCause(err).Build()
	}
	endpoint := c.baseURL + "/extract-entities"

	start := time.Now()
	var entities []Entity
	err = retry.Do(ctx, c.policy, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return ferrors.InternalError("failed to build extraction request").
				WithCause(err).
				WithContext("url", endpoint).
				Build()
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return ferrors.NetworkError("failed to reach the NLP service").
				WithCause(err).
				WithContext("url", endpoint).
				Build()
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode >= 400 {
			excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			b := ferrors.NLPError("entity extraction failed").
				WithContext("status", resp.StatusCode).
				WithContext("body", strings.TrimSpace(string(excerpt)))
			if resp.StatusCode < 500 {
				b = b.WithRetry(ferrors.RetryNever)
			}
			return b.Build()
		}

		entities = entities[:0]
		if err := json.NewDecoder(resp.Body).Decode(&entities); err != nil {
			return ferrors.NLPError("failed to decode extraction response").
				WithCause(err).
				WithRetry(ferrors.RetryNever).
				Build()
		}
		return nil
	})
	c.recorder.ObserveNLPExtraction(metrics.ResultFor(err), time.Since(start))
	if err != nil {
		return nil, err
	}
	return entities, nil
}
