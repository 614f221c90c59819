// Package existdb implements a repository over the eXist-db REST API.
package existdb

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/revlogica/orchestrator/internal/config"
	ferrors "github.com/revlogica/orchestrator/internal/foundation/errors"
	"github.com/revlogica/orchestrator/internal/logfields"
	"github.com/revlogica/orchestrator/internal/metrics"
	"github.com/revlogica/orchestrator/internal/retry"
)

// ExistNamespace is the XML namespace used by eXist-db REST responses and query wrappers.
const ExistNamespace = "http://exist.sourceforge.net/NS/exist"

// collectionConfigNS is the namespace eXist expects on an empty collection document.
const collectionConfigNS = "http://exist-db.org/collection-config/1.0"

// Client talks to the eXist-db REST API with basic auth. All methods take a
// context and return explicit errors; non-2xx responses surface as *StatusError.
type Client struct {
	baseURL    string
	user       string
	password   string
	httpClient *http.Client
	policy     retry.Policy
	recorder   metrics.Recorder
}

// New creates a client from configuration. Transient transport failures are
// retried per the policy; HTTP status errors are returned as-is.
func New(cfg config.ExistDBConfig, policy retry.Policy) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = config.DefaultExistDBTimeout
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		user:       cfg.User,
		password:   cfg.Password,
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

// documentURL builds {base}/{collection}/{name} with path-escaped segments.
// Collections may themselves contain slashes (nested collections).
func (c *Client) documentURL(collection, name string) string {
	segments := strings.Split(strings.Trim(collection, "/"), "/")
	if name != "" {
		segments = append(segments, name)
	}
	escaped := make([]string, 0, len(segments))
	for _, s := range segments {
		if s == "" {
			continue
		}
		escaped = append(escaped, url.PathEscape(s))
	}
	return c.baseURL + "/" + strings.Join(escaped, "/")
}

// do executes a request and returns the response body. Transport failures are
// wrapped as transient network errors and retried per the client policy.
func (c *Client) do(ctx context.Context, op, method, rawURL, contentType string, body string) ([]byte, error) {
	start := time.Now()
	var out []byte
	err := retry.Do(ctx, c.policy, func() error {
		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		} else {
			reader = http.NoBody
		}
		req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
		if err != nil {
			return ferrors.InternalError("failed to build existdb request").
				WithCause(err).
				WithContext("url", rawURL).
				Build()
		}
		req.SetBasicAuth(c.user, c.password)
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return ferrors.NetworkError("existdb request failed").
				WithCause(err).
				WithContext("op", op).
				WithContext("url", rawURL).
				Build()
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode >= 400 {
			// Read limited body for diagnostics.
			limited, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return &StatusError{
				Code: resp.StatusCode,
				Op:   op,
				URL:  rawURL,
				Body: strings.TrimSpace(strings.ReplaceAll(string(limited), "\n", " ")),
			}
		}

		out, err = io.ReadAll(resp.Body)
		if err != nil {
			return ferrors.NetworkError("failed to read existdb response").
				WithCause(err).
				WithContext("op", op).
				Build()
		}
		return nil
	})
	c.recorder.ObserveExistDBOperation(op, metrics.ResultFor(err), time.Since(start))
	return out, err
}

// GetDocument retrieves a document's content.
func (c *Client) GetDocument(ctx context.Context, collection, name string) (string, error) {
	body, err := c.do(ctx, "get", http.MethodGet, c.documentURL(collection, name), "", "")
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// PutDocument stores a document, creating the collection first when needed.
// An existing document with the same name is overwritten.
func (c *Client) PutDocument(ctx context.Context, collection, name, content string) error {
	if err := c.EnsureCollection(ctx, collection); err != nil {
		return err
	}
	_, err := c.do(ctx, "put", http.MethodPut, c.documentURL(collection, name), "application/xml", content)
	if err != nil {
		return err
	}
	slog.Info("Document stored", logfields.Collection(collection), logfields.Document(name))
	return nil
}

// DeleteDocument removes a document.
func (c *Client) DeleteDocument(ctx context.Context, collection, name string) error {
	_, err := c.do(ctx, "delete", http.MethodDelete, c.documentURL(collection, name), "", "")
	if err != nil {
		return err
	}
	slog.Info("Document deleted", logfields.Collection(collection), logfields.Document(name))
	return nil
}

// DocumentExists checks document presence with a lightweight HEAD request.
// A 404 is a valid negative answer, not an error.
func (c *Client) DocumentExists(ctx context.Context, collection, name string) (bool, error) {
	return c.head(ctx, "exists", c.documentURL(collection, name))
}

// CollectionExists checks collection presence with a HEAD request.
func (c *Client) CollectionExists(ctx context.Context, collection string) (bool, error) {
	return c.head(ctx, "collection_exists", c.documentURL(collection, ""))
}

func (c *Client) head(ctx context.Context, op, rawURL string) (bool, error) {
	_, err := c.do(ctx, op, http.MethodHead, rawURL, "", "")
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Ping verifies the database answers at all; used by the health probe.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, "ping", http.MethodGet, c.baseURL, "", "")
	if err != nil && IsNotFound(err) {
		// Base collection answering 404 still means the server is up.
		return nil
	}
	return err
}
