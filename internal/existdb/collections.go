package existdb

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/net/html/charset"

	ferrors "github.com/revlogica/orchestrator/internal/foundation/errors"
	"github.com/revlogica/orchestrator/internal/logfields"
)

// EnsureCollection makes sure a collection exists, creating it only when absent
// (check, then act). eXist accepts an empty collection document via PUT.
func (c *Client) EnsureCollection(ctx context.Context, collection string) error {
	present, err := c.CollectionExists(ctx, collection)
	if err != nil {
		return err
	}
	if present {
		slog.Debug("Collection already exists", logfields.Collection(collection))
		return nil
	}

	slog.Info("Collection not found, creating it", logfields.Collection(collection))
	content := fmt.Sprintf("<collection xmlns=%q/>", collectionConfigNS)
	_, err = c.do(ctx, "create_collection", http.MethodPut, c.documentURL(collection, ""), "application/xml", content)
	if err != nil {
		return err
	}
	slog.Info("Collection created", logfields.Collection(collection))
	return nil
}

// DeleteCollection removes a collection and all its contents. Deleting a
// collection that does not exist returns (false, nil).
func (c *Client) DeleteCollection(ctx context.Context, collection string) (bool, error) {
	_, err := c.do(ctx, "delete_collection", http.MethodDelete, c.documentURL(collection, ""), "", "")
	if err != nil {
		if IsNotFound(err) {
			slog.Warn("Attempted to delete non-existent collection", logfields.Collection(collection))
			return false, nil
		}
		return false, err
	}
	slog.Info("Collection deleted", logfields.Collection(collection))
	return true, nil
}

// Query executes an XQuery via POST and returns the raw XML result. The query
// is wrapped in the XML envelope required by the eXist REST API.
func (c *Client) Query(ctx context.Context, xquery string) (string, error) {
	// A literal "]]>" inside the query would terminate the CDATA section early.
	safe := strings.ReplaceAll(xquery, "]]>", "]]]]><![CDATA[>")
	envelope := fmt.Sprintf(
		`<query xmlns=%q><text><![CDATA[%s]]></text><properties><property name="indent" value="yes"/></properties></query>`,
		ExistNamespace, safe)

	body, err := c.do(ctx, "query", http.MethodPost, c.baseURL+"/", "application/xml", envelope)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// ListDocuments returns the names of all documents directly inside a collection.
// The eXist response is an exist:result tree listing exist:resource elements.
func (c *Client) ListDocuments(ctx context.Context, collection string) ([]string, error) {
	body, err := c.do(ctx, "list", http.MethodGet, c.documentURL(collection, ""), "", "")
	if err != nil {
		return nil, err
	}
	names, err := parseResourceNames(body)
	if err != nil {
		return nil, ferrors.DatabaseError("failed to parse collection listing").
			WithCause(err).
			WithContext("collection", collection).
			WithRetry(ferrors.RetryNever).
			Build()
	}
	return names, nil
}

// parseResourceNames walks the XML token stream collecting the name attribute
// of every exist:resource element, regardless of nesting depth.
func parseResourceNames(data []byte) ([]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel

	names := []string{}
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Space != ExistNamespace || start.Name.Local != "resource" {
			continue
		}
		for _, attr := range start.Attr {
			if attr.Name.Local == "name" {
				names = append(names, attr.Value)
				break
			}
		}
	}
	return names, nil
}
