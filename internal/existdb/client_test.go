package existdb

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revlogica/orchestrator/internal/config"
	ferrors "github.com/revlogica/orchestrator/internal/foundation/errors"
	"github.com/revlogica/orchestrator/internal/retry"
)

// fakeExist is a minimal in-memory stand-in for the eXist-db REST API.
type fakeExist struct {
	mu          sync.Mutex
	collections map[string]bool
	documents   map[string]string // "collection/name" -> content
	lastQuery   string
}

func newFakeExist() *fakeExist {
	return &fakeExist{collections: map[string]bool{}, documents: map[string]string{}}
}

func (f *fakeExist) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "admin" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		f.mu.Lock()
		defer f.mu.Unlock()

		path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/exist/rest/db"), "/")

		if r.Method == http.MethodPost && path == "" {
			body, _ := io.ReadAll(r.Body)
			f.lastQuery = string(body)
			fmt.Fprint(w, `<exist:result xmlns:exist="http://exist.sourceforge.net/NS/exist">ok</exist:result>`)
			return
		}

		parts := strings.Split(path, "/")
		isDoc := len(parts) == 2

		switch r.Method {
		case http.MethodHead, http.MethodGet:
			if isDoc {
				content, found := f.documents[path]
				if !found {
					w.WriteHeader(http.StatusNotFound)
					return
				}
				if r.Method == http.MethodGet {
					w.Header().Set("Content-Type", "application/xml")
					fmt.Fprint(w, content)
				}
				return
			}
			if !f.collections[path] {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			if r.Method == http.MethodGet {
				var b strings.Builder
				b.WriteString(`<exist:result xmlns:exist="http://exist.sourceforge.net/NS/exist">`)
				b.WriteString(fmt.Sprintf(`<exist:collection name="/db/%s">`, path))
				for key := range f.documents {
					if strings.HasPrefix(key, path+"/") {
						b.WriteString(fmt.Sprintf(`<exist:resource name=%q/>`, strings.TrimPrefix(key, path+"/")))
					}
				}
				b.WriteString(`</exist:collection></exist:result>`)
				fmt.Fprint(w, b.String())
			}
		case http.MethodPut:
			if isDoc {
				if !f.collections[parts[0]] {
					w.WriteHeader(http.StatusBadRequest)
					return
				}
				body, _ := io.ReadAll(r.Body)
				f.documents[path] = string(body)
				w.WriteHeader(http.StatusCreated)
				return
			}
			f.collections[path] = true
			w.WriteHeader(http.StatusCreated)
		case http.MethodDelete:
			if isDoc {
				if _, found := f.documents[path]; !found {
					w.WriteHeader(http.StatusNotFound)
					return
				}
				delete(f.documents, path)
				return
			}
			if !f.collections[path] {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			delete(f.collections, path)
			for key := range f.documents {
				if strings.HasPrefix(key, path+"/") {
					delete(f.documents, key)
				}
			}
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}

func newTestClient(t *testing.T, f *fakeExist) *Client {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	return New(config.ExistDBConfig{
		URL:      srv.URL + "/exist/rest/db",
		User:     "admin",
		Password: "secret",
		Timeout:  5 * time.Second,
	}, retry.Policy{Mode: config.RetryBackoffFixed, Initial: time.Millisecond, Max: time.Millisecond, MaxRetries: 1})
}

func TestPutGetDeleteDocument(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t, newFakeExist())

	content := `<TEI><text>hello</text></TEI>`
	require.NoError(t, client.PutDocument(ctx, "manuscripts", "ms-001.xml", content))

	got, err := client.GetDocument(ctx, "manuscripts", "ms-001.xml")
	require.NoError(t, err)
	assert.Equal(t, content, got)

	exists, err := client.DocumentExists(ctx, "manuscripts", "ms-001.xml")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, client.DeleteDocument(ctx, "manuscripts", "ms-001.xml"))

	exists, err = client.DocumentExists(ctx, "manuscripts", "ms-001.xml")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestGetDocumentNotFound(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t, newFakeExist())

	_, err := client.GetDocument(ctx, "manuscripts", "missing.xml")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, 404, StatusCode(err))
}

func TestEnsureCollectionIsIdempotent(t *testing.T) {
	ctx := context.Background()
	fake := newFakeExist()
	client := newTestClient(t, fake)

	require.NoError(t, client.EnsureCollection(ctx, "manuscripts"))
	require.NoError(t, client.EnsureCollection(ctx, "manuscripts"))

	exists, err := client.CollectionExists(ctx, "manuscripts")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestDeleteCollection(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t, newFakeExist())

	deleted, err := client.DeleteCollection(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, deleted, "missing collection is not an error")

	require.NoError(t, client.EnsureCollection(ctx, "manuscripts"))
	deleted, err = client.DeleteCollection(ctx, "manuscripts")
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestListDocuments(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t, newFakeExist())

	require.NoError(t, client.PutDocument(ctx, "manuscripts", "a.xml", "<a/>"))
	require.NoError(t, client.PutDocument(ctx, "manuscripts", "b.xml", "<b/>"))

	names, err := client.ListDocuments(ctx, "manuscripts")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.xml", "b.xml"}, names)
}

func TestQueryWrapsXQueryInEnvelope(t *testing.T) {
	ctx := context.Background()
	fake := newFakeExist()
	client := newTestClient(t, fake)

	out, err := client.Query(ctx, `//tei:persName`)
	require.NoError(t, err)
	assert.Contains(t, out, "ok")
	assert.Contains(t, fake.lastQuery, "<![CDATA[//tei:persName]]>")
	assert.Contains(t, fake.lastQuery, ExistNamespace)
	assert.Contains(t, fake.lastQuery, `property name="indent" value="yes"`)
}

func TestTransportErrorsAreTransient(t *testing.T) {
	client := New(config.ExistDBConfig{
		URL:      "http://127.0.0.1:1/exist/rest/db", // nothing listens here
		User:     "admin",
		Password: "secret",
		Timeout:  time.Second,
	}, retry.Policy{Mode: config.RetryBackoffFixed, Initial: time.Millisecond, Max: time.Millisecond, MaxRetries: 0})

	err := client.Ping(context.Background())
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryNetwork))
	assert.True(t, ferrors.IsTransient(err))
}

func TestParseResourceNamesHandlesNesting(t *testing.T) {
	data := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<exist:result xmlns:exist="http://exist.sourceforge.net/NS/exist">
  <exist:collection name="/db/manuscripts">
    <exist:resource name="ms-001.xml" created="2024-01-01"/>
    <exist:collection name="drafts">
      <exist:resource name="draft.xml"/>
    </exist:collection>
    <exist:resource name="ms-002.xml"/>
  </exist:collection>
</exist:result>`)

	names, err := parseResourceNames(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"ms-001.xml", "draft.xml", "ms-002.xml"}, names)
}

func TestParseResourceNamesRejectsGarbage(t *testing.T) {
	_, err := parseResourceNames([]byte(`<unclosed`))
	assert.Error(t, err)
}
