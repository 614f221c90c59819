// Package manuscript contains the business rules for managing XML manuscripts
// stored in the document database. It translates low-level repository failures
// into classified domain errors and records lifecycle events for every mutation.
package manuscript

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/text/unicode/norm"

	"github.com/revlogica/orchestrator/internal/existdb"
	ferrors "github.com/revlogica/orchestrator/internal/foundation/errors"
	"github.com/revlogica/orchestrator/internal/logfields"
)

// Repository is the document store contract the service depends on.
// *existdb.Client satisfies it.
type Repository interface {
	GetDocument(ctx context.Context, collection, name string) (string, error)
	PutDocument(ctx context.Context, collection, name, content string) error
	DeleteDocument(ctx context.Context, collection, name string) error
	DocumentExists(ctx context.Context, collection, name string) (bool, error)
	ListDocuments(ctx context.Context, collection string) ([]string, error)
}

// EventSink receives document lifecycle notifications after successful mutations.
type EventSink interface {
	DocumentChanged(ctx context.Context, action, collection, name string)
}

// noopSink is used when no sink is configured.
type noopSink struct{}

func (noopSink) DocumentChanged(context.Context, string, string, string) {}

// fanOutSink forwards each notification to every wrapped sink in order.
type fanOutSink []EventSink

func (f fanOutSink) DocumentChanged(ctx context.Context, action, collection, name string) {
	for _, sink := range f {
		sink.DocumentChanged(ctx, action, collection, name)
	}
}

// FanOut combines multiple sinks into one. Nil sinks are skipped.
func FanOut(sinks ...EventSink) EventSink {
	var active fanOutSink
	for _, s := range sinks {
		if s != nil {
			active = append(active, s)
		}
	}
	if len(active) == 0 {
		return noopSink{}
	}
	return active
}

// Lifecycle actions reported to the event sink.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// Service orchestrates repository calls and owns all business rules for
// document management.
type Service struct {
	repo Repository
	sink EventSink
}

// NewService creates a service around the injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, sink: noopSink{}}
}

// WithEventSink injects a lifecycle event sink (fluent helper).
func (s *Service) WithEventSink(sink EventSink) *Service {
	if sink != nil {
		s.sink = sink
	}
	return s
}

// normalizeName brings collection and document names to Unicode NFC so that
// visually identical names cannot address different resources.
func normalizeName(v string) string {
	return norm.NFC.String(v)
}

// CreateDocument creates a new document. Creating over an existing document is
// rejected; callers wanting replacement semantics use UpdateDocument.
func (s *Service) CreateDocument(ctx context.Context, collection, name, content string) error {
	if collection == "" || name == "" || content == "" {
		slog.Warn("Attempted to create document with missing input",
			logfields.Collection(collection), logfields.Document(name))
		return ferrors.ValidationError("collection, document_name, and content are required").Build()
	}
	collection, name = normalizeName(collection), normalizeName(name)

	exists, err := s.DocumentExists(ctx, collection, name)
	if err != nil {
		return err
	}
	if exists {
		return ferrors.AlreadyExistsError(
			fmt.Sprintf("cannot create because document '%s' already exists", name)).
			WithContext("collection", collection).
			Build()
	}

	if err := s.repo.PutDocument(ctx, collection, name, content); err != nil {
		return translateRepoError(err, "failed to create document due to a database error")
	}

	s.sink.DocumentChanged(ctx, ActionCreated, collection, name)
	return nil
}

// GetDocument retrieves a document's content.
func (s *Service) GetDocument(ctx context.Context, collection, name string) (string, error) {
	collection, name = normalizeName(collection), normalizeName(name)

	content, err := s.repo.GetDocument(ctx, collection, name)
	if err != nil {
		if existdb.IsNotFound(err) {
			return "", ferrors.NotFoundError(
				fmt.Sprintf("the document '%s' in collection '%s' was not found", name, collection)).
				Build()
		}
		return "", translateRepoError(err, "a database error occurred while fetching the document")
	}
	return content, nil
}

// UpdateDocument replaces an existing document's content. The document must
// already exist. Read-then-write without locking: eXist PUT is last-writer-wins.
// Empty content is accepted; only creation requires a non-empty body.
func (s *Service) UpdateDocument(ctx context.Context, collection, name, newContent string) error {
	collection, name = normalizeName(collection), normalizeName(name)

	if _, err := s.repo.GetDocument(ctx, collection, name); err != nil {
		if existdb.IsNotFound(err) {
			return ferrors.NotFoundError(
				fmt.Sprintf("cannot update because document '%s' was not found", name)).
				WithContext("collection", collection).
				Build()
		}
		return translateRepoError(err, "a database error occurred while updating the document")
	}

	if err := s.repo.PutDocument(ctx, collection, name, newContent); err != nil {
		return translateRepoError(err, "a database error occurred while updating the document")
	}

	s.sink.DocumentChanged(ctx, ActionUpdated, collection, name)
	return nil
}

// DeleteDocument removes a document.
func (s *Service) DeleteDocument(ctx context.Context, collection, name string) error {
	collection, name = normalizeName(collection), normalizeName(name)

	if err := s.repo.DeleteDocument(ctx, collection, name); err != nil {
		if existdb.IsNotFound(err) {
			return ferrors.NotFoundError(
				fmt.Sprintf("cannot delete because document '%s' was not found", name)).
				WithContext("collection", collection).
				Build()
		}
		return translateRepoError(err, "a database error occurred while deleting the document")
	}

	s.sink.DocumentChanged(ctx, ActionDeleted, collection, name)
	return nil
}

// ListDocuments lists all document names within a collection.
func (s *Service) ListDocuments(ctx context.Context, collection string) ([]string, error) {
	collection = normalizeName(collection)

	names, err := s.repo.ListDocuments(ctx, collection)
	if err != nil {
		if existdb.IsNotFound(err) {
			return nil, ferrors.NotFoundError(
				fmt.Sprintf("the collection '%s' was not found", collection)).
				WithContext("kind", "collection").
				Build()
		}
		return nil, translateRepoError(err, "a database error occurred while listing documents")
	}
	return names, nil
}

// DocumentExists checks document presence.
func (s *Service) DocumentExists(ctx context.Context, collection, name string) (bool, error) {
	exists, err := s.repo.DocumentExists(ctx, normalizeName(collection), normalizeName(name))
	if err != nil {
		return false, translateRepoError(err, "a database error occurred while checking for the document")
	}
	return exists, nil
}

// translateRepoError converts low-level repository failures into the generic
// database category. Errors that already carry a classification pass through.
func translateRepoError(err error, message string) error {
	// Network and parse errors from the repository already carry a classification.
	if _, ok := ferrors.AsClassified(err); ok {
		return err
	}
	b := ferrors.DatabaseError(message).WithCause(err)
	if code := existdb.StatusCode(err); code != 0 {
		b = b.WithContext("status", code)
	}
	return b.Build()
}
