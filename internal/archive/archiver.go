// Package archive takes periodic snapshots of manuscript collections into a
// local git repository, giving curators a browsable history of every document.
package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/revlogica/orchestrator/internal/config"
	ferrors "github.com/revlogica/orchestrator/internal/foundation/errors"
	"github.com/revlogica/orchestrator/internal/logfields"
	"github.com/revlogica/orchestrator/internal/metrics"
)

const (
	commitAuthorName  = "orchestrator"
	commitAuthorEmail = "orchestrator@revlogica.local"
)

// Lister enumerates and fetches the documents to snapshot.
// *manuscript.Service satisfies it.
type Lister interface {
	ListDocuments(ctx context.Context, collection string) ([]string, error)
	GetDocument(ctx context.Context, collection, name string) (string, error)
}

// Archiver exports configured collections to a working tree and commits
// whenever the content changed since the last snapshot.
type Archiver struct {
	directory   string
	collections []string
	source      Lister
	recorder    metrics.Recorder
}

// New creates an archiver for the configured collections.
func New(cfg config.ArchiveConfig, source Lister) *Archiver {
	return &Archiver{
		directory:   cfg.Directory,
		collections: cfg.Collections,
		source:      source,
		recorder:    metrics.NoopRecorder{},
	}
}

// WithRecorder injects a metrics recorder (fluent helper).
func (a *Archiver) WithRecorder(r metrics.Recorder) *Archiver {
	if r != nil {
		a.recorder = r
	}
	return a
}

// EnsureRepo opens the archive repository, initializing it on first use.
func (a *Archiver) EnsureRepo() (*git.Repository, error) {
	if err := os.MkdirAll(a.directory, 0o755); err != nil {
		return nil, ferrors.ArchiveError("failed to create archive directory").
			WithCause(err).
			WithContext("directory", a.directory).
			Build()
	}

	repo, err := git.PlainOpen(a.directory)
	if err == nil {
		return repo, nil
	}
	if !errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, ferrors.ArchiveError("failed to open archive repository").
			WithCause(err).
			WithContext("directory", a.directory).
			Build()
	}

	repo, err = git.PlainInit(a.directory, false)
	if err != nil {
		return nil, ferrors.ArchiveError("failed to initialize archive repository").
			WithCause(err).
			WithContext("directory", a.directory).
			Build()
	}
	slog.Info("Initialized archive repository", logfields.Path(a.directory))
	return repo, nil
}

// Snapshot exports all configured collections and commits the result when the
// working tree is dirty. A collection missing from the database is skipped.
func (a *Archiver) Snapshot(ctx context.Context) (err error) {
	start := time.Now()
	defer func() {
		a.recorder.IncArchiveSnapshot(metrics.ResultFor(err))
		if err != nil {
			slog.Error("Archive snapshot failed",
				logfields.DurationMS(float64(time.Since(start).Milliseconds())),
				logfields.Error(err))
			return
		}
		slog.Debug("Archive snapshot finished",
			logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	}()

	repo, err := a.EnsureRepo()
	if err != nil {
		return err
	}

	exported := 0
	for _, collection := range a.collections {
		n, err := a.exportCollection(ctx, collection)
		if err != nil {
			return err
		}
		exported += n
	}

	wt, err := repo.Worktree()
	if err != nil {
		return ferrors.ArchiveError("failed to open archive worktree").WithCause(err).Build()
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return ferrors.ArchiveError("failed to stage archive changes").WithCause(err).Build()
	}

	status, err := wt.Status()
	if err != nil {
		return ferrors.ArchiveError("failed to read archive status").WithCause(err).Build()
	}
	if status.IsClean() {
		slog.Debug("Archive unchanged, skipping commit")
		return nil
	}

	message := fmt.Sprintf("snapshot: %d documents across %d collections", exported, len(a.collections))
	hash, err := wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  commitAuthorName,
			Email: commitAuthorEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return ferrors.ArchiveError("failed to commit archive snapshot").WithCause(err).Build()
	}

	slog.Info("Committed archive snapshot",
		slog.String("commit", hash.String()), slog.Int("documents", exported))
	return nil
}

// exportCollection writes every document of a collection under
// {directory}/{collection}/{name}. Returns the number of documents written.
func (a *Archiver) exportCollection(ctx context.Context, collection string) (int, error) {
	names, err := a.source.ListDocuments(ctx, collection)
	if err != nil {
		if ferrors.HasCategory(err, ferrors.CategoryNotFound) {
			slog.Warn("Collection not found, skipping in snapshot", logfields.Collection(collection))
			return 0, nil
		}
		return 0, err
	}

	// Rebuild the collection directory from scratch so documents deleted
	// from the database disappear from the next commit as well.
	dir := filepath.Join(a.directory, filepath.FromSlash(collection))
	if err := os.RemoveAll(dir); err != nil {
		return 0, ferrors.ArchiveError("failed to clear collection directory").
			WithCause(err).
			WithContext("collection", collection).
			Build()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, ferrors.ArchiveError("failed to create collection directory").
			WithCause(err).
			WithContext("collection", collection).
			Build()
	}

	for _, name := range names {
		content, err := a.source.GetDocument(ctx, collection, name)
		if err != nil {
			return 0, err
		}
		path := filepath.Join(dir, filepath.Base(name))
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return 0, ferrors.ArchiveError("failed to write archived document").
				WithCause(err).
				WithContext("document", name).
				Build()
		}
	}
	return len(names), nil
}
