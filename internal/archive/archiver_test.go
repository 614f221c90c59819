package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	git "github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revlogica/orchestrator/internal/config"
	ferrors "github.com/revlogica/orchestrator/internal/foundation/errors"
)

type fakeLister struct {
	docs map[string]map[string]string // collection -> name -> content
}

func (f *fakeLister) ListDocuments(_ context.Context, collection string) ([]string, error) {
	docs, ok := f.docs[collection]
	if !ok {
		return nil, ferrors.NotFoundError("collection not found").Build()
	}
	names := make([]string, 0, len(docs))
	for name := range docs {
		names = append(names, name)
	}
	return names, nil
}

func (f *fakeLister) GetDocument(_ context.Context, collection, name string) (string, error) {
	return f.docs[collection][name], nil
}

func newTestArchiver(t *testing.T, lister *fakeLister) *Archiver {
	t.Helper()
	return New(config.ArchiveConfig{
		Directory:   t.TempDir(),
		Collections: []string{"manuscripts"},
	}, lister)
}

func TestSnapshotExportsAndCommits(t *testing.T) {
	lister := &fakeLister{docs: map[string]map[string]string{
		"manuscripts": {"ms-001.xml": "<TEI/>"},
	}}
	a := newTestArchiver(t, lister)

	require.NoError(t, a.Snapshot(context.Background()))

	content, err := os.ReadFile(filepath.Join(a.directory, "manuscripts", "ms-001.xml"))
	require.NoError(t, err)
	assert.Equal(t, "<TEI/>", string(content))

	repo, err := git.PlainOpen(a.directory)
	require.NoError(t, err)
	head, err := repo.Head()
	require.NoError(t, err)
	assert.False(t, head.Hash().IsZero())
}

func TestSnapshotSkipsCommitWhenUnchanged(t *testing.T) {
	lister := &fakeLister{docs: map[string]map[string]string{
		"manuscripts": {"ms-001.xml": "<TEI/>"},
	}}
	a := newTestArchiver(t, lister)
	ctx := context.Background()

	require.NoError(t, a.Snapshot(ctx))
	repo, err := git.PlainOpen(a.directory)
	require.NoError(t, err)
	first, err := repo.Head()
	require.NoError(t, err)

	// Unchanged content must not produce a second commit.
	require.NoError(t, a.Snapshot(ctx))
	second, err := repo.Head()
	require.NoError(t, err)
	assert.Equal(t, first.Hash(), second.Hash())

	// Changed content produces a new commit.
	lister.docs["manuscripts"]["ms-001.xml"] = "<TEI><revised/></TEI>"
	require.NoError(t, a.Snapshot(ctx))
	third, err := repo.Head()
	require.NoError(t, err)
	assert.NotEqual(t, second.Hash(), third.Hash())
}

func TestSnapshotVersionsDeletions(t *testing.T) {
	lister := &fakeLister{docs: map[string]map[string]string{
		"manuscripts": {"ms-001.xml": "<TEI/>", "ms-002.xml": "<TEI/>"},
	}}
	a := newTestArchiver(t, lister)
	ctx := context.Background()

	require.NoError(t, a.Snapshot(ctx))
	repo, err := git.PlainOpen(a.directory)
	require.NoError(t, err)
	first, err := repo.Head()
	require.NoError(t, err)

	delete(lister.docs["manuscripts"], "ms-002.xml")
	require.NoError(t, a.Snapshot(ctx))

	_, err = os.Stat(filepath.Join(a.directory, "manuscripts", "ms-002.xml"))
	assert.True(t, os.IsNotExist(err), "deleted document must leave the working tree")
	second, err := repo.Head()
	require.NoError(t, err)
	assert.NotEqual(t, first.Hash(), second.Hash(), "deletion must produce a commit")

	content, err := os.ReadFile(filepath.Join(a.directory, "manuscripts", "ms-001.xml"))
	require.NoError(t, err)
	assert.Equal(t, "<TEI/>", string(content))
}

func TestSnapshotSkipsMissingCollections(t *testing.T) {
	a := newTestArchiver(t, &fakeLister{docs: map[string]map[string]string{}})
	assert.NoError(t, a.Snapshot(context.Background()))
}

func TestEnsureRepoIsIdempotent(t *testing.T) {
	a := newTestArchiver(t, &fakeLister{})

	_, err := a.EnsureRepo()
	require.NoError(t, err)
	_, err = a.EnsureRepo()
	require.NoError(t, err)
}
