package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hustings/canvass/core"
)

func TestOpenBackendInMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)

	assert.False(t, backend.IsClosed())
	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())
}

func TestOpenBackendCreatesDirectory(t *testing.T) {
	dir := t.TempDir() + "/nested/db"

	backend, err := OpenBackend(dir, false)
	require.NoError(t, err)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestWithTransactionRollback(t *testing.T) {
	docRepo, taxRepo, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() { taxRepo.Close(); docRepo.Close(); backend.Close() }()

	ctx := context.Background()
	boom := errors.New("boom")

	err = backend.WithTransaction(ctx, func(ctx context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)

	// A passing function commits
	err = backend.WithTransaction(ctx, func(ctx context.Context) error {
		_, err := docRepo.AddDocuments(ctx, &core.Document{Filename: "tx.pdf", Status: core.StatusPending})
		return err
	})
	require.NoError(t, err)

	doc, err := docRepo.GetDocumentByFilename(ctx, "tx.pdf")
	require.NoError(t, err)
	assert.Equal(t, "tx.pdf", doc.Filename)
}
