package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/scribe/pkg/adapters/file"
	"github.com/aretw0/scribe/pkg/domain"
	"github.com/aretw0/scribe/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.DocumentStore = (*file.DocumentStore)(nil)

func TestFileStore_Contract(t *testing.T) {
	ports.RunDocumentStoreContract(t, file.New(t.TempDir()))
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	rec := domain.DocumentRecord{
		ID:          "doc",
		Embed:       domain.Embed{Title: "T", Fields: []domain.Field{{Name: "a", Value: "1"}}},
		CompletedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, file.New(dir).Save(ctx, rec))

	loaded, err := file.New(dir).Load(ctx, "doc")
	require.NoError(t, err)
	assert.Equal(t, rec.Embed, loaded.Embed)

	matches, err := filepath.Glob(filepath.Join(dir, "tmp-*"))
	require.NoError(t, err)
	assert.Empty(t, matches, "temp files must not be left behind")
}

func TestFileStore_ListOrderAndJunk(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(ctx, domain.DocumentRecord{ID: "late", CompletedAt: base.Add(time.Minute)}))
	require.NoError(t, store.Save(ctx, domain.DocumentRecord{ID: "early", CompletedAt: base}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"early", "late"}, ids)
}

func TestFileStore_MissingDir(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "absent"))
	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestFileStore_InvalidID(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()
	for _, id := range []string{"", "../escape", `a\b`, ".."} {
		assert.Error(t, store.Save(ctx, domain.DocumentRecord{ID: id}), id)
		_, err := store.Load(ctx, id)
		assert.Error(t, err, id)
	}
}
