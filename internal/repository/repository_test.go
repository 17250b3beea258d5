package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chunrag-go/internal/model"
	"chunrag-go/pkg/kvstore"
)

func newTestStore(t *testing.T) kvstore.Store {
	t.Helper()
	store, err := kvstore.NewFileStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func sampleDocument(id, name string) model.Document {
	return model.Document{
		ID:         id,
		Name:       name,
		SourcePath: "/data/uploads/1700000000000-" + name,
		UploadedAt: time.Now().UTC().Truncate(time.Second),
		ChunkCount: 3,
	}
}

func TestDocumentRepository_AppendAndList(t *testing.T) {
	repo := NewDocumentRepository(newTestStore(t))
	ctx := context.Background()

	docs, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)

	require.NoError(t, repo.Append(ctx, sampleDocument("d1", "a.txt")))
	require.NoError(t, repo.Append(ctx, sampleDocument("d2", "b.md")))

	docs, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "d1", docs[0].ID)
	assert.Equal(t, "d2", docs[1].ID)
}

func TestDocumentRepository_Remove(t *testing.T) {
	store := newTestStore(t)
	repo := NewDocumentRepository(store)
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, sampleDocument("d1", "a.txt")))
	require.NoError(t, repo.Append(ctx, sampleDocument("d2", "b.md")))

	removed, err := repo.Remove(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "a.txt", removed.Name)

	docs, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "d2", docs[0].ID)

	_, err = repo.Remove(ctx, "d1")
	assert.ErrorIs(t, err, model.ErrDocumentNotFound)

	// 删除后立即重开仓库仍然看不到 d1
	reopened := NewDocumentRepository(store)
	docs, err = reopened.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
}

func TestDocumentRepository_Get(t *testing.T) {
	repo := NewDocumentRepository(newTestStore(t))
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, sampleDocument("d1", "a.txt")))

	doc, err := repo.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "a.txt", doc.Name)

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrDocumentNotFound)
}

func TestDocumentRepository_ReplaceAll(t *testing.T) {
	repo := NewDocumentRepository(newTestStore(t))
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, sampleDocument("d1", "a.txt")))
	require.NoError(t, repo.Append(ctx, sampleDocument("d2", "b.md")))

	require.NoError(t, repo.ReplaceAll(ctx, []model.Document{sampleDocument("d3", "c.csv")}))

	docs, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "d3", docs[0].ID)

	require.NoError(t, repo.ReplaceAll(ctx, nil))
	docs, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestCredentialRepository_RoundTrip(t *testing.T) {
	repo := NewCredentialRepository(newTestStore(t))
	ctx := context.Background()

	creds, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, creds)

	want := map[string][]string{
		"gemini":  {"g1", "g2"},
		"mistral": {"m1"},
	}
	require.NoError(t, repo.Save(ctx, want))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSettingsRepository_DefaultsWhenEmpty(t *testing.T) {
	repo := NewSettingsRepository(newTestStore(t))
	ctx := context.Background()

	params, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultModelParameters(), params)
}

func TestSettingsRepository_RoundTrip(t *testing.T) {
	repo := NewSettingsRepository(newTestStore(t))
	ctx := context.Background()

	params := model.DefaultModelParameters()
	params.Temperature = 0.2
	params.MaxTokens = 512
	require.NoError(t, repo.Save(ctx, params))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 0.2, got.Temperature, 1e-9)
	assert.Equal(t, 512, got.MaxTokens)
}
