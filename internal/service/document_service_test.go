package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chunrag-go/internal/model"
	"chunrag-go/internal/repository"
	"chunrag-go/pkg/kvstore"
	"chunrag-go/pkg/vectorindex"
)

// stubIngestor 返回预置结果。
type stubIngestor struct {
	doc        model.Document
	ingestErr  error
	rebuilt    []model.Document
	rebuildErr error
}

func (s *stubIngestor) Ingest(_ context.Context, _, _ string) (model.Document, error) {
	if s.ingestErr != nil {
		return model.Document{}, s.ingestErr
	}
	return s.doc, nil
}

func (s *stubIngestor) Rebuild(_ context.Context, _ []model.Document) ([]model.Document, error) {
	if s.rebuildErr != nil {
		return nil, s.rebuildErr
	}
	return s.rebuilt, nil
}

func newDocTestDeps(t *testing.T) (repository.DocumentRepository, *vectorindex.Index, string) {
	t.Helper()
	store, err := kvstore.NewFileStore(t.TempDir())
	require.NoError(t, err)
	ix := vectorindex.New(nil)
	require.NoError(t, ix.Initialize(context.Background()))
	return repository.NewDocumentRepository(store), ix, t.TempDir()
}

func TestDocumentService_IngestRegisters(t *testing.T) {
	repo, ix, uploadDir := newDocTestDeps(t)
	doc := model.Document{ID: "d1", Name: "a.txt", SourcePath: filepath.Join(uploadDir, "1-a.txt"), UploadedAt: time.Now(), ChunkCount: 2}
	svc := NewDocumentService(repo, &stubIngestor{doc: doc}, ix, uploadDir)

	got, err := svc.Ingest(context.Background(), doc.SourcePath, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "d1", got.ID)

	docs, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
}

func TestDocumentService_IngestFailureLeavesRegistryEmpty(t *testing.T) {
	repo, ix, uploadDir := newDocTestDeps(t)
	svc := NewDocumentService(repo, &stubIngestor{ingestErr: errors.New("embed failed")}, ix, uploadDir)

	_, err := svc.Ingest(context.Background(), "/tmp/x.txt", "x.txt")
	require.Error(t, err)

	docs, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestDocumentService_Delete(t *testing.T) {
	repo, ix, uploadDir := newDocTestDeps(t)
	srcPath := filepath.Join(uploadDir, "1-a.txt")
	require.NoError(t, os.WriteFile(srcPath, []byte("Hello."), 0o644))

	doc := model.Document{ID: "d1", Name: "a.txt", SourcePath: srcPath, ChunkCount: 1}
	require.NoError(t, repo.Append(context.Background(), doc))
	require.NoError(t, ix.Insert(context.Background(), []float32{1, 0}, model.Chunk{Text: "Hello.", DocumentID: "d1"}))

	svc := NewDocumentService(repo, &stubIngestor{}, ix, uploadDir)
	require.NoError(t, svc.Delete(context.Background(), "d1"))

	docs, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.Equal(t, 0, ix.Len())
	assert.NoFileExists(t, srcPath)

	err = svc.Delete(context.Background(), "d1")
	assert.ErrorIs(t, err, model.ErrDocumentNotFound)
}

// failingStore 包装真实后端，可按需让写入失败。
type failingStore struct {
	kvstore.Store
	failSet bool
}

func (s *failingStore) Set(ctx context.Context, key string, value []byte) error {
	if s.failSet {
		return errors.New("store write failed")
	}
	return s.Store.Set(ctx, key, value)
}

func TestDocumentService_DeleteFailsWhenIndexCleanupFails(t *testing.T) {
	ctx := context.Background()
	regStore, err := kvstore.NewFileStore(t.TempDir())
	require.NoError(t, err)
	repo := repository.NewDocumentRepository(regStore)

	ixStore, err := kvstore.NewFileStore(t.TempDir())
	require.NoError(t, err)
	flaky := &failingStore{Store: ixStore}
	ix := vectorindex.New(flaky)
	require.NoError(t, ix.Initialize(ctx))

	require.NoError(t, repo.Append(ctx, model.Document{ID: "d1", Name: "a.txt"}))
	require.NoError(t, ix.Insert(ctx, []float32{1, 0}, model.Chunk{Text: "Hello.", DocumentID: "d1"}))

	// 索引持久化失败时删除必须整体失败，注册表与索引保持原状，
	// 不能出现注册表已摘除而索引记录仍可检索的中间态
	flaky.failSet = true
	svc := NewDocumentService(repo, &stubIngestor{}, ix, t.TempDir())
	err = svc.Delete(ctx, "d1")
	require.Error(t, err)

	docs, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "d1", docs[0].ID)

	results, err := ix.Query([]float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "d1", results[0].Metadata.DocumentID)

	// 后端恢复后同一删除成功收敛
	flaky.failSet = false
	require.NoError(t, svc.Delete(ctx, "d1"))
	assert.Equal(t, 0, ix.Len())
	docs, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestDocumentService_ReindexPersistsSurvivors(t *testing.T) {
	repo, ix, uploadDir := newDocTestDeps(t)
	require.NoError(t, repo.Append(context.Background(), model.Document{ID: "d1", Name: "a.txt"}))
	require.NoError(t, repo.Append(context.Background(), model.Document{ID: "d2", Name: "b.txt"}))

	survivor := model.Document{ID: "d1", Name: "a.txt", ChunkCount: 4}
	svc := NewDocumentService(repo, &stubIngestor{rebuilt: []model.Document{survivor}}, ix, uploadDir)

	got, err := svc.Reindex(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)

	docs, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, 4, docs[0].ChunkCount)
}

func TestDocumentService_CleanupOrphanedFiles(t *testing.T) {
	repo, ix, uploadDir := newDocTestDeps(t)
	keep := filepath.Join(uploadDir, "1-keep.txt")
	orphan := filepath.Join(uploadDir, "2-orphan.txt")
	require.NoError(t, os.WriteFile(keep, []byte("k"), 0o644))
	require.NoError(t, os.WriteFile(orphan, []byte("o"), 0o644))

	require.NoError(t, repo.Append(context.Background(), model.Document{ID: "d1", Name: "keep.txt", SourcePath: keep}))

	svc := NewDocumentService(repo, &stubIngestor{}, ix, uploadDir)
	removed, err := svc.CleanupOrphanedFiles(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"2-orphan.txt"}, removed)
	assert.FileExists(t, keep)
	assert.NoFileExists(t, orphan)
}

func TestDocumentService_CleanupMissingDirIsNoop(t *testing.T) {
	repo, ix, _ := newDocTestDeps(t)
	svc := NewDocumentService(repo, &stubIngestor{}, ix, "/nonexistent/uploads")

	removed, err := svc.CleanupOrphanedFiles(context.Background())
	require.NoError(t, err)
	assert.Empty(t, removed)
}
