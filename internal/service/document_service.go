package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"chunrag-go/internal/model"
	"chunrag-go/internal/repository"
	"chunrag-go/pkg/log"
	"chunrag-go/pkg/vectorindex"
)

// Ingestor 抽象摄取流水线，便于在测试中替换。
type Ingestor interface {
	Ingest(ctx context.Context, filePath, originalName string) (model.Document, error)
	Rebuild(ctx context.Context, docs []model.Document) ([]model.Document, error)
}

// DocumentService 定义了文档生命周期的操作接口。
type DocumentService interface {
	List(ctx context.Context) ([]model.Document, error)
	Ingest(ctx context.Context, filePath, originalName string) (model.Document, error)
	Delete(ctx context.Context, id string) error
	Reindex(ctx context.Context) ([]model.Document, error)
	CleanupOrphanedFiles(ctx context.Context) ([]string, error)
}

type documentService struct {
	repo      repository.DocumentRepository
	processor Ingestor
	index     *vectorindex.Index
	uploadDir string
}

// NewDocumentService 创建一个新的 DocumentService 实例。
func NewDocumentService(repo repository.DocumentRepository, processor Ingestor, index *vectorindex.Index, uploadDir string) DocumentService {
	return &documentService{
		repo:      repo,
		processor: processor,
		index:     index,
		uploadDir: uploadDir,
	}
}

// List 返回注册表中的全部文档。
func (s *documentService) List(ctx context.Context) ([]model.Document, error) {
	return s.repo.List(ctx)
}

// Ingest 摄取一篇已落盘的上传文件并登记到注册表。
// 注册表写入失败时回滚已插入的索引记录，保证两边一致。
func (s *documentService) Ingest(ctx context.Context, filePath, originalName string) (model.Document, error) {
	doc, err := s.processor.Ingest(ctx, filePath, originalName)
	if err != nil {
		return model.Document{}, err
	}

	if err := s.repo.Append(ctx, doc); err != nil {
		if _, delErr := s.index.DeleteByDocument(ctx, doc.ID); delErr != nil {
			log.Errorf("[DocumentService] 注册失败后回滚索引也失败, ID: %s: %v", doc.ID, delErr)
		}
		return model.Document{}, fmt.Errorf("failed to register document: %w", err)
	}

	log.Infof("[DocumentService] 文档已登记, ID: %s, Name: %s, 分块数: %d", doc.ID, doc.Name, doc.ChunkCount)
	return doc, nil
}

// Delete 删除文档：先清理该文档在索引中的全部记录，成功后才从
// 注册表摘除，最后尽力删除源文件。索引清理失败时整个删除失败，
// 注册表保持原状，不会留下无主的索引记录；只有文件删除是尽力而为。
func (s *documentService) Delete(ctx context.Context, id string) error {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	n, err := s.index.DeleteByDocument(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete index records for document %s: %w", id, err)
	}
	log.Infof("[DocumentService] 已删除文档 %s 的 %d 条索引记录", id, n)

	if _, err := s.repo.Remove(ctx, id); err != nil {
		return err
	}

	if doc.SourcePath != "" {
		if err := os.Remove(doc.SourcePath); err != nil && !os.IsNotExist(err) {
			log.Warnf("[DocumentService] 删除源文件失败, Path: %s: %v", doc.SourcePath, err)
		}
	}
	return nil
}

// Reindex 从源文件全量重建索引，并把存活文档集合写回注册表。
// 用于索引损坏后的恢复。
func (s *documentService) Reindex(ctx context.Context) ([]model.Document, error) {
	docs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	survivors, err := s.processor.Rebuild(ctx, docs)
	if err != nil {
		return nil, err
	}

	if err := s.repo.ReplaceAll(ctx, survivors); err != nil {
		return nil, fmt.Errorf("failed to persist rebuilt registry: %w", err)
	}
	return survivors, nil
}

// CleanupOrphanedFiles 删除上传目录中未被任何注册文档引用的文件，
// 返回被删除的文件名列表。
func (s *documentService) CleanupOrphanedFiles(ctx context.Context) ([]string, error) {
	docs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	referenced := make(map[string]struct{}, len(docs))
	for _, doc := range docs {
		referenced[filepath.Base(doc.SourcePath)] = struct{}{}
	}

	entries, err := os.ReadDir(s.uploadDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read upload dir: %w", err)
	}

	removed := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := referenced[entry.Name()]; ok {
			continue
		}
		path := filepath.Join(s.uploadDir, entry.Name())
		if err := os.Remove(path); err != nil {
			log.Warnf("[DocumentService] 删除孤儿文件失败, Path: %s: %v", path, err)
			continue
		}
		removed = append(removed, entry.Name())
	}

	if len(removed) > 0 {
		log.Infof("[DocumentService] 清理了 %d 个孤儿文件", len(removed))
	}
	return removed, nil
}
