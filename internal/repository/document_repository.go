// Package repository 提供了数据访问层的实现。
// 文档注册表、凭证池和采样参数都以 JSON 文档的形式存放在 kvstore 中，
// 每次变更先完整持久化，成功后才对调用方生效。
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"chunrag-go/internal/model"
	"chunrag-go/pkg/kvstore"
)

const documentsKey = "documents"

// DocumentRepository 定义了文档注册表的操作接口。
type DocumentRepository interface {
	List(ctx context.Context) ([]model.Document, error)
	Get(ctx context.Context, id string) (model.Document, error)
	Append(ctx context.Context, doc model.Document) error
	Remove(ctx context.Context, id string) (model.Document, error)
	ReplaceAll(ctx context.Context, docs []model.Document) error
}

type kvDocumentRepository struct {
	store kvstore.Store
	mu    sync.Mutex
}

// NewDocumentRepository 创建一个新的 DocumentRepository 实例。
func NewDocumentRepository(store kvstore.Store) DocumentRepository {
	return &kvDocumentRepository{store: store}
}

func (r *kvDocumentRepository) load(ctx context.Context) ([]model.Document, error) {
	data, err := r.store.Get(ctx, documentsKey)
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return []model.Document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document registry: %w", err)
	}
	var docs []model.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document registry: %w", err)
	}
	return docs, nil
}

func (r *kvDocumentRepository) persist(ctx context.Context, docs []model.Document) error {
	data, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("failed to marshal document registry: %w", err)
	}
	if err := r.store.Set(ctx, documentsKey, data); err != nil {
		return fmt.Errorf("failed to persist document registry: %w", err)
	}
	return nil
}

// List 返回注册表中的全部文档，保持录入顺序。
func (r *kvDocumentRepository) List(ctx context.Context) ([]model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

// Get 按 ID 查找文档，不存在时返回 model.ErrDocumentNotFound。
func (r *kvDocumentRepository) Get(ctx context.Context, id string) (model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	docs, err := r.load(ctx)
	if err != nil {
		return model.Document{}, err
	}
	for _, doc := range docs {
		if doc.ID == id {
			return doc, nil
		}
	}
	return model.Document{}, model.ErrDocumentNotFound
}

// Append 把新文档追加到注册表并立即落盘。
func (r *kvDocumentRepository) Append(ctx context.Context, doc model.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	docs, err := r.load(ctx)
	if err != nil {
		return err
	}
	docs = append(docs, doc)
	return r.persist(ctx, docs)
}

// Remove 按 ID 删除文档并返回被删除的记录，供调用方清理源文件。
// 持久化失败时注册表保持原状。
func (r *kvDocumentRepository) Remove(ctx context.Context, id string) (model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	docs, err := r.load(ctx)
	if err != nil {
		return model.Document{}, err
	}

	idx := -1
	for i, doc := range docs {
		if doc.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return model.Document{}, model.ErrDocumentNotFound
	}

	removed := docs[idx]
	remaining := append(docs[:idx:idx], docs[idx+1:]...)
	if err := r.persist(ctx, remaining); err != nil {
		return model.Document{}, err
	}
	return removed, nil
}

// ReplaceAll 用给定的文档集合整体替换注册表，用于重建索引后的收敛。
func (r *kvDocumentRepository) ReplaceAll(ctx context.Context, docs []model.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if docs == nil {
		docs = []model.Document{}
	}
	return r.persist(ctx, docs)
}
