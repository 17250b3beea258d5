// Package vectorindex 实现进程内的向量索引：暴力余弦相似度检索，
// 读写锁保证并发查询与整体重建互斥。索引内容通过 kvstore 持久化，
// 重启后 Initialize 恢复全部记录。
package vectorindex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"chunrag-go/internal/model"
	"chunrag-go/pkg/kvstore"
)

// storeKey 是索引在持久化存储中的 key。
const storeKey = "vectorIndex"

// ErrNotInitialized 表示在 Initialize 之前调用了索引操作。
var ErrNotInitialized = errors.New("vector index not initialized")

// Record 是索引中持久化的最小单元：一个向量加上它的分块元数据。
type Record struct {
	Vector   []float32   `json:"vector"`
	Metadata model.Chunk `json:"metadata"`
}

// Result 是一次相似度查询的单条命中。
type Result struct {
	Metadata model.Chunk
	Score    float64
}

// Index 是进程内向量索引。
// 多个查询可以并发进行；Rebuild 持有排它锁并整体换入新内容，
// 任何查询都只会看到完全旧或完全新的索引。
type Index struct {
	mu          sync.RWMutex
	store       kvstore.Store
	records     []Record
	initialized bool
}

// New 创建一个尚未初始化的索引。store 为 nil 时索引只驻留内存。
func New(store kvstore.Store) *Index {
	return &Index{store: store}
}

// Initialize 从持久化存储恢复索引内容，幂等。
func (ix *Index) Initialize(ctx context.Context) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.initialized {
		return nil
	}
	if ix.store != nil {
		data, err := ix.store.Get(ctx, storeKey)
		switch {
		case errors.Is(err, kvstore.ErrKeyNotFound):
			// 首次启动，空索引
		case err != nil:
			return fmt.Errorf("恢复向量索引失败: %w", err)
		default:
			var records []Record
			if err := json.Unmarshal(data, &records); err != nil {
				return fmt.Errorf("解析持久化的向量索引失败: %w", err)
			}
			ix.records = records
		}
	}
	ix.initialized = true
	return nil
}

// IsInitialized 报告索引是否已完成初始化。
func (ix *Index) IsInitialized() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.initialized
}

// Insert 追加一条记录并同步持久化。
func (ix *Index) Insert(ctx context.Context, vector []float32, metadata model.Chunk) error {
	return ix.InsertBatch(ctx, []Record{{Vector: vector, Metadata: metadata}})
}

// InsertBatch 原子地追加一批记录：持久化成功后才对查询可见。
func (ix *Index) InsertBatch(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if !ix.initialized {
		return ErrNotInitialized
	}
	next := make([]Record, 0, len(ix.records)+len(records))
	next = append(next, ix.records...)
	next = append(next, records...)
	if err := ix.persist(ctx, next); err != nil {
		return err
	}
	ix.records = next
	return nil
}

// Query 返回与 vector 最相似的 k 条记录，按相似度降序；
// 分数相同的记录按插入顺序稳定排序。
func (ix *Index) Query(vector []float32, k int) ([]Result, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if !ix.initialized {
		return nil, ErrNotInitialized
	}
	if k <= 0 || len(ix.records) == 0 {
		return []Result{}, nil
	}

	results := make([]Result, 0, len(ix.records))
	for _, r := range ix.records {
		results = append(results, Result{
			Metadata: r.Metadata,
			Score:    cosineSimilarity(vector, r.Vector),
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// Rebuild 原子地用 records 替换索引的全部内容。
// 这是删除路径的兜底与损坏恢复手段，常规删除用 DeleteByDocument。
func (ix *Index) Rebuild(ctx context.Context, records []Record) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if !ix.initialized {
		return ErrNotInitialized
	}
	next := make([]Record, len(records))
	copy(next, records)
	if err := ix.persist(ctx, next); err != nil {
		return err
	}
	ix.records = next
	return nil
}

// DeleteByDocument 删除 documentID 拥有的全部记录，返回删除条数。
func (ix *Index) DeleteByDocument(ctx context.Context, documentID string) (int, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if !ix.initialized {
		return 0, ErrNotInitialized
	}
	next := make([]Record, 0, len(ix.records))
	for _, r := range ix.records {
		if r.Metadata.DocumentID != documentID {
			next = append(next, r)
		}
	}
	removed := len(ix.records) - len(next)
	if removed == 0 {
		return 0, nil
	}
	if err := ix.persist(ctx, next); err != nil {
		return 0, err
	}
	ix.records = next
	return removed, nil
}

// Len 返回索引中的记录总数。
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.records)
}

// persist 在持有写锁的前提下把 records 写入持久化存储。
func (ix *Index) persist(ctx context.Context, records []Record) error {
	if ix.store == nil {
		return nil
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("序列化向量索引失败: %w", err)
	}
	if err := ix.store.Set(ctx, storeKey, data); err != nil {
		return fmt.Errorf("持久化向量索引失败: %w", err)
	}
	return nil
}

// cosineSimilarity 计算两个向量的余弦相似度，零向量返回 0。
func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
