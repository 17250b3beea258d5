package kvstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// fileStore 把每个 key 存为数据目录下的一个独立 JSON 文件。
// 写入先落临时文件再 rename，保证崩溃时旧内容完整。
type fileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore 创建一个以本地目录为后端的 Store，目录不存在时自动创建。
func NewFileStore(dir string) (Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("创建数据目录失败: %w", err)
	}
	return &fileStore{dir: dir}, nil
}

func (s *fileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Get 读取 key 对应的 JSON 文件内容。
func (s *fileStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("读取 %s 失败: %w", key, err)
	}
	return data, nil
}

// Set 原子地写入 key 对应的 JSON 文件（临时文件 + rename）。
func (s *fileStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.path(key)
	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("创建临时文件失败: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("写入临时文件失败: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("刷盘失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("关闭临时文件失败: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("替换 %s 失败: %w", key, err)
	}
	return nil
}

// Delete 删除 key 对应的文件，不存在时视为成功。
func (s *fileStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("删除 %s 失败: %w", key, err)
	}
	return nil
}
