package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"chunrag-go/pkg/kvstore"
)

const credentialsKey = "api_keys"

// CredentialRepository 负责凭证池的持久化。
// 存储形态是 provider → key 列表的映射，内存中的健康状态不落盘。
type CredentialRepository interface {
	Load(ctx context.Context) (map[string][]string, error)
	Save(ctx context.Context, creds map[string][]string) error
}

type kvCredentialRepository struct {
	store kvstore.Store
}

// NewCredentialRepository 创建一个新的 CredentialRepository 实例。
func NewCredentialRepository(store kvstore.Store) CredentialRepository {
	return &kvCredentialRepository{store: store}
}

// Load 读取持久化的凭证映射，从未保存过时返回空映射。
func (r *kvCredentialRepository) Load(ctx context.Context) (map[string][]string, error) {
	data, err := r.store.Get(ctx, credentialsKey)
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return map[string][]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}
	var creds map[string][]string
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credentials: %w", err)
	}
	return creds, nil
}

// Save 全量覆盖持久化的凭证映射。
func (r *kvCredentialRepository) Save(ctx context.Context, creds map[string][]string) error {
	if creds == nil {
		creds = map[string][]string{}
	}
	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}
	if err := r.store.Set(ctx, credentialsKey, data); err != nil {
		return fmt.Errorf("failed to persist credentials: %w", err)
	}
	return nil
}
