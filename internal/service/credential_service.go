package service

import (
	"context"
	"fmt"
	"strings"

	"chunrag-go/internal/model"
	"chunrag-go/internal/repository"
	"chunrag-go/pkg/credpool"
	"chunrag-go/pkg/log"
)

// CredentialService 管理提供商 API key 的增删与校验。
// 内存中的健康状态归 credpool 管，这里只负责集合变更的持久化。
// 任何读操作都只暴露数量，绝不回传 key 本身。
type CredentialService interface {
	SetCredentials(ctx context.Context, creds map[string][]string) error
	ReplaceCredentials(ctx context.Context, provider string, keys []string) error
	ClearProvider(ctx context.Context, provider string) error
	ClearAll(ctx context.Context) error
	Counts() map[string]int
	TestCredential(provider, key string) (bool, string, error)
}

type credentialService struct {
	pool *credpool.Pool
	repo repository.CredentialRepository
}

// NewCredentialService 创建一个新的 CredentialService 实例。
func NewCredentialService(pool *credpool.Pool, repo repository.CredentialRepository) CredentialService {
	return &credentialService{pool: pool, repo: repo}
}

// SetCredentials 把传入的 key 合并进各自提供商的池（已存在的去重），
// 然后把合并后的全量快照落盘。
func (s *credentialService) SetCredentials(ctx context.Context, creds map[string][]string) error {
	if len(creds) == 0 {
		return model.NewValidationError("no credentials provided")
	}
	for provider, keys := range creds {
		if provider == "" {
			return model.NewValidationError("provider name must not be empty")
		}
		s.pool.SetProvider(provider, keys)
	}
	return s.persist(ctx)
}

// ReplaceCredentials 用给定列表整体替换某个提供商的 key 集合，
// 空列表等价于清空该提供商。
func (s *credentialService) ReplaceCredentials(ctx context.Context, provider string, keys []string) error {
	if provider == "" {
		return model.NewValidationError("provider name must not be empty")
	}
	s.pool.ReplaceProvider(provider, keys)
	return s.persist(ctx)
}

// ClearProvider 移除某个提供商的全部 key。
func (s *credentialService) ClearProvider(ctx context.Context, provider string) error {
	if provider == "" {
		return model.NewValidationError("provider name must not be empty")
	}
	s.pool.RemoveProvider(provider)
	return s.persist(ctx)
}

// ClearAll 移除所有提供商的全部 key。
func (s *credentialService) ClearAll(ctx context.Context) error {
	s.pool.RemoveAll()
	return s.persist(ctx)
}

// Counts 返回 provider → key 数量的映射。
func (s *credentialService) Counts() map[string]int {
	return s.pool.Counts()
}

// TestCredential 对 key 做离线格式校验，不发起真实调用。
// 返回值依次是是否通过、面向用户的提示语。
func (s *credentialService) TestCredential(provider, key string) (bool, string, error) {
	if strings.TrimSpace(key) == "" {
		return false, "", model.NewValidationError("API key is required")
	}

	var valid bool
	switch provider {
	case "gemini":
		valid = strings.HasPrefix(key, "AIza") && len(key) > 20
	case "openrouter":
		valid = strings.HasPrefix(key, "sk-or-") && len(key) > 20
	case "huggingface":
		valid = strings.HasPrefix(key, "hf_") && len(key) > 10
	case "nvidia":
		valid = strings.HasPrefix(key, "nvapi-") && len(key) > 20
	case "mistral", "cohere", "chutes", "requesty":
		valid = len(key) > 10
	default:
		return false, "", model.NewValidationError("unknown provider: %s", provider)
	}

	if valid {
		return true, fmt.Sprintf("%s API key format is valid", provider), nil
	}
	return false, fmt.Sprintf("invalid %s API key format", provider), nil
}

// persist 把池的当前快照写入存储。
func (s *credentialService) persist(ctx context.Context) error {
	if err := s.repo.Save(ctx, s.pool.Snapshot()); err != nil {
		return fmt.Errorf("failed to persist credentials: %w", err)
	}
	log.Infof("[CredentialService] 凭证集合已更新, 提供商数: %d", len(s.pool.Counts()))
	return nil
}
