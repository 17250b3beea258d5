package service

import (
	"context"
	"sync"

	"chunrag-go/internal/model"
	"chunrag-go/internal/repository"
)

// SettingsService 管理进程级采样参数默认值：启动时加载到内存，
// 每次更新写穿到持久化存储后才替换内存副本。
type SettingsService interface {
	Get(ctx context.Context) (model.ModelParameters, error)
	Update(ctx context.Context, override *model.SamplingParams) (model.ModelParameters, error)
}

type settingsService struct {
	repo   repository.SettingsRepository
	mu     sync.RWMutex
	cached model.ModelParameters
	loaded bool
}

// NewSettingsService 创建一个新的 SettingsService 实例。
func NewSettingsService(repo repository.SettingsRepository) SettingsService {
	return &settingsService{repo: repo}
}

// Get 返回当前生效的采样参数默认值。
func (s *settingsService) Get(ctx context.Context) (model.ModelParameters, error) {
	s.mu.RLock()
	if s.loaded {
		defer s.mu.RUnlock()
		return s.cached, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return s.cached, nil
	}
	params, err := s.repo.Load(ctx)
	if err != nil {
		return model.ModelParameters{}, err
	}
	s.cached = params
	s.loaded = true
	return params, nil
}

// Update 用请求中的部分覆盖合并出新默认值，持久化成功后生效。
func (s *settingsService) Update(ctx context.Context, override *model.SamplingParams) (model.ModelParameters, error) {
	current, err := s.Get(ctx)
	if err != nil {
		return model.ModelParameters{}, err
	}

	merged := current.Merge(override)
	if merged.Temperature < 0 || merged.Temperature > 2 {
		return model.ModelParameters{}, model.NewValidationError("temperature must be between 0 and 2")
	}
	if merged.TopP < 0 || merged.TopP > 1 {
		return model.ModelParameters{}, model.NewValidationError("topP must be between 0 and 1")
	}
	if merged.MaxTokens <= 0 {
		return model.ModelParameters{}, model.NewValidationError("maxTokens must be positive")
	}

	if err := s.repo.Save(ctx, merged); err != nil {
		return model.ModelParameters{}, err
	}

	s.mu.Lock()
	s.cached = merged
	s.loaded = true
	s.mu.Unlock()
	return merged, nil
}
