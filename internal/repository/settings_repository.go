package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"chunrag-go/internal/model"
	"chunrag-go/pkg/kvstore"
)

const settingsKey = "model_parameters"

// SettingsRepository 负责全局采样参数默认值的持久化。
type SettingsRepository interface {
	Load(ctx context.Context) (model.ModelParameters, error)
	Save(ctx context.Context, params model.ModelParameters) error
}

type kvSettingsRepository struct {
	store kvstore.Store
}

// NewSettingsRepository 创建一个新的 SettingsRepository 实例。
func NewSettingsRepository(store kvstore.Store) SettingsRepository {
	return &kvSettingsRepository{store: store}
}

// Load 读取持久化的采样参数，从未保存过时返回内置默认值。
func (r *kvSettingsRepository) Load(ctx context.Context) (model.ModelParameters, error) {
	data, err := r.store.Get(ctx, settingsKey)
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return model.DefaultModelParameters(), nil
	}
	if err != nil {
		return model.ModelParameters{}, fmt.Errorf("failed to load model parameters: %w", err)
	}
	var params model.ModelParameters
	if err := json.Unmarshal(data, &params); err != nil {
		return model.ModelParameters{}, fmt.Errorf("failed to unmarshal model parameters: %w", err)
	}
	return params, nil
}

// Save 持久化新的采样参数默认值。
func (r *kvSettingsRepository) Save(ctx context.Context, params model.ModelParameters) error {
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to marshal model parameters: %w", err)
	}
	if err := r.store.Set(ctx, settingsKey, data); err != nil {
		return fmt.Errorf("failed to persist model parameters: %w", err)
	}
	return nil
}
