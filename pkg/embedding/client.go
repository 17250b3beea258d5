// Package embedding provides a client for interacting with embedding models.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"chunrag-go/internal/config"
	"chunrag-go/internal/model"
	"chunrag-go/pkg/log"
)

// Client defines the interface for an embedding client.
type Client interface {
	CreateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// KeySource 提供向量化所需的 API key（凭证池实现此接口）。
type KeySource interface {
	FirstSecret(provider string) (string, error)
}

// 向量化固定走 gemini 提供商的 key 池。
const embeddingProvider = "gemini"

type geminiClient struct {
	cfg    config.EmbeddingConfig
	keys   KeySource
	client *http.Client
}

// NewClient creates a new embedding client backed by the Gemini embedContent API.
func NewClient(cfg config.EmbeddingConfig, keys KeySource) Client {
	return &geminiClient{
		cfg:    cfg,
		keys:   keys,
		client: &http.Client{},
	}
}

type embedContentRequest struct {
	Content struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"content"`
	OutputDimensionality int `json:"outputDimensionality,omitempty"`
}

type embedContentResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

// CreateEmbedding calls the Gemini embedContent API to get the vector for a given text.
func (c *geminiClient) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	apiKey, err := c.keys.FirstSecret(embeddingProvider)
	if err != nil {
		return nil, model.ErrEmbeddingUnavailable
	}

	log.Infof("[EmbeddingClient] 开始调用 Embedding API, model: %s, input_len: %d", c.cfg.Model, len(text))

	var reqBody embedContentRequest
	reqBody.Content.Parts = []struct {
		Text string `json:"text"`
	}{{Text: text}}
	reqBody.OutputDimensionality = c.cfg.Dimensions

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedding request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:embedContent", c.cfg.BaseURL, c.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(reqBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		log.Errorf("[EmbeddingClient] 调用 Embedding API 失败, error: %v", err)
		return nil, fmt.Errorf("failed to call embedding api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Errorf("[EmbeddingClient] Embedding API 返回非 200 状态码: %s", resp.Status)
		return nil, fmt.Errorf("embedding api returned non-200 status: %s", resp.Status)
	}

	var embeddingResp embedContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&embeddingResp); err != nil {
		log.Errorf("[EmbeddingClient] 解析 Embedding API 响应失败, error: %v", err)
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}

	if len(embeddingResp.Embedding.Values) == 0 {
		log.Warnf("[EmbeddingClient] Embedding API 返回了空的向量数据")
		return nil, fmt.Errorf("received empty embedding from api")
	}

	log.Infof("[EmbeddingClient] 成功从 Embedding API 获取向量, 维度: %d", len(embeddingResp.Embedding.Values))
	return embeddingResp.Embedding.Values, nil
}
