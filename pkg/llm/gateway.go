package llm

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"chunrag-go/internal/config"
	"chunrag-go/internal/model"
	"chunrag-go/pkg/credpool"
	"chunrag-go/pkg/log"
)

// Gateway 负责把一次聊天请求派发给目标提供商：
// 在该提供商的 key 池上逐个凭证尝试（上限为池大小，至少一次），
// 瞬时故障在同一凭证上做有界指数退避重试，限流/认证失败把凭证
// 标记为不健康后换下一把，致命错误立即中止。
type Gateway struct {
	registry Registry
	pool     *credpool.Pool
	client   *http.Client
	cfg      config.GatewayConfig
}

// NewGateway 创建 LLM 网关。
func NewGateway(registry Registry, pool *credpool.Pool, cfg config.GatewayConfig) *Gateway {
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 30
	}
	if cfg.RetryMax <= 0 {
		cfg.RetryMax = 1
	}
	if cfg.BackoffBaseMillis < 0 {
		cfg.BackoffBaseMillis = 0
	}
	return &Gateway{
		registry: registry,
		pool:     pool,
		client:   &http.Client{},
		cfg:      cfg,
	}
}

// GenerateResponse 执行一次归一化的聊天调用，返回提供商生成的文本。
// 耗尽全部凭证与重试预算后返回 *GatewayError，其中只携带分类后的原因。
func (g *Gateway) GenerateResponse(ctx context.Context, messages []Message, settings Settings) (string, error) {
	adapter, ok := g.registry[settings.Provider]
	if !ok {
		return "", model.NewValidationError("unknown provider: %s", settings.Provider)
	}

	attempts := g.pool.Count(settings.Provider)
	if attempts < 1 {
		attempts = 1
	}
	log.Infof("[LLMGateway] 开始调用, provider: %s, model: %s, 凭证预算: %d", settings.Provider, settings.Model, attempts)

	var lastCause error
	for attempt := 1; attempt <= attempts; attempt++ {
		cred, err := g.pool.Next(settings.Provider)
		if err != nil {
			if lastCause == nil {
				lastCause = err
			}
			break
		}

		text, err := g.callWithRetry(ctx, adapter, messages, settings, cred.Secret)
		if err == nil {
			g.pool.MarkHealthy(cred)
			log.Infof("[LLMGateway] 调用成功, provider: %s, 第 %d 把凭证", settings.Provider, attempt)
			return text, nil
		}

		var callErr *CallError
		if !errors.As(err, &callErr) {
			// 非分类错误（如 MalformedResponseError）直接上浮，不再换凭证
			return "", err
		}
		lastCause = callErr

		switch callErr.Class {
		case ClassRateLimited, ClassAuthFailure:
			g.pool.MarkFailed(cred, callErr.Reason)
			log.Warnf("[LLMGateway] 凭证不可用 (%s), 切换下一把, provider: %s, 尝试 %d/%d", callErr.Class, settings.Provider, attempt, attempts)
		case ClassFatal:
			log.Errorf("[LLMGateway] 致命错误, 中止调用, provider: %s: %v", settings.Provider, callErr)
			return "", &GatewayError{Provider: settings.Provider, Attempts: attempt, Cause: callErr}
		default:
			// 可重试错误已在 callWithRetry 内耗尽预算，换下一把凭证
			log.Warnf("[LLMGateway] 瞬时故障重试耗尽, 切换下一把凭证, provider: %s, 尝试 %d/%d", settings.Provider, attempt, attempts)
		}
	}

	log.Errorf("[LLMGateway] 全部凭证耗尽, provider: %s: %v", settings.Provider, lastCause)
	return "", &GatewayError{Provider: settings.Provider, Attempts: attempts, Cause: lastCause}
}

// callWithRetry 在单把凭证上执行调用：仅对 ClassRetryable 做有界
// 指数退避重试，其余分类立即返回。
func (g *Gateway) callWithRetry(ctx context.Context, adapter ProviderAdapter, messages []Message, settings Settings, apiKey string) (string, error) {
	var lastErr error
	for r := 0; r < g.cfg.RetryMax; r++ {
		text, err := g.call(ctx, adapter, messages, settings, apiKey)
		if err == nil {
			return text, nil
		}

		var callErr *CallError
		if !errors.As(err, &callErr) || callErr.Class != ClassRetryable {
			return "", err
		}
		lastErr = err

		if r < g.cfg.RetryMax-1 {
			backoff := time.Duration(g.cfg.BackoffBaseMillis) * time.Millisecond << uint(r)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", &CallError{Class: ClassRetryable, Reason: "context canceled during backoff"}
			}
		}
	}
	return "", lastErr
}

// call 执行单次带超时的提供商调用。
func (g *Gateway) call(ctx context.Context, adapter ProviderAdapter, messages []Message, settings Settings, apiKey string) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, time.Duration(g.cfg.TimeoutSeconds)*time.Second)
	defer cancel()

	req, err := adapter.BuildRequest(attemptCtx, messages, settings, apiKey)
	if err != nil {
		return "", &CallError{Class: ClassFatal, Reason: "failed to build provider request"}
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", &CallError{Class: ClassRetryable, Reason: "network error"}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &CallError{Class: ClassRetryable, Reason: "failed to read provider response"}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", adapter.ClassifyError(resp.StatusCode, body)
	}
	return adapter.ParseResponse(body)
}
