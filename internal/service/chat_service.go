// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"fmt"
	"strings"

	"chunrag-go/internal/config"
	"chunrag-go/internal/model"
	"chunrag-go/pkg/embedding"
	"chunrag-go/pkg/llm"
	"chunrag-go/pkg/log"
	"chunrag-go/pkg/vectorindex"
)

// ResponseGenerator 抽象 LLM 网关，便于在测试中替换。
type ResponseGenerator interface {
	GenerateResponse(ctx context.Context, messages []llm.Message, settings llm.Settings) (string, error)
}

// ChatService 定义了聊天编排的接口。
type ChatService interface {
	Chat(ctx context.Context, req model.ChatRequest) (model.ChatResponse, error)
}

type chatService struct {
	documentRepo DocumentLister
	embedder     embedding.Client
	index        *vectorindex.Index
	gateway      ResponseGenerator
	settings     SettingsService
	retrievalCfg config.RetrievalConfig
}

// DocumentLister 是 chatService 对文档注册表的最小依赖。
type DocumentLister interface {
	List(ctx context.Context) ([]model.Document, error)
}

// NewChatService 创建一个新的 ChatService 实例。
func NewChatService(
	documentRepo DocumentLister,
	embedder embedding.Client,
	index *vectorindex.Index,
	gateway ResponseGenerator,
	settings SettingsService,
	retrievalCfg config.RetrievalConfig,
) ChatService {
	if retrievalCfg.TopK <= 0 {
		retrievalCfg.TopK = 3
	}
	return &chatService{
		documentRepo: documentRepo,
		embedder:     embedder,
		index:        index,
		gateway:      gateway,
		settings:     settings,
		retrievalCfg: retrievalCfg,
	}
}

// Chat 协调一轮 RAG 聊天：检索上下文、拼装消息、调用网关。
// 注册表为空时跳过检索；注册表非空而嵌入失败时整轮失败，
// 不会静默退化成无上下文回答。
func (s *chatService) Chat(ctx context.Context, req model.ChatRequest) (model.ChatResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return model.ChatResponse{}, model.NewValidationError("message is required")
	}
	if req.Provider == "" || req.Model == "" {
		return model.ChatResponse{}, model.NewValidationError("provider and model are required")
	}

	contextText, err := s.retrieveContext(ctx, req.Message)
	if err != nil {
		return model.ChatResponse{}, err
	}

	messages := s.composeMessages(req, contextText)

	params, err := s.settings.Get(ctx)
	if err != nil {
		log.Errorf("[ChatService] 读取采样参数失败, 使用出厂默认值: %v", err)
		params = model.DefaultModelParameters()
	}

	text, err := s.gateway.GenerateResponse(ctx, messages, llm.Settings{
		Provider: req.Provider,
		Model:    req.Model,
		Params:   params.Merge(req.Parameters),
	})
	if err != nil {
		return model.ChatResponse{}, err
	}

	return model.ChatResponse{Text: text, ContextUsed: contextText != ""}, nil
}

// retrieveContext 在注册表非空时做 top-k 相似度检索并拼接块文本。
func (s *chatService) retrieveContext(ctx context.Context, query string) (string, error) {
	docs, err := s.documentRepo.List(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list documents: %w", err)
	}
	if len(docs) == 0 {
		return "", nil
	}

	queryVector, err := s.embedder.CreateEmbedding(ctx, query)
	if err != nil {
		return "", fmt.Errorf("failed to embed query: %w", err)
	}

	results, err := s.index.Query(queryVector, s.retrievalCfg.TopK)
	if err != nil {
		return "", fmt.Errorf("failed to query vector index: %w", err)
	}
	if len(results) == 0 {
		return "", nil
	}

	texts := make([]string, 0, len(results))
	for _, r := range results {
		texts = append(texts, r.Metadata.Text)
	}
	log.Infof("[ChatService] 检索到 %d 个上下文分块", len(results))
	return strings.Join(texts, "\n\n"), nil
}

// composeMessages 按固定顺序拼装消息：自定义 system 提示、
// 文档上下文 system 消息、用户消息。
func (s *chatService) composeMessages(req model.ChatRequest, contextText string) []llm.Message {
	messages := make([]llm.Message, 0, 3)
	if req.SystemPrompt != "" {
		messages = append(messages, llm.Message{Role: "system", Content: req.SystemPrompt})
	}
	if contextText != "" {
		messages = append(messages, llm.Message{
			Role:    "system",
			Content: fmt.Sprintf("Context from uploaded documents:\n\n%s\n\nPlease use this context to answer the user's question when relevant.", contextText),
		})
	}
	messages = append(messages, llm.Message{Role: "user", Content: req.Message})
	return messages
}
