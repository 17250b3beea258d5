// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"chunrag-go/internal/config"
	"chunrag-go/internal/handler"
	"chunrag-go/internal/middleware"
	"chunrag-go/internal/pipeline"
	"chunrag-go/internal/repository"
	"chunrag-go/internal/service"
	"chunrag-go/pkg/credpool"
	"chunrag-go/pkg/embedding"
	"chunrag-go/pkg/extract"
	"chunrag-go/pkg/kvstore"
	"chunrag-go/pkg/llm"
	"chunrag-go/pkg/log"
	"chunrag-go/pkg/vectorindex"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()
	log.Info("日志记录器初始化成功")

	// 3. 初始化持久化后端
	store, err := newStore(cfg.Store, cfg.Data.Dir)
	if err != nil {
		log.Fatalf("持久化后端初始化失败: %v", err)
	}
	log.Infof("持久化后端初始化成功, backend: %s", cfg.Store.Backend)

	// 4. 初始化 Repository
	documentRepo := repository.NewDocumentRepository(store)
	credentialRepo := repository.NewCredentialRepository(store)
	settingsRepo := repository.NewSettingsRepository(store)

	// 5. 恢复凭证池与向量索引
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	pool := credpool.NewPool(time.Duration(cfg.Gateway.CredentialCooldownSeconds) * time.Second)
	persisted, err := credentialRepo.Load(startupCtx)
	if err != nil {
		log.Fatalf("加载持久化凭证失败: %v", err)
	}
	for provider, keys := range persisted {
		pool.SetProvider(provider, keys)
	}
	log.Infof("凭证池恢复完成, 提供商数: %d", len(persisted))

	index := vectorindex.New(store)
	if err := index.Initialize(startupCtx); err != nil {
		log.Fatalf("向量索引初始化失败: %v", err)
	}
	log.Infof("向量索引初始化成功, 记录数: %d", index.Len())

	// 6. 初始化 Service (依赖注入)
	embeddingClient := embedding.NewClient(cfg.Embedding, pool)
	gateway := llm.NewGateway(llm.NewRegistry(), pool, cfg.Gateway)
	processor := pipeline.NewProcessor(extract.NewExtractor(), embeddingClient, index, cfg.Chunking)

	settingsService := service.NewSettingsService(settingsRepo)
	credentialService := service.NewCredentialService(pool, credentialRepo)
	documentService := service.NewDocumentService(documentRepo, processor, index, cfg.Data.UploadDir)
	chatService := service.NewChatService(documentRepo, embeddingClient, index, gateway, settingsService, cfg.Retrieval)

	// 7. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 8. 注册路由
	api := r.Group("/api")
	{
		settingsHandler := handler.NewSettingsHandler(settingsService)
		api.GET("/models", settingsHandler.Models)
		api.GET("/parameters", settingsHandler.GetParameters)
		api.POST("/parameters", settingsHandler.UpdateParameters)

		credHandler := handler.NewCredentialHandler(credentialService)
		keys := api.Group("/keys")
		{
			keys.GET("", credHandler.Counts)
			keys.POST("", credHandler.Set)
			keys.PUT("", credHandler.Replace)
			keys.DELETE("", credHandler.ClearAll)
			keys.DELETE("/:provider", credHandler.ClearProvider)
			keys.POST("/test/:provider", credHandler.Test)
		}

		docHandler := handler.NewDocumentHandler(documentService, cfg.Data.UploadDir)
		api.POST("/upload", docHandler.Upload)
		api.POST("/cleanup", docHandler.Cleanup)
		documents := api.Group("/documents")
		{
			documents.GET("", docHandler.List)
			documents.DELETE("/:id", docHandler.Delete)
			documents.POST("/reindex", docHandler.Reindex)
		}

		api.POST("/chat", handler.NewChatHandler(chatService).Chat)
	}

	// 9. 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}
	log.Info("服务已优雅关闭")
}

// newStore 根据配置选择持久化后端。
func newStore(cfg config.StoreConfig, dataDir string) (kvstore.Store, error) {
	switch cfg.Backend {
	case "redis":
		return kvstore.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	case "file", "":
		return kvstore.NewFileStore(dataDir)
	default:
		return nil, fmt.Errorf("未知的存储后端: %s", cfg.Backend)
	}
}
