// Package config 负责加载和管理应用程序的配置。
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Data      DataConfig      `mapstructure:"data"`
	Store     StoreConfig     `mapstructure:"store"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Chunking  ChunkingConfig  `mapstructure:"chunking"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	Gateway   GatewayConfig   `mapstructure:"gateway"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// DataConfig 存储本地数据目录的配置。
type DataConfig struct {
	// Dir 是持久化 JSON 数据（documents/api_keys/model_parameters/vector_index）的目录。
	Dir string `mapstructure:"dir"`
	// UploadDir 是上传文件的落盘目录，删除文档时会连带删除其中的源文件。
	UploadDir string `mapstructure:"upload_dir"`
}

// StoreConfig 选择持久化后端：file（本地 JSON 文件）或 redis。
type StoreConfig struct {
	Backend string      `mapstructure:"backend"`
	Redis   RedisConfig `mapstructure:"redis"`
}

// RedisConfig 存储 Redis 的配置。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// EmbeddingConfig 存储 Embedding 模型相关的配置。
// API Key 不在此处配置：向量化使用凭证池中 gemini 提供商的第一把 key。
type EmbeddingConfig struct {
	Model      string `mapstructure:"model"`
	Dimensions int    `mapstructure:"dimensions"`
	BaseURL    string `mapstructure:"base_url"`
}

// ChunkingConfig 存储文本分块的配置。
type ChunkingConfig struct {
	MaxChars int `mapstructure:"max_chars"`
}

// RetrievalConfig 存储检索相关的配置。
type RetrievalConfig struct {
	TopK int `mapstructure:"top_k"`
}

// GatewayConfig 存储 LLM 网关的重试与超时配置。
// 这些值刻意放在配置里而不是写死在代码中。
type GatewayConfig struct {
	TimeoutSeconds            int `mapstructure:"timeout_seconds"`
	RetryMax                  int `mapstructure:"retry_max"`
	BackoffBaseMillis         int `mapstructure:"backoff_base_ms"`
	CredentialCooldownSeconds int `mapstructure:"credential_cooldown_seconds"`
}

// Init 初始化配置加载，从指定的路径读取 YAML 文件并解析到 Conf 变量中。
func Init(configPath string) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("读取配置文件失败: %w", err))
	}

	if err := viper.Unmarshal(&Conf); err != nil {
		panic(fmt.Errorf("无法将配置解析到结构体中: %w", err))
	}
}

// setDefaults 注册各配置项的默认值，缺省时保证系统可直接启动。
func setDefaults() {
	viper.SetDefault("server.port", "3000")
	viper.SetDefault("server.mode", "release")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")
	viper.SetDefault("data.dir", "./data")
	viper.SetDefault("data.upload_dir", "./uploads")
	viper.SetDefault("store.backend", "file")
	viper.SetDefault("embedding.model", "gemini-embedding-001")
	viper.SetDefault("embedding.base_url", "https://generativelanguage.googleapis.com/v1beta")
	viper.SetDefault("chunking.max_chars", 1000)
	viper.SetDefault("retrieval.top_k", 3)
	viper.SetDefault("gateway.timeout_seconds", 30)
	viper.SetDefault("gateway.retry_max", 3)
	viper.SetDefault("gateway.backoff_base_ms", 250)
	viper.SetDefault("gateway.credential_cooldown_seconds", 60)
}
