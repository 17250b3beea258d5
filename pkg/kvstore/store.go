// Package kvstore 提供 key → JSON 文档的持久化存储抽象。
// 文档注册表、凭证池和采样参数默认值都通过它落盘；每次写入对调用方
// 而言都是全有或全无的。
package kvstore

import (
	"context"
	"errors"
)

// ErrKeyNotFound 表示请求的 key 不存在。
var ErrKeyNotFound = errors.New("kvstore: key not found")

// Store 是持久化后端的统一接口，value 为 JSON 序列化后的字节。
type Store interface {
	// Get 读取 key 对应的 JSON 文档，不存在时返回 ErrKeyNotFound。
	Get(ctx context.Context, key string) ([]byte, error)
	// Set 原子地写入 key 对应的 JSON 文档。
	Set(ctx context.Context, key string, value []byte) error
	// Delete 删除 key，key 不存在时不报错。
	Delete(ctx context.Context, key string) error
}
