// Package model 定义了应用的核心数据结构。
package model

import "time"

// Document 是文档注册表中的一条记录。
// 一个文档在摄取成功后创建，身份（ID）不可变；删除文档时会一并
// 清除它在向量索引中拥有的全部分块记录。
type Document struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	SourcePath string    `json:"path"`
	UploadedAt time.Time `json:"uploadDate"`
	ChunkCount int       `json:"chunks"`
}

// Chunk 是文档切分出的一段有界文本，它是向量化与检索的最小单元。
// Index 是该分块在所属文档内的序号，仅用于追溯。
type Chunk struct {
	Text       string `json:"text"`
	DocumentID string `json:"docId"`
	FileName   string `json:"fileName"`
	Index      int    `json:"chunkIndex"`
}
