// Package pipeline 定义了文档摄取的核心流程。
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"chunrag-go/internal/config"
	"chunrag-go/internal/model"
	"chunrag-go/pkg/chunker"
	"chunrag-go/pkg/embedding"
	"chunrag-go/pkg/extract"
	"chunrag-go/pkg/log"
	"chunrag-go/pkg/vectorindex"
)

// Processor 封装了文档摄取的所有依赖和逻辑：
// 提取文本、按句切块、逐块向量化、写入内存向量索引。
// 摄取是同步且全有或全无的，任何一块失败整篇文档都不会入库。
type Processor struct {
	extractor   extract.Extractor
	embedder    embedding.Client
	index       *vectorindex.Index
	chunkingCfg config.ChunkingConfig
}

// NewProcessor 创建一个新的 Processor 实例。
func NewProcessor(
	extractor extract.Extractor,
	embedder embedding.Client,
	index *vectorindex.Index,
	chunkingCfg config.ChunkingConfig,
) *Processor {
	return &Processor{
		extractor:   extractor,
		embedder:    embedder,
		index:       index,
		chunkingCfg: chunkingCfg,
	}
}

// Ingest 摄取一篇已落盘的文档并返回注册表记录。
// filePath 是上传保存后的路径，originalName 是用户上传时的文件名。
func (p *Processor) Ingest(ctx context.Context, filePath, originalName string) (model.Document, error) {
	log.Infof("[Processor] 开始摄取文档, FileName: %s", originalName)

	records, chunkCount, err := p.buildRecords(ctx, filePath, originalName, "")
	if err != nil {
		return model.Document{}, err
	}

	doc := model.Document{
		ID:         uuid.NewString(),
		Name:       originalName,
		SourcePath: filePath,
		UploadedAt: time.Now().UTC(),
		ChunkCount: chunkCount,
	}
	for i := range records {
		records[i].Metadata.DocumentID = doc.ID
	}

	if err := p.index.InsertBatch(ctx, records); err != nil {
		log.Errorf("[Processor] 写入向量索引失败, FileName: %s, Error: %v", originalName, err)
		return model.Document{}, fmt.Errorf("failed to index document: %w", err)
	}

	log.Infof("[Processor] 文档摄取完成, ID: %s, 分块数: %d", doc.ID, chunkCount)
	return doc, nil
}

// Rebuild 从源文件全量重建向量索引。
// 源文件已消失的文档被回收，重嵌入失败的文档被丢弃，
// 返回重建后仍然存活的文档集合。索引在全部文档处理完后一次性替换。
func (p *Processor) Rebuild(ctx context.Context, docs []model.Document) ([]model.Document, error) {
	log.Infof("[Processor] 开始重建索引, 文档数: %d", len(docs))

	survivors := make([]model.Document, 0, len(docs))
	records := make([]vectorindex.Record, 0)

	for _, doc := range docs {
		if _, err := os.Stat(doc.SourcePath); err != nil {
			log.Warnf("[Processor] 源文件缺失, 回收文档, ID: %s, Name: %s", doc.ID, doc.Name)
			continue
		}

		docRecords, chunkCount, err := p.buildRecords(ctx, doc.SourcePath, doc.Name, doc.ID)
		if err != nil {
			log.Warnf("[Processor] 重嵌入失败, 丢弃文档, ID: %s, Name: %s, Error: %v", doc.ID, doc.Name, err)
			continue
		}

		doc.ChunkCount = chunkCount
		survivors = append(survivors, doc)
		records = append(records, docRecords...)
	}

	if err := p.index.Rebuild(ctx, records); err != nil {
		return nil, fmt.Errorf("failed to rebuild vector index: %w", err)
	}

	log.Infof("[Processor] 索引重建完成, 存活文档: %d/%d, 总分块: %d", len(survivors), len(docs), len(records))
	return survivors, nil
}

// buildRecords 执行提取、切块和逐块向量化，返回待入库的索引记录。
func (p *Processor) buildRecords(ctx context.Context, filePath, fileName, docID string) ([]vectorindex.Record, int, error) {
	text, err := p.extractor.Extract(filePath, fileName)
	if err != nil {
		return nil, 0, err
	}
	log.Infof("[Processor] 步骤1: 文本提取成功, 内容长度: %d 字符", utf8.RuneCountInString(text))

	chunks := chunker.Chunk(text, p.chunkingCfg.MaxChars)
	if len(chunks) == 0 {
		return nil, 0, model.NewValidationError("document %s produced no text chunks", filepath.Base(fileName))
	}
	log.Infof("[Processor] 步骤2: 文本分块完成, 共生成 %d 个分块", len(chunks))

	records := make([]vectorindex.Record, 0, len(chunks))
	for i, chunk := range chunks {
		vector, err := p.embedder.CreateEmbedding(ctx, chunk)
		if err != nil {
			log.Errorf("[Processor] 分块 %d 向量化失败, FileName: %s, Error: %v", i, fileName, err)
			return nil, 0, fmt.Errorf("failed to embed chunk %d: %w", i, err)
		}
		records = append(records, vectorindex.Record{
			Vector: vector,
			Metadata: model.Chunk{
				Text:       chunk,
				DocumentID: docID,
				FileName:   fileName,
				Index:      i,
			},
		})
	}
	log.Infof("[Processor] 步骤3: 全部分块向量化完成, FileName: %s", fileName)

	return records, len(records), nil
}
