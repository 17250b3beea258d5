// Package chunker 将提取出的文档文本切分为有界的文本块。
package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// 句末标点：一个或多个 . ! ? 视作一次句子边界。
var sentenceSplitter = regexp.MustCompile(`[.!?]+`)

// Chunk 把 text 按句子贪心地累积成不超过 maxChars 个字符的块。
// 算法单遍、确定性：当追加下一句会使缓冲超出 maxChars 时，先输出当前
// 缓冲再以该句开启新缓冲；最后的非空缓冲总是输出。没有句末标点的退化
// 输入只要含非空白字符就产出一个块。单句超长时该句独占一个块。
func Chunk(text string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = 1000
	}

	sentences := sentenceSplitter.Split(text, -1)
	var chunks []string
	var current strings.Builder
	currentLen := 0

	for _, sentence := range sentences {
		if strings.TrimSpace(sentence) == "" {
			continue
		}
		sentenceLen := utf8.RuneCountInString(sentence)
		if currentLen+sentenceLen > maxChars {
			if trimmed := strings.TrimSpace(current.String()); trimmed != "" {
				chunks = append(chunks, trimmed)
			}
			current.Reset()
			current.WriteString(sentence)
			currentLen = sentenceLen
		} else {
			// 句末统一补回句号（分割时被吃掉的终止符归一为 .）
			current.WriteString(sentence)
			current.WriteString(".")
			currentLen += sentenceLen + 1
		}
	}

	if trimmed := strings.TrimSpace(current.String()); trimmed != "" {
		chunks = append(chunks, trimmed)
	}
	return chunks
}
