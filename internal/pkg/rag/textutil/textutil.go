// Package textutil 提供审查准则文本处理工具：分块、截断、章节解析。
package textutil

import (
	"crypto/md5"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode/utf8"
)

// HashString 返回字符串的 MD5 十六进制摘要，用作分块 ID 和缓存键。
func HashString(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// TruncateString 按 Unicode 字符数截断字符串，防止超出向量库字段上限。
func TruncateString(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen])
}

// SplitIntoChunks 将文本按 Unicode 字符数切成带重叠的块。
// overlap 会被收敛到 [0, chunkSize) 区间；chunkSize 非正时返回 nil。
func SplitIntoChunks(text string, chunkSize, overlap int) []string {
	if chunkSize <= 0 {
		return nil
	}
	if overlap < 0 {
		overlap = 0
	} else if overlap >= chunkSize {
		overlap = chunkSize - 1
	}

	runes := []rune(text)
	if len(runes) <= chunkSize {
		return []string{text}
	}

	step := chunkSize - overlap
	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}

// Section 是 Markdown 文档中的一个章节。
type Section struct {
	// Heading 章节标题；文档首个标题之前的内容归入 "Introduction"。
	Heading string
	// Content 章节正文，已去除首尾空白。
	Content string
}

var headingRegex = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+)$`)

// MarkdownSections 按标题把 Markdown 文档切成有序章节列表。
// 空章节被跳过；不区分标题层级，任意级别的标题都会开启新章节。
func MarkdownSections(content string) []Section {
	bodies := headingRegex.Split(content, -1)
	headings := headingRegex.FindAllStringSubmatch(content, -1)

	var sections []Section
	current := "Introduction"
	for idx, body := range bodies {
		if idx > 0 && idx-1 < len(headings) {
			current = headings[idx-1][2]
		}
		body = strings.TrimSpace(body)
		if body == "" {
			continue
		}
		sections = append(sections, Section{Heading: current, Content: body})
	}
	return sections
}
