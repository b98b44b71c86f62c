package textutil_test

import (
	"strings"
	"testing"

	"github.com/kart-io/reviewer-x/internal/pkg/rag/textutil"
	"github.com/stretchr/testify/assert"
)

func TestHashString(t *testing.T) {
	h1 := textutil.HashString("def review(code):")
	h2 := textutil.HashString("def review(code):")
	h3 := textutil.HashString("def review(code): pass")

	assert.Equal(t, h1, h2, "相同输入应产生相同摘要")
	assert.NotEqual(t, h1, h3, "不同输入应产生不同摘要")
	assert.Len(t, h1, 32, "MD5 十六进制长度应为 32")
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxLen   int
		expected string
	}{
		{
			name:     "短于上限不截断",
			input:    "short",
			maxLen:   10,
			expected: "short",
		},
		{
			name:     "超出上限按字符截断",
			input:    "abcdefghij",
			maxLen:   5,
			expected: "abcde",
		},
		{
			name:     "中文按字符数而非字节数截断",
			input:    "代码审查准则",
			maxLen:   4,
			expected: "代码审查",
		},
		{
			name:     "恰好等于上限",
			input:    "abc",
			maxLen:   3,
			expected: "abc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, textutil.TruncateString(tt.input, tt.maxLen))
		})
	}
}

func TestSplitIntoChunks(t *testing.T) {
	t.Run("短文本只产生一个块", func(t *testing.T) {
		chunks := textutil.SplitIntoChunks("hello", 100, 20)
		assert.Equal(t, []string{"hello"}, chunks)
	})

	t.Run("长文本按步长切块且有重叠", func(t *testing.T) {
		text := strings.Repeat("a", 25)
		chunks := textutil.SplitIntoChunks(text, 10, 5)
		assert.Len(t, chunks, 4)
		for _, c := range chunks[:3] {
			assert.Len(t, c, 10)
		}
		// 相邻块应共享 overlap 个字符
		assert.Equal(t, chunks[0][5:], chunks[1][:5])
	})

	t.Run("chunkSize 非正时返回 nil", func(t *testing.T) {
		assert.Nil(t, textutil.SplitIntoChunks("text", 0, 0))
	})

	t.Run("overlap 大于等于 chunkSize 时收敛", func(t *testing.T) {
		text := strings.Repeat("b", 30)
		chunks := textutil.SplitIntoChunks(text, 10, 15)
		assert.NotEmpty(t, chunks)
		// 步长至少为 1，不会死循环
		assert.LessOrEqual(t, len(chunks), 30)
	})
}

func TestMarkdownSections(t *testing.T) {
	content := `intro text

# Security Guidelines

Always validate input.

## SQL Injection

Use parameterized queries.

# Style

Prefer short functions.
`

	sections := textutil.MarkdownSections(content)

	assert.Len(t, sections, 4)
	assert.Equal(t, "Introduction", sections[0].Heading)
	assert.Equal(t, "intro text", sections[0].Content)
	assert.Equal(t, "Security Guidelines", sections[1].Heading)
	assert.Equal(t, "Always validate input.", sections[1].Content)
	assert.Equal(t, "SQL Injection", sections[2].Heading)
	assert.Equal(t, "Use parameterized queries.", sections[2].Content)
	assert.Equal(t, "Style", sections[3].Heading)
	assert.Equal(t, "Prefer short functions.", sections[3].Content)
}

func TestMarkdownSections_NoHeadings(t *testing.T) {
	sections := textutil.MarkdownSections("plain text without headings")
	assert.Len(t, sections, 1)
	assert.Equal(t, "Introduction", sections[0].Heading)
}
