package content

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"golang.org/x/net/html"
)

// DefaultSummarySize 是未显式设置 summary 时截取的字符数。
const DefaultSummarySize = 300

var markdown = goldmark.New()

// PlainText 将 Markdown 渲染为 HTML 后提取文本节点，连续空白折叠为单个空格。
func PlainText(source string) (string, error) {
	var rendered bytes.Buffer
	if err := markdown.Convert([]byte(source), &rendered); err != nil {
		return "", err
	}
	return StripTags(rendered.String()), nil
}

// StripTags 去除 HTML 标签，保留实体解码后的文本。
func StripTags(fragment string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(fragment))
	var out strings.Builder
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			// io.EOF 或畸形输入都在此结束，已收集的文本照常返回
			return strings.Join(strings.Fields(out.String()), " ")
		case html.TextToken:
			out.Write(tokenizer.Text())
			out.WriteByte(' ')
		}
	}
}

// Summary 返回正文的纯文本摘要，超过 size 个字符时在词边界截断。
func Summary(source string, size int) (string, error) {
	if size <= 0 {
		size = DefaultSummarySize
	}
	text, err := PlainText(source)
	if err != nil {
		return "", err
	}
	if utf8.RuneCountInString(text) <= size {
		return text, nil
	}
	runes := []rune(text)
	cut := string(runes[:size])
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "…", nil
}
