package pages

import (
	"html"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// DefaultSearchMinLength 是查询与关键词的最小长度。
const DefaultSearchMinLength = 4

// SearchOptions 控制查询分词。
type SearchOptions struct {
	MinLength int
	StopWords []string
}

type searchField struct {
	name   string
	weight int
	text   func(*Page) string
}

var searchFields = []searchField{
	{name: "title", weight: 8, text: (*Page).Title},
	{name: "summary", weight: 4, text: (*Page).Summary},
	{name: "content", weight: 3, text: (*Page).Content},
	{name: "author", weight: 2, text: func(p *Page) string { return p.Text("author") }},
	{name: "route", weight: 1, text: (*Page).Route},
}

// maxKeywordHits 限制关键词命中的计分，避免长文堆砌。
const maxKeywordHits = 3

// Search 返回按相关度降序排列的页面。完整查询的整词命中计 2 分，关键词命中最多计 3 分，
// 再乘以字段权重累加；得分为 0 的页面被丢弃。查询短于 MinLength 时返回空集合。
func (c *Collection) Search(query string, opts SearchOptions) *Collection {
	full, keywords, ok := compileQuery(query, opts)
	if !ok {
		return NewCollection()
	}

	type scored struct {
		page  *Page
		score int
	}
	var results []scored
	for _, p := range c.items {
		if score := scorePage(p, full, keywords); score > 0 {
			results = append(results, scored{page: p, score: score})
		}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].score > results[j].score })

	out := &Collection{items: make([]*Page, len(results))}
	for i, r := range results {
		out.items[i] = r.page
	}
	return out
}

// Score 返回单个页面对查询的相关度。
func Score(p *Page, query string, opts SearchOptions) int {
	full, keywords, ok := compileQuery(query, opts)
	if !ok {
		return 0
	}
	return scorePage(p, full, keywords)
}

// compileQuery 为完整查询与关键词集合分别构建整词、大小写不敏感的正则。
func compileQuery(query string, opts SearchOptions) (*regexp.Regexp, *regexp.Regexp, bool) {
	minLength := opts.MinLength
	if minLength <= 0 {
		minLength = DefaultSearchMinLength
	}
	query = strings.Join(strings.Fields(query), " ")
	if utf8.RuneCountInString(query) < minLength {
		return nil, nil, false
	}
	full := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(query) + `\b`)
	var keywords *regexp.Regexp
	if words := keywordsOf(query, minLength, opts.StopWords); len(words) > 0 {
		keywords = regexp.MustCompile(`(?i)\b(?:` + strings.Join(words, "|") + `)\b`)
	}
	return full, keywords, true
}

func scorePage(p *Page, full, keywords *regexp.Regexp) int {
	total := 0
	for _, field := range searchFields {
		text := html.UnescapeString(field.text(p))
		if text == "" {
			continue
		}
		hits := len(full.FindAllStringIndex(text, -1))
		kw := 0
		if keywords != nil {
			kw = len(keywords.FindAllStringIndex(text, -1))
			if kw > maxKeywordHits {
				kw = maxKeywordHits
			}
		}
		total += (hits*2 + kw) * field.weight
	}
	return total
}

// keywordsOf 按空白分词，去掉停用词与过短的词，返回已转义的正则片段。
func keywordsOf(query string, minLength int, stopWords []string) []string {
	stop := make(map[string]struct{}, len(stopWords))
	for _, w := range stopWords {
		stop[strings.ToLower(w)] = struct{}{}
	}
	seen := make(map[string]struct{})
	var out []string
	for _, word := range strings.Fields(query) {
		lower := strings.ToLower(word)
		if _, skip := stop[lower]; skip {
			continue
		}
		if utf8.RuneCountInString(word) < minLength {
			continue
		}
		if _, dup := seen[lower]; dup {
			continue
		}
		seen[lower] = struct{}{}
		out = append(out, regexp.QuoteMeta(word))
	}
	return out
}
