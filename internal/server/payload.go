package server

import (
	"time"

	"github.com/any-hub/pagetree/internal/pages"
)

type pagePayload struct {
	ID           string                 `json:"id"`
	Route        string                 `json:"route"`
	Slug         string                 `json:"slug"`
	Title        string                 `json:"title"`
	Template     string                 `json:"template"`
	Language     string                 `json:"language,omitempty"`
	Translations []string               `json:"translations,omitempty"`
	Num          *int                   `json:"num,omitempty"`
	Date         string                 `json:"date,omitempty"`
	Modified     string                 `json:"modified,omitempty"`
	Summary      string                 `json:"summary,omitempty"`
	Content      string                 `json:"content,omitempty"`
	Header       map[string]interface{} `json:"header,omitempty"`
	Taxonomy     map[string][]string    `json:"taxonomy,omitempty"`
	Media        []mediaPayload         `json:"media,omitempty"`
	HasChildren  bool                   `json:"has_children"`
}

type mediaPayload struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	Modified string `json:"modified"`
}

type listingPayload struct {
	Items      []pagePayload     `json:"items"`
	Pagination *pages.Pagination `json:"pagination,omitempty"`
}

type pageResponse struct {
	Page     pagePayload         `json:"page"`
	Children *listingPayload     `json:"children,omitempty"`
	Params   map[string][]string `json:"params,omitempty"`
}

// encodePage 生成页面的 JSON 视图；full 为 false 时只保留列表所需字段。
func encodePage(p *pages.Page, full bool) pagePayload {
	payload := pagePayload{
		ID:          p.IDString(),
		Route:       p.Route(),
		Slug:        p.Slug(),
		Title:       p.Title(),
		Template:    p.Template(),
		Language:    p.Language(),
		Summary:     p.Summary(),
		Taxonomy:    p.Taxonomy(),
		HasChildren: p.HasChildren(),
	}
	if n, ok := p.Num(); ok {
		payload.Num = &n
	}
	if d := p.Date(); !d.IsZero() {
		payload.Date = d.Format(time.RFC3339)
	}
	if m := p.ModTime(); !m.IsZero() {
		payload.Modified = m.Format(time.RFC3339)
	}
	if !full {
		return payload
	}
	payload.Translations = p.Translations()
	payload.Content = p.Content()
	payload.Header = p.Header()
	for _, m := range p.Media() {
		payload.Media = append(payload.Media, mediaPayload{
			Name:     m.Name,
			Size:     m.Size,
			Modified: m.ModTime.Format(time.RFC3339),
		})
	}
	return payload
}

func encodeListing(c *pages.Collection) *listingPayload {
	items := make([]pagePayload, 0, c.Len())
	for _, p := range c.Pages() {
		items = append(items, encodePage(p, false))
	}
	return &listingPayload{Items: items, Pagination: c.Pagination()}
}
