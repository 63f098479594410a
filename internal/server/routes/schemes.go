package routes

import (
	"sort"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/any-hub/pagetree/internal/pages"
	"github.com/any-hub/pagetree/internal/scheme"
)

// RegisterSchemeRoutes 暴露 /-/schemes 诊断接口，列出模板 scheme 及其 Hooks 注册状态。
func RegisterSchemeRoutes(app *fiber.App, registry *scheme.Registry, hooks *pages.HookRegistry) {
	if app == nil || registry == nil {
		return
	}
	if hooks == nil {
		hooks = pages.NewHookRegistry()
	}

	app.Get("/-/schemes", func(c fiber.Ctx) error {
		hookStatus := hooks.Snapshot(registry.Keys())
		return c.JSON(fiber.Map{
			"schemes":       encodeSchemes(registry.List(), hookStatus),
			"hook_registry": hookStatus,
		})
	})

	app.Get("/-/schemes/:template", func(c fiber.Ctx) error {
		template := strings.ToLower(strings.TrimSpace(c.Params("template")))
		if template == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "template_required"})
		}
		s, ok := registry.Resolve(template)
		if !ok {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "scheme_not_found"})
		}
		encoded := encodeScheme(s)
		encoded.HookStatus = hooks.Status(template)
		return c.JSON(encoded)
	})
}

type schemePayload struct {
	Template    string                 `json:"template"`
	Description string                 `json:"description,omitempty"`
	Defaults    map[string]interface{} `json:"defaults,omitempty"`
	Required    []string               `json:"required,omitempty"`
	Options     optionsPayload         `json:"options"`
	HookStatus  string                 `json:"hook_status,omitempty"`
}

type optionsPayload struct {
	OrderBy       string `json:"order_by"`
	OrderDir      string `json:"order_dir"`
	DateField     string `json:"date_field,omitempty"`
	Pagination    bool   `json:"pagination"`
	Taxonomy      bool   `json:"taxonomy"`
	AllowChildren bool   `json:"allow_children"`
}

func encodeSchemes(list []scheme.Scheme, status map[string]string) []schemePayload {
	if len(list) == 0 {
		return nil
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Template < list[j].Template
	})
	result := make([]schemePayload, 0, len(list))
	for _, s := range list {
		item := encodeScheme(s)
		if st, ok := status[s.Template]; ok {
			item.HookStatus = st
		}
		result = append(result, item)
	}
	return result
}

func encodeScheme(s scheme.Scheme) schemePayload {
	opts := s.Options
	return schemePayload{
		Template:    s.Template,
		Description: s.Description,
		Defaults:    s.CloneDefaults(),
		Required:    append([]string(nil), s.Required...),
		Options: optionsPayload{
			OrderBy:       string(opts.OrderBy),
			OrderDir:      string(opts.OrderDir),
			DateField:     opts.DateField,
			Pagination:    opts.Pagination,
			Taxonomy:      opts.Taxonomy,
			AllowChildren: opts.AllowChildren,
		},
	}
}
