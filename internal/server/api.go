package server

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/any-hub/pagetree/internal/logging"
	"github.com/any-hub/pagetree/internal/pages"
	"github.com/any-hub/pagetree/internal/router"
)

const apiPrefix = "/-/api/"

// API 路由名称。
const (
	routeSavePage   = "pages.save"
	routeDeletePage = "pages.delete"
	routeDuplicate  = "pages.duplicate"
	routeChildren   = "pages.children"
	routeSearch     = "pages.search"
)

func newAPIRouter() (*router.Router, error) {
	r := router.New()
	for _, route := range []*router.Route{
		router.NewRoute(routeSavePage, "/-/api/pages/{route:all}", fiber.MethodPost),
		router.NewRoute(routeDeletePage, "/-/api/pages/{route:all}", fiber.MethodDelete),
		router.NewRoute(routeDuplicate, "/-/api/duplicate/{route:all}", fiber.MethodPost),
		router.NewRoute(routeChildren, "/-/api/children", fiber.MethodGet),
		router.NewRoute(routeChildren, "/-/api/children/{route:all}", fiber.MethodGet),
		router.NewRoute(routeSearch, "/-/api/search", fiber.MethodGet),
	} {
		if err := r.Add(route); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// badRequest 表示请求本身不合法，与页面错误分类无关。
type badRequest string

func (b badRequest) Error() string { return string(b) }

// savePageRequest 是 POST /-/api/pages/{route} 的请求体。页面不存在时按 route 新建。
type savePageRequest struct {
	Template string                 `json:"template"`
	Content  *string                `json:"content"`
	Header   map[string]interface{} `json:"header"`
	Unset    []string               `json:"unset"`
}

// handleAPI 经内部路由器匹配 /-/api/ 请求并分发。
func (h *handler) handleAPI(c fiber.Ctx) error {
	started := time.Now()
	store, ok := StoreFrom(c)
	if !ok {
		return writeError(c, fiber.StatusInternalServerError, "store_unavailable")
	}
	typ := router.RequestTypeOf(c.Get("X-Requested-With"))
	result := h.api.Match(c.Method(), typ, string(c.Request().URI().Path()))
	if result.State != router.Matched {
		return writeError(c, fiber.StatusNotFound, "api_not_found")
	}
	route := pages.NormalizeRoute(result.Params.Get("route"))

	var err error
	switch result.Route.Name {
	case routeSavePage:
		err = h.savePage(c, store, route)
		h.metrics.ObserveWrite("save", err)
	case routeDeletePage:
		err = h.deletePage(c, store, route)
		h.metrics.ObserveWrite("delete", err)
	case routeDuplicate:
		err = h.duplicatePage(c, store, route)
		h.metrics.ObserveWrite("duplicate", err)
	case routeChildren:
		err = h.children(c, store, route)
	case routeSearch:
		err = h.search(c, store)
	}
	h.metrics.ObserveRequest(result.Route.Name, time.Since(started))
	if err != nil {
		var bad badRequest
		if errors.As(err, &bad) {
			return writeError(c, fiber.StatusBadRequest, string(bad))
		}
		fields := logging.RequestFields(route, c.Method(), RequestID(c), false)
		fields["action"] = result.Route.Name
		fields["error"] = err.Error()
		h.logger.WithFields(fields).Warn("api_failed")
		return writePageError(c, err)
	}
	return nil
}

func (h *handler) savePage(c fiber.Ctx, store *pages.Store, route string) error {
	var req savePageRequest
	if len(c.Body()) > 0 {
		if err := c.App().Config().JSONDecoder(c.Body(), &req); err != nil {
			return badRequest("invalid_body")
		}
	}

	page, err := store.FindPage(route)
	if err != nil {
		return err
	}
	created := page == nil
	if created {
		if page, err = h.newPage(store, route, req); err != nil {
			return err
		}
	} else {
		if req.Template != "" {
			if err := page.SetTemplate(req.Template); err != nil {
				return err
			}
		}
		for key, value := range req.Header {
			if err := page.Set(key, value); err != nil {
				return err
			}
		}
	}
	for _, key := range req.Unset {
		page.Unset(key)
	}
	if req.Content != nil {
		page.SetContent(*req.Content)
	}

	saved, err := page.Save()
	if err != nil {
		return err
	}
	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{"page": encodePage(saved, true)})
}

// newPage 在 route 的父页面下创建未保存页面，父页面必须存在。
func (h *handler) newPage(store *pages.Store, route string, req savePageRequest) (*pages.Page, error) {
	if route == "/" {
		return nil, &pages.Error{Kind: pages.KindInvalidValue, Op: "create", Path: route, Err: errors.New("root cannot be created")}
	}
	parentRoute, slug := splitParent(route)
	var parent pages.Node = store.Site()
	if parentRoute != "/" {
		p, err := store.FindPage(parentRoute)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, &pages.Error{Kind: pages.KindPreconditionFailed, Op: "create", Path: parentRoute, Err: errors.New("parent page not found")}
		}
		parent = p
	}
	return store.NewPage(parent, slug, req.Template, req.Header)
}

func (h *handler) deletePage(c fiber.Ctx, store *pages.Store, route string) error {
	page, err := h.existing(store, route)
	if err != nil {
		return err
	}
	all := c.Query("all") != "false"
	if err := page.Delete(all); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"deleted": route})
}

func (h *handler) duplicatePage(c fiber.Ctx, store *pages.Store, route string) error {
	page, err := h.existing(store, route)
	if err != nil {
		return err
	}
	dup, err := page.Duplicate()
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"page": encodePage(dup, true)})
}

func (h *handler) children(c fiber.Ctx, store *pages.Store, route string) error {
	var node pages.Node = store.Site()
	if route != "/" {
		page, err := h.existing(store, route)
		if err != nil {
			return err
		}
		node = page
	}
	children := node.Children()
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return badRequest("invalid_page")
		}
		children = children.Paginate(h.opts.Config.Global.PageSize, n)
	}
	return c.JSON(encodeListing(children))
}

// search 在所有可路由且已发布的页面中检索。
func (h *handler) search(c fiber.Ctx, store *pages.Store) error {
	query := strings.TrimSpace(c.Query("q"))
	all, err := store.RetrievePages("", true)
	if err != nil {
		return err
	}
	g := h.opts.Config.Global
	results := all.Routable().Published().Search(query, pages.SearchOptions{
		MinLength: g.SearchMinLength,
		StopWords: g.StopWords,
	})
	listing := encodeListing(results)
	return c.JSON(fiber.Map{"query": query, "total": results.Len(), "items": listing.Items})
}

// existing 查找已存在的页面，找不到时返回 NotFound 错误。
func (h *handler) existing(store *pages.Store, route string) (*pages.Page, error) {
	page, err := store.FindPage(route)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, &pages.Error{Kind: pages.KindNotFound, Op: "find", Path: route}
	}
	return page, nil
}

func splitParent(route string) (string, string) {
	route = strings.TrimSuffix(route, "/")
	idx := strings.LastIndex(route, "/")
	if idx <= 0 {
		return "/", strings.TrimPrefix(route, "/")
	}
	return route[:idx], route[idx+1:]
}
