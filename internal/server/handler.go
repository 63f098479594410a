package server

import (
	"context"
	"errors"
	"path"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/any-hub/pagetree/internal/cache"
	"github.com/any-hub/pagetree/internal/logging"
	"github.com/any-hub/pagetree/internal/metrics"
	"github.com/any-hub/pagetree/internal/pages"
	"github.com/any-hub/pagetree/internal/router"
	"github.com/any-hub/pagetree/internal/taxonomy"
)

// handler 负责 “解析路由 → 水位线校验缓存 → 渲染 JSON 并回写缓存” 的全流程。
type handler struct {
	opts    AppOptions
	logger  *logrus.Logger
	store   cache.Store
	metrics *metrics.Metrics
	pages   *router.Router
	api     *router.Router
	ttl     time.Duration
}

func newHandler(opts AppOptions) (*handler, error) {
	pageRouter := router.New()
	pageRouter.SetAliases(opts.Config.Aliases)
	api, err := newAPIRouter()
	if err != nil {
		return nil, err
	}
	return &handler{
		opts:    opts,
		logger:  opts.Logger,
		store:   opts.Cache,
		metrics: opts.Metrics,
		pages:   pageRouter,
		api:     api,
		ttl:     opts.Config.EffectiveCacheTTL(),
	}, nil
}

// handlePage 解析页面路由并输出带子页面分页的 JSON。
func (h *handler) handlePage(c fiber.Ctx) error {
	started := time.Now()
	requestID := RequestID(c)
	method := c.Method()
	if method != fiber.MethodGet && method != fiber.MethodHead {
		return writeError(c, fiber.StatusMethodNotAllowed, "method_not_allowed")
	}
	store, ok := StoreFrom(c)
	if !ok {
		return writeError(c, fiber.StatusInternalServerError, "store_unavailable")
	}
	requestPath := string(c.Request().URI().Path())

	res, err := h.pages.Resolve(store, requestPath)
	if err != nil {
		h.metrics.ObserveResolve(metrics.ResultError)
		h.logResult(c, res.Route, requestID, statusFor(err), false, started, err)
		return writePageError(c, err)
	}
	page := res.Page
	if page == nil || !page.Routable() || !page.Published() {
		h.metrics.ObserveResolve(metrics.ResultNotFound)
		h.logResult(c, res.Route, requestID, fiber.StatusNotFound, false, started, nil)
		return writeError(c, fiber.StatusNotFound, pages.KindNotFound.String())
	}
	h.metrics.ObserveResolve(metrics.ResultFound)

	ctx := requestContext(c)
	key := cacheKey(store.Language(), requestPath)
	cacheable := h.store != nil && page.Cacheable()
	if cacheable {
		if cached, ok := h.lookupCache(ctx, store.Root(), key); ok {
			return h.serveCache(c, res.Route, cached, requestID, started)
		}
	}

	payload := pageResponse{Page: encodePage(page, true)}
	if len(res.Params) > 0 {
		payload.Params = res.Params
	}
	payload.Children = encodeListing(h.listChildren(page, res))

	body, err := c.App().Config().JSONEncoder(payload)
	if err != nil {
		h.logResult(c, res.Route, requestID, fiber.StatusInternalServerError, false, started, err)
		return writeError(c, fiber.StatusInternalServerError, "encode_failed")
	}
	if cacheable {
		resp := &cache.Response{Status: fiber.StatusOK, ContentType: fiber.MIMEApplicationJSONCharsetUTF8, Body: body}
		if err := h.store.Store(ctx, key, resp, h.ttl); err != nil {
			h.logger.WithError(err).WithField("route", res.Route).Warn("cache_store_failed")
		}
	}

	c.Set("X-Pagetree-Cache-Hit", "false")
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	h.logResult(c, res.Route, requestID, fiber.StatusOK, false, started, nil)
	if method == fiber.MethodHead {
		return c.SendStatus(fiber.StatusOK)
	}
	return c.Status(fiber.StatusOK).Send(body)
}

// listChildren 取可见且已发布的子页面，按 tag:value 等参数过滤，scheme 允许时分页。
func (h *handler) listChildren(page *pages.Page, res router.Resolution) *pages.Collection {
	children := page.Children().Visible().Published()
	if len(res.Params) > 0 && page.Scheme().Options.Taxonomy {
		children = taxonomy.Build(children).Find(res.Params, taxonomy.And)
	}
	if page.Scheme().Options.Pagination {
		return children.Paginate(h.opts.Config.Global.PageSize, res.PageNum)
	}
	return children
}

// lookupCache 仅在缓存写入晚于内容根目录 mtime 时信任缓存。
func (h *handler) lookupCache(ctx context.Context, root, key string) (*cache.Response, bool) {
	if !h.store.Has(ctx, key) {
		h.metrics.ObserveCache(metrics.ResultMiss)
		return nil, false
	}
	mark, err := pages.Watermark(root)
	if err != nil {
		h.logger.WithError(err).Warn("watermark_failed")
		h.metrics.ObserveCache(metrics.ResultMiss)
		return nil, false
	}
	if h.store.CachedTime(ctx, key) <= mark {
		h.metrics.ObserveCache(metrics.ResultStale)
		return nil, false
	}
	resp, err := h.store.Fetch(ctx, key)
	switch {
	case err == nil:
		h.metrics.ObserveCache(metrics.ResultHit)
		return resp, true
	case errors.Is(err, cache.ErrNotFound):
	default:
		h.logger.WithError(err).WithField("key", key).Warn("cache_get_failed")
	}
	h.metrics.ObserveCache(metrics.ResultMiss)
	return nil, false
}

func (h *handler) serveCache(c fiber.Ctx, route string, resp *cache.Response, requestID string, started time.Time) error {
	contentType := resp.ContentType
	if contentType == "" {
		contentType = fiber.MIMEApplicationJSONCharsetUTF8
	}
	c.Set(fiber.HeaderContentType, contentType)
	for k, v := range resp.Headers {
		c.Set(k, v)
	}
	c.Set("X-Pagetree-Cache-Hit", "true")
	status := resp.Status
	if status == 0 {
		status = fiber.StatusOK
	}
	h.logResult(c, route, requestID, status, true, started, nil)
	if c.Method() == fiber.MethodHead {
		return c.SendStatus(status)
	}
	return c.Status(status).Send(resp.Body)
}

func (h *handler) logResult(c fiber.Ctx, route, requestID string, status int, cacheHit bool, started time.Time, err error) {
	elapsed := time.Since(started)
	h.metrics.ObserveRequest("page", elapsed)
	fields := logging.RequestFields(route, c.Method(), requestID, cacheHit)
	fields["action"] = "page"
	fields["status"] = status
	fields["elapsed_ms"] = elapsed.Milliseconds()
	if err != nil {
		fields["error"] = err.Error()
		h.logger.WithFields(fields).Error("page_failed")
		return
	}
	h.logger.WithFields(fields).Info("page_complete")
}

// cacheKey 以活动语言区分同一路由的缓存。
func cacheKey(lang, requestPath string) string {
	key := pages.NormalizeRoute(requestPath)
	if lang != "" {
		key = path.Join("/", lang, key)
	}
	return key
}

func requestContext(c fiber.Ctx) context.Context {
	if ctx := c.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
