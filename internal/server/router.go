package server

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/any-hub/pagetree/internal/cache"
	"github.com/any-hub/pagetree/internal/config"
	"github.com/any-hub/pagetree/internal/metrics"
	"github.com/any-hub/pagetree/internal/pages"
	"github.com/any-hub/pagetree/internal/scheme"
)

// AppOptions controls how the Fiber application serves the content tree.
type AppOptions struct {
	Logger  *logrus.Logger
	Config  *config.Config
	Schemes *scheme.Registry
	Hooks   *pages.HookRegistry
	// Cache 为 nil 时页面响应不落缓存。
	Cache   cache.Store
	Metrics *metrics.Metrics
	Now     func() time.Time
}

const (
	contextKeyStore     = "_pagetree_store"
	contextKeyRequestID = "_pagetree_request_id"
)

// NewApp builds a Fiber application with request-scoped stores, page
// resolution and the JSON write API.
func NewApp(opts AppOptions) (*fiber.App, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	if opts.Config.Global.ListenPort <= 0 {
		return nil, fmt.Errorf("invalid listen port: %d", opts.Config.Global.ListenPort)
	}
	if opts.Schemes == nil {
		registry, err := opts.Config.SchemeRegistry()
		if err != nil {
			return nil, err
		}
		opts.Schemes = registry
	}
	if opts.Hooks == nil {
		opts.Hooks = pages.NewHookRegistry()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	h, err := newHandler(opts)
	if err != nil {
		return nil, err
	}

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
	})

	app.Use(recover.New())
	app.Use(requestContextMiddleware(opts))

	app.All("/*", func(c fiber.Ctx) error {
		path := string(c.Request().URI().Path())
		switch {
		case isAPIPath(path):
			return h.handleAPI(c)
		case isDiagnosticsPath(path):
			return c.Next()
		default:
			return h.handlePage(c)
		}
	})

	return app, nil
}

// requestContextMiddleware 负责生成请求 ID，并为页面与 API 请求创建独立的 pages.Store。
func requestContextMiddleware(opts AppOptions) fiber.Handler {
	return func(c fiber.Ctx) error {
		reqID := uuid.NewString()
		c.Locals(contextKeyRequestID, reqID)
		c.Set("X-Request-ID", reqID)

		if isDiagnosticsPath(string(c.Request().URI().Path())) && !isAPIPath(string(c.Request().URI().Path())) {
			return c.Next()
		}

		store, err := pages.NewStore(storeOptions(opts, requestLanguage(c, opts.Config.Global)))
		if err != nil {
			opts.Logger.WithError(err).WithField("action", "store_open").Error("content root unavailable")
			return writePageError(c, err)
		}
		c.Locals(contextKeyStore, store)
		return c.Next()
	}
}

func storeOptions(opts AppOptions, lang string) pages.Options {
	g := opts.Config.Global
	return pages.Options{
		Root:            g.ContentPath,
		Ext:             g.ContentExt,
		Languages:       g.Languages,
		DefaultLanguage: g.DefaultLanguage,
		Language:        lang,
		IndexRoute:      g.IndexRoute,
		ErrorRoute:      g.ErrorRoute,
		DisallowedExts:  g.DisallowedExts,
		Schemes:         opts.Schemes,
		Hooks:           opts.Hooks,
		Logger:          opts.Logger,
		Now:             opts.Now,
	}
}

// requestLanguage 读取 ?lang=，仅接受已启用的语言。
func requestLanguage(c fiber.Ctx, g config.GlobalConfig) string {
	lang := strings.TrimSpace(c.Query("lang"))
	if lang == "" {
		return ""
	}
	for _, enabled := range g.Languages {
		if strings.EqualFold(enabled, lang) {
			return enabled
		}
	}
	return ""
}

// StoreFrom returns the request-scoped store created by the middleware.
func StoreFrom(c fiber.Ctx) (*pages.Store, bool) {
	if value := c.Locals(contextKeyStore); value != nil {
		if store, ok := value.(*pages.Store); ok {
			return store, true
		}
	}
	return nil, false
}

// RequestID returns the request identifier stored by the middleware.
func RequestID(c fiber.Ctx) string {
	if value := c.Locals(contextKeyRequestID); value != nil {
		if reqID, ok := value.(string); ok {
			return reqID
		}
	}
	return ""
}

func isDiagnosticsPath(path string) bool {
	return strings.HasPrefix(path, "/-/")
}

func isAPIPath(path string) bool {
	return strings.HasPrefix(path, apiPrefix)
}
