package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/any-hub/pagetree/internal/cache"
	"github.com/any-hub/pagetree/internal/config"
	"github.com/any-hub/pagetree/internal/logging"
	"github.com/any-hub/pagetree/internal/metrics"
	"github.com/any-hub/pagetree/internal/pages"
	"github.com/any-hub/pagetree/internal/server"
	"github.com/any-hub/pagetree/internal/server/routes"
	"github.com/any-hub/pagetree/internal/version"
	"github.com/any-hub/pagetree/internal/watch"
)

// 子命令名称。
const (
	commandServe   = "serve"
	commandCheck   = "check-config"
	commandTree    = "tree"
	commandVersion = "version"
)

// cliOptions 汇总 CLI 解析后的结果，便于在测试中注入。
type cliOptions struct {
	configPath string
	command    string
}

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

func main() {
	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		os.Exit(2)
	}
	if opts.command == "" {
		// --help 等只输出帮助信息的情况。
		os.Exit(0)
	}
	os.Exit(run(opts))
}

// newRootCmd 构建命令树，各子命令只负责记录选择结果，真正执行交给 run。
func newRootCmd(opts *cliOptions) *cobra.Command {
	var configFlag string

	choose := func(command string) func(*cobra.Command, []string) error {
		return func(*cobra.Command, []string) error {
			opts.command = command
			opts.configPath = resolveConfigPath(configFlag)
			return nil
		}
	}

	root := &cobra.Command{
		Use:           "pagetree",
		Short:         "Serve a directory tree of content folders as routable pages",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          choose(commandServe),
	}
	root.PersistentFlags().StringVar(&configFlag, "config", "", "配置文件路径（默认 ./config.toml，可被 PAGETREE_CONFIG 覆盖）")

	root.AddCommand(
		&cobra.Command{Use: commandServe, Short: "Start the HTTP server", Args: cobra.NoArgs, RunE: choose(commandServe)},
		&cobra.Command{Use: commandCheck, Short: "Validate the configuration and exit", Args: cobra.NoArgs, RunE: choose(commandCheck)},
		&cobra.Command{Use: commandTree, Short: "Print the routable page tree", Args: cobra.NoArgs, RunE: choose(commandTree)},
		&cobra.Command{Use: commandVersion, Short: "Print version information", Args: cobra.NoArgs, RunE: choose(commandVersion)},
	)
	return root
}

// parseCLIFlags 解析 CLI 参数，并结合环境变量计算最终的配置路径。
func parseCLIFlags(args []string) (cliOptions, error) {
	var opts cliOptions
	cmd := newRootCmd(&opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdOut)
	cmd.SetErr(stdErr)
	if err := cmd.Execute(); err != nil {
		return cliOptions{}, fmt.Errorf("解析参数失败: %w", err)
	}
	return opts, nil
}

// resolveConfigPath 按 --config > PAGETREE_CONFIG > config.toml 的优先级选择配置文件。
func resolveConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("PAGETREE_CONFIG"); env != "" {
		return env
	}
	return "config.toml"
}

// run 根据解析到的 CLI 选项执行业务流程，并返回退出码，方便测试。
func run(opts cliOptions) int {
	if opts.command == commandVersion {
		printVersion()
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stdErr, "加载配置失败: %v\n", err)
		return 1
	}

	logger, err := logging.InitLogger(cfg.Global)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化日志失败: %v\n", err)
		return 1
	}

	switch opts.command {
	case commandCheck:
		fields := logging.BaseFields("check_config", opts.configPath)
		fields["schemes"] = len(cfg.Schemes)
		fields["languages"] = cfg.Global.Languages
		fields["cache_driver"] = cfg.Global.CacheDriver
		fields["result"] = "ok"
		logger.WithFields(fields).Info("配置校验通过")
		return 0
	case commandTree:
		if err := printTree(cfg, logger); err != nil {
			fmt.Fprintf(stdErr, "读取内容目录失败: %v\n", err)
			return 1
		}
		return 0
	}

	if err := serve(cfg, opts.configPath, logger); err != nil {
		fmt.Fprintf(stdErr, "HTTP 服务启动失败: %v\n", err)
		return 1
	}
	return 0
}

// serve 遵循“配置 → scheme 注册表 → 响应缓存 → 内容监听 → Fiber server”顺序启动。
func serve(cfg *config.Config, configPath string, logger *logrus.Logger) error {
	schemes, err := cfg.SchemeRegistry()
	if err != nil {
		return err
	}
	hooks := pages.NewHookRegistry()

	var store cache.Store
	if cfg.Global.CacheEnabled() {
		store, err = cache.Open(cfg.Global.CacheDriver, cfg.Global.CachePath, cfg.EffectiveCacheTTL())
		if err != nil {
			return fmt.Errorf("初始化缓存失败: %w", err)
		}
		defer store.Close()
	}
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Global.WatchContent {
		w, err := watch.New(watch.Options{
			Root:   cfg.Global.ContentPath,
			FS:     osfs.New(cfg.Global.ContentPath, osfs.WithBoundOS()),
			Logger: logger,
		})
		if err != nil {
			return fmt.Errorf("初始化内容监听失败: %w", err)
		}
		go func() {
			if err := w.Run(ctx); err != nil {
				logger.WithError(err).Error("watch_stopped")
			}
		}()
	}

	fields := logging.BaseFields("startup", configPath)
	fields["listen_port"] = cfg.Global.ListenPort
	fields["content_path"] = cfg.Global.ContentPath
	fields["cache_driver"] = cfg.Global.CacheDriver
	fields["watch_content"] = cfg.Global.WatchContent
	fields["version"] = version.Full()
	logger.WithFields(fields).Info("配置加载完成")

	app, err := server.NewApp(server.AppOptions{
		Logger:  logger,
		Config:  cfg,
		Schemes: schemes,
		Hooks:   hooks,
		Cache:   store,
		Metrics: m,
	})
	if err != nil {
		return err
	}
	routes.RegisterSchemeRoutes(app, schemes, hooks)
	routes.RegisterMetricsRoutes(app, m)

	go func() {
		<-ctx.Done()
		_ = app.Shutdown()
	}()

	port := cfg.Global.ListenPort
	logger.WithFields(logrus.Fields{
		"action": "listen",
		"port":   port,
	}).Info("Fiber 服务启动")

	return app.Listen(fmt.Sprintf(":%d", port))
}

// printTree 以缩进形式输出所有可路由页面。
func printTree(cfg *config.Config, logger *logrus.Logger) error {
	schemes, err := cfg.SchemeRegistry()
	if err != nil {
		return err
	}
	g := cfg.Global
	store, err := pages.NewStore(pages.Options{
		Root:            g.ContentPath,
		Ext:             g.ContentExt,
		Languages:       g.Languages,
		DefaultLanguage: g.DefaultLanguage,
		IndexRoute:      g.IndexRoute,
		ErrorRoute:      g.ErrorRoute,
		DisallowedExts:  g.DisallowedExts,
		Schemes:         schemes,
		Logger:          logger,
	})
	if err != nil {
		return err
	}
	writeTree(stdOut, store.Site(), 0)
	return nil
}

func writeTree(w io.Writer, node pages.Node, depth int) {
	for _, p := range node.Children().Pages() {
		if !p.Routable() {
			continue
		}
		fmt.Fprintf(w, "%s%s\t%s\t[%s]\n", strings.Repeat("  ", depth), p.Route(), p.Title(), p.Template())
		writeTree(w, p, depth+1)
	}
}
