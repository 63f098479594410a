// Package metrics 暴露页面解析、响应缓存与写操作的 Prometheus 指标。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pagetree"

// 标签取值。
const (
	ResultFound    = "found"
	ResultNotFound = "not_found"
	ResultError    = "error"
	ResultHit      = "hit"
	ResultMiss     = "miss"
	ResultStale    = "stale"
	ResultOK       = "ok"
)

// Metrics 持有独立的 registry，便于测试中多次创建。所有方法对 nil 接收者安全。
type Metrics struct {
	registry *prometheus.Registry

	resolveTotal    *prometheus.CounterVec
	cacheTotal      *prometheus.CounterVec
	writesTotal     *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New 创建指标集合并注册进程与 Go 运行时采集器。
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		resolveTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "page_resolve_total",
			Help:      "Page route resolutions by result",
		}, []string{"result"}),
		cacheTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "response_cache_total",
			Help:      "Response cache lookups by result",
		}, []string{"result"}),
		writesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "page_writes_total",
			Help:      "Page save/duplicate/delete operations by result",
		}, []string{"op", "result"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"handler"}),
	}
}

// Registry 返回底层 registry。
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveResolve 记录一次页面解析。
func (m *Metrics) ObserveResolve(result string) {
	if m == nil {
		return
	}
	m.resolveTotal.WithLabelValues(result).Inc()
}

// ObserveCache 记录一次缓存查询。
func (m *Metrics) ObserveCache(result string) {
	if m == nil {
		return
	}
	m.cacheTotal.WithLabelValues(result).Inc()
}

// ObserveWrite 记录一次写操作，err 非空时结果为 error。
func (m *Metrics) ObserveWrite(op string, err error) {
	if m == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.writesTotal.WithLabelValues(op, result).Inc()
}

// ObserveRequest 记录请求耗时。
func (m *Metrics) ObserveRequest(handler string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(handler).Observe(elapsed.Seconds())
}

// Handler 返回 /-/metrics 使用的 HTTP handler。
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
