// Package metrics 汇总 API 与 worker 暴露给 Prometheus 的指标。
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const unmatchedRoute = "unmatched"

var (
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "kidsfolio",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP 请求耗时（秒），按路由模板统计。",
			Buckets:   []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route", "class"},
	)

	requestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "kidsfolio",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "正在处理的 HTTP 请求数。",
		},
	)
)

// GinMiddleware 记录请求耗时。未匹配路由的请求合并为一个标签值，避免扫描器把基数撑爆。
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestsInFlight.Inc()
		defer requestsInFlight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		requestDuration.
			WithLabelValues(c.Request.Method, route, statusClass(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// statusClass 把状态码折叠成 2xx/3xx/4xx/5xx。
func statusClass(status int) string {
	if status < 100 || status > 599 {
		return "other"
	}
	return strconv.Itoa(status/100) + "xx"
}
