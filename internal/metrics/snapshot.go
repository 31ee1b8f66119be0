package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var snapshotDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "kidsfolio",
		Subsystem: "snapshot",
		Name:      "render_duration_seconds",
		Help:      "作品集快照截图耗时（秒）。",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40},
	},
	[]string{"outcome"},
)

// ObserveSnapshot 记录一次快照渲染耗时，outcome 为 success 或 failure。
func ObserveSnapshot(outcome string, seconds float64) {
	snapshotDuration.WithLabelValues(outcome).Observe(seconds)
}
