package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 翻译结果标签。
const (
	TranslationCacheHit    = "cache_hit"
	TranslationCompleted   = "completed"
	TranslationMalformed   = "malformed"
	TranslationUnavailable = "unavailable"
)

var translationTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "kidsfolio",
		Subsystem: "translation",
		Name:      "requests_total",
		Help:      "作品集翻译请求数，按结果区分。",
	},
	[]string{"result"},
)

// ObserveTranslation 记录一次翻译结果。
func ObserveTranslation(result string) {
	translationTotal.WithLabelValues(result).Inc()
}
