package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	exportTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "resumeforge",
			Subsystem: "export",
			Name:      "exports_total",
			Help:      "按格式与结果统计的导出总数。",
		},
		[]string{"format", "result"},
	)

	exportDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "resumeforge",
			Subsystem: "export",
			Name:      "export_duration_seconds",
			Help:      "导出耗时分布（秒）。",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"format"},
	)
)

// ObserveExport 记录一次导出的结果与耗时。
func ObserveExport(format string, err error, elapsed time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	exportTotal.WithLabelValues(format, result).Inc()
	exportDuration.WithLabelValues(format).Observe(elapsed.Seconds())
}
