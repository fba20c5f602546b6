package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestCount HTTP 请求总数
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fitit",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// RequestDuration HTTP 请求耗时
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fitit",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// DecodeFailures 持久化数据无法解析、被替换为空集合的次数
	DecodeFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fitit",
			Name:      "decode_failures_total",
			Help:      "Persisted collections that failed to decode and were replaced with an empty collection",
		},
		[]string{"collection"},
	)

	// SaveFailures 写入偏好存储失败的次数（不重试）
	SaveFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fitit",
			Name:      "save_failures_total",
			Help:      "Failed writes to the preference store",
		},
		[]string{"collection"},
	)

	// SavesCompleted 成功写入偏好存储的次数
	SavesCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fitit",
			Name:      "saves_completed_total",
			Help:      "Successful writes to the preference store",
		},
		[]string{"collection"},
	)
)

// Register 注册全部指标，重复注册会被忽略
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{RequestCount, RequestDuration, DecodeFailures, SaveFailures, SavesCompleted}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return err
		}
	}
	return nil
}
