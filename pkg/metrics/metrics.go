package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 文本生成调用延迟（毫秒）
	CompletionLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mailtriage_completion_latency_ms",
			Help:    "Text completion call latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(100, 2, 10), // 100ms to ~100s
		},
		[]string{"kind", "status"},
	)

	// 工作流步骤耗时（秒）
	StepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mailtriage_step_duration_seconds",
			Help:    "Workflow step duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"step"},
	)

	// 分类结果计数
	ClassificationCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mailtriage_classification_total",
			Help: "Total number of emails per classification",
		},
		[]string{"classification"},
	)

	// 邮件处理计数（按 Response Status）
	EmailProcessedCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mailtriage_email_processed_total",
			Help: "Total number of emails processed per response status",
		},
		[]string{"status"},
	)

	// 审计写入延迟（秒）
	AuditAppendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mailtriage_audit_append_duration_seconds",
			Help:    "Audit sink append duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"sink", "status"},
	)

	// 慢查询计数
	SlowQueryCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mailtriage_db_slow_query_total",
			Help: "Total number of slow database queries",
		},
		[]string{"operation"},
	)
)

// RecordCompletionLatency 记录文本生成调用延迟
func RecordCompletionLatency(kind, status string, duration time.Duration) {
	CompletionLatency.WithLabelValues(kind, status).Observe(float64(duration.Milliseconds()))
}

// RecordStepDuration 记录工作流步骤耗时
func RecordStepDuration(step string, duration time.Duration) {
	StepDuration.WithLabelValues(step).Observe(duration.Seconds())
}

// IncrementClassification 增加分类计数
func IncrementClassification(classification string) {
	ClassificationCount.WithLabelValues(classification).Inc()
}

// IncrementEmailProcessed 增加邮件处理计数
func IncrementEmailProcessed(status string) {
	EmailProcessedCount.WithLabelValues(status).Inc()
}

// RecordAuditAppend 记录审计写入耗时
func RecordAuditAppend(sink, status string, duration time.Duration) {
	AuditAppendDuration.WithLabelValues(sink, status).Observe(duration.Seconds())
}

// IncrementSlowQuery 增加慢查询计数，operation 取 SQL 的首个关键字
func IncrementSlowQuery(operation string) {
	SlowQueryCount.WithLabelValues(operation).Inc()
}
