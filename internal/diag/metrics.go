package diag

import (
	"github.com/prometheus/client_golang/prometheus"
)

// 进程内指标（私有注册表，不暴露 HTTP 端点）：
// - ascgrid_op_total{comp,stage,result}
// - ascgrid_error_total{comp,code}
// - ascgrid_op_duration_ms{comp,stage}
// - ascgrid_missing_steps_total{variable}
// - ascgrid_rasters_read_total
var (
	registry = prometheus.NewRegistry()

	opTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ascgrid_op_total",
		Help: "Component operations by stage and result.",
	}, []string{"comp", "stage", "result"})

	errorTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ascgrid_error_total",
		Help: "Errors by component and classification code.",
	}, []string{"comp", "code"})

	opDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ascgrid_op_duration_ms",
		Help:    "Stage duration in milliseconds.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10),
	}, []string{"comp", "stage"})

	missingSteps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ascgrid_missing_steps_total",
		Help: "Time steps substituted with NaN per variable.",
	}, []string{"variable"})

	rastersRead = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ascgrid_rasters_read_total",
		Help: "Raster files parsed successfully.",
	})
)

func init() {
	registry.MustRegister(opTotal, errorTotal, opDuration, missingSteps, rastersRead)
}

// Registry 返回进程内指标注册表。
func Registry() *prometheus.Registry { return registry }

// IncOp 累加操作计数（result=success|error）。
func IncOp(comp, stage, result string) {
	opTotal.WithLabelValues(comp, stage, result).Inc()
}

// IncError 按分类累加错误计数。
func IncError(comp, code string) {
	errorTotal.WithLabelValues(comp, code).Inc()
}

// ObserveDuration 记录阶段耗时（毫秒）。
func ObserveDuration(comp, stage string, durMS int64) {
	opDuration.WithLabelValues(comp, stage).Observe(float64(durMS))
}

// IncMissing 记录一个以 NaN 代替的时间步。
func IncMissing(variable string) {
	missingSteps.WithLabelValues(variable).Inc()
}

// IncRasters 记录一个成功解析的栅格文件。
func IncRasters() { rastersRead.Inc() }

// WriteTextfile 以 Prometheus 文本格式导出全部指标（临时文件 + 重命名）。
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, registry)
}
