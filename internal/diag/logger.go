package diag

import (
	"strings"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// 组件运行阶段
const (
	StageStart  = "start"
	StageFinish = "finish"
	StageWarn   = "warn"
	StageError  = "error"
)

// Logger 为结构化日志器：zap JSON 单行事件，写入轮转文件。
// 所有事件携带 corr_id/comp/stage 字段。
type Logger struct {
	z      *zap.Logger
	corrID string
	sink   *RotatingFile
}

// NewLogger 通过配置的 level 初始化，写入 dir 下的 ascgrid-current.txt，10 MiB 轮转。
// dir 为空时使用 logs。
func NewLogger(corrID, level, dir string) *Logger {
	if strings.TrimSpace(dir) == "" {
		dir = "logs"
	}
	sink := NewRotatingFile(afero.NewOsFs(), dir, 10*1024*1024)
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), zapcore.AddSync(sink), ParseLevel(level))
	l := NewWithCore(corrID, core)
	l.sink = sink
	return l
}

// NewWithCore 以给定 core 构造（测试注入 observer）。
func NewWithCore(corrID string, core zapcore.Core) *Logger {
	return &Logger{z: zap.New(core).With(zap.String("corr_id", corrID)), corrID: corrID}
}

// NewNop 返回丢弃一切事件的日志器。
func NewNop() *Logger { return &Logger{z: zap.NewNop()} }

// ParseLevel 解析级别字符串；非法或空值回退 info。
func ParseLevel(s string) zapcore.Level {
	lv, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return zapcore.InfoLevel
	}
	return lv
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.MessageKey = "msg"
	cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
	cfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.UTC().Format(time.RFC3339))
	}
	cfg.CallerKey = zapcore.OmitKey
	cfg.StacktraceKey = zapcore.OmitKey
	return cfg
}

// CorrID 返回关联 ID。
func (l *Logger) CorrID() string {
	if l == nil {
		return ""
	}
	return l.corrID
}

// Close 刷出缓冲并关闭轮转文件。
func (l *Logger) Close() error {
	if l == nil || l.z == nil {
		return nil
	}
	_ = l.z.Sync()
	if l.sink != nil {
		return l.sink.Close()
	}
	return nil
}

func kvFields(kv map[string]string) []zap.Field {
	if len(kv) == 0 {
		return nil
	}
	return []zap.Field{zap.Any("kv", kv)}
}

func (l *Logger) event(lv zapcore.Level, comp, stage, msg string, fields ...zap.Field) {
	if l == nil || l.z == nil {
		return
	}
	if ce := l.z.Check(lv, msg); ce != nil {
		base := []zap.Field{zap.String("comp", comp), zap.String("stage", stage)}
		ce.Write(append(base, fields...)...)
	}
}

// Start 记录 start 事件；返回计时器用于 Finish。
func (l *Logger) Start(comp, msg string) *Timer {
	l.event(zapcore.InfoLevel, comp, StageStart, msg)
	return &Timer{l: l, comp: comp, t0: time.Now()}
}

// StartWith 记录带 file 与键值的 start。
func (l *Logger) StartWith(comp, msg, file string, kv map[string]string) *Timer {
	fields := kvFields(kv)
	if file != "" {
		fields = append(fields, zap.String("file", file))
	}
	l.event(zapcore.InfoLevel, comp, StageStart, msg, fields...)
	return &Timer{l: l, comp: comp, file: file, t0: time.Now()}
}

// Warn 记录可恢复问题（缺失时间步、几何不一致等）。
func (l *Logger) Warn(comp, code, msg, file string, kv map[string]string) {
	fields := append([]zap.Field{zap.String("code", code)}, kvFields(kv)...)
	if file != "" {
		fields = append(fields, zap.String("file", file))
	}
	l.event(zapcore.WarnLevel, comp, StageWarn, msg, fields...)
}

// Error 记录 error 事件。
func (l *Logger) Error(comp, code, msg string, durSince *time.Time) {
	l.ErrorWith(comp, code, msg, durSince, "", nil)
}

// ErrorWith 支持 file 与键值。
func (l *Logger) ErrorWith(comp, code, msg string, durSince *time.Time, file string, kv map[string]string) {
	fields := append([]zap.Field{zap.String("code", code)}, kvFields(kv)...)
	if durSince != nil {
		fields = append(fields, zap.Int64("dur_ms", time.Since(*durSince).Milliseconds()))
	}
	if file != "" {
		fields = append(fields, zap.String("file", file))
	}
	l.event(zapcore.ErrorLevel, comp, StageError, msg, fields...)
}

// DebugStart 输出调试级别的 start 类事件（仅在 level=debug 时生效）。
func (l *Logger) DebugStart(comp, msg, file string, kv map[string]string) {
	fields := kvFields(kv)
	if file != "" {
		fields = append(fields, zap.String("file", file))
	}
	l.event(zapcore.DebugLevel, comp, StageStart, msg, fields...)
}

// Timer 用于 start→finish 计时。
type Timer struct {
	l    *Logger
	comp string
	file string
	t0   time.Time
}

// Since 返回起点，供 Error 计算耗时。
func (t *Timer) Since() *time.Time {
	if t == nil {
		return nil
	}
	return &t.t0
}

// Finish 记录 finish 并上报耗时指标；count 可选。
func (t *Timer) Finish(msg string, count int64) {
	if t == nil || t.l == nil {
		return
	}
	dur := time.Since(t.t0).Milliseconds()
	fields := []zap.Field{zap.Int64("dur_ms", dur)}
	if count > 0 {
		fields = append(fields, zap.Int64("count", count))
	}
	if t.file != "" {
		fields = append(fields, zap.String("file", t.file))
	}
	t.l.event(zapcore.InfoLevel, t.comp, StageFinish, msg, fields...)
	ObserveDuration(t.comp, StageFinish, dur)
}
