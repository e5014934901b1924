package contract

import "context"

// Condition: 已打开的计算条件（只读）。
// 键不存在时返回 ErrConditionMissing；类型不符返回包装后的转换错误。
type Condition interface {
	String(name string) (string, error)
	Integer(name string) (int, error)
	Real(name string) (float64, error)
	Close() error
}

// ConditionSource: 按容器路径打开计算条件。
type ConditionSource interface {
	Open(ctx context.Context, path string) (Condition, error)
}
