package diag

import (
	"context"
	"errors"
	"os"

	"ascgrid/pkg/contract"
)

// Code 是最小错误分类代码。
// 仅用于日志/指标汇总，与退出码解耦。
type Code string

const (
	CodeUnknown   Code = "unknown"
	CodeFormat    Code = "format"
	CodeInput     Code = "input"
	CodeInvariant Code = "invariant"
	CodeCancel    Code = "cancel"
	CodeIO        Code = "io"
)

// Classify 将错误归为最小分类。
// 仅依赖哨兵错误与标准库错误类型，不做字符串匹配。
func Classify(err error) Code {
	if err == nil {
		return CodeUnknown
	}
	// 取消/超时优先
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return CodeCancel
	}
	// 栅格格式
	if errors.Is(err, contract.ErrDecode) ||
		errors.Is(err, contract.ErrHeaderIncomplete) ||
		errors.Is(err, contract.ErrHeaderInvalid) ||
		errors.Is(err, contract.ErrColumnMismatch) ||
		errors.Is(err, contract.ErrRowMismatch) ||
		errors.Is(err, contract.ErrValueInvalid) {
		return CodeFormat
	}
	// 输入缺失或设置问题
	if errors.Is(err, contract.ErrSourceMissing) ||
		errors.Is(err, contract.ErrNoSteps) ||
		errors.Is(err, contract.ErrNoVariables) ||
		errors.Is(err, contract.ErrInvalidSettings) ||
		errors.Is(err, contract.ErrConditionMissing) {
		return CodeInput
	}
	// 不变量
	if errors.Is(err, contract.ErrInvalidInput) ||
		errors.Is(err, contract.ErrPathInvalid) ||
		errors.Is(err, contract.ErrSequence) ||
		errors.Is(err, contract.ErrGeometryMismatch) {
		return CodeInvariant
	}
	// I/O
	var perr *os.PathError
	if errors.As(err, &perr) {
		return CodeIO
	}
	return CodeUnknown
}
