package contract

import "errors"

// 最小错误分类（哨兵）。调用方以 fmt.Errorf("...: %w") 附加上下文。
var (
	// ErrInvalidInput: 参数不满足前置条件。
	ErrInvalidInput = errors.New("invalid input")
	// ErrPathInvalid: 目标标识映射为无效/越界路径（例如绝对路径或 '..' 逃逸）。
	ErrPathInvalid = errors.New("path invalid")

	// ErrSourceMissing: asc_folder 不存在。
	ErrSourceMissing = errors.New("source folder missing")
	// ErrDecode: 候选编码均无法解码。
	ErrDecode = errors.New("undecodable text")
	// ErrHeaderIncomplete: 头信息缺少必需键，或在头未完整前出现未知行。
	ErrHeaderIncomplete = errors.New("incomplete header")
	// ErrHeaderInvalid: 头信息数值非法（无法解析或 ncols/nrows 非正）。
	ErrHeaderInvalid = errors.New("invalid header value")
	// ErrColumnMismatch: 数据行列数与 ncols 不符。
	ErrColumnMismatch = errors.New("column count mismatch")
	// ErrRowMismatch: 数据行数少于 nrows。
	ErrRowMismatch = errors.New("row count mismatch")
	// ErrValueInvalid: 数据值无法解析为数字。
	ErrValueInvalid = errors.New("invalid raster value")

	// ErrNoSteps: 自动检测未找到文件，或步数 <= 0。
	ErrNoSteps = errors.New("no steps detected")
	// ErrNoVariables: 收集后没有可用变量。
	ErrNoVariables = errors.New("no usable variables")
	// ErrInvalidSettings: 计算条件校验失败。
	ErrInvalidSettings = errors.New("invalid settings")
	// ErrConditionMissing: 计算条件中缺少键。
	ErrConditionMissing = errors.New("condition missing")

	// ErrSequence: 容器写入调用顺序违例。
	ErrSequence = errors.New("container call out of sequence")
	// ErrGeometryMismatch: 数组长度与格子尺寸不一致。
	ErrGeometryMismatch = errors.New("array length does not match grid size")
)
