package contract

import "context"

// Container: 以修改模式打开的输出容器（网格 + 解时序）。
// 调用顺序固定：
//
//	OpenModify → WriteGrid2D → BeginSolution → {WriteSolutionTime → WriteCellReal×N}* → EndSolution → Close
//
// 违例返回 ErrSequence；数组长度与格子尺寸不符返回 ErrGeometryMismatch。
// Close 在任意状态下都可调用，且只生效一次。
type Container interface {
	// WriteGrid2D 写入 isize×jsize 节点的二维结构格子坐标（j 外层、i 内层）。
	WriteGrid2D(isize, jsize int, x, y []float64) error
	BeginSolution() error
	WriteSolutionTime(t float64) error
	// WriteCellReal 写入当前时刻的单元中心实数场，长度须为 (isize-1)×(jsize-1)。
	WriteCellReal(name string, values []float64) error
	EndSolution() error
	Close() error
}

// ContainerStore: 容器写 API 的入口。
type ContainerStore interface {
	OpenModify(ctx context.Context, path string) (Container, error)
}
