// Package sequence 校验容器写 API 的调用顺序与数组长度，供各容器后端复用。
package sequence

import (
	"fmt"

	"ascgrid/pkg/contract"
)

// State 为容器句柄的生命周期阶段。
type State int

const (
	Opened State = iota
	GridWritten
	InSolution
	TimeWritten
	Ended
	Closed
)

func (s State) String() string {
	switch s {
	case Opened:
		return "opened"
	case GridWritten:
		return "grid_written"
	case InSolution:
		return "in_solution"
	case TimeWritten:
		return "time_written"
	case Ended:
		return "ended"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Tracker 记录当前阶段与格子尺寸。零值即 Opened。
type Tracker struct {
	state State
	isize int
	jsize int
}

func (t *Tracker) State() State { return t.state }

// Cells 返回单元数 (isize-1)×(jsize-1)；格子未写入时为 0。
func (t *Tracker) Cells() int {
	if t.isize == 0 {
		return 0
	}
	return (t.isize - 1) * (t.jsize - 1)
}

func (t *Tracker) expect(op string, allowed ...State) error {
	for _, s := range allowed {
		if t.state == s {
			return nil
		}
	}
	return fmt.Errorf("%w: %s in state %s", contract.ErrSequence, op, t.state)
}

// Grid 校验 WriteGrid2D：仅在 Opened 状态，每轴至少 2 个节点，坐标数组长度为 isize×jsize。
func (t *Tracker) Grid(isize, jsize, nx, ny int) error {
	if err := t.expect("WriteGrid2D", Opened); err != nil {
		return err
	}
	if isize < 2 || jsize < 2 {
		return fmt.Errorf("%w: grid %dx%d", contract.ErrGeometryMismatch, isize, jsize)
	}
	if nx != isize*jsize || ny != isize*jsize {
		return fmt.Errorf("%w: coords x=%d y=%d, want %d", contract.ErrGeometryMismatch, nx, ny, isize*jsize)
	}
	t.isize, t.jsize, t.state = isize, jsize, GridWritten
	return nil
}

func (t *Tracker) Begin() error {
	if err := t.expect("BeginSolution", GridWritten); err != nil {
		return err
	}
	t.state = InSolution
	return nil
}

func (t *Tracker) Time() error {
	if err := t.expect("WriteSolutionTime", InSolution, TimeWritten); err != nil {
		return err
	}
	t.state = TimeWritten
	return nil
}

// Field 校验 WriteCellReal：须先写时刻，名称非空，长度等于单元数。
func (t *Tracker) Field(name string, n int) error {
	if err := t.expect("WriteCellReal", TimeWritten); err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("%w: empty field name", contract.ErrInvalidInput)
	}
	if n != t.Cells() {
		return fmt.Errorf("%w: field %s has %d values, want %d", contract.ErrGeometryMismatch, name, n, t.Cells())
	}
	return nil
}

func (t *Tracker) End() error {
	if err := t.expect("EndSolution", InSolution, TimeWritten); err != nil {
		return err
	}
	t.state = Ended
	return nil
}

// Close 进入 Closed；返回 false 表示此前已关闭（重复关闭为 no-op）。
func (t *Tracker) Close() bool {
	if t.state == Closed {
		return false
	}
	t.state = Closed
	return true
}
