// Package memory 提供记录调用序列的内存容器（测试替身；注册为 memory 用于空跑）。
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"ascgrid/pkg/contract"
	"ascgrid/plugins/container/sequence"
)

// 调用名（与 contract.Container 方法一一对应）。
const (
	OpOpen  = "open"
	OpGrid  = "grid"
	OpBegin = "begin"
	OpTime  = "time"
	OpField = "field"
	OpEnd   = "end"
	OpClose = "close"
)

// Options: FailOn 指定在第 FailAfter+1 次出现该调用时返回错误（用于失败路径测试）。
type Options struct {
	FailOn    string `yaml:"fail_on"`
	FailAfter int    `yaml:"fail_after"`
}

// Call 为一次被记录的调用；数组为调用时的副本。
type Call struct {
	Op     string
	ISize  int
	JSize  int
	X, Y   []float64
	Time   float64
	Name   string
	Values []float64
}

// ErrInjected 为 FailOn 注入的错误。
var ErrInjected = errors.New("memory container: injected failure")

// Store 实现 contract.ContainerStore，保存所有打开过的容器。
type Store struct {
	mu     sync.Mutex
	opts   Options
	opened []*Container
	seen   map[string]int
}

func New(opts *Options) *Store {
	s := &Store{seen: make(map[string]int)}
	if opts != nil {
		s.opts = *opts
	}
	return s
}

var _ contract.ContainerStore = (*Store)(nil)

func (s *Store) OpenModify(ctx context.Context, path string) (contract.Container, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.inject(OpOpen); err != nil {
		return nil, err
	}
	c := &Container{store: s, Path: path}
	c.calls = append(c.calls, Call{Op: OpOpen})
	s.mu.Lock()
	s.opened = append(s.opened, c)
	s.mu.Unlock()
	return c, nil
}

// Containers 返回按打开顺序排列的容器。
func (s *Store) Containers() []*Container {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Container, len(s.opened))
	copy(out, s.opened)
	return out
}

func (s *Store) inject(op string) error {
	if s.opts.FailOn == "" || s.opts.FailOn != op {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.seen[op]
	s.seen[op] = n + 1
	if n >= s.opts.FailAfter {
		return fmt.Errorf("%w: %s", ErrInjected, op)
	}
	return nil
}

// Container 记录调用序列并校验顺序。
type Container struct {
	store *Store
	Path  string
	seq   sequence.Tracker
	calls []Call
}

var _ contract.Container = (*Container)(nil)

// Calls 返回记录的调用（含 open/close）。
func (c *Container) Calls() []Call { return c.calls }

// Ops 仅返回调用名序列。
func (c *Container) Ops() []string {
	out := make([]string, len(c.calls))
	for i, call := range c.calls {
		out[i] = call.Op
	}
	return out
}

// Closed 报告容器是否已关闭。
func (c *Container) Closed() bool { return c.seq.State() == sequence.Closed }

func clone(v []float64) []float64 { return append([]float64(nil), v...) }

func (c *Container) WriteGrid2D(isize, jsize int, x, y []float64) error {
	if err := c.seq.Grid(isize, jsize, len(x), len(y)); err != nil {
		return err
	}
	if err := c.store.inject(OpGrid); err != nil {
		return err
	}
	c.calls = append(c.calls, Call{Op: OpGrid, ISize: isize, JSize: jsize, X: clone(x), Y: clone(y)})
	return nil
}

func (c *Container) BeginSolution() error {
	if err := c.seq.Begin(); err != nil {
		return err
	}
	if err := c.store.inject(OpBegin); err != nil {
		return err
	}
	c.calls = append(c.calls, Call{Op: OpBegin})
	return nil
}

func (c *Container) WriteSolutionTime(t float64) error {
	if err := c.seq.Time(); err != nil {
		return err
	}
	if err := c.store.inject(OpTime); err != nil {
		return err
	}
	c.calls = append(c.calls, Call{Op: OpTime, Time: t})
	return nil
}

func (c *Container) WriteCellReal(name string, values []float64) error {
	if err := c.seq.Field(name, len(values)); err != nil {
		return err
	}
	if err := c.store.inject(OpField); err != nil {
		return err
	}
	c.calls = append(c.calls, Call{Op: OpField, Name: name, Values: clone(values)})
	return nil
}

func (c *Container) EndSolution() error {
	if err := c.seq.End(); err != nil {
		return err
	}
	if err := c.store.inject(OpEnd); err != nil {
		return err
	}
	c.calls = append(c.calls, Call{Op: OpEnd})
	return nil
}

// Close 只记录一次。
func (c *Container) Close() error {
	if !c.seq.Close() {
		return nil
	}
	c.calls = append(c.calls, Call{Op: OpClose})
	return c.store.inject(OpClose)
}
