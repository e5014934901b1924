// Package yamldoc 以 YAML 文档实现容器写 API。
//
// 文档为顶层映射：grid 与 solutions 两个键由本包写入（整体替换），
// 其余键（例如 calculation_condition）原样保留。NaN 编码为 .nan。
package yamldoc

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"ascgrid/pkg/contract"
	"ascgrid/plugins/container/sequence"
)

// 由容器写入的顶层键。
const (
	KeyGrid      = "grid"
	KeySolutions = "solutions"
)

// Options: 编码选项。
type Options struct {
	// Indent: 缩进空格数，默认 2。
	Indent int `yaml:"indent"`
}

// Grid 为二维结构格子节点坐标（j 外层、i 内层）。
type Grid struct {
	ISize int       `yaml:"isize"`
	JSize int       `yaml:"jsize"`
	X     []float64 `yaml:"x,flow"`
	Y     []float64 `yaml:"y,flow"`
}

// Field 为单个单元中心实数场。
type Field struct {
	Name   string    `yaml:"name"`
	Values []float64 `yaml:"values,flow"`
}

// Solution 为一个时刻的全部场（按写入顺序）。
type Solution struct {
	Time   float64 `yaml:"time"`
	Fields []Field `yaml:"fields"`
}

// Document 为容器中由本包管理的部分。
type Document struct {
	Grid      *Grid      `yaml:"grid"`
	Solutions []Solution `yaml:"solutions"`
}

// Store 实现 contract.ContainerStore。
type Store struct {
	fs     afero.Fs
	indent int
}

// New 创建 YAML 容器入口；fs 为 nil 时使用 OsFs。
func New(fs afero.Fs, opts *Options) *Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	s := &Store{fs: fs, indent: 2}
	if opts != nil && opts.Indent > 0 {
		s.indent = opts.Indent
	}
	return s
}

var _ contract.ContainerStore = (*Store)(nil)

// OpenModify 读取已存在的容器文档；空文件视为空映射。
func (s *Store) OpenModify(ctx context.Context, path string) (contract.Container, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, err
	}
	root, err := decodeRoot(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &Container{store: s, path: path, root: root}, nil
}

// Load 读取容器中的 grid 与 solutions。
func Load(fs afero.Fs, path string) (Document, error) {
	var doc Document
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return doc, err
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("%w: %s: %v", contract.ErrInvalidInput, path, err)
	}
	return doc, nil
}

func decodeRoot(data []byte) (*yaml.Node, error) {
	doc := &yaml.Node{Kind: yaml.DocumentNode}
	if len(bytes.TrimSpace(data)) == 0 {
		doc.Content = []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}
		return doc, nil
	}
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("%w: %v", contract.ErrInvalidInput, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: container document must be a mapping", contract.ErrInvalidInput)
	}
	return doc, nil
}

// setKey 替换映射中 key 的值；不存在时追加到末尾。
func setKey(m *yaml.Node, key string, val *yaml.Node) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content[i+1] = val
			return
		}
	}
	m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, val)
}

// Container 在内存中累积写入，Close 时一次性原子落盘。
type Container struct {
	store *Store
	path  string
	root  *yaml.Node
	seq   sequence.Tracker

	grid      *Grid
	solutions []Solution
	began     bool
}

var _ contract.Container = (*Container)(nil)

func (c *Container) WriteGrid2D(isize, jsize int, x, y []float64) error {
	if err := c.seq.Grid(isize, jsize, len(x), len(y)); err != nil {
		return err
	}
	c.grid = &Grid{
		ISize: isize,
		JSize: jsize,
		X:     append([]float64(nil), x...),
		Y:     append([]float64(nil), y...),
	}
	return nil
}

func (c *Container) BeginSolution() error {
	if err := c.seq.Begin(); err != nil {
		return err
	}
	c.began = true
	c.solutions = nil
	return nil
}

func (c *Container) WriteSolutionTime(t float64) error {
	if err := c.seq.Time(); err != nil {
		return err
	}
	c.solutions = append(c.solutions, Solution{Time: t})
	return nil
}

func (c *Container) WriteCellReal(name string, values []float64) error {
	if err := c.seq.Field(name, len(values)); err != nil {
		return err
	}
	cur := &c.solutions[len(c.solutions)-1]
	cur.Fields = append(cur.Fields, Field{Name: name, Values: append([]float64(nil), values...)})
	return nil
}

func (c *Container) EndSolution() error { return c.seq.End() }

// Close 在任意状态下落盘已写入的部分；重复调用为 no-op。
func (c *Container) Close() error {
	if !c.seq.Close() {
		return nil
	}
	if c.grid == nil && !c.began {
		return nil
	}
	m := c.root.Content[0]
	if c.grid != nil {
		var n yaml.Node
		if err := n.Encode(c.grid); err != nil {
			return err
		}
		setKey(m, KeyGrid, &n)
	}
	if c.began {
		var n yaml.Node
		if err := n.Encode(c.solutions); err != nil {
			return err
		}
		setKey(m, KeySolutions, &n)
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(c.store.indent)
	if err := enc.Encode(c.root); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return c.store.replace(c.path, buf.Bytes())
}

// replace: 同目录临时文件 + rename。
func (s *Store) replace(path string, data []byte) error {
	tmp, err := afero.TempFile(s.fs, filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpPath)
		return err
	}
	if err := s.fs.Rename(tmpPath, path); err != nil {
		_ = s.fs.Remove(tmpPath)
		return err
	}
	return nil
}
