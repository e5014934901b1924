// Package yamldoc 从容器文档（YAML）的 calculation_condition 段读取计算条件。
// 环境变量 <EnvPrefix>_<KEY> 覆盖文档中的值。
package yamldoc

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"ascgrid/pkg/contract"
)

// Options: 段名与环境变量前缀。
type Options struct {
	// Section: 计算条件所在的顶层键，默认 calculation_condition。
	Section string `yaml:"section"`
	// EnvPrefix: 覆盖用环境变量前缀，默认 ASCGRID_CC。
	EnvPrefix string `yaml:"env_prefix"`
}

const (
	defaultSection   = "calculation_condition"
	defaultEnvPrefix = "ASCGRID_CC"
)

// Source 实现 contract.ConditionSource。
type Source struct {
	fs        afero.Fs
	section   string
	envPrefix string
}

// New 创建条件源；fs 为 nil 时使用 OsFs。
func New(fs afero.Fs, opts *Options) *Source {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	s := &Source{fs: fs, section: defaultSection, envPrefix: defaultEnvPrefix}
	if opts != nil {
		if v := strings.TrimSpace(opts.Section); v != "" {
			s.section = v
		}
		if v := strings.TrimSpace(opts.EnvPrefix); v != "" {
			s.envPrefix = v
		}
	}
	return s
}

var _ contract.ConditionSource = (*Source)(nil)

// Open 以 YAML 解析 path（不看扩展名）。
func (s *Source) Open(ctx context.Context, path string) (contract.Condition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v := viper.New()
	v.SetFs(s.fs)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read calculation condition %s: %w", path, err)
	}
	return &Condition{v: v, section: s.section, envPrefix: s.envPrefix}, nil
}

// Condition 为已打开的计算条件。
type Condition struct {
	v         *viper.Viper
	section   string
	envPrefix string
	closed    bool
}

var _ contract.Condition = (*Condition)(nil)

func (c *Condition) lookup(name string) (any, error) {
	if c.closed {
		return nil, fmt.Errorf("%w: condition closed", contract.ErrInvalidInput)
	}
	key := c.section + "." + name
	_ = c.v.BindEnv(key, c.envPrefix+"_"+strings.ToUpper(name))
	if !c.v.IsSet(key) {
		return nil, fmt.Errorf("%w: %s", contract.ErrConditionMissing, name)
	}
	return c.v.Get(key), nil
}

func (c *Condition) String(name string) (string, error) {
	raw, err := c.lookup(name)
	if err != nil {
		return "", err
	}
	s, err := cast.ToStringE(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", contract.ErrInvalidInput, name, err)
	}
	return s, nil
}

// Integer 拒绝带小数部分的实数。
func (c *Condition) Integer(name string) (int, error) {
	raw, err := c.lookup(name)
	if err != nil {
		return 0, err
	}
	if f, ok := raw.(float64); ok && f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: %s: %v is not an integer", contract.ErrInvalidInput, name, f)
	}
	n, err := cast.ToIntE(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", contract.ErrInvalidInput, name, err)
	}
	return n, nil
}

func (c *Condition) Real(name string) (float64, error) {
	raw, err := c.lookup(name)
	if err != nil {
		return 0, err
	}
	f, err := cast.ToFloat64E(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", contract.ErrInvalidInput, name, err)
	}
	return f, nil
}

func (c *Condition) Close() error {
	c.closed = true
	return nil
}
