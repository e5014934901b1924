package config

import (
	"gopkg.in/yaml.v3"
)

// Config: 工具自身的运行配置（一次解析，运行期不变）。
// YAML 使用 snake_case；未知字段在解析期失败。
// 计算条件不在此处，而是随容器文档读取。
type Config struct {
	Logging Logging `yaml:"logging"`

	// 组件名选择（空则使用默认名）。
	Components Components `yaml:"components"`

	// 各组件 Options 子树，原样 YAML 传入工厂。
	Options Options `yaml:"options"`

	// MetricsFile: 非空时在退出前写出 Prometheus 文本格式指标。
	MetricsFile string `yaml:"metrics_file"`
	// Status: 终端进度提示；nil 表示未设置（默认开启）。
	Status *bool `yaml:"status,omitempty"`
}

// Logging: 日志等级与目录；轮转策略为固定默认。
type Logging struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Dir   string `yaml:"dir"`
}

// Components: 组件名选择（注册表中的实现名）。
type Components struct {
	Reader    string `yaml:"reader"`
	Writer    string `yaml:"writer"`
	Condition string `yaml:"condition"`
	Container string `yaml:"container"`
}

// Options: 各组件的原样 YAML Options（未出现的键 Kind 为 0）。
type Options struct {
	Reader    yaml.Node `yaml:"reader,omitempty"`
	Writer    yaml.Node `yaml:"writer,omitempty"`
	Condition yaml.Node `yaml:"condition,omitempty"`
	Container yaml.Node `yaml:"container,omitempty"`
}
