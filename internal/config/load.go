package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// EnvPrefix 为工具配置的环境变量前缀。
// ASCGRID_CC_* 属于计算条件覆盖，由条件源读取，这里忽略。
const EnvPrefix = "ASCGRID_"

// Defaults 返回带有安全默认值的 Config 雏形。
func Defaults() Config {
	return Config{
		Logging: Logging{Level: "info", Dir: "logs"},
		Components: Components{
			Reader:    "fs",
			Writer:    "fs",
			Condition: "yaml",
			Container: "yaml",
		},
	}
}

// LoadYAML 从文件路径或原始 YAML 解析 Config（严格拒绝未知字段）。
// raw 非空时优先；fs 为 nil 时使用 OsFs。
func LoadYAML(fs afero.Fs, path string, raw []byte) (Config, error) {
	var cfg Config
	switch {
	case len(raw) > 0:
	case path != "":
		if fs == nil {
			fs = afero.NewOsFs()
		}
		b, err := afero.ReadFile(fs, path)
		if err != nil {
			return cfg, err
		}
		raw = b
	default:
		return cfg, errors.New("no config source provided")
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Merge 按优先级合并（后者覆盖前者）。
// 仅标量/字符串/原样 YAML 为“替换”；不做深度合并。
func Merge(base, over Config) Config {
	out := base
	// Logging
	if v := strings.TrimSpace(over.Logging.Level); v != "" {
		out.Logging.Level = v
	}
	if v := strings.TrimSpace(over.Logging.Dir); v != "" {
		out.Logging.Dir = v
	}

	// 组件名（空不覆盖）
	if over.Components.Reader != "" {
		out.Components.Reader = over.Components.Reader
	}
	if over.Components.Writer != "" {
		out.Components.Writer = over.Components.Writer
	}
	if over.Components.Condition != "" {
		out.Components.Condition = over.Components.Condition
	}
	if over.Components.Container != "" {
		out.Components.Container = over.Components.Container
	}

	// Options（完整替换对应键）
	if isSet(over.Options.Reader) {
		out.Options.Reader = over.Options.Reader
	}
	if isSet(over.Options.Writer) {
		out.Options.Writer = over.Options.Writer
	}
	if isSet(over.Options.Condition) {
		out.Options.Condition = over.Options.Condition
	}
	if isSet(over.Options.Container) {
		out.Options.Container = over.Options.Container
	}

	if v := strings.TrimSpace(over.MetricsFile); v != "" {
		out.MetricsFile = v
	}
	if over.Status != nil {
		s := *over.Status
		out.Status = &s
	}
	return out
}

// EnvOverlay 从环境变量构建一个 Config 覆盖（仅解析有限键集合）。
// 支持：LOG_LEVEL, LOG_DIR, METRICS_FILE, STATUS, COMPONENTS_*
// 以及 OPTIONS_<COMPONENT>_YAML（原样 YAML 子树）。
func EnvOverlay(environ []string) (Config, error) {
	var over Config
	for _, kv := range environ {
		if !strings.HasPrefix(kv, EnvPrefix) {
			continue
		}
		eq := strings.IndexByte(kv, '=')
		if eq <= len(EnvPrefix) {
			continue
		}
		key := strings.TrimPrefix(kv[:eq], EnvPrefix)
		val := strings.TrimSpace(kv[eq+1:])
		if val == "" {
			// 空值视为未设置，避免覆盖配置文件
			continue
		}
		switch key {
		case "LOG_LEVEL":
			over.Logging.Level = val
		case "LOG_DIR":
			over.Logging.Dir = val
		case "METRICS_FILE":
			over.MetricsFile = val
		case "STATUS":
			b, err := cast.ToBoolE(val)
			if err != nil {
				return over, fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
			}
			over.Status = &b
		case "COMPONENTS_READER":
			over.Components.Reader = val
		case "COMPONENTS_WRITER":
			over.Components.Writer = val
		case "COMPONENTS_CONDITION":
			over.Components.Condition = val
		case "COMPONENTS_CONTAINER":
			over.Components.Container = val
		case "OPTIONS_READER_YAML", "OPTIONS_WRITER_YAML", "OPTIONS_CONDITION_YAML", "OPTIONS_CONTAINER_YAML":
			var doc yaml.Node
			if err := yaml.Unmarshal([]byte(val), &doc); err != nil {
				return over, fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
			}
			n := unwrap(doc)
			switch key {
			case "OPTIONS_READER_YAML":
				over.Options.Reader = n
			case "OPTIONS_WRITER_YAML":
				over.Options.Writer = n
			case "OPTIONS_CONDITION_YAML":
				over.Options.Condition = n
			case "OPTIONS_CONTAINER_YAML":
				over.Options.Container = n
			}
		default:
			// 非本集合的键忽略（例如 CONFIG_FILE、CC_*）。
		}
	}
	return over, nil
}

// RawOptions 把 Options 子树编码回 YAML 字节；未设置时返回 nil。
func RawOptions(n yaml.Node) ([]byte, error) {
	if !isSet(n) {
		return nil, nil
	}
	return yaml.Marshal(&n)
}

func isSet(n yaml.Node) bool {
	if n.Kind == 0 {
		return false
	}
	return !(n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null")
}

// unwrap 去掉文档节点外壳。
func unwrap(doc yaml.Node) yaml.Node {
	if doc.Kind == yaml.DocumentNode && len(doc.Content) == 1 {
		return *doc.Content[0]
	}
	return doc
}
