package config

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// TemplateYAML 返回 --init-config 生成的默认 ascgrid.yaml：
// - 组件名采用仓库内置实现；
// - Options 列出全部键并给出中性默认值。
func TemplateYAML() []byte {
	return []byte(templateYAML)
}

const templateYAML = `# ascgrid 工具配置（由 --init-config 生成）
# 优先级：CLI > ENV(.env) > 本文件 > 默认值
# 计算条件（asc_folder、output_folder 等）写在容器文档的 calculation_condition 段中。

logging:
  level: info        # debug|info|warn|error
  dir: logs

components:
  reader: fs
  writer: fs
  condition: yaml
  container: yaml    # yaml|memory（memory 仅记录调用，不写网格）

options:
  reader:
    suffix: ""
  writer:
    atomic: true
    perm_file: 0
    perm_dir: 0
    buf_size: 65536
  condition:
    section: calculation_condition
    env_prefix: ASCGRID_CC
  container:
    indent: 2

metrics_file: ""
status: true
`

// DefaultTemplateConfig 解析模板，供测试与诊断输出使用。
func DefaultTemplateConfig() (Config, error) {
	return LoadYAML(nil, "", TemplateYAML())
}

// EnvTemplate 返回 .env 模板内容；空值表示未设置。
func EnvTemplate() string {
	var b strings.Builder
	b.WriteString("# ascgrid .env 模板（由 --init-config 生成）\n")
	b.WriteString("# 优先级：CLI > ENV(.env) > YAML\n")
	b.WriteString("# 空值表示未设置；按需填写。\n\n")

	b.WriteString("# 配置来源\n")
	b.WriteString(EnvPrefix + "CONFIG_FILE=\n\n")

	b.WriteString("# 运行参数覆盖\n")
	for _, k := range []string{"LOG_LEVEL", "LOG_DIR", "METRICS_FILE", "STATUS"} {
		b.WriteString(EnvPrefix + k + "=\n")
	}
	b.WriteString("\n# 组件选择\n")
	for _, k := range []string{"READER", "WRITER", "CONDITION", "CONTAINER"} {
		b.WriteString(EnvPrefix + "COMPONENTS_" + k + "=\n")
	}
	b.WriteString("\n# 组件 Options（原样 YAML，例如 {indent: 4}）\n")
	for _, k := range []string{"READER", "WRITER", "CONDITION", "CONTAINER"} {
		b.WriteString(EnvPrefix + "OPTIONS_" + k + "_YAML=\n")
	}
	b.WriteString("\n# 计算条件覆盖（<env_prefix>_<KEY>，键为 calculation_condition 中的名字）\n")
	for _, k := range []string{"ASC_FOLDER", "OUTPUT_FOLDER", "NUM_STEPS", "DT_SECONDS"} {
		b.WriteString("# " + EnvPrefix + "CC_" + k + "=\n")
	}
	return b.String()
}

// Dump 以 YAML 输出有效配置（诊断用）。
func Dump(cfg Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}
