package registry

import (
	"bytes"
	"errors"
	"io"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"ascgrid/pkg/contract"
	cyaml "ascgrid/plugins/condition/yamldoc"
	cmem "ascgrid/plugins/container/memory"
	kyaml "ascgrid/plugins/container/yamldoc"
	rfs "ascgrid/plugins/reader/filesystem"
	wfs "ascgrid/plugins/writer/filesystem"
)

// strictUnmarshal: 使用 KnownFields 严格解码 YAML，拒绝未知字段。
func strictUnmarshal(raw []byte, v any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		// 保持零值（默认选项）
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// NewReader 工厂签名：接收共享 Fs 与原样 YAML Options。
type NewReader func(fs afero.Fs, raw []byte) (contract.Reader, error)

// NewWriter 工厂签名：outputDir 为运行期确定的输出根，覆盖 Options 中的 output_dir。
type NewWriter func(fs afero.Fs, raw []byte, outputDir string) (contract.Writer, error)

// NewCondition 工厂签名。
type NewCondition func(fs afero.Fs, raw []byte) (contract.ConditionSource, error)

// NewContainer 工厂签名。
type NewContainer func(fs afero.Fs, raw []byte) (contract.ContainerStore, error)

// Reader 工厂注册表（显式、零反射）。
var Reader = map[string]NewReader{
	// fs: 文件系统栅格源
	"fs": func(fs afero.Fs, raw []byte) (contract.Reader, error) {
		var opts rfs.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return rfs.New(fs, &opts), nil
	},
}

// Writer 工厂注册表。
var Writer = map[string]NewWriter{
	// fs: 文件系统 Writer（覆盖写/原子替换可配置）
	"fs": func(fs afero.Fs, raw []byte, outputDir string) (contract.Writer, error) {
		var opts wfs.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		if outputDir != "" {
			opts.OutputDir = outputDir
		}
		return wfs.New(fs, &opts)
	},
}

// Condition 工厂注册表。
var Condition = map[string]NewCondition{
	// yaml: 容器文档中的 calculation_condition 段（viper）
	"yaml": func(fs afero.Fs, raw []byte) (contract.ConditionSource, error) {
		var opts cyaml.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return cyaml.New(fs, &opts), nil
	},
}

// Container 工厂注册表。
var Container = map[string]NewContainer{
	// yaml: YAML 容器文档
	"yaml": func(fs afero.Fs, raw []byte) (contract.ContainerStore, error) {
		var opts kyaml.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return kyaml.New(fs, &opts), nil
	},
	// memory: 仅记录调用序列（试运行）
	"memory": func(_ afero.Fs, raw []byte) (contract.ContainerStore, error) {
		var opts cmem.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return cmem.New(&opts), nil
	},
}
