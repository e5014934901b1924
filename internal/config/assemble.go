package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"

	"ascgrid/internal/pipeline"
	"ascgrid/pkg/contract"
	"ascgrid/pkg/registry"
)

var validate = validator.New()

// Validate 对最小必要边界做静态校验。
func Validate(cfg Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	// 组件名若为空，使用默认名（由 Defaults() 提供）。此处只要最终有值即可。
	d := Defaults()
	if name := effName(cfg.Components.Reader, d.Components.Reader); registry.Reader[name] == nil {
		return fmt.Errorf("config: reader %q not registered", name)
	}
	if name := effName(cfg.Components.Writer, d.Components.Writer); registry.Writer[name] == nil {
		return fmt.Errorf("config: writer %q not registered", name)
	}
	if name := effName(cfg.Components.Condition, d.Components.Condition); registry.Condition[name] == nil {
		return fmt.Errorf("config: condition %q not registered", name)
	}
	if name := effName(cfg.Components.Container, d.Components.Container); registry.Container[name] == nil {
		return fmt.Errorf("config: container %q not registered", name)
	}
	return nil
}

// Assemble 构造 pipeline.Components，所有组件共享 fs（nil 使用 OsFs）。
// 严格 Options 解析在 registry（工厂）层进行；此处只传 raw YAML。
func Assemble(cfg Config, fs afero.Fs) (pipeline.Components, error) {
	if err := Validate(cfg); err != nil {
		return pipeline.Components{}, err
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}
	d := Defaults()
	rn := effName(cfg.Components.Reader, d.Components.Reader)
	wn := effName(cfg.Components.Writer, d.Components.Writer)
	cn := effName(cfg.Components.Condition, d.Components.Condition)
	kn := effName(cfg.Components.Container, d.Components.Container)

	rawR, err := RawOptions(cfg.Options.Reader)
	if err != nil {
		return pipeline.Components{}, err
	}
	rawW, err := RawOptions(cfg.Options.Writer)
	if err != nil {
		return pipeline.Components{}, err
	}
	rawC, err := RawOptions(cfg.Options.Condition)
	if err != nil {
		return pipeline.Components{}, err
	}
	rawK, err := RawOptions(cfg.Options.Container)
	if err != nil {
		return pipeline.Components{}, err
	}

	r, err := registry.Reader[rn](fs, rawR)
	if err != nil {
		return pipeline.Components{}, fmt.Errorf("reader %s: %w", rn, err)
	}
	cond, err := registry.Condition[cn](fs, rawC)
	if err != nil {
		return pipeline.Components{}, fmt.Errorf("condition %s: %w", cn, err)
	}
	store, err := registry.Container[kn](fs, rawK)
	if err != nil {
		return pipeline.Components{}, fmt.Errorf("container %s: %w", kn, err)
	}
	// Writer 的输出根在运行期确定；先以占位根校验 Options。
	newWriter := registry.Writer[wn]
	if _, err := newWriter(fs, rawW, "."); err != nil {
		return pipeline.Components{}, fmt.Errorf("writer %s: %w", wn, err)
	}

	return pipeline.Components{
		Fs:        fs,
		Reader:    r,
		Condition: cond,
		Container: store,
		NewWriter: func(outputDir string) (contract.Writer, error) {
			return newWriter(fs, rawW, outputDir)
		},
	}, nil
}

func effName(got, def string) string {
	if got == "" {
		return def
	}
	return got
}
