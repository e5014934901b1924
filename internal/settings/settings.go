// Package settings 从计算条件构建只读的运行设置。
package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"ascgrid/pkg/contract"
)

var validate = validator.New()

// fields 为计算条件中读取到的原始值（校验后转换为 contract.Settings）。
type fields struct {
	ASCFolder    string `validate:"required"`
	OutputFolder string `validate:"required"`
	Encoding     int    `validate:"min=0,max=2"`
	FlipY        int
	StartIndex   int
	NumSteps     int `validate:"min=0"`
	// ZeroPad: %0*d 的宽度，须非负。
	ZeroPad   int `validate:"min=0"`
	DTSeconds float64
	T0Seconds float64
}

// Read 打开 path 的计算条件并读取全部字段。
// vars 为候选变量表（通常为 contract.KnownVariables()）；use_<var> 为 1 时启用，
// 缺失的开关视为未启用，其余键缺失为错误。
func Read(ctx context.Context, src contract.ConditionSource, path string, vars []string) (contract.Settings, error) {
	cond, err := src.Open(ctx, path)
	if err != nil {
		return contract.Settings{}, err
	}
	defer cond.Close()

	var f fields
	if f.ASCFolder, err = cond.String("asc_folder"); err != nil {
		return contract.Settings{}, err
	}
	if f.OutputFolder, err = cond.String("output_folder"); err != nil {
		return contract.Settings{}, err
	}
	ints := []struct {
		name string
		dst  *int
	}{
		{"encoding", &f.Encoding},
		{"flip_y", &f.FlipY},
		{"start_index", &f.StartIndex},
		{"num_steps", &f.NumSteps},
		{"zero_pad", &f.ZeroPad},
	}
	for _, it := range ints {
		if *it.dst, err = cond.Integer(it.name); err != nil {
			return contract.Settings{}, err
		}
	}
	if f.DTSeconds, err = cond.Real("dt_seconds"); err != nil {
		return contract.Settings{}, err
	}
	if f.T0Seconds, err = cond.Real("t0_seconds"); err != nil {
		return contract.Settings{}, err
	}

	enabled, err := readSwitches(cond, vars)
	if err != nil {
		return contract.Settings{}, err
	}

	f.ASCFolder = strings.TrimSpace(f.ASCFolder)
	f.OutputFolder = strings.TrimSpace(f.OutputFolder)
	if err := validate.Struct(f); err != nil {
		return contract.Settings{}, fmt.Errorf("%w: %v", contract.ErrInvalidSettings, err)
	}
	return contract.Settings{
		ASCFolder:    f.ASCFolder,
		OutputFolder: f.OutputFolder,
		Encoding:     contract.Encoding(f.Encoding),
		FlipY:        f.FlipY == 1,
		StartIndex:   f.StartIndex,
		NumSteps:     f.NumSteps,
		ZeroPad:      f.ZeroPad,
		DTSeconds:    f.DTSeconds,
		T0Seconds:    f.T0Seconds,
		Variables:    enabled,
	}, nil
}

// readSwitches 按 vars 顺序返回启用的变量（去重）。
func readSwitches(cond contract.Condition, vars []string) ([]string, error) {
	seen := make(map[string]struct{}, len(vars))
	enabled := make([]string, 0, len(vars))
	for _, v := range vars {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		flag, err := cond.Integer(contract.SwitchName(v))
		if errors.Is(err, contract.ErrConditionMissing) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if flag == 1 {
			enabled = append(enabled, v)
		}
	}
	return enabled, nil
}
