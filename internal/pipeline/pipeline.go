package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"

	"ascgrid/internal/diag"
	"ascgrid/internal/emit"
	"ascgrid/internal/grouping"
	"ascgrid/internal/series"
	"ascgrid/internal/settings"
	"ascgrid/pkg/contract"
)

// - 全程顺序执行：设置 → 收集 → 分组 → 输出目录 → 逐组输出。
// - 首错即停：任一阶段失败立即返回；已完成的组保留在磁盘上。
// - ctx 仅在阶段/步之间检查。

const compName = "pipeline"

// Components 聚合运行所需的原子组件。
type Components struct {
	// Fs 为各组件共享的文件系统，用于创建输出目录。
	Fs        afero.Fs
	Reader    contract.Reader
	Condition contract.ConditionSource
	Container contract.ContainerStore
	// NewWriter 以运行期确定的输出根构造 Writer。
	NewWriter func(outputDir string) (contract.Writer, error)
}

// Settings 运行期参数（最小必要）。
type Settings struct {
	// ContainerPath: 源容器，同时承载计算条件。
	ContainerPath string
	// Variables: 候选变量表；为空使用 contract.KnownVariables()。
	Variables []string
	// Now: 输出子目录时间戳来源；nil 使用 time.Now。
	Now func() time.Time
}

// Result 汇总一次运行的产物。
type Result struct {
	OutputDir string
	Steps     int
	Variables []string
	Written   []string
}

// Run 执行完整流程并返回产物概要。
// 没有可用变量时返回 contract.ErrNoVariables。
func Run(ctx context.Context, comp Components, set Settings, logger *diag.Logger) (Result, error) {
	var res Result
	if err := sanity(comp, set); err != nil {
		return res, fmt.Errorf("sanity: %w", err)
	}
	vars := set.Variables
	if len(vars) == 0 {
		vars = contract.KnownVariables()
	}
	now := time.Now
	if set.Now != nil {
		now = set.Now
	}

	ok, err := comp.Reader.Exists(ctx, set.ContainerPath)
	if err != nil {
		return res, fmt.Errorf("stat container %s: %w", set.ContainerPath, err)
	}
	if !ok {
		return res, fmt.Errorf("%w: container %s not found", contract.ErrInvalidInput, set.ContainerPath)
	}

	// 计算条件
	t := logger.StartWith(compName, "read settings", set.ContainerPath, nil)
	rs, err := settings.Read(ctx, comp.Condition, set.ContainerPath, vars)
	if err != nil {
		return res, fail(logger, "settings", t, err)
	}
	t.Finish("settings", int64(len(rs.Variables)))
	logger.DebugStart(compName, "effective settings", set.ContainerPath, map[string]string{
		"asc_folder":    rs.ASCFolder,
		"output_folder": rs.OutputFolder,
		"encoding":      rs.Encoding.String(),
		"flip_y":        strconv.FormatBool(rs.FlipY),
		"start_index":   strconv.Itoa(rs.StartIndex),
		"num_steps":     strconv.Itoa(rs.NumSteps),
		"zero_pad":      strconv.Itoa(rs.ZeroPad),
		"variables":     strings.Join(rs.Variables, ","),
	})
	if len(rs.Variables) == 0 {
		return res, fail(logger, "settings", nil, fmt.Errorf("%w: no use_<variable> switch enabled", contract.ErrNoVariables))
	}

	// 收集
	t = logger.Start(compName, "collect")
	steps, collected, err := series.Collect(ctx, comp.Reader, rs, logger)
	if err != nil {
		return res, fail(logger, "collect", t, err)
	}
	if len(collected) == 0 {
		return res, fail(logger, "collect", t, fmt.Errorf("%w: no raster files for %s", contract.ErrNoVariables, strings.Join(rs.Variables, ",")))
	}
	t.Finish("collect", int64(len(collected)))
	res.Steps = len(steps)
	for _, vs := range collected {
		res.Variables = append(res.Variables, vs.Name)
	}

	if err := ctx.Err(); err != nil {
		return res, err
	}
	groups := grouping.ByGeometry(collected)
	logger.DebugStart(compName, "grouped", "", map[string]string{"groups": strconv.Itoa(len(groups))})

	// 输出
	dir, err := emit.PrepareOutputDir(comp.Fs, rs.OutputFolder, now())
	if err != nil {
		return res, fail(logger, "emit", nil, err)
	}
	res.OutputDir = dir
	w, err := comp.NewWriter(dir)
	if err != nil {
		return res, fail(logger, "emit", nil, fmt.Errorf("writer: %w", err))
	}
	t = logger.StartWith(compName, "emit", dir, map[string]string{"groups": strconv.Itoa(len(groups))})
	written, err := emit.WriteGroups(ctx, emit.Input{
		Source: set.ContainerPath,
		Reader: comp.Reader,
		Writer: w,
		Store:  comp.Container,
	}, groups, rs, steps, logger)
	res.Written = written
	if err != nil {
		return res, fail(logger, "emit", t, err)
	}
	t.Finish("emit", int64(len(written)))
	diag.IncOp(compName, diag.StageFinish, "success")
	return res, nil
}

// fail 记录阶段错误并原样返回。
func fail(logger *diag.Logger, stage string, t *diag.Timer, err error) error {
	code := diag.Classify(err)
	logger.ErrorWith(compName, string(code), stage+": "+err.Error(), t.Since(), "", nil)
	diag.IncOp(compName, diag.StageError, "error")
	if code != diag.CodeUnknown {
		diag.IncError(compName, string(code))
	}
	return err
}

func sanity(c Components, s Settings) error {
	if c.Fs == nil || c.Reader == nil || c.Condition == nil || c.Container == nil || c.NewWriter == nil {
		return errors.New("nil component")
	}
	if strings.TrimSpace(s.ContainerPath) == "" {
		return fmt.Errorf("%w: container path empty", contract.ErrInvalidInput)
	}
	return nil
}
