// Package series 按设置收集各变量的时间序列：确定步序列，逐步读取栅格，
// 缺失或头不一致的步以 NaN 占位。
package series

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"

	"ascgrid/internal/diag"
	"ascgrid/internal/raster"
	"ascgrid/pkg/contract"
)

const comp = "series"

// Collect 返回步序列与各变量的序列（按 set.Variables 顺序，跳过无任何文件的变量）。
// 解析错误为致命；单步缺失或头不一致只计入 Missing。
func Collect(ctx context.Context, r contract.Reader, set contract.Settings, logger *diag.Logger) ([]int, []contract.VariableSeries, error) {
	ok, err := r.Stat(ctx, set.ASCFolder)
	if err != nil {
		return nil, nil, fmt.Errorf("stat asc_folder %s: %w", set.ASCFolder, err)
	}
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", contract.ErrSourceMissing, set.ASCFolder)
	}

	count := set.NumSteps
	if count == 0 {
		maxIndex, err := DetectMaxIndex(ctx, r, set)
		if err != nil {
			return nil, nil, err
		}
		count = maxIndex - set.StartIndex + 1
		if count <= 0 {
			return nil, nil, fmt.Errorf("%w: start=%d max=%d", contract.ErrNoSteps, set.StartIndex, maxIndex)
		}
		logger.DebugStart(comp, "steps detected", "", map[string]string{
			"start": strconv.Itoa(set.StartIndex), "max": strconv.Itoa(maxIndex), "num_steps": strconv.Itoa(count),
		})
	} else if count < 0 {
		return nil, nil, fmt.Errorf("%w: num_steps=%d", contract.ErrNoSteps, count)
	}
	steps := set.Steps(count)
	if term := diag.GetTerminal(); term != nil {
		term.RunStart(set.ASCFolder, len(steps))
	}

	out := make([]contract.VariableSeries, 0, len(set.Variables))
	for _, v := range set.Variables {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		timer := logger.StartWith(comp, "collect variable", "", map[string]string{"variable": v})
		vs, found, err := collectVariable(ctx, r, set, v, steps, logger)
		if err != nil {
			logger.ErrorWith(comp, string(diag.Classify(err)), err.Error(), timer.Since(), "", map[string]string{"variable": v})
			diag.IncError(comp, string(diag.Classify(err)))
			return nil, nil, err
		}
		if !found {
			msg := fmt.Sprintf("%s: no raster files found, variable skipped", v)
			logger.Warn(comp, "variable_skipped", msg, "", map[string]string{"variable": v})
			if term := diag.GetTerminal(); term != nil {
				term.Warn(msg)
			}
			continue
		}
		timer.Finish(fmt.Sprintf("%s missing=%d/%d", v, vs.Missing, len(steps)), int64(len(steps)))
		diag.IncOp(comp, diag.StageFinish, "success")
		if term := diag.GetTerminal(); term != nil {
			term.VariableDone(v, vs.Missing)
		}
		out = append(out, vs)
	}
	return steps, out, nil
}

// DetectMaxIndex 扫描源目录中 <variable>_<digits>.asc，返回位数等于 ZeroPad 的最大步号。
// 变量名部分大小写不敏感；无匹配时返回 ErrNoSteps。
func DetectMaxIndex(ctx context.Context, r contract.Reader, set contract.Settings) (int, error) {
	names, err := r.List(ctx, set.ASCFolder)
	if err != nil {
		return 0, fmt.Errorf("list asc_folder %s: %w", set.ASCFolder, err)
	}
	patterns := make([]*regexp.Regexp, 0, len(set.Variables))
	for _, v := range set.Variables {
		patterns = append(patterns, regexp.MustCompile(`^(?i:`+regexp.QuoteMeta(v)+`)_(\d+)\.asc$`))
	}
	maxIndex, found := 0, false
	for _, name := range names {
		for _, re := range patterns {
			m := re.FindStringSubmatch(name)
			if m == nil || len(m[1]) != set.ZeroPad {
				continue
			}
			idx, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			if !found || idx > maxIndex {
				maxIndex, found = idx, true
			}
		}
	}
	if !found {
		return 0, fmt.Errorf("%w: no raster files in %s", contract.ErrNoSteps, set.ASCFolder)
	}
	return maxIndex, nil
}

// collectVariable 以首个存在的步文件为参考头，found=false 表示所有步都缺文件。
func collectVariable(ctx context.Context, r contract.Reader, set contract.Settings, v string, steps []int, logger *diag.Logger) (contract.VariableSeries, bool, error) {
	vs := contract.VariableSeries{Name: v, Values: make(map[int][]float64, len(steps))}

	refStep := -1
	var refValues []float64
	for _, step := range steps {
		p := filepath.Join(set.ASCFolder, set.StepFileName(v, step))
		ok, err := r.Exists(ctx, p)
		if err != nil {
			return vs, false, fmt.Errorf("%s: %w", p, err)
		}
		if !ok {
			continue
		}
		h, vals, err := readRaster(ctx, r, p, set)
		if err != nil {
			return vs, false, err
		}
		vs.Header, refStep, refValues = h, step, vals
		break
	}
	if refStep < 0 {
		return vs, false, nil
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return vs, false, err
		}
		if step == refStep {
			vs.Values[step] = refValues
			continue
		}
		p := filepath.Join(set.ASCFolder, set.StepFileName(v, step))
		ok, err := r.Exists(ctx, p)
		if err != nil {
			return vs, false, fmt.Errorf("%s: %w", p, err)
		}
		if !ok {
			markMissing(&vs, step, logger, p, "missing_step", fmt.Sprintf("%s: file missing, filled with NaN", p))
			continue
		}
		h, vals, err := readRaster(ctx, r, p, set)
		if err != nil {
			return vs, false, err
		}
		if !h.Same(vs.Header) {
			markMissing(&vs, step, logger, p, "header_mismatch", fmt.Sprintf("%s: header differs from reference, treated as missing", p))
			continue
		}
		vs.Values[step] = vals
	}
	return vs, true, nil
}

func readRaster(ctx context.Context, r contract.Reader, p string, set contract.Settings) (contract.Header, []float64, error) {
	data, err := r.ReadFile(ctx, p)
	if err != nil {
		return contract.Header{}, nil, fmt.Errorf("read %s: %w", p, err)
	}
	h, vals, err := raster.Parse(data, set.Encoding, set.FlipY)
	if err != nil {
		return contract.Header{}, nil, fmt.Errorf("%s: %w", p, err)
	}
	diag.IncRasters()
	return h, vals, nil
}

func markMissing(vs *contract.VariableSeries, step int, logger *diag.Logger, p, code, msg string) {
	vs.Values[step] = contract.NaNValues(vs.Header.Cells())
	vs.Missing++
	logger.Warn(comp, code, msg, p, map[string]string{"variable": vs.Name, "step": strconv.Itoa(step)})
	diag.IncMissing(vs.Name)
	if term := diag.GetTerminal(); term != nil {
		term.Warn(msg)
	}
}
