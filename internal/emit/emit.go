// Package emit 为每个几何组输出一个容器：复制源容器，写入结构格子与逐步单元场。
package emit

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/afero"

	"ascgrid/internal/diag"
	"ascgrid/pkg/contract"
)

const comp = "emit"

// DefaultExt 为源容器无扩展名时的输出扩展名。
const DefaultExt = ".cgn"

// Input 汇总输出所需的能力。
type Input struct {
	// Source: 源容器路径，每组复制一份。
	Source string
	Reader contract.Reader
	Writer contract.Writer
	Store  contract.ContainerStore
}

// PrepareOutputDir 创建 <outputFolder>/<YYYYMMDD_HHMMSS> 并返回其路径。
func PrepareOutputDir(fs afero.Fs, outputFolder string, now time.Time) (string, error) {
	dir := filepath.Join(outputFolder, now.Format("20060102_150405"))
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir %s: %w", dir, err)
	}
	return dir, nil
}

// NodeCoordinates 返回 (ncols+1)×(nrows+1) 个节点坐标，j 外层、i 内层。
func NodeCoordinates(h contract.Header) (x, y []float64) {
	isize, jsize := h.NCols+1, h.NRows+1
	x = make([]float64, 0, isize*jsize)
	y = make([]float64, 0, isize*jsize)
	for j := 0; j < jsize; j++ {
		yj := h.YLLCorner + float64(j)*h.DY
		for i := 0; i < isize; i++ {
			x = append(x, h.XLLCorner+float64(i)*h.DX)
			y = append(y, yj)
		}
	}
	return x, y
}

// OutputName 返回组的输出文件名 <group.name><ext>。
func OutputName(source, group string) string {
	ext := filepath.Ext(source)
	if ext == "" {
		ext = DefaultExt
	}
	return group + ext
}

// WriteGroups 依次输出各组，返回已写入的容器路径。
// 任一失败立即中止；此前完成的组保留在磁盘上。
func WriteGroups(ctx context.Context, in Input, groups []contract.Group, set contract.Settings, steps []int, logger *diag.Logger) ([]string, error) {
	data, err := in.Reader.ReadFile(ctx, in.Source)
	if err != nil {
		return nil, fmt.Errorf("read source container %s: %w", in.Source, err)
	}
	written := make([]string, 0, len(groups))
	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		dest, err := writeOne(ctx, in, data, g, set, steps, logger)
		if err != nil {
			return written, err
		}
		written = append(written, dest)
	}
	return written, nil
}

func writeOne(ctx context.Context, in Input, data []byte, g contract.Group, set contract.Settings, steps []int, logger *diag.Logger) (string, error) {
	id := contract.NormalizeArtifactID(OutputName(in.Source, g.Name))
	dest, err := in.Writer.Locate(id)
	if err != nil {
		return "", fmt.Errorf("group %s: %w", g.Name, err)
	}
	term := diag.GetTerminal()
	if term != nil {
		term.GroupStart(g.Name, len(g.Members))
	}
	timer := logger.StartWith(comp, "write group", dest, map[string]string{
		"group": g.Name, "members": strconv.Itoa(len(g.Members)), "steps": strconv.Itoa(len(steps)),
	})
	fail := func(err error) (string, error) {
		code := string(diag.Classify(err))
		logger.ErrorWith(comp, code, err.Error(), timer.Since(), dest, map[string]string{"group": g.Name})
		diag.IncError(comp, code)
		diag.IncOp(comp, diag.StageFinish, "error")
		if term != nil {
			term.GroupFinish(false, time.Since(*timer.Since()))
		}
		return "", fmt.Errorf("group %s: %w", g.Name, err)
	}

	if err := in.Writer.Write(ctx, id, bytes.NewReader(data)); err != nil {
		return fail(fmt.Errorf("copy container: %w", err))
	}
	c, err := in.Store.OpenModify(ctx, dest)
	if err != nil {
		return fail(fmt.Errorf("open container: %w", err))
	}
	if err := writeContainer(ctx, c, g, set, steps); err != nil {
		return fail(err)
	}
	timer.Finish(g.Name, int64(len(steps)))
	diag.IncOp(comp, diag.StageFinish, "success")
	if term != nil {
		term.GroupFinish(true, time.Since(*timer.Since()))
	}
	return dest, nil
}

// writeContainer 按固定顺序调用容器写 API；出错时仍关闭容器。
func writeContainer(ctx context.Context, c contract.Container, g contract.Group, set contract.Settings, steps []int) (err error) {
	defer func() {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close container: %w", cerr)
		}
	}()

	x, y := NodeCoordinates(g.Header)
	if err := c.WriteGrid2D(g.Header.NCols+1, g.Header.NRows+1, x, y); err != nil {
		return fmt.Errorf("write grid: %w", err)
	}
	if err := c.BeginSolution(); err != nil {
		return fmt.Errorf("begin solution: %w", err)
	}
	cells := g.Header.Cells()
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.WriteSolutionTime(set.Time(step)); err != nil {
			return fmt.Errorf("step %d: write time: %w", step, err)
		}
		for _, m := range g.Members {
			vals := m.ValuesAt(step)
			if len(vals) != cells {
				return fmt.Errorf("%w: step %d %s has %d values, grid has %d cells", contract.ErrGeometryMismatch, step, m.Name, len(vals), cells)
			}
			if err := c.WriteCellReal(m.Name, vals); err != nil {
				return fmt.Errorf("step %d: write %s: %w", step, m.Name, err)
			}
		}
	}
	if err := c.EndSolution(); err != nil {
		return fmt.Errorf("end solution: %w", err)
	}
	return nil
}
