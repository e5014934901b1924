package series

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"ascgrid/internal/diag"
	"ascgrid/pkg/contract"
	fsreader "ascgrid/plugins/reader/filesystem"
)

const folder = "/data/asc"

func grid(ncols, nrows int, x0 float64, fill float64) string {
	s := fmt.Sprintf("ncols %d\nnrows %d\nxllcorner %g\nyllcorner 0\ncellsize 10\nnodata_value -9999\n", ncols, nrows, x0)
	for j := 0; j < nrows; j++ {
		for i := 0; i < ncols; i++ {
			if i > 0 {
				s += " "
			}
			s += fmt.Sprintf("%g", fill)
		}
		s += "\n"
	}
	return s
}

func setup(t *testing.T, files map[string]string) contract.Reader {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(folder, 0o755))
	for name, body := range files {
		require.NoError(t, afero.WriteFile(fs, filepath.Join(folder, name), []byte(body), 0o644))
	}
	return fsreader.New(fs, nil)
}

func baseSettings(vars ...string) contract.Settings {
	return contract.Settings{ASCFolder: folder, StartIndex: 1, ZeroPad: 4, Variables: vars}
}

// 自动检测：v_0001..v_0010 → 10 步；位数不符的 v_1.asc 被忽略
func TestDetectMaxIndex(t *testing.T) {
	files := map[string]string{"v_1.asc": "x", "V_0011.ASC": "x", "notes.txt": "x"}
	for i := 1; i <= 10; i++ {
		files[fmt.Sprintf("v_%04d.asc", i)] = "x"
	}
	files["V_0012.asc"] = "x" // 变量名大小写不敏感
	r := setup(t, files)

	set := baseSettings("v")
	got, err := DetectMaxIndex(context.Background(), r, set)
	require.NoError(t, err)
	assert.Equal(t, 12, got)

	delete(files, "V_0012.asc")
	r = setup(t, files)
	got, err = DetectMaxIndex(context.Background(), r, set)
	require.NoError(t, err)
	assert.Equal(t, 10, got, "扩展名大写的 V_0011.ASC 不参与")
}

func TestCollectAutoDetectSteps(t *testing.T) {
	files := map[string]string{"v_1.asc": grid(1, 1, 0, 9)}
	for i := 1; i <= 10; i++ {
		files[fmt.Sprintf("v_%04d.asc", i)] = grid(1, 1, 0, float64(i))
	}
	r := setup(t, files)
	steps, vs, err := Collect(context.Background(), r, baseSettings("v"), diag.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, steps)
	require.Len(t, vs, 1)
	assert.Equal(t, 0, vs[0].Missing)
	assert.Equal(t, []float64{7}, vs[0].Values[7])
}

func TestCollectNoFilesOrNonPositiveCount(t *testing.T) {
	r := setup(t, map[string]string{"hf_1.asc": grid(1, 1, 0, 1)})
	_, _, err := Collect(context.Background(), r, baseSettings("hf"), diag.NewNop())
	assert.ErrorIs(t, err, contract.ErrNoSteps)

	r = setup(t, map[string]string{"hf_0003.asc": grid(1, 1, 0, 1)})
	set := baseSettings("hf")
	set.StartIndex = 5
	_, _, err = Collect(context.Background(), r, set, diag.NewNop())
	assert.ErrorIs(t, err, contract.ErrNoSteps)
}

func TestCollectSourceMissing(t *testing.T) {
	r := fsreader.New(afero.NewMemMapFs(), nil)
	_, _, err := Collect(context.Background(), r, baseSettings("hf"), diag.NewNop())
	assert.ErrorIs(t, err, contract.ErrSourceMissing)
}

// 缺失文件 → 全 NaN 且 Missing 恰好 +1；头不一致同样按缺失处理
func TestCollectMissingAndMismatch(t *testing.T) {
	r := setup(t, map[string]string{
		"hf_0002.asc": grid(2, 2, 0, 1),
		"hf_0003.asc": grid(2, 2, 5, 2), // xllcorner 不同
		"hf_0004.asc": grid(2, 2, 0, 4),
		// 几何相同，仅 nodata_value 不同
		"hf_0005.asc": strings.Replace(grid(2, 2, 0, 5), "nodata_value -9999", "nodata_value -1", 1),
	})
	core, logs := observer.New(zapcore.WarnLevel)
	set := baseSettings("hf")
	set.NumSteps = 5

	steps, vs, err := Collect(context.Background(), r, set, diag.NewWithCore("t", core))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, steps)
	require.Len(t, vs, 1)
	s := vs[0]
	assert.Equal(t, 3, s.Missing)
	assert.Equal(t, contract.Header{NCols: 2, NRows: 2, NoData: -9999, DX: 10, DY: 10}, s.Header)
	for _, step := range []int{1, 3, 5} {
		require.Len(t, s.Values[step], 4)
		for _, v := range s.Values[step] {
			assert.True(t, math.IsNaN(v), "step %d", step)
		}
	}
	assert.Equal(t, []float64{1, 1, 1, 1}, s.Values[2])
	assert.Equal(t, []float64{4, 4, 4, 4}, s.Values[4])

	assert.Equal(t, 1, logs.FilterField(zap.String("code", "missing_step")).Len())
	assert.Equal(t, 2, logs.FilterField(zap.String("code", "header_mismatch")).Len())
}

// 无任何文件的变量被跳过；输出顺序跟随设置中的变量顺序
func TestCollectSkipsAbsentVariable(t *testing.T) {
	r := setup(t, map[string]string{
		"qr_0001.asc": grid(1, 1, 0, 2),
		"hf_0001.asc": grid(1, 1, 0, 1),
	})
	set := baseSettings("qr", "hs", "hf")
	set.NumSteps = 1
	_, vs, err := Collect(context.Background(), r, set, diag.NewNop())
	require.NoError(t, err)
	require.Len(t, vs, 2)
	assert.Equal(t, "qr", vs[0].Name)
	assert.Equal(t, "hf", vs[1].Name)
}

func TestCollectParseErrorIsFatal(t *testing.T) {
	r := setup(t, map[string]string{
		"hf_0001.asc": grid(2, 1, 0, 1),
		"hf_0002.asc": "ncols 2\nnrows 1\nxllcorner 0\nyllcorner 0\ncellsize 10\nnodata -9999\n1 2 3\n",
	})
	set := baseSettings("hf")
	set.NumSteps = 2
	_, _, err := Collect(context.Background(), r, set, diag.NewNop())
	assert.ErrorIs(t, err, contract.ErrColumnMismatch)
	assert.Contains(t, err.Error(), "hf_0002.asc")
}

func TestCollectFlipY(t *testing.T) {
	r := setup(t, map[string]string{
		"hf_0001.asc": "ncols 1\nnrows 2\nxllcorner 0\nyllcorner 0\ncellsize 1\nnodata -1\n1\n2\n",
	})
	set := baseSettings("hf")
	set.NumSteps = 1
	set.FlipY = true
	_, vs, err := Collect(context.Background(), r, set, diag.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 1}, vs[0].Values[1])
}

func TestCollectCanceled(t *testing.T) {
	r := setup(t, map[string]string{"hf_0001.asc": grid(1, 1, 0, 1)})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	set := baseSettings("hf")
	set.NumSteps = 1
	_, _, err := Collect(ctx, r, set, diag.NewNop())
	assert.ErrorIs(t, err, context.Canceled)
}
