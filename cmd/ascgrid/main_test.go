package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ascgrid/internal/diag"
	"ascgrid/internal/pipeline"
	"ascgrid/pkg/contract"
	kyaml "ascgrid/plugins/container/yamldoc"
)

const caseYAML = `calculation_condition:
  asc_folder: /work/asc
  output_folder: /work/out
  encoding: 2
  flip_y: 0
  start_index: 1
  num_steps: 0
  zero_pad: 4
  dt_seconds: 30
  t0_seconds: 0
  use_hf: 1
`

// quiet 把日志目录指向临时目录，避免在包目录下生成 logs/。
func quiet(t *testing.T) {
	t.Helper()
	t.Setenv("ASCGRID_LOG_DIR", t.TempDir())
}

func caseFS(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/work/case.yaml", []byte(caseYAML), 0o644))
	require.NoError(t, fs.MkdirAll("/work/asc", 0o755))
	for i := 1; i <= 3; i++ {
		body := fmt.Sprintf("ncols 2\nnrows 1\nxllcorner 0\nyllcorner 0\ncellsize 5\nnodata_value -9999\n%d %d\n", i, i)
		require.NoError(t, afero.WriteFile(fs, fmt.Sprintf("/work/asc/hf_%04d.asc", i), []byte(body), 0o644))
	}
	return fs
}

func TestRunUsage(t *testing.T) {
	quiet(t)
	var stderr bytes.Buffer
	assert.Equal(t, exitUsage, run(nil, afero.NewMemMapFs(), &stderr))
	assert.Contains(t, stderr.String(), "用法")
	assert.Equal(t, exitUsage, run([]string{"a.yaml", "b.yaml"}, afero.NewMemMapFs(), &stderr))
	assert.Equal(t, exitUsage, run([]string{"--no-such-flag", "a.yaml"}, afero.NewMemMapFs(), &stderr))
	assert.Equal(t, exitOK, run([]string{"--help"}, afero.NewMemMapFs(), &stderr))
}

func TestRunMissingContainer(t *testing.T) {
	quiet(t)
	var stderr bytes.Buffer
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/work", 0o755))
	assert.Equal(t, exitUsage, run([]string{"--status=false", "/work/none.yaml"}, fs, &stderr))
	assert.Contains(t, stderr.String(), "源容器不存在")
	assert.Equal(t, exitUsage, run([]string{"/work"}, fs, &stderr), "目录不是容器")
}

func TestRunInitConfig(t *testing.T) {
	fs := afero.NewMemMapFs()
	var stderr bytes.Buffer
	require.Equal(t, exitOK, run([]string{"--init-config=/cfg"}, fs, &stderr))
	b, err := afero.ReadFile(fs, "/cfg/ascgrid.yaml")
	require.NoError(t, err)
	assert.Contains(t, string(b), "components:")
	env, err := afero.ReadFile(fs, "/cfg/.env")
	require.NoError(t, err)
	assert.Contains(t, string(env), "ASCGRID_CONFIG_FILE=")

	// 已存在文件不覆盖
	require.NoError(t, afero.WriteFile(fs, "/cfg/ascgrid.yaml", []byte("logging: {}\n"), 0o644))
	require.Equal(t, exitOK, run([]string{"--init-config=/cfg"}, fs, &stderr))
	b, _ = afero.ReadFile(fs, "/cfg/ascgrid.yaml")
	assert.Equal(t, "logging: {}\n", string(b))

	// 裸开关使用当前目录
	require.Equal(t, exitOK, run([]string{"--init-config"}, fs, &stderr))
	ok, _ := afero.Exists(fs, "ascgrid.yaml")
	assert.True(t, ok)
}

func TestRunInvalidConfig(t *testing.T) {
	quiet(t)
	fs := caseFS(t)
	require.NoError(t, afero.WriteFile(fs, "/cfg/bad.yaml", []byte("unknown: 1\n"), 0o644))
	var stderr bytes.Buffer
	assert.Equal(t, exitUsage, run([]string{"--config", "/cfg/bad.yaml", "/work/case.yaml"}, fs, &stderr))
	assert.Equal(t, exitUsage, run([]string{"--log-level", "verbose", "/work/case.yaml"}, fs, &stderr))
	assert.Contains(t, stderr.String(), "有效配置")
	assert.Equal(t, exitUsage, run([]string{"--container", "hdf5", "/work/case.yaml"}, fs, &stderr))
}

func TestRunSuccess(t *testing.T) {
	quiet(t)
	fs := caseFS(t)
	var stderr bytes.Buffer
	require.Equal(t, exitOK, run([]string{"--status=false", "/work/case.yaml"}, fs, &stderr), stderr.String())

	matches, err := afero.Glob(fs, "/work/out/*/hf.yaml")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	doc, err := kyaml.Load(fs, matches[0])
	require.NoError(t, err)
	require.Len(t, doc.Solutions, 3, "自动检测到 3 个时间步")
	assert.Equal(t, 90.0, doc.Solutions[2].Time)
	assert.Equal(t, []float64{3, 3}, doc.Solutions[2].Fields[0].Values)
}

func TestRunMemoryContainerAndMetrics(t *testing.T) {
	quiet(t)
	fs := caseFS(t)
	metrics := filepath.Join(t.TempDir(), "ascgrid.prom")
	var stderr bytes.Buffer
	code := run([]string{"--container", "memory", "--metrics-file", metrics, "/work/case.yaml"}, fs, &stderr)
	require.Equal(t, exitOK, code, stderr.String())
	assert.Contains(t, stderr.String(), "[ok] 全部完成")

	b, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(b), "ascgrid_rasters_read_total")
}

func TestRunExitCodes(t *testing.T) {
	quiet(t)
	old := pipelineRun
	defer func() { pipelineRun = old }()

	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("collect: %w", contract.ErrNoVariables), exitUsage},
		{fmt.Errorf("%w: encoding", contract.ErrInvalidSettings), exitUsage},
		{contract.ErrConditionMissing, exitUsage},
		{fmt.Errorf("x: %w", contract.ErrColumnMismatch), exitFail},
		{errors.New("boom"), exitFail},
	}
	for _, c := range cases {
		pipelineRun = func(context.Context, pipeline.Components, pipeline.Settings, *diag.Logger) (pipeline.Result, error) {
			return pipeline.Result{}, c.err
		}
		var stderr bytes.Buffer
		assert.Equal(t, c.want, run([]string{"/work/case.yaml"}, caseFS(t), &stderr), c.err.Error())
		assert.Contains(t, stderr.String(), "[fail]")
	}
	assert.Equal(t, exitOK, exitCode(nil))
}
