package filesystem

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memFS(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for p, s := range files {
		require.NoError(t, afero.WriteFile(fs, p, []byte(s), 0o644))
	}
	return fs
}

// TestListSortedFilesOnly 只列文件，字典序
func TestListSortedFilesOnly(t *testing.T) {
	fs := memFS(t, map[string]string{
		"/asc/hf_0002.asc":     "b",
		"/asc/hf_0001.asc":     "a",
		"/asc/readme.txt":      "r",
		"/asc/sub/hf_0003.asc": "c",
	})
	r := New(fs, nil)
	names, err := r.List(context.Background(), "/asc")
	require.NoError(t, err)
	assert.Equal(t, []string{"hf_0001.asc", "hf_0002.asc", "readme.txt"}, names)
}

func TestListSuffixFilter(t *testing.T) {
	fs := memFS(t, map[string]string{
		"/asc/hf_0001.asc": "a",
		"/asc/readme.txt":  "r",
	})
	r := New(fs, &Options{Suffix: ".asc"})
	names, err := r.List(context.Background(), "/asc")
	require.NoError(t, err)
	assert.Equal(t, []string{"hf_0001.asc"}, names)
}

func TestStatAndExists(t *testing.T) {
	fs := memFS(t, map[string]string{"/asc/hf_0001.asc": "x"})
	r := New(fs, nil)
	ctx := context.Background()

	ok, err := r.Stat(ctx, "/asc")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.Stat(ctx, "/missing")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = r.Stat(ctx, "/asc/hf_0001.asc")
	require.NoError(t, err)
	assert.False(t, ok, "文件不是目录")

	ok, err = r.Exists(ctx, "/asc/hf_0001.asc")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.Exists(ctx, "/asc/hf_0009.asc")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = r.Exists(ctx, "/asc")
	require.NoError(t, err)
	assert.False(t, ok, "目录不算存在的文件")
}

func TestReadFile(t *testing.T) {
	fs := memFS(t, map[string]string{"/asc/hf_0001.asc": "ncols 1"})
	r := New(fs, nil)
	b, err := r.ReadFile(context.Background(), "/asc/hf_0001.asc")
	require.NoError(t, err)
	assert.Equal(t, "ncols 1", string(b))

	_, err = r.ReadFile(context.Background(), "/asc/none.asc")
	assert.Error(t, err)
}

// TestCanceledContext 取消后所有操作直接返回 ctx 错误
func TestCanceledContext(t *testing.T) {
	r := New(afero.NewMemMapFs(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.List(ctx, "/")
	assert.ErrorIs(t, err, context.Canceled)
	_, err = r.Stat(ctx, "/")
	assert.ErrorIs(t, err, context.Canceled)
	_, err = r.Exists(ctx, "/x")
	assert.ErrorIs(t, err, context.Canceled)
	_, err = r.ReadFile(ctx, "/x")
	assert.ErrorIs(t, err, context.Canceled)
}
