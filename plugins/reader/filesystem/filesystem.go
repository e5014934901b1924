package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"ascgrid/pkg/contract"
)

// Options 为 FileSystem Reader 的可选配置（最小必要）。
type Options struct {
	// Suffix: List 只返回以此结尾的文件名；为空表示不过滤。
	Suffix string `yaml:"suffix"`
}

// FileSystem 实现基于 afero.Fs 的栅格源 Reader。
// 生产环境使用 OsFs；测试使用 MemMapFs。
type FileSystem struct {
	fs     afero.Fs
	suffix string
}

// New 创建 FileSystem Reader；fs 为 nil 时使用 OsFs。
func New(fs afero.Fs, opts *Options) *FileSystem {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	r := &FileSystem{fs: fs}
	if opts != nil {
		r.suffix = opts.Suffix
	}
	return r
}

var _ contract.Reader = (*FileSystem)(nil)

// Stat 报告 dir 是否为存在的目录。
func (r *FileSystem) Stat(ctx context.Context, dir string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return afero.DirExists(r.fs, dir)
}

// List 返回目录下常规文件的基名（字典序；目录符号链接与子目录不递归）。
func (r *FileSystem) List(ctx context.Context, dir string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	infos, err := afero.ReadDir(r.fs, dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(infos))
	for _, fi := range infos {
		if fi.IsDir() {
			continue
		}
		if !fi.Mode().IsRegular() && fi.Mode()&os.ModeSymlink == 0 {
			continue
		}
		if r.suffix != "" && !strings.HasSuffix(fi.Name(), r.suffix) {
			continue
		}
		names = append(names, fi.Name())
	}
	// 稳定顺序：字典序
	sort.Strings(names)
	return names, nil
}

// Exists 报告 path 是否为存在的非目录文件。
func (r *FileSystem) Exists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	fi, err := r.fs.Stat(filepath.Clean(path))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return !fi.IsDir(), nil
}

// ReadFile 一次性读取整个文件。
func (r *FileSystem) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return afero.ReadFile(r.fs, path)
}
