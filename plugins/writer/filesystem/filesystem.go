// Package filesystem 把每个分组的容器副本写到本次运行的输出目录。
package filesystem

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"ascgrid/pkg/contract"
)

// Options: 输出目录与写入方式。
type Options struct {
	// OutputDir: 输出目录（必需）；装配时由运行目录覆盖。
	OutputDir string `yaml:"output_dir"`
	// Atomic: 同目录临时文件 + rename。默认 true。
	Atomic   *bool       `yaml:"atomic,omitempty"`
	PermFile os.FileMode `yaml:"perm_file,omitempty"`
	PermDir  os.FileMode `yaml:"perm_dir,omitempty"`
	BufSize  int         `yaml:"buf_size,omitempty"`
}

// FS 实现 contract.Writer。容器名只能是输出目录下的单个文件名。
type FS struct {
	fs      afero.Fs
	dir     string
	atomic  bool
	permF   os.FileMode
	permD   os.FileMode
	bufSize int
}

// New 创建文件系统 Writer；fs 为 nil 时使用 OsFs。
func New(fs afero.Fs, opts *Options) (*FS, error) {
	if opts == nil || strings.TrimSpace(opts.OutputDir) == "" {
		return nil, os.ErrInvalid
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}
	w := &FS{fs: fs, dir: opts.OutputDir, atomic: true, permF: 0o644, permD: 0o755, bufSize: 64 * 1024}
	if opts.Atomic != nil {
		w.atomic = *opts.Atomic
	}
	if opts.PermFile != 0 {
		w.permF = opts.PermFile
	}
	if opts.PermDir != 0 {
		w.permD = opts.PermDir
	}
	if opts.BufSize > 0 {
		w.bufSize = opts.BufSize
	}
	return w, nil
}

var _ contract.Writer = (*FS)(nil)

// Locate 返回容器名对应的目标路径。
func (w *FS) Locate(id contract.ArtifactID) (string, error) {
	name := string(id)
	switch {
	case name == "", name == ".", name == "..":
		return "", contract.ErrPathInvalid
	case strings.ContainsAny(name, `/\`), filepath.VolumeName(name) != "":
		return "", contract.ErrPathInvalid
	}
	return filepath.Join(w.dir, name), nil
}

// Write 把 r 的全部字节写成 id 对应的文件；已存在时整体替换。
func (w *FS) Write(ctx context.Context, id contract.ArtifactID, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dest, err := w.Locate(id)
	if err != nil {
		return err
	}
	if err := w.fs.MkdirAll(w.dir, w.permD); err != nil {
		return err
	}
	src := readerWithCtx(ctx, r)
	if !w.atomic {
		f, err := w.fs.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, w.permF)
		if err != nil {
			return err
		}
		if err := w.copyTo(f, src); err != nil {
			_ = f.Close()
			return err
		}
		return f.Close()
	}

	tmp, err := afero.TempFile(w.fs, w.dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	_ = w.fs.Chmod(tmpPath, w.permF)
	if err := w.copyTo(tmp, src); err != nil {
		_ = tmp.Close()
		_ = w.fs.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = w.fs.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = w.fs.Remove(tmpPath)
		return err
	}
	if err := w.fs.Rename(tmpPath, dest); err != nil {
		_ = w.fs.Remove(tmpPath)
		return err
	}
	return nil
}

func (w *FS) copyTo(f afero.File, r io.Reader) error {
	bw := bufio.NewWriterSize(f, w.bufSize)
	if _, err := io.Copy(bw, r); err != nil {
		return err
	}
	return bw.Flush()
}

// readerWithCtx: 每次 Read 前检查 ctx。
func readerWithCtx(ctx context.Context, r io.Reader) io.Reader {
	return &ctxReader{ctx: ctx, r: r}
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *ctxReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(p)
}
