//go:build !windows

package filesystem

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
)

// 真实磁盘：原子写后权限与内容符合预期 (Unix only)
func TestWriteAtomicOsFs(t *testing.T) {
	dir := t.TempDir()
	w, err := New(nil, &Options{OutputDir: dir, PermFile: 0o600})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := w.Write(context.Background(), "hf.cgn", bytes.NewBufferString("grid")); err != nil {
		t.Fatalf("write: %v", err)
	}
	st, err := os.Stat(filepath.Join(dir, "hf.cgn"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if st.Mode().Perm() != 0o600 {
		t.Fatalf("perm=%v", st.Mode().Perm())
	}
}
