package contract

import "context"

// Reader: 栅格源目录抽象（文件系统/内存）。
// 约束：
// 1) 同步调用，不在内部起并发；
// 2) List 仅返回常规文件基名，按字典序；
// 3) 不做解码/解析，仅提供字节。
type Reader interface {
	// Stat 报告目录是否存在；不存在返回 false 且 err 为 nil。
	Stat(ctx context.Context, dir string) (bool, error)
	List(ctx context.Context, dir string) ([]string, error)
	Exists(ctx context.Context, path string) (bool, error)
	ReadFile(ctx context.Context, path string) ([]byte, error)
}
