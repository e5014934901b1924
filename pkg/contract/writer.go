package contract

import (
	"context"
	"io"
)

// ArtifactID: 输出工件标识（相对输出根的路径，经 NormalizeArtifactID 规范化）。
type ArtifactID string

// Writer: 将字节流持久化到输出根之下。
// 约束：
//  1. 同一 ArtifactID 单写者；
//  2. 按字节透传，不读取/修改内容；
//  3. 错误直接上抛（不做重试/回退）。
type Writer interface {
	Write(ctx context.Context, id ArtifactID, r io.Reader) error
	// Locate 返回 id 映射到的目标路径（与 Write 使用同一规则）。
	Locate(id ArtifactID) (string, error)
}
