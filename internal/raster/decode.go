package raster

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"

	"ascgrid/pkg/contract"
)

// Decode 按编码模式把原始字节解码为文本。
// Auto: 先 cp932 后 utf-8，两者都失败才报错。
func Decode(data []byte, enc contract.Encoding) (string, error) {
	switch enc {
	case contract.EncodingCP932:
		return decodeCP932(data)
	case contract.EncodingUTF8:
		return decodeUTF8(data)
	case contract.EncodingAuto:
		if s, err := decodeCP932(data); err == nil {
			return s, nil
		}
		if s, err := decodeUTF8(data); err == nil {
			return s, nil
		}
		return "", fmt.Errorf("%w: neither cp932 nor utf-8", contract.ErrDecode)
	default:
		return "", fmt.Errorf("%w: unknown encoding %d", contract.ErrInvalidInput, int(enc))
	}
}

// decodeCP932: x/text 的解码器遇到非法序列写入 U+FFFD 而不报错；
// cp932 无法表示 U+FFFD，出现即视为解码失败。
func decodeCP932(data []byte) (string, error) {
	out, err := japanese.ShiftJIS.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("%w: cp932: %v", contract.ErrDecode, err)
	}
	if bytes.ContainsRune(out, utf8.RuneError) {
		return "", fmt.Errorf("%w: cp932: invalid byte sequence", contract.ErrDecode)
	}
	return string(out), nil
}

func decodeUTF8(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: utf-8: invalid byte sequence", contract.ErrDecode)
	}
	return string(data), nil
}

// splitLines 按 \r\n、\n、\r 切行；末尾换行不产生空行，开头 BOM 丢弃。
func splitLines(s string) []string {
	s = strings.TrimPrefix(s, "\ufeff")
	var lines []string
	for len(s) > 0 {
		i := strings.IndexAny(s, "\r\n")
		if i < 0 {
			lines = append(lines, s)
			break
		}
		lines = append(lines, s[:i])
		if s[i] == '\r' && i+1 < len(s) && s[i+1] == '\n' {
			i++
		}
		s = s[i+1:]
	}
	return lines
}
