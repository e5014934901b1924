// Package raster 解析 ESRI ASCII-grid（.asc）文本：头部方言 + 数据块。
package raster

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"ascgrid/pkg/contract"
)

// NoDataTolerance: 与 nodata 的绝对容差，范围内的值记为 NaN。
const NoDataTolerance = 1e-9

// Parse 把单个栅格文件解码、解析并按行优先展平。
// flipY 为真时先反转行序（文件首行变为末行）再展平。
func Parse(data []byte, enc contract.Encoding, flipY bool) (contract.Header, []float64, error) {
	text, err := Decode(data, enc)
	if err != nil {
		return contract.Header{}, nil, err
	}
	lines := splitLines(text)
	h, start, err := ParseHeader(lines)
	if err != nil {
		return contract.Header{}, nil, err
	}
	rows, err := readRows(lines, start, h)
	if err != nil {
		return contract.Header{}, nil, err
	}
	if flipY {
		for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
			rows[i], rows[j] = rows[j], rows[i]
		}
	}
	return h, flatten(rows, h.Cells()), nil
}

// readRows 自 start 起读取恰好 nrows 条非空、非注释行。
func readRows(lines []string, start int, h contract.Header) ([][]float64, error) {
	rows := make([][]float64, 0, h.NRows)
	for idx := start; idx < len(lines) && len(rows) < h.NRows; idx++ {
		line := strings.TrimSpace(lines[idx])
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) != h.NCols {
			return nil, fmt.Errorf("%w: expected=%d, actual=%d (line %d)", contract.ErrColumnMismatch, h.NCols, len(parts), idx+1)
		}
		row := make([]float64, len(parts))
		for i, tok := range parts {
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %q (line %d)", contract.ErrValueInvalid, tok, idx+1)
			}
			if isNoData(v, h.NoData) {
				v = math.NaN()
			}
			row[i] = v
		}
		rows = append(rows, row)
	}
	if len(rows) != h.NRows {
		return nil, fmt.Errorf("%w: expected=%d, actual=%d", contract.ErrRowMismatch, h.NRows, len(rows))
	}
	return rows, nil
}

// isNoData: 绝对容差比较；相等（含同号无穷）直接命中。
func isNoData(v, nodata float64) bool {
	if v == nodata {
		return true
	}
	return math.Abs(v-nodata) <= NoDataTolerance
}

func flatten(rows [][]float64, n int) []float64 {
	flat := make([]float64, 0, n)
	for _, r := range rows {
		flat = append(flat, r...)
	}
	return flat
}
