package contract

import (
	"fmt"
	"math"
)

// Encoding: 栅格文本的解码方式（与计算条件 encoding 取值一致）。
type Encoding int

const (
	// EncodingAuto 先尝试 cp932，失败再尝试 utf-8。
	EncodingAuto Encoding = 0
	// EncodingCP932 固定 cp932（Shift_JIS）。
	EncodingCP932 Encoding = 1
	// EncodingUTF8 固定 utf-8。
	EncodingUTF8 Encoding = 2
)

func (e Encoding) String() string {
	switch e {
	case EncodingAuto:
		return "auto"
	case EncodingCP932:
		return "cp932"
	case EncodingUTF8:
		return "utf-8"
	default:
		return fmt.Sprintf("encoding(%d)", int(e))
	}
}

// Settings: 运行期只读配置（由计算条件构建一次，之后不变）。
type Settings struct {
	ASCFolder    string
	OutputFolder string
	Encoding     Encoding
	FlipY        bool
	StartIndex   int
	// NumSteps: 0 表示按文件名自动检测。
	NumSteps  int
	ZeroPad   int
	DTSeconds float64
	T0Seconds float64
	// Variables: 启用的变量名，保持声明顺序且不重复。
	Variables []string
}

// StepFileName 返回 {variable}_{step:0{zero_pad}d}.asc。
func (s Settings) StepFileName(variable string, step int) string {
	return fmt.Sprintf("%s_%0*d.asc", variable, s.ZeroPad, step)
}

// Time 将步序号映射为输出时刻（秒）。
func (s Settings) Time(step int) float64 {
	return s.T0Seconds + s.DTSeconds*float64(step)
}

// Steps 返回 StartIndex 起连续 count 个步序号。
func (s Settings) Steps(count int) []int {
	if count <= 0 {
		return nil
	}
	out := make([]int, count)
	for i := range out {
		out[i] = s.StartIndex + i
	}
	return out
}

// Header: 单个栅格文件的头信息。原点统一为左下角点（corner）。
type Header struct {
	NCols     int
	NRows     int
	XLLCorner float64
	YLLCorner float64
	NoData    float64
	DX        float64
	DY        float64
}

// GeometryKey: 分组用的 6 元组，可直接作为 map 键。
type GeometryKey struct {
	NCols     int
	NRows     int
	XLLCorner float64
	YLLCorner float64
	DX        float64
	DY        float64
}

// Key 返回几何键。
func (h Header) Key() GeometryKey {
	return GeometryKey{
		NCols:     h.NCols,
		NRows:     h.NRows,
		XLLCorner: h.XLLCorner,
		YLLCorner: h.YLLCorner,
		DX:        h.DX,
		DY:        h.DY,
	}
}

// Equal 按几何键做精确比较（浮点不设容差，NoData 不参与）。
func (h Header) Equal(o Header) bool { return h.Key() == o.Key() }

// Same 比较全部字段（含 NoData），用于判定同一变量各步的头是否一致。
func (h Header) Same(o Header) bool {
	if h.Key() != o.Key() {
		return false
	}
	return h.NoData == o.NoData || (math.IsNaN(h.NoData) && math.IsNaN(o.NoData))
}

// Cells 返回单元数 ncols×nrows。
func (h Header) Cells() int { return h.NCols * h.NRows }

// NaNValues 返回长度为 n 的全 NaN 数组。
func NaNValues(n int) []float64 {
	if n <= 0 {
		return []float64{}
	}
	out := make([]float64, n)
	nan := math.NaN()
	for i := range out {
		out[i] = nan
	}
	return out
}

// VariableSeries: 单变量的时间序列。
// Values 由本结构独占；每个步要么是解析值，要么是同长度的 NaN 占位。
type VariableSeries struct {
	Name    string
	Header  Header
	Values  map[int][]float64
	Missing int
}

// ValuesAt 返回 step 的值数组；缺失时返回新分配的 NaN 数组。
func (v VariableSeries) ValuesAt(step int) []float64 {
	if vals, ok := v.Values[step]; ok {
		return vals
	}
	return NaNValues(v.Header.Cells())
}

// Group: 共享同一几何的变量集合，对应一个输出容器。
type Group struct {
	Key     GeometryKey
	Header  Header
	Members []VariableSeries
	Name    string
}
