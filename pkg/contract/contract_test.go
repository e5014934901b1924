package contract

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNormalizeArtifactID 验证路径规范化逻辑。
func TestNormalizeArtifactID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"系统分隔符", filepath.Join("a", "b", "c"), "a/b/c"},
		{"相对清理", "./x/../y", "y"},
		{"空串", "", "."},
		{"Windows路径", "C:\\out\\hf_qr.cgn", "C:/out/hf_qr.cgn"},
		{"清理多余斜杠", "path//to///file.cgn", "path/to/file.cgn"},
		{"父目录逃逸保留", "a\\b\\..\\..\\..\\d", "../d"},
		{"中文路径", "结果\\输出/hf.cgn", "结果/输出/hf.cgn"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, ArtifactID(tt.expected), NormalizeArtifactID(tt.input))
		})
	}
}

func TestStepFileName(t *testing.T) {
	s := Settings{ZeroPad: 4}
	assert.Equal(t, "hf_0001.asc", s.StepFileName("hf", 1))
	assert.Equal(t, "qrs_12345.asc", s.StepFileName("qrs", 12345))
	s.ZeroPad = 0
	assert.Equal(t, "hf_7.asc", s.StepFileName("hf", 7))
}

func TestSettingsStepsAndTime(t *testing.T) {
	s := Settings{StartIndex: 3, DTSeconds: 600, T0Seconds: 100}
	assert.Equal(t, []int{3, 4, 5}, s.Steps(3))
	assert.Nil(t, s.Steps(0))
	assert.Equal(t, 100+600*4.0, s.Time(4))
}

func TestHeaderEqualIgnoresNoData(t *testing.T) {
	a := Header{NCols: 2, NRows: 3, XLLCorner: 0, YLLCorner: 5, NoData: -9999, DX: 10, DY: 10}
	b := a
	b.NoData = -1
	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Key(), b.Key())

	c := a
	c.DY = 10.000000001
	assert.False(t, a.Equal(c), "几何键不设容差")
	assert.Equal(t, 6, a.Cells())
}

func TestHeaderSameIncludesNoData(t *testing.T) {
	a := Header{NCols: 2, NRows: 3, NoData: -9999, DX: 10, DY: 10}
	assert.True(t, a.Same(a))

	b := a
	b.NoData = -1
	assert.False(t, a.Same(b), "NoData 不同")
	assert.True(t, a.Equal(b))

	c := a
	c.XLLCorner = 1
	assert.False(t, a.Same(c))

	n1, n2 := a, a
	n1.NoData, n2.NoData = math.NaN(), math.NaN()
	assert.True(t, n1.Same(n2))
}

func TestNaNValues(t *testing.T) {
	v := NaNValues(4)
	require.Len(t, v, 4)
	for _, x := range v {
		assert.True(t, math.IsNaN(x))
	}
	assert.Empty(t, NaNValues(0))
}

func TestValuesAtFallback(t *testing.T) {
	vs := VariableSeries{
		Name:   "hf",
		Header: Header{NCols: 2, NRows: 2},
		Values: map[int][]float64{1: {1, 2, 3, 4}},
	}
	assert.Equal(t, []float64{1, 2, 3, 4}, vs.ValuesAt(1))
	miss := vs.ValuesAt(2)
	require.Len(t, miss, 4)
	assert.True(t, math.IsNaN(miss[0]))
}

func TestKnownVariables(t *testing.T) {
	vars := KnownVariables()
	assert.Equal(t, []string{"gampt_ff", "hf", "hg", "hr", "hs", "qr", "qrs"}, vars)
	vars[0] = "changed"
	assert.Equal(t, "gampt_ff", Variables[0], "副本修改不影响变量表")
	assert.Equal(t, "use_hf", SwitchName("hf"))
}

func TestEncodingString(t *testing.T) {
	assert.Equal(t, "auto", EncodingAuto.String())
	assert.Equal(t, "cp932", EncodingCP932.String())
	assert.Equal(t, "utf-8", EncodingUTF8.String())
	assert.Equal(t, "encoding(9)", Encoding(9).String())
}
