package grouping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ascgrid/pkg/contract"
)

func series(name string, h contract.Header) contract.VariableSeries {
	return contract.VariableSeries{Name: name, Header: h}
}

var (
	h2x2 = contract.Header{NCols: 2, NRows: 2, DX: 10, DY: 10, NoData: -9999}
	h3x2 = contract.Header{NCols: 3, NRows: 2, DX: 10, DY: 10, NoData: -9999}
)

// hf+qr 共享几何 → "hf_qr"；hs 列数不同 → 单独的 "hs"
func TestByGeometry(t *testing.T) {
	groups := ByGeometry([]contract.VariableSeries{
		series("qr", h2x2),
		series("hs", h3x2),
		series("hf", h2x2),
	})
	require.Len(t, groups, 2)

	assert.Equal(t, "hf_qr", groups[0].Name)
	assert.Equal(t, h2x2.Key(), groups[0].Key)
	assert.Equal(t, h2x2, groups[0].Header)
	// 成员保持输入顺序
	assert.Equal(t, "qr", groups[0].Members[0].Name)
	assert.Equal(t, "hf", groups[0].Members[1].Name)

	assert.Equal(t, "hs", groups[1].Name)
	assert.Len(t, groups[1].Members, 1)
}

// NoData 不参与几何键；任一几何字段不同都不合并
func TestByGeometryKeyFields(t *testing.T) {
	otherNoData := h2x2
	otherNoData.NoData = -1
	shifted := h2x2
	shifted.YLLCorner = 1e-12
	dy := h2x2
	dy.DY = 5

	groups := ByGeometry([]contract.VariableSeries{
		series("hf", h2x2),
		series("hg", otherNoData),
		series("hr", shifted),
		series("qrs", dy),
	})
	require.Len(t, groups, 3)
	assert.Equal(t, "hf_hg", groups[0].Name)
	assert.Equal(t, "hr", groups[1].Name)
	assert.Equal(t, "qrs", groups[2].Name)
}

func TestByGeometryEmpty(t *testing.T) {
	assert.Empty(t, ByGeometry(nil))
}
