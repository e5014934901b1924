// Package grouping 按 6 元几何键把变量序列划分为组。
package grouping

import (
	"sort"
	"strings"

	"ascgrid/pkg/contract"
)

// ByGeometry 返回按首次出现顺序排列的组。
// 同组当且仅当几何键精确相等；组内成员保持输入顺序，组名为成员名字典序以 "_" 连接。
func ByGeometry(series []contract.VariableSeries) []contract.Group {
	index := make(map[contract.GeometryKey]int, len(series))
	var groups []contract.Group
	for _, s := range series {
		key := s.Header.Key()
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, contract.Group{Key: key, Header: s.Header})
		}
		groups[i].Members = append(groups[i].Members, s)
	}
	for i := range groups {
		groups[i].Name = groupName(groups[i].Members)
	}
	return groups
}

func groupName(members []contract.VariableSeries) string {
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.Name
	}
	sort.Strings(names)
	return strings.Join(names, "_")
}
