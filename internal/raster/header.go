package raster

import (
	"fmt"
	"strconv"
	"strings"

	"ascgrid/pkg/contract"
)

// 头键别名（小写）→ 规范名。
var keyAliases = map[string]string{
	"ncols":           "ncols",
	"nrows":           "nrows",
	"xllcorner":       "xllcorner",
	"yllcorner":       "yllcorner",
	"xllcenter":       "xllcenter",
	"yllcenter":       "yllcenter",
	"cellsize":        "cellsize",
	"dx":              "dx",
	"dy":              "dy",
	"nodata_value":    "nodata",
	"nodata-value":    "nodata",
	"nodata":          "nodata",
	"no_data":         "nodata",
	"nodata_value(s)": "nodata",
}

// ParseHeader 扫描头部，返回头信息与数据起始行下标。
// 第一条非头键行在头已完整时视为数据起点，否则失败。
// 读到末尾且头完整时，数据起点为 len(lines)。
func ParseHeader(lines []string) (contract.Header, int, error) {
	values := make(map[string]float64, 8)
	start := -1
	for idx, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) >= 2 {
			if key, ok := keyAliases[strings.ToLower(parts[0])]; ok {
				v, err := strconv.ParseFloat(parts[1], 64)
				if err != nil {
					return contract.Header{}, 0, fmt.Errorf("%w: %s=%q", contract.ErrHeaderInvalid, parts[0], parts[1])
				}
				values[key] = v
				continue
			}
		}
		if headerComplete(values) {
			start = idx
			break
		}
		return contract.Header{}, 0, fmt.Errorf("%w, unexpected line: %q", contract.ErrHeaderIncomplete, line)
	}
	if !headerComplete(values) {
		return contract.Header{}, 0, fmt.Errorf("%w: missing %s", contract.ErrHeaderIncomplete, strings.Join(missingKeys(values), ", "))
	}
	if start < 0 {
		start = len(lines)
	}

	ncols, nrows := int(values["ncols"]), int(values["nrows"])
	if ncols <= 0 || nrows <= 0 {
		return contract.Header{}, 0, fmt.Errorf("%w: ncols=%d nrows=%d", contract.ErrHeaderInvalid, ncols, nrows)
	}
	dx, dy := resolveCellSize(values)
	x, y := resolveOrigin(values, dx, dy)
	return contract.Header{
		NCols:     ncols,
		NRows:     nrows,
		XLLCorner: x,
		YLLCorner: y,
		NoData:    values["nodata"],
		DX:        dx,
		DY:        dy,
	}, start, nil
}

func has(values map[string]float64, key string) bool {
	_, ok := values[key]
	return ok
}

func headerComplete(values map[string]float64) bool {
	return len(missingKeys(values)) == 0
}

func missingKeys(values map[string]float64) []string {
	var miss []string
	if !has(values, "ncols") {
		miss = append(miss, "ncols")
	}
	if !has(values, "nrows") {
		miss = append(miss, "nrows")
	}
	if !has(values, "xllcorner") && !has(values, "xllcenter") {
		miss = append(miss, "xllcorner|xllcenter")
	}
	if !has(values, "yllcorner") && !has(values, "yllcenter") {
		miss = append(miss, "yllcorner|yllcenter")
	}
	if !has(values, "cellsize") && !(has(values, "dx") && has(values, "dy")) {
		miss = append(miss, "cellsize|dx+dy")
	}
	if !has(values, "nodata") {
		miss = append(miss, "nodata_value")
	}
	return miss
}

// resolveCellSize: dx/dy 同时存在时优先于 cellsize。
func resolveCellSize(values map[string]float64) (float64, float64) {
	if has(values, "dx") && has(values, "dy") {
		return values["dx"], values["dy"]
	}
	c := values["cellsize"]
	return c, c
}

// resolveOrigin: 仅在未给出 corner 时由 center 换算。
func resolveOrigin(values map[string]float64, dx, dy float64) (float64, float64) {
	x, ok := values["xllcorner"]
	if !ok {
		x = values["xllcenter"] - dx/2.0
	}
	y, ok := values["yllcorner"]
	if !ok {
		y = values["yllcenter"] - dy/2.0
	}
	return x, y
}
