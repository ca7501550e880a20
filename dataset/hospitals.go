// Package dataset 负责医院表与用户表的 CSV 装载与持久化。
// 表结构的归一化（列名清洗、缺列补齐、文本小写）都发生在这里，
// core 层拿到的是已经干净的有序记录。
package dataset

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/rushteam/medikit/core"
)

// 医院表的既定列名（归一化后）。
const (
	colAddress         = "address"
	colSpecializations = "specializations"
	colHospitalID      = "hospital id"
	colName            = "name"
	colSymptoms        = "disease symptoms"
	colRatings         = "ratings"
)

var hospitalColumns = []string{
	colAddress, colSpecializations, colHospitalID, colName, colSymptoms, colRatings,
}

// LoaderOption 配置装载行为。
type LoaderOption func(*loader)

// WithLogger 注入日志器；缺省使用 slog.Default()。
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *loader) { l.logger = logger }
}

type loader struct {
	logger *slog.Logger
}

func newLoader(opts ...LoaderOption) *loader {
	l := &loader{logger: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadHospitals 从 CSV 文件装载医院目录。
//
// 容错约定：
//   - 列名大小写/首尾空白/多余空格归一后匹配
//   - 缺失的既定列记一条 warn 日志后按空串补齐，不中断装载
//   - 文本字段（地址/专长/症状）小写并去首尾空白；Name 保留原样展示；
//     评分保留原始单元格文本，数值解析推迟到打分时（非数值按 0）
//   - 医院 ID 为空时用行号顶替，保证目录可索引
func LoadHospitals(path string, opts ...LoaderOption) (*core.HospitalCatalog, error) {
	l := newLoader(opts...)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open hospital table: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // 行宽不齐也继续

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read hospital table: %w", err)
	}
	if len(records) == 0 {
		return core.NewHospitalCatalog(nil), nil
	}

	// 列名归一 -> 下标
	colIndex := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		colIndex[normalizeColumn(name)] = i
	}
	for _, col := range hospitalColumns {
		if _, ok := colIndex[col]; !ok {
			l.logger.Warn("hospital table missing column, substituting empty values",
				"column", col, "path", path)
		}
	}

	cell := func(row []string, col string) string {
		i, ok := colIndex[col]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	hospitals := make([]core.Hospital, 0, len(records)-1)
	for rowNum, row := range records[1:] {
		id := strings.TrimSpace(cell(row, colHospitalID))
		if id == "" {
			id = fmt.Sprintf("%d", rowNum+1)
		}
		hospitals = append(hospitals, core.Hospital{
			ID:              id,
			Name:            strings.TrimSpace(cell(row, colName)),
			Address:         normalizeText(cell(row, colAddress)),
			Specializations: normalizeText(cell(row, colSpecializations)),
			Symptoms:        normalizeText(cell(row, colSymptoms)),
			Rating:          cell(row, colRatings),
		})
	}
	return core.NewHospitalCatalog(hospitals), nil
}

// normalizeColumn 清洗列名：小写、去首尾空白、压缩内部空白。
func normalizeColumn(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// normalizeText 归一文本字段：小写 + 去首尾空白。
func normalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
