package excel

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"cruzador/internal/model"
)

// ContentType xlsx 响应类型
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Open 从 reader 打开工作簿
func Open(reader io.Reader) (*excelize.File, error) {
	file, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to open excel: %w", err)
	}
	return file, nil
}

// FirstSheet 返回第一个（活动顺序上最靠前的）工作表名称
func FirstSheet(f *excelize.File) (string, error) {
	if f == nil {
		return "", errors.New("no file loaded")
	}
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", errors.New("workbook has no sheets")
	}
	return sheets[0], nil
}

// ReadTable 读取工作表为 Table；sheet 为空时读取第一个工作表
// 首行为表头，短行以空单元格补齐
// 数值单元格取存储的原始值（不受数字格式影响），其余单元格取显示文本
func ReadTable(f *excelize.File, sheet string) (*model.Table, error) {
	if sheet == "" {
		name, err := FirstSheet(f)
		if err != nil {
			return nil, err
		}
		sheet = name
	}

	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	display, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	table := &model.Table{Sheet: sheet}
	if len(raw) == 0 {
		return table, nil
	}

	table.Header = make([]string, len(raw[0]))
	for j := range raw[0] {
		table.Header[j] = textAt(display, raw, 0, j)
	}
	width := len(table.Header)
	for _, r := range raw[1:] {
		width = max(width, len(r))
	}

	table.Rows = make([][]model.Cell, 0, len(raw)-1)
	for i := 1; i < len(raw); i++ {
		cells := make([]model.Cell, width)
		for j, v := range raw[i] {
			if v == "" {
				continue
			}
			name, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return nil, err
			}
			kind, err := cellKind(f, sheet, name)
			if err != nil {
				return nil, err
			}
			text := textAt(display, raw, i, j)
			if kind == model.CellNumber {
				text = CanonicalNumber(v)
			}
			cells[j] = model.Cell{Kind: kind, Text: text}
		}
		table.Rows = append(table.Rows, cells)
	}

	return table, nil
}

// textAt 优先取显示文本，缺失时退回原始值
func textAt(display, raw [][]string, row, col int) string {
	if row < len(display) && col < len(display[row]) && display[row][col] != "" {
		return display[row][col]
	}
	return raw[row][col]
}

// CanonicalNumber 将存储的数值文本渲染为不带指数、不带多余小数位的形式
// 7.50123456789E+12 -> 7501234567890，12.0 -> 12；非数值原样返回
func CanonicalNumber(raw string) string {
	s := strings.TrimSpace(raw)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return strconv.FormatInt(n, 10)
	}
	if isInteger(s) {
		// 超出 int64 的整数保留全部位数
		return s
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return s
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func isInteger(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func cellKind(f *excelize.File, sheet, cell string) (model.CellKind, error) {
	formula, err := f.GetCellFormula(sheet, cell)
	if err != nil {
		return model.CellEmpty, err
	}
	if formula != "" {
		return model.CellFormula, nil
	}

	typ, err := f.GetCellType(sheet, cell)
	if err != nil {
		return model.CellEmpty, err
	}
	switch typ {
	case excelize.CellTypeNumber:
		return model.CellNumber, nil
	case excelize.CellTypeBool:
		return model.CellBool, nil
	case excelize.CellTypeDate:
		return model.CellDate, nil
	case excelize.CellTypeUnset:
		// 未声明类型的 <c> 默认按数值存储
		return model.CellNumber, nil
	default:
		return model.CellString, nil
	}
}

// HeaderRow 读取工作表第一行（渲染后的文本）
func HeaderRow(f *excelize.File, sheet string) ([]string, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// LastRow 最后一个含内容的行号（1 基）；空表返回 0
func LastRow(f *excelize.File, sheet string) (int, error) {
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return 0, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return len(rows), nil
}

// AppendRows 在最后一行之后逐行写入单列值（A 列）
// 返回第一个写入的行号
func AppendRows(f *excelize.File, sheet string, values []string) (int, error) {
	last, err := LastRow(f, sheet)
	if err != nil {
		return 0, err
	}

	start := last + 1
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(1, start+i)
		if err != nil {
			return 0, err
		}
		if err := f.SetCellStr(sheet, cell, v); err != nil {
			return 0, fmt.Errorf("failed to append row %d: %w", start+i, err)
		}
	}
	return start, nil
}

// WriteToBytes 将工作簿序列化为 xlsx 字节
func WriteToBytes(f *excelize.File) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write excel: %w", err)
	}
	return buf.Bytes(), nil
}
