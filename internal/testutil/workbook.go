// Package testutil 构造测试用的内存工作簿。
package testutil

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"
)

// Sheet 测试工作簿默认工作表
const Sheet = "Sheet1"

// Workbook 构造首行为 header 的工作簿；rows 中的 nil 值不写入
func Workbook(t testing.TB, header []string, rows ...[]any) *excelize.File {
	t.Helper()

	f := excelize.NewFile()
	t.Cleanup(func() { _ = f.Close() })

	for i, h := range header {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			t.Fatalf("CoordinatesToCellName: %v", err)
		}
		if err := f.SetCellStr(Sheet, cell, h); err != nil {
			t.Fatalf("SetCellStr: %v", err)
		}
	}
	for r, row := range rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				t.Fatalf("CoordinatesToCellName: %v", err)
			}
			if err := f.SetCellValue(Sheet, cell, v); err != nil {
				t.Fatalf("SetCellValue %s: %v", cell, err)
			}
		}
	}
	return f
}

// XLSX 将工作簿序列化为字节
func XLSX(t testing.TB, f *excelize.File) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return buf.Bytes()
}

// Codes 构造只有 codigo 一列的工作簿字节
func Codes(t testing.TB, codes ...any) []byte {
	t.Helper()

	rows := make([][]any, len(codes))
	for i, c := range codes {
		rows[i] = []any{c}
	}
	return XLSX(t, Workbook(t, []string{"codigo"}, rows...))
}

// Reopen 从字节重新打开工作簿
func Reopen(t testing.TB, data []byte) *excelize.File {
	t.Helper()

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })
	return f
}

// Cell 读取单元格值
func Cell(t testing.TB, f *excelize.File, cell string) string {
	t.Helper()

	v, err := f.GetCellValue(Sheet, cell)
	if err != nil {
		t.Fatalf("GetCellValue %s: %v", cell, err)
	}
	return v
}
