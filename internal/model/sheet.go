package model

// CellKind 单元格值类型
type CellKind int

const (
	CellEmpty CellKind = iota
	CellString
	CellNumber
	CellBool
	CellDate
	CellFormula
)

// String 返回类型名称
func (k CellKind) String() string {
	switch k {
	case CellString:
		return "string"
	case CellNumber:
		return "number"
	case CellBool:
		return "bool"
	case CellDate:
		return "date"
	case CellFormula:
		return "formula"
	default:
		return "empty"
	}
}

// Cell 单元格（渲染后的文本 + 原始类型）
type Cell struct {
	Kind CellKind `json:"kind"`
	Text string   `json:"text"`
}

// Table 首行为表头的二维表
type Table struct {
	Sheet  string   `json:"sheet"`
	Header []string `json:"header"`
	Rows   [][]Cell `json:"rows"`
}

// Value 取某行某列的单元格；越界时返回空单元格
func (t *Table) Value(row, col int) Cell {
	if row < 0 || row >= len(t.Rows) {
		return Cell{}
	}
	r := t.Rows[row]
	if col < 0 || col >= len(r) {
		return Cell{}
	}
	return r[col]
}

// Len 数据行数（不含表头）
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// IsEmpty 表头与数据都为空
func (t *Table) IsEmpty() bool {
	return t == nil || len(t.Header) == 0
}
