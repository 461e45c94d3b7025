package excel

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"
)

var hexColorRe = regexp.MustCompile(`^[0-9A-Fa-f]{6}$`)

// NormalizeColor 规范化 RGB 颜色为 6 位大写十六进制（去掉 # 前缀）
func NormalizeColor(color string) (string, error) {
	c := strings.TrimPrefix(strings.TrimSpace(color), "#")
	if !hexColorRe.MatchString(c) {
		return "", fmt.Errorf("invalid rgb color %q", color)
	}
	return strings.ToUpper(c), nil
}

// Highlighter 给单元格加纯色填充，保留单元格原有的字体、边框与数字格式
// 同一原始样式只派生一次新样式
type Highlighter struct {
	file   *excelize.File
	color  string
	styles map[int]int
}

// NewHighlighter 创建高亮器
func NewHighlighter(f *excelize.File, color string) (*Highlighter, error) {
	c, err := NormalizeColor(color)
	if err != nil {
		return nil, err
	}
	return &Highlighter{
		file:   f,
		color:  c,
		styles: make(map[int]int),
	}, nil
}

// Apply 对单个单元格应用填充
func (h *Highlighter) Apply(sheet, cell string) error {
	base, err := h.file.GetCellStyle(sheet, cell)
	if err != nil {
		return fmt.Errorf("failed to read style of %s: %w", cell, err)
	}

	styleID, ok := h.styles[base]
	if !ok {
		styleID, err = h.derive(base)
		if err != nil {
			return err
		}
		h.styles[base] = styleID
	}

	if err := h.file.SetCellStyle(sheet, cell, cell, styleID); err != nil {
		return fmt.Errorf("failed to set style of %s: %w", cell, err)
	}
	return nil
}

func (h *Highlighter) derive(base int) (int, error) {
	style := &excelize.Style{}
	if base != 0 {
		existing, err := h.file.GetStyle(base)
		if err != nil {
			return 0, fmt.Errorf("failed to load style %d: %w", base, err)
		}
		if existing != nil {
			style = existing
		}
	}

	style.Fill = excelize.Fill{Type: "pattern", Color: []string{"#" + h.color}, Pattern: 1}

	id, err := h.file.NewStyle(style)
	if err != nil {
		return 0, fmt.Errorf("failed to create highlight style: %w", err)
	}
	return id, nil
}

// FillColor 读取单元格的纯色填充颜色（无填充返回空串）
func FillColor(f *excelize.File, sheet, cell string) (string, error) {
	id, err := f.GetCellStyle(sheet, cell)
	if err != nil {
		return "", err
	}
	if id == 0 {
		return "", nil
	}
	style, err := f.GetStyle(id)
	if err != nil {
		return "", err
	}
	if style == nil || style.Fill.Pattern != 1 || len(style.Fill.Color) == 0 {
		return "", nil
	}
	c := strings.TrimPrefix(style.Fill.Color[0], "#")
	if len(c) == 8 {
		// ARGB
		c = c[2:]
	}
	return NormalizeColor(c)
}
