// Package reconcile 实现库存表与扫描表的编码核对：
// 标记库存中已扫描到的编码单元格，并把库存中没有的扫描编码追加到表尾。
package reconcile

import (
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"cruzador/internal/errs"
	"cruzador/internal/model"
	"cruzador/internal/service/excel"
)

const (
	// SourceInventory 库存上传的名称
	SourceInventory = "inventario"
	// SourceScan 扫描上传的名称
	SourceScan = "escaneo"

	// DefaultKeyColumn 默认关键列
	DefaultKeyColumn = "codigo"
	// DefaultHighlightColor 命中单元格的填充色
	DefaultHighlightColor = "00FF00"
)

// Options 核对选项
type Options struct {
	Mode           model.MatchMode
	KeyColumn      string
	HighlightColor string
	AppendOrder    model.AppendOrder
	// SkipEmptyCodes 为 true 时空编码不参与匹配，也不会被追加
	SkipEmptyCodes bool
}

// DefaultOptions 默认选项
func DefaultOptions() Options {
	return Options{
		Mode:           model.MatchExact,
		KeyColumn:      DefaultKeyColumn,
		HighlightColor: DefaultHighlightColor,
		AppendOrder:    model.AppendSorted,
	}
}

// Validate 校验选项
func (o Options) Validate() error {
	if !o.Mode.Valid() {
		return fmt.Errorf("unknown match mode %q", o.Mode)
	}
	if !o.AppendOrder.Valid() {
		return fmt.Errorf("unknown append order %q", o.AppendOrder)
	}
	if o.KeyColumn == "" {
		return fmt.Errorf("key column must not be empty")
	}
	if _, err := excel.NormalizeColor(o.HighlightColor); err != nil {
		return err
	}
	return nil
}

// Result 核对结果
type Result struct {
	// Workbook 标记并追加后的库存工作簿（调用方负责 Close）
	Workbook *excelize.File
	Sheet    string

	// MatchCount 命中行数，重复编码逐行计数
	MatchCount  int
	MatchedRows []int

	NewCodes         []string
	FirstAppendedRow int
}

// Close 关闭结果工作簿
func (r *Result) Close() error {
	if r == nil || r.Workbook == nil {
		return nil
	}
	return r.Workbook.Close()
}

// Reconciler 核对器；无可变状态，可并发复用
type Reconciler struct {
	opts Options
}

// New 创建核对器
func New(opts Options) (*Reconciler, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Reconciler{opts: opts}, nil
}

// Options 返回核对选项
func (r *Reconciler) Options() Options {
	return r.opts
}

// WithMode 返回仅模式不同的核对器
func (r *Reconciler) WithMode(mode model.MatchMode) (*Reconciler, error) {
	opts := r.opts
	opts.Mode = mode
	return New(opts)
}

// ReconcileReaders 打开两个上传并核对
// 扫描工作簿在返回前关闭；库存工作簿随 Result 返回
func (r *Reconciler) ReconcileReaders(inventory, scan io.Reader) (*Result, error) {
	invFile, err := excel.Open(inventory)
	if err != nil {
		return nil, errs.NewParse(SourceInventory, err)
	}
	scanFile, err := excel.Open(scan)
	if err != nil {
		_ = invFile.Close()
		return nil, errs.NewParse(SourceScan, err)
	}
	defer scanFile.Close()

	res, err := r.Reconcile(invFile, scanFile)
	if err != nil {
		_ = invFile.Close()
		return nil, err
	}
	return res, nil
}

// Reconcile 在 inventory 上原地标记与追加
func (r *Reconciler) Reconcile(inventory, scan *excelize.File) (*Result, error) {
	invTable, err := excel.ReadTable(inventory, "")
	if err != nil {
		return nil, errs.NewParse(SourceInventory, err)
	}
	scanTable, err := excel.ReadTable(scan, "")
	if err != nil {
		return nil, errs.NewParse(SourceScan, err)
	}

	invCodes, err := r.tableCodes(invTable, SourceInventory)
	if err != nil {
		return nil, err
	}
	scanCodes, err := r.tableCodes(scanTable, SourceScan)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Workbook: inventory,
		Sheet:    invTable.Sheet,
	}

	// 在工作簿本身的首行重新定位关键列，不复用解析阶段的结果
	header, err := excel.HeaderRow(inventory, res.Sheet)
	if err != nil {
		return nil, errs.Internal("read header", err)
	}
	col, ok := KeyColumn(header, r.opts.KeyColumn, r.opts.Mode)
	if !ok {
		return nil, errs.NewMissingColumn(r.opts.KeyColumn, "")
	}

	if err := r.highlight(res, invTable, col, scanCodes); err != nil {
		return nil, err
	}

	res.NewCodes = r.newCodes(scanCodes, invCodes)
	if len(res.NewCodes) > 0 {
		start, err := excel.AppendRows(inventory, res.Sheet, res.NewCodes)
		if err != nil {
			return nil, errs.Internal("append codes", err)
		}
		res.FirstAppendedRow = start
	}

	return res, nil
}

func (r *Reconciler) tableCodes(t *model.Table, source string) (*codeSet, error) {
	if t.IsEmpty() {
		return nil, errs.NewMissingColumn(r.opts.KeyColumn, source)
	}
	col, ok := KeyColumn(t.Header, r.opts.KeyColumn, r.opts.Mode)
	if !ok {
		return nil, errs.NewMissingColumn(r.opts.KeyColumn, source)
	}

	set := newCodeSet(t.Len())
	for i := range t.Rows {
		if code, ok := r.normalize(t.Value(i, col).Text); ok {
			set.add(code)
		}
	}
	return set, nil
}

// highlight 遍历第 2 行至最后一行，命中扫描集合的编码单元格加填充
// 行值取自 ReadTable 的结果，与构建集合时使用同一套渲染规则
func (r *Reconciler) highlight(res *Result, rows *model.Table, col int, scan *codeSet) error {
	hl, err := excel.NewHighlighter(res.Workbook, r.opts.HighlightColor)
	if err != nil {
		return errs.Internal("highlight", err)
	}

	for i := 0; i < rows.Len(); i++ {
		code, ok := r.normalize(rows.Value(i, col).Text)
		if !ok || !scan.has(code) {
			continue
		}
		row := i + 2
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return errs.Internal("highlight", err)
		}
		if err := hl.Apply(res.Sheet, cell); err != nil {
			return errs.Internal("highlight", err)
		}
		res.MatchCount++
		res.MatchedRows = append(res.MatchedRows, row)
	}
	return nil
}

// newCodes 扫描集合减去库存集合
func (r *Reconciler) newCodes(scan, inventory *codeSet) []string {
	var out []string
	for _, code := range scan.order {
		if !inventory.has(code) {
			out = append(out, code)
		}
	}
	if r.opts.AppendOrder == model.AppendSorted {
		sort.Strings(out)
	}
	return out
}

func (r *Reconciler) normalize(raw string) (string, bool) {
	return NormalizeCode(raw, r.opts.Mode, r.opts.SkipEmptyCodes)
}

// codeSet 保留首次出现顺序的编码集合
type codeSet struct {
	order   []string
	members map[string]struct{}
}

func newCodeSet(capacity int) *codeSet {
	return &codeSet{
		order:   make([]string, 0, capacity),
		members: make(map[string]struct{}, capacity),
	}
}

func (s *codeSet) add(code string) {
	if _, ok := s.members[code]; ok {
		return
	}
	s.members[code] = struct{}{}
	s.order = append(s.order, code)
}

func (s *codeSet) has(code string) bool {
	_, ok := s.members[code]
	return ok
}
