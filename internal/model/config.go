package model

// MatchMode 核对模式
type MatchMode string

const (
	// MatchExact 表头必须精确等于关键列名，编码仅去除首尾空白
	MatchExact MatchMode = "exact"
	// MatchLenient 表头按关键词识别，编码去重音、小写、合并空白
	MatchLenient MatchMode = "lenient"
)

// Valid 是否为已知模式
func (m MatchMode) Valid() bool {
	return m == MatchExact || m == MatchLenient
}

// AppendOrder 新编码追加顺序
type AppendOrder string

const (
	// AppendSorted 按编码升序追加
	AppendSorted AppendOrder = "sorted"
	// AppendScan 按扫描表中首次出现的顺序追加
	AppendScan AppendOrder = "scan"
)

// Valid 是否为已知顺序
func (o AppendOrder) Valid() bool {
	return o == AppendSorted || o == AppendScan
}
