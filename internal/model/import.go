package model

import "time"

// RunStatus 核对记录状态
type RunStatus string

const (
	RunProcessing RunStatus = "processing"
	RunSuccess    RunStatus = "success"
	RunFailed     RunStatus = "failed"
)

// UploadInfo 上传文件元信息（不含内容）
type UploadInfo struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	SHA256   string `json:"sha256"`
}

// ReconcileRun 一次核对的历史记录
type ReconcileRun struct {
	ID            string     `json:"id"`
	Inventory     UploadInfo `json:"inventory"`
	Scan          UploadInfo `json:"scan"`
	Mode          MatchMode  `json:"mode"`
	MatchCount    int        `json:"matchCount"`
	AppendedCount int        `json:"appendedCount"`
	Status        RunStatus  `json:"status"`
	ErrorMessage  string     `json:"errorMessage,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
}
