// Package errs 定义核对流程中的错误类型。
// 每类失败都有一个哨兵错误，便于 errors.Is 判断；结构体类型携带上下文，便于 errors.As 取值。
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// 哨兵错误
var (
	// ErrMissingUpload 请求中缺少必需的上传文件
	ErrMissingUpload = errors.New("missing upload")

	// ErrMissingColumn 找不到关键列
	ErrMissingColumn = errors.New("missing column")

	// ErrParse 上传内容无法解析为表格
	ErrParse = errors.New("parse error")

	// ErrInternal 处理过程中的其他失败
	ErrInternal = errors.New("internal error")
)

// MissingUploadError 缺少上传文件
type MissingUploadError struct {
	Parts []string
}

// Error implements the error interface
func (e *MissingUploadError) Error() string {
	return fmt.Sprintf("missing upload parts: %s", strings.Join(e.Parts, ", "))
}

// Is implements errors.Is support
func (e *MissingUploadError) Is(target error) bool {
	return target == ErrMissingUpload
}

// MissingColumnError 关键列缺失
// Source 指明缺失发生的位置：inventario、escaneo 或渲染后的工作表
type MissingColumnError struct {
	Column string
	Source string
}

// Error implements the error interface
func (e *MissingColumnError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("no column named %s in %s", e.Column, e.Source)
	}
	return fmt.Sprintf("no column named %s", e.Column)
}

// Is implements errors.Is support
func (e *MissingColumnError) Is(target error) bool {
	return target == ErrMissingColumn
}

// ParseError 表格解析失败
type ParseError struct {
	Source string
	Err    error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s: %v", e.Source, e.Err)
	}
	return e.Err.Error()
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// InternalError 其他处理失败，消息直接取自底层错误
type InternalError struct {
	Op  string
	Err error
}

// Error implements the error interface
func (e *InternalError) Error() string {
	return e.Err.Error()
}

// Unwrap implements errors.Unwrap
func (e *InternalError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *InternalError) Is(target error) bool {
	return target == ErrInternal
}

// NewMissingColumn 创建 MissingColumnError
func NewMissingColumn(column, source string) *MissingColumnError {
	return &MissingColumnError{Column: column, Source: source}
}

// NewParse 创建 ParseError
func NewParse(source string, err error) *ParseError {
	return &ParseError{Source: source, Err: err}
}

// Internal 包装为 InternalError；已是分类错误的原样返回
func Internal(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsClassified(err) {
		return err
	}
	return &InternalError{Op: op, Err: err}
}

// IsClassified 判断错误是否已属于某一分类
func IsClassified(err error) bool {
	return errors.Is(err, ErrMissingUpload) ||
		errors.Is(err, ErrMissingColumn) ||
		errors.Is(err, ErrParse) ||
		errors.Is(err, ErrInternal)
}

// IsMissingColumn checks if an error is a missing column error
func IsMissingColumn(err error) bool {
	return errors.Is(err, ErrMissingColumn)
}

// IsMissingUpload checks if an error is a missing upload error
func IsMissingUpload(err error) bool {
	return errors.Is(err, ErrMissingUpload)
}
