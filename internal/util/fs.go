package util

import (
	"os"
	"path/filepath"
)

// EnsureDir 创建目录（含父目录）
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// WriteFileAtomic 先写临时文件再重命名，避免留下半个 xlsx
func WriteFileAtomic(path string, data []byte) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// FileExists 路径存在且可访问
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
