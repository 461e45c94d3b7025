package v1

import (
	"fmt"
	"net/url"
	"strings"
)

// buildContentDisposition 生成附件下载头；非 ASCII 文件名追加 RFC 5987 filename*
func buildContentDisposition(filename string) string {
	if isPlainASCII(filename) {
		return "attachment; filename=" + filename
	}
	fallback := strings.Map(func(r rune) rune {
		if r > 0x7e || r < 0x20 || r == '"' || r == '\\' {
			return '_'
		}
		return r
	}, filename)
	return fmt.Sprintf("attachment; filename=\"%s\"; filename*=UTF-8''%s", fallback, url.PathEscape(filename))
}

func isPlainASCII(s string) bool {
	for _, r := range s {
		if r <= 0x20 || r > 0x7e || r == '"' || r == '\\' || r == ';' || r == ',' {
			return false
		}
	}
	return true
}
