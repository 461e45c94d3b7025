package reconcile

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"cruzador/internal/model"
)

// EmptyPlaceholder 空编码单元格在 exact 模式下的规范化结果
// 两张表中的空单元格会因此互相匹配
const EmptyPlaceholder = "nan"

// lenientKeywords 宽松模式下识别编码列的关键词，按优先级排列
var lenientKeywords = []string{
	"codigo",
	"codigo de barras",
	"cod",
	"barcode",
	"bar code",
	"item code",
	"product code",
	"sku",
	"ean",
	"upc",
	"serial",
	"serial number",
	"identificador",
	"identificacion",
	"identificacao",
	"id",
}

// NormalizeCode 按模式规范化编码；第二个返回值为 false 表示该单元格不参与核对
func NormalizeCode(raw string, mode model.MatchMode, skipEmpty bool) (string, bool) {
	if mode == model.MatchLenient {
		code := FoldText(raw)
		return code, code != ""
	}

	if raw == "" {
		if skipEmpty {
			return "", false
		}
		return EmptyPlaceholder, true
	}
	code := strings.TrimSpace(raw)
	if code == "" && skipEmpty {
		return "", false
	}
	return code, true
}

// FoldText 小写、去重音、合并连续空白并去除首尾空白
func FoldText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

// KeyColumn 在表头中定位关键列（0 基）
// exact 模式取第一个与 key 完全相同的表头；lenient 模式按关键词优先级取第一个命中的表头
func KeyColumn(header []string, key string, mode model.MatchMode) (int, bool) {
	if mode != model.MatchLenient {
		for i, h := range header {
			if h == key {
				return i, true
			}
		}
		return 0, false
	}

	words := make([]string, len(header))
	for i, h := range header {
		words[i] = " " + strings.Join(headerTokens(h), " ") + " "
	}

	keywords := lenientKeywords
	if k := FoldText(key); k != "" && k != lenientKeywords[0] {
		keywords = append([]string{k}, lenientKeywords...)
	}

	for _, kw := range keywords {
		needle := " " + kw + " "
		for i, w := range words {
			if strings.Contains(w, needle) {
				return i, true
			}
		}
	}
	return 0, false
}

// headerTokens 将表头拆为字母数字词元
func headerTokens(h string) []string {
	return strings.FieldsFunc(FoldText(h), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
