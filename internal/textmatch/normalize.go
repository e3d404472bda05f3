// internal/textmatch/normalize.go
package textmatch

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// アクセント記号除去用のトランスフォーマ。
// NFD分解 → 結合記号(Mn)を除去 → NFC再合成 で
// á→a, ő→o, ü→u のようにハンガリー語の母音を基底文字に畳む。
var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize は比較用の正規形を返します。
// アクセント除去・小文字化・前後空白の除去を行い、内部の空白は保持する。
// どんな入力でも失敗せず、冪等 (Normalize(Normalize(x)) == Normalize(x))。
func Normalize(s string) string {
	out, _, err := transform.String(stripAccents, s)
	if err != nil {
		// 変換に失敗する入力（不正なUTF-8など）はそのまま扱う
		out = s
	}
	return strings.TrimSpace(strings.ToLower(out))
}
