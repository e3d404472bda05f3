// internal/textmatch/normalize_test.go
package textmatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"正常系: 小文字化", "Budapest", "budapest"},
		{"正常系: アクセント除去", "kávé", "kave"},
		{"正常系: ハンガリー語の二重アクセント", "idő", "ido"},
		{"正常系: 全母音", "áéíóöőúüű", "aeiooouuu"},
		{"正常系: 前後空白の除去", "  hétfő  ", "hetfo"},
		{"正常系: 内部空白は保持", "jó napot", "jo napot"},
		{"正常系: 空文字", "", ""},
		{"正常系: 空白のみ", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{"Égszínkék", "  SZÉP  ", "már megint", "x"}
	for _, s := range inputs {
		once := Normalize(s)
		assert.Equal(t, once, Normalize(once), "input=%q", s)
	}
}

func TestRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"正常系: 完全一致", "alma", "alma", 1.0},
		{"正常系: 両方空", "", "", 1.0},
		{"正常系: 片方空", "alma", "", 0.0},
		{"正常系: 1文字違い(境界値0.75)", "abcd", "abcx", 0.75},
		{"正常系: 全く違う", "abc", "xyz", 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Ratio(tt.a, tt.b), 1e-9)
		})
	}
}

func TestRatio_MultibyteRunes(t *testing.T) {
	// バイト単位でなくルーン単位で比較していることの確認。
	// "idő" と "idó" は3ルーン中2ルーン一致 → 2*2/6
	assert.InDelta(t, 2.0/3.0, Ratio("idő", "idó"), 1e-9)
}
