// internal/textmatch/similarity.go
package textmatch

import "github.com/pmezard/go-difflib/difflib"

// Ratio は2つの文字列の類似度を [0,1] で返します（1.0 = 完全一致）。
//
// 定義: 貪欲に求めた最長一致ブロック分解で覆われる文字数の2倍を
// 両文字列の合計長で割った値。編集距離と違い、無関係な文字の挿入が
// 一致済みの並びにペナルティを与えないので、短いハンガリー語の
// アクセント揺れ・タイポに対して寛容になる。
// 1要素=1ルーンで SequenceMatcher に渡すことで文字単位の比較になる。
func Ratio(a, b string) float64 {
	if a == "" && b == "" {
		return 1.0
	}
	return difflib.NewMatcher(runeElems(a), runeElems(b)).Ratio()
}

func runeElems(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
