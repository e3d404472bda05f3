// internal/textmatch/matcher.go
package textmatch

import "strings"

// DefaultThreshold は類似度一致のしきい値（境界値は一致扱い: ratio >= threshold）
const DefaultThreshold = 0.75

// Matches はキーワードが自由記述 userText の中に「現れている」と
// みなせるかを判定します。判定は以下の順で行い、最初に成立した時点で
// true を返す:
//
//  1. 正規化後の完全包含
//  2. 単語キーワード: 入力の各トークンとの類似度
//  3. 複数語キーワード(N語): 入力トークン列のN語ウィンドウとの類似度
//  4. 文字単位フォールバック: len(keyword)±3 (最小1) の各ウィンドウ幅で
//     入力の全文字オフセットを走査
//
// ステップ4は長いキーワードではコストが支配的だが、1つの長い単語の
// 中のタイポまで許容するために省略できない。
func Matches(userText, keyword string, threshold float64) bool {
	normInput := Normalize(userText)
	normKW := Normalize(keyword)

	if normKW == "" {
		return false
	}

	// 1. 完全包含
	if strings.Contains(normInput, normKW) {
		return true
	}

	inputWords := strings.Fields(normInput)
	kwWords := strings.Fields(normKW)

	// 2. 単語レベル
	if len(kwWords) == 1 {
		for _, word := range inputWords {
			if Ratio(word, normKW) >= threshold {
				return true
			}
		}
	}

	// 3. 複数語のスライディングウィンドウ
	if len(kwWords) > 1 {
		for i := 0; i+len(kwWords) <= len(inputWords); i++ {
			window := strings.Join(inputWords[i:i+len(kwWords)], " ")
			if Ratio(window, normKW) >= threshold {
				return true
			}
		}
	}

	// 4. 文字単位のスライディングウィンドウ
	inputRunes := []rune(normInput)
	kwLen := len([]rune(normKW))
	for size := max(1, kwLen-3); size <= kwLen+3; size++ {
		for i := 0; i+size <= len(inputRunes); i++ {
			chunk := string(inputRunes[i : i+size])
			if Ratio(chunk, normKW) >= threshold {
				return true
			}
		}
	}

	return false
}
