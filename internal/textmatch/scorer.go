// internal/textmatch/scorer.go
package textmatch

// ScoreResult は1問分の採点結果。
// Matched / Missed はキーワードの元の並び順を保持する。
type ScoreResult struct {
	Score   float64
	Matched []string
	Missed  []string
}

// Score は自由記述の解答を期待キーワード群に対して採点します。
// キーワードが無い設問は落第させようがないので (1.0, [], []) を返す。
// 各キーワードは独立に判定し、score = |matched| / |keywords|。
// 副作用なしの純関数。
func Score(userText string, keywords []string, threshold float64) ScoreResult {
	if len(keywords) == 0 {
		return ScoreResult{Score: 1.0, Matched: []string{}, Missed: []string{}}
	}

	matched := []string{}
	missed := []string{}
	for _, kw := range keywords {
		if Matches(userText, kw, threshold) {
			matched = append(matched, kw)
		} else {
			missed = append(missed, kw)
		}
	}

	return ScoreResult{
		Score:   float64(len(matched)) / float64(len(keywords)),
		Matched: matched,
		Missed:  missed,
	}
}

// ScoreTolerant はアクセント無しで入力するユーザーのための採点。
// 生の入力と、アクセント除去済みの入力の両方を採点して良い方を採用する。
func ScoreTolerant(userText string, keywords []string, threshold float64) ScoreResult {
	result := Score(userText, keywords, threshold)
	if result.Score < 1.0 {
		stripped := Score(Normalize(userText), keywords, threshold)
		if stripped.Score > result.Score {
			return stripped
		}
	}
	return result
}
