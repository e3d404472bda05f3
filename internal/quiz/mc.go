// internal/quiz/mc.go
package quiz

import (
	"math/rand"

	"magyar_vizsga_trainer/internal/model"
)

const (
	// OptionCount は多肢選択の選択肢数
	OptionCount = 4
	// optionMaxRunes を超える選択肢は省略記号付きで切り詰めます
	optionMaxRunes = 72
	// ダミー選択肢が足りないときの埋め草
	optionPlaceholder = "—"
)

// BuildOptions は多肢選択の選択肢を組み立てます。
// 正解1つに、他の設問の解答から重複を除いて最大3つのダミーを加え、
// 4択に満たない分は埋め草で補ってからシャッフルする。
// 戻り値は (選択肢, 正解のインデックス)。
func BuildOptions(correct model.Question, catalog []model.Question, rng *rand.Rand) ([]string, int) {
	correctText := truncateOption(correct.AnswerHU)

	distractors := []string{}
	seen := map[string]bool{correctText: true}
	pool := append([]model.Question{}, catalog...)
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	for _, q := range pool {
		if q.QuestionID == correct.QuestionID {
			continue
		}
		text := truncateOption(q.AnswerHU)
		if text == "" || seen[text] {
			continue
		}
		seen[text] = true
		distractors = append(distractors, text)
		if len(distractors) == OptionCount-1 {
			break
		}
	}
	for len(distractors) < OptionCount-1 {
		distractors = append(distractors, optionPlaceholder)
	}

	options := append([]string{correctText}, distractors...)
	rng.Shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })

	correctIdx := 0
	for i, opt := range options {
		if opt == correctText {
			correctIdx = i
			break
		}
	}
	return options, correctIdx
}

func truncateOption(s string) string {
	runes := []rune(s)
	if len(runes) <= optionMaxRunes {
		return s
	}
	return string(runes[:optionMaxRunes-1]) + "…"
}
