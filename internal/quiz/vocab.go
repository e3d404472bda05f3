// internal/quiz/vocab.go
//
// 語彙ドリル。設問のキーワード群から単語カードを起こし、
// 英→洪（意味を見て単語を答える）と洪→英（単語を見て意味を答える）の
// 2方向で出題する。
package quiz

import (
	"math/rand"

	"magyar_vizsga_trainer/internal/model"
	"magyar_vizsga_trainer/internal/textmatch"
)

const (
	// 洪→英方向は文脈文の単語と照合するため、しきい値を少し緩める
	vocabReverseThreshold = 0.7
	// 文脈側の短い機能語（冠詞・前置詞）は照合対象から外す
	vocabContextMinRunes = 4
)

// VocabCard は語彙ドリルの1枚のカードです
type VocabCard struct {
	// StatKey は成績記録用のキー。正規化済みキーワード、
	// 洪→英方向は "_en" を付けて別エントリにする。
	StatKey string
	// Keyword は元の表記のままのキーワード
	Keyword string
	// ContextEN は出典設問の英語解答（意味・文脈）
	ContextEN string
	// QuestionHU は出典設問の本文（表示用）
	QuestionHU string
	// Reverse が真なら洪→英方向
	Reverse bool
}

// Prompt はカードの出題文を返します
func (c VocabCard) Prompt() string {
	if c.Reverse {
		return c.Keyword
	}
	return c.ContextEN
}

// Expected は正解として表示する文字列を返します
func (c VocabCard) Expected() string {
	if c.Reverse {
		return c.ContextEN
	}
	return c.Keyword
}

// BuildVocabDeck は語彙ドリルのデッキを組み立てます。
// キーワードを正規化形で一意化し、英→洪の全カードのあとに
// 洪→英の全カードが続く。各方向の中はシャッフルする。
func BuildVocabDeck(questions []model.Question, rng *rand.Rand) []VocabCard {
	forward := []VocabCard{}
	seen := map[string]bool{}
	for _, q := range questions {
		for _, kw := range q.Keywords {
			key := textmatch.Normalize(kw)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			forward = append(forward, VocabCard{
				StatKey:    key,
				Keyword:    kw,
				ContextEN:  q.AnswerEN,
				QuestionHU: q.QuestionHU,
			})
		}
	}
	rng.Shuffle(len(forward), func(i, j int) { forward[i], forward[j] = forward[j], forward[i] })

	reverse := make([]VocabCard, len(forward))
	for i, c := range forward {
		c.StatKey = c.StatKey + "_en"
		c.Reverse = true
		reverse[i] = c
	}
	rng.Shuffle(len(reverse), func(i, j int) { reverse[i], reverse[j] = reverse[j], reverse[i] })

	return append(forward, reverse...)
}

// CheckVocabAnswer は語彙カードへの解答を二値で判定します。
// 英→洪はキーワードそのものとの照合、洪→英は英語文脈文の
// 4文字以上の単語のいずれかと一致すれば正解。
func CheckVocabAnswer(c VocabCard, userText string, threshold float64) bool {
	if !c.Reverse {
		return textmatch.Matches(userText, c.Keyword, threshold)
	}
	for _, word := range contextWords(c.ContextEN) {
		if textmatch.Matches(userText, word, vocabReverseThreshold) {
			return true
		}
	}
	return false
}

func contextWords(s string) []string {
	out := []string{}
	for _, w := range splitWords(s) {
		if len([]rune(w)) >= vocabContextMinRunes {
			out = append(out, w)
		}
	}
	return out
}

func splitWords(s string) []string {
	fields := []string{}
	cur := []rune{}
	for _, r := range s {
		if isWordRune(r) {
			cur = append(cur, r)
			continue
		}
		if len(cur) > 0 {
			fields = append(fields, string(cur))
			cur = cur[:0]
		}
	}
	if len(cur) > 0 {
		fields = append(fields, string(cur))
	}
	return fields
}

func isWordRune(r rune) bool {
	return r == '\'' || r == '-' ||
		('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') ||
		('0' <= r && r <= '9') || r > 127
}
