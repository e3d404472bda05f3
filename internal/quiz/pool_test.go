// internal/quiz/pool_test.go
package quiz

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"magyar_vizsga_trainer/internal/model"
	"magyar_vizsga_trainer/internal/srs"
)

func q(id string, topic int) model.Question {
	return model.Question{QuestionID: id, QuestionHU: "kérdés " + id, AnswerHU: "válasz " + id, Topic: topic}
}

func ids(pool []model.Question) []string {
	out := make([]string, 0, len(pool))
	for _, q := range pool {
		out = append(out, q.QuestionID)
	}
	return out
}

func TestByTopic(t *testing.T) {
	catalog := []model.Question{q("a", 1), q("b", 2), q("c", 1)}

	assert.Equal(t, []string{"a", "c"}, ids(ByTopic(catalog, 1)))
	assert.Empty(t, ByTopic(catalog, 9), "実在しない分野は空プール")
}

func TestTopics(t *testing.T) {
	catalog := []model.Question{q("a", 3), q("b", 1), q("c", 3), q("d", 2)}
	assert.Equal(t, []int{1, 2, 3}, Topics(catalog))
}

func TestWeakSpots_Ordering(t *testing.T) {
	catalog := []model.Question{q("high", 1), q("unseen", 1), q("low", 1)}
	progress := map[string]*model.QuestionProgress{
		"high": {QuestionID: "high", Attempts: 10, Correct: 8, Accuracy: 0.8},
		"low":  {QuestionID: "low", Attempts: 10, Correct: 3, Accuracy: 0.3},
	}

	got := WeakSpots(catalog, progress, DefaultWeakAccuracyCutoff)

	// 未挑戦(0.0扱い)が先頭、次に0.3。0.8は基準以上なので除外。
	assert.Equal(t, []string{"unseen", "low"}, ids(got))
}

func TestWeakSpots_CutoffBoundary(t *testing.T) {
	catalog := []model.Question{q("edge", 1)}
	progress := map[string]*model.QuestionProgress{
		"edge": {QuestionID: "edge", Attempts: 10, Correct: 6, Accuracy: 0.6},
	}
	assert.Empty(t, WeakSpots(catalog, progress, DefaultWeakAccuracyCutoff), "0.6ちょうどは弱点に含めない")
	// 基準は呼び出し側から調整できる
	assert.Equal(t, []string{"edge"}, ids(WeakSpots(catalog, progress, 0.7)))
}

func TestDueForReview(t *testing.T) {
	today := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	catalog := []model.Question{q("due", 1), q("future", 1), q("unseen", 1)}
	cards := map[string]*srs.Card{
		"due":    {IntervalDays: 3, Ease: 2.5, Due: today.AddDate(0, 0, -1)},
		"future": {IntervalDays: 3, Ease: 2.5, Due: today.AddDate(0, 0, 2)},
	}

	got := DueForReview(catalog, cards, today)
	assert.Equal(t, []string{"due", "unseen"}, ids(got))
}

func TestExamSample(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	catalog := []model.Question{
		q("a1", 1), q("a2", 1), q("a3", 1),
		q("b1", 2), q("b2", 2),
		q("c1", 3), // 1問しかない分野
	}

	got := ExamSample(catalog, 2, rng)

	require.Len(t, got, 5) // 2 + 2 + 1
	perTopic := map[int]int{}
	seen := map[string]bool{}
	for _, question := range got {
		perTopic[question.Topic]++
		assert.False(t, seen[question.QuestionID], "重複なし")
		seen[question.QuestionID] = true
	}
	assert.Equal(t, map[int]int{1: 2, 2: 2, 3: 1}, perTopic)
}

func TestWeightedSample(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	catalog := []model.Question{}
	for i := 0; i < 50; i++ {
		catalog = append(catalog, q(string(rune('a'+i%26))+string(rune('0'+i/26)), 1))
	}

	got := WeightedSample(catalog, map[string]*model.QuestionProgress{}, 20, rng)

	require.Len(t, got, 20)
	seen := map[string]bool{}
	for _, question := range got {
		assert.False(t, seen[question.QuestionID], "非復元抽出")
		seen[question.QuestionID] = true
	}
}

func TestWeightedSample_SmallPool(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	catalog := []model.Question{q("a", 1), q("b", 1)}

	got := WeightedSample(catalog, nil, 20, rng)
	assert.Len(t, got, 2, "プールが目標より小さければ全問")
}

func TestWeightedSample_PrefersUnseen(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	catalog := []model.Question{}
	progress := map[string]*model.QuestionProgress{}
	for i := 0; i < 40; i++ {
		id := string(rune('a'+i%26)) + string(rune('0'+i/26))
		catalog = append(catalog, q(id, 1))
		// 前半20問だけ高正答率の履歴を付ける
		if i < 20 {
			progress[id] = &model.QuestionProgress{QuestionID: id, Attempts: 10, Correct: 10, Accuracy: 1.0}
		}
	}

	// 未挑戦(重み3.0)が既習(1.0)より多く選ばれる傾向の確認
	unseenPicked := 0
	for trial := 0; trial < 20; trial++ {
		got := WeightedSample(catalog, progress, 10, rng)
		for _, question := range got {
			if _, ok := progress[question.QuestionID]; !ok {
				unseenPicked++
			}
		}
	}
	assert.Greater(t, unseenPicked, 100, "20回×10問中、過半は未挑戦側")
}
