// internal/quiz/mc_test.go
package quiz

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"magyar_vizsga_trainer/internal/model"
)

func TestBuildOptions(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	catalog := []model.Question{
		{QuestionID: "a", AnswerHU: "első"},
		{QuestionID: "b", AnswerHU: "második"},
		{QuestionID: "c", AnswerHU: "harmadik"},
		{QuestionID: "d", AnswerHU: "negyedik"},
		{QuestionID: "e", AnswerHU: "ötödik"},
	}

	options, correctIdx := BuildOptions(catalog[0], catalog, rng)

	require.Len(t, options, 4)
	assert.Equal(t, "első", options[correctIdx])
	seen := map[string]bool{}
	for _, opt := range options {
		assert.False(t, seen[opt], "選択肢は重複しない")
		seen[opt] = true
	}
	assert.NotContains(t, options, optionPlaceholder)
}

func TestBuildOptions_PadsWhenFewDistractors(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	catalog := []model.Question{
		{QuestionID: "a", AnswerHU: "igen"},
		{QuestionID: "b", AnswerHU: "nem"},
		{QuestionID: "c", AnswerHU: "igen"}, // 正解と同一 → 除外
	}

	options, correctIdx := BuildOptions(catalog[0], catalog, rng)

	require.Len(t, options, 4, "ダミー不足でも必ず4択")
	assert.Equal(t, "igen", options[correctIdx])
	padding := 0
	for _, opt := range options {
		if opt == optionPlaceholder {
			padding++
		}
	}
	assert.Equal(t, 2, padding)
}

func TestBuildOptions_TruncatesLongAnswers(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	long := strings.Repeat("á", 100)
	catalog := []model.Question{
		{QuestionID: "a", AnswerHU: "rövid"},
		{QuestionID: "b", AnswerHU: long},
	}

	options, _ := BuildOptions(catalog[0], catalog, rng)

	found := false
	for _, opt := range options {
		if strings.HasSuffix(opt, "…") {
			assert.Len(t, []rune(opt), optionMaxRunes)
			found = true
		}
	}
	assert.True(t, found, "長い解答は省略記号付きで切り詰める")
}
