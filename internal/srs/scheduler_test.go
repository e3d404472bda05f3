// internal/srs/scheduler_test.go
package srs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuality(t *testing.T) {
	tests := []struct {
		name  string
		score float64
		want  int
	}{
		{"正常系: 満点は5", 1.0, 5},
		{"正常系: 0.9ちょうどは5", 0.9, 5},
		{"正常系: 0.89は4", 0.89, 4},
		{"正常系: 0.7ちょうどは4", 0.7, 4},
		{"正常系: 0.6ちょうどは3", 0.6, 3},
		{"正常系: 0.59は2", 0.59, 2},
		{"正常系: 0.3ちょうどは2", 0.3, 2},
		{"正常系: 0.1ちょうどは1", 0.1, 1},
		{"正常系: 0は0", 0.0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Quality(tt.score))
		})
	}
}

func TestReview_SuccessProgression(t *testing.T) {
	today := time.Date(2026, 8, 30, 15, 4, 5, 0, time.UTC)

	c := NewCard()

	// 初回成功: 1日
	c, err := Review(c, 5, today)
	require.NoError(t, err)
	assert.Equal(t, 1, c.IntervalDays)
	assert.Equal(t, 2.6, c.Ease)
	assert.Equal(t, time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), c.Due)

	// 2回目成功: 6日
	c, err = Review(c, 5, today)
	require.NoError(t, err)
	assert.Equal(t, 6, c.IntervalDays)
	assert.Equal(t, 2.7, c.Ease)

	// 3回目以降: round(interval * 更新前ease)
	c, err = Review(c, 4, today)
	require.NoError(t, err)
	assert.Equal(t, 16, c.IntervalDays) // round(6 * 2.7)
	assert.Equal(t, 2.7, c.Ease)        // q=4 は係数据え置き
}

func TestReview_FailureResets(t *testing.T) {
	today := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	c := Card{IntervalDays: 42, Ease: 2.5}
	c, err := Review(c, 0, today)
	require.NoError(t, err)
	assert.Equal(t, 1, c.IntervalDays)
	assert.InDelta(t, 1.7, c.Ease, 1e-9)
}

func TestReview_EaseFloor(t *testing.T) {
	today := time.Now()

	c := Card{IntervalDays: 1, Ease: MinEase}
	for i := 0; i < 5; i++ {
		var err error
		c, err = Review(c, 0, today)
		require.NoError(t, err)
	}
	assert.Equal(t, MinEase, c.Ease)
}

func TestReview_ZeroEaseTreatedAsInitial(t *testing.T) {
	today := time.Now()

	// DBから読んだ未初期化カード
	c := Card{IntervalDays: 6, Ease: 0}
	c, err := Review(c, 5, today)
	require.NoError(t, err)
	assert.Equal(t, 15, c.IntervalDays) // round(6 * 2.5)
}

func TestReview_InvalidQuality(t *testing.T) {
	_, err := Review(NewCard(), 6, time.Now())
	assert.ErrorIs(t, err, ErrInvalidQuality)

	_, err = Review(NewCard(), -1, time.Now())
	assert.ErrorIs(t, err, ErrInvalidQuality)
}

func TestIsDue(t *testing.T) {
	today := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	assert.True(t, IsDue(nil, today), "カード未作成は期限到来扱い")
	assert.True(t, IsDue(&Card{}, today), "期限未設定は期限到来扱い")
	assert.True(t, IsDue(&Card{Due: today.AddDate(0, 0, -3)}, today))
	assert.True(t, IsDue(&Card{Due: time.Date(2026, 8, 30, 23, 59, 0, 0, time.UTC)}, today), "同日は時刻に関係なく期限到来")
	assert.False(t, IsDue(&Card{Due: today.AddDate(0, 0, 1)}, today))
}

func TestForecastCounts(t *testing.T) {
	today := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)

	cards := []Card{
		{Due: today.AddDate(0, 0, -2)}, // 超過分は今日に合算
		{Due: today},
		{Due: today.AddDate(0, 0, 1)},
		{Due: today.AddDate(0, 0, 6)},
		{Due: today.AddDate(0, 0, 7)}, // 窓の外
		{},                            // 未スケジュールは数えない
	}

	got := ForecastCounts(cards, today, 7)
	assert.Equal(t, []int{2, 1, 0, 0, 0, 0, 1}, got)
}
