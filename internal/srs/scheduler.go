// internal/srs/scheduler.go
//
// SM-2系の2変数(間隔・易しさ係数)スケジューラ。
// 係数は予報や「今日の復習枚数」というユーザーに見える数値を決めるため、
// ここの式を変えると既存カードのスケジュールが全部ずれる。
package srs

import (
	"errors"
	"math"
	"time"
)

const (
	// InitialEase は新規カードの易しさ係数
	InitialEase = 2.5
	// MinEase は易しさ係数の下限
	MinEase = 1.3
)

// ErrInvalidQuality は品質グレードが 0..5 の範囲外のときに返されます
var ErrInvalidQuality = errors.New("srs: quality grade out of range 0..5")

// Card は1設問分のスケジュール状態のスナップショットです
type Card struct {
	IntervalDays int
	Ease         float64
	Due          time.Time // ゼロ値 = 未スケジュール
}

// NewCard は未レビューの初期状態を返します
func NewCard() Card {
	return Card{IntervalDays: 0, Ease: InitialEase}
}

// Quality はスコア(0..1)を品質グレード(0..5)へ写像します。
//
// 正準の対応表（単調非減少）:
//
//	>=0.9 → 5, >=0.7 → 4, >=0.6 → 3, >=0.3 → 2, >=0.1 → 1, それ以外 → 0
//
// 由来の実装には僅かに異なる2種類の境界があったが、本パッケージでは
// この詳細な方を正とする（DESIGN.md参照）。
func Quality(score float64) int {
	switch {
	case score >= 0.9:
		return 5
	case score >= 0.7:
		return 4
	case score >= 0.6:
		return 3
	case score >= 0.3:
		return 2
	case score >= 0.1:
		return 1
	default:
		return 0
	}
}

// Review は品質グレードに応じて次のスケジュール状態を計算します。
// 値渡し・値返しで、引数の Card は変更しない。
//
// 遷移規則:
//   - quality < 3: リセット (interval = 1)
//   - 初回成功: 1日, 2回目成功: 6日, 以降: round(interval * ease)
//     ※ intervalの計算には更新前の ease を使う
//   - ease' = max(1.3, ease + 0.1 - (5-q)*(0.08 + (5-q)*0.02))
//   - due = today + interval日
func Review(c Card, quality int, today time.Time) (Card, error) {
	if quality < 0 || quality > 5 {
		return Card{}, ErrInvalidQuality
	}

	interval := c.IntervalDays
	ease := c.Ease
	if ease == 0 {
		ease = InitialEase
	}

	if quality < 3 {
		interval = 1
	} else {
		switch interval {
		case 0:
			interval = 1
		case 1:
			interval = 6
		default:
			interval = int(math.Round(float64(interval) * ease))
		}
	}

	q := float64(quality)
	ease = ease + 0.1 - (5-q)*(0.08+(5-q)*0.02)
	ease = math.Max(MinEase, ease)
	// 浮動小数の桁暴れを防ぐため3桁で保存する
	ease = math.Round(ease*1000) / 1000

	return Card{
		IntervalDays: interval,
		Ease:         ease,
		Due:          DateOf(today).AddDate(0, 0, interval),
	}, nil
}

// IsDue は復習期限が来ているかを返します。
// 未スケジュール（カードなし・期限なし）の設問は期限到来扱い。
func IsDue(c *Card, today time.Time) bool {
	if c == nil || c.Due.IsZero() {
		return true
	}
	return !DateOf(c.Due).After(DateOf(today))
}

// DateOf は時刻を日付（その日の00:00 UTC）に切り詰めます。
// スケジュールは日単位で、時分秒は比較に影響させない。
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
