// internal/srs/forecast.go
package srs

import "time"

// ForecastCounts は今日から days 日分の復習予定枚数を数えます。
// 戻り値のインデックス0が今日。期日超過のカードは今日の枠に合算する。
func ForecastCounts(cards []Card, today time.Time, days int) []int {
	counts := make([]int, days)
	if days == 0 {
		return counts
	}
	base := DateOf(today)
	for _, c := range cards {
		if c.Due.IsZero() {
			continue
		}
		offset := int(DateOf(c.Due).Sub(base).Hours() / 24)
		if offset < 0 {
			offset = 0
		}
		if offset < days {
			counts[offset]++
		}
	}
	return counts
}
