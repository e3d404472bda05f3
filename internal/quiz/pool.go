// internal/quiz/pool.go
//
// 出題プールの構築。全関数とも設問カタログを読み取り専用で扱い、
// 乱数は呼び出し側から *rand.Rand を注入する（テストで再現可能にするため）。
package quiz

import (
	"math/rand"
	"sort"
	"time"

	"magyar_vizsga_trainer/internal/model"
	"magyar_vizsga_trainer/internal/srs"
)

// DefaultWeakAccuracyCutoff は弱点判定の既定の正答率基準です
const DefaultWeakAccuracyCutoff = 0.6

// ByTopic は指定分野の設問を抽出します
func ByTopic(questions []model.Question, topic int) []model.Question {
	out := []model.Question{}
	for _, q := range questions {
		if q.Topic == topic {
			out = append(out, q)
		}
	}
	return out
}

// Topics はカタログに実在する分野番号を昇順で返します
func Topics(questions []model.Question) []int {
	seen := map[int]bool{}
	for _, q := range questions {
		seen[q.Topic] = true
	}
	out := make([]int, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Ints(out)
	return out
}

// WeakSpots は未挑戦または正答率が cutoff 未満の設問を、正答率の昇順で
// 返します。未挑戦は正答率 0.0 扱いで最優先。同率の場合は元の並び順を
// 保持する。
func WeakSpots(questions []model.Question, progress map[string]*model.QuestionProgress, cutoff float64) []model.Question {
	type entry struct {
		q   model.Question
		acc float64
	}
	entries := []entry{}
	for _, q := range questions {
		p, ok := progress[q.QuestionID]
		acc := 0.0
		if ok && p.Attempts > 0 {
			acc = p.Accuracy
		}
		if !ok || acc < cutoff {
			entries = append(entries, entry{q: q, acc: acc})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].acc < entries[j].acc
	})
	out := make([]model.Question, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.q)
	}
	return out
}

// DueForReview は復習期限が来ている設問を返します。
// SRSカードがまだ無い設問は期限到来扱い。
func DueForReview(questions []model.Question, cards map[string]*srs.Card, today time.Time) []model.Question {
	out := []model.Question{}
	for _, q := range questions {
		if srs.IsDue(cards[q.QuestionID], today) {
			out = append(out, q)
		}
	}
	return out
}

// ExamSample は模擬試験用のプールを作ります。
// カタログに実在する各分野から perTopic 問（足りない分野は全問）を
// 無作為に抽出し、結合後に全体をシャッフルする。
func ExamSample(questions []model.Question, perTopic int, rng *rand.Rand) []model.Question {
	out := []model.Question{}
	for _, topic := range Topics(questions) {
		pool := ByTopic(questions, topic)
		rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
		n := perTopic
		if len(pool) < n {
			n = len(pool)
		}
		out = append(out, pool[:n]...)
	}
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// WeightedSample は重み付き非復元抽出で target 問を選びます。
// 重み: 未挑戦 3.0 / 正答率 0.4 未満 2.0 / それ以外 1.0。
// 重複を捨てながら target*20 回まで抽選し、埋まらなかった残りは
// 未選出の設問を一様シャッフルした列から補充する。
func WeightedSample(questions []model.Question, progress map[string]*model.QuestionProgress, target int, rng *rand.Rand) []model.Question {
	if len(questions) <= target {
		out := append([]model.Question{}, questions...)
		rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
		return out
	}

	weights := make([]float64, len(questions))
	var totalWeight float64
	for i, q := range questions {
		w := 1.0
		p, ok := progress[q.QuestionID]
		switch {
		case !ok || p.Attempts == 0:
			w = 3.0
		case p.Accuracy < 0.4:
			w = 2.0
		}
		weights[i] = w
		totalWeight += w
	}

	chosen := map[string]bool{}
	out := []model.Question{}
	for draws := 0; draws < target*20 && len(out) < target; draws++ {
		r := rng.Float64() * totalWeight
		for i, q := range questions {
			r -= weights[i]
			if r <= 0 {
				if !chosen[q.QuestionID] {
					chosen[q.QuestionID] = true
					out = append(out, q)
				}
				break
			}
		}
	}

	// 抽選で埋まらなかった分のフォールバック
	if len(out) < target {
		rest := []model.Question{}
		for _, q := range questions {
			if !chosen[q.QuestionID] {
				rest = append(rest, q)
			}
		}
		rng.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })
		for _, q := range rest {
			if len(out) >= target {
				break
			}
			out = append(out, q)
		}
	}
	return out
}
