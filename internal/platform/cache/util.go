package cache

import (
	"time"
)

// TimeUntilNext は now から次の hour 時（loc のタイムゾーン）までの期間を返します。
// 価格データは1日1回取り込まれるため、キャッシュの TTL に使用します。
func TimeUntilNext(now time.Time, hour int, loc *time.Location) time.Duration {
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)

	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, loc)

	// 今日の指定時刻が既に過ぎている場合は翌日を使用
	if !now.Before(next) {
		next = next.AddDate(0, 0, 1)
	}

	return next.Sub(now)
}

// TTLUntilNextRefresh は評価のたびに次のリフレッシュ時刻までの TTL を返す関数を生成します。
func TTLUntilNextRefresh(hour int, loc *time.Location) func() time.Duration {
	return func() time.Duration {
		return TimeUntilNext(time.Now(), hour, loc)
	}
}
