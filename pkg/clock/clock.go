// Package clock 提供可注入的时间源与期限日期计算。
//
// 所有"工作日 / 自然日"运算集中在本包，业务层不得自行重复日期算术。
// 工作日仅指周一至周五，不含节假日日历。
package clock

import "time"

// Clock 当前时间来源，便于在测试中固定"现在"
type Clock interface {
	Now() time.Time
}

// Real 系统时钟
type Real struct{}

// Now 返回系统当前时间
func (Real) Now() time.Time { return time.Now() }

// Fixed 固定时钟（测试用）
type Fixed struct {
	T time.Time
}

// Now 返回固定时间
func (f *Fixed) Now() time.Time { return f.T }

// Advance 将固定时钟向前拨动 d
func (f *Fixed) Advance(d time.Duration) { f.T = f.T.Add(d) }

// IsBusinessDay 判断是否为工作日（周一至周五）
func IsBusinessDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// AddBusinessDays 从 date 起逐日推进，跳过周六周日，直到累计 n 个工作日。
// 保留原时刻（时分秒）；n <= 0 时原样返回。
func AddBusinessDays(date time.Time, n int) time.Time {
	result := date
	added := 0
	for added < n {
		result = result.AddDate(0, 0, 1)
		if IsBusinessDay(result) {
			added++
		}
	}
	return result
}

// AddCalendarDays 增加 n 个自然日
func AddCalendarDays(date time.Time, n int) time.Time {
	return date.AddDate(0, 0, n)
}

// CountBusinessDaysBetween 统计半开区间 [start, end) 内的工作日数量。
// 两端先归一到当日零点；end 不晚于 start 时返回 0。
func CountBusinessDaysBetween(start, end time.Time) int {
	current := StartOfDay(start)
	last := StartOfDay(end.In(start.Location()))

	count := 0
	for current.Before(last) {
		if IsBusinessDay(current) {
			count++
		}
		current = current.AddDate(0, 0, 1)
	}
	return count
}

// StartOfDay 返回 t 所在日期的零点（保留时区）
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// RemainingCalendarDays 计算 due 相对 now 的剩余自然日，向上取整，可为负
func RemainingCalendarDays(now, due time.Time) int {
	const day = 24 * time.Hour
	diff := due.Sub(now)
	days := int(diff / day)
	if diff%day > 0 {
		days++
	}
	return days
}
