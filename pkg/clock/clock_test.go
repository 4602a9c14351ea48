package clock

import (
	"testing"
	"time"
)

// 2026-03-02 为周一
func day(d int) time.Time {
	return time.Date(2026, 3, d, 10, 30, 0, 0, time.UTC)
}

func TestAddBusinessDays(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		n     int
		want  time.Time
	}{
		{"周五加1天为下周一", day(6), 1, day(9)},
		{"周一加5天为下周一", day(2), 5, day(9)},
		{"周一加4天为周五", day(2), 4, day(6)},
		{"周六加1天为周一", day(7), 1, day(9)},
		{"周日加1天为周一", day(8), 1, day(9)},
		{"加0天原样返回", day(4), 0, day(4)},
		{"周三加15天跨三个周末", day(4), 15, day(25)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AddBusinessDays(tt.start, tt.n)
			if !got.Equal(tt.want) {
				t.Errorf("AddBusinessDays(%s, %d) = %s，期望 %s", tt.start.Weekday(), tt.n, got, tt.want)
			}
		})
	}
}

func TestAddCalendarDays(t *testing.T) {
	got := AddCalendarDays(day(2), 30)
	want := time.Date(2026, 4, 1, 10, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("期望 %s，实际 %s", want, got)
	}
	if got := AddCalendarDays(day(2), -1); !got.Equal(time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)) {
		t.Errorf("负数天数应向前推算，实际 %s", got)
	}
}

func TestCountBusinessDaysBetween(t *testing.T) {
	tests := []struct {
		name       string
		start, end time.Time
		want       int
	}{
		{"同周周一到周五", day(2), day(6), 4},
		{"同一天", day(4), day(4), 0},
		{"同一天不同时刻", day(4), day(4).Add(5 * time.Hour), 0},
		{"结束早于开始", day(6), day(2), 0},
		{"周五到下周一", day(6), day(9), 1},
		{"周六到下周一", day(7), day(9), 0},
		{"跨两周", day(2), day(16), 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CountBusinessDaysBetween(tt.start, tt.end); got != tt.want {
				t.Errorf("CountBusinessDaysBetween = %d，期望 %d", got, tt.want)
			}
		})
	}
}

func TestCountBusinessDaysBetween_NormalizesToMidnight(t *testing.T) {
	start := time.Date(2026, 3, 2, 23, 59, 0, 0, time.UTC)
	end := time.Date(2026, 3, 3, 0, 1, 0, 0, time.UTC)
	if got := CountBusinessDaysBetween(start, end); got != 1 {
		t.Errorf("期望归一到零点后计为 1，实际 %d", got)
	}
}

func TestRemainingCalendarDays(t *testing.T) {
	now := day(2)
	tests := []struct {
		name string
		due  time.Time
		want int
	}{
		{"整一天", now.Add(24 * time.Hour), 1},
		{"一天半向上取整", now.Add(36 * time.Hour), 2},
		{"不足一天", now.Add(time.Hour), 1},
		{"恰好到期", now, 0},
		{"已过期一天半", now.Add(-36 * time.Hour), -1},
		{"已过期两天", now.Add(-48 * time.Hour), -2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RemainingCalendarDays(now, tt.due); got != tt.want {
				t.Errorf("RemainingCalendarDays = %d，期望 %d", got, tt.want)
			}
		})
	}
}

func TestFixedClock(t *testing.T) {
	c := &Fixed{T: day(2)}
	c.Advance(48 * time.Hour)
	if !c.Now().Equal(day(4)) {
		t.Errorf("Advance 后期望 %s，实际 %s", day(4), c.Now())
	}
	var _ Clock = Real{}
}
