package scheduling

import "time"

// Clock 时间源，校验逻辑通过它获取"现在"，便于测试注入固定时间
type Clock interface {
	Now() time.Time
}

// ClockFunc 函数适配为 Clock
type ClockFunc func() time.Time

// Now 实现 Clock
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock 系统墙钟
var SystemClock Clock = ClockFunc(time.Now)

// FixedClock 返回恒定时间的时钟
func FixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}
