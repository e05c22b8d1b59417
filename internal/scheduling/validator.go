package scheduling

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// hhmmPattern 严格 24 小时制 HH:MM
var hhmmPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])$`)

// dateLayouts 接受的日期输入格式；带时区偏移的输入会先换算到排课时区再截断
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// DisplayDateLayout 冲突提示中的日期格式，如 "Mon Oct 19 2026"
const DisplayDateLayout = "Mon Jan 02 2006"

// Validator 课节日期与时间段的纯校验，不访问存储
type Validator struct {
	clock Clock
	loc   *time.Location
}

// NewValidator 创建校验器；clock/loc 为空时使用系统时钟与本地时区
func NewValidator(clock Clock, loc *time.Location) *Validator {
	if clock == nil {
		clock = SystemClock
	}
	if loc == nil {
		loc = time.Local
	}
	return &Validator{clock: clock, loc: loc}
}

// Location 排课时区
func (v *Validator) Location() *time.Location { return v.loc }

// Now 当前时间（排课时区）
func (v *Validator) Now() time.Time { return v.clock.Now().In(v.loc) }

// StartOfDay 截断到排课时区当天零点，幂等
func (v *Validator) StartOfDay(t time.Time) time.Time {
	t = t.In(v.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, v.loc)
}

// Today 今天零点，每次调用重新读取时钟
func (v *Validator) Today() time.Time { return v.StartOfDay(v.clock.Now()) }

// NormalizeDate 解析日期输入并截断到零点
func (v *Validator) NormalizeDate(input string) (time.Time, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, v.loc); err == nil {
			return v.StartOfDay(t), nil
		}
	}
	return time.Time{}, ErrInvalidDate
}

// IsPastDate 判断日期是否严格早于今天，同时返回截断后的日期
func (v *Validator) IsPastDate(input string) (bool, time.Time, error) {
	day, err := v.NormalizeDate(input)
	if err != nil {
		return false, time.Time{}, err
	}
	return v.IsPastDay(day), day, nil
}

// IsPastDay 与 IsPastDate 相同，但接收已解析的时间
func (v *Validator) IsPastDay(day time.Time) bool {
	return v.StartOfDay(day).Before(v.Today())
}

// ParseClock 将 HH:MM 转为当天的分钟数
func ParseClock(s string) (int, error) {
	m := hhmmPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, ErrInvalidTimeFormat
	}
	h, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	return h*60 + mm, nil
}

// ValidateTimings 校验 (date, start, end)：
// 格式 → start < end → 日期可解析 → 若为今天，开始/结束时间不得已过
func (v *Validator) ValidateTimings(date, startTime, endTime string) error {
	startMin, endMin, err := parseRange(startTime, endTime)
	if err != nil {
		return err
	}
	day, err := v.NormalizeDate(date)
	if err != nil {
		return err
	}
	return v.checkSameDay(day, startMin, endMin)
}

// ValidateTimingsOn 同 ValidateTimings，日期已解析（如沿用已有记录的日期）
func (v *Validator) ValidateTimingsOn(day time.Time, startTime, endTime string) error {
	startMin, endMin, err := parseRange(startTime, endTime)
	if err != nil {
		return err
	}
	return v.checkSameDay(v.StartOfDay(day), startMin, endMin)
}

func parseRange(startTime, endTime string) (int, int, error) {
	startMin, err := ParseClock(startTime)
	if err != nil {
		return 0, 0, err
	}
	endMin, err := ParseClock(endTime)
	if err != nil {
		return 0, 0, err
	}
	if startMin >= endMin {
		return 0, 0, ErrStartNotBeforeEnd
	}
	return startMin, endMin, nil
}

// checkSameDay 仅对今天生效；now 在一次调用内只采样一次
func (v *Validator) checkSameDay(day time.Time, startMin, endMin int) error {
	now := v.Now()
	if !day.Equal(v.StartOfDay(now)) {
		return nil
	}
	nowMin := now.Hour()*60 + now.Minute()
	if startMin < nowMin {
		return ErrStartTimePassed
	}
	if endMin <= nowMin {
		return ErrEndTimePassed
	}
	return nil
}
