package scheduling

import "errors"

var (
	// ErrInvalidDate 日期无法解析
	ErrInvalidDate = errors.New("Invalid date provided")
	// ErrPastDate 日期早于今天
	ErrPastDate = errors.New("Lecture date cannot be in the past")
	// ErrInvalidTiming 所有时间段错误的公共分类，配合 errors.Is 使用
	ErrInvalidTiming = errors.New("invalid lecture timing")
)

// TimingError 时间段校验失败，errors.Is(err, ErrInvalidTiming) 为 true
type TimingError struct {
	Reason string
}

func (e *TimingError) Error() string { return e.Reason }

// Is 归类到 ErrInvalidTiming
func (e *TimingError) Is(target error) bool { return target == ErrInvalidTiming }

var (
	ErrInvalidTimeFormat = &TimingError{Reason: "Start time and end time must be in 24-hour HH:MM format"}
	ErrStartNotBeforeEnd = &TimingError{Reason: "Start time must be before end time"}
	ErrStartTimePassed   = &TimingError{Reason: "Start time has already passed for today"}
	ErrEndTimePassed     = &TimingError{Reason: "End time has already passed for today"}
)
