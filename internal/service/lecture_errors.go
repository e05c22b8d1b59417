package service

import (
	"errors"
	"time"

	"lecture-scheduler/backend/internal/dto"
	"lecture-scheduler/backend/internal/scheduling"
)

// ── 课节模块业务错误 ──
// 文案直接返回给调用方

var (
	ErrMissingLectureFields  = errors.New("Course, instructor, date, start time, and end time are required")
	ErrMissingAssignFields   = errors.New("Instructor ID and date are required")
	ErrInvalidLectureID      = errors.New("Invalid lecture ID")
	ErrInvalidCourseID       = errors.New("Invalid course ID")
	ErrInvalidInstructorID   = errors.New("Invalid instructor ID")
	ErrLectureNotFound       = errors.New("Lecture not found")
	ErrCourseNotFound        = errors.New("Course not found")
	ErrInstructorNotFound    = errors.New("Instructor not found")
	ErrInvalidLectureStatus  = errors.New("Status must be one of scheduled, completed, cancelled")
	ErrLectureModified       = errors.New("Lecture was modified by another request, please reload and retry")
	ErrInstructorSlotBusy    = errors.New("Another change for this instructor and date is in progress, please retry")
	ErrInvalidLectureDateArg = errors.New("Invalid date filter")
)

// ConflictError 讲师当天已有 scheduled 课节
// Conflict 可能为空（唯一索引拦截后冲突记录已被并发删除）
type ConflictError struct {
	Date     time.Time
	Conflict *dto.LectureResponse
}

func (e *ConflictError) Error() string {
	return "Instructor already has a lecture scheduled on " + scheduling.FormatDisplayDate(e.Date)
}
