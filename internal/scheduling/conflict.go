package scheduling

import (
	"context"
	"time"

	"lecture-scheduler/backend/internal/model"
)

// LectureFinder 冲突检测所需的查询能力
// 返回 [from, to) 内该讲师第一节 scheduled 课节（预加载课程与讲师），无则返回 nil, nil
type LectureFinder interface {
	FindScheduledConflict(ctx context.Context, instructorID string, from, to time.Time, excludeLectureID string) (*model.Lecture, error)
}

// ConflictChecker 同一讲师同一天的重复排课检测
//
// 这是"先读后写"的快速预检；最终一致性由数据库部分唯一索引保证
type ConflictChecker struct {
	finder    LectureFinder
	validator *Validator
}

// NewConflictChecker 创建冲突检测器
func NewConflictChecker(finder LectureFinder, validator *Validator) *ConflictChecker {
	return &ConflictChecker{finder: finder, validator: validator}
}

// Check 解析日期后检测冲突；返回冲突课节（可能为 nil）与截断后的日期
func (c *ConflictChecker) Check(ctx context.Context, instructorID, date, excludeLectureID string) (*model.Lecture, time.Time, error) {
	day, err := c.validator.NormalizeDate(date)
	if err != nil {
		return nil, time.Time{}, err
	}
	return c.CheckDay(ctx, instructorID, day, excludeLectureID)
}

// CheckDay 对已解析的日期检测冲突
func (c *ConflictChecker) CheckDay(ctx context.Context, instructorID string, day time.Time, excludeLectureID string) (*model.Lecture, time.Time, error) {
	start := c.validator.StartOfDay(day)
	end := start.AddDate(0, 0, 1)

	conflict, err := c.finder.FindScheduledConflict(ctx, instructorID, start, end, excludeLectureID)
	if err != nil {
		return nil, start, err
	}
	return conflict, start, nil
}

// FormatDisplayDate 冲突提示中使用的日期文本
func FormatDisplayDate(day time.Time) string {
	return day.Format(DisplayDateLayout)
}
