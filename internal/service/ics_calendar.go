package service

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"lecture-scheduler/backend/internal/model"
	"lecture-scheduler/backend/internal/scheduling"
)

// ── ICS 日历生成 ──────────────────────────────────────────────
//
// 将讲师的 scheduled 课节导出为 iCalendar (RFC 5545)：
//   - 每节课一个 VEVENT，UID 使用课节 ID，保证订阅端可增量更新
//   - DTSTART/DTEND 由课节日期 + HH:MM 在排课时区内组合
//   - 已取消/已完成课节不导出
// ─────────────────────────────────────────────────────────────

const icsProductID = "-//lecture-scheduler//instructor calendar//EN"

// buildLectureCalendar 生成 ICS 文本
func buildLectureCalendar(calName string, lectures []model.Lecture, loc *time.Location, now time.Time) (string, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(icsProductID)
	cal.SetXWRCalName(calName)
	cal.SetXWRTimezone(loc.String())

	for i := range lectures {
		l := &lectures[i]
		if !l.IsScheduled() {
			continue
		}

		start, end, err := lectureWindow(l, loc)
		if err != nil {
			return "", fmt.Errorf("课节 %s 时间无效: %w", l.LectureID, err)
		}

		evt := cal.AddEvent(l.LectureID + "@lecture-scheduler")
		evt.SetDtStampTime(now)
		evt.SetCreatedTime(l.CreatedAt)
		evt.SetModifiedAt(l.UpdatedAt)
		evt.SetStartAt(start)
		evt.SetEndAt(end)
		evt.SetSummary(lectureSummary(l))
		if l.Course != nil && l.Course.Description != "" {
			evt.SetDescription(l.Course.Description)
		}
	}

	return cal.Serialize(), nil
}

// lectureWindow 课节在排课时区内的起止时刻
func lectureWindow(l *model.Lecture, loc *time.Location) (time.Time, time.Time, error) {
	startMin, err := scheduling.ParseClock(l.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	endMin, err := scheduling.ParseClock(l.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	d := l.LectureDate.In(loc)
	at := func(min int) time.Time {
		return time.Date(d.Year(), d.Month(), d.Day(), min/60, min%60, 0, 0, loc)
	}
	return at(startMin), at(endMin), nil
}

func lectureSummary(l *model.Lecture) string {
	parts := make([]string, 0, 2)
	if l.Course != nil {
		parts = append(parts, l.Course.Name)
	}
	if l.BatchName != "" {
		parts = append(parts, l.BatchName)
	}
	if len(parts) == 0 {
		return "Lecture"
	}
	return strings.Join(parts, " · ")
}
