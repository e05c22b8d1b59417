package model

import "time"

// 课程状态，仅 scheduled 参与冲突检测
const (
	LectureStatusScheduled = "scheduled"
	LectureStatusCompleted = "completed"
	LectureStatusCancelled = "cancelled"
)

// IsValidLectureStatus 校验状态取值
func IsValidLectureStatus(s string) bool {
	switch s {
	case LectureStatusScheduled, LectureStatusCompleted, LectureStatusCancelled:
		return true
	}
	return false
}

// Lecture 课节表，对应 lectures
type Lecture struct {
	LectureID    string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"lecture_id"`
	CourseID     string    `gorm:"type:uuid;not null"                             json:"course_id"`
	InstructorID *string   `gorm:"type:uuid"                                      json:"instructor_id,omitempty"`
	LectureDate  time.Time `gorm:"column:lecture_date;type:timestamptz;not null"  json:"lecture_date"` // 排课时区零点
	StartTime    string    `gorm:"type:varchar(5);not null"                       json:"start_time"`   // HH:MM
	EndTime      string    `gorm:"type:varchar(5);not null"                       json:"end_time"`     // HH:MM
	BatchName    string    `gorm:"type:varchar(100);not null;default:''"          json:"batch_name"`
	Status       string    `gorm:"type:varchar(20);not null;default:'scheduled'"  json:"status"` // scheduled | completed | cancelled
	VersionedModel

	// 关联
	Course     *Course `gorm:"foreignKey:CourseID;references:CourseID"   json:"course,omitempty"`
	Instructor *User   `gorm:"foreignKey:InstructorID;references:UserID" json:"instructor,omitempty"`
}

// TableName 指定表名
func (Lecture) TableName() string { return "lectures" }

// IsScheduled 是否处于已排课状态
func (l *Lecture) IsScheduled() bool { return l.Status == LectureStatusScheduled }
