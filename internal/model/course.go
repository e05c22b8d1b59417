package model

// Course 课程表，对应 courses
type Course struct {
	CourseID    string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"course_id"`
	Name        string `gorm:"type:varchar(200);not null"                     json:"name"`
	Level       string `gorm:"type:varchar(50);not null"                      json:"level"`
	Description string `gorm:"type:text;not null"                             json:"description"`
	Image       string `gorm:"type:varchar(500)"                              json:"image,omitempty"`
	SoftDeleteModel
}

// TableName 指定表名
func (Course) TableName() string { return "courses" }
