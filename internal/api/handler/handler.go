package handler

import "lecture-scheduler/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth       *AuthHandler
	Course     *CourseHandler
	Lecture    *LectureHandler
	Instructor *InstructorHandler
	Export     *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:       NewAuthHandler(svc.Auth),
		Course:     NewCourseHandler(svc.Course),
		Lecture:    NewLectureHandler(svc.Lecture),
		Instructor: NewInstructorHandler(svc.Instructor),
		Export:     NewExportHandler(svc.Export),
	}
}
