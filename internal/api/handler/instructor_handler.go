package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"lecture-scheduler/backend/internal/service"
	"lecture-scheduler/backend/pkg/response"
)

// InstructorHandler 讲师视图 HTTP 处理器
type InstructorHandler struct {
	instructorSvc service.InstructorService
}

// NewInstructorHandler 创建 InstructorHandler
func NewInstructorHandler(instructorSvc service.InstructorService) *InstructorHandler {
	return &InstructorHandler{instructorSvc: instructorSvc}
}

// ListInstructors 讲师列表
// GET /api/admin/instructors
func (h *InstructorHandler) ListInstructors(c *gin.Context) {
	list, err := h.instructorSvc.List(c.Request.Context())
	if err != nil {
		h.handleInstructorError(c, err)
		return
	}
	response.OK(c, list)
}

// GetSchedule 某讲师的全部课节
// GET /api/instructors/:id/schedule
func (h *InstructorHandler) GetSchedule(c *gin.Context) {
	schedule, err := h.instructorSvc.Schedule(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleInstructorError(c, err)
		return
	}
	response.OK(c, schedule)
}

// MyLectures 当前讲师的课节
// GET /api/instructors/me/lectures
func (h *InstructorHandler) MyLectures(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, err := h.instructorSvc.MyLectures(c.Request.Context(), userID)
	if err != nil {
		h.handleInstructorError(c, err)
		return
	}
	response.OK(c, list)
}

// MyCalendar 当前讲师的 ICS 日历订阅
// GET /api/instructors/me/lectures.ics
func (h *InstructorHandler) MyCalendar(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	data, err := h.instructorSvc.MyCalendar(c.Request.Context(), userID)
	if err != nil {
		h.handleInstructorError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="lectures.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", data)
}

func (h *InstructorHandler) handleInstructorError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInstructorID):
		response.BadRequest(c, 15001, err.Error())
	case errors.Is(err, service.ErrInstructorNotFound),
		errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 15041, err.Error())
	default:
		response.InternalError(c)
	}
}
