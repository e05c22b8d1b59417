package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"lecture-scheduler/backend/internal/dto"
	"lecture-scheduler/backend/internal/scheduling"
	"lecture-scheduler/backend/internal/service"
	"lecture-scheduler/backend/pkg/response"
)

// LectureHandler 课节模块 HTTP 处理器
type LectureHandler struct {
	lectureSvc service.LectureService
}

// NewLectureHandler 创建 LectureHandler
func NewLectureHandler(lectureSvc service.LectureService) *LectureHandler {
	return &LectureHandler{lectureSvc: lectureSvc}
}

// CreateLecture 创建课节
// POST /api/lectures
func (h *LectureHandler) CreateLecture(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateLectureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "Invalid request body")
		return
	}

	lecture, err := h.lectureSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleLectureError(c, err)
		return
	}

	response.Created(c, lecture)
}

// ListLectures 课节列表（支持 course/instructor/status/from/to 过滤）
// GET /api/lectures
func (h *LectureHandler) ListLectures(c *gin.Context) {
	var req dto.LectureListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 14006, "Invalid filter: course and instructor must be IDs, status one of scheduled|completed|cancelled, dates YYYY-MM-DD")
		return
	}

	list, err := h.lectureSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleLectureError(c, err)
		return
	}
	response.OK(c, list)
}

// ListAssigned 已分配讲师的课节
// GET /api/lectures/assigned
func (h *LectureHandler) ListAssigned(c *gin.Context) {
	list, err := h.lectureSvc.ListAssigned(c.Request.Context())
	if err != nil {
		h.handleLectureError(c, err)
		return
	}
	response.OK(c, list)
}

// ListByCourse 某课程下的课节
// GET /api/lectures/course/:courseId
func (h *LectureHandler) ListByCourse(c *gin.Context) {
	list, err := h.lectureSvc.ListByCourse(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		h.handleLectureError(c, err)
		return
	}
	response.OK(c, list)
}

// GetLecture 课节详情
// GET /api/lectures/:id
func (h *LectureHandler) GetLecture(c *gin.Context) {
	lecture, err := h.lectureSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleLectureError(c, err)
		return
	}
	response.OK(c, lecture)
}

// UpdateLecture 部分更新课节
// PUT /api/lectures/:id
func (h *LectureHandler) UpdateLecture(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateLectureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "Invalid request body")
		return
	}

	lecture, err := h.lectureSvc.Update(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleLectureError(c, err)
		return
	}
	response.OK(c, lecture)
}

// AssignLecture 分配讲师与日期
// POST /api/lectures/:id/assign
func (h *LectureHandler) AssignLecture(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.AssignLectureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "Invalid request body")
		return
	}

	lecture, err := h.lectureSvc.Assign(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleLectureError(c, err)
		return
	}
	response.OK(c, lecture)
}

// DeleteLecture 删除课节
// DELETE /api/lectures/:id
func (h *LectureHandler) DeleteLecture(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.lectureSvc.Delete(c.Request.Context(), c.Param("id"), callerID); err != nil {
		h.handleLectureError(c, err)
		return
	}
	response.OKMessage(c, "Lecture deleted successfully")
}

// handleLectureError 将业务错误映射为 HTTP 响应，文案原样透出
func (h *LectureHandler) handleLectureError(c *gin.Context, err error) {
	var conflict *service.ConflictError
	if errors.As(err, &conflict) {
		response.ErrorWithData(c, http.StatusConflict, 14091, conflict.Error(), dto.LectureConflictResponse{
			Date:     conflict.Date.Format("2006-01-02"),
			Conflict: conflict.Conflict,
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrMissingLectureFields),
		errors.Is(err, service.ErrMissingAssignFields):
		response.BadRequest(c, 14001, err.Error())
	case errors.Is(err, service.ErrInvalidLectureID),
		errors.Is(err, service.ErrInvalidCourseID),
		errors.Is(err, service.ErrInvalidInstructorID):
		response.BadRequest(c, 14002, err.Error())
	case errors.Is(err, scheduling.ErrInvalidDate):
		response.BadRequest(c, 14003, err.Error())
	case errors.Is(err, scheduling.ErrPastDate):
		response.BadRequest(c, 14004, err.Error())
	case errors.Is(err, scheduling.ErrInvalidTiming):
		response.BadRequest(c, 14005, err.Error())
	case errors.Is(err, service.ErrInvalidLectureStatus),
		errors.Is(err, service.ErrInvalidLectureDateArg):
		response.BadRequest(c, 14006, err.Error())
	case errors.Is(err, service.ErrLectureNotFound):
		response.NotFound(c, 14041, err.Error())
	case errors.Is(err, service.ErrCourseNotFound):
		response.NotFound(c, 14042, err.Error())
	case errors.Is(err, service.ErrInstructorNotFound):
		response.NotFound(c, 14043, err.Error())
	case errors.Is(err, service.ErrLectureModified):
		response.Conflict(c, 14092, err.Error())
	case errors.Is(err, service.ErrInstructorSlotBusy):
		response.Conflict(c, 14093, err.Error())
	default:
		response.InternalError(c)
	}
}
