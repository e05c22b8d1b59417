package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"lecture-scheduler/backend/internal/dto"
	"lecture-scheduler/backend/internal/service"
	"lecture-scheduler/backend/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportLectures 导出课节表，过滤参数与列表一致
// GET /api/lectures/export?status=scheduled&from=2026-03-01
func (h *ExportHandler) ExportLectures(c *gin.Context) {
	var req dto.LectureListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 16001, "Invalid export filter")
		return
	}

	buf, filename, err := h.exportSvc.ExportLectures(c.Request.Context(), &req)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	// 设置下载响应头
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidLectureStatus),
		errors.Is(err, service.ErrInvalidLectureDateArg):
		response.BadRequest(c, 16001, err.Error())
	default:
		response.InternalError(c)
	}
}
