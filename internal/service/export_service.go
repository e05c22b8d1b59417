package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"lecture-scheduler/backend/internal/dto"
	"lecture-scheduler/backend/internal/repository"
	"lecture-scheduler/backend/internal/scheduling"
)

// ── 导出模块业务错误 ──

var ErrExportGenerateFail = errors.New("Failed to generate export file")

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportLectures 按列表过滤条件导出课节为 Excel
	ExportLectures(ctx context.Context, req *dto.LectureListRequest) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo      *repository.Repository
	validator *scheduling.Validator
	logger    *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, validator *scheduling.Validator, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, validator: validator, logger: logger}
}

var lectureSheetHeaders = []string{"Date", "Start", "End", "Course", "Level", "Instructor", "Email", "Batch", "Status"}

// ═══════════════════════════════════════════════════════════
// ExportLectures 导出课节表
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 单个 Sheet "Lectures"，第 1 行标题，第 2 行表头
//   - 数据按日期、开始时间升序
//   - 未分配讲师的课节讲师列为 "-"

func (s *exportService) ExportLectures(ctx context.Context, req *dto.LectureListRequest) (*bytes.Buffer, string, error) {
	filter, err := lectureFilterFrom(req, s.validator)
	if err != nil {
		return nil, "", err
	}

	lectures, err := s.repo.Lecture.List(ctx, filter)
	if err != nil {
		s.logger.Error("查询课节列表失败", zap.Error(err))
		return nil, "", err
	}
	rows := toLectureResponses(lectures, s.validator.Location())

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Lectures"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	// 列宽
	f.SetColWidth(sheetName, "A", "C", 12)
	f.SetColWidth(sheetName, "D", "D", 28)
	f.SetColWidth(sheetName, "E", "E", 14)
	f.SetColWidth(sheetName, "F", "G", 24)
	f.SetColWidth(sheetName, "H", "I", 14)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	exportedAt := s.validator.Now()
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("Lecture schedule (exported %s)", exportedAt.Format("2006-01-02 15:04")))
	f.MergeCell(sheetName, "A1", cell(colName(len(lectureSheetHeaders)-1), 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	for i, h := range lectureSheetHeaders {
		f.SetCellValue(sheetName, cell(colName(i), 2), h)
	}
	f.SetCellStyle(sheetName, "A2", cell(colName(len(lectureSheetHeaders)-1), 2), headerStyle)

	// 数据行
	row := 3
	for _, l := range rows {
		courseName, level := "-", "-"
		if l.Course != nil && l.Course.Name != "" {
			courseName, level = l.Course.Name, l.Course.Level
		}
		instructor, email := "-", "-"
		if l.Instructor != nil && l.Instructor.Name != "" {
			instructor, email = l.Instructor.Name, l.Instructor.Email
		}
		values := []interface{}{l.Date, l.StartTime, l.EndTime, courseName, level, instructor, email, l.BatchName, l.Status}
		for i, v := range values {
			f.SetCellValue(sheetName, cell(colName(i), row), v)
		}
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("lectures_%s.xlsx", exportedAt.Format("20060102"))
	return buf, filename, nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
