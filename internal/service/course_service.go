package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"lecture-scheduler/backend/internal/dto"
	"lecture-scheduler/backend/internal/model"
	"lecture-scheduler/backend/internal/repository"
)

// ── 课程模块业务错误 ──

var (
	ErrMissingCourseFields = errors.New("Name, level, and description are required")
	ErrCourseInUse         = errors.New("Course still has lectures and cannot be deleted")
)

// CourseService 课程业务接口
type CourseService interface {
	Create(ctx context.Context, req *dto.CreateCourseRequest, callerID string) (*dto.CourseResponse, error)
	GetByID(ctx context.Context, id string) (*dto.CourseResponse, error)
	List(ctx context.Context) ([]dto.CourseResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateCourseRequest, callerID string) (*dto.CourseResponse, error)
	Delete(ctx context.Context, id string, callerID string) error
}

type courseService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCourseService 创建 CourseService 实例
func NewCourseService(repo *repository.Repository, logger *zap.Logger) CourseService {
	return &courseService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *courseService) Create(ctx context.Context, req *dto.CreateCourseRequest, callerID string) (*dto.CourseResponse, error) {
	name := strings.TrimSpace(req.Name)
	level := strings.TrimSpace(req.Level)
	description := strings.TrimSpace(req.Description)
	if name == "" || level == "" || description == "" {
		return nil, ErrMissingCourseFields
	}

	course := &model.Course{
		Name:        name,
		Level:       level,
		Description: description,
		Image:       strings.TrimSpace(req.Image),
	}
	course.CreatedBy = &callerID
	course.UpdatedBy = &callerID

	if err := s.repo.Course.Create(ctx, course); err != nil {
		s.logger.Error("创建课程失败", zap.Error(err))
		return nil, err
	}

	resp := toCourseResponse(course)
	return &resp, nil
}

// ────────────────────── Query ──────────────────────

func (s *courseService) GetByID(ctx context.Context, id string) (*dto.CourseResponse, error) {
	course, err := s.loadCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toCourseResponse(course)
	return &resp, nil
}

func (s *courseService) List(ctx context.Context) ([]dto.CourseResponse, error) {
	courses, err := s.repo.Course.List(ctx)
	if err != nil {
		s.logger.Error("查询课程列表失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.CourseResponse, 0, len(courses))
	for i := range courses {
		result = append(result, toCourseResponse(&courses[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *courseService) Update(ctx context.Context, id string, req *dto.UpdateCourseRequest, callerID string) (*dto.CourseResponse, error) {
	course, err := s.loadCourse(ctx, id)
	if err != nil {
		return nil, err
	}

	if v := trimmed(req.Name); v != "" {
		course.Name = v
	}
	if v := trimmed(req.Level); v != "" {
		course.Level = v
	}
	if v := trimmed(req.Description); v != "" {
		course.Description = v
	}
	if req.Image != nil {
		course.Image = strings.TrimSpace(*req.Image)
	}
	course.UpdatedBy = &callerID
	course.UpdatedAt = time.Now()

	if err := s.repo.Course.Update(ctx, course); err != nil {
		s.logger.Error("更新课程失败", zap.String("course_id", id), zap.Error(err))
		return nil, err
	}

	resp := toCourseResponse(course)
	return &resp, nil
}

// ────────────────────── Delete ──────────────────────

func (s *courseService) Delete(ctx context.Context, id string, callerID string) error {
	if _, err := s.loadCourse(ctx, id); err != nil {
		return err
	}

	n, err := s.repo.Lecture.CountByCourse(ctx, id)
	if err != nil {
		s.logger.Error("统计课程课节失败", zap.String("course_id", id), zap.Error(err))
		return err
	}
	if n > 0 {
		return ErrCourseInUse
	}

	if err := s.repo.Course.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除课程失败", zap.String("course_id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *courseService) loadCourse(ctx context.Context, id string) (*model.Course, error) {
	if !isUUID(id) {
		return nil, ErrInvalidCourseID
	}
	course, err := s.repo.Course.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.String("course_id", id), zap.Error(err))
		return nil, err
	}
	return course, nil
}

func trimmed(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

func toCourseResponse(c *model.Course) dto.CourseResponse {
	return dto.CourseResponse{
		ID:          c.CourseID,
		Name:        c.Name,
		Level:       c.Level,
		Description: c.Description,
		Image:       c.Image,
		CreatedAt:   c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   c.UpdatedAt.Format(time.RFC3339),
	}
}
