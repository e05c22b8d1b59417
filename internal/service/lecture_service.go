package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"lecture-scheduler/backend/internal/dto"
	"lecture-scheduler/backend/internal/model"
	"lecture-scheduler/backend/internal/repository"
	"lecture-scheduler/backend/internal/scheduling"
	pkgerrors "lecture-scheduler/backend/pkg/errors"
)

// SlotLocker 讲师-日期粒度的互斥锁（Redis 实现见 pkg/redis）
type SlotLocker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	ReleaseLock(ctx context.Context, key, token string) error
}

// LectureService 课节排课业务接口
type LectureService interface {
	Create(ctx context.Context, req *dto.CreateLectureRequest, callerID string) (*dto.LectureResponse, error)
	GetByID(ctx context.Context, id string) (*dto.LectureResponse, error)
	List(ctx context.Context, req *dto.LectureListRequest) ([]dto.LectureResponse, error)
	ListByCourse(ctx context.Context, courseID string) ([]dto.LectureResponse, error)
	ListAssigned(ctx context.Context) ([]dto.LectureResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateLectureRequest, callerID string) (*dto.LectureResponse, error)
	Assign(ctx context.Context, id string, req *dto.AssignLectureRequest, callerID string) (*dto.LectureResponse, error)
	Delete(ctx context.Context, id string, callerID string) error
}

type lectureService struct {
	repo      *repository.Repository
	validator *scheduling.Validator
	checker   *scheduling.ConflictChecker
	locker    SlotLocker
	lockTTL   time.Duration
	logger    *zap.Logger
}

// NewLectureService 创建 LectureService 实例；locker 为空时不加锁，仅依赖数据库唯一索引
func NewLectureService(
	repo *repository.Repository,
	validator *scheduling.Validator,
	locker SlotLocker,
	lockTTL time.Duration,
	logger *zap.Logger,
) LectureService {
	if lockTTL <= 0 {
		lockTTL = 10 * time.Second
	}
	return &lectureService{
		repo:      repo,
		validator: validator,
		checker:   scheduling.NewConflictChecker(repo.Lecture, validator),
		locker:    locker,
		lockTTL:   lockTTL,
		logger:    logger,
	}
}

// ────────────────────── Create ──────────────────────

func (s *lectureService) Create(ctx context.Context, req *dto.CreateLectureRequest, callerID string) (*dto.LectureResponse, error) {
	// 1. 必填字段
	courseID := strings.TrimSpace(req.Course)
	instructorID := strings.TrimSpace(req.Instructor)
	if courseID == "" || instructorID == "" || strings.TrimSpace(req.Date) == "" ||
		req.StartTime == "" || req.EndTime == "" {
		return nil, ErrMissingLectureFields
	}

	// 2. 引用存在性
	if err := s.ensureCourse(ctx, courseID); err != nil {
		return nil, err
	}
	if err := s.ensureInstructor(ctx, instructorID); err != nil {
		return nil, err
	}

	// 3. 时间合法性
	isPast, day, err := s.validator.IsPastDate(req.Date)
	if err != nil {
		return nil, err
	}
	if isPast {
		return nil, scheduling.ErrPastDate
	}
	if err := s.validator.ValidateTimingsOn(day, req.StartTime, req.EndTime); err != nil {
		return nil, err
	}

	lecture := &model.Lecture{
		CourseID:     courseID,
		InstructorID: &instructorID,
		LectureDate:  day,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		BatchName:    strings.TrimSpace(req.BatchName),
		Status:       model.LectureStatusScheduled,
	}
	lecture.CreatedBy = &callerID
	lecture.UpdatedBy = &callerID

	// 4-5. 冲突检测 + 写入
	err = s.withSlotLock(ctx, instructorID, day, func() error {
		if err := s.checkConflict(ctx, instructorID, day, ""); err != nil {
			return err
		}
		if err := s.repo.Lecture.Create(ctx, lecture); err != nil {
			if pkgerrors.IsUniqueViolation(err, repository.LectureUniqueDayIndex) {
				return s.conflictAfterRace(ctx, instructorID, day, "")
			}
			s.logger.Error("创建课节失败", zap.Error(err))
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("课节已创建",
		zap.String("lecture_id", lecture.LectureID),
		zap.String("instructor_id", instructorID),
		zap.Time("date", day),
	)

	// 6. 回读展示字段
	return s.GetByID(ctx, lecture.LectureID)
}

// ────────────────────── GetByID ──────────────────────

func (s *lectureService) GetByID(ctx context.Context, id string) (*dto.LectureResponse, error) {
	lecture, err := s.loadLecture(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toLectureResponse(lecture, s.validator.Location())
	return &resp, nil
}

// ────────────────────── List ──────────────────────

func (s *lectureService) List(ctx context.Context, req *dto.LectureListRequest) ([]dto.LectureResponse, error) {
	filter, err := lectureFilterFrom(req, s.validator)
	if err != nil {
		return nil, err
	}
	return s.listLectures(ctx, filter)
}

func (s *lectureService) ListByCourse(ctx context.Context, courseID string) ([]dto.LectureResponse, error) {
	if err := s.ensureCourse(ctx, courseID); err != nil {
		return nil, err
	}
	return s.listLectures(ctx, repository.LectureFilter{CourseID: courseID})
}

func (s *lectureService) ListAssigned(ctx context.Context) ([]dto.LectureResponse, error) {
	return s.listLectures(ctx, repository.LectureFilter{AssignedOnly: true})
}

func (s *lectureService) listLectures(ctx context.Context, filter repository.LectureFilter) ([]dto.LectureResponse, error) {
	lectures, err := s.repo.Lecture.List(ctx, filter)
	if err != nil {
		s.logger.Error("查询课节列表失败", zap.Error(err))
		return nil, err
	}
	return toLectureResponses(lectures, s.validator.Location()), nil
}

// lectureFilterFrom to 为闭区间，转换为次日零点的开区间
func lectureFilterFrom(req *dto.LectureListRequest, v *scheduling.Validator) (repository.LectureFilter, error) {
	filter := repository.LectureFilter{
		CourseID:     req.Course,
		InstructorID: req.Instructor,
		Status:       req.Status,
	}
	if req.Status != "" && !model.IsValidLectureStatus(req.Status) {
		return filter, ErrInvalidLectureStatus
	}
	if req.From != "" {
		from, err := v.NormalizeDate(req.From)
		if err != nil {
			return filter, ErrInvalidLectureDateArg
		}
		filter.From = &from
	}
	if req.To != "" {
		to, err := v.NormalizeDate(req.To)
		if err != nil {
			return filter, ErrInvalidLectureDateArg
		}
		next := to.AddDate(0, 0, 1)
		filter.To = &next
	}
	return filter, nil
}

// ────────────────────── Update ──────────────────────

func (s *lectureService) Update(ctx context.Context, id string, req *dto.UpdateLectureRequest, callerID string) (*dto.LectureResponse, error) {
	lecture, err := s.loadLecture(ctx, id)
	if err != nil {
		return nil, err
	}

	// 1. 合并出生效值；空字符串视为未提供
	temporalTouched := false

	if courseID, ok := presentString(req.Course); ok {
		if err := s.ensureCourse(ctx, courseID); err != nil {
			return nil, err
		}
		lecture.CourseID = courseID
	}

	if req.Instructor.Set && req.Instructor.Null {
		lecture.InstructorID = nil
	} else if instructorID, ok := presentString(req.Instructor); ok {
		if err := s.ensureInstructor(ctx, instructorID); err != nil {
			return nil, err
		}
		lecture.InstructorID = &instructorID
		temporalTouched = true
	}

	if date, ok := presentString(req.Date); ok {
		day, err := s.validator.NormalizeDate(date)
		if err != nil {
			return nil, err
		}
		lecture.LectureDate = day
		temporalTouched = true
	}
	if start, ok := presentString(req.StartTime); ok {
		lecture.StartTime = start
		temporalTouched = true
	}
	if end, ok := presentString(req.EndTime); ok {
		lecture.EndTime = end
		temporalTouched = true
	}

	// batchName 显式空字符串或 null 均表示清空
	if req.BatchName.Set {
		lecture.BatchName = strings.TrimSpace(req.BatchName.Value)
	}

	if status, ok := presentString(req.Status); ok {
		if !model.IsValidLectureStatus(status) {
			return nil, ErrInvalidLectureStatus
		}
		// 重新进入 scheduled 视同重新排课，需校验日期与时间
		if status == model.LectureStatusScheduled && !lecture.IsScheduled() {
			temporalTouched = true
		}
		lecture.Status = status
	}

	// 2. 时间合法性（仅当时间相关字段或讲师变更时）
	if temporalTouched {
		if s.validator.IsPastDay(lecture.LectureDate) {
			return nil, scheduling.ErrPastDate
		}
		if err := s.validator.ValidateTimingsOn(lecture.LectureDate, lecture.StartTime, lecture.EndTime); err != nil {
			return nil, err
		}
	}

	// 3. 冲突检测 + CAS 写入
	if err := s.saveLecture(ctx, lecture, callerID); err != nil {
		return nil, err
	}

	s.logger.Info("课节已更新",
		zap.String("lecture_id", lecture.LectureID),
		zap.String("status", lecture.Status),
		zap.Int("version", lecture.Version),
	)

	return s.GetByID(ctx, lecture.LectureID)
}

// ────────────────────── Assign ──────────────────────

func (s *lectureService) Assign(ctx context.Context, id string, req *dto.AssignLectureRequest, callerID string) (*dto.LectureResponse, error) {
	instructorID := strings.TrimSpace(req.InstructorID)
	if instructorID == "" || strings.TrimSpace(req.Date) == "" {
		return nil, ErrMissingAssignFields
	}

	lecture, err := s.loadLecture(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureInstructor(ctx, instructorID); err != nil {
		return nil, err
	}

	isPast, day, err := s.validator.IsPastDate(req.Date)
	if err != nil {
		return nil, err
	}
	if isPast {
		return nil, scheduling.ErrPastDate
	}
	if err := s.validator.ValidateTimingsOn(day, lecture.StartTime, lecture.EndTime); err != nil {
		return nil, err
	}

	lecture.InstructorID = &instructorID
	lecture.LectureDate = day

	if err := s.saveLecture(ctx, lecture, callerID); err != nil {
		return nil, err
	}

	s.logger.Info("课节已分配讲师",
		zap.String("lecture_id", lecture.LectureID),
		zap.String("instructor_id", instructorID),
		zap.Time("date", day),
	)

	return s.GetByID(ctx, lecture.LectureID)
}

// ────────────────────── Delete ──────────────────────

func (s *lectureService) Delete(ctx context.Context, id string, callerID string) error {
	if _, err := s.loadLecture(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Lecture.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除课节失败", zap.String("lecture_id", id), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部辅助 ──

// saveLecture 对生效值做冲突检测并以乐观锁写入
// 仅 scheduled 且已分配讲师的课节参与冲突检测
func (s *lectureService) saveLecture(ctx context.Context, lecture *model.Lecture, callerID string) error {
	lecture.UpdatedBy = &callerID
	lecture.UpdatedAt = s.validator.Now()

	write := func() error {
		if err := s.repo.Lecture.Update(ctx, lecture); err != nil {
			switch {
			case errors.Is(err, pkgerrors.ErrOptimisticLock):
				return ErrLectureModified
			case pkgerrors.IsUniqueViolation(err, repository.LectureUniqueDayIndex):
				return s.conflictAfterRace(ctx, *lecture.InstructorID, lecture.LectureDate, lecture.LectureID)
			}
			s.logger.Error("更新课节失败", zap.String("lecture_id", lecture.LectureID), zap.Error(err))
			return err
		}
		return nil
	}

	if !lecture.IsScheduled() || lecture.InstructorID == nil {
		return write()
	}

	instructorID := *lecture.InstructorID
	return s.withSlotLock(ctx, instructorID, lecture.LectureDate, func() error {
		if err := s.checkConflict(ctx, instructorID, lecture.LectureDate, lecture.LectureID); err != nil {
			return err
		}
		return write()
	})
}

// checkConflict 命中时返回 *ConflictError
func (s *lectureService) checkConflict(ctx context.Context, instructorID string, day time.Time, excludeID string) error {
	conflict, normalized, err := s.checker.CheckDay(ctx, instructorID, day, excludeID)
	if err != nil {
		s.logger.Error("冲突检测失败", zap.String("instructor_id", instructorID), zap.Error(err))
		return err
	}
	if conflict == nil {
		return nil
	}
	resp := toLectureResponse(conflict, s.validator.Location())
	return &ConflictError{Date: normalized, Conflict: &resp}
}

// conflictAfterRace 预检通过但被唯一索引拦截：重新读取冲突记录
func (s *lectureService) conflictAfterRace(ctx context.Context, instructorID string, day time.Time, excludeID string) error {
	s.logger.Warn("唯一索引拦截重复排课",
		zap.String("instructor_id", instructorID),
		zap.Time("date", day),
	)
	if err := s.checkConflict(ctx, instructorID, day, excludeID); err != nil {
		return err
	}
	return &ConflictError{Date: s.validator.StartOfDay(day)}
}

// withSlotLock 在讲师-日期锁内执行 fn；Redis 异常时降级为无锁
func (s *lectureService) withSlotLock(ctx context.Context, instructorID string, day time.Time, fn func() error) error {
	if s.locker == nil {
		return fn()
	}

	key := fmt.Sprintf("lecture:%s:%s", instructorID, day.In(s.validator.Location()).Format("2006-01-02"))
	token, ok, err := s.locker.AcquireLock(ctx, key, s.lockTTL)
	if err != nil {
		s.logger.Warn("获取排课锁失败，降级为无锁执行", zap.String("key", key), zap.Error(err))
		return fn()
	}
	if !ok {
		return ErrInstructorSlotBusy
	}
	defer func() {
		_ = s.locker.ReleaseLock(context.WithoutCancel(ctx), key, token)
	}()

	return fn()
}

func (s *lectureService) loadLecture(ctx context.Context, id string) (*model.Lecture, error) {
	if !isUUID(id) {
		return nil, ErrInvalidLectureID
	}
	lecture, err := s.repo.Lecture.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLectureNotFound
		}
		s.logger.Error("查询课节失败", zap.String("lecture_id", id), zap.Error(err))
		return nil, err
	}
	return lecture, nil
}

func (s *lectureService) ensureCourse(ctx context.Context, courseID string) error {
	if !isUUID(courseID) {
		return ErrInvalidCourseID
	}
	if _, err := s.repo.Course.GetByID(ctx, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.String("course_id", courseID), zap.Error(err))
		return err
	}
	return nil
}

func (s *lectureService) ensureInstructor(ctx context.Context, instructorID string) error {
	if !isUUID(instructorID) {
		return ErrInvalidInstructorID
	}
	if _, err := s.repo.User.GetByIDAndRole(ctx, instructorID, model.RoleInstructor); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInstructorNotFound
		}
		s.logger.Error("查询讲师失败", zap.String("instructor_id", instructorID), zap.Error(err))
		return err
	}
	return nil
}

// presentString 非 null 且去空白后非空才视为已提供
func presentString(o dto.Optional[string]) (string, bool) {
	v, ok := o.Get()
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// ── 模型 → DTO ──

func toLectureResponse(l *model.Lecture, loc *time.Location) dto.LectureResponse {
	resp := dto.LectureResponse{
		ID:        l.LectureID,
		Date:      l.LectureDate.In(loc).Format("2006-01-02"),
		StartTime: l.StartTime,
		EndTime:   l.EndTime,
		BatchName: l.BatchName,
		Status:    l.Status,
		Version:   l.Version,
		CreatedAt: l.CreatedAt.Format(time.RFC3339),
		UpdatedAt: l.UpdatedAt.Format(time.RFC3339),
	}
	if l.Course != nil {
		resp.Course = &dto.CourseBrief{
			ID:          l.Course.CourseID,
			Name:        l.Course.Name,
			Level:       l.Course.Level,
			Description: l.Course.Description,
			Image:       l.Course.Image,
		}
	} else {
		resp.Course = &dto.CourseBrief{ID: l.CourseID}
	}
	if l.Instructor != nil {
		resp.Instructor = &dto.InstructorBrief{
			ID:    l.Instructor.UserID,
			Name:  l.Instructor.Name,
			Email: l.Instructor.Email,
		}
	} else if l.InstructorID != nil {
		resp.Instructor = &dto.InstructorBrief{ID: *l.InstructorID}
	}
	return resp
}

func toLectureResponses(lectures []model.Lecture, loc *time.Location) []dto.LectureResponse {
	result := make([]dto.LectureResponse, 0, len(lectures))
	for i := range lectures {
		result = append(result, toLectureResponse(&lectures[i], loc))
	}
	return result
}
