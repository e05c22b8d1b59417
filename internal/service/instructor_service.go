package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"lecture-scheduler/backend/internal/dto"
	"lecture-scheduler/backend/internal/model"
	"lecture-scheduler/backend/internal/repository"
	"lecture-scheduler/backend/internal/scheduling"
)

// InstructorService 讲师视图业务接口
type InstructorService interface {
	List(ctx context.Context) ([]dto.UserResponse, error)
	// Schedule 管理员查看某讲师的全部课节
	Schedule(ctx context.Context, instructorID string) (*dto.InstructorScheduleResponse, error)
	// MyLectures 讲师查看本人课节，按日期排序
	MyLectures(ctx context.Context, userID string) ([]dto.LectureResponse, error)
	// MyCalendar 本人 scheduled 课节的 ICS 文本
	MyCalendar(ctx context.Context, userID string) ([]byte, error)
}

type instructorService struct {
	repo      *repository.Repository
	validator *scheduling.Validator
	logger    *zap.Logger
}

// NewInstructorService 创建 InstructorService 实例
func NewInstructorService(repo *repository.Repository, validator *scheduling.Validator, logger *zap.Logger) InstructorService {
	return &instructorService{repo: repo, validator: validator, logger: logger}
}

func (s *instructorService) List(ctx context.Context) ([]dto.UserResponse, error) {
	users, err := s.repo.User.ListByRole(ctx, model.RoleInstructor)
	if err != nil {
		s.logger.Error("查询讲师列表失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		result = append(result, toUserResponse(&users[i]))
	}
	return result, nil
}

func (s *instructorService) Schedule(ctx context.Context, instructorID string) (*dto.InstructorScheduleResponse, error) {
	if !isUUID(instructorID) {
		return nil, ErrInvalidInstructorID
	}
	instructor, err := s.repo.User.GetByIDAndRole(ctx, instructorID, model.RoleInstructor)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInstructorNotFound
		}
		s.logger.Error("查询讲师失败", zap.String("instructor_id", instructorID), zap.Error(err))
		return nil, err
	}

	lectures, err := s.lecturesOf(ctx, instructorID)
	if err != nil {
		return nil, err
	}

	return &dto.InstructorScheduleResponse{
		Instructor: toUserResponse(instructor),
		Lectures:   toLectureResponses(lectures, s.validator.Location()),
	}, nil
}

func (s *instructorService) MyLectures(ctx context.Context, userID string) ([]dto.LectureResponse, error) {
	lectures, err := s.lecturesOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toLectureResponses(lectures, s.validator.Location()), nil
}

func (s *instructorService) MyCalendar(ctx context.Context, userID string) ([]byte, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	lectures, err := s.lecturesOf(ctx, userID)
	if err != nil {
		return nil, err
	}

	out, err := buildLectureCalendar(user.Name+" lectures", lectures, s.validator.Location(), s.validator.Now())
	if err != nil {
		s.logger.Error("生成 ICS 失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return []byte(out), nil
}

func (s *instructorService) lecturesOf(ctx context.Context, instructorID string) ([]model.Lecture, error) {
	lectures, err := s.repo.Lecture.List(ctx, repository.LectureFilter{InstructorID: instructorID})
	if err != nil {
		s.logger.Error("查询讲师课节失败", zap.String("instructor_id", instructorID), zap.Error(err))
		return nil, err
	}
	return lectures, nil
}
