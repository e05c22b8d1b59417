package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"lecture-scheduler/backend/internal/model"
	pkgerrors "lecture-scheduler/backend/pkg/errors"
)

// LectureUniqueDayIndex 同一讲师同一天仅一节 scheduled 课节的部分唯一索引
const LectureUniqueDayIndex = "uq_lectures_instructor_day"

// LectureFilter 课节列表过滤条件
type LectureFilter struct {
	CourseID     string
	InstructorID string
	Status       string
	AssignedOnly bool
	From         *time.Time // 含
	To           *time.Time // 不含
}

// LectureRepository 课节数据访问接口
type LectureRepository interface {
	Create(ctx context.Context, lecture *model.Lecture) error
	GetByID(ctx context.Context, id string) (*model.Lecture, error)
	List(ctx context.Context, filter LectureFilter) ([]model.Lecture, error)
	Update(ctx context.Context, lecture *model.Lecture) error
	Delete(ctx context.Context, id string, deletedBy string) error
	CountByCourse(ctx context.Context, courseID string) (int64, error)
	// FindScheduledConflict 查找 [from, to) 内该讲师的 scheduled 课节，无则返回 nil, nil
	FindScheduledConflict(ctx context.Context, instructorID string, from, to time.Time, excludeLectureID string) (*model.Lecture, error)
	// CompleteFinished 将今天之前、或今天且已结束的 scheduled 课节标记为 completed
	CompleteFinished(ctx context.Context, today time.Time, nowClock string) (int64, error)
}

type lectureRepo struct {
	db *gorm.DB
}

// NewLectureRepo 创建 LectureRepository 实例
func NewLectureRepo(db *gorm.DB) LectureRepository {
	return &lectureRepo{db: db}
}

// withDisplay 预加载课程与讲师的展示字段
func withDisplay(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Course").
		Preload("Instructor", func(tx *gorm.DB) *gorm.DB {
			return tx.Select("user_id", "name", "email", "role")
		})
}

func (r *lectureRepo) Create(ctx context.Context, lecture *model.Lecture) error {
	return r.db.WithContext(ctx).Omit("Course", "Instructor").Create(lecture).Error
}

func (r *lectureRepo) GetByID(ctx context.Context, id string) (*model.Lecture, error) {
	var lecture model.Lecture
	err := withDisplay(r.db.WithContext(ctx)).
		Where("lecture_id = ?", id).
		First(&lecture).Error
	if err != nil {
		return nil, err
	}
	return &lecture, nil
}

func (r *lectureRepo) List(ctx context.Context, filter LectureFilter) ([]model.Lecture, error) {
	var lectures []model.Lecture
	db := r.db.WithContext(ctx).Model(&model.Lecture{})

	if filter.CourseID != "" {
		db = db.Where("course_id = ?", filter.CourseID)
	}
	if filter.InstructorID != "" {
		db = db.Where("instructor_id = ?", filter.InstructorID)
	}
	if filter.AssignedOnly {
		db = db.Where("instructor_id IS NOT NULL")
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.From != nil {
		db = db.Where("lecture_date >= ?", *filter.From)
	}
	if filter.To != nil {
		db = db.Where("lecture_date < ?", *filter.To)
	}

	err := withDisplay(db).
		Order("lecture_date ASC, start_time ASC").
		Find(&lectures).Error
	return lectures, err
}

// Update 乐观锁更新：version 不匹配时返回 ErrOptimisticLock
func (r *lectureRepo) Update(ctx context.Context, lecture *model.Lecture) error {
	oldVersion := lecture.Version
	result := r.db.WithContext(ctx).
		Model(&model.Lecture{}).
		Where("lecture_id = ? AND version = ?", lecture.LectureID, oldVersion).
		Updates(map[string]interface{}{
			"course_id":     lecture.CourseID,
			"instructor_id": lecture.InstructorID,
			"lecture_date":  lecture.LectureDate,
			"start_time":    lecture.StartTime,
			"end_time":      lecture.EndTime,
			"batch_name":    lecture.BatchName,
			"status":        lecture.Status,
			"updated_by":    lecture.UpdatedBy,
			"updated_at":    lecture.UpdatedAt,
			"version":       oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	lecture.Version = oldVersion + 1
	return nil
}

func (r *lectureRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Lecture{}).
		Where("lecture_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		}).Error
}

func (r *lectureRepo) CountByCourse(ctx context.Context, courseID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.Lecture{}).
		Where("course_id = ?", courseID).
		Count(&n).Error
	return n, err
}

func (r *lectureRepo) FindScheduledConflict(ctx context.Context, instructorID string, from, to time.Time, excludeLectureID string) (*model.Lecture, error) {
	db := r.db.WithContext(ctx).
		Where("instructor_id = ?", instructorID).
		Where("lecture_date >= ? AND lecture_date < ?", from, to).
		Where("status = ?", model.LectureStatusScheduled)
	if excludeLectureID != "" {
		db = db.Where("lecture_id <> ?", excludeLectureID)
	}

	var lectures []model.Lecture
	if err := withDisplay(db).Order("created_at ASC").Limit(1).Find(&lectures).Error; err != nil {
		return nil, err
	}
	if len(lectures) == 0 {
		return nil, nil
	}
	return &lectures[0], nil
}

func (r *lectureRepo) CompleteFinished(ctx context.Context, today time.Time, nowClock string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Lecture{}).
		Where("status = ?", model.LectureStatusScheduled).
		Where("(lecture_date < ? OR (lecture_date = ? AND end_time <= ?))", today, today, nowClock).
		Updates(map[string]interface{}{
			"status":     model.LectureStatusCompleted,
			"updated_at": gorm.Expr("NOW()"),
			"version":    gorm.Expr("version + 1"),
		})
	return result.RowsAffected, result.Error
}
