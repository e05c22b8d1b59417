package service

import (
	"go.uber.org/zap"

	"lecture-scheduler/backend/config"
	"lecture-scheduler/backend/internal/repository"
	"lecture-scheduler/backend/internal/scheduling"
	"lecture-scheduler/backend/pkg/jwt"
	"lecture-scheduler/backend/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth       AuthService
	Course     CourseService
	Lecture    LectureService
	Instructor InstructorService
	Export     ExportService
}

// NewService 创建 Service 聚合
// rdb 可为 nil：此时登出不写黑名单，排课不加分布式锁
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	validator *scheduling.Validator,
	logger *zap.Logger,
) *Service {
	// 避免把 nil 指针装进接口
	var (
		locker    SlotLocker
		blacklist TokenBlacklist
	)
	if rdb != nil {
		locker = rdb
		blacklist = rdb
	}

	return &Service{
		Auth:       NewAuthService(cfg, repo, jwtMgr, blacklist, logger),
		Course:     NewCourseService(repo, logger),
		Lecture:    NewLectureService(repo, validator, locker, cfg.Schedule.LockTTL, logger),
		Instructor: NewInstructorService(repo, validator, logger),
		Export:     NewExportService(repo, validator, logger),
	}
}
