package job

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"lecture-scheduler/backend/internal/scheduling"
)

// FinishedLectureStore 批量完结课节所需的存储能力
type FinishedLectureStore interface {
	CompleteFinished(ctx context.Context, today time.Time, nowClock string) (int64, error)
}

// LectureCompleter 定时将已结束的 scheduled 课节标记为 completed
// 判定：日期早于今天，或日期为今天且 end_time <= 当前 HH:MM
type LectureCompleter struct {
	store     FinishedLectureStore
	validator *scheduling.Validator
	timeout   time.Duration
	logger    *zap.Logger
	cron      *cron.Cron
}

// NewLectureCompleter 创建定时任务，调用 Start 后开始调度
func NewLectureCompleter(store FinishedLectureStore, validator *scheduling.Validator, logger *zap.Logger) *LectureCompleter {
	return &LectureCompleter{
		store:     store,
		validator: validator,
		timeout:   30 * time.Second,
		logger:    logger.Named("lecture-completer"),
	}
}

// RunOnce 执行一次完结扫描，返回更新条数
func (j *LectureCompleter) RunOnce(ctx context.Context) (int64, error) {
	now := j.validator.Now()
	today := j.validator.StartOfDay(now)
	clock := now.Format("15:04")

	n, err := j.store.CompleteFinished(ctx, today, clock)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		j.logger.Info("已完结课节", zap.Int64("count", n), zap.String("as_of", now.Format(time.RFC3339)))
	}
	return n, nil
}

// Start 按 schedule 周期执行；重复调用返回错误
func (j *LectureCompleter) Start(schedule string) error {
	if j.cron != nil {
		return fmt.Errorf("lecture completer 已启动")
	}

	c := cron.New(
		cron.WithLocation(j.validator.Location()),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := c.AddFunc(schedule, j.tick); err != nil {
		return fmt.Errorf("无效的 cron 表达式 %q: %w", schedule, err)
	}
	c.Start()
	j.cron = c

	j.logger.Info("课节自动完结任务已启动", zap.String("schedule", schedule))
	return nil
}

// Stop 停止调度并等待正在执行的任务结束
func (j *LectureCompleter) Stop() {
	if j.cron == nil {
		return
	}
	<-j.cron.Stop().Done()
	j.cron = nil
}

func (j *LectureCompleter) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if _, err := j.RunOnce(ctx); err != nil {
		j.logger.Error("课节自动完结失败", zap.Error(err))
	}
}
